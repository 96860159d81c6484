package main

import (
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"runtimed/internal/common/fsutil"
	"runtimed/internal/config"
	"runtimed/internal/engine"
	"runtimed/internal/installer"
	"runtimed/internal/manager"
	"runtimed/internal/portstore"
)

const portStoreDBName = "runtime.db"

// runtimeDeps holds what a Manager needs plus the resources to release.
type runtimeDeps struct {
	engine  *engine.Docker
	store   manager.PortStore
	probe   manager.Probe
	closers []func() error
}

func (d *runtimeDeps) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		_ = d.closers[i]()
	}
}

// openPortStore returns the configured runtime port record backend.
func openPortStore(cfg config.Config) (manager.PortStore, func() error, error) {
	if err := fsutil.EnsureDir(cfg.DataDir); err != nil {
		return nil, nil, fmt.Errorf("create data dir: %w", err)
	}
	switch cfg.PortStore {
	case config.PortStoreSQLite:
		s, err := portstore.OpenSQLite(filepath.Join(cfg.DataDir, portStoreDBName))
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		return portstore.NewFile(filepath.Join(cfg.DataDir, portstore.FileName)), func() error { return nil }, nil
	}
}

// newProbe prefers the platform check script when a scripts dir is configured
// and present.
func newProbe(cfg config.Config, d *engine.Docker) manager.Probe {
	if cfg.ScriptsDir != "" && fsutil.PathExists(cfg.ScriptsDir) {
		return installer.ScriptProbe{Dir: cfg.ScriptsDir, GOOS: runtime.GOOS}
	}
	return engine.NewProbe(d.Client())
}

func openDeps(cfg config.Config, log zerolog.Logger) (*runtimeDeps, error) {
	d, err := engine.NewDocker(log)
	if err != nil {
		return nil, err
	}
	deps := &runtimeDeps{engine: d, closers: []func() error{d.Close}}
	store, closeStore, err := openPortStore(cfg)
	if err != nil {
		deps.Close()
		return nil, err
	}
	deps.store = store
	deps.closers = append(deps.closers, closeStore)
	deps.probe = newProbe(cfg, d)
	return deps, nil
}

// newManager builds the Manager. A nil tracer uses the global provider.
func newManager(cfg config.Config, deps *runtimeDeps, log zerolog.Logger, tracer trace.Tracer) *manager.Manager {
	mc := managerConfig(cfg, deps.engine, deps.store, deps.probe, log)
	mc.Tracer = tracer
	return manager.NewWithConfig(mc)
}

func managerConfig(cfg config.Config, eng manager.Engine, store manager.PortStore, probe manager.Probe, log zerolog.Logger) manager.ManagerConfig {
	return manager.ManagerConfig{
		Engine:            eng,
		Store:             store,
		Probe:             probe,
		Image:             cfg.Image,
		ContainerPrefix:   cfg.ContainerPrefix,
		ContainerPort:     cfg.ContainerPort,
		HostIP:            cfg.HostIP,
		PortRangeStart:    cfg.PortRangeStart,
		PortRangeEnd:      cfg.PortRangeEnd,
		DataDir:           cfg.DataDir,
		OutputMount:       cfg.OutputMount,
		StartConfirmDelay: cfg.StartConfirmDelay(),
		Platform:          cfg.Platform,
		Logger:            &log,
	}
}
