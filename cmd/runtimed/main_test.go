package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/docker/docker/pkg/jsonmessage"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"runtimed/cmd/runtimed/ui"
	"runtimed/internal/config"
	"runtimed/internal/enginetest"
	"runtimed/internal/manager"
	"runtimed/internal/portstore"
	"runtimed/pkg/types"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{config.EnvImage, config.EnvLegacyImage, config.EnvAddr, config.EnvDataDir} {
		t.Setenv(k, "")
	}
}

func testCmd(t *testing.T) (*cobra.Command, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	cmd.SetContext(ctx)
	return cmd, &buf
}

func TestResolveLayersFileEnvAndFlags(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "runtimed.yaml")
	body := "image: from/file:1\naddr: \":9000\"\ndata_dir: " + dir + "\nport_store: sqlite\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(config.EnvAddr, ":9100")

	opts := &options{configPath: path, logLevel: "debug"}
	if err := opts.resolve(); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if opts.cfg.Image != "from/file:1" {
		t.Fatalf("image=%q", opts.cfg.Image)
	}
	if opts.cfg.Addr != ":9100" {
		t.Fatalf("env should override file addr, got %q", opts.cfg.Addr)
	}
	if opts.cfg.LogLevel != "debug" || opts.cfg.PortStore != config.PortStoreSQLite {
		t.Fatalf("unexpected cfg %+v", opts.cfg)
	}

	opts = &options{configPath: path, image: "from/flag:2"}
	t.Setenv(config.EnvImage, "from/env:3")
	if err := opts.resolve(); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if opts.cfg.Image != "from/flag:2" {
		t.Fatalf("flag should win, got %q", opts.cfg.Image)
	}
}

func TestResolveRejectsInvalidConfig(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(path, []byte(`{"data_dir":"`+dir+`","port_store":"redis"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	opts := &options{configPath: path}
	if err := opts.resolve(); err == nil || !strings.Contains(err.Error(), "port_store") {
		t.Fatalf("expected port_store error, got %v", err)
	}
}

func TestOpenPortStoreBackends(t *testing.T) {
	ctx := context.Background()
	for _, kind := range []string{config.PortStoreFile, config.PortStoreSQLite} {
		cfg := config.Config{DataDir: filepath.Join(t.TempDir(), "data"), PortStore: kind}
		store, closeStore, err := openPortStore(cfg)
		if err != nil {
			t.Fatalf("%s: open: %v", kind, err)
		}
		if err := store.Save(ctx, 3107); err != nil {
			t.Fatalf("%s: save: %v", kind, err)
		}
		got, err := store.Load(ctx)
		if err != nil || got != 3107 {
			t.Fatalf("%s: load=%d,%v", kind, got, err)
		}
		if err := closeStore(); err != nil {
			t.Fatalf("%s: close: %v", kind, err)
		}
	}
}

func TestRunPortJSON(t *testing.T) {
	cmd, buf := testCmd(t)
	store := portstore.NewMemory()
	if err := store.Save(context.Background(), 3105); err != nil {
		t.Fatal(err)
	}
	if err := runPort(cmd, store, true); err != nil {
		t.Fatalf("runPort: %v", err)
	}
	var got types.PortResponse
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("json: %v (%q)", err, buf.String())
	}
	if got.Port != 3105 || got.Endpoints.DownloadWS != "ws://127.0.0.1:3105/ws/download-model" {
		t.Fatalf("unexpected %+v", got)
	}
}

type stubProbe struct {
	st  types.InstallStatus
	err error
}

func (p stubProbe) Check(context.Context) (types.InstallStatus, error) { return p.st, p.err }

func TestRunCheck(t *testing.T) {
	cmd, buf := testCmd(t)
	if err := runCheck(cmd, stubProbe{st: types.InstallStatus{Installed: true}}, false); err != nil {
		t.Fatalf("runCheck: %v", err)
	}
	if !strings.Contains(buf.String(), "daemon is not running") {
		t.Fatalf("missing hint: %q", buf.String())
	}

	cmd, buf = testCmd(t)
	if err := runCheck(cmd, stubProbe{st: types.InstallStatus{Installed: true, Running: true}}, true); err != nil {
		t.Fatalf("runCheck: %v", err)
	}
	if strings.TrimSpace(buf.String()) != `{"installed":true,"running":true}` {
		t.Fatalf("json=%q", buf.String())
	}

	cmd, _ = testCmd(t)
	want := errors.New("probe exploded")
	if err := runCheck(cmd, stubProbe{err: want}, false); !errors.Is(err, want) {
		t.Fatalf("err=%v", err)
	}
}

func TestRunEnsurePrintsProgressAndEndpoints(t *testing.T) {
	clearEnv(t)
	eng := enginetest.New()
	eng.PullStream = []jsonmessage.JSONMessage{
		enginetest.Layer("aaaaaaaaaaaaaaaa", "Downloading", 50, 100),
		enginetest.Layer("aaaaaaaaaaaaaaaa", "Extracting", 100, 100),
	}
	cfg := config.Config{Image: config.DefaultImage, DataDir: t.TempDir()}
	if err := cfg.Defaults(); err != nil {
		t.Fatal(err)
	}
	cfg.StartConfirmDelayMS = 1
	mgr := manager.NewWithConfig(managerConfig(cfg, eng, portstore.NewMemory(), nil, zerolog.Nop()))

	cmd, buf := testCmd(t)
	if err := runEnsure(cmd, mgr); err != nil {
		t.Fatalf("runEnsure: %v\n%s", err, buf.String())
	}
	out := buf.String()
	for _, want := range []string{"pulling", "runtime ready (create)", "http://127.0.0.1:3100/tts"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRunEnsureReportsFailure(t *testing.T) {
	eng := enginetest.New()
	eng.PullErr = errors.New("registry unreachable")
	cfg := config.Config{Image: config.DefaultImage, DataDir: t.TempDir()}
	if err := cfg.Defaults(); err != nil {
		t.Fatal(err)
	}
	cfg.StartConfirmDelayMS = 1
	mgr := manager.NewWithConfig(managerConfig(cfg, eng, portstore.NewMemory(), nil, zerolog.Nop()))

	cmd, buf := testCmd(t)
	err := runEnsure(cmd, mgr)
	if !manager.IsPullFailed(err) {
		t.Fatalf("expected pull failure, got %v", err)
	}
	if !strings.Contains(buf.String(), "registry unreachable") {
		t.Fatalf("error not printed: %q", buf.String())
	}
}

func TestRunEnsurePrintsSteps(t *testing.T) {
	eng := enginetest.New()
	eng.AddImage(config.DefaultImage)
	cfg := config.Config{Image: config.DefaultImage, DataDir: t.TempDir()}
	if err := cfg.Defaults(); err != nil {
		t.Fatal(err)
	}
	cfg.StartConfirmDelayMS = 1
	var steps bytes.Buffer
	out := ui.NewStepOutput(&steps)
	mc := managerConfig(cfg, eng, portstore.NewMemory(), nil, zerolog.Nop())
	mc.Tracer = out.Tracer("runtimed/manager")
	mgr := manager.NewWithConfig(mc)

	cmd, buf := testCmd(t)
	if err := runEnsure(cmd, mgr); err != nil {
		t.Fatalf("runEnsure: %v\n%s", err, buf.String())
	}
	out.Close()
	got := steps.String()
	for _, want := range []string{"list", "pull", "create", "start"} {
		if !strings.Contains(got, want) {
			t.Fatalf("steps missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "[x]") {
		t.Fatalf("failed step reported:\n%s", got)
	}
}

func TestRootHasSubcommands(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"serve", "ensure", "check", "port", "install"} {
		if c, _, err := root.Find([]string{name}); err != nil || c.Name() != name {
			t.Fatalf("missing subcommand %s", name)
		}
	}
}
