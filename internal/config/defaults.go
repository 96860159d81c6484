package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"runtimed/internal/common/fsutil"
)

const (
	DefaultAddr            = ":8790"
	DefaultImage           = "voicestudio/model-library:latest"
	DefaultContainerPrefix = "voice-studio-models"
	DefaultContainerPort   = 8000
	DefaultPortRangeStart  = 3100
	DefaultPortRangeEnd    = 3110
	DefaultOutputMount     = "/app/output"
	DefaultPortStore       = PortStoreFile
	DefaultStartConfirmMS  = 2000
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "console"

	PortStoreFile   = "file"
	PortStoreSQLite = "sqlite"
)

// Environment variables consulted by ApplyEnv.
const (
	EnvImage       = "RUNTIMED_IMAGE"
	EnvLegacyImage = "DOCKER_IMAGE"
	EnvAddr        = "RUNTIMED_ADDR"
	EnvDataDir     = "RUNTIMED_DATA_DIR"
)

// ApplyEnv overrides fields from the environment. RUNTIMED_IMAGE wins over
// the legacy DOCKER_IMAGE.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv(EnvLegacyImage); v != "" {
		c.Image = v
	}
	if v := getenv(EnvImage); v != "" {
		c.Image = v
	}
	if v := getenv(EnvAddr); v != "" {
		c.Addr = v
	}
	if v := getenv(EnvDataDir); v != "" {
		c.DataDir = v
	}
}

// Defaults fills unset fields. The data directory defaults to the per-user
// application data path and a leading ~ is expanded.
func (c *Config) Defaults() error {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.Image == "" {
		c.Image = DefaultImage
	}
	if c.ContainerPrefix == "" {
		c.ContainerPrefix = DefaultContainerPrefix
	}
	if c.ContainerPort == 0 {
		c.ContainerPort = DefaultContainerPort
	}
	if c.PortRangeStart == 0 {
		c.PortRangeStart = DefaultPortRangeStart
	}
	if c.PortRangeEnd == 0 {
		c.PortRangeEnd = DefaultPortRangeEnd
	}
	if c.OutputMount == "" {
		c.OutputMount = DefaultOutputMount
	}
	if c.PortStore == "" {
		c.PortStore = DefaultPortStore
	}
	if c.StartConfirmDelayMS == 0 {
		c.StartConfirmDelayMS = DefaultStartConfirmMS
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = DefaultLogFormat
	}
	if c.DataDir == "" {
		d, err := fsutil.DataDir(runtime.GOOS, nil)
		if err != nil {
			return err
		}
		c.DataDir = d
	}
	d, err := fsutil.ExpandHome(c.DataDir)
	if err != nil {
		return err
	}
	c.DataDir = d
	if c.ScriptsDir != "" {
		if c.ScriptsDir, err = fsutil.ExpandHome(c.ScriptsDir); err != nil {
			return err
		}
	}
	return nil
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Image) == "" {
		return fmt.Errorf("image reference is missing")
	}
	if c.ContainerPort <= 0 || c.ContainerPort > 65535 {
		return fmt.Errorf("invalid container_port %d", c.ContainerPort)
	}
	if c.PortRangeStart <= 0 || c.PortRangeEnd < c.PortRangeStart || c.PortRangeEnd > 65535 {
		return fmt.Errorf("invalid port range %d-%d", c.PortRangeStart, c.PortRangeEnd)
	}
	switch c.PortStore {
	case PortStoreFile, PortStoreSQLite:
	default:
		return fmt.Errorf("unknown port_store %q (want %s or %s)", c.PortStore, PortStoreFile, PortStoreSQLite)
	}
	if c.StartConfirmDelayMS < 0 {
		return fmt.Errorf("start_confirm_delay_ms must not be negative")
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("unknown log_format %q (want console or json)", c.LogFormat)
	}
	return nil
}

// StartConfirmDelay returns the start confirmation delay as a duration.
func (c Config) StartConfirmDelay() time.Duration {
	return time.Duration(c.StartConfirmDelayMS) * time.Millisecond
}
