package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds runtime parameters for the service.
// Zero values mean "unspecified" and are replaced by Defaults.
type Config struct {
	Addr            string `json:"addr" yaml:"addr" toml:"addr"`
	Image           string `json:"image" yaml:"image" toml:"image"`
	ContainerPrefix string `json:"container_prefix" yaml:"container_prefix" toml:"container_prefix"`
	ContainerPort   int    `json:"container_port" yaml:"container_port" toml:"container_port"`
	PortRangeStart  int    `json:"port_range_start" yaml:"port_range_start" toml:"port_range_start"`
	PortRangeEnd    int    `json:"port_range_end" yaml:"port_range_end" toml:"port_range_end"`
	HostIP          string `json:"host_ip" yaml:"host_ip" toml:"host_ip"`
	DataDir         string `json:"data_dir" yaml:"data_dir" toml:"data_dir"`
	OutputMount     string `json:"output_mount" yaml:"output_mount" toml:"output_mount"`
	// PortStore selects the runtime port record backend: file or sqlite.
	PortStore           string `json:"port_store" yaml:"port_store" toml:"port_store"`
	StartConfirmDelayMS int    `json:"start_confirm_delay_ms" yaml:"start_confirm_delay_ms" toml:"start_confirm_delay_ms"`
	Platform            string `json:"platform" yaml:"platform" toml:"platform"`

	LogLevel  string `json:"log_level" yaml:"log_level" toml:"log_level"`
	LogFormat string `json:"log_format" yaml:"log_format" toml:"log_format"`

	CORSEnabled bool     `json:"cors_enabled" yaml:"cors_enabled" toml:"cors_enabled"`
	CORSOrigins []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`

	// ScriptsDir holds the engine check/install scripts. Empty disables them.
	ScriptsDir    string `json:"scripts_dir" yaml:"scripts_dir" toml:"scripts_dir"`
	EnsureOnStart bool   `json:"ensure_on_start" yaml:"ensure_on_start" toml:"ensure_on_start"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}
