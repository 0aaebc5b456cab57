// Package config provides configuration loading for the recorder.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Storage backend names.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Config is the recorder configuration.
type Config struct {
	Workflow  WorkflowConfig  `toml:"workflow"`
	Storage   StorageConfig   `toml:"storage"`
	Logging   LoggingConfig   `toml:"logging"`
	Telemetry TelemetryConfig `toml:"telemetry"`
}

// WorkflowConfig identifies the workflow a recorder instance belongs to.
type WorkflowConfig struct {
	ID string `toml:"id"`
}

// StorageConfig selects and locates the persistence backend.
type StorageConfig struct {
	Backend string `toml:"backend"` // "file" or "sqlite"
	Path    string `toml:"path"`    // root directory (file) or database path (sqlite)
}

// LoggingConfig controls recorder logging.
type LoggingConfig struct {
	Level string `toml:"level"` // debug, info, warn, error
}

// TelemetryConfig controls OpenTelemetry span emission.
type TelemetryConfig struct {
	Enabled bool `toml:"enabled"`
}

// New creates a config with defaults.
func New() *Config {
	return &Config{
		Storage: StorageConfig{
			Backend: BackendFile,
			Path:    ".flightrec",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Default returns a default configuration.
func Default() *Config {
	return New()
}

// LoadFile loads configuration from a TOML file, over defaults.
func LoadFile(path string) (*Config, error) {
	cfg := New()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDefault loads configuration from flightrec.toml in the current
// directory.
func LoadDefault() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current directory: %w", err)
	}
	return LoadFile(filepath.Join(cwd, "flightrec.toml"))
}

// Validate rejects unknown backend names early.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendFile, BackendSQLite:
		return nil
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
}
