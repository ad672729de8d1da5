// Package config loads and validates the scribe.yml configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Backend selection values for Config.Backend.
const (
	BackendSQLite = "sqlite"
	BackendJSON   = "json"
)

// File names under the data directory. The backup suffix is appended to the
// flat file after a successful migration; normal operation never deletes it.
const (
	DatabaseFileName = "scribe.db"
	FlatFileName     = "todo_lists.json"
	BackupSuffix     = ".migrated"
)

// Config represents the top-level scribe.yml configuration.
type Config struct {
	Version      string `yaml:"version"`
	DataDir      string `yaml:"data_dir,omitempty"`      // Directory holding both storage files (default: ./data)
	Backend      string `yaml:"backend,omitempty"`       // Active backend: "sqlite" or "json" (default: sqlite)
	SaveInterval string `yaml:"save_interval,omitempty"` // Minimum interval between coalesced saves (default: 2s)
	LogLevel     string `yaml:"log_level,omitempty"`     // "debug", "info" or "warn" (default: info)

	saveInterval time.Duration
}

// Validate performs strict validation on the configuration and applies
// defaults for omitted fields.
func (c *Config) Validate() error {
	// Required: version
	if c.Version != "1.0" {
		return fmt.Errorf("unsupported version: %s (expected: 1.0)", c.Version)
	}

	if c.DataDir == "" {
		c.DataDir = "./data"
	}
	// SCRIBE_DATA_DIR wins over the file, matching deployment environments
	// where the data volume path is injected rather than committed.
	if env := os.Getenv("SCRIBE_DATA_DIR"); env != "" {
		c.DataDir = env
	}

	if c.Backend == "" {
		c.Backend = BackendSQLite
	}
	if c.Backend != BackendSQLite && c.Backend != BackendJSON {
		return fmt.Errorf("invalid backend: %s (must be %q or %q)", c.Backend, BackendSQLite, BackendJSON)
	}

	if c.SaveInterval == "" {
		c.SaveInterval = "2s"
	}
	d, err := time.ParseDuration(c.SaveInterval)
	if err != nil {
		return fmt.Errorf("invalid save_interval: %s (must be a duration like 2s or 500ms)", c.SaveInterval)
	}
	if d <= 0 {
		return fmt.Errorf("save_interval must be positive, got %s", c.SaveInterval)
	}
	c.saveInterval = d

	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	switch c.LogLevel {
	case "debug", "info", "warn":
	default:
		return fmt.Errorf("invalid log_level: %s (must be 'debug', 'info' or 'warn')", c.LogLevel)
	}

	return nil
}

// SaveIntervalDuration returns the parsed save_interval.
// Only meaningful after Validate has succeeded.
func (c *Config) SaveIntervalDuration() time.Duration {
	return c.saveInterval
}

// DatabasePath returns the SQLite file path under the data directory.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, DatabaseFileName)
}

// FlatFilePath returns the JSON flat file path under the data directory.
func (c *Config) FlatFilePath() string {
	return filepath.Join(c.DataDir, FlatFileName)
}

// Load reads and validates scribe.yml from the specified path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Default returns a validated configuration with all defaults applied,
// used when no scribe.yml is present.
func Default() *Config {
	config := &Config{Version: "1.0"}
	// Defaults never fail validation.
	if err := config.Validate(); err != nil {
		panic(fmt.Sprintf("default config invalid: %v", err))
	}
	return config
}
