package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/rzbill/lodge/pkg/log"
	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration loaded from file/env.
type Config struct {
	// Directory holds the log files.
	Directory string `json:"directory" yaml:"directory"`
	// StorageEnabled turns persistence of log lines on or off.
	StorageEnabled  bool   `json:"storageEnabled" yaml:"storageEnabled"`
	MaxFiles        int    `json:"maxFiles" yaml:"maxFiles"`
	FlushThreshold  int    `json:"flushThreshold" yaml:"flushThreshold"`
	FlushIntervalMs int    `json:"flushIntervalMs" yaml:"flushIntervalMs"`
	Extension       string `json:"extension" yaml:"extension"`

	LogLevel  string   `json:"logLevel" yaml:"logLevel"`
	LogFormat string   `json:"logFormat" yaml:"logFormat"`
	Redact    []string `json:"redact" yaml:"redact"`

	// CatalogEnabled records sessions in a Pebble catalog.
	CatalogEnabled bool `json:"catalogEnabled" yaml:"catalogEnabled"`
	// CatalogDir defaults to <Directory>/.catalog.
	CatalogDir   string `json:"catalogDir" yaml:"catalogDir"`
	CatalogFsync string `json:"catalogFsync" yaml:"catalogFsync"` // always|interval|never
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		Directory:       DefaultLogDir(),
		StorageEnabled:  true,
		MaxFiles:        20,
		FlushThreshold:  20,
		FlushIntervalMs: 3000,
		Extension:       ".log",
		LogLevel:        "info",
		LogFormat:       "text",
		CatalogEnabled:  true,
		CatalogFsync:    "interval",
	}
}

// Load reads configuration from a JSON or YAML file (by extension) over the
// defaults. If path is empty, returns defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	return cfg, nil
}

// FlushInterval returns FlushIntervalMs as a duration.
func (c Config) FlushInterval() time.Duration {
	return time.Duration(c.FlushIntervalMs) * time.Millisecond
}

// CatalogPath returns the catalog directory.
func (c Config) CatalogPath() string {
	if c.CatalogDir != "" {
		return c.CatalogDir
	}
	return filepath.Join(c.Directory, ".catalog")
}

// Logging returns the logger configuration.
func (c Config) Logging() log.Config {
	return log.Config{Level: c.LogLevel, Format: c.LogFormat, Redact: c.Redact}
}

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	var result *multierror.Error
	if strings.TrimSpace(c.Directory) == "" {
		result = multierror.Append(result, fmt.Errorf("directory is required"))
	}
	if c.MaxFiles <= 0 {
		result = multierror.Append(result, fmt.Errorf("maxFiles must be positive, got %d", c.MaxFiles))
	}
	if c.FlushThreshold <= 0 {
		result = multierror.Append(result, fmt.Errorf("flushThreshold must be positive, got %d", c.FlushThreshold))
	}
	if c.FlushIntervalMs <= 0 {
		result = multierror.Append(result, fmt.Errorf("flushIntervalMs must be positive, got %d", c.FlushIntervalMs))
	}
	if !strings.HasPrefix(c.Extension, ".") {
		result = multierror.Append(result, fmt.Errorf("extension must start with a dot, got %q", c.Extension))
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		result = multierror.Append(result, err)
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		result = multierror.Append(result, fmt.Errorf("logFormat must be text or json, got %q", c.LogFormat))
	}
	switch c.CatalogFsync {
	case "", "always", "interval", "never":
	default:
		result = multierror.Append(result, fmt.Errorf("catalogFsync must be always, interval or never, got %q", c.CatalogFsync))
	}
	return result.ErrorOrNil()
}
