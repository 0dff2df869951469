package config

import (
	"os"
	"strconv"
	"strings"
)

// FromEnv overlays LODGE_* environment variables onto cfg.
func FromEnv(cfg *Config) {
	if v := os.Getenv("LODGE_DIRECTORY"); v != "" {
		cfg.Directory = v
	}
	if v := os.Getenv("LODGE_STORAGE_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.StorageEnabled = b
		}
	}
	if v := os.Getenv("LODGE_MAX_FILES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxFiles = n
		}
	}
	if v := os.Getenv("LODGE_FLUSH_THRESHOLD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.FlushThreshold = n
		}
	}
	if v := os.Getenv("LODGE_FLUSH_INTERVAL_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.FlushIntervalMs = n
		}
	}
	if v := os.Getenv("LODGE_EXTENSION"); v != "" {
		cfg.Extension = v
	}
	if v := os.Getenv("LODGE_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("LODGE_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := os.Getenv("LODGE_REDACT"); v != "" {
		cfg.Redact = nil
		for _, p := range strings.Split(v, ",") {
			p = strings.TrimSpace(p)
			if p != "" {
				cfg.Redact = append(cfg.Redact, p)
			}
		}
	}
	if v := os.Getenv("LODGE_CATALOG_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.CatalogEnabled = b
		}
	}
	if v := os.Getenv("LODGE_CATALOG_DIR"); v != "" {
		cfg.CatalogDir = v
	}
	if v := os.Getenv("LODGE_CATALOG_FSYNC"); v != "" {
		cfg.CatalogFsync = v
	}
}
