package config

import (
	"os"
	"path/filepath"
)

// DefaultLogDir returns the default log directory based on the host OS.
// It prefers per-user state locations and falls back to a dotdir in the
// user's home directory.
func DefaultLogDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil || homeDir == "" {
		return "./logs"
	}

	// XDG (Linux) override
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "lodge", "logs")
	}

	// macOS: ~/Library/Logs/Lodge
	if isDir(filepath.Join(homeDir, "Library", "Logs")) {
		return filepath.Join(homeDir, "Library", "Logs", "Lodge")
	}

	// Windows: %USERPROFILE%/AppData/Local/Lodge/Logs
	if isDir(filepath.Join(homeDir, "AppData")) {
		return filepath.Join(homeDir, "AppData", "Local", "Lodge", "Logs")
	}

	// XDG default state dir
	if isDir(filepath.Join(homeDir, ".local", "state")) {
		return filepath.Join(homeDir, ".local", "state", "lodge", "logs")
	}

	// Fallback: ~/.lodge/logs
	return filepath.Join(homeDir, ".lodge", "logs")
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}
