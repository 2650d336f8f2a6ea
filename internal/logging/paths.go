package logging

import (
	"os"
	"path/filepath"
)

// DefaultLogDir returns ~/.pluginkit/logs, or a temp-dir fallback when the
// home directory is unavailable.
func DefaultLogDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".pluginkit", "logs")
	}
	return filepath.Join(home, ".pluginkit", "logs")
}

// DefaultLogPath returns the CLI log file path.
func DefaultLogPath() string {
	return filepath.Join(DefaultLogDir(), "pluginkit.log")
}
