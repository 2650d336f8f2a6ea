// Package ui provides terminal helpers: color styles, TTY detection and the
// interactive yes/no confirmation used when the plugin registry needs an update.
package ui

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// IsTTY checks if w is a terminal.
func IsTTY(w any) bool {
	if w == nil {
		return false
	}

	type fder interface{ Fd() uintptr }
	if f, ok := w.(fder); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}

	return false
}

// DetectNoColor checks if NO_COLOR environment variable is set.
func DetectNoColor() bool {
	_, exists := os.LookupEnv("NO_COLOR")
	return exists
}

// DetectCI checks if running in a CI environment.
func DetectCI() bool {
	ciVars := []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "TRAVIS"}
	for _, v := range ciVars {
		if _, exists := os.LookupEnv(v); exists {
			return true
		}
	}
	return false
}

// ColorEnabled reports whether styled output should be written to w.
func ColorEnabled(w io.Writer, noColorFlag bool) bool {
	if noColorFlag || DetectNoColor() {
		return false
	}
	return IsTTY(w)
}
