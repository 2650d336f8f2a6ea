// Package pkgjson reads npm package descriptors and evaluates npm-style
// version ranges against installed packages.
package pkgjson

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// FileName is the descriptor file inside every npm package.
const FileName = "package.json"

// Descriptor is the subset of package.json pluginkit reads.
type Descriptor struct {
	Name         string            `json:"name"`
	Version      string            `json:"version"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}

// Read decodes the package.json at path.
func Read(path string) (*Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var d Descriptor
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &d, nil
}

// ReadDir decodes dir/package.json.
func ReadDir(dir string) (*Descriptor, error) {
	return Read(filepath.Join(dir, FileName))
}

// ResolveName returns configured when set, else the name in dir/package.json.
func ResolveName(dir, configured string) string {
	if configured != "" {
		return configured
	}
	if d, err := ReadDir(dir); err == nil {
		return d.Name
	}
	return ""
}

// InstalledPath returns node_modules/<name>/package.json. Scoped names
// like @scope/pkg keep their slash.
func InstalledPath(nodeModules, name string) string {
	return filepath.Join(nodeModules, filepath.FromSlash(name), FileName)
}

// Installed reads the descriptor of an installed dependency.
func Installed(nodeModules, name string) (*Descriptor, error) {
	return Read(InstalledPath(nodeModules, name))
}

// InstalledVersion returns the version of an installed dependency.
func InstalledVersion(nodeModules, name string) (string, error) {
	d, err := Installed(nodeModules, name)
	if err != nil {
		return "", err
	}
	if d.Version == "" {
		return "", fmt.Errorf("%s has no version", InstalledPath(nodeModules, name))
	}
	return d.Version, nil
}

// IsInstalled reports whether nodeModules contains a resolvable package name.
func IsInstalled(nodeModules, name string) bool {
	info, err := os.Stat(InstalledPath(nodeModules, name))
	return err == nil && !info.IsDir()
}

// Satisfies reports whether version falls inside the npm range rng.
// Tags, URLs and other non-semver ranges are treated as satisfied.
func Satisfies(version, rng string) (bool, error) {
	v, err := semver.NewVersion(version)
	if err != nil {
		return false, fmt.Errorf("invalid version %q: %w", version, err)
	}

	rng = strings.TrimSpace(rng)
	if rng == "" || rng == "*" || rng == "latest" {
		return true, nil
	}

	c, err := semver.NewConstraint(rng)
	if err != nil {
		if looksLikeNonSemverRange(rng) {
			return true, nil
		}
		return false, fmt.Errorf("invalid range %q: %w", rng, err)
	}
	return c.Check(v), nil
}

// AtLeast reports whether version is >= min. Unparseable versions are not.
func AtLeast(version, min string) bool {
	ok, err := Satisfies(version, ">="+min)
	return err == nil && ok
}

func looksLikeNonSemverRange(rng string) bool {
	for _, prefix := range []string{"file:", "link:", "git", "http:", "https:", "npm:", "workspace:"} {
		if strings.HasPrefix(rng, prefix) {
			return true
		}
	}
	return strings.Contains(rng, "/")
}
