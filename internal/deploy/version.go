// Package deploy computes plugin versions and pushes a built plugin bundle
// to the hosted serverless platform.
package deploy

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"

	pkerrors "github.com/Aman-CERP/pluginkit/internal/errors"
)

// Bump kinds accepted by the deploy command.
const (
	BumpMajor     = "major"
	BumpMinor     = "minor"
	BumpPatch     = "patch"
	BumpCustom    = "custom"
	BumpOverwrite = "overwrite"
)

// BumpKinds lists the accepted bump kinds in help order.
var BumpKinds = []string{BumpMajor, BumpMinor, BumpPatch, BumpCustom, BumpOverwrite}

// UnversionedVersion is deployed when versioning is disallowed.
const UnversionedVersion = "0.0.0"

// Bump is the outcome of ComputeVersion.
type Bump struct {
	Version   string
	Overwrite bool
}

// Options are fixed once per deploy invocation.
type Options struct {
	IsPublic           bool
	Overwrite          bool
	DisallowVersioning bool
}

// ComputeVersion resolves the version to deploy from a bump kind and the
// current package version.
func ComputeVersion(kind, customValue, current string) (Bump, error) {
	switch kind {
	case BumpMajor, BumpMinor, BumpPatch:
		v, err := semver.NewVersion(current)
		if err != nil {
			return Bump{}, pkerrors.New(pkerrors.ErrCodeInvalidVersion,
				fmt.Sprintf("Current version %q is not a semantic version", current), err).
				WithSuggestion("Fix the version field in package.json")
		}
		var next semver.Version
		switch kind {
		case BumpMajor:
			next = v.IncMajor()
		case BumpMinor:
			next = v.IncMinor()
		default:
			next = v.IncPatch()
		}
		return Bump{Version: next.String()}, nil

	case BumpOverwrite:
		current = strings.TrimSpace(current)
		if current == "" || strings.ContainsAny(current, "/\\ ") {
			return Bump{}, pkerrors.New(pkerrors.ErrCodeInvalidVersion,
				fmt.Sprintf("Current version %q cannot be overwritten", current), nil).
				WithSuggestion("Set the version field in package.json")
		}
		return Bump{Version: current, Overwrite: true}, nil

	case BumpCustom:
		customValue = strings.TrimSpace(customValue)
		if customValue == "" {
			return Bump{}, pkerrors.New(pkerrors.ErrCodeInvalidCommand,
				"Custom version bump requires a version", nil).
				WithSuggestion("Run: pluginkit deploy custom <version>")
		}
		if strings.ContainsAny(customValue, "/\\ ") {
			return Bump{}, pkerrors.New(pkerrors.ErrCodeInvalidVersion,
				fmt.Sprintf("Custom version %q cannot contain slashes or spaces", customValue), nil)
		}
		return Bump{Version: customValue}, nil
	}

	msg := fmt.Sprintf("Version bump can only be %s", joinKinds())
	if kind != "" {
		msg = fmt.Sprintf("Invalid version bump %q: version bump can only be %s", kind, joinKinds())
	}
	return Bump{}, pkerrors.New(pkerrors.ErrCodeInvalidCommand, msg, nil)
}

// NeedsCurrentVersion reports whether kind is computed from the current
// package version.
func NeedsCurrentVersion(kind string) bool {
	switch kind {
	case BumpMajor, BumpMinor, BumpPatch, BumpOverwrite:
		return true
	}
	return false
}

// ResolveVersion turns deploy command arguments into a version and Options.
// args[0] is the bump kind and args[1] the custom version, if any.
func ResolveVersion(args []string, current string, public, disallowVersioning bool) (string, Options, error) {
	opts := Options{IsPublic: public, DisallowVersioning: disallowVersioning}
	if disallowVersioning {
		opts.Overwrite = true
		return UnversionedVersion, opts, nil
	}

	var kind, custom string
	if len(args) > 0 {
		kind = args[0]
	}
	if len(args) > 1 {
		custom = args[1]
	}

	bump, err := ComputeVersion(kind, custom, current)
	if err != nil {
		return "", Options{}, err
	}
	opts.Overwrite = bump.Overwrite
	return bump.Version, opts, nil
}

func joinKinds() string {
	quoted := make([]string, len(BumpKinds))
	for i, k := range BumpKinds {
		quoted[i] = "'" + k + "'"
	}
	return strings.Join(quoted[:len(quoted)-1], ", ") + " or " + quoted[len(quoted)-1]
}
