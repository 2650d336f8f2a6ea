// Package release groups deployed plugin versions into a configuration and
// makes it live. It also archives plugin versions that should no longer be
// released.
package release

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	pkerrors "github.com/Aman-CERP/pluginkit/internal/errors"
	"github.com/Aman-CERP/pluginkit/internal/output"
	"github.com/Aman-CERP/pluginkit/internal/platform"
	"github.com/Aman-CERP/pluginkit/internal/prints"
)

// API is the subset of the plugins API used here. *platform.Client implements it.
type API interface {
	PluginVersion(ctx context.Context, plugin, version string) (*platform.PluginVersion, error)
	ArchivePluginVersion(ctx context.Context, plugin, version string) (*platform.PluginVersion, error)
	CreateConfiguration(ctx context.Context, req platform.CreateConfigurationRequest) (*platform.Configuration, error)
	CreateRelease(ctx context.Context, configurationSid string) (*platform.Release, error)
}

// Ref names one plugin version.
type Ref struct {
	Name    string
	Version string
}

func (r Ref) String() string {
	return r.Name + "@" + r.Version
}

// ParseRef parses "name@version". Scoped names such as @scope/name@1.0.0
// split on the last @.
func ParseRef(s string) (Ref, error) {
	s = strings.TrimSpace(s)
	i := strings.LastIndex(s, "@")
	if i <= 0 || i == len(s)-1 {
		return Ref{}, pkerrors.ValidationError(
			fmt.Sprintf("Invalid plugin reference %q", s), nil).
			WithSuggestion("Use the form name@version, e.g. plugin-sample@1.0.0")
	}
	return Ref{Name: s[:i], Version: s[i+1:]}, nil
}

// Request describes a release.
type Request struct {
	Name        string
	Description string
	// Plugins are "name@version" references.
	Plugins []string
}

// Result describes a finished release.
type Result struct {
	ConfigurationSid string
	ReleaseSid       string
	Plugins          []Ref
}

// Releaser creates configurations and releases.
type Releaser struct {
	api    API
	out    *output.Writer
	logger *slog.Logger
}

// Option configures a Releaser.
type Option func(*Releaser)

// WithOutput sets the writer for result messages.
func WithOutput(w *output.Writer) Option {
	return func(r *Releaser) {
		r.out = w
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Releaser) {
		r.logger = l
	}
}

// New creates a Releaser.
func New(api API, opts ...Option) *Releaser {
	r := &Releaser{
		api:    api,
		out:    output.New(os.Stdout),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Release resolves every plugin reference, creates a configuration from
// them and releases it. References are all validated before any request.
func (r *Releaser) Release(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, pkerrors.ValidationError("Release requires a configuration name", nil)
	}
	if len(req.Plugins) == 0 {
		return nil, pkerrors.ValidationError("Release requires at least one plugin", nil).
			WithSuggestion("Pass --plugin name@version")
	}

	refs := make([]Ref, 0, len(req.Plugins))
	seen := make(map[string]bool, len(req.Plugins))
	for _, p := range req.Plugins {
		ref, err := ParseRef(p)
		if err != nil {
			return nil, err
		}
		if seen[ref.Name] {
			return nil, pkerrors.ValidationError(
				fmt.Sprintf("Plugin %s is listed more than once", ref.Name), nil)
		}
		seen[ref.Name] = true
		refs = append(refs, ref)
	}

	plugins := make([]platform.ConfigurationPlugin, 0, len(refs))
	for _, ref := range refs {
		pv, err := r.api.PluginVersion(ctx, ref.Name, ref.Version)
		if err != nil {
			if platform.IsNotFound(err) {
				return nil, pkerrors.New(pkerrors.ErrCodeNotFound,
					fmt.Sprintf("Plugin version %s was not found", ref), err).
					WithSuggestion("Deploy it first with: pluginkit deploy")
			}
			return nil, err
		}
		plugins = append(plugins, platform.ConfigurationPlugin{PluginVersion: pv.Sid})
	}

	cfg, err := r.api.CreateConfiguration(ctx, platform.CreateConfigurationRequest{
		Name:        req.Name,
		Description: req.Description,
		Plugins:     plugins,
	})
	if err != nil {
		return nil, err
	}

	rel, err := r.api.CreateRelease(ctx, cfg.Sid)
	if err != nil {
		return nil, err
	}

	r.logger.Info("configuration released",
		slog.String("configuration_sid", cfg.Sid),
		slog.String("release_sid", rel.Sid),
		slog.Int("plugins", len(refs)))

	names := make([]string, len(refs))
	for i, ref := range refs {
		names[i] = ref.String()
	}
	prints.ReleaseSuccessful(r.out, req.Name, cfg.Sid, rel.Sid, names)

	return &Result{ConfigurationSid: cfg.Sid, ReleaseSid: rel.Sid, Plugins: refs}, nil
}

// Archive archives one plugin version. An already archived version is
// reported and is not an error.
func (r *Releaser) Archive(ctx context.Context, reference string) error {
	ref, err := ParseRef(reference)
	if err != nil {
		return err
	}

	pv, err := r.api.PluginVersion(ctx, ref.Name, ref.Version)
	if err != nil {
		prints.ArchivedFailed(r.out, ref.String())
		return err
	}
	if pv.Archived {
		prints.AlreadyArchived(r.out, ref.String(), "It is already archived.")
		return nil
	}

	if _, err := r.api.ArchivePluginVersion(ctx, ref.Name, ref.Version); err != nil {
		prints.ArchivedFailed(r.out, ref.String())
		return err
	}

	r.logger.Info("plugin version archived", slog.String("plugin", ref.String()))
	prints.ArchivedSuccessfully(r.out, ref.String())
	return nil
}
