package preflight

import (
	"context"
	"os"
	"strings"

	"github.com/Aman-CERP/pluginkit/internal/config"
	"github.com/Aman-CERP/pluginkit/internal/output"
	"github.com/Aman-CERP/pluginkit/internal/registry"
)

// CheckStatus represents the result of a preflight check.
type CheckStatus int

const (
	// StatusPass indicates the check passed successfully.
	StatusPass CheckStatus = iota
	// StatusWarn indicates a non-critical warning.
	StatusWarn
	// StatusFail indicates the check failed.
	StatusFail
)

// String returns the string representation of a CheckStatus.
func (s CheckStatus) String() string {
	switch s {
	case StatusPass:
		return "PASS"
	case StatusWarn:
		return "WARN"
	case StatusFail:
		return "FAIL"
	default:
		return "UNKNOWN"
	}
}

// MarshalText renders the status by name in JSON output.
func (s CheckStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// CheckResult holds the result of a single preflight check.
type CheckResult struct {
	Name     string      `json:"name"`
	Status   CheckStatus `json:"status"`
	Message  string      `json:"message"`
	Details  string      `json:"details,omitempty"`
	Required bool        `json:"required"`
}

// IsCritical returns true if this is a required check that failed.
func (r CheckResult) IsCritical() bool {
	return r.Required && r.Status == StatusFail
}

// PluginRegistrar records the plugin being started in the local registry.
type PluginRegistrar interface {
	Upsert(ctx context.Context, entry registry.Entry) (registry.Outcome, error)
}

// Checker runs the checks that must pass before a plugin dev server starts.
type Checker struct {
	cfg        *config.Config
	projectDir string
	pluginName string

	allowSkip  bool
	allowReact bool
	isPublic   bool
	verbose    bool

	out       *output.Writer
	registrar PluginRegistrar
}

// Option configures a Checker.
type Option func(*Checker)

// WithConfig sets the project configuration. Its ProjectDir becomes the
// default project directory.
func WithConfig(cfg *config.Config) Option {
	return func(c *Checker) {
		c.cfg = cfg
	}
}

// WithAllowSkip downgrades version mismatches to warnings.
func WithAllowSkip(allow bool) Option {
	return func(c *Checker) {
		c.allowSkip = allow
	}
}

// WithAllowReact permits a React version other than the host UI's when the
// host supports it.
func WithAllowReact(allow bool) Option {
	return func(c *Checker) {
		c.allowReact = allow
	}
}

// WithPublic marks the dev page as public.
func WithPublic(public bool) Option {
	return func(c *Checker) {
		c.isPublic = public
	}
}

// WithPluginName overrides the plugin name used for the registry.
func WithPluginName(name string) Option {
	return func(c *Checker) {
		c.pluginName = name
	}
}

// WithRegistry sets the plugin registry.
func WithRegistry(r PluginRegistrar) Option {
	return func(c *Checker) {
		c.registrar = r
	}
}

// WithVerbose enables verbose output.
func WithVerbose(verbose bool) Option {
	return func(c *Checker) {
		c.verbose = verbose
	}
}

// WithOutput sets the output writer.
func WithOutput(w *output.Writer) Option {
	return func(c *Checker) {
		c.out = w
	}
}

// New creates a new Checker with the given options.
func New(opts ...Option) *Checker {
	c := &Checker{}
	for _, opt := range opts {
		opt(c)
	}
	if c.cfg == nil {
		c.cfg = config.NewConfig()
	}

	c.projectDir = c.cfg.ProjectDir
	if c.projectDir == "" {
		c.projectDir = "."
	}
	if c.out == nil {
		c.out = output.New(os.Stdout)
	}
	if c.registrar == nil {
		c.registrar = registry.New(c.cfg.Paths.Registry)
	}
	return c
}

// RunAll runs every check in order and stops after the first critical
// failure. A non-empty projectDir overrides the configured one.
func (c *Checker) RunAll(ctx context.Context, projectDir string) []CheckResult {
	if projectDir != "" {
		c.projectDir = projectDir
	}

	var results []CheckResult
	add := func(rs ...CheckResult) bool {
		results = append(results, rs...)
		return c.HasCriticalFailures(rs)
	}

	if add(c.CheckAppConfig()) {
		return results
	}
	if add(c.CheckPublicDirSync(c.isPublic)) {
		return results
	}
	if add(c.CheckExternalDepsVersions(c.allowSkip, c.allowReact)...) {
		return results
	}
	if add(c.ValidateTypescriptProject()) {
		return results
	}
	if add(c.CheckPluginCount()) {
		return results
	}
	if ctx.Err() != nil {
		add(CheckResult{Name: "plugin_registry", Status: StatusFail, Message: ctx.Err().Error(), Required: true})
		return results
	}
	add(c.CheckPluginConfigurationExists(ctx))
	return results
}

// HasCriticalFailures returns true if any required check failed.
func (c *Checker) HasCriticalFailures(results []CheckResult) bool {
	for _, r := range results {
		if r.IsCritical() {
			return true
		}
	}
	return false
}

// SummaryStatus returns a summary status string for the results.
func (c *Checker) SummaryStatus(results []CheckResult) string {
	hasWarnings := false
	hasCriticalFailure := false

	for _, r := range results {
		if r.IsCritical() {
			hasCriticalFailure = true
		}
		if r.Status == StatusWarn || (r.Status == StatusFail && !r.Required) {
			hasWarnings = true
		}
	}

	if hasCriticalFailure {
		return "failed"
	}
	if hasWarnings {
		return "ready_with_warnings"
	}
	return "ready"
}

// PrintResults prints check results to the configured output.
func (c *Checker) PrintResults(results []CheckResult) {
	c.out.Newline()
	c.out.Header("Plugin preflight")

	for _, r := range results {
		label := c.statusLabel(r.Status)
		c.out.Statusf(label, "%s: %s", r.Name, r.Message)
		if c.verbose && r.Details != "" {
			c.out.Info("   " + r.Details)
		}
	}

	c.out.Newline()
	status := c.SummaryStatus(results)
	switch status {
	case "failed":
		c.out.Errorf("Status: %s", strings.ToUpper(status))
	case "ready_with_warnings":
		c.out.Warningf("Status: %s", strings.ToUpper(status))
	default:
		c.out.Successf("Status: %s", strings.ToUpper(status))
	}
}

func (c *Checker) statusLabel(status CheckStatus) string {
	s := c.out.Styles()
	text := "[" + status.String() + "]"
	switch status {
	case StatusPass:
		return s.Success.Render(text)
	case StatusWarn:
		return s.Warning.Render(text)
	case StatusFail:
		return s.Error.Render(text)
	default:
		return s.Dim.Render("[????]")
	}
}
