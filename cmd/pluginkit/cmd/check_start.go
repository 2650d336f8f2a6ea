package cmd

import (
	"encoding/json"
	"log/slog"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"

	pkerrors "github.com/Aman-CERP/pluginkit/internal/errors"
	"github.com/Aman-CERP/pluginkit/internal/output"
	"github.com/Aman-CERP/pluginkit/internal/preflight"
	"github.com/Aman-CERP/pluginkit/internal/registry"
	"github.com/Aman-CERP/pluginkit/internal/ui"
)

func newCheckStartCmd() *cobra.Command {
	var (
		public     bool
		verbose    bool
		jsonOutput bool
		name       string
	)

	cmd := &cobra.Command{
		Use:   "check-start",
		Short: "Check the plugin project before the dev server starts",
		Long: heredoc.Doc(`
			Run the checks that must pass before the plugin dev server starts.

			Checks, in order:
			  - the app configuration file exists
			  - index.html can be copied into the public directory
			  - React dependencies match the versions the host UI expects
			  - TypeScript projects have the compiler and a tsconfig.json
			  - the plugin entry calls loadPlugin exactly once
			  - the plugin is recorded in the local plugin registry

			Set SKIP_PREFLIGHT_CHECK=true to turn dependency mismatches into
			warnings, and UNBUNDLED_REACT=true to allow a plugin-supplied React.`),
		Example: heredoc.Doc(`
			# Check the current plugin
			pluginkit check-start

			# Show details for every check
			pluginkit check-start --verbose

			# Machine-readable output
			pluginkit check-start --json`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCheckStart(cmd, public, verbose, jsonOutput, name)
		},
	}

	cmd.Flags().BoolVar(&public, "public", false, "Start the plugin in public mode")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show details for every check")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output results as JSON")
	cmd.Flags().StringVar(&name, "name", "", "Plugin name (default: package.json name)")

	return cmd
}

func runCheckStart(cmd *cobra.Command, public, verbose, jsonOutput bool, name string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Check messages go to stderr in JSON mode so stdout stays parseable.
	out := newOutput(cmd)
	if jsonOutput {
		out = output.New(cmd.ErrOrStderr())
	}

	prompter := ui.NewPrompter(cmd.InOrStdin(), out.Out(), ui.WithStyles(out.Styles()))
	reg := registry.New(cfg.Paths.Registry,
		registry.WithConfirm(prompter.Confirm),
		registry.WithLogger(slog.Default()))

	checker := preflight.New(
		preflight.WithConfig(cfg),
		preflight.WithAllowSkip(cfg.Preflight.Skip),
		preflight.WithAllowReact(cfg.Preflight.UnbundledReact),
		preflight.WithPublic(public),
		preflight.WithPluginName(name),
		preflight.WithRegistry(reg),
		preflight.WithVerbose(verbose),
		preflight.WithOutput(out),
	)

	results := checker.RunAll(cmd.Context(), cfg.ProjectDir)
	failed := preflightError(results)

	if jsonOutput {
		if err := writeCheckJSON(cmd, checker, results, failed); err != nil {
			return err
		}
	} else {
		checker.PrintResults(results)
	}

	if failed != nil {
		return failed
	}
	return nil
}

// preflightError returns the error for the first critical result, or nil.
func preflightError(results []preflight.CheckResult) *pkerrors.PluginError {
	for _, r := range results {
		if r.IsCritical() {
			return pkerrors.New(pkerrors.ErrCodePreflightFailed, "Preflight check failed", nil).
				WithDetail("check", r.Name).
				WithDetail("reason", r.Message)
		}
	}
	return nil
}

// CheckStartOutput is the --json document.
type CheckStartOutput struct {
	Status   string                  `json:"status"`
	Checks   []preflight.CheckResult `json:"checks"`
	Warnings []string                `json:"warnings,omitempty"`
	Errors   []string                `json:"errors,omitempty"`
	Error    json.RawMessage         `json:"error,omitempty"`
}

func writeCheckJSON(cmd *cobra.Command, checker *preflight.Checker, results []preflight.CheckResult, failed *pkerrors.PluginError) error {
	doc := CheckStartOutput{
		Status: checker.SummaryStatus(results),
		Checks: results,
	}
	if failed != nil {
		raw, err := pkerrors.FormatJSON(failed)
		if err != nil {
			return err
		}
		doc.Error = raw
	}
	for _, r := range results {
		if r.IsCritical() {
			doc.Errors = append(doc.Errors, r.Name+": "+r.Message)
		} else if r.Status == preflight.StatusWarn {
			doc.Warnings = append(doc.Warnings, r.Name+": "+r.Message)
		}
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
