// Package cmd provides the CLI commands for pluginkit.
package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"

	"github.com/Aman-CERP/pluginkit/internal/config"
	pkerrors "github.com/Aman-CERP/pluginkit/internal/errors"
	"github.com/Aman-CERP/pluginkit/internal/logging"
	"github.com/Aman-CERP/pluginkit/internal/output"
	"github.com/Aman-CERP/pluginkit/internal/ui"
	"github.com/Aman-CERP/pluginkit/pkg/version"
)

// Persistent flags
var (
	debugMode      bool
	noColor        bool
	projectDirFlag string
	loggingCleanup func()
)

// NewRootCmd creates the root command for the pluginkit CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pluginkit",
		Short: "Build, check and deploy browser plugins",
		Long: heredoc.Doc(`
			pluginkit is the developer CLI for contact-center UI plugins.

			It checks a plugin project before the dev server starts, deploys the
			built bundle to the hosted serverless platform and releases deployed
			plugin versions as a configuration.

			Run 'pluginkit check-start' from your plugin directory to get started.`),
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("pluginkit version {{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.pluginkit/logs/")
	cmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	cmd.PersistentFlags().StringVarP(&projectDirFlag, "dir", "C", "", "Plugin project directory (default: nearest package.json)")

	cmd.PersistentPreRunE = startLogging
	cmd.PersistentPostRunE = stopLogging

	cmd.AddCommand(newCheckStartCmd())
	cmd.AddCommand(newDeployCmd())
	cmd.AddCommand(newReleaseCmd())
	cmd.AddCommand(newArchiveCmd())
	cmd.AddCommand(newPluginsCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// startLogging installs the default slog logger. --debug logs everything
// to a file; otherwise only warnings reach stderr.
func startLogging(cmd *cobra.Command, _ []string) error {
	cfg := logging.DefaultConfig()
	cfg.StderrOut = cmd.ErrOrStderr()
	if debugMode {
		cfg = logging.DebugConfig()
	}

	cleanup, err := logging.SetupDefault(cfg)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	loggingCleanup = cleanup

	if debugMode {
		slog.Info("Debug logging enabled",
			slog.String("log_file", logging.DefaultLogPath()),
			slog.String("version", version.Version),
			slog.String("command", cmd.CommandPath()))
	}
	return nil
}

func stopLogging(_ *cobra.Command, _ []string) error {
	if loggingCleanup != nil {
		if debugMode {
			slog.Info("Debug logging stopped")
		}
		loggingCleanup()
		loggingCleanup = nil
	}
	return nil
}

// Execute runs the root command and prints any error it returns.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCmd()
	err := root.ExecuteContext(ctx)
	if err != nil {
		logError(err)
		printError(root.ErrOrStderr(), err)
	}
	// PersistentPostRunE is skipped when a command fails.
	_ = stopLogging(root, nil)
	return err
}

// logError records a failed command in the debug log.
func logError(err error) {
	fields := pkerrors.FormatForLog(err)
	attrs := make([]any, 0, len(fields))
	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	slog.Debug("Command failed", attrs...)
}

func printError(w io.Writer, err error) {
	_, _ = fmt.Fprint(w, pkerrors.FormatForCLI(err))
}

// projectRoot returns --dir, or the nearest directory holding package.json.
func projectRoot() (string, error) {
	if projectDirFlag != "" {
		if info, err := os.Stat(projectDirFlag); err != nil || !info.IsDir() {
			return "", pkerrors.New(pkerrors.ErrCodeConfigNotFound,
				fmt.Sprintf("Project directory %s does not exist", projectDirFlag), err).
				WithSuggestion("Pass the plugin directory with --dir, or run from inside it")
		}
		return projectDirFlag, nil
	}
	return config.FindProjectRoot(".")
}

// loadConfig loads the configuration of the current plugin project.
func loadConfig() (*config.Config, error) {
	root, err := projectRoot()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(root)
	if err != nil {
		return nil, pkerrors.New(pkerrors.ErrCodeConfigInvalid, "Could not load configuration", err).
			WithDetail("project", root).
			WithSuggestion("Run 'pluginkit config show' to inspect the merged configuration")
	}
	return cfg, nil
}

// newOutput returns an output writer for cmd's stdout, colored on a TTY.
func newOutput(cmd *cobra.Command) *output.Writer {
	w := cmd.OutOrStdout()
	return output.New(w, output.WithColor(ui.ColorEnabled(w, noColor)))
}
