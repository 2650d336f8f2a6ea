package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/pluginkit/configs"
	"github.com/Aman-CERP/pluginkit/internal/config"
	pkerrors "github.com/Aman-CERP/pluginkit/internal/errors"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage pluginkit configuration",
		Long: heredoc.Doc(`
			Manage pluginkit configuration.

			Configuration precedence (lowest to highest):
			  1. Hardcoded defaults
			  2. User config (~/.config/pluginkit/config.yaml)
			  3. Project config (.pluginkit.yaml)
			  4. Project .env file
			  5. Environment variables (PLUGINKIT_*, SKIP_PREFLIGHT_CHECK, UNBUNDLED_REACT)

			Credentials are only read from the environment or .env and are never
			written to a config file.`),
		Example: heredoc.Doc(`
			# Create .pluginkit.yaml in the plugin project
			pluginkit config init

			# Show the merged configuration
			pluginkit config show`),
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigPathCmd())

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create .pluginkit.yaml in the plugin project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigInit(cmd, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing project config")
	return cmd
}

func runConfigInit(cmd *cobra.Command, force bool) error {
	out := newOutput(cmd)

	root, err := projectRoot()
	if err != nil {
		return err
	}
	path := filepath.Join(root, config.ProjectConfigFile)

	if _, err := os.Stat(path); err == nil && !force {
		out.Warning("Project configuration already exists")
		out.Statusf("📁", "Location: %s", path)
		out.Status("💡", "Use --force to overwrite it")
		return nil
	}

	if err := os.WriteFile(path, []byte(configs.ProjectConfigTemplate), 0o644); err != nil {
		return pkerrors.New(pkerrors.ErrCodeFilePermission, "Could not write project configuration", err).
			WithDetail("path", path)
	}

	out.Successf("Created %s", path)
	out.Info("Set PLUGINKIT_ACCOUNT_SID and PLUGINKIT_AUTH_TOKEN in .env before deploying.")
	return nil
}

func newConfigShowCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the merged configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(cfg)
			}

			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print configuration file paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			root, err := projectRoot()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(w, "user:     %s\n", config.GetUserConfigPath())
			_, _ = fmt.Fprintf(w, "project:  %s\n", filepath.Join(root, config.ProjectConfigFile))
			_, _ = fmt.Fprintf(w, "registry: %s\n", config.NewConfig().Paths.Registry)
			return nil
		},
	}
}
