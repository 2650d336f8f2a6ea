package cmd

import (
	"encoding/json"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/pluginkit/internal/registry"
)

func newPluginsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plugins",
		Short: "Inspect the local plugin registry",
	}
	cmd.AddCommand(newPluginsListCmd())
	return cmd
}

func newPluginsListCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List plugins recorded by check-start",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			reg := registry.New(cfg.Paths.Registry, registry.WithLogger(slog.Default()))
			entries, err := reg.List()
			if err != nil {
				return err
			}

			if jsonOutput {
				if entries == nil {
					entries = []registry.Entry{}
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			}

			out := newOutput(cmd)
			if len(entries) == 0 {
				out.Status("📭", "No plugins registered yet. Run 'pluginkit check-start' in a plugin directory.")
				return nil
			}
			out.Header("Registered plugins")
			for _, e := range entries {
				out.Statusf("🔌", "%s", out.Styles().Bold.Render(e.Name))
				out.Infof("dir:  %s", e.Dir)
				if e.Port != 0 {
					out.Infof("port: %d", e.Port)
				}
			}
			out.Newline()
			out.Infof("Registry: %s", reg.Path())
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
