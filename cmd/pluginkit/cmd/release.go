package cmd

import (
	"log/slog"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"

	"github.com/Aman-CERP/pluginkit/internal/release"
)

func newReleaseCmd() *cobra.Command {
	var req release.Request

	cmd := &cobra.Command{
		Use:   "release",
		Short: "Release deployed plugin versions as a configuration",
		Long: heredoc.Doc(`
			Group deployed plugin versions into a named configuration and make it
			the live release. Every --plugin must name a deployed version.`),
		Example: heredoc.Doc(`
			pluginkit release --name "Autumn" \
			  --plugin plugin-one@1.0.0 --plugin plugin-two@2.3.1 \
			  --description "Autumn release"`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			client, err := newPlatformClient(cfg)
			if err != nil {
				return err
			}

			r := release.New(client,
				release.WithOutput(newOutput(cmd)),
				release.WithLogger(slog.Default()))
			_, err = r.Release(cmd.Context(), req)
			return err
		},
	}

	cmd.Flags().StringVar(&req.Name, "name", "", "Configuration name")
	cmd.Flags().StringVar(&req.Description, "description", "", "Configuration description")
	cmd.Flags().StringArrayVar(&req.Plugins, "plugin", nil, "Plugin version as name@version (repeatable)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("plugin")

	return cmd
}

func newArchiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "archive <name@version>",
		Short: "Archive a deployed plugin version",
		Long: heredoc.Doc(`
			Archive a deployed plugin version so it can no longer be added to a
			release. Archiving an already archived version is not an error.`),
		Example: "  pluginkit archive plugin-one@1.0.0",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			client, err := newPlatformClient(cfg)
			if err != nil {
				return err
			}

			r := release.New(client,
				release.WithOutput(newOutput(cmd)),
				release.WithLogger(slog.Default()))
			return r.Archive(cmd.Context(), args[0])
		},
	}
}
