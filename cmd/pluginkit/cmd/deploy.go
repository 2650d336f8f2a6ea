package cmd

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"

	"github.com/Aman-CERP/pluginkit/internal/config"
	"github.com/Aman-CERP/pluginkit/internal/deploy"
	pkerrors "github.com/Aman-CERP/pluginkit/internal/errors"
	"github.com/Aman-CERP/pluginkit/internal/pkgjson"
	"github.com/Aman-CERP/pluginkit/internal/platform"
	"github.com/Aman-CERP/pluginkit/internal/storage"
)

func newDeployCmd() *cobra.Command {
	var (
		public             bool
		disallowVersioning bool
		name               string
	)

	cmd := &cobra.Command{
		Use:   fmt.Sprintf("deploy <%s> [version]", strings.Join(deploy.BumpKinds, "|")),
		Short: "Deploy the built plugin bundle",
		Long: heredoc.Doc(`
			Deploy the built plugin bundle to the serverless platform.

			The version deployed is computed from the version in package.json:
			  major, minor, patch  bump that part of the version
			  custom <version>     deploy exactly <version>
			  overwrite            redeploy the current version over the old bundle

			Deploying a version that already exists fails unless overwrite is used.
			Bundles are private unless --public is given.`),
		Example: heredoc.Doc(`
			# Deploy the next minor version
			pluginkit deploy minor

			# Deploy a specific version publicly
			pluginkit deploy custom 2.0.0-beta.1 --public

			# Replace the bundle of the current version
			pluginkit deploy overwrite`),
		Args:      cobra.MaximumNArgs(2),
		ValidArgs: deploy.BumpKinds,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeploy(cmd, args, public, disallowVersioning, name)
		},
	}

	cmd.Flags().BoolVar(&public, "public", false, "Make the bundle publicly readable")
	cmd.Flags().BoolVar(&disallowVersioning, "disallow-versioning", false, "Always deploy as 0.0.0, replacing the previous bundle")
	cmd.Flags().StringVar(&name, "name", "", "Plugin name (default: package.json name)")

	return cmd
}

func runDeploy(cmd *cobra.Command, args []string, public, disallowVersioning bool, name string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	current := ""
	if !disallowVersioning && len(args) > 0 && deploy.NeedsCurrentVersion(args[0]) {
		d, err := pkgjson.ReadDir(cfg.ProjectDir)
		if err != nil {
			return pkerrors.IOError("Could not read the current version from package.json", err).
				WithDetail("path", filepath.Join(cfg.ProjectDir, pkgjson.FileName)).
				WithSuggestion("Run deploy from the plugin directory, pass --dir, or use 'deploy custom <version>'")
		}
		current = d.Version
	}

	version, opts, err := deploy.ResolveVersion(args, current, public, disallowVersioning)
	if err != nil {
		return err
	}

	client, err := newPlatformClient(cfg)
	if err != nil {
		return err
	}

	out := newOutput(cmd)
	deployOpts := []deploy.Option{
		deploy.WithOutput(out),
		deploy.WithLogger(slog.Default()),
		deploy.WithPluginName(name),
	}
	if cfg.Mirror.Enabled() {
		mirror, err := storage.NewS3Mirror(ctx, cfg.Mirror)
		if err != nil {
			out.Warningf("Mirror disabled: %v", err)
		} else {
			deployOpts = append(deployOpts, deploy.WithMirror(mirror))
		}
	}

	out.Header(fmt.Sprintf("Deploying version %s", version))
	_, err = deploy.New(cfg, client, deployOpts...).Deploy(ctx, version, opts)
	return err
}

func newPlatformClient(cfg *config.Config) (*platform.Client, error) {
	return platform.New(platform.Config{
		BaseURL:      cfg.Platform.BaseURL,
		PluginsURL:   cfg.Platform.PluginsURL,
		AccountSID:   cfg.Platform.AccountSID,
		AuthToken:    cfg.Platform.AuthToken,
		Timeout:      cfg.PlatformTimeout(),
		BuildTimeout: cfg.BuildTimeout(),
	}, platform.WithLogger(slog.Default()))
}
