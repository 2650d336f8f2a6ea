package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"

	"github.com/Aman-CERP/pluginkit/internal/pkgjson"
	"github.com/Aman-CERP/pluginkit/pkg/version"
)

// VersionOutput is the --json document of the version command.
type VersionOutput struct {
	version.BuildInfo
	// Plugin is name@version of the project in --dir, when there is one.
	Plugin string `json:"plugin,omitempty"`
}

func newVersionCmd() *cobra.Command {
	var jsonOutput bool
	var shortOutput bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long: heredoc.Doc(`
			Print the pluginkit build and the User-Agent it sends to the platform.

			Inside a plugin project the plugin's own name and version are shown too.`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()
			if shortOutput {
				_, err := fmt.Fprintln(w, version.Short())
				return err
			}

			doc := VersionOutput{
				BuildInfo: version.GetInfo(),
				Plugin:    currentPlugin(),
			}
			if jsonOutput {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(doc)
			}
			return writeVersion(w, doc)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output version info as JSON")
	cmd.Flags().BoolVar(&shortOutput, "short", false, "Output only the version number")

	return cmd
}

func writeVersion(w io.Writer, doc VersionOutput) error {
	_, err := fmt.Fprintf(w, heredoc.Doc(`
		pluginkit %s
		  commit:     %s
		  built:      %s
		  go:         %s %s/%s
		  user agent: %s
	`), doc.Version, doc.Commit, doc.Date, doc.GoVersion, doc.OS, doc.Arch, doc.UserAgent)
	if err != nil || doc.Plugin == "" {
		return err
	}
	_, err = fmt.Fprintf(w, "  plugin:     %s\n", doc.Plugin)
	return err
}

// currentPlugin returns name@version from the project's package.json, or ""
// outside a plugin project.
func currentPlugin() string {
	root, err := projectRoot()
	if err != nil {
		return ""
	}
	d, err := pkgjson.ReadDir(root)
	if err != nil || d.Name == "" {
		return ""
	}
	if d.Version == "" {
		return d.Name
	}
	return d.Name + "@" + d.Version
}
