// Package prints holds every user-facing message pluginkit writes, so the
// wording lives in one place and checks only decide when to print.
package prints

import (
	"fmt"
	"strings"

	"github.com/MakeNowJust/heredoc"

	"github.com/Aman-CERP/pluginkit/internal/output"
)

// SkipPreflightHint tells the user how to bypass dependency checks.
const SkipPreflightHint = "To skip this check, set SKIP_PREFLIGHT_CHECK=true in your .env file."

// AppConfigMissing reports a missing app config file.
func AppConfigMissing(w *output.Writer, path string) {
	w.Error("Could not find the app configuration file.")
	w.Infof("Expected it at %s", path)
	w.Code(heredoc.Doc(`
		Copy the example and fill in your account details:
		  cp public/appConfig.example.js public/appConfig.js`))
}

// PublicDirCopyFailed reports that index.html could not be copied.
func PublicDirCopyFailed(w *output.Writer, err error, isPublic bool) {
	w.Errorf("Could not copy index.html into the public directory: %v", err)
	w.Infof("public: %t", isPublic)
	w.Info("Check that the public directory exists and is writable.")
}

// ExpectedDependencyNotFound reports a dependency the plugin must declare.
func ExpectedDependencyNotFound(w *output.Writer, name string) {
	w.Errorf("Expected package %s was not found in the host UI dependencies.", w.Styles().Bold.Render(name))
	w.Info("Reinstall your node_modules and try again.")
}

// DependencyNotInstalled reports a declared dependency missing from node_modules.
func DependencyNotInstalled(w *output.Writer, name string) {
	w.Errorf("Package %s is declared but not installed.", w.Styles().Bold.Render(name))
	w.Code("npm install")
}

// VersionMismatch reports an installed version outside the declared range.
func VersionMismatch(w *output.Writer, name, installed, required string, skip bool) {
	msg := fmt.Sprintf("The installed %s@%s does not satisfy the required version %s.", name, installed, required)
	if skip {
		w.Warning(msg)
		w.Info("SKIP_PREFLIGHT_CHECK is set; continuing anyway.")
		return
	}
	w.Error(msg)
	w.Infof("Run `npm install %s@%s` to install a compatible version.", name, required)
	w.Info(SkipPreflightHint)
}

// UnbundledReactMismatch reports that the host UI is too old for a
// plugin-supplied React.
func UnbundledReactMismatch(w *output.Writer, hostVersion, name, installed string, skip bool) {
	msg := fmt.Sprintf("Host UI %s does not support %s@%s outside its bundle; 1.19.0 or later is required.",
		hostVersion, name, installed)
	if skip {
		w.Warning(msg)
		w.Info("SKIP_PREFLIGHT_CHECK is set; continuing anyway.")
		return
	}
	w.Error(msg)
	w.Info("Upgrade the host UI or remove UNBUNDLED_REACT from your .env file.")
	w.Info(SkipPreflightHint)
}

// TypescriptNotInstalled reports a TypeScript project without the compiler.
func TypescriptNotInstalled(w *output.Writer) {
	w.Error("This looks like a TypeScript project but typescript is not installed.")
	w.Code("npm install --save-dev typescript")
}

// TSConfigCreated reports that a default tsconfig.json was written.
func TSConfigCreated(w *output.Writer, path string) {
	w.Successf("Created a default tsconfig.json at %s", path)
}

// LoadPluginCountError reports a plugin entry that does not load exactly one plugin.
func LoadPluginCountError(w *output.Writer, count int) {
	w.Errorf("Found %d loadPlugin calls in the plugin entry; exactly one is required.", count)
	w.Info("A plugin project builds one plugin. Move the others into their own projects.")
}

// PluginRegistered reports a newly registered plugin.
func PluginRegistered(w *output.Writer, name, dir string) {
	w.Successf("Registered %s at %s", name, dir)
}

// PluginDirUpdated reports a confirmed registry move.
func PluginDirUpdated(w *output.Writer, name, dir string) {
	w.Successf("%s now points at %s", name, dir)
}

// PluginDirKept reports a declined registry move.
func PluginDirKept(w *output.Writer, name string) {
	w.Warningf("Kept the existing directory for %s", name)
}

// DeployDetails are the values shown after a successful deploy.
type DeployDetails struct {
	Name      string
	Version   string
	URL       string
	IsPublic  bool
	BuildSid  string
	Mirrored  bool
	Overwrote bool
}

// DeploySuccessful reports a finished deploy.
func DeploySuccessful(w *output.Writer, d DeployDetails) {
	access := "private"
	if d.IsPublic {
		access = "public"
	}
	w.Successf("Your plugin %s@%s was deployed as %s.", d.Name, d.Version, access)
	w.Infof("Bundle: %s", w.Styles().Link.Render(d.URL))
	w.Infof("Build:  %s", d.BuildSid)
	if d.Overwrote {
		w.Info("The previous bundle with this version was overwritten.")
	}
	if d.Mirrored {
		w.Info("A copy was stored in the mirror bucket.")
	}
}

// ReleaseSuccessful reports a released configuration.
func ReleaseSuccessful(w *output.Writer, name, configurationSid, releaseSid string, plugins []string) {
	w.Successf("Configuration %s (%s) is now live as release %s.", name, configurationSid, releaseSid)
	if len(plugins) > 0 {
		w.Infof("Plugins: %s", strings.Join(plugins, ", "))
	}
}

// ArchivedSuccessfully reports an archived plugin or plugin version.
func ArchivedSuccessfully(w *output.Writer, name string) {
	w.Successf("%s was successfully archived.", name)
}

// ArchivedFailed reports a failed archive request.
func ArchivedFailed(w *output.Writer, name string) {
	w.Errorf("Could not archive %s; please try again later.", name)
}

// AlreadyArchived reports a resource the platform refused to archive.
func AlreadyArchived(w *output.Writer, name, message string) {
	w.Warningf("Cannot archive %s because %s", name, strings.ToLower(message))
}
