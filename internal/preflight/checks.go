package preflight

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/Aman-CERP/pluginkit/configs"
	"github.com/Aman-CERP/pluginkit/internal/pkgjson"
	"github.com/Aman-CERP/pluginkit/internal/prints"
	"github.com/Aman-CERP/pluginkit/internal/registry"
)

// LoadPluginMarker is the call every plugin entry makes exactly once.
const LoadPluginMarker = "loadPlugin"

// MinUnbundledReactVersion is the first host UI release that accepts a
// plugin-supplied React.
const MinUnbundledReactVersion = "1.19.0"

// entryCandidates are tried in the source dir when paths.entry_file is unset.
var entryCandidates = []string{"index.ts", "index.tsx", "index.js", "index.jsx"}

func (c *Checker) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.projectDir, p)
}

func (c *Checker) nodeModules() string {
	return c.resolve(c.cfg.Paths.NodeModules)
}

// CheckAppConfig verifies that the app config file exists.
func (c *Checker) CheckAppConfig() CheckResult {
	result := CheckResult{
		Name:     "app_config",
		Required: true,
	}

	path := c.resolve(c.cfg.Paths.AppConfig)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		prints.AppConfigMissing(c.out, path)
		result.Status = StatusFail
		result.Message = "app config missing"
		result.Details = path
		return result
	}

	result.Status = StatusPass
	result.Message = "OK"
	result.Details = path
	return result
}

// CheckPublicDirSync copies the dev-server index.html into the public directory.
func (c *Checker) CheckPublicDirSync(isPublic bool) CheckResult {
	result := CheckResult{
		Name:     "public_dir",
		Required: true,
	}

	dir := c.resolve(c.cfg.Paths.PublicDir)
	target := filepath.Join(dir, "index.html")

	err := os.MkdirAll(dir, 0o755)
	if err == nil {
		err = os.WriteFile(target, []byte(configs.IndexHTMLTemplate), 0o644)
	}
	if err != nil {
		prints.PublicDirCopyFailed(c.out, err, isPublic)
		result.Status = StatusFail
		result.Message = "could not copy index.html"
		result.Details = err.Error()
		return result
	}

	result.Status = StatusPass
	result.Message = "OK"
	result.Details = target
	return result
}

// CheckExternalDepsVersions verifies the React dependencies against the
// versions the host UI package declares. It stops at the first critical result.
func (c *Checker) CheckExternalDepsVersions(allowSkip, allowReact bool) []CheckResult {
	host := c.cfg.Preflight.HostUIPackage
	pkg, err := pkgjson.Installed(c.nodeModules(), host)
	if err != nil {
		prints.DependencyNotInstalled(c.out, host)
		return []CheckResult{{
			Name:     "dependency:" + host,
			Status:   StatusFail,
			Message:  "host UI package not installed",
			Details:  err.Error(),
			Required: true,
		}}
	}

	var results []CheckResult
	for _, name := range c.cfg.Preflight.ReactDependencies {
		r := c.VerifyPackageVersion(pkg, allowSkip, allowReact, name)
		results = append(results, r)
		if r.IsCritical() {
			break
		}
	}
	return results
}

// VerifyPackageVersion compares the installed version of name with the range
// pkg declares for it. pkg is the host UI descriptor; its Version decides
// whether an unbundled React is allowed.
func (c *Checker) VerifyPackageVersion(pkg *pkgjson.Descriptor, allowSkip, allowReact bool, name string) CheckResult {
	result := CheckResult{
		Name:     "dependency:" + name,
		Required: true,
	}

	required, ok := pkg.Dependencies[name]
	if !ok {
		prints.ExpectedDependencyNotFound(c.out, name)
		result.Status = StatusFail
		result.Message = "expected dependency not found"
		return result
	}

	installed, err := pkgjson.InstalledVersion(c.nodeModules(), name)
	if err != nil {
		prints.DependencyNotInstalled(c.out, name)
		result.Status = StatusFail
		result.Message = "not installed"
		result.Details = err.Error()
		return result
	}

	satisfied, err := pkgjson.Satisfies(installed, required)
	if err != nil {
		result.Status = StatusFail
		result.Message = "unreadable version"
		result.Details = err.Error()
		return result
	}
	if satisfied {
		result.Status = StatusPass
		result.Message = fmt.Sprintf("%s satisfies %s", installed, required)
		return result
	}

	failOrWarn := func(msg string) CheckResult {
		result.Message = msg
		result.Details = fmt.Sprintf("installed %s, required %s", installed, required)
		if allowSkip {
			result.Status = StatusWarn
		} else {
			result.Status = StatusFail
		}
		return result
	}

	if allowReact {
		if pkgjson.AtLeast(pkg.Version, MinUnbundledReactVersion) {
			result.Status = StatusPass
			result.Message = fmt.Sprintf("unbundled %s allowed", installed)
			return result
		}
		prints.UnbundledReactMismatch(c.out, pkg.Version, name, installed, allowSkip)
		return failOrWarn("unbundled react mismatch")
	}

	prints.VersionMismatch(c.out, name, installed, required, allowSkip)
	return failOrWarn("version mismatch")
}

// ValidateTypescriptProject makes sure a TypeScript plugin has the compiler
// installed and a tsconfig.json. Plain JavaScript projects pass untouched.
func (c *Checker) ValidateTypescriptProject() CheckResult {
	result := CheckResult{
		Name:     "typescript",
		Required: true,
	}

	if !c.hasTypescriptSources() {
		result.Status = StatusPass
		result.Message = "not a TypeScript project"
		return result
	}

	if !pkgjson.IsInstalled(c.nodeModules(), "typescript") {
		prints.TypescriptNotInstalled(c.out)
		result.Status = StatusFail
		result.Message = "typescript not installed"
		return result
	}

	tsconfig := c.resolve(c.cfg.Paths.TSConfig)
	if _, err := os.Stat(tsconfig); err == nil {
		result.Status = StatusPass
		result.Message = "OK"
		return result
	}

	if err := os.WriteFile(tsconfig, []byte(configs.TSConfigTemplate), 0o644); err != nil {
		result.Status = StatusFail
		result.Message = "could not write tsconfig.json"
		result.Details = err.Error()
		return result
	}
	prints.TSConfigCreated(c.out, tsconfig)

	result.Status = StatusPass
	result.Message = "created tsconfig.json"
	result.Details = tsconfig
	return result
}

func (c *Checker) hasTypescriptSources() bool {
	root := c.resolve(c.cfg.Paths.SourceDir)
	found := false
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if d.Name() == "node_modules" {
				return filepath.SkipDir
			}
			return nil
		}
		if ext := filepath.Ext(path); ext == ".ts" || ext == ".tsx" {
			found = true
			return filepath.SkipAll
		}
		return nil
	})
	return found
}

// CheckPluginCount verifies that the plugin entry loads exactly one plugin.
func (c *Checker) CheckPluginCount() CheckResult {
	result := CheckResult{
		Name:     "plugin_count",
		Required: true,
	}

	path := c.entryFile()
	count := 0
	if data, err := os.ReadFile(path); err == nil {
		count = strings.Count(string(data), LoadPluginMarker)
	} else {
		result.Details = err.Error()
	}

	if count != 1 {
		prints.LoadPluginCountError(c.out, count)
		result.Status = StatusFail
		result.Message = fmt.Sprintf("found %d %s calls", count, LoadPluginMarker)
		return result
	}

	result.Status = StatusPass
	result.Message = "OK"
	result.Details = path
	return result
}

func (c *Checker) entryFile() string {
	if c.cfg.Paths.EntryFile != "" {
		return c.resolve(c.cfg.Paths.EntryFile)
	}
	src := c.resolve(c.cfg.Paths.SourceDir)
	for _, name := range entryCandidates {
		p := filepath.Join(src, name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return filepath.Join(src, entryCandidates[len(entryCandidates)-2])
}

// CheckPluginConfigurationExists registers the plugin directory in the
// local plugin registry, asking before it moves an existing entry.
func (c *Checker) CheckPluginConfigurationExists(ctx context.Context) CheckResult {
	result := CheckResult{
		Name:     "plugin_registry",
		Required: true,
	}

	name := c.name()
	if name == "" {
		result.Status = StatusFail
		result.Message = "plugin name unknown"
		result.Details = "set plugin.name in .pluginkit.yaml or name in package.json"
		return result
	}

	dir, err := filepath.Abs(c.projectDir)
	if err != nil {
		dir = c.projectDir
	}

	outcome, err := c.registrar.Upsert(ctx, registry.Entry{Name: name, Dir: dir, Port: 0})
	if err != nil {
		result.Status = StatusFail
		result.Message = "could not update plugin registry"
		result.Details = err.Error()
		return result
	}

	switch outcome {
	case registry.Added:
		prints.PluginRegistered(c.out, name, dir)
	case registry.Updated:
		prints.PluginDirUpdated(c.out, name, dir)
	case registry.Declined:
		prints.PluginDirKept(c.out, name)
	}

	result.Status = StatusPass
	result.Message = outcome.String()
	result.Details = dir
	return result
}

func (c *Checker) name() string {
	if c.pluginName != "" {
		return c.pluginName
	}
	return pkgjson.ResolveName(c.projectDir, c.cfg.Plugin.Name)
}
