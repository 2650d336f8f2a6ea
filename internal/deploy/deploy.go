package deploy

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Aman-CERP/pluginkit/internal/config"
	pkerrors "github.com/Aman-CERP/pluginkit/internal/errors"
	"github.com/Aman-CERP/pluginkit/internal/output"
	"github.com/Aman-CERP/pluginkit/internal/pkgjson"
	"github.com/Aman-CERP/pluginkit/internal/platform"
	"github.com/Aman-CERP/pluginkit/internal/prints"
)

// Build output files uploaded on every deploy.
const (
	BundleFile    = "bundle.js"
	SourceMapFile = "bundle.js.map"
)

// Template placeholders in deploy.asset_base_url.
const (
	PluginNamePlaceholder    = "%PLUGIN_NAME%"
	PluginVersionPlaceholder = "%PLUGIN_VERSION%"
)

// Platform is the subset of the serverless and plugins APIs a deploy uses.
// *platform.Client implements it.
type Platform interface {
	Runtime(ctx context.Context, serviceName, environmentName string) (*platform.Runtime, error)
	UploadAsset(ctx context.Context, serviceSid string, req platform.UploadRequest) (*platform.Version, error)
	CreateBuild(ctx context.Context, serviceSid string, req platform.CreateBuildRequest) (*platform.Build, error)
	WaitForBuild(ctx context.Context, serviceSid, buildSid string) (*platform.Build, error)
	CreateDeployment(ctx context.Context, serviceSid, environmentSid, buildSid string) (*platform.Deployment, error)
	RegisterService(ctx context.Context, serviceSid string) (bool, error)
}

// Mirror stores a copy of deployed files. *storage.S3Mirror implements it.
type Mirror interface {
	PutAsset(ctx context.Context, plugin, version, file string, content []byte) (string, error)
	Exists(ctx context.Context, plugin, version, file string) (bool, error)
}

// Result describes a finished deploy.
type Result struct {
	Name           string
	Version        string
	URL            string
	BaseURL        string
	ServiceSid     string
	BuildSid       string
	DeploymentSid  string
	IsPublic       bool
	Overwrote      bool
	MirrorKeys     []string
	// MirrorReplaced lists files whose mirrored copy an overwrite replaced.
	MirrorReplaced []string
}

// Orchestrator runs a deploy against one service environment.
type Orchestrator struct {
	cfg        *config.Config
	api        Platform
	mirror     Mirror
	pluginName string
	out        *output.Writer
	logger     *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithMirror enables copying uploaded files to m.
func WithMirror(m Mirror) Option {
	return func(o *Orchestrator) {
		o.mirror = m
	}
}

// WithPluginName overrides the plugin name from config and package.json.
func WithPluginName(name string) Option {
	return func(o *Orchestrator) {
		o.pluginName = name
	}
}

// WithOutput sets the writer for progress and result messages.
func WithOutput(w *output.Writer) Option {
	return func(o *Orchestrator) {
		o.out = w
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = l
	}
}

// New creates an Orchestrator. A nil cfg uses defaults.
func New(cfg *config.Config, api Platform, opts ...Option) *Orchestrator {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	o := &Orchestrator{
		cfg:    cfg,
		api:    api,
		out:    output.New(os.Stdout),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.pluginName == "" {
		o.pluginName = pkgjson.ResolveName(cfg.ProjectDir, cfg.Plugin.Name)
	}
	return o
}

// AssetBaseURL expands the asset path template for one plugin version.
func AssetBaseURL(template, name, version string) string {
	r := strings.NewReplacer(PluginNamePlaceholder, name, PluginVersionPlaceholder, version)
	return strings.TrimSuffix(r.Replace(template), "/")
}

// VerifyPath reports whether baseURL is free in build. It is false when the
// bundle or its sourcemap path is already an asset or function version.
// A nil build has no paths.
func VerifyPath(baseURL string, build *platform.Build) bool {
	if build == nil {
		return true
	}
	bundle := baseURL + "/" + BundleFile
	sourceMap := baseURL + "/" + SourceMapFile

	for _, versions := range [][]platform.Version{build.AssetVersions, build.FunctionVersions} {
		for _, v := range versions {
			if v.Path == bundle || v.Path == sourceMap {
				return false
			}
		}
	}
	return true
}

// Deploy uploads the built bundle as version, creates a build and
// deployment for it, and registers the service with the plugins API.
// Any failure aborts the remaining steps.
func (o *Orchestrator) Deploy(ctx context.Context, version string, opts Options) (*Result, error) {
	const totalSteps = 5

	if o.pluginName == "" {
		return nil, pkerrors.ValidationError("Could not determine the plugin name", nil).
			WithSuggestion("Set plugin.name in .pluginkit.yaml or name in package.json")
	}

	buildDir := o.cfg.Resolve(o.cfg.Paths.BuildDir)
	bundlePath := filepath.Join(buildDir, BundleFile)
	sourceMapPath := filepath.Join(buildDir, SourceMapFile)
	bundle, err := readBuildFile(bundlePath)
	if err != nil {
		return nil, err
	}
	sourceMap, err := readBuildFile(sourceMapPath)
	if err != nil {
		return nil, err
	}

	o.out.Step(1, totalSteps, "Fetching runtime")
	rt, err := o.api.Runtime(ctx, o.cfg.Platform.Service, o.cfg.Platform.Environment)
	if err != nil {
		return nil, err
	}

	baseURL := AssetBaseURL(o.cfg.Deploy.AssetBaseURLTemplate, o.pluginName, version)
	free := VerifyPath(baseURL, rt.Build)
	if !free && !opts.Overwrite {
		return nil, pkerrors.New(pkerrors.ErrCodeDuplicatePath,
			"You already have a plugin with the same version: "+baseURL, nil).
			WithDetail("version", version).
			WithSuggestion("Bump the version or deploy with the overwrite command")
	}

	result := &Result{
		Name:       o.pluginName,
		Version:    version,
		BaseURL:    baseURL,
		ServiceSid: rt.Service.Sid,
		IsPublic:   opts.IsPublic,
		Overwrote:  !free,
	}

	visibility := platform.VisibilityProtected
	if opts.IsPublic {
		visibility = platform.VisibilityPublic
	}

	o.out.Step(2, totalSteps, "Uploading bundle")
	files := []struct {
		name    string
		content []byte
	}{
		{BundleFile, bundle},
		{SourceMapFile, sourceMap},
	}
	newPaths := make(map[string]bool, len(files))
	var assetSids []string
	for _, f := range files {
		p := baseURL + "/" + f.name
		v, err := o.api.UploadAsset(ctx, rt.Service.Sid, platform.UploadRequest{
			Name:       f.name,
			Path:       p,
			Visibility: visibility,
			Content:    f.content,
		})
		if err != nil {
			return nil, err
		}
		newPaths[p] = true
		assetSids = append(assetSids, v.Sid)
		o.logger.Debug("asset uploaded", slog.String("path", p), slog.String("sid", v.Sid))

		if o.mirror != nil {
			if opts.Overwrite {
				o.checkMirrored(ctx, version, f.name, result)
			}
			key, err := o.mirror.PutAsset(ctx, o.pluginName, version, f.name, f.content)
			if err != nil {
				o.logger.Warn("mirror upload failed", slog.String("file", f.name), slog.String("error", err.Error()))
				o.out.Warningf("Could not mirror %s: %v", f.name, err)
				continue
			}
			result.MirrorKeys = append(result.MirrorKeys, key)
		}
	}

	o.out.Step(3, totalSteps, "Creating build")
	req := platform.CreateBuildRequest{AssetVersions: assetSids}
	if rt.Build != nil {
		req.AssetVersions = append(carriedOver(rt.Build.AssetVersions, newPaths), assetSids...)
		req.FunctionVersions = carriedOver(rt.Build.FunctionVersions, newPaths)
		req.Dependencies = rt.Build.Dependencies
	}
	build, err := o.api.CreateBuild(ctx, rt.Service.Sid, req)
	if err != nil {
		return nil, err
	}
	if build.Status != platform.BuildStatusCompleted {
		build, err = o.api.WaitForBuild(ctx, rt.Service.Sid, build.Sid)
		if err != nil {
			return nil, err
		}
	}
	result.BuildSid = build.Sid

	o.out.Step(4, totalSteps, "Creating deployment")
	dep, err := o.api.CreateDeployment(ctx, rt.Service.Sid, rt.Environment.Sid, build.Sid)
	if err != nil {
		return nil, err
	}
	result.DeploymentSid = dep.Sid

	o.out.Step(5, totalSteps, "Registering service")
	changed, err := o.api.RegisterService(ctx, rt.Service.Sid)
	if err != nil {
		return nil, err
	}
	o.logger.Debug("service registration", slog.String("service_sid", rt.Service.Sid), slog.Bool("changed", changed))

	result.URL = fmt.Sprintf("https://%s%s/%s", rt.Environment.DomainName, baseURL, BundleFile)

	o.logger.Info("plugin deployed",
		slog.String("plugin", result.Name),
		slog.String("version", result.Version),
		slog.String("build_sid", result.BuildSid),
		slog.String("deployment_sid", result.DeploymentSid))

	prints.DeploySuccessful(o.out, prints.DeployDetails{
		Name:      result.Name,
		Version:   result.Version,
		URL:       result.URL,
		IsPublic:  result.IsPublic,
		BuildSid:  result.BuildSid,
		Mirrored:  len(result.MirrorKeys) == len(files),
		Overwrote: result.Overwrote,
	})
	return result, nil
}

func readBuildFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, pkerrors.New(pkerrors.ErrCodeBuildNotFound,
				"Could not find build file "+path, err).
				WithSuggestion("Build the plugin before deploying")
		}
		return nil, pkerrors.IOError("Could not read build file "+path, err)
	}
	return data, nil
}

// carriedOver returns the sids of versions whose path is not being replaced.
// checkMirrored records whether an overwrite replaces an existing mirror copy.
// A failed lookup only skips the note; PutAsset still runs.
func (o *Orchestrator) checkMirrored(ctx context.Context, version, file string, result *Result) {
	exists, err := o.mirror.Exists(ctx, o.pluginName, version, file)
	if err != nil {
		o.logger.Debug("mirror lookup failed", slog.String("file", file), slog.String("error", err.Error()))
		return
	}
	if exists {
		result.MirrorReplaced = append(result.MirrorReplaced, file)
		o.out.Infof("Replacing mirrored copy of %s", file)
	}
}

func carriedOver(versions []platform.Version, replaced map[string]bool) []string {
	var sids []string
	for _, v := range versions {
		if !replaced[v.Path] {
			sids = append(sids, v.Sid)
		}
	}
	return sids
}
