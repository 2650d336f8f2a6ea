package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Project config file names, in lookup order.
const (
	ProjectConfigFile    = ".pluginkit.yaml"
	ProjectConfigFileAlt = ".pluginkit.yml"
	DotEnvFile           = ".env"
)

// Environment variables read by Load.
const (
	EnvSkipPreflight  = "SKIP_PREFLIGHT_CHECK"
	EnvUnbundledReact = "UNBUNDLED_REACT"
	EnvAccountSID     = "PLUGINKIT_ACCOUNT_SID"
	EnvAuthToken      = "PLUGINKIT_AUTH_TOKEN"
	EnvPlatformURL    = "PLUGINKIT_PLATFORM_URL"
	EnvPluginsURL     = "PLUGINKIT_PLUGINS_URL"
	EnvLogLevel       = "PLUGINKIT_LOG_LEVEL"
	EnvMirrorBucket   = "PLUGINKIT_MIRROR_BUCKET"
	EnvMirrorKeyID    = "PLUGINKIT_MIRROR_ACCESS_KEY_ID"
	EnvMirrorSecret   = "PLUGINKIT_MIRROR_SECRET_ACCESS_KEY"
)

// Config represents the complete pluginkit configuration.
type Config struct {
	Version   int             `yaml:"version" json:"version"`
	Plugin    PluginConfig    `yaml:"plugin" json:"plugin"`
	Paths     PathsConfig     `yaml:"paths" json:"paths"`
	Preflight PreflightConfig `yaml:"preflight" json:"preflight"`
	Platform  PlatformConfig  `yaml:"platform" json:"platform"`
	Deploy    DeployConfig    `yaml:"deploy" json:"deploy"`
	Mirror    MirrorConfig    `yaml:"mirror" json:"mirror"`
	Logging   LoggingConfig   `yaml:"logging" json:"logging"`

	// ProjectDir is the plugin project root all relative paths resolve against.
	ProjectDir string `yaml:"-" json:"project_dir"`
}

// PluginConfig identifies the plugin being developed.
type PluginConfig struct {
	// Name defaults to the "name" field of package.json.
	Name string `yaml:"name" json:"name"`
}

// PathsConfig locates project files. Relative paths resolve against ProjectDir.
type PathsConfig struct {
	AppConfig   string `yaml:"app_config" json:"app_config"`
	PublicDir   string `yaml:"public_dir" json:"public_dir"`
	SourceDir   string `yaml:"source_dir" json:"source_dir"`
	BuildDir    string `yaml:"build_dir" json:"build_dir"`
	NodeModules string `yaml:"node_modules" json:"node_modules"`
	TSConfig    string `yaml:"tsconfig" json:"tsconfig"`
	EntryFile   string `yaml:"entry_file" json:"entry_file"`
	// Registry is the plugins.json file. Defaults to ~/.pluginkit/plugins.json.
	Registry string `yaml:"registry" json:"registry"`
}

// PreflightConfig controls the checks run before the dev server starts.
type PreflightConfig struct {
	// Skip downgrades version mismatches to warnings (SKIP_PREFLIGHT_CHECK).
	Skip bool `yaml:"skip" json:"skip"`
	// UnbundledReact allows a React version other than the host UI's (UNBUNDLED_REACT).
	UnbundledReact    bool     `yaml:"unbundled_react" json:"unbundled_react"`
	HostUIPackage     string   `yaml:"host_ui_package" json:"host_ui_package"`
	ReactDependencies []string `yaml:"react_dependencies" json:"react_dependencies"`
}

// PlatformConfig configures the hosted platform APIs.
type PlatformConfig struct {
	BaseURL     string `yaml:"base_url" json:"base_url"`
	PluginsURL  string `yaml:"plugins_url" json:"plugins_url"`
	Service     string `yaml:"service" json:"service"`
	Environment string `yaml:"environment" json:"environment"`
	Timeout     string `yaml:"timeout" json:"timeout"`
	AccountSID  string `yaml:"account_sid" json:"account_sid"`

	// AuthToken is only ever read from the environment.
	AuthToken string `yaml:"-" json:"-"`
}

// DeployConfig configures the deploy workflow.
type DeployConfig struct {
	// AssetBaseURLTemplate supports %PLUGIN_NAME% and %PLUGIN_VERSION%.
	AssetBaseURLTemplate string `yaml:"asset_base_url_template" json:"asset_base_url_template"`
	// BuildTimeout bounds the wait for a serverless build to finish.
	BuildTimeout string `yaml:"build_timeout" json:"build_timeout"`
}

// MirrorConfig configures the optional S3 copy of deployed bundles.
type MirrorConfig struct {
	Bucket   string `yaml:"bucket" json:"bucket"`
	Region   string `yaml:"region" json:"region"`
	Endpoint string `yaml:"endpoint" json:"endpoint"`
	Prefix   string `yaml:"prefix" json:"prefix"`

	// Static credentials; when empty the AWS default chain is used.
	AccessKeyID     string `yaml:"-" json:"-"`
	SecretAccessKey string `yaml:"-" json:"-"`
}

// Enabled reports whether a mirror bucket is configured.
func (m MirrorConfig) Enabled() bool {
	return m.Bucket != ""
}

// LoggingConfig configures slog output.
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
}

// NewConfig creates a new Config with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Paths: PathsConfig{
			AppConfig:   filepath.Join("public", "appConfig.js"),
			PublicDir:   "public",
			SourceDir:   "src",
			BuildDir:    "build",
			NodeModules: "node_modules",
			TSConfig:    "tsconfig.json",
			Registry:    defaultRegistryPath(),
		},
		Preflight: PreflightConfig{
			HostUIPackage:     "@twilio/flex-ui",
			ReactDependencies: []string{"react", "react-dom"},
		},
		Platform: PlatformConfig{
			BaseURL:     "https://serverless.example.com/v1",
			PluginsURL:  "https://plugins.example.com/v1",
			Service:     "default",
			Environment: "plugins",
			Timeout:     "30s",
		},
		Deploy: DeployConfig{
			AssetBaseURLTemplate: "/plugins/%PLUGIN_NAME%/%PLUGIN_VERSION%",
			BuildTimeout:         "5m",
		},
		Mirror: MirrorConfig{
			Region: "us-east-1",
			Prefix: "plugins",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// DataDir returns ~/.pluginkit, falling back to the temp directory.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".pluginkit")
	}
	return filepath.Join(home, ".pluginkit")
}

func defaultRegistryPath() string {
	return filepath.Join(DataDir(), "plugins.json")
}

// GetUserConfigPath returns the path to the user/global configuration file.
// It follows XDG Base Directory specification:
//   - $XDG_CONFIG_HOME/pluginkit/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/pluginkit/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "pluginkit", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "pluginkit", "config.yaml")
	}
	return filepath.Join(home, ".config", "pluginkit", "config.yaml")
}

// loadUserConfig merges the user/global configuration file into c if it exists.
func (c *Config) loadUserConfig() error {
	configPath := GetUserConfigPath()
	if !fileExists(configPath) {
		return nil
	}

	if err := c.loadYAML(configPath); err != nil {
		return fmt.Errorf("failed to load user config from %s: %w", configPath, err)
	}
	return nil
}

// Load loads configuration for the plugin project in dir.
// It applies configuration in order of increasing precedence:
//  1. Hardcoded defaults
//  2. User/global config (~/.config/pluginkit/config.yaml)
//  3. Project config (.pluginkit.yaml in dir)
//  4. .env in dir (never overrides the real environment)
//  5. Environment variables
func Load(dir string) (*Config, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project dir: %w", err)
	}

	cfg := NewConfig()
	cfg.ProjectDir = absDir

	if err := cfg.loadUserConfig(); err != nil {
		return nil, err
	}

	if err := cfg.loadFromFile(absDir); err != nil {
		return nil, err
	}

	lookup, err := envLookup(absDir)
	if err != nil {
		return nil, err
	}
	cfg.applyEnvOverrides(lookup)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadFromFile attempts to load configuration from .pluginkit.yaml or .pluginkit.yml.
func (c *Config) loadFromFile(dir string) error {
	for _, name := range []string{ProjectConfigFile, ProjectConfigFileAlt} {
		path := filepath.Join(dir, name)
		if fileExists(path) {
			return c.loadYAML(path)
		}
	}
	return nil
}

// loadYAML loads and merges configuration from a YAML file.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	var flags boolFlags
	if err := yaml.Unmarshal(data, &flags); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	c.mergeWith(&parsed)
	flags.apply(c)
	return nil
}

// boolFlags records which booleans a YAML file sets, so an explicit false
// overrides a lower layer's true.
type boolFlags struct {
	Preflight struct {
		Skip           *bool `yaml:"skip"`
		UnbundledReact *bool `yaml:"unbundled_react"`
	} `yaml:"preflight"`
}

func (f boolFlags) apply(c *Config) {
	if f.Preflight.Skip != nil {
		c.Preflight.Skip = *f.Preflight.Skip
	}
	if f.Preflight.UnbundledReact != nil {
		c.Preflight.UnbundledReact = *f.Preflight.UnbundledReact
	}
}

// mergeWith merges non-zero values from other into c. Booleans are
// applied by boolFlags.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}

	if other.Plugin.Name != "" {
		c.Plugin.Name = other.Plugin.Name
	}

	mergeString(&c.Paths.AppConfig, other.Paths.AppConfig)
	mergeString(&c.Paths.PublicDir, other.Paths.PublicDir)
	mergeString(&c.Paths.SourceDir, other.Paths.SourceDir)
	mergeString(&c.Paths.BuildDir, other.Paths.BuildDir)
	mergeString(&c.Paths.NodeModules, other.Paths.NodeModules)
	mergeString(&c.Paths.TSConfig, other.Paths.TSConfig)
	mergeString(&c.Paths.EntryFile, other.Paths.EntryFile)
	mergeString(&c.Paths.Registry, other.Paths.Registry)

	mergeString(&c.Preflight.HostUIPackage, other.Preflight.HostUIPackage)
	if len(other.Preflight.ReactDependencies) > 0 {
		c.Preflight.ReactDependencies = other.Preflight.ReactDependencies
	}

	mergeString(&c.Platform.BaseURL, other.Platform.BaseURL)
	mergeString(&c.Platform.PluginsURL, other.Platform.PluginsURL)
	mergeString(&c.Platform.Service, other.Platform.Service)
	mergeString(&c.Platform.Environment, other.Platform.Environment)
	mergeString(&c.Platform.Timeout, other.Platform.Timeout)
	mergeString(&c.Platform.AccountSID, other.Platform.AccountSID)

	mergeString(&c.Deploy.AssetBaseURLTemplate, other.Deploy.AssetBaseURLTemplate)
	mergeString(&c.Deploy.BuildTimeout, other.Deploy.BuildTimeout)

	mergeString(&c.Mirror.Bucket, other.Mirror.Bucket)
	mergeString(&c.Mirror.Region, other.Mirror.Region)
	mergeString(&c.Mirror.Endpoint, other.Mirror.Endpoint)
	mergeString(&c.Mirror.Prefix, other.Mirror.Prefix)

	mergeString(&c.Logging.Level, other.Logging.Level)
}

func mergeString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// lookupFunc resolves an environment variable.
type lookupFunc func(key string) (string, bool)

// envLookup returns a lookup that prefers the process environment and falls
// back to the project's .env file.
func envLookup(dir string) (lookupFunc, error) {
	dotenv := map[string]string{}
	path := filepath.Join(dir, DotEnvFile)
	if fileExists(path) {
		values, err := godotenv.Read(path)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		dotenv = values
	}

	return func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}, nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides(lookup lookupFunc) {
	if v, ok := lookup(EnvSkipPreflight); ok {
		c.Preflight.Skip = ParseBool(v)
	}
	if v, ok := lookup(EnvUnbundledReact); ok {
		c.Preflight.UnbundledReact = ParseBool(v)
	}
	if v, ok := lookup(EnvAccountSID); ok && v != "" {
		c.Platform.AccountSID = v
	}
	if v, ok := lookup(EnvAuthToken); ok && v != "" {
		c.Platform.AuthToken = v
	}
	if v, ok := lookup(EnvPlatformURL); ok && v != "" {
		c.Platform.BaseURL = v
	}
	if v, ok := lookup(EnvPluginsURL); ok && v != "" {
		c.Platform.PluginsURL = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Logging.Level = v
	}
	if v, ok := lookup(EnvMirrorBucket); ok && v != "" {
		c.Mirror.Bucket = v
	}
	if v, ok := lookup(EnvMirrorKeyID); ok && v != "" {
		c.Mirror.AccessKeyID = v
	}
	if v, ok := lookup(EnvMirrorSecret); ok && v != "" {
		c.Mirror.SecretAccessKey = v
	}
}

// ParseBool interprets a boolean-like environment string.
// "true", "1" and "yes" (any case) are true; everything else is false.
func ParseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes":
		return true
	default:
		return false
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if _, err := time.ParseDuration(c.Platform.Timeout); err != nil {
		return fmt.Errorf("platform.timeout must be a duration, got %q", c.Platform.Timeout)
	}

	if d, err := time.ParseDuration(c.Deploy.BuildTimeout); err != nil || d <= 0 {
		return fmt.Errorf("deploy.build_timeout must be a positive duration, got %q", c.Deploy.BuildTimeout)
	}

	if !strings.Contains(c.Deploy.AssetBaseURLTemplate, "%PLUGIN_VERSION%") {
		return fmt.Errorf("deploy.asset_base_url_template must contain %%PLUGIN_VERSION%%, got %q", c.Deploy.AssetBaseURLTemplate)
	}

	if c.Platform.Service == "" || c.Platform.Environment == "" {
		return fmt.Errorf("platform.service and platform.environment must be set")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("logging.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Logging.Level)
	}

	return nil
}

// PlatformTimeout returns the parsed platform timeout.
func (c *Config) PlatformTimeout() time.Duration {
	d, err := time.ParseDuration(c.Platform.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// BuildTimeout returns the parsed deploy build timeout.
func (c *Config) BuildTimeout() time.Duration {
	d, err := time.ParseDuration(c.Deploy.BuildTimeout)
	if err != nil || d <= 0 {
		return 5 * time.Minute
	}
	return d
}

// Resolve returns p resolved against ProjectDir unless it is absolute.
func (c *Config) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.ProjectDir, p)
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// FindProjectRoot finds the plugin project root.
// It walks up from startDir looking for package.json or .pluginkit.yaml.
func FindProjectRoot(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	currentDir := absDir
	for {
		if fileExists(filepath.Join(currentDir, "package.json")) ||
			fileExists(filepath.Join(currentDir, ProjectConfigFile)) ||
			fileExists(filepath.Join(currentDir, ProjectConfigFileAlt)) {
			return currentDir, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return absDir, nil
		}
		currentDir = parentDir
	}
}

// fileExists checks if a regular file exists.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
