package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolateEnv points the user config at an empty directory and clears every
// variable Load reads, so the host environment cannot leak into a test.
func isolateEnv(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	for _, key := range []string{
		EnvSkipPreflight, EnvUnbundledReact, EnvAccountSID, EnvAuthToken,
		EnvPlatformURL, EnvPluginsURL, EnvLogLevel, EnvMirrorBucket,
		EnvMirrorKeyID, EnvMirrorSecret,
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// =============================================================================
// Default Configuration Tests
// =============================================================================

func TestNewConfig_ReturnsDefaults(t *testing.T) {
	// Given: no configuration file exists
	cfg := NewConfig()

	// Then: all defaults should be applied
	require.NotNil(t, cfg)
	assert.Equal(t, 1, cfg.Version)

	assert.Equal(t, filepath.Join("public", "appConfig.js"), cfg.Paths.AppConfig)
	assert.Equal(t, "public", cfg.Paths.PublicDir)
	assert.Equal(t, "src", cfg.Paths.SourceDir)
	assert.Equal(t, "build", cfg.Paths.BuildDir)
	assert.Equal(t, "node_modules", cfg.Paths.NodeModules)
	assert.Equal(t, "tsconfig.json", cfg.Paths.TSConfig)
	assert.True(t, filepath.IsAbs(cfg.Paths.Registry))
	assert.Equal(t, "plugins.json", filepath.Base(cfg.Paths.Registry))

	assert.False(t, cfg.Preflight.Skip)
	assert.False(t, cfg.Preflight.UnbundledReact)
	assert.Equal(t, "@twilio/flex-ui", cfg.Preflight.HostUIPackage)
	assert.Equal(t, []string{"react", "react-dom"}, cfg.Preflight.ReactDependencies)

	assert.Equal(t, "default", cfg.Platform.Service)
	assert.Equal(t, "plugins", cfg.Platform.Environment)
	assert.Equal(t, 30*time.Second, cfg.PlatformTimeout())

	assert.Equal(t, "/plugins/%PLUGIN_NAME%/%PLUGIN_VERSION%", cfg.Deploy.AssetBaseURLTemplate)
	assert.Equal(t, 5*time.Minute, cfg.BuildTimeout())
	assert.False(t, cfg.Mirror.Enabled())
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestNewConfig_DefaultsAreValid(t *testing.T) {
	assert.NoError(t, NewConfig().Validate())
}

// =============================================================================
// File Loading Tests
// =============================================================================

func TestLoad_NoConfigFile_ReturnsDefaults(t *testing.T) {
	// Given: a directory with no .pluginkit.yaml
	isolateEnv(t)
	tmpDir := t.TempDir()

	// When: loading configuration
	cfg, err := Load(tmpDir)

	// Then: defaults are returned without error
	require.NoError(t, err)
	assert.Equal(t, tmpDir, cfg.ProjectDir)
	assert.Equal(t, "public", cfg.Paths.PublicDir)
	assert.False(t, cfg.Preflight.Skip)
}

func TestLoad_YamlFile_OverridesDefaults(t *testing.T) {
	// Given: a project with .pluginkit.yaml
	isolateEnv(t)
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, ProjectConfigFile), `
version: 1
plugin:
  name: plugin-sample
paths:
  build_dir: dist
  entry_file: src/index.js
preflight:
  react_dependencies: [react]
platform:
  service: my-service
  timeout: 5s
mirror:
  bucket: bundles
`)

	// When: loading configuration
	cfg, err := Load(tmpDir)

	// Then: file values win over defaults and the rest keep their defaults
	require.NoError(t, err)
	assert.Equal(t, "plugin-sample", cfg.Plugin.Name)
	assert.Equal(t, "dist", cfg.Paths.BuildDir)
	assert.Equal(t, "src/index.js", cfg.Paths.EntryFile)
	assert.Equal(t, "public", cfg.Paths.PublicDir)
	assert.Equal(t, []string{"react"}, cfg.Preflight.ReactDependencies)
	assert.Equal(t, "my-service", cfg.Platform.Service)
	assert.Equal(t, "plugins", cfg.Platform.Environment)
	assert.Equal(t, 5*time.Second, cfg.PlatformTimeout())
	assert.True(t, cfg.Mirror.Enabled())
	assert.Equal(t, "us-east-1", cfg.Mirror.Region)
}

func TestLoad_YmlExtension_IsRead(t *testing.T) {
	isolateEnv(t)
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, ProjectConfigFileAlt), "plugin:\n  name: from-yml\n")

	cfg, err := Load(tmpDir)

	require.NoError(t, err)
	assert.Equal(t, "from-yml", cfg.Plugin.Name)
}

func TestLoad_InvalidYaml_ReturnsError(t *testing.T) {
	// Given: a malformed project config
	isolateEnv(t)
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, ProjectConfigFile), "paths: [unclosed")

	// When: loading configuration
	_, err := Load(tmpDir)

	// Then: the parse error names the file
	require.Error(t, err)
	assert.Contains(t, err.Error(), ProjectConfigFile)
}

func TestLoad_InvalidValues_FailValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errMsg  string
	}{
		{"bad timeout", "platform:\n  timeout: soon\n", "platform.timeout"},
		{"template without version", "deploy:\n  asset_base_url_template: /plugins/x\n", "asset_base_url_template"},
		{"bad log level", "logging:\n  level: loud\n", "logging.level"},
		{"bad build timeout", "deploy:\n  build_timeout: never\n", "deploy.build_timeout"},
		{"zero build timeout", "deploy:\n  build_timeout: 0s\n", "deploy.build_timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateEnv(t)
			tmpDir := t.TempDir()
			writeFile(t, filepath.Join(tmpDir, ProjectConfigFile), tt.content)

			_, err := Load(tmpDir)

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

// =============================================================================
// Precedence Tests
// =============================================================================

func TestLoad_UserConfig_IsOverriddenByProjectConfig(t *testing.T) {
	// Given: a user config and a project config that disagree
	isolateEnv(t)
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	writeFile(t, filepath.Join(xdg, "pluginkit", "config.yaml"), `
platform:
  account_sid: AC-user
  service: user-service
logging:
  level: debug
`)
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, ProjectConfigFile), "platform:\n  service: project-service\n")

	// When: loading configuration
	cfg, err := Load(tmpDir)

	// Then: the project wins where both are set, the user config fills the rest
	require.NoError(t, err)
	assert.Equal(t, "project-service", cfg.Platform.Service)
	assert.Equal(t, "AC-user", cfg.Platform.AccountSID)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_ProjectConfig_FalseOverridesUserTrue(t *testing.T) {
	// Given: a user config that enables both preflight flags
	isolateEnv(t)
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	writeFile(t, filepath.Join(xdg, "pluginkit", "config.yaml"), `
preflight:
  skip: true
  unbundled_react: true
`)
	tmpDir := t.TempDir()

	// When: the project config turns skip off and leaves unbundled_react unset
	writeFile(t, filepath.Join(tmpDir, ProjectConfigFile), "preflight:\n  skip: false\n")
	cfg, err := Load(tmpDir)

	// Then: the explicit false wins and the unset flag keeps the user value
	require.NoError(t, err)
	assert.False(t, cfg.Preflight.Skip)
	assert.True(t, cfg.Preflight.UnbundledReact)
}

func TestLoad_DotEnv_OverridesYaml(t *testing.T) {
	// Given: a .env file alongside a project config
	isolateEnv(t)
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, ProjectConfigFile), "mirror:\n  bucket: from-yaml\n")
	writeFile(t, filepath.Join(tmpDir, DotEnvFile), `
SKIP_PREFLIGHT_CHECK=true
PLUGINKIT_ACCOUNT_SID=AC-dotenv
PLUGINKIT_AUTH_TOKEN=secret
PLUGINKIT_MIRROR_BUCKET=from-dotenv
`)

	// When: loading configuration
	cfg, err := Load(tmpDir)

	// Then: .env values are applied
	require.NoError(t, err)
	assert.True(t, cfg.Preflight.Skip)
	assert.Equal(t, "AC-dotenv", cfg.Platform.AccountSID)
	assert.Equal(t, "secret", cfg.Platform.AuthToken)
	assert.Equal(t, "from-dotenv", cfg.Mirror.Bucket)

	// And: the process environment is left untouched
	_, set := os.LookupEnv(EnvAccountSID)
	assert.False(t, set)
}

func TestLoad_Environment_OverridesDotEnv(t *testing.T) {
	// Given: the same key in .env and in the environment
	isolateEnv(t)
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, DotEnvFile), "UNBUNDLED_REACT=true\nPLUGINKIT_LOG_LEVEL=warn\n")
	t.Setenv(EnvUnbundledReact, "false")
	t.Setenv(EnvLogLevel, "error")

	// When: loading configuration
	cfg, err := Load(tmpDir)

	// Then: the real environment wins
	require.NoError(t, err)
	assert.False(t, cfg.Preflight.UnbundledReact)
	assert.Equal(t, "error", cfg.Logging.Level)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	isolateEnv(t)
	t.Setenv(EnvPlatformURL, "http://localhost:9000")
	t.Setenv(EnvPluginsURL, "http://localhost:9001")
	t.Setenv(EnvMirrorKeyID, "AKIA")
	t.Setenv(EnvMirrorSecret, "shh")

	cfg, err := Load(t.TempDir())

	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000", cfg.Platform.BaseURL)
	assert.Equal(t, "http://localhost:9001", cfg.Platform.PluginsURL)
	assert.Equal(t, "AKIA", cfg.Mirror.AccessKeyID)
	assert.Equal(t, "shh", cfg.Mirror.SecretAccessKey)
}

func TestParseBool(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"true", true},
		{"TRUE", true},
		{" yes ", true},
		{"1", true},
		{"false", false},
		{"0", false},
		{"", false},
		{"enabled", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseBool(tt.in))
		})
	}
}

// =============================================================================
// Helper Tests
// =============================================================================

func TestConfig_Resolve(t *testing.T) {
	cfg := NewConfig()
	cfg.ProjectDir = "/work/plugin"

	assert.Equal(t, filepath.Join("/work/plugin", "public"), cfg.Resolve("public"))
	assert.Equal(t, "/abs/path", cfg.Resolve("/abs/path"))
	assert.Equal(t, "", cfg.Resolve(""))
}

func TestWriteYAML_RoundTripsThroughLoad(t *testing.T) {
	// Given: a config with a custom value written to the project dir
	isolateEnv(t)
	tmpDir := t.TempDir()
	cfg := NewConfig()
	cfg.Plugin.Name = "plugin-written"
	cfg.Platform.AuthToken = "never-persisted"

	// When: writing and loading it back
	require.NoError(t, cfg.WriteYAML(filepath.Join(tmpDir, ProjectConfigFile)))
	loaded, err := Load(tmpDir)

	// Then: the value survives and the secret does not
	require.NoError(t, err)
	assert.Equal(t, "plugin-written", loaded.Plugin.Name)
	assert.Empty(t, loaded.Platform.AuthToken)

	data, err := os.ReadFile(filepath.Join(tmpDir, ProjectConfigFile))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "never-persisted")
}

func TestGetUserConfigPath_HonorsXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	assert.Equal(t, filepath.Join("/xdg", "pluginkit", "config.yaml"), GetUserConfigPath())
}

func TestFindProjectRoot(t *testing.T) {
	// Given: a project with package.json and a nested source dir
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "package.json"), `{"name":"plugin-sample"}`)
	nested := filepath.Join(root, "src", "components")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	// When: searching from the nested dir
	found, err := FindProjectRoot(nested)

	// Then: the package.json directory is returned
	require.NoError(t, err)
	assert.Equal(t, root, found)
}
