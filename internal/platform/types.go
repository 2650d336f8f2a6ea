package platform

// Visibility controls who can fetch an uploaded asset.
type Visibility string

const (
	// VisibilityPublic assets are served to anyone.
	VisibilityPublic Visibility = "public"
	// VisibilityProtected assets require a signed request.
	VisibilityProtected Visibility = "protected"
)

// Build statuses reported by the serverless API.
const (
	BuildStatusBuilding  = "building"
	BuildStatusCompleted = "completed"
	BuildStatusFailed    = "failed"
)

// Service is a serverless service that hosts plugin bundles.
type Service struct {
	Sid          string `json:"sid"`
	UniqueName   string `json:"unique_name"`
	FriendlyName string `json:"friendly_name"`
}

// Environment is a deployment target inside a Service.
type Environment struct {
	Sid        string `json:"sid"`
	ServiceSid string `json:"service_sid"`
	UniqueName string `json:"unique_name"`
	DomainName string `json:"domain_name"`
	BuildSid   string `json:"build_sid,omitempty"`
}

// Asset is a named asset whose content is stored in Versions.
type Asset struct {
	Sid          string `json:"sid"`
	ServiceSid   string `json:"service_sid"`
	FriendlyName string `json:"friendly_name"`
}

// Version is one uploaded asset or function version.
type Version struct {
	Sid        string     `json:"sid"`
	Path       string     `json:"path"`
	Visibility Visibility `json:"visibility"`
}

// Dependency is an npm dependency installed into a build.
type Dependency struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Build is an immutable snapshot of asset and function versions.
type Build struct {
	Sid              string       `json:"sid"`
	Status           string       `json:"status"`
	AssetVersions    []Version    `json:"asset_versions"`
	FunctionVersions []Version    `json:"function_versions"`
	Dependencies     []Dependency `json:"dependencies"`
}

// Deployment activates a Build in an Environment.
type Deployment struct {
	Sid            string `json:"sid"`
	BuildSid       string `json:"build_sid"`
	EnvironmentSid string `json:"environment_sid"`
}

// Runtime is everything a deploy targets. Build is nil when the
// environment has never been deployed.
type Runtime struct {
	Service     *Service
	Environment *Environment
	Build       *Build
}

// CreateBuildRequest lists the version sids that make up a new build.
type CreateBuildRequest struct {
	AssetVersions    []string     `json:"asset_versions"`
	FunctionVersions []string     `json:"function_versions"`
	Dependencies     []Dependency `json:"dependencies,omitempty"`
}

// UploadRequest describes one asset upload.
type UploadRequest struct {
	// Name is the asset's friendly name.
	Name string
	// Path is where the asset is served, e.g. /plugins/name/1.0.0/bundle.js.
	Path       string
	Visibility Visibility
	Content    []byte
}

// PluginVersion is a registered version of a plugin.
type PluginVersion struct {
	Sid       string `json:"sid"`
	PluginSid string `json:"plugin_sid"`
	Version   string `json:"version"`
	PluginURL string `json:"plugin_url"`
	Private   bool   `json:"private"`
	Archived  bool   `json:"archived"`
}

// Configuration is a named set of plugin versions.
type Configuration struct {
	Sid         string `json:"sid"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ConfigurationPlugin references one plugin version in a Configuration.
type ConfigurationPlugin struct {
	PluginVersion string `json:"plugin_version"`
}

// CreateConfigurationRequest creates a Configuration.
type CreateConfigurationRequest struct {
	Name        string                `json:"name"`
	Description string                `json:"description,omitempty"`
	Plugins     []ConfigurationPlugin `json:"plugins"`
}

// Release makes a Configuration live.
type Release struct {
	Sid              string `json:"sid"`
	ConfigurationSid string `json:"configuration_sid"`
}

// AccountConfiguration is the account-level plugin configuration.
type AccountConfiguration struct {
	ServerlessServiceSids []string `json:"serverless_service_sids"`
}

// apiError is the error body returned by both APIs.
type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
