package platform

import (
	"context"
	"net/url"
	"slices"
)

// AccountConfiguration returns the account-level plugin configuration.
func (c *Client) AccountConfiguration(ctx context.Context) (*AccountConfiguration, error) {
	var ac AccountConfiguration
	if err := c.getJSON(ctx, c.plugins("/Configuration"), &ac); err != nil {
		return nil, err
	}
	return &ac, nil
}

// RegisterService adds serviceSid to the account configuration. It reports
// whether the configuration changed.
func (c *Client) RegisterService(ctx context.Context, serviceSid string) (bool, error) {
	ac, err := c.AccountConfiguration(ctx)
	if err != nil {
		return false, err
	}
	if slices.Contains(ac.ServerlessServiceSids, serviceSid) {
		return false, nil
	}

	ac.ServerlessServiceSids = append(ac.ServerlessServiceSids, serviceSid)
	if err := c.postJSON(ctx, c.plugins("/Configuration"), ac, nil); err != nil {
		return false, err
	}
	return true, nil
}

// PluginVersion returns one version of a plugin.
func (c *Client) PluginVersion(ctx context.Context, plugin, version string) (*PluginVersion, error) {
	var pv PluginVersion
	u := c.plugins("/Plugins/%s/Versions/%s", url.PathEscape(plugin), url.PathEscape(version))
	if err := c.getJSON(ctx, u, &pv); err != nil {
		return nil, err
	}
	return &pv, nil
}

// ArchivePluginVersion archives one version of a plugin.
func (c *Client) ArchivePluginVersion(ctx context.Context, plugin, version string) (*PluginVersion, error) {
	var pv PluginVersion
	u := c.plugins("/Plugins/%s/Versions/%s/Archive", url.PathEscape(plugin), url.PathEscape(version))
	if err := c.postJSON(ctx, u, struct{}{}, &pv); err != nil {
		return nil, err
	}
	return &pv, nil
}

// CreateConfiguration creates a named set of plugin versions.
func (c *Client) CreateConfiguration(ctx context.Context, req CreateConfigurationRequest) (*Configuration, error) {
	var cfg Configuration
	if err := c.postJSON(ctx, c.plugins("/Configurations"), req, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// CreateRelease makes a configuration live.
func (c *Client) CreateRelease(ctx context.Context, configurationSid string) (*Release, error) {
	var r Release
	in := map[string]string{"configuration_id": configurationSid}
	if err := c.postJSON(ctx, c.plugins("/Releases"), in, &r); err != nil {
		return nil, err
	}
	return &r, nil
}
