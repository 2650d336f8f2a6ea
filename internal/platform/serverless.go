package platform

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	pkerrors "github.com/Aman-CERP/pluginkit/internal/errors"
)

// Service returns the service with the given sid or unique name.
func (c *Client) Service(ctx context.Context, name string) (*Service, error) {
	var s Service
	if err := c.getJSON(ctx, c.serverless("/Services/%s", url.PathEscape(name)), &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// CreateService creates a service with the given unique name.
func (c *Client) CreateService(ctx context.Context, name string) (*Service, error) {
	var s Service
	in := map[string]string{"unique_name": name, "friendly_name": name}
	if err := c.postJSON(ctx, c.serverless("/Services"), in, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Environment returns the environment with the given sid or unique name.
func (c *Client) Environment(ctx context.Context, serviceSid, name string) (*Environment, error) {
	var e Environment
	u := c.serverless("/Services/%s/Environments/%s", url.PathEscape(serviceSid), url.PathEscape(name))
	if err := c.getJSON(ctx, u, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// CreateEnvironment creates an environment inside a service.
func (c *Client) CreateEnvironment(ctx context.Context, serviceSid, name string) (*Environment, error) {
	var e Environment
	in := map[string]string{"unique_name": name}
	if err := c.postJSON(ctx, c.serverless("/Services/%s/Environments", url.PathEscape(serviceSid)), in, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// Build returns a build by sid.
func (c *Client) Build(ctx context.Context, serviceSid, buildSid string) (*Build, error) {
	var b Build
	u := c.serverless("/Services/%s/Builds/%s", url.PathEscape(serviceSid), url.PathEscape(buildSid))
	if err := c.getJSON(ctx, u, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// Runtime resolves the service and environment a deploy targets, creating
// either when missing, and fetches the environment's current build.
func (c *Client) Runtime(ctx context.Context, serviceName, environmentName string) (*Runtime, error) {
	svc, err := c.Service(ctx, serviceName)
	if IsNotFound(err) {
		c.logger.Debug("creating service", "name", serviceName)
		svc, err = c.CreateService(ctx, serviceName)
	}
	if err != nil {
		return nil, err
	}

	env, err := c.Environment(ctx, svc.Sid, environmentName)
	if IsNotFound(err) {
		c.logger.Debug("creating environment", "service", svc.Sid, "name", environmentName)
		env, err = c.CreateEnvironment(ctx, svc.Sid, environmentName)
	}
	if err != nil {
		return nil, err
	}

	rt := &Runtime{Service: svc, Environment: env}
	if env.BuildSid == "" {
		return rt, nil
	}

	build, err := c.Build(ctx, svc.Sid, env.BuildSid)
	if err != nil {
		return nil, err
	}
	rt.Build = build
	return rt, nil
}

// UploadAsset creates an asset and uploads its content as a new version.
func (c *Client) UploadAsset(ctx context.Context, serviceSid string, req UploadRequest) (*Version, error) {
	var asset Asset
	in := map[string]string{"friendly_name": req.Name}
	if err := c.postJSON(ctx, c.serverless("/Services/%s/Assets", url.PathEscape(serviceSid)), in, &asset); err != nil {
		return nil, err
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	_ = mw.WriteField("path", req.Path)
	_ = mw.WriteField("visibility", string(req.Visibility))
	part, err := mw.CreateFormFile("content", req.Name)
	if err != nil {
		return nil, pkerrors.InternalError("failed to encode upload", err)
	}
	if _, err := part.Write(req.Content); err != nil {
		return nil, pkerrors.InternalError("failed to encode upload", err)
	}
	if err := mw.Close(); err != nil {
		return nil, pkerrors.InternalError("failed to encode upload", err)
	}

	var v Version
	u := c.serverless("/Services/%s/Assets/%s/Versions", url.PathEscape(serviceSid), url.PathEscape(asset.Sid))
	if err := c.do(ctx, http.MethodPost, u, body.Bytes(), mw.FormDataContentType(), &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// CreateBuild creates a build from existing version sids.
func (c *Client) CreateBuild(ctx context.Context, serviceSid string, req CreateBuildRequest) (*Build, error) {
	var b Build
	if err := c.postJSON(ctx, c.serverless("/Services/%s/Builds", url.PathEscape(serviceSid)), req, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// WaitForBuild polls a build until it completes. A failed build, any status
// other than building, or a wait longer than the build timeout is an error.
func (c *Client) WaitForBuild(ctx context.Context, serviceSid, buildSid string) (*Build, error) {
	waitCtx, cancel := context.WithTimeout(ctx, c.buildTimeout)
	defer cancel()

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	timedOut := func() error {
		return pkerrors.Newf(pkerrors.ErrCodeUnexpectedStatus,
			"build %s did not finish within %s", buildSid, c.buildTimeout).
			WithSuggestion("Raise deploy.build_timeout in .pluginkit.yaml")
	}

	for {
		b, err := c.Build(waitCtx, serviceSid, buildSid)
		if err != nil {
			if ctx.Err() == nil && waitCtx.Err() != nil {
				return nil, timedOut()
			}
			return nil, err
		}

		switch b.Status {
		case BuildStatusCompleted:
			return b, nil
		case BuildStatusBuilding:
		case BuildStatusFailed:
			return nil, pkerrors.Newf(pkerrors.ErrCodeUnexpectedStatus, "build %s failed", buildSid)
		default:
			return nil, pkerrors.Newf(pkerrors.ErrCodeUnexpectedStatus,
				"build %s stopped with status %q", buildSid, b.Status)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-waitCtx.Done():
			return nil, timedOut()
		case <-ticker.C:
		}
	}
}

// CreateDeployment activates a build in an environment.
func (c *Client) CreateDeployment(ctx context.Context, serviceSid, environmentSid, buildSid string) (*Deployment, error) {
	var d Deployment
	u := c.serverless("/Services/%s/Environments/%s/Deployments", url.PathEscape(serviceSid), url.PathEscape(environmentSid))
	if err := c.postJSON(ctx, u, map[string]string{"build_sid": buildSid}, &d); err != nil {
		return nil, err
	}
	return &d, nil
}
