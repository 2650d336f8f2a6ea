// Package platform is an HTTP client for the hosted platform's serverless
// and plugins APIs. Every call is a single request; nothing is retried.
package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	pkerrors "github.com/Aman-CERP/pluginkit/internal/errors"
	"github.com/Aman-CERP/pluginkit/pkg/version"
)

// RequestIDHeader carries a per-request id the platform echoes in its logs.
const RequestIDHeader = "X-Request-Id"

// DefaultPollInterval is how often WaitForBuild polls.
const DefaultPollInterval = 2 * time.Second

// DefaultBuildTimeout bounds WaitForBuild when Config.BuildTimeout is zero.
const DefaultBuildTimeout = 5 * time.Minute

// Config configures a Client.
type Config struct {
	BaseURL    string
	PluginsURL string
	AccountSID string
	AuthToken  string
	// Timeout bounds each request. Zero means no limit beyond the context.
	Timeout time.Duration
	// BuildTimeout bounds the whole of WaitForBuild.
	BuildTimeout time.Duration
}

// Client talks to the platform APIs with basic auth.
type Client struct {
	cfg          Config
	http         *http.Client
	logger       *slog.Logger
	pollInterval time.Duration
	buildTimeout time.Duration
	newRequestID func() string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithPollInterval sets how often WaitForBuild polls.
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) {
		c.pollInterval = d
	}
}

// New creates a Client. Credentials and both URLs are required.
func New(cfg Config, opts ...Option) (*Client, error) {
	if cfg.AccountSID == "" || cfg.AuthToken == "" {
		return nil, pkerrors.New(pkerrors.ErrCodeCredentialMissing, "platform credentials are not set", nil).
			WithSuggestion("Set PLUGINKIT_ACCOUNT_SID and PLUGINKIT_AUTH_TOKEN in your environment or .env file")
	}
	if cfg.BaseURL == "" || cfg.PluginsURL == "" {
		return nil, pkerrors.ConfigError("platform.base_url and platform.plugins_url must be set", nil)
	}

	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	cfg.PluginsURL = strings.TrimRight(cfg.PluginsURL, "/")

	// Per-request deadlines come from the context; see do.
	c := &Client{
		cfg:          cfg,
		http:         &http.Client{},
		logger:       slog.Default(),
		pollInterval: DefaultPollInterval,
		buildTimeout: cfg.BuildTimeout,
		newRequestID: uuid.NewString,
	}
	if c.buildTimeout <= 0 {
		c.buildTimeout = DefaultBuildTimeout
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// serverless builds a URL on the serverless API.
func (c *Client) serverless(format string, args ...any) string {
	return c.cfg.BaseURL + fmt.Sprintf(format, args...)
}

// plugins builds a URL on the plugins API.
func (c *Client) plugins(format string, args ...any) string {
	return c.cfg.PluginsURL + fmt.Sprintf(format, args...)
}

// getJSON issues a GET and decodes the response into out.
func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	return c.do(ctx, http.MethodGet, url, nil, "", out)
}

// postJSON issues a POST with a JSON body and decodes the response into out.
func (c *Client) postJSON(ctx context.Context, url string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return pkerrors.InternalError("failed to encode request", err)
	}
	return c.do(ctx, http.MethodPost, url, body, "application/json", out)
}

// do sends one request. Non-2xx responses become *errors.PluginError.
func (c *Client) do(ctx context.Context, method, url string, body []byte, contentType string, out any) error {
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return pkerrors.InternalError("failed to build request", err).WithDetail("url", url)
	}

	requestID := c.newRequestID()
	req.SetBasicAuth(c.cfg.AccountSID, c.cfg.AuthToken)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())
	req.Header.Set(RequestIDHeader, requestID)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return pkerrors.New(pkerrors.ErrCodeRequestFailed, "platform request failed", err).
			WithDetail("method", method).
			WithDetail("url", url)
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.Debug("platform request",
		"method", method,
		"url", url,
		"status", resp.StatusCode,
		"request_id", requestID,
		"duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp, method, url, requestID)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pkerrors.New(pkerrors.ErrCodeUnexpectedStatus, "failed to decode platform response", err).
			WithDetail("url", url)
	}
	return nil
}

func statusError(resp *http.Response, method, url, requestID string) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	msg := strings.TrimSpace(string(raw))
	var body apiError
	if json.Unmarshal(raw, &body) == nil && body.Message != "" {
		msg = body.Message
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	code := pkerrors.ErrCodeUnexpectedStatus
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		code = pkerrors.ErrCodeUnauthorized
	case http.StatusNotFound:
		code = pkerrors.ErrCodeNotFound
	}

	err := pkerrors.New(code, msg, nil).
		WithDetail("method", method).
		WithDetail("url", url).
		WithDetail("status", fmt.Sprintf("%d", resp.StatusCode)).
		WithDetail("request_id", requestID)
	if code == pkerrors.ErrCodeUnauthorized {
		err = err.WithSuggestion("Check PLUGINKIT_ACCOUNT_SID and PLUGINKIT_AUTH_TOKEN")
	}
	return err
}

// IsNotFound reports whether err is a 404 from the platform.
func IsNotFound(err error) bool {
	return pkerrors.GetCode(err) == pkerrors.ErrCodeNotFound
}
