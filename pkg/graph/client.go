package graph

import (
	"context"
	"errors"
	"strings"

	"github.com/fivetwenty-io/graph-client/internal/constants"
)

// Static errors for err113 compliance.
var (
	ErrConfigRequired       = errors.New("config is required")
	ErrTransportRequired    = errors.New("transport is required")
	ErrAuthProviderRequired = errors.New("auth provider is required")
	ErrNoAccessToken        = errors.New("auth provider returned no access token")
)

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

type noopLogger struct{}

func (noopLogger) Debug(string, map[string]interface{}) {}
func (noopLogger) Info(string, map[string]interface{})  {}
func (noopLogger) Warn(string, map[string]interface{})  {}
func (noopLogger) Error(string, map[string]interface{}) {}

// NoopLogger returns a Logger that discards everything.
func NoopLogger() Logger {
	return noopLogger{}
}

// AuthProvider supplies the bearer token for a request. It is called exactly
// once per dispatched request.
type AuthProvider interface {
	GetToken(ctx context.Context) (string, error)
}

// AuthProviderFunc adapts a function to the AuthProvider interface.
type AuthProviderFunc func(ctx context.Context) (string, error)

// GetToken implements AuthProvider.
func (f AuthProviderFunc) GetToken(ctx context.Context) (string, error) {
	return f(ctx)
}

// Config is the per-client configuration shared read-only by every request the
// client creates.
type Config struct {
	// BaseURL is the scheme and authority, e.g. "https://graph.microsoft.com".
	// Defaults to constants.DefaultBaseURL.
	BaseURL string
	// DefaultVersion is the version segment used unless a request overrides it.
	// Defaults to "v1.0".
	DefaultVersion string
	// Debug logs every built URL through Logger.
	Debug bool
	// Logger is optional; a nil Logger discards output.
	Logger Logger
	// AuthProvider supplies bearer tokens. Required.
	AuthProvider AuthProvider
	// Transport performs HTTP exchanges. Required; pkg/graphclient wires a default.
	Transport Transport
	// Interceptors run around every transport call when set.
	Interceptors *InterceptorChain
	// UserAgent is sent as the User-Agent header when set.
	UserAgent string
}

// Client is the entry point for building requests.
type Client struct {
	config Config
}

// NewClient validates config, fills defaults and returns a client holding its own copy.
func NewClient(config *Config) (*Client, error) {
	if config == nil {
		return nil, ErrConfigRequired
	}

	if config.Transport == nil {
		return nil, ErrTransportRequired
	}

	if config.AuthProvider == nil {
		return nil, ErrAuthProviderRequired
	}

	cfg := *config

	if cfg.BaseURL == "" {
		cfg.BaseURL = constants.DefaultBaseURL
	}

	if cfg.DefaultVersion == "" {
		cfg.DefaultVersion = constants.DefaultVersion
	}

	if cfg.Logger == nil {
		cfg.Logger = noopLogger{}
	}

	if cfg.Interceptors != nil {
		cfg.Transport = &interceptingTransport{next: cfg.Transport, chain: cfg.Interceptors}
	}

	return &Client{config: cfg}, nil
}

// API starts a request for path. The path may be relative ("/me/messages") or
// absolute ("https://graph.microsoft.com/beta/me?$select=displayName").
func (c *Client) API(path string) *Request {
	return newRequest(&c.config, path)
}

// BaseURL returns the configured host.
func (c *Client) BaseURL() string {
	return strings.TrimSuffix(c.config.BaseURL, "/")
}

// DefaultVersion returns the configured version segment.
func (c *Client) DefaultVersion() string {
	return c.config.DefaultVersion
}
