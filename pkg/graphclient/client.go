package graphclient

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/fivetwenty-io/graph-client/internal/auth"
	graphhttp "github.com/fivetwenty-io/graph-client/internal/http"
	"github.com/fivetwenty-io/graph-client/pkg/graph"
)

// Static errors for err113 compliance.
var (
	ErrNoCredentials = errors.New("no access token, token source or auth provider configured")
)

type options struct {
	accessToken string
	tokenSource oauth2.TokenSource
	cache       *graph.CacheConfig
	httpClient  *http.Client
	timeout     time.Duration
}

// Option customizes how New wires the client.
type Option func(*options)

// WithAccessToken authenticates with a pre-resolved bearer token.
func WithAccessToken(token string) Option {
	return func(o *options) {
		o.accessToken = token
	}
}

// WithTokenSource authenticates with tokens pulled from an oauth2.TokenSource.
func WithTokenSource(source oauth2.TokenSource) Option {
	return func(o *options) {
		o.tokenSource = source
	}
}

// WithCache caches GET responses as config describes. A NATS backend dialed
// here lives as long as the process; pass config.NATSConn or an opened
// config.Store to control its lifetime.
func WithCache(config graph.CacheConfig) Option {
	return func(o *options) {
		o.cache = &config
	}
}

// WithHTTPClient sends requests through httpClient.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(o *options) {
		o.httpClient = httpClient
	}
}

// WithTimeout bounds every exchange of the default transport. Ignored when
// WithHTTPClient is also given.
func WithTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.timeout = timeout
	}
}

// New creates a client. Fields left empty in config get defaults: the
// retryablehttp transport from internal/http and a token provider built from
// the options. config is not modified.
func New(ctx context.Context, config *graph.Config, opts ...Option) (*graph.Client, error) {
	if config == nil {
		config = &graph.Config{}
	}

	var settings options
	for _, opt := range opts {
		opt(&settings)
	}

	cfg := *config
	cfg.BaseURL = NormalizeBaseURL(cfg.BaseURL)

	if cfg.AuthProvider == nil {
		provider, err := authProvider(&settings)
		if err != nil {
			return nil, err
		}

		cfg.AuthProvider = provider
	}

	if cfg.Transport == nil {
		cfg.Transport = defaultTransport(&cfg, &settings)
	}

	if settings.cache != nil {
		cache, err := graph.OpenCache(ctx, *settings.cache)
		if err != nil {
			return nil, err
		}

		cfg.Transport = cache.Wrap(cfg.Transport, cfg.Logger)
	}

	return graph.NewClient(&cfg)
}

// NewWithToken creates a client for the default Graph endpoint using a static token.
func NewWithToken(ctx context.Context, token string, opts ...Option) (*graph.Client, error) {
	return New(ctx, nil, append([]Option{WithAccessToken(token)}, opts...)...)
}

// NormalizeBaseURL trims trailing slashes and adds https:// when no scheme is
// present. An empty value stays empty so the library default applies.
func NormalizeBaseURL(baseURL string) string {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return ""
	}

	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "https://" + baseURL
	}

	return baseURL
}

func authProvider(settings *options) (graph.AuthProvider, error) {
	switch {
	case settings.accessToken != "":
		return auth.NewStaticProvider(settings.accessToken), nil
	case settings.tokenSource != nil:
		return auth.NewTokenSourceProvider(settings.tokenSource), nil
	default:
		return nil, ErrNoCredentials
	}
}

func defaultTransport(cfg *graph.Config, settings *options) graph.Transport {
	httpOpts := []graphhttp.Option{
		graphhttp.WithDebug(cfg.Debug),
		graphhttp.WithUserAgent(cfg.UserAgent),
	}

	if cfg.Logger != nil {
		httpOpts = append(httpOpts, graphhttp.WithLogger(cfg.Logger))
	}

	switch {
	case settings.httpClient != nil:
		httpOpts = append(httpOpts, graphhttp.WithHTTPClient(settings.httpClient))
	case settings.timeout > 0:
		httpOpts = append(httpOpts, graphhttp.WithTimeout(settings.timeout))
	}

	return graphhttp.NewClient(httpOpts...)
}
