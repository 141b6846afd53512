package commands

import (
	"context"
	"fmt"

	"github.com/spf13/viper"
	"golang.org/x/oauth2"

	"github.com/fivetwenty-io/graph-client/internal/auth"
	"github.com/fivetwenty-io/graph-client/internal/constants"
	"github.com/fivetwenty-io/graph-client/pkg/graph"
	"github.com/fivetwenty-io/graph-client/pkg/graphclient"
)

// userAgent is reported by every CLI request.
const userAgent = "graph-cli"

// createClient builds a client from flags, environment and the active profile.
// The returned cleanup flushes the logger and releases the cache.
func createClient(ctx context.Context) (*graph.Client, func(), error) {
	config, path, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	verbose := viper.GetBool("verbose")

	logger, syncLogger, err := newLogger(verbose)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}

	profileName := config.ActiveProfile()
	profile := config.Profile(profileName, false)

	provider, err := authProvider(ctx, profile, NewConfigPersister(path), profileName, logger)
	if err != nil {
		syncLogger()

		return nil, nil, err
	}

	graphConfig := &graph.Config{
		BaseURL:        firstNonEmpty(viper.GetString("base-url"), profileBaseURL(profile)),
		DefaultVersion: firstNonEmpty(viper.GetString("api-version"), profileVersion(profile)),
		Debug:          verbose,
		Logger:         logger,
		AuthProvider:   provider,
		Interceptors:   newInterceptors(logger, verbose, viper.GetInt("rate-limit")),
		UserAgent:      userAgent,
	}

	opts := []graphclient.Option{graphclient.WithTimeout(viper.GetDuration("timeout"))}

	cacheConfig, closeCache, err := newCache(ctx, cacheConfigFromFlags())
	if err != nil {
		syncLogger()

		return nil, nil, err
	}

	if cacheConfig.Backend != graph.CacheTypeNone {
		opts = append(opts, graphclient.WithCache(cacheConfig))
	}

	cleanup := func() {
		closeCache()
		syncLogger()
	}

	client, err := graphclient.New(ctx, graphConfig, opts...)
	if err != nil {
		cleanup()

		return nil, nil, err
	}

	return client, cleanup, nil
}

// authProvider picks, in order: the --token flag or GRAPH_TOKEN, a refreshable
// profile, then the profile's stored token.
func authProvider(ctx context.Context, profile *Profile, persister auth.ConfigPersister, profileName string, logger graph.Logger) (graph.AuthProvider, error) {
	if token := viper.GetString("token"); token != "" {
		return auth.NewStaticProvider(token), nil
	}

	if profile.CanRefresh() {
		initial := profileToken(profile)
		oauthConfig := &oauth2.Config{
			ClientID:     profile.ClientID,
			ClientSecret: profile.ClientSecret,
			Endpoint:     oauth2.Endpoint{TokenURL: profile.TokenURL},
			Scopes:       profile.Scopes,
		}

		source := auth.NewTokenSourceProvider(oauthConfig.TokenSource(ctx, initial.OAuth2()))

		return auth.NewConfigTokenProvider(source, persister, profileName, initial, logger.Warn), nil
	}

	if profile != nil && profile.Token != "" {
		return auth.NewStaticProvider(profile.Token), nil
	}

	return nil, constants.ErrNoTokenConfigured
}

func profileToken(profile *Profile) *auth.Token {
	token := &auth.Token{
		AccessToken:  profile.Token,
		TokenType:    "Bearer",
		RefreshToken: profile.RefreshToken,
	}

	if profile.TokenExpiresAt != nil {
		token.ExpiresAt = *profile.TokenExpiresAt
	}

	return token
}

func newInterceptors(logger graph.Logger, verbose bool, rateLimit int) *graph.InterceptorChain {
	chain := graph.NewInterceptorChain()

	if rateLimit > 0 {
		chain.AddRequestInterceptor(graph.RateLimitInterceptor(rateLimit))
	}

	if verbose {
		metrics := graph.NewMetricsCollector()
		metrics.SetOnChange(func(endpoint string, m graph.Metrics) {
			logger.Debug("Endpoint metrics", map[string]interface{}{
				"endpoint":        endpoint,
				"total_requests":  m.TotalRequests,
				"total_errors":    m.TotalErrors,
				"average_latency": m.AverageLatency.String(),
			})
		})

		chain.AddRequestInterceptor(graph.LoggingInterceptor(logger)).
			AddRequestInterceptor(graph.MetricsRequestInterceptor(metrics)).
			AddResponseInterceptor(graph.LoggingResponseInterceptor(logger)).
			AddResponseInterceptor(graph.MetricsResponseInterceptor(metrics))
	}

	return chain
}

// cacheConfigFromFlags reads --cache, --cache-ttl and --nats-url. The
// backend is left as typed so newCache can reject unknown names.
func cacheConfigFromFlags() graph.CacheConfig {
	return graph.CacheConfig{
		Backend: graph.CacheType(viper.GetString("cache")),
		TTL:     viper.GetDuration("cache-ttl"),
		NATSURL: viper.GetString("nats-url"),
	}
}

// newCache validates config and opens a NATS backend up front so the
// connection can be closed when the command finishes. The returned config
// carries the opened store.
func newCache(ctx context.Context, config graph.CacheConfig) (graph.CacheConfig, func(), error) {
	noop := func() {}

	backend, err := graph.ParseCacheType(string(config.Backend))
	if err != nil {
		return config, nil, err
	}

	config.Backend = backend
	if backend != graph.CacheTypeNATS {
		return config, noop, nil
	}

	opened, err := graph.OpenCache(ctx, config)
	if err != nil {
		return config, nil, err
	}

	config.Store = opened.Store

	return config, opened.Close, nil
}

func profileBaseURL(profile *Profile) string {
	if profile == nil {
		return ""
	}

	return profile.BaseURL
}

func profileVersion(profile *Profile) string {
	if profile == nil {
		return ""
	}

	return profile.APIVersion
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}

	return ""
}
