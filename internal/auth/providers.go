package auth

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"

	"github.com/fivetwenty-io/graph-client/internal/constants"
)

// StaticProvider always returns the same access token.
type StaticProvider struct {
	token string
}

// NewStaticProvider creates a provider for a pre-resolved token.
func NewStaticProvider(token string) *StaticProvider {
	return &StaticProvider{token: token}
}

// GetToken implements graph.AuthProvider.
func (p *StaticProvider) GetToken(ctx context.Context) (string, error) {
	if p.token == "" {
		return "", constants.ErrNoTokenConfigured
	}

	return p.token, nil
}

// TokenSourceProvider adapts an oauth2.TokenSource. The source is wrapped in
// oauth2.ReuseTokenSource, so a token is reused until it is within the
// oauth2 expiry margin and concurrent callers share one refresh.
type TokenSourceProvider struct {
	source oauth2.TokenSource
}

// NewTokenSourceProvider creates a provider backed by source.
func NewTokenSourceProvider(source oauth2.TokenSource) *TokenSourceProvider {
	return &TokenSourceProvider{
		source: oauth2.ReuseTokenSource(nil, source),
	}
}

// GetToken implements graph.AuthProvider.
func (p *TokenSourceProvider) GetToken(ctx context.Context) (string, error) {
	token, err := p.Token(ctx)
	if err != nil {
		return "", err
	}

	return token.AccessToken, nil
}

// Token returns the current token, pulling a new one from the source when needed.
func (p *TokenSourceProvider) Token(ctx context.Context) (*Token, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	oauthToken, err := p.source.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to obtain token: %w", err)
	}

	token := FromOAuth2(oauthToken)
	if token.AccessToken == "" {
		return nil, constants.ErrEmptyToken
	}

	return token, nil
}
