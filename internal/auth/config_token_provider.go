package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Static errors for err113 compliance.
var (
	ErrNoConfigPersister = errors.New("no config persister configured")
)

// ConfigPersister defines the interface for persisting config changes.
type ConfigPersister interface {
	SaveToken(profile string, token *Token) error
}

// TokenSource is anything that can hand out a full Token.
type TokenSource interface {
	Token(ctx context.Context) (*Token, error)
}

// WarnFunc receives persistence failures, which never fail a request.
type WarnFunc func(msg string, fields map[string]interface{})

// ConfigTokenProvider wraps a TokenSource and saves every new token it
// observes through a ConfigPersister.
type ConfigTokenProvider struct {
	source    TokenSource
	persister ConfigPersister
	profile   string
	warn      WarnFunc

	mutex       sync.Mutex
	lastToken   string
	lastExpires time.Time
}

// NewConfigTokenProvider creates a config-persisting token provider. initial is
// the token already stored in config, if any; it is not written back.
func NewConfigTokenProvider(source TokenSource, persister ConfigPersister, profile string, initial *Token, warn WarnFunc) *ConfigTokenProvider {
	provider := &ConfigTokenProvider{
		source:    source,
		persister: persister,
		profile:   profile,
		warn:      warn,
	}

	if initial != nil {
		provider.lastToken = initial.AccessToken
		provider.lastExpires = initial.ExpiresAt
	}

	return provider
}

// GetToken implements graph.AuthProvider.
func (p *ConfigTokenProvider) GetToken(ctx context.Context) (string, error) {
	token, err := p.source.Token(ctx)
	if err != nil {
		return "", err
	}

	p.mutex.Lock()
	defer p.mutex.Unlock()

	if token.AccessToken != p.lastToken || !token.ExpiresAt.Equal(p.lastExpires) {
		persistErr := p.persistToken(token)
		if persistErr != nil && p.warn != nil {
			p.warn("failed to persist refreshed token", map[string]interface{}{
				"profile": p.profile,
				"error":   persistErr.Error(),
			})
		}

		p.lastToken = token.AccessToken
		p.lastExpires = token.ExpiresAt
	}

	return token.AccessToken, nil
}

// TokenExpiry returns the expiry of the last token seen.
func (p *ConfigTokenProvider) TokenExpiry() time.Time {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	return p.lastExpires
}

func (p *ConfigTokenProvider) persistToken(token *Token) error {
	if p.persister == nil {
		return ErrNoConfigPersister
	}

	err := p.persister.SaveToken(p.profile, token)
	if err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}

	return nil
}
