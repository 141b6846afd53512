// Package auth provides token models and the token providers used to
// authenticate graph requests.
package auth

import (
	"time"

	"golang.org/x/oauth2"

	"github.com/fivetwenty-io/graph-client/internal/constants"
)

// Token represents a bearer token.
type Token struct {
	AccessToken  string    `json:"access_token"            yaml:"access_token"`
	TokenType    string    `json:"token_type,omitempty"    yaml:"token_type,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty" yaml:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at,omitempty"    yaml:"expires_at,omitempty"`
}

// Valid reports whether the token is usable. Tokens expiring within
// constants.TokenExpirationBuffer are treated as expired.
func (t *Token) Valid() bool {
	if t == nil || t.AccessToken == "" {
		return false
	}

	if t.ExpiresAt.IsZero() {
		return true
	}

	return time.Now().Add(constants.TokenExpirationBuffer).Before(t.ExpiresAt)
}

// FromOAuth2 converts an oauth2 token.
func FromOAuth2(token *oauth2.Token) *Token {
	if token == nil {
		return nil
	}

	return &Token{
		AccessToken:  token.AccessToken,
		TokenType:    token.TokenType,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.Expiry,
	}
}

// OAuth2 converts the token for use with golang.org/x/oauth2.
func (t *Token) OAuth2() *oauth2.Token {
	if t == nil {
		return nil
	}

	return &oauth2.Token{
		AccessToken:  t.AccessToken,
		TokenType:    t.TokenType,
		RefreshToken: t.RefreshToken,
		Expiry:       t.ExpiresAt,
	}
}
