package commands

import (
	"sync"
	"time"

	"github.com/fivetwenty-io/graph-client/internal/auth"
)

// ConfigPersister implements the auth.ConfigPersister interface by writing
// refreshed tokens back into a profile of the config file.
type ConfigPersister struct {
	mutex sync.Mutex
	path  string
}

// NewConfigPersister creates a persister for the config file at path.
func NewConfigPersister(path string) *ConfigPersister {
	return &ConfigPersister{path: path}
}

// SaveToken stores token on the named profile.
func (p *ConfigPersister) SaveToken(profileName string, token *auth.Token) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	config, err := LoadConfigFile(p.path)
	if err != nil {
		return err
	}

	profile := config.Profile(profileName, true)
	profile.Token = token.AccessToken

	if !token.ExpiresAt.IsZero() {
		expiresAt := token.ExpiresAt
		profile.TokenExpiresAt = &expiresAt
	}

	if token.RefreshToken != "" {
		profile.RefreshToken = token.RefreshToken
	}

	now := time.Now()
	profile.LastRefreshed = &now

	return SaveConfigFile(p.path, config)
}
