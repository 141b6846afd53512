package commands_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/graph-client/cmd/graph/commands"
	"github.com/fivetwenty-io/graph-client/internal/auth"
)

func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("missing file yields empty config", func(t *testing.T) {
		t.Parallel()

		config, err := commands.LoadConfigFile(filepath.Join(t.TempDir(), "absent.yml"))
		require.NoError(t, err)
		assert.Empty(t, config.Profiles)
		assert.Nil(t, config.Profile("default", false))
	})

	t.Run("invalid yaml", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "config.yml")
		require.NoError(t, os.WriteFile(path, []byte("profiles: [unclosed"), 0o600))

		_, err := commands.LoadConfigFile(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse config file")
	})

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "nested", "config.yml")
		expires := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)

		config := &commands.Config{CurrentProfile: "work"}
		profile := config.Profile("work", true)
		profile.BaseURL = "https://graph.example.com"
		profile.Token = "abc"
		profile.TokenExpiresAt = &expires
		profile.Scopes = []string{"User.Read"}

		require.NoError(t, commands.SaveConfigFile(path, config))

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

		loaded, err := commands.LoadConfigFile(path)
		require.NoError(t, err)
		assert.Equal(t, "work", loaded.CurrentProfile)

		work := loaded.Profile("work", false)
		require.NotNil(t, work)
		assert.Equal(t, "https://graph.example.com", work.BaseURL)
		assert.Equal(t, "abc", work.Token)
		assert.True(t, expires.Equal(*work.TokenExpiresAt))
		assert.Equal(t, []string{"User.Read"}, work.Scopes)
	})
}

func TestProfile_CanRefresh(t *testing.T) {
	t.Parallel()

	var missing *commands.Profile
	assert.False(t, missing.CanRefresh())

	profile := &commands.Profile{RefreshToken: "r", TokenURL: "https://login.example.com/token"}
	assert.False(t, profile.CanRefresh())

	profile.ClientID = "client"
	assert.True(t, profile.CanRefresh())
}

func TestConfigPersister_SaveToken(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, commands.SaveConfigFile(path, &commands.Config{
		Profiles: map[string]*commands.Profile{
			"default": {BaseURL: "https://graph.example.com", RefreshToken: "keep-me"},
		},
	}))

	persister := commands.NewConfigPersister(path)
	expires := time.Now().Add(time.Hour).Truncate(time.Second)

	require.NoError(t, persister.SaveToken("default", &auth.Token{AccessToken: "new-token", ExpiresAt: expires}))
	require.NoError(t, persister.SaveToken("other", &auth.Token{AccessToken: "other-token", RefreshToken: "r2"}))

	config, err := commands.LoadConfigFile(path)
	require.NoError(t, err)

	profile := config.Profile("default", false)
	require.NotNil(t, profile)
	assert.Equal(t, "new-token", profile.Token)
	assert.Equal(t, "keep-me", profile.RefreshToken)
	assert.Equal(t, "https://graph.example.com", profile.BaseURL)
	require.NotNil(t, profile.TokenExpiresAt)
	assert.True(t, expires.Equal(*profile.TokenExpiresAt))
	assert.NotNil(t, profile.LastRefreshed)

	other := config.Profile("other", false)
	require.NotNil(t, other)
	assert.Equal(t, "other-token", other.Token)
	assert.Equal(t, "r2", other.RefreshToken)
	assert.Nil(t, other.TokenExpiresAt)
}

func TestConfigCommands(t *testing.T) {
	path := setupCLI(t, "")

	_, err := execute(commands.NewConfigCommand(), nil, "use", "work")
	require.NoError(t, err)

	out, err := execute(commands.NewConfigCommand(), nil,
		"set", "--url", "https://graph.example.com", "--version", "beta",
		"--token-url", "https://login.example.com/token", "--client-id", "cli")
	require.NoError(t, err)
	assert.Contains(t, out, "Updated profile work")

	config, err := commands.LoadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, "work", config.CurrentProfile)

	work := config.Profile("work", false)
	require.NotNil(t, work)
	assert.Equal(t, "https://graph.example.com", work.BaseURL)
	assert.Equal(t, "beta", work.APIVersion)
	assert.Equal(t, "https://login.example.com/token", work.TokenURL)
	assert.Equal(t, "cli", work.ClientID)

	out, err = execute(commands.NewConfigCommand(), nil, "show")
	require.NoError(t, err)
	assert.Contains(t, out, `"current_profile": "work"`)
}
