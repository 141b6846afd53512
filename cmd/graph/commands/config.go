package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/graph-client/internal/constants"
)

// DefaultProfile is used when neither --profile nor current_profile is set.
const DefaultProfile = "default"

// Config represents the CLI configuration file.
type Config struct {
	CurrentProfile string              `json:"current_profile,omitempty" yaml:"current_profile,omitempty"`
	Output         string              `json:"output,omitempty"          yaml:"output,omitempty"`
	Profiles       map[string]*Profile `json:"profiles,omitempty"        yaml:"profiles,omitempty"`
}

// Profile holds the endpoint and credentials for one API target.
type Profile struct {
	BaseURL        string     `json:"base_url,omitempty"         yaml:"base_url,omitempty"`
	APIVersion     string     `json:"api_version,omitempty"      yaml:"api_version,omitempty"`
	Token          string     `json:"token,omitempty"            yaml:"token,omitempty"`
	TokenExpiresAt *time.Time `json:"token_expires_at,omitempty" yaml:"token_expires_at,omitempty"`
	RefreshToken   string     `json:"refresh_token,omitempty"    yaml:"refresh_token,omitempty"`
	LastRefreshed  *time.Time `json:"last_refreshed,omitempty"   yaml:"last_refreshed,omitempty"`

	// OAuth2 refresh settings. All three of TokenURL, ClientID and
	// RefreshToken are needed for automatic refresh.
	TokenURL     string   `json:"token_url,omitempty"     yaml:"token_url,omitempty"`
	ClientID     string   `json:"client_id,omitempty"     yaml:"client_id,omitempty"`
	ClientSecret string   `json:"client_secret,omitempty" yaml:"client_secret,omitempty"`
	Scopes       []string `json:"scopes,omitempty"        yaml:"scopes,omitempty"`
}

// CanRefresh reports whether the profile carries enough to refresh its token.
func (p *Profile) CanRefresh() bool {
	return p != nil && p.RefreshToken != "" && p.TokenURL != "" && p.ClientID != ""
}

// Profile returns the named profile, creating it when create is set.
func (c *Config) Profile(name string, create bool) *Profile {
	if c.Profiles == nil {
		if !create {
			return nil
		}

		c.Profiles = make(map[string]*Profile)
	}

	profile, exists := c.Profiles[name]
	if !exists && create {
		profile = &Profile{}
		c.Profiles[name] = profile
	}

	return profile
}

// ActiveProfile resolves the profile name from --profile, the file, or the default.
func (c *Config) ActiveProfile() string {
	if name := viper.GetString("profile"); name != "" {
		return name
	}

	if c.CurrentProfile != "" {
		return c.CurrentProfile
	}

	return DefaultProfile
}

// configFilePath returns the config file in use, or $HOME/.graph/config.yml.
func configFilePath() (string, error) {
	if configFile := viper.ConfigFileUsed(); configFile != "" {
		return configFile, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(home, ".graph", "config.yml"), nil
}

// LoadConfigFile reads path. A missing file yields an empty config.
func LoadConfigFile(path string) (*Config, error) {
	// path comes from the --config flag or the user's home directory
	// #nosec G304
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &Config{}, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := &Config{}

	err = yaml.Unmarshal(data, config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return config, nil
}

// SaveConfigFile writes config to path, creating the directory when needed.
func SaveConfigFile(path string, config *Config) error {
	err := os.MkdirAll(filepath.Dir(path), constants.ConfigDirPerm)
	if err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	err = os.WriteFile(path, data, constants.ConfigFilePerm)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func loadConfig() (*Config, string, error) {
	path, err := configFilePath()
	if err != nil {
		return nil, "", err
	}

	config, err := LoadConfigFile(path)
	if err != nil {
		return nil, "", err
	}

	return config, path, nil
}

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  "Manage graph CLI configuration profiles and settings",
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigSetCommand())
	cmd.AddCommand(newConfigUseCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  "Display the configured profiles. Tokens are masked in table output.",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, _, err := loadConfig()
			if err != nil {
				return err
			}

			output := viper.GetString("output")
			if output != constants.FormatTable {
				return writeOutput(cmd.OutOrStdout(), output, config)
			}

			return renderProfiles(cmd.OutOrStdout(), config)
		},
	}
}

func renderProfiles(w io.Writer, config *Config) error {
	names := make([]string, 0, len(config.Profiles))
	for name := range config.Profiles {
		names = append(names, name)
	}

	sort.Strings(names)

	table := tablewriter.NewWriter(w)
	table.Header("Profile", "Current", "Base URL", "Version", "Token", "Expires")

	for _, name := range names {
		profile := config.Profiles[name]

		current := ""
		if name == config.CurrentProfile {
			current = "*"
		}

		expires := ""
		if profile.TokenExpiresAt != nil {
			expires = profile.TokenExpiresAt.Format(time.RFC3339)
		}

		_ = table.Append(name, current, profile.BaseURL, profile.APIVersion, maskToken(profile.Token), expires)
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

func newConfigSetCommand() *cobra.Command {
	var (
		baseURL    string
		apiVersion string
		tokenURL   string
		clientID   string
		scopes     []string
	)

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Update the active profile",
		Long:  "Set endpoint and OAuth2 refresh settings on the active profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, path, err := loadConfig()
			if err != nil {
				return err
			}

			profile := config.Profile(config.ActiveProfile(), true)

			if cmd.Flags().Changed("url") {
				profile.BaseURL = baseURL
			}

			if cmd.Flags().Changed("version") {
				profile.APIVersion = apiVersion
			}

			if cmd.Flags().Changed("token-url") {
				profile.TokenURL = tokenURL
			}

			if cmd.Flags().Changed("client-id") {
				profile.ClientID = clientID
			}

			if cmd.Flags().Changed("scopes") {
				profile.Scopes = scopes
			}

			if err := SaveConfigFile(path, config); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Updated profile %s\n", config.ActiveProfile())

			return nil
		},
	}

	cmd.Flags().StringVar(&baseURL, "url", "", "base URL")
	cmd.Flags().StringVar(&apiVersion, "version", "", "default API version")
	cmd.Flags().StringVar(&tokenURL, "token-url", "", "OAuth2 token endpoint used for refresh")
	cmd.Flags().StringVar(&clientID, "client-id", "", "OAuth2 client ID used for refresh")
	cmd.Flags().StringSliceVar(&scopes, "scopes", nil, "OAuth2 scopes requested on refresh")

	return cmd
}

func newConfigUseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "use PROFILE",
		Short: "Switch the current profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config, path, err := loadConfig()
			if err != nil {
				return err
			}

			config.Profile(args[0], true)
			config.CurrentProfile = args[0]

			if err := SaveConfigFile(path, config); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Switched to profile %s\n", args[0])

			return nil
		},
	}
}

func maskToken(token string) string {
	const visible = 4
	if token == "" {
		return ""
	}

	if len(token) <= visible*2 {
		return "****"
	}

	return token[:visible] + "..." + token[len(token)-visible:]
}
