package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/fivetwenty-io/graph-client/internal/auth"
	"github.com/fivetwenty-io/graph-client/internal/constants"
)

// NewLoginCommand creates the login command
func NewLoginCommand() *cobra.Command {
	var (
		accessToken  string
		refreshToken string
		expiresIn    time.Duration
		verify       bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store an access token",
		Long: `Save a bearer token on the active profile. Without --access-token the
token is read from the terminal without echo, or from stdin when piped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if accessToken == "" {
				token, err := readToken(cmd)
				if err != nil {
					return err
				}

				accessToken = token
			}

			if accessToken == "" {
				return constants.ErrEmptyToken
			}

			config, path, err := loadConfig()
			if err != nil {
				return err
			}

			profileName := config.ActiveProfile()
			profile := config.Profile(profileName, true)

			if baseURL := viper.GetString("base-url"); baseURL != "" {
				profile.BaseURL = baseURL
			}

			if version := viper.GetString("api-version"); version != "" {
				profile.APIVersion = version
			}

			profile.TokenExpiresAt = nil

			if err := SaveConfigFile(path, config); err != nil {
				return fmt.Errorf("failed to save configuration: %w", err)
			}

			token := &auth.Token{AccessToken: accessToken, TokenType: "Bearer", RefreshToken: refreshToken}
			if expiresIn > 0 {
				token.ExpiresAt = time.Now().Add(expiresIn)
			}

			if err := NewConfigPersister(path).SaveToken(profileName, token); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			if verify {
				if err := verifyLogin(cmd); err != nil {
					return err
				}
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Logged in with profile %s\n", profileName)

			return nil
		},
	}

	cmd.Flags().StringVar(&accessToken, "access-token", "", "bearer token to store")
	cmd.Flags().StringVar(&refreshToken, "refresh-token", "", "refresh token used with the profile's token-url and client-id")
	cmd.Flags().DurationVar(&expiresIn, "expires-in", 0, "token lifetime, e.g. 1h")
	cmd.Flags().BoolVar(&verify, "verify", false, "call /me with the new token before returning")

	return cmd
}

// NewLogoutCommand creates the logout command
func NewLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove stored credentials",
		Long:  "Clear the tokens stored on the active profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, path, err := loadConfig()
			if err != nil {
				return err
			}

			if profile := config.Profile(config.ActiveProfile(), false); profile != nil {
				profile.Token = ""
				profile.RefreshToken = ""
				profile.TokenExpiresAt = nil
				profile.LastRefreshed = nil
			}

			if err := SaveConfigFile(path, config); err != nil {
				return fmt.Errorf("failed to save configuration: %w", err)
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Successfully logged out")

			return nil
		},
	}
}

func readToken(cmd *cobra.Command) (string, error) {
	stdin, isFile := cmd.InOrStdin().(*os.File)
	if isFile && term.IsTerminal(int(stdin.Fd())) {
		_, _ = fmt.Fprint(cmd.ErrOrStderr(), "Access token: ")

		raw, err := term.ReadPassword(int(stdin.Fd()))
		_, _ = fmt.Fprintln(cmd.ErrOrStderr())

		if err != nil {
			return "", fmt.Errorf("failed to read token: %w", err)
		}

		return strings.TrimSpace(string(raw)), nil
	}

	return readTokenLine(cmd.InOrStdin())
}

func readTokenLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read token: %w", err)
	}

	return strings.TrimSpace(line), nil
}

func verifyLogin(cmd *cobra.Command) error {
	ctx := cmd.Context()

	client, cleanup, err := createClient(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	_, err = client.API("/me").Select("id").Get(ctx)
	if err != nil {
		return fmt.Errorf("token verification failed: %w", err)
	}

	return nil
}
