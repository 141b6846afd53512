package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fivetwenty-io/graph-client/internal/constants"
	"github.com/fivetwenty-io/graph-client/pkg/graph"
	"github.com/fivetwenty-io/graph-client/pkg/graphclient"
)

// NewURLCommand creates the url command.
func NewURLCommand() *cobra.Command {
	opts := &RequestOptions{}

	cmd := &cobra.Command{
		Use:   "url PATH",
		Short: "Print the URL a request would use",
		Long:  "Build the full request URL for PATH and the query flags without sending anything",
		Example: `  graph url /me --select displayName,mail
  graph url "https://graph.microsoft.com/beta/users?$top=5" --filter "startswith(displayName,'A')"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newOfflineClient(cmd.Context())
			if err != nil {
				return err
			}

			req := client.API(args[0])
			if err := opts.Apply(cmd, req); err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), req.BuildFullURL())

			return err
		},
	}

	addRequestFlags(cmd, opts)

	return cmd
}

// newOfflineClient builds a client that can assemble URLs but refuses to send.
func newOfflineClient(ctx context.Context) (*graph.Client, error) {
	config, _, err := loadConfig()
	if err != nil {
		return nil, err
	}

	profile := config.Profile(config.ActiveProfile(), false)

	return graphclient.New(ctx, &graph.Config{
		BaseURL:        firstNonEmpty(viper.GetString("base-url"), profileBaseURL(profile)),
		DefaultVersion: firstNonEmpty(viper.GetString("api-version"), profileVersion(profile)),
		AuthProvider: graph.AuthProviderFunc(func(context.Context) (string, error) {
			return "", constants.ErrNoTokenConfigured
		}),
	})
}
