package commands

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewGetCommand creates the get command.
func NewGetCommand() *cobra.Command {
	opts := &RequestOptions{}

	cmd := &cobra.Command{
		Use:   "get PATH",
		Short: "Send a GET request",
		Long:  "Send a GET request to PATH and print the decoded response",
		Example: `  graph get /me --select displayName,mail
  graph get /users --filter "accountEnabled eq true" --top 5 -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			req, cleanup, err := buildRequest(ctx, cmd, args[0], opts)
			if err != nil {
				return err
			}
			defer cleanup()

			result, err := req.Get(ctx)
			if err != nil {
				return err
			}

			return writeOutput(cmd.OutOrStdout(), viper.GetString("output"), result)
		},
	}

	addRequestFlags(cmd, opts)

	return cmd
}
