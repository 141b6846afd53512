package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fivetwenty-io/graph-client/internal/constants"
	"github.com/fivetwenty-io/graph-client/pkg/graph"
)

// NewSendCommand creates the send command.
func NewSendCommand() *cobra.Command {
	var (
		opts     = &RequestOptions{}
		data     string
		dataFile string
	)

	cmd := &cobra.Command{
		Use:   "send METHOD PATH",
		Short: "Send a POST, PUT, PATCH or DELETE request",
		Long: `Send a write request to PATH. The body comes from --data or --file; a body
that parses as JSON is sent as application/json, anything else is sent as is.`,
		Example: `  graph send post /groups --data '{"displayName":"Ops","mailEnabled":false}'
  graph send patch /me --file profile.json
  graph send delete /groups/1234`,
		Args: cobra.ExactArgs(2), //nolint:mnd
		RunE: func(cmd *cobra.Command, args []string) error {
			method := strings.ToUpper(args[0])

			content, err := RequestBody(data, dataFile)
			if err != nil {
				return err
			}

			ctx := cmd.Context()

			req, cleanup, err := buildRequest(ctx, cmd, args[1], opts)
			if err != nil {
				return err
			}
			defer cleanup()

			result, err := Dispatch(ctx, req, method, content)
			if err != nil {
				return err
			}

			if result == nil {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s succeeded\n", method, args[1])

				return nil
			}

			return writeOutput(cmd.OutOrStdout(), viper.GetString("output"), result)
		},
	}

	addRequestFlags(cmd, opts)
	cmd.Flags().StringVarP(&data, "data", "d", "", "request body")
	cmd.Flags().StringVarP(&dataFile, "file", "f", "", "read the request body from a file")
	cmd.MarkFlagsMutuallyExclusive("data", "file")

	return cmd
}

// Dispatch sends req with method. POST, PUT and PATCH require content.
func Dispatch(ctx context.Context, req *graph.Request, method string, content interface{}) (interface{}, error) {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		if content == nil {
			return nil, constants.ErrMissingData
		}
	}

	switch method {
	case http.MethodGet:
		return req.Get(ctx)
	case http.MethodPost:
		return req.Post(ctx, content)
	case http.MethodPut:
		return req.Put(ctx, content)
	case http.MethodPatch:
		return req.Patch(ctx, content)
	case http.MethodDelete:
		return req.Delete(ctx)
	default:
		return nil, fmt.Errorf("%w: %s", constants.ErrUnknownMethod, method)
	}
}

// RequestBody resolves the body from an inline value or a file. Valid JSON
// is returned as json.RawMessage, other text as a string, and nothing as nil.
func RequestBody(data, dataFile string) (interface{}, error) {
	raw := []byte(data)

	if dataFile != "" {
		// dataFile is named by the user on the command line
		// #nosec G304
		content, err := os.ReadFile(dataFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", dataFile, err)
		}

		raw = content
	}

	if len(raw) == 0 {
		return nil, nil
	}

	if json.Valid(raw) {
		return json.RawMessage(raw), nil
	}

	return string(raw), nil
}
