package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/graph-client/internal/constants"
	"github.com/fivetwenty-io/graph-client/pkg/graph"
)

// RequestOptions holds the query and header flags shared by request commands.
type RequestOptions struct {
	Version  string
	Select   []string
	Expand   []string
	OrderBy  []string
	Filter   string
	Top      int
	Skip     int
	Count    bool
	Query    []string
	Headers  []string
	Response string
}

func addRequestFlags(cmd *cobra.Command, opts *RequestOptions) {
	flags := cmd.Flags()
	flags.StringVar(&opts.Version, "version", "", "API version for this request (overrides the default)")
	flags.StringSliceVar(&opts.Select, "select", nil, "properties to select ($select)")
	flags.StringSliceVar(&opts.Expand, "expand", nil, "relationships to expand ($expand)")
	flags.StringSliceVar(&opts.OrderBy, "orderby", nil, "sort order ($orderby)")
	flags.StringVar(&opts.Filter, "filter", "", "filter expression ($filter)")
	flags.IntVar(&opts.Top, "top", 0, "page size ($top)")
	flags.IntVar(&opts.Skip, "skip", 0, "items to skip ($skip)")
	flags.BoolVar(&opts.Count, "count", false, "request a total count ($count)")
	flags.StringArrayVar(&opts.Query, "query", nil, "extra query parameter as key=value (repeatable)")
	flags.StringArrayVarP(&opts.Headers, "header", "H", nil, "request header as key:value (repeatable)")
	flags.StringVar(&opts.Response, "response-type", "", "response decoding (json, text, binary)")
}

// Apply copies the options onto req. Numeric and boolean options only apply
// when their flag was set on cmd.
func (o *RequestOptions) Apply(cmd *cobra.Command, req *graph.Request) error {
	if o.Version != "" {
		req.Version(o.Version)
	}

	req.Select(o.Select...).Expand(o.Expand...).OrderBy(o.OrderBy...)

	if o.Filter != "" {
		req.Filter(o.Filter)
	}

	if cmd.Flags().Changed("top") {
		req.Top(o.Top)
	}

	if cmd.Flags().Changed("skip") {
		req.Skip(o.Skip)
	}

	if cmd.Flags().Changed("count") {
		req.Count(o.Count)
	}

	for _, query := range o.Query {
		if !strings.Contains(query, "=") || strings.HasPrefix(query, "=") {
			return fmt.Errorf("%w: %q", constants.ErrInvalidQuery, query)
		}

		req.Query(query)
	}

	headers, err := ParseHeaders(o.Headers)
	if err != nil {
		return err
	}

	req.Headers(headers)

	switch graph.ResponseType(o.Response) {
	case "":
	case graph.ResponseTypeJSON, graph.ResponseTypeText, graph.ResponseTypeBinary:
		req.ResponseType(graph.ResponseType(o.Response))
	default:
		return fmt.Errorf("%w: %s", constants.ErrUnknownResponseType, o.Response)
	}

	return nil
}

// ParseHeaders turns "key:value" strings into a header map.
func ParseHeaders(values []string) (map[string]interface{}, error) {
	headers := make(map[string]interface{}, len(values))

	for _, raw := range values {
		key, value, found := strings.Cut(raw, ":")
		key = strings.TrimSpace(key)

		if !found || key == "" {
			return nil, fmt.Errorf("%w: %q", constants.ErrInvalidHeader, raw)
		}

		headers[key] = strings.TrimSpace(value)
	}

	return headers, nil
}

// buildRequest creates a client and a request for path with the shared flags applied.
func buildRequest(ctx context.Context, cmd *cobra.Command, path string, opts *RequestOptions) (*graph.Request, func(), error) {
	client, cleanup, err := createClient(ctx)
	if err != nil {
		return nil, nil, err
	}

	req := client.API(path)

	if err := opts.Apply(cmd, req); err != nil {
		cleanup()

		return nil, nil, err
	}

	return req, cleanup, nil
}
