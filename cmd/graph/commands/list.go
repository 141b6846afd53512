package commands

import (
	"context"
	"encoding/json"
	"errors"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fivetwenty-io/graph-client/pkg/graph"
)

// NewListCommand creates the list command.
func NewListCommand() *cobra.Command {
	var (
		opts     = &RequestOptions{}
		maxPages int
		limit    int
		stream   bool
	)

	cmd := &cobra.Command{
		Use:   "list PATH",
		Short: "List a collection across pages",
		Long: `Follow @odata.nextLink until the collection is exhausted and print every item.

--limit stops after that many items, fetching only the pages it needs.
--stream prints each item as a JSON line as soon as its page arrives.`,
		Example: `  graph list /users --select id,displayName --top 100
  graph list /groups --max-pages 3 -o json
  graph list /users --stream | jq .mail`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			req, cleanup, err := buildRequest(ctx, cmd, args[0], opts)
			if err != nil {
				return err
			}
			defer cleanup()

			out := cmd.OutOrStdout()

			switch {
			case stream:
				return streamItems(ctx, out, req, maxPages)
			case limit > 0:
				items, err := firstItems(ctx, req, limit)
				if err != nil {
					return err
				}

				return writeOutput(out, viper.GetString("output"), items)
			default:
				items, err := graph.FetchAllPages[interface{}](ctx, req, &graph.PaginationOptions{MaxPages: maxPages})
				if err != nil {
					return err
				}

				return writeOutput(out, viper.GetString("output"), items)
			}
		},
	}

	addRequestFlags(cmd, opts)
	cmd.Flags().IntVar(&maxPages, "max-pages", 0, "stop after this many pages (0 fetches all)")
	cmd.Flags().IntVar(&limit, "limit", 0, "stop after this many items")
	cmd.Flags().BoolVar(&stream, "stream", false, "print items as JSON lines while paging")

	return cmd
}

// firstItems reads at most limit items through a page iterator.
func firstItems(ctx context.Context, req *graph.Request, limit int) ([]interface{}, error) {
	iterator := req.ResultIterator()
	items := make([]interface{}, 0, limit)

	for len(items) < limit {
		item, err := iterator.Next(ctx)
		if errors.Is(err, graph.ErrNoMoreItems) {
			break
		}

		if err != nil {
			return nil, err
		}

		items = append(items, item)
	}

	return items, nil
}

func streamItems(ctx context.Context, w io.Writer, req *graph.Request, maxPages int) error {
	encoder := json.NewEncoder(w)

	for page := range graph.StreamPages[interface{}](ctx, req, &graph.PaginationOptions{MaxPages: maxPages}) {
		if page.Err != nil {
			return page.Err
		}

		for _, item := range page.Items {
			if err := encoder.Encode(item); err != nil {
				return err
			}
		}
	}

	return nil
}
