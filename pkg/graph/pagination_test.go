package graph_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/graph-client/pkg/graph"
)

type TestUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

// pagedTransport serves pages keyed by the $skipToken of the requested URL.
type pagedTransport struct {
	mu     sync.Mutex
	pages  map[string]string
	urls   []string
	failAt string
	failed bool
}

func (p *pagedTransport) Do(ctx context.Context, req *graph.TransportRequest) (*graph.RawResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.urls = append(p.urls, req.URL)

	token := ""
	if _, query, ok := strings.Cut(req.URL, "$skipToken="); ok {
		token, _, _ = strings.Cut(query, "&")
	}

	if token == p.failAt && !p.failed {
		p.failed = true

		return jsonResponse(http.StatusServiceUnavailable, `{"error":{"code":"serviceNotAvailable"}}`), nil
	}

	return jsonResponse(http.StatusOK, p.pages[token]), nil
}

func (p *pagedTransport) requested() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]string(nil), p.urls...)
}

func threeUserPages() *pagedTransport {
	return &pagedTransport{
		failAt: "-",
		pages: map[string]string{
			"": `{"value":[{"id":"1","displayName":"A"},{"id":"2","displayName":"B"}],` +
				`"@odata.nextLink":"https://graph.microsoft.com/v1.0/users?$top=2&$skipToken=p2"}`,
			"p2": `{"value":[],"@odata.nextLink":"https://graph.microsoft.com/v1.0/users?$top=2&$skipToken=p3"}`,
			"p3": "\uFEFF" + `{"value":[{"id":"3","displayName":"C"}]}`,
		},
	}
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestPageIterator(t *testing.T) {
	t.Parallel()

	t.Run("next walks every page and then signals the end", func(t *testing.T) {
		t.Parallel()

		transport := threeUserPages()
		client := newTestClient(t, transport)
		iterator := graph.NewPageIterator[TestUser](client.API("/users").Top(2))

		assert.True(t, iterator.HasNext())

		var ids []string

		for {
			user, err := iterator.Next(context.Background())
			if errors.Is(err, graph.ErrNoMoreItems) {
				break
			}

			require.NoError(t, err)

			ids = append(ids, user.ID)
		}

		assert.Equal(t, []string{"1", "2", "3"}, ids)
		assert.False(t, iterator.HasNext())

		_, err := iterator.Next(context.Background())
		require.ErrorIs(t, err, graph.ErrNoMoreItems)

		assert.Equal(t, []string{
			"https://graph.microsoft.com/v1.0/users?$top=2",
			"https://graph.microsoft.com/v1.0/users?$top=2&$skipToken=p2",
			"https://graph.microsoft.com/v1.0/users?$top=2&$skipToken=p3",
		}, transport.requested())
	})

	t.Run("buffered items are served without fetching", func(t *testing.T) {
		t.Parallel()

		transport := threeUserPages()
		iterator := graph.NewPageIterator[TestUser](newTestClient(t, transport).API("/users"))

		_, err := iterator.Next(context.Background())
		require.NoError(t, err)

		_, err = iterator.Next(context.Background())
		require.NoError(t, err)
		assert.Len(t, transport.requested(), 1)
	})

	t.Run("fetch error leaves state unchanged", func(t *testing.T) {
		t.Parallel()

		transport := threeUserPages()
		transport.failAt = "p2"
		iterator := graph.NewPageIterator[TestUser](newTestClient(t, transport).API("/users"))

		for range 2 {
			_, err := iterator.Next(context.Background())
			require.NoError(t, err)
		}

		_, err := iterator.Next(context.Background())

		graphErr := &graph.GraphError{}
		require.ErrorAs(t, err, &graphErr)
		assert.Equal(t, http.StatusServiceUnavailable, graphErr.StatusCode)
		assert.True(t, iterator.HasNext())

		user, err := iterator.Next(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "3", user.ID)

		requested := transport.requested()
		assert.Equal(t, requested[1], requested[2])
	})

	t.Run("all", func(t *testing.T) {
		t.Parallel()

		users, err := graph.NewPageIterator[TestUser](newTestClient(t, threeUserPages()).API("/users")).All(context.Background())
		require.NoError(t, err)
		assert.Len(t, users, 3)
		assert.Equal(t, "C", users[2].DisplayName)
	})

	t.Run("for each stops on callback error", func(t *testing.T) {
		t.Parallel()

		stop := errors.New("stop")
		seen := 0

		err := graph.NewPageIterator[TestUser](newTestClient(t, threeUserPages()).API("/users")).
			ForEach(context.Background(), func(user TestUser) error {
				seen++
				if user.ID == "2" {
					return stop
				}

				return nil
			})
		require.ErrorIs(t, err, stop)
		assert.Equal(t, 2, seen)
	})

	t.Run("result iterator yields decoded json", func(t *testing.T) {
		t.Parallel()

		item, err := newTestClient(t, threeUserPages()).API("/users").ResultIterator().Next(context.Background())
		require.NoError(t, err)
		assert.Equal(t, map[string]interface{}{"id": "1", "displayName": "A"}, item)
	})

	t.Run("auth failure is returned as-is", func(t *testing.T) {
		t.Parallel()

		client, err := graph.NewClient(&graph.Config{
			AuthProvider: graph.AuthProviderFunc(func(ctx context.Context) (string, error) { return "", errAuthFailed }),
			Transport:    threeUserPages(),
		})
		require.NoError(t, err)

		_, err = graph.NewPageIterator[TestUser](client.API("/users")).Next(context.Background())
		assert.Same(t, errAuthFailed, err)
	})
}

func TestFetchAllPages(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, threeUserPages())

	users, err := graph.FetchAllPages[TestUser](context.Background(), client.API("/users"), nil)
	require.NoError(t, err)
	assert.Len(t, users, 3)
}

func TestFetchAllPages_WithMaxPages(t *testing.T) {
	t.Parallel()

	transport := threeUserPages()
	client := newTestClient(t, transport)

	users, err := graph.FetchAllPages[TestUser](context.Background(), client.API("/users"), &graph.PaginationOptions{MaxPages: 1})
	require.NoError(t, err)
	assert.Len(t, users, 2)
	assert.Len(t, transport.requested(), 1)
}

func TestStreamPages(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, threeUserPages())

	var (
		pages int
		items []TestUser
	)

	for result := range graph.StreamPages[TestUser](context.Background(), client.API("/users"), nil) {
		require.NoError(t, result.Err)

		pages++

		items = append(items, result.Items...)
	}

	assert.Equal(t, 3, pages)
	assert.Len(t, items, 3)
}

func TestStreamPages_Error(t *testing.T) {
	t.Parallel()

	transport := threeUserPages()
	transport.failAt = ""
	client := newTestClient(t, transport)

	var results []graph.PageResult[TestUser]
	for result := range graph.StreamPages[TestUser](context.Background(), client.API("/users"), nil) {
		results = append(results, result)
	}

	require.Len(t, results, 1)
	assert.Error(t, results[0].Err)
}
