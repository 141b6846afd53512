package graph_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/graph-client/pkg/graph"
)

func TestMemoryCache_SetAndGet(t *testing.T) {
	t.Parallel()

	cache := graph.NewMemoryCache(10)
	ctx := context.Background()

	entry := &graph.CacheEntry{
		Data:      []byte("test data"),
		ExpiresAt: time.Now().Add(1 * time.Hour),
		ETag:      "test-etag",
	}

	err := cache.Set(ctx, "test-key", entry)
	require.NoError(t, err)

	retrieved, err := cache.Get(ctx, "test-key")
	require.NoError(t, err)
	assert.Equal(t, entry.Data, retrieved.Data)
	assert.Equal(t, entry.ETag, retrieved.ETag)
}

func TestMemoryCache_GetNonExistent(t *testing.T) {
	t.Parallel()

	cache := graph.NewMemoryCache(10)

	_, err := cache.Get(context.Background(), "non-existent")
	require.ErrorIs(t, err, graph.ErrCacheKeyNotFound)
	assert.Contains(t, err.Error(), "key not found")
}

func TestMemoryCache_GetExpired(t *testing.T) {
	t.Parallel()

	cache := graph.NewMemoryCache(10)
	ctx := context.Background()

	err := cache.Set(ctx, "expired-key", &graph.CacheEntry{
		Data:      []byte("test data"),
		ExpiresAt: time.Now().Add(-1 * time.Hour),
		ETag:      "old",
	})
	require.NoError(t, err)

	entry, err := cache.Get(ctx, "expired-key")
	require.ErrorIs(t, err, graph.ErrCacheEntryExpired)
	assert.Contains(t, err.Error(), "entry expired")
	require.NotNil(t, entry)
	assert.Equal(t, "old", entry.ETag)
	assert.False(t, cache.Has(ctx, "expired-key"))
}

func TestMemoryCache_DeleteAndClear(t *testing.T) {
	t.Parallel()

	cache := graph.NewMemoryCache(10)
	ctx := context.Background()

	for i := range 3 {
		require.NoError(t, cache.Set(ctx, fmt.Sprintf("key-%d", i), &graph.CacheEntry{Data: []byte("x")}))
	}

	require.NoError(t, cache.Delete(ctx, "key-1"))
	assert.False(t, cache.Has(ctx, "key-1"))
	assert.Equal(t, 2, cache.Len())

	require.NoError(t, cache.Clear(ctx))
	assert.Equal(t, 0, cache.Len())
	assert.False(t, cache.Has(ctx, "key-0"))
}

func TestMemoryCache_MaxSize(t *testing.T) {
	t.Parallel()

	cache := graph.NewMemoryCache(2)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "a", &graph.CacheEntry{Data: []byte("a")}))
	require.NoError(t, cache.Set(ctx, "b", &graph.CacheEntry{Data: []byte("b")}))

	// Touch "a" so "b" becomes the least recently used.
	_, err := cache.Get(ctx, "a")
	require.NoError(t, err)

	require.NoError(t, cache.Set(ctx, "c", &graph.CacheEntry{Data: []byte("c")}))

	assert.Equal(t, 2, cache.Len())
	assert.True(t, cache.Has(ctx, "a"))
	assert.False(t, cache.Has(ctx, "b"))
	assert.True(t, cache.Has(ctx, "c"))
}

func TestCacheKey(t *testing.T) {
	t.Parallel()

	key := graph.CacheKey(http.MethodGet, "https://graph.microsoft.com/v1.0/me", "Bearer a")

	assert.Len(t, key, 64)
	assert.Equal(t, key, graph.CacheKey(http.MethodGet, "https://graph.microsoft.com/v1.0/me", "Bearer a"))
	assert.NotEqual(t, key, graph.CacheKey(http.MethodGet, "https://graph.microsoft.com/v1.0/me", "Bearer b"))
	assert.NotEqual(t, key, graph.CacheKey(http.MethodGet, "https://graph.microsoft.com/beta/me", "Bearer a"))
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestCachingTransport(t *testing.T) {
	t.Parallel()

	t.Run("fresh hit skips the network", func(t *testing.T) {
		t.Parallel()

		transport := &recordingTransport{respond: func(req *graph.TransportRequest) (*graph.RawResponse, error) {
			return jsonResponse(http.StatusOK, `{"id":"1"}`), nil
		}}
		client := newTestClient(t, graph.NewCachingTransport(transport, graph.NewMemoryCache(10), 0, nil))

		for range 2 {
			body, err := client.API("/me").Get(context.Background())
			require.NoError(t, err)
			assert.Equal(t, map[string]interface{}{"id": "1"}, body)
		}

		assert.Equal(t, 1, transport.count())
	})

	t.Run("errors are not cached", func(t *testing.T) {
		t.Parallel()

		transport := &recordingTransport{respond: func(req *graph.TransportRequest) (*graph.RawResponse, error) {
			return jsonResponse(http.StatusNotFound, `{"error":{"code":"nf"}}`), nil
		}}
		client := newTestClient(t, graph.NewCachingTransport(transport, graph.NewMemoryCache(10), 0, nil))

		for range 2 {
			_, err := client.API("/me").Get(context.Background())
			require.Error(t, err)
		}

		assert.Equal(t, 2, transport.count())
	})

	t.Run("stale entry is revalidated with its etag", func(t *testing.T) {
		t.Parallel()

		transport := &recordingTransport{respond: func(req *graph.TransportRequest) (*graph.RawResponse, error) {
			if req.Header.Get("If-None-Match") == `W/"1"` {
				return &graph.RawResponse{StatusCode: http.StatusNotModified, Header: make(http.Header)}, nil
			}

			resp := jsonResponse(http.StatusOK, `{"v":1}`)
			resp.Header.Set("ETag", `W/"1"`)

			return resp, nil
		}}
		cache := graph.NewMemoryCache(10)
		client := newTestClient(t, graph.NewCachingTransport(transport, cache, time.Nanosecond, nil))

		_, err := client.API("/me").Get(context.Background())
		require.NoError(t, err)

		time.Sleep(time.Millisecond)

		body, err := client.API("/me").Get(context.Background())
		require.NoError(t, err)
		assert.Equal(t, map[string]interface{}{"v": float64(1)}, body)
		assert.Equal(t, 2, transport.count())
		assert.Equal(t, `W/"1"`, transport.last().Header.Get("If-None-Match"))
	})

	t.Run("writes evict the cached get", func(t *testing.T) {
		t.Parallel()

		transport := &recordingTransport{respond: func(req *graph.TransportRequest) (*graph.RawResponse, error) {
			return jsonResponse(http.StatusOK, `{"id":"1"}`), nil
		}}
		client := newTestClient(t, graph.NewCachingTransport(transport, graph.NewMemoryCache(10), 0, nil))

		_, err := client.API("/me").Get(context.Background())
		require.NoError(t, err)

		_, err = client.API("/me").Patch(context.Background(), map[string]string{"jobTitle": "x"})
		require.NoError(t, err)

		_, err = client.API("/me").Get(context.Background())
		require.NoError(t, err)

		assert.Equal(t, 3, transport.count())
	})

	t.Run("streams bypass the cache", func(t *testing.T) {
		t.Parallel()

		transport := &recordingTransport{respond: func(req *graph.TransportRequest) (*graph.RawResponse, error) {
			return &graph.RawResponse{StatusCode: http.StatusOK, Body: []byte("bytes")}, nil
		}}
		client := newTestClient(t, graph.NewCachingTransport(transport, graph.NewMemoryCache(10), 0, nil))

		for range 2 {
			handle, err := client.API("/me/photo/$value").GetStream(context.Background())
			require.NoError(t, err)

			stream, err := handle.Open(context.Background())
			require.NoError(t, err)
			require.NoError(t, stream.Close())
		}

		assert.Equal(t, 2, transport.count())
	})
	t.Run("callers cannot mutate cached bodies", func(t *testing.T) {
		t.Parallel()

		transport := &recordingTransport{respond: func(req *graph.TransportRequest) (*graph.RawResponse, error) {
			return &graph.RawResponse{StatusCode: http.StatusOK, Header: make(http.Header), Body: []byte("original")}, nil
		}}
		caching := graph.NewCachingTransport(transport, graph.NewMemoryCache(10), time.Hour, nil)

		for range 3 {
			resp, err := caching.Do(context.Background(), &graph.TransportRequest{
				Method: http.MethodGet,
				URL:    "https://graph.microsoft.com/v1.0/me",
				Header: make(http.Header),
			})
			require.NoError(t, err)
			assert.Equal(t, "original", string(resp.Body))

			copy(resp.Body, "mutated!")
		}

		assert.Equal(t, 1, transport.count())
	})
}
