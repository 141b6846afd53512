package graph

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/fivetwenty-io/graph-client/internal/constants"
)

// Static errors for err113 compliance.
var (
	ErrCacheKeyNotFound  = errors.New("key not found")
	ErrCacheEntryExpired = errors.New("entry expired")
)

// CacheEntry is a cached GET response body.
type CacheEntry struct {
	Data       []byte      `json:"data"`
	Header     http.Header `json:"header,omitempty"`
	StatusCode int         `json:"statusCode"`
	ETag       string      `json:"etag,omitempty"`
	ExpiresAt  time.Time   `json:"expiresAt"`
}

// Expired reports whether the entry is past its expiry.
func (e *CacheEntry) Expired() bool {
	return !e.ExpiresAt.IsZero() && time.Now().After(e.ExpiresAt)
}

// Cache stores response entries. Get returns ErrCacheKeyNotFound for unknown
// keys and the entry together with ErrCacheEntryExpired for stale ones, so the
// caller can still revalidate with its ETag.
type Cache interface {
	Get(ctx context.Context, key string) (*CacheEntry, error)
	Set(ctx context.Context, key string, entry *CacheEntry) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Has(ctx context.Context, key string) bool
}

// CacheKey derives a store-safe key from method, URL and the credential the
// request carries, so responses are never shared across tokens.
func CacheKey(method, url, authorization string) string {
	sum := sha256.Sum256([]byte(method + " " + url + " " + authorization))

	return hex.EncodeToString(sum[:])
}

// MemoryCache is an in-process LRU cache.
type MemoryCache struct {
	entries *lru.Cache[string, *CacheEntry]
}

// NewMemoryCache creates an LRU cache holding at most maxSize entries. A
// non-positive size falls back to constants.DefaultCacheSize.
func NewMemoryCache(maxSize int) *MemoryCache {
	if maxSize <= 0 {
		maxSize = constants.DefaultCacheSize
	}

	// lru.New only fails for a non-positive size.
	entries, _ := lru.New[string, *CacheEntry](maxSize)

	return &MemoryCache{entries: entries}
}

// Get implements Cache. A hit, stale or not, marks the key recently used.
func (c *MemoryCache) Get(ctx context.Context, key string) (*CacheEntry, error) {
	entry, ok := c.entries.Get(key)
	if !ok {
		return nil, ErrCacheKeyNotFound
	}

	if entry.Expired() {
		return entry, ErrCacheEntryExpired
	}

	return entry, nil
}

// Set implements Cache.
func (c *MemoryCache) Set(ctx context.Context, key string, entry *CacheEntry) error {
	c.entries.Add(key, entry)

	return nil
}

// Delete implements Cache.
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.entries.Remove(key)

	return nil
}

// Clear implements Cache.
func (c *MemoryCache) Clear(ctx context.Context) error {
	c.entries.Purge()

	return nil
}

// Has implements Cache. Expired entries count as absent.
func (c *MemoryCache) Has(ctx context.Context, key string) bool {
	entry, ok := c.entries.Peek(key)

	return ok && !entry.Expired()
}

// Len returns the number of stored entries, expired ones included.
func (c *MemoryCache) Len() int {
	return c.entries.Len()
}

// CachingTransport serves repeated GETs from a cache. Fresh entries skip the
// network; stale entries with an ETag are revalidated with If-None-Match.
// Successful writes to a URL evict the cached GET for that URL.
type CachingTransport struct {
	next   Transport
	cache  Cache
	ttl    time.Duration
	logger Logger
}

// NewCachingTransport wraps next with cache. Stored responses are fresh for
// ttl; a non-positive ttl uses constants.DefaultCacheTTL.
func NewCachingTransport(next Transport, cache Cache, ttl time.Duration, logger Logger) *CachingTransport {
	if ttl <= 0 {
		ttl = constants.DefaultCacheTTL
	}

	if logger == nil {
		logger = noopLogger{}
	}

	return &CachingTransport{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: logger,
	}
}

// Do implements Transport.
func (t *CachingTransport) Do(ctx context.Context, req *TransportRequest) (*RawResponse, error) {
	getKey := CacheKey(http.MethodGet, req.URL, req.Header.Get("Authorization"))

	if req.Method != http.MethodGet {
		resp, err := t.next.Do(ctx, req)
		if err == nil && resp.OK() {
			_ = t.cache.Delete(ctx, getKey)
		}

		return resp, err
	}

	if req.ResponseType == ResponseTypeStream {
		return t.next.Do(ctx, req)
	}

	entry, err := t.cache.Get(ctx, getKey)
	if err == nil {
		t.logger.Debug("Cache hit", map[string]interface{}{"url": req.URL})

		return entry.response(), nil
	}

	if errors.Is(err, ErrCacheEntryExpired) && entry != nil && entry.ETag != "" {
		req.Header.Set("If-None-Match", entry.ETag)
	}

	resp, err := t.next.Do(ctx, req)
	if err != nil {
		return resp, err
	}

	if resp.StatusCode == http.StatusNotModified && entry != nil {
		t.logger.Debug("Cache revalidated", map[string]interface{}{"url": req.URL})

		refreshed := *entry
		refreshed.ExpiresAt = time.Now().Add(t.ttl)
		_ = t.cache.Set(ctx, getKey, &refreshed)

		return refreshed.response(), nil
	}

	if resp.OK() {
		storeErr := t.cache.Set(ctx, getKey, &CacheEntry{
			Data:       bytes.Clone(resp.Body),
			Header:     resp.Header,
			StatusCode: resp.StatusCode,
			ETag:       resp.Header.Get("ETag"),
			ExpiresAt:  time.Now().Add(t.ttl),
		})
		if storeErr != nil {
			t.logger.Warn("Failed to store response in cache", map[string]interface{}{
				"url":   req.URL,
				"error": storeErr.Error(),
			})
		}
	}

	return resp, nil
}

func (e *CacheEntry) response() *RawResponse {
	statusCode := e.StatusCode
	if statusCode == 0 {
		statusCode = http.StatusOK
	}

	return &RawResponse{
		StatusCode: statusCode,
		Header:     e.Header.Clone(),
		Body:       bytes.Clone(e.Data),
	}
}
