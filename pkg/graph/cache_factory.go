package graph

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/fivetwenty-io/graph-client/internal/constants"
)

// CacheType names a response cache backend.
type CacheType string

const (
	// CacheTypeMemory keeps responses in an in-process LRU.
	CacheTypeMemory CacheType = "memory"

	// CacheTypeNATS shares responses through a NATS JetStream KV bucket,
	// fronted by the in-process LRU.
	CacheTypeNATS CacheType = "nats"

	// CacheTypeNone disables caching.
	CacheTypeNone CacheType = "none"
)

// Static errors for err113 compliance.
var (
	ErrNATSConfigRequired = errors.New("NATS configuration required for NATS cache")
	ErrCacheDisabled      = errors.New("cache disabled")
)

// ParseCacheType maps a flag or profile value to a backend. The empty string
// means no cache.
func ParseCacheType(value string) (CacheType, error) {
	cacheType := CacheType(strings.ToLower(strings.TrimSpace(value)))

	switch cacheType {
	case "":
		return CacheTypeNone, nil
	case CacheTypeMemory, CacheTypeNATS, CacheTypeNone:
		return cacheType, nil
	default:
		return "", fmt.Errorf("%w: %s", constants.ErrUnknownCacheType, value)
	}
}

// CacheConfig describes a client's GET response cache: which backend holds
// the entries and how long they are served before being revalidated.
type CacheConfig struct {
	// Backend defaults to CacheTypeMemory.
	Backend CacheType

	// TTL is how long a stored response is served without a round trip.
	// Defaults to constants.DefaultCacheTTL. The NATS bucket keeps entries
	// constants.CacheRetentionFactor times longer so stale ones can still be
	// revalidated with their ETag.
	TTL time.Duration

	// MaxEntries bounds the in-process LRU, which also fronts NATS.
	// Defaults to constants.DefaultCacheSize.
	MaxEntries int

	// NATSURL is dialed when NATSConn is nil. Defaults to nats.DefaultURL.
	NATSURL string
	// NATSConn reuses a connection the caller owns.
	NATSConn *nats.Conn
	// NATSBucket defaults to constants.DefaultNATSBucket.
	NATSBucket string

	// Store, when set, is used as is and Backend is ignored.
	Store Cache
}

// DefaultCacheConfig returns an in-memory cache with the default size and TTL.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		Backend:    CacheTypeMemory,
		TTL:        constants.DefaultCacheTTL,
		MaxEntries: constants.DefaultCacheSize,
	}
}

func (c CacheConfig) withDefaults() CacheConfig {
	if c.Backend == "" {
		c.Backend = CacheTypeMemory
	}

	if c.TTL <= 0 {
		c.TTL = constants.DefaultCacheTTL
	}

	if c.MaxEntries <= 0 {
		c.MaxEntries = constants.DefaultCacheSize
	}

	return c
}

// natsConfig derives the KV bucket settings from the cache settings.
func (c CacheConfig) natsConfig() *NATSKVConfig {
	return &NATSKVConfig{
		URL:    c.NATSURL,
		Conn:   c.NATSConn,
		Bucket: c.NATSBucket,
		TTL:    c.TTL * constants.CacheRetentionFactor,
	}
}

// ResponseCache is an opened cache store together with the TTL its entries
// are written with.
type ResponseCache struct {
	Store Cache
	TTL   time.Duration

	closer func()
}

// OpenCache opens the backend config names. Call Close when done; it
// releases a NATS connection the cache dialed itself.
func OpenCache(ctx context.Context, config CacheConfig) (*ResponseCache, error) {
	config = config.withDefaults()
	opened := &ResponseCache{TTL: config.TTL}

	switch {
	case config.Store != nil:
		opened.Store = config.Store
	case config.Backend == CacheTypeMemory:
		opened.Store = NewMemoryCache(config.MaxEntries)
	case config.Backend == CacheTypeNATS:
		remote, err := NewNATSKVCache(ctx, config.natsConfig())
		if err != nil {
			return nil, err
		}

		opened.Store = NewCacheChain(NewMemoryCache(config.MaxEntries), remote)
		opened.closer = remote.Close
	case config.Backend == CacheTypeNone:
		opened.Store = NewNoOpCache()
	default:
		return nil, fmt.Errorf("%w: %s", constants.ErrUnknownCacheType, config.Backend)
	}

	return opened, nil
}

// Enabled reports whether the store caches anything.
func (r *ResponseCache) Enabled() bool {
	_, disabled := r.Store.(*NoOpCache)

	return !disabled
}

// Wrap puts the cache in front of next. A disabled cache returns next unchanged.
func (r *ResponseCache) Wrap(next Transport, logger Logger) Transport {
	if !r.Enabled() {
		return next
	}

	return NewCachingTransport(next, r.Store, r.TTL, logger)
}

// Close releases resources the backend holds.
func (r *ResponseCache) Close() {
	if r.closer != nil {
		r.closer()
	}
}

// NoOpCache stores nothing.
type NoOpCache struct{}

// NewNoOpCache creates a cache that stores nothing.
func NewNoOpCache() *NoOpCache {
	return &NoOpCache{}
}

// Get always reports ErrCacheDisabled.
func (c *NoOpCache) Get(ctx context.Context, key string) (*CacheEntry, error) {
	return nil, ErrCacheDisabled
}

// Set implements Cache.
func (c *NoOpCache) Set(ctx context.Context, key string, entry *CacheEntry) error {
	return nil
}

// Delete implements Cache.
func (c *NoOpCache) Delete(ctx context.Context, key string) error {
	return nil
}

// Clear implements Cache.
func (c *NoOpCache) Clear(ctx context.Context) error {
	return nil
}

// Has is always false.
func (c *NoOpCache) Has(ctx context.Context, key string) bool {
	return false
}

// CacheChain layers caches, fastest first. Writes go to every layer.
type CacheChain struct {
	caches []Cache
}

// NewCacheChain layers caches in the given order.
func NewCacheChain(caches ...Cache) *CacheChain {
	return &CacheChain{
		caches: caches,
	}
}

// Get returns the first fresh copy and back-fills the layers in front of the
// one that held it. A stale copy is returned with ErrCacheEntryExpired only
// when no layer has a fresh one.
func (c *CacheChain) Get(ctx context.Context, key string) (*CacheEntry, error) {
	var stale *CacheEntry

	for i, cache := range c.caches {
		entry, err := cache.Get(ctx, key)
		if err == nil {
			for _, front := range c.caches[:i] {
				_ = front.Set(ctx, key, entry)
			}

			return entry, nil
		}

		if stale == nil && errors.Is(err, ErrCacheEntryExpired) {
			stale = entry
		}
	}

	if stale != nil {
		return stale, ErrCacheEntryExpired
	}

	return nil, ErrCacheKeyNotFound
}

// Set writes entry to every layer and joins their errors.
func (c *CacheChain) Set(ctx context.Context, key string, entry *CacheEntry) error {
	return c.each(func(cache Cache) error { return cache.Set(ctx, key, entry) })
}

// Delete removes key from every layer.
func (c *CacheChain) Delete(ctx context.Context, key string) error {
	return c.each(func(cache Cache) error { return cache.Delete(ctx, key) })
}

// Clear empties every layer.
func (c *CacheChain) Clear(ctx context.Context) error {
	return c.each(func(cache Cache) error { return cache.Clear(ctx) })
}

// Has reports whether any layer holds a fresh copy.
func (c *CacheChain) Has(ctx context.Context, key string) bool {
	for _, cache := range c.caches {
		if cache.Has(ctx, key) {
			return true
		}
	}

	return false
}

func (c *CacheChain) each(apply func(Cache) error) error {
	var errs []error

	for _, cache := range c.caches {
		err := apply(cache)
		if err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
