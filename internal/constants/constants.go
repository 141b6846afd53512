package constants

import "time"

// API defaults.
const (
	// DefaultBaseURL is the host used when the caller does not configure one.
	DefaultBaseURL = "https://graph.microsoft.com/"

	// DefaultVersion is the API version segment used when none is configured.
	DefaultVersion = "v1.0"

	// SDKVersion is reported in the SDK header on every request.
	SDKVersion = "1.0.0"

	// SDKHeaderName is the client-identifying header.
	SDKHeaderName = "SdkVersion"

	// SDKHeaderPrefix precedes SDKVersion in the client-identifying header.
	SDKHeaderPrefix = "graph-go-"

	// ClientRequestIDHeader correlates a request with server-side logs.
	ClientRequestIDHeader = "client-request-id"
)

// OData conventions.
const (
	// ValueField holds the item collection in a paged response.
	ValueField = "value"

	// ByteOrderMark is stripped from raw error bodies before JSON decoding.
	ByteOrderMark = "\uFEFF"
)

// Content types.
const (
	ContentTypeJSON        = "application/json"
	ContentTypeOctetStream = "application/octet-stream"
)

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

	// ConnectTimeout bounds dialing auxiliary services such as NATS.
	ConnectTimeout = 10 * time.Second
)

// Concurrency and batching limits.
const (
	// DefaultConcurrencyLimit limits concurrent batch operations.
	DefaultConcurrencyLimit = 3

	// SmallBufferSize is used for page stream channels.
	SmallBufferSize = 10
)

// Caching.
const (
	// DefaultCacheSize is the default number of entries kept by the memory cache.
	DefaultCacheSize = 1000

	// DefaultCacheTTL is how long a cached GET response is served.
	DefaultCacheTTL = 5 * time.Minute

	// DefaultNATSBucket is the KV bucket used by the NATS cache.
	DefaultNATSBucket = "graph-cache"

	// CacheRetentionFactor multiplies the cache TTL to get the NATS bucket
	// expiry, so stale entries stay around long enough to be revalidated.
	CacheRetentionFactor = 4
)

// Authentication.
const (
	// TokenExpirationBuffer treats tokens expiring within this window as expired.
	TokenExpirationBuffer = 30 * time.Second
)

// Output formats.
const (
	FormatJSON  = "json"
	FormatYAML  = "yaml"
	FormatTable = "table"
)
