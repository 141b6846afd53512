// Package graph provides a fluent request builder for OData REST APIs such as
// Microsoft Graph.
//
// # Overview
//
// A Client holds the shared configuration (base URL, default API version,
// authentication provider and transport). Client.API parses a path into a
// Request that can be refined with chainable OData modifiers before it is
// dispatched:
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/fivetwenty-io/graph-client/pkg/graph"
//	  "github.com/fivetwenty-io/graph-client/pkg/graphclient"
//	)
//
//	func example() {
//	  ctx := context.Background()
//	  cli, err := graphclient.NewWithToken(ctx, "my-token")
//	  if err != nil { log.Fatal(err) }
//
//	  body, err := cli.API("/me/messages").
//	    Select("subject", "from").
//	    Top(5).
//	    OrderBy("receivedDateTime desc").
//	    Get(ctx)
//	  if err != nil { log.Fatal(err) }
//	  _ = body
//	}
//
// The URL is assembled as host, version and path joined with single slashes,
// followed by the OData query options ($select, $expand, ...) and then any
// other query parameters, each group in insertion order. Values are not
// percent-encoded by the builder.
//
// # Completion styles
//
// Every verb has a blocking form returning (body, error) and a callback form
// (GetCallback, PostCallback, ...) that invokes its Callback exactly once.
//
// # Paging
//
// Collection responses carrying @odata.nextLink can be walked with a
// PageIterator, FetchAllPages or StreamPages.
//
// # Errors
//
// Failed requests surface as *GraphError, built by ParseError from the
// service's {"error": {...}} envelope. IsNotFound, IsUnauthorized and friends
// branch on common statuses. Errors from the AuthProvider are returned as-is.
//
// # Interceptors and caching
//
// An InterceptorChain wraps the Transport with request and response hooks for
// logging, rate limiting, extra headers and metrics. CachingTransport keeps GET
// responses in a Cache: an in-memory LRU, a NATS JetStream key-value bucket, or
// a CacheChain of both.
package graph
