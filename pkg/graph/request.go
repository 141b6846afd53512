package graph

import (
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// Request accumulates URL, query and header state for one API call.
// It is not safe for concurrent use; build one per logical request.
type Request struct {
	config        *Config
	urlComponents *URLComponents
	headers       map[string]string
	responseType  ResponseType
}

func newRequest(config *Config, path string) *Request {
	req := &Request{
		config:        config,
		urlComponents: NewURLComponents(config.BaseURL, config.DefaultVersion),
		headers:       make(map[string]string),
	}

	ParsePath(path, req.urlComponents)

	return req
}

// URLComponents exposes the parsed components. Mutating them changes the built URL.
func (r *Request) URLComponents() *URLComponents {
	return r.urlComponents
}

// Version overrides the version segment.
func (r *Request) Version(v string) *Request {
	r.urlComponents.Version = v

	return r
}

// Select appends properties to $select. Accepts one or more properties, or a
// slice via Select(props...). Repeated calls accumulate.
func (r *Request) Select(properties ...string) *Request {
	r.addCSVQueryParameter(QuerySelect, properties)

	return r
}

// Expand appends properties to $expand.
func (r *Request) Expand(properties ...string) *Request {
	r.addCSVQueryParameter(QueryExpand, properties)

	return r
}

// OrderBy appends properties to $orderby.
func (r *Request) OrderBy(properties ...string) *Request {
	r.addCSVQueryParameter(QueryOrderBy, properties)

	return r
}

// Filter sets $filter. The last call wins.
func (r *Request) Filter(filter string) *Request {
	r.urlComponents.ODataQueryParams.Set(QueryFilter, filter)

	return r
}

// Top sets $top.
func (r *Request) Top(n int) *Request {
	r.urlComponents.ODataQueryParams.Set(QueryTop, n)

	return r
}

// Skip sets $skip.
func (r *Request) Skip(n int) *Request {
	r.urlComponents.ODataQueryParams.Set(QuerySkip, n)

	return r
}

// SkipToken sets $skipToken.
func (r *Request) SkipToken(token string) *Request {
	r.urlComponents.ODataQueryParams.Set(QuerySkipToken, token)

	return r
}

// Count sets $count to "true" or "false".
func (r *Request) Count(count bool) *Request {
	r.urlComponents.ODataQueryParams.Set(QueryCount, strconv.FormatBool(count))

	return r
}

// Query adds a "key=value" parameter outside the OData set, e.g. Query("$search=senior").
func (r *Request) Query(keyValue string) *Request {
	key, value, _ := strings.Cut(keyValue, "=")
	r.urlComponents.OtherURLQueryParams.Set(key, value)

	return r
}

// QueryMap adds every entry of params outside the OData set. New keys are
// appended in sorted order so the built URL is deterministic.
func (r *Request) QueryMap(params map[string]interface{}) *Request {
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	for _, key := range keys {
		r.urlComponents.OtherURLQueryParams.Set(key, params[key])
	}

	return r
}

// ResponseType sets how the response body is decoded.
func (r *Request) ResponseType(responseType ResponseType) *Request {
	r.responseType = responseType

	return r
}

// Header sets one header. Values may be strings or numbers.
func (r *Request) Header(key string, value interface{}) *Request {
	r.headers[key] = cast.ToString(value)

	return r
}

// Headers merges headers, overwriting existing keys.
func (r *Request) Headers(headers map[string]interface{}) *Request {
	for key, value := range headers {
		r.headers[key] = cast.ToString(value)
	}

	return r
}

// BuildFullURL assembles host, version, path and query string.
func (r *Request) BuildFullURL() string {
	url := r.urlComponents.URL()

	if r.config.Debug {
		r.config.Logger.Debug("Built request URL", map[string]interface{}{
			"url": url,
		})
	}

	return url
}

// addCSVQueryParameter handles $select, $expand and $orderby, which are comma
// separated and accumulate across calls.
func (r *Request) addCSVQueryParameter(name string, values []string) {
	if len(values) == 0 {
		return
	}

	increment := strings.Join(values, ",")

	params := r.urlComponents.ODataQueryParams
	if existing := params.GetString(name); existing != "" {
		increment = existing + "," + increment
	}

	params.Set(name, increment)
}
