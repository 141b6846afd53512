package graph

import (
	"strings"
)

const httpsScheme = "https://"

// URLComponents holds the pieces a request URL is assembled from:
//
//	HOST/VERSION/PATH?ODATA_QUERY&OTHER_QUERY
//
// Path never carries a query string; all query data lives in the two parameter sets.
type URLComponents struct {
	Host                string
	Version             string
	Path                string
	ODataQueryParams    *QueryParams
	OtherURLQueryParams *QueryParams
}

// NewURLComponents creates components with the given defaults and empty query sets.
func NewURLComponents(host, version string) *URLComponents {
	return &URLComponents{
		Host:                host,
		Version:             version,
		ODataQueryParams:    NewQueryParams(),
		OtherURLQueryParams: NewQueryParams(),
	}
}

// ParsePath splits rawPath into components. An absolute "https://" path overrides
// the host and version; a relative path keeps the defaults already in components.
// Query values are stored as-is, without percent-decoding.
func ParsePath(rawPath string, components *URLComponents) {
	if strings.Contains(rawPath, httpsScheme) {
		rawPath = strings.Replace(rawPath, httpsScheme, "", 1)

		var host, version string

		host, rawPath = cutSegment(rawPath)
		components.Host = httpsScheme + host

		version, rawPath = cutSegment(rawPath)
		components.Version = version
	}

	rawPath = strings.TrimPrefix(rawPath, "/")

	path, rawQuery, hasQuery := strings.Cut(rawPath, "?")
	components.Path = path

	if !hasQuery {
		return
	}

	for _, token := range strings.Split(rawQuery, "&") {
		if token == "" {
			continue
		}

		key, value, _ := strings.Cut(token, "=")
		if IsODataQueryName(key) {
			components.ODataQueryParams.Set(key, value)
		} else {
			components.OtherURLQueryParams.Set(key, value)
		}
	}
}

// cutSegment returns the text before the first "/" and the text after it.
// Without a "/" the whole input is the segment.
func cutSegment(s string) (string, string) {
	segment, rest, found := strings.Cut(s, "/")
	if !found {
		return s, ""
	}

	return segment, rest
}

// QueryString renders "?" followed by the OData parameters and then the other
// parameters, each group in insertion order. It returns "" when both are empty.
func (c *URLComponents) QueryString() string {
	parts := append(c.ODataQueryParams.pairs(), c.OtherURLQueryParams.pairs()...)
	if len(parts) == 0 {
		return ""
	}

	return "?" + strings.Join(parts, "&")
}

// URL joins host, version and path with single slashes and appends the query string.
func (c *URLComponents) URL() string {
	return urlJoin(c.Host, c.Version, c.Path) + c.QueryString()
}

// urlJoin trims trailing slashes from the left segment and leading slashes from
// the right segment before joining them with "/".
func urlJoin(segments ...string) string {
	if len(segments) == 0 {
		return ""
	}

	joined := segments[0]
	for _, segment := range segments[1:] {
		joined = strings.TrimRight(joined, "/") + "/" + strings.TrimLeft(segment, "/")
	}

	return joined
}
