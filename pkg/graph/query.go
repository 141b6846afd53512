package graph

import (
	"strings"

	"github.com/spf13/cast"
)

// OData query parameter names recognized by the path parser and the fluent mutators.
const (
	QuerySelect    = "$select"
	QueryExpand    = "$expand"
	QueryOrderBy   = "$orderby"
	QueryFilter    = "$filter"
	QueryTop       = "$top"
	QuerySkip      = "$skip"
	QuerySkipToken = "$skipToken"
	QueryCount     = "$count"
)

var oDataQueryNames = map[string]struct{}{
	QuerySelect:    {},
	QueryExpand:    {},
	QueryOrderBy:   {},
	QueryFilter:    {},
	QueryTop:       {},
	QuerySkip:      {},
	QuerySkipToken: {},
	QueryCount:     {},
}

// IsODataQueryName reports whether key is one of the fixed OData query names.
// Matching is exact: "$search" is not an OData name here even though it starts with "$".
func IsODataQueryName(key string) bool {
	_, ok := oDataQueryNames[key]

	return ok
}

// QueryParams is an insertion-ordered set of query parameters.
// Values are strings or numbers and are rendered without percent-encoding.
type QueryParams struct {
	keys   []string
	values map[string]interface{}
}

// NewQueryParams creates an empty parameter set.
func NewQueryParams() *QueryParams {
	return &QueryParams{
		values: make(map[string]interface{}),
	}
}

// Set stores value under key. Overwriting keeps the key's original position.
func (q *QueryParams) Set(key string, value interface{}) *QueryParams {
	if _, ok := q.values[key]; !ok {
		q.keys = append(q.keys, key)
	}

	q.values[key] = value

	return q
}

// Get returns the raw value stored under key.
func (q *QueryParams) Get(key string) (interface{}, bool) {
	value, ok := q.values[key]

	return value, ok
}

// GetString returns the value under key rendered as a string, or "" when absent.
func (q *QueryParams) GetString(key string) string {
	value, ok := q.values[key]
	if !ok {
		return ""
	}

	return cast.ToString(value)
}

// Has reports whether key is present.
func (q *QueryParams) Has(key string) bool {
	_, ok := q.values[key]

	return ok
}

// Delete removes key.
func (q *QueryParams) Delete(key string) {
	if _, ok := q.values[key]; !ok {
		return
	}

	delete(q.values, key)

	for i, k := range q.keys {
		if k == key {
			q.keys = append(q.keys[:i], q.keys[i+1:]...)

			break
		}
	}
}

// Len returns the number of parameters.
func (q *QueryParams) Len() int {
	return len(q.keys)
}

// Keys returns the parameter names in insertion order.
func (q *QueryParams) Keys() []string {
	keys := make([]string, len(q.keys))
	copy(keys, q.keys)

	return keys
}

// Clone returns an independent copy.
func (q *QueryParams) Clone() *QueryParams {
	clone := NewQueryParams()
	for _, key := range q.keys {
		clone.Set(key, q.values[key])
	}

	return clone
}

// Encode renders the parameters as key=value pairs joined by "&", in insertion order.
func (q *QueryParams) Encode() string {
	return strings.Join(q.pairs(), "&")
}

func (q *QueryParams) pairs() []string {
	pairs := make([]string, 0, len(q.keys))
	for _, key := range q.keys {
		pairs = append(pairs, key+"="+cast.ToString(q.values[key]))
	}

	return pairs
}
