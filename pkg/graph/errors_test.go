package graph_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/graph-client/pkg/graph"
)

const sampleErrorBody = `{
  "error": {
    "code": "SearchEvents",
    "message": "The parameter $search is not currently supported on the Events resource.",
    "innerError": {
      "request-id": "b31c83fd-944c-4663-aa50-5d9ceb367e19",
      "date": "2016-11-17T18:37:45"
    }
  }
}`

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestParseError(t *testing.T) {
	t.Parallel()

	t.Run("full payload from raw body", func(t *testing.T) {
		t.Parallel()

		graphErr := graph.ParseError(&graph.RawFailure{
			StatusCode: http.StatusBadRequest,
			RawBody:    sampleErrorBody,
		})

		assert.Equal(t, http.StatusBadRequest, graphErr.StatusCode)
		assert.Equal(t, "SearchEvents", graphErr.Code)
		assert.Contains(t, graphErr.Message, "$search is not currently supported")
		assert.Equal(t, "b31c83fd-944c-4663-aa50-5d9ceb367e19", graphErr.RequestID)
		assert.Equal(t, 2016, graphErr.Date.Year())
		assert.Equal(t, time.November, graphErr.Date.Month())
		assert.Equal(t, "SearchEvents", graphErr.Body["code"])
	})

	t.Run("byte order mark is stripped", func(t *testing.T) {
		t.Parallel()

		graphErr := graph.ParseError(&graph.RawFailure{
			StatusCode: http.StatusBadRequest,
			RawBody:    "\uFEFF" + sampleErrorBody,
		})

		assert.Equal(t, "SearchEvents", graphErr.Code)
	})

	t.Run("decoded body", func(t *testing.T) {
		t.Parallel()

		graphErr := graph.ParseError(&graph.RawFailure{
			Response: &graph.RawResponse{StatusCode: http.StatusForbidden},
			Body: map[string]interface{}{
				"error": map[string]interface{}{"code": "Authorization_RequestDenied", "message": "denied"},
			},
		})

		assert.Equal(t, http.StatusForbidden, graphErr.StatusCode)
		assert.Equal(t, "Authorization_RequestDenied", graphErr.Code)
		assert.Equal(t, "", graphErr.RequestID)
		assert.True(t, graphErr.Date.IsZero())
	})

	t.Run("response status wins over top-level status", func(t *testing.T) {
		t.Parallel()

		graphErr := graph.ParseError(&graph.RawFailure{
			StatusCode: http.StatusTeapot,
			Response:   &graph.RawResponse{StatusCode: http.StatusNotFound},
		})

		assert.Equal(t, http.StatusNotFound, graphErr.StatusCode)
	})

	t.Run("nil input", func(t *testing.T) {
		t.Parallel()

		graphErr := graph.ParseError(nil)
		assert.Equal(t, 0, graphErr.StatusCode)
		assert.False(t, graphErr.Date.IsZero())
	})

	unrecognized := []struct {
		name    string
		failure *graph.RawFailure
	}{
		{"empty", &graph.RawFailure{StatusCode: 500}},
		{"not json", &graph.RawFailure{StatusCode: 500, RawBody: "<html>oops</html>"}},
		{"no error key", &graph.RawFailure{StatusCode: 500, Body: map[string]interface{}{"detail": "x"}}},
		{"error is a string", &graph.RawFailure{StatusCode: 500, RawBody: `{"error":"boom"}`}},
	}

	for _, testCase := range unrecognized {
		t.Run("unrecognized "+testCase.name, func(t *testing.T) {
			t.Parallel()

			before := time.Now()
			graphErr := graph.ParseError(testCase.failure)

			assert.Equal(t, 500, graphErr.StatusCode)
			assert.Empty(t, graphErr.Code)
			assert.Empty(t, graphErr.Message)
			assert.Empty(t, graphErr.RequestID)
			assert.Nil(t, graphErr.Body)
			assert.False(t, graphErr.Date.Before(before))
		})
	}

	t.Run("mistyped nested fields degrade to empty", func(t *testing.T) {
		t.Parallel()

		graphErr := graph.ParseError(&graph.RawFailure{
			StatusCode: 400,
			RawBody:    `{"error":{"code":"X","innerError":"not-an-object"}}`,
		})

		assert.Equal(t, "X", graphErr.Code)
		assert.Empty(t, graphErr.RequestID)
		assert.True(t, graphErr.Date.IsZero())
	})
}

func TestGraphError_Error(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "itemNotFound: missing (status: 404)",
		(&graph.GraphError{StatusCode: 404, Code: "itemNotFound", Message: "missing"}).Error())
	assert.Equal(t, "graph error (status: 500)", (&graph.GraphError{StatusCode: 500}).Error())
}

func TestErrorHelpers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status int
		check  func(error) bool
	}{
		{http.StatusNotFound, graph.IsNotFound},
		{http.StatusUnauthorized, graph.IsUnauthorized},
		{http.StatusForbidden, graph.IsForbidden},
		{http.StatusTooManyRequests, graph.IsThrottled},
	}

	for _, testCase := range tests {
		t.Run(http.StatusText(testCase.status), func(t *testing.T) {
			t.Parallel()

			err := fmt.Errorf("listing users: %w", &graph.GraphError{StatusCode: testCase.status})
			assert.True(t, testCase.check(err))
			assert.False(t, testCase.check(&graph.GraphError{StatusCode: http.StatusTeapot}))
			assert.False(t, testCase.check(errors.New("plain")))
		})
	}
}

func TestTransportError(t *testing.T) {
	t.Parallel()

	inner := errors.New("connection reset")
	err := &graph.TransportError{StatusCode: 502, Err: inner}

	require.ErrorIs(t, err, inner)
	assert.Equal(t, "transport error (status: 502): connection reset", err.Error())
	assert.Equal(t, "transport error: connection reset", (&graph.TransportError{Err: inner}).Error())
}
