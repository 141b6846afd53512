package graph

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/fivetwenty-io/graph-client/internal/constants"
)

// Static errors for err113 compliance.
var (
	ErrNoMoreItems         = errors.New("no more items")
	ErrUnsupportedBodyType = errors.New("unsupported request body type")
	ErrStreamRequired      = errors.New("stream is required")
)

// GraphError is the normalized form of every failed API call.
//
// Example payload it is parsed from:
//
//	{
//	  "error": {
//	    "code": "SearchEvents",
//	    "message": "The parameter $search is not currently supported on the Events resource.",
//	    "innerError": {
//	      "request-id": "b31c83fd-944c-4663-aa50-5d9ceb367e19",
//	      "date": "2016-11-17T18:37:45"
//	    }
//	  }
//	}
//
// Empty strings, a zero Date and a nil Body mean the field was not present.
type GraphError struct {
	StatusCode int                    `json:"statusCode" yaml:"statusCode"`
	Code       string                 `json:"code"       yaml:"code"`
	Message    string                 `json:"message"    yaml:"message"`
	RequestID  string                 `json:"requestId"  yaml:"requestId"`
	Date       time.Time              `json:"date"       yaml:"date"`
	Body       map[string]interface{} `json:"body"       yaml:"body"`

	cause error
}

// Unwrap returns the transport error this GraphError was parsed from, if any.
func (e *GraphError) Unwrap() error {
	return e.cause
}

// Error implements the error interface.
func (e *GraphError) Error() string {
	if e.Code == "" && e.Message == "" {
		if e.cause != nil {
			return fmt.Sprintf("graph error (status: %d): %v", e.StatusCode, e.cause)
		}

		return fmt.Sprintf("graph error (status: %d)", e.StatusCode)
	}

	return fmt.Sprintf("%s: %s (status: %d)", e.Code, e.Message, e.StatusCode)
}

// RawFailure gathers everything known about a failed exchange. Callers fill
// whichever fields their failure shape provides.
type RawFailure struct {
	// StatusCode is a top-level status, used when Response carries none.
	StatusCode int
	// Response is the transport response, if one was received.
	Response *RawResponse
	// Body is the already-decoded response body.
	Body map[string]interface{}
	// RawBody is the undecoded text, set when decoding failed.
	RawBody string
}

// ParseError normalizes a failure into a GraphError. It never panics; fields
// it cannot find are left empty.
func ParseError(raw *RawFailure) *GraphError {
	if raw == nil {
		return &GraphError{Date: time.Now()}
	}

	statusCode := raw.StatusCode
	if raw.Response != nil && raw.Response.StatusCode != 0 {
		statusCode = raw.Response.StatusCode
	}

	errObj := locateErrorPayload(raw)
	if errObj == nil {
		return &GraphError{
			StatusCode: statusCode,
			Date:       time.Now(),
		}
	}

	innerError := cast.ToStringMap(errObj["innerError"])

	graphErr := &GraphError{
		StatusCode: statusCode,
		Code:       cast.ToString(errObj["code"]),
		Message:    cast.ToString(errObj["message"]),
		RequestID:  cast.ToString(innerError["request-id"]),
		Body:       errObj,
	}

	if date, err := cast.ToTimeE(innerError["date"]); err == nil {
		graphErr.Date = date
	}

	return graphErr
}

func locateErrorPayload(raw *RawFailure) map[string]interface{} {
	if raw.Body != nil {
		if errObj, ok := raw.Body["error"].(map[string]interface{}); ok {
			return errObj
		}

		return nil
	}

	if raw.RawBody == "" {
		return nil
	}

	var decoded map[string]interface{}

	err := json.Unmarshal([]byte(strings.TrimPrefix(raw.RawBody, constants.ByteOrderMark)), &decoded)
	if err != nil {
		return nil
	}

	errObj, _ := decoded["error"].(map[string]interface{})

	return errObj
}

// failureFromResponse builds the error-parsing input for a non-2xx response,
// decoding the body when it is JSON and keeping the raw text otherwise.
func failureFromResponse(resp *RawResponse) *RawFailure {
	failure := &RawFailure{Response: resp}
	if resp == nil {
		return failure
	}

	failure.StatusCode = resp.StatusCode

	if len(resp.Body) == 0 {
		return failure
	}

	var body map[string]interface{}
	if err := json.Unmarshal(resp.Body, &body); err == nil {
		failure.Body = body
	} else {
		failure.RawBody = string(resp.Body)
	}

	return failure
}

// failureFromTransportError builds the error-parsing input when the transport
// reported an error. A *TransportError's status and body take precedence over
// whatever response accompanied it.
func failureFromTransportError(err error, resp *RawResponse) *RawFailure {
	transportErr := &TransportError{}
	if !errors.As(err, &transportErr) {
		return failureFromResponse(resp)
	}

	failure := failureFromResponse(&RawResponse{
		StatusCode: transportErr.StatusCode,
		Body:       transportErr.Body,
	})

	if failure.StatusCode == 0 && resp != nil {
		failure.StatusCode = resp.StatusCode
	}

	return failure
}

func statusOf(err error) int {
	graphErr := &GraphError{}
	if errors.As(err, &graphErr) {
		return graphErr.StatusCode
	}

	return 0
}

// IsNotFound checks if the error is a 404 GraphError.
func IsNotFound(err error) bool {
	return statusOf(err) == http.StatusNotFound
}

// IsUnauthorized checks if the error is a 401 GraphError.
func IsUnauthorized(err error) bool {
	return statusOf(err) == http.StatusUnauthorized
}

// IsForbidden checks if the error is a 403 GraphError.
func IsForbidden(err error) bool {
	return statusOf(err) == http.StatusForbidden
}

// IsThrottled checks if the error is a 429 GraphError.
func IsThrottled(err error) bool {
	return statusOf(err) == http.StatusTooManyRequests
}
