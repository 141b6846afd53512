package graph

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// ResponseType tells the transport and the normalizer how to treat a response body.
type ResponseType string

const (
	// ResponseTypeJSON decodes the body as JSON. It is the default.
	ResponseTypeJSON ResponseType = "json"
	// ResponseTypeText returns the body as a string.
	ResponseTypeText ResponseType = "text"
	// ResponseTypeBinary returns the body as raw bytes.
	ResponseTypeBinary ResponseType = "binary"
	// ResponseTypeStream leaves the body unread in RawResponse.Stream.
	ResponseTypeStream ResponseType = "stream"
)

// TransportRequest is a fully configured outgoing request.
type TransportRequest struct {
	Method       string
	URL          string
	Header       http.Header
	Body         io.Reader
	ResponseType ResponseType
	Metadata     map[string]interface{}
}

// RawResponse is what the transport observed on the wire.
type RawResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	// Stream is set instead of Body when the request asked for ResponseTypeStream.
	Stream io.ReadCloser
}

// OK reports whether the status code is 2xx.
func (r *RawResponse) OK() bool {
	return r != nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// Transport performs one HTTP exchange. Non-2xx statuses are returned as a
// response, not an error; an error means no usable response was received.
// A transport may return both a response and an error.
type Transport interface {
	Do(ctx context.Context, req *TransportRequest) (*RawResponse, error)
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, req *TransportRequest) (*RawResponse, error)

// Do implements Transport.
func (f TransportFunc) Do(ctx context.Context, req *TransportRequest) (*RawResponse, error) {
	return f(ctx, req)
}

// TransportError is returned by a transport that failed after observing part
// of an exchange, e.g. a status line whose body could not be read.
type TransportError struct {
	StatusCode int
	Body       []byte
	Err        error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("transport error (status: %d): %v", e.StatusCode, e.Err)
	}

	return fmt.Sprintf("transport error: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *TransportError) Unwrap() error {
	return e.Err
}
