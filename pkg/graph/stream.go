package graph

import (
	"bytes"
	"context"
	"io"
	"net/http"
)

// StreamHandle is a fully configured GET that has not been sent yet. The
// caller opens it to read the response body as a stream.
type StreamHandle struct {
	request   *TransportRequest
	transport Transport
}

// Request returns the configured request, e.g. to inspect or add headers before Open.
func (h *StreamHandle) Request() *TransportRequest {
	return h.request
}

// Open sends the request and returns the response body. The caller must close it.
// A non-2xx response is returned as a *GraphError.
func (h *StreamHandle) Open(ctx context.Context) (io.ReadCloser, error) {
	resp, err := h.transport.Do(ctx, h.request)
	if err == nil && resp.OK() {
		if resp.Stream != nil {
			return resp.Stream, nil
		}

		return io.NopCloser(bytes.NewReader(resp.Body)), nil
	}

	return nil, handleResponse(resp, err, ResponseTypeStream).err
}

// GetStream returns an unsent GET handle carrying the bearer token and headers.
func (r *Request) GetStream(ctx context.Context) (*StreamHandle, error) {
	token, err := r.token(ctx)
	if err != nil {
		return nil, err
	}

	req, err := r.configureRequest(http.MethodGet, r.BuildFullURL(), token, nil, ResponseTypeStream)
	if err != nil {
		return nil, err
	}

	return &StreamHandle{request: req, transport: r.config.Transport}, nil
}

// GetStreamCallback is the callback form of GetStream.
func (r *Request) GetStreamCallback(ctx context.Context, callback func(err error, handle *StreamHandle)) {
	handle, err := r.GetStream(ctx)
	if callback != nil {
		callback(err, handle)
	}
}

// PutStream uploads everything read from stream with a PUT and an
// application/octet-stream content type. callback is invoked exactly once,
// with nil on success.
func (r *Request) PutStream(ctx context.Context, stream io.Reader, callback func(err error)) {
	if callback == nil {
		callback = func(error) {}
	}

	if stream == nil {
		callback(ErrStreamRequired)

		return
	}

	token, err := r.token(ctx)
	if err != nil {
		callback(err)

		return
	}

	req, err := r.configureRequest(http.MethodPut, r.BuildFullURL(), token, stream, ResponseTypeBinary)
	if err != nil {
		callback(err)

		return
	}

	resp, err := r.config.Transport.Do(ctx, req)
	callback(handleResponse(resp, err, ResponseTypeBinary).err)
}
