package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/fivetwenty-io/graph-client/internal/constants"
)

// Callback receives the outcome of a callback-style call. On success err is
// nil; on failure body is nil. raw is nil when no request was sent.
type Callback func(err error, body interface{}, raw *RawResponse)

type result struct {
	body interface{}
	raw  *RawResponse
	err  error
}

func (res result) values() (interface{}, error) {
	return res.body, res.err
}

func (res result) deliver(callback Callback) {
	if callback == nil {
		return
	}

	if res.err != nil {
		callback(res.err, nil, res.raw)

		return
	}

	callback(nil, res.body, res.raw)
}

// Get sends a GET and returns the decoded body.
func (r *Request) Get(ctx context.Context) (interface{}, error) {
	res := r.send(ctx, http.MethodGet, r.BuildFullURL(), nil)

	return res.body, res.err
}

// Post sends content with a POST.
func (r *Request) Post(ctx context.Context, content interface{}) (interface{}, error) {
	res := r.send(ctx, http.MethodPost, r.BuildFullURL(), content)

	return res.body, res.err
}

// Put sends content with a PUT. The content type defaults to application/octet-stream.
func (r *Request) Put(ctx context.Context, content interface{}) (interface{}, error) {
	res := r.send(ctx, http.MethodPut, r.BuildFullURL(), content)

	return res.body, res.err
}

// Patch sends content with a PATCH.
func (r *Request) Patch(ctx context.Context, content interface{}) (interface{}, error) {
	res := r.send(ctx, http.MethodPatch, r.BuildFullURL(), content)

	return res.body, res.err
}

// Delete sends a DELETE.
func (r *Request) Delete(ctx context.Context) (interface{}, error) {
	res := r.send(ctx, http.MethodDelete, r.BuildFullURL(), nil)

	return res.body, res.err
}

// Create is an alias for Post.
func (r *Request) Create(ctx context.Context, content interface{}) (interface{}, error) {
	return r.Post(ctx, content)
}

// Update is an alias for Patch.
func (r *Request) Update(ctx context.Context, content interface{}) (interface{}, error) {
	return r.Patch(ctx, content)
}

// Del is an alias for Delete.
func (r *Request) Del(ctx context.Context) (interface{}, error) {
	return r.Delete(ctx)
}

// GetCallback sends a GET and invokes callback exactly once.
func (r *Request) GetCallback(ctx context.Context, callback Callback) {
	r.send(ctx, http.MethodGet, r.BuildFullURL(), nil).deliver(callback)
}

// PostCallback sends a POST and invokes callback exactly once.
func (r *Request) PostCallback(ctx context.Context, content interface{}, callback Callback) {
	r.send(ctx, http.MethodPost, r.BuildFullURL(), content).deliver(callback)
}

// PutCallback sends a PUT and invokes callback exactly once.
func (r *Request) PutCallback(ctx context.Context, content interface{}, callback Callback) {
	r.send(ctx, http.MethodPut, r.BuildFullURL(), content).deliver(callback)
}

// PatchCallback sends a PATCH and invokes callback exactly once.
func (r *Request) PatchCallback(ctx context.Context, content interface{}, callback Callback) {
	r.send(ctx, http.MethodPatch, r.BuildFullURL(), content).deliver(callback)
}

// DeleteCallback sends a DELETE and invokes callback exactly once.
func (r *Request) DeleteCallback(ctx context.Context, callback Callback) {
	r.send(ctx, http.MethodDelete, r.BuildFullURL(), nil).deliver(callback)
}

// CreateCallback is an alias for PostCallback.
func (r *Request) CreateCallback(ctx context.Context, content interface{}, callback Callback) {
	r.PostCallback(ctx, content, callback)
}

// UpdateCallback is an alias for PatchCallback.
func (r *Request) UpdateCallback(ctx context.Context, content interface{}, callback Callback) {
	r.PatchCallback(ctx, content, callback)
}

// DelCallback is an alias for DeleteCallback.
func (r *Request) DelCallback(ctx context.Context, callback Callback) {
	r.DeleteCallback(ctx, callback)
}

func (r *Request) send(ctx context.Context, method, url string, content interface{}) result {
	return r.sendAs(ctx, method, url, content, r.responseTypeOrDefault())
}

// sendAs is the single path every verb goes through: token, configure, transport, normalize.
func (r *Request) sendAs(ctx context.Context, method, url string, content interface{}, responseType ResponseType) result {
	token, err := r.token(ctx)
	if err != nil {
		return result{err: err}
	}

	req, err := r.configureRequest(method, url, token, content, responseType)
	if err != nil {
		return result{err: err}
	}

	resp, err := r.config.Transport.Do(ctx, req)

	return handleResponse(resp, err, responseType)
}

// token asks the auth provider for a bearer token. Its errors are returned untouched.
func (r *Request) token(ctx context.Context) (string, error) {
	token, err := r.config.AuthProvider.GetToken(ctx)
	if err != nil {
		return "", err
	}

	if token == "" {
		return "", ErrNoAccessToken
	}

	return token, nil
}

func (r *Request) configureRequest(method, url, token string, content interface{}, responseType ResponseType) (*TransportRequest, error) {
	body, contentType, err := encodeBody(content)
	if err != nil {
		return nil, err
	}

	if method == http.MethodPut {
		contentType = constants.ContentTypeOctetStream
	}

	header := make(http.Header)

	if contentType != "" {
		header.Set("Content-Type", contentType)
	}

	if responseType == ResponseTypeJSON {
		header.Set("Accept", constants.ContentTypeJSON)
	}

	if r.config.UserAgent != "" {
		header.Set("User-Agent", r.config.UserAgent)
	}

	header.Set("Authorization", "Bearer "+token)

	for key, value := range r.headers {
		header.Set(key, value)
	}

	header.Set(constants.SDKHeaderName, constants.SDKHeaderPrefix+constants.SDKVersion)

	if header.Get(constants.ClientRequestIDHeader) == "" {
		header.Set(constants.ClientRequestIDHeader, uuid.NewString())
	}

	return &TransportRequest{
		Method:       method,
		URL:          url,
		Header:       header,
		Body:         body,
		ResponseType: responseType,
		Metadata:     make(map[string]interface{}),
	}, nil
}

func (r *Request) responseTypeOrDefault() ResponseType {
	if r.responseType == "" {
		return ResponseTypeJSON
	}

	return r.responseType
}

// handleResponse turns a transport outcome into a body or a *GraphError.
func handleResponse(resp *RawResponse, err error, responseType ResponseType) result {
	if err == nil && resp.OK() {
		body, decodeErr := decodeBody(resp, responseType)
		if decodeErr != nil {
			graphErr := ParseError(&RawFailure{Response: resp, RawBody: string(resp.Body)})
			graphErr.cause = decodeErr

			return result{err: graphErr, raw: resp}
		}

		return result{body: body, raw: resp}
	}

	var failure *RawFailure
	if err != nil {
		failure = failureFromTransportError(err, resp)
	} else {
		failure = failureFromResponse(resp)
	}

	if resp != nil && resp.Stream != nil {
		_ = resp.Stream.Close()
	}

	graphErr := ParseError(failure)
	graphErr.cause = err

	return result{err: graphErr, raw: resp}
}

func encodeBody(content interface{}) (io.Reader, string, error) {
	switch body := content.(type) {
	case nil:
		return nil, "", nil
	case json.RawMessage:
		return bytes.NewReader(body), constants.ContentTypeJSON, nil
	case []byte:
		return bytes.NewReader(body), "", nil
	case string:
		return strings.NewReader(body), "", nil
	case io.Reader:
		return body, "", nil
	default:
		data, err := json.Marshal(body)
		if err != nil {
			return nil, "", fmt.Errorf("%w: %w", ErrUnsupportedBodyType, err)
		}

		return bytes.NewReader(data), constants.ContentTypeJSON, nil
	}
}

func decodeBody(resp *RawResponse, responseType ResponseType) (interface{}, error) {
	switch responseType {
	case ResponseTypeText:
		return string(resp.Body), nil
	case ResponseTypeBinary:
		return resp.Body, nil
	case ResponseTypeStream:
		return resp.Stream, nil
	default:
		data := bytes.TrimPrefix(resp.Body, []byte(constants.ByteOrderMark))
		if len(bytes.TrimSpace(data)) == 0 {
			return nil, nil
		}

		var body interface{}
		if err := json.Unmarshal(data, &body); err != nil {
			return nil, fmt.Errorf("decoding response body: %w", err)
		}

		return body, nil
	}
}
