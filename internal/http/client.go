// Package http implements the wire transport used by the graph request
// builder on top of hashicorp/go-retryablehttp.
package http

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/fivetwenty-io/graph-client/internal/constants"
	"github.com/fivetwenty-io/graph-client/pkg/graph"
)

// querySanitizer escapes the characters the request builder leaves raw but
// which are not valid on an HTTP request line. A raw '#' would otherwise start
// a fragment and truncate the query.
var querySanitizer = strings.NewReplacer(" ", "%20", `"`, "%22", "<", "%3C", ">", "%3E", "#", "%23")

// Client is a graph.Transport backed by a retryablehttp client.
type Client struct {
	httpClient *retryablehttp.Client
	logger     graph.Logger
	debug      bool
	userAgent  string
}

// Option configures the HTTP client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger graph.Logger) Option {
	return func(c *Client) {
		c.logger = logger
		c.httpClient.Logger = &leveledLogger{logger: logger}
	}
}

// WithDebug enables per-request debug logging.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithTimeout sets the overall timeout of a single exchange.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.HTTPClient.Timeout = timeout
	}
}

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient.HTTPClient = httpClient
		}
	}
}

// WithUserAgent sets a User-Agent for requests that do not carry one.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// NewClient creates a new HTTP transport. Requests are sent exactly once:
// retrying is left to the caller.
func NewClient(opts ...Option) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 0
	retryClient.CheckRetry = noRetry
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.Logger = nil
	retryClient.HTTPClient = &http.Client{Timeout: constants.DefaultHTTPTimeout}

	client := &Client{
		httpClient: retryClient,
		logger:     graph.NoopLogger(),
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

func noRetry(ctx context.Context, _ *http.Response, _ error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	return false, nil
}

// Do implements graph.Transport. Non-2xx responses are returned without an error.
func (c *Client) Do(ctx context.Context, req *graph.TransportRequest) (*graph.RawResponse, error) {
	httpReq, err := retryablehttp.NewRequestWithContext(ctx, req.Method, SanitizeURL(req.URL), bodyOf(req.Body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, values := range req.Header {
		for _, value := range values {
			httpReq.Header.Add(key, value)
		}
	}

	if c.userAgent != "" && httpReq.Header.Get("User-Agent") == "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}

	if c.debug {
		c.logger.Debug("HTTP Request", map[string]interface{}{
			"method": req.Method,
			"url":    httpReq.URL.String(),
		})
	}

	start := time.Now()

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	raw := &graph.RawResponse{
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
	}

	isSuccess := resp.StatusCode >= 200 && resp.StatusCode < 300
	if req.ResponseType == graph.ResponseTypeStream && isSuccess {
		raw.Stream = resp.Body
	} else {
		defer func() { _ = resp.Body.Close() }()

		raw.Body, err = io.ReadAll(resp.Body)
		if err != nil {
			return raw, &graph.TransportError{
				StatusCode: resp.StatusCode,
				Err:        fmt.Errorf("failed to read response body: %w", err),
			}
		}
	}

	if c.debug {
		c.logger.Debug("HTTP Response", map[string]interface{}{
			"status":   resp.StatusCode,
			"duration": time.Since(start).String(),
			"size":     len(raw.Body),
		})
	}

	return raw, nil
}

// SanitizeURL escapes characters in the query string that cannot appear
// literally on the request line. Everything else is passed through.
func SanitizeURL(rawURL string) string {
	base, query, found := strings.Cut(rawURL, "?")
	if !found {
		return rawURL
	}

	return base + "?" + querySanitizer.Replace(escapeStrayPercent(query))
}

// escapeStrayPercent rewrites a '%' that does not start a valid escape to
// "%25". Existing escapes such as "%20" are kept.
func escapeStrayPercent(query string) string {
	if !strings.Contains(query, "%") {
		return query
	}

	var builder strings.Builder

	builder.Grow(len(query) + 4)

	for i := 0; i < len(query); i++ {
		if query[i] == '%' && (i+2 >= len(query) || !isHex(query[i+1]) || !isHex(query[i+2])) {
			builder.WriteString("%25")

			continue
		}

		builder.WriteByte(query[i])
	}

	return builder.String()
}

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

// streamReader hides Close from retryablehttp, which closes the reader it
// probes for a length.
type streamReader struct {
	io.Reader
}

// bodyOf adapts a request body for retryablehttp. In-memory readers are
// handed over as is. Any other reader is wrapped in a ReaderFunc so it is
// streamed to the server instead of read into memory first; with retries
// disabled the function is called once per request.
func bodyOf(body io.Reader) interface{} {
	switch reader := body.(type) {
	case nil:
		return nil
	case *bytes.Reader, *bytes.Buffer, *strings.Reader:
		return reader
	default:
		return retryablehttp.ReaderFunc(func() (io.Reader, error) {
			return streamReader{Reader: body}, nil
		})
	}
}

// leveledLogger forwards retryablehttp's warnings and errors. Its per-attempt
// debug chatter is dropped; the client logs each exchange itself.
type leveledLogger struct {
	logger graph.Logger
}

func (l *leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, fields(keysAndValues))
}

func (l *leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn(msg, fields(keysAndValues))
}

func (l *leveledLogger) Info(string, ...interface{}) {}

func (l *leveledLogger) Debug(string, ...interface{}) {}

func fields(keysAndValues []interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(keysAndValues)/2)

	for i := 0; i+1 < len(keysAndValues); i += 2 {
		out[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}

	return out
}
