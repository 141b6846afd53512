package graph_test

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/graph-client/pkg/graph"
)

// MockLogger for testing.
type MockLogger struct {
	mu   sync.Mutex
	logs []map[string]interface{}
}

func (l *MockLogger) record(level, msg string, fields map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.logs = append(l.logs, map[string]interface{}{"level": level, "msg": msg, "fields": fields})
}

func (l *MockLogger) Debug(msg string, fields map[string]interface{}) { l.record("debug", msg, fields) }
func (l *MockLogger) Info(msg string, fields map[string]interface{})  { l.record("info", msg, fields) }
func (l *MockLogger) Warn(msg string, fields map[string]interface{})  { l.record("warn", msg, fields) }
func (l *MockLogger) Error(msg string, fields map[string]interface{}) { l.record("error", msg, fields) }

func (l *MockLogger) messages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]string, 0, len(l.logs))
	for _, entry := range l.logs {
		out = append(out, entry["msg"].(string))
	}

	return out
}

// recordingTransport answers every request with respond and keeps what it saw.
type recordingTransport struct {
	mu       sync.Mutex
	requests []*graph.TransportRequest
	respond  func(req *graph.TransportRequest) (*graph.RawResponse, error)
}

func (t *recordingTransport) Do(ctx context.Context, req *graph.TransportRequest) (*graph.RawResponse, error) {
	t.mu.Lock()
	t.requests = append(t.requests, req)
	t.mu.Unlock()

	return t.respond(req)
}

func (t *recordingTransport) count() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.requests)
}

func (t *recordingTransport) last() *graph.TransportRequest {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.requests[len(t.requests)-1]
}

func jsonResponse(status int, body string) *graph.RawResponse {
	header := make(http.Header)
	header.Set("Content-Type", "application/json")

	return &graph.RawResponse{StatusCode: status, Header: header, Body: []byte(body)}
}

func staticAuth(token string) graph.AuthProvider {
	return graph.AuthProviderFunc(func(ctx context.Context) (string, error) {
		return token, nil
	})
}

func newTestClient(t *testing.T, transport graph.Transport) *graph.Client {
	t.Helper()

	client, err := graph.NewClient(&graph.Config{
		AuthProvider: staticAuth("test-token"),
		Transport:    transport,
	})
	require.NoError(t, err)

	return client
}

func urlOnlyClient(t *testing.T) *graph.Client {
	t.Helper()

	return newTestClient(t, graph.TransportFunc(func(ctx context.Context, req *graph.TransportRequest) (*graph.RawResponse, error) {
		return jsonResponse(http.StatusOK, `{}`), nil
	}))
}
