package commands_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/graph-client/cmd/graph/commands"
	"github.com/fivetwenty-io/graph-client/internal/constants"
	"github.com/fivetwenty-io/graph-client/pkg/graph"
)

func TestParseHeaders(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    []string
		expected map[string]interface{}
		wantErr  bool
	}{
		{name: "none", input: nil, expected: map[string]interface{}{}},
		{
			name:     "trims around the separator",
			input:    []string{"ConsistencyLevel: eventual", "Prefer:return=minimal"},
			expected: map[string]interface{}{"ConsistencyLevel": "eventual", "Prefer": "return=minimal"},
		},
		{
			name:     "value may contain colons",
			input:    []string{"X-Trace: a:b:c"},
			expected: map[string]interface{}{"X-Trace": "a:b:c"},
		},
		{name: "missing separator", input: []string{"Broken"}, wantErr: true},
		{name: "empty key", input: []string{" : value"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			headers, err := commands.ParseHeaders(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, constants.ErrInvalidHeader)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, headers)
		})
	}
}

func TestRequestBody(t *testing.T) {
	t.Parallel()

	body, err := commands.RequestBody("", "")
	require.NoError(t, err)
	assert.Nil(t, body)

	body, err = commands.RequestBody(`{"displayName":"Ops"}`, "")
	require.NoError(t, err)
	assert.Equal(t, json.RawMessage(`{"displayName":"Ops"}`), body)

	body, err = commands.RequestBody("plain text", "")
	require.NoError(t, err)
	assert.Equal(t, "plain text", body)

	path := filepath.Join(t.TempDir(), "body.json")
	require.NoError(t, os.WriteFile(path, []byte(`[1,2]`), 0o600))

	body, err = commands.RequestBody("", path)
	require.NoError(t, err)
	assert.Equal(t, json.RawMessage(`[1,2]`), body)

	_, err = commands.RequestBody("", filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

func TestDispatch(t *testing.T) {
	t.Parallel()

	var methods []string

	client, err := graph.NewClient(&graph.Config{
		AuthProvider: graph.AuthProviderFunc(func(context.Context) (string, error) { return "token", nil }),
		Transport: graph.TransportFunc(func(_ context.Context, req *graph.TransportRequest) (*graph.RawResponse, error) {
			methods = append(methods, req.Method)

			return &graph.RawResponse{StatusCode: 204}, nil
		}),
	})
	require.NoError(t, err)

	ctx := context.Background()

	for _, method := range []string{"GET", "POST", "PUT", "PATCH", "DELETE"} {
		_, err := commands.Dispatch(ctx, client.API("/groups"), method, json.RawMessage(`{}`))
		require.NoError(t, err, method)
	}

	assert.Equal(t, []string{"GET", "POST", "PUT", "PATCH", "DELETE"}, methods)

	_, err = commands.Dispatch(ctx, client.API("/groups"), "POST", nil)
	require.ErrorIs(t, err, constants.ErrMissingData)

	_, err = commands.Dispatch(ctx, client.API("/groups"), "TRACE", nil)
	require.ErrorIs(t, err, constants.ErrUnknownMethod)

	assert.Len(t, methods, 5)
}

//nolint:funlen
func TestURLCommand(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected string
		wantErr  error
	}{
		{
			name:     "path only",
			args:     []string{"/me"},
			expected: "https://graph.microsoft.com/v1.0/me",
		},
		{
			name:     "OData flags precede extra query parameters",
			args:     []string{"/users", "--query", "$search=senior", "--select", "id,displayName", "--top", "5", "--count"},
			expected: "https://graph.microsoft.com/v1.0/users?$select=id,displayName&$top=5&$count=true&$search=senior",
		},
		{
			name:     "version override",
			args:     []string{"/me", "--version", "beta"},
			expected: "https://graph.microsoft.com/beta/me",
		},
		{
			name:     "absolute URL keeps its own query",
			args:     []string{"https://graph.microsoft.com/beta/me/people?$top=3", "--filter", "x eq 1"},
			expected: "https://graph.microsoft.com/beta/me/people?$top=3&$filter=x eq 1",
		},
		{
			name:    "malformed query",
			args:    []string{"/me", "--query", "novalue"},
			wantErr: constants.ErrInvalidQuery,
		},
		{
			name:    "malformed header",
			args:    []string{"/me", "-H", "nocolon"},
			wantErr: constants.ErrInvalidHeader,
		},
		{
			name:    "unknown response type",
			args:    []string{"/me", "--response-type", "xml"},
			wantErr: constants.ErrUnknownResponseType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupCLI(t, "")

			out, err := execute(commands.NewURLCommand(), nil, tt.args...)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected+"\n", out)
		})
	}
}

func TestURLCommand_ProfileDefaults(t *testing.T) {
	path := setupCLI(t, "")

	require.NoError(t, commands.SaveConfigFile(path, &commands.Config{
		Profiles: map[string]*commands.Profile{
			"default": {BaseURL: "https://graph.example.com", APIVersion: "beta"},
		},
	}))

	out, err := execute(commands.NewURLCommand(), nil, "/me")
	require.NoError(t, err)
	assert.Equal(t, "https://graph.example.com/beta/me\n", out)
}
