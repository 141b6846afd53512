package commands_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/fivetwenty-io/graph-client/cmd/graph/commands"
)

func TestZapLogger(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	logger := commands.NewZapLogger(zap.New(core))

	logger.Debug("Built request URL", map[string]interface{}{"url": "https://graph.microsoft.com/v1.0/me"})
	logger.Info("GraphRequest", nil)
	logger.Warn("failed to persist refreshed token", map[string]interface{}{"profile": "default"})
	logger.Error("GraphResponse", map[string]interface{}{"status": 500})

	entries := logs.All()
	require.Len(t, entries, 4)

	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, "https://graph.microsoft.com/v1.0/me", entries[0].ContextMap()["url"])
	assert.Equal(t, zapcore.InfoLevel, entries[1].Level)
	assert.Empty(t, entries[1].Context)
	assert.Equal(t, zapcore.WarnLevel, entries[2].Level)
	assert.Equal(t, "default", entries[2].ContextMap()["profile"])
	assert.Equal(t, zapcore.ErrorLevel, entries[3].Level)
	assert.Equal(t, int64(500), entries[3].ContextMap()["status"])
}
