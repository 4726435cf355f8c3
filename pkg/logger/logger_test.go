package logger

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warning"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("bogus"))
}

func TestSetCapturesEntries(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	Set(zap.New(core))
	defer Set(nil)

	Warn("queue full", zap.String("intent", "i-1"))
	Debug("noise")

	require.Equal(t, 2, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "queue full", entry.Message)
	assert.Equal(t, "i-1", entry.ContextMap()["intent"])
}

func TestInitWithFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "server.log")
	require.NoError(t, Init("info", file))
	defer Set(nil)

	Info("hello")
	assert.NotNil(t, L())
}
