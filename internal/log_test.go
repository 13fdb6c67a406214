package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observedLogger(level LogLevel) (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return &Logger{level: level, sugar: zap.New(core).Sugar()}, logs
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, LogLevelError, ParseLogLevel("ERROR"))
	assert.Equal(t, LogLevelTrace, ParseLogLevel("TRACE"))
	assert.Equal(t, LogLevelInfo, ParseLogLevel(""))
	assert.Equal(t, LogLevelInfo, ParseLogLevel("loud"))
}

func TestLogger_LevelFiltering(t *testing.T) {
	l, logs := observedLogger(LogLevelWarn)
	l.Debug("hidden")
	l.Info("hidden")
	l.Warn("shown %d", 1)
	l.Error("shown %d", 2)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "shown 1", entries[0].Message)
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
}

func TestLogger_WithCarriesFields(t *testing.T) {
	l, logs := observedLogger(LogLevelDebug)
	child := l.With("family", "comparison", "mode", "auto")
	assert.Equal(t, LogLevelDebug, child.GetLevel())

	child.Warn("analysis failed: %v", "boom")
	l.Warn("plain")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "analysis failed: boom", entries[0].Message)
	assert.Equal(t, map[string]interface{}{"family": "comparison", "mode": "auto"}, entries[0].ContextMap())
	assert.Empty(t, entries[1].ContextMap())
}

func TestLogger_TraceTagged(t *testing.T) {
	l, logs := observedLogger(LogLevelTrace)
	l.Trace("table %d built", 7)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, true, entries[0].ContextMap()["trace"])
}

func TestNewDefaultLogger_ReadsEnvironment(t *testing.T) {
	t.Setenv("LOG_LEVEL", "DEBUG")
	assert.Equal(t, LogLevelDebug, NewDefaultLogger().GetLevel())

	t.Setenv("LOG_LEVEL", "")
	assert.Equal(t, LogLevelInfo, NewDefaultLogger().GetLevel())
}
