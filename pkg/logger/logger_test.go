package logger

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func resetGlobal(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		mu.Lock()
		globalLogger = zap.NewNop()
		mu.Unlock()
	})
}

func TestInitConfiguresLevel(t *testing.T) {
	resetGlobal(t)

	require.NoError(t, Init("debug", "json"))
	require.True(t, Logger().Core().Enabled(zap.DebugLevel))

	require.NoError(t, Init("warn", "console"))
	require.False(t, Logger().Core().Enabled(zap.InfoLevel))
}

func TestInitFallsBackToInfo(t *testing.T) {
	resetGlobal(t)

	require.NoError(t, Init("chatty", "json"))
	require.True(t, Logger().Core().Enabled(zap.InfoLevel))
	require.False(t, Logger().Core().Enabled(zap.DebugLevel))
}

func TestHelpersAndModuleField(t *testing.T) {
	core, recorded := observer.New(zap.DebugLevel)
	resetGlobal(t)
	globalLogger = zap.New(core)

	Info("info message", zap.String("k", "v"))
	Warn("warn message")
	Error("error message")
	Debug("debug message")
	WithModule("leads").Info("module message")

	entries := recorded.All()
	require.Len(t, entries, 5)
	require.Equal(t, "v", entries[0].ContextMap()["k"])
	require.Equal(t, "leads", entries[4].ContextMap()["module"])
}
