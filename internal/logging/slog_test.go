package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlogLogger_Levels(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewSlogText(buf, slog.LevelDebug, "rank", 2)

	logger.Debug("debug message", "key", "value")
	logger.Info("info message", "items", 3)
	logger.Warn("warn message")
	logger.Error("error message", "err", "boom")

	output := buf.String()
	assert.Contains(t, output, "level=DEBUG")
	assert.Contains(t, output, "key=value")
	assert.Contains(t, output, "items=3")
	assert.Contains(t, output, "level=WARN")
	assert.Contains(t, output, "err=boom")
	assert.Contains(t, output, "rank=2")
}

func TestSlogLogger_LevelFiltering(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewSlogText(buf, slog.LevelWarn)

	logger.Debug("hidden debug")
	logger.Info("hidden info")
	logger.Warn("visible warn")

	output := buf.String()
	assert.NotContains(t, output, "hidden")
	assert.Contains(t, output, "visible warn")
}

func TestNewSlog(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewSlog(slog.New(slog.NewJSONHandler(buf, nil)))
	logger.Info("json message", "k", 1)

	require.Contains(t, buf.String(), `"msg":"json message"`)
	require.NotNil(t, NewSlogDefault().logger)
}

func TestLevelForVerbosity(t *testing.T) {
	require.Equal(t, slog.LevelWarn, LevelForVerbosity(-1))
	require.Equal(t, slog.LevelWarn, LevelForVerbosity(0))
	require.Equal(t, slog.LevelInfo, LevelForVerbosity(1))
	require.Equal(t, slog.LevelDebug, LevelForVerbosity(2))
	require.Equal(t, slog.LevelDebug, LevelForVerbosity(9))
}

func TestNopLogger(t *testing.T) {
	logger := NewNop()
	require.NotPanics(t, func() {
		logger.Debug("x", "k", "v")
		logger.Info("x")
		logger.Warn("x")
		logger.Error("x")
		logger.Fatal("x")
	})
}
