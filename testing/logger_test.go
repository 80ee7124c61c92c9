package testing

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatPairs(t *testing.T) {
	tests := []struct {
		name string
		kv   []any
		want string
	}{
		{name: "empty", kv: nil, want: ""},
		{name: "pairs", kv: []any{"rank", 2, "size", 4}, want: " rank=2 size=4"},
		{name: "dangling key", kv: []any{"rank", 2, "oops"}, want: " rank=2 !BADKEY=oops"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, formatPairs(tt.kv))
		})
	}
}

func TestNewTestLogger(t *testing.T) {
	var logger *testLogger
	t.Run("inner", func(t *testing.T) {
		logger = NewTestLogger(t).(*testLogger)
		logger.Debug("debug", "k", "v")
		logger.Info("info")
		logger.Warn("warn", "k", 1)
		logger.Error("error", "err", "boom")
		require.False(t, logger.done.Load())
	})

	require.True(t, logger.done.Load())
	// Logging after the subtest finished must not panic.
	logger.Info("late", "k", "v")
	logger.Fatal("late fatal")
}
