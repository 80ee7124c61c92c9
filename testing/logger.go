package testing

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/arloliu/divvy/types"
)

// NewTestLogger returns a logger that writes through t.Logf.
//
// Key/value pairs are rendered as "key=value". Messages logged by background
// goroutines after the test finished are dropped, since t.Logf panics then.
func NewTestLogger(t testing.TB) types.Logger {
	l := &testLogger{t: t}
	t.Cleanup(func() { l.done.Store(true) })

	return l
}

type testLogger struct {
	t    testing.TB
	done atomic.Bool
}

var _ types.Logger = (*testLogger)(nil)

func (l *testLogger) Debug(msg string, keysAndValues ...any) {
	l.log("DEBUG", msg, keysAndValues)
}

func (l *testLogger) Info(msg string, keysAndValues ...any) {
	l.log("INFO", msg, keysAndValues)
}

func (l *testLogger) Warn(msg string, keysAndValues ...any) {
	l.log("WARN", msg, keysAndValues)
}

func (l *testLogger) Error(msg string, keysAndValues ...any) {
	l.log("ERROR", msg, keysAndValues)
}

// Fatal logs and fails the test without stopping the calling goroutine.
func (l *testLogger) Fatal(msg string, keysAndValues ...any) {
	if l.done.Load() {
		return
	}
	l.t.Helper()
	l.t.Errorf("FATAL %s%s", msg, formatPairs(keysAndValues))
}

func (l *testLogger) log(level, msg string, keysAndValues []any) {
	if l.done.Load() {
		return
	}
	l.t.Helper()
	l.t.Logf("%s %s%s", level, msg, formatPairs(keysAndValues))
}

func formatPairs(keysAndValues []any) string {
	if len(keysAndValues) == 0 {
		return ""
	}

	var b strings.Builder
	for i := 0; i < len(keysAndValues); i += 2 {
		b.WriteByte(' ')
		if i+1 == len(keysAndValues) {
			fmt.Fprintf(&b, "!BADKEY=%v", keysAndValues[i])
			break
		}
		fmt.Fprintf(&b, "%v=%v", keysAndValues[i], keysAndValues[i+1])
	}

	return b.String()
}
