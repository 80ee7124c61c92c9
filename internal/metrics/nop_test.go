package metrics

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNopMetrics(t *testing.T) {
	m := NewNop()

	require.NotPanics(t, func() {
		m.RecordShare("equal-length", 3, 0.001)
		m.RecordShare("", -1, -1)
		m.RecordShareError("weight-balanced", "invalid_weight")
		m.RecordCollective("allreduce", 0.5, true)
		m.RecordBytes("sent", 128)
	})
}
