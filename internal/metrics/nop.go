// Package metrics provides types.MetricsCollector implementations.
package metrics

import "github.com/arloliu/divvy/types"

// NopMetrics implements a no-op metrics collector.
//
// All metrics are discarded. Useful for testing or when external
// metrics collection is used.
type NopMetrics struct{}

// Compile-time assertion that NopMetrics implements MetricsCollector.
var _ types.MetricsCollector = (*NopMetrics)(nil)

// NewNop creates a new no-op metrics collector.
func NewNop() *NopMetrics {
	return &NopMetrics{}
}

// ShareMetrics implementation

// RecordShare discards the share metric.
func (n *NopMetrics) RecordShare(_ /* policy */ string, _ /* items */ int, _ /* duration */ float64) {
	// No-op
}

// RecordShareError discards the share error metric.
func (n *NopMetrics) RecordShareError(_ /* policy */ string, _ /* reason */ string) {
	// No-op
}

// CommMetrics implementation

// RecordCollective discards the collective metric.
func (n *NopMetrics) RecordCollective(_ /* op */ string, _ /* duration */ float64, _ /* success */ bool) {
	// No-op
}

// RecordBytes discards the transfer size metric.
func (n *NopMetrics) RecordBytes(_ /* direction */ string, _ /* bytes */ int) {
	// No-op
}
