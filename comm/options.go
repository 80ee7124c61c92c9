package comm

import (
	"github.com/arloliu/divvy/internal/logging"
	"github.com/arloliu/divvy/internal/metrics"
	"github.com/arloliu/divvy/types"
)

// Option configures a Comm.
type Option func(*options)

type options struct {
	logger  types.Logger
	metrics types.MetricsCollector
}

func defaultOptions() options {
	return options{
		logger:  logging.NewNop(),
		metrics: metrics.NewNop(),
	}
}

// WithLogger sets the logger used for collective diagnostics.
func WithLogger(logger types.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics sets the collector that records collective latency and bytes moved.
func WithMetrics(m types.MetricsCollector) Option {
	return func(o *options) {
		if m != nil {
			o.metrics = m
		}
	}
}
