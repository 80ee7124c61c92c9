package divvy

import (
	"github.com/arloliu/divvy/timekeeper"
)

// Option configures a Job with optional dependencies.
type Option func(*jobOptions)

// jobOptions holds optional Job configuration.
type jobOptions struct {
	logger           Logger
	metrics          MetricsCollector
	timeKeeper       *timekeeper.TimeKeeper
	consistencyCheck bool
}

// WithLogger sets a logger.
//
// Parameters:
//   - logger: Logger implementation (compatible with zap.SugaredLogger)
//
// Returns:
//   - Option: Functional option for NewJob
//
// Example:
//
//	logger := logging.NewSlogDefault()
//	job := divvy.NewJob(c, divvy.KindEqualStride, divvy.WithLogger(logger))
func WithLogger(logger Logger) Option {
	return func(o *jobOptions) {
		o.logger = logger
	}
}

// WithMetrics sets a metrics collector.
//
// Parameters:
//   - metrics: MetricsCollector implementation
//
// Returns:
//   - Option: Functional option for NewJob
//
// Example:
//
//	collector := metrics.NewPrometheus(prometheus.DefaultRegisterer, "")
//	job := divvy.NewJob(c, divvy.KindEqualLength, divvy.WithMetrics(collector))
func WithMetrics(metrics MetricsCollector) Option {
	return func(o *jobOptions) {
		o.metrics = metrics
	}
}

// WithTimeKeeper sets the named clocks that record time spent per phase.
//
// The Job uses the clocks "consistency-check", "share" and "scatter".
func WithTimeKeeper(tk *timekeeper.TimeKeeper) Option {
	return func(o *jobOptions) {
		o.timeKeeper = tk
	}
}

// WithConsistencyCheck makes Share and ShareWeighted verify, before
// partitioning, that every rank holds the same input.
//
// The check is collective: every rank of the group must enable it.
func WithConsistencyCheck(enabled bool) Option {
	return func(o *jobOptions) {
		o.consistencyCheck = enabled
	}
}
