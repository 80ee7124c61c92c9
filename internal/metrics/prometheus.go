package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/arloliu/divvy/types"
)

// PrometheusCollector implements types.MetricsCollector backed by Prometheus.
//
// Metrics are created and registered lazily on first use, so constructing a
// collector that is never exercised leaves the registry untouched.
type PrometheusCollector struct {
	reg       prometheus.Registerer
	namespace string
	once      sync.Once

	shareTotal        *prometheus.CounterVec
	shareItems        *prometheus.HistogramVec
	shareLatency      *prometheus.HistogramVec
	shareErrors       *prometheus.CounterVec
	collectiveTotal   *prometheus.CounterVec
	collectiveLatency *prometheus.HistogramVec
	transferBytes     *prometheus.CounterVec
}

// Compile-time assertion that PrometheusCollector implements MetricsCollector.
var _ types.MetricsCollector = (*PrometheusCollector)(nil)

// NewPrometheus creates a new Prometheus-backed metrics collector.
//
// Parameters:
//   - reg: Prometheus registerer interface (uses prometheus.DefaultRegisterer if nil)
//   - namespace: Prometheus metrics namespace (defaults to "divvy" if empty)
//
// Returns:
//   - *PrometheusCollector: A MetricsCollector implementation using Prometheus
func NewPrometheus(reg prometheus.Registerer, namespace string) *PrometheusCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "divvy"
	}

	return &PrometheusCollector{reg: reg, namespace: namespace}
}

func (p *PrometheusCollector) ensureRegistered() {
	p.once.Do(func() {
		p.shareTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "share",
			Name:      "computed_total",
			Help:      "Total share computations by policy.",
		}, []string{"policy"})

		p.shareItems = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "share",
			Name:      "items",
			Help:      "Number of items in computed shares by policy.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10), // 1 .. ~260k
		}, []string{"policy"})

		p.shareLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "share",
			Name:      "duration_seconds",
			Help:      "Share computation latency in seconds by policy.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10), // 10us .. ~2.6s
		}, []string{"policy"})

		p.shareErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "share",
			Name:      "errors_total",
			Help:      "Failed share computations by policy and reason.",
		}, []string{"policy", "reason"})

		p.collectiveTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "comm",
			Name:      "collectives_total",
			Help:      "Collective operations by op and success.",
		}, []string{"op", "success"})

		p.collectiveLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "comm",
			Name:      "collective_duration_seconds",
			Help:      "Collective operation latency in seconds by op.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2.5, 12), // 100us .. ~6s
		}, []string{"op"})

		p.transferBytes = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "comm",
			Name:      "transfer_bytes_total",
			Help:      "Point-to-point payload bytes by direction (sent,received).",
		}, []string{"direction"})

		p.reg.MustRegister(p.shareTotal)
		p.reg.MustRegister(p.shareItems)
		p.reg.MustRegister(p.shareLatency)
		p.reg.MustRegister(p.shareErrors)
		p.reg.MustRegister(p.collectiveTotal)
		p.reg.MustRegister(p.collectiveLatency)
		p.reg.MustRegister(p.transferBytes)
	})
}

// RecordShare records a successful share computation.
func (p *PrometheusCollector) RecordShare(policy string, items int, duration float64) {
	p.ensureRegistered()
	p.shareTotal.WithLabelValues(policy).Inc()
	p.shareItems.WithLabelValues(policy).Observe(float64(items))
	p.shareLatency.WithLabelValues(policy).Observe(duration)
}

// RecordShareError records a failed share computation.
func (p *PrometheusCollector) RecordShareError(policy string, reason string) {
	p.ensureRegistered()
	p.shareErrors.WithLabelValues(policy, reason).Inc()
}

// RecordCollective records a collective outcome and its latency.
func (p *PrometheusCollector) RecordCollective(op string, duration float64, success bool) {
	p.ensureRegistered()
	p.collectiveTotal.WithLabelValues(op, strconv.FormatBool(success)).Inc()
	p.collectiveLatency.WithLabelValues(op).Observe(duration)
}

// RecordBytes adds transferred payload bytes.
func (p *PrometheusCollector) RecordBytes(direction string, bytes int) {
	p.ensureRegistered()
	p.transferBytes.WithLabelValues(direction).Add(float64(bytes))
}
