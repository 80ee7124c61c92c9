package types

// MetricsCollector defines methods for recording operational metrics.
//
// Implementations should be non-blocking and handle failures gracefully.
// Methods may be called concurrently from every rank of an in-process group
// and must be thread-safe.
//
// This interface composes smaller, domain-focused interfaces for better modularity.
type MetricsCollector interface {
	ShareMetrics
	CommMetrics
}

// ShareMetrics defines metrics for share computation.
type ShareMetrics interface {
	// RecordShare records a successful share computation.
	//
	// Parameters:
	//   - policy: Policy name ("equal-length", "weight-balanced", ...)
	//   - items: Number of items in the computed share
	//   - duration: Time taken in seconds
	RecordShare(policy string, items int, duration float64)

	// RecordShareError records a failed share computation.
	//
	// Parameters:
	//   - policy: Policy name
	//   - reason: Failure class ("out_of_range", "invalid_weight", "inconsistent_input", "other")
	RecordShareError(policy string, reason string)
}

// CommMetrics defines metrics for communicator collectives.
type CommMetrics interface {
	// RecordCollective records a collective operation outcome.
	//
	// Parameters:
	//   - op: Operation ("sync", "allreduce", "broadcast", "gather", "scatter")
	//   - duration: Time taken in seconds
	//   - success: true if the operation completed without error
	RecordCollective(op string, duration float64, success bool)

	// RecordBytes records payload bytes moved by a point-to-point transfer.
	//
	// Parameters:
	//   - direction: "sent" or "received"
	//   - bytes: Payload size
	RecordBytes(direction string, bytes int)
}
