package types

import "errors"

// Sentinel errors for the divvy library.
//
// These errors provide type-safe error checking using errors.Is().
// Components wrap them with context using fmt.Errorf("%w: ...", ErrX, ...),
// so callers should never compare error strings.

// Partition errors - returned by the partition policies.
var (
	// ErrOutOfRange is returned when index/size violate 0 <= index < size, size >= 1.
	ErrOutOfRange = errors.New("worker index out of range")

	// ErrInvalidWeight is returned when a weight cannot be compared or summed.
	ErrInvalidWeight = errors.New("invalid weight")

	// ErrLengthMismatch is returned when parallel value/weight columns differ in length.
	ErrLengthMismatch = errors.New("value and weight lengths differ")

	// ErrUnknownPolicy is returned when a policy name cannot be resolved.
	ErrUnknownPolicy = errors.New("unknown partition policy")

	// ErrWeightsRequired is returned when a weight-aware policy is requested for unweighted data.
	ErrWeightsRequired = errors.New("partition policy requires weighted items")

	// ErrIncompletePartition is returned when shares do not cover every position exactly once.
	ErrIncompletePartition = errors.New("shares do not form a partition")
)

// Job errors - returned by the Job orchestration layer.
var (
	// ErrInvalidConfig is returned when the configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrInconsistentInput is returned when ranks disagree on the input data or size.
	ErrInconsistentInput = errors.New("ranks hold different input data")

	// ErrNotManager is returned when a manager-only operation runs on a worker rank.
	ErrNotManager = errors.New("operation requires the manager rank")

	// ErrPeerFailed is returned on a worker when the manager reports a failure it hit.
	ErrPeerFailed = errors.New("peer rank failed")
)

// Communicator errors - returned by comm and its transports.
var (
	// ErrRankOutOfRange is returned when a peer rank is outside [0, size).
	ErrRankOutOfRange = errors.New("peer rank out of range")

	// ErrNoAvailableRank is returned when every rank of the group is already claimed.
	ErrNoAvailableRank = errors.New("no available rank in group")

	// ErrClosed is returned when a communicator is used after Close.
	ErrClosed = errors.New("communicator closed")

	// ErrUnknownReduceOp is returned for an unsupported reduction operator.
	ErrUnknownReduceOp = errors.New("unknown reduce operator")
)
