package divvy

import "github.com/arloliu/divvy/types"

// Re-export sentinel errors so callers can match them without importing types.
var (
	ErrOutOfRange          = types.ErrOutOfRange
	ErrInvalidWeight       = types.ErrInvalidWeight
	ErrLengthMismatch      = types.ErrLengthMismatch
	ErrUnknownPolicy       = types.ErrUnknownPolicy
	ErrWeightsRequired     = types.ErrWeightsRequired
	ErrIncompletePartition = types.ErrIncompletePartition
	ErrInvalidConfig       = types.ErrInvalidConfig
	ErrInconsistentInput   = types.ErrInconsistentInput
	ErrNotManager          = types.ErrNotManager
	ErrPeerFailed          = types.ErrPeerFailed
	ErrRankOutOfRange      = types.ErrRankOutOfRange
	ErrNoAvailableRank     = types.ErrNoAvailableRank
	ErrClosed              = types.ErrClosed
)
