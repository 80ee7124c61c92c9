package partition

import (
	"fmt"

	"github.com/arloliu/divvy/types"
)

// Policy computes one worker's share of an ordered input.
//
// Implementations must be pure functions of (data, index, size): the same
// arguments always yield the same share, and no state survives between calls.
type Policy[T any] interface {
	// Share returns the items owned by worker index of size.
	//
	// Parameters:
	//   - data: Ordered input, identical on every worker
	//   - index: This worker's position, 0 <= index < size
	//   - size: Total number of workers, size >= 1
	//
	// Returns:
	//   - types.Sequence[T]: The worker's share (possibly empty)
	//   - error: ErrOutOfRange for invalid index/size
	Share(data types.Sequence[T], index, size int) (types.Sequence[T], error)
}

// WeightedPolicy computes one worker's share of weighted items and returns
// the owned values.
type WeightedPolicy[V any, W types.Weight] interface {
	// Share returns the values owned by worker index of size.
	//
	// Returns:
	//   - types.Sequence[V]: Owned values in policy order
	//   - error: ErrOutOfRange for invalid index/size, ErrInvalidWeight for NaN weights
	Share(data types.Sequence[types.Weighted[V, W]], index, size int) (types.Sequence[V], error)
}

// ValidateBounds checks the worker coordinate shared by every policy.
//
// Returns:
//   - error: ErrOutOfRange unless size >= 1 and 0 <= index < size
func ValidateBounds(index, size int) error {
	if size < 1 {
		return fmt.Errorf("%w: size %d must be >= 1", types.ErrOutOfRange, size)
	}
	if index < 0 || index >= size {
		return fmt.Errorf("%w: index %d not in [0,%d)", types.ErrOutOfRange, index, size)
	}

	return nil
}

// lifted applies a plain policy to weighted items and projects the values.
type lifted[V any, W types.Weight] struct {
	policy Policy[types.Weighted[V, W]]
}

// Lift adapts a plain policy to weighted input.
//
// The wrapped policy partitions the (value, weight) items exactly as it would
// any other sequence; weights are carried but ignored, and only values are
// returned. This lets configuration pick any Kind for weighted data.
func Lift[V any, W types.Weight](policy Policy[types.Weighted[V, W]]) WeightedPolicy[V, W] {
	return lifted[V, W]{policy: policy}
}

func (l lifted[V, W]) Share(data types.Sequence[types.Weighted[V, W]], index, size int) (types.Sequence[V], error) {
	share, err := l.policy.Share(data, index, size)
	if err != nil {
		return nil, err
	}

	return types.Values(share), nil
}
