package partition

import "github.com/arloliu/divvy/types"

// SortedStride orders items by ascending weight, then deals the values
// round-robin exactly like EqualStride.
//
// Sorting first spreads similar-cost items across workers, so inputs whose
// weight drifts with position are interleaved instead of landing in blocks.
type SortedStride[V any, W types.Weight] struct{}

var _ WeightedPolicy[string, int] = SortedStride[string, int]{}

// NewSortedStride creates a weight-sorted round-robin policy.
func NewSortedStride[V any, W types.Weight]() SortedStride[V, W] {
	return SortedStride[V, W]{}
}

// Share returns the values at positions index, index+size, ... of the
// ascending-weight order (ties keep input order).
//
// Returns:
//   - types.Sequence[V]: Owned values
//   - error: ErrOutOfRange for invalid index/size, ErrInvalidWeight if any weight is NaN
func (SortedStride[V, W]) Share(data types.Sequence[types.Weighted[V, W]], index, size int) (types.Sequence[V], error) {
	if err := ValidateBounds(index, size); err != nil {
		return nil, err
	}

	order, _, err := weightOrder(data, false)
	if err != nil {
		return nil, err
	}

	share := make([]V, 0, len(order)/size+1)
	for i := index; i < len(order); i += size {
		share = append(share, data.At(order[i]).Value)
	}

	return types.SliceOf(share), nil
}
