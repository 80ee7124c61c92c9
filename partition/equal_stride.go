package partition

import "github.com/arloliu/divvy/types"

// EqualStride deals items round-robin: worker index owns positions
// index, index+size, index+2*size, ... in their original order.
type EqualStride[T any] struct{}

var _ Policy[int] = EqualStride[int]{}

// NewEqualStride creates a round-robin policy.
func NewEqualStride[T any]() EqualStride[T] {
	return EqualStride[T]{}
}

// Share returns the stride-size view of data starting at index.
// The share is empty when index >= data.Len().
func (EqualStride[T]) Share(data types.Sequence[T], index, size int) (types.Sequence[T], error) {
	if err := ValidateBounds(index, size); err != nil {
		return nil, err
	}

	return types.Strided(data, index, size), nil
}
