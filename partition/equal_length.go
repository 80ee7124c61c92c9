package partition

import "github.com/arloliu/divvy/types"

// EqualLength splits the input into size contiguous blocks.
//
// With N items, q = N / size and r = N % size, the first r blocks hold q+1
// items and the rest hold q, so block lengths differ by at most one. When
// N < size the trailing workers receive empty shares.
type EqualLength[T any] struct{}

var _ Policy[int] = EqualLength[int]{}

// NewEqualLength creates a contiguous block policy.
func NewEqualLength[T any]() EqualLength[T] {
	return EqualLength[T]{}
}

// Share returns block index of the input.
//
// The block offset is index*q + min(index, r), computed in closed form
// without materializing other blocks.
//
// Example:
//
//	share, _ := partition.NewEqualLength[int]().Share(types.SliceOf([]int{0, 1, 2, 3, 4}), 1, 3)
//	// share holds [2 3]
func (EqualLength[T]) Share(data types.Sequence[T], index, size int) (types.Sequence[T], error) {
	if err := ValidateBounds(index, size); err != nil {
		return nil, err
	}

	start, end := BlockBounds(data.Len(), index, size)

	return data.Slice(start, end), nil
}

// BlockBounds returns the [start, end) range of block index when n items are
// split into size blocks by EqualLength. Bounds must already be validated.
func BlockBounds(n, index, size int) (int, int) {
	q, r := n/size, n%size

	length := q
	if index < r {
		length++
	}
	start := index*q + min(index, r)

	return start, start + length
}
