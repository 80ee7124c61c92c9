package partition

import "github.com/arloliu/divvy/types"

// Duplicate gives every worker the entire input.
type Duplicate[T any] struct{}

var _ Policy[int] = Duplicate[int]{}

// NewDuplicate creates a duplicate (broadcast-style) policy.
func NewDuplicate[T any]() Duplicate[T] {
	return Duplicate[T]{}
}

// Share returns data unchanged after the bounds check.
func (Duplicate[T]) Share(data types.Sequence[T], index, size int) (types.Sequence[T], error) {
	if err := ValidateBounds(index, size); err != nil {
		return nil, err
	}

	return data, nil
}
