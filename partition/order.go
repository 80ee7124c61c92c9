package partition

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/arloliu/divvy/types"
)

// weightOrder returns item positions sorted by (weight, position).
//
// Weight runs ascending or descending as requested; position always runs
// ascending, so equal weights keep their input order whatever sort algorithm
// is used underneath.
func weightOrder[V any, W types.Weight](data types.Sequence[types.Weighted[V, W]], descending bool) ([]int, []W, error) {
	n := data.Len()
	weights := make([]W, n)
	for i := range n {
		w := data.At(i).Weight
		if !types.IsComparable(w) {
			return nil, nil, fmt.Errorf("%w: item %d has weight %v", types.ErrInvalidWeight, i, w)
		}
		weights[i] = w
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}

	slices.SortFunc(order, func(a, b int) int {
		c := cmp.Compare(weights[a], weights[b])
		if descending {
			c = -c
		}
		if c != 0 {
			return c
		}

		return cmp.Compare(a, b)
	})

	return order, weights, nil
}
