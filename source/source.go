package source

import (
	"context"
	"fmt"
	"slices"

	"github.com/arloliu/divvy/types"
)

// Source provides the full, globally ordered input of a job.
//
// Every worker of a group must obtain identical Items.
type Source interface {
	Items(ctx context.Context) (Items, error)
}

// Items is an ordered input with optional per-item weights.
type Items struct {
	Values []string
	// Weights is parallel to Values, or nil when the input carries none.
	Weights []float64
}

// Len returns the number of items.
func (it Items) Len() int { return len(it.Values) }

// HasWeights reports whether every item carries a weight.
func (it Items) HasWeights() bool { return it.Weights != nil }

// Plain returns the values as a sequence.
func (it Items) Plain() types.Sequence[string] {
	return types.SliceOf(it.Values)
}

// Weighted returns (value, weight) rows.
//
// Returns:
//   - types.Sequence: Rows in input order
//   - error: types.ErrWeightsRequired when the input has no weights,
//     types.ErrLengthMismatch when Weights is not parallel to Values
func (it Items) Weighted() (types.Sequence[types.Weighted[string, float64]], error) {
	if !it.HasWeights() {
		return nil, fmt.Errorf("%w: input has no weights", types.ErrWeightsRequired)
	}

	return types.Zip(it.Values, it.Weights)
}

// clone returns a deep copy so callers cannot alias internal state.
func (it Items) clone() Items {
	return Items{Values: slices.Clone(it.Values), Weights: slices.Clone(it.Weights)}
}
