package types

import "fmt"

// Weight is the set of numeric types usable as item weights.
//
// Weights must support addition and comparison. Floating-point NaN is the
// only value that violates this and is rejected with ErrInvalidWeight.
type Weight interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// Weighted pairs a value with its processing cost.
type Weighted[V any, W Weight] struct {
	Value  V `json:"value"`
	Weight W `json:"weight"`
}

// IsComparable reports whether w can be ordered against other weights.
//
// Only NaN fails this check; every other value of a Weight type is totally ordered.
func IsComparable[W Weight](w W) bool {
	return w == w //nolint:gocritic // NaN is the only value not equal to itself
}

// zipSeq views two parallel columns as (value, weight) rows.
type zipSeq[V any, W Weight] struct {
	values  []V
	weights []W
}

// Zip views two parallel arrays as a sequence of (value, weight) rows.
//
// Parameters:
//   - values: Value column
//   - weights: Weight column (same length as values)
//
// Returns:
//   - Sequence[Weighted[V, W]]: Row view over both columns (no copy)
//   - error: ErrLengthMismatch if the columns differ in length
//
// Example:
//
//	seq, err := types.Zip([]string{"a", "b"}, []float64{2.5, 1})
func Zip[V any, W Weight](values []V, weights []W) (Sequence[Weighted[V, W]], error) {
	if len(values) != len(weights) {
		return nil, fmt.Errorf("%w: %d values, %d weights", ErrLengthMismatch, len(values), len(weights))
	}

	return zipSeq[V, W]{values: values, weights: weights}, nil
}

func (z zipSeq[V, W]) Len() int { return len(z.values) }

func (z zipSeq[V, W]) At(i int) Weighted[V, W] {
	return Weighted[V, W]{Value: z.values[i], Weight: z.weights[i]}
}

func (z zipSeq[V, W]) Slice(start, end int) Sequence[Weighted[V, W]] {
	return zipSeq[V, W]{values: z.values[start:end:end], weights: z.weights[start:end:end]}
}

// rowsSeq views a numeric two-column array.
type rowsSeq[W Weight] [][2]W

// Rows views a numeric two-column array as (value, weight) rows.
//
// Column 0 is the value and column 1 the weight, matching the row layout
// produced by numeric array libraries.
func Rows[W Weight](rows [][2]W) Sequence[Weighted[W, W]] {
	return rowsSeq[W](rows)
}

func (r rowsSeq[W]) Len() int { return len(r) }

func (r rowsSeq[W]) At(i int) Weighted[W, W] {
	return Weighted[W, W]{Value: r[i][0], Weight: r[i][1]}
}

func (r rowsSeq[W]) Slice(start, end int) Sequence[Weighted[W, W]] {
	return r[start:end:end]
}

// valuesSeq projects the Value field of a weighted sequence.
type valuesSeq[V any, W Weight] struct {
	items Sequence[Weighted[V, W]]
}

// Values returns a view over the Value component of every item.
func Values[V any, W Weight](items Sequence[Weighted[V, W]]) Sequence[V] {
	return valuesSeq[V, W]{items: items}
}

func (v valuesSeq[V, W]) Len() int { return v.items.Len() }

func (v valuesSeq[V, W]) At(i int) V { return v.items.At(i).Value }

func (v valuesSeq[V, W]) Slice(start, end int) Sequence[V] {
	return valuesSeq[V, W]{items: v.items.Slice(start, end)}
}
