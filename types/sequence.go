package types

import "fmt"

// Sequence is an ordered, fixed-length, randomly-indexable collection.
//
// Partition policies are written against this capability rather than a concrete
// container, so plain slices and array-like inputs are handled uniformly. Each
// container family gets a thin adapter (SliceOf, Zip, Rows).
//
// Implementations must be safe for concurrent readers and must never reorder
// their elements.
type Sequence[T any] interface {
	// Len returns the number of elements.
	Len() int

	// At returns the element at position i, 0 <= i < Len().
	At(i int) T

	// Slice returns the contiguous view [start, end), 0 <= start <= end <= Len().
	Slice(start, end int) Sequence[T]
}

// sliceSeq adapts a plain Go slice.
type sliceSeq[T any] []T

var _ Sequence[int] = sliceSeq[int](nil)

// SliceOf wraps a slice as a Sequence without copying it.
//
// Parameters:
//   - items: Backing slice (not copied; callers must not mutate it while shares are in use)
//
// Returns:
//   - Sequence[T]: Sequence view over items
//
// Example:
//
//	seq := types.SliceOf([]string{"a", "b", "c"})
//	seq.At(1) // "b"
func SliceOf[T any](items []T) Sequence[T] {
	return sliceSeq[T](items)
}

func (s sliceSeq[T]) Len() int { return len(s) }

func (s sliceSeq[T]) At(i int) T { return s[i] }

func (s sliceSeq[T]) Slice(start, end int) Sequence[T] { return s[start:end:end] }

// stridedSeq views every step-th element of a parent sequence starting at start.
type stridedSeq[T any] struct {
	parent Sequence[T]
	start  int
	step   int
	n      int
}

// Strided returns the view parent[start], parent[start+step], parent[start+2*step], ...
//
// The view is empty when start >= parent.Len().
//
// Parameters:
//   - parent: Underlying sequence
//   - start: First position (>= 0)
//   - step: Distance between successive positions (>= 1)
//
// Returns:
//   - Sequence[T]: Strided view preserving the parent's relative order
func Strided[T any](parent Sequence[T], start, step int) Sequence[T] {
	if step < 1 {
		panic(fmt.Sprintf("types: stride step must be >= 1, got %d", step))
	}

	n := 0
	if start < parent.Len() {
		n = (parent.Len()-start-1)/step + 1
	}

	return &stridedSeq[T]{parent: parent, start: start, step: step, n: n}
}

func (s *stridedSeq[T]) Len() int { return s.n }

func (s *stridedSeq[T]) At(i int) T {
	if i < 0 || i >= s.n {
		panic(fmt.Sprintf("types: strided index %d out of range [0,%d)", i, s.n))
	}

	return s.parent.At(s.start + i*s.step)
}

func (s *stridedSeq[T]) Slice(start, end int) Sequence[T] {
	if start < 0 || end < start || end > s.n {
		panic(fmt.Sprintf("types: strided slice [%d:%d] out of range [0,%d]", start, end, s.n))
	}

	return &stridedSeq[T]{parent: s.parent, start: s.start + start*s.step, step: s.step, n: end - start}
}

// Collect copies a sequence into a new slice.
//
// Returns:
//   - []T: Fresh slice with the sequence's elements in order (never nil)
func Collect[T any](seq Sequence[T]) []T {
	out := make([]T, seq.Len())
	for i := range out {
		out[i] = seq.At(i)
	}

	return out
}
