package partition

import (
	"container/heap"
	"fmt"

	"github.com/arloliu/divvy/types"
)

// WeightBalanced assigns items greedily, heaviest first, to the worker
// carrying the least cumulative weight.
//
// The algorithm (a longest-processing-time-first variant):
//  1. Order items by descending weight; equal weights keep input order
//  2. Start size accumulators at zero
//  3. Give each item to the lightest worker, lowest index on ties, and add its weight
//  4. Worker index's share is its items in assignment order
//
// The result is not globally optimal but is deterministic, so every worker
// reproduces the same global assignment and extracts its own part.
type WeightBalanced[V any, W types.Weight] struct{}

var _ WeightedPolicy[string, float64] = WeightBalanced[string, float64]{}

// NewWeightBalanced creates a greedy weight-balancing policy.
func NewWeightBalanced[V any, W types.Weight]() WeightBalanced[V, W] {
	return WeightBalanced[V, W]{}
}

// Share simulates the greedy assignment of every item and returns the
// values that land on worker index, in the order they were assigned.
//
// Zero weights are not special: such items still take an assignment slot on
// whichever worker is lightest at that moment.
//
// Returns:
//   - types.Sequence[V]: Owned values in assignment order
//   - error: ErrOutOfRange for invalid index/size, ErrInvalidWeight if a weight
//     or an accumulated load is NaN, or if an integer load overflows W
//
// Example:
//
//	items, _ := types.Zip([]int{0, 1, 2, 3, 4, 5, 6}, []int{9, 4, 1, 0, 1, 4, 9})
//	share, _ := partition.NewWeightBalanced[int, int]().Share(items, 1, 3)
//	// share holds [6 3]
func (WeightBalanced[V, W]) Share(data types.Sequence[types.Weighted[V, W]], index, size int) (types.Sequence[V], error) {
	if err := ValidateBounds(index, size); err != nil {
		return nil, err
	}

	order, weights, err := weightOrder(data, true)
	if err != nil {
		return nil, err
	}

	bins := make(binHeap[W], size)
	for i := range bins {
		bins[i] = bin[W]{worker: i}
	}
	// Zero loads ordered by worker index already satisfy the heap invariant.

	var share []V
	for _, pos := range order {
		lightest := &bins[0]
		if lightest.worker == index {
			share = append(share, data.At(pos).Value)
		}

		load, ok := addLoad(lightest.load, weights[pos])
		if !ok {
			return nil, fmt.Errorf("%w: load of worker %d overflows %T at item %d", types.ErrInvalidWeight, lightest.worker, load, pos)
		}
		if !types.IsComparable(load) {
			return nil, fmt.Errorf("%w: load of worker %d became NaN at item %d", types.ErrInvalidWeight, lightest.worker, pos)
		}
		lightest.load = load
		heap.Fix(&bins, 0)
	}

	return types.SliceOf(share), nil
}

// addLoad returns load+w and false when an integer sum wrapped around.
// Float sums saturate at ±Inf and never report overflow.
func addLoad[W types.Weight](load, w W) (W, bool) {
	sum := load + w
	if (w > 0 && sum < load) || (w < 0 && sum > load) {
		return sum, false
	}

	return sum, true
}

// bin is one worker's running load.
type bin[W types.Weight] struct {
	load   W
	worker int
}

// binHeap is a min-heap keyed by (load, worker).
type binHeap[W types.Weight] []bin[W]

func (h binHeap[W]) Len() int { return len(h) }

func (h binHeap[W]) Less(i, j int) bool {
	if h[i].load != h[j].load {
		return h[i].load < h[j].load
	}

	return h[i].worker < h[j].worker
}

func (h binHeap[W]) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *binHeap[W]) Push(x any) { *h = append(*h, x.(bin[W])) }

func (h *binHeap[W]) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]

	return item
}
