package partition

import (
	"fmt"

	"go.uber.org/multierr"

	"github.com/arloliu/divvy/types"
)

// Plan computes every worker's share by evaluating policy once per index.
//
// This is what a manager does before handing shares out; each entry equals
// the share that worker would compute for itself.
//
// Returns:
//   - []types.Sequence[T]: Share of worker i at position i
//   - error: First policy error encountered
func Plan[T any](policy Policy[T], data types.Sequence[T], size int) ([]types.Sequence[T], error) {
	if err := ValidateBounds(0, size); err != nil {
		return nil, err
	}

	shares := make([]types.Sequence[T], size)
	for i := range size {
		share, err := policy.Share(data, i, size)
		if err != nil {
			return nil, fmt.Errorf("worker %d: %w", i, err)
		}
		shares[i] = share
	}

	return shares, nil
}

// PlanWeighted is Plan for weighted policies.
func PlanWeighted[V any, W types.Weight](policy WeightedPolicy[V, W], data types.Sequence[types.Weighted[V, W]], size int) ([]types.Sequence[V], error) {
	if err := ValidateBounds(0, size); err != nil {
		return nil, err
	}

	shares := make([]types.Sequence[V], size)
	for i := range size {
		share, err := policy.Share(data, i, size)
		if err != nil {
			return nil, fmt.Errorf("worker %d: %w", i, err)
		}
		shares[i] = share
	}

	return shares, nil
}

// Positions returns the sequence 0, 1, ..., n-1.
//
// Partitioning Positions(n) with a policy yields the original positions each
// worker owns, which CheckCoverage can then verify.
func Positions(n int) types.Sequence[int] {
	pos := make([]int, n)
	for i := range pos {
		pos[i] = i
	}

	return types.SliceOf(pos)
}

// CheckCoverage verifies that shares of original positions form a true
// partition of [0, n): every position appears in exactly one share.
//
// All violations are reported, not just the first.
//
// Returns:
//   - error: nil, or a multierr combination of ErrIncompletePartition errors
func CheckCoverage(shares [][]int, n int) error {
	owner := make([]int, n)
	for i := range owner {
		owner[i] = -1
	}

	var errs error
	for worker, share := range shares {
		for _, pos := range share {
			if pos < 0 || pos >= n {
				errs = multierr.Append(errs, fmt.Errorf("%w: worker %d holds position %d outside [0,%d)", types.ErrIncompletePartition, worker, pos, n))
				continue
			}
			if owner[pos] >= 0 {
				errs = multierr.Append(errs, fmt.Errorf("%w: position %d held by workers %d and %d", types.ErrIncompletePartition, pos, owner[pos], worker))
				continue
			}
			owner[pos] = worker
		}
	}

	for pos, w := range owner {
		if w < 0 {
			errs = multierr.Append(errs, fmt.Errorf("%w: position %d unassigned", types.ErrIncompletePartition, pos))
		}
	}

	return errs
}
