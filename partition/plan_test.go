package partition

import (
	"math/rand/v2"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/arloliu/divvy/types"
)

func TestPlan_CoverageProperty(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))

	for trial := range 50 {
		n := rng.IntN(40)
		size := 1 + rng.IntN(12)
		data := Positions(n)

		weights := make([]int, n)
		for i := range weights {
			weights[i] = rng.IntN(5) // many ties on purpose
		}
		items, err := types.Zip(types.Collect(data), weights)
		require.NoError(t, err)

		for _, kind := range []Kind{KindEqualLength, KindEqualStride, KindSortedStride, KindWeightBalanced} {
			policy, err := ForWeighted[int, int](kind)
			require.NoError(t, err)

			shares, err := PlanWeighted(policy, items, size)
			require.NoError(t, err)
			require.Len(t, shares, size)

			collected := make([][]int, size)
			for i, s := range shares {
				collected[i] = types.Collect(s)
			}
			require.NoError(t, CheckCoverage(collected, n), "trial %d kind %s n=%d size=%d", trial, kind, n, size)
		}
	}
}

func TestPlan_EqualLengthBlockSizes(t *testing.T) {
	for n := range 30 {
		for size := 1; size <= 8; size++ {
			shares, err := Plan[int](NewEqualLength[int](), Positions(n), size)
			require.NoError(t, err)

			for i, s := range shares {
				want := n / size
				if i < n%size {
					want++
				}
				require.Equal(t, want, s.Len(), "n=%d size=%d index=%d", n, size, i)
			}
		}
	}
}

func TestSortedStride_MatchesStrideOfSortedValues(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 5))

	for range 30 {
		n := rng.IntN(25)
		size := 1 + rng.IntN(6)
		values := make([]int, n)
		weights := make([]float64, n)
		for i := range values {
			values[i] = i
			weights[i] = float64(rng.IntN(4)) / 2
		}
		items, err := types.Zip(values, weights)
		require.NoError(t, err)

		sorted := append([]int(nil), values...)
		sort.SliceStable(sorted, func(a, b int) bool { return weights[sorted[a]] < weights[sorted[b]] })

		for idx := range size {
			got, err := NewSortedStride[int, float64]().Share(items, idx, size)
			require.NoError(t, err)
			want, err := NewEqualStride[int]().Share(types.SliceOf(sorted), idx, size)
			require.NoError(t, err)
			require.Equal(t, types.Collect(want), types.Collect(got))
		}
	}
}

// referenceGreedy replays the balancing rule with a plain linear scan.
func referenceGreedy(weights []int, size int) [][]int {
	order := make([]int, len(weights))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return weights[order[a]] > weights[order[b]] })

	loads := make([]int, size)
	shares := make([][]int, size)
	for _, pos := range order {
		best := 0
		for w := 1; w < size; w++ {
			if loads[w] < loads[best] {
				best = w
			}
		}
		shares[best] = append(shares[best], pos)
		loads[best] += weights[pos]
	}

	return shares
}

func TestWeightBalanced_MatchesReferenceSimulation(t *testing.T) {
	rng := rand.New(rand.NewPCG(13, 17))

	for range 40 {
		n := rng.IntN(50)
		size := 1 + rng.IntN(10)
		weights := make([]int, n)
		for i := range weights {
			weights[i] = rng.IntN(20)
		}
		items, err := types.Zip(types.Collect(Positions(n)), weights)
		require.NoError(t, err)

		want := referenceGreedy(weights, size)
		for idx := range size {
			got, err := NewWeightBalanced[int, int]().Share(items, idx, size)
			require.NoError(t, err)

			expected := want[idx]
			if expected == nil {
				expected = []int{}
			}
			require.Equal(t, expected, types.Collect(got), "n=%d size=%d index=%d", n, size, idx)
		}
	}
}

func TestCheckCoverage(t *testing.T) {
	t.Run("valid partition", func(t *testing.T) {
		require.NoError(t, CheckCoverage([][]int{{0, 2}, {1}, {}}, 3))
	})

	t.Run("reports every violation", func(t *testing.T) {
		err := CheckCoverage([][]int{{0, 0}, {5}}, 3)
		require.ErrorIs(t, err, types.ErrIncompletePartition)
		// duplicate 0, out-of-range 5, missing 1 and 2
		require.Len(t, multierr.Errors(err), 4)
	})
}

func TestPlan_InvalidSize(t *testing.T) {
	_, err := Plan[int](NewEqualStride[int](), Positions(3), 0)
	require.ErrorIs(t, err, types.ErrOutOfRange)
}
