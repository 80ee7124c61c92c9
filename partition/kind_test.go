package partition

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/divvy/types"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		input string
		want  Kind
	}{
		{"duplicate", KindDuplicate},
		{"equal-length", KindEqualLength},
		{"EQUAL_STRIDE", KindEqualStride},
		{" sorted-stride ", KindSortedStride},
		{"weight_balanced", KindWeightBalanced},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseKind(tt.input)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}

	t.Run("unknown name", func(t *testing.T) {
		_, err := ParseKind("round-robin")
		require.ErrorIs(t, err, types.ErrUnknownPolicy)
	})
}

func TestKind_String(t *testing.T) {
	for _, k := range Kinds() {
		parsed, err := ParseKind(k.String())
		require.NoError(t, err)
		require.Equal(t, k, parsed)
	}
	require.Equal(t, "Kind(42)", Kind(42).String())
}

func TestFor(t *testing.T) {
	t.Run("weighted kinds need weights", func(t *testing.T) {
		_, err := For[int](KindSortedStride)
		require.ErrorIs(t, err, types.ErrWeightsRequired)
		_, err = For[int](KindWeightBalanced)
		require.ErrorIs(t, err, types.ErrWeightsRequired)
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, err := For[int](Kind(99))
		require.ErrorIs(t, err, types.ErrUnknownPolicy)
		_, err = ForWeighted[int, int](Kind(99))
		require.ErrorIs(t, err, types.ErrUnknownPolicy)
	})

	t.Run("lifted plain policy returns values", func(t *testing.T) {
		items, err := types.Zip([]string{"a", "b", "c", "d", "e"}, []int{5, 4, 3, 2, 1})
		require.NoError(t, err)

		policy, err := ForWeighted[string, int](KindEqualLength)
		require.NoError(t, err)
		share, err := policy.Share(items, 0, 2)
		require.NoError(t, err)
		require.Equal(t, []string{"a", "b", "c"}, types.Collect(share))
	})
}
