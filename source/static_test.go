package source

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/divvy/types"
)

func TestStatic_Items(t *testing.T) {
	t.Run("returns all items", func(t *testing.T) {
		items := Items{Values: []string{"a", "b", "c"}, Weights: []float64{3, 2, 1}}
		src := NewStatic(items)

		result, err := src.Items(context.Background())

		require.NoError(t, err)
		require.Equal(t, items, result)
		require.Equal(t, 3, result.Len())
		require.True(t, result.HasWeights())
	})

	t.Run("returns empty input", func(t *testing.T) {
		src := NewStatic(Items{Values: []string{}})

		result, err := src.Items(context.Background())

		require.NoError(t, err)
		require.Zero(t, result.Len())
		require.False(t, result.HasWeights())
	})

	t.Run("does not alias caller or result slices", func(t *testing.T) {
		values := []string{"a"}
		src := NewStatic(Items{Values: values, Weights: []float64{1}})
		values[0] = "changed"

		result, err := src.Items(context.Background())
		require.NoError(t, err)
		result.Weights[0] = 999

		again, _ := src.Items(context.Background())
		require.Equal(t, "a", again.Values[0])
		require.InDelta(t, 1.0, again.Weights[0], 0)
	})
}

func TestStatic_Update(t *testing.T) {
	src := NewStatic(Items{Values: []string{"a"}})
	src.Update(Items{Values: []string{"b", "c"}})

	result, err := src.Items(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"b", "c"}, result.Values)
}

func TestItems_Sequences(t *testing.T) {
	items := Items{Values: []string{"a", "b"}, Weights: []float64{2, 1}}

	require.Equal(t, []string{"a", "b"}, types.Collect(items.Plain()))

	rows, err := items.Weighted()
	require.NoError(t, err)
	require.Equal(t, types.Weighted[string, float64]{Value: "b", Weight: 1}, rows.At(1))

	_, err = Items{Values: []string{"a"}}.Weighted()
	require.ErrorIs(t, err, types.ErrWeightsRequired)

	_, err = Items{Values: []string{"a"}, Weights: []float64{1, 2}}.Weighted()
	require.ErrorIs(t, err, types.ErrLengthMismatch)
}
