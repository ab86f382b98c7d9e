package ragged

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBinOpMut_SubtractOrigin(t *testing.T) {
	origin, err := ViewFromArray(MustArray([]float32{
		0, 0, 100, -23,
		1, -1, 200, -23,
		2, -2, 300, -23,
		-10, -10, 400, -23,
	}, 4, 1, 4))
	require.NoError(t, err)
	entities := entitiesView(t)
	clone := entities.DeepClone()

	slice := mustSlice(t, entities, All(), All(), Perm(1, 3))
	require.NoError(t, BinOpMut(slice, mustSlice(t, origin, All(), All(), Perm(0, 1)), Sub[float32]{}))

	want, err := ViewFromFlattened(rows2([]float32{
		10, 3, 10, 1,
		11, 4, 11, 2,
		12, 5, 12, 3,
		13, 4, 13, 6,
		14, 5, 14, 7,
		15, 18, 15, 16,
	}, 4), []int64{3, 0, 2, 1})
	require.NoError(t, err)
	assert.True(t, want.Equal(entities), entities.String())

	n, err := entities.Len()
	require.NoError(t, err)
	assert.Equal(t, 24, n)
	assert.Equal(t, 6, entities.Items())
	assert.False(t, clone.Equal(entities))
}

func TestBinOpMut_ContiguousOperands(t *testing.T) {
	lhs, err := ViewFromFlattened(MustArray([]int64{1, 2, 3}, 3, 1), []int64{2, 1})
	require.NoError(t, err)
	rhs, err := ViewFromArray(MustArray([]int64{10, 20}, 2, 1, 1))
	require.NoError(t, err)

	require.NoError(t, BinOpMut(lhs, rhs, Add[int64]{}))
	arr, err := lhs.AsArray()
	require.NoError(t, err)
	assert.Equal(t, []int64{11, 12, 23}, arr.Data)
}

func TestBinOpMut_SameBuffer(t *testing.T) {
	v, err := ViewFromFlattened(MustArray([]float64{1, 2, 3, 4}, 2, 2), []int64{1, 1})
	require.NoError(t, err)

	left := mustSlice(t, v, All(), All(), At(0))
	right := mustSlice(t, v, All(), All(), At(1))
	require.NoError(t, BinOpMut(left, right, Mul[float64]{}))

	arr, err := v.AsArray()
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 2, 12, 4}, arr.Data)
}

func TestBinOpMut_MismatchLeavesLhsUntouched(t *testing.T) {
	lhs, err := ViewFromFlattened(MustArray([]float32{1, 2, 3, 4, 5}, 5, 1), []int64{3, 2})
	require.NoError(t, err)
	before := lhs.DeepClone()

	t.Run("ItemCount", func(t *testing.T) {
		rhs, err := ViewFromFlattened(MustArray([]float32{1, 1, 1, 1, 1}, 5, 1), []int64{1, 4})
		require.NoError(t, err)
		err = BinOpMut(lhs, rhs, Add[float32]{})
		require.ErrorIs(t, err, ErrShapeMismatch)
		assert.Contains(t, err.Error(), "sequence 1")
		assert.True(t, before.Equal(lhs))
	})

	t.Run("SequenceCount", func(t *testing.T) {
		rhs, err := ViewFromArray(MustArray([]float32{1}, 1, 1, 1))
		require.NoError(t, err)
		require.ErrorIs(t, BinOpMut(lhs, rhs, Add[float32]{}), ErrShapeMismatch)
		assert.True(t, before.Equal(lhs))
	})

	t.Run("Features", func(t *testing.T) {
		rhs, err := ViewFromArray(MustArray([]float32{1, 1, 1, 1}, 2, 1, 2))
		require.NoError(t, err)
		require.ErrorIs(t, BinOpMut(lhs, rhs, Add[float32]{}), ErrShapeMismatch)
		assert.True(t, before.Equal(lhs))
	})
}

func TestTranslateRotate(t *testing.T) {
	h := float32(math.Sqrt(2) / 2)
	origin, err := ViewFromArray(MustArray([]float32{
		0, 0, 100, -23, 1, 0,
		1, -1, 200, -23, 1, 0,
		2, -2, 300, -23, h, -h,
		-10, -10, 400, -23, -1, 0,
	}, 4, 1, 6))
	require.NoError(t, err)
	entities := entitiesView(t)

	err = TranslateRotate(
		mustSlice(t, entities, All(), All(), Perm(1, 3)),
		mustSlice(t, origin, All(), All(), Perm(0, 1)),
		mustSlice(t, origin, All(), All(), Perm(4, 5)),
	)
	require.NoError(t, err)

	arr, err := entities.AsArray()
	require.NoError(t, err)
	want := []float32{
		10, 3, 10, 1,
		11, 4, 11, 2,
		12, 5, 12, 3,
		13, -1.4142134, 13, 7.071068,
		14, -1.4142137, 14, 8.485281,
		15, -18, 15, -16,
	}
	require.Len(t, arr.Data, len(want))
	for i := range want {
		assert.InDelta(t, want[i], arr.Data[i], 1e-5, "element %d", i)
	}
}

func TestTranslateRotate_Errors(t *testing.T) {
	origin, err := ViewFromArray(MustArray([]float64{
		0, 0, 1, 0,
		0, 0, 1, 0,
	}, 2, 1, 4))
	require.NoError(t, err)
	source, err := ViewFromFlattened(MustArray([]float64{1, 2, 3, 4, 5, 6}, 3, 2), []int64{2, 1})
	require.NoError(t, err)
	translation := mustSlice(t, origin, All(), All(), Span(0, 2))
	rotation := mustSlice(t, origin, All(), All(), Span(2, 4))

	tests := []struct {
		name                  string
		source, trans, rotate *View[float64]
	}{
		{"SequenceWindow", mustSlice(t, source, At(0), All(), All()), translation, rotation},
		{"ItemWindow", mustSlice(t, source, All(), At(0), All()), translation, rotation},
		{"Features", mustSlice(t, source, All(), All(), At(0)), translation, rotation},
		{"TooManyTranslations", source, mustSlice(t, source, All(), All(), All()), rotation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := TranslateRotate(tt.source, tt.trans, tt.rotate)
			require.ErrorIs(t, err, ErrShapeMismatch)
			assert.Contains(t, err.Error(), "rotation (2 sequences, lengths [1 1], 2 features)")
		})
	}

	require.NoError(t, TranslateRotate(source, translation, rotation))
	arr, err := source.AsArray()
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, arr.Data)
}
