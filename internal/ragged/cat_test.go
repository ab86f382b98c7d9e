package ragged

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCat_Sequences(t *testing.T) {
	a := mustFlattened(t, []int64{1, 2, 3}, 1, 2, 1)
	b := mustFlattened(t, []int64{4, 5}, 1, 0, 2)

	got, err := Cat([]*Buffer[int64]{a, b}, 0)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 1, 0, 2}, got.Lengths())
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, got.AsArray().Data)
	assert.Equal(t, a.Size0()+b.Size0(), got.Size0())

	_, err = Cat([]*Buffer[int64]{a, NewBuffer[int64](2)}, 0)
	require.ErrorIs(t, err, ErrFeatureMismatch)
}

func TestCat_Items(t *testing.T) {
	entities1 := mustFlattened(t, make([]float32, 6*64), 64, 3, 1, 2)
	entities2 := mustFlattened(t, make([]float32, 3*64), 64, 1, 2, 0)

	bi2, err := entities2.Indices(0)
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 1, 1}, bi2.AsArray().Data)

	flati1 := entities1.FlatIndices()
	flati2 := OpScalar(entities2.FlatIndices(), 6, Add[int64]{})

	got, err := Cat([]*Buffer[int64]{flati1, flati2, flati1, flati2}, 1)
	require.NoError(t, err)
	assert.Equal(t,
		[]int64{0, 1, 2, 6, 0, 1, 2, 6, 3, 7, 8, 3, 7, 8, 4, 5, 4, 5},
		got.AsArray().Data, got.String())
	assert.Equal(t, []int64{8, 6, 4}, got.Lengths())

	_, err = Cat([]*Buffer[int64]{flati1, mustFlattened(t, []int64{1}, 1, 1)}, 1)
	require.ErrorIs(t, err, ErrShapeMismatch)
}

func TestCat_FeaturesBroadcast(t *testing.T) {
	entities := mustFlattened(t, []float32{
		10, 3, 10, 1,
		11, 4, 11, 2,
		12, 5, 12, 3,
		13, 4, 13, 6,
		14, 5, 14, 7,
		15, 18, 15, 16,
	}, 4, 3, 0, 2, 1)
	global, err := FromArray(MustArray([]float32{0, 1, 2, 3}, 4, 1, 1))
	require.NoError(t, err)

	got, err := Cat([]*Buffer[float32]{entities, global}, 2)
	require.NoError(t, err)
	assert.Equal(t, []float32{
		10, 3, 10, 1, 0,
		11, 4, 11, 2, 0,
		12, 5, 12, 3, 0,
		13, 4, 13, 6, 2,
		14, 5, 14, 7, 2,
		15, 18, 15, 16, 3,
	}, got.AsArray().Data)
	assert.Equal(t, []int64{3, 0, 2, 1}, got.Lengths())
	assert.Equal(t, 5, got.Size2())
}

func TestCat_FeaturesMismatch(t *testing.T) {
	a := mustFlattened(t, make([]float32, 3), 1, 3)
	b := mustFlattened(t, make([]float32, 2), 1, 2)

	_, err := Cat([]*Buffer[float32]{a, b}, 2)
	require.ErrorIs(t, err, ErrShapeMismatch)
	assert.Contains(t, err.Error(), "operand 1")
}

func TestCat_InvalidInput(t *testing.T) {
	_, err := Cat[float32](nil, 0)
	require.ErrorIs(t, err, ErrEmptyInput)

	_, err = Cat([]*Buffer[float32]{NewBuffer[float32](1)}, 3)
	require.ErrorIs(t, err, ErrInvalidAxis)
}
