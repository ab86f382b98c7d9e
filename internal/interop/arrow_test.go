package interop

import (
	"bytes"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/23skdu/longbow-ragged/internal/ragged"
)

func testView(t *testing.T) *ragged.View[float32] {
	t.Helper()
	v, err := ragged.ViewFromFlattened(ragged.MustArray([]float32{
		1, 2,
		3, 4,
		5, 6,
		7, 8,
	}, 4, 2), []int64{3, 0, 1})
	require.NoError(t, err)
	return v
}

func TestBuildRecordBatch(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)
	builder := NewRecordBatchBuilder(mem)

	rb, err := BuildRecordBatch(builder, testView(t))
	require.NoError(t, err)
	defer rb.Release()

	assert.Equal(t, int64(3), rb.NumRows())
	assert.Equal(t, int64(1), rb.NumCols())
	assert.Equal(t, SequencesColumn, rb.ColumnName(0))
	assert.True(t, arrow.TypeEqual(SequenceType[float32](2), rb.Column(0).DataType()))

	listArr := rb.Column(0).(*array.List)
	assert.Equal(t, []int32{0, 3, 3, 4}, listArr.Offsets())

	items := listArr.ListValues().(*array.FixedSizeList)
	assert.Equal(t, 4, items.Len())
	values := items.ListValues().(*array.Float32)
	assert.Equal(t, []float32{1, 2, 3, 4, 5, 6, 7, 8}, values.Float32Values())
}

func TestRecordBatchRoundTrip(t *testing.T) {
	builder := NewRecordBatchBuilder(memory.NewGoAllocator())

	t.Run("Float32", func(t *testing.T) {
		v := testView(t)
		rb, err := BuildRecordBatch(builder, v)
		require.NoError(t, err)
		defer rb.Release()

		back, err := FromRecordBatch[float32](rb)
		require.NoError(t, err)
		assert.True(t, v.Equal(back), back.String())
	})

	t.Run("Window", func(t *testing.T) {
		w, err := testView(t).Slice(ragged.All(), ragged.All(), ragged.At(1))
		require.NoError(t, err)
		rb, err := BuildRecordBatch(builder, w)
		require.NoError(t, err)
		defer rb.Release()

		back, err := FromRecordBatch[float32](rb)
		require.NoError(t, err)
		arr, err := back.AsArray()
		require.NoError(t, err)
		assert.Equal(t, []float32{2, 4, 6, 8}, arr.Data)
		assert.Equal(t, []int64{3, 0, 1}, back.Lengths())
	})

	t.Run("Bool", func(t *testing.T) {
		v, err := ragged.ViewFromFlattened(ragged.MustArray([]bool{true, false, false, true}, 2, 2), []int64{1, 1})
		require.NoError(t, err)
		rb, err := BuildRecordBatch(builder, v)
		require.NoError(t, err)
		defer rb.Release()

		back, err := FromRecordBatch[bool](rb)
		require.NoError(t, err)
		assert.True(t, v.Equal(back))
	})

	t.Run("SlicedRecord", func(t *testing.T) {
		v, err := ragged.ViewFromFlattened(ragged.MustArray([]int64{1, 2, 3, 4, 5}, 5, 1), []int64{2, 1, 2})
		require.NoError(t, err)
		rb, err := BuildRecordBatch(builder, v)
		require.NoError(t, err)
		defer rb.Release()

		tail := rb.NewSlice(1, 3)
		defer tail.Release()
		back, err := FromRecordBatch[int64](tail)
		require.NoError(t, err)
		arr, err := back.AsArray()
		require.NoError(t, err)
		assert.Equal(t, []int64{3, 4, 5}, arr.Data)
		assert.Equal(t, []int64{1, 2}, back.Lengths())
	})

	t.Run("TypeMismatch", func(t *testing.T) {
		rb, err := BuildRecordBatch(builder, testView(t))
		require.NoError(t, err)
		defer rb.Release()

		_, err = FromRecordBatch[float64](rb)
		require.ErrorIs(t, err, ErrUnsupportedType)
	})
}

func TestFromRecordBatch_MissingColumn(t *testing.T) {
	mem := memory.NewGoAllocator()
	ib := array.NewInt64Builder(mem)
	defer ib.Release()
	ib.AppendValues([]int64{1}, nil)
	col := ib.NewArray()
	defer col.Release()

	schema := arrow.NewSchema([]arrow.Field{{Name: "other", Type: arrow.PrimitiveTypes.Int64}}, nil)
	rb := array.NewRecordBatch(schema, []arrow.Array{col}, 1)
	defer rb.Release()

	_, err := FromRecordBatch[int64](rb)
	require.ErrorIs(t, err, ErrMissingColumn)
}

func TestBuildPackingRecordBatch(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)
	builder := NewRecordBatchBuilder(mem)

	v, err := ragged.ViewFromFlattened(ragged.MustArray([]int64{0, 0, 0, 1}, 4, 1), []int64{3, 1})
	require.NoError(t, err)
	p := v.Padpack()
	require.NotNil(t, p)

	rb := builder.BuildPackingRecordBatch(p)
	defer rb.Release()
	assert.Equal(t, int64(2), rb.NumRows())
	assert.Equal(t, IndexColumn, rb.ColumnName(0))
	assert.Equal(t, OwnerColumn, rb.ColumnName(1))

	index := rb.Column(0).(*array.FixedSizeList).ListValues().(*array.Int64)
	assert.Equal(t, []int64{0, 1, 2, 3, 0, 0}, index.Int64Values())

	owner := rb.Column(1).(*array.FixedSizeList).ListValues().(*array.Int64)
	assert.Equal(t, 2, owner.NullN())
	assert.True(t, owner.IsNull(4))
	assert.Equal(t, int64(1), owner.Value(3))

	inverse := builder.BuildInverseArray(p)
	defer inverse.Release()
	assert.Equal(t, []int64{0, 1, 2, 3}, inverse.(*array.Int64).Int64Values())
}

func TestWriteStream(t *testing.T) {
	builder := NewRecordBatchBuilder(memory.NewGoAllocator())
	rb, err := BuildRecordBatch(builder, testView(t))
	require.NoError(t, err)
	defer rb.Release()

	var buf bytes.Buffer
	require.NoError(t, WriteStream(&buf, rb, rb))

	reader, err := ipc.NewReader(&buf)
	require.NoError(t, err)
	defer reader.Release()

	n := 0
	for reader.Next() {
		back, err := FromRecordBatch[float32](reader.Record())
		require.NoError(t, err)
		assert.True(t, testView(t).Equal(back))
		n++
	}
	require.NoError(t, reader.Err())
	assert.Equal(t, 2, n)

	assert.NoError(t, WriteStream(&buf))
}
