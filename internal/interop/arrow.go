package interop

import (
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/23skdu/longbow-ragged/internal/ragged"
)

const (
	// SequencesColumn holds one list<fixed_size_list<T>[F]> row per sequence.
	SequencesColumn = "sequences"
	IndexColumn     = "index"
	OwnerColumn     = "owner"
)

var (
	ErrUnsupportedType = errors.New("interop: unsupported arrow type")
	ErrMissingColumn   = errors.New("interop: missing column")
)

// RecordBatchBuilder converts ragged views and packings into Arrow record batches.
type RecordBatchBuilder struct {
	mem memory.Allocator
}

// NewRecordBatchBuilder creates a new builder.
func NewRecordBatchBuilder(mem memory.Allocator) *RecordBatchBuilder {
	return &RecordBatchBuilder{mem: mem}
}

func elementType[T ragged.Element]() arrow.DataType {
	var zero T
	switch any(zero).(type) {
	case float32:
		return arrow.PrimitiveTypes.Float32
	case float64:
		return arrow.PrimitiveTypes.Float64
	case int64:
		return arrow.PrimitiveTypes.Int64
	default:
		return arrow.FixedWidthTypes.Boolean
	}
}

// SequenceType is the Arrow type of the sequences column for F features.
func SequenceType[T ragged.Element](features int) arrow.DataType {
	return arrow.ListOf(arrow.FixedSizeListOf(int32(features), elementType[T]()))
}

// BuildRecordBatch exports v as a single-column record batch with one row
// per sequence. Windows are materialized first. The caller releases the
// result.
func BuildRecordBatch[T ragged.Element](b *RecordBatchBuilder, v *ragged.View[T]) (arrow.RecordBatch, error) {
	m := v.Materialize()
	arr, err := m.AsArray()
	if err != nil {
		return nil, err
	}
	lengths := m.Lengths()
	features := m.Size2()

	schema := arrow.NewSchema(
		[]arrow.Field{
			{Name: SequencesColumn, Type: SequenceType[T](features)},
		},
		nil,
	)

	listBuilder := array.NewListBuilder(b.mem, arrow.FixedSizeListOf(int32(features), elementType[T]()))
	defer listBuilder.Release()
	itemBuilder := listBuilder.ValueBuilder().(*array.FixedSizeListBuilder)

	item := 0
	for _, l := range lengths {
		listBuilder.Append(true)
		for range l {
			itemBuilder.Append(true)
			appendValues(itemBuilder.ValueBuilder(), arr.Data[item*features:(item+1)*features])
			item++
		}
	}

	col := listBuilder.NewArray()
	defer col.Release()

	return array.NewRecordBatch(schema, []arrow.Array{col}, int64(len(lengths))), nil
}

func appendValues[T ragged.Element](b array.Builder, values []T) {
	switch vb := b.(type) {
	case *array.Float32Builder:
		vb.AppendValues(any(values).([]float32), nil)
	case *array.Float64Builder:
		vb.AppendValues(any(values).([]float64), nil)
	case *array.Int64Builder:
		vb.AppendValues(any(values).([]int64), nil)
	case *array.BooleanBuilder:
		vb.AppendValues(any(values).([]bool), nil)
	}
}

// FromRecordBatch imports the sequences column of rec. Null rows become
// empty sequences.
func FromRecordBatch[T ragged.Element](rec arrow.RecordBatch) (*ragged.View[T], error) {
	idx := rec.Schema().FieldIndices(SequencesColumn)
	if len(idx) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrMissingColumn, SequencesColumn)
	}
	list, ok := rec.Column(idx[0]).(*array.List)
	if !ok {
		return nil, fmt.Errorf("%w: column %q is %s", ErrUnsupportedType, SequencesColumn, rec.Column(idx[0]).DataType())
	}
	items, ok := list.ListValues().(*array.FixedSizeList)
	if !ok {
		return nil, fmt.Errorf("%w: column %q holds %s", ErrUnsupportedType, SequencesColumn, list.ListValues().DataType())
	}
	features := int(items.DataType().(*arrow.FixedSizeListType).Len())
	values, err := valuesOf[T](items.ListValues())
	if err != nil {
		return nil, err
	}

	lengths := make([]int64, list.Len())
	var data []T
	base := items.Data().Offset()
	for i := range lengths {
		if list.IsNull(i) {
			continue
		}
		start, end := list.ValueOffsets(i)
		lengths[i] = end - start
		data = append(data, values[(base+int(start))*features:(base+int(end))*features]...)
	}
	rows := 0
	for _, l := range lengths {
		rows += int(l)
	}
	if data == nil {
		data = []T{}
	}
	a, err := ragged.NewArray(data, rows, features)
	if err != nil {
		return nil, err
	}
	return ragged.ViewFromFlattened(a, lengths)
}

func valuesOf[T ragged.Element](arr arrow.Array) ([]T, error) {
	var out any
	switch a := arr.(type) {
	case *array.Float32:
		out = a.Float32Values()
	case *array.Float64:
		out = a.Float64Values()
	case *array.Int64:
		out = a.Int64Values()
	case *array.Boolean:
		bs := make([]bool, a.Len())
		for i := range bs {
			bs[i] = a.Value(i)
		}
		out = bs
	}
	v, ok := out.([]T)
	if !ok {
		return nil, fmt.Errorf("%w: values of type %s", ErrUnsupportedType, arr.DataType())
	}
	return slices.Clone(v), nil
}

// BuildPackingRecordBatch exports p as one row per packed slot with the
// gathered item indices and their owning sequences. Padding cells have a
// null owner.
func (b *RecordBatchBuilder) BuildPackingRecordBatch(p *ragged.Packing) arrow.RecordBatch {
	seq := int32(p.Seq)
	schema := arrow.NewSchema(
		[]arrow.Field{
			{Name: IndexColumn, Type: arrow.FixedSizeListOf(seq, arrow.PrimitiveTypes.Int64)},
			{Name: OwnerColumn, Type: arrow.FixedSizeListOf(seq, arrow.PrimitiveTypes.Int64)},
		},
		nil,
	)

	indexBuilder := array.NewFixedSizeListBuilder(b.mem, seq, arrow.PrimitiveTypes.Int64)
	defer indexBuilder.Release()
	ownerBuilder := array.NewFixedSizeListBuilder(b.mem, seq, arrow.PrimitiveTypes.Int64)
	defer ownerBuilder.Release()
	indexValues := indexBuilder.ValueBuilder().(*array.Int64Builder)
	ownerValues := ownerBuilder.ValueBuilder().(*array.Int64Builder)

	mask := p.Mask()
	for slot := range p.Batch {
		lo, hi := slot*p.Seq, (slot+1)*p.Seq
		indexBuilder.Append(true)
		indexValues.AppendValues(p.Index[lo:hi], nil)
		ownerBuilder.Append(true)
		ownerValues.AppendValues(p.Owner[lo:hi], mask[lo:hi])
	}

	indexArr := indexBuilder.NewArray()
	defer indexArr.Release()
	ownerArr := ownerBuilder.NewArray()
	defer ownerArr.Release()

	return array.NewRecordBatch(schema, []arrow.Array{indexArr, ownerArr}, int64(p.Batch))
}

// BuildInverseArray exports the per-item cell index of p. The caller
// releases the result.
func (b *RecordBatchBuilder) BuildInverseArray(p *ragged.Packing) arrow.Array {
	ib := array.NewInt64Builder(b.mem)
	defer ib.Release()
	ib.AppendValues(p.Inverse, nil)
	return ib.NewArray()
}

// WriteStream writes records as an Arrow IPC stream sharing the schema of
// the first record.
func WriteStream(w io.Writer, records ...arrow.RecordBatch) error {
	if len(records) == 0 {
		return nil
	}
	writer := ipc.NewWriter(w, ipc.WithSchema(records[0].Schema()))
	for _, rec := range records {
		if err := writer.Write(rec); err != nil {
			_ = writer.Close()
			return err
		}
	}
	return writer.Close()
}
