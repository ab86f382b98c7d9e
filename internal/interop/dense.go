package interop

import (
	"fmt"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/23skdu/longbow-ragged/internal/ragged"
)

// DensePool provides pooled matrices for padded batches.
type DensePool struct {
	pool sync.Pool
}

// Pool is the process-wide pool used when callers pass nil.
var Pool = &DensePool{}

// Get returns a zeroed rows x cols matrix, reusing pooled storage when it
// is large enough.
func (p *DensePool) Get(rows, cols int) *mat.Dense {
	if v := p.pool.Get(); v != nil {
		m := v.(*mat.Dense)
		raw := m.RawMatrix().Data
		if cap(raw) >= rows*cols {
			raw = raw[:rows*cols]
			for i := range raw {
				raw[i] = 0
			}
			return mat.NewDense(rows, cols, raw)
		}
	}
	return mat.NewDense(rows, cols, nil)
}

// Put returns a matrix to the pool.
func (p *DensePool) Put(m *mat.Dense) {
	if m != nil {
		p.pool.Put(m)
	}
}

// ToDense copies the items of v into an (items, features) matrix and
// returns it with the sequence lengths. Windows are materialized first.
func ToDense(v *ragged.View[float64]) (*mat.Dense, []int64, error) {
	m := v.Materialize()
	arr, err := m.AsArray()
	if err != nil {
		return nil, nil, err
	}
	rows, cols := arr.Shape[0], arr.Shape[1]
	if rows == 0 || cols == 0 {
		return nil, nil, fmt.Errorf("%w: dense export of %d items with %d features", ragged.ErrEmptyInput, rows, cols)
	}
	return mat.NewDense(rows, cols, arr.Data), m.Lengths(), nil
}

// FromDense builds a view from the rows of m split by lengths.
func FromDense(m mat.Matrix, lengths []int64) (*ragged.View[float64], error) {
	d := mat.DenseCopyOf(m)
	rows, cols := d.Dims()
	a, err := ragged.NewArray(d.RawMatrix().Data, rows, cols)
	if err != nil {
		return nil, err
	}
	return ragged.ViewFromFlattened(a, lengths)
}

// PadDense lays the items of v out in the packed grid p as a
// (Batch*Seq, features) matrix taken from pool, with zero padding rows.
// Return the matrix to the pool once done.
func PadDense(v *ragged.View[float64], p *ragged.Packing, pool *DensePool) (*mat.Dense, error) {
	if pool == nil {
		pool = Pool
	}
	features := v.Size2()
	if p.Batch == 0 || p.Seq == 0 || features == 0 {
		return nil, fmt.Errorf("%w: padded batch of %d x %d cells with %d features", ragged.ErrEmptyInput, p.Batch, p.Seq, features)
	}
	gathered, err := v.PadGather(p, 0)
	if err != nil {
		return nil, err
	}
	m := pool.Get(p.Batch*p.Seq, features)
	copy(m.RawMatrix().Data, gathered)
	return m, nil
}

// UnpadDense scatters the rows of a padded batch matrix back into the
// ragged layout recorded by p.
func UnpadDense(p *ragged.Packing, m *mat.Dense) (*ragged.View[float64], error) {
	rows, cols := m.Dims()
	if rows != p.Batch*p.Seq {
		return nil, fmt.Errorf("%w: padded matrix has %d rows, expected %d x %d", ragged.ErrShapeMismatch, rows, p.Batch, p.Seq)
	}
	raw := m.RawMatrix()
	if raw.Stride != cols {
		raw = mat.DenseCopyOf(m).RawMatrix()
	}
	b, err := ragged.Unpad(p, raw.Data[:rows*cols], cols)
	if err != nil {
		return nil, err
	}
	return ragged.Wrap(b), nil
}
