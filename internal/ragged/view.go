package ragged

import (
	"cmp"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
)

// shared is a Buffer guarded by a reader/writer lock. Several views may
// hold the same shared buffer.
type shared[T Element] struct {
	mu  sync.RWMutex
	buf *Buffer[T]
	// ord orders lock acquisition when one call locks several buffers.
	ord uint64
}

var nextOrd atomic.Uint64

func newShared[T Element](b *Buffer[T]) *shared[T] {
	return &shared[T]{buf: b, ord: nextOrd.Add(1)}
}

// acquire locks every distinct buffer once, in ordinal order: write
// exclusively (if non-nil), reads shared. A buffer passed both as write and
// read is locked exclusively. The returned func releases all locks.
func acquire[T Element](write *shared[T], reads ...*shared[T]) func() {
	type entry struct {
		s     *shared[T]
		write bool
	}
	entries := make([]entry, 0, len(reads)+1)
	add := func(s *shared[T], w bool) {
		for i := range entries {
			if entries[i].s == s {
				entries[i].write = entries[i].write || w
				return
			}
		}
		entries = append(entries, entry{s, w})
	}
	if write != nil {
		add(write, true)
	}
	for _, r := range reads {
		add(r, false)
	}
	slices.SortFunc(entries, func(a, b entry) int {
		return cmp.Compare(a.s.ord, b.s.ord)
	})
	for _, e := range entries {
		if e.write {
			e.s.mu.Lock()
		} else {
			e.s.mu.RLock()
		}
	}
	return func() {
		for i := len(entries) - 1; i >= 0; i-- {
			if entries[i].write {
				entries[i].s.mu.Unlock()
			} else {
				entries[i].s.mu.RUnlock()
			}
		}
	}
}

// View is a handle onto a shared Buffer. A view without a selection is
// contiguous and mutates the buffer in place; a view with a selection is a
// window whose elements are copied out (materialized) before most
// operations. Distinct View values may be used from different goroutines;
// a single View value must not be mutated concurrently.
type View[T Element] struct {
	inner *shared[T]
	sel   *selection
}

// NewView creates an empty contiguous view whose items are features wide.
func NewView[T Element](features int) *View[T] {
	return Wrap(NewBuffer[T](features))
}

// Wrap takes ownership of b and returns a contiguous view onto it.
func Wrap[T Element](b *Buffer[T]) *View[T] {
	return &View[T]{inner: newShared(b)}
}

// ViewFromArray builds a view from an (N, L, F) array.
func ViewFromArray[T Element](a Array[T]) (*View[T], error) {
	b, err := FromArray(a)
	if err != nil {
		return nil, err
	}
	return Wrap(b), nil
}

// ViewFromFlattened builds a view from an (items, F) array and per-sequence lengths.
func ViewFromFlattened[T Element](a Array[T], lengths []int64) (*View[T], error) {
	b, err := FromFlattened(a, lengths)
	if err != nil {
		return nil, err
	}
	return Wrap(b), nil
}

// IsWindow reports whether the view carries a selection.
func (v *View[T]) IsWindow() bool {
	return v.sel != nil
}

// Slice returns a window selecting i0 sequences, i1 items within each
// sequence and i2 features. The window shares v's buffer. Windows cannot be
// sliced again; materialize first.
func (v *View[T]) Slice(i0, i1, i2 Index) (*View[T], error) {
	if v.sel != nil {
		return nil, fmt.Errorf("%w: slicing a window, call Materialize first", ErrNotImplemented)
	}
	v.inner.mu.RLock()
	defer v.inner.mu.RUnlock()
	b := v.inner.buf
	s0, err := i0.resolve(0, len(b.subarrays), true)
	if err != nil {
		return nil, err
	}
	s1, err := i1.resolve(1, b.maxLen(), false)
	if err != nil {
		return nil, err
	}
	s2, err := i2.resolve(2, b.features, true)
	if err != nil {
		return nil, err
	}
	return &View[T]{inner: v.inner, sel: &selection{s0, s1, s2}}, nil
}

// Materialize returns a contiguous view. A window is copied into a fresh
// standalone buffer with sequences renumbered from 0; a contiguous view
// returns a new handle onto the same buffer.
func (v *View[T]) Materialize() *View[T] {
	if v.sel == nil {
		return &View[T]{inner: v.inner}
	}
	v.inner.mu.RLock()
	b := materialize(v.inner.buf, v.sel)
	v.inner.mu.RUnlock()
	return Wrap(b)
}

// Handle returns a new view sharing v's buffer and selection. Mutating a
// window handle detaches only that handle.
func (v *View[T]) Handle() *View[T] {
	return &View[T]{inner: v.inner, sel: v.sel}
}

// DeepClone copies the underlying buffer and keeps the selection.
func (v *View[T]) DeepClone() *View[T] {
	v.inner.mu.RLock()
	b := v.inner.buf.Clone()
	v.inner.mu.RUnlock()
	var sel *selection
	if v.sel != nil {
		c := *v.sel
		sel = &c
	}
	return &View[T]{inner: newShared(b), sel: sel}
}

// materialize copies the elements of b selected by sel into a new buffer.
// The caller holds at least a read lock on b.
func materialize[T Element](b *Buffer[T], sel *selection) *Buffer[T] {
	s0, s1, s2 := sel.s0, sel.s1, sel.s2
	out := &Buffer[T]{
		subarrays: make([]span, 0, s0.len()),
		features:  s2.len(),
	}
	items := 0
	if sel.ranges() {
		for i0 := s0.start; i0 < s0.end; i0 += s0.step {
			s := b.seq(i0)
			start := items
			for i1 := s1.start; i1 < min(s1.end, s.len()); i1 += s1.step {
				row := (s.start + i1) * b.features
				for i2 := s2.start; i2 < s2.end; i2 += s2.step {
					out.data = append(out.data, b.data[row+i2])
				}
				items++
			}
			out.subarrays = append(out.subarrays, span{start, items})
		}
	} else {
		var positions []int
		for k := range s0.len() {
			s := b.seq(s0.at(k))
			start := items
			positions = s1.appendPositions(positions[:0], s.len())
			for _, i1 := range positions {
				row := (s.start + i1) * b.features
				for f := range s2.len() {
					out.data = append(out.data, b.data[row+s2.at(f)])
				}
				items++
			}
			out.subarrays = append(out.subarrays, span{start, items})
		}
	}
	materializations.Inc()
	materializedItems.Add(float64(items))
	log.Debug().
		Int("sequences", len(out.subarrays)).
		Int("items", items).
		Int("features", out.features).
		Bool("fast_path", sel.ranges()).
		Msg("Materialized window")
	return out
}

// seq returns the item range of sequence i. A selector pointing past the
// buffer means the buffer shrank underneath a window.
func (b *Buffer[T]) seq(i int) span {
	if i < 0 || i >= len(b.subarrays) {
		log.Panic().Int("sequence", i).Int("size0", len(b.subarrays)).Msg("ragged: window refers to a missing sequence")
	}
	return b.subarrays[i]
}

// locked returns the elements of v as a contiguous buffer. The caller holds
// a lock on v.inner; the result must not outlive it when v is contiguous.
func (v *View[T]) locked() *Buffer[T] {
	if v.sel == nil {
		return v.inner.buf
	}
	return materialize(v.inner.buf, v.sel)
}

// read runs fn on the contiguous elements of v under a read lock.
func (v *View[T]) read(fn func(b *Buffer[T])) {
	v.inner.mu.RLock()
	defer v.inner.mu.RUnlock()
	fn(v.locked())
}

// makeContiguous replaces a window by a materialized copy of itself.
func (v *View[T]) makeContiguous() {
	if v.sel == nil {
		return
	}
	m := v.Materialize()
	v.inner = m.inner
	v.sel = nil
}

func (v *View[T]) requireContiguous(op string) error {
	if v.sel != nil {
		return fmt.Errorf("%w: %s", ErrNonContiguousView, op)
	}
	return nil
}

// Push appends a sequence from a 2-D array. A window is materialized first.
func (v *View[T]) Push(a Array[T]) error {
	v.makeContiguous()
	v.inner.mu.Lock()
	defer v.inner.mu.Unlock()
	return v.inner.buf.Push(a)
}

// PushEmpty appends an empty sequence. A window is materialized first.
func (v *View[T]) PushEmpty() {
	v.makeContiguous()
	v.inner.mu.Lock()
	defer v.inner.mu.Unlock()
	v.inner.buf.PushEmpty()
}

// Extend appends the sequences of other. A window is materialized first.
func (v *View[T]) Extend(other *View[T]) error {
	v.makeContiguous()
	var src *Buffer[T]
	other.read(func(b *Buffer[T]) {
		if other.sel == nil {
			b = b.Clone()
		}
		src = b
	})
	v.inner.mu.Lock()
	defer v.inner.mu.Unlock()
	return v.inner.buf.Extend(src)
}

// Clear removes all sequences. A window is replaced by an empty buffer.
func (v *View[T]) Clear() {
	v.makeContiguous()
	v.inner.mu.Lock()
	defer v.inner.mu.Unlock()
	v.inner.buf.Clear()
}

// AsArray exports the view as an (items, features) array.
func (v *View[T]) AsArray() (Array[T], error) {
	if err := v.requireContiguous("AsArray"); err != nil {
		return Array[T]{}, err
	}
	v.inner.mu.RLock()
	defer v.inner.mu.RUnlock()
	return v.inner.buf.AsArray(), nil
}

// Get returns sequence i as a new single-sequence view.
func (v *View[T]) Get(i int) (*View[T], error) {
	if err := v.requireContiguous("Get"); err != nil {
		return nil, err
	}
	v.inner.mu.RLock()
	defer v.inner.mu.RUnlock()
	b, err := v.inner.buf.Get(i)
	if err != nil {
		return nil, err
	}
	return Wrap(b), nil
}

// Swizzle returns a new view holding the given sequences in order.
func (v *View[T]) Swizzle(indices []int64) (*View[T], error) {
	if err := v.requireContiguous("Swizzle"); err != nil {
		return nil, err
	}
	v.inner.mu.RLock()
	defer v.inner.mu.RUnlock()
	b, err := v.inner.buf.Swizzle(indices)
	if err != nil {
		return nil, err
	}
	return Wrap(b), nil
}

// Size0 returns the number of (selected) sequences.
func (v *View[T]) Size0() int {
	if v.sel != nil {
		return v.sel.s0.len()
	}
	v.inner.mu.RLock()
	defer v.inner.mu.RUnlock()
	return v.inner.buf.Size0()
}

// Size1 returns the number of (selected) items in sequence i.
func (v *View[T]) Size1(i int) (int, error) {
	v.inner.mu.RLock()
	defer v.inner.mu.RUnlock()
	if v.sel == nil {
		return v.inner.buf.Size1(i)
	}
	if i < 0 || i >= v.sel.s0.len() {
		return 0, fmt.Errorf("%w: sequence %d of %d", ErrIndexOutOfBounds, i, v.sel.s0.len())
	}
	return v.sel.s1.clampedLen(v.inner.buf.seq(v.sel.s0.at(i)).len()), nil
}

// Size2 returns the number of (selected) features.
func (v *View[T]) Size2() int {
	if v.sel != nil {
		return v.sel.s2.len()
	}
	v.inner.mu.RLock()
	defer v.inner.mu.RUnlock()
	return v.inner.buf.Size2()
}

// Lengths returns the (selected) item count of every (selected) sequence.
func (v *View[T]) Lengths() []int64 {
	v.inner.mu.RLock()
	defer v.inner.mu.RUnlock()
	return v.lengthsLocked()
}

func (v *View[T]) lengthsLocked() []int64 {
	if v.sel == nil {
		return v.inner.buf.Lengths()
	}
	s0 := v.sel.s0
	lengths := make([]int64, s0.len())
	for k := range lengths {
		lengths[k] = int64(v.sel.s1.clampedLen(v.inner.buf.seq(s0.at(k)).len()))
	}
	return lengths
}

// Items returns the total number of (selected) items.
func (v *View[T]) Items() int {
	n := 0
	for _, l := range v.Lengths() {
		n += int(l)
	}
	return n
}

// Len returns the total number of scalars.
func (v *View[T]) Len() (int, error) {
	if err := v.requireContiguous("Len"); err != nil {
		return 0, err
	}
	v.inner.mu.RLock()
	defer v.inner.mu.RUnlock()
	return v.inner.buf.Len(), nil
}

// IsEmpty reports whether the view selects no scalars.
func (v *View[T]) IsEmpty() bool {
	var empty bool
	v.read(func(b *Buffer[T]) { empty = b.IsEmpty() })
	return empty
}

// Indices returns per-item sequence indices (axis 0) or positions (axis 1).
func (v *View[T]) Indices(axis int) (*View[int64], error) {
	var out *Buffer[int64]
	var err error
	v.read(func(b *Buffer[T]) { out, err = b.Indices(axis) })
	if err != nil {
		return nil, err
	}
	return Wrap(out), nil
}

// FlatIndices returns the flat item index of every item.
func (v *View[T]) FlatIndices() *View[int64] {
	var out *Buffer[int64]
	v.read(func(b *Buffer[T]) { out = b.FlatIndices() })
	return Wrap(out)
}

// Padpack packs the view's sequences into a dense grid; see Buffer.Padpack.
func (v *View[T]) Padpack() *Packing {
	var p *Packing
	v.read(func(b *Buffer[T]) { p = b.Padpack() })
	return p
}

// PadGather lays the view's items out in the packed grid p.
func (v *View[T]) PadGather(p *Packing, fill T) ([]T, error) {
	var out []T
	var err error
	v.read(func(b *Buffer[T]) { out, err = PadGather(b, p, fill) })
	return out, err
}

// Equal reports whether both views select the same layout and contents.
func (v *View[T]) Equal(other *View[T]) bool {
	release := acquire(nil, v.inner, other.inner)
	defer release()
	return v.locked().Equal(other.locked())
}

func (v *View[T]) String() string {
	var s string
	v.read(func(b *Buffer[T]) { s = b.String() })
	return s
}

// BinOpView combines two contiguous views into a new view; see BinOp.
func BinOpView[T Element, O Op[T]](lhs, rhs *View[T], op O) (*View[T], error) {
	if err := lhs.requireContiguous("BinOp"); err != nil {
		return nil, err
	}
	if err := rhs.requireContiguous("BinOp"); err != nil {
		return nil, err
	}
	release := acquire(nil, lhs.inner, rhs.inner)
	defer release()
	b, err := BinOp(lhs.inner.buf, rhs.inner.buf, op)
	if err != nil {
		return nil, err
	}
	return Wrap(b), nil
}

// OpScalarView applies op between every element of a contiguous view and scalar.
func OpScalarView[T Element, O Op[T]](v *View[T], scalar T, op O) (*View[T], error) {
	if err := v.requireContiguous("OpScalar"); err != nil {
		return nil, err
	}
	v.inner.mu.RLock()
	defer v.inner.mu.RUnlock()
	return Wrap(OpScalar(v.inner.buf, scalar, op)), nil
}

// CatViews concatenates contiguous views along an axis; see Cat.
func CatViews[T Element](views []*View[T], axis int) (*View[T], error) {
	if len(views) == 0 {
		return nil, ErrEmptyInput
	}
	inners := make([]*shared[T], len(views))
	for i, v := range views {
		if err := v.requireContiguous("Cat"); err != nil {
			return nil, fmt.Errorf("operand %d: %w", i, err)
		}
		inners[i] = v.inner
	}
	release := acquire(nil, inners...)
	defer release()
	buffers := make([]*Buffer[T], len(views))
	for i, v := range views {
		buffers[i] = v.inner.buf
	}
	b, err := Cat(buffers, axis)
	if err != nil {
		return nil, err
	}
	return Wrap(b), nil
}
