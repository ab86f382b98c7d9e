package ragged

import (
	"fmt"
)

// windowOf returns the selection of v, or a selection of all of v's
// elements when v is contiguous. The caller holds a lock on v.inner.
func (v *View[T]) windowOf() *selection {
	if v.sel != nil {
		return v.sel
	}
	return fullSelection(v.inner.buf)
}

// windowProfile describes a view's selected shape for error messages.
// The caller holds a lock on v.inner.
func (v *View[T]) windowProfile() string {
	lengths := v.lengthsLocked()
	return fmt.Sprintf("(%d sequences, lengths %v, %d features)", len(lengths), lengths, v.windowOf().s2.len())
}

// BinOpMut overwrites the selected elements of lhs with op(lhs, rhs) in
// place, without materializing either operand. Sequences are paired in
// selection order. When a pair selects different item counts and one side
// selects exactly one item, that item is paired with every item of the
// other side. A contiguous operand behaves as a window over everything.
func BinOpMut[T Element, O Op[T]](lhs, rhs *View[T], op O) error {
	if lhs.inner == rhs.inner {
		rhs = rhs.DeepClone()
	}
	release := acquire(lhs.inner, rhs.inner)
	defer release()

	lb, rb := lhs.inner.buf, rhs.inner.buf
	ls, rs := lhs.windowOf(), rhs.windowOf()
	if ls.s0.len() != rs.s0.len() || ls.s2.len() != rs.s2.len() {
		return fmt.Errorf("%w: in-place op on lhs %s, rhs %s", ErrShapeMismatch, lhs.windowProfile(), rhs.windowProfile())
	}

	// Check every sequence pair before writing anything.
	for k := range ls.s0.len() {
		ln := ls.s1.clampedLen(lb.seq(ls.s0.at(k)).len())
		rn := rs.s1.clampedLen(rb.seq(rs.s0.at(k)).len())
		if ln != rn && ln != 1 && rn != 1 {
			return fmt.Errorf("%w: in-place op, sequence %d selects %d items on lhs and %d on rhs; lhs %s, rhs %s",
				ErrShapeMismatch, k, ln, rn, lhs.windowProfile(), rhs.windowProfile())
		}
	}

	lf := ls.s2.appendPositions(nil, lb.features)
	rf := rs.s2.appendPositions(nil, rb.features)
	var lpos, rpos []int
	for k := range ls.s0.len() {
		lseq := lb.seq(ls.s0.at(k))
		rseq := rb.seq(rs.s0.at(k))
		lpos = ls.s1.appendPositions(lpos[:0], lseq.len())
		rpos = rs.s1.appendPositions(rpos[:0], rseq.len())
		n := max(len(lpos), len(rpos))
		if len(lpos) == 0 || len(rpos) == 0 {
			n = 0
		}
		for j := range n {
			li := lseq.start + lpos[min(j, len(lpos)-1)]
			ri := rseq.start + rpos[min(j, len(rpos)-1)]
			lrow := lb.data[li*lb.features:]
			rrow := rb.data[ri*rb.features:]
			for f, lfi := range lf {
				lrow[lfi] = op.Apply(lrow[lfi], rrow[rf[f]])
			}
		}
	}
	binopTotal.WithLabelValues("inplace").Inc()
	return nil
}

// TranslateRotate moves every 2-D point of source into the frame given by
// translation and rotation: p' = R(p - t), where rotation holds (cos, sin)
// and R = [[cos, sin], [-sin, cos]]. translation and rotation must hold
// exactly one item per sequence. The sequence and item axes of all three
// views must be unwindowed; the feature axis may select any two channels,
// in any order. source is updated in place.
func TranslateRotate[T Float](source, translation, rotation *View[T]) error {
	release := acquire(source.inner, translation.inner, rotation.inner)
	defer release()

	ss, ts, rs := source.windowOf(), translation.windowOf(), rotation.windowOf()
	if ss.s0.len() != ts.s0.len() || ss.s0.len() != rs.s0.len() {
		return fmt.Errorf("%w: translate-rotate needs equal sequence counts, got source %s, translation %s, rotation %s",
			ErrShapeMismatch, source.windowProfile(), translation.windowProfile(), rotation.windowProfile())
	}
	profiles := fmt.Sprintf("source %s, translation %s, rotation %s",
		source.windowProfile(), translation.windowProfile(), rotation.windowProfile())
	for _, o := range []struct {
		name string
		sel  *selection
	}{{"source", ss}, {"translation", ts}, {"rotation", rs}} {
		if o.sel.s2.len() != 2 {
			return fmt.Errorf("%w: translate-rotate expects 2 features in %s, got %d; %s", ErrShapeMismatch, o.name, o.sel.s2.len(), profiles)
		}
	}
	sb, tb, rb := source.inner.buf, translation.inner.buf, rotation.inner.buf
	for _, o := range []struct {
		name    string
		sel     *selection
		seqs    int
		longest int
	}{
		{"source", ss, len(sb.subarrays), sb.maxLen()},
		{"translation", ts, len(tb.subarrays), tb.maxLen()},
		{"rotation", rs, len(rb.subarrays), rb.maxLen()},
	} {
		if !o.sel.s0.covers(o.seqs) || o.sel.s0.len() != o.seqs {
			return fmt.Errorf("%w: translate-rotate does not support a window on the sequence axis of %s; %s", ErrShapeMismatch, o.name, profiles)
		}
		if !o.sel.s1.covers(o.longest) {
			return fmt.Errorf("%w: translate-rotate does not support a window on the item axis of %s; %s", ErrShapeMismatch, o.name, profiles)
		}
	}
	for i := range sb.subarrays {
		if tn, rn := tb.subarrays[i].len(), rb.subarrays[i].len(); tn != 1 || rn != 1 {
			return fmt.Errorf("%w: translate-rotate needs a single translation and rotation item per sequence, got %d and %d for sequence %d; %s",
				ErrShapeMismatch, tn, rn, i, profiles)
		}
	}

	sx, sy := ss.s2.at(0), ss.s2.at(1)
	tx, ty := ts.s2.at(0), ts.s2.at(1)
	rx, ry := rs.s2.at(0), rs.s2.at(1)
	for i, s := range sb.subarrays {
		t := tb.items(tb.subarrays[i])
		r := rb.items(rb.subarrays[i])
		cos, sin := r[rx], r[ry]
		for item := s.start; item < s.end; item++ {
			p := sb.data[item*sb.features : (item+1)*sb.features]
			x := p[sx] - t[tx]
			y := p[sy] - t[ty]
			p[sx] = cos*x + sin*y
			p[sy] = -sin*x + cos*y
		}
	}
	return nil
}
