package ragged

import (
	"fmt"
)

type indexKind int

const (
	indexSpan indexKind = iota
	indexAt
	indexPerm
)

// Index selects positions along one axis of a view. Spans follow Python
// slice rules: negative bounds count from the end and bounds are clamped.
type Index struct {
	kind     indexKind
	at       int
	start    int
	stop     int
	hasStart bool
	hasStop  bool
	step     int
	perm     []int
}

// All selects the whole axis.
func All() Index {
	return Index{kind: indexSpan, step: 1}
}

// At selects the single position i.
func At(i int) Index {
	return Index{kind: indexAt, at: i}
}

// Span selects [start, stop).
func Span(start, stop int) Index {
	return Index{kind: indexSpan, start: start, stop: stop, hasStart: true, hasStop: true, step: 1}
}

// From selects [start, end of axis).
func From(start int) Index {
	return Index{kind: indexSpan, start: start, hasStart: true, step: 1}
}

// To selects [0, stop).
func To(stop int) Index {
	return Index{kind: indexSpan, stop: stop, hasStop: true, step: 1}
}

// Step sets the stride of a span.
func (ix Index) Step(n int) Index {
	ix.step = n
	return ix
}

// Perm selects the given positions in the given order. Positions may repeat.
func Perm(indices ...int) Index {
	return Index{kind: indexPerm, perm: append([]int(nil), indices...)}
}

// selector is an Index resolved against an axis length: either a strided
// range or an explicit list of positions.
type selector struct {
	start, end, step int
	perm             []int
}

func rangeSelector(start, end int) selector {
	return selector{start: start, end: end, step: 1}
}

func (s selector) isPerm() bool {
	return s.perm != nil
}

func (s selector) len() int {
	if s.perm != nil {
		return len(s.perm)
	}
	if s.end <= s.start {
		return 0
	}
	return (s.end - s.start + s.step - 1) / s.step
}

// at returns the k-th selected position.
func (s selector) at(k int) int {
	if s.perm != nil {
		return s.perm[k]
	}
	return s.start + k*s.step
}

// covers reports whether s selects exactly 0..n-1 in order.
func (s selector) covers(n int) bool {
	if s.perm != nil {
		return false
	}
	return s.step == 1 && s.start == 0 && s.end >= n
}

// clampedLen counts the selected positions below n.
func (s selector) clampedLen(n int) int {
	if s.perm != nil {
		c := 0
		for _, p := range s.perm {
			if p < n {
				c++
			}
		}
		return c
	}
	return selector{start: s.start, end: min(s.end, n), step: s.step}.len()
}

// appendPositions appends the selected positions below n to dst.
func (s selector) appendPositions(dst []int, n int) []int {
	if s.perm != nil {
		for _, p := range s.perm {
			if p < n {
				dst = append(dst, p)
			}
		}
		return dst
	}
	for i := s.start; i < min(s.end, n); i += s.step {
		dst = append(dst, i)
	}
	return dst
}

// resolve turns ix into a selector over an axis of length n. Permutation
// entries at or beyond n are rejected when strict is set; the item axis is
// resolved non-strictly because each sequence has its own length.
func (ix Index) resolve(axis, n int, strict bool) (selector, error) {
	switch ix.kind {
	case indexAt:
		i := ix.at
		if i < 0 {
			i += n
		}
		if i < 0 || i >= n {
			return selector{}, fmt.Errorf("%w: index %d on axis %d of length %d", ErrIndexOutOfBounds, ix.at, axis, n)
		}
		return rangeSelector(i, i+1), nil
	case indexPerm:
		for _, p := range ix.perm {
			if p < 0 || (strict && p >= n) {
				return selector{}, fmt.Errorf("%w: permutation entry %d on axis %d of length %d", ErrIndexOutOfBounds, p, axis, n)
			}
		}
		perm := ix.perm
		if perm == nil {
			perm = []int{}
		}
		return selector{perm: perm}, nil
	default:
		if ix.step < 1 {
			return selector{}, fmt.Errorf("%w: step %d on axis %d, must be positive", ErrInvalidSelector, ix.step, axis)
		}
		start, end := 0, n
		if ix.hasStart {
			start = clampIndex(ix.start, n)
		}
		if ix.hasStop {
			end = clampIndex(ix.stop, n)
		}
		if end < start {
			end = start
		}
		return selector{start: start, end: end, step: ix.step}, nil
	}
}

func clampIndex(i, n int) int {
	if i < 0 {
		i += n
	}
	return max(0, min(i, n))
}

// selection is a resolved (sequence, item, feature) selector triple.
type selection struct {
	s0, s1, s2 selector
}

func (sel *selection) ranges() bool {
	return !sel.s0.isPerm() && !sel.s1.isPerm() && !sel.s2.isPerm()
}

// fullSelection selects every element of b.
func fullSelection[T Element](b *Buffer[T]) *selection {
	return &selection{
		s0: rangeSelector(0, len(b.subarrays)),
		s1: rangeSelector(0, b.maxLen()),
		s2: rangeSelector(0, b.features),
	}
}

func (b *Buffer[T]) maxLen() int {
	m := 0
	for _, s := range b.subarrays {
		m = max(m, s.len())
	}
	return m
}
