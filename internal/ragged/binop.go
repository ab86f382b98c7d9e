package ragged

import (
	"fmt"
	"slices"

	"github.com/23skdu/longbow-ragged/internal/simd"
)

// BinOp combines lhs and rhs elementwise into a new buffer. The shapes must
// either match exactly, or one operand must hold exactly one item per
// sequence, in which case that item is broadcast across every item of the
// corresponding sequence of the other operand.
func BinOp[T Element, O Op[T]](lhs, rhs *Buffer[T], op O) (*Buffer[T], error) {
	if lhs.features == rhs.features && slices.Equal(lhs.subarrays, rhs.subarrays) {
		out := &Buffer[T]{
			data:      make([]T, len(lhs.data)),
			subarrays: slices.Clone(lhs.subarrays),
			features:  lhs.features,
		}
		simd.Apply(out.data, lhs.data, rhs.data, op)
		binopTotal.WithLabelValues("exact").Inc()
		return out, nil
	}
	if lhs.features == rhs.features && len(lhs.subarrays) == len(rhs.subarrays) {
		if singleItems(rhs) {
			binopTotal.WithLabelValues("broadcast").Inc()
			return broadcast(lhs, rhs, op, false), nil
		}
		if singleItems(lhs) {
			binopTotal.WithLabelValues("broadcast").Inc()
			return broadcast(rhs, lhs, op, true), nil
		}
	}
	return nil, shapeError(lhs, rhs)
}

// OpScalar applies op between every element of b and scalar.
func OpScalar[T Element, O Op[T]](b *Buffer[T], scalar T, op O) *Buffer[T] {
	out := &Buffer[T]{
		data:      make([]T, len(b.data)),
		subarrays: slices.Clone(b.subarrays),
		features:  b.features,
	}
	simd.ApplyScalar(out.data, b.data, scalar, op)
	return out
}

// broadcast combines every item of each sequence of full with the single
// item of the matching sequence of single. When swapped is set, single is
// the caller's left operand and is passed to op first.
func broadcast[T Element, O Op[T]](full, single *Buffer[T], op O, swapped bool) *Buffer[T] {
	out := &Buffer[T]{
		data:      make([]T, len(full.data)),
		subarrays: slices.Clone(full.subarrays),
		features:  full.features,
	}
	for i, s := range full.subarrays {
		row := single.items(single.subarrays[i])
		dst := out.items(s)
		if swapped {
			simd.ApplyRowsLeft(dst, row, full.items(s), op)
		} else {
			simd.ApplyRows(dst, full.items(s), row, op)
		}
	}
	return out
}

func singleItems[T Element](b *Buffer[T]) bool {
	for _, s := range b.subarrays {
		if s.len() != 1 {
			return false
		}
	}
	return true
}

func shapeError[T Element](lhs, rhs *Buffer[T]) error {
	if lhs.features != rhs.features {
		return fmt.Errorf("%w: %w: lhs %s, rhs %s", ErrShapeMismatch, ErrFeatureMismatch, lhs.profile(), rhs.profile())
	}
	return fmt.Errorf("%w: lhs %s, rhs %s", ErrShapeMismatch, lhs.profile(), rhs.profile())
}
