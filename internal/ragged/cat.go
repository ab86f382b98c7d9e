package ragged

import (
	"fmt"
	"strings"
)

// Cat concatenates buffers along an axis:
//
//   - axis 0 appends the sequences of each buffer after the previous ones;
//   - axis 1 merges sequence i of every buffer into one sequence i;
//   - axis 2 joins items feature-wise, broadcasting single-item sequences.
func Cat[T Element](buffers []*Buffer[T], axis int) (*Buffer[T], error) {
	if len(buffers) == 0 {
		return nil, ErrEmptyInput
	}
	switch axis {
	case 0:
		return catSequences(buffers)
	case 1:
		return catItems(buffers)
	case 2:
		return catFeatures(buffers)
	default:
		return nil, fmt.Errorf("%w: cat along axis %d, expected 0, 1 or 2", ErrInvalidAxis, axis)
	}
}

func catSequences[T Element](buffers []*Buffer[T]) (*Buffer[T], error) {
	features := buffers[0].features
	sequences, scalars := 0, 0
	for _, b := range buffers {
		if b.features != features {
			return nil, fmt.Errorf("%w: cat along axis 0 needs equal feature widths, got %v", ErrFeatureMismatch, featureWidths(buffers))
		}
		sequences += len(b.subarrays)
		scalars += len(b.data)
	}
	out := &Buffer[T]{
		data:      make([]T, 0, scalars),
		subarrays: make([]span, 0, sequences),
		features:  features,
	}
	for _, b := range buffers {
		offset := out.Items()
		for _, s := range b.subarrays {
			out.subarrays = append(out.subarrays, span{s.start + offset, s.end + offset})
		}
		out.data = append(out.data, b.data...)
	}
	return out, nil
}

func catItems[T Element](buffers []*Buffer[T]) (*Buffer[T], error) {
	first := buffers[0]
	scalars := 0
	for _, b := range buffers {
		if len(b.subarrays) != len(first.subarrays) {
			return nil, fmt.Errorf("%w: cat along axis 1 needs equal sequence counts, got %s", ErrShapeMismatch, profiles(buffers))
		}
		if b.features != first.features {
			return nil, fmt.Errorf("%w: cat along axis 1 needs equal feature widths, got %s", ErrFeatureMismatch, profiles(buffers))
		}
		scalars += len(b.data)
	}
	out := &Buffer[T]{
		data:      make([]T, 0, scalars),
		subarrays: make([]span, len(first.subarrays)),
		features:  first.features,
	}
	item := 0
	for i := range first.subarrays {
		start := item
		for _, b := range buffers {
			s := b.subarrays[i]
			out.data = append(out.data, b.items(s)...)
			item += s.len()
		}
		out.subarrays[i] = span{start, item}
	}
	return out, nil
}

func catFeatures[T Element](buffers []*Buffer[T]) (*Buffer[T], error) {
	first := buffers[0]
	features := 0
	for _, b := range buffers {
		if len(b.subarrays) != len(first.subarrays) {
			return nil, fmt.Errorf("%w: cat along axis 2 needs equal sequence counts, got %s", ErrShapeMismatch, profiles(buffers))
		}
		features += b.features
	}
	out := &Buffer[T]{
		subarrays: make([]span, len(first.subarrays)),
		features:  features,
	}
	item := 0
	for i := range first.subarrays {
		seqlen := 0
		for _, b := range buffers {
			l := b.subarrays[i].len()
			if l == 0 {
				seqlen = 0
				break
			}
			if l > seqlen {
				seqlen = l
			}
		}
		if seqlen > 0 {
			for k, b := range buffers {
				if l := b.subarrays[i].len(); l != seqlen && l != 1 {
					return nil, fmt.Errorf("%w: cat along axis 2, sequence %d of operand %d has %d items, expected %d or 1; operands %s",
						ErrShapeMismatch, i, k, l, seqlen, profiles(buffers))
				}
			}
		}
		for p := range seqlen {
			for _, b := range buffers {
				s := b.subarrays[i]
				src := s.start + p
				if s.len() == 1 {
					src = s.start
				}
				out.data = append(out.data, b.data[src*b.features:(src+1)*b.features]...)
			}
		}
		out.subarrays[i] = span{item, item + seqlen}
		item += seqlen
	}
	return out, nil
}

func featureWidths[T Element](buffers []*Buffer[T]) []int {
	widths := make([]int, len(buffers))
	for i, b := range buffers {
		widths[i] = b.features
	}
	return widths
}

func profiles[T Element](buffers []*Buffer[T]) string {
	parts := make([]string, len(buffers))
	for i, b := range buffers {
		parts[i] = b.profile()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
