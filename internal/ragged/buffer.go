package ragged

import (
	"fmt"
	"slices"
	"strings"
)

// span is a half-open range of item indices.
type span struct {
	start, end int
}

func (s span) len() int {
	return s.end - s.start
}

// Buffer stores a list of variable-length sequences of fixed-width items in
// one flat slice. subarrays holds one item range per sequence; ranges are
// ascending and contiguous, so the last range's end is the item count.
type Buffer[T Element] struct {
	data      []T
	subarrays []span
	features  int
}

// NewBuffer creates an empty buffer whose items are features wide.
func NewBuffer[T Element](features int) *Buffer[T] {
	if features < 0 {
		panic("ragged: negative feature width")
	}
	return &Buffer[T]{features: features}
}

// FromArray builds a buffer of N sequences of L items each from an (N, L, F) array.
func FromArray[T Element](a Array[T]) (*Buffer[T], error) {
	if err := a.checkRank(3); err != nil {
		return nil, err
	}
	n, l, f := a.Shape[0], a.Shape[1], a.Shape[2]
	b := &Buffer[T]{
		data:      slices.Clone(a.Data),
		subarrays: make([]span, n),
		features:  f,
	}
	for i := range b.subarrays {
		b.subarrays[i] = span{i * l, (i + 1) * l}
	}
	return b, nil
}

// FromFlattened builds a buffer from an (items, F) array and the item count
// of every sequence.
func FromFlattened[T Element](a Array[T], lengths []int64) (*Buffer[T], error) {
	if err := a.checkRank(2); err != nil {
		return nil, err
	}
	rows, f := a.Shape[0], a.Shape[1]
	subarrays := make([]span, len(lengths))
	start := 0
	for i, l := range lengths {
		if l < 0 {
			return nil, fmt.Errorf("%w: negative length %d for sequence %d", ErrLengthMismatch, l, i)
		}
		subarrays[i] = span{start, start + int(l)}
		start += int(l)
	}
	if start != rows {
		return nil, fmt.Errorf("%w: lengths sum to %d but data has %d rows", ErrLengthMismatch, start, rows)
	}
	return &Buffer[T]{
		data:      slices.Clone(a.Data),
		subarrays: subarrays,
		features:  f,
	}, nil
}

// Push appends a sequence holding the rows of a 2-D array. An empty 1-D
// array appends an empty sequence.
func (b *Buffer[T]) Push(a Array[T]) error {
	if a.Rank() == 1 && len(a.Data) == 0 {
		b.PushEmpty()
		return nil
	}
	if err := a.checkRank(2); err != nil {
		return err
	}
	if a.Shape[1] != b.features {
		return fmt.Errorf("%w: pushed %d features into buffer of %d", ErrFeatureMismatch, a.Shape[1], b.features)
	}
	start := b.Items()
	b.subarrays = append(b.subarrays, span{start, start + a.Shape[0]})
	b.data = append(b.data, a.Data...)
	return nil
}

// PushEmpty appends a sequence with no items.
func (b *Buffer[T]) PushEmpty() {
	end := b.Items()
	b.subarrays = append(b.subarrays, span{end, end})
}

// Clear removes all sequences. The feature width is kept.
func (b *Buffer[T]) Clear() {
	b.data = b.data[:0]
	b.subarrays = b.subarrays[:0]
}

// Extend appends all sequences of other.
func (b *Buffer[T]) Extend(other *Buffer[T]) error {
	if b.features != other.features {
		return fmt.Errorf("%w: cannot extend %d features with %d", ErrFeatureMismatch, b.features, other.features)
	}
	offset := b.Items()
	for _, s := range other.subarrays {
		b.subarrays = append(b.subarrays, span{s.start + offset, s.end + offset})
	}
	b.data = append(b.data, other.data...)
	return nil
}

// Get returns a copy of sequence i as a single-sequence buffer.
func (b *Buffer[T]) Get(i int) (*Buffer[T], error) {
	if i < 0 || i >= len(b.subarrays) {
		return nil, fmt.Errorf("%w: sequence %d of %d", ErrIndexOutOfBounds, i, len(b.subarrays))
	}
	s := b.subarrays[i]
	return &Buffer[T]{
		data:      slices.Clone(b.items(s)),
		subarrays: []span{{0, s.len()}},
		features:  b.features,
	}, nil
}

// Swizzle returns a buffer whose sequences are the given sequences of b, in
// order. Indices may repeat.
func (b *Buffer[T]) Swizzle(indices []int64) (*Buffer[T], error) {
	subarrays := make([]span, len(indices))
	total := 0
	for k, i := range indices {
		if i < 0 || int(i) >= len(b.subarrays) {
			return nil, fmt.Errorf("%w: swizzle index %d at position %d, buffer has %d sequences", ErrIndexOutOfBounds, i, k, len(b.subarrays))
		}
		l := b.subarrays[i].len()
		subarrays[k] = span{total, total + l}
		total += l
	}
	data := make([]T, 0, total*b.features)
	for _, i := range indices {
		data = append(data, b.items(b.subarrays[i])...)
	}
	return &Buffer[T]{data: data, subarrays: subarrays, features: b.features}, nil
}

// Size0 returns the number of sequences.
func (b *Buffer[T]) Size0() int {
	return len(b.subarrays)
}

// Size1 returns the number of items in sequence i.
func (b *Buffer[T]) Size1(i int) (int, error) {
	if i < 0 || i >= len(b.subarrays) {
		return 0, fmt.Errorf("%w: sequence %d of %d", ErrIndexOutOfBounds, i, len(b.subarrays))
	}
	return b.subarrays[i].len(), nil
}

// Size2 returns the feature width.
func (b *Buffer[T]) Size2() int {
	return b.features
}

// Lengths returns the item count of every sequence.
func (b *Buffer[T]) Lengths() []int64 {
	lengths := make([]int64, len(b.subarrays))
	for i, s := range b.subarrays {
		lengths[i] = int64(s.len())
	}
	return lengths
}

// Items returns the total number of items.
func (b *Buffer[T]) Items() int {
	if len(b.subarrays) == 0 {
		return 0
	}
	return b.subarrays[len(b.subarrays)-1].end
}

// Len returns the total number of scalars.
func (b *Buffer[T]) Len() int {
	return len(b.data)
}

// IsEmpty reports whether the buffer holds no scalars.
func (b *Buffer[T]) IsEmpty() bool {
	return len(b.data) == 0
}

// Indices returns, for every item, its sequence index (axis 0) or its
// position within its sequence (axis 1), laid out like b with one feature.
func (b *Buffer[T]) Indices(axis int) (*Buffer[int64], error) {
	out := &Buffer[int64]{
		data:      make([]int64, 0, b.Items()),
		subarrays: slices.Clone(b.subarrays),
		features:  1,
	}
	switch axis {
	case 0:
		for i, s := range b.subarrays {
			for range s.len() {
				out.data = append(out.data, int64(i))
			}
		}
	case 1:
		for _, s := range b.subarrays {
			for j := range s.len() {
				out.data = append(out.data, int64(j))
			}
		}
	default:
		return nil, fmt.Errorf("%w: indices along axis %d, expected 0 or 1", ErrInvalidAxis, axis)
	}
	return out, nil
}

// FlatIndices returns, for every item, its index in the flattened item list.
func (b *Buffer[T]) FlatIndices() *Buffer[int64] {
	n := b.Items()
	out := &Buffer[int64]{
		data:      make([]int64, n),
		subarrays: slices.Clone(b.subarrays),
		features:  1,
	}
	for i := range out.data {
		out.data[i] = int64(i)
	}
	return out
}

// AsArray copies the buffer into an (items, features) array.
func (b *Buffer[T]) AsArray() Array[T] {
	return Array[T]{
		Data:  slices.Clone(b.data),
		Shape: []int{b.Items(), b.features},
	}
}

// Clone returns a deep copy.
func (b *Buffer[T]) Clone() *Buffer[T] {
	return &Buffer[T]{
		data:      slices.Clone(b.data),
		subarrays: slices.Clone(b.subarrays),
		features:  b.features,
	}
}

// Equal reports whether both buffers have the same layout and contents.
func (b *Buffer[T]) Equal(other *Buffer[T]) bool {
	return b.features == other.features &&
		slices.Equal(b.subarrays, other.subarrays) &&
		slices.Equal(b.data, other.data)
}

func (b *Buffer[T]) String() string {
	var sb strings.Builder
	sb.WriteString("RaggedBuffer([\n")
	for _, s := range b.subarrays {
		if s.len() == 0 {
			sb.WriteString("    [],\n")
			continue
		}
		sb.WriteString("    [\n")
		for item := s.start; item < s.end; item++ {
			sb.WriteString("        [")
			row := b.data[item*b.features : (item+1)*b.features]
			for j, v := range row {
				if j > 0 {
					sb.WriteString(", ")
				}
				sb.WriteString(formatElement(v))
			}
			sb.WriteString("],\n")
		}
		sb.WriteString("    ],\n")
	}
	fmt.Fprintf(&sb, "], '%d * var * %d * %s)", len(b.subarrays), b.features, dtypeName[T]())
	return sb.String()
}

// items returns the scalars of the item range s.
func (b *Buffer[T]) items(s span) []T {
	return b.data[s.start*b.features : s.end*b.features]
}

// profile describes the buffer's shape for error messages.
func (b *Buffer[T]) profile() string {
	return fmt.Sprintf("(%d sequences, lengths %v, %d features)", len(b.subarrays), b.Lengths(), b.features)
}
