package ragged

import (
	"fmt"
)

// Array is a dense row-major block with an explicit shape. It is the
// interchange format between the engine and whatever host array type sits
// on the other side (numpy, Arrow, gonum).
type Array[T Element] struct {
	Data  []T
	Shape []int
}

// NewArray wraps data with the given shape. The data is not copied.
func NewArray[T Element](data []T, shape ...int) (Array[T], error) {
	n := 1
	for _, d := range shape {
		if d < 0 {
			return Array[T]{}, fmt.Errorf("%w: negative dimension in %v", ErrInvalidShape, shape)
		}
		n *= d
	}
	if n != len(data) {
		return Array[T]{}, fmt.Errorf("%w: shape %v holds %d elements, got %d", ErrInvalidShape, shape, n, len(data))
	}
	return Array[T]{Data: data, Shape: append([]int(nil), shape...)}, nil
}

// MustArray is NewArray that panics on error, for literals in tests and examples.
func MustArray[T Element](data []T, shape ...int) Array[T] {
	a, err := NewArray(data, shape...)
	if err != nil {
		panic(err)
	}
	return a
}

// Rank returns the number of dimensions.
func (a Array[T]) Rank() int {
	return len(a.Shape)
}

func (a Array[T]) checkRank(rank int) error {
	if len(a.Shape) != rank {
		return fmt.Errorf("%w: expected %d dimensions, got shape %v", ErrInvalidShape, rank, a.Shape)
	}
	n := 1
	for _, d := range a.Shape {
		if d < 0 {
			return fmt.Errorf("%w: negative dimension in %v", ErrInvalidShape, a.Shape)
		}
		n *= d
	}
	if n != len(a.Data) {
		return fmt.Errorf("%w: shape %v holds %d elements, got %d", ErrInvalidShape, a.Shape, n, len(a.Data))
	}
	return nil
}
