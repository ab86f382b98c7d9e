package ragged

import (
	"strconv"

	"github.com/23skdu/longbow-ragged/internal/simd"
)

// Element is the set of scalar types a Buffer can hold.
type Element interface {
	float32 | float64 | int64 | bool
}

// Number is the subset of Element with arithmetic.
type Number interface {
	float32 | float64 | int64
}

// Float is the subset of Number usable by geometric transforms.
type Float interface {
	float32 | float64
}

// Op is a binary element operator, e.g. Add[float32]{}.
type Op[T Element] interface {
	simd.Op[T]
}

type Add[T Number] struct{}

func (Add[T]) Apply(a, b T) T { return a + b }

type Sub[T Number] struct{}

func (Sub[T]) Apply(a, b T) T { return a - b }

type Mul[T Number] struct{}

func (Mul[T]) Apply(a, b T) T { return a * b }

// Or is boolean addition.
type Or struct{}

func (Or) Apply(a, b bool) bool { return a || b }

// And is boolean multiplication.
type And struct{}

func (And) Apply(a, b bool) bool { return a && b }

// Xor is boolean subtraction.
type Xor struct{}

func (Xor) Apply(a, b bool) bool { return a != b }

// dtypeName returns the short element type name used in String output.
func dtypeName[T Element]() string {
	var zero T
	switch any(zero).(type) {
	case float32:
		return "f32"
	case float64:
		return "f64"
	case int64:
		return "i64"
	default:
		return "bool"
	}
}

func formatElement[T Element](v T) string {
	switch x := any(v).(type) {
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	}
	panic("ragged: unreachable element type")
}
