package simd

import (
	"testing"
)

type addOp struct{}

func (addOp) Apply(a, b float64) float64 { return a + b }

type subOp struct{}

func (subOp) Apply(a, b int64) int64 { return a - b }

type orOp struct{}

func (orOp) Apply(a, b bool) bool { return a || b }

func TestApply(t *testing.T) {
	a := []float64{1, 2, 3, 4, 5}
	b := []float64{10, 20, 30, 40, 50}
	dst := make([]float64, 5)
	expected := []float64{11, 22, 33, 44, 55}

	Apply(dst, a, b, addOp{})

	for i, v := range dst {
		if v != expected[i] {
			t.Errorf("Apply(%d) = %f, want %f", i, v, expected[i])
		}
	}
}

func TestApply_InPlace(t *testing.T) {
	a := []int64{10, 20, 30, 40, 50, 60}
	b := []int64{1, 2, 3, 4, 5, 6}
	expected := []int64{9, 18, 27, 36, 45, 54}

	Apply(a, a, b, subOp{})

	for i, v := range a {
		if v != expected[i] {
			t.Errorf("Apply(%d) = %d, want %d", i, v, expected[i])
		}
	}
}

func TestApplyScalar(t *testing.T) {
	a := []int64{1, 2, 3, 4, 5}
	dst := make([]int64, 5)
	expected := []int64{-1, 0, 1, 2, 3}

	ApplyScalar(dst, a, 2, subOp{})

	for i, v := range dst {
		if v != expected[i] {
			t.Errorf("ApplyScalar(%d) = %d, want %d", i, v, expected[i])
		}
	}
}

func TestApplyRows(t *testing.T) {
	// 3x2 block, row broadcast
	a := []int64{
		10, 20,
		30, 40,
		50, 60,
	}
	row := []int64{1, 2}
	dst := make([]int64, len(a))

	t.Run("Right", func(t *testing.T) {
		ApplyRows(dst, a, row, subOp{})
		expected := []int64{9, 18, 29, 38, 49, 58}
		for i, v := range dst {
			if v != expected[i] {
				t.Errorf("ApplyRows(%d) = %d, want %d", i, v, expected[i])
			}
		}
	})

	t.Run("Left", func(t *testing.T) {
		ApplyRowsLeft(dst, row, a, subOp{})
		expected := []int64{-9, -18, -29, -38, -49, -58}
		for i, v := range dst {
			if v != expected[i] {
				t.Errorf("ApplyRowsLeft(%d) = %d, want %d", i, v, expected[i])
			}
		}
	})

	t.Run("ZeroWidth", func(t *testing.T) {
		// Must not loop forever on an empty row
		ApplyRows([]int64{}, []int64{}, []int64{}, subOp{})
	})
}

func TestApply_Bool(t *testing.T) {
	a := []bool{true, false, false, true, false}
	b := []bool{false, false, true, true, false}
	dst := make([]bool, 5)
	expected := []bool{true, false, true, true, false}

	Apply(dst, a, b, orOp{})

	for i, v := range dst {
		if v != expected[i] {
			t.Errorf("Apply(%d) = %v, want %v", i, v, expected[i])
		}
	}
}

func TestFill(t *testing.T) {
	dst := make([]float64, 7)
	Fill(dst, 2.5)
	for i, v := range dst {
		if v != 2.5 {
			t.Errorf("Fill(%d) = %f, want 2.5", i, v)
		}
	}
}
