package ragged

import "errors"

var (
	// ErrFeatureMismatch indicates operand feature widths differ where equality is required.
	ErrFeatureMismatch = errors.New("ragged: feature width mismatch")
	// ErrShapeMismatch indicates a sequence-count, item-count or broadcast mismatch.
	ErrShapeMismatch = errors.New("ragged: shape mismatch")
	// ErrIndexOutOfBounds indicates a sequence, item or feature index past the current bounds.
	ErrIndexOutOfBounds = errors.New("ragged: index out of bounds")
	// ErrInvalidAxis indicates an axis outside 0, 1, 2.
	ErrInvalidAxis = errors.New("ragged: invalid axis")
	// ErrNotImplemented indicates a legal request the engine does not support.
	ErrNotImplemented = errors.New("ragged: not implemented")
	// ErrNonContiguousView indicates a window was passed where a contiguous buffer is required.
	ErrNonContiguousView = errors.New("ragged: operation requires a contiguous view, call Materialize first")
	// ErrEmptyInput indicates an operation needing at least one buffer received none.
	ErrEmptyInput = errors.New("ragged: at least one buffer is required")
	// ErrLengthMismatch indicates per-sequence lengths that do not sum to the row count.
	ErrLengthMismatch = errors.New("ragged: sequence lengths do not match data")
	// ErrInvalidShape indicates an interchange array of the wrong rank or size.
	ErrInvalidShape = errors.New("ragged: invalid array shape")
	// ErrInvalidSelector indicates a malformed axis selector.
	ErrInvalidSelector = errors.New("ragged: invalid selector")
)
