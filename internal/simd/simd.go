package simd

// Op is a binary element operator. Kernels take the operator as a type
// parameter so each operator gets its own instantiation of the loop.
type Op[T any] interface {
	Apply(a, b T) T
}

// Apply performs dst[i] = op(a[i], b[i]).
// dst may alias a or b.
func Apply[T any, O Op[T]](dst, a, b []T, op O) {
	n := len(dst)
	a = a[:n]
	b = b[:n]
	// Unrolled loop for better pipelining
	i := 0
	for ; i <= n-4; i += 4 {
		dst[i] = op.Apply(a[i], b[i])
		dst[i+1] = op.Apply(a[i+1], b[i+1])
		dst[i+2] = op.Apply(a[i+2], b[i+2])
		dst[i+3] = op.Apply(a[i+3], b[i+3])
	}
	// Handle remainder
	for ; i < n; i++ {
		dst[i] = op.Apply(a[i], b[i])
	}
}

// ApplyScalar performs dst[i] = op(a[i], s).
func ApplyScalar[T any, O Op[T]](dst, a []T, s T, op O) {
	n := len(dst)
	a = a[:n]
	i := 0
	for ; i <= n-4; i += 4 {
		dst[i] = op.Apply(a[i], s)
		dst[i+1] = op.Apply(a[i+1], s)
		dst[i+2] = op.Apply(a[i+2], s)
		dst[i+3] = op.Apply(a[i+3], s)
	}
	for ; i < n; i++ {
		dst[i] = op.Apply(a[i], s)
	}
}

// ApplyRows combines every row of a (row-major, len(row) columns) with row:
// dst[r*c+j] = op(a[r*c+j], row[j]). This is the bias-add pattern
// generalised to any operator.
func ApplyRows[T any, O Op[T]](dst, a, row []T, op O) {
	c := len(row)
	if c == 0 {
		return
	}
	for off := 0; off+c <= len(dst); off += c {
		Apply(dst[off:off+c], a[off:off+c], row, op)
	}
}

// ApplyRowsLeft is ApplyRows with the operand order swapped:
// dst[r*c+j] = op(row[j], a[r*c+j]).
func ApplyRowsLeft[T any, O Op[T]](dst, row, a []T, op O) {
	c := len(row)
	if c == 0 {
		return
	}
	for off := 0; off+c <= len(dst); off += c {
		d := dst[off : off+c]
		src := a[off : off+c]
		for j := range d {
			d[j] = op.Apply(row[j], src[j])
		}
	}
}

// Fill sets every element of dst to v.
func Fill[T any](dst []T, v T) {
	i := 0
	for ; i <= len(dst)-4; i += 4 {
		dst[i] = v
		dst[i+1] = v
		dst[i+2] = v
		dst[i+3] = v
	}
	for ; i < len(dst); i++ {
		dst[i] = v
	}
}
