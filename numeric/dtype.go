// Package numeric provides the scalar value type and dtype-dispatched
// arithmetic that back the tensor engine's elementwise kernels.
package numeric

import "fmt"

// DType is the closed set of element types a tensor or scalar can carry.
type DType int

const (
	// I32 is a 32-bit signed integer.
	I32 DType = iota
	// I64 is a 64-bit signed integer.
	I64
	// F32 is a 32-bit IEEE-754 float.
	F32
	// F64 is a 64-bit IEEE-754 float.
	F64
)

// String returns a human-readable name for the dtype.
func (d DType) String() string {
	switch d {
	case I32:
		return "i32"
	case I64:
		return "i64"
	case F32:
		return "f32"
	case F64:
		return "f64"
	default:
		return fmt.Sprintf("DType(%d)", int(d))
	}
}

// IsFloat reports whether the dtype is one of the floating-point kinds.
// requires_grad is only ever valid on a float dtype (spec.md's DType invariant).
func (d DType) IsFloat() bool {
	return d == F32 || d == F64
}

// ItemSize returns the size in bytes of one element of the dtype.
func (d DType) ItemSize() int {
	switch d {
	case I32, F32:
		return 4
	case I64, F64:
		return 8
	default:
		return 0
	}
}

// Valid reports whether d is one of the four declared dtypes.
func (d DType) Valid() bool {
	switch d {
	case I32, I64, F32, F64:
		return true
	default:
		return false
	}
}
