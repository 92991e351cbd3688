package numeric

import "math"

// float32Tolerance and float64Tolerance are the absolute tolerances used by
// Value.ApproxEqual, matching spec.md's 1e-6 (F32) / 1e-9 (F64) contract.
const (
	float32Tolerance = 1e-6
	float64Tolerance = 1e-9
)

// Value is a discriminated numeric value carrying exactly one of the four
// supported dtypes. It is the scalar-value component of the tensor engine:
// every elementwise kernel ultimately reduces to Value arithmetic at a
// single offset pair.
type Value struct {
	dtype DType
	i32   int32
	i64   int64
	f32   float32
	f64   float64
}

// FromI32 builds an I32 value.
func FromI32(v int32) Value { return Value{dtype: I32, i32: v} }

// FromI64 builds an I64 value.
func FromI64(v int64) Value { return Value{dtype: I64, i64: v} }

// FromF32 builds an F32 value.
func FromF32(v float32) Value { return Value{dtype: F32, f32: v} }

// FromF64 builds an F64 value.
func FromF64(v float64) Value { return Value{dtype: F64, f64: v} }

// DType returns the dtype the value is tagged with.
func (v Value) DType() DType { return v.dtype }

// Float64 returns the value widened to a float64, regardless of dtype.
// Used by kernels that need a common numeric representation (e.g. Sqrt).
func (v Value) Float64() float64 {
	switch v.dtype {
	case I32:
		return float64(v.i32)
	case I64:
		return float64(v.i64)
	case F32:
		return float64(v.f32)
	case F64:
		return v.f64
	default:
		return 0
	}
}

// Int32 returns v's native int32 field directly. Only meaningful when
// v.DType() == I32; callers outside a dtype-dispatched switch should check
// first.
func (v Value) Int32() int32 { return v.i32 }

// Int64 returns v's native int64 field directly, with no float64 detour —
// unlike Float64, this is lossless for the full int64 range. Only
// meaningful when v.DType() == I64.
func (v Value) Int64() int64 { return v.i64 }

// Float32 returns v's native float32 field directly. Only meaningful when
// v.DType() == F32.
func (v Value) Float32() float32 { return v.f32 }

// Zero returns the additive identity for v's dtype.
func Zero(dt DType) Value {
	switch dt {
	case I32:
		return FromI32(0)
	case I64:
		return FromI64(0)
	case F32:
		return FromF32(0)
	case F64:
		return FromF64(0)
	default:
		return Value{}
	}
}

// One returns the multiplicative identity for dt.
func One(dt DType) Value {
	switch dt {
	case I32:
		return FromI32(1)
	case I64:
		return FromI64(1)
	case F32:
		return FromF32(1)
	case F64:
		return FromF64(1)
	default:
		return Value{}
	}
}

// Add returns a + b. a and b must share a dtype.
func Add(a, b Value) Value {
	switch a.dtype {
	case I32:
		return FromI32(a.i32 + b.i32)
	case I64:
		return FromI64(a.i64 + b.i64)
	case F32:
		return FromF32(a.f32 + b.f32)
	case F64:
		return FromF64(a.f64 + b.f64)
	default:
		return Value{}
	}
}

// Sub returns a - b.
func Sub(a, b Value) Value {
	switch a.dtype {
	case I32:
		return FromI32(a.i32 - b.i32)
	case I64:
		return FromI64(a.i64 - b.i64)
	case F32:
		return FromF32(a.f32 - b.f32)
	case F64:
		return FromF64(a.f64 - b.f64)
	default:
		return Value{}
	}
}

// Mul returns a * b.
func Mul(a, b Value) Value {
	switch a.dtype {
	case I32:
		return FromI32(a.i32 * b.i32)
	case I64:
		return FromI64(a.i64 * b.i64)
	case F32:
		return FromF32(a.f32 * b.f32)
	case F64:
		return FromF64(a.f64 * b.f64)
	default:
		return Value{}
	}
}

// Div returns a / b. Integer division truncates toward zero, matching Go's
// native int division. Division by zero is unspecified per spec.md §4.A and
// is left to propagate platform behavior (a panic for integer dtypes, Inf/NaN
// for floats) rather than being special-cased.
func Div(a, b Value) Value {
	switch a.dtype {
	case I32:
		return FromI32(a.i32 / b.i32)
	case I64:
		return FromI64(a.i64 / b.i64)
	case F32:
		return FromF32(a.f32 / b.f32)
	case F64:
		return FromF64(a.f64 / b.f64)
	default:
		return Value{}
	}
}

// Neg returns -a.
func Neg(a Value) Value {
	switch a.dtype {
	case I32:
		return FromI32(-a.i32)
	case I64:
		return FromI64(-a.i64)
	case F32:
		return FromF32(-a.f32)
	case F64:
		return FromF64(-a.f64)
	default:
		return Value{}
	}
}

// Max returns whichever of a, b compares greater-or-equal first (ties go to a),
// matching spec.md's Max grad-rule tie-break policy.
func Max(a, b Value) Value {
	if GreaterEqual(a, b) {
		return a
	}

	return b
}

// Min returns whichever of a, b compares less-or-equal first (ties go to a).
func Min(a, b Value) Value {
	if LessEqual(a, b) {
		return a
	}

	return b
}

// GreaterEqual reports whether a >= b.
func GreaterEqual(a, b Value) bool {
	switch a.dtype {
	case I32:
		return a.i32 >= b.i32
	case I64:
		return a.i64 >= b.i64
	case F32:
		return a.f32 >= b.f32
	case F64:
		return a.f64 >= b.f64
	default:
		return false
	}
}

// Greater reports whether a > b.
func Greater(a, b Value) bool {
	switch a.dtype {
	case I32:
		return a.i32 > b.i32
	case I64:
		return a.i64 > b.i64
	case F32:
		return a.f32 > b.f32
	case F64:
		return a.f64 > b.f64
	default:
		return false
	}
}

// LessEqual reports whether a <= b.
func LessEqual(a, b Value) bool { return !Greater(a, b) }

// Less reports whether a < b.
func Less(a, b Value) bool { return !GreaterEqual(a, b) }

// ApproxEqual reports whether a and b are equal: exactly for integer dtypes,
// within an absolute tolerance for floats. NaN never compares equal to
// anything, including another NaN.
func ApproxEqual(a, b Value) bool {
	switch a.dtype {
	case I32:
		return a.i32 == b.i32
	case I64:
		return a.i64 == b.i64
	case F32:
		if math.IsNaN(float64(a.f32)) || math.IsNaN(float64(b.f32)) {
			return false
		}

		return math.Abs(float64(a.f32-b.f32)) <= float32Tolerance
	case F64:
		if math.IsNaN(a.f64) || math.IsNaN(b.f64) {
			return false
		}

		return math.Abs(a.f64-b.f64) <= float64Tolerance
	default:
		return false
	}
}
