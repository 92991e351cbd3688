// Package tensor implements the strided, typed n-dimensional array that
// backs the autograd tensor: storage, broadcasting, elementwise and
// reduction kernels, matmul, and transpose.
package tensor

import (
	"github.com/zerfoo/gotensor/numeric"
	"github.com/zerfoo/gotensor/tensorerr"
)

// MaxNDim is the maximum rank an Array may have (spec.md's MAX_NDIM).
const MaxNDim = 32

// Array is a strided, typed n-dimensional array. Exactly one of the typed
// data slices is non-nil, selected by dtype. Ownership is exclusive: each
// Array owns its own buffer, shape, and strides (spec.md §3).
type Array struct {
	dtype   numeric.DType
	shape   []int
	strides []int // element strides (not bytes); see DESIGN.md stride-units note

	i32 []int32
	i64 []int64
	f32 []float32
	f64 []float64
}

// DType returns the array's element type.
func (a *Array) DType() numeric.DType { return a.dtype }

// NDim returns the array's rank.
func (a *Array) NDim() int { return len(a.shape) }

// Shape returns a copy of the array's shape.
func (a *Array) Shape() []int {
	s := make([]int, len(a.shape))
	copy(s, a.shape)

	return s
}

// Strides returns a copy of the array's element strides.
func (a *Array) Strides() []int {
	s := make([]int, len(a.strides))
	copy(s, a.strides)

	return s
}

// TotalSize returns Π shape[i] — the number of elements (1 for a rank-0 array).
func (a *Array) TotalSize() int {
	return productInts(a.shape)
}

func productInts(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}

	return n
}

// rowMajorStrides computes C-order strides for shape.
func rowMajorStrides(shape []int) []int {
	strides := make([]int, len(shape))
	stride := 1

	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = stride
		stride *= shape[i]
	}

	return strides
}

// New allocates a zero-filled Array of the given shape and dtype.
func New(dtype numeric.DType, shape []int) (*Array, error) {
	if len(shape) > MaxNDim {
		return nil, tensorerr.New(tensorerr.ArrayInitFailure, "ndim %d exceeds MAX_NDIM %d", len(shape), MaxNDim)
	}

	for _, d := range shape {
		if d < 0 {
			return nil, tensorerr.New(tensorerr.ArrayInitFailure, "negative shape dimension %d", d)
		}
	}

	shapeCopy := make([]int, len(shape))
	copy(shapeCopy, shape)

	size := productInts(shapeCopy)
	arr := &Array{dtype: dtype, shape: shapeCopy, strides: rowMajorStrides(shapeCopy)}

	switch dtype {
	case numeric.I32:
		arr.i32 = make([]int32, size)
	case numeric.I64:
		arr.i64 = make([]int64, size)
	case numeric.F32:
		arr.f32 = make([]float32, size)
	case numeric.F64:
		arr.f64 = make([]float64, size)
	default:
		return nil, tensorerr.New(tensorerr.ArrayInitFailure, "unsupported dtype %v", dtype)
	}

	return arr, nil
}

// Zeros allocates an all-zero Array (zero-value initialization already
// satisfies this, so it is New with an explicit name for callers).
func Zeros(dtype numeric.DType, shape []int) (*Array, error) {
	return New(dtype, shape)
}

// Ones allocates an Array filled with the dtype's multiplicative identity.
func Ones(dtype numeric.DType, shape []int) (*Array, error) {
	arr, err := New(dtype, shape)
	if err != nil {
		return nil, err
	}

	one := numeric.One(dtype)
	for i := 0; i < arr.TotalSize(); i++ {
		arr.setLinear(i, one)
	}

	return arr, nil
}

// Eye allocates a 2-D m x n Array with ones on the main diagonal.
func Eye(m, n int, dtype numeric.DType) (*Array, error) {
	arr, err := New(dtype, []int{m, n})
	if err != nil {
		return nil, err
	}

	one := numeric.One(dtype)
	for i := 0; i < m && i < n; i++ {
		if err := arr.SetValue(one, i, i); err != nil {
			return nil, err
		}
	}

	return arr, nil
}

// Populate overwrites the array's entire buffer in row-major order. len(values)
// must equal TotalSize(); each value's dtype must match the array's.
func (a *Array) Populate(values []numeric.Value) error {
	if len(values) != a.TotalSize() {
		return tensorerr.New(tensorerr.ArrayInitFailure, "populate length %d does not match total size %d", len(values), a.TotalSize())
	}

	for i, v := range values {
		if v.DType() != a.dtype {
			return tensorerr.New(tensorerr.DtypeMismatch, "value dtype %v does not match array dtype %v", v.DType(), a.dtype)
		}

		a.setLinear(i, v)
	}

	return nil
}

// offsetOf validates indices and computes the element offset Σ indices[i]·strides[i].
func (a *Array) offsetOf(indices []int) (int, error) {
	if len(indices) != len(a.shape) {
		return 0, tensorerr.New(tensorerr.InvalidIdx, "expected %d indices, got %d", len(a.shape), len(indices))
	}

	offset := 0

	for i, idx := range indices {
		if idx < 0 || idx >= a.shape[i] {
			return 0, tensorerr.New(tensorerr.InvalidIdx, "index %d out of range for axis %d with extent %d", idx, i, a.shape[i])
		}

		offset += idx * a.strides[i]
	}

	return offset, nil
}

// ValueAt reads the element at indices.
func (a *Array) ValueAt(indices ...int) (numeric.Value, error) {
	offset, err := a.offsetOf(indices)
	if err != nil {
		return numeric.Value{}, err
	}

	return a.valueAtOffset(offset), nil
}

// SetValue writes value at indices. value's dtype must match the array's.
func (a *Array) SetValue(value numeric.Value, indices ...int) error {
	if value.DType() != a.dtype {
		return tensorerr.New(tensorerr.DtypeMismatch, "value dtype %v does not match array dtype %v", value.DType(), a.dtype)
	}

	offset, err := a.offsetOf(indices)
	if err != nil {
		return err
	}

	a.setAtOffset(offset, value)

	return nil
}

func (a *Array) valueAtOffset(offset int) numeric.Value {
	switch a.dtype {
	case numeric.I32:
		return numeric.FromI32(a.i32[offset])
	case numeric.I64:
		return numeric.FromI64(a.i64[offset])
	case numeric.F32:
		return numeric.FromF32(a.f32[offset])
	case numeric.F64:
		return numeric.FromF64(a.f64[offset])
	default:
		return numeric.Value{}
	}
}

// setAtOffset writes v's native field for a.dtype directly — no float64
// detour, since float64 cannot represent the full int64 range exactly
// (spec.md §4.A requires exact I32/I64 equality, not tolerance-based).
// Callers must ensure v.DType() == a.dtype.
func (a *Array) setAtOffset(offset int, v numeric.Value) {
	switch a.dtype {
	case numeric.I32:
		a.i32[offset] = v.Int32()
	case numeric.I64:
		a.i64[offset] = v.Int64()
	case numeric.F32:
		a.f32[offset] = v.Float32()
	case numeric.F64:
		a.f64[offset] = v.Float64()
	}
}

// setLinear writes v at the linear (contiguous row-major) index i — valid
// only for freshly allocated, contiguous arrays.
func (a *Array) setLinear(i int, v numeric.Value) {
	a.setAtOffset(i, v)
}

// Copy produces a fresh, contiguous, row-major clone, regardless of the
// source's strides (spec.md §4.B "Copy").
func (a *Array) Copy() (*Array, error) {
	out, err := New(a.dtype, a.shape)
	if err != nil {
		return nil, err
	}

	size := a.TotalSize()
	coords := make([]int, len(a.shape))

	for i := 0; i < size; i++ {
		decodeCoords(i, a.shape, coords)
		offset := 0

		for d, c := range coords {
			offset += c * a.strides[d]
		}

		out.setLinear(i, a.valueAtOffset(offset))
	}

	return out, nil
}

// decodeCoords decodes linear index i (row-major over shape) into coords,
// high axis first, matching spec.md's "loop high-to-low, idx_d = tmp % shape[d]".
func decodeCoords(i int, shape []int, coords []int) {
	tmp := i
	for d := len(shape) - 1; d >= 0; d-- {
		if shape[d] == 0 {
			coords[d] = 0

			continue
		}

		coords[d] = tmp % shape[d]
		tmp /= shape[d]
	}
}
