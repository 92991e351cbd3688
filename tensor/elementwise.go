package tensor

import (
	"github.com/zerfoo/gotensor/numeric"
	"github.com/zerfoo/gotensor/tensorerr"
)

// binaryOp implements the broadcasted elementwise algorithm from spec.md
// §4.B: check dtypes, compute the broadcast shape and stride vectors,
// allocate a contiguous result, then decode/gather/write per linear index.
func binaryOp(a, b *Array, op func(x, y numeric.Value) numeric.Value) (*Array, error) {
	if a.dtype != b.dtype {
		return nil, tensorerr.New(tensorerr.DtypeMismatch, "dtype mismatch: %v vs %v", a.dtype, b.dtype)
	}

	shape, err := BroadcastShapes(a.shape, b.shape)
	if err != nil {
		return nil, err
	}

	out, err := New(a.dtype, shape)
	if err != nil {
		return nil, err
	}

	aStrides := broadcastStrides(a.shape, a.strides, shape)
	bStrides := broadcastStrides(b.shape, b.strides, shape)

	total := out.TotalSize()
	for i := 0; i < total; i++ {
		aOff := offsetForBroadcast(i, shape, aStrides)
		bOff := offsetForBroadcast(i, shape, bStrides)
		out.setLinear(i, op(a.valueAtOffset(aOff), b.valueAtOffset(bOff)))
	}

	return out, nil
}

// Add computes the broadcasted elementwise sum of a and b.
func Add(a, b *Array) (*Array, error) { return binaryOp(a, b, numeric.Add) }

// Sub computes the broadcasted elementwise difference of a and b.
func Sub(a, b *Array) (*Array, error) { return binaryOp(a, b, numeric.Sub) }

// Mul computes the broadcasted elementwise product of a and b.
func Mul(a, b *Array) (*Array, error) { return binaryOp(a, b, numeric.Mul) }

// Div computes the broadcasted elementwise quotient of a and b.
func Div(a, b *Array) (*Array, error) { return binaryOp(a, b, numeric.Div) }

// Max computes the broadcasted elementwise maximum, ties going to a.
func Max(a, b *Array) (*Array, error) { return binaryOp(a, b, numeric.Max) }

// Min computes the broadcasted elementwise minimum, ties going to a.
func Min(a, b *Array) (*Array, error) { return binaryOp(a, b, numeric.Min) }

// boolOp returns a same-dtype 0/1 array (spec.md's comparison kernels never
// introduce a boolean dtype).
func boolOp(a, b *Array, cmp func(x, y numeric.Value) bool) (*Array, error) {
	return binaryOp(a, b, func(x, y numeric.Value) numeric.Value {
		if cmp(x, y) {
			return numeric.One(a.dtype)
		}

		return numeric.Zero(a.dtype)
	})
}

// Gt returns a same-dtype 0/1 array: 1 where a[i] > b[i].
func Gt(a, b *Array) (*Array, error) { return boolOp(a, b, numeric.Greater) }

// Ge returns a same-dtype 0/1 array: 1 where a[i] >= b[i].
func Ge(a, b *Array) (*Array, error) { return boolOp(a, b, numeric.GreaterEqual) }

// Lt returns a same-dtype 0/1 array: 1 where a[i] < b[i].
func Lt(a, b *Array) (*Array, error) { return boolOp(a, b, numeric.Less) }

// Le returns a same-dtype 0/1 array: 1 where a[i] <= b[i].
func Le(a, b *Array) (*Array, error) { return boolOp(a, b, numeric.LessEqual) }

// Eq returns a same-dtype 0/1 array: 1 where a[i] == b[i].
func Eq(a, b *Array) (*Array, error) { return boolOp(a, b, numeric.ApproxEqual) }

// unaryOp applies fn to every element of a, honoring a's strides so it is
// correct on non-contiguous views (e.g. the result of a transpose).
func unaryOp(a *Array, fn func(numeric.Value) numeric.Value) (*Array, error) {
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

		out.setLinear(i, fn(a.valueAtOffset(offset)))
	}

	return out, nil
}

// Neg negates every element of a.
func Neg(a *Array) (*Array, error) {
	return unaryOp(a, numeric.Neg)
}

// Inv computes the elementwise reciprocal 1/x. Only meaningful on float
// dtypes; callers (graph.Tensor's Inv) are responsible for enforcing that,
// since Array itself does not track requires_grad.
func Inv(a *Array) (*Array, error) {
	one := numeric.One(a.dtype)

	return unaryOp(a, func(v numeric.Value) numeric.Value {
		return numeric.Div(one, v)
	})
}
