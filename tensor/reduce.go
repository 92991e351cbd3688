package tensor

import (
	"github.com/zerfoo/gotensor/numeric"
	"github.com/zerfoo/gotensor/tensorerr"
)

// Sum returns a rank-0 array of a's dtype containing the sum of all elements.
// Float summation order is unspecified (spec.md §4.B); this implementation
// walks elements in row-major order.
func Sum(a *Array) (*Array, error) {
	out, err := New(a.dtype, nil)
	if err != nil {
		return nil, err
	}

	acc := numeric.Zero(a.dtype)
	size := a.TotalSize()
	coords := make([]int, len(a.shape))

	for i := 0; i < size; i++ {
		decodeCoords(i, a.shape, coords)
		offset := 0

		for d, c := range coords {
			offset += c * a.strides[d]
		}

		acc = numeric.Add(acc, a.valueAtOffset(offset))
	}

	out.setLinear(0, acc)

	return out, nil
}

// SumDim collapses axis `dim`, returning an array of rank `ndim` if
// keepDims, else `ndim-1` (spec.md §4.B "sum_dim").
func SumDim(a *Array, dim int, keepDims bool) (*Array, error) {
	if dim < 0 || dim >= len(a.shape) {
		return nil, tensorerr.New(tensorerr.InvalidArray, "axis %d out of bounds for rank %d", dim, len(a.shape))
	}

	outShape := make([]int, 0, len(a.shape))

	for i, d := range a.shape {
		switch {
		case i != dim:
			outShape = append(outShape, d)
		case keepDims:
			outShape = append(outShape, 1)
		}
	}

	out, err := New(a.dtype, outShape)
	if err != nil {
		return nil, err
	}

	size := a.TotalSize()
	coords := make([]int, len(a.shape))
	outCoords := make([]int, 0, len(outShape))

	for i := 0; i < size; i++ {
		decodeCoords(i, a.shape, coords)
		offset := 0

		for d, c := range coords {
			offset += c * a.strides[d]
		}

		outCoords = outCoords[:0]

		for d, c := range coords {
			switch {
			case d != dim:
				outCoords = append(outCoords, c)
			case keepDims:
				outCoords = append(outCoords, 0)
			}
		}

		outOffset := 0
		for d, c := range outCoords {
			outOffset += c * out.strides[d]
		}

		out.setAtOffset(outOffset, numeric.Add(out.valueAtOffset(outOffset), a.valueAtOffset(offset)))
	}

	return out, nil
}
