package tensor

import "github.com/zerfoo/gotensor/tensorerr"

// Transpose returns an array whose shape is a's shape permuted by dims.
// dims must be a permutation of [0, ndim). The spec does not require
// buffer sharing (spec.md §3); this implementation returns an independent
// row-major copy laid out in the permuted order (its strides are the
// contiguous strides of the new shape), which is simpler to reason about
// for the autograd reducer and still produces identical logical values to
// the permuted view.
func Transpose(a *Array, dims []int) (*Array, error) {
	if len(dims) != len(a.shape) {
		return nil, tensorerr.New(tensorerr.InvalidDim, "dims length %d does not match rank %d", len(dims), len(a.shape))
	}

	seen := make([]bool, len(dims))

	for _, d := range dims {
		if d < 0 || d >= len(dims) {
			return nil, tensorerr.New(tensorerr.InvalidDim, "axis %d out of range for rank %d", d, len(dims))
		}

		if seen[d] {
			return nil, tensorerr.New(tensorerr.RepeatedArrayDims, "axis %d repeated in permutation %v", d, dims)
		}

		seen[d] = true
	}

	newShape := make([]int, len(dims))
	for i, d := range dims {
		newShape[i] = a.shape[d]
	}

	out, err := New(a.dtype, newShape)
	if err != nil {
		return nil, err
	}

	size := a.TotalSize()
	oldCoords := make([]int, len(a.shape))
	newCoords := make([]int, len(dims))

	for i := 0; i < size; i++ {
		decodeCoords(i, a.shape, oldCoords)

		oldOffset := 0
		for d, c := range oldCoords {
			oldOffset += c * a.strides[d]
		}

		for j, d := range dims {
			newCoords[j] = oldCoords[d]
		}

		newOffset := 0
		for j, c := range newCoords {
			newOffset += c * out.strides[j]
		}

		out.setAtOffset(newOffset, a.valueAtOffset(oldOffset))
	}

	return out, nil
}

// InversePermutation returns the permutation p such that applying dims then
// p restores the original axis order — i.e. p[dims[i]] = i. spec.md's
// DESIGN NOTES flag that the original source reapplies the forward
// permutation at backward time, which is only correct for involutions;
// gotensor inverts explicitly (see DESIGN.md).
func InversePermutation(dims []int) []int {
	inv := make([]int, len(dims))
	for i, d := range dims {
		inv[d] = i
	}

	return inv
}
