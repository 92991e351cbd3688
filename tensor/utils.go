package tensor

import "github.com/zerfoo/gotensor/numeric"

// ShapesEqual reports whether a and b are identical, dimension for dimension.
func ShapesEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}

// Equal reports whether a and b have the same shape, dtype, and every
// corresponding element compares ApproxEqual (spec.md §8's round-trip and
// gradient-law properties are phrased against this notion of equality).
func Equal(a, b *Array) bool {
	if a.dtype != b.dtype || !ShapesEqual(a.shape, b.shape) {
		return false
	}

	size := a.TotalSize()
	aCoords := make([]int, len(a.shape))

	for i := 0; i < size; i++ {
		decodeCoords(i, a.shape, aCoords)

		aOffset, bOffset := 0, 0
		for d, c := range aCoords {
			aOffset += c * a.strides[d]
			bOffset += c * b.strides[d]
		}

		if !numeric.ApproxEqual(a.valueAtOffset(aOffset), b.valueAtOffset(bOffset)) {
			return false
		}
	}

	return true
}
