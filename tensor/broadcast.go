package tensor

import "github.com/zerfoo/gotensor/tensorerr"

// BroadcastShapes computes the right-aligned broadcast of two shapes,
// adapted from the teacher's BroadcastShapes algorithm (same right-aligned
// dimension walk), but returns an error instead of a bool-only report so
// callers get spec.md's NonBroadcastable failure kind.
func BroadcastShapes(a, b []int) ([]int, error) {
	lenA, lenB := len(a), len(b)

	maxLen := lenA
	if lenB > maxLen {
		maxLen = lenB
	}

	result := make([]int, maxLen)

	for i := 1; i <= maxLen; i++ {
		dimA := 1
		if i <= lenA {
			dimA = a[lenA-i]
		}

		dimB := 1
		if i <= lenB {
			dimB = b[lenB-i]
		}

		if dimA != dimB && dimA != 1 && dimB != 1 {
			return nil, tensorerr.New(tensorerr.NonBroadcastable, "shapes %v and %v incompatible at dimension -%d (%d vs %d)", a, b, i, dimA, dimB)
		}

		if dimA > dimB {
			result[maxLen-i] = dimA
		} else {
			result[maxLen-i] = dimB
		}
	}

	return result, nil
}

// broadcastStrides derives the stride vector an operand of shape `shape`
// uses when iterated against `target` (the broadcast result shape):
// missing high axes get stride 0, axes of extent 1 get stride 0, all others
// retain the operand's own stride (spec.md §4.B "Broadcasting").
func broadcastStrides(shape, strides, target []int) []int {
	offset := len(target) - len(shape)
	out := make([]int, len(target))

	for i := range target {
		srcIdx := i - offset
		if srcIdx < 0 {
			out[i] = 0

			continue
		}

		if shape[srcIdx] == 1 {
			out[i] = 0
		} else {
			out[i] = strides[srcIdx]
		}
	}

	return out
}

// offsetForBroadcast returns an operand's element offset corresponding to
// linear index i in the broadcast result of shape targetShape, using the
// operand's derived broadcast strides bStrides, per spec.md's
// elementwise-kernel decode/gather algorithm.
func offsetForBroadcast(i int, targetShape, bStrides []int) int {
	offset := 0
	tmp := i

	for d := len(targetShape) - 1; d >= 0; d-- {
		var coord int
		if targetShape[d] == 0 {
			coord = 0
		} else {
			coord = tmp % targetShape[d]
			tmp /= targetShape[d]
		}

		offset += coord * bStrides[d]
	}

	return offset
}
