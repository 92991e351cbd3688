package tensor

import (
	"github.com/zerfoo/gotensor/numeric"
	"github.com/zerfoo/gotensor/tensorerr"
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"
	"gonum.org/v1/gonum/blas/blas64"
)

// MatMul performs batched matrix multiplication: inputs (..., m, k) and
// (..., k', n) with k == k', broadcasting the leading batch dimensions, per
// spec.md §4.B "Matmul". Every Array produced by this package is already
// contiguous row-major (gotensor never aliases a buffer across views other
// than in the caller's own bookkeeping), so every batch tile offered to the
// GEMM call below is a contiguous row-major slice — there is no non-
// contiguous tile to copy, unlike an implementation that supports aliasing
// transpose views.
func MatMul(a, b *Array) (*Array, error) {
	if len(a.shape) < 2 || len(b.shape) < 2 {
		return nil, tensorerr.New(tensorerr.InvalidArray, "matmul requires rank >= 2, got %d and %d", len(a.shape), len(b.shape))
	}

	if a.dtype != b.dtype {
		return nil, tensorerr.New(tensorerr.DtypeMismatch, "matmul dtype mismatch: %v vs %v", a.dtype, b.dtype)
	}

	if a.dtype != numeric.F32 && a.dtype != numeric.F64 {
		return nil, tensorerr.New(tensorerr.InvalidDtype, "matmul is only supported for F32/F64, got %v", a.dtype)
	}

	m := a.shape[len(a.shape)-2]
	k := a.shape[len(a.shape)-1]
	kb := b.shape[len(b.shape)-2]
	n := b.shape[len(b.shape)-1]

	if k != kb {
		return nil, tensorerr.New(tensorerr.ShapeMismatch, "inner dimensions disagree: %d vs %d", k, kb)
	}

	aBatch := a.shape[:len(a.shape)-2]
	bBatch := b.shape[:len(b.shape)-2]

	batchShape, err := BroadcastShapes(aBatch, bBatch)
	if err != nil {
		return nil, err
	}

	outShape := append(append([]int{}, batchShape...), m, n)

	out, err := New(a.dtype, outShape)
	if err != nil {
		return nil, err
	}

	batchSize := productInts(batchShape)
	if batchSize == 0 || m == 0 || n == 0 {
		return out, nil
	}

	aStrides := broadcastStrides(aBatch, a.strides[:len(aBatch)], batchShape)
	bStrides := broadcastStrides(bBatch, b.strides[:len(bBatch)], batchShape)

	for i := 0; i < batchSize; i++ {
		aBatchOffset := offsetForBroadcast(i, batchShape, aStrides)
		bBatchOffset := offsetForBroadcast(i, batchShape, bStrides)
		outBatchOffset := i * m * n

		switch a.dtype {
		case numeric.F32:
			gemm32(a.f32[aBatchOffset:aBatchOffset+m*k], b.f32[bBatchOffset:bBatchOffset+k*n], out.f32[outBatchOffset:outBatchOffset+m*n], m, k, n)
		case numeric.F64:
			gemm64(a.f64[aBatchOffset:aBatchOffset+m*k], b.f64[bBatchOffset:bBatchOffset+k*n], out.f64[outBatchOffset:outBatchOffset+m*n], m, k, n)
		}
	}

	return out, nil
}

// gemm32 computes c = a @ b for row-major m x k, k x n, m x n float32 tiles
// via SGEMM.
func gemm32(a, b, c []float32, m, k, n int) {
	blas32.Gemm(blas.NoTrans, blas.NoTrans, 1,
		blas32.General{Rows: m, Cols: k, Stride: k, Data: a},
		blas32.General{Rows: k, Cols: n, Stride: n, Data: b},
		0,
		blas32.General{Rows: m, Cols: n, Stride: n, Data: c},
	)
}

// gemm64 computes c = a @ b for row-major m x k, k x n, m x n float64 tiles
// via DGEMM.
func gemm64(a, b, c []float64, m, k, n int) {
	blas64.Gemm(blas.NoTrans, blas.NoTrans, 1,
		blas64.General{Rows: m, Cols: k, Stride: k, Data: a},
		blas64.General{Rows: k, Cols: n, Stride: n, Data: b},
		0,
		blas64.General{Rows: m, Cols: n, Stride: n, Data: c},
	)
}
