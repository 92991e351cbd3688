package tensor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zerfoo/gotensor/numeric"
	"github.com/zerfoo/gotensor/tensor"
)

func newF32(t *testing.T, shape []int, data []float32) *tensor.Array {
	t.Helper()

	arr, err := tensor.New(numeric.F32, shape)
	require.NoError(t, err)

	vals := make([]numeric.Value, len(data))
	for i, v := range data {
		vals[i] = numeric.FromF32(v)
	}

	require.NoError(t, arr.Populate(vals))

	return arr
}

func TestMatMul2D(t *testing.T) {
	a := newF32(t, []int{2, 3}, []float32{1, 2, 3, 4, 5, 6})
	b := newF32(t, []int{3, 2}, []float32{7, 8, 9, 10, 11, 12})

	c, err := tensor.MatMul(a, b)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2}, c.Shape())

	want := [][]float32{{58, 64}, {139, 154}}
	for i := range want {
		for j := range want[i] {
			v, err := c.ValueAt(i, j)
			require.NoError(t, err)
			assert.InDelta(t, want[i][j], v.Float64(), 1e-4)
		}
	}
}

// TestBatchedMatMulBroadcast covers spec.md §8 scenario 4.
func TestBatchedMatMulBroadcast(t *testing.T) {
	a := newF32(t, []int{2, 2, 2}, []float32{
		1, 2, 3, 4,
		5, 6, 7, 8,
	})
	b := newF32(t, []int{1, 2, 2}, []float32{1, 0, 0, 1})

	c, err := tensor.MatMul(a, b)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2, 2}, c.Shape())

	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			v, err := c.ValueAt(0, i, j)
			require.NoError(t, err)
			av, _ := a.ValueAt(0, i, j)
			assert.InDelta(t, av.Float64(), v.Float64(), 1e-6)
		}
	}
}

func TestMatMulRankTooLow(t *testing.T) {
	a := newF32(t, []int{3}, []float32{1, 2, 3})
	b := newF32(t, []int{3, 1}, []float32{1, 2, 3})

	_, err := tensor.MatMul(a, b)
	require.Error(t, err)
}

func TestMatMulInnerDimensionMismatch(t *testing.T) {
	a := newF32(t, []int{2, 3}, []float32{1, 2, 3, 4, 5, 6})
	b := newF32(t, []int{4, 2}, []float32{1, 2, 3, 4, 5, 6, 7, 8})

	_, err := tensor.MatMul(a, b)
	require.Error(t, err)
}

func TestMatMulIntegerRejected(t *testing.T) {
	a, err := tensor.New(numeric.I32, []int{2, 2})
	require.NoError(t, err)
	b, err := tensor.New(numeric.I32, []int{2, 2})
	require.NoError(t, err)

	_, err = tensor.MatMul(a, b)
	require.Error(t, err)
}
