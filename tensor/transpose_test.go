package tensor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zerfoo/gotensor/numeric"
	"github.com/zerfoo/gotensor/tensor"
)

// TestTransposePermutation covers spec.md §8 scenario 5.
func TestTransposePermutation(t *testing.T) {
	arr, err := tensor.New(numeric.F32, []int{2, 3, 3})
	require.NoError(t, err)

	vals := make([]numeric.Value, 18)
	for i := range vals {
		vals[i] = numeric.FromF32(float32(i))
	}

	require.NoError(t, arr.Populate(vals))

	out, err := tensor.Transpose(arr, []int{1, 2, 0})
	require.NoError(t, err)
	assert.Equal(t, []int{3, 3, 2}, out.Shape())

	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			for k := 0; k < 2; k++ {
				tv, err := out.ValueAt(i, j, k)
				require.NoError(t, err)

				av, err := arr.ValueAt(k, i, j)
				require.NoError(t, err)

				assert.Equal(t, av.Float64(), tv.Float64())
			}
		}
	}
}

func TestTransposeInvolution(t *testing.T) {
	arr, err := tensor.New(numeric.F32, []int{2, 3})
	require.NoError(t, err)

	vals := make([]numeric.Value, 6)
	for i := range vals {
		vals[i] = numeric.FromF32(float32(i))
	}

	require.NoError(t, arr.Populate(vals))

	once, err := tensor.Transpose(arr, []int{1, 0})
	require.NoError(t, err)

	twice, err := tensor.Transpose(once, []int{1, 0})
	require.NoError(t, err)

	assert.True(t, tensor.Equal(arr, twice))
}

func TestTransposeRepeatedAxisRejected(t *testing.T) {
	arr, err := tensor.New(numeric.F32, []int{2, 3})
	require.NoError(t, err)

	_, err = tensor.Transpose(arr, []int{0, 0})
	require.Error(t, err)
}

func TestInversePermutation(t *testing.T) {
	dims := []int{2, 0, 1}
	inv := tensor.InversePermutation(dims)
	assert.Equal(t, []int{1, 2, 0}, inv)

	for i, d := range dims {
		assert.Equal(t, i, inv[d])
	}
}
