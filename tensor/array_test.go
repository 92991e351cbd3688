package tensor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zerfoo/gotensor/numeric"
	"github.com/zerfoo/gotensor/tensor"
	"github.com/zerfoo/gotensor/tensorerr"
)

func TestNew_RowMajorStrides(t *testing.T) {
	arr, err := tensor.New(numeric.F32, []int{2, 3})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, arr.Shape())
	assert.Equal(t, []int{3, 1}, arr.Strides())
	assert.Equal(t, 6, arr.TotalSize())
}

func TestNew_RankZero(t *testing.T) {
	arr, err := tensor.New(numeric.F64, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, arr.TotalSize())
	assert.Equal(t, 0, arr.NDim())
}

func TestNew_ZeroExtentDimension(t *testing.T) {
	arr, err := tensor.New(numeric.I32, []int{3, 0, 2})
	require.NoError(t, err)
	assert.Equal(t, 0, arr.TotalSize())
}

func TestNew_ExceedsMaxNDim(t *testing.T) {
	shape := make([]int, tensor.MaxNDim+1)
	for i := range shape {
		shape[i] = 1
	}

	_, err := tensor.New(numeric.F32, shape)
	require.Error(t, err)

	kind, ok := tensorerr.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, tensorerr.ArrayInitFailure, kind)
}

func TestValueAt_RowMajorMatchesRawOrder(t *testing.T) {
	arr, err := tensor.New(numeric.F32, []int{2, 2})
	require.NoError(t, err)

	err = arr.Populate([]numeric.Value{
		numeric.FromF32(1), numeric.FromF32(2),
		numeric.FromF32(3), numeric.FromF32(4),
	})
	require.NoError(t, err)

	v, err := arr.ValueAt(1, 0)
	require.NoError(t, err)
	assert.Equal(t, float64(3), v.Float64())
}

func TestValueAt_OutOfRange(t *testing.T) {
	arr, err := tensor.New(numeric.I32, []int{2, 2})
	require.NoError(t, err)

	_, err = arr.ValueAt(2, 0)
	require.Error(t, err)

	kind, ok := tensorerr.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, tensorerr.InvalidIdx, kind)
}

func TestEye(t *testing.T) {
	arr, err := tensor.Eye(3, 3, numeric.F32)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			v, err := arr.ValueAt(i, j)
			require.NoError(t, err)

			if i == j {
				assert.Equal(t, float64(1), v.Float64())
			} else {
				assert.Equal(t, float64(0), v.Float64())
			}
		}
	}
}

func TestCopy_IsContiguousAndIndependent(t *testing.T) {
	arr, err := tensor.Eye(2, 2, numeric.F32)
	require.NoError(t, err)

	transposed, err := tensor.Transpose(arr, []int{1, 0})
	require.NoError(t, err)

	cp, err := transposed.Copy()
	require.NoError(t, err)

	assert.True(t, tensor.Equal(cp, transposed))
}

func TestOnes(t *testing.T) {
	arr, err := tensor.Ones(numeric.I64, []int{2, 2})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			v, err := arr.ValueAt(i, j)
			require.NoError(t, err)
			assert.Equal(t, float64(1), v.Float64())
		}
	}
}
