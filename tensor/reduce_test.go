package tensor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zerfoo/gotensor/numeric"
	"github.com/zerfoo/gotensor/tensor"
)

func TestSumAll(t *testing.T) {
	arr := newF32(t, []int{2, 2}, []float32{1, 2, 3, 4})

	s, err := tensor.Sum(arr)
	require.NoError(t, err)
	assert.Equal(t, 0, s.NDim())

	v, err := s.ValueAt()
	require.NoError(t, err)
	assert.InDelta(t, 10, v.Float64(), 1e-6)
}

// TestSumDimKeepDims covers spec.md §8 scenario 6.
func TestSumDimKeepDims(t *testing.T) {
	arr, err := tensor.New(numeric.F32, []int{2, 3, 3})
	require.NoError(t, err)

	vals := make([]numeric.Value, 18)
	for i := range vals {
		vals[i] = numeric.FromF32(float32(i))
	}

	require.NoError(t, arr.Populate(vals))

	out, err := tensor.SumDim(arr, 1, true)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 1, 3}, out.Shape())

	for b := 0; b < 2; b++ {
		for j := 0; j < 3; j++ {
			want := 0.0
			for i := 0; i < 3; i++ {
				v, err := arr.ValueAt(b, i, j)
				require.NoError(t, err)
				want += v.Float64()
			}

			got, err := out.ValueAt(b, 0, j)
			require.NoError(t, err)
			assert.InDelta(t, want, got.Float64(), 1e-4)
		}
	}
}

func TestSumDimWithoutKeepDimsDropsAxis(t *testing.T) {
	arr := newF32(t, []int{2, 3}, []float32{1, 2, 3, 4, 5, 6})

	out, err := tensor.SumDim(arr, 0, false)
	require.NoError(t, err)
	assert.Equal(t, []int{3}, out.Shape())

	v0, _ := out.ValueAt(0)
	assert.InDelta(t, 5, v0.Float64(), 1e-6)
}

func TestSumDimOutOfRange(t *testing.T) {
	arr := newF32(t, []int{2, 3}, []float32{1, 2, 3, 4, 5, 6})

	_, err := tensor.SumDim(arr, 5, false)
	require.Error(t, err)
}
