package tensor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zerfoo/gotensor/numeric"
	"github.com/zerfoo/gotensor/tensor"
)

func eyeRow(t *testing.T, b []float32) *tensor.Array {
	t.Helper()

	arr, err := tensor.New(numeric.F32, []int{len(b)})
	require.NoError(t, err)

	vals := make([]numeric.Value, len(b))
	for i, v := range b {
		vals[i] = numeric.FromF32(v)
	}

	require.NoError(t, arr.Populate(vals))

	return arr
}

// TestIdentityPlusRowBroadcast covers spec.md §8 scenario 1.
func TestIdentityPlusRowBroadcast(t *testing.T) {
	a, err := tensor.Eye(3, 3, numeric.F32)
	require.NoError(t, err)
	b := eyeRow(t, []float32{2, 3, 4})

	c, err := tensor.Add(a, b)
	require.NoError(t, err)

	want := [][]float32{{3, 3, 4}, {2, 4, 4}, {2, 3, 5}}
	for i := range want {
		for j := range want[i] {
			v, err := c.ValueAt(i, j)
			require.NoError(t, err)
			assert.InDelta(t, want[i][j], v.Float64(), 1e-6)
		}
	}
}

// TestElementwiseMultiplyBroadcast covers spec.md §8 scenario 2.
func TestElementwiseMultiplyBroadcast(t *testing.T) {
	a, err := tensor.Eye(3, 3, numeric.F32)
	require.NoError(t, err)
	b := eyeRow(t, []float32{2, 3, 4})

	c, err := tensor.Mul(a, b)
	require.NoError(t, err)

	want := [][]float32{{2, 0, 0}, {0, 3, 0}, {0, 0, 4}}
	for i := range want {
		for j := range want[i] {
			v, err := c.ValueAt(i, j)
			require.NoError(t, err)
			assert.InDelta(t, want[i][j], v.Float64(), 1e-6)
		}
	}
}

// TestDivisionByBroadcastRow covers the forward values of spec.md §8
// scenario 3, using tensor.Div directly.
func TestDivisionByBroadcastRow(t *testing.T) {
	a, err := tensor.Eye(3, 3, numeric.F32)
	require.NoError(t, err)
	b := eyeRow(t, []float32{2, 3, 4})

	c, err := tensor.Div(a, b)
	require.NoError(t, err)

	want := [][]float32{
		{0.5, 0, 0},
		{0, 1.0 / 3, 0},
		{0, 0, 0.25},
	}
	for i := range want {
		for j := range want[i] {
			v, err := c.ValueAt(i, j)
			require.NoError(t, err)
			assert.InDelta(t, want[i][j], v.Float64(), 1e-3)
		}
	}
}

func TestDtypeMismatchRejected(t *testing.T) {
	a, err := tensor.New(numeric.F32, []int{2})
	require.NoError(t, err)
	b, err := tensor.New(numeric.F64, []int{2})
	require.NoError(t, err)

	_, err = tensor.Add(a, b)
	require.Error(t, err)
}

func TestNonBroadcastableShapes(t *testing.T) {
	a, err := tensor.New(numeric.F32, []int{2, 3})
	require.NoError(t, err)
	b, err := tensor.New(numeric.F32, []int{4, 5})
	require.NoError(t, err)

	_, err = tensor.Add(a, b)
	require.Error(t, err)
}

func TestMaxMinTieBreak(t *testing.T) {
	a := eyeRow(t, []float32{1, 2, 3})
	b := eyeRow(t, []float32{1, 1, 4})

	maxed, err := tensor.Max(a, b)
	require.NoError(t, err)

	v0, _ := maxed.ValueAt(0)
	assert.InDelta(t, 1, v0.Float64(), 1e-6) // tie -> a

	minned, err := tensor.Min(a, b)
	require.NoError(t, err)

	v2, _ := minned.ValueAt(2)
	assert.InDelta(t, 3, v2.Float64(), 1e-6)
}

func TestComparisonKernelsReturnSameDtypeZeroOne(t *testing.T) {
	a := eyeRow(t, []float32{1, 2, 3})
	b := eyeRow(t, []float32{2, 2, 2})

	gt, err := tensor.Gt(a, b)
	require.NoError(t, err)
	assert.Equal(t, numeric.F32, gt.DType())

	v0, _ := gt.ValueAt(0)
	v2, _ := gt.ValueAt(2)
	assert.Equal(t, float64(0), v0.Float64())
	assert.Equal(t, float64(1), v2.Float64())
}

func TestElementwiseOpSameShapeProperty(t *testing.T) {
	a := eyeRow(t, []float32{1, 2, 3, 4})
	b := eyeRow(t, []float32{10, 20, 30, 40})

	result, err := tensor.Add(a, b)
	require.NoError(t, err)

	assert.Equal(t, a.Shape(), result.Shape())

	for i := 0; i < 4; i++ {
		av, _ := a.ValueAt(i)
		bv, _ := b.ValueAt(i)
		rv, _ := result.ValueAt(i)
		assert.InDelta(t, av.Float64()+bv.Float64(), rv.Float64(), 1e-6)
	}
}
