package autograd_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zerfoo/gotensor/arena"
	"github.com/zerfoo/gotensor/autograd"
	"github.com/zerfoo/gotensor/graph"
	"github.com/zerfoo/gotensor/numeric"
	"github.com/zerfoo/gotensor/tensor"
)

func leaf(t *testing.T, shape []int, data []float32) *graph.Tensor {
	t.Helper()

	arr, err := tensor.New(numeric.F32, shape)
	require.NoError(t, err)

	vals := make([]numeric.Value, len(data))
	for i, v := range data {
		vals[i] = numeric.FromF32(v)
	}

	require.NoError(t, arr.Populate(vals))

	tn, err := graph.New(arr, true, arena.New())
	require.NoError(t, err)

	return tn
}

func gradValue(t *testing.T, tn *graph.Tensor, indices ...int) float64 {
	t.Helper()

	grad, err := tn.Grad()
	require.NoError(t, err)

	v, err := grad.ValueAt(indices...)
	require.NoError(t, err)

	return v.Float64()
}

// TestAddBackward covers spec.md §8's gradient-law scenario for +.
func TestAddBackward(t *testing.T) {
	a := leaf(t, []int{2}, []float32{1, 2})
	b := leaf(t, []int{2}, []float32{3, 4})

	out, err := autograd.Add(a, b)
	require.NoError(t, err)

	sum, err := autograd.Sum(out)
	require.NoError(t, err)

	require.NoError(t, autograd.Backward(sum, nil))

	assert.InDelta(t, 1, gradValue(t, a, 0), 1e-6)
	assert.InDelta(t, 1, gradValue(t, a, 1), 1e-6)
	assert.InDelta(t, 1, gradValue(t, b, 0), 1e-6)
}

// TestMulBackward covers the product rule.
func TestMulBackward(t *testing.T) {
	a := leaf(t, []int{2}, []float32{2, 3})
	b := leaf(t, []int{2}, []float32{5, 7})

	out, err := autograd.Mul(a, b)
	require.NoError(t, err)

	sum, err := autograd.Sum(out)
	require.NoError(t, err)

	require.NoError(t, autograd.Backward(sum, nil))

	assert.InDelta(t, 5, gradValue(t, a, 0), 1e-6)
	assert.InDelta(t, 7, gradValue(t, a, 1), 1e-6)
	assert.InDelta(t, 2, gradValue(t, b, 0), 1e-6)
	assert.InDelta(t, 3, gradValue(t, b, 1), 1e-6)
}

// TestAddBroadcastGradReduces covers a bias-add style broadcast backward.
func TestAddBroadcastGradReduces(t *testing.T) {
	a := leaf(t, []int{2, 3}, []float32{1, 2, 3, 4, 5, 6})
	bias := leaf(t, []int{3}, []float32{1, 1, 1})

	out, err := autograd.Add(a, bias)
	require.NoError(t, err)

	sum, err := autograd.Sum(out)
	require.NoError(t, err)

	require.NoError(t, autograd.Backward(sum, nil))

	for j := 0; j < 3; j++ {
		assert.InDelta(t, 2, gradValue(t, bias, j), 1e-6)
	}
}

// TestMatMulBackward covers the matmul gradient law C = A@B.
func TestMatMulBackward(t *testing.T) {
	a := leaf(t, []int{2, 2}, []float32{1, 2, 3, 4})
	b := leaf(t, []int{2, 2}, []float32{5, 6, 7, 8})

	c, err := autograd.MatMul(a, b)
	require.NoError(t, err)

	sum, err := autograd.Sum(c)
	require.NoError(t, err)

	require.NoError(t, autograd.Backward(sum, nil))

	// dA = ones(2,2) @ B^T
	assert.InDelta(t, 11, gradValue(t, a, 0, 0), 1e-4)
	assert.InDelta(t, 15, gradValue(t, a, 0, 1), 1e-4)

	// dB = A^T @ ones(2,2)
	assert.InDelta(t, 4, gradValue(t, b, 0, 0), 1e-4)
	assert.InDelta(t, 4, gradValue(t, b, 0, 1), 1e-4)
}

func TestTransposeBackwardInvertsPermutation(t *testing.T) {
	a := leaf(t, []int{2, 3}, []float32{1, 2, 3, 4, 5, 6})

	out, err := autograd.Transpose(a, []int{1, 0})
	require.NoError(t, err)

	sum, err := autograd.Sum(out)
	require.NoError(t, err)

	require.NoError(t, autograd.Backward(sum, nil))

	for i := 0; i < 2; i++ {
		for j := 0; j < 3; j++ {
			assert.InDelta(t, 1, gradValue(t, a, i, j), 1e-6)
		}
	}
}

func TestBackwardRejectsNonRequiresGrad(t *testing.T) {
	tn, err := graph.Zeros(numeric.F32, []int{2}, false, arena.New())
	require.NoError(t, err)

	err = autograd.Backward(tn, nil)
	require.Error(t, err)
}

func TestBackwardRequiresSeedForNonScalar(t *testing.T) {
	tn, err := graph.Zeros(numeric.F32, []int{2}, true, arena.New())
	require.NoError(t, err)

	err = autograd.Backward(tn, nil)
	require.Error(t, err)
}

func TestGradientDoesNotMutateAccumulatedGrad(t *testing.T) {
	a := leaf(t, []int{2}, []float32{1, 2})
	b := leaf(t, []int{2}, []float32{3, 4})

	out, err := autograd.Add(a, b)
	require.NoError(t, err)

	seedArr, err := tensor.Ones(numeric.F32, []int{2})
	require.NoError(t, err)

	seed, err := graph.New(seedArr, false, nil)
	require.NoError(t, err)

	grads, err := autograd.Gradient([]*graph.Tensor{a, b}, []*graph.Tensor{out}, []*graph.Tensor{seed}, false)
	require.NoError(t, err)
	require.Len(t, grads, 2)

	v, err := grads[0].Data().ValueAt(0)
	require.NoError(t, err)
	assert.InDelta(t, 1, v.Float64(), 1e-6)

	aGrad, err := a.Grad()
	require.NoError(t, err)
	assert.Nil(t, aGrad)
}

func TestReduceGradSumsLeadingBatchAndKeepdimsAxes(t *testing.T) {
	grad, err := tensor.Ones(numeric.F32, []int{4, 2, 3})
	require.NoError(t, err)

	reduced, err := autograd.ReduceGrad(grad, []int{1, 3})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, reduced.Shape())

	v, err := reduced.ValueAt(0, 0)
	require.NoError(t, err)
	assert.InDelta(t, 8, v.Float64(), 1e-6)
}

func TestDestEnvRejectsTwoLockedArenas(t *testing.T) {
	aEnv := arena.New()
	bEnv := arena.New()

	a, err := graph.New(mustArray(t, []int{2}), true, aEnv)
	require.NoError(t, err)

	b, err := graph.New(mustArray(t, []int{2}), true, bEnv)
	require.NoError(t, err)

	aEnv.SetLock()
	bEnv.SetLock()

	_, err = autograd.Add(a, b)
	require.Error(t, err)
}

func mustArray(t *testing.T, shape []int) *tensor.Array {
	t.Helper()

	arr, err := tensor.Zeros(numeric.F32, shape)
	require.NoError(t, err)

	return arr
}

// TestGradientCreateGraphDifferentiatesTwice covers spec.md §4.E's
// create_graph flag: y = x*x, dy/dx = 2x should itself require grad and
// accept a second Gradient/Backward pass, yielding d2y/dx2 = 2.
func TestGradientCreateGraphDifferentiatesTwice(t *testing.T) {
	x := leaf(t, []int{2}, []float32{3, -4})

	y, err := autograd.Mul(x, x)
	require.NoError(t, err)

	seedArr, err := tensor.Ones(numeric.F32, []int{2})
	require.NoError(t, err)

	seed, err := graph.New(seedArr, false, nil)
	require.NoError(t, err)

	grads, err := autograd.Gradient([]*graph.Tensor{x}, []*graph.Tensor{y}, []*graph.Tensor{seed}, true)
	require.NoError(t, err)
	require.Len(t, grads, 1)

	dydx := grads[0]
	require.True(t, dydx.RequiresGrad())

	v0, err := dydx.Data().ValueAt(0)
	require.NoError(t, err)
	assert.InDelta(t, 6, v0.Float64(), 1e-6)

	v1, err := dydx.Data().ValueAt(1)
	require.NoError(t, err)
	assert.InDelta(t, -8, v1.Float64(), 1e-6)

	seed2Arr, err := tensor.Ones(numeric.F32, []int{2})
	require.NoError(t, err)

	seed2, err := graph.New(seed2Arr, false, nil)
	require.NoError(t, err)

	grads2, err := autograd.Gradient([]*graph.Tensor{x}, []*graph.Tensor{dydx}, []*graph.Tensor{seed2}, false)
	require.NoError(t, err)

	g0, err := grads2[0].Data().ValueAt(0)
	require.NoError(t, err)
	assert.InDelta(t, 2, g0.Float64(), 1e-6)
}
