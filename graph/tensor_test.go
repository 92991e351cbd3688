package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zerfoo/gotensor/arena"
	"github.com/zerfoo/gotensor/numeric"
	"github.com/zerfoo/gotensor/tensor"
)

func TestNewRejectsRequiresGradOnInt(t *testing.T) {
	arr, err := tensor.New(numeric.I32, []int{2})
	require.NoError(t, err)

	_, err = New(arr, true, arena.New())
	require.Error(t, err)
}

func TestZerosPushesIntoEnv(t *testing.T) {
	env := arena.New()

	tn, err := Zeros(numeric.F32, []int{2, 2}, true, env)
	require.NoError(t, err)
	assert.Equal(t, 1, env.Len())
	assert.True(t, tn.RequiresGrad())
}

func TestScalarItem(t *testing.T) {
	env := arena.New()

	tn, err := Scalar(numeric.FromF32(3.5), false, env)
	require.NoError(t, err)

	v, err := tn.Item()
	require.NoError(t, err)
	assert.InDelta(t, 3.5, v.Float64(), 1e-6)
}

func TestItemRejectsNonScalar(t *testing.T) {
	tn, err := Zeros(numeric.F32, []int{2}, false, arena.New())
	require.NoError(t, err)

	_, err = tn.Item()
	require.Error(t, err)
}

func TestGradRequiresRequiresGrad(t *testing.T) {
	tn, err := Zeros(numeric.F32, []int{2}, false, arena.New())
	require.NoError(t, err)

	_, err = tn.Grad()
	require.Error(t, err)
}

func TestAccumulateGradSumsAcrossCalls(t *testing.T) {
	tn, err := Zeros(numeric.F32, []int{2}, true, arena.New())
	require.NoError(t, err)

	ones, err := tensor.Ones(numeric.F32, []int{2})
	require.NoError(t, err)

	require.NoError(t, tn.AccumulateGrad(ones))
	require.NoError(t, tn.AccumulateGrad(ones))

	grad, err := tn.Grad()
	require.NoError(t, err)

	v, err := grad.ValueAt(0)
	require.NoError(t, err)
	assert.InDelta(t, 2, v.Float64(), 1e-6)
}

func TestZeroGradClearsAccumulatedValue(t *testing.T) {
	tn, err := Zeros(numeric.F32, []int{2}, true, arena.New())
	require.NoError(t, err)

	ones, err := tensor.Ones(numeric.F32, []int{2})
	require.NoError(t, err)
	require.NoError(t, tn.AccumulateGrad(ones))

	require.NoError(t, tn.ZeroGrad())

	grad, err := tn.Grad()
	require.NoError(t, err)

	v, err := grad.ValueAt(0)
	require.NoError(t, err)
	assert.Equal(t, float64(0), v.Float64())
}

func TestZeroGradOnLockedEnvRestoresLockAfterwards(t *testing.T) {
	env := arena.New()
	tn, err := Zeros(numeric.F32, []int{2}, true, env)
	require.NoError(t, err)

	ones, err := tensor.Ones(numeric.F32, []int{2})
	require.NoError(t, err)
	require.NoError(t, tn.AccumulateGrad(ones))

	env.SetLock()
	require.NoError(t, tn.ZeroGrad())
	assert.True(t, env.Locked())
}

func TestReplaceDataRejectsShapeMismatch(t *testing.T) {
	tn, err := Zeros(numeric.F32, []int{2, 2}, false, arena.New())
	require.NoError(t, err)

	other, err := tensor.Zeros(numeric.F32, []int{3})
	require.NoError(t, err)

	err = tn.ReplaceData(other)
	require.Error(t, err)
}

func TestInPlaceAddSwapsDataSlot(t *testing.T) {
	tn, err := Zeros(numeric.F32, []int{2}, false, arena.New())
	require.NoError(t, err)

	ones, err := tensor.Ones(numeric.F32, []int{2})
	require.NoError(t, err)

	oldData := tn.data
	require.NoError(t, tn.addi(ones))
	assert.NotSame(t, oldData, tn.data)

	v, err := tn.data.ValueAt(0)
	require.NoError(t, err)
	assert.InDelta(t, 1, v.Float64(), 1e-6)
}

func TestSumDimiReducesShape(t *testing.T) {
	tn, err := Ones(numeric.F32, []int{2, 3}, false, arena.New())
	require.NoError(t, err)

	require.NoError(t, tn.sumDimi(0, false))
	assert.Equal(t, []int{3}, tn.Shape())
}
