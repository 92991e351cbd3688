package prng_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zerfoo/gotensor/prng"
)

func TestUniformWithinRange(t *testing.T) {
	prng.ManualSeed(1, 2)

	for i := 0; i < 100; i++ {
		v, err := prng.Uniform(-1, 1)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, v, -1.0)
		assert.Less(t, v, 1.0)
	}
}

func TestUniformRejectsEmptyRange(t *testing.T) {
	_, err := prng.Uniform(1, 1)
	require.Error(t, err)
}

func TestUniformIntWithinRange(t *testing.T) {
	prng.ManualSeed(3, 4)

	for i := 0; i < 100; i++ {
		v, err := prng.UniformInt(0, 10)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, v, int64(0))
		assert.Less(t, v, int64(10))
	}
}

func TestUniformIntRejectsEmptyRange(t *testing.T) {
	_, err := prng.UniformInt(5, 5)
	require.Error(t, err)
}

func TestManualSeedIsDeterministic(t *testing.T) {
	prng.ManualSeed(42, 42)
	a, err := prng.Uniform(0, 1)
	require.NoError(t, err)

	prng.ManualSeed(42, 42)
	b, err := prng.Uniform(0, 1)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}
