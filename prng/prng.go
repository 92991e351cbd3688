// Package prng wraps a process-global PCG64 generator (spec.md §4.I's
// external PRNG interface) behind Uniform/Normal/UniformInt front-ends.
// Grounded on training/era_sequencer.go's rand.New(rand.NewPCG(...)) usage —
// math/rand/v2's PCG type is a literal PCG64 generator, not a stdlib
// workaround for a missing dependency.
package prng

import (
	"math/rand/v2"
	"sync"

	"github.com/zerfoo/gotensor/tensorerr"
)

var (
	mu  sync.Mutex
	gen = rand.New(rand.NewPCG(0, 0))
)

// ManualSeed reseeds the global generator deterministically.
func ManualSeed(seed1, seed2 uint64) {
	mu.Lock()
	defer mu.Unlock()

	gen = rand.New(rand.NewPCG(seed1, seed2))
}

// Uniform draws a float64 from [low, high).
func Uniform(low, high float64) (float64, error) {
	if !(low < high) {
		return 0, tensorerr.New(tensorerr.InvalidLowHigh, "invalid range [%v, %v)", low, high)
	}

	mu.Lock()
	defer mu.Unlock()

	return low + gen.Float64()*(high-low), nil
}

// Normal draws a float64 from N(mean, stddev^2).
func Normal(mean, stddev float64) float64 {
	mu.Lock()
	defer mu.Unlock()

	return mean + gen.NormFloat64()*stddev
}

// UniformInt draws an integer from [low, high).
func UniformInt(low, high int64) (int64, error) {
	if low >= high {
		return 0, tensorerr.New(tensorerr.InvalidLowHigh, "invalid range [%v, %v)", low, high)
	}

	mu.Lock()
	defer mu.Unlock()

	return low + gen.Int64N(high-low), nil
}
