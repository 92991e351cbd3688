package nn

import (
	"fmt"
	"math"

	"github.com/zerfoo/gotensor/arena"
	"github.com/zerfoo/gotensor/autograd"
	"github.com/zerfoo/gotensor/graph"
	"github.com/zerfoo/gotensor/numeric"
	"github.com/zerfoo/gotensor/prng"
	"github.com/zerfoo/gotensor/tensor"
)

// Linear performs output = input @ weights (+ bias), matching
// layers/core.Linear's composition but over the dynamic autograd tape
// instead of a static graph.Node.
type Linear struct {
	inFeatures, outFeatures int
	weights                 *graph.Tensor
	bias                    *graph.Tensor
	env                     *arena.Arena
}

// NewLinear allocates a Linear layer with Kaiming-uniform initialized
// weights, drawn from [0, √(1/in_features)) per spec.md §4.H, in a
// dedicated, locked parameter arena, and an optional bias over the same
// range. The
// forward pass's output arena is resolved at call time from the input
// tensor's own arena (via arena.Resolve), not fixed at construction —
// the parameter arena is locked precisely so it is never picked by mistake.
func NewLinear(inFeatures, outFeatures int, bias bool) (*Linear, error) {
	if inFeatures <= 0 || outFeatures <= 0 {
		return nil, fmt.Errorf("nn.NewLinear: in/out features must be positive, got %d/%d", inFeatures, outFeatures)
	}

	paramEnv := arena.New()

	bound := math.Sqrt(1.0 / float64(inFeatures))

	weights, err := kaimingUniform(numeric.F32, []int{inFeatures, outFeatures}, bound, paramEnv)
	if err != nil {
		return nil, err
	}

	l := &Linear{inFeatures: inFeatures, outFeatures: outFeatures, weights: weights, env: paramEnv}

	if bias {
		b, err := kaimingUniform(numeric.F32, []int{1, outFeatures}, bound, paramEnv)
		if err != nil {
			return nil, err
		}

		l.bias = b
	}

	paramEnv.SetLock()

	return l, nil
}

func kaimingUniform(dtype numeric.DType, shape []int, bound float64, env *arena.Arena) (*graph.Tensor, error) {
	arr, err := tensor.New(dtype, shape)
	if err != nil {
		return nil, err
	}

	vals := make([]numeric.Value, arr.TotalSize())

	for i := range vals {
		v, err := prng.Uniform(0, bound)
		if err != nil {
			return nil, err
		}

		vals[i] = numeric.FromF32(float32(v))
	}

	if err := arr.Populate(vals); err != nil {
		return nil, err
	}

	return graph.New(arr, true, env)
}

// Forward computes input @ weights (+ bias). Exactly one input is expected.
func (l *Linear) Forward(inputs ...*graph.Tensor) (*graph.Tensor, error) {
	if len(inputs) != 1 {
		return nil, fmt.Errorf("nn.Linear.Forward: expected 1 input, got %d", len(inputs))
	}

	out, err := autograd.MatMul(inputs[0], l.weights)
	if err != nil {
		return nil, err
	}

	if l.bias == nil {
		return out, nil
	}

	return autograd.Add(out, l.bias)
}

// Parameters returns the weight tensor, and the bias tensor if present.
func (l *Linear) Parameters() []*graph.Tensor {
	if l.bias == nil {
		return []*graph.Tensor{l.weights}
	}

	return []*graph.Tensor{l.weights, l.bias}
}

// String returns a short repr.
func (l *Linear) String() string {
	return fmt.Sprintf("Linear(in=%d, out=%d, bias=%t)", l.inFeatures, l.outFeatures, l.bias != nil)
}
