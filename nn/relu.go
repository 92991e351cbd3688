package nn

import (
	"fmt"

	"github.com/zerfoo/gotensor/autograd"
	"github.com/zerfoo/gotensor/graph"
)

// ReLU computes max(0, x) elementwise. It owns no parameters (spec.md §4.H:
// "ReLU: no parameters; forward is max(zeros_like(x), x)"), grounded on
// graph/no_parameters.go's empty-Parameters pattern via the embedded
// noParameters helper.
type ReLU struct {
	noParameters
}

// NewReLU returns a parameter-free ReLU module.
func NewReLU() *ReLU { return &ReLU{} }

// Forward computes max(0, x). Exactly one input is expected.
func (r *ReLU) Forward(inputs ...*graph.Tensor) (*graph.Tensor, error) {
	if len(inputs) != 1 {
		return nil, fmt.Errorf("nn.ReLU.Forward: expected 1 input, got %d", len(inputs))
	}

	x := inputs[0]

	zeros, err := graph.ZerosLike(x, false, x.Env())
	if err != nil {
		return nil, err
	}

	return autograd.Max(zeros, x)
}

// String returns a short repr.
func (r *ReLU) String() string { return "ReLU()" }
