// Package nn implements spec.md §4.H's NN module tree on top of the
// autograd-tracked graph.Tensor: composable modules exposing their
// trainable parameters, grounded on the teacher's layers/core composition
// style (functional-option constructors, Parameters() concatenation) and
// graph/no_parameters.go's empty-parameter-list helper.
package nn

import "github.com/zerfoo/gotensor/graph"

// Module is anything that can run a forward pass and report the trainable
// tensors it owns, directly or through child modules.
type Module interface {
	// Forward computes the module's output given its inputs.
	Forward(inputs ...*graph.Tensor) (*graph.Tensor, error)
	// Parameters returns every trainable tensor this module (and its
	// children) owns, in a stable, deterministic order.
	Parameters() []*graph.Tensor
	// String returns a short repr, e.g. "Linear(in=4, out=8, bias=true)".
	String() string
}

// NumParameters returns the total scalar element count across every
// parameter m owns.
func NumParameters(m Module) int {
	total := 0
	for _, p := range m.Parameters() {
		total += p.Data().TotalSize()
	}

	return total
}

// NumTrainableVariables sums total_size over every parameter tensor m owns
// that requires grad (spec.md §4.H).
func NumTrainableVariables(m Module) int {
	n := 0
	for _, p := range m.Parameters() {
		if p.RequiresGrad() {
			n += p.Data().TotalSize()
		}
	}

	return n
}

// NumNonTrainableVariables sums total_size over every parameter tensor m
// owns that is frozen (requires_grad == false).
func NumNonTrainableVariables(m Module) int {
	n := 0
	for _, p := range m.Parameters() {
		if !p.RequiresGrad() {
			n += p.Data().TotalSize()
		}
	}

	return n
}

// noParameters is embedded by modules with no trainable tensors of their
// own (adapted from graph/no_parameters.go's empty-Parameters helper).
type noParameters struct{}

func (noParameters) Parameters() []*graph.Tensor { return nil }
