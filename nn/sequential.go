package nn

import (
	"fmt"
	"strings"

	"github.com/zerfoo/gotensor/graph"
)

// Sequential chains a fixed list of child modules in declaration order,
// feeding each one's output as the next one's sole input (spec.md §4.H:
// "Sequential(modules…): forward chains module_call in order").
type Sequential struct {
	modules []Module
}

// NewSequential builds a Sequential over modules, in the given order.
func NewSequential(modules ...Module) *Sequential {
	return &Sequential{modules: modules}
}

// Forward runs every child module in order, threading the single input
// through the chain.
func (s *Sequential) Forward(inputs ...*graph.Tensor) (*graph.Tensor, error) {
	if len(inputs) != 1 {
		return nil, fmt.Errorf("nn.Sequential.Forward: expected 1 input, got %d", len(inputs))
	}

	x := inputs[0]

	for _, m := range s.modules {
		out, err := m.Forward(x)
		if err != nil {
			return nil, err
		}

		x = out
	}

	return x, nil
}

// Parameters concatenates each child's parameters, in declaration order
// (spec.md §4.H: "module's own tensors first, then each child in
// declaration order, recursively" — Sequential itself owns no parameters of
// its own, only its children do).
func (s *Sequential) Parameters() []*graph.Tensor {
	var out []*graph.Tensor

	for _, m := range s.modules {
		out = append(out, m.Parameters()...)
	}

	return out
}

// String concatenates each child's repr (spec.md §4.H: "builds repr by
// concatenating children's repr strings").
func (s *Sequential) String() string {
	parts := make([]string, len(s.modules))
	for i, m := range s.modules {
		parts[i] = m.String()
	}

	return "Sequential(" + strings.Join(parts, ", ") + ")"
}
