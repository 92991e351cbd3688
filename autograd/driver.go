package autograd

import (
	"github.com/zerfoo/gotensor/graph"
	"github.com/zerfoo/gotensor/tensor"
	"github.com/zerfoo/gotensor/tensorerr"
)

// Backward runs the driver entry point over root's backward tape, seeding
// the traversal with grad (original_source's backward(Tensor*, Tensor*)).
// root must require grad. grad may be nil only when root is a scalar, in
// which case it defaults to ones.
func Backward(root *graph.Tensor, grad *tensor.Array) error {
	if !root.RequiresGrad() {
		return tensorerr.New(tensorerr.InvalidBackwardPass, "backward called on a tensor that does not require grad")
	}

	if grad == nil {
		if root.Data().NDim() != 0 {
			return tensorerr.New(tensorerr.GradInitFailure, "backward requires an explicit seed for a non-scalar root")
		}

		ones, err := tensor.Ones(root.DType(), root.Shape())
		if err != nil {
			return err
		}

		grad = ones
	}

	return run(nodeOf(root), []*tensor.Array{grad}, false)
}

// Gradient computes ∂Σ(outputs)/∂inputs directly, returning one gradient
// Tensor per input without mutating any tensor's accumulated grad buffer
// (original_source's gradient(...)). len(outputs) must equal
// len(gradOutputs). Every input and output must itself require grad. When
// createGraph is true, each returned gradient carries its own backward tape
// (to the extent the ops involved registered a GradFnGraph rule), enabling a
// further call to Backward or Gradient over the result.
func Gradient(inputs, outputs []*graph.Tensor, gradOutputs []*graph.Tensor, createGraph bool) ([]*graph.Tensor, error) {
	if len(outputs) != len(gradOutputs) {
		return nil, tensorerr.New(tensorerr.InvalidNumInputsOutputs, "expected %d grad_outputs, got %d", len(outputs), len(gradOutputs))
	}

	for _, in := range inputs {
		if !in.RequiresGrad() {
			return nil, tensorerr.New(tensorerr.InvalidBackwardPass, "gradient requires every input to require grad")
		}
	}

	for _, out := range outputs {
		if !out.RequiresGrad() {
			return nil, tensorerr.New(tensorerr.InvalidBackwardPass, "gradient requires every output to require grad")
		}
	}

	collected := make(map[*graph.Tensor]*graph.Tensor, len(inputs))
	wanted := make(map[*graph.Tensor]bool, len(inputs))

	for _, in := range inputs {
		wanted[in] = true
	}

	for i, out := range outputs {
		if err := accumulateIntoTensor(collected, wanted, nodeOf(out), gradOutputs[i], createGraph); err != nil {
			return nil, err
		}
	}

	result := make([]*graph.Tensor, len(inputs))

	for i, in := range inputs {
		g, ok := collected[in]
		if !ok {
			z, err := graph.Zeros(in.DType(), in.Shape(), false, nil)
			if err != nil {
				return nil, err
			}

			g = z
		}

		result[i] = g
	}

	return result, nil
}

// run propagates cotangents through the tape rooted at node, accumulating
// directly into each leaf's gradient buffer via AccumulateGrad nodes.
func run(node *Node, outputGrads []*tensor.Array, createGraph bool) error {
	if node == nil {
		return nil
	}

	inputsData := tensorDataOf(node.Inputs)
	outputsData := tensorDataOf(node.Outputs)

	inputGrads, err := node.GradFn(outputGrads, inputsData, outputsData, createGraph)
	if err != nil {
		return err
	}

	for i, next := range node.Next {
		if next == nil {
			continue
		}

		if err := run(next, []*tensor.Array{inputGrads[i]}, createGraph); err != nil {
			return err
		}
	}

	return nil
}

// accumulateIntoTensor mirrors run but records cotangents reaching a wanted
// input into collected as graph.Tensor values instead of writing tensor grad
// buffers, summing contributions from multiple paths.
// It consults each node's ComputeTensor, which follows GradFnGraph when
// createGraph is set so the accumulated result stays differentiable.
func accumulateIntoTensor(collected map[*graph.Tensor]*graph.Tensor, wanted map[*graph.Tensor]bool, node *Node, outputGrad *graph.Tensor, createGraph bool) error {
	if node == nil {
		return nil
	}

	if node.Name == "AccumulateGrad" {
		for _, in := range node.Inputs {
			if wanted[in] {
				if err := mergeIntoTensor(collected, in, outputGrad); err != nil {
					return err
				}
			}
		}

		return nil
	}

	inputGrads, err := node.ComputeTensor(outputGrad, createGraph)
	if err != nil {
		return err
	}

	for i, in := range node.Inputs {
		if wanted[in] {
			if err := mergeIntoTensor(collected, in, inputGrads[i]); err != nil {
				return err
			}
		}

		// Next[i] is only worth following when in was itself produced by a
		// tracked op: a bare leaf's Next entry is a synthesized
		// AccumulateGrad(in), and following it here would merge the same
		// cotangent into collected[in] a second time (the "wanted" branch
		// above already handles leaves).
		if in.BackwardNode() != nil && node.Next[i] != nil {
			if err := accumulateIntoTensor(collected, wanted, node.Next[i], inputGrads[i], createGraph); err != nil {
				return err
			}
		}
	}

	return nil
}

func mergeIntoTensor(collected map[*graph.Tensor]*graph.Tensor, t *graph.Tensor, delta *graph.Tensor) error {
	existing, ok := collected[t]
	if !ok {
		collected[t] = delta

		return nil
	}

	summed, err := Add(existing, delta)
	if err != nil {
		return err
	}

	collected[t] = summed

	return nil
}

func tensorDataOf(ts []*graph.Tensor) []*tensor.Array {
	out := make([]*tensor.Array, len(ts))
	for i, t := range ts {
		out[i] = t.Data()
	}

	return out
}
