// Package autograd implements the dynamic backward graph (spec.md §4.E/F/G):
// per-operation backward-function records, the recursive Backward/Gradient
// drivers, and the broadcast-reduce helper that folds a broadcast cotangent
// back down to an operand's original shape.
//
// Grounded on original_source/include/autograd.h's BackwardFn/CallableGradFn
// contract and its per-op _DECLARE_BACKWARD_FN constructors; the recursive,
// shared-path-accumulating traversal shape is adapted from the teacher's own
// static graph.Backward method.
package autograd

import (
	"github.com/zerfoo/gotensor/graph"
	"github.com/zerfoo/gotensor/tensor"
)

// CtxKind tags the optional opaque context a Node carries, mirroring
// original_source's Ctx enum.
type CtxKind int

const (
	// NoCtx means the node carries no tagged context; Ctx may still hold
	// untagged state (e.g. BroadcastBackward's broadcastCtx).
	NoCtx CtxKind = iota
	// TransposeCtxKind tags a Node produced by Transpose.
	TransposeCtxKind
)

// TransposeCtx records the permutation a TransposeBackward node must invert.
type TransposeCtx struct {
	Dims []int
}

// GradFn computes input gradients given the cotangents flowing into a node's
// outputs and returns them as a new slice, one entry per operand, mirroring
// original_source's CallableGradFn(output_grads, inputs, outputs, input_grads, ..., create_graph).
type GradFn func(outputGrads []*tensor.Array, inputs, outputs []*tensor.Array, createGraph bool) ([]*tensor.Array, error)

// GradFnGraph is the tensor-op counterpart to GradFn (spec.md's DESIGN NOTES
// "Implementations must provide two code paths per grad rule"): it
// recomputes the same operand cotangents using the differentiable tensor ops
// themselves, so the result carries its own backward graph. Only consulted
// by Gradient's create_graph=true path; Backward always uses GradFn.
type GradFnGraph func(outputGrad *graph.Tensor) ([]*graph.Tensor, error)

// Node is a single record in the dynamic backward tape: the operation that
// produced one or more tensors, the tensors it read and wrote, and the next
// nodes to visit when propagating cotangents further back.
type Node struct {
	Name      string
	GradFn    GradFn
	GradGraph GradFnGraph
	Inputs    []*graph.Tensor
	Outputs   []*graph.Tensor
	Next      []*Node
	CtxKind   CtxKind
	Ctx       any
}

// newNode wires input/output tensors and chains Next to each input's
// existing backward node (original_source's create_next_fns).
func newNode(name string, fn GradFn, fnGraph GradFnGraph, inputs, outputs []*graph.Tensor) *Node {
	next := make([]*Node, len(inputs))
	for i, in := range inputs {
		if in.RequiresGrad() {
			next[i] = nodeOf(in)
		}
	}

	return &Node{Name: name, GradFn: fn, GradGraph: fnGraph, Inputs: inputs, Outputs: outputs, Next: next}
}

// ComputeTensor returns this node's operand cotangents as graph.Tensor
// values, for use by Gradient. With create_graph and a registered GradGraph
// it returns differentiable results; otherwise it falls back to GradFn and
// wraps each resulting Array as a plain, non-grad-tracked leaf tensor
// (spec.md §4.E: "when false, the rule ... returns fresh leaf tensors").
func (n *Node) ComputeTensor(outputGrad *graph.Tensor, createGraph bool) ([]*graph.Tensor, error) {
	if createGraph && n.GradGraph != nil {
		return n.GradGraph(outputGrad)
	}

	inputsData := tensorDataOf(n.Inputs)
	outputsData := tensorDataOf(n.Outputs)

	arrs, err := n.GradFn([]*tensor.Array{outputGrad.Data()}, inputsData, outputsData, false)
	if err != nil {
		return nil, err
	}

	out := make([]*graph.Tensor, len(arrs))

	for i, a := range arrs {
		tn, err := graph.New(a, false, nil)
		if err != nil {
			return nil, err
		}

		out[i] = tn
	}

	return out, nil
}

// accumulateState is the state captured by the leaf-case Node built for a
// tensor that requires grad but was not produced by a tracked op
// (original_source's AccumulateGrad).
type accumulateState struct {
	target *graph.Tensor
}

// AccumulateGrad returns a Node that, when run, adds its sole incoming
// cotangent into target's gradient buffer and stops the traversal.
func AccumulateGrad(target *graph.Tensor) *Node {
	state := &accumulateState{target: target}

	return &Node{
		Name:   "AccumulateGrad",
		Inputs: []*graph.Tensor{target},
		GradFn: func(outputGrads []*tensor.Array, _, _ []*tensor.Array, _ bool) ([]*tensor.Array, error) {
			if err := state.target.AccumulateGrad(outputGrads[0]); err != nil {
				return nil, err
			}

			return nil, nil
		},
	}
}

// nodeOf returns t's installed backward node, synthesizing an AccumulateGrad
// leaf node if t requires grad but carries none yet.
func nodeOf(t *graph.Tensor) *Node {
	if n, ok := t.BackwardNode().(*Node); ok && n != nil {
		return n
	}

	return AccumulateGrad(t)
}
