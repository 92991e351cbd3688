package autograd

import (
	"github.com/zerfoo/gotensor/arena"
	"github.com/zerfoo/gotensor/graph"
	"github.com/zerfoo/gotensor/tensor"
)

// ReduceGrad folds a cotangent computed against a broadcast shape back down
// to an operand's original shape (spec.md §4.G): extra leading axes the
// broadcast introduced are summed away entirely, and axes the operand held
// at size 1 are summed with keepdims so the rank is preserved.
func ReduceGrad(grad *tensor.Array, shape []int) (*tensor.Array, error) {
	for grad.NDim() > len(shape) {
		reduced, err := tensor.SumDim(grad, 0, false)
		if err != nil {
			return nil, err
		}

		grad = reduced
	}

	for axis, want := range shape {
		if want == 1 && grad.Shape()[axis] != 1 {
			reduced, err := tensor.SumDim(grad, axis, true)
			if err != nil {
				return nil, err
			}

			grad = reduced
		}
	}

	return grad, nil
}

// broadcastCtx records the shape a ReduceGradTensor call broadcast away
// from, so BroadcastBackward can re-expand a second-order cotangent to it.
type broadcastCtx struct {
	broadcastShape []int
}

// ReduceGradTensor is the tensor-preserving form of ReduceGrad. When
// createGraph is true and grad requires grad, the result carries a
// BroadcastBackward node that re-broadcasts a further cotangent back up to
// grad's original shape, enabling differentiation through the reduction
// itself.
func ReduceGradTensor(grad *graph.Tensor, shape []int, createGraph bool, env *arena.Arena) (*graph.Tensor, error) {
	reduced, err := ReduceGrad(grad.Data(), shape)
	if err != nil {
		return nil, err
	}

	out, err := graph.New(reduced, createGraph && grad.RequiresGrad(), env)
	if err != nil {
		return nil, err
	}

	if createGraph && grad.RequiresGrad() {
		ctx := &broadcastCtx{broadcastShape: grad.Shape()}
		node := newNode("BroadcastBackward", broadcastBackwardFn(ctx), broadcastBackwardFnGraph(ctx, env), []*graph.Tensor{grad}, []*graph.Tensor{out})
		node.CtxKind = NoCtx
		node.Ctx = ctx
		out.SetBackwardNode(node)
	}

	return out, nil
}

func broadcastBackwardFn(ctx *broadcastCtx) GradFn {
	return func(outputGrads []*tensor.Array, _, _ []*tensor.Array, _ bool) ([]*tensor.Array, error) {
		cot := outputGrads[0]

		target, err := tensor.Zeros(cot.DType(), ctx.broadcastShape)
		if err != nil {
			return nil, err
		}

		expanded, err := tensor.Add(target, cot)
		if err != nil {
			return nil, err
		}

		return []*tensor.Array{expanded}, nil
	}
}

// broadcastBackwardFnGraph is BroadcastBackward's create_graph counterpart:
// it re-expands a further cotangent up to the original broadcast shape using
// the differentiable tensor ops themselves (zeros + Add's own broadcasting),
// so a third-order gradient can still flow through it.
func broadcastBackwardFnGraph(ctx *broadcastCtx, env *arena.Arena) GradFnGraph {
	return func(g *graph.Tensor) ([]*graph.Tensor, error) {
		zero, err := graph.Zeros(g.DType(), ctx.broadcastShape, false, env)
		if err != nil {
			return nil, err
		}

		expanded, err := Add(zero, g)
		if err != nil {
			return nil, err
		}

		return []*graph.Tensor{expanded}, nil
	}
}
