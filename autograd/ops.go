package autograd

import (
	"github.com/zerfoo/gotensor/arena"
	"github.com/zerfoo/gotensor/graph"
	"github.com/zerfoo/gotensor/numeric"
	"github.com/zerfoo/gotensor/tensor"
)

func requiresGradAny(ts ...*graph.Tensor) bool {
	for _, t := range ts {
		if t.RequiresGrad() {
			return true
		}
	}

	return false
}

func wire(name string, fn GradFn, fnGraph GradFnGraph, inputs []*graph.Tensor, out *graph.Tensor) {
	node := newNode(name, fn, fnGraph, inputs, []*graph.Tensor{out})
	out.SetBackwardNode(node)
}

// destEnv picks which of two operands' arenas a binary op's result should be
// pushed into, via the arena package's lock-aware Resolve (spec.md §4.C):
// this keeps a forward pass from accidentally trying to push into a locked
// parameter arena.
func destEnv(a, b *graph.Tensor) (*arena.Arena, error) {
	return arena.Resolve(a.Env(), b.Env())
}

// Add is the tracked elementwise sum. Gradients broadcast-reduce the
// cotangent back to each operand's shape (original_source's AddBackward).
func Add(a, b *graph.Tensor) (*graph.Tensor, error) {
	arr, err := tensor.Add(a.Data(), b.Data())
	if err != nil {
		return nil, err
	}

	rg := requiresGradAny(a, b)

	env, err := destEnv(a, b)
	if err != nil {
		return nil, err
	}

	out, err := graph.New(arr, rg, env)
	if err != nil {
		return nil, err
	}

	if rg {
		wire("AddBackward", func(outputGrads []*tensor.Array, inputs, _ []*tensor.Array, _ bool) ([]*tensor.Array, error) {
			gradA, err := ReduceGrad(outputGrads[0], inputs[0].Shape())
			if err != nil {
				return nil, err
			}

			gradB, err := ReduceGrad(outputGrads[0], inputs[1].Shape())
			if err != nil {
				return nil, err
			}

			return []*tensor.Array{gradA, gradB}, nil
		}, func(g *graph.Tensor) ([]*graph.Tensor, error) {
			genv, err := destEnv(a, b)
			if err != nil {
				return nil, err
			}

			gradA, err := ReduceGradTensor(g, a.Shape(), true, genv)
			if err != nil {
				return nil, err
			}

			gradB, err := ReduceGradTensor(g, b.Shape(), true, genv)
			if err != nil {
				return nil, err
			}

			return []*graph.Tensor{gradA, gradB}, nil
		}, []*graph.Tensor{a, b}, out)
	}

	return out, nil
}

// Sub is the tracked elementwise difference.
func Sub(a, b *graph.Tensor) (*graph.Tensor, error) {
	arr, err := tensor.Sub(a.Data(), b.Data())
	if err != nil {
		return nil, err
	}

	rg := requiresGradAny(a, b)

	env, err := destEnv(a, b)
	if err != nil {
		return nil, err
	}

	out, err := graph.New(arr, rg, env)
	if err != nil {
		return nil, err
	}

	if rg {
		wire("SubBackward", func(outputGrads []*tensor.Array, inputs, _ []*tensor.Array, _ bool) ([]*tensor.Array, error) {
			gradA, err := ReduceGrad(outputGrads[0], inputs[0].Shape())
			if err != nil {
				return nil, err
			}

			negB, err := tensor.Neg(outputGrads[0])
			if err != nil {
				return nil, err
			}

			gradB, err := ReduceGrad(negB, inputs[1].Shape())
			if err != nil {
				return nil, err
			}

			return []*tensor.Array{gradA, gradB}, nil
		}, func(g *graph.Tensor) ([]*graph.Tensor, error) {
			genv, err := destEnv(a, b)
			if err != nil {
				return nil, err
			}

			gradA, err := ReduceGradTensor(g, a.Shape(), true, genv)
			if err != nil {
				return nil, err
			}

			negG, err := Neg(g)
			if err != nil {
				return nil, err
			}

			gradB, err := ReduceGradTensor(negG, b.Shape(), true, genv)
			if err != nil {
				return nil, err
			}

			return []*graph.Tensor{gradA, gradB}, nil
		}, []*graph.Tensor{a, b}, out)
	}

	return out, nil
}

// Mul is the tracked elementwise product (original_source's MulBackward).
func Mul(a, b *graph.Tensor) (*graph.Tensor, error) {
	arr, err := tensor.Mul(a.Data(), b.Data())
	if err != nil {
		return nil, err
	}

	rg := requiresGradAny(a, b)

	env, err := destEnv(a, b)
	if err != nil {
		return nil, err
	}

	out, err := graph.New(arr, rg, env)
	if err != nil {
		return nil, err
	}

	if rg {
		wire("MulBackward", func(outputGrads []*tensor.Array, inputs, _ []*tensor.Array, _ bool) ([]*tensor.Array, error) {
			rawA, err := tensor.Mul(outputGrads[0], inputs[1])
			if err != nil {
				return nil, err
			}

			gradA, err := ReduceGrad(rawA, inputs[0].Shape())
			if err != nil {
				return nil, err
			}

			rawB, err := tensor.Mul(outputGrads[0], inputs[0])
			if err != nil {
				return nil, err
			}

			gradB, err := ReduceGrad(rawB, inputs[1].Shape())
			if err != nil {
				return nil, err
			}

			return []*tensor.Array{gradA, gradB}, nil
		}, func(g *graph.Tensor) ([]*graph.Tensor, error) {
			genv, err := destEnv(a, b)
			if err != nil {
				return nil, err
			}

			rawA, err := Mul(g, b)
			if err != nil {
				return nil, err
			}

			gradA, err := ReduceGradTensor(rawA, a.Shape(), true, genv)
			if err != nil {
				return nil, err
			}

			rawB, err := Mul(g, a)
			if err != nil {
				return nil, err
			}

			gradB, err := ReduceGradTensor(rawB, b.Shape(), true, genv)
			if err != nil {
				return nil, err
			}

			return []*graph.Tensor{gradA, gradB}, nil
		}, []*graph.Tensor{a, b}, out)
	}

	return out, nil
}

// Div is the tracked elementwise quotient.
func Div(a, b *graph.Tensor) (*graph.Tensor, error) {
	arr, err := tensor.Div(a.Data(), b.Data())
	if err != nil {
		return nil, err
	}

	rg := requiresGradAny(a, b)

	env, err := destEnv(a, b)
	if err != nil {
		return nil, err
	}

	out, err := graph.New(arr, rg, env)
	if err != nil {
		return nil, err
	}

	if rg {
		wire("DivBackward", func(outputGrads []*tensor.Array, inputs, _ []*tensor.Array, _ bool) ([]*tensor.Array, error) {
			rawA, err := tensor.Div(outputGrads[0], inputs[1])
			if err != nil {
				return nil, err
			}

			gradA, err := ReduceGrad(rawA, inputs[0].Shape())
			if err != nil {
				return nil, err
			}

			num, err := tensor.Mul(outputGrads[0], inputs[0])
			if err != nil {
				return nil, err
			}

			denom, err := tensor.Mul(inputs[1], inputs[1])
			if err != nil {
				return nil, err
			}

			raw, err := tensor.Div(num, denom)
			if err != nil {
				return nil, err
			}

			negRaw, err := tensor.Neg(raw)
			if err != nil {
				return nil, err
			}

			gradB, err := ReduceGrad(negRaw, inputs[1].Shape())
			if err != nil {
				return nil, err
			}

			return []*tensor.Array{gradA, gradB}, nil
		}, func(g *graph.Tensor) ([]*graph.Tensor, error) {
			genv, err := destEnv(a, b)
			if err != nil {
				return nil, err
			}

			rawA, err := Div(g, b)
			if err != nil {
				return nil, err
			}

			gradA, err := ReduceGradTensor(rawA, a.Shape(), true, genv)
			if err != nil {
				return nil, err
			}

			num, err := Mul(g, a)
			if err != nil {
				return nil, err
			}

			denom, err := Mul(b, b)
			if err != nil {
				return nil, err
			}

			raw, err := Div(num, denom)
			if err != nil {
				return nil, err
			}

			negRaw, err := Neg(raw)
			if err != nil {
				return nil, err
			}

			gradB, err := ReduceGradTensor(negRaw, b.Shape(), true, genv)
			if err != nil {
				return nil, err
			}

			return []*graph.Tensor{gradA, gradB}, nil
		}, []*graph.Tensor{a, b}, out)
	}

	return out, nil
}

// Neg is the tracked elementwise negation (original_source's NegBackward).
func Neg(a *graph.Tensor) (*graph.Tensor, error) {
	arr, err := tensor.Neg(a.Data())
	if err != nil {
		return nil, err
	}

	out, err := graph.New(arr, a.RequiresGrad(), a.Env())
	if err != nil {
		return nil, err
	}

	if a.RequiresGrad() {
		wire("NegBackward", func(outputGrads []*tensor.Array, _, _ []*tensor.Array, _ bool) ([]*tensor.Array, error) {
			grad, err := tensor.Neg(outputGrads[0])
			if err != nil {
				return nil, err
			}

			return []*tensor.Array{grad}, nil
		}, func(g *graph.Tensor) ([]*graph.Tensor, error) {
			grad, err := Neg(g)
			if err != nil {
				return nil, err
			}

			return []*graph.Tensor{grad}, nil
		}, []*graph.Tensor{a}, out)
	}

	return out, nil
}

// Inv is the tracked elementwise reciprocal (original_source's InvBackward).
func Inv(a *graph.Tensor) (*graph.Tensor, error) {
	arr, err := tensor.Inv(a.Data())
	if err != nil {
		return nil, err
	}

	out, err := graph.New(arr, a.RequiresGrad(), a.Env())
	if err != nil {
		return nil, err
	}

	if a.RequiresGrad() {
		wire("InvBackward", func(outputGrads []*tensor.Array, _, outputs []*tensor.Array, _ bool) ([]*tensor.Array, error) {
			sq, err := tensor.Mul(outputs[0], outputs[0])
			if err != nil {
				return nil, err
			}

			raw, err := tensor.Mul(outputGrads[0], sq)
			if err != nil {
				return nil, err
			}

			grad, err := tensor.Neg(raw)
			if err != nil {
				return nil, err
			}

			return []*tensor.Array{grad}, nil
		}, func(g *graph.Tensor) ([]*graph.Tensor, error) {
			sq, err := Mul(out, out)
			if err != nil {
				return nil, err
			}

			raw, err := Mul(g, sq)
			if err != nil {
				return nil, err
			}

			grad, err := Neg(raw)
			if err != nil {
				return nil, err
			}

			return []*graph.Tensor{grad}, nil
		}, []*graph.Tensor{a}, out)
	}

	return out, nil
}

// MatMul is the tracked batched matrix product (original_source's
// MatMulBackward): dA = dC @ B^T, dB = A^T @ dC, each broadcast-reduced back
// to its operand's batch shape.
func MatMul(a, b *graph.Tensor) (*graph.Tensor, error) {
	arr, err := tensor.MatMul(a.Data(), b.Data())
	if err != nil {
		return nil, err
	}

	rg := requiresGradAny(a, b)

	env, err := destEnv(a, b)
	if err != nil {
		return nil, err
	}

	out, err := graph.New(arr, rg, env)
	if err != nil {
		return nil, err
	}

	if rg {
		wire("MatMulBackward", func(outputGrads []*tensor.Array, inputs, _ []*tensor.Array, _ bool) ([]*tensor.Array, error) {
			bT, err := tensor.Transpose(inputs[1], lastTwoSwapped(inputs[1].NDim()))
			if err != nil {
				return nil, err
			}

			rawA, err := tensor.MatMul(outputGrads[0], bT)
			if err != nil {
				return nil, err
			}

			gradA, err := ReduceGrad(rawA, inputs[0].Shape())
			if err != nil {
				return nil, err
			}

			aT, err := tensor.Transpose(inputs[0], lastTwoSwapped(inputs[0].NDim()))
			if err != nil {
				return nil, err
			}

			rawB, err := tensor.MatMul(aT, outputGrads[0])
			if err != nil {
				return nil, err
			}

			gradB, err := ReduceGrad(rawB, inputs[1].Shape())
			if err != nil {
				return nil, err
			}

			return []*tensor.Array{gradA, gradB}, nil
		}, func(g *graph.Tensor) ([]*graph.Tensor, error) {
			genv, err := destEnv(a, b)
			if err != nil {
				return nil, err
			}

			bT, err := Transpose(b, lastTwoSwapped(len(b.Shape())))
			if err != nil {
				return nil, err
			}

			rawA, err := MatMul(g, bT)
			if err != nil {
				return nil, err
			}

			gradA, err := ReduceGradTensor(rawA, a.Shape(), true, genv)
			if err != nil {
				return nil, err
			}

			aT, err := Transpose(a, lastTwoSwapped(len(a.Shape())))
			if err != nil {
				return nil, err
			}

			rawB, err := MatMul(aT, g)
			if err != nil {
				return nil, err
			}

			gradB, err := ReduceGradTensor(rawB, b.Shape(), true, genv)
			if err != nil {
				return nil, err
			}

			return []*graph.Tensor{gradA, gradB}, nil
		}, []*graph.Tensor{a, b}, out)
	}

	return out, nil
}

func lastTwoSwapped(ndim int) []int {
	dims := make([]int, ndim)
	for i := range dims {
		dims[i] = i
	}

	dims[ndim-2], dims[ndim-1] = dims[ndim-1], dims[ndim-2]

	return dims
}

// Transpose is the tracked axis permutation (original_source's
// TransposeBackward). The backward rule inverts dims explicitly rather than
// relying on transpose's self-inverse property for arbitrary permutations.
func Transpose(a *graph.Tensor, dims []int) (*graph.Tensor, error) {
	arr, err := tensor.Transpose(a.Data(), dims)
	if err != nil {
		return nil, err
	}

	out, err := graph.New(arr, a.RequiresGrad(), a.Env())
	if err != nil {
		return nil, err
	}

	if a.RequiresGrad() {
		inv := tensor.InversePermutation(dims)

		node := newNode("TransposeBackward", func(outputGrads []*tensor.Array, _, _ []*tensor.Array, _ bool) ([]*tensor.Array, error) {
			grad, err := tensor.Transpose(outputGrads[0], inv)
			if err != nil {
				return nil, err
			}

			return []*tensor.Array{grad}, nil
		}, func(g *graph.Tensor) ([]*graph.Tensor, error) {
			grad, err := Transpose(g, inv)
			if err != nil {
				return nil, err
			}

			return []*graph.Tensor{grad}, nil
		}, []*graph.Tensor{a}, []*graph.Tensor{out})
		node.CtxKind = TransposeCtxKind
		node.Ctx = &TransposeCtx{Dims: dims}
		out.SetBackwardNode(node)
	}

	return out, nil
}

// Sum is the tracked full reduction to a scalar (original_source's
// SumBackward).
func Sum(a *graph.Tensor) (*graph.Tensor, error) {
	arr, err := tensor.Sum(a.Data())
	if err != nil {
		return nil, err
	}

	out, err := graph.New(arr, a.RequiresGrad(), a.Env())
	if err != nil {
		return nil, err
	}

	if a.RequiresGrad() {
		shape := a.Shape()

		wire("SumBackward", func(outputGrads []*tensor.Array, _, _ []*tensor.Array, _ bool) ([]*tensor.Array, error) {
			zero, err := tensor.Zeros(outputGrads[0].DType(), shape)
			if err != nil {
				return nil, err
			}

			grad, err := tensor.Add(zero, outputGrads[0])
			if err != nil {
				return nil, err
			}

			return []*tensor.Array{grad}, nil
		}, func(g *graph.Tensor) ([]*graph.Tensor, error) {
			zero, err := graph.Zeros(g.DType(), shape, false, a.Env())
			if err != nil {
				return nil, err
			}

			grad, err := Add(zero, g)
			if err != nil {
				return nil, err
			}

			return []*graph.Tensor{grad}, nil
		}, []*graph.Tensor{a}, out)
	}

	return out, nil
}

// SumDim is the tracked reduction along a single axis.
func SumDim(a *graph.Tensor, dim int, keepDims bool) (*graph.Tensor, error) {
	arr, err := tensor.SumDim(a.Data(), dim, keepDims)
	if err != nil {
		return nil, err
	}

	out, err := graph.New(arr, a.RequiresGrad(), a.Env())
	if err != nil {
		return nil, err
	}

	if a.RequiresGrad() {
		size := a.Shape()[dim]

		wire("SumDimBackward", func(outputGrads []*tensor.Array, _, _ []*tensor.Array, _ bool) ([]*tensor.Array, error) {
			grad, err := expandSum(outputGrads[0], dim, size, keepDims)
			if err != nil {
				return nil, err
			}

			return []*tensor.Array{grad}, nil
		}, func(g *graph.Tensor) ([]*graph.Tensor, error) {
			grad, err := expandSumTensor(g, dim, size, keepDims, a.Env())
			if err != nil {
				return nil, err
			}

			return []*graph.Tensor{grad}, nil
		}, []*graph.Tensor{a}, out)
	}

	return out, nil
}

// expandSumTensor is expandSum's create_graph counterpart. Expansion's own
// adjoint is SumDim itself (summing back along the axis expansion
// replicated), so the differentiable node it installs calls straight back
// into SumDim rather than duplicating the math.
func expandSumTensor(g *graph.Tensor, dim, size int, keepDims bool, env *arena.Arena) (*graph.Tensor, error) {
	arr, err := expandSum(g.Data(), dim, size, keepDims)
	if err != nil {
		return nil, err
	}

	out, err := graph.New(arr, g.RequiresGrad(), env)
	if err != nil {
		return nil, err
	}

	if g.RequiresGrad() {
		node := newNode("ExpandBackward", func(outputGrads []*tensor.Array, _, _ []*tensor.Array, _ bool) ([]*tensor.Array, error) {
			grad, err := tensor.SumDim(outputGrads[0], dim, keepDims)
			if err != nil {
				return nil, err
			}

			return []*tensor.Array{grad}, nil
		}, func(outGrad *graph.Tensor) ([]*graph.Tensor, error) {
			grad, err := SumDim(outGrad, dim, keepDims)
			if err != nil {
				return nil, err
			}

			return []*graph.Tensor{grad}, nil
		}, []*graph.Tensor{g}, []*graph.Tensor{out})
		out.SetBackwardNode(node)
	}

	return out, nil
}

// expandSum replicates gradOut along the axis SumDim collapsed, restoring
// the pre-reduction shape.
func expandSum(gradOut *tensor.Array, dim, size int, keepDims bool) (*tensor.Array, error) {
	inShape := gradOut.Shape()

	var outShape []int
	if keepDims {
		outShape = append([]int{}, inShape...)
		outShape[dim] = size
	} else {
		outShape = make([]int, len(inShape)+1)
		copy(outShape, inShape[:dim])
		outShape[dim] = size
		copy(outShape[dim+1:], inShape[dim:])
	}

	out, err := tensor.New(gradOut.DType(), outShape)
	if err != nil {
		return nil, err
	}

	total := 1
	for _, d := range outShape {
		total *= d
	}

	coords := make([]int, len(outShape))

	for i := 0; i < total; i++ {
		decodeRowMajor(i, outShape, coords)

		var gradCoords []int
		if keepDims {
			gradCoords = append([]int{}, coords...)
			gradCoords[dim] = 0
		} else {
			gradCoords = make([]int, 0, len(coords)-1)
			gradCoords = append(gradCoords, coords[:dim]...)
			gradCoords = append(gradCoords, coords[dim+1:]...)
		}

		v, err := gradOut.ValueAt(gradCoords...)
		if err != nil {
			return nil, err
		}

		if err := out.SetValue(v, coords...); err != nil {
			return nil, err
		}
	}

	return out, nil
}

func decodeRowMajor(i int, shape, coords []int) {
	tmp := i
	for d := len(shape) - 1; d >= 0; d-- {
		if shape[d] == 0 {
			coords[d] = 0

			continue
		}

		coords[d] = tmp % shape[d]
		tmp /= shape[d]
	}
}

// Max is the tracked elementwise maximum (original_source's MaxBackward):
// the cotangent flows to whichever operand held the winning value.
func Max(a, b *graph.Tensor) (*graph.Tensor, error) {
	return minMax(a, b, tensor.Max, "MaxBackward")
}

// Min is the tracked elementwise minimum (original_source's MinBackward).
func Min(a, b *graph.Tensor) (*graph.Tensor, error) {
	return minMax(a, b, tensor.Min, "MinBackward")
}

func minMax(a, b *graph.Tensor, op func(a, b *tensor.Array) (*tensor.Array, error), name string) (*graph.Tensor, error) {
	arr, err := op(a.Data(), b.Data())
	if err != nil {
		return nil, err
	}

	rg := requiresGradAny(a, b)

	env, err := destEnv(a, b)
	if err != nil {
		return nil, err
	}

	out, err := graph.New(arr, rg, env)
	if err != nil {
		return nil, err
	}

	if rg {
		wire(name, func(outputGrads []*tensor.Array, inputs, outputs []*tensor.Array, _ bool) ([]*tensor.Array, error) {
			maskA, maskB, err := winnerMasks(inputs[0], inputs[1], outputs[0])
			if err != nil {
				return nil, err
			}

			rawA, err := tensor.Mul(outputGrads[0], maskA)
			if err != nil {
				return nil, err
			}

			gradA, err := ReduceGrad(rawA, inputs[0].Shape())
			if err != nil {
				return nil, err
			}

			rawB, err := tensor.Mul(outputGrads[0], maskB)
			if err != nil {
				return nil, err
			}

			gradB, err := ReduceGrad(rawB, inputs[1].Shape())
			if err != nil {
				return nil, err
			}

			return []*tensor.Array{gradA, gradB}, nil
		}, func(g *graph.Tensor) ([]*graph.Tensor, error) {
			genv, err := destEnv(a, b)
			if err != nil {
				return nil, err
			}

			maskAArr, maskBArr, err := winnerMasks(a.Data(), b.Data(), out.Data())
			if err != nil {
				return nil, err
			}

			maskA, err := graph.New(maskAArr, false, nil)
			if err != nil {
				return nil, err
			}

			maskB, err := graph.New(maskBArr, false, nil)
			if err != nil {
				return nil, err
			}

			rawA, err := Mul(g, maskA)
			if err != nil {
				return nil, err
			}

			gradA, err := ReduceGradTensor(rawA, a.Shape(), true, genv)
			if err != nil {
				return nil, err
			}

			rawB, err := Mul(g, maskB)
			if err != nil {
				return nil, err
			}

			gradB, err := ReduceGradTensor(rawB, b.Shape(), true, genv)
			if err != nil {
				return nil, err
			}

			return []*graph.Tensor{gradA, gradB}, nil
		}, []*graph.Tensor{a, b}, out)
	}

	return out, nil
}

// winnerMasks builds 0/1 masks (broadcast shape of out) marking which of a,
// b contributed each element of out.
func winnerMasks(a, b, out *tensor.Array) (*tensor.Array, *tensor.Array, error) {
	maskA, err := tensor.New(out.DType(), out.Shape())
	if err != nil {
		return nil, nil, err
	}

	maskB, err := tensor.New(out.DType(), out.Shape())
	if err != nil {
		return nil, nil, err
	}

	total := out.TotalSize()
	coords := make([]int, out.NDim())

	for i := 0; i < total; i++ {
		decodeRowMajor(i, out.Shape(), coords)

		av, err := broadcastValueAt(a, out.Shape(), coords)
		if err != nil {
			return nil, nil, err
		}

		bv, err := broadcastValueAt(b, out.Shape(), coords)
		if err != nil {
			return nil, nil, err
		}

		ov, err := out.ValueAt(coords...)
		if err != nil {
			return nil, nil, err
		}

		one := onesLike(ov)
		zero := zeroLike(ov)

		if err := maskA.SetValue(pick(av.Float64() == ov.Float64(), one, zero), coords...); err != nil {
			return nil, nil, err
		}

		if err := maskB.SetValue(pick(bv.Float64() == ov.Float64() && av.Float64() != ov.Float64(), one, zero), coords...); err != nil {
			return nil, nil, err
		}
	}

	return maskA, maskB, nil
}

func broadcastValueAt(a *tensor.Array, targetShape, coords []int) (numeric.Value, error) {
	offset := len(targetShape) - a.NDim()

	sub := make([]int, a.NDim())
	for i := range sub {
		if a.Shape()[i] == 1 {
			sub[i] = 0
		} else {
			sub[i] = coords[i+offset]
		}
	}

	return a.ValueAt(sub...)
}

func pick(cond bool, t, f numeric.Value) numeric.Value {
	if cond {
		return t
	}

	return f
}

func onesLike(v numeric.Value) numeric.Value { return numeric.One(v.DType()) }
func zeroLike(v numeric.Value) numeric.Value { return numeric.Zero(v.DType()) }
