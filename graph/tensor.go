// Package graph implements the autograd-visible Tensor (spec.md §4.D): a
// strided Array wrapped with an optional gradient buffer, an optional
// backward function, and the arena it belongs to. Grounded on
// original_source/include/tensor.h's Tensor struct and on the teacher's own
// graph/graph.go for the "wrap an owned value, release on drop" shape.
package graph

import (
	"github.com/zerfoo/gotensor/arena"
	"github.com/zerfoo/gotensor/numeric"
	"github.com/zerfoo/gotensor/tensor"
	"github.com/zerfoo/gotensor/tensorerr"
)

// Tensor is an Array participating in the computation graph: it may carry a
// gradient buffer and a backward node installed by the operation that
// produced it. The node itself is opaque here (type *autograd.Node) to avoid
// a package cycle — the autograd package is the only reader and writer of
// non-nil backwardNode values.
type Tensor struct {
	data         *tensor.Array
	grad         *tensor.Array
	requiresGrad bool
	backwardNode any
	env          *arena.Arena
}

// Release implements arena.Owned. The underlying Array buffers are left to
// the garbage collector; Release only detaches the tensor from its arena's
// bookkeeping.
func (t *Tensor) Release() {
	t.data = nil
	t.grad = nil
	t.backwardNode = nil
}

// New wraps an existing Array as a leaf tensor owned by env. If
// requiresGrad is true, data's dtype must be floating point.
func New(data *tensor.Array, requiresGrad bool, env *arena.Arena) (*Tensor, error) {
	if requiresGrad && !data.DType().IsFloat() {
		return nil, tensorerr.New(tensorerr.TensorInitFailure, "requires_grad requested on non-float dtype %v", data.DType())
	}

	t := &Tensor{data: data, requiresGrad: requiresGrad, env: env}

	if env != nil {
		if err := env.Push(t); err != nil {
			return nil, err
		}
	}

	return t, nil
}

// Zeros allocates a zero-filled leaf tensor.
func Zeros(dtype numeric.DType, shape []int, requiresGrad bool, env *arena.Arena) (*Tensor, error) {
	arr, err := tensor.Zeros(dtype, shape)
	if err != nil {
		return nil, err
	}

	return New(arr, requiresGrad, env)
}

// Ones allocates a one-filled leaf tensor.
func Ones(dtype numeric.DType, shape []int, requiresGrad bool, env *arena.Arena) (*Tensor, error) {
	arr, err := tensor.Ones(dtype, shape)
	if err != nil {
		return nil, err
	}

	return New(arr, requiresGrad, env)
}

// Eye allocates an m x n leaf tensor with ones on the main diagonal.
func Eye(m, n int, dtype numeric.DType, requiresGrad bool, env *arena.Arena) (*Tensor, error) {
	arr, err := tensor.Eye(m, n, dtype)
	if err != nil {
		return nil, err
	}

	return New(arr, requiresGrad, env)
}

// ZerosLike allocates a zero-filled leaf tensor sharing t's shape and dtype.
func ZerosLike(t *Tensor, requiresGrad bool, env *arena.Arena) (*Tensor, error) {
	return Zeros(t.data.DType(), t.data.Shape(), requiresGrad, env)
}

// OnesLike allocates a one-filled leaf tensor sharing t's shape and dtype.
func OnesLike(t *Tensor, requiresGrad bool, env *arena.Arena) (*Tensor, error) {
	return Ones(t.data.DType(), t.data.Shape(), requiresGrad, env)
}

// Scalar wraps a single numeric.Value as a rank-0 leaf tensor.
func Scalar(v numeric.Value, requiresGrad bool, env *arena.Arena) (*Tensor, error) {
	arr, err := tensor.New(v.DType(), nil)
	if err != nil {
		return nil, err
	}

	if err := arr.SetValue(v); err != nil {
		return nil, err
	}

	return New(arr, requiresGrad, env)
}

// Data returns the tensor's underlying Array.
func (t *Tensor) Data() *tensor.Array { return t.data }

// Grad returns the tensor's accumulated gradient, or an error if the tensor
// does not require grad.
func (t *Tensor) Grad() (*tensor.Array, error) {
	if !t.requiresGrad {
		return nil, tensorerr.New(tensorerr.InvalidGrad, "tensor does not require grad")
	}

	return t.grad, nil
}

// RequiresGrad reports whether this tensor participates in backward passes.
func (t *Tensor) RequiresGrad() bool { return t.requiresGrad }

// Shape returns the underlying Array's shape.
func (t *Tensor) Shape() []int { return t.data.Shape() }

// DType returns the underlying Array's dtype.
func (t *Tensor) DType() numeric.DType { return t.data.DType() }

// Env returns the arena this tensor is owned by.
func (t *Tensor) Env() *arena.Arena { return t.env }

// BackwardNode returns the opaque backward-graph node installed by the op
// that produced t, or nil on a leaf. Callers outside autograd should treat
// the result as opaque.
func (t *Tensor) BackwardNode() any { return t.backwardNode }

// Item reads the sole element of a rank-0 tensor.
func (t *Tensor) Item() (numeric.Value, error) {
	if t.data.NDim() != 0 {
		return numeric.Value{}, tensorerr.New(tensorerr.InvalidDim, "Item requires a rank-0 tensor, got rank %d", t.data.NDim())
	}

	return t.data.ValueAt()
}

// SetRequiresGrad flips the tensor's grad-tracking flag. Enabling it on a
// non-float tensor fails with TensorInitFailure.
func (t *Tensor) SetRequiresGrad(requiresGrad bool) error {
	if requiresGrad && !t.data.DType().IsFloat() {
		return tensorerr.New(tensorerr.TensorInitFailure, "requires_grad requested on non-float dtype %v", t.data.DType())
	}

	t.requiresGrad = requiresGrad

	return nil
}

// SetBackwardNode installs the opaque backward-graph node invoked during
// Backward to propagate this tensor's cotangent to its inputs.
func (t *Tensor) SetBackwardNode(node any) { t.backwardNode = node }

// SetGrad replaces the tensor's gradient buffer outright, discarding any
// previously accumulated value.
func (t *Tensor) SetGrad(grad *tensor.Array) error {
	if !t.requiresGrad {
		return tensorerr.New(tensorerr.InvalidGrad, "tensor does not require grad")
	}

	t.grad = grad

	return nil
}

// AccumulateGrad adds delta into the tensor's gradient buffer, allocating it
// on first use.
func (t *Tensor) AccumulateGrad(delta *tensor.Array) error {
	if !t.requiresGrad {
		return tensorerr.New(tensorerr.InvalidGrad, "tensor does not require grad")
	}

	if t.grad == nil {
		zero, err := tensor.Zeros(t.data.DType(), t.data.Shape())
		if err != nil {
			return err
		}

		t.grad = zero
	}

	summed, err := tensor.Add(t.grad, delta)
	if err != nil {
		return err
	}

	t.grad = summed

	return nil
}

// ReplaceData swaps in a new backing Array, e.g. after an in-place op.
// data's shape and dtype must match the tensor's current Array.
func (t *Tensor) ReplaceData(data *tensor.Array) error {
	if data.DType() != t.data.DType() {
		return tensorerr.New(tensorerr.DtypeMismatch, "replacement dtype %v does not match tensor dtype %v", data.DType(), t.data.DType())
	}

	if !tensor.ShapesEqual(data.Shape(), t.data.Shape()) {
		return tensorerr.New(tensorerr.ShapeMismatch, "replacement shape %v does not match tensor shape %v", data.Shape(), t.data.Shape())
	}

	t.data = data

	return nil
}

// ZeroGrad installs a zero tensor of matching shape/dtype as t.grad,
// temporarily opening the arena's push gate if it is locked (parameters live
// in a locked arena but must still be zeroable between training steps). If a
// grad already exists its data is replaced in place rather than reallocating
// a new tensor (spec.md §4.D "zero_grad").
func (t *Tensor) ZeroGrad() error {
	if !t.requiresGrad {
		return tensorerr.New(tensorerr.InvalidGrad, "tensor does not require grad")
	}

	wasLocked := t.env != nil && t.env.Locked()
	if wasLocked {
		t.env.OpenLock()
	}

	zero, err := tensor.Zeros(t.data.DType(), t.data.Shape())

	if wasLocked {
		t.env.SetLock()
	}

	if err != nil {
		return err
	}

	t.grad = zero

	return nil
}
