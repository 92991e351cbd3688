package graph

import "github.com/zerfoo/gotensor/tensor"

// In-place wrappers recompute the op and swap the tensor's data slot rather
// than mutating the Array buffer directly, so any prior backward graph
// referencing the old Array is left intact (spec.md §4.B "In-place wrappers").

func (t *Tensor) addi(other *tensor.Array) error {
	out, err := tensor.Add(t.data, other)
	if err != nil {
		return err
	}

	t.data = out

	return nil
}

func (t *Tensor) subi(other *tensor.Array) error {
	out, err := tensor.Sub(t.data, other)
	if err != nil {
		return err
	}

	t.data = out

	return nil
}

func (t *Tensor) muli(other *tensor.Array) error {
	out, err := tensor.Mul(t.data, other)
	if err != nil {
		return err
	}

	t.data = out

	return nil
}

func (t *Tensor) divi(other *tensor.Array) error {
	out, err := tensor.Div(t.data, other)
	if err != nil {
		return err
	}

	t.data = out

	return nil
}

func (t *Tensor) negi() error {
	out, err := tensor.Neg(t.data)
	if err != nil {
		return err
	}

	t.data = out

	return nil
}

func (t *Tensor) invi() error {
	out, err := tensor.Inv(t.data)
	if err != nil {
		return err
	}

	t.data = out

	return nil
}

func (t *Tensor) sumi() error {
	out, err := tensor.Sum(t.data)
	if err != nil {
		return err
	}

	t.data = out

	return nil
}

func (t *Tensor) sumDimi(dim int, keepDims bool) error {
	out, err := tensor.SumDim(t.data, dim, keepDims)
	if err != nil {
		return err
	}

	t.data = out

	return nil
}
