package tensor

import (
	"slices"

	"github.com/c360/graphbatch/errors"
)

// Concat joins tensors along axis. All inputs must share dtype and rank and
// agree on every dimension except axis.
func Concat(axis int, ts ...*Tensor) (*Tensor, error) {
	if len(ts) == 0 {
		return nil, errors.Invalidf(errors.ErrShapeMismatch, "tensor", "Concat", "no tensors")
	}
	first := ts[0]
	if axis < 0 || axis >= first.Rank() {
		return nil, errors.Invalidf(errors.ErrShapeMismatch, "tensor", "Concat",
			"axis %d out of range for rank %d", axis, first.Rank())
	}

	shape := first.Shape()
	shape[axis] = 0
	for _, t := range ts {
		if err := compatible(first, t, axis); err != nil {
			return nil, err
		}
		shape[axis] += t.shape[axis]
	}

	outer := prod(first.shape[:axis])
	inner := prod(first.shape[axis+1:])
	out := &Tensor{shape: shape, dtype: first.dtype}
	if first.dtype == Float64 {
		out.floats = concatBlocks(outer, inner, axis, ts, func(t *Tensor) []float64 { return t.floats })
	} else {
		out.ints = concatBlocks(outer, inner, axis, ts, func(t *Tensor) []int64 { return t.ints })
	}
	return out, nil
}

func concatBlocks[E any](outer, inner, axis int, ts []*Tensor, data func(*Tensor) []E) []E {
	total := 0
	for _, t := range ts {
		total += t.Len()
	}
	out := make([]E, 0, total)
	for o := 0; o < outer; o++ {
		for _, t := range ts {
			block := t.shape[axis] * inner
			out = append(out, data(t)[o*block:(o+1)*block]...)
		}
	}
	return out
}

// Stack joins same-shaped tensors along a new leading axis.
func Stack(ts ...*Tensor) (*Tensor, error) {
	if len(ts) == 0 {
		return nil, errors.Invalidf(errors.ErrShapeMismatch, "tensor", "Stack", "no tensors")
	}
	first := ts[0]
	for _, t := range ts[1:] {
		if t.dtype != first.dtype || !slices.Equal(t.shape, first.shape) {
			return nil, errors.Invalidf(errors.ErrShapeMismatch, "tensor", "Stack",
				"cannot stack %s%v with %s%v", first.dtype, first.shape, t.dtype, t.shape)
		}
	}
	out := &Tensor{shape: append([]int{len(ts)}, first.shape...), dtype: first.dtype}
	for _, t := range ts {
		out.ints = append(out.ints, t.ints...)
		out.floats = append(out.floats, t.floats...)
	}
	return out, nil
}

// Narrow returns the slice [start, start+length) of axis as a new tensor.
func (t *Tensor) Narrow(axis, start, length int) (*Tensor, error) {
	if axis < 0 || axis >= t.Rank() || start < 0 || length < 0 || start+length > t.shape[axis] {
		return nil, errors.Invalidf(errors.ErrShapeMismatch, "tensor", "Narrow",
			"range [%d,%d) on axis %d of %v", start, start+length, axis, t.shape)
	}
	shape := t.Shape()
	shape[axis] = length
	outer := prod(t.shape[:axis])
	inner := prod(t.shape[axis+1:])
	out := &Tensor{shape: shape, dtype: t.dtype}
	if t.dtype == Float64 {
		out.floats = narrowBlocks(t.floats, outer, inner, t.shape[axis], start, length)
	} else {
		out.ints = narrowBlocks(t.ints, outer, inner, t.shape[axis], start, length)
	}
	return out, nil
}

func narrowBlocks[E any](data []E, outer, inner, dim, start, length int) []E {
	out := make([]E, 0, outer*length*inner)
	for o := 0; o < outer; o++ {
		base := o * dim * inner
		out = append(out, data[base+start*inner:base+(start+length)*inner]...)
	}
	return out
}

// Select returns entry i of the leading axis with that axis removed.
// It inverts Stack and requires rank >= 2.
func (t *Tensor) Select(i int) (*Tensor, error) {
	if t.Rank() < 2 || i < 0 || i >= t.shape[0] {
		return nil, errors.Invalidf(errors.ErrShapeMismatch, "tensor", "Select",
			"index %d of %v", i, t.shape)
	}
	n, err := t.Narrow(0, i, 1)
	if err != nil {
		return nil, err
	}
	n.shape = n.shape[1:]
	return n, nil
}

func compatible(a, b *Tensor, axis int) error {
	if a.dtype != b.dtype {
		return errors.Invalidf(errors.ErrShapeMismatch, "tensor", "Concat",
			"dtype %s vs %s", a.dtype, b.dtype)
	}
	if a.Rank() != b.Rank() {
		return errors.Invalidf(errors.ErrShapeMismatch, "tensor", "Concat",
			"rank %d vs %d", a.Rank(), b.Rank())
	}
	for d := range a.shape {
		if d != axis && a.shape[d] != b.shape[d] {
			return errors.Invalidf(errors.ErrShapeMismatch, "tensor", "Concat",
				"shape %v vs %v off axis %d", a.shape, b.shape, axis)
		}
	}
	return nil
}

func prod(dims []int) int {
	n := 1
	for _, d := range dims {
		n *= d
	}
	return n
}
