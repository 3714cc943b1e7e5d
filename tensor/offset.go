package tensor

import (
	"slices"

	"github.com/c360/graphbatch/errors"
)

// Offset is an integer amount added to tensor elements. A zero- or
// one-element Offset is a scalar broadcast to every element; a longer Offset
// holds one amount per first-axis row (e.g. per row of a [2, E] edge list).
type Offset []int64

// Scalar returns an Offset adding n to every element.
func Scalar(n int64) Offset { return Offset{n} }

// PerRow returns an Offset adding v[r] to every element of row r.
func PerRow(v ...int64) Offset { return Offset(slices.Clone(v)) }

// IsZero reports whether the offset adds nothing.
func (o Offset) IsZero() bool {
	for _, v := range o {
		if v != 0 {
			return false
		}
	}
	return true
}

// Add returns o + p, broadcasting scalars. Two per-row offsets must have the same length.
func (o Offset) Add(p Offset) (Offset, error) {
	switch {
	case len(o) <= 1 && len(p) <= 1:
		return Offset{o.at(0) + p.at(0)}, nil
	case len(o) <= 1:
		o, p = p, o
	case len(p) > 1 && len(p) != len(o):
		return nil, errors.Invalidf(errors.ErrShapeMismatch, "tensor", "Offset.Add",
			"per-row offsets of length %d and %d", len(o), len(p))
	}
	out := make(Offset, len(o))
	for i := range o {
		out[i] = o[i] + p.at(i)
	}
	return out, nil
}

// Neg returns -o.
func (o Offset) Neg() Offset {
	out := make(Offset, len(o))
	for i, v := range o {
		out[i] = -v
	}
	return out
}

// at returns the amount applied to row r.
func (o Offset) at(r int) int64 {
	switch len(o) {
	case 0:
		return 0
	case 1:
		return o[0]
	default:
		return o[r]
	}
}

// AddOffset returns a copy of t with o added. The receiver is not modified.
func (t *Tensor) AddOffset(o Offset) (*Tensor, error) {
	if len(o) > 1 && len(o) != t.Rows() {
		return nil, errors.Invalidf(errors.ErrShapeMismatch, "tensor", "AddOffset",
			"offset has %d rows, tensor %v has %d", len(o), t.shape, t.Rows())
	}
	out := t.Clone()
	if o.IsZero() || t.Len() == 0 {
		return out, nil
	}
	rowSize := t.Len() / t.Rows()
	for r := 0; r < t.Rows(); r++ {
		d := o.at(r)
		if d == 0 {
			continue
		}
		lo, hi := r*rowSize, (r+1)*rowSize
		if t.dtype == Float64 {
			for i := lo; i < hi; i++ {
				out.floats[i] += float64(d)
			}
			continue
		}
		for i := lo; i < hi; i++ {
			out.ints[i] += d
		}
	}
	return out, nil
}

// SubOffset returns a copy of t with o subtracted.
func (t *Tensor) SubOffset(o Offset) (*Tensor, error) {
	return t.AddOffset(o.Neg())
}
