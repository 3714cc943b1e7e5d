// Package tensor implements the dense, row-major numeric arrays that graph
// attributes are stored in, together with the handful of shape operations
// batching needs: concatenation, stacking, narrowing and offset arithmetic.
package tensor

import (
	"fmt"
	"slices"
	"strings"

	"github.com/c360/graphbatch/errors"
)

// DType is the element type of a Tensor.
type DType uint8

const (
	// Int64 holds node ids, counts and integer labels.
	Int64 DType = iota + 1
	// Float64 holds features and regression targets.
	Float64
)

func (d DType) String() string {
	switch d {
	case Int64:
		return "int64"
	case Float64:
		return "float64"
	default:
		return fmt.Sprintf("dtype(%d)", uint8(d))
	}
}

// Tensor is an immutable dense array of rank >= 1.
type Tensor struct {
	shape  []int
	dtype  DType
	ints   []int64
	floats []float64
}

// FromInt64 builds an int64 tensor. data is taken over by the tensor.
func FromInt64(shape []int, data []int64) (*Tensor, error) {
	if err := checkShape(shape, len(data)); err != nil {
		return nil, err
	}
	return &Tensor{shape: slices.Clone(shape), dtype: Int64, ints: data}, nil
}

// FromFloat64 builds a float64 tensor. data is taken over by the tensor.
func FromFloat64(shape []int, data []float64) (*Tensor, error) {
	if err := checkShape(shape, len(data)); err != nil {
		return nil, err
	}
	return &Tensor{shape: slices.Clone(shape), dtype: Float64, floats: data}, nil
}

// MustInt64 is FromInt64 that panics on a shape mismatch. Intended for literals.
func MustInt64(shape []int, data []int64) *Tensor {
	t, err := FromInt64(shape, data)
	if err != nil {
		panic(err)
	}
	return t
}

// MustFloat64 is FromFloat64 that panics on a shape mismatch. Intended for literals.
func MustFloat64(shape []int, data []float64) *Tensor {
	t, err := FromFloat64(shape, data)
	if err != nil {
		panic(err)
	}
	return t
}

// Int64Vector returns a rank-1 int64 tensor.
func Int64Vector(v ...int64) *Tensor {
	return &Tensor{shape: []int{len(v)}, dtype: Int64, ints: slices.Clone(v)}
}

// Float64Vector returns a rank-1 float64 tensor.
func Float64Vector(v ...float64) *Tensor {
	return &Tensor{shape: []int{len(v)}, dtype: Float64, floats: slices.Clone(v)}
}

// Int64Matrix returns a rank-2 int64 tensor from equal-length rows.
func Int64Matrix(rows ...[]int64) *Tensor {
	cols := 0
	if len(rows) > 0 {
		cols = len(rows[0])
	}
	data := make([]int64, 0, len(rows)*cols)
	for _, r := range rows {
		if len(r) != cols {
			panic(fmt.Sprintf("tensor: ragged matrix row of length %d, want %d", len(r), cols))
		}
		data = append(data, r...)
	}
	return &Tensor{shape: []int{len(rows), cols}, dtype: Int64, ints: data}
}

// Float64Matrix returns a rank-2 float64 tensor from equal-length rows.
func Float64Matrix(rows ...[]float64) *Tensor {
	cols := 0
	if len(rows) > 0 {
		cols = len(rows[0])
	}
	data := make([]float64, 0, len(rows)*cols)
	for _, r := range rows {
		if len(r) != cols {
			panic(fmt.Sprintf("tensor: ragged matrix row of length %d, want %d", len(r), cols))
		}
		data = append(data, r...)
	}
	return &Tensor{shape: []int{len(rows), cols}, dtype: Float64, floats: data}
}

// Zeros returns a zero-filled tensor.
func Zeros(dtype DType, shape ...int) (*Tensor, error) {
	n, err := volume(shape)
	if err != nil {
		return nil, err
	}
	t := &Tensor{shape: slices.Clone(shape), dtype: dtype}
	switch dtype {
	case Int64:
		t.ints = make([]int64, n)
	case Float64:
		t.floats = make([]float64, n)
	default:
		return nil, errors.Invalidf(errors.ErrInvalidData, "tensor", "Zeros", "unknown dtype %s", dtype)
	}
	return t, nil
}

func volume(shape []int) (int, error) {
	if len(shape) == 0 {
		return 0, errors.Invalidf(errors.ErrShapeMismatch, "tensor", "New", "rank must be at least 1")
	}
	n := 1
	for _, d := range shape {
		if d < 0 {
			return 0, errors.Invalidf(errors.ErrShapeMismatch, "tensor", "New", "negative dimension in %v", shape)
		}
		n *= d
	}
	return n, nil
}

func checkShape(shape []int, n int) error {
	want, err := volume(shape)
	if err != nil {
		return err
	}
	if want != n {
		return errors.Invalidf(errors.ErrShapeMismatch, "tensor", "New",
			"shape %v holds %d elements, got %d", shape, want, n)
	}
	return nil
}

// DType returns the element type.
func (t *Tensor) DType() DType { return t.dtype }

// Shape returns a copy of the dimensions.
func (t *Tensor) Shape() []int { return slices.Clone(t.shape) }

// Rank returns the number of dimensions.
func (t *Tensor) Rank() int { return len(t.shape) }

// Dim returns the size of axis.
func (t *Tensor) Dim(axis int) int { return t.shape[axis] }

// Rows returns the size of the first axis.
func (t *Tensor) Rows() int { return t.shape[0] }

// Len returns the number of elements.
func (t *Tensor) Len() int {
	if t.dtype == Float64 {
		return len(t.floats)
	}
	return len(t.ints)
}

// Int64s returns a copy of the elements of an int64 tensor, nil otherwise.
func (t *Tensor) Int64s() []int64 { return slices.Clone(t.ints) }

// Float64s returns the elements as float64, converting int64 data.
func (t *Tensor) Float64s() []float64 {
	if t.dtype == Float64 {
		return slices.Clone(t.floats)
	}
	out := make([]float64, len(t.ints))
	for i, v := range t.ints {
		out[i] = float64(v)
	}
	return out
}

// Clone returns a deep copy.
func (t *Tensor) Clone() *Tensor {
	return &Tensor{
		shape:  slices.Clone(t.shape),
		dtype:  t.dtype,
		ints:   slices.Clone(t.ints),
		floats: slices.Clone(t.floats),
	}
}

// MaxInt64 returns the largest element of a non-empty int64 tensor.
func (t *Tensor) MaxInt64() (int64, bool) {
	if t.dtype != Int64 || len(t.ints) == 0 {
		return 0, false
	}
	return slices.Max(t.ints), true
}

// MinInt64 returns the smallest element of a non-empty int64 tensor.
func (t *Tensor) MinInt64() (int64, bool) {
	if t.dtype != Int64 || len(t.ints) == 0 {
		return 0, false
	}
	return slices.Min(t.ints), true
}

// Equal reports whether a and b have the same dtype, shape and elements.
func Equal(a, b *Tensor) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.dtype == b.dtype &&
		slices.Equal(a.shape, b.shape) &&
		slices.Equal(a.ints, b.ints) &&
		slices.Equal(a.floats, b.floats)
}

func (t *Tensor) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s%v", t.dtype, t.shape)
	if t.dtype == Float64 {
		fmt.Fprintf(&sb, "%v", t.floats)
	} else {
		fmt.Fprintf(&sb, "%v", t.ints)
	}
	return sb.String()
}
