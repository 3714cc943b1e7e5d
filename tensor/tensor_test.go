package tensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/graphbatch/errors"
)

func TestFromInt64_ShapeChecks(t *testing.T) {
	_, err := FromInt64([]int{2, 3}, make([]int64, 5))
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrShapeMismatch)

	_, err = FromInt64(nil, nil)
	assert.ErrorIs(t, err, errors.ErrShapeMismatch)

	empty, err := FromInt64([]int{2, 0}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Len())
	assert.Equal(t, 2, empty.Rows())
}

func TestAccessorsReturnCopies(t *testing.T) {
	m := Int64Matrix([]int64{1, 2}, []int64{3, 4})
	shape := m.Shape()
	shape[0] = 99
	data := m.Int64s()
	data[0] = 99

	assert.Equal(t, []int{2, 2}, m.Shape())
	assert.Equal(t, []int64{1, 2, 3, 4}, m.Int64s())
	assert.Equal(t, []float64{1, 2, 3, 4}, m.Float64s())
}

func TestAddOffset(t *testing.T) {
	edges := Int64Matrix([]int64{0, 1}, []int64{1, 2})

	scalar, err := edges.AddOffset(Scalar(3))
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 4, 4, 5}, scalar.Int64s())

	perRow, err := edges.AddOffset(PerRow(2, 10))
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 3, 11, 12}, perRow.Int64s())

	back, err := perRow.SubOffset(PerRow(2, 10))
	require.NoError(t, err)
	assert.True(t, Equal(edges, back))

	// input untouched
	assert.Equal(t, []int64{0, 1, 1, 2}, edges.Int64s())

	_, err = edges.AddOffset(PerRow(1, 2, 3))
	assert.ErrorIs(t, err, errors.ErrShapeMismatch)

	floats, err := Float64Vector(0.5, 1.5).AddOffset(Scalar(1))
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5, 2.5}, floats.Float64s())
}

func TestOffsetAdd(t *testing.T) {
	sum, err := Scalar(2).Add(PerRow(1, 3))
	require.NoError(t, err)
	assert.Equal(t, Offset{3, 5}, sum)

	sum, err = Offset(nil).Add(Scalar(4))
	require.NoError(t, err)
	assert.Equal(t, Offset{4}, sum)

	_, err = PerRow(1, 2).Add(PerRow(1, 2, 3))
	assert.ErrorIs(t, err, errors.ErrShapeMismatch)

	assert.True(t, Offset(nil).IsZero())
	assert.True(t, PerRow(0, 0).IsZero())
	assert.False(t, PerRow(0, 1).IsZero())
}

func TestConcat(t *testing.T) {
	a := Int64Matrix([]int64{0, 0}, []int64{0, 1})
	b := Int64Matrix([]int64{2, 2, 2}, []int64{3, 4, 5})

	cols, err := Concat(1, a, b)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 5}, cols.Shape())
	assert.Equal(t, []int64{0, 0, 2, 2, 2, 0, 1, 3, 4, 5}, cols.Int64s())

	x := Float64Matrix([]float64{1, 2}, []float64{3, 4})
	y := Float64Matrix([]float64{5, 6})
	rows, err := Concat(0, x, y)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 2}, rows.Shape())
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, rows.Float64s())

	_, err = Concat(0, a, b)
	assert.ErrorIs(t, err, errors.ErrShapeMismatch)
	_, err = Concat(0, a, x)
	assert.ErrorIs(t, err, errors.ErrShapeMismatch)
	_, err = Concat(2, a)
	assert.ErrorIs(t, err, errors.ErrShapeMismatch)
}

func TestStackAndSelect(t *testing.T) {
	s, err := Stack(Float64Vector(1), Float64Vector(2), Float64Vector(3))
	require.NoError(t, err)
	assert.Equal(t, []int{3, 1}, s.Shape())

	second, err := s.Select(1)
	require.NoError(t, err)
	assert.True(t, Equal(Float64Vector(2), second))

	_, err = Stack(Float64Vector(1), Float64Vector(1, 2))
	assert.ErrorIs(t, err, errors.ErrShapeMismatch)
	_, err = Float64Vector(1).Select(0)
	assert.ErrorIs(t, err, errors.ErrShapeMismatch)
}

func TestNarrowInvertsConcat(t *testing.T) {
	a := Int64Matrix([]int64{0, 0}, []int64{0, 1})
	b := Int64Matrix([]int64{2}, []int64{3})
	c, err := Concat(1, a, b)
	require.NoError(t, err)

	gotA, err := c.Narrow(1, 0, 2)
	require.NoError(t, err)
	gotB, err := c.Narrow(1, 2, 1)
	require.NoError(t, err)
	assert.True(t, Equal(a, gotA))
	assert.True(t, Equal(b, gotB))

	_, err = c.Narrow(1, 2, 2)
	assert.ErrorIs(t, err, errors.ErrShapeMismatch)
}

func TestMaxMin(t *testing.T) {
	v := Int64Vector(3, -1, 7)
	maxV, ok := v.MaxInt64()
	assert.True(t, ok)
	assert.Equal(t, int64(7), maxV)
	minV, ok := v.MinInt64()
	assert.True(t, ok)
	assert.Equal(t, int64(-1), minV)

	_, ok = Int64Vector().MaxInt64()
	assert.False(t, ok)
	_, ok = Float64Vector(1).MaxInt64()
	assert.False(t, ok)
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(Int64Vector(), MustInt64([]int{0}, nil)))
	assert.False(t, Equal(Int64Vector(1), Float64Vector(1)))
	assert.False(t, Equal(Int64Vector(1, 2), Int64Matrix([]int64{1, 2})))
	assert.True(t, Equal(nil, nil))
	assert.False(t, Equal(nil, Int64Vector()))
}
