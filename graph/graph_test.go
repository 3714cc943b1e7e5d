package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/graphbatch/errors"
	"github.com/c360/graphbatch/tensor"
)

func TestKindForKey(t *testing.T) {
	tests := []struct {
		key  string
		want Kind
	}{
		{"edge_index", KindIndex},
		{"edge_index_s", KindIndex},
		{"face", KindIndex},
		{"tri_face", KindIndex},
		{"edge_attr", KindEdge},
		{"x", KindNode},
		{"pos", KindNode},
		{"y", KindNode},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, KindForKey(tt.key), tt.key)
	}
}

func TestParseKind(t *testing.T) {
	for _, k := range []Kind{KindNode, KindEdge, KindIndex, KindGraph, KindCustom} {
		got, ok := ParseKind(k.String())
		assert.True(t, ok)
		assert.Equal(t, k, got)
	}
	_, ok := ParseKind("unknown")
	assert.False(t, ok)
}

func TestNumNodesInference(t *testing.T) {
	edges := tensor.Int64Matrix([]int64{0, 1, 4}, []int64{1, 2, 0})

	tests := []struct {
		name string
		g    *Graph
		want int
	}{
		{"empty graph", New(), 0},
		{"explicit wins", New().SetNumNodes(9).Put("x", tensor.Float64Vector(1, 2)).Put("edge_index", edges), 9},
		{"node rows ignored", New().Put("x", tensor.Float64Matrix([]float64{1}, []float64{2}, []float64{3})).Put("edge_index", edges), 5},
		{"explicit node kind ignored", New().Set("x", KindNode, tensor.Float64Vector(1, 2, 3)), 0},
		{"inferred node key ignored", New().Put("edge_index", tensor.Int64Matrix([]int64{0, 1}, []int64{1, 2})).Put("y", tensor.Float64Vector(0.5)), 3},
		{"max id plus one", New().Put("edge_index", edges), 5},
		{"empty edge list", New().Put("edge_index", tensor.MustInt64([]int{2, 0}, nil)), 0},
		{"graph attrs ignored", New().Set("y", KindGraph, tensor.Float64Vector(1)), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.g.NumNodes())
		})
	}
}

func TestSetAndGet(t *testing.T) {
	g := New().
		Put("x", tensor.Float64Vector(1, 2)).
		Set("y", KindGraph, tensor.Float64Vector(0.5))

	a, ok := g.Get("y")
	require.True(t, ok)
	assert.Equal(t, KindGraph, a.Kind)
	assert.Equal(t, KindNode, mustGet(t, g, "x").Kind)
	assert.Equal(t, []string{"x", "y"}, g.Keys())
	assert.Nil(t, g.Value("missing"))

	g.Set("x", KindNode, nil)
	assert.False(t, g.Has("x"))
}

func TestValidate(t *testing.T) {
	ok := New().SetNumNodes(3).Put("edge_index", tensor.Int64Matrix([]int64{0, 1}, []int64{1, 2}))
	require.NoError(t, ok.Validate())

	outOfRange := New().SetNumNodes(2).Put("edge_index", tensor.Int64Matrix([]int64{0, 1}, []int64{1, 2}))
	err := outOfRange.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInvalidData)
	assert.True(t, errors.IsInvalid(err))

	negative := New().Put("x", tensor.Float64Vector(1, 2)).Put("edge_index", tensor.Int64Matrix([]int64{-1}, []int64{0}))
	assert.Error(t, negative.Validate())

	floatIndex := New().Put("face", tensor.Float64Vector(0))
	assert.Error(t, floatIndex.Validate())
}

func TestEqualAndClone(t *testing.T) {
	a := New().Put("x", tensor.Float64Vector(1, 2)).Put("edge_index", tensor.Int64Matrix([]int64{0}, []int64{1}))
	b := a.Clone()
	assert.True(t, Equal(a, b))

	b.Set("extra", KindGraph, tensor.Int64Vector(1))
	assert.False(t, Equal(a, b))
	assert.False(t, a.Has("extra"), "clone must not share the attribute map")

	c := New().Set("x", KindEdge, tensor.Float64Vector(1, 2)).Put("edge_index", tensor.Int64Matrix([]int64{0}, []int64{1}))
	assert.False(t, Equal(a, c), "kinds are part of equality")
}

func TestBinaryRoundTrip(t *testing.T) {
	g := New().
		SetNumNodes(4).
		Put("x", tensor.Float64Matrix([]float64{1, 2}, []float64{3, 4}, []float64{5, 6}, []float64{7, 8})).
		Put("edge_index", tensor.Int64Matrix([]int64{0, 1, 2}, []int64{1, 2, 3})).
		Put("edge_attr", tensor.MustFloat64([]int{3, 0}, nil)).
		Set("y", KindGraph, tensor.Int64Vector(1))

	data, err := g.MarshalBinary()
	require.NoError(t, err)

	var out Graph
	require.NoError(t, out.UnmarshalBinary(data))
	assert.True(t, Equal(g, &out), "got %s", &out)
	n, explicit := out.ExplicitNumNodes()
	assert.True(t, explicit)
	assert.Equal(t, 4, n)

	err = out.UnmarshalBinary([]byte{0xc1})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrDataCorrupted)
}

func mustGet(t *testing.T, g *Graph, key string) Attribute {
	t.Helper()
	a, ok := g.Get(key)
	require.True(t, ok, key)
	return a
}
