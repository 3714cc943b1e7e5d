// Package graph defines a single graph sample: an optional node count plus
// named, kind-tagged tensor attributes.
//
// Graphs are built once and then only read. Tensors handed to Set become
// owned by the graph and must not be modified afterwards; tensors returned
// by Value must be treated as read-only.
package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/c360/graphbatch/errors"
	"github.com/c360/graphbatch/tensor"
)

// EdgeIndexKey is the conventional key of the [2, E] edge list.
const EdgeIndexKey = "edge_index"

// Attribute is a tagged attribute value.
type Attribute struct {
	Kind  Kind
	Value *tensor.Tensor
}

// Graph is one sample.
type Graph struct {
	numNodes    int
	hasNumNodes bool
	attrs       map[string]Attribute
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{attrs: make(map[string]Attribute)}
}

// SetNumNodes fixes the node count instead of inferring it.
func (g *Graph) SetNumNodes(n int) *Graph {
	g.numNodes = n
	g.hasNumNodes = true
	return g
}

// Set stores value under key. KindUnknown infers the kind with KindForKey.
// A nil value removes the key.
func (g *Graph) Set(key string, kind Kind, value *tensor.Tensor) *Graph {
	if value == nil {
		delete(g.attrs, key)
		return g
	}
	if kind == KindUnknown {
		kind = KindForKey(key)
	}
	g.attrs[key] = Attribute{Kind: kind, Value: value}
	return g
}

// Put stores value under key with the kind inferred from the key.
func (g *Graph) Put(key string, value *tensor.Tensor) *Graph {
	return g.Set(key, KindUnknown, value)
}

// Get returns the attribute stored under key.
func (g *Graph) Get(key string) (Attribute, bool) {
	a, ok := g.attrs[key]
	return a, ok
}

// Value returns the tensor stored under key, or nil.
func (g *Graph) Value(key string) *tensor.Tensor {
	return g.attrs[key].Value
}

// Has reports whether key is present.
func (g *Graph) Has(key string) bool {
	_, ok := g.attrs[key]
	return ok
}

// Keys returns the attribute keys in sorted order.
func (g *Graph) Keys() []string {
	keys := make([]string, 0, len(g.attrs))
	for k := range g.attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ExplicitNumNodes returns the node count if one was set.
func (g *Graph) ExplicitNumNodes() (int, bool) {
	return g.numNodes, g.hasNumNodes
}

// NumNodes returns the explicit node count, or else one past the largest id
// held by an index attribute, or else 0. Row counts of node attributes are
// never consulted: a graph with isolated trailing nodes must set its count.
func (g *Graph) NumNodes() int {
	if g.hasNumNodes {
		return g.numNodes
	}
	var top int64 = -1
	for _, a := range g.attrs {
		if a.Kind != KindIndex {
			continue
		}
		if m, ok := a.Value.MaxInt64(); ok {
			top = max(top, m)
		}
	}
	return int(top + 1)
}

// NumEdges returns the number of columns of the edge list, or 0 without one.
func (g *Graph) NumEdges() int {
	a, ok := g.attrs[EdgeIndexKey]
	if !ok || a.Value.Rank() < 2 {
		return 0
	}
	return a.Value.Dim(1)
}

// Clone returns a copy sharing the immutable tensors.
func (g *Graph) Clone() *Graph {
	c := &Graph{
		numNodes:    g.numNodes,
		hasNumNodes: g.hasNumNodes,
		attrs:       make(map[string]Attribute, len(g.attrs)),
	}
	for k, a := range g.attrs {
		c.attrs[k] = a
	}
	return c
}

// Validate checks kinds and that every node id lies in [0, NumNodes).
func (g *Graph) Validate() error {
	if g.hasNumNodes && g.numNodes < 0 {
		return errors.Invalidf(errors.ErrInvalidData, "graph", "Validate", "negative num_nodes %d", g.numNodes)
	}
	n := int64(g.NumNodes())
	for _, key := range g.Keys() {
		a := g.attrs[key]
		if !a.Kind.Valid() {
			return errors.Invalidf(errors.ErrInvalidData, "graph", "Validate", "key %q has %s kind", key, a.Kind)
		}
		if a.Kind != KindIndex {
			continue
		}
		if a.Value.DType() != tensor.Int64 {
			return errors.Invalidf(errors.ErrInvalidData, "graph", "Validate",
				"index key %q has dtype %s", key, a.Value.DType())
		}
		lo, ok := a.Value.MinInt64()
		if !ok {
			continue
		}
		hi, _ := a.Value.MaxInt64()
		if lo < 0 || hi >= n {
			return errors.Invalidf(errors.ErrInvalidData, "graph", "Validate",
				"index key %q has ids in [%d, %d], num_nodes is %d", key, lo, hi, n)
		}
	}
	return nil
}

// Equal reports whether a and b have the same node count and attributes.
func Equal(a, b *Graph) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.NumNodes() != b.NumNodes() || len(a.attrs) != len(b.attrs) {
		return false
	}
	for k, av := range a.attrs {
		bv, ok := b.attrs[k]
		if !ok || av.Kind != bv.Kind || !tensor.Equal(av.Value, bv.Value) {
			return false
		}
	}
	return true
}

func (g *Graph) String() string {
	keys := g.Keys()
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		a := g.attrs[k]
		parts = append(parts, fmt.Sprintf("%s=%s%v", k, a.Kind, a.Value.Shape()))
	}
	return fmt.Sprintf("Graph(num_nodes=%d, %s)", g.NumNodes(), strings.Join(parts, ", "))
}
