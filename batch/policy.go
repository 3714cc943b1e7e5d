package batch

import (
	"fmt"
	"maps"

	"github.com/c360/graphbatch/errors"
	"github.com/c360/graphbatch/graph"
	"github.com/c360/graphbatch/tensor"
)

// Axis is a concatenation axis, or NewAxis to stack along a new leading axis.
type Axis int

// NewAxis stacks per-graph values into a [num_graphs, ...] tensor.
const NewAxis Axis = -1

func (a Axis) String() string {
	if a == NewAxis {
		return "new-axis"
	}
	return fmt.Sprintf("axis %d", int(a))
}

// IncrementFunc returns the amount one graph adds to the running offset of
// key. value is nil when the graph lacks key.
type IncrementFunc func(key string, value *tensor.Tensor, g *graph.Graph) tensor.Offset

// AxisFunc returns the concatenation axis for a value of key.
type AxisFunc func(key string, value *tensor.Tensor) Axis

// Rule overrides the merge behaviour of a single key. A nil field falls back
// to the default for the key's kind.
type Rule struct {
	Increment IncrementFunc
	Axis      AxisFunc
}

// Policy decides, per attribute key, the increment and concatenation axis
// used when merging graphs. Policies are immutable; With returns a copy.
type Policy struct {
	name  string
	rules map[string]Rule
}

// Plain returns the default policy: index attributes are offset by the node
// count of preceding graphs and joined along their last axis; all other
// kinds are joined along axis 0 without offset.
func Plain() *Policy {
	return &Policy{name: "plain", rules: map[string]Rule{}}
}

// Paired returns a policy for graphs that carry several node sets, each with
// its own index attribute. pairs maps an index key to the node key whose row
// count offsets it, e.g. {"edge_index_s": "x_s", "edge_index_t": "x_t"}.
func Paired(pairs map[string]string) *Policy {
	p := Plain()
	p.name = "paired"
	for indexKey, nodeKey := range pairs {
		p.rules[indexKey] = Rule{Increment: IncrementByRows(nodeKey)}
	}
	return p
}

// Bipartite returns a policy whose index attribute has source ids in row 0
// and target ids in row 1, offset by the row counts of srcKey and dstKey.
func Bipartite(indexKey, srcKey, dstKey string) *Policy {
	p := Plain()
	p.name = "bipartite"
	p.rules[indexKey] = Rule{Increment: IncrementByRowsPerAxis(srcKey, dstKey)}
	return p
}

// With returns a copy of p with rule installed for key.
func (p *Policy) With(key string, rule Rule) *Policy {
	return &Policy{name: p.name, rules: withRule(p.rules, key, rule)}
}

func withRule(rules map[string]Rule, key string, rule Rule) map[string]Rule {
	out := maps.Clone(rules)
	out[key] = rule
	return out
}

// Name identifies the policy variant.
func (p *Policy) Name() string { return p.name }

// IncrementByRows offsets by the number of rows of ref in the owning graph.
func IncrementByRows(ref string) IncrementFunc {
	return func(_ string, _ *tensor.Tensor, g *graph.Graph) tensor.Offset {
		return tensor.Scalar(int64(rows(g, ref)))
	}
}

// IncrementByRowsPerAxis offsets row i of the value by the number of rows of refs[i].
func IncrementByRowsPerAxis(refs ...string) IncrementFunc {
	return func(_ string, _ *tensor.Tensor, g *graph.Graph) tensor.Offset {
		o := make(tensor.Offset, len(refs))
		for i, ref := range refs {
			o[i] = int64(rows(g, ref))
		}
		return o
	}
}

// IncrementByNumNodes offsets by the owning graph's node count.
func IncrementByNumNodes() IncrementFunc {
	return func(_ string, _ *tensor.Tensor, g *graph.Graph) tensor.Offset {
		return tensor.Scalar(int64(g.NumNodes()))
	}
}

// NoIncrement never offsets.
func NoIncrement() IncrementFunc {
	return func(string, *tensor.Tensor, *graph.Graph) tensor.Offset { return nil }
}

// StackNewAxis stacks values along a new leading axis.
func StackNewAxis() AxisFunc {
	return func(string, *tensor.Tensor) Axis { return NewAxis }
}

// AlongAxis joins values along a fixed axis.
func AlongAxis(a int) AxisFunc {
	return func(string, *tensor.Tensor) Axis { return Axis(a) }
}

func rows(g *graph.Graph, key string) int {
	if v := g.Value(key); v != nil {
		return v.Rows()
	}
	return 0
}

// Increment returns graph g's contribution to the running offset of key.
func (p *Policy) Increment(key string, kind graph.Kind, value *tensor.Tensor, g *graph.Graph) (tensor.Offset, error) {
	if r, ok := p.rules[key]; ok && r.Increment != nil {
		return r.Increment(key, value, g), nil
	}
	switch kind {
	case graph.KindIndex:
		return tensor.Scalar(int64(g.NumNodes())), nil
	case graph.KindNode, graph.KindEdge, graph.KindGraph:
		return nil, nil
	default:
		return nil, errors.Invalidf(errors.ErrNoRule, "Policy", "Increment",
			"key %q of %s kind has no increment rule", key, kind)
	}
}

// ConcatAxis returns the axis along which values of key are joined.
func (p *Policy) ConcatAxis(key string, kind graph.Kind, value *tensor.Tensor) (Axis, error) {
	if r, ok := p.rules[key]; ok && r.Axis != nil {
		return r.Axis(key, value), nil
	}
	switch kind {
	case graph.KindIndex:
		return Axis(value.Rank() - 1), nil
	case graph.KindNode, graph.KindEdge, graph.KindGraph:
		return 0, nil
	default:
		return 0, errors.Invalidf(errors.ErrNoRule, "Policy", "ConcatAxis",
			"key %q of %s kind has no axis rule", key, kind)
	}
}
