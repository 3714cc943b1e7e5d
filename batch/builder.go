package batch

import (
	"fmt"
	"sort"
	"time"

	"github.com/c360/graphbatch/errors"
	"github.com/c360/graphbatch/graph"
	"github.com/c360/graphbatch/metric"
	"github.com/c360/graphbatch/tensor"
)

// NodeMembershipKey names the implicit per-node membership vector. It is
// reserved in Track unless SkipNodeMembership is set.
const NodeMembershipKey = "batch"

// Builder merges graphs into a Batch.
type Builder struct {
	// Policy selects increments and concatenation axes. Nil means Plain().
	Policy *Policy

	// Track lists attribute keys that get a membership vector.
	Track []string

	// SkipNodeMembership suppresses the implicit "batch" node membership vector.
	SkipNodeMembership bool

	// Metrics, when set, records batch counts and build latency.
	Metrics *metric.Metrics
}

// Build merges graphs with policy, tracking membership for the given keys.
func Build(graphs []*graph.Graph, policy *Policy, track ...string) (*Batch, error) {
	b := Builder{Policy: policy, Track: track}
	return b.Build(graphs)
}

// Validate rejects tracking the reserved node membership key.
func (b *Builder) Validate() error {
	if b.SkipNodeMembership {
		return nil
	}
	for _, key := range b.Track {
		if key == NodeMembershipKey {
			return errors.Invalidf(errors.ErrInvalidConfig, "Builder", "Validate",
				"track key %q is reserved for node membership", key)
		}
	}
	return nil
}

// Build merges graphs in order. Inputs are never modified.
func (b *Builder) Build(graphs []*graph.Graph) (*Batch, error) {
	start := time.Now()
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if len(graphs) == 0 {
		return nil, errors.WrapInvalid(errors.ErrEmptyBatch, "Builder", "Build", "collate")
	}
	for i, g := range graphs {
		if g == nil {
			return nil, errors.Invalidf(errors.ErrInvalidData, "Builder", "Build", "graph %d is nil", i)
		}
	}
	policy := b.Policy
	if policy == nil {
		policy = Plain()
	}

	n := len(graphs)
	out := &Batch{
		Graph:      graph.New(),
		Ptr:        make([]int, n+1),
		Membership: make(map[string][]int),
		layouts:    make(map[string]*layout),
		explicit:   make([]bool, n),
	}
	for i, g := range graphs {
		out.Ptr[i+1] = out.Ptr[i] + g.NumNodes()
		_, out.explicit[i] = g.ExplicitNumNodes()
	}
	out.Graph.SetNumNodes(out.Ptr[n])

	kinds, err := resolveKinds(graphs)
	if err != nil {
		return nil, err
	}
	for _, key := range sortedKeys(kinds) {
		merged, l, err := mergeKey(policy, key, kinds[key], graphs)
		if err != nil {
			return nil, err
		}
		out.Graph.Set(key, kinds[key], merged)
		out.layouts[key] = l
	}

	for _, key := range b.Track {
		out.Membership[key] = membership(out.layouts[key], n)
	}
	if !b.SkipNodeMembership {
		out.Membership[NodeMembershipKey] = repeatPositions(func(i int) int {
			return out.Ptr[i+1] - out.Ptr[i]
		}, n)
	}

	b.Metrics.RecordBatch(n, time.Since(start))
	return out, nil
}

// resolveKinds returns the single kind of every key present in any graph.
func resolveKinds(graphs []*graph.Graph) (map[string]graph.Kind, error) {
	kinds := make(map[string]graph.Kind)
	for i, g := range graphs {
		for _, key := range g.Keys() {
			a, _ := g.Get(key)
			prev, seen := kinds[key]
			if seen && prev != a.Kind {
				return nil, errors.Invalidf(errors.ErrKindConflict, "Builder", "Build",
					"key %q is %s in an earlier graph and %s in graph %d", key, prev, a.Kind, i)
			}
			kinds[key] = a.Kind
		}
	}
	return kinds, nil
}

func sortedKeys(m map[string]graph.Kind) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// mergeKey offsets and joins one key across all graphs.
func mergeKey(policy *Policy, key string, kind graph.Kind, graphs []*graph.Graph) (*tensor.Tensor, *layout, error) {
	l := &layout{spans: make([]span, len(graphs)), offsets: make([]tensor.Offset, len(graphs))}
	parts := make([]*tensor.Tensor, 0, len(graphs))
	axisSet := false

	var cum tensor.Offset
	pos := 0
	for i, g := range graphs {
		value := g.Value(key)

		if value != nil {
			axis, err := policy.ConcatAxis(key, kind, value)
			if err != nil {
				return nil, nil, err
			}
			if axisSet && axis != l.axis {
				return nil, nil, errors.Invalidf(errors.ErrShapeMismatch, "Builder", "Build",
					"key %q joins along %s in graph %d but %s before", key, axis, i, l.axis)
			}
			if axis != NewAxis && int(axis) >= value.Rank() {
				return nil, nil, errors.Invalidf(errors.ErrShapeMismatch, "Builder", "Build",
					"key %q: %s out of range for shape %v", key, axis, value.Shape())
			}
			l.axis, axisSet = axis, true

			adjusted, err := value.AddOffset(cum)
			if err != nil {
				return nil, nil, keyError(key, i, err)
			}
			size := 1
			if axis != NewAxis {
				size = value.Dim(int(axis))
			}
			l.spans[i] = span{start: pos, length: size, present: true}
			l.offsets[i] = cum
			pos += size
			parts = append(parts, adjusted)
		}

		inc, err := policy.Increment(key, kind, value, g)
		if err != nil {
			return nil, nil, err
		}
		if cum, err = cum.Add(inc); err != nil {
			return nil, nil, keyError(key, i, err)
		}
	}

	var (
		merged *tensor.Tensor
		err    error
	)
	if l.axis == NewAxis {
		merged, err = tensor.Stack(parts...)
	} else {
		merged, err = tensor.Concat(int(l.axis), parts...)
	}
	if err != nil {
		return nil, nil, errors.Invalidf(errors.ErrShapeMismatch, "Builder", "Build", "key %q: %v", key, err)
	}
	return merged, l, nil
}

func keyError(key string, graphIdx int, err error) error {
	return errors.Wrap(err, "Builder", "Build", fmt.Sprintf("key %q in graph %d", key, graphIdx))
}

func membership(l *layout, n int) []int {
	if l == nil {
		return []int{}
	}
	return repeatPositions(func(i int) int { return l.spans[i].length }, n)
}

// repeatPositions returns [0]*count(0) + [1]*count(1) + ... + [n-1]*count(n-1).
func repeatPositions(count func(i int) int, n int) []int {
	var out []int
	for i := 0; i < n; i++ {
		for j := count(i); j > 0; j-- {
			out = append(out, i)
		}
	}
	if out == nil {
		out = []int{}
	}
	return out
}
