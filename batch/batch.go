package batch

import (
	"github.com/c360/graphbatch/errors"
	"github.com/c360/graphbatch/graph"
	"github.com/c360/graphbatch/tensor"
)

// Batch is the merged graph of N inputs plus the bookkeeping needed to split
// it back into those inputs.
type Batch struct {
	*graph.Graph

	// Ptr holds cumulative node boundaries: graph i owns nodes [Ptr[i], Ptr[i+1]).
	Ptr []int

	// Membership maps a tracked key to the originating graph of each of its rows.
	Membership map[string][]int

	layouts  map[string]*layout
	explicit []bool
}

// layout records where each graph's slice of one key lives in the merged value.
type layout struct {
	axis    Axis
	spans   []span
	offsets []tensor.Offset
}

type span struct {
	start, length int
	present       bool
}

// NumGraphs returns the number of merged graphs.
func (b *Batch) NumGraphs() int { return len(b.Ptr) - 1 }

// ConcatAxis returns the axis key was joined along.
func (b *Batch) ConcatAxis(key string) (Axis, bool) {
	l, ok := b.layouts[key]
	if !ok {
		return 0, false
	}
	return l.axis, true
}

// GraphAt reconstructs input graph i.
func (b *Batch) GraphAt(i int) (*graph.Graph, error) {
	if i < 0 || i >= b.NumGraphs() {
		return nil, errors.Invalidf(errors.ErrIndexOutOfRange, "Batch", "GraphAt",
			"graph %d of %d", i, b.NumGraphs())
	}

	g := graph.New()
	if b.explicit[i] {
		g.SetNumNodes(b.Ptr[i+1] - b.Ptr[i])
	}
	for _, key := range b.Graph.Keys() {
		l := b.layouts[key]
		s := l.spans[i]
		if !s.present {
			continue
		}
		a, _ := b.Graph.Get(key)

		var (
			part *tensor.Tensor
			err  error
		)
		if l.axis == NewAxis {
			part, err = a.Value.Select(s.start)
		} else {
			part, err = a.Value.Narrow(int(l.axis), s.start, s.length)
		}
		if err == nil {
			part, err = part.SubOffset(l.offsets[i])
		}
		if err != nil {
			return nil, errors.Wrap(err, "Batch", "GraphAt", "split key "+key)
		}
		g.Set(key, a.Kind, part)
	}
	return g, nil
}

// Unbatch reconstructs every input graph in order.
func (b *Batch) Unbatch() ([]*graph.Graph, error) {
	out := make([]*graph.Graph, b.NumGraphs())
	for i := range out {
		g, err := b.GraphAt(i)
		if err != nil {
			return nil, err
		}
		out[i] = g
	}
	return out, nil
}
