package dataset

import (
	"context"
	"slices"

	"github.com/c360/graphbatch/errors"
	"github.com/c360/graphbatch/graph"
)

// Subset is an indexable view of a Dataset over a fixed list of indices.
type Subset struct {
	parent  *Dataset
	indices []int
}

var _ Source = (*Subset)(nil)

// Subset returns a view over indices, in the given order. Every index must
// be in range.
func (d *Dataset) Subset(indices []int) (*Subset, error) {
	for _, i := range indices {
		if i < 0 || i >= d.Len() {
			return nil, errors.Invalidf(errors.ErrIndexOutOfRange, "dataset", "Subset", "index %d not in [0, %d)", i, d.Len())
		}
	}
	return &Subset{parent: d, indices: slices.Clone(indices)}, nil
}

// Len returns the number of indices in the view.
func (s *Subset) Len() int { return len(s.indices) }

// Indices returns a copy of the parent indices.
func (s *Subset) Indices() []int { return slices.Clone(s.indices) }

// Get returns the i-th sample of the view.
func (s *Subset) Get(ctx context.Context, i int) (*graph.Graph, error) {
	if i < 0 || i >= len(s.indices) {
		return nil, errors.Invalidf(errors.ErrIndexOutOfRange, "dataset", "Subset.Get", "index %d not in [0, %d)", i, len(s.indices))
	}
	return s.parent.Get(ctx, s.indices[i])
}
