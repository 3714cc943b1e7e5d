package dataset

import (
	"context"

	"github.com/c360/graphbatch/graph"
)

// GraphBuilder turns one raw record into a graph. It must be deterministic
// in the record. Errors that cannot be fixed by retrying should wrap
// errors.ErrMalformedRecord; transient errors are retried.
type GraphBuilder interface {
	Build(ctx context.Context, rec Record) (*graph.Graph, error)
}

// BuilderFunc adapts a function to GraphBuilder.
type BuilderFunc func(ctx context.Context, rec Record) (*graph.Graph, error)

// Build implements GraphBuilder.
func (f BuilderFunc) Build(ctx context.Context, rec Record) (*graph.Graph, error) {
	return f(ctx, rec)
}

// FilterFunc reports whether a freshly built graph should be kept.
type FilterFunc func(g *graph.Graph) bool

// TransformFunc derives a new graph. It may modify and return its argument,
// which is always a private copy.
type TransformFunc func(g *graph.Graph) (*graph.Graph, error)
