package dataset

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/c360/graphbatch/errors"
	"github.com/c360/graphbatch/graph"
	"github.com/c360/graphbatch/tensor"
)

// EdgeListBuilder builds a graph from a CSV row holding a node count and a
// whitespace separated list of "src-dst" edges. Further numeric columns
// become graph-level attributes.
//
//	num_nodes,edges,y
//	3,0-1 1-2,0.5
type EdgeListBuilder struct {
	// NodesColumn names the node count column. Default "num_nodes".
	NodesColumn string
	// EdgesColumn names the edge list column. Default "edges".
	EdgesColumn string
	// GraphColumns are parsed as float graph attributes under their own name.
	GraphColumns []string
	// Undirected adds the reverse of every edge.
	Undirected bool
}

// Build implements GraphBuilder.
func (b EdgeListBuilder) Build(_ context.Context, rec Record) (*graph.Graph, error) {
	nodesCol := b.NodesColumn
	if nodesCol == "" {
		nodesCol = "num_nodes"
	}
	edgesCol := b.EdgesColumn
	if edgesCol == "" {
		edgesCol = "edges"
	}

	rawN, ok := rec.Field(nodesCol)
	if !ok {
		return nil, malformed(rec, "missing column %q", nodesCol)
	}
	n, err := strconv.Atoi(strings.TrimSpace(rawN))
	if err != nil || n < 0 {
		return nil, malformed(rec, "bad node count %q", rawN)
	}

	rawEdges, _ := rec.Field(edgesCol)
	var src, dst []int64
	for _, pair := range strings.Fields(rawEdges) {
		a, c, ok := strings.Cut(pair, "-")
		if !ok {
			return nil, malformed(rec, "bad edge %q", pair)
		}
		u, err1 := strconv.ParseInt(a, 10, 64)
		v, err2 := strconv.ParseInt(c, 10, 64)
		if err1 != nil || err2 != nil {
			return nil, malformed(rec, "bad edge %q", pair)
		}
		src, dst = append(src, u), append(dst, v)
		if b.Undirected && u != v {
			src, dst = append(src, v), append(dst, u)
		}
	}

	ei, err := tensor.FromInt64([]int{2, len(src)}, append(src, dst...))
	if err != nil {
		return nil, malformed(rec, "%v", err)
	}
	g := graph.New().SetNumNodes(n).Set(graph.EdgeIndexKey, graph.KindIndex, ei)

	for _, col := range b.GraphColumns {
		v, err := rec.Float(col)
		if err != nil {
			return nil, err
		}
		g.Set(col, graph.KindGraph, tensor.Float64Vector(v))
	}

	if err := g.Validate(); err != nil {
		return nil, malformed(rec, "%v", err)
	}
	return g, nil
}

func malformed(rec Record, format string, args ...any) error {
	return errors.Invalidf(errors.ErrMalformedRecord, "dataset", "EdgeListBuilder",
		"row %d: %s", rec.Index, fmt.Sprintf(format, args...))
}
