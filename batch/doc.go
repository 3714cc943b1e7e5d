// Package batch merges independent graphs into a single Batch that behaves
// like one large, disconnected graph.
//
// Merging is driven by a Policy. For every attribute key the policy supplies
// an increment, the amount added to the key's values for each graph, and a
// concatenation axis. Increments accumulate across graphs in input order,
// so the node ids of graph i are shifted by the node counts of graphs
// 0..i-1 and no two graphs share an id. Values are joined along their axis
// with no padding; NewAxis stacks them into a [num_graphs, ...] tensor
// instead.
//
// Defaults come from the attribute's graph.Kind. Per-key Rules override them,
// and the named variants cover the common multi-node-set layouts:
//
//	// one node set
//	b, err := batch.Build(graphs, batch.Plain())
//
//	// two node sets, each with its own edge list
//	p := batch.Paired(map[string]string{"edge_index_s": "x_s", "edge_index_t": "x_t"})
//
//	// source ids in row 0, target ids in row 1
//	p := batch.Bipartite("edge_index", "x_s", "x_t")
//
//	// graph-level targets stacked as [num_graphs, ...]
//	p := batch.Plain().With("y", batch.Rule{Axis: batch.StackNewAxis()})
//
// A Batch records Ptr (node boundaries), membership vectors for tracked keys
// and the implicit "batch" node membership, and enough layout information
// for GraphAt and Unbatch to return the original graphs.
package batch
