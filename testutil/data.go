package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/c360/graphbatch/graph"
	"github.com/c360/graphbatch/tensor"
)

// EdgeListCSV is a small raw source for dataset.EdgeListBuilder with a
// graph-level "y" column.
const EdgeListCSV = `num_nodes,edges,y
3,0-1 1-2,0.5
2,0-1,1.5
4,0-1 1-2 2-3 3-0,2.5
1,,3.5
5,0-1 0-2 0-3 0-4,4.5`

// EdgeListRows is the number of data rows in EdgeListCSV.
const EdgeListRows = 5

// ChainCSV returns a raw source of n rows where row i is a path over i+2
// nodes with y = i.
func ChainCSV(n int) string {
	var b strings.Builder
	b.WriteString("num_nodes,edges,y\n")
	for i := 0; i < n; i++ {
		nodes := i + 2
		edges := make([]string, 0, nodes-1)
		for u := 0; u < nodes-1; u++ {
			edges = append(edges, fmt.Sprintf("%d-%d", u, u+1))
		}
		fmt.Fprintf(&b, "%d,%s,%d\n", nodes, strings.Join(edges, " "), i)
	}
	return b.String()
}

// WriteFile writes content to dir/name, creating dir, and returns the path.
func WriteFile(t testing.TB, dir, name, content string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// PathGraph returns a directed path over n nodes with one float feature per
// node equal to its id.
func PathGraph(n int) *graph.Graph {
	src := make([]int64, 0, n)
	dst := make([]int64, 0, n)
	x := make([]float64, n)
	for i := 0; i < n; i++ {
		x[i] = float64(i)
		if i+1 < n {
			src = append(src, int64(i))
			dst = append(dst, int64(i+1))
		}
	}
	return graph.New().SetNumNodes(n).
		Set("x", graph.KindNode, tensor.MustFloat64([]int{n, 1}, x)).
		Set(graph.EdgeIndexKey, graph.KindIndex, tensor.MustInt64([]int{2, len(src)}, append(src, dst...)))
}
