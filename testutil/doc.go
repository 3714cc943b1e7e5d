// Package testutil provides fixtures and mocks shared by graphbatch tests:
// path graphs, raw CSV sources for dataset.EdgeListBuilder, a storage.Store with error
// injection, a GraphBuilder that counts calls, and a slice-backed
// dataset.Source for loader tests.
//
//	dir := t.TempDir()
//	testutil.WriteFile(t, filepath.Join(dir, "raw"), "graphs.csv", testutil.ChainCSV(10))
//	builder := testutil.NewCountingBuilder(dataset.EdgeListBuilder{GraphColumns: []string{"y"}})
package testutil
