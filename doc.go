// Package graphbatch turns tabular graph sources into mini-batches of
// merged graphs.
//
// The module is organised in layers:
//
//   - tensor and graph hold dense int64/float64 arrays and attributed graphs.
//   - batch merges graphs into one Batch under an attribute Policy that
//     decides, per key, how indices are offset and along which axis values
//     are joined. Batches can be split back into their inputs.
//   - dataset materializes graphs lazily from a raw CSV source, caching
//     them in memory and in a durable storage.Store (files, LevelDB or a
//     NATS KV bucket).
//   - loader runs passes over a dataset.Source on a worker pool and yields
//     batches in a deterministic order.
//   - config and cmd/graphbatch wire the pieces together from JSON or YAML
//     files and GRAPHBATCH_* environment variables.
//
// Errors from every package are classified as transient, invalid or fatal
// by the errors package, and metrics are collected through a shared
// metric.MetricsRegistry.
package graphbatch
