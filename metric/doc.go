// Package metric provides the Prometheus registry shared by graphbatch
// components and an HTTP server that exposes it.
//
// MetricsRegistry wraps a prometheus.Registry. It registers the core Metrics
// (dataset materialization, durable cache lookups, build failures, batch
// collation) on construction, and accepts component metrics through the
// MetricsRegistrar interface keyed by "service.metric":
//
//	registry := metric.NewMetricsRegistry()
//	pool := worker.NewPool(4, 64, fn, worker.WithMetricsRegistry[int](registry, "loader"))
//
// Core metric recorders are nil-safe, so components built without a registry
// simply skip observation:
//
//	var m *metric.Metrics
//	m.RecordSample(metric.SourceBuilt) // no-op
//
// Server serves the registry on /metrics and a plain /health check.
package metric
