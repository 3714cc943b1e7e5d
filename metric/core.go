package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "graphbatch"

// Sample source labels for SamplesMaterialized.
const (
	SourceMemory  = "memory"
	SourceDurable = "durable"
	SourceBuilt   = "built"
)

// Metrics holds the core dataset and batching metrics.
// All methods are no-ops on a nil receiver so components can run unobserved.
type Metrics struct {
	SamplesMaterialized *prometheus.CounterVec
	DurableLookups      *prometheus.CounterVec
	BuildFailures       *prometheus.CounterVec
	CacheWriteErrors    prometheus.Counter
	SamplesSkipped      *prometheus.CounterVec
	BatchesBuilt        prometheus.Counter
	BatchGraphs         prometheus.Histogram
	BatchBuildDuration  prometheus.Histogram
	LoaderPasses        prometheus.Counter
}

// NewMetrics creates the core metrics. They are registered by NewMetricsRegistry.
func NewMetrics() *Metrics {
	return &Metrics{
		SamplesMaterialized: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dataset",
			Name:      "samples_materialized_total",
			Help:      "Samples returned by the dataset, by source",
		}, []string{"source"}),
		DurableLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dataset",
			Name:      "durable_lookups_total",
			Help:      "Durable cache lookups, by result",
		}, []string{"result"}),
		BuildFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dataset",
			Name:      "build_failures_total",
			Help:      "Sample builds that failed, by error class",
		}, []string{"class"}),
		CacheWriteErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dataset",
			Name:      "cache_write_errors_total",
			Help:      "Durable cache publishes that failed",
		}),
		SamplesSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "loader",
			Name:      "samples_skipped_total",
			Help:      "Samples dropped from batches, by reason",
		}, []string{"reason"}),
		BatchesBuilt: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "batch",
			Name:      "built_total",
			Help:      "Batches collated",
		}),
		BatchGraphs: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "batch",
			Name:      "graphs",
			Help:      "Graphs per collated batch",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
		BatchBuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "batch",
			Name:      "build_duration_seconds",
			Help:      "Time spent collating a batch",
			Buckets:   prometheus.DefBuckets,
		}),
		LoaderPasses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "loader",
			Name:      "passes_total",
			Help:      "Loader iteration passes started",
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.SamplesMaterialized,
		m.DurableLookups,
		m.BuildFailures,
		m.CacheWriteErrors,
		m.SamplesSkipped,
		m.BatchesBuilt,
		m.BatchGraphs,
		m.BatchBuildDuration,
		m.LoaderPasses,
	}
}

// RecordSample counts a sample returned from source.
func (m *Metrics) RecordSample(source string) {
	if m == nil {
		return
	}
	m.SamplesMaterialized.WithLabelValues(source).Inc()
}

// RecordDurableLookup counts a durable cache hit or miss.
func (m *Metrics) RecordDurableLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.DurableLookups.WithLabelValues(result).Inc()
}

// RecordBuildFailure counts a failed build under its error class.
func (m *Metrics) RecordBuildFailure(class string) {
	if m == nil {
		return
	}
	m.BuildFailures.WithLabelValues(class).Inc()
}

// RecordCacheWriteError counts a failed durable publish.
func (m *Metrics) RecordCacheWriteError() {
	if m == nil {
		return
	}
	m.CacheWriteErrors.Inc()
}

// RecordSkipped counts a sample the loader left out of a batch.
func (m *Metrics) RecordSkipped(reason string) {
	if m == nil {
		return
	}
	m.SamplesSkipped.WithLabelValues(reason).Inc()
}

// RecordBatch records one collated batch.
func (m *Metrics) RecordBatch(graphs int, took time.Duration) {
	if m == nil {
		return
	}
	m.BatchesBuilt.Inc()
	m.BatchGraphs.Observe(float64(graphs))
	m.BatchBuildDuration.Observe(took.Seconds())
}

// RecordPass counts a loader pass.
func (m *Metrics) RecordPass() {
	if m == nil {
		return
	}
	m.LoaderPasses.Inc()
}
