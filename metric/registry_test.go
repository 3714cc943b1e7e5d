package metric

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/graphbatch/errors"
)

func gathered(t *testing.T, r *MetricsRegistry) map[string]bool {
	t.Helper()
	families, err := r.PrometheusRegistry().Gather()
	require.NoError(t, err)
	names := make(map[string]bool, len(families))
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	return names
}

func TestMetricsRegistry_RegisterKinds(t *testing.T) {
	registry := NewMetricsRegistry()

	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_counter", Help: "c"})
	gauge := prometheus.NewGauge(prometheus.GaugeOpts{Name: "test_gauge", Help: "g"})
	histogram := prometheus.NewHistogram(prometheus.HistogramOpts{Name: "test_histogram", Help: "h"})
	counterVec := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_counter_vec", Help: "cv"}, []string{"l"})
	gaugeVec := prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: "test_gauge_vec", Help: "gv"}, []string{"l"})
	histVec := prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: "test_hist_vec", Help: "hv"}, []string{"l"})

	require.NoError(t, registry.RegisterCounter("svc", "test_counter", counter))
	require.NoError(t, registry.RegisterGauge("svc", "test_gauge", gauge))
	require.NoError(t, registry.RegisterHistogram("svc", "test_histogram", histogram))
	require.NoError(t, registry.RegisterCounterVec("svc", "test_counter_vec", counterVec))
	require.NoError(t, registry.RegisterGaugeVec("svc", "test_gauge_vec", gaugeVec))
	require.NoError(t, registry.RegisterHistogramVec("svc", "test_hist_vec", histVec))

	counter.Inc()
	gauge.Set(42)
	histogram.Observe(1.5)
	counterVec.WithLabelValues("a").Inc()
	gaugeVec.WithLabelValues("a").Set(1)
	histVec.WithLabelValues("a").Observe(0.1)

	names := gathered(t, registry)
	for _, n := range []string{
		"test_counter", "test_gauge", "test_histogram",
		"test_counter_vec", "test_gauge_vec", "test_hist_vec",
	} {
		assert.True(t, names[n], "%s should be registered", n)
	}
	assert.Equal(t, 42.0, testutil.ToFloat64(gauge))
}

func TestMetricsRegistry_DuplicateRegistration(t *testing.T) {
	registry := NewMetricsRegistry()

	first := prometheus.NewCounter(prometheus.CounterOpts{Name: "dup_counter", Help: "same"})
	second := prometheus.NewCounter(prometheus.CounterOpts{Name: "dup_counter", Help: "same"})

	require.NoError(t, registry.RegisterCounter("service1", "dup_counter", first))

	// same key
	err := registry.RegisterCounter("service1", "dup_counter", second)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
	assert.Contains(t, err.Error(), "duplicate metric registration")

	// different key, same prometheus descriptor
	err = registry.RegisterCounter("service2", "dup_counter", second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "conflicts with an existing collector")
}

func TestMetricsRegistry_Unregister(t *testing.T) {
	registry := NewMetricsRegistry()

	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "unregister_counter", Help: "c"})
	require.NoError(t, registry.RegisterCounter("svc", "unregister_counter", counter))
	counter.Inc()
	assert.True(t, gathered(t, registry)["unregister_counter"])

	assert.True(t, registry.Unregister("svc", "unregister_counter"))
	assert.False(t, gathered(t, registry)["unregister_counter"])
	assert.False(t, registry.Unregister("svc", "unregister_counter"))

	// the key is free again
	require.NoError(t, registry.RegisterCounter("svc", "unregister_counter", counter))
}

func TestMetricsRegistry_ConcurrentRegistration(t *testing.T) {
	registry := NewMetricsRegistry()

	const n = 10
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			name := fmt.Sprintf("concurrent_counter_%d", id)
			c := prometheus.NewCounter(prometheus.CounterOpts{Name: name, Help: "c"})
			assert.NoError(t, registry.RegisterCounter("svc", name, c))
		}(i)
	}
	wg.Wait()

	count := 0
	for name := range gathered(t, registry) {
		if strings.HasPrefix(name, "concurrent_counter_") {
			count++
		}
	}
	assert.Equal(t, n, count)
}

func TestCoreMetrics_Record(t *testing.T) {
	registry := NewMetricsRegistry()
	m := registry.CoreMetrics()
	require.NotNil(t, m)

	m.RecordSample(SourceBuilt)
	m.RecordSample(SourceBuilt)
	m.RecordSample(SourceDurable)
	m.RecordDurableLookup(true)
	m.RecordDurableLookup(false)
	m.RecordDurableLookup(false)
	m.RecordBuildFailure("invalid")
	m.RecordCacheWriteError()
	m.RecordSkipped("filtered")
	m.RecordBatch(8, 3*time.Millisecond)
	m.RecordPass()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.SamplesMaterialized.WithLabelValues(SourceBuilt)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SamplesMaterialized.WithLabelValues(SourceDurable)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DurableLookups.WithLabelValues("hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.DurableLookups.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BuildFailures.WithLabelValues("invalid")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheWriteErrors))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SamplesSkipped.WithLabelValues("filtered")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BatchesBuilt))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LoaderPasses))

	names := gathered(t, registry)
	for _, n := range []string{
		"graphbatch_dataset_samples_materialized_total",
		"graphbatch_dataset_durable_lookups_total",
		"graphbatch_dataset_build_failures_total",
		"graphbatch_dataset_cache_write_errors_total",
		"graphbatch_loader_samples_skipped_total",
		"graphbatch_batch_built_total",
		"graphbatch_batch_graphs",
		"graphbatch_batch_build_duration_seconds",
		"graphbatch_loader_passes_total",
	} {
		assert.True(t, names[n], "core metric %s should be gathered", n)
	}
}

func TestCoreMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordSample(SourceMemory)
		m.RecordDurableLookup(true)
		m.RecordBuildFailure("fatal")
		m.RecordCacheWriteError()
		m.RecordSkipped("malformed")
		m.RecordBatch(1, time.Millisecond)
		m.RecordPass()
	})

	var r *MetricsRegistry
	assert.Nil(t, r.CoreMetrics())
}

func TestServer_StartStop(t *testing.T) {
	registry := NewMetricsRegistry()
	registry.CoreMetrics().RecordPass()

	srv := NewServer("127.0.0.1:0", "", registry)
	require.NoError(t, srv.Start())
	t.Cleanup(func() { _ = srv.Stop(time.Second) })

	err := srv.Start()
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrAlreadyStarted)

	resp, err := http.Get(srv.Address())
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "graphbatch_loader_passes_total")

	require.NoError(t, srv.Stop(time.Second))
	require.NoError(t, srv.Stop(time.Second))
}

func TestServer_NilRegistry(t *testing.T) {
	srv := NewServer("127.0.0.1:0", "/m", nil)
	err := srv.Start()
	require.Error(t, err)
	assert.True(t, errors.IsFatal(err))
}
