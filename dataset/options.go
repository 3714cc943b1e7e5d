package dataset

import (
	"log/slog"

	"github.com/c360/graphbatch/metric"
	"github.com/c360/graphbatch/storage"
)

// Option configures a Dataset.
type Option func(*options)

type options struct {
	preFilter         FilterFunc
	preTransform      TransformFunc
	transform         TransformFunc
	logger            *slog.Logger
	metrics           *metric.Metrics
	registry          metric.MetricsRegistrar
	onCacheWriteError func(index int, err error)
	store             storage.Store
	splits            *SplitIndex
}

// WithPreFilter drops graphs the filter rejects before they are persisted.
// Rejections are remembered durably and reported as errors.ErrFiltered.
func WithPreFilter(f FilterFunc) Option {
	return func(o *options) { o.preFilter = f }
}

// WithPreTransform applies a deterministic transform before persisting.
func WithPreTransform(t TransformFunc) Option {
	return func(o *options) { o.preTransform = t }
}

// WithTransform applies t on every Get after the cache lookup. Its result
// is never persisted.
func WithTransform(t TransformFunc) Option {
	return func(o *options) { o.transform = t }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics records sample, lookup and failure metrics. The registry
// also receives the memory cache metrics.
func WithMetrics(registry *metric.MetricsRegistry) Option {
	return func(o *options) {
		if registry != nil {
			o.metrics = registry.CoreMetrics()
			o.registry = registry
		}
	}
}

// OnCacheWriteError is called when persisting a sample fails. Get still
// returns the graph.
func OnCacheWriteError(fn func(index int, err error)) Option {
	return func(o *options) { o.onCacheWriteError = fn }
}

// WithStore uses s instead of the store described by Config.Store. The
// caller keeps ownership; Close does not close it.
func WithStore(s storage.Store) Option {
	return func(o *options) { o.store = s }
}

// WithSplitIndex overrides Config.SplitFile.
func WithSplitIndex(s *SplitIndex) Option {
	return func(o *options) { o.splits = s }
}
