package cache

import (
	"github.com/c360/graphbatch/errors"
	"github.com/c360/graphbatch/metric"
)

// Option configures a cache.
type Option[K comparable, V any] func(*cacheOptions[K, V])

type cacheOptions[K comparable, V any] struct {
	metricsReg    metric.MetricsRegistrar
	metricsPrefix string
	evictCallback EvictCallback[K, V]
}

// WithMetrics exports cache statistics as Prometheus metrics labelled with
// component=prefix. A nil registry or empty prefix disables the option.
func WithMetrics[K comparable, V any](registry metric.MetricsRegistrar, prefix string) Option[K, V] {
	return func(opts *cacheOptions[K, V]) {
		if registry != nil && prefix != "" {
			opts.metricsReg = registry
			opts.metricsPrefix = prefix
		}
	}
}

// WithEvictionCallback sets a callback invoked for evicted, deleted and cleared entries.
func WithEvictionCallback[K comparable, V any](callback EvictCallback[K, V]) Option[K, V] {
	return func(opts *cacheOptions[K, V]) {
		opts.evictCallback = callback
	}
}

func applyOptions[K comparable, V any](options ...Option[K, V]) *cacheOptions[K, V] {
	opts := &cacheOptions[K, V]{}
	for _, opt := range options {
		if opt != nil {
			opt(opts)
		}
	}
	return opts
}

func (o *cacheOptions[K, V]) recorder(method string) (recorder, error) {
	r := recorder{stats: NewStatistics()}
	if o.metricsReg == nil {
		return r, nil
	}
	m, err := newCacheMetrics(o.metricsReg, o.metricsPrefix)
	if err != nil {
		return r, errors.WrapTransient(err, "cache", method, "metrics registration")
	}
	r.metrics = m
	return r, nil
}
