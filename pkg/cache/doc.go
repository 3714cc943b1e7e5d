// Package cache provides generic, thread-safe in-memory caches with
// always-on statistics and optional Prometheus metrics.
//
// The dataset keeps recently materialized graphs here, in front of the
// durable store, keyed by sample index:
//
//	mem, err := cache.NewFromConfig[int, *graph.Graph](cfg.MemoryCache,
//	    cache.WithMetrics[int, *graph.Graph](registry, "dataset"))
//	if err != nil {
//	    return err
//	}
//	if g, ok := mem.Get(i); ok {
//	    return g, nil
//	}
//
// # Strategies
//
//   - StrategyLRU bounds the cache to MaxSize entries and evicts the least
//     recently used one on overflow.
//   - StrategySimple never evicts; suitable when the whole dataset fits in memory.
//   - A disabled Config yields NewNoop, which always misses.
//
// # Observability
//
// Every cache records hits, misses, sets, deletes, evictions and size in a
// Statistics value (Stats().Summary()). WithMetrics also exports them as
// graphbatch_cache_* metrics with a component label.
//
// Eviction callbacks run outside the cache lock, so a callback may call back
// into the cache.
package cache
