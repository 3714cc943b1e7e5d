package cache

// Cache is a key/value cache parameterized by key and value type.
type Cache[K comparable, V any] interface {
	// Get returns the value for key and whether it was present.
	Get(key K) (V, bool)

	// Set stores value under key. It reports whether a new entry was created.
	Set(key K, value V) bool

	// Delete removes key. It reports whether the key existed.
	Delete(key K) bool

	// Clear removes all entries, invoking the eviction callback for each.
	Clear()

	// Size returns the current number of entries.
	Size() int

	// Keys returns all keys currently cached.
	Keys() []K

	// Stats returns the cache statistics, or nil for a disabled cache.
	Stats() *Statistics

	// Close releases resources held by the cache.
	Close() error
}

// EvictCallback is called with an entry after it leaves the cache.
type EvictCallback[K comparable, V any] func(key K, value V)

// recorder fans an operation out to the always-on statistics and the
// optional Prometheus metrics.
type recorder struct {
	stats   *Statistics
	metrics *cacheMetrics
}

func (r recorder) hit() {
	r.stats.Hit()
	if r.metrics != nil {
		r.metrics.hits.Inc()
	}
}

func (r recorder) miss() {
	r.stats.Miss()
	if r.metrics != nil {
		r.metrics.misses.Inc()
	}
}

func (r recorder) set(size int) {
	r.stats.Set()
	r.size(size)
	if r.metrics != nil {
		r.metrics.sets.Inc()
	}
}

func (r recorder) deleted(size int) {
	r.stats.Delete()
	r.size(size)
	if r.metrics != nil {
		r.metrics.deletes.Inc()
	}
}

func (r recorder) evicted() {
	r.stats.Eviction()
	if r.metrics != nil {
		r.metrics.evictions.Inc()
	}
}

func (r recorder) size(size int) {
	r.stats.UpdateSize(int64(size))
	if r.metrics != nil {
		r.metrics.size.Set(float64(size))
	}
}
