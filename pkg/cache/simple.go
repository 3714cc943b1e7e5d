package cache

import "sync"

// simpleCache keeps every entry until it is deleted or cleared.
type simpleCache[K comparable, V any] struct {
	mu      sync.RWMutex
	items   map[K]V
	rec     recorder
	evictFn EvictCallback[K, V]
}

func (c *simpleCache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	value, ok := c.items[key]
	c.mu.RUnlock()

	if ok {
		c.rec.hit()
	} else {
		c.rec.miss()
	}
	return value, ok
}

func (c *simpleCache[K, V]) Set(key K, value V) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, exists := c.items[key]
	c.items[key] = value
	c.rec.set(len(c.items))
	return !exists
}

func (c *simpleCache[K, V]) Delete(key K) bool {
	c.mu.Lock()
	value, ok := c.items[key]
	if ok {
		delete(c.items, key)
		c.rec.deleted(len(c.items))
	}
	c.mu.Unlock()

	if ok && c.evictFn != nil {
		c.evictFn(key, value)
	}
	return ok
}

func (c *simpleCache[K, V]) Clear() {
	c.mu.Lock()
	old := c.items
	c.items = make(map[K]V)
	c.rec.size(0)
	c.mu.Unlock()

	if c.evictFn != nil {
		for k, v := range old {
			c.evictFn(k, v)
		}
	}
}

func (c *simpleCache[K, V]) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *simpleCache[K, V]) Keys() []K {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]K, 0, len(c.items))
	for k := range c.items {
		keys = append(keys, k)
	}
	return keys
}

func (c *simpleCache[K, V]) Stats() *Statistics { return c.rec.stats }

func (c *simpleCache[K, V]) Close() error { return nil }
