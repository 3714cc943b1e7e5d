package cache

import (
	"container/list"
	"sync"
)

type lruEntry[K comparable, V any] struct {
	key   K
	value V
}

// lruCache evicts the least recently used entry once maxSize is exceeded.
type lruCache[K comparable, V any] struct {
	mu      sync.Mutex
	maxSize int
	items   map[K]*list.Element
	order   *list.List // front is most recently used
	rec     recorder
	evictFn EvictCallback[K, V]
}

// Get returns the value for key and marks it most recently used.
func (c *lruCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	element, ok := c.items[key]
	if !ok {
		c.rec.miss()
		var zero V
		return zero, false
	}
	c.order.MoveToFront(element)
	c.rec.hit()
	return element.Value.(*lruEntry[K, V]).value, true
}

// Set stores value and evicts from the back while over capacity.
func (c *lruCache[K, V]) Set(key K, value V) bool {
	var evicted []lruEntry[K, V]

	c.mu.Lock()
	created := true
	if element, ok := c.items[key]; ok {
		element.Value.(*lruEntry[K, V]).value = value
		c.order.MoveToFront(element)
		created = false
	} else {
		c.items[key] = c.order.PushFront(&lruEntry[K, V]{key: key, value: value})
		for len(c.items) > c.maxSize {
			back := c.order.Back()
			entry := back.Value.(*lruEntry[K, V])
			c.removeLocked(back)
			c.rec.evicted()
			evicted = append(evicted, *entry)
		}
	}
	c.rec.set(len(c.items))
	c.mu.Unlock()

	c.notify(evicted)
	return created
}

// Delete removes key.
func (c *lruCache[K, V]) Delete(key K) bool {
	c.mu.Lock()
	element, ok := c.items[key]
	if !ok {
		c.mu.Unlock()
		return false
	}
	entry := *element.Value.(*lruEntry[K, V])
	c.removeLocked(element)
	c.rec.deleted(len(c.items))
	c.mu.Unlock()

	c.notify([]lruEntry[K, V]{entry})
	return true
}

// Clear removes every entry, oldest first.
func (c *lruCache[K, V]) Clear() {
	var removed []lruEntry[K, V]

	c.mu.Lock()
	if c.evictFn != nil {
		removed = make([]lruEntry[K, V], 0, len(c.items))
		for e := c.order.Back(); e != nil; e = e.Prev() {
			removed = append(removed, *e.Value.(*lruEntry[K, V]))
		}
	}
	c.items = make(map[K]*list.Element)
	c.order.Init()
	c.rec.size(0)
	c.mu.Unlock()

	c.notify(removed)
}

// Size returns the number of entries.
func (c *lruCache[K, V]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Keys returns keys from most to least recently used.
func (c *lruCache[K, V]) Keys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]K, 0, len(c.items))
	for e := c.order.Front(); e != nil; e = e.Next() {
		keys = append(keys, e.Value.(*lruEntry[K, V]).key)
	}
	return keys
}

// Stats returns cache statistics.
func (c *lruCache[K, V]) Stats() *Statistics { return c.rec.stats }

// Close is a no-op.
func (c *lruCache[K, V]) Close() error { return nil }

func (c *lruCache[K, V]) removeLocked(element *list.Element) {
	delete(c.items, element.Value.(*lruEntry[K, V]).key)
	c.order.Remove(element)
}

// notify runs the eviction callback outside the lock so callbacks may use the cache.
func (c *lruCache[K, V]) notify(entries []lruEntry[K, V]) {
	if c.evictFn == nil {
		return
	}
	for _, e := range entries {
		c.evictFn(e.key, e.value)
	}
}
