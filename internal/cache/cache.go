// Package cache provides a small size-bounded cache for normalization
// results keyed by free-form text. It is owned by whichever collaborator
// needs it and passed by reference; there is no package-level state.
package cache

import "sync"

// Cache is a bounded map. Once the cap is reached, new keys are dropped
// rather than evicted: normalization inputs repeat heavily within one
// ingestion run, so the first entries are the ones worth keeping.
type Cache[V any] struct {
	mu  sync.Mutex
	max int
	m   map[string]V
}

// New creates a cache holding at most max entries. A non-positive max
// disables caching entirely.
func New[V any](max int) *Cache[V] {
	return &Cache[V]{max: max, m: make(map[string]V)}
}

// Get returns the cached value for key, if present.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.m[key]
	return v, ok
}

// Put stores a value unless the cache is full and the key is new.
func (c *Cache[V]) Put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.m[key]; !exists && len(c.m) >= c.max {
		return
	}
	c.m[key] = value
}

// Len returns the number of cached entries.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.m)
}
