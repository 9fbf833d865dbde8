package fuse

import "sync"

// Cache is an optional, caller-supplied metadata cache keyed by storage
// location. It must tolerate concurrent reads from in-flight segment loads.
// This layer only stores and retrieves; eviction and invalidation belong to
// the owner. A hit is trusted to be the value previously stored verbatim —
// locations are never reused, so entries cannot go stale.
type Cache interface {
	Get(location string) (any, bool)
	Put(location string, entry any)
}

// MemoryCache is an unbounded in-process Cache.
type MemoryCache struct {
	mu sync.RWMutex
	m  map[string]any
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{m: make(map[string]any)}
}

func (c *MemoryCache) Get(location string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.m[location]
	return v, ok
}

func (c *MemoryCache) Put(location string, entry any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[location] = entry
}
