// Package cache provides the process-lifetime TTL cache sitting in
// front of the durable store. One instance is constructed at startup
// and injected; tests build their own so no state leaks between cases.
package cache

import (
	"encoding/json"
	"sync"
	"time"
)

// Key identifies one of the three cached aggregate roots.
type Key string

const (
	KeySettings   Key = "settings"
	KeyCategories Key = "categories"
	KeyLinks      Key = "links"
)

// DefaultTTL applies to entries stored without an explicit TTL.
const DefaultTTL = 5 * time.Minute

type entry struct {
	data       any
	insertedAt time.Time
	ttl        time.Duration // 0 means the cache default
}

// Cache is a keyed TTL store. Expired entries are evicted lazily on
// read and eagerly by Cleanup.
type Cache struct {
	mu         sync.RWMutex
	entries    map[Key]entry
	defaultTTL time.Duration
	now        func() time.Time
}

// New creates a cache; ttl <= 0 selects DefaultTTL.
func New(ttl time.Duration) *Cache {
	return NewWithNow(ttl, time.Now)
}

// NewWithNow creates a cache with an injected time source for tests.
func NewWithNow(ttl time.Duration, now func() time.Time) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		entries:    make(map[Key]entry),
		defaultTTL: ttl,
		now:        now,
	}
}

// Get returns the cached value for key, or (nil, false) when absent or
// expired. An expired entry is removed on the spot.
func (c *Cache) Get(key Key) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, found := c.entries[key]
	if !found {
		return nil, false
	}

	ttl := e.ttl
	if ttl == 0 {
		ttl = c.defaultTTL
	}
	if c.now().Sub(e.insertedAt) > ttl {
		delete(c.entries, key)
		return nil, false
	}
	return e.data, true
}

// Set stores data under key with the cache default TTL, overwriting
// any previous entry.
func (c *Cache) Set(key Key, data any) {
	c.SetWithTTL(key, data, 0)
}

// SetWithTTL stores data with an explicit TTL; ttl 0 means the default.
func (c *Cache) SetWithTTL(key Key, data any, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry{data: data, insertedAt: c.now(), ttl: ttl}
}

// Invalidate removes one entry; removing an absent key is a no-op.
func (c *Cache) Invalidate(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
}

// InvalidateAll clears every entry.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[Key]entry)
}

// Cleanup eagerly evicts every expired entry and returns how many were
// removed. The periodic sweeper calls this.
func (c *Cache) Cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, e := range c.entries {
		ttl := e.ttl
		if ttl == 0 {
			ttl = c.defaultTTL
		}
		if now.Sub(e.insertedAt) > ttl {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Stats describes the current cache contents.
type Stats struct {
	TotalEntries int      `json:"totalEntries"`
	Keys         []string `json:"keys"`
	MemoryBytes  int      `json:"memoryBytes"` // estimated from serialized sizes
}

// Stats reports entry count, key list and an estimated byte footprint.
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := Stats{Keys: make([]string, 0, len(c.entries))}
	for key, e := range c.entries {
		stats.TotalEntries++
		stats.Keys = append(stats.Keys, string(key))
		stats.MemoryBytes += len(key)
		if data, err := json.Marshal(e.data); err == nil {
			stats.MemoryBytes += len(data)
		}
	}
	return stats
}
