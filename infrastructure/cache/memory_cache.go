// Package cache provides the in-process TTL cache behind the query bus and the vocabulary store
package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"kgexplorer/application/ports"
	"kgexplorer/application/queries/bus"
)

var (
	_ ports.Cache = (*InMemoryCache)(nil)
	_ bus.Cache   = (*InMemoryCache)(nil)
)

// InMemoryCache is a TTL cache. When maxEntries is reached, expired entries are purged
// and then the entry closest to expiry is evicted.
type InMemoryCache struct {
	mu         sync.RWMutex
	items      map[string]cacheItem
	maxEntries int
	now        func() time.Time

	hits   int64
	misses int64

	stop chan struct{}
	once sync.Once
}

type cacheItem struct {
	value     interface{}
	expiresAt time.Time
}

// Stats reports cache effectiveness
type Stats struct {
	Entries int   `json:"entries"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
}

// NewInMemoryCache creates a cache that purges expired items every cleanupInterval.
// maxEntries <= 0 means unbounded; cleanupInterval <= 0 disables the background purge.
func NewInMemoryCache(maxEntries int, cleanupInterval time.Duration) *InMemoryCache {
	cache := &InMemoryCache{
		items:      make(map[string]cacheItem),
		maxEntries: maxEntries,
		now:        time.Now,
		stop:       make(chan struct{}),
	}

	if cleanupInterval > 0 {
		go cache.cleanupExpired(cleanupInterval)
	}

	return cache
}

// Get retrieves a value from cache
func (c *InMemoryCache) Get(ctx context.Context, key string) (interface{}, bool) {
	c.mu.RLock()
	item, exists := c.items[key]
	c.mu.RUnlock()

	if !exists || c.now().After(item.expiresAt) {
		atomic.AddInt64(&c.misses, 1)
		return nil, false
	}

	atomic.AddInt64(&c.hits, 1)
	return item.value, true
}

// Set stores a value in cache with TTL in seconds
func (c *InMemoryCache) Set(ctx context.Context, key string, value interface{}, ttl int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[key]; !exists && c.maxEntries > 0 && len(c.items) >= c.maxEntries {
		c.makeRoomLocked()
	}

	c.items[key] = cacheItem{
		value:     value,
		expiresAt: c.now().Add(time.Duration(ttl) * time.Second),
	}

	return nil
}

// Delete removes a value from cache
func (c *InMemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
	return nil
}

// Clear removes all values from cache
func (c *InMemoryCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]cacheItem)
	return nil
}

// Stats returns entry count and hit/miss counters
func (c *InMemoryCache) Stats() Stats {
	c.mu.RLock()
	entries := len(c.items)
	c.mu.RUnlock()

	return Stats{
		Entries: entries,
		Hits:    atomic.LoadInt64(&c.hits),
		Misses:  atomic.LoadInt64(&c.misses),
	}
}

// Close stops the background purge
func (c *InMemoryCache) Close() {
	c.once.Do(func() { close(c.stop) })
}

func (c *InMemoryCache) makeRoomLocked() {
	now := c.now()
	c.purgeLocked(now)
	if len(c.items) < c.maxEntries {
		return
	}

	var victim string
	var earliest time.Time
	for key, item := range c.items {
		if victim == "" || item.expiresAt.Before(earliest) {
			victim, earliest = key, item.expiresAt
		}
	}
	delete(c.items, victim)
}

func (c *InMemoryCache) purgeLocked(now time.Time) {
	for key, item := range c.items {
		if now.After(item.expiresAt) {
			delete(c.items, key)
		}
	}
}

// cleanupExpired periodically removes expired items
func (c *InMemoryCache) cleanupExpired(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.mu.Lock()
			c.purgeLocked(c.now())
			c.mu.Unlock()
		}
	}
}
