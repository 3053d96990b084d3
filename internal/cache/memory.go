package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache holds completion responses in memory. It covers the common
// case of repeated identical rows inside one survey run; nothing survives
// the process.
type MemoryCache struct {
	store *gocache.Cache
}

// NewMemoryCache creates an in-memory cache with the given default TTL and
// cleanup interval.
func NewMemoryCache(defaultTTL, cleanupInterval time.Duration) *MemoryCache {
	return &MemoryCache{store: gocache.New(defaultTTL, cleanupInterval)}
}

// Get retrieves a cached response body
func (c *MemoryCache) Get(key string) ([]byte, bool) {
	if v, found := c.store.Get(key); found {
		return v.([]byte), true
	}
	return nil, false
}

// Set stores a response body. A zero ttl uses the cache default.
func (c *MemoryCache) Set(key string, value []byte, ttl time.Duration) error {
	c.store.Set(key, value, ttl)
	return nil
}

// Delete removes one entry
func (c *MemoryCache) Delete(key string) error {
	c.store.Delete(key)
	return nil
}

// Clear drops all entries
func (c *MemoryCache) Clear() error {
	c.store.Flush()
	return nil
}
