package cache

import (
	"context"
	"sync"
	"time"

	"memecoin-lab/internal/observability"
)

// MemoryCache is an in-process Cache with lazy expiry.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	clock   func() time.Time
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// NewMemoryCache creates an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		clock:   time.Now,
	}
}

// WithClock sets a custom clock for deterministic tests.
func (c *MemoryCache) WithClock(clock func() time.Time) *MemoryCache {
	c.clock = clock
	return c
}

// Get returns the cached value for key, or false when absent or expired.
// Expired entries are removed on access.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		observability.RecordCacheMiss("memory")
		return nil, false
	}

	if c.clock().After(e.expiresAt) {
		c.mu.Lock()
		// Re-check under write lock: a concurrent Set may have refreshed it
		if cur, still := c.entries[key]; still && c.clock().After(cur.expiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		observability.RecordCacheMiss("memory")
		return nil, false
	}

	observability.RecordCacheHit("memory")
	// Return a copy to prevent external mutation
	value := make([]byte, len(e.value))
	copy(value, e.value)
	return value, true
}

// Set stores value under key for ttl. Non-positive TTLs are ignored.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	stored := make([]byte, len(value))
	copy(stored, value)

	c.mu.Lock()
	c.entries[key] = memoryEntry{
		value:     stored,
		expiresAt: c.clock().Add(ttl),
	}
	c.mu.Unlock()

	observability.RecordCacheSet("memory")
}

// Len returns the number of entries, including not-yet-evicted expired ones.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
