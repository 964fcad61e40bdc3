package enrich

import (
	"sync"
	"time"
)

// TTLCache is a small keyed cache with per-entry expiry. It replaces the
// module-level map the standings client would otherwise mutate, so tests
// can construct and discard instances freely.
type TTLCache struct {
	ttl     time.Duration
	mu      sync.Mutex
	entries map[string]ttlEntry
	now     func() time.Time
}

type ttlEntry struct {
	value   string
	expires time.Time
}

// NewTTLCache builds a cache whose entries live for ttl.
func NewTTLCache(ttl time.Duration) *TTLCache {
	return &TTLCache{
		ttl:     ttl,
		entries: make(map[string]ttlEntry),
		now:     time.Now,
	}
}

// Get returns the cached value for key if it has not expired.
func (c *TTLCache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return "", false
	}
	if c.now().After(entry.expires) {
		delete(c.entries, key)
		return "", false
	}
	return entry.value, true
}

// Set stores value under key for the cache TTL.
func (c *TTLCache) Set(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = ttlEntry{value: value, expires: c.now().Add(c.ttl)}
}
