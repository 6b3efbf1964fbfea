package cache

import (
	"sync"
	"time"
)

// DefaultTTL is how long a cached provider response stays valid.
const DefaultTTL = 24 * time.Hour

// Clock supplies the current time. Injected so tests can control expiry
// instead of relying on wall-clock sleeps.
type Clock func() time.Time

// entry pairs a provider response with its write time. Entries are immutable
// once written; staleness is judged purely by timestamp comparison at read
// time.
type entry struct {
	timestamp time.Time
	response  string
}

// ResponseCache memoizes provider responses keyed by the deterministic
// request identity. Process-wide, safe for concurrent use. Expiry is lazy:
// there is no eviction goroutine, stale entries are dropped when read and
// overwritten when re-written.
type ResponseCache struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
	now     Clock
}

// NewResponseCache creates a cache with the given TTL and clock.
// A non-positive ttl falls back to DefaultTTL; a nil clock uses time.Now.
func NewResponseCache(ttl time.Duration, now Clock) *ResponseCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if now == nil {
		now = time.Now
	}
	return &ResponseCache{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     now,
	}
}

// Get returns the cached response for key, or miss if absent or stale.
func (c *ResponseCache) Get(key string) (string, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return "", false
	}

	if c.now().Sub(e.timestamp) > c.ttl {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return "", false
	}

	return e.response, true
}

// Put stores a response under key, overwriting any previous entry.
func (c *ResponseCache) Put(key string, response string) {
	c.mu.Lock()
	c.entries[key] = entry{
		timestamp: c.now(),
		response:  response,
	}
	c.mu.Unlock()
}

// Len returns the number of entries currently held, stale ones included.
func (c *ResponseCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
