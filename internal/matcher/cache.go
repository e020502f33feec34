package matcher

import (
	"strings"
	"sync"
	"time"
)

// ttlCache memoizes catalog search results keyed by the exact query string
// (case-insensitive, trimmed). Entries expire after the configured TTL and
// are evicted lazily on Get. No size bound: session-scale query volumes are
// hundreds of entries, not millions.
type ttlCache[T any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]cacheEntry[T]
}

type cacheEntry[T any] struct {
	value    T
	storedAt time.Time
}

func newTTLCache[T any](ttl time.Duration) *ttlCache[T] {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &ttlCache[T]{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cacheEntry[T]),
	}
}

func cacheKey(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

// Get returns the cached value for query, evicting it first when expired.
func (c *ttlCache[T]) Get(query string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	key := cacheKey(query)

	entry, ok := c.entries[key]
	if !ok {
		return zero, false
	}

	if c.now().Sub(entry.storedAt) >= c.ttl {
		delete(c.entries, key)
		return zero, false
	}

	return entry.value, true
}

// Set stores the value for query with the current timestamp.
func (c *ttlCache[T]) Set(query string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[cacheKey(query)] = cacheEntry[T]{value: value, storedAt: c.now()}
}

// Len returns the number of stored entries, including expired ones not yet
// evicted.
func (c *ttlCache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
