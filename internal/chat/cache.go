package chat

import (
	"sync"
	"time"

	"github.com/callsight/insights/internal/types"
)

const cacheMaxEntries = 128

type cacheKey struct {
	query       string
	kind        types.QueryKind
	recordCount int
}

type cacheEntry struct {
	response types.ChatResponse
	expires  time.Time
}

// responseCache is a small TTL cache for chat responses, keyed by query
// text, kind, and record count so a changed data set invalidates
// naturally. A TTL of zero disables it.
type responseCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[cacheKey]cacheEntry
}

func newResponseCache(ttl time.Duration) *responseCache {
	return &responseCache{
		ttl:     ttl,
		entries: make(map[cacheKey]cacheEntry),
	}
}

func (c *responseCache) get(key cacheKey) (types.ChatResponse, bool) {
	if c.ttl <= 0 {
		return types.ChatResponse{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return types.ChatResponse{}, false
	}
	if time.Now().After(entry.expires) {
		delete(c.entries, key)
		return types.ChatResponse{}, false
	}
	return entry.response, true
}

func (c *responseCache) put(key cacheKey, response types.ChatResponse) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= cacheMaxEntries {
		c.evictLocked()
	}
	c.entries[key] = cacheEntry{response: response, expires: time.Now().Add(c.ttl)}
}

// evictLocked drops expired entries, then arbitrary ones if the cache
// is still full.
func (c *responseCache) evictLocked() {
	now := time.Now()
	for k, e := range c.entries {
		if now.After(e.expires) {
			delete(c.entries, k)
		}
	}
	for k := range c.entries {
		if len(c.entries) < cacheMaxEntries {
			break
		}
		delete(c.entries, k)
	}
}
