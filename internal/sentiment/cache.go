package sentiment

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/Veraticus/lumos/internal/model"
)

// cacheEntry represents a cached sentiment result.
type cacheEntry struct {
	expiry time.Time
	result model.SentimentResult
}

// resultCache provides thread-safe caching of sentiment results keyed by a
// digest of the analyzed text. Expired entries are dropped lazily on read and
// swept whenever the cache grows past its soft limit.
type resultCache struct {
	entries  map[string]cacheEntry
	now      func() time.Time
	ttl      time.Duration
	maxItems int
	mu       sync.RWMutex
}

// newResultCache creates a new cache with the specified TTL. A negative TTL
// disables caching.
func newResultCache(ttl time.Duration) *resultCache {
	if ttl == 0 {
		ttl = 15 * time.Minute // Default TTL
	}

	return &resultCache{
		entries:  make(map[string]cacheEntry),
		ttl:      ttl,
		maxItems: 10000,
		now:      time.Now,
	}
}

// cacheKey hashes text so raw conversation content is not kept as map keys.
func cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// get retrieves a result from the cache if it exists and hasn't expired.
func (c *resultCache) get(key string) (model.SentimentResult, bool) {
	if c.ttl < 0 {
		return model.SentimentResult{}, false
	}

	c.mu.RLock()
	entry, exists := c.entries[key]
	c.mu.RUnlock()

	if !exists {
		return model.SentimentResult{}, false
	}

	if c.now().After(entry.expiry) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return model.SentimentResult{}, false
	}

	return entry.result, true
}

// set stores a result in the cache.
func (c *resultCache) set(key string, result model.SentimentResult) {
	if c.ttl < 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= c.maxItems {
		c.sweepLocked()
	}

	c.entries[key] = cacheEntry{
		result: result,
		expiry: c.now().Add(c.ttl),
	}
}

// sweepLocked removes expired entries, or everything if none had expired.
func (c *resultCache) sweepLocked() {
	now := c.now()
	before := len(c.entries)
	for key, entry := range c.entries {
		if now.After(entry.expiry) {
			delete(c.entries, key)
		}
	}
	if len(c.entries) == before {
		c.entries = make(map[string]cacheEntry)
	}
}

// size returns the number of entries in the cache.
func (c *resultCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
