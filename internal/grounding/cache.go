package grounding

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/mj1618/desktop-pilot/internal/model"
)

// cacheEntry holds a grounding result with the time it was stored.
type cacheEntry struct {
	result    model.GroundingResult
	timestamp time.Time
}

// Cache is a size-bounded TTL cache of grounding results keyed by the
// screenshot's content hash. Identical screenshots skip the model call.
type Cache struct {
	mu      sync.Mutex
	entries *lru.Cache[string, cacheEntry]
	ttl     time.Duration
	now     func() time.Time
}

// NewCache creates a cache holding up to size results for ttl.
// A ttl of 0 or a non-positive size disables caching and returns nil;
// all methods are safe on a nil *Cache.
func NewCache(size int, ttl time.Duration) *Cache {
	if ttl <= 0 || size <= 0 {
		return nil
	}
	entries, err := lru.New[string, cacheEntry](size)
	if err != nil {
		// lru.New only fails on a non-positive size, excluded above.
		return nil
	}
	return &Cache{entries: entries, ttl: ttl, now: time.Now}
}

// Key returns the cache key for a PNG.
func Key(png []byte) string {
	sum := sha256.Sum256(png)
	return hex.EncodeToString(sum[:])
}

// Get returns the cached result for key if it is within the TTL.
func (c *Cache) Get(key string) (model.GroundingResult, bool) {
	if c == nil {
		return model.GroundingResult{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries.Get(key)
	if !ok {
		return model.GroundingResult{}, false
	}
	if c.now().Sub(entry.timestamp) >= c.ttl {
		c.entries.Remove(key)
		return model.GroundingResult{}, false
	}
	return entry.result, true
}

// Put stores a result. Empty results are never cached.
func (c *Cache) Put(key string, result model.GroundingResult) {
	if c == nil || result.Empty() {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries.Add(key, cacheEntry{result: result, timestamp: c.now()})
}

// Purge clears the cache.
func (c *Cache) Purge() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries.Purge()
}

// Len returns the number of cached results, including expired ones not
// yet evicted.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	return c.entries.Len()
}
