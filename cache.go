package datasetkit

import (
	"sync"
	"time"

	"github.com/gobeaver/datasetkit/datasetvalidator"
)

// ============================================================================
// Cache Interface
// ============================================================================

// Cache stores verdicts keyed by document fingerprint and engine options.
//
// Implementations should be thread-safe.
type Cache interface {
	// Get retrieves a verdict from the cache.
	Get(key string) (datasetvalidator.Verdict, bool)

	// Set stores a verdict with the given TTL.
	// A TTL of 0 means no expiration.
	Set(key string, verdict datasetvalidator.Verdict, ttl time.Duration)

	// Delete removes a verdict from the cache.
	Delete(key string)

	// Clear removes all verdicts from the cache.
	Clear()
}

// CacheStats provides statistics about cache usage.
// Implementations may optionally support this interface.
type CacheStats interface {
	Stats() CacheStatistics
}

// CacheStatistics contains cache performance metrics.
type CacheStatistics struct {
	Hits    int64
	Misses  int64
	Size    int64
	HitRate float64
}

// cacheKey combines a fingerprint with the engine options that shaped the verdict
func cacheKey(fingerprint string, opts datasetvalidator.Options) string {
	return "datasetkit:" + opts.Key() + ":" + fingerprint
}

// ============================================================================
// In-Memory Cache Implementation
// ============================================================================

type cacheEntry struct {
	verdict    datasetvalidator.Verdict
	expiration time.Time
	hasExpiry  bool
}

// MemoryCache is a simple in-memory cache implementation.
// It is thread-safe and supports TTL-based expiration.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry
	hits    int64
	misses  int64
	now     func() time.Time
}

// NewMemoryCache creates a new in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]*cacheEntry),
		now:     time.Now,
	}
}

// Get retrieves a verdict from the cache. Stored verdicts are copied on the
// way in and out, so callers can never alias cached issues.
func (c *MemoryCache) Get(key string) (datasetvalidator.Verdict, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.entries[key]
	if !exists {
		c.misses++
		return datasetvalidator.Verdict{}, false
	}

	if entry.hasExpiry && c.now().After(entry.expiration) {
		delete(c.entries, key)
		c.misses++
		return datasetvalidator.Verdict{}, false
	}

	c.hits++
	return entry.verdict.Clone(), true
}

// Set stores a verdict in the cache.
func (c *MemoryCache) Set(key string, verdict datasetvalidator.Verdict, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := &cacheEntry{verdict: verdict.Clone()}
	if ttl > 0 {
		entry.expiration = c.now().Add(ttl)
		entry.hasExpiry = true
	}
	c.entries[key] = entry
}

// Delete removes a verdict from the cache.
func (c *MemoryCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Clear removes all verdicts from the cache.
func (c *MemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*cacheEntry)
}

// Stats returns cache statistics.
func (c *MemoryCache) Stats() CacheStatistics {
	c.mu.RLock()
	defer c.mu.RUnlock()

	total := c.hits + c.misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(c.hits) / float64(total)
	}

	return CacheStatistics{
		Hits:    c.hits,
		Misses:  c.misses,
		Size:    int64(len(c.entries)),
		HitRate: hitRate,
	}
}

// Cleanup removes expired entries from the cache.
// Call this periodically to prevent memory leaks from expired entries.
func (c *MemoryCache) Cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, entry := range c.entries {
		if entry.hasExpiry && now.After(entry.expiration) {
			delete(c.entries, key)
		}
	}
}

// Ensure MemoryCache implements Cache and CacheStats
var (
	_ Cache      = (*MemoryCache)(nil)
	_ CacheStats = (*MemoryCache)(nil)
)
