package trust

import (
	"sync"
	"time"

	"trustgraph/models"
)

type cacheEntry struct {
	result    *models.TrustScoreResult
	expiresAt time.Time
}

// CacheStats tracks cache effectiveness for monitoring.
type CacheStats struct {
	Hits      int64
	Misses    int64
	Evictions int64
}

// ScoreCache is a thread-safe TTL cache of trust score results keyed by
// (contentID, viewerID). A content-level index supports invalidating every
// viewer's entry when a new endorsement lands for that content, which keeps
// staleness an explicit, testable property.
type ScoreCache struct {
	mu        sync.RWMutex
	entries   map[string]cacheEntry
	byContent map[string]map[string]struct{} // contentID -> cache keys
	ttl       time.Duration
	stats     CacheStats
	stop      chan struct{}
}

func cacheKey(contentID, viewerID string) string {
	return contentID + "\x00" + viewerID
}

// NewScoreCache creates a cache with the given entry TTL and starts a
// background sweep that drops expired entries every TTL interval.
func NewScoreCache(ttl time.Duration) *ScoreCache {
	c := &ScoreCache{
		entries:   make(map[string]cacheEntry),
		byContent: make(map[string]map[string]struct{}),
		ttl:       ttl,
		stop:      make(chan struct{}),
	}
	go c.sweepLoop()
	return c
}

// Get returns a cached result if present and not expired.
func (c *ScoreCache) Get(contentID, viewerID string) (*models.TrustScoreResult, bool) {
	key := cacheKey(contentID, viewerID)

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || time.Now().After(entry.expiresAt) {
		c.mu.Lock()
		if ok {
			c.removeLocked(key, contentID)
			c.stats.Evictions++
		}
		c.stats.Misses++
		c.mu.Unlock()
		return nil, false
	}

	c.mu.Lock()
	c.stats.Hits++
	c.mu.Unlock()
	return entry.result, true
}

// Put stores a result under its (content, viewer) key.
func (c *ScoreCache) Put(result *models.TrustScoreResult) {
	key := cacheKey(result.ContentID, result.ViewerID)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{result: result, expiresAt: time.Now().Add(c.ttl)}
	keys, ok := c.byContent[result.ContentID]
	if !ok {
		keys = make(map[string]struct{})
		c.byContent[result.ContentID] = keys
	}
	keys[key] = struct{}{}
}

// InvalidateContent drops every viewer's cached score for a content item.
// Called when a new endorsement is recorded for that content.
func (c *ScoreCache) InvalidateContent(contentID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.byContent[contentID] {
		delete(c.entries, key)
		c.stats.Evictions++
	}
	delete(c.byContent, contentID)
}

// Stats returns a snapshot of hit/miss/eviction counters.
func (c *ScoreCache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}

// Close stops the background sweep.
func (c *ScoreCache) Close() {
	close(c.stop)
}

func (c *ScoreCache) removeLocked(key, contentID string) {
	delete(c.entries, key)
	if keys, ok := c.byContent[contentID]; ok {
		delete(keys, key)
		if len(keys) == 0 {
			delete(c.byContent, contentID)
		}
	}
}

func (c *ScoreCache) sweepLoop() {
	ticker := time.NewTicker(c.ttl)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			now := time.Now()
			c.mu.Lock()
			for key, entry := range c.entries {
				if now.After(entry.expiresAt) {
					c.removeLocked(key, entry.result.ContentID)
					c.stats.Evictions++
				}
			}
			c.mu.Unlock()
		case <-c.stop:
			return
		}
	}
}
