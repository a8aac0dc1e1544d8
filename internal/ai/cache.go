package ai

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultCacheTTL is how long a completion stays valid.
const DefaultCacheTTL = 24 * time.Hour

// CacheStats counts cached completions by validity. Hits and Misses count
// lookups since the cache was created and survive Clear.
type CacheStats struct {
	TotalEntries   int   `json:"total_entries"`
	ValidEntries   int   `json:"valid_entries"`
	ExpiredEntries int   `json:"expired_entries"`
	Hits           int64 `json:"hits"`
	Misses         int64 `json:"misses"`
}

type cacheEntry struct {
	result  CompletionResult
	expires time.Time
}

// ResponseCache memoizes completion results in memory. Expired entries are
// treated as misses and stay in place until Clear.
type ResponseCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]cacheEntry
	hits    atomic.Int64
	misses  atomic.Int64
}

// NewResponseCache creates a cache. A non-positive ttl means DefaultCacheTTL and a nil
// clock means time.Now.
func NewResponseCache(ttl time.Duration, now func() time.Time) *ResponseCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if now == nil {
		now = time.Now
	}
	return &ResponseCache{ttl: ttl, now: now, entries: make(map[string]cacheEntry)}
}

// TTL returns the configured time-to-live.
func (c *ResponseCache) TTL() time.Duration { return c.ttl }

// Get returns the stored result when the key is present and now is strictly before its expiry.
func (c *ResponseCache) Get(key string) (CompletionResult, bool) {
	c.mu.Lock()
	e, ok := c.entries[key]
	c.mu.Unlock()
	if !ok || !c.now().Before(e.expires) {
		c.misses.Add(1)
		return CompletionResult{}, false
	}
	c.hits.Add(1)
	return e.result, true
}

// Put stores a result that expires one TTL from now. Concurrent writers of one key: last write wins.
func (c *ResponseCache) Put(key string, result CompletionResult) {
	expires := c.now().Add(c.ttl)
	c.mu.Lock()
	c.entries[key] = cacheEntry{result: result, expires: expires}
	c.mu.Unlock()
}

// Clear drops every entry.
func (c *ResponseCache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry)
	c.mu.Unlock()
}

// Stats counts valid and expired entries without removing any.
func (c *ResponseCache) Stats() CacheStats {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	st := CacheStats{
		TotalEntries: len(c.entries),
		Hits:         c.hits.Load(),
		Misses:       c.misses.Load(),
	}
	for _, e := range c.entries {
		if now.Before(e.expires) {
			st.ValidEntries++
		}
	}
	st.ExpiredEntries = st.TotalEntries - st.ValidEntries
	return st
}

// CacheKey hashes the model, the ordered messages and every call parameter.
// Parameter maps are encoded with sorted keys, so equal calls share a key.
func CacheKey(model string, messages []Message, params map[string]any) (string, error) {
	data, err := json.Marshal(struct {
		Model    string         `json:"model"`
		Messages []Message      `json:"messages"`
		Params   map[string]any `json:"params"`
	}{model, messages, params})
	if err != nil {
		return "", fmt.Errorf("encode cache key: %w", err)
	}
	return fmt.Sprintf("%x", sha256.Sum256(data)), nil
}
