package query

import (
	"context"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/zjrosen/jqlboard/internal/cachemanager"
	"github.com/zjrosen/jqlboard/internal/jira"
	"github.com/zjrosen/jqlboard/internal/log"
)

// DefaultCacheTTL is how long a fetched result stays valid.
const DefaultCacheTTL = 5 * time.Minute

// CacheKey identifies a cached result. Changing a definition's JQL or limit
// changes its key, so stale results are never served for edited queries.
type CacheKey struct {
	QueryID    string
	JQLHash    uint64
	MaxResults int
}

// NewCacheKey derives the key for def.
func NewCacheKey(def Definition) CacheKey {
	return CacheKey{QueryID: def.ID, JQLHash: HashJQL(def.JQL), MaxResults: def.MaxResults}
}

// String renders the key as "id_hash_limit".
func (k CacheKey) String() string {
	return fmt.Sprintf("%s_%x_%d", k.QueryID, k.JQLHash, k.MaxResults)
}

// HashJQL returns the 64-bit FNV-1a hash of jql.
func HashJQL(jql string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(jql))
	return h.Sum64()
}

// CacheEntry is one cached search result.
type CacheEntry struct {
	Issues     []jira.Issue
	Total      int
	StartAt    int
	MaxResults int
	FetchedAt  time.Time
}

// CacheInfo summarises the cache contents.
type CacheInfo struct {
	EntryCount        int
	TotalCachedIssues int
	TTLMinutes        float64
}

// Cache maps CacheKeys to results with lazy, clock-driven expiry: an entry
// older than the TTL reads as absent but is not removed until it is
// overwritten or the cache is cleared.
type Cache struct {
	store cachemanager.CacheManager[string, CacheEntry]
	ttl   time.Duration
	clock Clock
}

// NewCache wraps store. A non-positive ttl selects DefaultCacheTTL; a nil
// clock selects RealClock.
func NewCache(store cachemanager.CacheManager[string, CacheEntry], ttl time.Duration, clock Clock) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if clock == nil {
		clock = RealClock{}
	}
	return &Cache{store: store, ttl: ttl, clock: clock}
}

// NewMemoryCache returns a Cache backed by an in-process go-cache with its
// janitor disabled.
func NewMemoryCache(ttl time.Duration, clock Clock) *Cache {
	store := cachemanager.NewInMemoryCacheManager[string, CacheEntry]("query-results", cachemanager.NoExpiration, 0)
	return NewCache(store, ttl, clock)
}

// TTL returns the configured time to live.
func (c *Cache) TTL() time.Duration { return c.ttl }

// Get returns the entry for key if present and younger than the TTL.
func (c *Cache) Get(ctx context.Context, key CacheKey) (CacheEntry, bool) {
	entry, ok := c.store.Get(ctx, key.String())
	if !ok {
		return CacheEntry{}, false
	}
	if age := c.clock.Now().Sub(entry.FetchedAt); age >= c.ttl {
		log.Debug(log.CatCache, "cache entry expired", "key", key.String(), "age", age)
		return CacheEntry{}, false
	}
	return entry, true
}

// Put stores entry under key stamped with the current time, replacing any
// previous entry. The stored entry is returned.
func (c *Cache) Put(ctx context.Context, key CacheKey, entry CacheEntry) CacheEntry {
	entry.FetchedAt = c.clock.Now()
	c.store.Set(ctx, key.String(), entry, cachemanager.NoExpiration)
	return entry
}

// Clear drops every entry.
func (c *Cache) Clear(ctx context.Context) error {
	if err := c.store.Flush(ctx); err != nil {
		return fmt.Errorf("clearing query cache: %w", err)
	}
	log.Info(log.CatCache, "query cache cleared")
	return nil
}

// Info counts every stored entry, expired or not.
func (c *Cache) Info(ctx context.Context) CacheInfo {
	items := c.store.Items(ctx)
	info := CacheInfo{EntryCount: len(items), TTLMinutes: c.ttl.Minutes()}
	for _, entry := range items {
		info.TotalCachedIssues += len(entry.Issues)
	}
	return info
}
