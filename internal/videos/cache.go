package videos

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/swarupplay/backend/internal/metrics"
	"github.com/swarupplay/backend/internal/models"
)

type cacheEntry struct {
	results []models.SearchResult
	expires time.Time
}

// CachingSearcher wraps another Searcher with a TTL-based in-memory cache keyed
// by limit and normalised query.
type CachingSearcher struct {
	base Searcher
	ttl  time.Duration
	now  func() time.Time

	mu    sync.RWMutex
	items map[string]cacheEntry
}

// NewCachingSearcher returns a Searcher that caches results for the provided TTL.
func NewCachingSearcher(base Searcher, ttl time.Duration) *CachingSearcher {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachingSearcher{
		base:  base,
		ttl:   ttl,
		now:   time.Now,
		items: make(map[string]cacheEntry),
	}
}

// Search returns cached results when available, otherwise it delegates to the
// underlying searcher and stores the result. Failures are not cached.
func (c *CachingSearcher) Search(ctx context.Context, query string, limit int) ([]models.SearchResult, error) {
	if c == nil || c.base == nil {
		return nil, ErrProviderUnavailable
	}
	query = strings.Join(strings.Fields(query), " ")
	if query == "" {
		return nil, ErrEmptyQuery
	}
	limit = ClampLimit(limit)
	key := strconv.Itoa(limit) + "\x00" + strings.ToLower(query)

	now := c.now()

	c.mu.RLock()
	entry, ok := c.items[key]
	c.mu.RUnlock()
	if ok && now.Before(entry.expires) {
		metrics.IncSearch(true)
		return entry.results, nil
	}
	metrics.IncSearch(false)

	results, err := c.base.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	for k, e := range c.items {
		if !now.Before(e.expires) {
			delete(c.items, k)
		}
	}
	c.items[key] = cacheEntry{results: results, expires: now.Add(c.ttl)}
	c.mu.Unlock()

	return results, nil
}
