package videos

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/swarupplay/backend/internal/models"
)

type stubSearcher struct {
	results []models.SearchResult
	err     error
	calls   int
	queries []string
}

func (s *stubSearcher) Search(_ context.Context, query string, limit int) ([]models.SearchResult, error) {
	s.calls++
	s.queries = append(s.queries, query)
	if s.err != nil {
		return nil, s.err
	}
	return s.results, nil
}

func TestCachingSearcherSearch(t *testing.T) {
	base := &stubSearcher{results: []models.SearchResult{{ID: "aaa", Title: "Test"}}}
	cache := NewCachingSearcher(base, time.Minute)

	ctx := context.Background()

	results, err := cache.Search(ctx, "Lofi  Beats", 5)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 || results[0].ID != "aaa" {
		t.Fatalf("unexpected results: %+v", results)
	}
	if base.calls != 1 || base.queries[0] != "Lofi Beats" {
		t.Fatalf("expected one normalised base call, got %d %v", base.calls, base.queries)
	}

	if _, err := cache.Search(ctx, "lofi beats", 5); err != nil {
		t.Fatalf("search: %v", err)
	}
	if base.calls != 1 {
		t.Fatalf("expected cached result got %d calls", base.calls)
	}

	if _, err := cache.Search(ctx, "lofi beats", 10); err != nil {
		t.Fatalf("search: %v", err)
	}
	if base.calls != 2 {
		t.Fatalf("expected different limit to miss the cache, got %d calls", base.calls)
	}
}

func TestCachingSearcherErrors(t *testing.T) {
	cache := NewCachingSearcher(nil, time.Minute)
	if _, err := cache.Search(context.Background(), "cats", 5); !errors.Is(err, ErrProviderUnavailable) {
		t.Fatalf("expected provider unavailable got %v", err)
	}

	base := &stubSearcher{err: ErrProviderUnavailable}
	cache = NewCachingSearcher(base, time.Minute)
	for i := 0; i < 2; i++ {
		if _, err := cache.Search(context.Background(), "cats", 5); !errors.Is(err, ErrProviderUnavailable) {
			t.Fatalf("expected provider unavailable got %v", err)
		}
	}
	if base.calls != 2 {
		t.Fatalf("expected failures not to be cached, got %d calls", base.calls)
	}

	if _, err := cache.Search(context.Background(), " ", 5); !errors.Is(err, ErrEmptyQuery) {
		t.Fatalf("expected ErrEmptyQuery got %v", err)
	}
}

func TestCachingSearcherExpiry(t *testing.T) {
	base := &stubSearcher{results: []models.SearchResult{{ID: "aaa"}}}
	cache := NewCachingSearcher(base, time.Minute)

	now := time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	if _, err := cache.Search(context.Background(), "cats", 5); err != nil {
		t.Fatalf("search: %v", err)
	}
	now = now.Add(2 * time.Minute)
	if _, err := cache.Search(context.Background(), "cats", 5); err != nil {
		t.Fatalf("search: %v", err)
	}
	if base.calls != 2 {
		t.Fatalf("expected cache miss after expiry got %d calls", base.calls)
	}
	if len(cache.items) != 1 {
		t.Fatalf("expected expired entries pruned, have %d", len(cache.items))
	}
}

func TestCachingSearcherDefaultTTL(t *testing.T) {
	cache := NewCachingSearcher(&stubSearcher{}, 0)
	if cache.ttl <= 0 {
		t.Fatalf("expected ttl to default positive got %v", cache.ttl)
	}
}
