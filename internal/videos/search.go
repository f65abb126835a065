package videos

import (
	"context"

	"github.com/swarupplay/backend/internal/models"
)

const (
	DefaultSearchLimit = 10
	MaxSearchLimit     = 50
)

// Searcher returns YouTube videos matching a free-text query.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]models.SearchResult, error)
}

// ClampLimit bounds a requested result count to [1, MaxSearchLimit], using
// DefaultSearchLimit for zero or negative values.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultSearchLimit
	case limit > MaxSearchLimit:
		return MaxSearchLimit
	default:
		return limit
	}
}
