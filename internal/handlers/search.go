package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/swarupplay/backend/internal/logging"
	"github.com/swarupplay/backend/internal/videos"
)

// SearchHandler serves YouTube search results.
type SearchHandler struct {
	Search VideoSearcher
}

// Handle implements GET /api/search?q=...&limit=N.
func (h SearchHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		respondError(ctx, w, http.StatusBadRequest, "Search query is required")
		return
	}

	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		respondError(ctx, w, http.StatusBadRequest, "limit must be a positive integer")
		return
	}

	if h.Search == nil {
		logging.FromContext(ctx).Error("search provider unavailable")
		respondError(ctx, w, http.StatusBadGateway, "Search is unavailable")
		return
	}

	results, err := h.Search.Search(ctx, query, limit)
	if err != nil {
		if errors.Is(err, videos.ErrEmptyQuery) {
			respondError(ctx, w, http.StatusBadRequest, "Search query is required")
			return
		}
		logging.FromContext(ctx).Error("search failed", "query", query, "error", err)
		respondError(ctx, w, http.StatusBadGateway, "Search failed")
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"videos": results})
}
