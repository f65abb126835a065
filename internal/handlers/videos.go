package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/swarupplay/backend/internal/logging"
	"github.com/swarupplay/backend/internal/repositories"
)

// VideoHandler serves stored video metadata and the related-videos list.
type VideoHandler struct {
	Videos VideoStore
	// PublicBaseURL prefixes stream links, StorageBaseURL thumbnail links.
	PublicBaseURL  string
	StorageBaseURL string
}

// Metadata handles GET /api/video/{fileId}.
func (h VideoHandler) Metadata(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	fileID := mux.Vars(r)["fileId"]

	if h.Videos == nil {
		logging.FromContext(ctx).Error("video store unavailable")
		respondError(ctx, w, http.StatusInternalServerError, "Server error")
		return
	}

	meta, err := h.Videos.FindMetadata(ctx, fileID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "Video file not found")
			return
		}
		logging.FromContext(ctx).Error("fetch video metadata", "fileId", fileID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "Server error")
		return
	}

	meta.StreamURL = h.streamURL(fileID)
	if meta.ThumbnailPath != nil && *meta.ThumbnailPath != "" {
		thumb := h.thumbnailURL(fileID)
		meta.Thumbnail = &thumb
	} else {
		meta.Thumbnail = nil
	}

	respondJSON(ctx, w, http.StatusOK, meta)
}

// List handles GET /api/files?type=video&limit=N, newest first.
func (h VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	if t := strings.TrimSpace(query.Get("type")); t != "" && t != "video" {
		respondError(ctx, w, http.StatusBadRequest, "unsupported file type")
		return
	}

	limit, err := parseLimit(query.Get("limit"))
	if err != nil {
		respondError(ctx, w, http.StatusBadRequest, "limit must be a positive integer")
		return
	}

	if h.Videos == nil {
		logging.FromContext(ctx).Error("video store unavailable")
		respondError(ctx, w, http.StatusInternalServerError, "Server error")
		return
	}

	videos, err := h.Videos.ListVideos(ctx, limit)
	if err != nil {
		logging.FromContext(ctx).Error("list videos", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "Server error")
		return
	}

	for i := range videos {
		if videos[i].ThumbnailPath != nil && *videos[i].ThumbnailPath != "" {
			thumb := h.thumbnailURL(videos[i].ID)
			videos[i].Thumbnail = &thumb
		}
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"files": videos})
}

func (h VideoHandler) streamURL(fileID string) string {
	return strings.TrimSuffix(h.PublicBaseURL, "/") + "/api/stream/" + url.PathEscape(fileID)
}

func (h VideoHandler) thumbnailURL(fileID string) string {
	return strings.TrimSuffix(h.StorageBaseURL, "/") + "/api/files/" + url.PathEscape(fileID) + "/thumbnail"
}

// parseLimit returns 0 (use the store default) for an empty value.
func parseLimit(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0, errors.New("invalid limit")
	}
	return limit, nil
}
