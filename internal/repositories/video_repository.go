package repositories

import (
	"context"

	"github.com/swarupplay/backend/internal/models"
)

// VideoRepository exposes read access to stored video files and their metadata.
type VideoRepository interface {
	FindMetadata(ctx context.Context, fileID string) (models.VideoMetadata, error)
	ListVideos(ctx context.Context, limit int) ([]models.RelatedVideo, error)
}
