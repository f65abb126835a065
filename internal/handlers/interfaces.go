package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/swarupplay/backend/internal/auth"
	"github.com/swarupplay/backend/internal/models"
)

// UserStore captures the persistence operations required by the auth handlers.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
}

// TokenIssuer issues and verifies signed access tokens.
type TokenIssuer interface {
	Issue(identity models.Identity) (string, time.Time, error)
	Verify(token string) (auth.Claims, error)
}

// VideoStore captures read access to stored videos.
type VideoStore interface {
	FindMetadata(ctx context.Context, fileID string) (models.VideoMetadata, error)
	ListVideos(ctx context.Context, limit int) ([]models.RelatedVideo, error)
}

// VideoSearcher resolves free-text YouTube searches.
type VideoSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]models.SearchResult, error)
}

// StreamProxy relays a stored file to an authenticated caller.
type StreamProxy interface {
	Serve(w http.ResponseWriter, r *http.Request, fileID string)
}

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}
