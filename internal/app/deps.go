package app

import (
	"context"
	"fmt"
	"time"

	"github.com/swarupplay/backend/internal/auth"
	"github.com/swarupplay/backend/internal/config"
	"github.com/swarupplay/backend/internal/db"
	"github.com/swarupplay/backend/internal/handlers"
	"github.com/swarupplay/backend/internal/middleware"
	"github.com/swarupplay/backend/internal/repositories"
	"github.com/swarupplay/backend/internal/storage"
	"github.com/swarupplay/backend/internal/stream"
	"github.com/swarupplay/backend/internal/videos"
)

const authLimiterTTL = 10 * time.Minute

// buildDependencies wires together concrete implementations used by the HTTP
// handlers. The returned cleanup releases upstream connections.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config) (handlers.Dependencies, func(context.Context) error, error) {
	origin, cleanup, err := buildOrigin(ctx, cfg.Storage)
	if err != nil {
		return handlers.Dependencies{}, nil, err
	}

	var limiter middleware.RateLimiter
	if cfg.AuthRateLimit > 0 {
		limiter = middleware.NewIPRateLimiter(cfg.AuthRateLimit, time.Minute, cfg.AuthRateLimit, authLimiterTTL)
	}

	search := videos.NewCachingSearcher(videos.NewYTDLPSearcher(cfg.YTDLPPath, cfg.YTDLPTimeout), cfg.SearchCacheTTL)

	return handlers.Dependencies{
		Users:          repositories.NewPostgresUserRepository(pool),
		Tokens:         auth.NewIssuer(cfg.TokenSecret, cfg.TokenTTL),
		Videos:         repositories.NewPostgresVideoRepository(pool),
		Search:         search,
		Stream:         stream.NewProxy(origin),
		DB:             pool,
		AuthLimiter:    limiter,
		PublicBaseURL:  cfg.PublicBaseURL,
		StorageBaseURL: cfg.Storage.BaseURL,
		AllowedOrigins: cfg.AllowedOrigins,
		StaticDir:      cfg.StaticDir,
	}, cleanup, nil
}

// buildOrigin selects where video bytes come from.
func buildOrigin(ctx context.Context, cfg config.StorageConfig) (stream.Origin, func(context.Context) error, error) {
	switch cfg.Backend {
	case config.StorageBackendS3:
		origin, err := storage.NewS3Origin(ctx, cfg.ObjectStore)
		if err != nil {
			return nil, nil, fmt.Errorf("configure s3 origin: %w", err)
		}
		return origin, func(context.Context) error { return nil }, nil
	default:
		client := stream.NewUpstreamClient(cfg.UpstreamHeaderTimeout)
		origin, err := stream.NewHTTPOrigin(cfg.BaseURL, cfg.Token, client)
		if err != nil {
			return nil, nil, fmt.Errorf("configure storage origin: %w", err)
		}
		return origin, func(context.Context) error {
			client.CloseIdleConnections()
			return nil
		}, nil
	}
}
