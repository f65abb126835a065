package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/swarupplay/backend/internal/db"
	"github.com/swarupplay/backend/internal/models"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// PostgresUserRepository provides PostgreSQL-backed persistence for users.
type PostgresUserRepository struct {
	pool db.Pool
}

// NewPostgresUserRepository constructs a user repository backed by PostgreSQL.
func NewPostgresUserRepository(pool db.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// Create persists a new user record. A duplicate email yields ErrConflict.
func (r *PostgresUserRepository) Create(ctx context.Context, user models.User) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO users (id, name, email, password_hash, created_at)
        VALUES ($1, $2, $3, $4, $5)
    `, user.ID, user.Name, user.Email, user.Password, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// FindByEmail fetches a user by their email address.
func (r *PostgresUserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	return r.findOne(ctx, "email", `
        SELECT id, name, email, password_hash, created_at
        FROM users
        WHERE email = $1
    `, email)
}

// FindByID fetches a user by id.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	return r.findOne(ctx, "id", `
        SELECT id, name, email, password_hash, created_at
        FROM users
        WHERE id = $1
    `, id)
}

func (r *PostgresUserRepository) findOne(ctx context.Context, by, query string, arg string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var user models.User
	err = conn.QueryRow(ctx, query, arg).Scan(&user.ID, &user.Name, &user.Email, &user.Password, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("select user by %s: %w", by, err)
	}

	return user, nil
}

// PostgresVideoRepository reads video files and their metadata from PostgreSQL.
type PostgresVideoRepository struct {
	pool db.Pool
}

// NewPostgresVideoRepository constructs a video repository backed by PostgreSQL.
func NewPostgresVideoRepository(pool db.Pool) *PostgresVideoRepository {
	return &PostgresVideoRepository{pool: pool}
}

// FindMetadata returns the file and any recorded video attributes for fileID.
// Files that are not of a video type are reported as ErrNotFound.
func (r *PostgresVideoRepository) FindMetadata(ctx context.Context, fileID string) (models.VideoMetadata, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.VideoMetadata{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT f.id, f.name, f.size, f.type, f.created_at,
               v.duration, v.width, v.height, v.bitrate, v.codec, v.thumbnail_path
        FROM files f
        LEFT JOIN video_metadata v ON v.file_id = f.id
        WHERE f.id = $1 AND f.type LIKE 'video/%'
    `, fileID)

	var meta models.VideoMetadata
	if err := row.Scan(
		&meta.FileID, &meta.FileName, &meta.Size, &meta.MimeType, &meta.CreatedAt,
		&meta.Duration, &meta.Width, &meta.Height, &meta.Bitrate, &meta.Codec, &meta.ThumbnailPath,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.VideoMetadata{}, ErrNotFound
		}
		return models.VideoMetadata{}, fmt.Errorf("select video metadata: %w", err)
	}

	return meta, nil
}

// ListVideos returns the newest video files first. limit is clamped to
// [1, 100]; zero or negative selects the default of 20.
func (r *PostgresVideoRepository) ListVideos(ctx context.Context, limit int) ([]models.RelatedVideo, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT f.id, f.name, f.size, f.created_at, v.duration, v.thumbnail_path
        FROM files f
        LEFT JOIN video_metadata v ON v.file_id = f.id
        WHERE f.type LIKE 'video/%'
        ORDER BY f.created_at DESC, f.id
        LIMIT $1
    `, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query videos: %w", err)
	}
	defer rows.Close()

	videos := make([]models.RelatedVideo, 0)
	for rows.Next() {
		var v models.RelatedVideo
		if err := rows.Scan(&v.ID, &v.Name, &v.Size, &v.CreatedAt, &v.Duration, &v.ThumbnailPath); err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		videos = append(videos, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate videos: %w", err)
	}

	return videos, nil
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultListLimit
	case limit > maxListLimit:
		return maxListLimit
	default:
		return limit
	}
}

var _ UserRepository = (*PostgresUserRepository)(nil)
var _ VideoRepository = (*PostgresVideoRepository)(nil)
