package models

import "time"

// User represents an account that can sign in to SwarupPlay.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	CreatedAt time.Time `json:"-"`
}

// Identity is the public projection of a user carried inside access tokens.
type Identity struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Identity returns the token-safe projection of the user.
func (u User) Identity() Identity {
	return Identity{ID: u.ID, Name: u.Name, Email: u.Email}
}

// VideoMetadata joins a stored file with its video attributes. StreamURL and
// Thumbnail are synthesized per request and never persisted.
type VideoMetadata struct {
	FileID    string    `json:"file_id"`
	FileName  string    `json:"file_name"`
	Size      int64     `json:"size"`
	MimeType  string    `json:"mime_type"`
	CreatedAt time.Time `json:"created_at"`
	Duration  *float64  `json:"duration,omitempty"`
	Width     *int      `json:"width,omitempty"`
	Height    *int      `json:"height,omitempty"`
	Bitrate   *int64    `json:"bitrate,omitempty"`
	Codec     *string   `json:"codec,omitempty"`
	StreamURL string    `json:"streamUrl"`
	Thumbnail *string   `json:"thumbnail,omitempty"`

	ThumbnailPath *string `json:"-"`
}

// RelatedVideo is a read-only catalog projection used for browsing.
type RelatedVideo struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Thumbnail *string   `json:"thumbnail,omitempty"`
	Duration  *float64  `json:"duration,omitempty"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`

	ThumbnailPath *string `json:"-"`
}

// SearchResult is a single YouTube search hit.
type SearchResult struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Thumbnail string   `json:"thumbnail,omitempty"`
	Duration  *float64 `json:"duration,omitempty"`
}
