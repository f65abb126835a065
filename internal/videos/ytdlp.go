package videos

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/swarupplay/backend/internal/models"
)

// CommandRunner executes external commands and returns stdout bytes.
type CommandRunner func(ctx context.Context, binary string, args ...string) ([]byte, error)

// YTDLPSearcher searches YouTube using the yt-dlp CLI tool.
type YTDLPSearcher struct {
	Binary  string
	Args    []string
	Run     CommandRunner
	Timeout time.Duration
}

// NewYTDLPSearcher constructs a Searcher that shells out to yt-dlp.
func NewYTDLPSearcher(binary string, timeout time.Duration) *YTDLPSearcher {
	if strings.TrimSpace(binary) == "" {
		binary = "yt-dlp"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &YTDLPSearcher{
		Binary:  binary,
		Args:    []string{"--flat-playlist", "--dump-single-json", "--no-warnings", "--skip-download"},
		Run:     defaultCommandRunner,
		Timeout: timeout,
	}
}

type ytdlpThumbnail struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
}

type ytdlpEntry struct {
	ID         string           `json:"id"`
	Title      string           `json:"title"`
	Duration   *float64         `json:"duration"`
	Thumbnail  string           `json:"thumbnail"`
	Thumbnails []ytdlpThumbnail `json:"thumbnails"`
}

// Search runs "ytsearchN:<query>" and maps the flat playlist entries.
func (p *YTDLPSearcher) Search(ctx context.Context, query string, limit int) ([]models.SearchResult, error) {
	if p == nil {
		return nil, ErrProviderUnavailable
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if p.Run == nil {
		p.Run = defaultCommandRunner
	}

	execCtx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	args := append([]string{}, p.Args...)
	args = append(args, fmt.Sprintf("ytsearch%d:%s", ClampLimit(limit), query))

	out, err := p.Run(execCtx, p.Binary, args...)
	if err != nil {
		return nil, errors.Join(ErrProviderUnavailable, fmt.Errorf("yt-dlp search: %w", err))
	}

	var payload struct {
		Entries []ytdlpEntry `json:"entries"`
	}
	if err := json.Unmarshal(out, &payload); err != nil {
		return nil, errors.Join(ErrProviderUnavailable, fmt.Errorf("parse yt-dlp response: %w", err))
	}

	results := make([]models.SearchResult, 0, len(payload.Entries))
	for _, entry := range payload.Entries {
		if entry.ID == "" {
			continue
		}
		results = append(results, models.SearchResult{
			ID:        entry.ID,
			Title:     entry.Title,
			Thumbnail: pickThumbnail(entry),
			Duration:  entry.Duration,
		})
	}

	return results, nil
}

func pickThumbnail(entry ytdlpEntry) string {
	if entry.Thumbnail != "" {
		return entry.Thumbnail
	}
	best := ytdlpThumbnail{Height: -1}
	for _, thumb := range entry.Thumbnails {
		if thumb.URL != "" && thumb.Height > best.Height {
			best = thumb
		}
	}
	if best.URL != "" {
		return best.URL
	}
	return "https://i.ytimg.com/vi/" + entry.ID + "/hqdefault.jpg"
}

func defaultCommandRunner(ctx context.Context, binary string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	return cmd.Output()
}
