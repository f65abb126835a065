package client

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/swarupplay/backend/internal/models"
	"github.com/swarupplay/backend/internal/player"
)

// ErrViewClosed is returned when a fetch is started on a closed WatchView.
var ErrViewClosed = errors.New("watch view closed")

// WatchView binds one viewing session: the open video's metadata, the related
// list, search results and a player controller. Every fetch it starts is tied
// to the view and cancelled by Close.
type WatchView struct {
	Metadata Resource[models.VideoMetadata]
	Related  Resource[[]models.RelatedVideo]
	Results  Resource[[]models.SearchResult]

	client *Client
	player *player.Controller

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu           sync.Mutex
	closed       bool
	metaCancel   context.CancelFunc
	searchCancel context.CancelFunc
}

// NewWatchView creates a view whose fetches live at most as long as parent.
// el and fs are handed to player.NewController.
func NewWatchView(parent context.Context, c *Client, el player.Element, fs player.Fullscreener, opts ...player.Option) *WatchView {
	ctx, cancel := context.WithCancel(parent)
	return &WatchView{
		client: c,
		player: player.NewController(el, fs, opts...),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Player returns the view's controller.
func (v *WatchView) Player() *player.Controller {
	return v.player
}

// Open loads metadata for fileID, cancelling any metadata fetch still running
// for a previously opened file. An empty id clears the metadata.
func (v *WatchView) Open(fileID string) error {
	if strings.TrimSpace(fileID) == "" {
		v.mu.Lock()
		defer v.mu.Unlock()
		if v.closed {
			return ErrViewClosed
		}
		if v.metaCancel != nil {
			v.metaCancel()
			v.metaCancel = nil
		}
		v.Metadata.Reset()
		return nil
	}
	return v.start(&v.metaCancel, func() func(context.Context) {
		gen := v.Metadata.begin()
		return func(ctx context.Context) {
			meta, err := v.client.VideoMetadata(ctx, fileID)
			v.Metadata.finish(ctx, gen, meta, err)
		}
	})
}

// LoadRelated fetches the related-videos list.
func (v *WatchView) LoadRelated(limit int) error {
	return v.start(nil, func() func(context.Context) {
		gen := v.Related.begin()
		return func(ctx context.Context) {
			videos, err := v.client.RelatedVideos(ctx, limit)
			v.Related.finish(ctx, gen, videos, err)
		}
	})
}

// Search starts a search, cancelling the previous one if it is still running.
// Blank queries are ignored.
func (v *WatchView) Search(query string, limit int) error {
	if strings.TrimSpace(query) == "" {
		return nil
	}
	return v.start(&v.searchCancel, func() func(context.Context) {
		gen := v.Results.begin()
		return func(ctx context.Context) {
			results, err := v.client.Search(ctx, query, limit)
			v.Results.finish(ctx, gen, results, err)
		}
	})
}

// Wait blocks until every fetch started so far has finished.
func (v *WatchView) Wait() {
	v.wg.Wait()
}

// Close cancels in-flight fetches, waits for them, then detaches the player.
func (v *WatchView) Close() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.closed = true
	v.mu.Unlock()

	v.cancel()
	v.wg.Wait()
	v.player.Close()
}

// start claims a resource generation through prepare while holding the view
// lock, then runs the returned fetch on its own goroutine under a child of the
// view context. When slot is non-nil the previous fetch stored there is
// cancelled first.
func (v *WatchView) start(slot *context.CancelFunc, prepare func() func(context.Context)) error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return ErrViewClosed
	}
	if slot != nil && *slot != nil {
		(*slot)()
	}
	ctx, cancel := context.WithCancel(v.ctx)
	if slot != nil {
		*slot = cancel
	}
	fn := prepare()
	v.wg.Add(1)
	v.mu.Unlock()

	go func() {
		defer v.wg.Done()
		defer cancel()
		fn(ctx)
	}()
	return nil
}
