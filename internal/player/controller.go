package player

import (
	"fmt"
	"log/slog"
	"sync"
)

// Element is the media element a Controller drives. AddListener must deliver
// events asynchronously, never from inside another Element method, and the
// returned func unregisters the listener.
type Element interface {
	Play() error
	Pause()
	Paused() bool
	SetVolume(v float64)
	SetMuted(muted bool)
	SetCurrentTime(t float64)
	SetPlaybackRate(r float64)
	AddListener(fn func(Event)) (remove func())
}

// Fullscreener toggles fullscreen on the player container. OnChange fires for
// every fullscreen transition, including ones the browser makes on its own. It
// may fire synchronously from inside Request or Exit.
type Fullscreener interface {
	IsFullscreen() bool
	Request() error
	Exit() error
	OnChange(fn func(fullscreen bool)) (remove func())
}

// Controller applies intents to an Element and folds both intents and native
// events into State through Reduce. All methods are safe for concurrent use.
//
// Seeks issued while the element is loading are deferred: State.CurrentTime
// moves immediately, but only the latest deferred target reaches the element,
// once it reports ready.
type Controller struct {
	mu          sync.Mutex
	el          Element
	fs          Fullscreener
	logger      *slog.Logger
	state       State
	pendingSeek *float64
	closed      bool
	removers    []func()

	nextSub   int
	changeSub map[int]func(State)
	errorSub  map[int]func(error)
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger used for rejected intents and media errors.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewController attaches to el and fs and registers their listeners. Either
// may be nil; intents that need them then fail.
func NewController(el Element, fs Fullscreener, opts ...Option) *Controller {
	c := &Controller{
		el:        el,
		fs:        fs,
		logger:    slog.Default(),
		state:     InitialState(),
		changeSub: make(map[int]func(State)),
		errorSub:  make(map[int]func(error)),
	}
	for _, opt := range opts {
		opt(c)
	}

	if el != nil {
		c.removers = append(c.removers, el.AddListener(c.handleEvent))
	}
	if fs != nil {
		c.state.IsFullscreen = fs.IsFullscreen()
		c.removers = append(c.removers, fs.OnChange(func(on bool) {
			c.handleEvent(FullscreenChanged(on))
		}))
	}
	return c
}

// State returns a copy of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// OnChange registers fn to receive a copy of the state after every change. fn
// runs on the goroutine that caused the change.
func (c *Controller) OnChange(fn func(State)) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextSub
	c.nextSub++
	c.changeSub[id] = fn
	return func() {
		c.mu.Lock()
		delete(c.changeSub, id)
		c.mu.Unlock()
	}
}

// OnError registers fn to receive media errors and rejected play requests.
func (c *Controller) OnError(fn func(error)) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextSub
	c.nextSub++
	c.errorSub[id] = fn
	return func() {
		c.mu.Lock()
		delete(c.errorSub, id)
		c.mu.Unlock()
	}
}

// Close unregisters every element and fullscreen listener and drops all
// subscribers. It is idempotent.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	removers := c.removers
	c.removers = nil
	c.pendingSeek = nil
	clear(c.changeSub)
	clear(c.errorSub)
	c.mu.Unlock()

	for _, remove := range removers {
		if remove != nil {
			remove()
		}
	}
}

// TogglePlay plays a paused element or pauses a playing one. A rejected play
// request is returned and also delivered to error subscribers.
func (c *Controller) TogglePlay() error {
	c.mu.Lock()
	if err := c.usable(); err != nil {
		c.mu.Unlock()
		return err
	}

	if !c.el.Paused() {
		c.el.Pause()
		c.apply(Paused())
		return nil
	}

	if err := c.el.Play(); err != nil {
		err = fmt.Errorf("play: %w", err)
		c.logger.Warn("play request rejected", slog.String("error", err.Error()))
		changed := c.reduce(Paused())
		errSubs := c.errorSubscribers()
		c.mu.Unlock()
		c.notify(changed)
		for _, fn := range errSubs {
			fn(err)
		}
		return err
	}
	c.apply(Playing())
	return nil
}

// SetVolume sets the stored and element volume. Any positive volume unmutes.
func (c *Controller) SetVolume(v float64) error {
	if err := validVolume(v); err != nil {
		return err
	}
	c.mu.Lock()
	if err := c.usable(); err != nil {
		c.mu.Unlock()
		return err
	}

	c.el.SetVolume(v)
	if v > 0 && c.state.IsMuted {
		c.el.SetMuted(false)
	}
	c.apply(VolumeSet(v))
	return nil
}

// ToggleMute flips the muted flag. Unmuting re-applies the stored volume, so
// the element always ends up at State.Volume however fast toggles arrive.
func (c *Controller) ToggleMute() error {
	c.mu.Lock()
	if err := c.usable(); err != nil {
		c.mu.Unlock()
		return err
	}

	muted := !c.state.IsMuted
	c.el.SetMuted(muted)
	if !muted {
		c.el.SetVolume(c.state.Volume)
	}
	c.apply(MuteToggled())
	return nil
}

// Seek moves playback to t seconds.
func (c *Controller) Seek(t float64) error {
	c.mu.Lock()
	if err := validSeek(t, c.state.Duration); err != nil {
		c.mu.Unlock()
		return err
	}
	if err := c.usable(); err != nil {
		c.mu.Unlock()
		return err
	}

	if c.state.IsLoading {
		target := t
		c.pendingSeek = &target
		c.logger.Debug("deferring seek until element is ready", slog.Float64("target", t))
	} else {
		c.el.SetCurrentTime(t)
	}
	c.apply(SeekTo(t))
	return nil
}

// SetPlaybackRate sets the element's playback rate.
func (c *Controller) SetPlaybackRate(r float64) error {
	if err := validRate(r); err != nil {
		return err
	}
	c.mu.Lock()
	if err := c.usable(); err != nil {
		c.mu.Unlock()
		return err
	}

	c.el.SetPlaybackRate(r)
	c.apply(RateChanged(r))
	return nil
}

// ToggleFullscreen enters or leaves fullscreen. IsFullscreen is reconciled
// from the fullscreen API afterwards, not assumed from the request.
func (c *Controller) ToggleFullscreen() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	fs := c.fs
	c.mu.Unlock()
	if fs == nil {
		return ErrFullscreenUnsupported
	}

	// The fullscreen API runs without c.mu so OnChange may fire from inside
	// Request or Exit.
	var err error
	if fs.IsFullscreen() {
		err = fs.Exit()
	} else {
		err = fs.Request()
	}
	event := FullscreenChanged(fs.IsFullscreen())
	if err != nil {
		err = fmt.Errorf("fullscreen: %w", err)
		c.logger.Warn("fullscreen request failed", slog.String("error", err.Error()))
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.apply(event)
	return err
}

func (c *Controller) handleEvent(e Event) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	if e.Type == EventError {
		c.logger.Error("media element error", slog.Any("error", e.Err))
		errSubs := c.errorSubscribers()
		c.mu.Unlock()
		for _, fn := range errSubs {
			fn(e.Err)
		}
		return
	}

	if e.IsReady() && c.pendingSeek != nil && c.el != nil {
		target := *c.pendingSeek
		c.pendingSeek = nil
		c.el.SetCurrentTime(target)
		c.mu.Unlock()
		return
	}

	c.apply(e)
}

func (c *Controller) usable() error {
	if c.closed {
		return ErrClosed
	}
	if c.el == nil {
		return ErrNoElement
	}
	return nil
}

// apply reduces e, releases c.mu and notifies subscribers when the state
// changed. It must be called with c.mu held.
func (c *Controller) apply(e Event) {
	changed := c.reduce(e)
	c.mu.Unlock()
	c.notify(changed)
}

type change struct {
	state State
	subs  []func(State)
}

func (c *Controller) reduce(e Event) *change {
	next := Reduce(c.state, e)
	if next == c.state {
		return nil
	}
	c.state = next
	subs := make([]func(State), 0, len(c.changeSub))
	for _, fn := range c.changeSub {
		subs = append(subs, fn)
	}
	return &change{state: next, subs: subs}
}

func (c *Controller) errorSubscribers() []func(error) {
	subs := make([]func(error), 0, len(c.errorSub))
	for _, fn := range c.errorSub {
		subs = append(subs, fn)
	}
	return subs
}

func (c *Controller) notify(ch *change) {
	if ch == nil {
		return
	}
	for _, fn := range ch.subs {
		fn(ch.state)
	}
}
