// Package player models the video player as a single state value driven by a
// pure reducer, with a Controller that applies user intents to a media element
// and reconciles the element's own events.
package player

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrClosed is returned by intents issued after Close.
	ErrClosed = errors.New("player: controller closed")
	// ErrNoElement is returned when an intent needs a media element and none is attached.
	ErrNoElement = errors.New("player: no media element attached")
	// ErrFullscreenUnsupported is returned by ToggleFullscreen without a fullscreen API.
	ErrFullscreenUnsupported = errors.New("player: fullscreen not supported")
)

// ValidationError rejects an intent argument before any element call is made.
type ValidationError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("player: invalid %s %v: %s", e.Field, e.Value, e.Reason)
}

// State is the only thing a view renders from.
type State struct {
	IsPlaying    bool    `json:"isPlaying"`
	IsFullscreen bool    `json:"isFullscreen"`
	CurrentTime  float64 `json:"currentTime"`
	Duration     float64 `json:"duration"`
	Volume       float64 `json:"volume"`
	IsMuted      bool    `json:"isMuted"`
	IsLoading    bool    `json:"isLoading"`
	PlaybackRate float64 `json:"playbackRate"`
}

// InitialState is the state of a freshly mounted player.
func InitialState() State {
	return State{
		Volume:       1,
		PlaybackRate: 1,
		IsLoading:    true,
	}
}

// EffectiveVolume is the volume actually heard: zero while muted, otherwise the
// stored Volume.
func (s State) EffectiveVolume() float64 {
	if s.IsMuted {
		return 0
	}
	return s.Volume
}

func validVolume(v float64) error {
	if math.IsNaN(v) || v < 0 || v > 1 {
		return &ValidationError{Field: "volume", Value: v, Reason: "must be between 0 and 1"}
	}
	return nil
}

func validSeek(t, duration float64) error {
	switch {
	case math.IsNaN(t) || math.IsInf(t, 0):
		return &ValidationError{Field: "seek", Value: t, Reason: "must be a finite position"}
	case t < 0:
		return &ValidationError{Field: "seek", Value: t, Reason: "must not be negative"}
	case duration > 0 && t > duration:
		return &ValidationError{Field: "seek", Value: t, Reason: fmt.Sprintf("past duration %v", duration)}
	}
	return nil
}

func validRate(r float64) error {
	if math.IsNaN(r) || math.IsInf(r, 0) || r <= 0 {
		return &ValidationError{Field: "playback rate", Value: r, Reason: "must be positive"}
	}
	return nil
}
