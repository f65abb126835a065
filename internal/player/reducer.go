package player

import "math"

// EventType identifies a state transition. Intent results and native media
// events share one vocabulary so both flow through Reduce.
type EventType int

const (
	EventPlaying EventType = iota + 1
	EventPause
	EventVolumeSet
	EventMuteToggled
	EventSeek
	EventFullscreenChange
	EventRateChange
	EventTimeUpdate
	EventDurationChange
	EventCanPlay
	EventLoadedData
	EventSeeked
	EventEnded
	EventError
)

var eventNames = map[EventType]string{
	EventPlaying:          "playing",
	EventPause:            "pause",
	EventVolumeSet:        "volumeset",
	EventMuteToggled:      "mutetoggled",
	EventSeek:             "seek",
	EventFullscreenChange: "fullscreenchange",
	EventRateChange:       "ratechange",
	EventTimeUpdate:       "timeupdate",
	EventDurationChange:   "durationchange",
	EventCanPlay:          "canplay",
	EventLoadedData:       "loadeddata",
	EventSeeked:           "seeked",
	EventEnded:            "ended",
	EventError:            "error",
}

func (t EventType) String() string {
	if name, ok := eventNames[t]; ok {
		return name
	}
	return "unknown"
}

// Event is one input to Reduce. Value carries the numeric payload, Flag the
// boolean one and Err the media error.
type Event struct {
	Type  EventType
	Value float64
	Flag  bool
	Err   error
}

func Playing() Event                  { return Event{Type: EventPlaying} }
func Paused() Event                   { return Event{Type: EventPause} }
func VolumeSet(v float64) Event       { return Event{Type: EventVolumeSet, Value: v} }
func MuteToggled() Event              { return Event{Type: EventMuteToggled} }
func SeekTo(t float64) Event          { return Event{Type: EventSeek, Value: t} }
func FullscreenChanged(on bool) Event { return Event{Type: EventFullscreenChange, Flag: on} }
func RateChanged(r float64) Event     { return Event{Type: EventRateChange, Value: r} }
func TimeUpdate(t float64) Event      { return Event{Type: EventTimeUpdate, Value: t} }
func DurationChange(d float64) Event  { return Event{Type: EventDurationChange, Value: d} }
func CanPlay() Event                  { return Event{Type: EventCanPlay} }
func LoadedData() Event               { return Event{Type: EventLoadedData} }
func Seeked() Event                   { return Event{Type: EventSeeked} }
func Ended() Event                    { return Event{Type: EventEnded} }
func MediaError(err error) Event      { return Event{Type: EventError, Err: err} }

// IsReady reports whether the event means the element can play at its current
// position.
func (e Event) IsReady() bool {
	switch e.Type {
	case EventCanPlay, EventLoadedData, EventSeeked:
		return true
	}
	return false
}

// Reduce returns the state after applying e to s. It never touches an element.
// Error events leave the state unchanged.
func Reduce(s State, e Event) State {
	switch e.Type {
	case EventPlaying:
		s.IsPlaying = true
	case EventPause:
		s.IsPlaying = false
	case EventVolumeSet:
		s.Volume = clamp(e.Value, 0, 1)
		if s.Volume > 0 {
			s.IsMuted = false
		}
	case EventMuteToggled:
		s.IsMuted = !s.IsMuted
	case EventSeek:
		s.CurrentTime = clampPosition(e.Value, s.Duration)
		s.IsLoading = true
	case EventFullscreenChange:
		s.IsFullscreen = e.Flag
	case EventRateChange:
		if e.Value > 0 && !math.IsInf(e.Value, 0) {
			s.PlaybackRate = e.Value
		}
	case EventTimeUpdate:
		s.CurrentTime = clampPosition(e.Value, s.Duration)
	case EventDurationChange:
		s.Duration = e.Value
		if math.IsNaN(s.Duration) || math.IsInf(s.Duration, 0) || s.Duration < 0 {
			s.Duration = 0
		}
		s.CurrentTime = clampPosition(s.CurrentTime, s.Duration)
	case EventCanPlay, EventLoadedData, EventSeeked:
		s.IsLoading = false
	case EventEnded:
		s.IsPlaying = false
		if s.Duration > 0 {
			s.CurrentTime = s.Duration
		}
	}
	return s
}

func clampPosition(t, duration float64) float64 {
	if math.IsNaN(t) || t < 0 {
		return 0
	}
	if duration > 0 && t > duration {
		return duration
	}
	return t
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Min(math.Max(v, lo), hi)
}
