// Package session implements the countdown, shutter and slot-advance state
// machine of a photo-taking session. All mutation goes through Handle.
package session

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// ErrSlotOutOfRange is returned when a slot index does not exist in the active frame.
var ErrSlotOutOfRange = errors.New("session: slot index out of range")

// Default timings.
const (
	DefaultCountdown    = 3
	DefaultTickInterval = time.Second
	DefaultFlash        = 300 * time.Millisecond
)

// State of a session.
type State int

const (
	Idle State = iota
	Countdown
	Complete
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Countdown:
		return "countdown"
	case Complete:
		return "complete"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// EventKind identifies an input to the state machine.
type EventKind int

const (
	// EventStart begins a countdown.
	EventStart EventKind = iota
	// EventTick advances a running countdown by one step; the step that
	// reaches zero captures.
	EventTick
	// EventRetake clears one slot and points the cursor at it.
	EventRetake
	// EventReset clears every slot.
	EventReset
	// EventCancel aborts a running countdown without capturing.
	EventCancel
)

// Event is an input to Handle. Index is only read by EventRetake.
type Event struct {
	Kind  EventKind
	Index int
}

// Transition describes what a single Handle call did.
type Transition struct {
	From     State
	To       State
	Accepted bool
	// Countdown is the countdown value after the event, or -1 when none is running.
	Countdown int
	// Captured is the slot filled by this event, or -1.
	Captured int
	// Shutter asks the view to flash; it fires on every countdown completion,
	// including ones where the device returned no frame.
	Shutter bool
	Err     error
}

// Grabber returns the current camera frame, or nil when none is available.
type Grabber interface {
	Grab() image.Image
}

// GrabberFunc adapts a function to Grabber.
type GrabberFunc func() image.Image

func (f GrabberFunc) Grab() image.Image { return f() }

// Config holds session timings.
type Config struct {
	Countdown    int
	TickInterval time.Duration
	Flash        time.Duration
}

// DefaultConfig returns the 3-2-1 countdown with one-second ticks and a 300ms flash.
func DefaultConfig() Config {
	return Config{
		Countdown:    DefaultCountdown,
		TickInterval: DefaultTickInterval,
		Flash:        DefaultFlash,
	}
}

// Session owns the captured images of one frame selection.
type Session struct {
	slotCount int
	images    map[int]image.Image
	current   int
	countdown int
	start     int
	grabber   Grabber
	logger    *slog.Logger
	mu        sync.Mutex
}

// New creates an idle session for a frame with slotCount slots.
func New(slotCount int, grabber Grabber, cfg Config, logger *slog.Logger) *Session {
	if cfg.Countdown <= 0 {
		cfg.Countdown = DefaultCountdown
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		slotCount: slotCount,
		images:    make(map[int]image.Image),
		countdown: -1,
		start:     cfg.Countdown,
		grabber:   grabber,
		logger:    logger,
	}
}

// Handle is the single transition function of the session.
func (s *Session) Handle(ev Event) Transition {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := Transition{From: s.stateLocked(), Captured: -1}

	switch ev.Kind {
	case EventStart:
		// Re-entrant starts are ignored, as are starts once every slot is filled.
		if s.countdown >= 0 || s.completeLocked() {
			break
		}
		s.countdown = s.start
		t.Accepted = true
		s.logger.Debug("Countdown started", "slot", s.current, "from", s.start)

	case EventTick:
		if s.countdown < 0 {
			break
		}
		t.Accepted = true
		if s.countdown > 1 {
			s.countdown--
			break
		}
		s.countdown = -1
		t.Shutter = true
		t.Captured = s.captureLocked()

	case EventRetake:
		if ev.Index < 0 || ev.Index >= s.slotCount {
			t.Err = fmt.Errorf("%w: %d (frame has %d slots)", ErrSlotOutOfRange, ev.Index, s.slotCount)
			break
		}
		// A running countdown is left alone; it will fill the retaken slot.
		delete(s.images, ev.Index)
		s.current = ev.Index
		t.Accepted = true

	case EventReset:
		s.images = make(map[int]image.Image)
		s.current = 0
		t.Accepted = true

	case EventCancel:
		if s.countdown < 0 {
			break
		}
		s.countdown = -1
		t.Accepted = true
		s.logger.Debug("Countdown cancelled", "slot", s.current)
	}

	t.To = s.stateLocked()
	t.Countdown = s.countdown
	return t
}

// captureLocked fills the slot under the cursor and advances it. When the
// device has no frame the slot stays empty and the cursor stays put.
func (s *Session) captureLocked() int {
	index := s.current
	if index >= s.slotCount {
		s.logger.Warn("Dropping capture past the last slot", "slot", index, "slots", s.slotCount)
		return -1
	}

	var img image.Image
	if s.grabber != nil {
		img = s.grabber.Grab()
	}
	if img == nil {
		s.logger.Debug("Camera returned no frame", "slot", index)
		return -1
	}

	s.images[index] = img
	s.current = index + 1
	s.logger.Debug("Captured photo", "slot", index, "filled", len(s.images), "slots", s.slotCount)
	return index
}

// Start requests a countdown. It returns false when one is already running
// or the frame is full.
func (s *Session) Start() bool {
	return s.Handle(Event{Kind: EventStart}).Accepted
}

// Tick advances a running countdown.
func (s *Session) Tick() Transition {
	return s.Handle(Event{Kind: EventTick})
}

// Retake clears slot index and makes it the next slot to be filled.
func (s *Session) Retake(index int) error {
	return s.Handle(Event{Kind: EventRetake, Index: index}).Err
}

// Reset clears every captured image ("start over").
func (s *Session) Reset() {
	s.Handle(Event{Kind: EventReset})
}

// Cancel aborts a running countdown.
func (s *Session) Cancel() {
	s.Handle(Event{Kind: EventCancel})
}

// SwitchFrame points the session at a frame with slotCount slots. It always
// resets the captured images and aborts any countdown.
func (s *Session) SwitchFrame(slotCount int) {
	s.mu.Lock()
	s.slotCount = slotCount
	s.countdown = -1
	s.mu.Unlock()
	s.Reset()
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

// CurrentSlot is the index the next capture will fill.
func (s *Session) CurrentSlot() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// CountdownValue returns the running countdown value.
func (s *Session) CountdownValue() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.countdown, s.countdown >= 0
}

// SlotCount returns the number of slots in the active frame.
func (s *Session) SlotCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slotCount
}

// IsComplete reports whether at least one image per slot has been captured.
func (s *Session) IsComplete() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completeLocked()
}

// Image returns the captured image for a slot.
func (s *Session) Image(index int) (image.Image, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	img, ok := s.images[index]
	return img, ok
}

// Images returns a copy of the slot-to-image mapping.
func (s *Session) Images() map[int]image.Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int]image.Image, len(s.images))
	for k, v := range s.images {
		out[k] = v
	}
	return out
}

// Filled returns the captured slot indexes in ascending order.
func (s *Session) Filled() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int, 0, len(s.images))
	for k := range s.images {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

func (s *Session) completeLocked() bool {
	return len(s.images) >= s.slotCount
}

func (s *Session) stateLocked() State {
	switch {
	case s.countdown >= 0:
		return Countdown
	case s.completeLocked():
		return Complete
	default:
		return Idle
	}
}
