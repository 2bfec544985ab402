package session

import (
	"context"
	"image"
	"sync"
	"time"
)

// Observer receives the view-facing signals of a countdown. Callbacks run on
// the runner's timer goroutine and must not block.
type Observer interface {
	OnCountdown(n int)
	OnShutter(d time.Duration)
	OnCapture(index int, img image.Image)
}

// Runner drives a session's countdown from a ticker. At most one countdown
// runs per session.
type Runner struct {
	session  *Session
	interval time.Duration
	flash    time.Duration
	observer Observer

	cancel context.CancelFunc
	done   chan struct{}
	mu     sync.Mutex

	flashUntil time.Time
	flashMu    sync.Mutex
}

// NewRunner wires a session to a timer. observer may be nil.
func NewRunner(s *Session, cfg Config, observer Observer) *Runner {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}
	if cfg.Flash <= 0 {
		cfg.Flash = DefaultFlash
	}
	return &Runner{
		session:  s,
		interval: cfg.TickInterval,
		flash:    cfg.Flash,
		observer: observer,
	}
}

// Session returns the driven session.
func (r *Runner) Session() *Session {
	return r.session
}

// Start begins a countdown. It returns false, and does nothing, when the
// session refuses to start. A timer left over from a countdown that was
// cleared on the session is stopped before the new one begins.
func (r *Runner) Start(ctx context.Context) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, counting := r.session.CountdownValue(); counting {
		return false
	}
	if r.cancel != nil {
		r.cancel()
		<-r.done
		r.cancel, r.done = nil, nil
	}

	t := r.session.Handle(Event{Kind: EventStart})
	if !t.Accepted {
		return false
	}
	if r.observer != nil {
		r.observer.OnCountdown(t.Countdown)
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	r.cancel = cancel
	r.done = done
	go r.run(ctx, cancel, done)
	return true
}

// Wait blocks until the running countdown, if any, has finished.
func (r *Runner) Wait() {
	r.mu.Lock()
	done := r.done
	r.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Stop cancels a running countdown and waits for its timer to exit.
func (r *Runner) Stop() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Flashing reports whether the shutter flash is still showing.
func (r *Runner) Flashing() bool {
	r.flashMu.Lock()
	defer r.flashMu.Unlock()
	return time.Now().Before(r.flashUntil)
}

func (r *Runner) run(ctx context.Context, cancel context.CancelFunc, done chan struct{}) {
	defer close(done)
	defer cancel()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.session.Handle(Event{Kind: EventCancel})
			return
		case <-ticker.C:
			t := r.session.Handle(Event{Kind: EventTick})
			if !t.Accepted {
				// Countdown was cleared underneath us (frame switch).
				return
			}
			if t.To == Countdown {
				if r.observer != nil {
					r.observer.OnCountdown(t.Countdown)
				}
				continue
			}
			r.shutter()
			if r.observer != nil {
				r.observer.OnCountdown(0)
				if t.Captured >= 0 {
					img, _ := r.session.Image(t.Captured)
					r.observer.OnCapture(t.Captured, img)
				}
			}
			return
		}
	}
}

func (r *Runner) shutter() {
	r.flashMu.Lock()
	r.flashUntil = time.Now().Add(r.flash)
	r.flashMu.Unlock()
	if r.observer != nil {
		r.observer.OnShutter(r.flash)
	}
}
