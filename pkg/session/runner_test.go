package session

import (
	"context"
	"image"
	"image/color"
	"sync"
	"testing"
	"time"
)

type recordingObserver struct {
	mu         sync.Mutex
	countdowns []int
	shutters   int
	captures   []int
}

func (o *recordingObserver) OnCountdown(n int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.countdowns = append(o.countdowns, n)
}

func (o *recordingObserver) OnShutter(time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.shutters++
}

func (o *recordingObserver) OnCapture(index int, img image.Image) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if img != nil {
		o.captures = append(o.captures, index)
	}
}

func fastConfig() Config {
	return Config{Countdown: 3, TickInterval: time.Millisecond, Flash: time.Hour}
}

func TestRunnerCapturesAfterCountdown(t *testing.T) {
	cfg := fastConfig()
	s := New(2, GrabberFunc(func() image.Image { return solid(color.White) }), cfg, quietLogger())
	obs := &recordingObserver{}
	r := NewRunner(s, cfg, obs)

	if !r.Start(context.Background()) {
		t.Fatal("runner refused to start")
	}
	if r.Start(context.Background()) {
		t.Error("second start accepted while counting down")
	}
	r.Wait()

	obs.mu.Lock()
	defer obs.mu.Unlock()
	want := []int{3, 2, 1, 0}
	if len(obs.countdowns) != len(want) {
		t.Fatalf("Expected countdown %v, got %v", want, obs.countdowns)
	}
	for i := range want {
		if obs.countdowns[i] != want[i] {
			t.Fatalf("Expected countdown %v, got %v", want, obs.countdowns)
		}
	}
	if obs.shutters != 1 {
		t.Errorf("Expected one shutter, got %d", obs.shutters)
	}
	if len(obs.captures) != 1 || obs.captures[0] != 0 {
		t.Errorf("Expected capture of slot 0, got %v", obs.captures)
	}
	if !r.Flashing() {
		t.Error("flash should still be showing")
	}
	if s.CurrentSlot() != 1 {
		t.Errorf("Expected cursor 1, got %d", s.CurrentSlot())
	}
}

func TestRunnerStopCancels(t *testing.T) {
	cfg := Config{Countdown: 3, TickInterval: time.Hour, Flash: time.Millisecond}
	s, cam := newSession(1)
	r := NewRunner(s, cfg, nil)

	if !r.Start(context.Background()) {
		t.Fatal("runner refused to start")
	}
	r.Stop()

	if s.State() != Idle {
		t.Errorf("Expected idle after stop, got %v", s.State())
	}
	if cam.grabs != 0 {
		t.Error("stop must not capture")
	}
	if r.Flashing() {
		t.Error("no flash without a shutter")
	}
}

func TestRunnerContextCancel(t *testing.T) {
	cfg := Config{Countdown: 3, TickInterval: time.Hour}
	s, _ := newSession(1)
	r := NewRunner(s, cfg, nil)

	ctx, cancel := context.WithCancel(context.Background())
	r.Start(ctx)
	cancel()
	r.Wait()

	if _, running := s.CountdownValue(); running {
		t.Error("countdown should end with its context")
	}
}

func TestRunnerExitsOnFrameSwitch(t *testing.T) {
	cfg := Config{Countdown: 3, TickInterval: 5 * time.Millisecond}
	s, cam := newSession(2)
	r := NewRunner(s, cfg, nil)

	r.Start(context.Background())
	s.SwitchFrame(3)
	r.Wait()

	if cam.grabs != 0 || len(s.Images()) != 0 {
		t.Error("switched session must not receive a capture")
	}
}

func TestRunnerStopWithoutStart(t *testing.T) {
	s, _ := newSession(1)
	r := NewRunner(s, Config{}, nil)
	r.Stop()
	r.Wait()
	if r.Session() != s {
		t.Error("Session() should return the driven session")
	}
}

func TestRunnerRestartAfterClearedCountdown(t *testing.T) {
	cfg := Config{Countdown: 3, TickInterval: 40 * time.Millisecond, Flash: time.Millisecond}
	s := New(1, GrabberFunc(func() image.Image { return solid(color.White) }), cfg, quietLogger())
	obs := &recordingObserver{}
	r := NewRunner(s, cfg, obs)
	ctx := context.Background()

	if !r.Start(ctx) {
		t.Fatal("runner refused to start")
	}
	time.Sleep(20 * time.Millisecond)
	s.Cancel()

	started := time.Now()
	if !r.Start(ctx) {
		t.Fatal("runner refused to restart after cancel")
	}
	r.Wait()
	elapsed := time.Since(started)

	obs.mu.Lock()
	defer obs.mu.Unlock()
	want := []int{3, 3, 2, 1, 0}
	if len(obs.countdowns) != len(want) {
		t.Fatalf("Expected countdown %v, got %v", want, obs.countdowns)
	}
	for i := range want {
		if obs.countdowns[i] != want[i] {
			t.Fatalf("Expected countdown %v, got %v", want, obs.countdowns)
		}
	}
	if elapsed < 3*cfg.TickInterval {
		t.Errorf("countdown finished after %v, two timers were ticking", elapsed)
	}
	if len(obs.captures) != 1 {
		t.Errorf("Expected one capture, got %v", obs.captures)
	}
}
