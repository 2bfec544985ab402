package session

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"log/slog"
	"testing"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func solid(c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// sequenceCamera returns a new distinct frame on every grab.
type sequenceCamera struct {
	grabs  int
	frames []image.Image
}

func (c *sequenceCamera) Grab() image.Image {
	img := solid(color.RGBA{uint8(c.grabs * 40), 0, 0, 255})
	c.grabs++
	c.frames = append(c.frames, img)
	return img
}

func newSession(slots int) (*Session, *sequenceCamera) {
	cam := &sequenceCamera{}
	return New(slots, cam, DefaultConfig(), quietLogger()), cam
}

// captureOnce runs a full 3-2-1 countdown by hand.
func captureOnce(t *testing.T, s *Session) Transition {
	t.Helper()
	if !s.Start() {
		t.Fatal("Start was refused")
	}
	var last Transition
	for i := 0; i < DefaultCountdown; i++ {
		last = s.Tick()
		if !last.Accepted {
			t.Fatalf("tick %d not accepted", i)
		}
	}
	if _, running := s.CountdownValue(); running {
		t.Fatal("countdown still running after three ticks")
	}
	return last
}

func TestCountdownSequence(t *testing.T) {
	s, cam := newSession(3)

	start := s.Handle(Event{Kind: EventStart})
	if !start.Accepted || start.From != Idle || start.To != Countdown || start.Countdown != 3 {
		t.Fatalf("unexpected start transition: %+v", start)
	}

	for _, want := range []int{2, 1} {
		tr := s.Tick()
		if tr.Countdown != want || tr.To != Countdown || tr.Shutter {
			t.Fatalf("Expected countdown %d, got %+v", want, tr)
		}
	}
	if cam.grabs != 0 {
		t.Fatal("camera grabbed before countdown reached zero")
	}

	final := s.Tick()
	if !final.Shutter || final.Captured != 0 || final.To != Idle || final.Countdown != -1 {
		t.Fatalf("unexpected final transition: %+v", final)
	}
	if cam.grabs != 1 {
		t.Errorf("Expected exactly one grab, got %d", cam.grabs)
	}
	if s.CurrentSlot() != 1 {
		t.Errorf("Expected cursor at 1, got %d", s.CurrentSlot())
	}

	if tr := s.Tick(); tr.Accepted {
		t.Error("ticks after the countdown finished must be ignored")
	}
}

func TestFullSession(t *testing.T) {
	for _, n := range []int{1, 2, 3, 4} {
		s, _ := newSession(n)
		for i := 0; i < n; i++ {
			if s.IsComplete() {
				t.Fatalf("%d slots: complete after %d captures", n, i)
			}
			captureOnce(t, s)
		}
		if len(s.Images()) != n || !s.IsComplete() || s.State() != Complete {
			t.Errorf("%d slots: expected complete mapping, got %d images state %v", n, len(s.Images()), s.State())
		}
		if s.Start() {
			t.Errorf("%d slots: start accepted on a complete session", n)
		}
	}
}

func TestReentrantStartIgnored(t *testing.T) {
	s, _ := newSession(2)
	if !s.Start() {
		t.Fatal("first start refused")
	}
	s.Tick()
	if s.Start() {
		t.Error("second start accepted while countdown running")
	}
	if v, _ := s.CountdownValue(); v != 2 {
		t.Errorf("re-entrant start must not restart the countdown, got %d", v)
	}
}

func TestNoFrameLeavesSlotEmpty(t *testing.T) {
	var frame image.Image
	s := New(2, GrabberFunc(func() image.Image { return frame }), DefaultConfig(), quietLogger())

	s.Start()
	s.Tick()
	s.Tick()
	tr := s.Tick()
	if !tr.Shutter {
		t.Error("shutter should flash even without a frame")
	}
	if tr.Captured != -1 || len(s.Images()) != 0 || s.CurrentSlot() != 0 {
		t.Fatalf("failed grab must not fill or advance: %+v, cursor %d", tr, s.CurrentSlot())
	}
	if s.State() != Idle {
		t.Errorf("Expected idle, got %v", s.State())
	}

	frame = solid(color.White)
	captureOnce(t, s)
	if _, ok := s.Image(0); !ok || s.CurrentSlot() != 1 {
		t.Error("retry after failed grab should fill slot 0")
	}
}

func TestNilGrabber(t *testing.T) {
	s := New(1, nil, DefaultConfig(), quietLogger())
	captureOnce(t, s)
	if len(s.Images()) != 0 {
		t.Error("session without a camera must not capture")
	}
}

func TestRetakeBeforeFrontier(t *testing.T) {
	s, cam := newSession(3)
	for i := 0; i < 3; i++ {
		captureOnce(t, s)
	}
	before := s.Images()

	if err := s.Retake(1); err != nil {
		t.Fatalf("Retake failed: %v", err)
	}
	if _, ok := s.Image(1); ok {
		t.Error("retake should clear the slot")
	}
	if s.CurrentSlot() != 1 || s.IsComplete() {
		t.Errorf("Expected cursor 1 and incomplete, got %d/%v", s.CurrentSlot(), s.IsComplete())
	}

	captureOnce(t, s)
	after := s.Images()

	if after[1] != cam.frames[3] {
		t.Error("slot 1 should hold the new frame")
	}
	for _, i := range []int{0, 2} {
		if after[i] != before[i] {
			t.Errorf("slot %d changed by retake", i)
		}
	}
	if s.CurrentSlot() != 2 {
		t.Errorf("Expected cursor 2 after retake capture, got %d", s.CurrentSlot())
	}
	if !s.IsComplete() {
		t.Error("session should be complete again")
	}
}

// Retaking behind the frontier moves the cursor back; forward captures then
// overwrite filled slots between the retaken index and the old frontier
// instead of skipping them.
func TestRetakeGapQuirk(t *testing.T) {
	s, cam := newSession(4)
	for i := 0; i < 3; i++ {
		captureOnce(t, s)
	}
	original2 := s.Images()[2]

	if err := s.Retake(1); err != nil {
		t.Fatal(err)
	}
	captureOnce(t, s) // fills 1, cursor 2
	captureOnce(t, s) // overwrites 2, cursor 3

	imgs := s.Images()
	if imgs[2] == original2 || imgs[2] != cam.frames[4] {
		t.Error("Expected slot 2 to be overwritten by the forward capture")
	}
	if s.CurrentSlot() != 3 || s.IsComplete() {
		t.Errorf("Expected cursor 3 and incomplete, got %d/%v", s.CurrentSlot(), s.IsComplete())
	}
}

func TestRetakeDuringCountdown(t *testing.T) {
	s, _ := newSession(3)
	captureOnce(t, s)
	captureOnce(t, s)

	s.Start()
	s.Tick()
	if err := s.Retake(0); err != nil {
		t.Fatalf("retake during countdown should be allowed: %v", err)
	}
	if v, running := s.CountdownValue(); !running || v != 2 {
		t.Errorf("retake must not cancel the countdown, got %d/%v", v, running)
	}
	s.Tick()
	tr := s.Tick()
	if tr.Captured != 0 {
		t.Errorf("countdown should fill the retaken slot, got %d", tr.Captured)
	}
}

func TestRetakeOutOfRange(t *testing.T) {
	s, _ := newSession(2)
	for _, i := range []int{-1, 2, 10} {
		if err := s.Retake(i); !errors.Is(err, ErrSlotOutOfRange) {
			t.Errorf("Retake(%d): expected ErrSlotOutOfRange, got %v", i, err)
		}
	}
}

func TestReset(t *testing.T) {
	s, _ := newSession(2)
	captureOnce(t, s)
	captureOnce(t, s)

	s.Reset()
	if len(s.Images()) != 0 || s.CurrentSlot() != 0 || s.State() != Idle {
		t.Errorf("reset should clear everything, got %d images cursor %d", len(s.Images()), s.CurrentSlot())
	}
}

func TestSwitchFrameAlwaysResets(t *testing.T) {
	s, _ := newSession(3)
	captureOnce(t, s)
	captureOnce(t, s)
	s.Retake(0)
	s.Start()
	s.Tick()

	s.SwitchFrame(4)

	if len(s.Images()) != 0 || s.CurrentSlot() != 0 {
		t.Errorf("switch should reset, got %d images cursor %d", len(s.Images()), s.CurrentSlot())
	}
	if _, running := s.CountdownValue(); running {
		t.Error("switch should abort the countdown")
	}
	if s.SlotCount() != 4 {
		t.Errorf("Expected 4 slots, got %d", s.SlotCount())
	}
}

func TestCancel(t *testing.T) {
	s, cam := newSession(1)
	s.Start()
	s.Tick()
	s.Cancel()
	if s.State() != Idle || cam.grabs != 0 {
		t.Errorf("cancel should return to idle without capturing")
	}
	if tr := s.Handle(Event{Kind: EventCancel}); tr.Accepted {
		t.Error("cancel without countdown should not be accepted")
	}
}

func TestZeroSlotFrameCannotStart(t *testing.T) {
	s, _ := newSession(0)
	if s.Start() {
		t.Error("a frame without slots cannot be captured into")
	}
}

func TestFilledSorted(t *testing.T) {
	s, _ := newSession(3)
	captureOnce(t, s)
	captureOnce(t, s)
	captureOnce(t, s)
	s.Retake(1)
	got := s.Filled()
	if len(got) != 2 || got[0] != 0 || got[1] != 2 {
		t.Errorf("Expected [0 2], got %v", got)
	}
}

func TestStateString(t *testing.T) {
	if Countdown.String() != "countdown" || State(9).String() != "State(9)" {
		t.Error("unexpected state names")
	}
}
