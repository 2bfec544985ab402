package editor

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/menta2k/photobooth/pkg/types"
)

// createTestPNG encodes a solid image of the given size.
func createTestPNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{200, 100, 50, 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func slotNear(a, b types.Slot) bool {
	return near(a.X, b.X) && near(a.Y, b.Y) && near(a.Width, b.Width) && near(a.Height, b.Height)
}

func checkBounds(t *testing.T, s types.Slot) {
	t.Helper()
	if s.X < 0 || s.Y < 0 || s.X+s.Width > 100+1e-9 || s.Y+s.Height > 100+1e-9 || s.Width < 5 || s.Height < 5 {
		t.Errorf("slot out of bounds: %+v", s)
	}
}

func TestSetBackground(t *testing.T) {
	e := New(DefaultConfig(), nil)
	if err := e.SetBackground("party time.png", createTestPNG(t, 800, 600)); err != nil {
		t.Fatalf("SetBackground failed: %v", err)
	}
	if !near(e.AspectRatio(), 4.0/3.0) {
		t.Errorf("Expected aspect 4/3, got %v", e.AspectRatio())
	}
	if e.Name() != "party time" {
		t.Errorf("Expected name from file, got %q", e.Name())
	}
	if !strings.HasPrefix(e.Background(), "data:image/png;base64,") {
		t.Errorf("Expected PNG data URL, got %.30s", e.Background())
	}

	// An explicit name is kept.
	e2 := New(DefaultConfig(), nil)
	e2.SetName("Wedding")
	e2.SetBackground("bg.png", createTestPNG(t, 10, 10))
	if e2.Name() != "Wedding" {
		t.Errorf("name should not be replaced, got %q", e2.Name())
	}

	if err := e.SetBackground("notes.txt", []byte("not an image")); err == nil {
		t.Error("Expected error for non-image upload")
	}
}

func TestSlotOperations(t *testing.T) {
	e := New(DefaultConfig(), nil)

	if i := e.AddSlot(); i != 0 {
		t.Fatalf("Expected index 0, got %d", i)
	}
	if got := e.Slots()[0]; got != (types.Slot{X: 25, Y: 25, Width: 50, Height: 50}) {
		t.Errorf("unexpected default slot %+v", got)
	}

	i, err := e.DuplicateSelectedSlot()
	if err != nil || i != 1 {
		t.Fatalf("Duplicate failed: %d %v", i, err)
	}
	if got := e.Slots()[1]; got != (types.Slot{X: 30, Y: 30, Width: 50, Height: 50}) {
		t.Errorf("unexpected duplicate %+v", got)
	}
	if sel, ok := e.Selected(); !ok || sel != 1 {
		t.Errorf("duplicate should be selected, got %d", sel)
	}

	e.SetSlot(1, types.Slot{X: 60, Y: 58, Width: 40, Height: 40})
	dup, _ := e.DuplicateSelectedSlot()
	if got := e.Slots()[dup]; got.X != 60 || got.Y != 60 {
		t.Errorf("duplicate should stop at the far edge, got %+v", got)
	}

	e.Select(0)
	if err := e.DeleteSelectedSlot(); err != nil {
		t.Fatal(err)
	}
	if len(e.Slots()) != 2 {
		t.Errorf("Expected 2 slots, got %d", len(e.Slots()))
	}
	if _, ok := e.Selected(); ok {
		t.Error("delete should clear selection")
	}

	if _, err := e.DuplicateSelectedSlot(); !errors.Is(err, ErrNoSelection) {
		t.Errorf("Expected ErrNoSelection, got %v", err)
	}
	if err := e.DeleteSelectedSlot(); !errors.Is(err, ErrNoSelection) {
		t.Errorf("Expected ErrNoSelection, got %v", err)
	}
	if err := e.Select(7); !errors.Is(err, ErrSlotOutOfRange) {
		t.Errorf("Expected ErrSlotOutOfRange, got %v", err)
	}
}

func TestSaveValidation(t *testing.T) {
	bg := createTestPNG(t, 160, 90)

	tests := []struct {
		name    string
		setup   func(e *Editor)
		wantErr error
	}{
		{
			name:    "empty draft",
			setup:   func(e *Editor) {},
			wantErr: ErrMissingName,
		},
		{
			name:    "name only",
			setup:   func(e *Editor) { e.SetName("Strip") },
			wantErr: ErrMissingBackground,
		},
		{
			name: "no slots",
			setup: func(e *Editor) {
				e.SetBackground("strip.png", bg)
			},
			wantErr: ErrNoSlots,
		},
		{
			name: "blank name",
			setup: func(e *Editor) {
				e.SetName("   ")
				e.SetBackground("strip.png", bg)
				e.AddSlot()
			},
			wantErr: ErrMissingName,
		},
		{
			name: "complete",
			setup: func(e *Editor) {
				e.SetBackground("strip.png", bg)
				e.AddSlot()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(DefaultConfig(), nil)
			tt.setup(e)
			_, err := e.Save()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
			if e.CanSave() != (tt.wantErr == nil) {
				t.Errorf("CanSave disagrees with Save")
			}
		})
	}
}

func TestSaveFrame(t *testing.T) {
	e := New(DefaultConfig(), nil)
	e.SetClock(func() time.Time { return time.UnixMilli(1700000000123) })
	e.SetBackground("Summer Party.png", createTestPNG(t, 90, 160))
	e.AddSlot()

	f, err := e.Save()
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if f.ID != "custom-1700000000123" {
		t.Errorf("unexpected id %q", f.ID)
	}
	if !f.IsCustom || f.Name != "Summer Party" || len(f.Slots) != 1 || !f.HasBackground() {
		t.Errorf("unexpected frame %+v", f)
	}
	if !near(f.AspectRatio, 90.0/160.0) {
		t.Errorf("Expected 9:16 aspect, got %v", f.AspectRatio)
	}

	// The saved frame does not alias the draft.
	e.SetSlot(0, types.Slot{X: 0, Y: 0, Width: 10, Height: 10})
	if f.Slots[0].Width != 50 {
		t.Error("saved frame shares slots with the draft")
	}
}

func TestPreviewSize(t *testing.T) {
	e := New(DefaultConfig(), nil)
	got := e.PreviewSize()
	if !near(got.Width, 500) || !near(got.Height, 281.25) {
		t.Errorf("Expected 500x281.25, got %+v", got)
	}

	e.Zoom().Set(2)
	got = e.PreviewSize()
	if !near(got.Width, 1000) || !near(got.Height, 562.5) {
		t.Errorf("Expected 1000x562.5, got %+v", got)
	}

	for i := 0; i < 100; i++ {
		e.Zoom().In()
	}
	if e.Zoom().Value() != 4 {
		t.Errorf("Expected zoom to stop at 4, got %v", e.Zoom().Value())
	}
}

func TestRenderOverlay(t *testing.T) {
	e := New(DefaultConfig(), nil)
	e.SetBackground("bg.png", createTestPNG(t, 800, 600))
	e.AddSlot()

	img, err := e.RenderOverlay(context.Background())
	if err != nil {
		t.Fatalf("RenderOverlay failed: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 500 || b.Dy() != 375 {
		t.Errorf("Expected 500x375, got %dx%d", b.Dx(), b.Dy())
	}

	blank := New(DefaultConfig(), nil)
	img, err = blank.RenderOverlay(context.Background())
	if err != nil {
		t.Fatalf("RenderOverlay without background failed: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 500 || b.Dy() != 281 {
		t.Errorf("Expected 500x281, got %dx%d", b.Dx(), b.Dy())
	}
}
