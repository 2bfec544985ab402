package compositor

import (
	"context"
	"image"
	"math"
	"testing"

	"github.com/menta2k/photobooth/pkg/frames"
)

func TestPreviewSize(t *testing.T) {
	c := New(DefaultConfig(), nil)
	frame := builtin(t, frames.DuoHorizontal)

	got := c.PreviewSize(frame, 1)
	if math.Abs(got.Height-480) > 1e-9 || math.Abs(got.Width-480*16.0/9.0) > 1e-9 {
		t.Errorf("unexpected size %+v", got)
	}
	got = c.PreviewSize(frame, 0.5)
	if math.Abs(got.Height-240) > 1e-9 {
		t.Errorf("Expected height 240, got %v", got.Height)
	}
}

func TestPreviewSlots(t *testing.T) {
	c := New(DefaultConfig(), nil)
	frame := builtin(t, frames.QuadCollage)

	out, err := c.Preview(context.Background(), frame, 1, PreviewState{
		Images:  map[int]image.Image{0: createTestImage(30, 40, red)},
		Current: 1,
		Live:    createTestImage(64, 48, green),
	})
	if err != nil {
		t.Fatalf("Preview failed: %v", err)
	}
	if b := out.Bounds(); b.Dx() != 480 || b.Dy() != 480 {
		t.Fatalf("Expected 480x480, got %v", b)
	}

	assertColor(t, out, 120, 120, red)
	assertColor(t, out, 360, 120, green)
	// Placeholder corners, away from the centered label.
	assertColor(t, out, 5, 245, placeholderFill)
	assertColor(t, out, 475, 475, placeholderFill)
}

func TestPreviewCompleteHidesLiveFeed(t *testing.T) {
	c := New(DefaultConfig(), nil)
	frame := builtin(t, frames.ClassicSingle)

	out, err := c.Preview(context.Background(), frame, 0.5, PreviewState{
		Current:  1,
		Live:     createTestImage(10, 10, green),
		Complete: true,
		Images:   map[int]image.Image{0: createTestImage(10, 10, blue)},
	})
	if err != nil {
		t.Fatal(err)
	}
	assertColor(t, out, 10, 10, blue)
}

func TestPreviewFlashAndMissingFeed(t *testing.T) {
	c := New(DefaultConfig(), nil)
	frame := builtin(t, frames.ClassicSingle)

	out, err := c.Preview(context.Background(), frame, 1, PreviewState{Flash: true})
	if err != nil {
		t.Fatal(err)
	}
	assertColor(t, out, 5, 5, shutterFlash)

	out, err = c.Preview(context.Background(), frame, 1, PreviewState{Countdown: 2})
	if err != nil {
		t.Fatal(err)
	}
	// No device frame: black, dimmed by the countdown shade.
	assertColor(t, out, 5, 5, black)
}
