package compositor

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"strconv"

	"github.com/disintegration/imaging"

	"github.com/menta2k/photobooth/pkg/geometry"
	"github.com/menta2k/photobooth/pkg/processing"
	"github.com/menta2k/photobooth/pkg/types"
)

var (
	placeholderFill = color.NRGBA{229, 231, 235, 255}
	placeholderText = color.NRGBA{107, 114, 128, 255}
	shutterFlash    = color.NRGBA{255, 255, 255, 255}
	countdownShade  = color.NRGBA{0, 0, 0, 64}
)

// PreviewState is what the live preview shows besides the frame itself.
type PreviewState struct {
	Images map[int]image.Image
	// Current is the slot showing the live feed.
	Current int
	// Live is the latest device frame, or nil.
	Live image.Image
	// Complete hides the live feed once every slot is filled.
	Complete bool
	// Countdown is drawn over the live slot when positive.
	Countdown int
	Flash     bool
}

// PreviewSize is the live preview size at scale: height is the base height
// times scale, width follows the frame's aspect ratio.
func (c *Compositor) PreviewSize(frame types.Frame, scale float64) types.Size {
	h := c.config.PreviewBaseHeight * scale
	return types.Size{Width: h * frame.AspectRatio, Height: h}
}

// Preview renders the on-screen booth view: captured photos, the live feed in
// the current slot, "Photo N" placeholders elsewhere, and the background on
// top.
func (c *Compositor) Preview(ctx context.Context, frame types.Frame, scale float64, st PreviewState) (*image.NRGBA, error) {
	size := c.PreviewSize(frame, scale)
	w := int(math.Round(size.Width))
	h := int(math.Round(size.Height))
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: preview of %s", ErrNoCanvas, frame.ID)
	}

	canvas := imaging.New(w, h, color.Transparent)
	for i, slot := range frame.Slots {
		r := geometry.ToPixelRect(slot, float64(w), float64(h)).Image()
		if r.Empty() {
			continue
		}

		if img, ok := st.Images[i]; ok && img != nil {
			canvas = imaging.Paste(canvas, imaging.Fill(img, r.Dx(), r.Dy(), imaging.Center, imaging.Linear), r.Min)
			continue
		}

		if i == st.Current && !st.Complete {
			c.drawLive(canvas, r, st)
			continue
		}

		processing.FillRect(canvas, r, placeholderFill)
		processing.DrawLabel(canvas, r, "Photo "+strconv.Itoa(i+1), float64(r.Dy())/8, placeholderText)
	}

	if frame.HasBackground() {
		bg, err := c.processor.LoadImageSmart(ctx, frame.BackgroundImage)
		if err != nil {
			return nil, fmt.Errorf("failed to load frame background: %w", err)
		}
		canvas = imaging.Overlay(canvas, imaging.Resize(bg, w, h, imaging.Linear), image.Point{}, 1.0)
	}
	return canvas, nil
}

// drawLive fills r with the live feed plus countdown and shutter overlays.
func (c *Compositor) drawLive(canvas *image.NRGBA, r image.Rectangle, st PreviewState) {
	if st.Live != nil {
		live := imaging.Fill(st.Live, r.Dx(), r.Dy(), imaging.Center, imaging.Linear)
		draw.Draw(canvas, r, live, image.Point{}, draw.Src)
	} else {
		processing.FillRect(canvas, r, color.NRGBA{0, 0, 0, 255})
	}

	if st.Countdown > 0 {
		processing.FillRect(canvas, r, countdownShade)
		processing.DrawLabel(canvas, r, strconv.Itoa(st.Countdown), float64(r.Dy())/2, color.White)
	}
	if st.Flash {
		processing.FillRect(canvas, r, shutterFlash)
	}
}
