// Package geometry converts between percentage-space slots, pixel-space
// rectangles and cover-fit source crops.
package geometry

import (
	"image"
	"math"

	"github.com/menta2k/photobooth/pkg/types"
)

// MinSlotSize is the smallest width or height, in percent, a clamped slot can have.
const MinSlotSize = 5.0

// Rect is a rectangle in pixel space. Fields may be fractional.
type Rect struct {
	X float64
	Y float64
	W float64
	H float64
}

// Aspect returns W/H.
func (r Rect) Aspect() float64 {
	return r.W / r.H
}

// Image rounds each edge to the nearest pixel.
func (r Rect) Image() image.Rectangle {
	x0 := int(math.Round(r.X))
	y0 := int(math.Round(r.Y))
	x1 := int(math.Round(r.X + r.W))
	y1 := int(math.Round(r.Y + r.H))
	return image.Rect(x0, y0, x1, y1)
}

// ToPixelRect scales each percentage field of slot by the matching container dimension.
func ToPixelRect(slot types.Slot, containerWidth, containerHeight float64) Rect {
	return Rect{
		X: slot.X / 100 * containerWidth,
		Y: slot.Y / 100 * containerHeight,
		W: slot.Width / 100 * containerWidth,
		H: slot.Height / 100 * containerHeight,
	}
}

// CoverFit returns the centered sub-rectangle of the source that fills the
// target without distortion. The axis on which the source is proportionally
// larger is cropped; equal aspects take the height-crop branch.
func CoverFit(sourceWidth, sourceHeight, targetWidth, targetHeight float64) Rect {
	sourceAspect := sourceWidth / sourceHeight
	targetAspect := targetWidth / targetHeight

	if sourceAspect > targetAspect {
		sh := sourceHeight
		sw := sh * targetAspect
		return Rect{X: (sourceWidth - sw) / 2, Y: 0, W: sw, H: sh}
	}

	sw := sourceWidth
	sh := sw / targetAspect
	return Rect{X: 0, Y: (sourceHeight - sh) / 2, W: sw, H: sh}
}

// ClampSlot keeps a slot inside the frame. Position is clamped first against
// the unclamped size, then size is clamped against the clamped position, so a
// slot dragged from its top-left handle never inverts its far edge.
func ClampSlot(s types.Slot) types.Slot {
	s.X = clamp(s.X, 0, 100-s.Width)
	s.Y = clamp(s.Y, 0, 100-s.Height)
	s.Width = math.Max(MinSlotSize, math.Min(100-s.X, s.Width))
	s.Height = math.Max(MinSlotSize, math.Min(100-s.Y, s.Height))

	// The size floor can push the far edge past 100 when the slot hugs it.
	if s.X+s.Width > 100 {
		s.X = 100 - s.Width
	}
	if s.Y+s.Height > 100 {
		s.Y = 100 - s.Height
	}
	return s
}

// CanvasSize is the pixel size of a frame rendered at the given height.
func CanvasSize(aspectRatio, height float64) types.Size {
	return types.Size{Width: height * aspectRatio, Height: height}
}

// clamp is max(lo, min(hi, v)); lo wins when hi < lo.
func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
