package geometry

import "math"

// Zoom is a bounded preview scale. It only affects view-space sizes, never
// percentage-space data.
type Zoom struct {
	min   float64
	max   float64
	step  float64
	value float64
}

// NewZoom starts at 1 (100%) clamped into [min,max].
func NewZoom(min, max, step float64) *Zoom {
	z := &Zoom{min: min, max: max, step: step}
	z.Set(1)
	return z
}

// Value returns the current scale factor.
func (z *Zoom) Value() float64 {
	return z.value
}

// Percent is the scale as a rounded percentage, e.g. 105.
func (z *Zoom) Percent() int {
	return int(math.Round(z.value * 100))
}

// Set clamps v into range.
func (z *Zoom) Set(v float64) {
	z.value = math.Max(z.min, math.Min(z.max, roundScale(v)))
}

func (z *Zoom) In() {
	z.Set(z.value + z.step)
}

func (z *Zoom) Out() {
	z.Set(z.value - z.step)
}

func (z *Zoom) CanZoomIn() bool {
	return z.value < z.max
}

func (z *Zoom) CanZoomOut() bool {
	return z.value > z.min
}

// roundScale drops float noise that repeated steps accumulate.
func roundScale(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
