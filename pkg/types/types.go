package types

// Slot is a rectangle in percentage space, relative to a frame's bounding box.
// All fields are in [0,100].
type Slot struct {
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// Frame is a named layout template. Slot order is both the photo-taking
// order and the drawing order.
type Frame struct {
	ID          string  `json:"id" yaml:"id"`
	Name        string  `json:"name" yaml:"name"`
	AspectRatio float64 `json:"aspectRatio" yaml:"aspectRatio"`
	Slots       []Slot  `json:"slots" yaml:"slots"`
	// BackgroundImage is a data URL, file path or http(s) URL of the
	// decorative overlay drawn on top of the photos.
	BackgroundImage string `json:"backgroundImage,omitempty" yaml:"backgroundImage,omitempty"`
	IsCustom        bool   `json:"isCustom,omitempty" yaml:"isCustom,omitempty"`
	// StyleHint is decorative only and is never read by the compositor.
	StyleHint string `json:"className,omitempty" yaml:"className,omitempty"`
}

// HasBackground reports whether the frame carries a decorative overlay.
func (f Frame) HasBackground() bool {
	return f.BackgroundImage != ""
}

// Clone returns a deep copy of the frame.
func (f Frame) Clone() Frame {
	out := f
	out.Slots = append([]Slot(nil), f.Slots...)
	return out
}

// Point is a pointer position in pixels.
type Point struct {
	X float64
	Y float64
}

// Size is a width/height pair in pixels.
type Size struct {
	Width  float64
	Height float64
}

// ImageInfo contains basic image metadata
type ImageInfo struct {
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	AspectRatio float64 `json:"aspectRatio"`
	Format      string  `json:"format,omitempty"`
}
