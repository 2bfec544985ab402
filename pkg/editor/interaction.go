package editor

import (
	"fmt"
	"strings"

	"github.com/menta2k/photobooth/pkg/geometry"
	"github.com/menta2k/photobooth/pkg/types"
)

// Kind is the type of pointer gesture.
type Kind int

const (
	Move Kind = iota
	Resize
)

func (k Kind) String() string {
	if k == Resize {
		return "resize"
	}
	return "move"
}

// Handle names the corner held during a resize.
type Handle string

const (
	TopLeft     Handle = "tl"
	TopRight    Handle = "tr"
	BottomLeft  Handle = "bl"
	BottomRight Handle = "br"
)

func (h Handle) left() bool   { return strings.Contains(string(h), "l") }
func (h Handle) right() bool  { return strings.Contains(string(h), "r") }
func (h Handle) top() bool    { return strings.Contains(string(h), "t") }
func (h Handle) bottom() bool { return strings.Contains(string(h), "b") }

// ParseHandle accepts tl, tr, bl or br.
func ParseHandle(s string) (Handle, error) {
	switch h := Handle(strings.ToLower(s)); h {
	case TopLeft, TopRight, BottomLeft, BottomRight:
		return h, nil
	}
	return "", fmt.Errorf("unknown resize handle %q", s)
}

// Interaction is one drag gesture on one slot. Every Update writes the
// clamped result straight into the draft; End only forgets the snapshot.
type Interaction struct {
	editor   *Editor
	kind     Kind
	handle   Handle
	index    int
	start    types.Point
	original types.Slot
}

// BeginInteraction selects slot index and snapshots it together with the
// pointer position. pointer is in raw preview pixels. A gesture already in
// progress is replaced.
func (e *Editor) BeginInteraction(kind Kind, index int, handle Handle, pointer types.Point) (*Interaction, error) {
	if index < 0 || index >= len(e.slots) {
		return nil, fmt.Errorf("%w: %d", ErrSlotOutOfRange, index)
	}
	if kind == Resize {
		if _, err := ParseHandle(string(handle)); err != nil {
			return nil, err
		}
	}

	e.selected = index
	in := &Interaction{
		editor:   e,
		kind:     kind,
		handle:   handle,
		index:    index,
		start:    e.unscale(pointer),
		original: e.slots[index],
	}
	e.active = in
	return in, nil
}

// Active returns the gesture in progress, or nil.
func (e *Editor) Active() *Interaction {
	return e.active
}

// unscale divides a raw pointer position by the preview scale so drag
// arithmetic does not depend on zoom.
func (e *Editor) unscale(p types.Point) types.Point {
	s := e.zoom.Value()
	return types.Point{X: p.X / s, Y: p.Y / s}
}

// Update applies the pointer delta since Begin to the snapshot and stores the
// clamped slot. It returns the new slot value.
func (in *Interaction) Update(pointer types.Point) types.Slot {
	e := in.editor
	if e.active != in {
		return in.original
	}

	p := e.unscale(pointer)
	container := e.ContainerSize()
	dx := (p.X - in.start.X) / container.Width * 100
	dy := (p.Y - in.start.Y) / container.Height * 100

	next := in.original
	switch in.kind {
	case Move:
		next.X += dx
		next.Y += dy
	case Resize:
		if in.handle.left() {
			next.X += dx
			next.Width -= dx
		}
		if in.handle.right() {
			next.Width += dx
		}
		if in.handle.top() {
			next.Y += dy
			next.Height -= dy
		}
		if in.handle.bottom() {
			next.Height += dy
		}
	}

	next = geometry.ClampSlot(next)
	e.slots[in.index] = next
	return next
}

// End finishes the gesture. The last value written by Update stays.
func (in *Interaction) End() {
	if in.editor.active == in {
		in.editor.active = nil
	}
}

func (in *Interaction) Kind() Kind {
	return in.kind
}

func (in *Interaction) Index() int {
	return in.index
}
