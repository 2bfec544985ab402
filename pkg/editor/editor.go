// Package editor authors new frame templates: a draft frame with a
// background, an aspect ratio and slots placed by pointer drags on a scaled
// preview.
package editor

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"

	"github.com/menta2k/photobooth/pkg/geometry"
	"github.com/menta2k/photobooth/pkg/processing"
	"github.com/menta2k/photobooth/pkg/types"
)

var (
	ErrMissingName       = errors.New("editor: frame name is required")
	ErrMissingBackground = errors.New("editor: background image is required")
	ErrNoSlots           = errors.New("editor: frame needs at least one slot")
	ErrNoSelection       = errors.New("editor: no slot selected")
	ErrSlotOutOfRange    = errors.New("editor: slot index out of range")
)

// DefaultAspectRatio is used until a background is uploaded.
const DefaultAspectRatio = 16.0 / 9.0

// defaultSlot is the square added by AddSlot.
var defaultSlot = types.Slot{X: 25, Y: 25, Width: 50, Height: 50}

// surfaceColor fills the preview before a background is uploaded.
var surfaceColor = color.NRGBA{209, 213, 219, 255}

// duplicateOffset is how far, in percent, a duplicated slot is shifted.
const duplicateOffset = 5.0

// Config sizes the editor preview.
type Config struct {
	MinScale  float64
	MaxScale  float64
	ScaleStep float64
	// BaseWidth is the preview width in pixels at 100%.
	BaseWidth float64
}

// DefaultConfig returns the [0.1,4.0] zoom range over a 500px wide preview.
func DefaultConfig() Config {
	return Config{
		MinScale:  0.1,
		MaxScale:  4.0,
		ScaleStep: 0.1,
		BaseWidth: 500,
	}
}

// Editor owns a draft frame until Save. It is not safe for concurrent use.
type Editor struct {
	name        string
	background  string
	aspectRatio float64
	slots       []types.Slot
	selected    int

	zoom      *geometry.Zoom
	baseWidth float64
	active    *Interaction

	processor *processing.Processor
	now       func() time.Time
	logger    *slog.Logger
}

// New creates an empty draft.
func New(cfg Config, logger *slog.Logger) *Editor {
	def := DefaultConfig()
	if cfg.MaxScale <= 0 || cfg.MinScale <= 0 || cfg.MinScale > cfg.MaxScale {
		cfg.MinScale, cfg.MaxScale = def.MinScale, def.MaxScale
	}
	if cfg.ScaleStep <= 0 {
		cfg.ScaleStep = def.ScaleStep
	}
	if cfg.BaseWidth <= 0 {
		cfg.BaseWidth = def.BaseWidth
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Editor{
		aspectRatio: DefaultAspectRatio,
		selected:    -1,
		zoom:        geometry.NewZoom(cfg.MinScale, cfg.MaxScale, cfg.ScaleStep),
		baseWidth:   cfg.BaseWidth,
		processor:   processing.NewProcessor(),
		now:         time.Now,
		logger:      logger,
	}
}

// SetClock replaces the clock used to mint frame ids.
func (e *Editor) SetClock(now func() time.Time) {
	e.now = now
}

func (e *Editor) SetName(name string) {
	e.name = name
}

func (e *Editor) Name() string {
	return e.name
}

// SetBackground reads the natural size of an uploaded image, takes its aspect
// ratio and stores it as a data URL. An empty name defaults to filename
// without its extension.
func (e *Editor) SetBackground(filename string, data []byte) error {
	info, err := e.processor.Inspect(data)
	if err != nil {
		return fmt.Errorf("background %s: %w", filename, err)
	}

	e.aspectRatio = info.AspectRatio
	e.background = processing.DataURL(data, info.Format)
	if e.name == "" {
		base := filepath.Base(filename)
		e.name = strings.TrimSuffix(base, filepath.Ext(base))
	}

	e.logger.Debug("Background set", "file", filename, "width", info.Width, "height", info.Height)
	return nil
}

// Background returns the background data URL, or "".
func (e *Editor) Background() string {
	return e.background
}

func (e *Editor) AspectRatio() float64 {
	return e.aspectRatio
}

// Slots returns a copy of the draft's slots.
func (e *Editor) Slots() []types.Slot {
	return append([]types.Slot(nil), e.slots...)
}

// Selected returns the selected slot index.
func (e *Editor) Selected() (int, bool) {
	return e.selected, e.selected >= 0
}

// Select marks slot i as selected.
func (e *Editor) Select(i int) error {
	if i < 0 || i >= len(e.slots) {
		return fmt.Errorf("%w: %d", ErrSlotOutOfRange, i)
	}
	e.selected = i
	return nil
}

// ClearSelection is what a press on the empty surface does.
func (e *Editor) ClearSelection() {
	e.selected = -1
}

// AddSlot appends a centered 50% square and selects it.
func (e *Editor) AddSlot() int {
	e.slots = append(e.slots, defaultSlot)
	e.selected = len(e.slots) - 1
	return e.selected
}

// SetSlot replaces slot i with the clamped value of s.
func (e *Editor) SetSlot(i int, s types.Slot) error {
	if i < 0 || i >= len(e.slots) {
		return fmt.Errorf("%w: %d", ErrSlotOutOfRange, i)
	}
	e.slots[i] = geometry.ClampSlot(s)
	return nil
}

// DuplicateSelectedSlot appends a copy of the selected slot shifted by 5% on
// both axes, stopping at the far edges, and selects the copy.
func (e *Editor) DuplicateSelectedSlot() (int, error) {
	if e.selected < 0 {
		return -1, ErrNoSelection
	}
	src := e.slots[e.selected]
	dup := src
	dup.X = math.Min(src.X+duplicateOffset, 100-src.Width)
	dup.Y = math.Min(src.Y+duplicateOffset, 100-src.Height)

	e.slots = append(e.slots, dup)
	e.selected = len(e.slots) - 1
	return e.selected, nil
}

// DeleteSelectedSlot removes the selected slot and clears the selection.
func (e *Editor) DeleteSelectedSlot() error {
	if e.selected < 0 {
		return ErrNoSelection
	}
	e.slots = append(e.slots[:e.selected], e.slots[e.selected+1:]...)
	e.selected = -1
	e.active = nil
	return nil
}

// Zoom exposes the preview scale controls.
func (e *Editor) Zoom() *geometry.Zoom {
	return e.zoom
}

// ContainerSize is the preview size at 100%.
func (e *Editor) ContainerSize() types.Size {
	return types.Size{Width: e.baseWidth, Height: e.baseWidth / e.aspectRatio}
}

// PreviewSize is the on-screen preview size at the current scale.
func (e *Editor) PreviewSize() types.Size {
	c := e.ContainerSize()
	s := e.zoom.Value()
	return types.Size{Width: c.Width * s, Height: c.Height * s}
}

// Validate reports why the draft cannot be saved, if it cannot.
func (e *Editor) Validate() error {
	switch {
	case strings.TrimSpace(e.name) == "":
		return ErrMissingName
	case e.background == "":
		return ErrMissingBackground
	case len(e.slots) == 0:
		return ErrNoSlots
	}
	return nil
}

// CanSave reports whether Save would succeed.
func (e *Editor) CanSave() bool {
	return e.Validate() == nil
}

// Save turns the draft into a custom frame. The draft itself is unchanged.
func (e *Editor) Save() (types.Frame, error) {
	if err := e.Validate(); err != nil {
		return types.Frame{}, err
	}
	return types.Frame{
		ID:              fmt.Sprintf("custom-%d", e.now().UnixMilli()),
		Name:            e.name,
		AspectRatio:     e.aspectRatio,
		Slots:           e.Slots(),
		BackgroundImage: e.background,
		IsCustom:        true,
	}, nil
}

// RenderOverlay draws the draft at preview size: background (or a grey
// surface before one is uploaded) with every slot outlined.
func (e *Editor) RenderOverlay(ctx context.Context) (image.Image, error) {
	size := e.PreviewSize()
	w := int(math.Round(size.Width))
	h := int(math.Round(size.Height))
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("editor: preview has zero size %dx%d", w, h)
	}

	var base image.Image
	if e.background != "" {
		bg, err := e.processor.LoadImageSmart(ctx, e.background)
		if err != nil {
			return nil, fmt.Errorf("failed to load background: %w", err)
		}
		base = imaging.Resize(bg, w, h, imaging.Lanczos)
	} else {
		base = imaging.New(w, h, surfaceColor)
	}
	return e.processor.CreateSlotOverlay(base, e.slots, e.selected), nil
}
