// Package compositor renders a frame and its captured photos into one image:
// the full-resolution export and the scaled live preview.
package compositor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"

	"github.com/menta2k/photobooth/internal/utils"
	"github.com/menta2k/photobooth/pkg/geometry"
	"github.com/menta2k/photobooth/pkg/processing"
	"github.com/menta2k/photobooth/pkg/types"
)

// ErrNoCanvas is returned when the export canvas would have no pixels.
var ErrNoCanvas = errors.New("compositor: canvas has zero size")

// Config holds export and preview settings.
type Config struct {
	// BackgroundHeight is the export height for frames with a background.
	BackgroundHeight int
	// DefaultWidth is the export width for frames without one.
	DefaultWidth  int
	Suffix        string
	Format        string
	Interpolation string
	// PreviewBaseHeight is the live preview height at 100%.
	PreviewBaseHeight float64
}

// DefaultConfig returns 1080px/1200px PNG export with Catmull-Rom scaling.
func DefaultConfig() Config {
	return Config{
		BackgroundHeight:  1080,
		DefaultWidth:      1200,
		Suffix:            "-photobooth",
		Format:            processing.FormatPNG,
		Interpolation:     "catmullrom",
		PreviewBaseHeight: 480,
	}
}

// Compositor draws frames.
type Compositor struct {
	config    Config
	scaler    xdraw.Interpolator
	processor *processing.Processor
	logger    *slog.Logger
}

// New creates a compositor. Zero fields in cfg take their defaults.
func New(cfg Config, logger *slog.Logger) *Compositor {
	def := DefaultConfig()
	if cfg.BackgroundHeight <= 0 {
		cfg.BackgroundHeight = def.BackgroundHeight
	}
	if cfg.DefaultWidth <= 0 {
		cfg.DefaultWidth = def.DefaultWidth
	}
	if cfg.Suffix == "" {
		cfg.Suffix = def.Suffix
	}
	if cfg.Format == "" {
		cfg.Format = def.Format
	}
	if cfg.Interpolation == "" {
		cfg.Interpolation = def.Interpolation
	}
	if cfg.PreviewBaseHeight <= 0 {
		cfg.PreviewBaseHeight = def.PreviewBaseHeight
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Compositor{
		config:    cfg,
		scaler:    Interpolator(cfg.Interpolation),
		processor: processing.NewProcessor(),
		logger:    logger,
	}
}

// Interpolator maps a config name to an x/image scaler. Unknown names get
// Catmull-Rom.
func Interpolator(name string) xdraw.Interpolator {
	switch strings.ToLower(name) {
	case "nearest":
		return xdraw.NearestNeighbor
	case "approxbilinear":
		return xdraw.ApproxBiLinear
	case "bilinear":
		return xdraw.BiLinear
	default:
		return xdraw.CatmullRom
	}
}

// CanvasSize returns the export size. With a background the height is fixed
// and the width follows the background's natural aspect; without one the
// width is fixed and the height follows the frame's aspect ratio.
func (c *Compositor) CanvasSize(frame types.Frame, background *types.ImageInfo) (image.Point, error) {
	var w, h float64
	if background != nil && background.Height > 0 {
		h = float64(c.config.BackgroundHeight)
		w = float64(background.Width) * (h / float64(background.Height))
	} else {
		w = float64(c.config.DefaultWidth)
		h = w / frame.AspectRatio
	}

	if math.IsNaN(w) || math.IsNaN(h) || math.IsInf(w, 0) || math.IsInf(h, 0) {
		return image.Point{}, fmt.Errorf("%w: frame %s", ErrNoCanvas, frame.ID)
	}
	size := image.Pt(int(math.Round(w)), int(math.Round(h)))
	if size.X <= 0 || size.Y <= 0 {
		return image.Point{}, fmt.Errorf("%w: frame %s", ErrNoCanvas, frame.ID)
	}
	return size, nil
}

// Compose renders frame at export resolution with the given captured images.
// The background, if any, is loaded from the frame's data URL, path or URL.
func (c *Compositor) Compose(ctx context.Context, frame types.Frame, images map[int]image.Image) (*image.NRGBA, error) {
	var background image.Image
	if frame.HasBackground() {
		bg, err := c.processor.LoadImageSmart(ctx, frame.BackgroundImage)
		if err != nil {
			return nil, fmt.Errorf("failed to load frame background: %w", err)
		}
		background = bg
	}
	return c.Render(frame, images, background)
}

// ComposeSources loads every slot image and the background concurrently, then
// renders. Drawing happens only after every load has finished, in slot order.
func (c *Compositor) ComposeSources(ctx context.Context, frame types.Frame, sources map[int]string) (*image.NRGBA, error) {
	images := make([]image.Image, len(frame.Slots))
	var background image.Image

	g, gctx := errgroup.WithContext(ctx)
	for i := range frame.Slots {
		src, ok := sources[i]
		if !ok || src == "" {
			continue
		}
		g.Go(func() error {
			img, err := c.processor.LoadImageSmart(gctx, src)
			if err != nil {
				return fmt.Errorf("slot %d: %w", i+1, err)
			}
			images[i] = img
			return nil
		})
	}
	if frame.HasBackground() {
		g.Go(func() error {
			img, err := c.processor.LoadImageSmart(gctx, frame.BackgroundImage)
			if err != nil {
				return fmt.Errorf("frame background: %w", err)
			}
			background = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load images: %w", err)
	}

	byIndex := make(map[int]image.Image, len(images))
	for i, img := range images {
		if img != nil {
			byIndex[i] = img
		}
	}
	return c.Render(frame, byIndex, background)
}

// Render draws already-decoded images. Photos go first in slot order, each
// cover-fitted into its slot; the background is drawn last over the whole
// canvas. Slots without an image stay transparent.
func (c *Compositor) Render(frame types.Frame, images map[int]image.Image, background image.Image) (*image.NRGBA, error) {
	var bgInfo *types.ImageInfo
	if background != nil {
		info := processing.Info(background)
		bgInfo = &info
	}
	size, err := c.CanvasSize(frame, bgInfo)
	if err != nil {
		return nil, err
	}

	canvas := image.NewNRGBA(image.Rect(0, 0, size.X, size.Y))
	cw, ch := float64(size.X), float64(size.Y)

	for i, slot := range frame.Slots {
		img, ok := images[i]
		if !ok || img == nil {
			continue
		}
		dst := geometry.ToPixelRect(slot, cw, ch)
		c.drawCover(canvas, dst, img)
	}

	if background != nil {
		c.scaler.Scale(canvas, canvas.Bounds(), background, background.Bounds(), xdraw.Over, nil)
	}

	c.logger.Debug("Frame composed", "frame", frame.ID, "width", size.X, "height", size.Y, "photos", len(images))
	return canvas, nil
}

// drawCover draws the centered cover-fit crop of img stretched over dst.
func (c *Compositor) drawCover(canvas *image.NRGBA, dst geometry.Rect, img image.Image) {
	b := img.Bounds()
	if b.Empty() || dst.W <= 0 || dst.H <= 0 {
		return
	}
	crop := geometry.CoverFit(float64(b.Dx()), float64(b.Dy()), dst.W, dst.H)
	src := crop.Image().Add(b.Min).Intersect(b)
	if src.Empty() {
		return
	}
	c.scaler.Scale(canvas, dst.Image(), img, src, xdraw.Over, nil)
}

// Filename is the download name for frame in the configured format.
func (c *Compositor) Filename(frame types.Frame) string {
	return utils.ExportFilename(frame.Name, c.config.Suffix, c.exportFormat())
}

func (c *Compositor) exportFormat() string {
	if strings.EqualFold(c.config.Format, processing.FormatWebP) {
		return processing.FormatWebP
	}
	return processing.FormatPNG
}

// Export encodes img losslessly and writes it to w. Nothing is written
// unless encoding succeeds. It returns the download filename.
func (c *Compositor) Export(w io.Writer, frame types.Frame, img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := c.processor.Encode(&buf, img, c.exportFormat(), 100, true); err != nil {
		return "", fmt.Errorf("failed to encode export: %w", err)
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return "", fmt.Errorf("failed to write export: %w", err)
	}
	return c.Filename(frame), nil
}

// ExportFile writes the export into dir under its download filename and
// returns the full path. A failed export leaves no file behind.
func (c *Compositor) ExportFile(dir string, frame types.Frame, img image.Image) (string, error) {
	if err := utils.EnsureDir(dir); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	var buf bytes.Buffer
	name, err := c.Export(&buf, frame, img)
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}

	c.logger.Info("Exported frame", "frame", frame.ID, "path", path, "size", utils.FormatFileSize(int64(buf.Len())))
	return path, nil
}

// DataURL encodes the export as a data URL.
func (c *Compositor) DataURL(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := c.processor.Encode(&buf, img, c.exportFormat(), 100, true); err != nil {
		return "", fmt.Errorf("failed to encode export: %w", err)
	}
	return processing.DataURL(buf.Bytes(), c.exportFormat()), nil
}
