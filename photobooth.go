// Package photobooth captures camera frames into multi-slot layout frames and
// composites the result into a single downloadable image.
//
// Basic usage:
//
//	booth := photobooth.New(photobooth.Options{
//		Device: device.NewDirDevice("./shots", nil),
//	})
//	if err := booth.Start(ctx); err != nil {
//		log.Fatal(err)
//	}
//	defer booth.Stop()
//
//	booth.SelectFrame(frames.FilmStripVertical)
//	for !booth.Session().IsComplete() {
//		if err := booth.Capture(ctx); err != nil {
//			log.Fatal(err)
//		}
//		booth.WaitCapture()
//	}
//
//	f, _ := os.Create("strip.png")
//	defer f.Close()
//	name, err := booth.Download(ctx, f)
//
// The package wires five components together:
//
// 1. Frames (pkg/frames): built-in and custom frame templates, persisted through pkg/storage
// 2. Device (pkg/device): the single live camera stream
// 3. Session (pkg/session): the countdown, shutter and slot-advance state machine
// 4. Editor (pkg/editor): authoring new frames on a scaled preview
// 5. Compositor (pkg/compositor): the live preview and the full-resolution export
//
// All layout data lives in percentage space (pkg/geometry); pixels only
// appear when a frame is drawn at a concrete size.
package photobooth

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"sync"

	"github.com/menta2k/photobooth/pkg/compositor"
	"github.com/menta2k/photobooth/pkg/device"
	"github.com/menta2k/photobooth/pkg/editor"
	"github.com/menta2k/photobooth/pkg/frames"
	"github.com/menta2k/photobooth/pkg/geometry"
	"github.com/menta2k/photobooth/pkg/session"
	"github.com/menta2k/photobooth/pkg/storage"
	"github.com/menta2k/photobooth/pkg/types"
)

// Version of the photobooth library
const Version = "1.0.0"

var (
	// ErrCaptureRefused is returned when a countdown is already running or
	// every slot is filled.
	ErrCaptureRefused = errors.New("photobooth: capture not possible now")
	// ErrExportInProgress is returned when a download is requested while
	// another one is being encoded.
	ErrExportInProgress = errors.New("photobooth: export already in progress")
)

// Options configures a Booth. Zero values take package defaults.
type Options struct {
	// Store persists custom frames. Nil keeps them in memory.
	Store      storage.Store
	StorageKey string

	// Device supplies camera frames. Nil means no camera.
	Device device.Device
	Mirror bool

	Session    session.Config
	Editor     editor.Config
	Compositor compositor.Config
	// Preview zoom range of the live view.
	PreviewMinScale  float64
	PreviewMaxScale  float64
	PreviewScaleStep float64

	Observer session.Observer
	Logger   *slog.Logger
}

// Booth is the photobooth application state: the frame catalog, the selected
// frame, its capture session and the camera feed.
type Booth struct {
	catalog    *frames.Catalog
	feed       *device.Feed
	session    *session.Session
	runner     *session.Runner
	compositor *compositor.Compositor
	zoom       *geometry.Zoom
	editorOpts editor.Config

	selected  types.Frame
	exporting bool
	logger    *slog.Logger
	mu        sync.Mutex
}

// New creates a booth with the first built-in frame selected.
func New(opts Options) *Booth {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.PreviewMinScale <= 0 || opts.PreviewMaxScale < opts.PreviewMinScale {
		opts.PreviewMinScale, opts.PreviewMaxScale = 0.5, 1.5
	}
	if opts.PreviewScaleStep <= 0 {
		opts.PreviewScaleStep = 0.05
	}

	catalog := frames.NewCatalog(opts.Store, opts.StorageKey, logger)
	dev := opts.Device
	if dev == nil {
		dev = device.NewBufferDevice(nil)
	}
	feed := device.NewFeed(dev, opts.Mirror, logger)

	selected := catalog.Default()
	sess := session.New(len(selected.Slots), feed, opts.Session, logger)

	return &Booth{
		catalog:    catalog,
		feed:       feed,
		session:    sess,
		runner:     session.NewRunner(sess, opts.Session, opts.Observer),
		compositor: compositor.New(opts.Compositor, logger),
		zoom:       geometry.NewZoom(opts.PreviewMinScale, opts.PreviewMaxScale, opts.PreviewScaleStep),
		editorOpts: opts.Editor,
		selected:   selected,
		logger:     logger,
	}
}

// Start acquires the camera. A failure leaves the booth usable but unable to
// capture until Retry succeeds.
func (b *Booth) Start(ctx context.Context) error {
	return b.feed.Start(ctx)
}

// Retry re-acquires the camera after a failure.
func (b *Booth) Retry(ctx context.Context) error {
	return b.feed.Retry(ctx)
}

// Stop cancels any countdown and releases the camera.
func (b *Booth) Stop() error {
	b.runner.Stop()
	return b.feed.Stop()
}

// CameraStatus is the inline message to show instead of the live view, or "".
func (b *Booth) CameraStatus() string {
	return b.feed.Status()
}

// Frames lists built-in then custom frames.
func (b *Booth) Frames() []types.Frame {
	return b.catalog.List()
}

func (b *Booth) Catalog() *frames.Catalog {
	return b.catalog
}

// SelectedFrame returns the active frame.
func (b *Booth) SelectedFrame() types.Frame {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.selected.Clone()
}

// SelectFrame switches the active frame. Any countdown is cancelled and the
// captured photos are discarded, even when id is already selected.
func (b *Booth) SelectFrame(id string) error {
	frame, ok := b.catalog.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", frames.ErrNotFound, id)
	}
	b.switchTo(frame)
	return nil
}

func (b *Booth) switchTo(frame types.Frame) {
	b.runner.Stop()

	b.mu.Lock()
	b.selected = frame
	b.mu.Unlock()

	b.session.SwitchFrame(len(frame.Slots))
	b.logger.Debug("Frame selected", "id", frame.ID, "slots", len(frame.Slots))
}

// DeleteFrame removes a custom frame. Deleting the active frame selects the
// default one. Built-ins are never removed.
func (b *Booth) DeleteFrame(id string) bool {
	if !b.catalog.Remove(id) {
		return false
	}
	if b.SelectedFrame().ID == id {
		b.switchTo(b.catalog.Default())
	}
	return true
}

// NewEditor starts a new frame draft.
func (b *Booth) NewEditor() *editor.Editor {
	return editor.New(b.editorOpts, b.logger)
}

// SaveDraft stores the edited frame and selects it.
func (b *Booth) SaveDraft(e *editor.Editor) (types.Frame, error) {
	frame, err := e.Save()
	if err != nil {
		return types.Frame{}, err
	}
	if err := b.catalog.Add(frame); err != nil {
		return types.Frame{}, err
	}
	b.switchTo(frame)
	return frame, nil
}

// Session exposes the capture session of the active frame.
func (b *Booth) Session() *session.Session {
	return b.session
}

// Zoom exposes the live preview scale.
func (b *Booth) Zoom() *geometry.Zoom {
	return b.zoom
}

// Capture starts a countdown for the current slot. It fails with
// device.ErrDevice while the camera is unavailable.
func (b *Booth) Capture(ctx context.Context) error {
	if !b.feed.Live() {
		if err := b.feed.Err(); err != nil {
			return err
		}
		return device.ErrDevice
	}
	if !b.runner.Start(ctx) {
		return ErrCaptureRefused
	}
	return nil
}

// WaitCapture blocks until the running countdown has finished.
func (b *Booth) WaitCapture() {
	b.runner.Wait()
}

// Retake clears one slot so the next capture fills it.
func (b *Booth) Retake(index int) error {
	return b.session.Retake(index)
}

// Reset discards every captured photo.
func (b *Booth) Reset() {
	b.session.Reset()
}

// Preview renders the live booth view at the current zoom.
func (b *Booth) Preview(ctx context.Context) (*image.NRGBA, error) {
	countdown, _ := b.session.CountdownValue()
	st := compositor.PreviewState{
		Images:    b.session.Images(),
		Current:   b.session.CurrentSlot(),
		Complete:  b.session.IsComplete(),
		Countdown: countdown,
		Flash:     b.runner.Flashing(),
		Live:      b.feed.Peek(),
	}
	return b.compositor.Preview(ctx, b.SelectedFrame(), b.zoom.Value(), st)
}

// Compose renders the active frame with its captured photos at export size.
func (b *Booth) Compose(ctx context.Context) (*image.NRGBA, error) {
	return b.compositor.Compose(ctx, b.SelectedFrame(), b.session.Images())
}

// Download composes and encodes the active frame into w and returns the file
// name to offer. Failures are logged and leave the booth ready to retry.
func (b *Booth) Download(ctx context.Context, w io.Writer) (string, error) {
	if err := b.beginExport(); err != nil {
		return "", err
	}
	defer b.endExport()

	frame := b.SelectedFrame()
	img, err := b.compositor.Compose(ctx, frame, b.session.Images())
	if err != nil {
		b.logger.Error("Failed to generate download image", "frame", frame.ID, "error", err)
		return "", err
	}
	name, err := b.compositor.Export(w, frame, img)
	if err != nil {
		b.logger.Error("Failed to generate download image", "frame", frame.ID, "error", err)
		return "", err
	}
	return name, nil
}

// DownloadFile is Download into a file in dir. It returns the file path.
func (b *Booth) DownloadFile(ctx context.Context, dir string) (string, error) {
	if err := b.beginExport(); err != nil {
		return "", err
	}
	defer b.endExport()

	frame := b.SelectedFrame()
	img, err := b.compositor.Compose(ctx, frame, b.session.Images())
	if err != nil {
		b.logger.Error("Failed to generate download image", "frame", frame.ID, "error", err)
		return "", err
	}
	return b.compositor.ExportFile(dir, frame, img)
}

func (b *Booth) beginExport() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.exporting {
		return ErrExportInProgress
	}
	b.exporting = true
	return nil
}

func (b *Booth) endExport() {
	b.mu.Lock()
	b.exporting = false
	b.mu.Unlock()
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}
