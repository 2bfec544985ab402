// Package device abstracts the camera the booth captures from.
package device

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"

	"github.com/menta2k/photobooth/internal/utils"
	"github.com/menta2k/photobooth/pkg/processing"
)

// ErrDevice is returned when no camera is available or access was denied.
var ErrDevice = errors.New("device: camera unavailable")

// UnavailableMessage is shown in place of the live preview while the camera cannot be used.
const UnavailableMessage = "Could not access the camera. Please check permissions and try again."

// Device hands out live streams.
type Device interface {
	Acquire(ctx context.Context) (Stream, error)
}

// Stream is one live handle on a device.
type Stream interface {
	// GrabFrame returns the current frame, or nil while the device is not producing frames yet.
	GrabFrame() image.Image
	Release() error
}

// Peeker is implemented by streams whose GrabFrame consumes a frame. PeekFrame
// returns the frame the next GrabFrame would, without consuming it.
type Peeker interface {
	PeekFrame() image.Image
}

// BufferDevice serves frames written into a FrameBuffer by some producer.
type BufferDevice struct {
	buffer *FrameBuffer
}

func NewBufferDevice(buffer *FrameBuffer) *BufferDevice {
	return &BufferDevice{buffer: buffer}
}

func (d *BufferDevice) Acquire(ctx context.Context) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if d.buffer == nil {
		return nil, fmt.Errorf("%w: no frame buffer", ErrDevice)
	}
	return &bufferStream{buffer: d.buffer}, nil
}

type bufferStream struct {
	buffer   *FrameBuffer
	released bool
	mu       sync.Mutex
}

func (s *bufferStream) GrabFrame() image.Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return nil
	}
	return s.buffer.Read()
}

func (s *bufferStream) Release() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.released = true
	return nil
}

// DirDevice plays back the image files of a directory, one per grab, in
// lexical order, wrapping around at the end.
type DirDevice struct {
	dir       string
	processor *processing.Processor
	logger    *slog.Logger
}

func NewDirDevice(dir string, logger *slog.Logger) *DirDevice {
	if logger == nil {
		logger = slog.Default()
	}
	return &DirDevice{dir: dir, processor: processing.NewProcessor(), logger: logger}
}

func (d *DirDevice) Acquire(ctx context.Context) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	files, err := utils.ListImageFiles(d.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDevice, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no images in %s", ErrDevice, d.dir)
	}
	d.logger.Debug("Acquired directory camera", "dir", d.dir, "frames", len(files))
	return &dirStream{files: files, processor: d.processor, logger: d.logger}, nil
}

type dirStream struct {
	files     []string
	next      int
	released  bool
	processor *processing.Processor
	logger    *slog.Logger
	mu        sync.Mutex
}

func (s *dirStream) GrabFrame() image.Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return nil
	}

	img := s.loadLocked()
	s.next++
	return img
}

func (s *dirStream) PeekFrame() image.Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return nil
	}
	return s.loadLocked()
}

func (s *dirStream) loadLocked() image.Image {
	path := s.files[s.next%len(s.files)]
	img, err := s.processor.LoadImage(path)
	if err != nil {
		s.logger.Warn("Skipping unreadable frame", "path", path, "error", err)
		return nil
	}
	return img
}

func (s *dirStream) Release() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.released = true
	return nil
}
