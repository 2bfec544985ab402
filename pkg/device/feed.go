package device

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"

	"github.com/disintegration/imaging"
)

// Feed owns the single live stream of a mounted session. Starting it again
// releases the previous stream first so device handles never leak.
type Feed struct {
	device Device
	mirror bool
	stream Stream
	err    error
	logger *slog.Logger
	mu     sync.Mutex
}

// NewFeed wraps a device. With mirror set, grabbed frames are flipped
// horizontally to match the selfie-style live view.
func NewFeed(device Device, mirror bool, logger *slog.Logger) *Feed {
	if logger == nil {
		logger = slog.Default()
	}
	return &Feed{device: device, mirror: mirror, logger: logger}
}

// Start acquires a stream. A failure is remembered and reported by Err until
// a later Start succeeds.
func (f *Feed) Start(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.releaseLocked()

	stream, err := f.device.Acquire(ctx)
	if err != nil {
		if !errors.Is(err, ErrDevice) {
			err = fmt.Errorf("%w: %v", ErrDevice, err)
		}
		f.err = err
		f.logger.Error("Error accessing camera", "error", err)
		return err
	}

	f.stream = stream
	f.err = nil
	return nil
}

// Retry is Start under the name the user-facing action uses.
func (f *Feed) Retry(ctx context.Context) error {
	return f.Start(ctx)
}

// Stop releases the live stream, if any.
func (f *Feed) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.releaseLocked()
}

// Grab returns the current frame, or nil when there is no live stream or the
// device has not produced a frame yet.
func (f *Feed) Grab() image.Image {
	f.mu.Lock()
	stream := f.stream
	f.mu.Unlock()

	if stream == nil {
		return nil
	}
	return f.frame(stream.GrabFrame())
}

// Peek is Grab for display: streams implementing Peeker are not advanced.
func (f *Feed) Peek() image.Image {
	f.mu.Lock()
	stream := f.stream
	f.mu.Unlock()

	if stream == nil {
		return nil
	}
	if p, ok := stream.(Peeker); ok {
		return f.frame(p.PeekFrame())
	}
	return f.frame(stream.GrabFrame())
}

func (f *Feed) frame(img image.Image) image.Image {
	if img == nil {
		return nil
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil
	}
	if f.mirror {
		return imaging.FlipH(img)
	}
	return img
}

// Live reports whether a stream is currently held.
func (f *Feed) Live() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stream != nil
}

// Err returns the last acquisition error, or nil.
func (f *Feed) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// Status is the inline message to show instead of the live preview, or "".
func (f *Feed) Status() string {
	if f.Err() != nil {
		return UnavailableMessage
	}
	return ""
}

func (f *Feed) releaseLocked() error {
	if f.stream == nil {
		return nil
	}
	err := f.stream.Release()
	f.stream = nil
	if err != nil {
		f.logger.Warn("Failed to release camera stream", "error", err)
		return fmt.Errorf("release stream: %w", err)
	}
	return nil
}
