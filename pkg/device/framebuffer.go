package device

import (
	"image"
	"sync"
	"time"
)

// FrameBuffer holds only the most recent frame written by a producer.
// Frames overwritten before anyone read them are counted as dropped.
type FrameBuffer struct {
	frame      image.Image
	unread     bool
	frameCount uint64
	dropped    uint64
	lastFrame  time.Time
	mu         sync.RWMutex
}

func NewFrameBuffer() *FrameBuffer {
	return &FrameBuffer{}
}

// Write replaces the current frame.
func (b *FrameBuffer) Write(img image.Image) {
	if img == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.unread {
		b.dropped++
	}
	b.frame = img
	b.unread = true
	b.frameCount++
	b.lastFrame = time.Now()
}

// Read returns the latest frame, or nil before the first Write.
func (b *FrameBuffer) Read() image.Image {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.unread = false
	return b.frame
}

// Reset forgets the current frame, as when a stream is torn down.
func (b *FrameBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.frame = nil
	b.unread = false
}

func (b *FrameBuffer) GetFrameCount() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.frameCount
}

func (b *FrameBuffer) GetDroppedCount() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.dropped
}

func (b *FrameBuffer) GetLastFrameTime() time.Time {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastFrame
}
