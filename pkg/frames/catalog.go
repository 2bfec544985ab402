// Package frames holds the catalog of frame templates: the fixed built-ins
// followed by user-created frames, which are persisted on every change.
package frames

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/menta2k/photobooth/pkg/storage"
	"github.com/menta2k/photobooth/pkg/types"
)

// DefaultStorageKey is the key custom frames are persisted under.
const DefaultStorageKey = "customFrames"

var (
	ErrNotFound     = errors.New("frames: frame not found")
	ErrDuplicateID  = errors.New("frames: duplicate frame id")
	ErrInvalidFrame = errors.New("frames: invalid frame")
)

// Catalog is the in-memory frame store. Built-ins cannot be removed.
type Catalog struct {
	builtins []types.Frame
	custom   []types.Frame
	store    storage.Store
	key      string
	logger   *slog.Logger
	mu       sync.RWMutex
}

// NewCatalog builds the catalog and merges any custom frames found in store.
// A nil store keeps custom frames in memory only. Entries that fail to parse
// are logged and dropped.
func NewCatalog(store storage.Store, key string, logger *slog.Logger) *Catalog {
	if key == "" {
		key = DefaultStorageKey
	}
	if logger == nil {
		logger = slog.Default()
	}
	c := &Catalog{
		builtins: Builtins(),
		store:    store,
		key:      key,
		logger:   logger,
	}
	c.load()
	return c
}

// List returns built-ins in catalog order followed by custom frames in creation order.
func (c *Catalog) List() []types.Frame {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]types.Frame, 0, len(c.builtins)+len(c.custom))
	for _, f := range c.builtins {
		out = append(out, f.Clone())
	}
	for _, f := range c.custom {
		out = append(out, f.Clone())
	}
	return out
}

// Custom returns only the user-created frames.
func (c *Catalog) Custom() []types.Frame {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]types.Frame, 0, len(c.custom))
	for _, f := range c.custom {
		out = append(out, f.Clone())
	}
	return out
}

// Default returns the first built-in frame.
func (c *Catalog) Default() types.Frame {
	return c.builtins[0].Clone()
}

// Get looks up a frame by id.
func (c *Catalog) Get(id string) (types.Frame, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if i := indexOf(c.builtins, id); i >= 0 {
		return c.builtins[i].Clone(), true
	}
	if i := indexOf(c.custom, id); i >= 0 {
		return c.custom[i].Clone(), true
	}
	return types.Frame{}, false
}

// IsBuiltin reports whether id names a built-in frame.
func (c *Catalog) IsBuiltin(id string) bool {
	return indexOf(c.builtins, id) >= 0
}

// Add appends a user-created frame and persists the custom subset.
func (c *Catalog) Add(frame types.Frame) error {
	if err := Validate(frame); err != nil {
		return err
	}
	if len(frame.Slots) == 0 {
		return fmt.Errorf("%w: frame %q has no slots", ErrInvalidFrame, frame.ID)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if indexOf(c.builtins, frame.ID) >= 0 || indexOf(c.custom, frame.ID) >= 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateID, frame.ID)
	}

	frame = frame.Clone()
	frame.IsCustom = true
	c.custom = append(c.custom, frame)
	c.persistLocked()
	c.logger.Info("Added custom frame", "id", frame.ID, "name", frame.Name, "slots", len(frame.Slots))
	return nil
}

// Remove deletes a custom frame. Built-in and unknown ids are ignored; the
// return value reports whether anything was removed.
func (c *Catalog) Remove(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := indexOf(c.custom, id)
	if i < 0 {
		if indexOf(c.builtins, id) >= 0 {
			c.logger.Debug("Ignoring removal of built-in frame", "id", id)
		}
		return false
	}

	c.custom = append(c.custom[:i:i], c.custom[i+1:]...)
	c.persistLocked()
	c.logger.Info("Removed custom frame", "id", id)
	return true
}

// Validate checks the structural invariants every stored frame must satisfy.
func Validate(f types.Frame) error {
	if f.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidFrame)
	}
	if f.AspectRatio <= 0 || math.IsInf(f.AspectRatio, 0) || math.IsNaN(f.AspectRatio) {
		return fmt.Errorf("%w: frame %q has aspect ratio %v", ErrInvalidFrame, f.ID, f.AspectRatio)
	}
	if !f.HasBackground() && f.StyleHint == "" {
		return fmt.Errorf("%w: frame %q needs a background image or a style hint", ErrInvalidFrame, f.ID)
	}
	for i, s := range f.Slots {
		for _, v := range []float64{s.X, s.Y, s.Width, s.Height} {
			if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 || v > 100 {
				return fmt.Errorf("%w: frame %q slot %d out of range: %+v", ErrInvalidFrame, f.ID, i, s)
			}
		}
	}
	return nil
}

// Encode serializes frames in the persisted template format.
func Encode(frames []types.Frame) ([]byte, error) {
	if frames == nil {
		frames = []types.Frame{}
	}
	return json.Marshal(frames)
}

func (c *Catalog) persistLocked() {
	if c.store == nil {
		return
	}
	data, err := Encode(c.custom)
	if err != nil {
		c.logger.Warn("Failed to encode custom frames", "error", err)
		return
	}
	if err := c.store.Save(c.key, data); err != nil {
		c.logger.Warn("Failed to save custom frames", "key", c.key, "error", err)
	}
}

func (c *Catalog) load() {
	if c.store == nil {
		return
	}
	data, err := c.store.Load(c.key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			c.logger.Warn("Failed to load custom frames", "key", c.key, "error", err)
		}
		return
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		c.logger.Warn("Failed to parse custom frames", "key", c.key, "error", err)
		return
	}

	for i, entry := range raw {
		var f types.Frame
		if err := json.Unmarshal(entry, &f); err != nil {
			c.logger.Warn("Discarding unparsable custom frame", "index", i, "error", err)
			continue
		}
		if err := Validate(f); err != nil {
			c.logger.Warn("Discarding invalid custom frame", "index", i, "error", err)
			continue
		}
		if indexOf(c.builtins, f.ID) >= 0 || indexOf(c.custom, f.ID) >= 0 {
			c.logger.Warn("Discarding duplicate custom frame", "index", i, "id", f.ID)
			continue
		}
		f.IsCustom = true
		c.custom = append(c.custom, f)
	}
	c.logger.Debug("Loaded custom frames", "count", len(c.custom))
}

func indexOf(frames []types.Frame, id string) int {
	for i, f := range frames {
		if f.ID == id {
			return i
		}
	}
	return -1
}
