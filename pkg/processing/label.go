package processing

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

var (
	fontOnce sync.Once
	boldFont *opentype.Font
	fontErr  error
)

// loadFont parses the embedded Go bold font once.
func loadFont() (*opentype.Font, error) {
	fontOnce.Do(func() {
		parsed, err := opentype.Parse(gobold.TTF)
		if err != nil {
			fontErr = fmt.Errorf("parse embedded font: %w", err)
			return
		}
		boldFont = parsed
	})
	return boldFont, fontErr
}

// DrawLabel centers text inside r. Labels that cannot be rendered are skipped,
// since they only decorate previews.
func DrawLabel(dst draw.Image, r image.Rectangle, text string, size float64, c color.Color) {
	if text == "" || size < 4 || r.Empty() {
		return
	}
	parsed, err := loadFont()
	if err != nil {
		return
	}
	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return
	}
	defer face.Close()

	drawer := &font.Drawer{Dst: dst, Src: image.NewUniform(c), Face: face}
	textWidth := drawer.MeasureString(text).Ceil()
	metrics := face.Metrics()
	textHeight := (metrics.Ascent + metrics.Descent).Ceil()

	x := r.Min.X + (r.Dx()-textWidth)/2
	baseline := r.Min.Y + (r.Dy()-textHeight)/2 + metrics.Ascent.Round()
	drawer.Dot = fixed.Point26_6{X: fixed.I(x), Y: fixed.I(baseline)}
	drawer.DrawString(text)
}
