package processing

import (
	"image"
	"image/color"
	"math"
	"strconv"

	"github.com/disintegration/imaging"
	xdraw "golang.org/x/image/draw"

	"github.com/menta2k/photobooth/pkg/geometry"
	"github.com/menta2k/photobooth/pkg/types"
)

var (
	slotFill     = color.NRGBA{59, 130, 246, 102}  // translucent blue
	slotOutline  = color.NRGBA{255, 255, 255, 178} // unselected slot
	selectedLine = color.NRGBA{0, 0, 255, 255}     // selected slot
	handleFill   = color.NRGBA{255, 255, 255, 255}
)

// CreateSlotOverlay draws slot rectangles, numbers and the selected slot's
// resize handles over a copy of img. selected < 0 means no selection.
func (p *Processor) CreateSlotOverlay(img image.Image, slots []types.Slot, selected int) image.Image {
	nrgba := imaging.Clone(img)
	w := nrgba.Bounds().Dx()
	h := nrgba.Bounds().Dy()
	stroke := int(math.Max(2, 0.004*float64(minInt(w, h))))
	handle := int(math.Max(6, 0.012*float64(minInt(w, h))))

	for i, slot := range slots {
		r := geometry.ToPixelRect(slot, float64(w), float64(h)).Image()
		FillRect(nrgba, r, slotFill)

		line := slotOutline
		if i == selected {
			line = selectedLine
		}
		drawBox(nrgba, r, line, stroke)
		DrawLabel(nrgba, r, strconv.Itoa(i+1), float64(r.Dy())/4, color.White)

		if i == selected {
			for _, c := range []image.Point{r.Min, {r.Max.X, r.Min.Y}, {r.Min.X, r.Max.Y}, r.Max} {
				hr := image.Rect(c.X-handle/2, c.Y-handle/2, c.X+handle/2, c.Y+handle/2)
				FillRect(nrgba, hr, handleFill)
				drawBox(nrgba, hr, selectedLine, 1)
			}
		}
	}
	return nrgba
}

// FillRect composites c over r.
func FillRect(img *image.NRGBA, r image.Rectangle, c color.NRGBA) {
	xdraw.Draw(img, r.Intersect(img.Bounds()), image.NewUniform(c), image.Point{}, xdraw.Over)
}

func drawBox(img *image.NRGBA, r image.Rectangle, c color.NRGBA, stroke int) {
	x0, y0, x1, y1 := r.Min.X, r.Min.Y, r.Max.X, r.Max.Y
	if x1 <= x0 {
		x1 = x0 + 1
	}
	if y1 <= y0 {
		y1 = y0 + 1
	}
	for s := 0; s < stroke; s++ {
		drawHLine(img, y0+s, x0, x1, c)
		drawHLine(img, y1-1-s, x0, x1, c)
		drawVLine(img, x0+s, y0, y1, c)
		drawVLine(img, x1-1-s, y0, y1, c)
	}
}

func drawHLine(img *image.NRGBA, y, x0, x1 int, c color.NRGBA) {
	if y < 0 || y >= img.Bounds().Dy() {
		return
	}
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	if x1 <= 0 || x0 >= img.Bounds().Dx() {
		return
	}
	if x0 < 0 {
		x0 = 0
	}
	if x1 > img.Bounds().Dx() {
		x1 = img.Bounds().Dx()
	}
	i := y*img.Stride + x0*4
	for x := x0; x < x1; x++ {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
		i += 4
	}
}

func drawVLine(img *image.NRGBA, x, y0, y1 int, c color.NRGBA) {
	if x < 0 || x >= img.Bounds().Dx() {
		return
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	if y1 <= 0 || y0 >= img.Bounds().Dy() {
		return
	}
	if y0 < 0 {
		y0 = 0
	}
	if y1 > img.Bounds().Dy() {
		y1 = img.Bounds().Dy()
	}
	i := y0*img.Stride + x*4
	for y := y0; y < y1; y++ {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
		i += img.Stride
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
