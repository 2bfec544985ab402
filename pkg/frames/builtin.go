package frames

import "github.com/menta2k/photobooth/pkg/types"

// Built-in frame IDs.
const (
	ClassicSingle     = "classic-single"
	FilmStripVertical = "film-strip-vertical"
	DuoHorizontal     = "duo-horizontal"
	QuadCollage       = "quad-collage"
)

// Builtins returns the fixed catalog, in display order.
func Builtins() []types.Frame {
	return []types.Frame{
		{
			ID:          ClassicSingle,
			Name:        "Single Photo",
			StyleHint:   "bg-yellow-900 border-4 border-yellow-900/80 shadow-lg p-4",
			AspectRatio: 4.0 / 3.0,
			Slots: []types.Slot{
				{X: 0, Y: 0, Width: 100, Height: 100},
			},
		},
		{
			ID:          FilmStripVertical,
			Name:        "Film Strip",
			StyleHint:   "bg-black p-2",
			AspectRatio: 9.0 / 16.0,
			Slots: []types.Slot{
				{X: 5, Y: 2, Width: 90, Height: 30},
				{X: 5, Y: 35, Width: 90, Height: 30},
				{X: 5, Y: 68, Width: 90, Height: 30},
			},
		},
		{
			ID:          DuoHorizontal,
			Name:        "Side by Side",
			StyleHint:   "bg-slate-300 border-4 border-slate-400 shadow-inner p-2",
			AspectRatio: 16.0 / 9.0,
			Slots: []types.Slot{
				{X: 0, Y: 0, Width: 50, Height: 100},
				{X: 50, Y: 0, Width: 50, Height: 100},
			},
		},
		{
			ID:          QuadCollage,
			Name:        "Quad Collage",
			StyleHint:   "bg-white shadow-md border border-gray-200 p-2",
			AspectRatio: 1,
			Slots: []types.Slot{
				{X: 0, Y: 0, Width: 50, Height: 50},
				{X: 50, Y: 0, Width: 50, Height: 50},
				{X: 0, Y: 50, Width: 50, Height: 50},
				{X: 50, Y: 50, Width: 50, Height: 50},
			},
		},
	}
}
