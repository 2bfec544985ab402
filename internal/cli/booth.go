package cli

import (
	"context"
	"fmt"
	"image"
	"io"
	"time"

	"github.com/spf13/cobra"

	photobooth "github.com/menta2k/photobooth"
	"github.com/menta2k/photobooth/pkg/device"
	"github.com/menta2k/photobooth/pkg/frames"
	"github.com/menta2k/photobooth/pkg/processing"
)

// printObserver reports countdown progress on the terminal.
type printObserver struct {
	w io.Writer
}

func (o printObserver) OnCountdown(n int) {
	if n > 0 {
		fmt.Fprintf(o.w, "%d... ", n)
	}
}

func (o printObserver) OnShutter(time.Duration) {
	fmt.Fprint(o.w, "*click*\n")
}

func (o printObserver) OnCapture(index int, img image.Image) {
	b := img.Bounds()
	fmt.Fprintf(o.w, "photo %d captured (%dx%d)\n", index+1, b.Dx(), b.Dy())
}

func newBoothCmd(a *app) *cobra.Command {
	var frameID, cameraDir, outDir, previewPath string
	var retakes []int
	var zoom float64

	cmd := &cobra.Command{
		Use:   "booth",
		Short: "Run a capture session and export the result",
		Long: `Booth runs a full photo session: for every slot of the selected frame it
counts down, grabs a frame from the camera and fills the slot, then exports
the composed image.

The camera is a directory of images played back in name order, one per
capture.`,
		Example: `  photobooth booth --camera ./shots --frame film-strip-vertical
  photobooth booth --camera ./shots --frame duo-horizontal --retake 1 --preview live.png`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			booth, err := a.booth(device.NewDirDevice(cameraDir, a.logger), printObserver{w: out})
			if err != nil {
				return err
			}
			if err := booth.Start(ctx); err != nil {
				fmt.Fprintln(out, booth.CameraStatus())
				return err
			}
			defer booth.Stop()

			if err := booth.SelectFrame(frameID); err != nil {
				return err
			}
			frame := booth.SelectedFrame()
			fmt.Fprintf(out, "frame %s: %d photos\n", frame.Name, len(frame.Slots))

			if err := captureAll(ctx, booth); err != nil {
				return err
			}
			for _, i := range retakes {
				fmt.Fprintf(out, "retaking photo %d\n", i)
				if err := booth.Retake(i - 1); err != nil {
					return err
				}
				if err := captureAll(ctx, booth); err != nil {
					return err
				}
			}

			if previewPath != "" {
				booth.Zoom().Set(zoom)
				img, err := booth.Preview(ctx)
				if err != nil {
					return err
				}
				if err := processing.NewProcessor().SaveImage(img, previewPath, processing.FormatPNG, 100, true); err != nil {
					return fmt.Errorf("save preview: %w", err)
				}
				fmt.Fprintf(out, "wrote preview %s (%d%%)\n", previewPath, booth.Zoom().Percent())
			}

			if outDir == "" {
				outDir = a.cfg.Export.OutputDir
			}
			path, err := booth.DownloadFile(ctx, outDir)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&frameID, "frame", frames.ClassicSingle, "frame id")
	cmd.Flags().StringVar(&cameraDir, "camera", "", "directory of images to use as the camera")
	cmd.Flags().StringVar(&outDir, "out", "", "output directory (default from config)")
	cmd.Flags().IntSliceVar(&retakes, "retake", nil, "photo numbers to retake after the first pass")
	cmd.Flags().StringVar(&previewPath, "preview", "", "also write the live preview to this PNG")
	cmd.Flags().Float64Var(&zoom, "zoom", 1, "preview scale")
	_ = cmd.MarkFlagRequired("camera")

	return cmd
}

// captureAll counts down and captures until every slot is filled. A capture
// that yields no frame is retried a few times before giving up.
func captureAll(ctx context.Context, booth *photobooth.Booth) error {
	const maxMisses = 3
	misses := 0
	for !booth.Session().IsComplete() {
		before := booth.Session().CurrentSlot()
		if err := booth.Capture(ctx); err != nil {
			return err
		}
		booth.WaitCapture()
		if err := ctx.Err(); err != nil {
			return err
		}

		if booth.Session().CurrentSlot() == before {
			misses++
			if misses >= maxMisses {
				return fmt.Errorf("camera returned no frame for photo %d", before+1)
			}
			continue
		}
		misses = 0
	}
	return nil
}
