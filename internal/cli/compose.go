package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/menta2k/photobooth/pkg/compositor"
	"github.com/menta2k/photobooth/pkg/frames"
)

func newComposeCmd(a *app) *cobra.Command {
	var frameID, outDir string

	cmd := &cobra.Command{
		Use:   "compose <photo>...",
		Short: "Compose existing photos into a frame",
		Long: `Compose places the given photos into the slots of a frame, in slot order,
and writes the exported image. Photos may be file paths, http(s) URLs or data
URLs. Slots without a photo are left empty.`,
		Example: `  photobooth compose --frame film-strip-vertical a.jpg b.jpg c.jpg
  photobooth compose --frame quad-collage --out ./exports *.png`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := a.catalog()
			if err != nil {
				return err
			}
			frame, ok := catalog.Get(frameID)
			if !ok {
				return fmt.Errorf("%w: %s", frames.ErrNotFound, frameID)
			}
			if len(args) > len(frame.Slots) {
				a.logger.Warn("More photos than slots, ignoring the rest", "photos", len(args), "slots", len(frame.Slots))
			}

			sources := make(map[int]string, len(args))
			for i, src := range args {
				if i < len(frame.Slots) {
					sources[i] = src
				}
			}

			c := compositor.New(a.compositorConfig(), a.logger)
			img, err := c.ComposeSources(cmd.Context(), frame, sources)
			if err != nil {
				return err
			}
			if outDir == "" {
				outDir = a.cfg.Export.OutputDir
			}
			path, err := c.ExportFile(outDir, frame, img)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&frameID, "frame", frames.ClassicSingle, "frame id")
	cmd.Flags().StringVar(&outDir, "out", "", "output directory (default from config)")

	return cmd
}
