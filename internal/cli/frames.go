package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/menta2k/photobooth/pkg/editor"
	"github.com/menta2k/photobooth/pkg/frames"
	"github.com/menta2k/photobooth/pkg/processing"
	"github.com/menta2k/photobooth/pkg/types"
)

func newFramesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "frames",
		Short: "List, inspect and manage frame templates",
	}

	cmd.AddCommand(newFramesListCmd(a))
	cmd.AddCommand(newFramesShowCmd(a))
	cmd.AddCommand(newFramesImportCmd(a))
	cmd.AddCommand(newFramesRemoveCmd(a))
	cmd.AddCommand(newFramesCreateCmd(a))

	return cmd
}

func newFramesListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List built-in and custom frames",
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := a.catalog()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tASPECT\tSLOTS\tCUSTOM")
			for _, f := range catalog.List() {
				fmt.Fprintf(w, "%s\t%s\t%.3f\t%d\t%v\n", f.ID, f.Name, f.AspectRatio, len(f.Slots), f.IsCustom)
			}
			return w.Flush()
		},
	}
}

func newFramesShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print a frame as a YAML template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := a.catalog()
			if err != nil {
				return err
			}
			f, ok := catalog.Get(args[0])
			if !ok {
				return fmt.Errorf("%w: %s", frames.ErrNotFound, args[0])
			}
			data, err := frames.MarshalTemplate(f)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

func newFramesImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <template.yaml|template.json>...",
		Short: "Add custom frames from template files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := a.catalog()
			if err != nil {
				return err
			}
			for _, path := range args {
				f, err := frames.LoadTemplate(path)
				if err != nil {
					return err
				}
				if err := catalog.Add(f); err != nil {
					return fmt.Errorf("import %s: %w", path, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "imported %s (%s)\n", f.ID, f.Name)
			}
			return nil
		},
	}
}

func newFramesRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Delete a custom frame (built-ins are kept)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := a.catalog()
			if err != nil {
				return err
			}
			if !catalog.Remove(args[0]) {
				fmt.Fprintf(cmd.OutOrStdout(), "nothing removed: %s is not a custom frame\n", args[0])
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[0])
			return nil
		},
	}
}

func newFramesCreateCmd(a *app) *cobra.Command {
	var name, background, preview string
	var slots []string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a custom frame from a background image",
		Example: `  # Two stacked slots over a transparent PNG
  photobooth frames create --background hearts.png \
    --slot 5,5,90,42 --slot 5,53,90,42

  # Render the editor overlay to check slot placement
  photobooth frames create --name Party --background party.png --preview party-slots.png`,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(background)
			if err != nil {
				return fmt.Errorf("read background: %w", err)
			}

			e := editor.New(a.editorConfig(), a.logger)
			e.SetName(name)
			if err := e.SetBackground(background, data); err != nil {
				return err
			}

			if len(slots) == 0 {
				e.AddSlot()
			}
			for _, spec := range slots {
				s, err := parseSlot(spec)
				if err != nil {
					return err
				}
				if err := e.SetSlot(e.AddSlot(), s); err != nil {
					return err
				}
			}

			if preview != "" {
				if err := writePreview(cmd.Context(), e, preview); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", preview)
			}

			f, err := e.Save()
			if err != nil {
				return err
			}
			catalog, err := a.catalog()
			if err != nil {
				return err
			}
			if err := catalog.Add(f); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s, %d slots)\n", f.ID, f.Name, len(f.Slots))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "frame name (default: background file name)")
	cmd.Flags().StringVar(&background, "background", "", "background image with transparent slot windows")
	cmd.Flags().StringArrayVar(&slots, "slot", nil, "slot as x,y,width,height in percent (repeatable)")
	cmd.Flags().StringVar(&preview, "preview", "", "write the editor overlay to this PNG")
	_ = cmd.MarkFlagRequired("background")

	return cmd
}

func writePreview(ctx context.Context, e *editor.Editor, path string) error {
	img, err := e.RenderOverlay(ctx)
	if err != nil {
		return err
	}
	return processing.NewProcessor().SaveImage(img, path, processing.FormatPNG, 100, true)
}

// parseSlot reads "x,y,width,height".
func parseSlot(spec string) (types.Slot, error) {
	parts := strings.Split(spec, ",")
	if len(parts) != 4 {
		return types.Slot{}, fmt.Errorf("slot %q: want x,y,width,height", spec)
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return types.Slot{}, fmt.Errorf("slot %q: %w", spec, err)
		}
		v[i] = f
	}
	return types.Slot{X: v[0], Y: v[1], Width: v[2], Height: v[3]}, nil
}
