// Package cli implements the photobooth command tree.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	photobooth "github.com/menta2k/photobooth"
	"github.com/menta2k/photobooth/internal/config"
	"github.com/menta2k/photobooth/pkg/compositor"
	"github.com/menta2k/photobooth/pkg/device"
	"github.com/menta2k/photobooth/pkg/editor"
	"github.com/menta2k/photobooth/pkg/frames"
	"github.com/menta2k/photobooth/pkg/session"
	"github.com/menta2k/photobooth/pkg/storage"
)

// app carries the state every subcommand shares once the root pre-run has
// loaded configuration.
type app struct {
	configPath string
	debug      bool
	cfg        *config.Config
	logger     *slog.Logger
}

func NewRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "photobooth",
		Short: "Capture photos into layout frames and export the composed picture",
		Long: `Photobooth captures camera frames into multi-slot layout frames
(single photo, film strip, side by side, collage or your own designs) and
composes them into one high resolution image.

Custom frames are stored under the configured storage directory and can be
created from a background image or imported from YAML/JSON templates.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
			return a.load()
		},
	}

	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default $PHOTOBOOTH_CONFIG or ~/.config/photobooth/config.json)")
	cmd.PersistentFlags().BoolVar(&a.debug, "debug", false, "enable debug logging")

	cmd.AddCommand(newFramesCmd(a))
	cmd.AddCommand(newComposeCmd(a))
	cmd.AddCommand(newBoothCmd(a))
	cmd.AddCommand(newConfigCmd(a))

	return cmd
}

func (a *app) load() error {
	if a.configPath == "" {
		a.configPath = config.GetConfigPath()
	}
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	level, _ := config.ParseLevel(cfg.Logging.Level)
	if a.debug {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(a.logger)
	return nil
}

// store opens the directory custom frames persist to.
func (a *app) store() (storage.Store, error) {
	s, err := storage.NewFileStore(a.cfg.Storage.Dir)
	if err != nil {
		return nil, fmt.Errorf("open frame storage: %w", err)
	}
	return s, nil
}

func (a *app) catalog() (*frames.Catalog, error) {
	s, err := a.store()
	if err != nil {
		return nil, err
	}
	return frames.NewCatalog(s, a.cfg.Storage.Key, a.logger), nil
}

func (a *app) sessionConfig() session.Config {
	return session.Config{
		Countdown:    a.cfg.Session.Countdown,
		TickInterval: a.cfg.TickInterval(),
		Flash:        a.cfg.Flash(),
	}
}

func (a *app) editorConfig() editor.Config {
	return editor.Config{
		MinScale:  a.cfg.Editor.MinScale,
		MaxScale:  a.cfg.Editor.MaxScale,
		ScaleStep: a.cfg.Editor.ScaleStep,
		BaseWidth: a.cfg.Editor.BaseWidth,
	}
}

func (a *app) compositorConfig() compositor.Config {
	return compositor.Config{
		BackgroundHeight:  a.cfg.Export.BackgroundHeight,
		DefaultWidth:      a.cfg.Export.DefaultWidth,
		Suffix:            a.cfg.Export.Suffix,
		Format:            a.cfg.Export.Format,
		Interpolation:     a.cfg.Export.Interpolation,
		PreviewBaseHeight: a.cfg.Session.PreviewBaseHeight,
	}
}

func (a *app) booth(dev device.Device, observer session.Observer) (*photobooth.Booth, error) {
	s, err := a.store()
	if err != nil {
		return nil, err
	}
	return photobooth.New(photobooth.Options{
		Store:            s,
		StorageKey:       a.cfg.Storage.Key,
		Device:           dev,
		Mirror:           a.cfg.Session.Mirror,
		Session:          a.sessionConfig(),
		Editor:           a.editorConfig(),
		Compositor:       a.compositorConfig(),
		PreviewMinScale:  a.cfg.Session.PreviewMinScale,
		PreviewMaxScale:  a.cfg.Session.PreviewMaxScale,
		PreviewScaleStep: a.cfg.Session.PreviewScaleStep,
		Observer:         observer,
		Logger:           a.logger,
	}), nil
}
