package main

import (
	"os"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/phanxgames/arbor"
)

type rootOpts struct {
	cfgFile string
	verbose bool
	camera  string
	cull    string
	debug   bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOpts{}
	cmd := &cobra.Command{
		Use:           "arbor",
		Short:         "Render and preview arbor scene files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "TOML config file")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log at debug level")
	cmd.PersistentFlags().StringVar(&opts.camera, "camera", "", "id of the camera to render (default: first camera)")
	cmd.PersistentFlags().StringVar(&opts.cull, "cull", "", "cull mode: off, node or subtree")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "draw node bounding boxes")

	cmd.AddCommand(newRenderCmd(opts), newViewCmd(opts))
	return cmd
}

// config loads the config file and applies flag overrides.
func (o *rootOpts) config() (fileConfig, error) {
	cfg, err := loadConfig(o.cfgFile)
	if err != nil {
		return cfg, err
	}
	if err := setupLogging(cfg.LogLevel, o.verbose); err != nil {
		return cfg, err
	}
	if o.camera != "" {
		cfg.Render.Camera = o.camera
	}
	if o.cull != "" {
		cfg.Render.Cull = o.cull
	}
	if o.debug {
		cfg.Render.Debug = true
	}
	return cfg, nil
}

// loadScene decodes a world file. Entries that fail to decode are logged
// and skipped.
func loadScene(path string) (*arbor.World, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read scene")
	}
	w, err := arbor.LoadWorld(data, arbor.FormatFromPath(path))
	if w == nil {
		return nil, errors.Wrapf(err, "load %s", path)
	}
	var merr *multierror.Error
	if errors.As(err, &merr) {
		for _, e := range merr.Errors {
			logrus.WithField("scene", path).Warnf("skipped entry: %v", e)
		}
	}
	return w, nil
}

// pickCamera returns the camera named by id, the world's first camera, or a
// new camera centred on the surface.
func pickCamera(w *arbor.World, id string, width, height int) (*arbor.Camera, error) {
	if id != "" {
		e, ok := w.Registry().Lookup(id)
		cam, isCam := e.(*arbor.Camera)
		if !ok || !isCam {
			return nil, errors.Errorf("no camera %q", id)
		}
		if cam.World() != w {
			w.AddCamera(cam)
		}
		return cam, nil
	}
	if cams := w.Cameras(); len(cams) > 0 {
		return cams[0], nil
	}
	cam := arbor.NewCamera(arbor.CameraOptions{
		X:      float64(width) / 2,
		Y:      float64(height) / 2,
		Width:  float64(width),
		Height: float64(height),
	})
	w.AddCamera(cam)
	return cam, nil
}
