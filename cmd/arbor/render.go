package main

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/phanxgames/arbor"
	"github.com/phanxgames/arbor/surface/raster"
)

func newRenderCmd(root *rootOpts) *cobra.Command {
	var out string
	var width, height int
	cmd := &cobra.Command{
		Use:   "render SCENE",
		Short: "Render one frame of a scene file to PNG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.config()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("width") {
				cfg.Render.Width = width
			}
			if cmd.Flags().Changed("height") {
				cfg.Render.Height = height
			}
			return renderScene(args[0], out, cfg.Render)
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "out.png", "PNG file to write")
	cmd.Flags().IntVar(&width, "width", 0, "surface width in pixels")
	cmd.Flags().IntVar(&height, "height", 0, "surface height in pixels")
	return cmd
}

func renderScene(scenePath, out string, rc renderConfig) error {
	if rc.Width <= 0 || rc.Height <= 0 {
		return errors.Errorf("invalid surface size %dx%d", rc.Width, rc.Height)
	}
	w, err := loadScene(scenePath)
	if err != nil {
		return err
	}
	cam, err := pickCamera(w, rc.Camera, rc.Width, rc.Height)
	if err != nil {
		return err
	}
	opts, err := rc.canvasOptions()
	if err != nil {
		return err
	}

	// The background is painted here, so Render must not clear it.
	opts.Clear = false
	s := raster.New(rc.Width, rc.Height)
	canvas := arbor.NewCanvas(s, opts)
	canvas.SetCamera(cam)

	bg := rc.Background
	s.SetFillColor(arbor.Color{R: bg[0], G: bg[1], B: bg[2], A: bg[3]}.NRGBA())
	s.BeginPath()
	s.Rect(0, 0, float64(rc.Width), float64(rc.Height))
	s.Fill()

	if err := canvas.Render(); err != nil {
		return err
	}
	stats := canvas.Stats()
	logrus.WithFields(logrus.Fields{
		"visited":  stats.Visited,
		"drawn":    stats.Drawn,
		"culled":   stats.Culled,
		"duration": stats.Duration,
	}).Info("rendered")
	return canvas.SavePNG(out)
}
