package main

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/phanxgames/arbor"
)

func newViewCmd(root *rootOpts) *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "view SCENE",
		Short: "Open a scene file in a window",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.config()
			if err != nil {
				return err
			}
			return viewScene(args[0], watch, cfg)
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "reload the scene when the file changes")
	return cmd
}

func viewScene(path string, watch bool, cfg fileConfig) error {
	opts, err := cfg.Render.canvasOptions()
	if err != nil {
		return err
	}
	// Game.Draw fills the clear color before each frame.
	opts.Clear = false
	canvas := arbor.NewCanvas(nil, opts)

	load := func() error {
		w, err := loadScene(path)
		if err != nil {
			return err
		}
		cam, err := pickCamera(w, cfg.Render.Camera, cfg.Run.Width, cfg.Run.Height)
		if err != nil {
			return err
		}
		w.SetDebugMode(logrus.IsLevelEnabled(logrus.DebugLevel))
		canvas.SetCamera(cam)
		return nil
	}
	if err := load(); err != nil {
		return err
	}

	run := cfg.Run
	if watch {
		reload, stop, err := watchFile(path)
		if err != nil {
			return err
		}
		defer stop()
		run.Update = func(float32) error {
			select {
			case <-reload:
				if err := load(); err != nil {
					logrus.WithError(err).Warn("reload failed, keeping previous scene")
				} else {
					logrus.WithField("scene", path).Info("reloaded")
				}
			default:
			}
			return nil
		}
	}
	return arbor.Run(canvas, run)
}

// watchFile reports writes to path on the returned channel. The directory is
// watched rather than the file so editors that replace the file on save are
// still seen.
func watchFile(path string) (<-chan struct{}, func(), error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, nil, errors.Wrap(err, "watch")
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, errors.Wrap(err, "watch")
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, nil, errors.Wrapf(err, "watch %s", filepath.Dir(abs))
	}

	reload := make(chan struct{}, 1)
	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != abs {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				select {
				case reload <- struct{}{}:
				default:
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logrus.WithError(err).Warn("watch error")
			}
		}
	}()
	return reload, func() { watcher.Close() }, nil
}
