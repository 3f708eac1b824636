package main

import (
	"os"

	"github.com/imdario/mergo"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/phanxgames/arbor"
)

// fileConfig is the TOML document passed with --config.
type fileConfig struct {
	LogLevel string          `toml:"log_level"`
	Render   renderConfig    `toml:"render"`
	Run      arbor.RunConfig `toml:"run"`
}

// renderConfig holds the canvas settings shared by render and view.
type renderConfig struct {
	Width       int        `toml:"width"`
	Height      int        `toml:"height"`
	Camera      string     `toml:"camera"`
	Cull        string     `toml:"cull"`
	Background  [4]float64 `toml:"background"`
	Debug       bool       `toml:"debug"`
	Descendants bool       `toml:"descendants"`
}

func defaultFileConfig() fileConfig {
	return fileConfig{
		LogLevel: "warning",
		Render: renderConfig{
			Width:  640,
			Height: 480,
			Cull:   arbor.CullSubtree.String(),
		},
		Run: arbor.DefaultRunConfig(),
	}
}

// loadConfig reads path, or returns the defaults when path is empty.
func loadConfig(path string) (fileConfig, error) {
	var cfg fileConfig
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, errors.Wrap(err, "read config")
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, errors.Wrapf(err, "decode config %s", path)
		}
	}
	if err := mergo.Merge(&cfg, defaultFileConfig()); err != nil {
		return cfg, errors.Wrap(err, "apply config defaults")
	}
	return cfg, nil
}

// setupLogging points the arbor and standard loggers at the configured level.
func setupLogging(level string, verbose bool) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return errors.Wrap(err, "log level")
	}
	if verbose {
		lvl = logrus.DebugLevel
	}
	l := logrus.New()
	l.SetLevel(lvl)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	arbor.SetLogger(l)
	logrus.SetLevel(lvl)
	return nil
}

// canvasOptions translates the render section into arbor options.
func (rc renderConfig) canvasOptions() (arbor.CanvasOptions, error) {
	mode, ok := arbor.ParseCullMode(rc.Cull)
	if !ok {
		return arbor.CanvasOptions{}, errors.Errorf("unknown cull mode %q", rc.Cull)
	}
	return arbor.CanvasOptions{
		CullMode: mode,
		Clear:    true,
		Debug: arbor.DebugOptions{
			Enabled:     rc.Debug,
			Descendants: rc.Descendants,
		},
	}, nil
}
