package arbor

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/imdario/mergo"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"

	"github.com/phanxgames/arbor/surface/ebitensurface"
)

// RunConfig configures the window opened by Run. Zero fields take the
// values of DefaultRunConfig.
type RunConfig struct {
	Title         string     `toml:"title"`
	Width         int        `toml:"width"`
	Height        int        `toml:"height"`
	TPS           int        `toml:"tps"`
	Resizable     bool       `toml:"resizable"`
	ShowFPS       bool       `toml:"show_fps"`
	ClearColor    [4]float64 `toml:"clear_color"`
	ScreenshotDir string     `toml:"screenshot_dir"`

	// Update runs once per tick before the world advances. A non-nil error
	// stops the loop and is returned by Run.
	Update func(dt float32) error `toml:"-"`
}

// DefaultRunConfig returns the settings used for zero RunConfig fields.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		Title:         "arbor",
		Width:         640,
		Height:        480,
		TPS:           60,
		ScreenshotDir: "screenshots",
	}
}

// LoadRunConfig decodes a TOML document into a RunConfig with defaults
// filled in.
func LoadRunConfig(data []byte) (RunConfig, error) {
	var cfg RunConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrap(err, "decode run config")
	}
	return cfg, cfg.applyDefaults()
}

func (cfg *RunConfig) applyDefaults() error {
	return errors.Wrap(mergo.Merge(cfg, DefaultRunConfig()), "apply run config defaults")
}

// Game adapts a Canvas to ebiten.Game. Use it directly to embed arbor in a
// larger ebiten program; Run wraps it for the common case.
type Game struct {
	canvas  *Canvas
	surface *ebitensurface.Surface
	cfg     RunConfig
	err     error

	screenshotQueue []string
}

// NewGame prepares canvas for an ebiten loop. The canvas is retargeted to
// the screen image every frame.
func NewGame(canvas *Canvas, cfg RunConfig) (*Game, error) {
	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return &Game{canvas: canvas, cfg: cfg}, nil
}

// Canvas returns the canvas the game renders.
func (g *Game) Canvas() *Canvas { return g.canvas }

// Update implements ebiten.Game.
func (g *Game) Update() error {
	if g.err != nil {
		return g.err
	}
	dt := float32(1.0 / float64(ebiten.TPS()))
	if g.cfg.Update != nil {
		if err := g.cfg.Update(dt); err != nil {
			return err
		}
	}
	if cam := g.canvas.Camera(); cam != nil && cam.World() != nil {
		cam.World().Update(dt)
	}
	return nil
}

// Draw implements ebiten.Game.
func (g *Game) Draw(screen *ebiten.Image) {
	if g.surface == nil {
		g.surface = ebitensurface.New(screen)
	} else {
		g.surface.SetTarget(screen)
	}
	c := g.cfg.ClearColor
	screen.Fill(Color{R: c[0], G: c[1], B: c[2], A: c[3]}.NRGBA())

	g.canvas.SetSurface(g.surface)
	if err := g.canvas.Render(); err != nil {
		g.err = err
		return
	}
	if g.cfg.ShowFPS {
		ebitenutil.DebugPrint(screen, fmt.Sprintf("FPS: %.1f\nTPS: %.1f", ebiten.ActualFPS(), ebiten.ActualTPS()))
	}
	g.flushScreenshots()
}

// Layout implements ebiten.Game.
func (g *Game) Layout(_, _ int) (int, int) {
	return g.cfg.Width, g.cfg.Height
}

// Run opens a window and drives canvas until the window is closed or an
// update fails.
//
//	world := arbor.NewWorld()
//	cam := arbor.NewCamera(arbor.CameraOptions{X: 320, Y: 240, Width: 640, Height: 480})
//	world.AddCamera(cam)
//	canvas := arbor.NewCanvas(nil, arbor.CanvasOptions{CullMode: arbor.CullSubtree})
//	canvas.SetCamera(cam)
//	err := arbor.Run(canvas, arbor.RunConfig{Title: "demo"})
func Run(canvas *Canvas, cfg RunConfig) error {
	g, err := NewGame(canvas, cfg)
	if err != nil {
		return err
	}
	ebiten.SetWindowTitle(g.cfg.Title)
	ebiten.SetWindowSize(g.cfg.Width, g.cfg.Height)
	ebiten.SetTPS(g.cfg.TPS)
	if g.cfg.Resizable {
		ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	}
	return errors.Wrap(ebiten.RunGame(g), "run")
}
