package arbor

import (
	"image/color"

	"github.com/pkg/errors"
	"golang.org/x/image/math/f64"
)

// Surface is a host 2-D drawing context. Transforms are affine matrices in
// the f64.Aff3 layout {a, b, c, d, e, f}: x' = a*x + b*y + c,
// y' = d*x + e*y + f. Path coordinates are mapped through the current
// transform when they are added; Clip intersects the current clip with the
// current path. Save and Restore push and pop the transform, clip, alpha
// and paint state.
type Surface interface {
	Save()
	Restore()

	Translate(x, y float64)
	Rotate(rad float64)
	Scale(sx, sy float64)
	// Transform multiplies the current transform by m on the right.
	Transform(m f64.Aff3)
	SetTransform(m f64.Aff3)
	CurrentTransform() f64.Aff3

	BeginPath()
	MoveTo(x, y float64)
	LineTo(x, y float64)
	ClosePath()
	Rect(x, y, w, h float64)
	Clip()
	Fill()
	Stroke()

	SetFillColor(c color.Color)
	SetStrokeColor(c color.Color)
	SetLineWidth(w float64)
	SetGlobalAlpha(a float64)
	GlobalAlpha() float64

	// Clear resets every pixel to transparent, ignoring transform and clip.
	Clear()
	Size() (w, h int)
}

// DebugOptions configures the bounding-box overlay drawn after each frame.
type DebugOptions struct {
	Enabled bool
	// Descendants draws boxes for every node, not only world roots.
	Descendants bool
	Color       Color
	LineWidth   float64
}

// CanvasOptions configures a new Canvas.
type CanvasOptions struct {
	CullMode CullMode
	// Clear resets the surface at the start of every Render.
	Clear bool
	Debug DebugOptions
}

// Canvas binds a drawing surface to the camera whose view it renders.
type Canvas struct {
	surface  Surface
	camera   *Camera
	cullMode CullMode
	clear    bool

	// Debug controls the bounding-box overlay.
	Debug DebugOptions

	stats FrameStats
}

// NewCanvas wraps s. The debug overlay defaults to a 1px magenta stroke.
func NewCanvas(s Surface, opts CanvasOptions) *Canvas {
	if opts.Debug.LineWidth == 0 {
		opts.Debug.LineWidth = 1
	}
	if opts.Debug.Color == (Color{}) {
		opts.Debug.Color = Color{R: 1, G: 0, B: 1, A: 1}
	}
	c := &Canvas{
		surface: s,
		clear:   opts.Clear,
		Debug:   opts.Debug,
	}
	c.SetCullMode(opts.CullMode)
	return c
}

// Surface returns the wrapped drawing surface.
func (c *Canvas) Surface() Surface { return c.surface }

// SetSurface retargets the canvas, e.g. to a new frame's screen image.
func (c *Canvas) SetSurface(s Surface) { c.surface = s }

// Camera returns the canvas's camera, or nil.
func (c *Canvas) Camera() *Camera { return c.camera }

// SetCamera selects the camera rendered by Render.
func (c *Canvas) SetCamera(cam *Camera) { c.camera = cam }

// CullMode returns the active culling mode.
func (c *Canvas) CullMode() CullMode { return c.cullMode }

// SetCullMode selects the culling mode. Unknown values are ignored.
func (c *Canvas) SetCullMode(m CullMode) {
	if m >= numCullModes {
		Logger().WithField("cullMode", uint8(m)).Debug("arbor: rejected unknown cull mode")
		return
	}
	c.cullMode = m
}

// Render draws the camera's world onto the surface.
func (c *Canvas) Render() error {
	if c.camera == nil {
		return errors.Wrap(ErrNoCamera, "canvas render")
	}
	return c.camera.Render(c)
}

// Stats returns the counters gathered during the last Render.
func (c *Canvas) Stats() FrameStats { return c.stats }
