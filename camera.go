package arbor

import (
	"math"

	"github.com/pkg/errors"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// scrollAnim holds active scroll-to tweens for camera X and Y.
type scrollAnim struct {
	tweenX *gween.Tween
	tweenY *gween.Tween
	doneX  bool
	doneY  bool
}

// CameraOptions configures a new Camera. A zero Zoom means 1.
type CameraOptions struct {
	ID       string
	X, Y     float64 // world point shown at the viewport centre
	Rotation float64 // degrees
	Zoom     float64
	Width    float64 // viewport width in surface pixels
	Height   float64 // viewport height in surface pixels
}

// Camera frames a World. Placed in the world, a camera covers the rectangle
// of its viewport size divided by its zoom, centred on (X, Y) and rotated by
// Rotation; its view matrix (TransformationMatrix with a canvas) is the
// inverse of that placement, anchored at the viewport centre.
type Camera struct {
	Transform

	world  *World
	unwire func()

	followTarget  *Node
	followOffsetX float64
	followOffsetY float64
	followLerp    float64

	// BoundsEnabled clamps the camera position so the visible area stays
	// within Bounds.
	BoundsEnabled bool
	// Bounds is the world-space rectangle the camera is clamped to when
	// BoundsEnabled is true.
	Bounds Rect

	scrollTween *scrollAnim
}

// NewCamera creates a detached camera. Attach it with World.AddCamera or
// SetWorld before rendering.
func NewCamera(opts CameraOptions) *Camera {
	c := &Camera{}
	c.initTransform(opts.ID, UnitZoom)
	c.reciprocal = true
	c.anchorX, c.anchorY = 0.5, 0.5
	if opts.Zoom == 0 {
		opts.Zoom = 1
	}
	c.SetPosition(opts.X, opts.Y)
	c.SetRotation(opts.Rotation)
	c.SetZoom(opts.Zoom)
	c.SetSize(opts.Width, opts.Height)
	return c
}

// Zoom returns the scale factor (1.0 = no zoom, >1 = zoom in, <1 = zoom out).
func (c *Camera) Zoom() float64 { return c.sx }

// SetZoom sets the zoom factor. Zero and negative zooms are rejected.
func (c *Camera) SetZoom(z float64) {
	if z <= 0 {
		return
	}
	if c.setTransform(UnitZoom, &c.sx, z) {
		c.sy = z
	}
}

// Viewport returns the camera's surface rectangle.
func (c *Camera) Viewport() Rect {
	return Rect{Width: c.width, Height: c.height}
}

// World returns the world the camera frames, or nil.
func (c *Camera) World() *World { return c.world }

// SetWorld associates the camera with w, detaching it from its previous
// world. Passing nil detaches it.
func (c *Camera) SetWorld(w *World) {
	if c.world == w {
		return
	}
	if c.world != nil {
		c.world.RemoveCamera(c)
	}
	if w != nil {
		w.AddCamera(c)
	}
}

// Render draws the camera's world onto canvas.
func (c *Camera) Render(canvas *Canvas) error {
	if c.world == nil {
		return errors.Wrapf(ErrNoWorld, "camera %s", c.id)
	}
	c.world.render(canvas, c)
	return nil
}

// viewMatrix returns the cached view matrix.
func (c *Camera) viewMatrix() *Matrix {
	m, _ := c.viewMatrices()
	return m
}

// WorldToScreen converts world coordinates to surface coordinates.
func (c *Camera) WorldToScreen(wx, wy float64) (sx, sy float64) {
	return c.viewMatrix().Apply(wx, wy)
}

// ScreenToWorld converts surface coordinates to world coordinates.
func (c *Camera) ScreenToWorld(sx, sy float64) (wx, wy float64) {
	_, inv := c.viewMatrices()
	return inv.Apply(sx, sy)
}

// VisibleBounds returns the axis-aligned bounding rect of the camera's visible
// area in world space.
func (c *Camera) VisibleBounds() Rect {
	return boundsOf(c.GlobalVertices())
}

// --- Motion ---

// Follow makes the camera track a target node with the given offset and lerp factor.
// A lerp of 1.0 snaps immediately; lower values give smoother following.
func (c *Camera) Follow(node *Node, offsetX, offsetY, lerp float64) {
	c.followTarget = node
	c.followOffsetX = offsetX
	c.followOffsetY = offsetY
	c.followLerp = lerp
}

// Unfollow stops tracking the current target node.
func (c *Camera) Unfollow() {
	c.followTarget = nil
}

// ScrollTo animates the camera to the given world position over duration seconds.
func (c *Camera) ScrollTo(x, y float64, duration float32, easeFn ease.TweenFunc) {
	c.scrollTween = &scrollAnim{
		tweenX: gween.New(float32(c.x), float32(x), duration, easeFn),
		tweenY: gween.New(float32(c.y), float32(y), duration, easeFn),
	}
}

// Scrolling reports whether a ScrollTo animation is in progress.
func (c *Camera) Scrolling() bool {
	return c.scrollTween != nil
}

// SetBounds enables camera bounds clamping.
func (c *Camera) SetBounds(bounds Rect) {
	c.BoundsEnabled = true
	c.Bounds = bounds
}

// ClearBounds disables camera bounds clamping.
func (c *Camera) ClearBounds() {
	c.BoundsEnabled = false
}

// Update advances follow, scroll and bounds clamping by dt seconds. Every
// position change goes through the setters, so dependent nodes see it.
func (c *Camera) Update(dt float32) {
	x, y := c.x, c.y

	if c.followTarget != nil {
		tx, ty := c.followTarget.LocalToWorld(0, 0)
		x += (tx + c.followOffsetX - x) * c.followLerp
		y += (ty + c.followOffsetY - y) * c.followLerp
	}

	if c.scrollTween != nil {
		if !c.scrollTween.doneX {
			val, done := c.scrollTween.tweenX.Update(dt)
			x = float64(val)
			c.scrollTween.doneX = done
		}
		if !c.scrollTween.doneY {
			val, done := c.scrollTween.tweenY.Update(dt)
			y = float64(val)
			c.scrollTween.doneY = done
		}
		if c.scrollTween.doneX && c.scrollTween.doneY {
			c.scrollTween = nil
		}
	}

	if c.BoundsEnabled {
		x, y = c.clamp(x, y)
	}
	c.SetPosition(x, y)
}

// clamp restricts a camera position so the visible area stays within Bounds.
func (c *Camera) clamp(x, y float64) (float64, float64) {
	halfW := c.width / (2 * c.sx)
	halfH := c.height / (2 * c.sx)

	minX := c.Bounds.X + halfW
	maxX := c.Bounds.X + c.Bounds.Width - halfW
	minY := c.Bounds.Y + halfH
	maxY := c.Bounds.Y + c.Bounds.Height - halfH

	// If bounds are smaller than visible area, center the camera.
	if minX > maxX {
		x = c.Bounds.X + c.Bounds.Width/2
	} else {
		x = math.Max(minX, math.Min(x, maxX))
	}
	if minY > maxY {
		y = c.Bounds.Y + c.Bounds.Height/2
	} else {
		y = math.Max(minY, math.Min(y, maxY))
	}
	return x, y
}
