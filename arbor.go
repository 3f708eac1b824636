package arbor

import (
	"image/color"

	"github.com/pkg/errors"
)

// ErrNoCamera is returned by Canvas.Render when no camera is assigned.
var ErrNoCamera = errors.New("arbor: no-camera")

// ErrNoWorld is returned by Camera.Render when the camera has no world.
var ErrNoWorld = errors.New("arbor: no-world")

// ErrNoSnapshot is returned by Canvas.Snapshot when the surface cannot
// hand out its pixels.
var ErrNoSnapshot = errors.New("arbor: surface has no snapshot")

// Color represents an RGBA color with components in [0, 1]. Not premultiplied.
type Color struct {
	R, G, B, A float64
}

// ColorWhite is the default fill.
var ColorWhite = Color{1, 1, 1, 1}

// NRGBA converts c to a color.NRGBA.
func (c Color) NRGBA() color.NRGBA {
	return color.NRGBA{R: unit8(c.R), G: unit8(c.G), B: unit8(c.B), A: unit8(c.A)}
}

func unit8(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}

// Vec2 is a 2D vector used for points and sizes.
type Vec2 struct {
	X, Y float64
}

// Rect is an axis-aligned rectangle. The coordinate system has its origin at
// the top-left, with Y increasing downward.
type Rect struct {
	X, Y, Width, Height float64
}

// Contains reports whether the point (x, y) lies inside the rectangle.
// Points on the edge are considered inside.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width &&
		y >= r.Y && y <= r.Y+r.Height
}

// Intersects reports whether r and other overlap.
// Adjacent rectangles (sharing only an edge) are considered intersecting.
func (r Rect) Intersects(other Rect) bool {
	return r.X <= other.X+other.Width &&
		r.X+r.Width >= other.X &&
		r.Y <= other.Y+other.Height &&
		r.Y+r.Height >= other.Y
}

// NodeKind selects the built-in draw routine of a Node.
type NodeKind uint8

const (
	KindGroup     NodeKind = iota // no visual output of its own
	KindRectangle                 // fills its local rectangle
	KindEllipse                   // fills the ellipse inscribed in its rectangle
	KindCustom                    // draws through Node.OnDraw
	numNodeKinds
)

var nodeKindNames = [...]string{"group", "rectangle", "ellipse", "custom"}

// String returns the serialized name of k.
func (k NodeKind) String() string {
	if k < numNodeKinds {
		return nodeKindNames[k]
	}
	return "unknown"
}

// ParseNodeKind maps a serialized name back to a NodeKind.
func ParseNodeKind(s string) (NodeKind, bool) {
	for i, name := range nodeKindNames {
		if name == s {
			return NodeKind(i), true
		}
	}
	return 0, false
}

// CullMode selects how the walker treats nodes outside the viewport.
type CullMode uint8

const (
	CullOff     CullMode = iota // draw everything
	CullNode                    // skip the node's own draw, still visit children
	CullSubtree                 // skip the node and all its descendants
	numCullModes
)

var cullModeNames = [...]string{"off", "node", "subtree"}

// String returns the configuration name of m.
func (m CullMode) String() string {
	if m < numCullModes {
		return cullModeNames[m]
	}
	return "unknown"
}

// ParseCullMode maps a configuration name back to a CullMode.
func ParseCullMode(s string) (CullMode, bool) {
	for i, name := range cullModeNames {
		if name == s {
			return CullMode(i), true
		}
	}
	return 0, false
}
