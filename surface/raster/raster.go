// Package raster implements arbor.Surface on an *image.RGBA with
// golang.org/x/image/vector. It needs no graphics device, which makes it
// the surface of choice for tests and offline rendering.
package raster

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/math/f64"
	"golang.org/x/image/vector"
)

var identity = f64.Aff3{1, 0, 0, 0, 1, 0}

type state struct {
	transform f64.Aff3
	// clip is the coverage every fill and stroke is multiplied by; nil
	// means unclipped.
	clip      *image.Alpha
	alpha     float64
	fill      color.Color
	stroke    color.Color
	lineWidth float64
}

type subpath struct {
	pts    []f64.Vec2 // device space
	closed bool
}

// Surface is a CPU drawing surface. Path points are mapped through the
// current transform as they are added.
type Surface struct {
	dst   *image.RGBA
	cur   state
	stack []state
	path  []subpath
	ras   vector.Rasterizer
}

// New returns a transparent w×h surface.
func New(w, h int) *Surface {
	return NewFromImage(image.NewRGBA(image.Rect(0, 0, w, h)))
}

// NewFromImage draws onto dst. dst's origin must be (0, 0).
func NewFromImage(dst *image.RGBA) *Surface {
	return &Surface{
		dst: dst,
		cur: state{
			transform: identity,
			alpha:     1,
			fill:      color.Black,
			stroke:    color.Black,
			lineWidth: 1,
		},
	}
}

// Image returns the backing image.
func (s *Surface) Image() *image.RGBA { return s.dst }

// Snapshot returns the target image itself; it keeps changing with later
// draws.
func (s *Surface) Snapshot() image.Image { return s.dst }

// Size returns the surface size in pixels.
func (s *Surface) Size() (int, int) {
	b := s.dst.Bounds()
	return b.Dx(), b.Dy()
}

// Save pushes the transform, clip, alpha and paint state.
func (s *Surface) Save() {
	s.stack = append(s.stack, s.cur)
}

// Restore pops the state pushed by the matching Save. Unbalanced calls are
// ignored.
func (s *Surface) Restore() {
	if len(s.stack) == 0 {
		return
	}
	s.cur = s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]
}

// Translate moves the origin.
func (s *Surface) Translate(x, y float64) {
	s.Transform(f64.Aff3{1, 0, x, 0, 1, y})
}

// Rotate rotates by rad radians.
func (s *Surface) Rotate(rad float64) {
	sin, cos := math.Sincos(rad)
	s.Transform(f64.Aff3{cos, -sin, 0, sin, cos, 0})
}

// Scale scales the axes.
func (s *Surface) Scale(sx, sy float64) {
	s.Transform(f64.Aff3{sx, 0, 0, 0, sy, 0})
}

// Transform multiplies the current transform by m on the right.
func (s *Surface) Transform(m f64.Aff3) {
	s.cur.transform = mul(s.cur.transform, m)
}

// SetTransform replaces the current transform.
func (s *Surface) SetTransform(m f64.Aff3) { s.cur.transform = m }

// CurrentTransform returns the current transform.
func (s *Surface) CurrentTransform() f64.Aff3 { return s.cur.transform }

// BeginPath discards the current path.
func (s *Surface) BeginPath() { s.path = s.path[:0] }

// MoveTo starts a new subpath.
func (s *Surface) MoveTo(x, y float64) {
	s.path = append(s.path, subpath{pts: []f64.Vec2{s.apply(x, y)}})
}

// LineTo extends the current subpath, starting one at (x, y) if none is open.
func (s *Surface) LineTo(x, y float64) {
	if len(s.path) == 0 || s.path[len(s.path)-1].closed {
		s.MoveTo(x, y)
		return
	}
	sp := &s.path[len(s.path)-1]
	sp.pts = append(sp.pts, s.apply(x, y))
}

// ClosePath closes the current subpath.
func (s *Surface) ClosePath() {
	if len(s.path) > 0 {
		s.path[len(s.path)-1].closed = true
	}
}

// Rect adds a closed rectangle subpath.
func (s *Surface) Rect(x, y, w, h float64) {
	s.MoveTo(x, y)
	s.LineTo(x+w, y)
	s.LineTo(x+w, y+h)
	s.LineTo(x, y+h)
	s.ClosePath()
}

// Clip intersects the current clip with the current path.
func (s *Surface) Clip() {
	cov := s.coverage(s.fillPath)
	if s.cur.clip != nil {
		intersect(cov, s.cur.clip)
	}
	s.cur.clip = cov
}

// Fill paints the interior of the current path.
func (s *Surface) Fill() {
	s.paint(s.coverage(s.fillPath), s.cur.fill)
}

// Stroke paints the outline of the current path with the line width scaled
// by the current transform.
func (s *Surface) Stroke() {
	s.paint(s.coverage(s.strokePath), s.cur.stroke)
}

// SetFillColor sets the fill paint.
func (s *Surface) SetFillColor(c color.Color) { s.cur.fill = c }

// SetStrokeColor sets the stroke paint.
func (s *Surface) SetStrokeColor(c color.Color) { s.cur.stroke = c }

// SetLineWidth sets the stroke width in user units.
func (s *Surface) SetLineWidth(w float64) { s.cur.lineWidth = w }

// SetGlobalAlpha sets the opacity applied to every paint, clamped to [0, 1].
func (s *Surface) SetGlobalAlpha(a float64) { s.cur.alpha = math.Max(0, math.Min(1, a)) }

// GlobalAlpha returns the current opacity.
func (s *Surface) GlobalAlpha() float64 { return s.cur.alpha }

// Clear resets every pixel to transparent.
func (s *Surface) Clear() {
	draw.Draw(s.dst, s.dst.Bounds(), image.Transparent, image.Point{}, draw.Src)
}

// --- internals ---

func (s *Surface) apply(x, y float64) f64.Vec2 {
	m := s.cur.transform
	return f64.Vec2{m[0]*x + m[1]*y + m[2], m[3]*x + m[4]*y + m[5]}
}

// coverage rasterizes the current path with trace into a fresh alpha mask.
func (s *Surface) coverage(trace func()) *image.Alpha {
	w, h := s.Size()
	s.ras.Reset(w, h)
	trace()
	cov := image.NewAlpha(image.Rect(0, 0, w, h))
	s.ras.Draw(cov, cov.Bounds(), image.Opaque, image.Point{})
	return cov
}

func (s *Surface) fillPath() {
	for _, sp := range s.path {
		if len(sp.pts) < 3 {
			continue
		}
		s.ras.MoveTo(float32(sp.pts[0][0]), float32(sp.pts[0][1]))
		for _, p := range sp.pts[1:] {
			s.ras.LineTo(float32(p[0]), float32(p[1]))
		}
		s.ras.ClosePath()
	}
}

// strokePath adds one quad per segment. Every quad is wound the same way
// relative to its segment so overlaps accumulate instead of cancelling.
func (s *Surface) strokePath() {
	m := s.cur.transform
	half := s.cur.lineWidth * math.Sqrt(math.Abs(m[0]*m[4]-m[1]*m[3])) / 2
	if half <= 0 {
		return
	}
	for _, sp := range s.path {
		pts := sp.pts
		if sp.closed && len(pts) > 1 {
			pts = append(pts[:len(pts):len(pts)], pts[0])
		}
		for i := 1; i < len(pts); i++ {
			s.segment(pts[i-1], pts[i], half)
		}
	}
}

func (s *Surface) segment(a, b f64.Vec2, half float64) {
	dx, dy := b[0]-a[0], b[1]-a[1]
	l := math.Hypot(dx, dy)
	if l == 0 {
		return
	}
	// Extend by half the width along the segment so corners are filled.
	ux, uy := dx/l*half, dy/l*half
	nx, ny := -uy, ux
	ax, ay := a[0]-ux, a[1]-uy
	bx, by := b[0]+ux, b[1]+uy
	s.ras.MoveTo(float32(ax+nx), float32(ay+ny))
	s.ras.LineTo(float32(bx+nx), float32(by+ny))
	s.ras.LineTo(float32(bx-nx), float32(by-ny))
	s.ras.LineTo(float32(ax-nx), float32(ay-ny))
	s.ras.ClosePath()
}

// paint composites c over dst through cov, the clip and the global alpha.
func (s *Surface) paint(cov *image.Alpha, c color.Color) {
	if s.cur.clip != nil {
		intersect(cov, s.cur.clip)
	}
	if s.cur.alpha < 1 {
		a := s.cur.alpha
		for i, v := range cov.Pix {
			cov.Pix[i] = uint8(float64(v)*a + 0.5)
		}
	}
	draw.DrawMask(s.dst, s.dst.Bounds(), image.NewUniform(c), image.Point{}, cov, image.Point{}, draw.Over)
}

// intersect multiplies dst's coverage by clip's.
func intersect(dst, clip *image.Alpha) {
	for i, v := range dst.Pix {
		dst.Pix[i] = uint8((uint16(v)*uint16(clip.Pix[i]) + 127) / 255)
	}
}

// mul returns a × b for affine matrices.
func mul(a, b f64.Aff3) f64.Aff3 {
	return f64.Aff3{
		a[0]*b[0] + a[1]*b[3],
		a[0]*b[1] + a[1]*b[4],
		a[0]*b[2] + a[1]*b[5] + a[2],
		a[3]*b[0] + a[4]*b[3],
		a[3]*b[1] + a[4]*b[4],
		a[3]*b[2] + a[4]*b[5] + a[5],
	}
}
