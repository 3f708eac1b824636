// Package ebitensurface implements arbor.Surface on an *ebiten.Image.
//
// Paths are triangulated with ebiten's vector package and drawn with
// DrawTriangles. Ebitengine has no clip stack, so Clip renders the path into
// an offscreen alpha mask and every later fill or stroke is drawn into a
// scratch layer, masked with a destination-alpha blend, and composited over
// the target.
package ebitensurface

import (
	"image"
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/math/f64"
)

var identity = f64.Aff3{1, 0, 0, 0, 1, 0}

// blendMask keeps the destination only where the source has alpha.
var blendMask = ebiten.Blend{
	BlendFactorSourceRGB:        ebiten.BlendFactorZero,
	BlendFactorSourceAlpha:      ebiten.BlendFactorZero,
	BlendFactorDestinationRGB:   ebiten.BlendFactorSourceAlpha,
	BlendFactorDestinationAlpha: ebiten.BlendFactorSourceAlpha,
	BlendOperationRGB:           ebiten.BlendOperationAdd,
	BlendOperationAlpha:         ebiten.BlendOperationAdd,
}

// whitePixel is the source texture for solid fills.
var whitePixel *ebiten.Image

func white() *ebiten.Image {
	if whitePixel == nil {
		whitePixel = ebiten.NewImage(3, 3)
		whitePixel.Fill(color.White)
	}
	return whitePixel.SubImage(whitePixel.Bounds().Inset(1)).(*ebiten.Image)
}

type state struct {
	transform f64.Aff3
	clip      *ebiten.Image // nil when unclipped
	alpha     float64
	fill      color.Color
	stroke    color.Color
	lineWidth float64
}

// Surface draws onto an ebiten image.
type Surface struct {
	dst   *ebiten.Image
	cur   state
	stack []state

	path     vector.Path
	hasPoint bool

	pool  imagePool
	verts []ebiten.Vertex
	inds  []uint16
}

// New returns a surface drawing onto dst.
func New(dst *ebiten.Image) *Surface {
	s := &Surface{}
	s.SetTarget(dst)
	return s
}

// SetTarget retargets the surface, typically to each frame's screen image.
// The state stack, path and clip masks are reset.
func (s *Surface) SetTarget(dst *ebiten.Image) {
	s.dst = dst
	s.stack = s.stack[:0]
	s.cur = state{
		transform: identity,
		alpha:     1,
		fill:      color.Black,
		stroke:    color.Black,
		lineWidth: 1,
	}
	s.BeginPath()
	s.pool.releaseAll()
}

// Target returns the image being drawn to.
func (s *Surface) Target() *ebiten.Image { return s.dst }

// Size returns the target size in pixels.
func (s *Surface) Size() (int, int) {
	b := s.dst.Bounds()
	return b.Dx(), b.Dy()
}

// Snapshot reads the target's pixels back. Ebitengine stores premultiplied
// RGBA, which is the layout of image.RGBA, so no conversion is needed. Call
// it from Draw, after the frame has been rendered.
func (s *Surface) Snapshot() image.Image {
	b := s.dst.Bounds()
	img := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	s.dst.ReadPixels(img.Pix)
	return img
}

// Save pushes the transform, clip, alpha and paint state.
func (s *Surface) Save() { s.stack = append(s.stack, s.cur) }

// Restore pops the state pushed by the matching Save.
func (s *Surface) Restore() {
	if len(s.stack) == 0 {
		return
	}
	s.cur = s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]
}

func (s *Surface) Translate(x, y float64) { s.Transform(f64.Aff3{1, 0, x, 0, 1, y}) }

func (s *Surface) Rotate(rad float64) {
	sin, cos := math.Sincos(rad)
	s.Transform(f64.Aff3{cos, -sin, 0, sin, cos, 0})
}

func (s *Surface) Scale(sx, sy float64) { s.Transform(f64.Aff3{sx, 0, 0, 0, sy, 0}) }

// Transform multiplies the current transform by m on the right.
func (s *Surface) Transform(m f64.Aff3) {
	a := s.cur.transform
	s.cur.transform = f64.Aff3{
		a[0]*m[0] + a[1]*m[3],
		a[0]*m[1] + a[1]*m[4],
		a[0]*m[2] + a[1]*m[5] + a[2],
		a[3]*m[0] + a[4]*m[3],
		a[3]*m[1] + a[4]*m[4],
		a[3]*m[2] + a[4]*m[5] + a[5],
	}
}

func (s *Surface) SetTransform(m f64.Aff3) { s.cur.transform = m }

func (s *Surface) CurrentTransform() f64.Aff3 { return s.cur.transform }

// GeoM returns the current transform as an ebiten.GeoM, for callers that
// draw images directly onto Target from a draw callback.
func (s *Surface) GeoM() ebiten.GeoM {
	m := s.cur.transform
	var g ebiten.GeoM
	g.SetElement(0, 0, m[0])
	g.SetElement(0, 1, m[1])
	g.SetElement(0, 2, m[2])
	g.SetElement(1, 0, m[3])
	g.SetElement(1, 1, m[4])
	g.SetElement(1, 2, m[5])
	return g
}

func (s *Surface) BeginPath() {
	s.path = vector.Path{}
	s.hasPoint = false
}

func (s *Surface) MoveTo(x, y float64) {
	dx, dy := s.apply(x, y)
	s.path.MoveTo(dx, dy)
	s.hasPoint = true
}

func (s *Surface) LineTo(x, y float64) {
	if !s.hasPoint {
		s.MoveTo(x, y)
		return
	}
	dx, dy := s.apply(x, y)
	s.path.LineTo(dx, dy)
}

func (s *Surface) ClosePath() { s.path.Close() }

func (s *Surface) Rect(x, y, w, h float64) {
	s.MoveTo(x, y)
	s.LineTo(x+w, y)
	s.LineTo(x+w, y+h)
	s.LineTo(x, y+h)
	s.ClosePath()
}

// Clip intersects the current clip with the current path.
func (s *Surface) Clip() {
	w, h := s.Size()
	mask := s.pool.acquire(w, h)
	s.verts, s.inds = s.path.AppendVerticesAndIndicesForFilling(s.verts[:0], s.inds[:0])
	s.triangles(mask, color.White, 1)
	if s.cur.clip != nil {
		var op ebiten.DrawImageOptions
		op.Blend = blendMask
		mask.DrawImage(s.cur.clip, &op)
	}
	s.cur.clip = mask
}

func (s *Surface) Fill() {
	s.verts, s.inds = s.path.AppendVerticesAndIndicesForFilling(s.verts[:0], s.inds[:0])
	s.paint(s.cur.fill)
}

func (s *Surface) Stroke() {
	m := s.cur.transform
	width := s.cur.lineWidth * math.Sqrt(math.Abs(m[0]*m[4]-m[1]*m[3]))
	s.verts, s.inds = s.path.AppendVerticesAndIndicesForStroke(s.verts[:0], s.inds[:0], &vector.StrokeOptions{
		Width:    float32(width),
		LineJoin: vector.LineJoinMiter,
	})
	s.paint(s.cur.stroke)
}

func (s *Surface) SetFillColor(c color.Color)   { s.cur.fill = c }
func (s *Surface) SetStrokeColor(c color.Color) { s.cur.stroke = c }
func (s *Surface) SetLineWidth(w float64)       { s.cur.lineWidth = w }

func (s *Surface) SetGlobalAlpha(a float64) { s.cur.alpha = math.Max(0, math.Min(1, a)) }
func (s *Surface) GlobalAlpha() float64     { return s.cur.alpha }

// Clear resets the target to transparent.
func (s *Surface) Clear() { s.dst.Clear() }

func (s *Surface) apply(x, y float64) (float32, float32) {
	m := s.cur.transform
	return float32(m[0]*x + m[1]*y + m[2]), float32(m[3]*x + m[4]*y + m[5])
}

// paint draws the triangulated path in c, through the clip if one is set.
func (s *Surface) paint(c color.Color) {
	if s.cur.clip == nil {
		s.triangles(s.dst, c, s.cur.alpha)
		return
	}
	w, h := s.Size()
	layer := s.pool.acquire(w, h)
	s.triangles(layer, c, s.cur.alpha)

	var op ebiten.DrawImageOptions
	op.Blend = blendMask
	layer.DrawImage(s.cur.clip, &op)
	s.dst.DrawImage(layer, nil)
}

// triangles draws s.verts/s.inds onto dst in c scaled by alpha.
func (s *Surface) triangles(dst *ebiten.Image, c color.Color, alpha float64) {
	if len(s.inds) == 0 {
		return
	}
	// Vertex colors are straight alpha.
	nc := color.NRGBAModel.Convert(c).(color.NRGBA)
	for i := range s.verts {
		v := &s.verts[i]
		v.SrcX, v.SrcY = 1, 1
		v.ColorR = float32(nc.R) / 0xff
		v.ColorG = float32(nc.G) / 0xff
		v.ColorB = float32(nc.B) / 0xff
		v.ColorA = float32(nc.A) / 0xff * float32(alpha)
	}
	op := &ebiten.DrawTrianglesOptions{
		FillRule:  ebiten.FillRuleNonZero,
		AntiAlias: true,
	}
	dst.DrawTriangles(s.verts, s.inds, white(), op)
}
