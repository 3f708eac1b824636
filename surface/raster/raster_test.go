package raster_test

import (
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/math/f64"

	"github.com/phanxgames/arbor"
	"github.com/phanxgames/arbor/surface/raster"
)

var _ arbor.Surface = (*raster.Surface)(nil)

var red = color.NRGBA{R: 255, A: 255}

func TestFillRect(t *testing.T) {
	s := raster.New(20, 20)
	s.SetFillColor(red)
	s.BeginPath()
	s.Rect(5, 5, 10, 10)
	s.Fill()

	img := s.Image()
	assert.Equal(t, color.RGBA{R: 255, A: 255}, img.RGBAAt(10, 10))
	assert.Equal(t, color.RGBA{}, img.RGBAAt(2, 2))
	assert.Equal(t, color.RGBA{}, img.RGBAAt(17, 17))
}

func TestTransformAppliesAtPathTime(t *testing.T) {
	s := raster.New(20, 20)
	s.SetFillColor(red)
	s.BeginPath()
	s.Translate(10, 0)
	s.Rect(0, 0, 5, 5)
	// Later transform changes do not move points already added.
	s.SetTransform(f64.Aff3{1, 0, 0, 0, 1, 0})
	s.Fill()

	img := s.Image()
	assert.Equal(t, uint8(255), img.RGBAAt(12, 2).A)
	assert.Equal(t, uint8(0), img.RGBAAt(2, 2).A)
}

func TestSaveRestore(t *testing.T) {
	s := raster.New(10, 10)
	s.Save()
	s.Translate(3, 4)
	s.Scale(2, 2)
	s.SetGlobalAlpha(0.5)
	assert.Equal(t, f64.Aff3{2, 0, 3, 0, 2, 4}, s.CurrentTransform())
	s.Restore()
	assert.Equal(t, f64.Aff3{1, 0, 0, 0, 1, 0}, s.CurrentTransform())
	assert.Equal(t, 1.0, s.GlobalAlpha())

	// Unbalanced restores are ignored.
	s.Restore()
}

func TestRotate(t *testing.T) {
	s := raster.New(10, 10)
	s.Rotate(math.Pi / 2)
	m := s.CurrentTransform()
	assert.InDelta(t, 0, m[0], 1e-12)
	assert.InDelta(t, -1, m[1], 1e-12)
	assert.InDelta(t, 1, m[3], 1e-12)
}

func TestClip(t *testing.T) {
	s := raster.New(20, 20)
	s.BeginPath()
	s.Rect(0, 0, 10, 20)
	s.Clip()

	s.SetFillColor(red)
	s.BeginPath()
	s.Rect(0, 0, 20, 20)
	s.Fill()

	img := s.Image()
	assert.Equal(t, uint8(255), img.RGBAAt(5, 5).A)
	assert.Equal(t, uint8(0), img.RGBAAt(15, 5).A)
}

func TestClipIntersectsAndRestores(t *testing.T) {
	s := raster.New(20, 20)
	s.Save()
	s.BeginPath()
	s.Rect(0, 0, 10, 20)
	s.Clip()
	s.BeginPath()
	s.Rect(0, 0, 20, 10)
	s.Clip()

	s.SetFillColor(red)
	s.BeginPath()
	s.Rect(0, 0, 20, 20)
	s.Fill()
	s.Restore()

	img := s.Image()
	assert.Equal(t, uint8(255), img.RGBAAt(5, 5).A)
	assert.Equal(t, uint8(0), img.RGBAAt(15, 5).A)
	assert.Equal(t, uint8(0), img.RGBAAt(5, 15).A)

	// The clip is gone after Restore.
	s.BeginPath()
	s.Rect(0, 0, 20, 20)
	s.Fill()
	assert.Equal(t, uint8(255), img.RGBAAt(15, 15).A)
}

func TestGlobalAlpha(t *testing.T) {
	s := raster.New(10, 10)
	s.SetGlobalAlpha(0.5)
	s.SetFillColor(color.NRGBA{G: 255, A: 255})
	s.BeginPath()
	s.Rect(0, 0, 10, 10)
	s.Fill()

	c := s.Image().RGBAAt(5, 5)
	assert.InDelta(t, 128, int(c.A), 1)
	assert.InDelta(t, 128, int(c.G), 1)
}

func TestStroke(t *testing.T) {
	s := raster.New(30, 30)
	s.SetStrokeColor(red)
	s.SetLineWidth(2)
	s.BeginPath()
	s.Rect(5, 5, 20, 20)
	s.Stroke()

	img := s.Image()
	assert.Equal(t, uint8(255), img.RGBAAt(15, 5).A, "top edge")
	assert.Equal(t, uint8(255), img.RGBAAt(5, 15).A, "left edge")
	assert.Equal(t, uint8(0), img.RGBAAt(15, 15).A, "interior")
}

func TestClear(t *testing.T) {
	s := raster.New(4, 4)
	s.SetFillColor(red)
	s.BeginPath()
	s.Rect(0, 0, 4, 4)
	s.Fill()
	s.Clear()
	assert.Equal(t, color.RGBA{}, s.Image().RGBAAt(1, 1))
}

func TestRenderWorld(t *testing.T) {
	w := arbor.NewWorld()
	cam := arbor.NewCamera(arbor.CameraOptions{X: 50, Y: 50, Width: 100, Height: 100})
	w.AddCamera(cam)
	fill := arbor.Color{R: 1, A: 1}
	w.AddNode(arbor.NewNode(arbor.NodeOptions{
		Kind: arbor.KindEllipse, X: 30, Y: 30, Width: 40, Height: 40, Fill: &fill,
	}))

	s := raster.New(100, 100)
	c := arbor.NewCanvas(s, arbor.CanvasOptions{Clear: true})
	c.SetCamera(cam)
	require.NoError(t, c.Render())

	assert.Equal(t, uint8(255), s.Image().RGBAAt(50, 50).R)
	assert.Equal(t, uint8(0), s.Image().RGBAAt(32, 32).A, "outside the inscribed ellipse")
	sw, sh := s.Size()
	assert.Equal(t, 100, sw)
	assert.Equal(t, 100, sh)
}

func TestSnapshotSharesTarget(t *testing.T) {
	s := raster.New(4, 4)
	c := arbor.NewCanvas(s, arbor.CanvasOptions{})
	img, err := c.Snapshot()
	require.NoError(t, err)
	assert.Same(t, s.Image(), img)
}
