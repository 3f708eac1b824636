package arbor

import (
	"github.com/sirupsen/logrus"
	"golang.org/x/image/math/f64"
)

// debugLog reports the frame counters of one render pass.
func (w *World) debugLog(cam *Camera, stats FrameStats) {
	Logger().WithFields(logrus.Fields{
		"camera":   cam.id,
		"visited":  stats.Visited,
		"drawn":    stats.Drawn,
		"culled":   stats.Culled,
		"hidden":   stats.Hidden,
		"duration": stats.Duration,
	}).Info("arbor: frame")
}

// drawDebug strokes the bounding quad of every root node, or of every node
// when Descendants is set. Each quad is the node's global vertices mapped
// through its parent's combined transform (the camera view for roots).
func (w *World) drawDebug(c *Canvas, cam *Camera) {
	s := c.surface
	s.Save()
	s.SetTransform(f64.Aff3{1, 0, 0, 0, 1, 0})
	s.SetGlobalAlpha(1)
	s.SetStrokeColor(c.Debug.Color.NRGBA())
	s.SetLineWidth(c.Debug.LineWidth)
	for _, n := range w.nodes {
		if !c.Debug.Descendants {
			strokeBounds(s, n, cam)
			continue
		}
		walk(n, func(d *Node) bool {
			strokeBounds(s, d, cam)
			return true
		})
	}
	s.Restore()
}

// DebugQuad returns the four surface-space corners the debug overlay strokes
// for n under cam.
func DebugQuad(n *Node, cam *Camera) [4]Vec2 {
	var parent Matrix
	if n.parent != nil {
		parent = n.parent.CombinedTransformation(cam)
	} else {
		parent = *cam.viewMatrix()
	}
	var quad [4]Vec2
	for i, v := range n.GlobalVertices() {
		quad[i].X, quad[i].Y = parent.Apply(v.X, v.Y)
	}
	return quad
}

func strokeBounds(s Surface, n *Node, cam *Camera) {
	q := DebugQuad(n, cam)
	s.BeginPath()
	s.MoveTo(q[0].X, q[0].Y)
	for _, p := range q[1:] {
		s.LineTo(p.X, p.Y)
	}
	s.ClosePath()
	s.Stroke()
}

// debugMaxTreeDepth is the nesting depth above which debug mode warns.
const debugMaxTreeDepth = 32

func debugCheckTreeDepth(n *Node) {
	depth := 0
	for p := n; p != nil; p = p.parent {
		depth++
	}
	if depth > debugMaxTreeDepth {
		Logger().WithFields(logrus.Fields{
			"node":  n.Name,
			"depth": depth,
			"limit": debugMaxTreeDepth,
		}).Warn("arbor: tree depth exceeds limit")
	}
}

// debugMaxChildCount is the child count above which debug mode warns.
const debugMaxChildCount = 1000

func debugCheckChildCount(n *Node) {
	if len(n.children) > debugMaxChildCount {
		Logger().WithFields(logrus.Fields{
			"node":     n.Name,
			"children": len(n.children),
			"limit":    debugMaxChildCount,
		}).Warn("arbor: child count exceeds limit")
	}
}
