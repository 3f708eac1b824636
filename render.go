package arbor

import (
	"time"
)

// FrameStats holds per-frame traversal counters for the last Render.
type FrameStats struct {
	Visited  int // nodes reached by the walker
	Drawn    int // nodes whose draw routine ran
	Culled   int // nodes rejected by the viewport test
	Hidden   int // subtrees skipped for zero opacity
	Duration time.Duration
}

// walker carries the per-frame state of one render pass.
type walker struct {
	canvas  *Canvas
	cam     *Camera
	surface Surface
	view    Rect
	stats   *FrameStats
}

// render draws the world as seen by cam onto canvas.
func (w *World) render(c *Canvas, cam *Camera) {
	start := time.Now()
	s := c.surface
	c.stats = FrameStats{}

	if c.clear {
		s.Clear()
	}

	r := walker{canvas: c, cam: cam, surface: s, view: cullRect(c, cam), stats: &c.stats}

	s.Save()
	s.Transform(cam.viewMatrix().Aff3())
	for _, n := range w.nodes {
		r.visit(n, 1)
	}
	s.Restore()

	if c.Debug.Enabled {
		w.drawDebug(c, cam)
	}

	c.stats.Duration = time.Since(start)
	if w.debug {
		w.debugLog(cam, c.stats)
	}
}

// cullRect returns the surface rectangle nodes are tested against: the
// camera viewport, or the whole surface when the camera has no size.
func cullRect(c *Canvas, cam *Camera) Rect {
	if cam.width > 0 && cam.height > 0 {
		return cam.Viewport()
	}
	sw, sh := c.surface.Size()
	return Rect{Width: float64(sw), Height: float64(sh)}
}

// visit walks n and its subtree depth-first. The surface is in the parent's
// space on entry and restored to it on return.
func (r *walker) visit(n *Node, parentAlpha float64) {
	r.stats.Visited++
	if n.opacity == 0 {
		r.stats.Hidden++
		return
	}

	culled := false
	if r.canvas.cullMode != CullOff && r.outside(n) {
		r.stats.Culled++
		if r.canvas.cullMode == CullSubtree {
			return
		}
		culled = true
	}

	s := r.surface
	alpha := parentAlpha * n.opacity

	s.Save()
	local, _ := n.localMatrices()
	s.Transform(local.Aff3())
	s.SetGlobalAlpha(alpha)

	if n.HasMask() {
		r.clip(n)
	}

	if !culled {
		n.draw(s)
		r.stats.Drawn++
	}

	if len(n.children) > 0 {
		children := n.children
		if !n.childrenSorted {
			rebuildSortedChildren(n)
		}
		if n.sortedChildren != nil {
			children = n.sortedChildren
		}
		for _, child := range children {
			r.visit(child, alpha)
		}
	}
	s.Restore()
}

// outside reports whether n's rectangle, mapped onto the surface, misses
// the cull rectangle. Nodes without an extent are never culled so that
// empty groups still reach their children.
func (r *walker) outside(n *Node) bool {
	if n.width == 0 && n.height == 0 {
		return false
	}
	m := n.CombinedTransformation(r.cam)
	var pts [4]Vec2
	for i, v := range n.Vertices() {
		pts[i].X, pts[i].Y = m.Apply(v.X, v.Y)
	}
	return !boundsOf(pts[:]).Intersects(r.view)
}

// clip intersects the surface clip with n's mask. The surface is already in
// n's local space. A mask node's outline is traced through its own local
// transform, which is popped again before Clip; the path keeps its points.
func (r *walker) clip(n *Node) {
	s := r.surface
	s.BeginPath()
	switch {
	case n.mask != nil:
		s.Save()
		m, _ := n.mask.localMatrices()
		s.Transform(m.Aff3())
		n.mask.TracePath(s)
		s.Restore()
	case n.maskFunc != nil:
		n.maskFunc(s)
	}
	s.Clip()
}

// rebuildSortedChildren rebuilds the ZIndex-sorted traversal order for a node.
// Stable insertion sort: children added in order keep their order among
// equal ZIndex values.
func rebuildSortedChildren(n *Node) {
	nc := len(n.children)
	if cap(n.sortedChildren) < nc {
		n.sortedChildren = make([]*Node, nc)
	}
	n.sortedChildren = n.sortedChildren[:nc]
	copy(n.sortedChildren, n.children)
	for i := 1; i < nc; i++ {
		key := n.sortedChildren[i]
		j := i - 1
		for j >= 0 && n.sortedChildren[j].zIndex > key.zIndex {
			n.sortedChildren[j+1] = n.sortedChildren[j]
			j--
		}
		n.sortedChildren[j+1] = key
	}
	n.childrenSorted = true
}

// TransformContextToObject multiplies the surface transform so that
// subsequent drawing, expressed in to's local space, lands where it would if
// drawn by to itself, given a surface currently positioned in from's local
// space. from and to may be unrelated, or one may be the other's ancestor.
func TransformContextToObject(s Surface, from, to *Node) {
	var bridge Matrix
	_, fromInv := from.worldMatrices()
	toWorld, _ := to.worldMatrices()
	bridge.Multiply(fromInv, toWorld)
	s.Transform(bridge.Aff3())
}
