package arbor

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// TweenGroup animates up to 4 properties of a Node simultaneously. Create
// one with TweenPosition, TweenScale, TweenRotation, TweenOpacity or
// TweenFill and call Update(dt) each frame. Values are written through the
// node's setters, so every dependent cache unit is invalidated as usual.
//
// There is no global animation manager; callers drive Update themselves.
type TweenGroup struct {
	tweens [4]*gween.Tween
	apply  [4]func(float64)
	count  int
	target *Node
	Done   bool
}

func newTweenGroup(n *Node) *TweenGroup {
	return &TweenGroup{target: n}
}

func (g *TweenGroup) add(from, to float64, duration float32, fn ease.TweenFunc, apply func(float64)) {
	g.tweens[g.count] = gween.New(float32(from), float32(to), duration, fn)
	g.apply[g.count] = apply
	g.count++
}

// Target returns the animated node.
func (g *TweenGroup) Target() *Node { return g.target }

// Update advances all tweens by dt seconds and writes the values to the
// target node. A finished group ignores further updates.
func (g *TweenGroup) Update(dt float32) {
	if g.Done {
		return
	}
	allDone := true
	for i := 0; i < g.count; i++ {
		val, finished := g.tweens[i].Update(dt)
		g.apply[i](float64(val))
		if !finished {
			allDone = false
		}
	}
	g.Done = allDone
}

// Stop marks the group done without writing further values.
func (g *TweenGroup) Stop() { g.Done = true }

// TweenPosition animates the node's position to (toX, toY).
func TweenPosition(n *Node, toX, toY float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	g := newTweenGroup(n)
	g.add(n.x, toX, duration, fn, n.SetX)
	g.add(n.y, toY, duration, fn, n.SetY)
	return g
}

// TweenScale animates both scale factors.
func TweenScale(n *Node, toSX, toSY float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	g := newTweenGroup(n)
	g.add(n.sx, toSX, duration, fn, n.SetScalingX)
	g.add(n.sy, toSY, duration, fn, n.SetScalingY)
	return g
}

// TweenRotation animates the rotation, in degrees.
func TweenRotation(n *Node, to float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	g := newTweenGroup(n)
	g.add(n.rotation, to, duration, fn, n.SetRotation)
	return g
}

// TweenOpacity animates the opacity. Reaching 0 hides the subtree.
func TweenOpacity(n *Node, to float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	g := newTweenGroup(n)
	g.add(n.opacity, to, duration, fn, n.SetOpacity)
	return g
}

// TweenFill animates all four components of the node's fill color.
func TweenFill(n *Node, to Color, duration float32, fn ease.TweenFunc) *TweenGroup {
	g := newTweenGroup(n)
	g.add(n.Fill.R, to.R, duration, fn, func(v float64) { n.Fill.R = v })
	g.add(n.Fill.G, to.G, duration, fn, func(v float64) { n.Fill.G = v })
	g.add(n.Fill.B, to.B, duration, fn, func(v float64) { n.Fill.B = v })
	g.add(n.Fill.A, to.A, duration, fn, func(v float64) { n.Fill.A = v })
	return g
}
