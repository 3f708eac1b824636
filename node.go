package arbor

import (
	"math"

	"github.com/sirupsen/logrus"
)

// Cache units owned only by nodes.
const (
	UnitWorldTransformations    = "worldTransformations"
	UnitCombinedTransformations = "combinedTransformations"
)

// NodeOptions configures a new Node. Zero ScalingX/ScalingY mean 1; a nil
// Opacity means fully opaque; a nil Fill means white.
type NodeOptions struct {
	ID       string
	Name     string
	Kind     NodeKind
	X, Y     float64
	Rotation float64 // degrees
	ScalingX float64
	ScalingY float64
	Width    float64
	Height   float64
	Opacity  *float64
	Fill     *Color
	ZIndex   int
}

// Node is a drawable scene-graph element. A single flat struct is used for
// every kind; Kind selects the built-in draw routine and OnDraw adds a
// custom one.
type Node struct {
	Transform

	Name string
	Kind NodeKind
	Fill Color

	// OnDraw is invoked with the surface already positioned in the node's
	// local space. Runs after the built-in routine for Kind.
	OnDraw func(n *Node, s Surface)

	// Metadata
	UserData any

	// Hierarchy
	parent   *Node
	children []*Node
	world    *World

	opacity float64
	zIndex  int

	// Clipping
	mask     *Node
	maskFunc func(s Surface)

	// Internal
	childrenSorted bool
	sortedChildren []*Node // reused buffer for ZIndex-sorted traversal order
}

// NewNode creates a node from opts. Invalid numeric options (NaN, ±Inf)
// are ignored and the defaults kept.
func NewNode(opts NodeOptions) *Node {
	n := &Node{
		Name:           opts.Name,
		Kind:           KindGroup,
		Fill:           ColorWhite,
		opacity:        1,
		zIndex:         opts.ZIndex,
		childrenSorted: true,
	}
	n.initTransform(opts.ID, UnitScalingX, UnitScalingY)
	c := n.cache
	c.Define(UnitWorldTransformations, UnitTransformations)
	c.Define(UnitCombinedTransformations, UnitWorldTransformations)
	c.On(CacheInvalidate, func(ev CacheEvent) {
		if ev.Unit != UnitWorldTransformations {
			return
		}
		for _, child := range n.children {
			child.cache.Invalidate(UnitWorldTransformations)
		}
	})

	if opts.ScalingX == 0 {
		opts.ScalingX = 1
	}
	if opts.ScalingY == 0 {
		opts.ScalingY = 1
	}
	if opts.Fill != nil {
		n.Fill = *opts.Fill
	}
	if opts.Opacity != nil {
		n.SetOpacity(*opts.Opacity)
	}
	n.SetKind(opts.Kind)
	n.SetPosition(opts.X, opts.Y)
	n.SetRotation(opts.Rotation)
	n.SetScaling(opts.ScalingX, opts.ScalingY)
	n.SetSize(opts.Width, opts.Height)
	return n
}

// --- Properties ---

// ScalingX returns the horizontal scale factor.
func (n *Node) ScalingX() float64 { return n.sx }

// ScalingY returns the vertical scale factor.
func (n *Node) ScalingY() float64 { return n.sy }

// SetScalingX sets the horizontal scale factor.
func (n *Node) SetScalingX(sx float64) { n.setTransform(UnitScalingX, &n.sx, sx) }

// SetScalingY sets the vertical scale factor.
func (n *Node) SetScalingY(sy float64) { n.setTransform(UnitScalingY, &n.sy, sy) }

// SetScaling sets both scale factors.
func (n *Node) SetScaling(sx, sy float64) {
	n.setTransform(UnitScalingX, &n.sx, sx)
	n.setTransform(UnitScalingY, &n.sy, sy)
}

// Opacity returns the node's opacity in [0, 1].
func (n *Node) Opacity() float64 { return n.opacity }

// SetOpacity sets the opacity, clamped to [0, 1]. A node with opacity 0 is
// skipped together with its subtree.
func (n *Node) SetOpacity(a float64) {
	if math.IsNaN(a) {
		Logger().WithFields(logrus.Fields{"id": n.id, "property": "opacity"}).
			Debug("arbor: rejected non-numeric value")
		return
	}
	n.opacity = math.Max(0, math.Min(1, a))
}

// SetKind sets the built-in draw routine. Unknown kinds are ignored.
func (n *Node) SetKind(k NodeKind) {
	if k >= numNodeKinds {
		Logger().WithFields(logrus.Fields{"id": n.id, "kind": uint8(k)}).
			Debug("arbor: rejected unknown node kind")
		return
	}
	n.Kind = k
}

// ZIndex returns the node's sibling draw order key.
func (n *Node) ZIndex() int { return n.zIndex }

// SetZIndex sets the node's ZIndex and marks the parent's children as unsorted.
func (n *Node) SetZIndex(z int) {
	if n.zIndex == z {
		return
	}
	n.zIndex = z
	if n.parent != nil {
		n.parent.childrenSorted = false
	}
}

// World returns the world the node's tree belongs to, or nil.
func (n *Node) World() *World { return n.world }

// --- Tree manipulation ---

// Parent returns the parent node, or nil for world roots and detached nodes.
func (n *Node) Parent() *Node { return n.parent }

// AddChild appends child to this node's children.
// If child already has a parent, it is removed from that parent first.
// Panics if child is nil or child is an ancestor of this node (cycle).
func (n *Node) AddChild(child *Node) {
	n.addChild(child, -1)
}

// AddChildAt inserts child at the given index.
// Same reparenting and cycle-check behavior as AddChild.
func (n *Node) AddChildAt(child *Node, index int) {
	if index < 0 {
		panic("arbor: child index out of range")
	}
	n.addChild(child, index)
}

// addChild inserts child at index, or appends it when index is negative.
func (n *Node) addChild(child *Node, index int) {
	if child == nil {
		panic("arbor: cannot add nil child")
	}
	if isAncestor(child, n) {
		panic("arbor: adding child would create a cycle")
	}
	child.detach()
	if index < 0 {
		index = len(n.children)
	}
	if index > len(n.children) {
		panic("arbor: child index out of range")
	}
	child.parent = n
	n.children = append(n.children, nil)
	copy(n.children[index+1:], n.children[index:])
	n.children[index] = child
	n.childrenSorted = false
	child.attached(n.world)
	if n.world != nil && n.world.debug {
		debugCheckTreeDepth(child)
		debugCheckChildCount(n)
	}
}

// RemoveChild detaches child from this node.
// Panics if child.Parent() != n.
func (n *Node) RemoveChild(child *Node) {
	if child.parent != n {
		panic("arbor: child's parent is not this node")
	}
	n.removeChildByPtr(child)
	child.parent = nil
	child.attached(nil)
}

// RemoveChildAt removes and returns the child at the given index.
func (n *Node) RemoveChildAt(index int) *Node {
	if index < 0 || index >= len(n.children) {
		panic("arbor: child index out of range")
	}
	child := n.children[index]
	n.RemoveChild(child)
	return child
}

// RemoveFromParent detaches this node from its parent or, for a world
// root, from its world. No-op for detached nodes.
func (n *Node) RemoveFromParent() {
	n.detach()
}

// RemoveChildren detaches all children from this node.
func (n *Node) RemoveChildren() {
	for _, child := range n.children {
		child.parent = nil
		child.attached(nil)
	}
	clear(n.children)
	n.children = n.children[:0]
	clear(n.sortedChildren)
	n.sortedChildren = n.sortedChildren[:0]
	n.childrenSorted = true
}

// Children returns the child list. The returned slice MUST NOT be mutated by the caller.
func (n *Node) Children() []*Node {
	return n.children
}

// NumChildren returns the number of children.
func (n *Node) NumChildren() int {
	return len(n.children)
}

// ChildAt returns the child at the given index.
func (n *Node) ChildAt(index int) *Node {
	return n.children[index]
}

// SetChildIndex moves child to a new index among its siblings.
func (n *Node) SetChildIndex(child *Node, index int) {
	if child.parent != n {
		panic("arbor: child's parent is not this node")
	}
	if index < 0 || index >= len(n.children) {
		panic("arbor: child index out of range")
	}
	n.removeChildByPtr(child)
	n.children = append(n.children, nil)
	copy(n.children[index+1:], n.children[index:])
	n.children[index] = child
	n.childrenSorted = false
}

// detach removes n from whichever collection owns it.
func (n *Node) detach() {
	switch {
	case n.parent != nil:
		n.parent.RemoveChild(n)
	case n.world != nil:
		n.world.RemoveNode(n)
	}
}

// attached records the subtree's new world and drops every world and
// camera-combined transform below n.
func (n *Node) attached(w *World) {
	n.cache.Invalidate(UnitWorldTransformations)
	setSubtreeWorld(n, w)
}

func setSubtreeWorld(n *Node, w *World) {
	n.world = w
	n.cache.Invalidate(UnitCombinedTransformations)
	for _, child := range n.children {
		setSubtreeWorld(child, w)
	}
}

// --- Helpers ---

// isAncestor reports whether candidate is an ancestor of node.
func isAncestor(candidate, node *Node) bool {
	for p := node; p != nil; p = p.parent {
		if p == candidate {
			return true
		}
	}
	return false
}

// removeChildByPtr removes child from n.children without clearing child.parent.
// Uses copy+nil to avoid retaining a dangling pointer in the backing array.
func (n *Node) removeChildByPtr(child *Node) {
	for i, c := range n.children {
		if c == child {
			copy(n.children[i:], n.children[i+1:])
			n.children[len(n.children)-1] = nil
			n.children = n.children[:len(n.children)-1]
			n.childrenSorted = false
			return
		}
	}
}

// --- World and camera space ---

// worldMatrices returns the parent chain × local transform and its inverse.
func (n *Node) worldMatrices() (m, inv *Matrix) {
	u := n.cache.Get(UnitWorldTransformations)
	m = matrixField(u, "matrix")
	inv = matrixField(u, "inverse")
	if !u.Valid {
		local, localInv := n.localMatrices()
		if n.parent != nil {
			pm, _ := n.parent.worldMatrices()
			m.Multiply(pm, local)
			inv.Invert(m)
		} else {
			*m = *local
			*inv = *localInv
		}
		n.cache.Update(UnitWorldTransformations, nil)
	}
	return m, inv
}

// WorldMatrix returns the matrix mapping local space into world space.
func (n *Node) WorldMatrix() Matrix {
	m, _ := n.worldMatrices()
	return *m
}

// InverseWorldMatrix returns the matrix mapping world space into local space.
func (n *Node) InverseWorldMatrix() Matrix {
	_, inv := n.worldMatrices()
	return *inv
}

// LocalToWorld converts a local-space point to world space.
func (n *Node) LocalToWorld(lx, ly float64) (wx, wy float64) {
	m, _ := n.worldMatrices()
	return m.Apply(lx, ly)
}

// WorldToLocal converts a world-space point to this node's local space.
func (n *Node) WorldToLocal(wx, wy float64) (lx, ly float64) {
	_, inv := n.worldMatrices()
	return inv.Apply(wx, wy)
}

// CombinedTransformation returns the matrix mapping the node's local space
// onto cam's surface: cam's view × the node's world matrix. It is cached for
// the last camera asked and keyed by the camera's view version, so cameras
// outside the node's world never see a stale result.
func (n *Node) CombinedTransformation(cam *Camera) Matrix {
	view := cam.viewMatrix()
	u := n.cache.Get(UnitCombinedTransformations)
	m := matrixField(u, "matrix")
	if u.Valid && u.Fields["camera"] == cam && u.Fields["view"] == cam.viewVersion {
		return *m
	}
	world, _ := n.worldMatrices()
	m.Multiply(view, world)
	n.cache.Update(UnitCombinedTransformations, Fields{"camera": cam, "view": cam.viewVersion})
	return *m
}

// --- Masks ---

// SetMask clips the node and its subtree to maskNode's outline. The mask
// node is NOT part of the scene tree; its transform is relative to the
// masked node.
func (n *Node) SetMask(maskNode *Node) {
	n.mask = maskNode
	n.maskFunc = nil
}

// SetMaskFunc clips the node and its subtree to the path fn builds in the
// node's local space.
func (n *Node) SetMaskFunc(fn func(s Surface)) {
	n.maskFunc = fn
	n.mask = nil
}

// ClearMask removes the mask from this node.
func (n *Node) ClearMask() {
	n.mask = nil
	n.maskFunc = nil
}

// Mask returns the current mask node, or nil if no mask node is set.
func (n *Node) Mask() *Node {
	return n.mask
}

// HasMask reports whether a mask node or mask func is set.
func (n *Node) HasMask() bool {
	return n.mask != nil || n.maskFunc != nil
}

// --- Drawing ---

const ellipseSegments = 64

// TracePath appends the node's outline to the surface's current path in
// local coordinates.
func (n *Node) TracePath(s Surface) {
	v := n.Vertices()
	switch n.Kind {
	case KindEllipse:
		cx, cy := (v[0].X+v[2].X)/2, (v[0].Y+v[2].Y)/2
		rx, ry := n.width/2, n.height/2
		for i := 0; i < ellipseSegments; i++ {
			sin, cos := math.Sincos(2 * math.Pi * float64(i) / ellipseSegments)
			if i == 0 {
				s.MoveTo(cx+rx*cos, cy+ry*sin)
			} else {
				s.LineTo(cx+rx*cos, cy+ry*sin)
			}
		}
		s.ClosePath()
	default:
		s.Rect(v[0].X, v[0].Y, n.width, n.height)
	}
}

// draw runs the node's own routine. The surface is already in local space.
func (n *Node) draw(s Surface) {
	switch n.Kind {
	case KindRectangle, KindEllipse:
		s.SetFillColor(n.Fill.NRGBA())
		s.BeginPath()
		n.TracePath(s)
		s.Fill()
	}
	if n.OnDraw != nil {
		n.OnDraw(n, s)
	}
}
