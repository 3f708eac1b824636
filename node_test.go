package arbor

import (
	"testing"
)

func newGroup(name string) *Node {
	return NewNode(NodeOptions{Name: name})
}

// --- Defaults ---

func TestNewNodeDefaults(t *testing.T) {
	n := NewNode(NodeOptions{})
	if n.Kind != KindGroup {
		t.Errorf("Kind = %v, want group", n.Kind)
	}
	if n.Fill != ColorWhite {
		t.Errorf("Fill = %v, want white", n.Fill)
	}
	if n.Opacity() != 1 {
		t.Errorf("Opacity = %v, want 1", n.Opacity())
	}
	if n.ScalingX() != 1 || n.ScalingY() != 1 {
		t.Errorf("scaling = (%v, %v), want (1, 1)", n.ScalingX(), n.ScalingY())
	}
	if n.Parent() != nil || n.World() != nil {
		t.Error("new node should be detached")
	}
}

func TestNewNodeOptions(t *testing.T) {
	half := 0.5
	fill := Color{R: 1, A: 1}
	n := NewNode(NodeOptions{
		Name: "box", Kind: KindEllipse, X: 1, Y: 2, Rotation: 3,
		ScalingX: 4, ScalingY: 5, Width: 6, Height: 7,
		Opacity: &half, Fill: &fill, ZIndex: 8,
	})
	if n.Name != "box" || n.Kind != KindEllipse || n.Fill != fill {
		t.Errorf("unexpected node %+v", n)
	}
	if n.X() != 1 || n.Y() != 2 || n.Rotation() != 3 || n.ScalingX() != 4 ||
		n.ScalingY() != 5 || n.Width() != 6 || n.Height() != 7 {
		t.Error("transform options not applied")
	}
	if n.Opacity() != 0.5 || n.ZIndex() != 8 {
		t.Errorf("Opacity = %v, ZIndex = %v", n.Opacity(), n.ZIndex())
	}
}

func TestSetOpacityClamped(t *testing.T) {
	n := newGroup("n")
	n.SetOpacity(3)
	assertNear(t, "high", n.Opacity(), 1)
	n.SetOpacity(-1)
	assertNear(t, "low", n.Opacity(), 0)
}

func TestSetKindRejectsUnknown(t *testing.T) {
	n := NewNode(NodeOptions{Kind: KindRectangle})
	n.SetKind(NodeKind(42))
	if n.Kind != KindRectangle {
		t.Errorf("Kind = %v, want rectangle", n.Kind)
	}
}

// --- AddChild ---

func TestAddChildBasic(t *testing.T) {
	parent := newGroup("parent")
	child := newGroup("child")
	parent.AddChild(child)

	if child.Parent() != parent {
		t.Error("child.Parent() should be parent")
	}
	if parent.NumChildren() != 1 {
		t.Errorf("NumChildren = %d, want 1", parent.NumChildren())
	}
	if parent.ChildAt(0) != child {
		t.Error("ChildAt(0) should be child")
	}
}

func TestAddChildReparent(t *testing.T) {
	p1 := newGroup("p1")
	p2 := newGroup("p2")
	child := newGroup("child")

	p1.AddChild(child)
	p2.AddChild(child)
	if p1.NumChildren() != 0 {
		t.Error("p1 should have 0 children after reparent")
	}
	if p2.NumChildren() != 1 || child.Parent() != p2 {
		t.Error("child should belong to p2")
	}
}

func TestAddChildCyclePanic(t *testing.T) {
	parent := newGroup("parent")
	child := newGroup("child")
	grandchild := newGroup("grandchild")
	parent.AddChild(child)
	child.AddChild(grandchild)

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic for cycle, got none")
		}
	}()
	grandchild.AddChild(parent)
}

func TestAddChildSelfPanic(t *testing.T) {
	n := newGroup("self")
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic for self-add, got none")
		}
	}()
	n.AddChild(n)
}

func TestAddChildNilPanic(t *testing.T) {
	n := newGroup("n")
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic for nil child, got none")
		}
	}()
	n.AddChild(nil)
}

func TestAddChildAt(t *testing.T) {
	parent := newGroup("parent")
	a, b, c := newGroup("a"), newGroup("b"), newGroup("c")
	parent.AddChild(a)
	parent.AddChild(c)
	parent.AddChildAt(b, 1)

	if parent.NumChildren() != 3 {
		t.Fatalf("NumChildren = %d, want 3", parent.NumChildren())
	}
	if parent.ChildAt(0) != a || parent.ChildAt(1) != b || parent.ChildAt(2) != c {
		t.Error("children order should be [a, b, c]")
	}
}

// Moving a child to a later slot of the same parent counts the index after
// the child was taken out.
func TestAddChildAtSameParent(t *testing.T) {
	parent := newGroup("parent")
	a, b, c := newGroup("a"), newGroup("b"), newGroup("c")
	parent.AddChild(a)
	parent.AddChild(b)
	parent.AddChild(c)
	parent.AddChildAt(a, 2)

	if parent.ChildAt(0) != b || parent.ChildAt(1) != c || parent.ChildAt(2) != a {
		t.Error("children order should be [b, c, a]")
	}
}

func TestAddChildAtOutOfRangePanic(t *testing.T) {
	parent := newGroup("parent")
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic for out of range index, got none")
		}
	}()
	parent.AddChildAt(newGroup("a"), 3)
}

// --- Removal ---

func TestRemoveChild(t *testing.T) {
	parent := newGroup("parent")
	child := newGroup("child")
	parent.AddChild(child)
	parent.RemoveChild(child)

	if parent.NumChildren() != 0 {
		t.Error("parent should have 0 children")
	}
	if child.Parent() != nil {
		t.Error("child.Parent() should be nil")
	}
}

func TestRemoveChildWrongParentPanic(t *testing.T) {
	p1 := newGroup("p1")
	p2 := newGroup("p2")
	child := newGroup("child")
	p1.AddChild(child)

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic for wrong parent, got none")
		}
	}()
	p2.RemoveChild(child)
}

func TestRemoveChildAt(t *testing.T) {
	parent := newGroup("parent")
	a, b, c := newGroup("a"), newGroup("b"), newGroup("c")
	parent.AddChild(a)
	parent.AddChild(b)
	parent.AddChild(c)

	if removed := parent.RemoveChildAt(1); removed != b {
		t.Error("removed should be b")
	}
	if parent.ChildAt(0) != a || parent.ChildAt(1) != c {
		t.Error("remaining children should be [a, c]")
	}
}

func TestRemoveFromParentNoOp(t *testing.T) {
	n := newGroup("orphan")
	n.RemoveFromParent()
	if n.Parent() != nil {
		t.Error("Parent should remain nil")
	}
}

func TestRemoveChildren(t *testing.T) {
	parent := newGroup("parent")
	a, b := newGroup("a"), newGroup("b")
	parent.AddChild(a)
	parent.AddChild(b)
	parent.RemoveChildren()

	if parent.NumChildren() != 0 {
		t.Errorf("NumChildren = %d, want 0", parent.NumChildren())
	}
	if a.Parent() != nil || b.Parent() != nil {
		t.Error("children should be detached")
	}
}

func TestRemoveChildrenDropsSortedOrder(t *testing.T) {
	parent := newGroup("parent")
	a, b := newGroup("a"), newGroup("b")
	a.SetZIndex(2)
	parent.AddChild(a)
	parent.AddChild(b)
	rebuildSortedChildren(parent)

	parent.RemoveChildren()
	if len(parent.sortedChildren) != 0 {
		t.Fatalf("sortedChildren = %d entries, want 0", len(parent.sortedChildren))
	}
	for i, c := range parent.sortedChildren[:cap(parent.sortedChildren)] {
		if c != nil {
			t.Errorf("sortedChildren backing array still holds %q at %d", c.Name, i)
		}
	}
}

func TestSetChildIndex(t *testing.T) {
	parent := newGroup("parent")
	a, b, c := newGroup("a"), newGroup("b"), newGroup("c")
	parent.AddChild(a)
	parent.AddChild(b)
	parent.AddChild(c)
	parent.SetChildIndex(c, 0)

	if parent.ChildAt(0) != c || parent.ChildAt(1) != a || parent.ChildAt(2) != b {
		t.Error("children order should be [c, a, b]")
	}
}

// --- World matrices ---

func TestWorldMatrixChain(t *testing.T) {
	parent := NewNode(NodeOptions{X: 100, ScalingX: 2, ScalingY: 2})
	child := NewNode(NodeOptions{X: 10, Y: 5})
	parent.AddChild(child)

	x, y := child.LocalToWorld(0, 0)
	assertNear(t, "x", x, 120)
	assertNear(t, "y", y, 10)

	lx, ly := child.WorldToLocal(x, y)
	assertNear(t, "lx", lx, 0)
	assertNear(t, "ly", ly, 0)
}

func TestWorldMatrixRootEqualsLocal(t *testing.T) {
	n := NewNode(NodeOptions{X: 3, Y: 4, Rotation: 50})
	assertMatrix(t, "world", n.WorldMatrix(), n.TransformationMatrix(nil))
}

func TestParentChangeInvalidatesChildWorld(t *testing.T) {
	parent := NewNode(NodeOptions{X: 10})
	child := NewNode(NodeOptions{X: 1})
	grandchild := NewNode(NodeOptions{X: 1})
	parent.AddChild(child)
	child.AddChild(grandchild)
	grandchild.WorldMatrix()

	parent.SetX(20)
	if child.Cache().Test(UnitWorldTransformations) || grandchild.Cache().Test(UnitWorldTransformations) {
		t.Fatal("descendant world transforms still valid after parent moved")
	}
	if !child.Cache().Test(UnitTransformations) {
		t.Error("child's local transform should be untouched")
	}
	x, _ := grandchild.LocalToWorld(0, 0)
	assertNear(t, "x", x, 22)
}

func TestReparentInvalidatesWorld(t *testing.T) {
	p1 := NewNode(NodeOptions{X: 10})
	p2 := NewNode(NodeOptions{X: 50})
	child := NewNode(NodeOptions{X: 1})
	p1.AddChild(child)
	x, _ := child.LocalToWorld(0, 0)
	assertNear(t, "under p1", x, 11)

	p2.AddChild(child)
	x, _ = child.LocalToWorld(0, 0)
	assertNear(t, "under p2", x, 51)

	child.RemoveFromParent()
	x, _ = child.LocalToWorld(0, 0)
	assertNear(t, "detached", x, 1)
}

// --- Camera-combined transforms ---

func TestCombinedTransformation(t *testing.T) {
	w := NewWorld()
	cam := NewCamera(CameraOptions{X: 320, Y: 240, Width: 640, Height: 480, Zoom: 2})
	w.AddCamera(cam)
	n := NewNode(NodeOptions{X: 330, Y: 250})
	w.AddNode(n)

	m := n.CombinedTransformation(cam)
	x, y := m.Apply(0, 0)
	assertNear(t, "x", x, 340)
	assertNear(t, "y", y, 260)
}

func TestCameraChangeInvalidatesCombined(t *testing.T) {
	w := NewWorld()
	cam := NewCamera(CameraOptions{Width: 100, Height: 100})
	w.AddCamera(cam)
	parent := NewNode(NodeOptions{X: 5})
	child := NewNode(NodeOptions{X: 5})
	parent.AddChild(child)
	w.AddNode(parent)

	child.CombinedTransformation(cam)
	if !child.Cache().Test(UnitCombinedTransformations) {
		t.Fatal("combined unit not valid after a read")
	}

	cam.SetRotation(10)
	if child.Cache().Test(UnitCombinedTransformations) {
		t.Error("combined unit still valid after the camera rotated")
	}
	if !child.Cache().Test(UnitTransformations) || !child.Cache().Test(UnitWorldTransformations) {
		t.Error("camera change touched the node's own transforms")
	}

	got := child.CombinedTransformation(cam)
	view := cam.TransformationMatrix(NewCanvas(nil, CanvasOptions{}))
	world := child.WorldMatrix()
	var expect Matrix
	expect.Multiply(&view, &world)
	assertMatrix(t, "combined", got, expect)
}

func TestRemovedCameraNoLongerInvalidates(t *testing.T) {
	w := NewWorld()
	cam := NewCamera(CameraOptions{Width: 100, Height: 100})
	w.AddCamera(cam)
	n := NewNode(NodeOptions{X: 5})
	w.AddNode(n)

	w.RemoveCamera(cam)
	if cam.World() != nil {
		t.Error("camera still references the world")
	}
	n.CombinedTransformation(cam)
	cam.SetRotation(30)
	if !n.Cache().Test(UnitCombinedTransformations) {
		t.Error("detached camera invalidated a node of its former world")
	}
	assertMatrix(t, "combined after rotation", n.CombinedTransformation(cam), viewTimesWorld(cam, n))
}

// viewTimesWorld computes cam's view × n's world matrix from scratch.
func viewTimesWorld(cam *Camera, n *Node) Matrix {
	view := cam.TransformationMatrix(NewCanvas(nil, CanvasOptions{}))
	world := n.WorldMatrix()
	var m Matrix
	m.Multiply(&view, &world)
	return m
}

func TestCombinedTracksCameraWithoutWorld(t *testing.T) {
	cam := NewCamera(CameraOptions{Width: 100, Height: 100})
	n := NewNode(NodeOptions{X: 10})

	first := n.CombinedTransformation(cam)
	assertNear(t, "first tx", first[2], 60)

	cam.SetX(500)
	got := n.CombinedTransformation(cam)
	assertNear(t, "tx after camera move", got[2], -440)
	assertMatrix(t, "combined", got, viewTimesWorld(cam, n))
}

func TestCombinedFollowsLastCamera(t *testing.T) {
	w := NewWorld()
	a := NewCamera(CameraOptions{X: 0, Width: 100, Height: 100})
	b := NewCamera(CameraOptions{X: 50, Width: 100, Height: 100})
	w.AddCamera(a)
	w.AddCamera(b)
	n := NewNode(NodeOptions{})
	w.AddNode(n)

	ma := n.CombinedTransformation(a)
	mb := n.CombinedTransformation(b)
	assertNear(t, "a tx", ma[2], 50)
	assertNear(t, "b tx", mb[2], 0)
	again := n.CombinedTransformation(a)
	assertMatrix(t, "a again", again, ma)
}

func TestNodeWorldAssignment(t *testing.T) {
	w := NewWorld()
	root := newGroup("root")
	child := newGroup("child")
	root.AddChild(child)
	w.AddNode(root)

	if child.World() != w {
		t.Error("descendant should inherit the world")
	}
	late := newGroup("late")
	child.AddChild(late)
	if late.World() != w {
		t.Error("node added below a root should get the world")
	}
	w.RemoveNode(root)
	if root.World() != nil || late.World() != nil {
		t.Error("removed subtree still references the world")
	}
}

// --- ZIndex ---

func TestSetZIndexMarksParentUnsorted(t *testing.T) {
	parent := newGroup("parent")
	a, b := newGroup("a"), newGroup("b")
	parent.AddChild(a)
	parent.AddChild(b)
	rebuildSortedChildren(parent)

	a.SetZIndex(5)
	if parent.childrenSorted {
		t.Fatal("parent should be unsorted after SetZIndex")
	}
	rebuildSortedChildren(parent)
	if parent.sortedChildren[0] != b || parent.sortedChildren[1] != a {
		t.Error("sorted order should be [b, a]")
	}
	if parent.ChildAt(0) != a {
		t.Error("sorting must not reorder the child list")
	}
}

func TestSortStableForEqualZIndex(t *testing.T) {
	parent := newGroup("parent")
	nodes := []*Node{newGroup("a"), newGroup("b"), newGroup("c"), newGroup("d")}
	for _, n := range nodes {
		parent.AddChild(n)
	}
	nodes[2].SetZIndex(-1)
	rebuildSortedChildren(parent)
	want := []*Node{nodes[2], nodes[0], nodes[1], nodes[3]}
	for i, n := range parent.sortedChildren {
		if n != want[i] {
			t.Errorf("sorted[%d] = %s, want %s", i, n.Name, want[i].Name)
		}
	}
}

// --- Masks ---

func TestMaskSetters(t *testing.T) {
	n := newGroup("n")
	m := NewNode(NodeOptions{Kind: KindEllipse, Width: 10, Height: 10})
	n.SetMask(m)
	if n.Mask() != m || !n.HasMask() {
		t.Error("mask node not set")
	}
	n.SetMaskFunc(func(Surface) {})
	if n.Mask() != nil || !n.HasMask() {
		t.Error("mask func should replace the mask node")
	}
	n.ClearMask()
	if n.HasMask() {
		t.Error("ClearMask left a mask")
	}
}

func TestWorldAndCombinedSecondReadDoesNoWork(t *testing.T) {
	cam := NewCamera(CameraOptions{X: 7, Rotation: 15, Zoom: 2, Width: 100, Height: 100})
	root := NewNode(NodeOptions{X: 3, Rotation: 10})
	child := NewNode(NodeOptions{Y: 4, ScalingX: 2})
	root.AddChild(child)
	w := NewWorld()
	w.AddCamera(cam)
	w.AddNode(root)

	child.WorldMatrix()
	child.InverseWorldMatrix()
	child.CombinedTransformation(cam)
	root.CombinedTransformation(cam)

	before := multiplyCount
	child.WorldMatrix()
	child.InverseWorldMatrix()
	child.LocalToWorld(1, 1)
	child.CombinedTransformation(cam)
	root.WorldMatrix()
	root.CombinedTransformation(cam)
	if multiplyCount != before {
		t.Errorf("second read performed %d multiplies", multiplyCount-before)
	}
}
