package arbor

import (
	"math"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Cache unit names shared by every Transform.
const (
	UnitX        = "x"
	UnitY        = "y"
	UnitAngle    = "angle"
	UnitScalingX = "scalingX"
	UnitScalingY = "scalingY"
	UnitZoom     = "zoom"
	UnitWidth    = "width"
	UnitHeight   = "height"

	UnitTranslation         = "translation"
	UnitRotation            = "rotation"
	UnitScaling             = "scaling"
	UnitTransformations     = "transformations"
	UnitViewTransformations = "viewTransformations"
	UnitVertices            = "vertices"
	UnitGlobalVertices      = "globalVertices"
	UnitGlobalPoint         = "globalPoint"
)

// Transformable is implemented by every entity that owns local transform
// parameters and a cache: *Node and *Camera.
type Transformable interface {
	Base() *Transform
}

// Transform holds the local transform parameters of an entity and memoizes
// everything derived from them in its Cache. It is embedded by Node and
// Camera; all mutation goes through setTransform so the matching cache units
// are always invalidated.
type Transform struct {
	id string

	x, y          float64
	rotation      float64 // degrees
	sx, sy        float64
	width, height float64

	// reciprocal selects S(1/sx, 1/sy) for the placement matrix (cameras).
	reciprocal bool
	// anchorX/anchorY shift the local rectangle by a fraction of its size.
	anchorX, anchorY float64
	scaleUnits       []string

	// viewVersion increments every time the view matrix is recomputed.
	viewVersion uint64

	cache *Cache
}

// initTransform sets defaults and declares the cache units.
func (t *Transform) initTransform(id string, scaleUnits ...string) {
	if id == "" {
		id = uuid.NewString()
	}
	t.id = id
	t.sx, t.sy = 1, 1
	t.scaleUnits = scaleUnits

	c := NewCache()
	props := append([]string{UnitX, UnitY, UnitAngle, UnitWidth, UnitHeight}, scaleUnits...)
	c.DefineAll(props)
	c.Define(UnitTranslation, UnitX, UnitY)
	c.Define(UnitRotation, UnitAngle)
	c.Define(UnitScaling, scaleUnits...)
	c.Define(UnitTransformations, UnitTranslation, UnitRotation, UnitScaling)
	c.Define(UnitViewTransformations, UnitTranslation, UnitRotation, UnitScaling, UnitWidth, UnitHeight)
	c.Define(UnitVertices, UnitWidth, UnitHeight)
	c.Define(UnitGlobalVertices, UnitVertices, UnitTransformations)
	c.Define(UnitGlobalPoint, UnitTransformations)
	for _, p := range props {
		c.Update(p, nil)
	}
	t.cache = c
}

// Base returns t. It lets *Node and *Camera satisfy Transformable.
func (t *Transform) Base() *Transform { return t }

// ID returns the entity's identity.
func (t *Transform) ID() string { return t.id }

// Cache returns the entity's memoization store.
func (t *Transform) Cache() *Cache { return t.cache }

// X returns the local x position.
func (t *Transform) X() float64 { return t.x }

// Y returns the local y position.
func (t *Transform) Y() float64 { return t.y }

// Rotation returns the rotation in degrees.
func (t *Transform) Rotation() float64 { return t.rotation }

// Width returns the width of the local rectangle.
func (t *Transform) Width() float64 { return t.width }

// Height returns the height of the local rectangle.
func (t *Transform) Height() float64 { return t.height }

// SetX sets the local x position.
func (t *Transform) SetX(x float64) { t.setTransform(UnitX, &t.x, x) }

// SetY sets the local y position.
func (t *Transform) SetY(y float64) { t.setTransform(UnitY, &t.y, y) }

// SetPosition sets both coordinates.
func (t *Transform) SetPosition(x, y float64) {
	t.setTransform(UnitX, &t.x, x)
	t.setTransform(UnitY, &t.y, y)
}

// SetRotation sets the rotation in degrees.
func (t *Transform) SetRotation(deg float64) { t.setTransform(UnitAngle, &t.rotation, deg) }

// SetWidth sets the width. Resizing never moves the entity.
func (t *Transform) SetWidth(w float64) { t.setTransform(UnitWidth, &t.width, w) }

// SetHeight sets the height.
func (t *Transform) SetHeight(h float64) { t.setTransform(UnitHeight, &t.height, h) }

// SetSize sets width and height.
func (t *Transform) SetSize(w, h float64) {
	t.setTransform(UnitWidth, &t.width, w)
	t.setTransform(UnitHeight, &t.height, h)
}

// setTransform is the single mutation path for transform parameters.
// Non-finite values are dropped and the previous value kept.
func (t *Transform) setTransform(unit string, dst *float64, v float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		Logger().WithFields(logrus.Fields{"id": t.id, "property": unit, "value": v}).
			Debug("arbor: rejected non-finite value")
		return false
	}
	if *dst == v {
		return false
	}
	*dst = v
	t.cache.Invalidate(unit)
	t.cache.Update(unit, nil)
	return true
}

// --- Derived values ---

// matrixField returns the matrix stored under key in the unit, allocating
// it on first use. Every unit owns its matrices.
func matrixField(u *Unit, key string) *Matrix {
	if m, ok := u.Fields[key].(*Matrix); ok {
		return m
	}
	m := new(Matrix)
	u.Fields[key] = m
	return m
}

func (t *Transform) translationMatrix() *Matrix {
	u := t.cache.Get(UnitTranslation)
	m := matrixField(u, "matrix")
	if !u.Valid {
		m.SetTranslation(t.x, t.y)
		t.cache.Update(UnitTranslation, nil)
	}
	return m
}

func (t *Transform) rotationMatrix() *Matrix {
	u := t.cache.Get(UnitRotation)
	m := matrixField(u, "matrix")
	if !u.Valid {
		m.SetRotation(t.rotation)
		t.cache.Update(UnitRotation, nil)
	}
	return m
}

func (t *Transform) scalingMatrix() *Matrix {
	u := t.cache.Get(UnitScaling)
	m := matrixField(u, "matrix")
	if !u.Valid {
		sx, sy := t.sx, t.sy
		if t.reciprocal {
			sx, sy = safeReciprocal(sx), safeReciprocal(sy)
		}
		m.SetScaling(sx, sy)
		t.cache.Update(UnitScaling, nil)
	}
	return m
}

// localMatrices returns translation × rotation × scaling and its inverse.
func (t *Transform) localMatrices() (m, inv *Matrix) {
	u := t.cache.Get(UnitTransformations)
	m = matrixField(u, "matrix")
	inv = matrixField(u, "inverse")
	if !u.Valid {
		var tr Matrix
		tr.Multiply(t.translationMatrix(), t.rotationMatrix())
		m.Multiply(&tr, t.scalingMatrix())
		inv.Invert(m)
		t.cache.Update(UnitTransformations, nil)
	}
	return m, inv
}

// viewMatrices returns the surface convention of the transform: the
// rotation sign flipped, the direct scale factor, and the order reversed so
// that world coordinates map into the entity's frame, anchored at
// (anchorX*width, anchorY*height).
func (t *Transform) viewMatrices() (m, inv *Matrix) {
	u := t.cache.Get(UnitViewTransformations)
	m = matrixField(u, "matrix")
	inv = matrixField(u, "inverse")
	if !u.Valid {
		tm := t.translationMatrix()
		rm := t.rotationMatrix()
		t.scalingMatrix()

		back := Matrix{1, 0, -tm[2], 0, 1, -tm[5], 0, 0, 1}
		// R(-θ) is the transpose of R(θ).
		unrot := Matrix{rm[0], rm[3], 0, rm[1], rm[4], 0, 0, 0, 1}
		anchored := Matrix{t.sx, 0, t.anchorX * t.width, 0, t.sy, t.anchorY * t.height, 0, 0, 1}

		var tmp Matrix
		tmp.Multiply(&unrot, &back)
		m.Multiply(&anchored, &tmp)
		inv.Invert(m)
		t.viewVersion++
		t.cache.Update(UnitViewTransformations, nil)
	}
	return m, inv
}

// TransformationMatrix returns the matrix mapping local space into the
// parent's space. When target is non-nil the surface convention is returned
// instead: the transform as seen by the world the entity frames, which for
// a camera is its view matrix.
func (t *Transform) TransformationMatrix(target *Canvas) Matrix {
	if target != nil {
		m, _ := t.viewMatrices()
		return *m
	}
	m, _ := t.localMatrices()
	return *m
}

// InverseTransformationMatrix returns the cached inverse of
// TransformationMatrix(target).
func (t *Transform) InverseTransformationMatrix(target *Canvas) Matrix {
	if target != nil {
		_, inv := t.viewMatrices()
		return *inv
	}
	_, inv := t.localMatrices()
	return *inv
}

// GlobalPoint maps a local point into the parent's space. The result is
// also written to out when out is non-nil. Repeating a call with the same
// input and no intervening transform change returns the memoized point.
func (t *Transform) GlobalPoint(x, y float64, out *Vec2) Vec2 {
	u := t.cache.Get(UnitGlobalPoint)
	if u.Valid {
		if ix, iy := u.Fields["inX"].(float64), u.Fields["inY"].(float64); ix == x && iy == y {
			p := u.Fields["point"].(Vec2)
			if out != nil {
				*out = p
			}
			return p
		}
	}
	m, _ := t.localMatrices()
	px, py := m.Apply(x, y)
	p := Vec2{X: px, Y: py}
	t.cache.Update(UnitGlobalPoint, Fields{"inX": x, "inY": y, "point": p})
	if out != nil {
		*out = p
	}
	return p
}

// Vertices returns the four corners of the local rectangle in
// top-left, top-right, bottom-right, bottom-left order. The returned slice is
// owned by the cache and MUST NOT be mutated.
func (t *Transform) Vertices() []Vec2 {
	u := t.cache.Get(UnitVertices)
	pts, _ := u.Fields["points"].([]Vec2)
	if u.Valid {
		return pts
	}
	if pts == nil {
		pts = make([]Vec2, 4)
	}
	x0, y0 := -t.anchorX*t.width, -t.anchorY*t.height
	x1, y1 := x0+t.width, y0+t.height
	pts[0] = Vec2{x0, y0}
	pts[1] = Vec2{x1, y0}
	pts[2] = Vec2{x1, y1}
	pts[3] = Vec2{x0, y1}
	t.cache.Update(UnitVertices, Fields{"points": pts})
	return pts
}

// GlobalVertices returns Vertices mapped through TransformationMatrix(nil).
// The returned slice is owned by the cache and MUST NOT be mutated.
func (t *Transform) GlobalVertices() []Vec2 {
	u := t.cache.Get(UnitGlobalVertices)
	pts, _ := u.Fields["points"].([]Vec2)
	if u.Valid {
		return pts
	}
	if pts == nil {
		pts = make([]Vec2, 4)
	}
	local := t.Vertices()
	m, _ := t.localMatrices()
	for i, v := range local {
		pts[i].X, pts[i].Y = m.Apply(v.X, v.Y)
	}
	t.cache.Update(UnitGlobalVertices, Fields{"points": pts})
	return pts
}

func safeReciprocal(v float64) float64 {
	if v == 0 {
		return 0
	}
	return 1 / v
}

// boundsOf returns the axis-aligned box around pts.
func boundsOf(pts []Vec2) Rect {
	if len(pts) == 0 {
		return Rect{}
	}
	minX, minY := pts[0].X, pts[0].Y
	maxX, maxY := minX, minY
	for _, p := range pts[1:] {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}
