package arbor

import (
	"math"

	"golang.org/x/image/math/f64"
)

// Matrix is a row-major 3x3 matrix:
//
//	| m[0] m[1] m[2] |
//	| m[3] m[4] m[5] |
//	| m[6] m[7] m[8] |
//
// Points are column vectors, so Apply computes
// x' = m[0]*x + m[1]*y + m[2] and y' = m[3]*x + m[4]*y + m[5].
type Matrix f64.Mat3

// identityMatrix is the 3x3 identity.
var identityMatrix = Matrix{1, 0, 0, 0, 1, 0, 0, 0, 1}

// multiplyCount is bumped by every Multiply. Plain counter, arbor is
// single-threaded.
var multiplyCount uint64

// Identity returns the identity matrix.
func Identity() Matrix {
	return identityMatrix
}

// Multiply writes a × b into m and returns m. m may alias a or b.
func (m *Matrix) Multiply(a, b *Matrix) *Matrix {
	multiplyCount++
	*m = Matrix{
		a[0]*b[0] + a[1]*b[3] + a[2]*b[6],
		a[0]*b[1] + a[1]*b[4] + a[2]*b[7],
		a[0]*b[2] + a[1]*b[5] + a[2]*b[8],

		a[3]*b[0] + a[4]*b[3] + a[5]*b[6],
		a[3]*b[1] + a[4]*b[4] + a[5]*b[7],
		a[3]*b[2] + a[4]*b[5] + a[5]*b[8],

		a[6]*b[0] + a[7]*b[3] + a[8]*b[6],
		a[6]*b[1] + a[7]*b[4] + a[8]*b[7],
		a[6]*b[2] + a[7]*b[5] + a[8]*b[8],
	}
	return m
}

// Invert writes the inverse of src into m and returns m.
// A singular src (determinant ≈ 0) yields the identity.
func (m *Matrix) Invert(src *Matrix) *Matrix {
	s := *src
	c0 := s[4]*s[8] - s[5]*s[7]
	c1 := s[5]*s[6] - s[3]*s[8]
	c2 := s[3]*s[7] - s[4]*s[6]
	det := s[0]*c0 + s[1]*c1 + s[2]*c2
	if det > -1e-12 && det < 1e-12 {
		*m = identityMatrix
		return m
	}
	inv := 1 / det
	*m = Matrix{
		c0 * inv,
		(s[2]*s[7] - s[1]*s[8]) * inv,
		(s[1]*s[5] - s[2]*s[4]) * inv,

		c1 * inv,
		(s[0]*s[8] - s[2]*s[6]) * inv,
		(s[2]*s[3] - s[0]*s[5]) * inv,

		c2 * inv,
		(s[1]*s[6] - s[0]*s[7]) * inv,
		(s[0]*s[4] - s[1]*s[3]) * inv,
	}
	return m
}

// SetTranslation overwrites m with a translation by (x, y).
func (m *Matrix) SetTranslation(x, y float64) *Matrix {
	*m = Matrix{1, 0, x, 0, 1, y, 0, 0, 1}
	return m
}

// SetRotation overwrites m with a rotation of deg degrees. On a y-down
// surface positive angles turn clockwise.
func (m *Matrix) SetRotation(deg float64) *Matrix {
	sin, cos := math.Sincos(deg * math.Pi / 180)
	*m = Matrix{cos, -sin, 0, sin, cos, 0, 0, 0, 1}
	return m
}

// SetScaling overwrites m with a non-uniform scale.
func (m *Matrix) SetScaling(sx, sy float64) *Matrix {
	*m = Matrix{sx, 0, 0, 0, sy, 0, 0, 0, 1}
	return m
}

// Apply transforms the point (x, y).
func (m *Matrix) Apply(x, y float64) (float64, float64) {
	return m[0]*x + m[1]*y + m[2], m[3]*x + m[4]*y + m[5]
}

// ToArray returns the nine entries in row-major order as a new slice.
func (m *Matrix) ToArray() []float64 {
	out := make([]float64, 9)
	copy(out, m[:])
	return out
}

// Aff3 returns the top two rows, the affine part used by drawing surfaces.
func (m *Matrix) Aff3() f64.Aff3 {
	return f64.Aff3{m[0], m[1], m[2], m[3], m[4], m[5]}
}
