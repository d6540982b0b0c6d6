// Package render tracks the graphics pipeline's fixed-function state
// (matrices, blend mode, fog, depth test) as a dirty-bit shadow copy that
// is only flushed to the backend immediately before a draw call.
package render

import "math"

// Vec2 and Vec3 are plain value types; there is no ecosystem vector
// library in the reference corpus so they are kept minimal on purpose.
type Vec2 struct{ X, Y float32 }
type Vec3 struct{ X, Y, Z float32 }

// Matrix is a column-major 4x4 float32 matrix, mutate-receiver style
// matching gviegas-neo3/linear's M4 rather than an immutable value API.
type Matrix [4][4]float32

// Identity sets m to the identity matrix.
func (m *Matrix) Identity() {
	*m = Matrix{}
	for i := 0; i < 4; i++ {
		m[i][i] = 1
	}
}

// Mul sets m to l * r.
func (m *Matrix) Mul(l, r *Matrix) {
	var out Matrix
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			var sum float32
			for k := 0; k < 4; k++ {
				sum += l[k][j] * r[i][k]
			}
			out[i][j] = sum
		}
	}
	*m = out
}

// Translation sets m to a translation matrix by v.
func (m *Matrix) Translation(v Vec3) {
	m.Identity()
	m[3][0], m[3][1], m[3][2] = v.X, v.Y, v.Z
}

// Scaling sets m to a scale matrix by v.
func (m *Matrix) Scaling(v Vec3) {
	*m = Matrix{}
	m[0][0], m[1][1], m[2][2], m[3][3] = v.X, v.Y, v.Z, 1
}

// RotationZ sets m to a rotation of theta radians about the Z axis.
func (m *Matrix) RotationZ(theta float32) {
	s, c := float32(math.Sin(float64(theta))), float32(math.Cos(float64(theta)))
	m.Identity()
	m[0][0], m[0][1] = c, s
	m[1][0], m[1][1] = -s, c
}

// RotationXYZ sets m to the combined Euler rotation matrix applying X,
// then Y, then Z, matching AnmManager's Draw3 perspective path order.
func (m *Matrix) RotationXYZ(rx, ry, rz float32) {
	var x, y, z, xy, xyz Matrix
	x.rotationX(rx)
	y.rotationY(ry)
	z.RotationZ(rz)
	xy.Mul(&y, &x)
	xyz.Mul(&z, &xy)
	*m = xyz
}

func (m *Matrix) rotationX(theta float32) {
	s, c := float32(math.Sin(float64(theta))), float32(math.Cos(float64(theta)))
	m.Identity()
	m[1][1], m[1][2] = c, s
	m[2][1], m[2][2] = -s, c
}

func (m *Matrix) rotationY(theta float32) {
	s, c := float32(math.Sin(float64(theta))), float32(math.Cos(float64(theta)))
	m.Identity()
	m[0][0], m[0][2] = c, -s
	m[2][0], m[2][2] = s, c
}
