// Package transform provides the rigid-body math used by the kinematics
// engine: 3-vectors, rotation matrices, Euler angle conversions and
// homogeneous transforms for chaining the bed, robot-base, flange and
// tool-center-point frames.
package transform

import (
	"fmt"
	"math"

	"robotpath/pkg/errors"
)

// Vec3 is a 3-component vector (positions in mm).
type Vec3 struct {
	X, Y, Z float64
}

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

// Scale returns v scaled by s.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// Norm returns the Euclidean length of v.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// PlanarRadius returns the distance of v from the Z axis.
func (v Vec3) PlanarRadius() float64 {
	return math.Hypot(v.X, v.Y)
}

// IsFinite reports whether all components are finite.
func (v Vec3) IsFinite() bool {
	return isFinite(v.X) && isFinite(v.Y) && isFinite(v.Z)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Mat3 is a row-major 3x3 rotation matrix.
type Mat3 [3][3]float64

// Identity returns the identity rotation.
func Identity() Mat3 {
	return Mat3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
}

// Mul returns the matrix product m * o.
func (m Mat3) Mul(o Mat3) Mat3 {
	var r Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[i][j] = m[i][0]*o[0][j] + m[i][1]*o[1][j] + m[i][2]*o[2][j]
		}
	}
	return r
}

// Transpose returns the transposed matrix. For rotations this is the inverse.
func (m Mat3) Transpose() Mat3 {
	return Mat3{
		{m[0][0], m[1][0], m[2][0]},
		{m[0][1], m[1][1], m[2][1]},
		{m[0][2], m[1][2], m[2][2]},
	}
}

// Apply rotates v by m.
func (m Mat3) Apply(v Vec3) Vec3 {
	return Vec3{
		m[0][0]*v.X + m[0][1]*v.Y + m[0][2]*v.Z,
		m[1][0]*v.X + m[1][1]*v.Y + m[1][2]*v.Z,
		m[2][0]*v.X + m[2][1]*v.Y + m[2][2]*v.Z,
	}
}

// RotX returns the rotation by rad around the X axis.
func RotX(rad float64) Mat3 {
	s, c := math.Sin(rad), math.Cos(rad)
	return Mat3{{1, 0, 0}, {0, c, -s}, {0, s, c}}
}

// RotY returns the rotation by rad around the Y axis.
func RotY(rad float64) Mat3 {
	s, c := math.Sin(rad), math.Cos(rad)
	return Mat3{{c, 0, s}, {0, 1, 0}, {-s, 0, c}}
}

// RotZ returns the rotation by rad around the Z axis.
func RotZ(rad float64) Mat3 {
	s, c := math.Sin(rad), math.Cos(rad)
	return Mat3{{c, -s, 0}, {s, c, 0}, {0, 0, 1}}
}

// FromEulerZYX builds a rotation from ZYX Euler angles in degrees:
// R = Rz(a) * Ry(b) * Rx(c). This is the A/B/C convention the robot
// controller and the slicer configuration use.
func FromEulerZYX(aDeg, bDeg, cDeg float64) (Mat3, error) {
	for _, v := range []float64{aDeg, bDeg, cDeg} {
		if !isFinite(v) {
			return Mat3{}, errors.TransformError(fmt.Sprintf("non-finite euler angle %v", v))
		}
	}
	a := aDeg * math.Pi / 180
	b := bDeg * math.Pi / 180
	c := cDeg * math.Pi / 180
	return RotZ(a).Mul(RotY(b)).Mul(RotX(c)), nil
}

// EulerZYX extracts ZYX Euler angles in degrees (a around Z, b around Y,
// c around X) from a rotation matrix. Near the b = ±90° singularity the
// rotation around X is folded into the Z angle and c is reported as zero.
func (m Mat3) EulerZYX() (aDeg, bDeg, cDeg float64) {
	sy := math.Sqrt(m[0][0]*m[0][0] + m[1][0]*m[1][0])
	var a, b, c float64
	if sy >= 1e-6 {
		a = math.Atan2(m[1][0], m[0][0])
		b = math.Atan2(-m[2][0], sy)
		c = math.Atan2(m[2][1], m[2][2])
	} else {
		a = math.Atan2(-m[1][2], m[1][1])
		b = math.Atan2(-m[2][0], sy)
		c = 0
	}
	return a * 180 / math.Pi, b * 180 / math.Pi, c * 180 / math.Pi
}

// EulerZYZ extracts ZYZ Euler angles in radians. Used by the wrist
// decomposition in the degenerate (gimbal-locked) configuration.
func (m Mat3) EulerZYZ() (a, b, c float64) {
	sy := math.Sqrt(m[0][2]*m[0][2] + m[1][2]*m[1][2])
	if sy >= 1e-6 {
		a = math.Atan2(m[1][2], m[0][2])
		b = math.Atan2(sy, m[2][2])
		c = math.Atan2(m[2][1], -m[2][0])
	} else {
		a = math.Atan2(m[1][0], m[0][0])
		b = math.Atan2(sy, m[2][2])
		c = 0
	}
	return a, b, c
}

// Transform is a rigid transform (rotation followed by translation),
// equivalent to a 4x4 homogeneous matrix.
type Transform struct {
	R Mat3
	T Vec3
}

// IdentityTransform returns the identity transform.
func IdentityTransform() Transform {
	return Transform{R: Identity()}
}

// NewTransform builds a transform from a rotation and a translation.
func NewTransform(r Mat3, t Vec3) Transform {
	return Transform{R: r, T: t}
}

// Mul composes two transforms: (t * o) applies o first, then t.
func (t Transform) Mul(o Transform) Transform {
	return Transform{
		R: t.R.Mul(o.R),
		T: t.R.Apply(o.T).Add(t.T),
	}
}

// Invert returns the inverse transform.
func (t Transform) Invert() Transform {
	rt := t.R.Transpose()
	return Transform{
		R: rt,
		T: rt.Apply(t.T).Scale(-1),
	}
}

// Apply transforms the point p.
func (t Transform) Apply(p Vec3) Vec3 {
	return t.R.Apply(p).Add(t.T)
}
