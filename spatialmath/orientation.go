// Package spatialmath defines the spatial mathematical operations used by the
// kinematics engine: orientations, rotation matrices, and 6DoF poses.
package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// Orientation is an interface used to express the different parameterizations
// of the orientation of a rigid object or frame of reference in 3D space.
type Orientation interface {
	Quaternion() quat.Number
	EulerAngles() *EulerAngles
	RotationMatrix() *RotationMatrix
	AxisAngles() *R4AA
}

// quaternion is an orientation in quaternion representation.
type quaternion quat.Number

func (q quaternion) Quaternion() quat.Number {
	return quat.Number(q)
}

func (q quaternion) EulerAngles() *EulerAngles {
	return eulerAnglesFromQuat(quat.Number(q))
}

func (q quaternion) RotationMatrix() *RotationMatrix {
	return rotationMatrixFromQuat(quat.Number(q))
}

func (q quaternion) AxisAngles() *R4AA {
	return QuatToR4AA(quat.Number(q))
}

// NewZeroOrientation returns an orientation which signifies no rotation.
func NewZeroOrientation() Orientation {
	return quaternion{Real: 1}
}

// NewOrientationFromQuaternion wraps a gonum quaternion as an Orientation.
// The quaternion is normalized so downstream conversions stay well defined.
func NewOrientationFromQuaternion(q quat.Number) Orientation {
	return quaternion(normalizeQuat(q))
}

// OrientationBetween returns the orientation representing the rotation taking
// o1 to o2.
func OrientationBetween(o1, o2 Orientation) Orientation {
	return quaternion(quat.Mul(o2.Quaternion(), quat.Conj(o1.Quaternion())))
}

// OrientationAlmostEqual returns whether the two orientations represent
// approximately the same rotation.
func OrientationAlmostEqual(o1, o2 Orientation) bool {
	return QuaternionAlmostEqual(o1.Quaternion(), o2.Quaternion(), 1e-6)
}

// QuaternionAlmostEqual compares two quaternions as rotations, treating q and
// -q as equal.
func QuaternionAlmostEqual(a, b quat.Number, tol float64) bool {
	diff := quat.Mul(a, quat.Conj(b))
	return math.Abs(diff.Real) > 1-tol
}

// QuatToR3AA converts a rotation quaternion to its rotation-vector form: the
// rotation axis scaled by the rotation angle in radians.
func QuatToR3AA(q quat.Number) r3.Vector {
	aa := QuatToR4AA(q)
	return r3.Vector{X: aa.RX * aa.Theta, Y: aa.RY * aa.Theta, Z: aa.RZ * aa.Theta}
}

// QuatRotateVec rotates vector v by rotation quaternion q.
func QuatRotateVec(q quat.Number, v r3.Vector) r3.Vector {
	qv := quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}
	rotated := quat.Mul(quat.Mul(q, qv), quat.Conj(q))
	return r3.Vector{X: rotated.Imag, Y: rotated.Jmag, Z: rotated.Kmag}
}

func normalizeQuat(q quat.Number) quat.Number {
	norm := math.Sqrt(q.Real*q.Real + q.Imag*q.Imag + q.Jmag*q.Jmag + q.Kmag*q.Kmag)
	if norm == 0 {
		return quat.Number{Real: 1}
	}
	return quat.Scale(1/norm, q)
}
