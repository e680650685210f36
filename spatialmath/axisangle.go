package spatialmath

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
)

// R4AA represents an orientation as a rotation of Theta radians about the
// axis (RX, RY, RZ). The axis is kept normalized.
type R4AA struct {
	Theta float64
	RX    float64
	RY    float64
	RZ    float64
}

// NewR4AA creates an empty R4AA struct with a unit Z axis.
func NewR4AA() *R4AA {
	return &R4AA{0, 0, 0, 1}
}

// Normalize scales the axis to unit length.
func (aa *R4AA) Normalize() {
	norm := math.Sqrt(aa.RX*aa.RX + aa.RY*aa.RY + aa.RZ*aa.RZ)
	if norm == 0 {
		aa.RZ = 1
		return
	}
	aa.RX /= norm
	aa.RY /= norm
	aa.RZ /= norm
}

// Quaternion returns the orientation in quaternion representation.
func (aa *R4AA) Quaternion() quat.Number {
	s := math.Sin(aa.Theta / 2)
	return quat.Number{
		Real: math.Cos(aa.Theta / 2),
		Imag: aa.RX * s,
		Jmag: aa.RY * s,
		Kmag: aa.RZ * s,
	}
}

// EulerAngles returns the orientation in Euler angle representation.
func (aa *R4AA) EulerAngles() *EulerAngles {
	return eulerAnglesFromQuat(aa.Quaternion())
}

// RotationMatrix returns the orientation in rotation matrix representation.
func (aa *R4AA) RotationMatrix() *RotationMatrix {
	return rotationMatrixFromQuat(aa.Quaternion())
}

// AxisAngles returns the orientation in axis-angle representation.
func (aa *R4AA) AxisAngles() *R4AA {
	return aa
}

// QuatToR4AA converts a rotation quaternion to axis-angle representation.
// The angle is kept in [0, pi] by flipping the axis when needed.
func QuatToR4AA(q quat.Number) *R4AA {
	q = normalizeQuat(q)
	if q.Real < 0 {
		q = quat.Scale(-1, q)
	}
	w := q.Real
	if w > 1 {
		w = 1
	}
	theta := 2 * math.Acos(w)
	s := math.Sqrt(1 - w*w)
	if s < 1e-10 {
		// Rotation too small to define an axis.
		return &R4AA{Theta: theta, RZ: 1}
	}
	return &R4AA{Theta: theta, RX: q.Imag / s, RY: q.Jmag / s, RZ: q.Kmag / s}
}
