package spatialmath

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
)

// EulerAngles represents an orientation as intrinsic X-Y-Z rotations in
// radians: R = Rx(Roll) * Ry(Pitch) * Rz(Yaw). This is the convention the
// tool calibration sheets use.
type EulerAngles struct {
	Roll  float64
	Pitch float64
	Yaw   float64
}

// NewEulerAngles returns an empty EulerAngles struct.
func NewEulerAngles() *EulerAngles {
	return &EulerAngles{}
}

// Quaternion returns the orientation in quaternion representation.
func (ea *EulerAngles) Quaternion() quat.Number {
	qx := quatAboutAxis(ea.Roll, 1, 0, 0)
	qy := quatAboutAxis(ea.Pitch, 0, 1, 0)
	qz := quatAboutAxis(ea.Yaw, 0, 0, 1)
	return quat.Mul(quat.Mul(qx, qy), qz)
}

// EulerAngles returns the orientation in Euler angle representation.
func (ea *EulerAngles) EulerAngles() *EulerAngles {
	return ea
}

// RotationMatrix returns the orientation in rotation matrix representation.
func (ea *EulerAngles) RotationMatrix() *RotationMatrix {
	return rotationMatrixFromQuat(ea.Quaternion())
}

// AxisAngles returns the orientation in axis-angle representation.
func (ea *EulerAngles) AxisAngles() *R4AA {
	return QuatToR4AA(ea.Quaternion())
}

// eulerAnglesFromQuat extracts intrinsic X-Y-Z Euler angles from a rotation
// quaternion. At the pitch poles (|pitch| = pi/2) the roll/yaw split is
// degenerate; yaw is set to zero there.
func eulerAnglesFromQuat(q quat.Number) *EulerAngles {
	m := rotationMatrixFromQuat(q)
	// R = Rx Ry Rz puts sin(pitch) at row 0, col 2.
	sp := m.At(0, 2)
	if sp > 1 {
		sp = 1
	} else if sp < -1 {
		sp = -1
	}
	pitch := math.Asin(sp)
	if math.Abs(sp) > 1-1e-10 {
		return &EulerAngles{
			Roll:  math.Atan2(m.At(2, 1), m.At(1, 1)),
			Pitch: pitch,
			Yaw:   0,
		}
	}
	return &EulerAngles{
		Roll:  math.Atan2(-m.At(1, 2), m.At(2, 2)),
		Pitch: pitch,
		Yaw:   math.Atan2(-m.At(0, 1), m.At(0, 0)),
	}
}

// QuatFromRPY builds a rotation quaternion from fixed-axis roll-pitch-yaw
// angles, the convention URDF origins use: R = Rz(yaw) * Ry(pitch) * Rx(roll).
func QuatFromRPY(roll, pitch, yaw float64) quat.Number {
	qx := quatAboutAxis(roll, 1, 0, 0)
	qy := quatAboutAxis(pitch, 0, 1, 0)
	qz := quatAboutAxis(yaw, 0, 0, 1)
	return quat.Mul(quat.Mul(qz, qy), qx)
}

func quatAboutAxis(theta, x, y, z float64) quat.Number {
	s := math.Sin(theta / 2)
	return quat.Number{Real: math.Cos(theta / 2), Imag: x * s, Jmag: y * s, Kmag: z * s}
}
