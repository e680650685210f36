package spatialmath

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// Pose represents a 6DoF rigid transform: a point in space together with an
// orientation. Positions are in meters.
type Pose interface {
	Point() r3.Vector
	Orientation() Orientation
}

type basicPose struct {
	point       r3.Vector
	orientation quaternion
}

// NewZeroPose returns a pose at the origin with no rotation.
func NewZeroPose() Pose {
	return &basicPose{orientation: quaternion{Real: 1}}
}

// NewPose creates a pose from a point and an orientation.
func NewPose(point r3.Vector, o Orientation) Pose {
	if o == nil {
		return NewPoseFromPoint(point)
	}
	return &basicPose{point, quaternion(normalizeQuat(o.Quaternion()))}
}

// NewPoseFromPoint creates a pose with the given point and no rotation.
func NewPoseFromPoint(point r3.Vector) Pose {
	return &basicPose{point, quaternion{Real: 1}}
}

// NewPoseFromOrientation creates a pose at the origin with the given
// orientation.
func NewPoseFromOrientation(o Orientation) Pose {
	return NewPose(r3.Vector{}, o)
}

func (p *basicPose) Point() r3.Vector {
	return p.point
}

func (p *basicPose) Orientation() Orientation {
	return p.orientation
}

// Compose treats Poses as functions applied to points and returns the pose
// equivalent to applying b first, then a: the composed rotation is Ra*Rb and
// the composed translation is Pa + Ra*Pb.
func Compose(a, b Pose) Pose {
	qa := a.Orientation().Quaternion()
	return &basicPose{
		point:       a.Point().Add(QuatRotateVec(qa, b.Point())),
		orientation: quaternion(quat.Mul(qa, b.Orientation().Quaternion())),
	}
}

// PoseInverse returns the pose that undoes the given pose, such that
// Compose(p, PoseInverse(p)) is the zero pose.
func PoseInverse(p Pose) Pose {
	qInv := quat.Conj(p.Orientation().Quaternion())
	return &basicPose{
		point:       QuatRotateVec(qInv, p.Point().Mul(-1)),
		orientation: quaternion(qInv),
	}
}

// PoseBetween returns the difference between two poses: the pose that
// transforms a into b, so that Compose(a, PoseBetween(a, b)) equals b.
func PoseBetween(a, b Pose) Pose {
	return Compose(PoseInverse(a), b)
}

// PoseDelta returns the pose whose point is the coordinate-wise difference of
// the two positions and whose orientation takes a's rotation to b's. This is
// the residual used by the iterative inverse kinematics solver.
func PoseDelta(a, b Pose) Pose {
	return &basicPose{
		point:       b.Point().Sub(a.Point()),
		orientation: quaternion(quat.Mul(b.Orientation().Quaternion(), quat.Conj(a.Orientation().Quaternion()))),
	}
}

// PoseAlmostEqual compares two poses within the given positional and angular
// tolerances.
func PoseAlmostEqual(a, b Pose, posTol, angTol float64) bool {
	if a.Point().Sub(b.Point()).Norm() > posTol {
		return false
	}
	return QuatToR4AA(OrientationBetween(a.Orientation(), b.Orientation()).Quaternion()).Theta <= angTol
}

// PoseToHomogeneous converts a pose to the equivalent 4x4 homogeneous
// transform matrix.
func PoseToHomogeneous(p Pose) mgl64.Mat4 {
	m := mgl64.Ident4()
	rm := p.Orientation().RotationMatrix()
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			m.Set(r, c, rm.At(r, c))
		}
	}
	pt := p.Point()
	m.Set(0, 3, pt.X)
	m.Set(1, 3, pt.Y)
	m.Set(2, 3, pt.Z)
	return m
}
