package spatialmath

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/num/quat"
)

func TestEulerAnglesRoundTrip(t *testing.T) {
	cases := []*EulerAngles{
		{Roll: 0, Pitch: 0, Yaw: 0},
		{Roll: 0.3, Pitch: -0.2, Yaw: 1.1},
		{Roll: -1.2, Pitch: 0.7, Yaw: -0.4},
		{Roll: math.Pi / 2, Pitch: 0.1, Yaw: -math.Pi / 3},
	}
	for _, ea := range cases {
		back := eulerAnglesFromQuat(ea.Quaternion())
		test.That(t, back.Roll, test.ShouldAlmostEqual, ea.Roll, 1e-9)
		test.That(t, back.Pitch, test.ShouldAlmostEqual, ea.Pitch, 1e-9)
		test.That(t, back.Yaw, test.ShouldAlmostEqual, ea.Yaw, 1e-9)
	}
}

func TestRotationMatrixQuaternionRoundTrip(t *testing.T) {
	diagonal := &R4AA{Theta: 2.5, RX: 1, RY: 1, RZ: 0}
	diagonal.Normalize()
	cases := []Orientation{
		NewZeroOrientation(),
		&EulerAngles{Roll: 0.3, Pitch: -0.2, Yaw: 1.1},
		diagonal,
		&R4AA{Theta: math.Pi, RZ: 1},
	}
	for _, o := range cases {
		rm := o.RotationMatrix()
		test.That(t, QuaternionAlmostEqual(rm.Quaternion(), o.Quaternion(), 1e-9), test.ShouldBeTrue)
	}
}

func TestRotationAboutY(t *testing.T) {
	// Intrinsic X-Y-Z with only pitch set is a pure Y rotation.
	ea := &EulerAngles{Roll: 0, Pitch: -math.Pi, Yaw: 0}
	rm := ea.RotationMatrix()
	expected := NewRotationMatrix([9]float64{-1, 0, 0, 0, 1, 0, 0, 0, -1})
	test.That(t, RotationMatrixAlmostEqual(rm, expected, 1e-9), test.ShouldBeTrue)
}

func TestQuatRotateVec(t *testing.T) {
	// 90 degrees about Z takes X to Y.
	q := (&R4AA{Theta: math.Pi / 2, RZ: 1}).Quaternion()
	rotated := QuatRotateVec(q, r3.Vector{X: 1})
	test.That(t, rotated.X, test.ShouldAlmostEqual, 0, 1e-9)
	test.That(t, rotated.Y, test.ShouldAlmostEqual, 1, 1e-9)
	test.That(t, rotated.Z, test.ShouldAlmostEqual, 0, 1e-9)
}

func TestR4AARoundTrip(t *testing.T) {
	aa := &R4AA{Theta: 1.3, RX: 0.2, RY: -0.9, RZ: 0.6}
	aa.Normalize()
	back := QuatToR4AA(aa.Quaternion())
	test.That(t, back.Theta, test.ShouldAlmostEqual, aa.Theta, 1e-9)
	test.That(t, back.RX, test.ShouldAlmostEqual, aa.RX, 1e-9)
	test.That(t, back.RY, test.ShouldAlmostEqual, aa.RY, 1e-9)
	test.That(t, back.RZ, test.ShouldAlmostEqual, aa.RZ, 1e-9)

	zero := QuatToR4AA(quat.Number{Real: 1})
	test.That(t, zero.Theta, test.ShouldAlmostEqual, 0)
}

func TestPoseCompose(t *testing.T) {
	// Translate then rotate: the second translation is expressed in the
	// rotated frame.
	a := NewPose(r3.Vector{X: 1}, &R4AA{Theta: math.Pi / 2, RZ: 1})
	b := NewPoseFromPoint(r3.Vector{X: 1})
	c := Compose(a, b)
	test.That(t, c.Point().X, test.ShouldAlmostEqual, 1, 1e-9)
	test.That(t, c.Point().Y, test.ShouldAlmostEqual, 1, 1e-9)

	// Composing with the inverse lands back at identity.
	id := Compose(a, PoseInverse(a))
	test.That(t, PoseAlmostEqual(id, NewZeroPose(), 1e-9, 1e-9), test.ShouldBeTrue)
}

func TestPoseBetween(t *testing.T) {
	a := NewPose(r3.Vector{X: 0.2, Z: 0.4}, &EulerAngles{Roll: 0.5, Pitch: -0.1, Yaw: 0.9})
	b := NewPose(r3.Vector{X: -0.1, Y: 0.3}, &R4AA{Theta: 0.7, RX: 1, RZ: 1})
	between := PoseBetween(a, b)
	test.That(t, PoseAlmostEqual(Compose(a, between), b, 1e-9, 1e-9), test.ShouldBeTrue)
}

func TestPoseDelta(t *testing.T) {
	a := NewPoseFromPoint(r3.Vector{X: 0.1})
	b := NewPose(r3.Vector{X: 0.2, Y: 0.05}, &R4AA{Theta: 0.3, RZ: 1})
	delta := PoseDelta(a, b)
	test.That(t, delta.Point().X, test.ShouldAlmostEqual, 0.1, 1e-12)
	test.That(t, delta.Point().Y, test.ShouldAlmostEqual, 0.05, 1e-12)
	rv := QuatToR3AA(delta.Orientation().Quaternion())
	test.That(t, rv.Z, test.ShouldAlmostEqual, 0.3, 1e-9)
}

func TestPoseToHomogeneous(t *testing.T) {
	p := NewPose(r3.Vector{X: 1, Y: 2, Z: 3}, &R4AA{Theta: math.Pi / 2, RZ: 1})
	m := PoseToHomogeneous(p)
	// Translation sits in the last column.
	test.That(t, m.At(0, 3), test.ShouldAlmostEqual, 1)
	test.That(t, m.At(1, 3), test.ShouldAlmostEqual, 2)
	test.That(t, m.At(2, 3), test.ShouldAlmostEqual, 3)
	test.That(t, m.At(3, 3), test.ShouldAlmostEqual, 1)
	test.That(t, m.At(1, 0), test.ShouldAlmostEqual, 1, 1e-9)
	test.That(t, m.At(0, 1), test.ShouldAlmostEqual, -1, 1e-9)
}
