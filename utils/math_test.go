package utils

import (
	"math"
	"testing"

	"go.viam.com/test"
)

func TestAngleConversions(t *testing.T) {
	test.That(t, DegToRad(180), test.ShouldAlmostEqual, math.Pi)
	test.That(t, RadToDeg(math.Pi/2), test.ShouldAlmostEqual, 90)

	degrees := []float64{0, -50, 70, 90, 0, 0}
	back := RadiansToDegrees(DegreesToRadians(degrees))
	for i := range degrees {
		test.That(t, back[i], test.ShouldAlmostEqual, degrees[i], 1e-12)
	}
}

func TestNormalizeAngle(t *testing.T) {
	test.That(t, NormalizeAngle(0), test.ShouldAlmostEqual, 0)
	test.That(t, NormalizeAngle(math.Pi), test.ShouldAlmostEqual, math.Pi)
	test.That(t, NormalizeAngle(-math.Pi), test.ShouldAlmostEqual, math.Pi)
	test.That(t, NormalizeAngle(3*math.Pi), test.ShouldAlmostEqual, math.Pi)
	test.That(t, NormalizeAngle(2*math.Pi), test.ShouldAlmostEqual, 0, 1e-12)
	test.That(t, NormalizeAngle(-3*math.Pi/2), test.ShouldAlmostEqual, math.Pi/2)

	// Everything lands in (-pi, pi].
	for theta := -20.0; theta < 20.0; theta += 0.37 {
		wrapped := NormalizeAngle(theta)
		test.That(t, wrapped, test.ShouldBeGreaterThan, -math.Pi)
		test.That(t, wrapped, test.ShouldBeLessThanOrEqualTo, math.Pi)
		residue := math.Abs(math.Mod(wrapped-theta, 2*math.Pi))
		test.That(t, math.Min(residue, 2*math.Pi-residue), test.ShouldAlmostEqual, 0, 1e-9)
	}
}

func TestClamp(t *testing.T) {
	test.That(t, Clamp(0.5, 0, 1), test.ShouldEqual, 0.5)
	test.That(t, Clamp(-2, 0, 1), test.ShouldEqual, 0.0)
	test.That(t, Clamp(7, 0, 1), test.ShouldEqual, 1.0)
}

func TestSpaceDelimitedFloats(t *testing.T) {
	test.That(t, SpaceDelimitedFloats("0 0 0.1105"), test.ShouldResemble, []float64{0, 0, 0.1105})
	test.That(t, SpaceDelimitedFloats("  1.5708   0\t-1 "), test.ShouldResemble, []float64{1.5708, 0, -1})
	test.That(t, SpaceDelimitedFloats(""), test.ShouldHaveLength, 0)
	test.That(t, SpaceDelimitedFloats("1 bogus 2"), test.ShouldResemble, []float64{1, 2})
}
