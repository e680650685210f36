package kinematics

import (
	"testing"

	"github.com/pkg/errors"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"github.com/parol6/console/spatialmath"
)

func TestCatalogLookup(t *testing.T) {
	catalog := DefaultCatalog()
	test.That(t, catalog.Names(), test.ShouldHaveLength, 3)

	small, err := catalog.Lookup("small")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, small.Name(), test.ShouldEqual, "small")

	_, err = catalog.Lookup("does-not-exist")
	test.That(t, errors.Is(err, ErrUnknownTool), test.ShouldBeTrue)
}

func TestSmallToolOffset(t *testing.T) {
	small, err := DefaultCatalog().Lookup("small")
	test.That(t, err, test.ShouldBeNil)

	// With an identity flange pose the TCP is exactly the tool offset.
	tcp := spatialmath.Compose(spatialmath.NewZeroPose(), small.Pose())
	test.That(t, tcp.Point().X, test.ShouldEqual, 0.100)
	test.That(t, tcp.Point().Y, test.ShouldEqual, 0.0)
	test.That(t, tcp.Point().Z, test.ShouldEqual, -0.090)

	// (0, -180, 0) intrinsic X-Y-Z is a pure Y flip.
	expected := spatialmath.NewRotationMatrix([9]float64{-1, 0, 0, 0, 1, 0, 0, 0, -1})
	test.That(t, spatialmath.RotationMatrixAlmostEqual(tcp.Orientation().RotationMatrix(), expected, 1e-9), test.ShouldBeTrue)
}

func TestToolNone(t *testing.T) {
	none := ToolNone()
	test.That(t, none.Pose().Point(), test.ShouldResemble, r3.Vector{})
	test.That(t, spatialmath.OrientationAlmostEqual(none.Pose().Orientation(), spatialmath.NewZeroOrientation()), test.ShouldBeTrue)
}
