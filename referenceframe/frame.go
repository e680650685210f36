// Package referenceframe describes kinematic chains: the frames a chain is
// built from, the reduced joint vector addressing its movable joints, and
// loading chains from URDF descriptions.
package referenceframe

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/parol6/console/spatialmath"
)

// NumJoints is the width of the reduced joint vector. The console drives
// 6-axis arms; every reduced vector is exactly this long.
const NumJoints = 6

// OOBErrString is contained in all out-of-bounds errors so they can be told
// apart from other Transform errors. Out-of-bounds transforms still return a
// valid pose alongside the error.
const OOBErrString = "input out of bounds"

// Limit represents the limits of motion for a single degree of freedom, in
// radians for revolute joints.
type Limit struct {
	Min float64
	Max float64
}

// Input wraps the input to a mutable frame, a joint angle in radians.
type Input struct {
	Value float64
}

// FloatsToInputs wraps a slice of floats in Inputs.
func FloatsToInputs(floats []float64) []Input {
	inputs := make([]Input, len(floats))
	for i, f := range floats {
		inputs[i] = Input{f}
	}
	return inputs
}

// InputsToFloats unwraps a slice of Inputs to floats.
func InputsToFloats(inputs []Input) []float64 {
	floats := make([]float64, len(inputs))
	for i, input := range inputs {
		floats[i] = input.Value
	}
	return floats
}

// Frame represents a single element of a kinematic chain: either a fixed
// transform between links or a movable joint.
type Frame interface {
	// Name returns the name of the frame.
	Name() string

	// Transform is the pose that goes from the frame to its parent, given
	// one input per degree of freedom. Inputs outside the frame's limits
	// still produce a pose, along with an error containing OOBErrString.
	Transform([]Input) (spatialmath.Pose, error)

	// DoF returns the movement limits of the frame, one Limit per degree of
	// freedom. Fixed frames return an empty slice.
	DoF() []Limit
}

// a staticFrame is a fixed coordinate transform from the frame to its parent.
type staticFrame struct {
	name      string
	transform spatialmath.Pose
}

// NewStaticFrame creates a frame with a fixed pose relative to its parent.
// The pose is not allowed to be nil.
func NewStaticFrame(name string, pose spatialmath.Pose) (Frame, error) {
	if pose == nil {
		return nil, errors.New("pose is not allowed to be nil")
	}
	return &staticFrame{name, pose}, nil
}

// NewZeroStaticFrame creates a frame with no translation or rotation.
func NewZeroStaticFrame(name string) Frame {
	return &staticFrame{name, spatialmath.NewZeroPose()}
}

func (sf *staticFrame) Name() string {
	return sf.name
}

func (sf *staticFrame) Transform(input []Input) (spatialmath.Pose, error) {
	if len(input) != 0 {
		return nil, fmt.Errorf("given input length %d does not match frame DoF 0", len(input))
	}
	return sf.transform, nil
}

func (sf *staticFrame) DoF() []Limit {
	return []Limit{}
}

// a rotationalFrame is a revolute joint rotating about a fixed axis.
type rotationalFrame struct {
	name    string
	rotAxis r3.Vector
	limit   []Limit
}

// NewRotationalFrame creates a frame for a revolute joint about the given
// axis; a standard revolute joint has one degree of freedom.
func NewRotationalFrame(name string, axis r3.Vector, limit Limit) (Frame, error) {
	if axis.Norm() == 0 {
		return nil, errors.New("cannot use zero vector as rotation axis")
	}
	return &rotationalFrame{
		name:    name,
		rotAxis: axis.Normalize(),
		limit:   []Limit{limit},
	}, nil
}

func (rf *rotationalFrame) Name() string {
	return rf.name
}

func (rf *rotationalFrame) Transform(input []Input) (spatialmath.Pose, error) {
	if len(input) != 1 {
		return nil, fmt.Errorf("given input length %d does not match frame DoF 1", len(input))
	}
	var err error
	if input[0].Value < rf.limit[0].Min || input[0].Value > rf.limit[0].Max {
		err = fmt.Errorf("%.5f %s [%.5f, %.5f]", input[0].Value, OOBErrString, rf.limit[0].Min, rf.limit[0].Max)
	}
	aa := &spatialmath.R4AA{Theta: input[0].Value, RX: rf.rotAxis.X, RY: rf.rotAxis.Y, RZ: rf.rotAxis.Z}
	return spatialmath.NewPoseFromOrientation(aa), err
}

func (rf *rotationalFrame) DoF() []Limit {
	return rf.limit
}

// InputsL2Distance returns the Euclidean distance between two lists of inputs.
func InputsL2Distance(a, b []Input) float64 {
	if len(a) != len(b) {
		return math.Inf(1)
	}
	dist := 0.0
	for i, ai := range a {
		d := ai.Value - b[i].Value
		dist += d * d
	}
	return math.Sqrt(dist)
}
