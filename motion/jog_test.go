package motion

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"github.com/parol6/console/kinematics"
	"github.com/parol6/console/logging"
	"github.com/parol6/console/referenceframe"
	"github.com/parol6/console/spatialmath"
)

// fakeSink records every joint vector a control loop hands to the transport.
type fakeSink struct {
	mu    sync.Mutex
	sends [][]float64
}

func (f *fakeSink) SendJointDegrees(ctx context.Context, degrees []float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	sent := make([]float64, len(degrees))
	copy(sent, degrees)
	f.sends = append(f.sends, sent)
	return nil
}

func (f *fakeSink) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sends)
}

// fakeSolver returns canned kinematics results.
type fakeSolver struct {
	pose   spatialmath.Pose
	result kinematics.Result
	err    error
}

func (f *fakeSolver) ForwardKinematics(joints []referenceframe.Input) (spatialmath.Pose, error) {
	return f.pose, nil
}

func (f *fakeSolver) InverseKinematics(ctx context.Context, goal spatialmath.Pose, seed []referenceframe.Input) (kinematics.Result, error) {
	return f.result, f.err
}

func newTestJog(t *testing.T, solver Solver, store *Store, sink Sink) *JogController {
	t.Helper()
	return NewJogController(solver, store, sink, DefaultWorkspace(), clock.New(), logging.NewTestLogger(t))
}

func TestJogRequestValidation(t *testing.T) {
	store := NewStore(clock.NewMock())
	c := newTestJog(t, &fakeSolver{}, store, &fakeSink{})

	_, err := c.Start(Request{Axis: Axis(42), Sign: 1, SpeedPercent: 50})
	test.That(t, err, test.ShouldNotBeNil)
	_, err = c.Start(Request{Axis: AxisX, Sign: 0, SpeedPercent: 50})
	test.That(t, err, test.ShouldNotBeNil)

	// Valid request, but the arm is not homed.
	_, err = c.Start(Request{Axis: AxisX, Sign: 1, SpeedPercent: 50})
	test.That(t, err, test.ShouldBeError, ErrNotHomed)
}

func TestJogTargetLinearStep(t *testing.T) {
	store := NewStore(clock.NewMock())
	c := newTestJog(t, &fakeSolver{}, store, &fakeSink{})

	pose := spatialmath.NewPoseFromPoint(r3.Vector{X: 0.3, Y: 0.1, Z: 0.2})

	// +x at 50% is exactly a 1.0 mm step.
	target := c.jogTarget(pose, Request{Axis: AxisX, Sign: 1, SpeedPercent: 50})
	test.That(t, target.Point().X, test.ShouldEqual, 0.301)
	test.That(t, target.Point().Y, test.ShouldEqual, 0.1)
	test.That(t, target.Point().Z, test.ShouldEqual, 0.2)

	// Very low speeds are floored, not stalled.
	target = c.jogTarget(pose, Request{Axis: AxisZ, Sign: -1, SpeedPercent: 1})
	test.That(t, target.Point().Z, test.ShouldEqual, 0.2-minLinStep)
}

func TestJogTargetWorkspaceClamp(t *testing.T) {
	store := NewStore(clock.NewMock())
	c := newTestJog(t, &fakeSolver{}, store, &fakeSink{})

	// Pushing past the +x boundary lands exactly on it, never beyond.
	pose := spatialmath.NewPoseFromPoint(r3.Vector{X: 0.6995})
	target := c.jogTarget(pose, Request{Axis: AxisX, Sign: 1, SpeedPercent: 50})
	test.That(t, target.Point().X, test.ShouldEqual, 0.700)

	target = c.jogTarget(target, Request{Axis: AxisX, Sign: 1, SpeedPercent: 100})
	test.That(t, target.Point().X, test.ShouldEqual, 0.700)
}

func TestJogTargetAngular(t *testing.T) {
	store := NewStore(clock.NewMock())
	c := newTestJog(t, &fakeSolver{}, store, &fakeSink{})

	pose := spatialmath.NewPoseFromPoint(r3.Vector{X: 0.3})
	target := c.jogTarget(pose, Request{Axis: AxisRZ, Sign: 1, SpeedPercent: 100})

	// Rotation pivots at the tool tip: position unchanged.
	test.That(t, target.Point(), test.ShouldResemble, pose.Point())
	aa := spatialmath.QuatToR4AA(target.Orientation().Quaternion())
	test.That(t, aa.Theta, test.ShouldAlmostEqual, baseAngStep, 1e-9)
	test.That(t, aa.RZ, test.ShouldAlmostEqual, 1, 1e-9)
}

func TestGateJointStep(t *testing.T) {
	current := referenceframe.FloatsToInputs([]float64{0, 0, 0, 0, 0, 0})

	// Small steps pass through unchanged.
	small := referenceframe.FloatsToInputs([]float64{0.1, -0.2, 0.05, 0, 0.29, 0})
	next, ok := gateJointStep(current, small)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, next, test.ShouldResemble, small)

	// Mid-range steps are blended by a fixed fraction.
	mid := referenceframe.FloatsToInputs([]float64{0.5, 0, 0, 0, 0, 0})
	next, ok = gateJointStep(current, mid)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, next[0].Value, test.ShouldAlmostEqual, 0.1, 1e-12)

	// Steps past the threshold are rejected outright.
	big := referenceframe.FloatsToInputs([]float64{0, 0, 0.7, 0, 0, 0})
	_, ok = gateJointStep(current, big)
	test.That(t, ok, test.ShouldBeFalse)

	_, ok = gateJointStep(current, small[:5])
	test.That(t, ok, test.ShouldBeFalse)
}

func TestTickRejectionKeepsCommanded(t *testing.T) {
	store := NewStore(clock.NewMock())
	before := referenceframe.FloatsToInputs([]float64{0.1, 0.2, 0.3, 0.1, 0.2, 0.3})
	store.SetCommanded(before)

	// The solve lands a full radian away: singularity guard must reject.
	solver := &fakeSolver{
		pose: spatialmath.NewZeroPose(),
		result: kinematics.Result{
			Joints: referenceframe.FloatsToInputs([]float64{1.1, 0.2, 0.3, 0.1, 0.2, 0.3}),
			Status: kinematics.StatusConverged,
		},
	}
	sink := &fakeSink{}
	c := newTestJog(t, solver, store, sink)

	c.Tick(context.Background(), Request{Axis: AxisX, Sign: 1, SpeedPercent: 50})
	test.That(t, store.Commanded(), test.ShouldResemble, before)
	test.That(t, sink.count(), test.ShouldEqual, 0)

	// Failed solves are rejected too.
	solver.result.Status = kinematics.StatusFailed
	c.Tick(context.Background(), Request{Axis: AxisX, Sign: 1, SpeedPercent: 50})
	test.That(t, store.Commanded(), test.ShouldResemble, before)
}

func TestTickAcceptSendsDegrees(t *testing.T) {
	store := NewStore(clock.NewMock())
	solved := referenceframe.FloatsToInputs([]float64{0.1, 0, 0, 0, 0, 0})
	solver := &fakeSolver{
		pose:   spatialmath.NewZeroPose(),
		result: kinematics.Result{Joints: solved, Status: kinematics.StatusConverged},
	}
	sink := &fakeSink{}
	c := newTestJog(t, solver, store, sink)

	c.Tick(context.Background(), Request{Axis: AxisX, Sign: 1, SpeedPercent: 50})
	test.That(t, store.Commanded(), test.ShouldResemble, solved)
	test.That(t, sink.count(), test.ShouldEqual, 1)
	test.That(t, sink.sends[0][0], test.ShouldAlmostEqual, 0.1*180/3.141592653589793, 1e-9)
}

func TestJogSessionLifecycle(t *testing.T) {
	store := NewStore(clock.New())
	store.SetHomed(true)
	solver := &fakeSolver{
		pose:   spatialmath.NewZeroPose(),
		result: kinematics.Result{Joints: make([]referenceframe.Input, referenceframe.NumJoints), Status: kinematics.StatusConverged},
	}
	sink := &fakeSink{}
	c := newTestJog(t, solver, store, sink)

	id, err := c.Start(Request{Axis: AxisY, Sign: -1, SpeedPercent: 100})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, id.String(), test.ShouldNotBeEmpty)
	test.That(t, c.Active(), test.ShouldBeTrue)

	// A second session is refused while the first runs.
	_, err = c.Start(Request{Axis: AxisY, Sign: 1, SpeedPercent: 100})
	test.That(t, err, test.ShouldBeError, ErrMotionActive)

	time.Sleep(120 * time.Millisecond)
	test.That(t, c.Stop(), test.ShouldBeNil)
	test.That(t, c.Active(), test.ShouldBeFalse)
	test.That(t, store.Moving(), test.ShouldBeFalse)
	test.That(t, sink.count(), test.ShouldBeGreaterThan, 0)

	test.That(t, c.Stop(), test.ShouldBeError, ErrNoSession)
}
