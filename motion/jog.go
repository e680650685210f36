package motion

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/geo/r3"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/num/quat"

	"github.com/parol6/console/kinematics"
	"github.com/parol6/console/logging"
	"github.com/parol6/console/referenceframe"
	"github.com/parol6/console/spatialmath"
	"github.com/parol6/console/utils"
)

// Control loop tuning. Base steps are per tick at 100% speed; the floors keep
// very low speed settings from stalling entirely.
const (
	tickPeriod    = 50 * time.Millisecond
	minTickSleep  = 10 * time.Millisecond
	baseLinStep   = 0.002 // m
	minLinStep    = 0.0002
	baseAngStep   = 0.006 // rad
	minAngStep    = 0.002
	acceptDelta   = 0.3 // rad, largest per-joint step taken as-is
	rejectDelta   = 0.6 // rad, beyond this the tick is rejected
	blendFraction = 0.2
)

// Axis identifies one Cartesian jog direction. Linear axes translate along
// world X/Y/Z; angular axes rotate about the tool frame's local X/Y/Z,
// pivoting at the tool tip.
type Axis int

// The six jog axes.
const (
	AxisX Axis = iota
	AxisY
	AxisZ
	AxisRX
	AxisRY
	AxisRZ
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	case AxisRX:
		return "rx"
	case AxisRY:
		return "ry"
	case AxisRZ:
		return "rz"
	}
	return "invalid"
}

// Linear reports whether the axis translates rather than rotates.
func (a Axis) Linear() bool {
	return a <= AxisZ
}

// Request describes one jog session. SpeedPercent is clamped into [10, 100].
type Request struct {
	Axis         Axis
	Sign         int
	SpeedPercent float64
}

func (r Request) validate() error {
	if r.Axis < AxisX || r.Axis > AxisRZ {
		return errors.Errorf("invalid jog axis %d", int(r.Axis))
	}
	if r.Sign != 1 && r.Sign != -1 {
		return errors.Errorf("jog sign must be +1 or -1, got %d", r.Sign)
	}
	return nil
}

// Workspace is the axis-aligned box TCP positions are clamped into, meters.
type Workspace struct {
	XMin, XMax float64
	YMin, YMax float64
	ZMin, ZMax float64
}

// DefaultWorkspace returns the reachable box of the stock arm.
func DefaultWorkspace() Workspace {
	return Workspace{XMin: -0.7, XMax: 0.7, YMin: -0.7, YMax: 0.7, ZMin: -0.3, ZMax: 0.9}
}

// Clamp clamps a TCP position into the box, each axis independently.
func (w Workspace) Clamp(p r3.Vector) r3.Vector {
	return r3.Vector{
		X: utils.Clamp(p.X, w.XMin, w.XMax),
		Y: utils.Clamp(p.Y, w.YMin, w.YMax),
		Z: utils.Clamp(p.Z, w.ZMin, w.ZMax),
	}
}

// Solver is the slice of the kinematics solver the control loops need.
type Solver interface {
	ForwardKinematics(joints []referenceframe.Input) (spatialmath.Pose, error)
	InverseKinematics(ctx context.Context, goal spatialmath.Pose, seed []referenceframe.Input) (kinematics.Result, error)
}

// JogController runs one continuous Cartesian jog session at a time, stepping
// the commanded vector toward the requested direction every tick until
// stopped. Solves that land too far from the current configuration are
// blended or rejected rather than followed through a singularity.
type JogController struct {
	solver    Solver
	store     *Store
	sink      Sink
	workspace Workspace
	clk       clock.Clock
	logger    logging.Logger

	mu      sync.Mutex
	session *jogSession
}

type jogSession struct {
	id      uuid.UUID
	workers utils.StoppableWorkers
}

// NewJogController wires a jog controller to its collaborators.
func NewJogController(solver Solver, store *Store, sink Sink, workspace Workspace, clk clock.Clock, logger logging.Logger) *JogController {
	return &JogController{
		solver:    solver,
		store:     store,
		sink:      sink,
		workspace: workspace,
		clk:       clk,
		logger:    logger,
	}
}

// Start begins a jog session and returns its id. A request while a session is
// already running is refused with ErrMotionActive, and jogging before homing
// is refused with ErrNotHomed.
func (c *JogController) Start(req Request) (uuid.UUID, error) {
	if err := req.validate(); err != nil {
		return uuid.Nil, err
	}
	req.SpeedPercent = utils.Clamp(req.SpeedPercent, 10, 100)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != nil {
		return uuid.Nil, ErrMotionActive
	}
	if err := c.store.BeginMotion(); err != nil {
		return uuid.Nil, err
	}

	id := uuid.New()
	c.logger.Infow("jog session started", "id", id, "axis", req.Axis, "sign", req.Sign, "speed", req.SpeedPercent)
	c.session = &jogSession{
		id:      id,
		workers: utils.NewStoppableWorkers(func(ctx context.Context) { c.run(ctx, req) }),
	}
	return id, nil
}

// Stop ends the active jog session, waiting for the loop to observe the stop
// at its next tick boundary.
func (c *JogController) Stop() error {
	c.mu.Lock()
	session := c.session
	c.session = nil
	c.mu.Unlock()
	if session == nil {
		return ErrNoSession
	}
	session.workers.Stop()
	c.logger.Infow("jog session stopped", "id", session.id)
	return nil
}

// Active reports whether a jog session is running.
func (c *JogController) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session != nil
}

func (c *JogController) run(ctx context.Context, req Request) {
	defer c.store.EndMotion()
	for {
		start := c.clk.Now()
		if ctx.Err() != nil {
			return
		}
		c.Tick(ctx, req)
		wait := tickPeriod - c.clk.Now().Sub(start)
		if wait < minTickSleep {
			wait = minTickSleep
		}
		if !utils.SelectContextOrWait(ctx, c.clk, wait) {
			return
		}
	}
}

// Tick performs one jog step: forward kinematics from the commanded vector,
// a clamped Cartesian step, an inverse solve seeded for continuity, and the
// accept/blend/reject gate on the per-joint delta. Any failure inside the
// tick leaves the commanded vector unchanged.
func (c *JogController) Tick(ctx context.Context, req Request) {
	current := c.store.Commanded()
	pose, err := c.solver.ForwardKinematics(current)
	if pose == nil {
		c.logger.Debugw("jog tick skipped, forward kinematics failed", "error", err)
		return
	}

	candidate := c.jogTarget(pose, req)
	result, err := c.solver.InverseKinematics(ctx, candidate, current)
	if err != nil || result.Status == kinematics.StatusFailed {
		c.logger.Debugw("jog tick rejected, solve failed", "error", err, "residual", result.Residual)
		return
	}

	next, ok := gateJointStep(current, result.Joints)
	if !ok {
		c.logger.Debugw("jog tick rejected, step too large", "axis", req.Axis)
		return
	}

	c.store.SetCommanded(next)
	if err := c.sink.SendJointDegrees(ctx, utils.RadiansToDegrees(referenceframe.InputsToFloats(next))); err != nil {
		c.logger.Warnw("failed to send jog step", "error", err)
	}
}

// jogTarget builds the candidate pose one step in the requested direction,
// with the position clamped into the workspace.
func (c *JogController) jogTarget(pose spatialmath.Pose, req Request) spatialmath.Pose {
	pct := req.SpeedPercent / 100
	sign := float64(req.Sign)
	pt := pose.Point()
	orientation := pose.Orientation()

	if req.Axis.Linear() {
		step := sign * math.Max(minLinStep, baseLinStep*pct)
		switch req.Axis {
		case AxisX:
			pt.X += step
		case AxisY:
			pt.Y += step
		case AxisZ:
			pt.Z += step
		}
	} else {
		step := sign * math.Max(minAngStep, baseAngStep*pct)
		axis := r3.Vector{X: 1}
		switch req.Axis {
		case AxisRY:
			axis = r3.Vector{Y: 1}
		case AxisRZ:
			axis = r3.Vector{Z: 1}
		}
		// Right-multiplied so the rotation is about the tool's own axis,
		// pivoting at the tool tip.
		delta := (&spatialmath.R4AA{Theta: step, RX: axis.X, RY: axis.Y, RZ: axis.Z}).Quaternion()
		orientation = spatialmath.NewOrientationFromQuaternion(quat.Mul(orientation.Quaternion(), delta))
	}

	return spatialmath.NewPose(c.workspace.Clamp(pt), orientation)
}

// gateJointStep applies the singularity guard: steps under acceptDelta pass
// unchanged, steps under rejectDelta are blended toward the solve, and
// anything larger is rejected.
func gateJointStep(current, solved []referenceframe.Input) ([]referenceframe.Input, bool) {
	if len(solved) != len(current) {
		return nil, false
	}
	maxDelta := 0.0
	for i := range current {
		if d := math.Abs(solved[i].Value - current[i].Value); d > maxDelta {
			maxDelta = d
		}
	}
	switch {
	case maxDelta < acceptDelta:
		return solved, true
	case maxDelta < rejectDelta:
		blended := make([]referenceframe.Input, len(current))
		for i := range current {
			blended[i] = referenceframe.Input{Value: current[i].Value + blendFraction*(solved[i].Value-current[i].Value)}
		}
		return blended, true
	default:
		return nil, false
	}
}
