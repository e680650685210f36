// Package console is the operator-facing core of the arm console: it owns the
// kinematics solver, the shared joint state, and the motion controllers, and
// exposes the operations the presentation layer calls.
package console

import (
	"context"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/parol6/console/config"
	"github.com/parol6/console/kinematics"
	"github.com/parol6/console/logging"
	"github.com/parol6/console/motion"
	"github.com/parol6/console/referenceframe"
	"github.com/parol6/console/spatialmath"
	"github.com/parol6/console/transport"
	"github.com/parol6/console/utils"
)

// ErrUnknownPose is returned when a named pose is not configured.
var ErrUnknownPose = errors.New("unknown named pose")

// Link is the slice of the transport the console drives: the per-tick motion
// sink plus bare command lines.
type Link interface {
	motion.Sink
	SendCommand(ctx context.Context, command string) error
}

// DisplayState is the read-only snapshot the presentation layer renders.
// Joint values are in degrees, matching what the operator sees.
type DisplayState struct {
	CommandedDegrees []float64
	FeedbackDegrees  []float64
	TCPPose          spatialmath.Pose
	Tool             string
	Homed            bool
	Moving           bool
	Degraded         bool
}

// Console wires the kinematics solver, joint state store, and motion
// controllers together behind one typed interface.
type Console struct {
	logger   logging.Logger
	link     Link
	catalog  kinematics.Catalog
	poses    map[string][]referenceframe.Input
	limits   []referenceframe.Limit
	solver   *kinematics.Solver
	store    *motion.Store
	jog      *motion.JogController
	interp   *motion.Interpolator
	feedback *motion.FeedbackReconciler
}

// New builds a console from configuration. A chain description that fails to
// load degrades to the null chain rather than failing startup; motion then
// stays refused while the rest of the console keeps running.
func New(cfg *config.Config, link Link, clk clock.Clock, logger logging.Logger) (*Console, error) {
	var model referenceframe.Model
	if cfg.URDFPath == "" {
		model = referenceframe.NewNullModel("parol6")
		logger.Warn("no chain description configured; running degraded with the null chain")
	} else if parsed, err := referenceframe.ParseURDFFile(cfg.URDFPath, "parol6"); err != nil {
		model = referenceframe.NewNullModel("parol6")
		logger.Errorw("failed to load chain description; running degraded with the null chain", "path", cfg.URDFPath, "error", err)
	} else {
		model = parsed
	}

	limits := cfg.JointLimits()
	solver, err := kinematics.NewSolver(model, limits, logger.Sublogger("kinematics"))
	if err != nil {
		return nil, err
	}
	if len(limits) == 0 {
		limits = model.DoF()
	}
	catalog := cfg.ToolCatalog()
	defaultTool, err := catalog.Lookup(cfg.DefaultTool)
	if err != nil {
		return nil, err
	}
	solver.SetTool(defaultTool)

	store := motion.NewStore(clk)
	c := &Console{
		logger:   logger,
		link:     link,
		catalog:  catalog,
		poses:    cfg.NamedPoses(),
		limits:   limits,
		solver:   solver,
		store:    store,
		jog:      motion.NewJogController(solver, store, link, cfg.MotionWorkspace(), clk, logger.Sublogger("jog")),
		interp:   motion.NewInterpolator(store, link, clk, logger.Sublogger("move")),
		feedback: motion.NewFeedbackReconciler(store, logger.Sublogger("feedback")),
	}
	return c, nil
}

// SetTool activates a tool from the catalog atomically. Unknown names are
// rejected and the prior tool stays active.
func (c *Console) SetTool(name string) error {
	tool, err := c.catalog.Lookup(name)
	if err != nil {
		c.logger.Warnw("rejecting unknown tool", "tool", name)
		return err
	}
	c.solver.SetTool(tool)
	return nil
}

// ActiveTool returns the name of the active tool.
func (c *Console) ActiveTool() string {
	return c.solver.Tool().Name()
}

// ToolNames returns the names in the tool catalog.
func (c *Console) ToolNames() []string {
	return c.catalog.Names()
}

// ForwardKinematics returns the TCP pose for a reduced joint vector.
func (c *Console) ForwardKinematics(joints []referenceframe.Input) (spatialmath.Pose, error) {
	return c.solver.ForwardKinematics(joints)
}

// InverseKinematics solves for the joint vector reaching the target TCP pose,
// seeded for continuity.
func (c *Console) InverseKinematics(ctx context.Context, goal spatialmath.Pose, seed []referenceframe.Input) (kinematics.Result, error) {
	return c.solver.InverseKinematics(ctx, goal, seed)
}

// StartJog begins a continuous Cartesian jog session.
func (c *Console) StartJog(req motion.Request) (uuid.UUID, error) {
	return c.jog.Start(req)
}

// StopJog ends the active jog session.
func (c *Console) StopJog() error {
	return c.jog.Stop()
}

// MoveTo starts an interpolated joint-space move to the target vector,
// clamped into the same joint limits the solver enforces.
func (c *Console) MoveTo(target []referenceframe.Input, speedPercent float64) (uuid.UUID, error) {
	if len(target) != referenceframe.NumJoints {
		return uuid.Nil, errors.Errorf("target vector must have %d elements, got %d", referenceframe.NumJoints, len(target))
	}
	clamped := make([]referenceframe.Input, len(target))
	copy(clamped, target)
	for i := range clamped {
		if i < len(c.limits) {
			clamped[i] = referenceframe.Input{Value: utils.Clamp(clamped[i].Value, c.limits[i].Min, c.limits[i].Max)}
		}
	}
	return c.interp.MoveTo(clamped, speedPercent)
}

// MoveToNamed starts a move to a configured named pose such as "safety".
func (c *Console) MoveToNamed(name string, speedPercent float64) (uuid.UUID, error) {
	target, ok := c.poses[name]
	if !ok {
		return uuid.Nil, errors.Wrap(ErrUnknownPose, name)
	}
	return c.MoveTo(target, speedPercent)
}

// MoveToSafety starts a move to the configured safety pose at full speed.
func (c *Console) MoveToSafety() (uuid.UUID, error) {
	return c.MoveToNamed("safety", 100)
}

// MoveToStandby starts a move to the configured standby (all-zero) pose at
// full speed.
func (c *Console) MoveToStandby() (uuid.UUID, error) {
	return c.MoveToNamed("standby", 100)
}

// StopMove ends the active interpolated move before it reaches its target.
func (c *Console) StopMove() error {
	return c.interp.Stop()
}

// Home asks the controller to run its homing sequence. The arm is marked
// un-homed until the controller reports completion (or the operator confirms
// manually via ConfirmHomed).
func (c *Console) Home(ctx context.Context) error {
	if c.store.Moving() {
		return motion.ErrMotionActive
	}
	c.store.SetHomed(false)
	c.logger.Info("homing sequence requested")
	return c.link.SendCommand(ctx, transport.CommandHome)
}

// ConfirmHomed marks the arm homed, unlocking motion. Called from the
// controller's homing-complete event or by the operator.
func (c *Console) ConfirmHomed() {
	c.store.SetHomed(true)
	c.logger.Info("arm homed")
}

// HandleEStop reacts to the controller's emergency stop events. A trigger
// halts any active session and un-homes the arm; motion stays refused until
// the arm is homed again.
func (c *Console) HandleEStop(triggered bool) {
	if !triggered {
		c.logger.Info("emergency stop released")
		return
	}
	c.logger.Error("emergency stop triggered")
	if err := c.jog.Stop(); err != nil && !errors.Is(err, motion.ErrNoSession) {
		c.logger.Warnw("failed to stop jog after e-stop", "error", err)
	}
	if err := c.interp.Stop(); err != nil && !errors.Is(err, motion.ErrNoSession) {
		c.logger.Warnw("failed to stop move after e-stop", "error", err)
	}
	c.store.SetHomed(false)
}

// ClearEStop asks the controller to leave the emergency stop state.
func (c *Console) ClearEStop(ctx context.Context) error {
	return c.link.SendCommand(ctx, transport.CommandEStopOff)
}

// OpenGripper opens the electric gripper.
func (c *Console) OpenGripper(ctx context.Context) error {
	return c.link.SendCommand(ctx, transport.CommandGripperOpen)
}

// CloseGripper closes the electric gripper.
func (c *Console) CloseGripper(ctx context.Context) error {
	return c.link.SendCommand(ctx, transport.CommandGripperClose)
}

// SetVacuum switches the pneumatic gripper's vacuum on or off.
func (c *Console) SetVacuum(ctx context.Context, on bool) error {
	if on {
		return c.link.SendCommand(ctx, transport.CommandVacuumOn)
	}
	return c.link.SendCommand(ctx, transport.CommandVacuumOff)
}

// OnFeedback records one hardware position report, J1..J6 in degrees.
func (c *Console) OnFeedback(degrees []float64) {
	c.feedback.OnFeedback(degrees)
}

// SetDisplayListener registers the function called, debounced, after
// feedback updates.
func (c *Console) SetDisplayListener(listener func()) {
	c.feedback.SetDisplayListener(listener)
}

// Close stops any active motion session. The link is owned by the caller and
// closed separately.
func (c *Console) Close() error {
	if err := c.jog.Stop(); err != nil && !errors.Is(err, motion.ErrNoSession) {
		return err
	}
	if err := c.interp.Stop(); err != nil && !errors.Is(err, motion.ErrNoSession) {
		return err
	}
	return nil
}

// DisplayState snapshots the console for rendering. The TCP pose is computed
// from the commanded vector.
func (c *Console) DisplayState() DisplayState {
	commanded := c.store.Commanded()
	pose, _ := c.solver.ForwardKinematics(commanded)
	return DisplayState{
		CommandedDegrees: utils.RadiansToDegrees(referenceframe.InputsToFloats(commanded)),
		FeedbackDegrees:  utils.RadiansToDegrees(referenceframe.InputsToFloats(c.store.Feedback())),
		TCPPose:          pose,
		Tool:             c.solver.Tool().Name(),
		Homed:            c.store.Homed(),
		Moving:           c.store.Moving(),
		Degraded:         c.solver.Model().Degraded(),
	}
}
