package kinematics

import (
	"context"
	"sync/atomic"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/parol6/console/logging"
	"github.com/parol6/console/referenceframe"
	"github.com/parol6/console/spatialmath"
	"github.com/parol6/console/utils"
)

// Solver tuning. Tolerances are the L2 norm of the 6-vector residual, meters
// and radians mixed.
const (
	maxIterations = 20
	solveTol      = 1e-3
	approxTol     = 1e-2
	jacobianStep  = 1e-4
	dlsLambda     = 0.05
	maxStepNorm   = 0.5
)

// ErrDegradedModel is returned when solving is requested against the null
// fallback chain.
var ErrDegradedModel = errors.New("kinematic chain is degraded; no model information loaded")

// SolveStatus classifies the quality of an inverse kinematics solution.
type SolveStatus int

// The three solution classes, by final residual norm.
const (
	StatusConverged SolveStatus = iota
	StatusApproximate
	StatusFailed
)

func (s SolveStatus) String() string {
	switch s {
	case StatusConverged:
		return "converged"
	case StatusApproximate:
		return "approximate"
	case StatusFailed:
		return "failed"
	}
	return "unknown"
}

// Result is the outcome of an inverse kinematics solve. Joints is the reduced
// joint vector, normalized into (-pi, pi] and clamped into the joint limits;
// it is populated even for approximate solutions so callers can decide
// whether the residual is acceptable.
type Result struct {
	Joints   []referenceframe.Input
	Residual float64
	Status   SolveStatus
}

// Solver computes forward and inverse kinematics for one chain. The attached
// tool may be swapped concurrently with solves.
type Solver struct {
	model  referenceframe.Model
	limits []referenceframe.Limit
	logger logging.Logger
	tool   atomic.Pointer[Tool]
}

// NewSolver wraps a chain model. If limits is nil the model's own limits are
// used; a non-nil override must cover every movable joint. The solver starts
// with no tool attached.
func NewSolver(model referenceframe.Model, limits []referenceframe.Limit, logger logging.Logger) (*Solver, error) {
	if limits == nil {
		limits = model.DoF()
	}
	if len(limits) < len(model.DoF()) {
		return nil, errors.Errorf("limit override has %d entries, chain has %d movable joints", len(limits), len(model.DoF()))
	}
	s := &Solver{model: model, limits: limits, logger: logger}
	s.tool.Store(ToolNone())
	return s, nil
}

// Model returns the underlying chain.
func (s *Solver) Model() referenceframe.Model {
	return s.model
}

// Tool returns the currently attached tool.
func (s *Solver) Tool() *Tool {
	return s.tool.Load()
}

// SetTool attaches a tool frame; nil detaches back to the identity tool.
func (s *Solver) SetTool(t *Tool) {
	if t == nil {
		t = ToolNone()
	}
	s.tool.Store(t)
	s.logger.Debugw("tool attached", "tool", t.Name())
}

// ForwardKinematics returns the tool center point pose for a reduced joint
// vector. Out-of-bounds joint values still produce a pose, with an error
// describing each violation.
func (s *Solver) ForwardKinematics(joints []referenceframe.Input) (spatialmath.Pose, error) {
	full, err := s.model.Expand(joints)
	if err != nil {
		return nil, err
	}
	flange, err := s.model.TransformFull(full)
	if flange == nil {
		return nil, err
	}
	return spatialmath.Compose(flange, s.Tool().Pose()), err
}

// InverseKinematics solves for the reduced joint vector that places the tool
// center point at goal, iterating damped least squares from seed. Solution
// quality is reported through Result.Status rather than an error; the error
// return covers structural problems only (degraded chain, bad seed length,
// cancellation).
func (s *Solver) InverseKinematics(ctx context.Context, goal spatialmath.Pose, seed []referenceframe.Input) (Result, error) {
	if s.model.Degraded() || len(s.model.DoF()) == 0 {
		// Degraded chains still hand back a complete zero vector so the rest
		// of the console keeps running; Status makes the failure explicit.
		return Result{Joints: make([]referenceframe.Input, referenceframe.NumJoints), Status: StatusFailed}, ErrDegradedModel
	}

	// The solver works on the flange; undo the tool transform once up front.
	flangeGoal := spatialmath.Compose(goal, spatialmath.PoseInverse(s.Tool().Pose()))

	full, err := s.model.Expand(seed)
	if err != nil {
		return Result{Status: StatusFailed}, err
	}
	active := activeIndices(s.model.Mask())
	nJoints := len(active)

	jac := mat.NewDense(6, nJoints, nil)
	residual := make([]float64, 6)
	bestNorm := 0.0

	for iter := 0; iter < maxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return Result{Status: StatusFailed}, err
		}

		current, err := s.model.TransformFull(full)
		if current == nil {
			return Result{Status: StatusFailed}, err
		}
		poseResidual(current, flangeGoal, residual)
		bestNorm = floats.Norm(residual, 2)
		if bestNorm < solveTol {
			break
		}

		if err := s.numericJacobian(full, active, jac); err != nil {
			return Result{Status: StatusFailed}, err
		}

		// dq = Jt (J Jt + lambda^2 I)^-1 y
		var jjt mat.Dense
		jjt.Mul(jac, jac.T())
		for i := 0; i < 6; i++ {
			jjt.Set(i, i, jjt.At(i, i)+dlsLambda*dlsLambda)
		}
		var x mat.VecDense
		if err := x.SolveVec(&jjt, mat.NewVecDense(6, residual)); err != nil {
			return Result{Status: StatusFailed}, errors.Wrap(err, "damped normal equations are singular")
		}
		var dq mat.VecDense
		dq.MulVec(jac.T(), &x)
		if norm := mat.Norm(&dq, 2); norm > maxStepNorm {
			dq.ScaleVec(maxStepNorm/norm, &dq)
		}

		for j, idx := range active {
			limit := s.limits[j]
			full[idx] = referenceframe.Input{Value: utils.Clamp(full[idx].Value+dq.AtVec(j), limit.Min, limit.Max)}
		}
	}

	if bestNorm >= solveTol {
		// The loop measures the residual before stepping; fold in the last step.
		if final, _ := s.model.TransformFull(full); final != nil {
			poseResidual(final, flangeGoal, residual)
			bestNorm = floats.Norm(residual, 2)
		}
	}

	joints := referenceframe.NormalizeInputs(s.model.Compress(full))
	for j := range active {
		if j < len(joints) {
			joints[j] = referenceframe.Input{Value: utils.Clamp(joints[j].Value, s.limits[j].Min, s.limits[j].Max)}
		}
	}

	status := StatusFailed
	switch {
	case bestNorm < solveTol:
		status = StatusConverged
	case bestNorm < approxTol:
		status = StatusApproximate
	}
	if status == StatusFailed {
		s.logger.Debugw("inverse kinematics did not converge", "residual", bestNorm)
	}
	return Result{Joints: joints, Residual: bestNorm, Status: status}, nil
}

// numericJacobian fills jac with the central-difference derivative of the
// flange pose with respect to each active joint.
func (s *Solver) numericJacobian(full []referenceframe.Input, active []int, jac *mat.Dense) error {
	col := make([]float64, 6)
	for j, idx := range active {
		orig := full[idx].Value

		full[idx] = referenceframe.Input{Value: orig + jacobianStep}
		plus, err := s.model.TransformFull(full)
		if plus == nil {
			full[idx] = referenceframe.Input{Value: orig}
			return err
		}
		full[idx] = referenceframe.Input{Value: orig - jacobianStep}
		minus, err := s.model.TransformFull(full)
		if minus == nil {
			full[idx] = referenceframe.Input{Value: orig}
			return err
		}
		full[idx] = referenceframe.Input{Value: orig}

		poseResidual(minus, plus, col)
		for r := 0; r < 6; r++ {
			jac.Set(r, j, col[r]/(2*jacobianStep))
		}
	}
	return nil
}

// poseResidual writes the 6-vector taking current to goal into out: position
// difference in meters followed by the rotation vector in radians.
func poseResidual(current, goal spatialmath.Pose, out []float64) {
	delta := spatialmath.PoseDelta(current, goal)
	pt := delta.Point()
	rv := spatialmath.QuatToR3AA(delta.Orientation().Quaternion())
	out[0], out[1], out[2] = pt.X, pt.Y, pt.Z
	out[3], out[4], out[5] = rv.X, rv.Y, rv.Z
}

func activeIndices(mask []bool) []int {
	idx := make([]int, 0, referenceframe.NumJoints)
	for i, on := range mask {
		if on {
			idx = append(idx, i)
			if len(idx) == referenceframe.NumJoints {
				break
			}
		}
	}
	return idx
}
