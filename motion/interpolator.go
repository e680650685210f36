package motion

import (
	"context"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/parol6/console/logging"
	"github.com/parol6/console/referenceframe"
	"github.com/parol6/console/utils"
)

// Interpolator tuning. The step cap is per tick at 100% speed.
const (
	maxInterpStep = 0.075 // rad
	snapTolerance = 0.005 // rad, joint-space Euclidean distance
)

// Interpolator runs bounded point-to-point joint-space moves. Each tick steps
// the commanded vector along the straight joint-space line toward the target,
// never overshooting; within the snap tolerance it lands exactly on target
// and the session ends on its own.
type Interpolator struct {
	store  *Store
	sink   Sink
	clk    clock.Clock
	logger logging.Logger

	mu      sync.Mutex
	session *moveSession
}

type moveSession struct {
	id      uuid.UUID
	workers utils.StoppableWorkers
	done    chan struct{}
}

// NewInterpolator wires an interpolator to its collaborators.
func NewInterpolator(store *Store, sink Sink, clk clock.Clock, logger logging.Logger) *Interpolator {
	return &Interpolator{store: store, sink: sink, clk: clk, logger: logger}
}

// MoveTo starts a move toward the target joint vector and returns the session
// id. The session ends itself when the target is reached; Stop ends it early.
// Mutual exclusion with jogging goes through the store: a second motion
// session is refused with ErrMotionActive.
func (in *Interpolator) MoveTo(target []referenceframe.Input, speedPercent float64) (uuid.UUID, error) {
	if len(target) != referenceframe.NumJoints {
		return uuid.Nil, errors.Errorf("target vector must have %d elements, got %d", referenceframe.NumJoints, len(target))
	}
	speedPercent = utils.Clamp(speedPercent, 10, 100)

	in.mu.Lock()
	defer in.mu.Unlock()
	if in.session != nil {
		select {
		case <-in.session.done:
			in.session = nil
		default:
			return uuid.Nil, ErrMotionActive
		}
	}
	if err := in.store.BeginMotion(); err != nil {
		return uuid.Nil, err
	}

	goal := make([]referenceframe.Input, len(target))
	copy(goal, target)
	id := uuid.New()
	done := make(chan struct{})
	in.logger.Infow("move session started", "id", id, "speed", speedPercent)
	in.session = &moveSession{
		id:   id,
		done: done,
		workers: utils.NewStoppableWorkers(func(ctx context.Context) {
			defer close(done)
			defer in.store.EndMotion()
			in.run(ctx, goal, maxInterpStep*speedPercent/100)
			in.logger.Infow("move session finished", "id", id)
		}),
	}
	return id, nil
}

// Stop ends the active move before it reaches its target. Stopping an
// already-finished session is not an error.
func (in *Interpolator) Stop() error {
	in.mu.Lock()
	session := in.session
	in.session = nil
	in.mu.Unlock()
	if session == nil {
		return ErrNoSession
	}
	session.workers.Stop()
	return nil
}

// Done returns a channel closed when the current session finishes, or nil if
// no session is active.
func (in *Interpolator) Done() <-chan struct{} {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.session == nil {
		return nil
	}
	return in.session.done
}

func (in *Interpolator) run(ctx context.Context, target []referenceframe.Input, maxStep float64) {
	for {
		start := in.clk.Now()
		if ctx.Err() != nil {
			return
		}

		next, reached := stepToward(in.store.Commanded(), target, maxStep)
		in.store.SetCommanded(next)
		if err := in.sink.SendJointDegrees(ctx, utils.RadiansToDegrees(referenceframe.InputsToFloats(next))); err != nil {
			in.logger.Warnw("failed to send move step", "error", err)
		}
		if reached {
			return
		}

		wait := tickPeriod - in.clk.Now().Sub(start)
		if wait < minTickSleep {
			wait = minTickSleep
		}
		if !utils.SelectContextOrWait(ctx, in.clk, wait) {
			return
		}
	}
}

// stepToward advances current along the joint-space line to target by at most
// maxStep, snapping exactly onto target once within the snap tolerance. The
// remaining distance is non-increasing and the step never overshoots.
func stepToward(current, target []referenceframe.Input, maxStep float64) ([]referenceframe.Input, bool) {
	dist := referenceframe.InputsL2Distance(current, target)
	if dist <= snapTolerance || dist <= maxStep {
		snapped := make([]referenceframe.Input, len(target))
		copy(snapped, target)
		return snapped, true
	}
	scale := maxStep / dist
	next := make([]referenceframe.Input, len(current))
	for i := range current {
		next[i] = referenceframe.Input{Value: current[i].Value + scale*(target[i].Value-current[i].Value)}
	}
	return next, false
}
