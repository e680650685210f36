// Package motion drives the arm: a shared joint state store, a continuous
// Cartesian jog loop, a bounded point-to-point interpolator, and the
// reconciler that merges asynchronous hardware feedback.
package motion

import "github.com/pkg/errors"

var (
	// ErrNotHomed is returned when motion is requested before the arm has
	// completed homing. This is the one precondition surfaced to the operator.
	ErrNotHomed = errors.New("arm is not homed; home the arm before moving")

	// ErrMotionActive is returned when a second motion session is requested
	// while one is already running. Sessions are refused, never queued.
	ErrMotionActive = errors.New("another motion session is already active")

	// ErrNoSession is returned when stopping a session that is not running.
	ErrNoSession = errors.New("no active motion session")
)
