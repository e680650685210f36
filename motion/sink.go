package motion

import "context"

// Sink receives the joint vectors accepted by a control loop, one per tick,
// in fixed J1..J6 order and in degrees. The serial transport implements it;
// tests substitute a recorder.
type Sink interface {
	SendJointDegrees(ctx context.Context, degrees []float64) error
}
