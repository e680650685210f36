package motion

import (
	"math"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/parol6/console/referenceframe"
)

// Feedback reconciliation tuning. Feedback is laggier and noisier than the
// locally computed command stream, so it only resynchronizes the commanded
// vector outside the cooldown window and past the deadband.
const (
	feedbackCooldown = 1500 * time.Millisecond
	feedbackDeadband = 0.5 * math.Pi / 180
)

// Store is the single shared record of joint state. The commanded vector is
// the sole authority for what is sent to hardware; the feedback vector is
// display and reconciliation input only. All controllers go through the
// accessor methods, and exactly one motion session may be active at a time.
type Store struct {
	mu            sync.RWMutex
	clk           clock.Clock
	commanded     []referenceframe.Input
	feedback      []referenceframe.Input
	lastMotionEnd time.Time
	moving        bool
	homed         bool
}

// NewStore creates a store with zero joint vectors. The clock is injectable
// so the cooldown window can be tested deterministically.
func NewStore(clk clock.Clock) *Store {
	return &Store{
		clk:       clk,
		commanded: make([]referenceframe.Input, referenceframe.NumJoints),
		feedback:  make([]referenceframe.Input, referenceframe.NumJoints),
	}
}

// Commanded returns a copy of the commanded joint vector, radians.
func (s *Store) Commanded() []referenceframe.Input {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]referenceframe.Input, len(s.commanded))
	copy(out, s.commanded)
	return out
}

// SetCommanded replaces the commanded joint vector. Vectors of the wrong
// length are dropped; a partial update is never stored.
func (s *Store) SetCommanded(joints []referenceframe.Input) {
	if len(joints) != referenceframe.NumJoints {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	copy(s.commanded, joints)
}

// Feedback returns a copy of the last hardware feedback vector, radians.
func (s *Store) Feedback() []referenceframe.Input {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]referenceframe.Input, len(s.feedback))
	copy(out, s.feedback)
	return out
}

// Homed reports whether the arm has completed homing.
func (s *Store) Homed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.homed
}

// SetHomed records the homing state. Un-homing (e.g. on e-stop) gates all
// further motion until the arm is homed again.
func (s *Store) SetHomed(homed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.homed = homed
}

// Moving reports whether a motion session currently holds the store.
func (s *Store) Moving() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.moving
}

// BeginMotion claims the store for one motion session. A second session is
// refused, not queued, and motion before homing is refused outright.
func (s *Store) BeginMotion() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.homed {
		return ErrNotHomed
	}
	if s.moving {
		return ErrMotionActive
	}
	s.moving = true
	return nil
}

// EndMotion releases the store and starts the feedback cooldown window.
func (s *Store) EndMotion() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.moving = false
	s.lastMotionEnd = s.clk.Now()
}

// ApplyFeedback records a hardware feedback vector and, outside the motion
// cooldown window, resynchronizes any commanded joint that has diverged from
// feedback by more than the deadband. It returns the indices of the joints
// that were resynchronized. Feedback arriving while motion is active, or
// within the cooldown after it ends, is recorded for display only.
func (s *Store) ApplyFeedback(joints []referenceframe.Input) []int {
	if len(joints) != referenceframe.NumJoints {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	copy(s.feedback, joints)

	if s.moving || s.clk.Now().Sub(s.lastMotionEnd) < feedbackCooldown {
		return nil
	}
	var resynced []int
	for i, fb := range joints {
		if math.Abs(fb.Value-s.commanded[i].Value) > feedbackDeadband {
			s.commanded[i] = fb
			resynced = append(resynced, i)
		}
	}
	return resynced
}
