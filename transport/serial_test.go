package transport

import (
	"testing"

	"go.viam.com/test"

	"github.com/parol6/console/logging"
)

func TestDispatch(t *testing.T) {
	var feedback []float64
	var homed bool
	var estop []bool
	var unknown []string
	l := &SerialLink{
		handlers: Handlers{
			OnFeedback:       func(degrees []float64) { feedback = degrees },
			OnHomingComplete: func() { homed = true },
			OnEStop:          func(triggered bool) { estop = append(estop, triggered) },
			OnUnknownLine:    func(line string) { unknown = append(unknown, line) },
		},
		logger: logging.NewTestLogger(t),
	}

	l.dispatch("A_1.5_-2_0_0_0_90")
	test.That(t, feedback, test.ShouldResemble, []float64{1.5, -2, 0, 0, 0, 90})

	// Malformed feedback is dropped, not handed to the unknown-line handler.
	l.dispatch("A_1_2_3")
	test.That(t, feedback, test.ShouldResemble, []float64{1.5, -2, 0, 0, 0, 90})

	l.dispatch(EventHomingComplete)
	test.That(t, homed, test.ShouldBeTrue)

	l.dispatch(EventEStopTriggered)
	l.dispatch(EventEStopReleased)
	test.That(t, estop, test.ShouldResemble, []bool{true, false})

	// Both release spellings clear the latch; neither is an unknown line.
	l.dispatch(EventEStopOff)
	test.That(t, estop, test.ShouldResemble, []bool{true, false, false})

	l.dispatch("ERROR_27")
	test.That(t, unknown, test.ShouldResemble, []string{"ERROR_27"})
}
