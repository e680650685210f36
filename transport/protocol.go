// Package transport speaks the arm controller's line protocol over a serial
// port. Commands and feedback both carry joint angles in degrees.
package transport

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/parol6/console/referenceframe"
)

// Command lines sent to the controller.
const (
	jointCommandPrefix = "J_"
	CommandHome        = "HOME"
	CommandEStopOff    = "ESTOP_OFF"

	CommandGripperOpen  = "EGRIP_OPEN"
	CommandGripperClose = "EGRIP_CLOSE"
	CommandVacuumOn     = "VAC_ON"
	CommandVacuumOff    = "VAC_OFF"
)

// Lines received from the controller.
const (
	feedbackPrefix      = "A_"
	EventHomingComplete = "HOMING_COMPLETE_OK"
	EventEStopTriggered = "ESTOP_TRIGGER"
	EventEStopReleased  = "ESTOP_RELEASE"
	// Some controller revisions echo the release as ESTOP_OFF instead.
	EventEStopOff = "ESTOP_OFF"
)

// EncodeJointCommand formats a joint command line, J1..J6 in degrees with two
// decimal places, newline terminated.
func EncodeJointCommand(degrees []float64) (string, error) {
	if len(degrees) != referenceframe.NumJoints {
		return "", errors.Errorf("joint command must have %d values, got %d", referenceframe.NumJoints, len(degrees))
	}
	var b strings.Builder
	b.WriteString(jointCommandPrefix)
	for i, d := range degrees {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%.2f", d)
	}
	b.WriteByte('\n')
	return b.String(), nil
}

// IsFeedbackLine reports whether a received line is a position report.
func IsFeedbackLine(line string) bool {
	return strings.HasPrefix(line, feedbackPrefix)
}

// ParseFeedbackLine parses a position report of the form
// "A_<j1>_<j2>_<j3>_<j4>_<j5>_<j6>", values in degrees.
func ParseFeedbackLine(line string) ([]float64, error) {
	if !IsFeedbackLine(line) {
		return nil, errors.Errorf("not a feedback line: %q", line)
	}
	fields := strings.Split(strings.TrimPrefix(line, feedbackPrefix), "_")
	if len(fields) != referenceframe.NumJoints {
		return nil, errors.Errorf("feedback line has %d values, want %d", len(fields), referenceframe.NumJoints)
	}
	degrees := make([]float64, len(fields))
	for i, field := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return nil, errors.Wrapf(err, "feedback value %d", i+1)
		}
		degrees[i] = v
	}
	return degrees, nil
}
