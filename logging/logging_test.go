package logging

import (
	"testing"

	"go.viam.com/test"
)

func TestLoggerConstruction(t *testing.T) {
	logger := NewTestLogger(t)
	test.That(t, logger, test.ShouldNotBeNil)
	test.That(t, logger.Sugared(), test.ShouldNotBeNil)

	sub := logger.Sublogger("kinematics")
	test.That(t, sub, test.ShouldNotBeNil)
	sub.Debugw("solver ready", "dof", 6)
	sub.Infof("tool %q attached", "small")
}
