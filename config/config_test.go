package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"go.viam.com/test"

	"github.com/parol6/console/referenceframe"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := DefaultConfig()
	test.That(t, cfg.Validate(), test.ShouldBeNil)
	test.That(t, cfg.JointLimits(), test.ShouldHaveLength, referenceframe.NumJoints)
	test.That(t, cfg.JointLimits()[0].Min, test.ShouldAlmostEqual, -math.Pi/2)
	test.That(t, cfg.MotionWorkspace().XMax, test.ShouldEqual, 0.7)

	poses := cfg.NamedPoses()
	test.That(t, poses, test.ShouldContainKey, "safety")
	test.That(t, poses["safety"][3].Value, test.ShouldAlmostEqual, math.Pi/2)
}

func TestLoadLayersOverDefaults(t *testing.T) {
	t.Setenv("ARM_PORT", "/dev/ttyUSB7")
	path := filepath.Join(t.TempDir(), "console.json")
	data := `{
		"serial": {"port": "${ARM_PORT}", "baud_rate": 115200},
		"default_tool": "welder",
		"tools": [
			{"name": "welder", "translation_m": [0, 0.02, -0.15], "rotation_deg": [0, -90, 0]}
		]
	}`
	test.That(t, os.WriteFile(path, []byte(data), 0o600), test.ShouldBeNil)

	cfg, err := Load(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.Serial.Port, test.ShouldEqual, "/dev/ttyUSB7")
	// Untouched sections keep their defaults.
	test.That(t, cfg.JointLimitsDegrees, test.ShouldHaveLength, referenceframe.NumJoints)
	test.That(t, cfg.Workspace.ZMin, test.ShouldEqual, -0.3)

	catalog := cfg.ToolCatalog()
	welder, err := catalog.Lookup("welder")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, welder.Pose().Point().Z, test.ShouldEqual, -0.15)
	// Built-ins survive alongside configured tools.
	_, err = catalog.Lookup("small")
	test.That(t, err, test.ShouldBeNil)
}

func TestValidateAccumulatesErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Serial.Port = ""
	cfg.Serial.BaudRate = 0
	cfg.JointLimitsDegrees[2] = [2]float64{50, -50}
	cfg.DefaultTool = "missing"
	cfg.NamedPosesDegrees["short"] = []float64{1, 2}

	err := cfg.Validate()
	test.That(t, err, test.ShouldNotBeNil)
	for _, fragment := range []string{"serial.port", "baud_rate", "joint 3", "default_tool", "short"} {
		test.That(t, err.Error(), test.ShouldContainSubstring, fragment)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	test.That(t, err, test.ShouldNotBeNil)
}
