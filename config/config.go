// Package config loads and validates the console configuration. Files are
// JSON with environment-variable substitution, layered over the defaults for
// the stock arm.
package config

import (
	"encoding/json"

	"github.com/a8m/envsubst"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/parol6/console/kinematics"
	"github.com/parol6/console/motion"
	"github.com/parol6/console/referenceframe"
	"github.com/parol6/console/utils"
)

// SerialConfig locates the arm controller.
type SerialConfig struct {
	Port     string `json:"port"`
	BaudRate int    `json:"baud_rate"`
}

// WorkspaceConfig is the TCP bounding box, meters.
type WorkspaceConfig struct {
	XMin float64 `json:"x_min"`
	XMax float64 `json:"x_max"`
	YMin float64 `json:"y_min"`
	YMax float64 `json:"y_max"`
	ZMin float64 `json:"z_min"`
	ZMax float64 `json:"z_max"`
}

// ToolConfig is one catalog entry: translation in meters and an intrinsic
// X-Y-Z Euler rotation in degrees, both flange-relative.
type ToolConfig struct {
	Name            string     `json:"name"`
	Translation     [3]float64 `json:"translation_m"`
	RotationDegrees [3]float64 `json:"rotation_deg"`
}

// Config is the full console configuration.
type Config struct {
	Serial             SerialConfig         `json:"serial"`
	URDFPath           string               `json:"urdf_path"`
	JointLimitsDegrees [][2]float64         `json:"joint_limits_degrees"`
	Workspace          WorkspaceConfig      `json:"workspace"`
	DefaultTool        string               `json:"default_tool"`
	Tools              []ToolConfig         `json:"tools"`
	NamedPosesDegrees  map[string][]float64 `json:"named_poses_degrees"`
}

// DefaultConfig returns the configuration for the stock arm.
func DefaultConfig() *Config {
	return &Config{
		Serial: SerialConfig{Port: "/dev/ttyACM0", BaudRate: 115200},
		JointLimitsDegrees: [][2]float64{
			{-90, 90}, {-50, 140}, {-100, 70}, {-100, 180}, {-120, 110}, {-110, 180},
		},
		Workspace:   WorkspaceConfig{XMin: -0.7, XMax: 0.7, YMin: -0.7, YMax: 0.7, ZMin: -0.3, ZMax: 0.9},
		DefaultTool: "none",
		NamedPosesDegrees: map[string][]float64{
			"safety":  {0, -50, 70, 90, 0, 0},
			"standby": {0, 0, 0, 0, 0, 0},
		},
	}
}

// Load reads a JSON config file, substituting ${VAR} environment references,
// and layers it over the defaults. The result is validated.
func Load(path string) (*Config, error) {
	data, err := envsubst.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read config %q", path)
	}
	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate accumulates every problem in the configuration rather than
// stopping at the first.
func (c *Config) Validate() error {
	var errAll error
	if c.Serial.Port == "" {
		multierr.AppendInto(&errAll, errors.New("serial.port must be set"))
	}
	if c.Serial.BaudRate <= 0 {
		multierr.AppendInto(&errAll, errors.Errorf("serial.baud_rate must be positive, got %d", c.Serial.BaudRate))
	}
	if len(c.JointLimitsDegrees) != referenceframe.NumJoints {
		multierr.AppendInto(&errAll, errors.Errorf("joint_limits_degrees must have %d pairs, got %d", referenceframe.NumJoints, len(c.JointLimitsDegrees)))
	}
	for i, pair := range c.JointLimitsDegrees {
		if pair[0] >= pair[1] {
			multierr.AppendInto(&errAll, errors.Errorf("joint %d limits are inverted: [%v, %v]", i+1, pair[0], pair[1]))
		}
	}
	if c.Workspace.XMin >= c.Workspace.XMax || c.Workspace.YMin >= c.Workspace.YMax || c.Workspace.ZMin >= c.Workspace.ZMax {
		multierr.AppendInto(&errAll, errors.New("workspace bounds are inverted"))
	}
	if _, err := c.ToolCatalog().Lookup(c.DefaultTool); err != nil {
		multierr.AppendInto(&errAll, errors.Errorf("default_tool %q is not in the tool catalog", c.DefaultTool))
	}
	for name, pose := range c.NamedPosesDegrees {
		if len(pose) != referenceframe.NumJoints {
			multierr.AppendInto(&errAll, errors.Errorf("named pose %q must have %d values, got %d", name, referenceframe.NumJoints, len(pose)))
		}
	}
	return errAll
}

// JointLimits converts the configured per-joint limits to radians.
func (c *Config) JointLimits() []referenceframe.Limit {
	limits := make([]referenceframe.Limit, len(c.JointLimitsDegrees))
	for i, pair := range c.JointLimitsDegrees {
		limits[i] = referenceframe.Limit{Min: utils.DegToRad(pair[0]), Max: utils.DegToRad(pair[1])}
	}
	return limits
}

// MotionWorkspace converts the configured box to the motion package's type.
func (c *Config) MotionWorkspace() motion.Workspace {
	return motion.Workspace{
		XMin: c.Workspace.XMin, XMax: c.Workspace.XMax,
		YMin: c.Workspace.YMin, YMax: c.Workspace.YMax,
		ZMin: c.Workspace.ZMin, ZMax: c.Workspace.ZMax,
	}
}

// ToolCatalog returns the built-in catalog extended with any configured
// tools. A configured tool with a built-in name replaces it.
func (c *Config) ToolCatalog() kinematics.Catalog {
	catalog := kinematics.DefaultCatalog()
	for _, tc := range c.Tools {
		tool := kinematics.NewTool(
			tc.Name,
			r3.Vector{X: tc.Translation[0], Y: tc.Translation[1], Z: tc.Translation[2]},
			tc.RotationDegrees[0], tc.RotationDegrees[1], tc.RotationDegrees[2],
		)
		catalog[tool.Name()] = tool
	}
	return catalog
}

// NamedPoses converts the configured poses to radians.
func (c *Config) NamedPoses() map[string][]referenceframe.Input {
	poses := make(map[string][]referenceframe.Input, len(c.NamedPosesDegrees))
	for name, degrees := range c.NamedPosesDegrees {
		poses[name] = referenceframe.FloatsToInputs(utils.DegreesToRadians(degrees))
	}
	return poses
}
