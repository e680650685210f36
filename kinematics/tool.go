// Package kinematics computes forward and inverse kinematics for a single
// kinematic chain, with an attachable tool frame composed onto the flange.
package kinematics

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/parol6/console/spatialmath"
	"github.com/parol6/console/utils"
)

// ErrUnknownTool is returned when a tool name is not present in the catalog.
var ErrUnknownTool = errors.New("unknown tool")

// Tool is a rigid transform from the flange to the tool center point.
type Tool struct {
	name string
	pose spatialmath.Pose
}

// NewTool builds a tool frame from a flange-relative translation in meters
// and an intrinsic X-Y-Z Euler rotation in degrees, the convention tool
// offsets are calibrated in.
func NewTool(name string, translation r3.Vector, rollDeg, pitchDeg, yawDeg float64) *Tool {
	ea := &spatialmath.EulerAngles{
		Roll:  utils.DegToRad(rollDeg),
		Pitch: utils.DegToRad(pitchDeg),
		Yaw:   utils.DegToRad(yawDeg),
	}
	return &Tool{
		name: name,
		pose: spatialmath.NewPose(translation, ea),
	}
}

// ToolNone is the identity tool; the tool center point coincides with the
// flange.
func ToolNone() *Tool {
	return &Tool{name: "none", pose: spatialmath.NewZeroPose()}
}

// Name returns the catalog name of the tool.
func (t *Tool) Name() string {
	return t.name
}

// Pose returns the flange-to-TCP transform.
func (t *Tool) Pose() spatialmath.Pose {
	return t.pose
}

// Catalog maps tool names to their calibrated frames.
type Catalog map[string]*Tool

// DefaultCatalog returns the tools shipped with the arm. Offsets are the
// factory calibration values for the two stock grippers.
func DefaultCatalog() Catalog {
	tools := []*Tool{
		ToolNone(),
		NewTool("small", r3.Vector{X: 0.100, Y: 0, Z: -0.090}, 0, -180, 0),
		NewTool("large", r3.Vector{X: 0, Y: 0, Z: -0.18831}, 0, -90, 0),
	}
	catalog := make(Catalog, len(tools))
	for _, tool := range tools {
		catalog[tool.Name()] = tool
	}
	return catalog
}

// Lookup returns the named tool, or ErrUnknownTool.
func (c Catalog) Lookup(name string) (*Tool, error) {
	tool, ok := c[name]
	if !ok {
		return nil, errors.Wrap(ErrUnknownTool, name)
	}
	return tool, nil
}

// Names returns the catalog's tool names in no particular order.
func (c Catalog) Names() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	return names
}
