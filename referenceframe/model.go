package referenceframe

import (
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/parol6/console/spatialmath"
	"github.com/parol6/console/utils"
)

// ErrNoModelInformation is returned when a chain description holds nothing
// actionable.
var ErrNoModelInformation = errors.New("no model information found in data")

// ErrBadReducedLength is returned when a reduced joint vector is not exactly
// NumJoints long. Earlier revisions of the console silently dropped the first
// element of 7-long vectors; that shim is retired and wrong lengths are now a
// caller error.
var ErrBadReducedLength = errors.Errorf("reduced joint vector must have exactly %d elements", NumJoints)

// Model is a complete kinematic chain. Alongside forward kinematics over the
// reduced joint vector it exposes the active-joint mask mapping between the
// reduced vector and the full per-link vector.
type Model interface {
	Frame

	// Mask returns one boolean per link in the chain, true where the link is
	// a movable joint.
	Mask() []bool

	// Expand scatters a reduced joint vector into a full per-link vector,
	// leaving fixed links zero. The reduced vector must be exactly NumJoints
	// long.
	Expand(reduced []Input) ([]Input, error)

	// Compress gathers the active-link values of a full per-link vector into
	// a reduced vector, padded with zeros if the chain has fewer than
	// NumJoints active links.
	Compress(full []Input) []Input

	// TransformFull runs forward kinematics over a full per-link vector,
	// ignoring the entries of fixed links.
	TransformFull(full []Input) (spatialmath.Pose, error)

	// Degraded reports whether this is the null fallback chain.
	Degraded() bool
}

// SimpleModel is an ordered single-branch kinematic chain.
type SimpleModel struct {
	name string
	// ordTransforms is the list of frames ordered from base to end effector.
	ordTransforms []Frame
	visualOrigins map[string]spatialmath.Pose

	limitsOnce sync.Once
	limits     []Limit
}

// NewSimpleModel constructs a chain from frames ordered base to end effector.
func NewSimpleModel(name string, frames []Frame) *SimpleModel {
	return &SimpleModel{name: name, ordTransforms: frames}
}

// Name returns the name of the model.
func (m *SimpleModel) Name() string {
	return m.name
}

// VisualOrigins returns the per-link visual origin metadata parsed from the
// chain description. The solver itself never reads these; they exist for
// display layers.
func (m *SimpleModel) VisualOrigins() map[string]spatialmath.Pose {
	return m.visualOrigins
}

// Transform runs forward kinematics over the reduced joint vector, composing
// every frame from base to end effector. Out-of-bounds joint values still
// produce a pose, with an accumulated error describing each violation.
func (m *SimpleModel) Transform(inputs []Input) (spatialmath.Pose, error) {
	var errAll error
	composed := spatialmath.NewZeroPose()
	posIdx := 0
	for _, transform := range m.ordTransforms {
		dof := len(transform.DoF()) + posIdx
		if dof > len(inputs) {
			return nil, errors.Errorf("given input length %d does not match model DoF %d", len(inputs), len(m.DoF()))
		}
		pose, err := transform.Transform(inputs[posIdx:dof])
		if pose == nil {
			return nil, err
		}
		multierr.AppendInto(&errAll, err)
		composed = spatialmath.Compose(composed, pose)
		posIdx = dof
	}
	if posIdx != len(inputs) {
		return nil, errors.Errorf("given input length %d does not match model DoF %d", len(inputs), posIdx)
	}
	return composed, errAll
}

// DoF returns the limits of the movable joints, base to end effector.
func (m *SimpleModel) DoF() []Limit {
	m.limitsOnce.Do(func() {
		limits := make([]Limit, 0, len(m.ordTransforms))
		for _, transform := range m.ordTransforms {
			limits = append(limits, transform.DoF()...)
		}
		m.limits = limits
	})
	return m.limits
}

// Mask returns the active-joint mask, one entry per frame in the chain.
func (m *SimpleModel) Mask() []bool {
	mask := make([]bool, len(m.ordTransforms))
	for i, transform := range m.ordTransforms {
		mask[i] = len(transform.DoF()) > 0
	}
	return mask
}

// activeIndices returns the frame indices of the movable joints, capped at
// NumJoints so malformed chains with extra joints degrade instead of panic.
func (m *SimpleModel) activeIndices() []int {
	idx := make([]int, 0, NumJoints)
	for i, active := range m.Mask() {
		if active {
			idx = append(idx, i)
			if len(idx) == NumJoints {
				break
			}
		}
	}
	return idx
}

// Expand scatters the reduced vector into full-chain positions in mask order.
func (m *SimpleModel) Expand(reduced []Input) ([]Input, error) {
	if len(reduced) != NumJoints {
		return nil, ErrBadReducedLength
	}
	full := make([]Input, len(m.ordTransforms))
	for i, idx := range m.activeIndices() {
		full[idx] = reduced[i]
	}
	return full, nil
}

// Compress gathers values at active positions, zero-padded to NumJoints.
func (m *SimpleModel) Compress(full []Input) []Input {
	reduced := make([]Input, NumJoints)
	for i, idx := range m.activeIndices() {
		if idx < len(full) {
			reduced[i] = full[idx]
		}
	}
	return reduced
}

// TransformFull runs forward kinematics over a full per-link vector. Every
// movable joint reads the entry at its own chain position; fixed-link entries
// are ignored.
func (m *SimpleModel) TransformFull(full []Input) (spatialmath.Pose, error) {
	if len(full) != len(m.ordTransforms) {
		return nil, errors.Errorf("given full vector length %d does not match chain length %d", len(full), len(m.ordTransforms))
	}
	reduced := make([]Input, 0, len(m.DoF()))
	for i, transform := range m.ordTransforms {
		if len(transform.DoF()) > 0 {
			reduced = append(reduced, full[i])
		}
	}
	return m.Transform(reduced)
}

// Degraded is always false for a chain built from a real description.
func (m *SimpleModel) Degraded() bool {
	return false
}

// NormalizeInputs wraps every element of a joint vector into (-pi, pi].
func NormalizeInputs(inputs []Input) []Input {
	normalized := make([]Input, len(inputs))
	for i, input := range inputs {
		normalized[i] = Input{utils.NormalizeAngle(input.Value)}
	}
	return normalized
}

// nullModel is the degraded fallback chain used when a chain description
// fails to load: zero links, identity forward kinematics. Callers detect it
// through Degraded and keep running without motion.
type nullModel struct {
	name string
}

// NewNullModel returns the degraded fallback chain.
func NewNullModel(name string) Model {
	return &nullModel{name}
}

func (m *nullModel) Name() string {
	return m.name
}

func (m *nullModel) Transform(inputs []Input) (spatialmath.Pose, error) {
	return spatialmath.NewZeroPose(), nil
}

func (m *nullModel) DoF() []Limit {
	return []Limit{}
}

func (m *nullModel) Mask() []bool {
	return []bool{}
}

func (m *nullModel) Expand(reduced []Input) ([]Input, error) {
	if len(reduced) != NumJoints {
		return nil, ErrBadReducedLength
	}
	return []Input{}, nil
}

func (m *nullModel) Compress(full []Input) []Input {
	return make([]Input, NumJoints)
}

func (m *nullModel) TransformFull(full []Input) (spatialmath.Pose, error) {
	return spatialmath.NewZeroPose(), nil
}

func (m *nullModel) Degraded() bool {
	return true
}
