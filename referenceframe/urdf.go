package referenceframe

import (
	"encoding/xml"
	"math"
	"os"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/parol6/console/spatialmath"
	"github.com/parol6/console/utils"
)

// Joint type strings used by URDF.
const (
	FixedJoint      = "fixed"
	RevoluteJoint   = "revolute"
	ContinuousJoint = "continuous"
)

// World is the name of the root reference frame in a URDF document.
const World = "world"

// URDFConfig represents the supported fields of a Universal Robot Description
// Format file.
type URDFConfig struct {
	XMLName xml.Name    `xml:"robot"`
	Name    string      `xml:"name,attr"`
	Links   []URDFLink  `xml:"link"`
	Joints  []URDFJoint `xml:"joint"`
}

// URDFLink details the XML used in a URDF link element.
type URDFLink struct {
	XMLName xml.Name `xml:"link"`
	Name    string   `xml:"name,attr"`
	Visual  *struct {
		Origin *URDFPose `xml:"origin"`
	} `xml:"visual"`
}

// URDFPose details the XML used in a URDF origin element.
type URDFPose struct {
	XYZ string `xml:"xyz,attr"`
	RPY string `xml:"rpy,attr"`
}

// URDFAxis details the XML used in a URDF axis element.
type URDFAxis struct {
	XYZ string `xml:"xyz,attr"`
}

// URDFLimit details the XML used in a URDF limit element. Revolute limits are
// in radians.
type URDFLimit struct {
	Lower float64 `xml:"lower,attr"`
	Upper float64 `xml:"upper,attr"`
}

// URDFFrame names a parent or child link of a joint.
type URDFFrame struct {
	Link string `xml:"link,attr"`
}

// URDFJoint details the XML used in a URDF joint element.
type URDFJoint struct {
	XMLName xml.Name   `xml:"joint"`
	Name    string     `xml:"name,attr"`
	Type    string     `xml:"type,attr"`
	Parent  URDFFrame  `xml:"parent"`
	Child   URDFFrame  `xml:"child"`
	Origin  *URDFPose  `xml:"origin"`
	Axis    *URDFAxis  `xml:"axis"`
	Limit   *URDFLimit `xml:"limit"`
}

// ParseURDFFile reads a URDF file and builds the equivalent Model.
func ParseURDFFile(filename, modelName string) (Model, error) {
	//nolint:gosec
	xmlData, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read URDF file")
	}
	return ParseURDFBytes(xmlData, modelName)
}

// ParseURDFBytes converts URDF XML data into a Model. The document must
// describe a single unbranched chain; each fixed joint becomes a static
// frame and each revolute joint becomes an origin frame plus a rotational
// frame.
func ParseURDFBytes(xmlData []byte, modelName string) (Model, error) {
	if len(xmlData) == 0 {
		return nil, ErrNoModelInformation
	}

	urdf := &URDFConfig{}
	if err := xml.Unmarshal(xmlData, urdf); err != nil {
		return nil, errors.Wrap(err, "failed to parse URDF data")
	}
	if len(urdf.Joints) == 0 {
		return nil, ErrNoModelInformation
	}
	if modelName == "" {
		modelName = urdf.Name
	}

	// Joints keyed by their parent link so the chain can be walked from the
	// root; a link that is some joint's child cannot be the root.
	jointByParent := map[string]URDFJoint{}
	childLinks := map[string]bool{}
	for _, joint := range urdf.Joints {
		if _, seen := jointByParent[joint.Parent.Link]; seen {
			return nil, errors.Errorf("link %q has more than one child joint; branched chains are not supported", joint.Parent.Link)
		}
		jointByParent[joint.Parent.Link] = joint
		childLinks[joint.Child.Link] = true
	}

	root := ""
	for parent := range jointByParent {
		if !childLinks[parent] {
			root = parent
			break
		}
	}
	if root == "" {
		return nil, errors.New("URDF joints form a cycle; no root link found")
	}

	var frames []Frame
	for link := root; ; {
		joint, ok := jointByParent[link]
		if !ok {
			break
		}
		origin, err := urdfOriginPose(joint.Origin)
		if err != nil {
			return nil, errors.Wrapf(err, "joint %q", joint.Name)
		}

		switch joint.Type {
		case FixedJoint:
			sf, err := NewStaticFrame(joint.Name, origin)
			if err != nil {
				return nil, err
			}
			frames = append(frames, sf)
		case RevoluteJoint, ContinuousJoint:
			sf, err := NewStaticFrame(joint.Name+"_origin", origin)
			if err != nil {
				return nil, err
			}
			axis := r3.Vector{Z: 1}
			if joint.Axis != nil {
				xyz := utils.SpaceDelimitedFloats(joint.Axis.XYZ)
				if len(xyz) == 3 {
					axis = r3.Vector{X: xyz[0], Y: xyz[1], Z: xyz[2]}
				}
			}
			limit := Limit{Min: math.Inf(-1), Max: math.Inf(1)}
			if joint.Type == RevoluteJoint && joint.Limit != nil {
				limit = Limit{Min: joint.Limit.Lower, Max: joint.Limit.Upper}
			}
			rf, err := NewRotationalFrame(joint.Name, axis, limit)
			if err != nil {
				return nil, err
			}
			frames = append(frames, sf, rf)
		default:
			return nil, errors.Errorf("unsupported joint type %q", joint.Type)
		}
		link = joint.Child.Link
	}

	model := NewSimpleModel(modelName, frames)
	model.visualOrigins = urdfVisualOrigins(urdf)
	return model, nil
}

func urdfOriginPose(origin *URDFPose) (spatialmath.Pose, error) {
	if origin == nil {
		return spatialmath.NewZeroPose(), nil
	}
	xyz := utils.SpaceDelimitedFloats(origin.XYZ)
	rpy := utils.SpaceDelimitedFloats(origin.RPY)
	pt := r3.Vector{}
	if len(xyz) == 3 {
		pt = r3.Vector{X: xyz[0], Y: xyz[1], Z: xyz[2]}
	}
	o := spatialmath.NewZeroOrientation()
	if len(rpy) == 3 {
		o = spatialmath.NewOrientationFromQuaternion(spatialmath.QuatFromRPY(rpy[0], rpy[1], rpy[2]))
	}
	return spatialmath.NewPose(pt, o), nil
}

func urdfVisualOrigins(urdf *URDFConfig) map[string]spatialmath.Pose {
	origins := map[string]spatialmath.Pose{}
	for _, link := range urdf.Links {
		if link.Visual == nil || link.Visual.Origin == nil {
			continue
		}
		pose, err := urdfOriginPose(link.Visual.Origin)
		if err != nil {
			continue
		}
		origins[link.Name] = pose
	}
	return origins
}

