// Package kinematics implements closed-form forward and inverse kinematics
// for 6-axis serial arms with an ortho-parallel basis and spherical wrist
// (the OPW model of Brandstötter et al. 2014), along with joint-limit and
// self-collision validation and continuity-preserving branch selection.
//
// Angles cross this package boundary in degrees. Two conventions are kept
// strictly apart: the canonical OPW convention the trigonometry is derived
// in, and the controller convention the physical robot (and its configured
// joint limits) uses. AxisConvention converts between the two.
package kinematics

import (
	"fmt"
	"math"

	"robotpath/pkg/transform"
)

// JointAngles holds six joint angles in degrees. Whether they are in
// canonical or controller convention depends on context; Branch carries
// both forms explicitly.
type JointAngles [6]float64

// IsFinite reports whether all six angles are finite.
func (j JointAngles) IsFinite() bool {
	for _, v := range j {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// String formats the angles for findings and logs.
func (j JointAngles) String() string {
	return fmt.Sprintf("[A1=%.3f A2=%.3f A3=%.3f A4=%.3f A5=%.3f A6=%.3f]",
		j[0], j[1], j[2], j[3], j[4], j[5])
}

// Geometry holds the seven OPW link/offset lengths in mm.
type Geometry struct {
	A1 float64 // horizontal shoulder offset
	A2 float64 // elbow offset
	B  float64 // lateral shoulder offset
	C1 float64 // base to shoulder height
	C2 float64 // upper arm length
	C3 float64 // forearm length
	C4 float64 // wrist to flange length
}

// Validate checks the geometry for physical plausibility.
func (g Geometry) Validate() error {
	if g.C1 < 0 || g.C4 < 0 {
		return fmt.Errorf("link lengths c1 and c4 must be non-negative")
	}
	if g.C2 <= 0 || g.C3 <= 0 {
		return fmt.Errorf("link lengths c2 and c3 must be positive")
	}
	for _, v := range []float64{g.A1, g.A2, g.B, g.C1, g.C2, g.C3, g.C4} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("geometry contains non-finite value")
		}
	}
	return nil
}

// MaxReach returns a radius from the shoulder beyond which no pose can have
// a real IK solution.
func (g Geometry) MaxReach() float64 {
	return g.A2 + g.B + g.C2 + g.C3 + g.C4
}

// AxisConvention reconciles the controller's per-joint sign and zero-offset
// convention with the canonical OPW convention.
type AxisConvention struct {
	Sign   [6]float64 // +1 or -1 per joint
	Offset [6]float64 // degrees, added after sign flip
}

// Validate checks that every sign is exactly +1 or -1.
func (c AxisConvention) Validate() error {
	for i, s := range c.Sign {
		if s != 1 && s != -1 {
			return fmt.Errorf("axis A%d sign must be +1 or -1, got %v", i+1, s)
		}
	}
	for i, o := range c.Offset {
		if math.IsNaN(o) || math.IsInf(o, 0) {
			return fmt.Errorf("axis A%d offset is non-finite", i+1)
		}
	}
	return nil
}

// ToController converts canonical angles to controller convention.
func (c AxisConvention) ToController(canonical JointAngles) JointAngles {
	var out JointAngles
	for i := 0; i < 6; i++ {
		out[i] = canonical[i]*c.Sign[i] + c.Offset[i]
	}
	return out
}

// ToCanonical converts controller angles to canonical convention. This is
// the exact inverse of ToController.
func (c AxisConvention) ToCanonical(controller JointAngles) JointAngles {
	var out JointAngles
	for i := 0; i < 6; i++ {
		out[i] = (controller[i] - c.Offset[i]) * c.Sign[i]
	}
	return out
}

// Robot bundles the immutable per-robot configuration the solver needs.
type Robot struct {
	Geo    Geometry
	Conv   AxisConvention
	Limits Limits
	Base   BaseCylinder

	// ToolOffset is the flange-to-TCP translation in the flange frame.
	ToolOffset transform.Vec3
}

// NewRobot validates the configuration and builds a Robot.
func NewRobot(geo Geometry, conv AxisConvention, limits Limits, base BaseCylinder, toolOffset transform.Vec3) (*Robot, error) {
	if err := geo.Validate(); err != nil {
		return nil, err
	}
	if err := conv.Validate(); err != nil {
		return nil, err
	}
	if err := limits.Validate(); err != nil {
		return nil, err
	}
	if base.Radius < 0 {
		return nil, fmt.Errorf("base exclusion radius must be non-negative")
	}
	if !toolOffset.IsFinite() {
		return nil, fmt.Errorf("tool offset contains non-finite value")
	}
	r := &Robot{
		Geo:        geo,
		Conv:       conv,
		Limits:     limits,
		Base:       base,
		ToolOffset: toolOffset,
	}
	if r.Base.Height == 0 {
		// The cylinder models the physical base column, which ends at the
		// shoulder height c1.
		r.Base.Height = geo.C1
	}
	return r, nil
}

const (
	deg2rad = math.Pi / 180
	rad2deg = 180 / math.Pi
)

// normalizeRad maps an angle into (-pi, pi].
func normalizeRad(a float64) float64 {
	a = math.Mod(a+math.Pi, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a - math.Pi
}
