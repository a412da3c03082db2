package kinematics

import (
	"fmt"
	"math"

	"robotpath/pkg/transform"
)

// Limits holds the inclusive per-joint angle ranges in degrees, controller
// convention.
type Limits [6][2]float64

// Validate checks that every range is finite and ordered.
func (l Limits) Validate() error {
	for i, r := range l {
		if math.IsNaN(r[0]) || math.IsNaN(r[1]) || math.IsInf(r[0], 0) || math.IsInf(r[1], 0) {
			return fmt.Errorf("joint A%d limits are non-finite", i+1)
		}
		if r[0] > r[1] {
			return fmt.Errorf("joint A%d limits inverted: min %.3f > max %.3f", i+1, r[0], r[1])
		}
	}
	return nil
}

// LimitViolation describes the first joint of a candidate found outside its
// configured range.
type LimitViolation struct {
	Joint int // 0-based joint index
	Value float64
	Min   float64
	Max   float64
}

func (v *LimitViolation) String() string {
	return fmt.Sprintf("joint A%d angle %.3f outside limits [%.3f, %.3f]",
		v.Joint+1, v.Value, v.Min, v.Max)
}

// Check tests controller-convention angles against the limits. It returns
// nil when all joints are in range. Non-finite angles are violations too so
// no undefined value can ever be accepted.
func (l Limits) Check(controller JointAngles) *LimitViolation {
	for i, v := range controller {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < l[i][0] || v > l[i][1] {
			return &LimitViolation{Joint: i, Value: v, Min: l[i][0], Max: l[i][1]}
		}
	}
	return nil
}

// BaseCylinder is the self-exclusion zone around the base rotation axis: a
// cylinder of the given radius from z = 0 up to Height. The tool must never
// be commanded inside it.
type BaseCylinder struct {
	Radius float64 // mm
	Height float64 // mm, 0 means "use shoulder height c1"
}

// Contains reports whether p lies inside the cylinder. Points above the
// cylinder height (or below the base plate) are outside regardless of
// radius.
func (b BaseCylinder) Contains(p transform.Vec3) bool {
	if b.Radius <= 0 {
		return false
	}
	if p.Z < 0 || p.Z > b.Height {
		return false
	}
	return p.X*p.X+p.Y*p.Y <= b.Radius*b.Radius
}
