package kinematics

import (
	"fmt"
	"math"

	"robotpath/pkg/transform"
)

// wristFrames computes the rotation from base to wrist center (from joints
// 1-3) and from wrist center to flange (from joints 4-6), all in radians.
func wristFrames(ja [6]float64) (r0c, rce transform.Mat3) {
	s := [6]float64{}
	c := [6]float64{}
	for i, v := range ja {
		s[i] = math.Sin(v)
		c[i] = math.Cos(v)
	}

	r0c = transform.Mat3{
		{c[0]*c[1]*c[2] - c[0]*s[1]*s[2], -s[0], c[0]*c[1]*s[2] + c[0]*s[1]*c[2]},
		{s[0]*c[1]*c[2] - s[0]*s[1]*s[2], c[0], s[0]*c[1]*s[2] + s[0]*s[1]*c[2]},
		{-s[1]*c[2] - c[1]*s[2], 0, -s[1]*s[2] + c[1]*c[2]},
	}
	rce = transform.Mat3{
		{c[3]*c[4]*c[5] - s[3]*s[5], -c[3]*c[4]*s[5] - s[3]*c[5], c[3] * s[4]},
		{s[3]*c[4]*c[5] + c[3]*s[5], -s[3]*c[4]*s[5] + c[3]*c[5], s[3] * s[4]},
		{-s[4] * c[5], s[4] * s[5], c[4]},
	}
	return r0c, rce
}

// wristCenter computes the wrist center position from joints 1-3 (radians).
func (r *Robot) wristCenter(ja [6]float64) transform.Vec3 {
	g := r.Geo
	psi3 := math.Atan2(g.A2, g.C3)
	k := math.Hypot(g.A2, g.C3)

	cx1 := g.C2*math.Sin(ja[1]) + k*math.Sin(ja[1]+ja[2]+psi3) + g.A1
	cy1 := g.B
	cz1 := g.C2*math.Cos(ja[1]) + k*math.Cos(ja[1]+ja[2]+psi3)

	s1, c1 := math.Sin(ja[0]), math.Cos(ja[0])
	return transform.Vec3{
		X: cx1*c1 - cy1*s1,
		Y: cx1*s1 + cy1*c1,
		Z: cz1 + g.C1,
	}
}

// Forward computes the tool-center-point pose for canonical joint angles
// (degrees). It is defined for any finite input; no validation is applied.
func (r *Robot) Forward(canonical JointAngles) transform.Transform {
	var ja [6]float64
	for i, v := range canonical {
		ja[i] = v * deg2rad
	}

	c := r.wristCenter(ja)
	r0c, rce := wristFrames(ja)
	r0e := r0c.Mul(rce)

	u := c.
		Add(r0e.Apply(transform.Vec3{Z: r.Geo.C4})).
		Add(r0e.Apply(r.ToolOffset))

	return transform.NewTransform(r0e, u)
}

// ForwardChecked computes the TCP pose like Forward but additionally checks
// that the commanded configuration keeps the wrist center and the TCP out
// of the base exclusion cylinder and within the configured joint limits
// (controller convention). Used for diagnostics and for validating the
// configured start/end states.
func (r *Robot) ForwardChecked(controller JointAngles) (transform.Transform, error) {
	if !controller.IsFinite() {
		return transform.Transform{}, fmt.Errorf("joint angles contain non-finite value")
	}
	if v := r.Limits.Check(controller); v != nil {
		return transform.Transform{}, fmt.Errorf("joint A%d angle %.3f outside limits [%.3f, %.3f]",
			v.Joint+1, v.Value, v.Min, v.Max)
	}

	canonical := r.Conv.ToCanonical(controller)
	var ja [6]float64
	for i, v := range canonical {
		ja[i] = v * deg2rad
	}

	c := r.wristCenter(ja)
	if r.Base.Contains(c) {
		return transform.Transform{}, fmt.Errorf("wrist center (%.2f, %.2f, %.2f) inside base exclusion cylinder",
			c.X, c.Y, c.Z)
	}

	pose := r.Forward(canonical)
	if r.Base.Contains(pose.T) {
		return transform.Transform{}, fmt.Errorf("tool center point (%.2f, %.2f, %.2f) inside base exclusion cylinder",
			pose.T.X, pose.T.Y, pose.T.Z)
	}
	return pose, nil
}
