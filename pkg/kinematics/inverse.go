package kinematics

import (
	"fmt"
	"math"

	"robotpath/pkg/transform"
)

// Tolerance for law-of-cosines arguments that land just outside [-1, 1]
// from floating point noise. Anything further out is a genuine domain
// failure, not an approximation issue.
const acosSlack = 1e-9

// Joint-5 angles below this (radians) are treated as the degenerate wrist
// configuration where joints 4 and 6 are co-linear.
const wristSingularityTol = 1e-6

// clampedAcos returns acos(v) and true when v lies in the domain (with a
// tiny slack for rounding), or 0 and false for a real domain failure.
func clampedAcos(v float64) (float64, bool) {
	if v > 1 {
		if v > 1+acosSlack {
			return 0, false
		}
		v = 1
	} else if v < -1 {
		if v < -1-acosSlack {
			return 0, false
		}
		v = -1
	}
	return math.Acos(v), true
}

// Inverse computes all 8 IK branch candidates for the target TCP pose.
// Branches without a real geometric solution are marked unreachable with
// the failed domain check as reason; the caller decides whether an entirely
// unreachable point is fatal.
func (r *Robot) Inverse(target transform.Transform) Solution {
	var sol Solution
	for i := range sol {
		sol[i].Code = BranchCode(i)
	}

	if !target.T.IsFinite() {
		sol.markAllUnreachable("target position is not finite")
		return sol
	}

	g := r.Geo
	rot := target.R

	// Wrist center: retract the TCP along the tool approach direction by
	// the tool offset and the wrist-to-flange length c4.
	wc := target.T.
		Sub(rot.Apply(r.ToolOffset)).
		Sub(rot.Apply(transform.Vec3{Z: g.C4}))

	rxy2 := wc.X*wc.X + wc.Y*wc.Y
	if rxy2 < g.B*g.B {
		// The wrist center projects inside the lateral shoulder offset:
		// joint 1 has no real solution for any branch.
		sol.markAllUnreachable(fmt.Sprintf(
			"wrist center planar radius %.3f below lateral offset b=%.3f", math.Sqrt(rxy2), g.B))
		return sol
	}

	nx1 := math.Sqrt(rxy2-g.B*g.B) - g.A1
	dz := wc.Z - g.C1
	s1sq := nx1*nx1 + dz*dz
	s2sq := (nx1+2*g.A1)*(nx1+2*g.A1) + dz*dz
	k := math.Hypot(g.A2, g.C3)

	baseYaw := math.Atan2(wc.Y, wc.X)
	lateral := math.Atan2(g.B, nx1+g.A1)

	for shoulder := 0; shoulder < 2; shoulder++ {
		var theta1, ssq, reachAngle float64
		if shoulder == 0 {
			theta1 = normalizeRad(baseYaw - lateral)
			ssq = s1sq
			reachAngle = math.Atan2(nx1, dz)
		} else {
			theta1 = normalizeRad(baseYaw + lateral - math.Pi)
			ssq = s2sq
			reachAngle = -math.Atan2(nx1+2*g.A1, dz)
		}

		// Law of cosines over the planar triangle spanned by the upper arm
		// c2 and the elbow-to-wrist link k = hypot(a2, c3).
		sLen := math.Sqrt(ssq)
		elbowArg := (ssq + g.C2*g.C2 - k*k) / (2 * sLen * g.C2)
		kneeArg := (ssq - g.C2*g.C2 - k*k) / (2 * g.C2 * k)

		elbowAcos, elbowOK := clampedAcos(elbowArg)
		kneeAcos, kneeOK := clampedAcos(kneeArg)

		for elbow := 0; elbow < 2; elbow++ {
			codeBase := BranchCode(shoulder<<2 | elbow<<1)
			if !elbowOK || !kneeOK {
				reason := fmt.Sprintf(
					"wrist center distance %.3f outside planar triangle of c2=%.3f and k=%.3f", sLen, g.C2, k)
				sol[codeBase].Reachable = false
				sol[codeBase].Reason = reason
				sol[codeBase|1].Reachable = false
				sol[codeBase|1].Reason = reason
				continue
			}

			var theta2, theta3 float64
			if elbow == 0 {
				theta2 = -elbowAcos + reachAngle
				theta3 = kneeAcos - math.Atan2(g.A2, g.C3)
			} else {
				theta2 = elbowAcos + reachAngle
				theta3 = -kneeAcos - math.Atan2(g.A2, g.C3)
			}

			r.solveWrist(&sol, codeBase, rot, theta1, theta2, theta3)
		}
	}
	return sol
}

// solveWrist fills the two wrist branches (codeBase and codeBase|1) for a
// fixed shoulder/elbow position solution.
func (r *Robot) solveWrist(sol *Solution, codeBase BranchCode, rot transform.Mat3, theta1, theta2, theta3 float64) {
	s1, c1 := math.Sin(theta1), math.Cos(theta1)
	s23, c23 := math.Sin(theta2+theta3), math.Cos(theta2+theta3)

	e11, e12, e13 := rot[0][0], rot[0][1], rot[0][2]
	e21, e22, e23 := rot[1][0], rot[1][1], rot[1][2]
	e31, e32, e33 := rot[2][0], rot[2][1], rot[2][2]

	// m is the cosine of joint 5: the projection of the target approach
	// axis onto the forearm axis.
	m := e13*s23*c1 + e23*s23*s1 + e33*c23
	theta5 := math.Atan2(math.Sqrt(math.Max(1-m*m, 0)), m)

	var triples [2][3]float64 // [wrist][theta4, theta5, theta6]

	if theta5 < wristSingularityTol {
		// Degenerate wrist: joints 4 and 6 are co-linear. Policy: the full
		// coupled rotation goes to joint 4, joint 6 stays at zero. Both
		// wrist variants collapse to the same triple.
		ja := [6]float64{theta1, theta2, theta3, 0, 0, 0}
		r0c, _ := wristFrames(ja)
		rce := r0c.Transpose().Mul(rot)
		theta4 := math.Atan2(rce[1][0], rce[0][0])
		triples[0] = [3]float64{theta4, 0, 0}
		triples[1] = triples[0]
	} else {
		theta4 := math.Atan2(
			e23*c1-e13*s1,
			e13*c23*c1+e23*c23*s1-e33*s23)
		theta6 := math.Atan2(
			e12*s23*c1+e22*s23*s1+e32*c23,
			-e11*s23*c1-e21*s23*s1-e31*c23)
		triples[0] = [3]float64{theta4, theta5, theta6}
		triples[1] = [3]float64{theta4 + math.Pi, -theta5, theta6 - math.Pi}
	}

	for wrist := 0; wrist < 2; wrist++ {
		b := &sol[codeBase|BranchCode(wrist)]
		canonical := JointAngles{
			theta1 * rad2deg,
			theta2 * rad2deg,
			theta3 * rad2deg,
			triples[wrist][0] * rad2deg,
			triples[wrist][1] * rad2deg,
			triples[wrist][2] * rad2deg,
		}
		b.Canonical = canonical
		b.Controller = r.Conv.ToController(canonical)
		b.Reachable = true
		b.Reason = ""
	}
}
