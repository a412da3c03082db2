package kinematics

import (
	"fmt"
	"math"
)

// RejectReason classifies why no branch could be accepted for a point.
type RejectReason int

const (
	// RejectUnreachable: IK produced zero real branches.
	RejectUnreachable RejectReason = iota

	// RejectNoContinuous: real branches existed but every one was filtered
	// out (joint limits).
	RejectNoContinuous
)

// RejectError reports a point with no acceptable branch, distinguishing a
// geometric domain failure from a filtering failure.
type RejectError struct {
	Reason RejectReason
	Detail string
}

func (e *RejectError) Error() string {
	return e.Detail
}

// AngularDelta returns the shortest angular distance in degrees between two
// joint angles, wraparound-aware: moving from 170 to -170 is 20, not 340.
func AngularDelta(a, b float64) float64 {
	d := math.Mod(math.Abs(a-b), 360)
	if d > 180 {
		d = 360 - d
	}
	return d
}

// MoveCost is the continuity score between two controller-convention joint
// states: the sum of per-joint shortest angular distances.
func MoveCost(from, to JointAngles) float64 {
	cost := 0.0
	for i := 0; i < 6; i++ {
		cost += AngularDelta(from[i], to[i])
	}
	return cost
}

// Selector performs continuity-preserving branch selection over an ordered
// toolpath. It owns the single piece of mutable state in the engine: the
// previously accepted controller-convention joint state. Selection is a
// strictly sequential fold; the per-point candidates it consumes may be
// computed in parallel beforehand.
type Selector struct {
	limits Limits
	prev   JointAngles
}

// NewSelector creates a selector seeded with the configured robot start
// state (controller convention).
func NewSelector(start JointAngles, limits Limits) *Selector {
	return &Selector{limits: limits, prev: start}
}

// Previous returns the last accepted joint state.
func (sel *Selector) Previous() JointAngles {
	return sel.prev
}

// Pick chooses the valid branch with the minimal joint-space move from the
// previously accepted state and advances the selector. Ties are broken by
// lowest branch code for determinism. The selector never relaxes
// constraints: a point with no acceptable branch returns a RejectError and
// leaves the previous state untouched.
func (sel *Selector) Pick(sol *Solution) (*Branch, *RejectError) {
	if sol.ReachableCount() == 0 {
		// All 8 branches failed a geometric domain check; surface the
		// first branch's reason, they all carry the same class of failure.
		return nil, &RejectError{
			Reason: RejectUnreachable,
			Detail: fmt.Sprintf("no real IK solution: %s", sol[0].Reason),
		}
	}

	var best *Branch
	bestCost := math.Inf(1)
	limitFailures := 0
	var firstViolation *LimitViolation

	for i := range sol {
		b := &sol[i]
		if !b.Reachable {
			continue
		}
		if v := sel.limits.Check(b.Controller); v != nil {
			limitFailures++
			if firstViolation == nil {
				firstViolation = v
			}
			continue
		}
		cost := MoveCost(sel.prev, b.Controller)
		if cost < bestCost {
			best = b
			bestCost = cost
		}
	}

	if best == nil {
		return nil, &RejectError{
			Reason: RejectNoContinuous,
			Detail: fmt.Sprintf("all %d reachable branches rejected (%d joint limit violations, first: %s)",
				sol.ReachableCount(), limitFailures, firstViolation),
		}
	}

	sel.prev = best.Controller
	return best, nil
}
