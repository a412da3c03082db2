// Package report collects the validation findings of a planning run. A
// finding is data, not control flow: fatal findings mark points the robot
// must never be commanded to, warnings record degradations such as clamped
// speeds. The aggregate report is the contract surface for user-facing
// reporting and visualization highlighting.
package report

import (
	"encoding/json"
	"fmt"
)

// Code identifies the kind of finding.
type Code string

const (
	// Unreachable: no real IK solution exists for the point.
	Unreachable Code = "UNREACHABLE"

	// JointLimitViolation: a solution exists but violates configured limits.
	JointLimitViolation Code = "JOINT_LIMIT_VIOLATION"

	// SelfCollision: the target point lies inside the base exclusion
	// cylinder, independent of any IK branch.
	SelfCollision Code = "SELF_COLLISION"

	// NoContinuousSolution: valid branches existed in isolation but none
	// passed filtering.
	NoContinuousSolution Code = "NO_CONTINUOUS_SOLUTION"

	// PumpCapacityExceeded: the requested speed needs more flow than the
	// pump provides; the speed was clamped.
	PumpCapacityExceeded Code = "PUMP_CAPACITY_EXCEEDED"
)

// Severity distinguishes findings that exclude a point from those that
// merely degrade it.
type Severity int

const (
	Warning Severity = iota
	Fatal
)

func (s Severity) String() string {
	if s == Fatal {
		return "fatal"
	}
	return "warning"
}

// MarshalJSON emits the severity as its string form.
func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// NoBranch marks a finding not tied to any particular IK branch.
const NoBranch = -1

// Finding is one validation result tied to a toolpath point.
type Finding struct {
	Code       Code       `json:"code"`
	Severity   Severity   `json:"severity"`
	PointIndex int        `json:"point_index"`
	Position   [3]float64 `json:"position"`
	BranchCode int        `json:"branch_code"` // NoBranch when not applicable
	Message    string     `json:"message"`
}

func (f Finding) String() string {
	if f.BranchCode != NoBranch {
		return fmt.Sprintf("[%s] %s point %d (%.2f, %.2f, %.2f) branch %d: %s",
			f.Severity, f.Code, f.PointIndex, f.Position[0], f.Position[1], f.Position[2],
			f.BranchCode, f.Message)
	}
	return fmt.Sprintf("[%s] %s point %d (%.2f, %.2f, %.2f): %s",
		f.Severity, f.Code, f.PointIndex, f.Position[0], f.Position[1], f.Position[2], f.Message)
}

// Report accumulates findings in discovery order. It is owned by the
// sequential planning pass; no synchronization is provided or needed.
type Report struct {
	findings []Finding
}

// New creates an empty report.
func New() *Report {
	return &Report{}
}

// Add records a finding.
func (r *Report) Add(f Finding) {
	r.findings = append(r.findings, f)
}

// Findings returns all findings in discovery order.
func (r *Report) Findings() []Finding {
	return r.findings
}

// Fatal returns only the fatal findings.
func (r *Report) Fatal() []Finding {
	var out []Finding
	for _, f := range r.findings {
		if f.Severity == Fatal {
			out = append(out, f)
		}
	}
	return out
}

// Warnings returns only the warning findings.
func (r *Report) Warnings() []Finding {
	var out []Finding
	for _, f := range r.findings {
		if f.Severity == Warning {
			out = append(out, f)
		}
	}
	return out
}

// HasFatal reports whether any fatal finding was recorded.
func (r *Report) HasFatal() bool {
	for _, f := range r.findings {
		if f.Severity == Fatal {
			return true
		}
	}
	return false
}

// Summary returns a one-line count of findings by severity.
func (r *Report) Summary() string {
	return fmt.Sprintf("%d findings (%d fatal, %d warnings)",
		len(r.findings), len(r.Fatal()), len(r.Warnings()))
}

// MarshalJSON emits the findings as a JSON array.
func (r *Report) MarshalJSON() ([]byte, error) {
	if r.findings == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(r.findings)
}
