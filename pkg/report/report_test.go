package report

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportSeverityBuckets(t *testing.T) {
	r := New()
	r.Add(Finding{Code: PumpCapacityExceeded, Severity: Warning, PointIndex: 3, BranchCode: NoBranch})
	r.Add(Finding{Code: Unreachable, Severity: Fatal, PointIndex: 7, BranchCode: NoBranch})
	r.Add(Finding{Code: JointLimitViolation, Severity: Fatal, PointIndex: 9, BranchCode: 2})

	assert.True(t, r.HasFatal())
	assert.Len(t, r.Fatal(), 2)
	assert.Len(t, r.Warnings(), 1)
	assert.Len(t, r.Findings(), 3)
	assert.Equal(t, "3 findings (2 fatal, 1 warnings)", r.Summary())
}

func TestReportPreservesOrder(t *testing.T) {
	r := New()
	for i := 0; i < 5; i++ {
		r.Add(Finding{Code: SelfCollision, Severity: Fatal, PointIndex: i, BranchCode: NoBranch})
	}
	for i, f := range r.Findings() {
		assert.Equal(t, i, f.PointIndex)
	}
}

func TestEmptyReport(t *testing.T) {
	r := New()
	assert.False(t, r.HasFatal())
	assert.Empty(t, r.Fatal())
	assert.Empty(t, r.Warnings())

	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestFindingJSON(t *testing.T) {
	f := Finding{
		Code:       NoContinuousSolution,
		Severity:   Fatal,
		PointIndex: 12,
		Position:   [3]float64{100, 200, 50},
		BranchCode: NoBranch,
		Message:    "all branches rejected",
	}
	data, err := json.Marshal(f)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "NO_CONTINUOUS_SOLUTION", decoded["code"])
	assert.Equal(t, "fatal", decoded["severity"])
	assert.Equal(t, float64(12), decoded["point_index"])
}

func TestFindingString(t *testing.T) {
	f := Finding{
		Code:       JointLimitViolation,
		Severity:   Fatal,
		PointIndex: 4,
		Position:   [3]float64{1, 2, 3},
		BranchCode: 5,
		Message:    "joint A2 out of range",
	}
	s := f.String()
	assert.Contains(t, s, "JOINT_LIMIT_VIOLATION")
	assert.Contains(t, s, "branch 5")
	assert.Contains(t, s, "point 4")
}
