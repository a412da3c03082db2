package pump

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	patherrors "robotpath/pkg/errors"
)

// Samples deliberately out of order: NewCurve must sort by flow.
func testCurve(t *testing.T) *Curve {
	t.Helper()
	c, err := NewCurve([]Sample{
		{Flow: 90, RPM: 456, Voltage: 10},
		{Flow: 0, RPM: 0, Voltage: 0},
		{Flow: 10, RPM: 146, Voltage: 1},
	}, ModeRPM)
	require.NoError(t, err)
	return c
}

func TestCurveSortsOnLoad(t *testing.T) {
	c := testCurve(t)
	assert.Equal(t, 0.0, c.MinFlow())
	assert.Equal(t, 90.0, c.MaxFlow())
}

func TestCurveRejectsDuplicateFlow(t *testing.T) {
	_, err := NewCurve([]Sample{
		{Flow: 10, RPM: 100},
		{Flow: 10, RPM: 200},
		{Flow: 20, RPM: 300},
	}, ModeRPM)
	require.Error(t, err)
	assert.True(t, patherrors.IsCurveData(err))
}

func TestCurveRejectsMalformedData(t *testing.T) {
	_, err := NewCurve([]Sample{{Flow: 0}}, ModeRPM)
	assert.Error(t, err, "single sample cannot interpolate")

	_, err = NewCurve([]Sample{{Flow: math.NaN()}, {Flow: 10}}, ModeRPM)
	assert.Error(t, err)

	_, err = NewCurve([]Sample{{Flow: -5}, {Flow: 10}}, ModeRPM)
	assert.Error(t, err)

	_, err = NewCurve([]Sample{{Flow: 0}, {Flow: 10}}, Mode("pressure"))
	assert.Error(t, err)
}

func TestInterpolation(t *testing.T) {
	c := testCurve(t)

	// Midpoint of the [10, 90] span: (50-10)/(90-10) = 0.5 between
	// RPM 146 and 456.
	assert.InDelta(t, 301, c.RPMAt(50), 1e-9)
	assert.InDelta(t, 5.5, c.VoltageAt(50), 1e-9)

	// Exact sample values.
	assert.InDelta(t, 146, c.RPMAt(10), 1e-9)
	assert.InDelta(t, 456, c.RPMAt(90), 1e-9)

	// Below the first span.
	assert.InDelta(t, 73, c.RPMAt(5), 1e-9)
}

func TestRequiredFlow(t *testing.T) {
	// 20 mm wide, 10 mm high cross-section at 0.25 mm/s: 50 mm^3/s.
	assert.InDelta(t, 50, RequiredFlow(20, 10, 0.25), 1e-12)
}

func TestCheckWithinCapacity(t *testing.T) {
	c := testCurve(t)
	f := c.Check(20, 10, 0.25) // 50 mm^3/s
	assert.False(t, f.Clamped)
	assert.InDelta(t, 50, f.RequiredFlow, 1e-9)
	assert.InDelta(t, 0.25, f.EffectiveSpeed, 1e-9)
	assert.InDelta(t, 301, f.Setpoint, 1e-9)
}

func TestCheckClampsAboveCapacity(t *testing.T) {
	c := testCurve(t)

	// 20x10 mm cross-section at 2.5 mm/s needs 500 mm^3/s, far above the
	// 90 mm^3/s maximum: the speed must be clamped to 90/200 = 0.45 mm/s.
	f := c.Check(20, 10, 2.5)
	assert.True(t, f.Clamped)
	assert.InDelta(t, 500, f.RequiredFlow, 1e-9)
	assert.InDelta(t, 90, f.EffectiveFlow, 1e-9)
	assert.InDelta(t, 2.5, f.RequestedSpeed, 1e-9)
	assert.InDelta(t, 0.45, f.EffectiveSpeed, 1e-9)
	assert.InDelta(t, 456, f.Setpoint, 1e-9, "setpoint pinned to curve max")
}

func TestVoltageMode(t *testing.T) {
	c, err := NewCurve([]Sample{
		{Flow: 0, RPM: 0, Voltage: 0},
		{Flow: 10, RPM: 146, Voltage: 1},
		{Flow: 90, RPM: 456, Voltage: 10},
	}, ModeVoltage)
	require.NoError(t, err)

	f := c.Check(20, 10, 0.25)
	assert.InDelta(t, 5.5, f.Setpoint, 1e-9)
}
