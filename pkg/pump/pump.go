// Package pump maps required material flow to pump setpoints and decides
// whether a requested print speed is feasible for the pump's characteristic
// curve. Required flow for a motion segment is the extruded cross-section
// (line width times layer height, rectangular) times the feed speed.
package pump

import (
	"fmt"
	"math"
	"sort"

	"robotpath/pkg/errors"
)

// Mode selects which column of the characteristic curve drives the pump.
type Mode string

const (
	// ModeRPM commands the pump by rotational speed.
	ModeRPM Mode = "rpm"

	// ModeVoltage commands the pump by drive voltage.
	ModeVoltage Mode = "voltage"
)

// Sample is one measured point of the pump characteristic curve.
type Sample struct {
	Flow    float64 // mm^3/s
	RPM     float64
	Voltage float64 // V
}

// Curve is the pump characteristic, strictly increasing in flow. Construct
// it with NewCurve, which sorts and validates the samples.
type Curve struct {
	samples []Sample
	mode    Mode
}

// NewCurve builds a validated curve from samples in any order. Source data
// frequently arrives unsorted; the samples are re-sorted by flow here.
// Duplicate or non-finite flow values fail validation: the whole run must
// be rejected before any toolpath point is processed.
func NewCurve(samples []Sample, mode Mode) (*Curve, error) {
	if mode != ModeRPM && mode != ModeVoltage {
		return nil, errors.CurveDataError(fmt.Sprintf("unknown pump mode %q", mode))
	}
	if len(samples) < 2 {
		return nil, errors.CurveDataError(fmt.Sprintf("curve needs at least 2 samples, got %d", len(samples)))
	}

	sorted := make([]Sample, len(samples))
	copy(sorted, samples)
	for _, s := range sorted {
		for _, v := range []float64{s.Flow, s.RPM, s.Voltage} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, errors.CurveDataError("curve contains non-finite value")
			}
		}
		if s.Flow < 0 {
			return nil, errors.CurveDataError(fmt.Sprintf("negative flow value %.3f", s.Flow))
		}
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Flow < sorted[j].Flow })

	for i := 1; i < len(sorted); i++ {
		if sorted[i].Flow == sorted[i-1].Flow {
			return nil, errors.CurveDataError(
				fmt.Sprintf("duplicate flow value %.3f in curve", sorted[i].Flow))
		}
	}

	return &Curve{samples: sorted, mode: mode}, nil
}

// Mode returns the configured drive mode.
func (c *Curve) Mode() Mode {
	return c.mode
}

// MaxFlow returns the largest flow the curve supports in mm^3/s.
func (c *Curve) MaxFlow() float64 {
	return c.samples[len(c.samples)-1].Flow
}

// MinFlow returns the smallest flow sample in mm^3/s.
func (c *Curve) MinFlow() float64 {
	return c.samples[0].Flow
}

// interpolate returns the column value at the given flow by linear
// interpolation between the bracketing samples. Flow must lie within
// [MinFlow, MaxFlow]; the caller clamps first.
func (c *Curve) interpolate(flow float64, col func(Sample) float64) float64 {
	n := len(c.samples)
	if flow <= c.samples[0].Flow {
		return col(c.samples[0])
	}
	if flow >= c.samples[n-1].Flow {
		return col(c.samples[n-1])
	}
	// First sample with Flow >= flow; i >= 1 after the bounds checks.
	i := sort.Search(n, func(k int) bool { return c.samples[k].Flow >= flow })
	lo, hi := c.samples[i-1], c.samples[i]
	t := (flow - lo.Flow) / (hi.Flow - lo.Flow)
	return col(lo) + t*(col(hi)-col(lo))
}

// RPMAt returns the interpolated pump RPM for the given flow.
func (c *Curve) RPMAt(flow float64) float64 {
	return c.interpolate(flow, func(s Sample) float64 { return s.RPM })
}

// VoltageAt returns the interpolated drive voltage for the given flow.
func (c *Curve) VoltageAt(flow float64) float64 {
	return c.interpolate(flow, func(s Sample) float64 { return s.Voltage })
}

// SetpointAt returns the interpolated setpoint in the configured mode.
func (c *Curve) SetpointAt(flow float64) float64 {
	if c.mode == ModeVoltage {
		return c.VoltageAt(flow)
	}
	return c.RPMAt(flow)
}

// RequiredFlow computes the volumetric flow in mm^3/s for a rectangular
// extrusion cross-section moving at the given speed (mm widths, mm/s speed).
func RequiredFlow(lineWidth, layerHeight, speed float64) float64 {
	return lineWidth * layerHeight * speed
}

// Feasibility is the outcome of checking one extrusion segment against the
// pump curve.
type Feasibility struct {
	RequiredFlow   float64 // flow the requested speed would need, mm^3/s
	EffectiveFlow  float64 // flow actually commanded after clamping
	RequestedSpeed float64 // mm/s
	EffectiveSpeed float64 // mm/s, equals RequestedSpeed unless clamped
	Setpoint       float64 // pump setpoint in the curve's mode
	Clamped        bool
}

// Check maps a segment's requested speed to a pump setpoint. If the
// required flow exceeds the curve's maximum, the speed is clamped to the
// fastest flow-supportable value and Clamped is set; the clamped speed, not
// the requested one, must drive the downstream motion time model.
func (c *Curve) Check(lineWidth, layerHeight, speed float64) Feasibility {
	required := RequiredFlow(lineWidth, layerHeight, speed)
	f := Feasibility{
		RequiredFlow:   required,
		EffectiveFlow:  required,
		RequestedSpeed: speed,
		EffectiveSpeed: speed,
	}

	if required > c.MaxFlow() {
		f.Clamped = true
		f.EffectiveFlow = c.MaxFlow()
		area := lineWidth * layerHeight
		if area > 0 {
			f.EffectiveSpeed = c.MaxFlow() / area
		} else {
			f.EffectiveSpeed = 0
		}
	}

	f.Setpoint = c.SetpointAt(f.EffectiveFlow)
	return f
}
