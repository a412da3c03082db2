// Package toolpath defines the toolpath point model handed to the motion
// engine. Points are produced by the external slicer-output parser; this
// package only models them and provides mechanical JSON ingestion for the
// CLI. The engine treats points as read-only.
package toolpath

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"robotpath/pkg/errors"
	"robotpath/pkg/transform"
)

// LineType tags what kind of slicer line a point belongs to.
type LineType string

const (
	LineWallOuter LineType = "wall_outer"
	LineWallInner LineType = "wall_inner"
	LineInfill    LineType = "infill"
	LineSkirt     LineType = "skirt"
	LineSupport   LineType = "support"
	LineTravel    LineType = "travel"
	LineRetract   LineType = "retract"
	LineProtract  LineType = "protract"
)

// IsTravel reports whether the line carries no extrusion by nature.
func (lt LineType) IsTravel() bool {
	return lt == LineTravel || lt == LineRetract || lt == LineProtract
}

// Point is one toolpath position in the print-bed frame.
type Point struct {
	// Index is the position in the ordered toolpath, assigned on load.
	Index int `json:"index"`

	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`

	Type      LineType `json:"type"`
	Extruding bool     `json:"extruding"`
	Layer     int      `json:"layer"`

	// Extrusion cross-section of the segment ending at this point.
	LineWidth   float64 `json:"line_width,omitempty"`   // mm
	LayerHeight float64 `json:"layer_height,omitempty"` // mm

	// Speed overrides the configured print/travel speed when non-zero.
	Speed float64 `json:"speed,omitempty"` // mm/s
}

// Position returns the point position as a vector in the bed frame.
func (p Point) Position() transform.Vec3 {
	return transform.Vec3{X: p.X, Y: p.Y, Z: p.Z}
}

// Validate checks a single point for malformed data.
func (p Point) Validate() error {
	for _, v := range []float64{p.X, p.Y, p.Z, p.LineWidth, p.LayerHeight, p.Speed} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.ToolpathError(fmt.Sprintf("point %d contains non-finite value", p.Index))
		}
	}
	if p.LineWidth < 0 || p.LayerHeight < 0 || p.Speed < 0 {
		return errors.ToolpathError(fmt.Sprintf("point %d has negative width/height/speed", p.Index))
	}
	if p.Extruding && p.Type.IsTravel() {
		return errors.ToolpathError(fmt.Sprintf("point %d marked extruding on a %s line", p.Index, p.Type))
	}
	return nil
}

// ReadFile loads an ordered toolpath from a JSON array of points, as
// emitted by the slicer-output parser. Indices are assigned from file
// order; every point is validated.
func ReadFile(path string) ([]Point, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrToolpath, fmt.Sprintf("unable to read %s", path))
	}
	return Parse(data)
}

// Parse decodes and validates a JSON toolpath.
func Parse(data []byte) ([]Point, error) {
	var points []Point
	if err := json.Unmarshal(data, &points); err != nil {
		return nil, errors.Wrap(err, errors.ErrToolpath, "malformed toolpath JSON")
	}
	if len(points) == 0 {
		return nil, errors.ToolpathError("toolpath is empty")
	}
	for i := range points {
		points[i].Index = i
		if err := points[i].Validate(); err != nil {
			return nil, err
		}
	}
	return points, nil
}
