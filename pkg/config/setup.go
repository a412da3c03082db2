package config

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"robotpath/pkg/errors"
	"robotpath/pkg/kinematics"
	"robotpath/pkg/pump"
	"robotpath/pkg/transform"
)

// Setup is the fully validated configuration of one planning run: the robot
// model, the bed placement, the pump curve and the planning parameters. The
// CLI maps it onto the pipeline options.
type Setup struct {
	Robot *kinematics.Robot

	// BedToBase maps print-bed coordinates into the robot base frame.
	BedToBase transform.Transform

	// ToolOrientation is the fixed TCP orientation held over the path.
	ToolOrientation transform.Mat3

	// Pump is nil when no [pump] section is configured.
	Pump *pump.Curve

	PrintSpeed  float64
	TravelSpeed float64

	StartJoints kinematics.JointAngles
	EndJoints   *kinematics.JointAngles

	OnFatal string // "abort" or "continue"
	Workers int
}

// LoadSetup reads and validates a configuration file.
func LoadSetup(path string) (*Setup, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	return NewSetup(c)
}

// NewSetup builds a Setup from a parsed configuration.
func NewSetup(c *Config) (*Setup, error) {
	s := &Setup{}

	robot, err := c.GetSection("robot")
	if err != nil {
		return nil, err
	}
	if err := s.loadRobot(c, robot); err != nil {
		return nil, err
	}
	if err := s.loadPlacement(robot); err != nil {
		return nil, err
	}
	if err := s.loadRun(robot); err != nil {
		return nil, err
	}
	if err := s.loadPump(c); err != nil {
		return nil, err
	}
	if err := s.loadPrint(c); err != nil {
		return nil, err
	}
	return s, nil
}

// loadRobot assembles the kinematic model from [robot] and the six
// [joint_aN] sections.
func (s *Setup) loadRobot(c *Config, robot *Section) error {
	var geo kinematics.Geometry
	for _, g := range []struct {
		option string
		dst    *float64
	}{
		{"geometry_a1", &geo.A1},
		{"geometry_a2", &geo.A2},
		{"geometry_b", &geo.B},
		{"geometry_c1", &geo.C1},
		{"geometry_c2", &geo.C2},
		{"geometry_c3", &geo.C3},
		{"geometry_c4", &geo.C4},
	} {
		v, err := robot.GetFloat(g.option)
		if err != nil {
			return err
		}
		*g.dst = v
	}

	var conv kinematics.AxisConvention
	var limits kinematics.Limits
	for i := 0; i < 6; i++ {
		name := fmt.Sprintf("joint_a%d", i+1)
		joint, err := c.GetSection(name)
		if err != nil {
			return err
		}
		sign, err := joint.GetInt("sign", 1)
		if err != nil {
			return err
		}
		if sign != 1 && sign != -1 {
			return errors.ConfigValidationError(name, "sign", "must be 1 or -1")
		}
		conv.Sign[i] = float64(sign)
		if conv.Offset[i], err = joint.GetFloat("offset", 0); err != nil {
			return err
		}
		if limits[i][0], err = joint.GetFloat("min"); err != nil {
			return err
		}
		if limits[i][1], err = joint.GetFloat("max"); err != nil {
			return err
		}
	}

	radius, err := robot.GetFloat("base_radius", 0)
	if err != nil {
		return err
	}
	height, err := robot.GetFloat("base_height", 0)
	if err != nil {
		return err
	}

	offset, err := vec3Option(robot, "tool_offset", transform.Vec3{})
	if err != nil {
		return err
	}

	r, err := kinematics.NewRobot(geo, conv, limits,
		kinematics.BaseCylinder{Radius: radius, Height: height}, offset)
	if err != nil {
		return errors.Wrap(err, errors.ErrGeometry, "invalid robot configuration").SetSection("robot")
	}
	s.Robot = r
	return nil
}

// loadPlacement reads the bed placement and tool orientation.
func (s *Setup) loadPlacement(robot *Section) error {
	pos, err := vec3Option(robot, "base_position", transform.Vec3{})
	if err != nil {
		return err
	}
	rot, err := eulerOption(robot, "base_orientation", transform.Identity())
	if err != nil {
		return err
	}
	s.BedToBase = transform.NewTransform(rot, pos)

	// Default 0, 180, 0: the tool points straight down onto a horizontal bed.
	tool, err := eulerOption(robot, "tool_orientation", transform.RotY(math.Pi))
	if err != nil {
		return err
	}
	s.ToolOrientation = tool
	return nil
}

// loadRun reads the start/end joint states and planner knobs.
func (s *Setup) loadRun(robot *Section) error {
	start, err := jointsOption(robot, "start_joints")
	if err != nil {
		return err
	}
	if start == nil {
		return errors.ConfigOptionError("robot", "start_joints")
	}
	s.StartJoints = *start

	if s.EndJoints, err = jointsOption(robot, "end_joints"); err != nil {
		return err
	}

	if s.OnFatal, err = robot.GetChoice("on_fatal", []string{"abort", "continue"}, "abort"); err != nil {
		return err
	}
	if s.Workers, err = robot.GetInt("workers", 0); err != nil {
		return err
	}
	return nil
}

// loadPump parses the optional [pump] section with its multi-row curve:
//
//	[pump]
//	mode: rpm
//	curve:
//	    0, 0, 0
//	    10, 146, 1
//	    90, 456, 10
//
// Rows are flow, rpm and optionally voltage.
func (s *Setup) loadPump(c *Config) error {
	if !c.HasSection("pump") {
		return nil
	}
	sec, err := c.GetSection("pump")
	if err != nil {
		return err
	}
	modeStr, err := sec.GetChoice("mode", []string{string(pump.ModeRPM), string(pump.ModeVoltage)}, string(pump.ModeRPM))
	if err != nil {
		return err
	}
	rows, err := sec.GetLines("curve")
	if err != nil {
		return err
	}

	samples := make([]pump.Sample, 0, len(rows))
	for _, row := range rows {
		var vals []float64
		for _, part := range strings.Split(row, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			f, err := strconv.ParseFloat(part, 64)
			if err != nil {
				return errors.ConfigTypeError("pump", "curve", part, "float", err)
			}
			vals = append(vals, f)
		}
		sample := pump.Sample{}
		switch len(vals) {
		case 3:
			sample.Voltage = vals[2]
			fallthrough
		case 2:
			sample.Flow = vals[0]
			sample.RPM = vals[1]
		default:
			return errors.ConfigValidationError("pump", "curve",
				fmt.Sprintf("row %q must have 2 or 3 columns (flow, rpm[, voltage])", row))
		}
		samples = append(samples, sample)
	}

	curve, err := pump.NewCurve(samples, pump.Mode(modeStr))
	if err != nil {
		return err
	}
	s.Pump = curve
	return nil
}

// loadPrint reads the [print] speeds.
func (s *Setup) loadPrint(c *Config) error {
	sec, err := c.GetSection("print")
	if err != nil {
		return err
	}
	if s.PrintSpeed, err = sec.GetFloat("speed"); err != nil {
		return err
	}
	if s.PrintSpeed <= 0 {
		return errors.ConfigValidationError("print", "speed", "must be positive")
	}
	if s.TravelSpeed, err = sec.GetFloat("travel_speed", s.PrintSpeed); err != nil {
		return err
	}
	if s.TravelSpeed <= 0 {
		return errors.ConfigValidationError("print", "travel_speed", "must be positive")
	}
	return nil
}

// vec3Option reads a "x, y, z" option.
func vec3Option(sec *Section, option string, fallback transform.Vec3) (transform.Vec3, error) {
	if !sec.HasOption(option) {
		return fallback, nil
	}
	vals, err := sec.GetFloatList(option)
	if err != nil {
		return transform.Vec3{}, err
	}
	if len(vals) != 3 {
		return transform.Vec3{}, errors.ConfigValidationError(sec.Name(), option,
			fmt.Sprintf("expected 3 components, got %d", len(vals)))
	}
	return transform.Vec3{X: vals[0], Y: vals[1], Z: vals[2]}, nil
}

// eulerOption reads an "a, b, c" ZYX Euler option in degrees.
func eulerOption(sec *Section, option string, fallback transform.Mat3) (transform.Mat3, error) {
	if !sec.HasOption(option) {
		return fallback, nil
	}
	vals, err := sec.GetFloatList(option)
	if err != nil {
		return transform.Mat3{}, err
	}
	if len(vals) != 3 {
		return transform.Mat3{}, errors.ConfigValidationError(sec.Name(), option,
			fmt.Sprintf("expected 3 angles, got %d", len(vals)))
	}
	m, err := transform.FromEulerZYX(vals[0], vals[1], vals[2])
	if err != nil {
		return transform.Mat3{}, errors.Wrap(err, errors.ErrConfigValidation, "bad euler angles").
			SetSection(sec.Name()).SetOption(option)
	}
	return m, nil
}

// jointsOption reads a 6-component joint state option, nil when absent.
func jointsOption(sec *Section, option string) (*kinematics.JointAngles, error) {
	if !sec.HasOption(option) {
		return nil, nil
	}
	vals, err := sec.GetFloatList(option)
	if err != nil {
		return nil, err
	}
	if len(vals) != 6 {
		return nil, errors.ConfigValidationError(sec.Name(), option,
			fmt.Sprintf("expected 6 joint angles, got %d", len(vals)))
	}
	var ja kinematics.JointAngles
	copy(ja[:], vals)
	return &ja, nil
}
