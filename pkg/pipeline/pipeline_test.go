package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"robotpath/pkg/kinematics"
	"robotpath/pkg/pump"
	"robotpath/pkg/report"
	"robotpath/pkg/toolpath"
	"robotpath/pkg/transform"
)

// toolDown holds the TCP pointing straight down, the printing orientation
// for a horizontal bed.
var toolDown = transform.Mat3{{-1, 0, 0}, {0, 1, 0}, {0, 0, -1}}

func testArm(t *testing.T) *kinematics.Robot {
	t.Helper()
	r, err := kinematics.NewRobot(
		kinematics.Geometry{A1: 500, A2: 55, B: 0, C1: 1045, C2: 1300, C3: 1525, C4: 290},
		kinematics.AxisConvention{
			Sign:   [6]float64{-1, 1, 1, -1, 1, -1},
			Offset: [6]float64{0, -90, 0, 0, 0, 0},
		},
		kinematics.Limits{
			{-185, 185}, {-130, 20}, {-100, 144}, {-350, 350}, {-120, 120}, {-350, 350},
		},
		kinematics.BaseCylinder{Radius: 400},
		transform.Vec3{},
	)
	require.NoError(t, err)
	return r
}

func testCurve(t *testing.T) *pump.Curve {
	t.Helper()
	c, err := pump.NewCurve([]pump.Sample{
		{Flow: 0, RPM: 0, Voltage: 0},
		{Flow: 10, RPM: 146, Voltage: 1},
		{Flow: 90, RPM: 456, Voltage: 10},
	}, pump.ModeRPM)
	require.NoError(t, err)
	return c
}

// testPlanner builds a planner over the reference arm with points given
// directly in the base frame (identity bed transform).
func testPlanner(t *testing.T, mutate func(*Options)) *Planner {
	t.Helper()
	opts := Options{
		Robot:           testArm(t),
		BedToBase:       transform.IdentityTransform(),
		ToolOrientation: toolDown,
		Pump:            testCurve(t),
		PrintSpeed:      0.25,
		TravelSpeed:     1.0,
		StartJoints:     kinematics.JointAngles{0, -90, 90, 0, 90, 0},
		Workers:         2,
	}
	if mutate != nil {
		mutate(&opts)
	}
	p, err := New(opts)
	require.NoError(t, err)
	return p
}

func extrPoint(index int, x, y, z float64) toolpath.Point {
	return toolpath.Point{
		Index: index, X: x, Y: y, Z: z,
		Type: toolpath.LineWallOuter, Extruding: true,
		LineWidth: 8, LayerHeight: 4,
	}
}

// printable targets near the reference pose (2025, 0, 2000), well inside
// the workspace with the tool pointing down.
func testPath() []toolpath.Point {
	pts := []toolpath.Point{
		{Index: 0, X: 2025, Y: 0, Z: 1900, Type: toolpath.LineTravel},
	}
	for i := 1; i <= 4; i++ {
		pts = append(pts, extrPoint(i, 2025+float64(i)*10, float64(i)*10, 1900.4))
	}
	return pts
}

func TestPlanAcceptsReachablePath(t *testing.T) {
	p := testPlanner(t, nil)
	res, err := p.Plan(context.Background(), testPath())
	require.NoError(t, err)

	assert.False(t, res.Aborted)
	assert.False(t, res.Report.HasFatal())
	assert.Equal(t, len(testPath()), res.Accepted())
	for _, pr := range res.Points {
		assert.True(t, pr.Accepted, "point %d", pr.Index)
		assert.True(t, pr.Joints.IsFinite(), "point %d", pr.Index)
		assert.GreaterOrEqual(t, pr.Branch, 0, "point %d", pr.Index)
	}
}

func TestPlanKeepsContinuity(t *testing.T) {
	p := testPlanner(t, nil)
	res, err := p.Plan(context.Background(), testPath())
	require.NoError(t, err)

	prev := kinematics.JointAngles{0, -90, 90, 0, 90, 0}
	for _, pr := range res.Points {
		// Targets 10-15 mm apart on a 2 m arm: the accepted branch must stay
		// close to the previous joint state, never jump configurations.
		assert.Less(t, kinematics.MoveCost(prev, pr.Joints), 30.0, "point %d", pr.Index)
		prev = pr.Joints
	}
}

func TestPlanSpeedsAndSetpoints(t *testing.T) {
	p := testPlanner(t, nil)
	res, err := p.Plan(context.Background(), testPath())
	require.NoError(t, err)

	travel := res.Points[0]
	assert.InDelta(t, 1.0, travel.Speed, 1e-12, "travel speed applies")
	assert.Zero(t, travel.Setpoint, "no pump setpoint on travel")

	// 8x4 mm cross-section at 0.25 mm/s: 8 mm^3/s, below the first curve
	// sample pair boundary, RPM interpolates to 146*0.8.
	print := res.Points[1]
	assert.InDelta(t, 0.25, print.Speed, 1e-12)
	assert.InDelta(t, 116.8, print.Setpoint, 1e-9)
	assert.False(t, print.Clamped)
}

func TestPlanClampsOverCapacity(t *testing.T) {
	p := testPlanner(t, nil)
	pts := testPath()
	// 8x4 mm at 5 mm/s needs 160 mm^3/s, above the 90 mm^3/s maximum.
	pts[2].Speed = 5

	res, err := p.Plan(context.Background(), pts)
	require.NoError(t, err)

	assert.False(t, res.Aborted)
	clamped := res.Points[2]
	assert.True(t, clamped.Clamped)
	assert.InDelta(t, 90.0/32.0, clamped.Speed, 1e-9)
	assert.InDelta(t, 456, clamped.Setpoint, 1e-9)

	warnings := res.Report.Warnings()
	require.Len(t, warnings, 1)
	assert.Equal(t, report.PumpCapacityExceeded, warnings[0].Code)
	assert.Equal(t, 2, warnings[0].PointIndex)
}

func TestPlanSelfCollisionAborts(t *testing.T) {
	p := testPlanner(t, nil)
	pts := testPath()
	// Inside the 400 mm exclusion radius below shoulder height.
	pts[2] = toolpath.Point{Index: 2, X: 100, Y: 0, Z: 500, Type: toolpath.LineTravel}

	res, err := p.Plan(context.Background(), pts)
	require.NoError(t, err)

	assert.True(t, res.Aborted)
	assert.Len(t, res.Points, 3, "planning stops at the colliding point")
	assert.False(t, res.Points[2].Accepted)

	fatal := res.Report.Fatal()
	require.Len(t, fatal, 1)
	assert.Equal(t, report.SelfCollision, fatal[0].Code)
	assert.Equal(t, 2, fatal[0].PointIndex)
}

func TestPlanUnreachableWithContinuePolicy(t *testing.T) {
	p := testPlanner(t, func(o *Options) { o.OnFatal = ContinueOnFatal })
	pts := testPath()
	pts[2] = toolpath.Point{Index: 2, X: 8000, Y: 0, Z: 2000, Type: toolpath.LineTravel}

	res, err := p.Plan(context.Background(), pts)
	require.NoError(t, err)

	assert.False(t, res.Aborted)
	assert.Len(t, res.Points, len(pts), "continue policy walks the whole path")
	assert.Equal(t, len(pts)-1, res.Accepted())

	fatal := res.Report.Fatal()
	require.Len(t, fatal, 1)
	assert.Equal(t, report.Unreachable, fatal[0].Code)
	assert.Equal(t, 2, fatal[0].PointIndex)
}

func TestPlanDeterministicAcrossWorkerCounts(t *testing.T) {
	single := testPlanner(t, func(o *Options) { o.Workers = 1 })
	many := testPlanner(t, func(o *Options) { o.Workers = 8 })

	r1, err := single.Plan(context.Background(), testPath())
	require.NoError(t, err)
	r2, err := many.Plan(context.Background(), testPath())
	require.NoError(t, err)

	require.Equal(t, len(r1.Points), len(r2.Points))
	for i := range r1.Points {
		assert.Equal(t, r1.Points[i], r2.Points[i], "point %d", i)
	}
}

func TestNewRejectsBadOptions(t *testing.T) {
	base := func() Options {
		return Options{
			Robot:           testArm(t),
			BedToBase:       transform.IdentityTransform(),
			ToolOrientation: toolDown,
			PrintSpeed:      0.25,
			TravelSpeed:     1.0,
			StartJoints:     kinematics.JointAngles{0, -90, 90, 0, 90, 0},
		}
	}

	o := base()
	o.Robot = nil
	_, err := New(o)
	assert.Error(t, err)

	o = base()
	o.PrintSpeed = 0
	_, err = New(o)
	assert.Error(t, err)

	o = base()
	o.OnFatal = FatalPolicy("panic")
	_, err = New(o)
	assert.Error(t, err)

	// A2 limit is 20: the start state must be a valid robot state.
	o = base()
	o.StartJoints = kinematics.JointAngles{0, 21, 90, 0, 90, 0}
	_, err = New(o)
	assert.Error(t, err)

	o = base()
	bad := kinematics.JointAngles{0, 21, 90, 0, 90, 0}
	o.EndJoints = &bad
	_, err = New(o)
	assert.Error(t, err)
}

func TestPlanRejectsEmptyToolpath(t *testing.T) {
	p := testPlanner(t, nil)
	_, err := p.Plan(context.Background(), nil)
	assert.Error(t, err)
}
