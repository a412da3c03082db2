// Package pipeline runs the motion-feasibility engine over an ordered
// toolpath: a parallel per-point inverse-kinematics pass followed by a
// strictly sequential continuity fold that selects one branch per point,
// checks pump feasibility per segment and aggregates validation findings.
//
// The split matters for determinism. Per-point IK is a pure function of the
// target pose and may run on any number of workers; branch selection depends
// on the previously accepted joint state and must walk the toolpath in
// order. The same input always yields the same plan regardless of worker
// count.
package pipeline

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"robotpath/pkg/errors"
	"robotpath/pkg/kinematics"
	"robotpath/pkg/log"
	"robotpath/pkg/pump"
	"robotpath/pkg/report"
	"robotpath/pkg/toolpath"
	"robotpath/pkg/transform"
)

// FatalPolicy decides what a fatal finding does to the rest of the run.
type FatalPolicy string

const (
	// AbortOnFatal stops planning at the first fatal finding. All findings
	// recorded up to that point are kept.
	AbortOnFatal FatalPolicy = "abort"

	// ContinueOnFatal records the finding, skips the point and keeps going,
	// producing a full defect map of the toolpath in one run.
	ContinueOnFatal FatalPolicy = "continue"
)

// Options configures a Planner. Robot, PrintSpeed and TravelSpeed are
// required; zero values elsewhere select documented defaults.
type Options struct {
	Robot *kinematics.Robot

	// BedToBase maps toolpath points from the print-bed frame into the
	// robot base frame.
	BedToBase transform.Transform

	// ToolOrientation is the fixed TCP orientation in the base frame held
	// over the whole path.
	ToolOrientation transform.Mat3

	// Pump is the characteristic curve for feasibility checks; nil disables
	// them.
	Pump *pump.Curve

	PrintSpeed  float64 // mm/s for extrusion segments without an override
	TravelSpeed float64 // mm/s for travel segments without an override

	// StartJoints seeds branch selection (controller convention). It must
	// be a valid robot state.
	StartJoints kinematics.JointAngles

	// EndJoints, when set, is the park state the robot moves to after the
	// path. It is validated up front like StartJoints.
	EndJoints *kinematics.JointAngles

	OnFatal FatalPolicy // default AbortOnFatal
	Workers int         // default runtime.NumCPU()
}

// PointResult is the planned outcome for one toolpath point.
type PointResult struct {
	Index    int  `json:"index"`
	Accepted bool `json:"accepted"`

	// Branch is the accepted IK branch code, or -1 when rejected.
	Branch int                    `json:"branch"`
	Joints kinematics.JointAngles `json:"joints"`

	// Target is the point position in the robot base frame, mm.
	Target [3]float64 `json:"target"`

	// Speed is the effective feed speed after any pump clamping, mm/s.
	Speed    float64 `json:"speed"`
	Setpoint float64 `json:"setpoint,omitempty"`
	Clamped  bool    `json:"clamped,omitempty"`
}

// Result is the outcome of a planning run.
type Result struct {
	Points  []PointResult  `json:"points"`
	Report  *report.Report `json:"findings"`
	Aborted bool           `json:"aborted"`
}

// Accepted returns the number of points with an accepted joint state.
func (r *Result) Accepted() int {
	n := 0
	for _, p := range r.Points {
		if p.Accepted {
			n++
		}
	}
	return n
}

// Planner converts toolpaths into validated joint sequences.
type Planner struct {
	opts Options
	log  *log.Logger
}

// New validates the options and builds a Planner. The configured start and
// end joint states are checked against limits and the base exclusion
// cylinder here, before any toolpath is touched.
func New(opts Options) (*Planner, error) {
	if opts.Robot == nil {
		return nil, errors.RuntimeError("planner needs a robot")
	}
	if opts.PrintSpeed <= 0 || opts.TravelSpeed <= 0 {
		return nil, errors.RuntimeError(fmt.Sprintf(
			"print and travel speeds must be positive, got %.3f / %.3f",
			opts.PrintSpeed, opts.TravelSpeed))
	}
	switch opts.OnFatal {
	case "":
		opts.OnFatal = AbortOnFatal
	case AbortOnFatal, ContinueOnFatal:
	default:
		return nil, errors.RuntimeError(fmt.Sprintf("unknown on_fatal policy %q", opts.OnFatal))
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}

	if _, err := opts.Robot.ForwardChecked(opts.StartJoints); err != nil {
		return nil, errors.Wrap(err, errors.ErrRuntime, "start joint state invalid")
	}
	if opts.EndJoints != nil {
		if _, err := opts.Robot.ForwardChecked(*opts.EndJoints); err != nil {
			return nil, errors.Wrap(err, errors.ErrRuntime, "end joint state invalid")
		}
	}

	return &Planner{opts: opts, log: log.GetLogger("pipeline")}, nil
}

// candidates is the pass-1 output for one point.
type candidates struct {
	target   transform.Vec3
	collides bool
	sol      kinematics.Solution
}

// Plan runs both passes over the toolpath.
func (p *Planner) Plan(ctx context.Context, points []toolpath.Point) (*Result, error) {
	if len(points) == 0 {
		return nil, errors.ToolpathError("nothing to plan: toolpath is empty")
	}

	p.log.WithFields(log.INFO, log.Fields{
		"points":  len(points),
		"workers": p.opts.Workers,
		"onFatal": string(p.opts.OnFatal),
	}, "planning toolpath")

	cands, err := p.solveAll(ctx, points)
	if err != nil {
		return nil, err
	}
	res := p.fold(points, cands)

	p.log.WithFields(log.INFO, log.Fields{
		"accepted": res.Accepted(),
		"points":   len(points),
		"aborted":  res.Aborted,
	}, res.Report.Summary())
	return res, nil
}

// solveAll is the parallel pass: per-point frame transform, self-collision
// check and 8-branch IK. Results are index-addressed, so worker scheduling
// cannot reorder them.
func (p *Planner) solveAll(ctx context.Context, points []toolpath.Point) ([]candidates, error) {
	out := make([]candidates, len(points))
	idx := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < p.opts.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range idx {
				target := p.opts.BedToBase.Apply(points[i].Position())
				out[i] = candidates{
					target:   target,
					collides: p.opts.Robot.Base.Contains(target),
					sol:      p.opts.Robot.Inverse(transform.NewTransform(p.opts.ToolOrientation, target)),
				}
			}
		}()
	}

feed:
	for i := range points {
		select {
		case idx <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(idx)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrRuntime, "planning cancelled")
	}
	return out, nil
}

// fold is the sequential pass: branch selection against the previous joint
// state, pump feasibility and finding aggregation.
func (p *Planner) fold(points []toolpath.Point, cands []candidates) *Result {
	sel := kinematics.NewSelector(p.opts.StartJoints, p.opts.Robot.Limits)
	res := &Result{Report: report.New()}

	for i := range points {
		pt := &points[i]
		c := &cands[i]
		pr := PointResult{
			Index:  pt.Index,
			Branch: report.NoBranch,
			Target: [3]float64{c.target.X, c.target.Y, c.target.Z},
		}

		if c.collides {
			res.Points = append(res.Points, pr)
			if p.fatal(res, pt, c, report.SelfCollision, fmt.Sprintf(
				"target inside base exclusion cylinder (radius %.1f)", p.opts.Robot.Base.Radius)) {
				return res
			}
			continue
		}

		branch, rej := sel.Pick(&c.sol)
		if rej != nil {
			res.Points = append(res.Points, pr)
			code := report.Unreachable
			if rej.Reason == kinematics.RejectNoContinuous {
				code = report.NoContinuousSolution
			}
			if p.fatal(res, pt, c, code, rej.Detail) {
				return res
			}
			continue
		}

		pr.Accepted = true
		pr.Branch = int(branch.Code)
		pr.Joints = branch.Controller
		pr.Speed = p.speedFor(pt)

		if pt.Extruding && p.opts.Pump != nil {
			feas := p.opts.Pump.Check(pt.LineWidth, pt.LayerHeight, pr.Speed)
			pr.Speed = feas.EffectiveSpeed
			pr.Setpoint = feas.Setpoint
			pr.Clamped = feas.Clamped
			if feas.Clamped {
				res.Report.Add(report.Finding{
					Code:       report.PumpCapacityExceeded,
					Severity:   report.Warning,
					PointIndex: pt.Index,
					Position:   pr.Target,
					BranchCode: pr.Branch,
					Message: fmt.Sprintf(
						"required flow %.2f exceeds pump maximum %.2f, speed clamped %.3f -> %.3f mm/s",
						feas.RequiredFlow, feas.EffectiveFlow, feas.RequestedSpeed, feas.EffectiveSpeed),
				})
			}
		}
		res.Points = append(res.Points, pr)
	}

	if p.opts.EndJoints != nil {
		p.log.Debug("final move to park state costs %.1f deg",
			kinematics.MoveCost(sel.Previous(), *p.opts.EndJoints))
	}
	return res
}

// fatal records a fatal finding and reports whether planning must stop.
func (p *Planner) fatal(res *Result, pt *toolpath.Point, c *candidates, code report.Code, msg string) bool {
	f := report.Finding{
		Code:       code,
		Severity:   report.Fatal,
		PointIndex: pt.Index,
		Position:   [3]float64{c.target.X, c.target.Y, c.target.Z},
		BranchCode: report.NoBranch,
		Message:    msg,
	}
	res.Report.Add(f)
	p.log.WithFields(log.ERROR, log.Fields{"point": pt.Index, "code": string(code)}, msg)

	if p.opts.OnFatal == AbortOnFatal {
		res.Aborted = true
		return true
	}
	return false
}

// speedFor resolves the requested feed speed for a point: an explicit
// per-point override wins, otherwise travel lines get the travel speed and
// everything else the print speed.
func (p *Planner) speedFor(pt *toolpath.Point) float64 {
	if pt.Speed > 0 {
		return pt.Speed
	}
	if pt.Type.IsTravel() || !pt.Extruding {
		return p.opts.TravelSpeed
	}
	return p.opts.PrintSpeed
}
