package sim

import (
	"context"
	"fmt"

	"github.com/san-kum/rdasim/internal/advection"
	"github.com/san-kum/rdasim/internal/dynamo"
	"github.com/san-kum/rdasim/internal/grid"
	"github.com/san-kum/rdasim/internal/integrators"
)

// Driver owns the live field pair and advances it by operator splitting:
// a full reaction–diffusion pass, then a full advection pass.
type Driver struct {
	params  Params
	stepper *integrators.Euler
	adv     *advection.SemiLagrangian

	g, r   *grid.Field
	g1, r1 *grid.Field
	g2, r2 *grid.Field
	step   int
}

// New validates p and seeds the initial fields. No step runs on error.
func New(p Params) (*Driver, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.Rotation != nil {
		rot := *p.Rotation
		p.Rotation = &rot
	}
	model := p.Model

	var vel advection.VelocityField = advection.Still
	if p.Rotation != nil {
		vel = p.Rotation
	}
	adv, err := advection.New(vel, p.Backtrack)
	if err != nil {
		return nil, err
	}

	d := &Driver{
		params:  p,
		stepper: integrators.NewEuler(&model, p.Grid),
		adv:     adv,
		g1:      grid.NewField(p.Grid),
		r1:      grid.NewField(p.Grid),
		g2:      grid.NewField(p.Grid),
		r2:      grid.NewField(p.Grid),
	}
	d.g, d.r = InitialFields(p.Grid, p.Init)
	return d, nil
}

func (d *Driver) Params() Params { return d.params }

// Step returns the number of committed steps.
func (d *Driver) Step() int { return d.step }

func (d *Driver) Time() float64 { return float64(d.step) * d.params.Dt }

func (d *Driver) Done() bool { return d.step >= d.params.Steps }

// Snapshot copies the committed state.
func (d *Driver) Snapshot() Snapshot {
	return Snapshot{Step: d.step, Time: d.Time(), G: d.g.Clone(), R: d.r.Clone()}
}

// Restore replaces the live state with s so an interrupted run can resume.
func (d *Driver) Restore(s Snapshot) error {
	if s.G == nil || s.R == nil || !s.G.SameShape(d.g) || !s.R.SameShape(d.r) {
		return dynamo.ErrDimensionMismatch
	}
	if s.Step < 0 || s.Step > d.params.Steps {
		return dynamo.ConfigError("snapshot step %d outside run of %d steps", s.Step, d.params.Steps)
	}
	if err := d.g.CopyFrom(s.G); err != nil {
		return err
	}
	if err := d.r.CopyFrom(s.R); err != nil {
		return err
	}
	d.step = s.Step
	return nil
}

// Advance performs one iteration. The live fields change only after both
// passes finished and the result is finite, so a divergence leaves the
// last committed state in place.
func (d *Driver) Advance() error {
	next := d.step + 1
	dt := d.params.Dt

	if err := d.stepper.Step(d.g, d.r, d.g1, d.r1, dt); err != nil {
		return &dynamo.SimulationError{Step: next, Wrapped: err}
	}
	if err := d.adv.Advect(d.g2, d.g1, dt); err != nil {
		return &dynamo.SimulationError{Step: next, Field: "G", Wrapped: err}
	}
	if err := d.adv.Advect(d.r2, d.r1, dt); err != nil {
		return &dynamo.SimulationError{Step: next, Field: "R", Wrapped: err}
	}

	if !d.g2.IsFinite() {
		return &dynamo.SimulationError{Step: next, Field: "G", Wrapped: dynamo.ErrDiverged}
	}
	if !d.r2.IsFinite() {
		return &dynamo.SimulationError{Step: next, Field: "R", Wrapped: dynamo.ErrDiverged}
	}

	d.g, d.g2 = d.g2, d.g
	d.r, d.r2 = d.r2, d.r
	d.step = next
	return nil
}

// Run advances until the configured step count and hands fn a snapshot
// every SnapshotEvery steps. ctx is checked between steps only. A failing
// callback aborts the run after its step has been committed.
func (d *Driver) Run(ctx context.Context, fn SnapshotFunc) (*Result, error) {
	result := &Result{}
	start := d.step

	for !d.Done() {
		select {
		case <-ctx.Done():
			return d.finish(result, start), ctx.Err()
		default:
		}

		if err := d.Advance(); err != nil {
			return d.finish(result, start), err
		}

		if d.step%d.params.SnapshotEvery == 0 {
			result.Snapshots++
			if fn == nil {
				continue
			}
			if err := fn(d.Snapshot()); err != nil {
				return d.finish(result, start), &dynamo.SimulationError{
					Step:    d.step,
					Wrapped: fmt.Errorf("%w: %w", dynamo.ErrCallback, err),
				}
			}
		}
	}
	return d.finish(result, start), nil
}

// Collect runs to completion and returns every sampled snapshot.
func (d *Driver) Collect(ctx context.Context) ([]Snapshot, error) {
	var snaps []Snapshot
	_, err := d.Run(ctx, func(s Snapshot) error {
		snaps = append(snaps, s)
		return nil
	})
	return snaps, err
}

func (d *Driver) finish(r *Result, start int) *Result {
	r.StepsTaken = d.step - start
	r.MeanG = d.g.Mean()
	r.MeanR = d.r.Mean()
	return r
}
