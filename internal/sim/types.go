package sim

import (
	"fmt"
	"math"

	"github.com/san-kum/rdasim/internal/advection"
	"github.com/san-kum/rdasim/internal/dynamo"
	"github.com/san-kum/rdasim/internal/grid"
	"github.com/san-kum/rdasim/internal/physics"
)

// StabilityLimit bounds dt*max(D_G, D_R)/h² for the explicit 5-point scheme.
const StabilityLimit = 0.25

// InitParams describes the seeded initial condition.
type InitParams struct {
	BaseG, BaseR float64
	// PatchRadius is the half-width in cells of the square patch at the
	// domain center that is set to (PatchG, PatchR). Zero disables it.
	PatchRadius    int
	PatchG, PatchR float64
	// Noise is the half-width of the uniform noise added to both fields.
	Noise float64
	Seed  int64
}

func DefaultInit() InitParams {
	return InitParams{BaseG: 1, BaseR: 0, PatchRadius: 10, PatchG: 0.5, PatchR: 0.25, Noise: 0.05}
}

// Params is the full parameter set of one run. A Driver copies it on
// construction and never changes it afterwards.
type Params struct {
	Grid  grid.Grid
	Model physics.StonerTuring
	// Rotation is nil for a run without advection.
	Rotation      *advection.Rotation
	Backtrack     string
	Init          InitParams
	Dt            float64
	Steps         int
	SnapshotEvery int
}

// MaxStableDt is the largest time step allowed for the configured diffusion.
func (p Params) MaxStableDt() float64 {
	d := p.Model.MaxDiffusion()
	if d == 0 {
		return math.Inf(1)
	}
	return StabilityLimit * p.Grid.Spacing * p.Grid.Spacing / d
}

func (p Params) Validate() error {
	if err := p.Grid.Validate(); err != nil {
		return err
	}
	if err := p.Model.Validate(); err != nil {
		return err
	}
	if p.Rotation != nil {
		if err := p.Rotation.Validate(); err != nil {
			return err
		}
	}
	if !(p.Dt > 0) || math.IsInf(p.Dt, 0) {
		return dynamo.ConfigError("dt must be positive, got %g", p.Dt)
	}
	if p.Steps <= 0 {
		return dynamo.ConfigError("steps must be positive, got %d", p.Steps)
	}
	if p.SnapshotEvery <= 0 {
		return dynamo.ConfigError("snapshot interval must be positive, got %d", p.SnapshotEvery)
	}
	if p.Init.PatchRadius < 0 {
		return dynamo.ConfigError("patch radius must be non-negative, got %d", p.Init.PatchRadius)
	}
	if !(p.Init.Noise >= 0) || math.IsInf(p.Init.Noise, 0) {
		return dynamo.ConfigError("noise amplitude must be finite and non-negative, got %g", p.Init.Noise)
	}
	if p.Dt >= p.MaxStableDt() {
		return fmt.Errorf("%w: %w: dt=%g, max(D)=%g, spacing=%g (dt must stay below %g)",
			dynamo.ErrInvalidConfig, dynamo.ErrUnstable, p.Dt, p.Model.MaxDiffusion(), p.Grid.Spacing, p.MaxStableDt())
	}
	return nil
}

// Snapshot is an independent copy of both fields after Step steps.
// Receivers own it; nothing in this package writes to it after creation.
type Snapshot struct {
	Step int
	Time float64
	G, R *grid.Field
}

// SnapshotFunc receives every sampled snapshot. Returning an error aborts the run.
type SnapshotFunc func(Snapshot) error

type Result struct {
	StepsTaken int
	Snapshots  int
	MeanG      float64
	MeanR      float64
}
