package integrators

import (
	"github.com/san-kum/rdasim/internal/dynamo"
	"github.com/san-kum/rdasim/internal/grid"
	"github.com/san-kum/rdasim/internal/physics"
)

// Euler advances the reaction–diffusion system by one explicit step.
// It keeps its own Laplacian scratch buffers and writes into caller-owned
// output fields, so the inputs are read in full before anything is written.
type Euler struct {
	model      *physics.StonerTuring
	lapG, lapR *grid.Field
}

func NewEuler(model *physics.StonerTuring, g grid.Grid) *Euler {
	return &Euler{model: model, lapG: grid.NewField(g), lapR: grid.NewField(g)}
}

// Step computes (gOut, rOut) = (g, r) + dt * rates(g, r).
// gOut and rOut must not alias g or r.
func (e *Euler) Step(g, r, gOut, rOut *grid.Field, dt float64) error {
	for _, f := range []*grid.Field{r, gOut, rOut, e.lapG} {
		if !g.SameShape(f) {
			return dynamo.ErrDimensionMismatch
		}
	}
	if err := grid.Laplacian(e.lapG, g); err != nil {
		return err
	}
	if err := grid.Laplacian(e.lapR, r); err != nil {
		return err
	}

	m := e.model
	w := g.Grid().W
	dynamo.ParallelRows(g.Grid().H, func(start, end int) {
		for j := start; j < end; j++ {
			gRow, rRow := g.Row(j), r.Row(j)
			lg, lr := e.lapG.Row(j), e.lapR.Row(j)
			gNext, rNext := gOut.Row(j), rOut.Row(j)
			for i := 0; i < w; i++ {
				dg, dr := m.Rates(gRow[i], rRow[i], lg[i], lr[i])
				gNext[i] = gRow[i] + dt*dg
				rNext[i] = rRow[i] + dt*dr
			}
		}
	})
	return nil
}
