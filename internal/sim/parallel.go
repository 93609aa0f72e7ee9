package sim

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/rdasim/internal/dynamo"
)

// Ensemble runs the same parameters over consecutive noise seeds. Runs are
// independent, so they execute concurrently while each run stays sequential.
type Ensemble struct {
	params    Params
	numRuns   int
	seedStart int64
}

func NewEnsemble(p Params, numRuns int, seedStart int64) *Ensemble {
	return &Ensemble{params: p, numRuns: numRuns, seedStart: seedStart}
}

// Run returns the final snapshot of every member, indexed by run.
// The first failure cancels the remaining runs.
func (e *Ensemble) Run(ctx context.Context) ([]Snapshot, error) {
	if e.numRuns <= 0 {
		return nil, dynamo.ConfigError("ensemble needs at least one run, got %d", e.numRuns)
	}
	finals := make([]Snapshot, e.numRuns)
	g, ctx := errgroup.WithContext(ctx)

	for i := 0; i < e.numRuns; i++ {
		idx := i
		g.Go(func() error {
			p := e.params
			p.Init.Seed = e.seedStart + int64(idx)

			d, err := New(p)
			if err != nil {
				return err
			}
			if _, err := d.Run(ctx, nil); err != nil {
				return err
			}
			finals[idx] = d.Snapshot()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return finals, nil
}
