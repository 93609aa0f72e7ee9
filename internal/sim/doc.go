// Package sim drives a reaction–diffusion–advection run.
//
// A [Driver] validates its [Params] once, seeds the fields and then
// repeats one iteration per step: the explicit Euler reaction–diffusion
// pass followed by semi-Lagrangian advection of both fields. Every
// SnapshotEvery steps the callback receives an independent [Snapshot].
//
//	d, err := sim.New(params)
//	if err != nil {
//	    return err // configuration or stability error, nothing ran
//	}
//	_, err = d.Run(ctx, func(s sim.Snapshot) error {
//	    return store.SaveSnapshot(runID, s)
//	})
//
// # Thread Safety
//
// A Driver is NOT safe for concurrent use and steps strictly in sequence.
// Snapshots may be shared freely. Use [Ensemble] for concurrent runs.
package sim
