// Package dynamo provides the primitives shared by every stage of a
// reaction–diffusion–advection run.
//
//   - error values: [ErrInvalidConfig], [ErrUnstable], [ErrDiverged], [ErrCallback]
//   - [SimulationError]: an error annotated with the failing step index
//   - [ParallelRows]: synchronous row-parallel loop used by grid-wide passes
//
// # Errors
//
// Every error returned by the numeric core matches one of the sentinel
// values with [errors.Is]. Divergence carries the step index:
//
//	var serr *dynamo.SimulationError
//	if errors.As(err, &serr) {
//	    fmt.Println("diverged at step", serr.Step)
//	}
package dynamo
