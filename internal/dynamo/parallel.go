package dynamo

import "github.com/exascience/pargo/parallel"

// MinParallelRows is the row count below which ParallelRows runs serially.
const MinParallelRows = 32

// ParallelRows executes fn over the row range [0, n) split into chunks.
// Every call returns only after all chunks finished, so callers may treat
// it as one synchronous pass over the grid.
func ParallelRows(n int, fn func(start, end int)) {
	if n <= MinParallelRows {
		fn(0, n)
		return
	}
	parallel.Range(0, n, 0, fn)
}
