package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrInvalidConfig indicates a parameter set that failed validation.
	ErrInvalidConfig = errors.New("dynamo: invalid configuration")

	// ErrUnstable indicates dt violates the explicit diffusion stability bound.
	ErrUnstable = errors.New("dynamo: time step exceeds diffusion stability bound")

	// ErrDiverged indicates a field value became NaN or Inf during a step.
	ErrDiverged = errors.New("dynamo: simulation diverged (NaN or Inf detected)")

	// ErrDimensionMismatch indicates fields defined on different grids.
	ErrDimensionMismatch = errors.New("dynamo: field dimensions do not match")

	// ErrCallback indicates the snapshot callback returned an error.
	ErrCallback = errors.New("dynamo: snapshot callback failed")
)

// SimulationError wraps an error with the step at which it happened.
type SimulationError struct {
	Step    int
	Field   string
	Wrapped error
}

func (e *SimulationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("step %d (%s): %v", e.Step, e.Field, e.Wrapped)
	}
	return fmt.Sprintf("step %d: %v", e.Step, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}

// ConfigError reports a rejected parameter. It matches ErrInvalidConfig with errors.Is.
func ConfigError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}
