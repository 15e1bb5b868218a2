package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for integration runs. All of them are caller input errors
// except ErrUnstable and ErrCanceled; none are retried.
var (
	// ErrInvalidTimeRange indicates t1 <= t0, dt <= 0, or a non-finite bound.
	ErrInvalidTimeRange = errors.New("dynamo: invalid time range")

	// ErrInvalidMass indicates a zero, negative or non-finite particle mass.
	ErrInvalidMass = errors.New("dynamo: mass must be positive and finite")

	// ErrShapeMismatch indicates x0, v0, mass or a force result disagree with [P,D].
	ErrShapeMismatch = errors.New("dynamo: shape mismatch")

	// ErrNoForce indicates a problem without a force field.
	ErrNoForce = errors.New("dynamo: force field is nil")

	// ErrUnstable indicates the state picked up NaN or Inf values.
	ErrUnstable = errors.New("dynamo: simulation unstable (state diverged)")

	// ErrCanceled indicates the run was interrupted between two steps.
	ErrCanceled = errors.New("dynamo: simulation canceled by context")
)

// SimulationError wraps an error raised inside the integration loop with the
// sample index and time it was detected at.
type SimulationError struct {
	Step    int
	Time    float64
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
