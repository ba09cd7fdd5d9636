package sim

import (
	"errors"
	"fmt"
)

// Domain errors for simulation runs.
var (
	// ErrInvalidState indicates the integrator produced NaN or Inf.
	ErrInvalidState = errors.New("sim: invalid state (NaN or Inf detected)")

	// ErrInvalidSettings indicates settings that cannot form a time grid.
	ErrInvalidSettings = errors.New("sim: invalid settings")

	// ErrDimensionMismatch indicates the integrator returned the wrong number of states.
	ErrDimensionMismatch = errors.New("sim: dimension mismatch between integrator output and model state")

	// ErrNoModel indicates a simulator built without a model definition.
	ErrNoModel = errors.New("sim: no model definition")

	// ErrNoIntegrator indicates a simulator built without an integrator.
	ErrNoIntegrator = errors.New("sim: no integrator")
)

// SimulationError wraps a failure with the step at which the run aborted.
type SimulationError struct {
	Step    int
	Time    float64
	State   []float64
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
