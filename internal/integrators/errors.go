package integrators

import "errors"

var (
	// ErrDiverged indicates the state became NaN or Inf inside an interval.
	ErrDiverged = errors.New("integrators: solution diverged")

	// ErrStepTooSmall indicates adaptive sub-steps shrank below the minimum.
	ErrStepTooSmall = errors.New("integrators: adaptive step below minimum")

	// ErrMaxSteps indicates the sub-step budget for one interval was exhausted.
	ErrMaxSteps = errors.New("integrators: too many sub-steps")

	// ErrInterval indicates t1 < t0.
	ErrInterval = errors.New("integrators: interval end before start")

	// ErrUnknown indicates an unregistered integrator name.
	ErrUnknown = errors.New("integrators: unknown integrator")
)
