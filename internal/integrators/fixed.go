package integrators

import (
	"fmt"
	"math"
)

// DefaultMaxStep bounds the sub-step size of the fixed-step integrators.
const DefaultMaxStep = 0.01

// MaxSubsteps caps the sub-steps of one fixed-step interval.
const MaxSubsteps = math.MaxInt32

// substeps splits [t0, t1] into n equal sub-steps no larger than maxStep.
func substeps(t0, t1, maxStep float64) (int, float64, error) {
	span := t1 - t0
	if span < 0 || math.IsNaN(span) || math.IsInf(span, 0) {
		return 0, 0, fmt.Errorf("%w: [%g, %g]", ErrInterval, t0, t1)
	}
	if span == 0 {
		return 0, 0, nil
	}
	if maxStep <= 0 || maxStep >= span {
		return 1, span, nil
	}
	count := math.Ceil(span / maxStep)
	if math.IsInf(count, 0) || count >= MaxSubsteps {
		return 0, 0, fmt.Errorf("%w: [%g, %g] at max step %g", ErrMaxSteps, t0, t1, maxStep)
	}
	n := int(count)
	return n, span / float64(n), nil
}

func finite(x []float64) bool {
	for _, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
