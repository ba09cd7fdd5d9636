package integrators

import (
	"fmt"

	"github.com/san-kum/rmsim/internal/sim"
)

type Euler struct {
	MaxStep float64
	dx      []float64
}

func NewEuler() *Euler {
	return &Euler{MaxStep: DefaultMaxStep}
}

func (e *Euler) Integrate(f sim.Func, x0 []float64, t0, t1 float64) ([]float64, error) {
	n, h, err := substeps(t0, t1, e.MaxStep)
	if err != nil {
		return nil, err
	}

	x := make([]float64, len(x0))
	copy(x, x0)
	if len(e.dx) != len(x) {
		e.dx = make([]float64, len(x))
	}

	t := t0
	for s := 0; s < n; s++ {
		if err := f(t, x, e.dx); err != nil {
			return nil, err
		}
		for i := range x {
			x[i] += h * e.dx[i]
		}
		if !finite(x) {
			return nil, fmt.Errorf("%w at t=%g", ErrDiverged, t)
		}
		t = t0 + float64(s+1)*h
	}
	return x, nil
}
