package integrators

import (
	"fmt"

	"github.com/san-kum/rmsim/internal/sim"
)

type RK4 struct {
	MaxStep float64

	k1, k2, k3, k4 []float64
	scratch        []float64
}

func NewRK4() *RK4 {
	return &RK4{MaxStep: DefaultMaxStep}
}

func (r *RK4) ensureScratch(n int) {
	if len(r.k1) != n {
		r.k1 = make([]float64, n)
		r.k2 = make([]float64, n)
		r.k3 = make([]float64, n)
		r.k4 = make([]float64, n)
		r.scratch = make([]float64, n)
	}
}

func (r *RK4) Integrate(f sim.Func, x0 []float64, t0, t1 float64) ([]float64, error) {
	steps, h, err := substeps(t0, t1, r.MaxStep)
	if err != nil {
		return nil, err
	}

	n := len(x0)
	r.ensureScratch(n)
	x := make([]float64, n)
	copy(x, x0)

	t := t0
	for s := 0; s < steps; s++ {
		if err := r.step(f, x, t, h); err != nil {
			return nil, err
		}
		if !finite(x) {
			return nil, fmt.Errorf("%w at t=%g", ErrDiverged, t)
		}
		t = t0 + float64(s+1)*h
	}
	return x, nil
}

// step advances x in place by one RK4 step of size dt.
func (r *RK4) step(f sim.Func, x []float64, t, dt float64) error {
	n := len(x)

	if err := f(t, x, r.k1); err != nil {
		return err
	}

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*0.5*r.k1[i]
	}
	if err := f(t+dt*0.5, r.scratch, r.k2); err != nil {
		return err
	}

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*0.5*r.k2[i]
	}
	if err := f(t+dt*0.5, r.scratch, r.k3); err != nil {
		return err
	}

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*r.k3[i]
	}
	if err := f(t+dt, r.scratch, r.k4); err != nil {
		return err
	}

	dt6 := dt / 6.0
	for i := 0; i < n; i++ {
		x[i] += dt6 * (r.k1[i] + 2*r.k2[i] + 2*r.k3[i] + r.k4[i])
	}
	return nil
}
