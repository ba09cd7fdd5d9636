package integrators

import (
	"fmt"
	"math"

	"github.com/san-kum/rmsim/internal/sim"
)

// Dormand-Prince coefficients (RK45)
var (
	a2 = 1.0 / 5.0
	a3 = 3.0 / 10.0
	a4 = 4.0 / 5.0
	a5 = 8.0 / 9.0

	b21 = 1.0 / 5.0
	b31 = 3.0 / 40.0
	b32 = 9.0 / 40.0
	b41 = 44.0 / 45.0
	b42 = -56.0 / 15.0
	b43 = 32.0 / 9.0
	b51 = 19372.0 / 6561.0
	b52 = -25360.0 / 2187.0
	b53 = 64448.0 / 6561.0
	b54 = -212.0 / 729.0
	b61 = 9017.0 / 3168.0
	b62 = -355.0 / 33.0
	b63 = 46732.0 / 5247.0
	b64 = 49.0 / 176.0
	b65 = -5103.0 / 18656.0

	c1 = 35.0 / 384.0
	c3 = 500.0 / 1113.0
	c4 = 125.0 / 192.0
	c5 = -2187.0 / 6784.0
	c6 = 11.0 / 84.0

	dc1 = c1 - 5179.0/57600.0
	dc3 = c3 - 7571.0/16695.0
	dc4 = c4 - 393.0/640.0
	dc5 = c5 - -92097.0/339200.0
	dc6 = c6 - 187.0/2100.0
	dc7 = -1.0 / 40.0
)

type RK45 struct {
	Tolerance   float64
	MinStep     float64
	MaxStep     float64 // 0 means the whole interval
	MaxSubsteps int

	safety   float64
	minScale float64
	maxScale float64
}

func NewRK45() *RK45 {
	return &RK45{
		Tolerance:   1e-6,
		MinStep:     1e-10,
		MaxSubsteps: 100000,
		safety:      0.9,
		minScale:    0.2,
		maxScale:    10.0,
	}
}

// Integrate advances x0 across [t0, t1], adapting the sub-step to keep the
// embedded error estimate below Tolerance.
func (r *RK45) Integrate(f sim.Func, x0 []float64, t0, t1 float64) ([]float64, error) {
	span := t1 - t0
	if span < 0 || math.IsNaN(span) {
		return nil, fmt.Errorf("%w: [%g, %g]", ErrInterval, t0, t1)
	}

	x := make([]float64, len(x0))
	copy(x, x0)
	if span == 0 {
		return x, nil
	}

	h := span
	if r.MaxStep > 0 && h > r.MaxStep {
		h = r.MaxStep
	}

	t := t0
	for iter := 0; t < t1; iter++ {
		if iter >= r.MaxSubsteps {
			return nil, fmt.Errorf("%w: %d in [%g, %g]", ErrMaxSteps, iter, t0, t1)
		}

		last := t+h >= t1
		if last {
			h = t1 - t
		}

		xNew, errRatio, err := r.trial(f, x, t, h)
		if err != nil {
			return nil, err
		}
		if math.IsNaN(errRatio) || !finite(xNew) {
			errRatio = math.Inf(1)
		}

		if errRatio <= 1 {
			x = xNew
			if last {
				t = t1
			} else {
				t += h
			}
		}

		h *= r.scale(errRatio)
		if r.MaxStep > 0 && h > r.MaxStep {
			h = r.MaxStep
		}
		if t < t1 && h < r.MinStep {
			if math.IsInf(errRatio, 1) {
				return nil, fmt.Errorf("%w at t=%g", ErrDiverged, t)
			}
			return nil, fmt.Errorf("%w: h=%g at t=%g", ErrStepTooSmall, h, t)
		}
	}
	return x, nil
}

func (r *RK45) scale(errRatio float64) float64 {
	if errRatio > 1 {
		return math.Max(r.minScale, r.safety*math.Pow(errRatio, -0.25))
	}
	if errRatio > 0 {
		return math.Min(r.maxScale, r.safety*math.Pow(errRatio, -0.2))
	}
	return r.maxScale
}

// trial takes one Dormand-Prince step of size dt and returns the new state
// with its error estimate relative to Tolerance.
func (r *RK45) trial(f sim.Func, x []float64, t, dt float64) ([]float64, float64, error) {
	n := len(x)
	k1 := make([]float64, n)
	k2 := make([]float64, n)
	k3 := make([]float64, n)
	k4 := make([]float64, n)
	k5 := make([]float64, n)
	k6 := make([]float64, n)
	k7 := make([]float64, n)
	tmp := make([]float64, n)

	if err := f(t, x, k1); err != nil {
		return nil, 0, err
	}

	for i := 0; i < n; i++ {
		tmp[i] = x[i] + dt*b21*k1[i]
	}
	if err := f(t+a2*dt, tmp, k2); err != nil {
		return nil, 0, err
	}

	for i := 0; i < n; i++ {
		tmp[i] = x[i] + dt*(b31*k1[i]+b32*k2[i])
	}
	if err := f(t+a3*dt, tmp, k3); err != nil {
		return nil, 0, err
	}

	for i := 0; i < n; i++ {
		tmp[i] = x[i] + dt*(b41*k1[i]+b42*k2[i]+b43*k3[i])
	}
	if err := f(t+a4*dt, tmp, k4); err != nil {
		return nil, 0, err
	}

	for i := 0; i < n; i++ {
		tmp[i] = x[i] + dt*(b51*k1[i]+b52*k2[i]+b53*k3[i]+b54*k4[i])
	}
	if err := f(t+a5*dt, tmp, k5); err != nil {
		return nil, 0, err
	}

	for i := 0; i < n; i++ {
		tmp[i] = x[i] + dt*(b61*k1[i]+b62*k2[i]+b63*k3[i]+b64*k4[i]+b65*k5[i])
	}
	if err := f(t+dt, tmp, k6); err != nil {
		return nil, 0, err
	}

	xNew := make([]float64, n)
	for i := 0; i < n; i++ {
		xNew[i] = x[i] + dt*(c1*k1[i]+c3*k3[i]+c4*k4[i]+c5*k5[i]+c6*k6[i])
	}

	if err := f(t+dt, xNew, k7); err != nil {
		return nil, 0, err
	}

	errMax := 0.0
	for i := 0; i < n; i++ {
		errEst := dt * (dc1*k1[i] + dc3*k3[i] + dc4*k4[i] + dc5*k5[i] + dc6*k6[i] + dc7*k7[i])
		scale := math.Abs(x[i]) + math.Abs(dt*k1[i]) + 1e-10
		errMax = math.Max(errMax, math.Abs(errEst)/scale)
	}

	return xNew, errMax / r.Tolerance, nil
}
