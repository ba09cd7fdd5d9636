package metrics

import "math"

// IAE is the integrated absolute error of one state against a setpoint,
// accumulated with the rectangle rule over each recorded step.
type IAE struct {
	name     string
	index    int
	setpoint float64
	start    float64

	prevT float64
	sum   float64
}

func NewIAE(state string, index int, setpoint, start float64) *IAE {
	return &IAE{
		name:     "iae_" + state,
		index:    index,
		setpoint: setpoint,
		start:    start,
		prevT:    start,
	}
}

func (e *IAE) Name() string { return e.name }

func (e *IAE) OnStep(step int, t float64, x []float64) {
	if e.index >= len(x) {
		return
	}
	e.sum += math.Abs(x[e.index]-e.setpoint) * (t - e.prevT)
	e.prevT = t
}

func (e *IAE) Value() float64 { return e.sum }

func (e *IAE) Reset() {
	e.sum = 0
	e.prevT = e.start
}

// Stability is the fraction of steps where every state stays within
// [-threshold, threshold].
type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) OnStep(step int, t float64, x []float64) {
	s.samples++
	for _, val := range x {
		if math.Abs(val) > s.threshold {
			s.violations++
			break
		}
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}
