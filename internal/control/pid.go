package control

import "math"

type PID struct {
	Kp     float64
	Ki     float64
	Kd     float64
	Target float64
	// Min and Max clamp the output. The integral stops accumulating while
	// the output is saturated.
	Min float64
	Max float64

	integral float64
	prevErr  float64
	prevT    float64
	first    bool
}

func NewPID(kp, ki, kd, target float64) *PID {
	return &PID{
		Kp:     kp,
		Ki:     ki,
		Kd:     kd,
		Target: target,
		Min:    math.Inf(-1),
		Max:    math.Inf(1),
		first:  true,
	}
}

func (p *PID) SetLimits(min, max float64) {
	p.Min = min
	p.Max = max
}

// Compute returns the control output for a measurement taken at time t.
func (p *PID) Compute(measurement, t float64) float64 {
	err := p.Target - measurement

	if p.first {
		p.prevErr = err
		p.prevT = t
		p.first = false
		return p.clamp(p.Kp*err + p.Ki*p.integral)
	}

	dt := t - p.prevT
	if dt <= 0 {
		return p.clamp(p.Kp*err + p.Ki*p.integral)
	}

	integral := p.integral + err*dt
	derivative := (err - p.prevErr) / dt
	u := p.Kp*err + p.Ki*integral + p.Kd*derivative

	out := p.clamp(u)
	if out == u {
		p.integral = integral
	}
	p.prevErr = err
	p.prevT = t
	return out
}

func (p *PID) clamp(u float64) float64 {
	return math.Max(p.Min, math.Min(p.Max, u))
}

// Reset clears integral and derivative state
func (p *PID) Reset() {
	p.integral = 0
	p.prevErr = 0
	p.prevT = 0
	p.first = true
}

// GetParams returns tunable parameters for live adjustment
func (p *PID) GetParams() map[string]float64 {
	return map[string]float64{
		"Kp":     p.Kp,
		"Ki":     p.Ki,
		"Kd":     p.Kd,
		"Target": p.Target,
	}
}

// SetParam adjusts a PID parameter
func (p *PID) SetParam(name string, value float64) {
	switch name {
	case "Kp":
		p.Kp = value
	case "Ki":
		p.Ki = value
	case "Kd":
		p.Kd = value
	case "Target":
		p.Target = value
	}
}
