package sim

import (
	"math"
	"time"
)

// Func evaluates dx/dt at t into dx.
type Func func(t float64, x, dx []float64) error

// Integrator advances a state across [t0, t1] and returns the state at t1.
// Implementations must not retain or modify x0.
type Integrator interface {
	Integrate(f Func, x0 []float64, t0, t1 float64) ([]float64, error)
}

// Observer receives each recorded step. t is the step end time.
type Observer interface {
	OnStep(step int, t float64, x []float64)
}

// RunObserver is implemented by observers that also track whole runs.
type RunObserver interface {
	Observer
	OnRunStart(model string, steps int)
	OnRunEnd(model string, elapsed time.Duration, err error)
}

// Trajectory is the time-indexed result of a run.
type Trajectory struct {
	// Columns holds state identifiers in integrator order.
	Columns []string
	// Times holds step start times, beginning at the configured start.
	Times []float64
	// Step is the derived step size.
	Step float64
	// Rows[k][j] is state Columns[j] at the end of step k.
	Rows [][]float64
}

func (tr *Trajectory) Len() int { return len(tr.Rows) }

// EndTime returns the time at which row k's values hold.
func (tr *Trajectory) EndTime(k int) float64 {
	return tr.Times[k] + tr.Step
}

// Column returns the series for one state identifier.
func (tr *Trajectory) Column(id string) ([]float64, bool) {
	for j, c := range tr.Columns {
		if c != id {
			continue
		}
		out := make([]float64, len(tr.Rows))
		for k, row := range tr.Rows {
			out[k] = row[j]
		}
		return out, true
	}
	return nil, false
}

// Final returns the last recorded state, or nil for an empty trajectory.
func (tr *Trajectory) Final() map[string]float64 {
	if len(tr.Rows) == 0 {
		return nil
	}
	last := tr.Rows[len(tr.Rows)-1]
	out := make(map[string]float64, len(tr.Columns))
	for j, c := range tr.Columns {
		out[c] = last[j]
	}
	return out
}

func isValid(x []float64) bool {
	for _, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
