// Package metrics summarizes runs as scalar values. Every metric is a
// sim.Observer fed one recorded step at a time.
package metrics

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/san-kum/rmsim/internal/model"
	"github.com/san-kum/rmsim/internal/sim"
)

// SetpointSuffix marks a controller variable as the target of a state,
// e.g. S_sp tracks state S.
const SetpointSuffix = "_sp"

type Metric interface {
	sim.Observer
	Name() string
	Value() float64
	Reset()
}

// Set fans steps out to its metrics and resets them when a run starts.
type Set []Metric

var _ sim.RunObserver = Set(nil)

func (s Set) OnStep(step int, t float64, x []float64) {
	for _, m := range s {
		m.OnStep(step, t, x)
	}
}

func (s Set) OnRunStart(string, int) { s.Reset() }

func (s Set) OnRunEnd(string, time.Duration, error) {}

func (s Set) Reset() {
	for _, m := range s {
		m.Reset()
	}
}

func (s Set) Values() map[string]float64 {
	out := make(map[string]float64, len(s))
	for _, m := range s {
		out[m.Name()] = m.Value()
	}
	return out
}

// Names returns metric names sorted.
func (s Set) Names() []string {
	names := make([]string, len(s))
	for i, m := range s {
		names[i] = m.Name()
	}
	sort.Strings(names)
	return names
}

// Default builds peak and final-value metrics for every state, plus an IAE
// metric for each state that has a setpoint controller variable.
func Default(def *model.Definition, start float64) Set {
	var set Set
	vars := def.SubroutineVars()
	for i, id := range def.StateIDs() {
		set = append(set, NewPeak(id, i), NewFinal(id, i))
		if vars == nil {
			continue
		}
		if sp, ok := vars.Value(id + SetpointSuffix); ok {
			set = append(set, NewIAE(id, i, sp, start))
		}
	}
	return set
}

// Lookup resolves a metric name from a Set, for callers that optimize it.
func (s Set) Lookup(name string) (Metric, error) {
	for _, m := range s {
		if m.Name() == name {
			return m, nil
		}
	}
	return nil, fmt.Errorf("metrics: unknown metric %q (available: %s)", name, strings.Join(s.Names(), ", "))
}

// Peak tracks the maximum value of one state.
type Peak struct {
	name  string
	index int
	max   float64
}

func NewPeak(state string, index int) *Peak {
	p := &Peak{name: "peak_" + state, index: index}
	p.Reset()
	return p
}

func (p *Peak) Name() string { return p.name }

func (p *Peak) OnStep(step int, t float64, x []float64) {
	if p.index < len(x) && x[p.index] > p.max {
		p.max = x[p.index]
	}
}

func (p *Peak) Value() float64 {
	if math.IsInf(p.max, -1) {
		return 0
	}
	return p.max
}

func (p *Peak) Reset() { p.max = math.Inf(-1) }

// Final holds the last recorded value of one state.
type Final struct {
	name  string
	index int
	last  float64
}

func NewFinal(state string, index int) *Final {
	return &Final{name: "final_" + state, index: index}
}

func (f *Final) Name() string { return f.name }

func (f *Final) OnStep(step int, t float64, x []float64) {
	if f.index < len(x) {
		f.last = x[f.index]
	}
}

func (f *Final) Value() float64 { return f.last }
func (f *Final) Reset()         { f.last = 0 }
