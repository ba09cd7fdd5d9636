package model

import (
	"fmt"
	"strings"

	"github.com/san-kum/rmsim/internal/hook"
	"github.com/san-kum/rmsim/internal/variables"
)

const (
	// InitialSuffix marks a manipulated variable holding a state's initial value.
	InitialSuffix = "0"
	// InitialLabelPrefix is dropped from the label of a synthesized state.
	InitialLabelPrefix = "Initial "
)

// Computation is the right-hand side a model is bound to.
type Computation interface {
	// States lists state identifiers in the order Derive reads x and fills dx.
	States() []string
	// Derive computes dx/dt at time t. in holds every non-state input.
	Derive(t float64, x []float64, in map[string]float64, dx []float64) error
}

// Option configures a Definition.
type Option func(*Definition)

// WithSubroutine attaches a control-hook factory.
func WithSubroutine(f hook.Factory) Option {
	return func(d *Definition) { d.subroutine = f }
}

// WithSubroutineVars attaches the controller tuning table exposed to hooks.
func WithSubroutineVars(t *variables.Table) Option {
	return func(d *Definition) { d.subrVars = t }
}

// Definition is a loaded model: inputs, synthesized state and bound computation.
type Definition struct {
	name       string
	params     *variables.Table
	mvars      *variables.Table
	subrVars   *variables.Table
	comp       Computation
	subroutine hook.Factory

	// states is ordered as comp.States().
	states  []string
	isState map[string]bool
	// initial maps a state identifier to the row it was synthesized from.
	initial map[string]string
}

// New assembles a definition. The manipulated-variable table is rebuilt with
// the synthesized state rows appended; the passed table is not modified.
func New(name string, params, mvars *variables.Table, comp Computation, opts ...Option) (*Definition, error) {
	if comp == nil {
		return nil, &ConfigurationError{Model: name, Err: ErrNoComputation}
	}
	if params == nil || mvars == nil {
		return nil, configErr(name, "parameter and manipulated-variable tables are required")
	}

	for _, r := range params.Records(variables.Default) {
		if r.State {
			return nil, configErr(name, "parameter %s is flagged as state", r.ID)
		}
	}

	d := &Definition{
		name:    name,
		params:  params,
		comp:    comp,
		isState: make(map[string]bool),
		initial: make(map[string]string),
	}
	for _, opt := range opts {
		opt(d)
	}

	table, err := synthesize(name, mvars, d.initial)
	if err != nil {
		return nil, err
	}
	d.mvars = table

	for _, id := range d.mvars.IDs() {
		if params.Has(id) {
			return nil, &ConfigurationError{Model: name, Err: &variables.DuplicateKeyError{ID: id}}
		}
	}

	if err := d.bindStates(); err != nil {
		return nil, err
	}
	return d, nil
}

// synthesize splits state-flagged initial-value rows into companion state rows.
func synthesize(name string, mvars *variables.Table, initial map[string]string) (*variables.Table, error) {
	def := mvars.Records(variables.Default)
	cur := mvars.Values(variables.Current)

	records := make([]variables.Record, 0, len(def))
	var derived []variables.Record
	overrides := make(map[string]float64, len(cur))

	for _, r := range def {
		if !r.State {
			records = append(records, r)
			overrides[r.ID] = cur[r.ID]
			continue
		}
		stateID := strings.TrimSuffix(r.ID, InitialSuffix)
		if stateID == r.ID || stateID == "" {
			return nil, configErr(name, "state row %s must be named <state>%s", r.ID, InitialSuffix)
		}

		s := r
		s.ID = stateID
		s.Label = strings.TrimPrefix(r.Label, InitialLabelPrefix)
		derived = append(derived, s)

		r.State = false
		records = append(records, r)

		initial[stateID] = r.ID
		overrides[r.ID] = cur[r.ID]
		overrides[stateID] = cur[r.ID]
	}

	table, err := variables.New(append(records, derived...))
	if err != nil {
		return nil, &ConfigurationError{Model: name, Err: err}
	}
	// Carry forward any working values set before construction.
	table.Update(overrides)
	return table, nil
}

func (d *Definition) bindStates() error {
	flagged := make(map[string]bool)
	for _, r := range d.mvars.Records(variables.Default) {
		if r.State {
			flagged[r.ID] = true
		}
	}

	ids := d.comp.States()
	if len(ids) != len(flagged) {
		return &ConfigurationError{Model: d.name, Err: fmt.Errorf("%w: computation has %d, table has %d",
			ErrStateMismatch, len(ids), len(flagged))}
	}
	for _, id := range ids {
		if !flagged[id] || d.isState[id] {
			return &ConfigurationError{Model: d.name, Err: fmt.Errorf("%w: %q", ErrStateMismatch, id)}
		}
		d.isState[id] = true
	}
	d.states = append([]string(nil), ids...)
	return nil
}

func (d *Definition) Name() string                     { return d.name }
func (d *Definition) Computation() Computation         { return d.comp }
func (d *Definition) Parameters() *variables.Table     { return d.params }
func (d *Definition) Manipulated() *variables.Table    { return d.mvars }
func (d *Definition) SubroutineVars() *variables.Table { return d.subrVars }
func (d *Definition) HasSubroutine() bool              { return d.subroutine != nil }

// InitialOf returns the initial-value row a state was synthesized from.
func (d *Definition) InitialOf(state string) (string, bool) {
	id, ok := d.initial[state]
	return id, ok
}

// StateIDs returns state identifiers in integrator order.
func (d *Definition) StateIDs() []string {
	return append([]string(nil), d.states...)
}

// NewSubroutine builds a fresh hook, or nil when the model declares none.
func (d *Definition) NewSubroutine() hook.Subroutine {
	if d.subroutine == nil {
		return nil
	}
	return d.subroutine()
}

// AllInputs returns parameter values merged with non-state manipulated values.
func (d *Definition) AllInputs() map[string]float64 {
	out := d.params.Values(variables.Current)
	for _, r := range d.mvars.Records(variables.Current) {
		if !d.isState[r.ID] {
			out[r.ID] = r.Value
		}
	}
	return out
}

// State returns the current value of every state row.
func (d *Definition) State() map[string]float64 {
	out := make(map[string]float64, len(d.states))
	for _, id := range d.states {
		out[id], _ = d.mvars.Value(id)
	}
	return out
}

// StateVector returns current state values in integrator order.
func (d *Definition) StateVector() []float64 {
	x := make([]float64, len(d.states))
	for i, id := range d.states {
		x[i], _ = d.mvars.Value(id)
	}
	return x
}

// ApplyStateUpdate writes values into state rows. Identifiers that are not
// states are ignored. With propagateToInitial the paired initial-value rows
// receive the same values, so a finished run becomes the resting point for
// continuation; the default snapshot is untouched.
func (d *Definition) ApplyStateUpdate(state map[string]float64, propagateToInitial bool) {
	vals := make(map[string]float64, 2*len(state))
	for id, v := range state {
		if !d.isState[id] {
			continue
		}
		vals[id] = v
		if propagateToInitial {
			vals[d.initial[id]] = v
		}
	}
	d.mvars.Update(vals)
}

// ApplyStateVector is ApplyStateUpdate for a vector in integrator order.
func (d *Definition) ApplyStateVector(x []float64, propagateToInitial bool) error {
	if len(x) != len(d.states) {
		return fmt.Errorf("%w: got %d values for %d states", ErrStateMismatch, len(x), len(d.states))
	}
	m := make(map[string]float64, len(x))
	for i, id := range d.states {
		m[id] = x[i]
	}
	d.ApplyStateUpdate(m, propagateToInitial)
	return nil
}

// UpdateInputs merges values into the parameter and manipulated-variable
// tables. State rows are never written.
func (d *Definition) UpdateInputs(values map[string]float64) {
	inputs := make(map[string]float64, len(values))
	for id, v := range values {
		if !d.isState[id] {
			inputs[id] = v
		}
	}
	d.params.Update(inputs)
	d.mvars.Update(inputs)
}

// Reset restores the manipulated-variable table from its default snapshot
// and returns the resulting state.
func (d *Definition) Reset() map[string]float64 {
	d.mvars.Reset()
	return d.State()
}

// ResetAll restores every table the definition owns, parameters and
// controller variables included.
func (d *Definition) ResetAll() map[string]float64 {
	d.params.Reset()
	if d.subrVars != nil {
		d.subrVars.Reset()
	}
	return d.Reset()
}
