package hook

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/san-kum/rmsim/internal/logging"
	"github.com/san-kum/rmsim/internal/variables"
)

var (
	// ErrInvalidUpdate indicates an update without a name or function.
	ErrInvalidUpdate = errors.New("hook: invalid update")

	// ErrDuplicateUpdate indicates two updates registered under one name.
	ErrDuplicateUpdate = errors.New("hook: duplicate update name")
)

// Target is the slice of a model that control logic reads and shapes.
type Target interface {
	// AllInputs returns parameters and non-state manipulated variables.
	AllInputs() map[string]float64
	// State returns the current value of every state variable.
	State() map[string]float64
	// UpdateInputs merges values into the input tables, skipping state rows.
	UpdateInputs(values map[string]float64)
}

// Update is a named control operation. It may only mutate ctx.Params.
type Update struct {
	Name string
	Fn   func(ctx *Context) error
}

// Subroutine is a control law layered on a model.
type Subroutine interface {
	// Initialize runs once when the runner is built. It may precompute
	// controller state but its parameter edits are not written back.
	Initialize(ctx *Context) error
	// Updates returns the operations to run each step, in order.
	Updates() []Update
}

// Factory builds a fresh Subroutine. A nil Factory means no hook.
type Factory func() Subroutine

// Funcs adapts a plain list of updates into a Subroutine with no initialization.
type Funcs []Update

func (f Funcs) Initialize(*Context) error { return nil }
func (f Funcs) Updates() []Update         { return f }

// UpdateError reports which update failed.
type UpdateError struct {
	Update string
	Err    error
}

func (e *UpdateError) Error() string {
	return fmt.Sprintf("hook update %q: %v", e.Update, e.Err)
}

func (e *UpdateError) Unwrap() error {
	return e.Err
}

// Context is the per-step view handed to updates.
type Context struct {
	// Params is the mutable input view written back after every step.
	Params map[string]float64
	// State is a read-only copy of the model state at the start of the step.
	State map[string]float64
	// Settings holds simulator settings, including the derived step size "dt".
	Settings map[string]float64
	// Step counts RunOnce calls since the settings were last set.
	Step int

	vars *variables.Table
}

// Var returns the current value of a controller tuning variable, or 0 when absent.
func (c *Context) Var(id string) float64 {
	if c.vars == nil {
		return 0
	}
	v, _ := c.vars.Value(id)
	return v
}

// Time returns the start time of the current step, derived from the
// "Ti" and "dt" settings.
func (c *Context) Time() float64 {
	return c.Settings["Ti"] + float64(c.Step)*c.Settings["dt"]
}

// LookupVar is Var with a presence flag.
func (c *Context) LookupVar(id string) (float64, bool) {
	if c.vars == nil {
		return 0, false
	}
	return c.vars.Value(id)
}

// Runner drives one Subroutine for the lifetime of a simulator.
type Runner struct {
	target  Target
	sub     Subroutine
	updates []Update
	ctx     *Context
	logger  *slog.Logger
}

// NewRunner binds sub to target and runs its initialization step.
// vars may be nil when the model declares no controller variables.
func NewRunner(target Target, sub Subroutine, settings map[string]float64, vars *variables.Table, logger *slog.Logger) (*Runner, error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	updates := sub.Updates()
	seen := make(map[string]struct{}, len(updates))
	for i, u := range updates {
		if u.Name == "" || u.Fn == nil {
			return nil, fmt.Errorf("%w: index %d", ErrInvalidUpdate, i)
		}
		if _, dup := seen[u.Name]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateUpdate, u.Name)
		}
		seen[u.Name] = struct{}{}
	}

	r := &Runner{
		target:  target,
		sub:     sub,
		updates: append([]Update(nil), updates...),
		ctx: &Context{
			Settings: copyMap(settings),
			vars:     vars,
		},
		logger: logger,
	}
	r.refresh()

	if err := sub.Initialize(r.ctx); err != nil {
		return nil, fmt.Errorf("hook initialize: %w", err)
	}
	return r, nil
}

func (r *Runner) refresh() {
	r.ctx.Params = r.target.AllInputs()
	r.ctx.State = r.target.State()
}

// RunOnce re-reads the model, runs every update once in order and writes
// the parameter view back. The first failing update aborts the call. Edits
// made by earlier updates stay in the context and are not merged into the model.
func (r *Runner) RunOnce() error {
	r.refresh()

	for _, u := range r.updates {
		if err := u.Fn(r.ctx); err != nil {
			return &UpdateError{Update: u.Name, Err: err}
		}
		r.logger.Debug("hook update", "update", u.Name, "step", r.ctx.Step)
	}

	r.target.UpdateInputs(r.ctx.Params)
	r.ctx.Step++
	return nil
}

// SetSettings replaces the settings view and restarts the step count.
// The simulator calls it at the start of every run.
func (r *Runner) SetSettings(settings map[string]float64) {
	r.ctx.Settings = copyMap(settings)
	r.ctx.Step = 0
}

// Names lists update names in execution order.
func (r *Runner) Names() []string {
	names := make([]string, len(r.updates))
	for i, u := range r.updates {
		names[i] = u.Name
	}
	return names
}

// Context exposes the live context, mainly for inspection in tests.
func (r *Runner) Context() *Context { return r.ctx }

func copyMap(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
