package session

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"

	"github.com/san-kum/rmsim/internal/integrators"
	"github.com/san-kum/rmsim/internal/logging"
	"github.com/san-kum/rmsim/internal/model"
	"github.com/san-kum/rmsim/internal/sim"
	"github.com/san-kum/rmsim/internal/variables"
)

type Options struct {
	// Resources replaces the model's registered CSV resources when set.
	Resources fs.FS
	// Integrator defaults to RK4.
	Integrator sim.Integrator
	Logger     *slog.Logger
	Observers  []sim.Observer
	// ResetAfterRun restores the manipulated variables to their defaults
	// after every run, successful or not.
	ResetAfterRun bool
}

type Session struct {
	name     string
	registry *model.Registry
	def      *model.Definition
	settings *variables.Table
	sim      *sim.Simulator
	opts     Options
	logger   *slog.Logger

	// initialOf maps an initial-value row to the state it seeds.
	initialOf map[string]string
}

// Open loads a registered model and builds its simulator.
func Open(r *model.Registry, name string, opts Options) (*Session, error) {
	if opts.Integrator == nil {
		opts.Integrator = integrators.NewRK4()
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	def, err := r.LoadFrom(name, opts.Resources)
	if err != nil {
		return nil, err
	}
	settings, err := r.Settings(name, opts.Resources)
	if err != nil {
		return nil, err
	}
	if settings == nil {
		settings = sim.DefaultSettings().Table()
	}

	s := &Session{
		name:      name,
		registry:  r,
		def:       def,
		settings:  settings,
		opts:      opts,
		logger:    logger.With("model", name),
		initialOf: make(map[string]string),
	}
	for _, state := range def.StateIDs() {
		if id, ok := def.InitialOf(state); ok {
			s.initialOf[id] = state
		}
	}

	if err := s.build(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Session) build() error {
	opts := []sim.Option{sim.WithLogger(s.logger)}
	for _, o := range s.opts.Observers {
		opts = append(opts, sim.WithObserver(o))
	}
	simulator, err := sim.New(s.def, s.opts.Integrator, s.settings, opts...)
	if err != nil {
		return err
	}
	s.sim = simulator
	return nil
}

func (s *Session) Name() string                  { return s.name }
func (s *Session) Definition() *model.Definition { return s.def }
func (s *Session) Settings() *variables.Table    { return s.settings }
func (s *Session) Simulator() *sim.Simulator     { return s.sim }

// Tables returns every variable table the session owns, keyed by role.
func (s *Session) Tables() map[string]*variables.Table {
	out := map[string]*variables.Table{
		"parameters":  s.def.Parameters(),
		"manipulated": s.def.Manipulated(),
		"settings":    s.settings,
	}
	if t := s.def.SubroutineVars(); t != nil {
		out["subroutine"] = t
	}
	return out
}

// lookup resolves an identifier to the table that holds it. Parameters win
// over manipulated variables, then controller variables, then settings.
func (s *Session) lookup(id string) (*variables.Table, bool) {
	for _, t := range []*variables.Table{s.def.Parameters(), s.def.Manipulated(), s.def.SubroutineVars(), s.settings} {
		if t != nil && t.Has(id) {
			return t, true
		}
	}
	return nil, false
}

// SetInputs applies user overrides. Every value is checked against its
// declared bounds and the whole map is rejected on the first failure, so
// either all overrides apply or none do. Setting an initial-value row such as
// X0 also moves its state X.
func (s *Session) SetInputs(values map[string]float64) error {
	ids := make([]string, 0, len(values))
	for id := range values {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	settings := s.settings.Clone()
	for _, id := range ids {
		t, ok := s.lookup(id)
		if !ok {
			return fmt.Errorf("session: %w: %s", variables.ErrUnknownVariable, id)
		}
		rec, _ := t.Get(id, variables.Current)
		if err := rec.CheckBounds(values[id]); err != nil {
			return fmt.Errorf("session: %w", err)
		}
		if t == s.settings {
			if err := settings.Set(id, values[id]); err != nil {
				return fmt.Errorf("session: %w", err)
			}
		}
	}
	if _, err := sim.DecodeSettings(settings); err != nil {
		return fmt.Errorf("session: %w", err)
	}

	for _, id := range ids {
		t, _ := s.lookup(id)
		v := values[id]
		if err := t.Set(id, v); err != nil {
			return fmt.Errorf("session: %w", err)
		}
		if state, ok := s.initialOf[id]; ok {
			s.def.ApplyStateUpdate(map[string]float64{state: v}, false)
		}
	}
	s.logger.Debug("inputs set", "count", len(ids))
	return nil
}

// Run executes one simulation from the current state.
func (s *Session) Run(ctx context.Context) (*sim.Trajectory, error) {
	traj, err := s.sim.Run(ctx)
	if s.opts.ResetAfterRun {
		s.Reset()
	}
	return traj, err
}

// Reset restores the manipulated variables, and with them the state, to
// their defaults.
func (s *Session) Reset() map[string]float64 {
	return s.def.Reset()
}

// ResetAll restores every table to its defaults and rebuilds the simulator
// so the control hook starts from a fresh initialization.
func (s *Session) ResetAll() (map[string]float64, error) {
	state := s.def.ResetAll()
	s.settings.Reset()
	if err := s.build(); err != nil {
		return nil, err
	}
	return state, nil
}
