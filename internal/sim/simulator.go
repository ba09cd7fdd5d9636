package sim

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/san-kum/rmsim/internal/hook"
	"github.com/san-kum/rmsim/internal/logging"
	"github.com/san-kum/rmsim/internal/model"
	"github.com/san-kum/rmsim/internal/variables"
)

type Simulator struct {
	def        *model.Definition
	integrator Integrator
	settings   *variables.Table
	hook       *hook.Runner
	observers  []Observer
	logger     *slog.Logger
}

// Option configures a Simulator.
type Option func(*Simulator)

func WithLogger(l *slog.Logger) Option {
	return func(s *Simulator) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithObserver(o Observer) Option {
	return func(s *Simulator) { s.AddObserver(o) }
}

// New wraps def. A nil settings table uses DefaultSettings. When the model
// declares a control hook it is built and initialized here, once for the
// lifetime of the simulator.
func New(def *model.Definition, integrator Integrator, settings *variables.Table, opts ...Option) (*Simulator, error) {
	if def == nil {
		return nil, ErrNoModel
	}
	if integrator == nil {
		return nil, ErrNoIntegrator
	}
	if settings == nil {
		settings = DefaultSettings().Table()
	}

	s := &Simulator{
		def:        def,
		integrator: integrator,
		settings:   settings,
		observers:  make([]Observer, 0),
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	cfg, err := DecodeSettings(settings)
	if err != nil {
		return nil, err
	}

	if sub := def.NewSubroutine(); sub != nil {
		runner, err := hook.NewRunner(def, sub, cfg.View(), def.SubroutineVars(), s.logger.With("model", def.Name()))
		if err != nil {
			return nil, fmt.Errorf("model %s: %w", def.Name(), err)
		}
		s.hook = runner
	}
	return s, nil
}

func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) Definition() *model.Definition   { return s.def }
func (s *Simulator) SettingsTable() *variables.Table { return s.settings }
func (s *Simulator) Hook() *hook.Runner              { return s.hook }

// Settings decodes the current settings table.
func (s *Simulator) Settings() (Settings, error) {
	return DecodeSettings(s.settings)
}

// Run executes one full pass over the time grid, starting from the model's
// current state. For every step it captures the state, runs the control
// hook, integrates one interval with the fresh inputs, records the result
// and writes it back into the state and initial-value rows. Any failure
// aborts the run and no trajectory is returned. ctx is checked between steps.
func (s *Simulator) Run(ctx context.Context) (traj *Trajectory, err error) {
	cfg, err := s.Settings()
	if err != nil {
		return nil, err
	}

	dt := cfg.StepSize()
	grid := cfg.Grid()
	ids := s.def.StateIDs()
	comp := s.def.Computation()

	if s.hook != nil {
		s.hook.SetSettings(cfg.View())
	}

	name := s.def.Name()
	start := time.Now()
	s.notifyStart(name, len(grid))
	defer func() { s.notifyEnd(name, time.Since(start), err) }()

	s.logger.Info("run started", "model", name, "steps", cfg.Steps, "dt", dt, "start", cfg.Start, "end", cfg.End)

	rows := make([][]float64, 0, len(grid))
	for k, t := range grid {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, &SimulationError{Step: k, Time: t, Wrapped: ctxErr}
		}

		x := s.def.StateVector()

		if s.hook != nil {
			if hookErr := s.hook.RunOnce(); hookErr != nil {
				return nil, &SimulationError{Step: k, Time: t, State: x, Wrapped: hookErr}
			}
		}

		inputs := s.def.AllInputs()
		f := func(tt float64, y, dy []float64) error {
			return comp.Derive(tt, y, inputs, dy)
		}

		t1 := t + dt
		if k == len(grid)-1 {
			t1 = cfg.End
		}

		next, intErr := s.integrator.Integrate(f, x, t, t1)
		if intErr != nil {
			return nil, &SimulationError{Step: k, Time: t, State: x, Wrapped: intErr}
		}
		if len(next) != len(ids) {
			return nil, &SimulationError{Step: k, Time: t, State: x,
				Wrapped: fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(next), len(ids))}
		}
		if !isValid(next) {
			return nil, &SimulationError{Step: k, Time: t, State: next, Wrapped: ErrInvalidState}
		}

		row := make([]float64, len(next))
		copy(row, next)
		rows = append(rows, row)

		if err := s.def.ApplyStateVector(row, true); err != nil {
			return nil, &SimulationError{Step: k, Time: t, State: row, Wrapped: err}
		}

		for _, obs := range s.observers {
			obs.OnStep(k, t1, row)
		}
		s.logger.Debug("step", "step", k, "t", t1)
	}

	s.logger.Info("run finished", "model", name, "steps", len(rows), "elapsed", time.Since(start))

	return &Trajectory{
		Columns: ids,
		Times:   grid,
		Step:    dt,
		Rows:    rows,
	}, nil
}

func (s *Simulator) notifyStart(name string, steps int) {
	for _, obs := range s.observers {
		if ro, ok := obs.(RunObserver); ok {
			ro.OnRunStart(name, steps)
		}
	}
}

func (s *Simulator) notifyEnd(name string, elapsed time.Duration, err error) {
	for _, obs := range s.observers {
		if ro, ok := obs.(RunObserver); ok {
			ro.OnRunEnd(name, elapsed, err)
		}
	}
}
