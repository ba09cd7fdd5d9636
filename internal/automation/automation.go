// Package automation runs batches of simulations: scripted scenarios,
// one-parameter sweeps and Monte Carlo trials over initial values.
package automation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/rmsim/internal/config"
	"github.com/san-kum/rmsim/internal/logging"
	"github.com/san-kum/rmsim/internal/metrics"
	"github.com/san-kum/rmsim/internal/model"
	"github.com/san-kum/rmsim/internal/session"
	"github.com/san-kum/rmsim/internal/sim"
)

var ErrInvalid = errors.New("automation: invalid batch definition")

// Scenario defines a scripted simulation sequence. Each step is a full run
// configuration.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

type ScenarioStep struct {
	config.Config `yaml:",inline"`

	// SaveAs names the step in results. Defaults to stepN.
	SaveAs string `yaml:"save_as"`
}

// StepResult is the outcome of one scenario step.
type StepResult struct {
	Name       string
	Trajectory *sim.Trajectory
	Metrics    map[string]float64
}

// LoadScenario loads a scenario from a YAML file. Step fields left out
// take the config defaults.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw struct {
		Name        string      `yaml:"name"`
		Description string      `yaml:"description"`
		Steps       []yaml.Node `yaml:"steps"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	scenario := &Scenario{Name: raw.Name, Description: raw.Description}
	for i, node := range raw.Steps {
		step := ScenarioStep{Config: *config.DefaultConfig()}
		if err := node.Decode(&step); err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
		if err := step.Validate(); err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
		scenario.Steps = append(scenario.Steps, step)
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("%w: scenario %q has no steps", ErrInvalid, scenario.Name)
	}
	return scenario, nil
}

// Runner holds what every batch run shares.
type Runner struct {
	Registry *model.Registry
	Logger   *slog.Logger
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger == nil {
		return logging.NewNop()
	}
	return r.Logger
}

// Run opens a fresh session for cfg, runs it once and summarizes it.
func (r *Runner) Run(ctx context.Context, cfg *config.Config) (*sim.Trajectory, map[string]float64, error) {
	s, err := session.FromConfig(r.Registry, cfg, session.Options{Logger: r.logger()})
	if err != nil {
		return nil, nil, err
	}
	grid, err := sim.DecodeSettings(s.Settings())
	if err != nil {
		return nil, nil, err
	}
	set := metrics.Default(s.Definition(), grid.Start)
	s.Simulator().AddObserver(set)

	traj, err := s.Run(ctx)
	if err != nil {
		return nil, nil, err
	}
	return traj, set.Values(), nil
}

// RunScenario executes all steps in order and stops at the first failure,
// returning the results gathered so far.
func (r *Runner) RunScenario(ctx context.Context, scenario *Scenario) ([]StepResult, error) {
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		name := step.SaveAs
		if name == "" {
			name = fmt.Sprintf("step%d", i+1)
		}
		r.logger().Info("scenario step", "step", i+1, "of", len(scenario.Steps), "model", step.Model, "name", name)

		traj, values, err := r.Run(ctx, &step.Config)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		results = append(results, StepResult{Name: name, Trajectory: traj, Metrics: values})
	}

	return results, nil
}

// ParameterSweep runs one simulation per evenly spaced value of Param.
type ParameterSweep struct {
	Base   *config.Config
	Param  string
	Min    float64
	Max    float64
	Points int
}

// SweepResult holds results from one sweep point.
type SweepResult struct {
	Value   float64
	Final   map[string]float64
	Metrics map[string]float64
}

func (p *ParameterSweep) values() ([]float64, error) {
	if p.Base == nil || p.Param == "" {
		return nil, fmt.Errorf("%w: sweep needs a base config and a parameter", ErrInvalid)
	}
	if p.Points < 1 {
		return nil, fmt.Errorf("%w: sweep needs at least one point, got %d", ErrInvalid, p.Points)
	}
	if p.Points == 1 {
		return []float64{p.Min}, nil
	}
	step := (p.Max - p.Min) / float64(p.Points-1)
	out := make([]float64, p.Points)
	for i := range out {
		out[i] = p.Min + float64(i)*step
	}
	out[len(out)-1] = p.Max
	return out, nil
}

// RunSweep executes a parameter sweep.
func (r *Runner) RunSweep(ctx context.Context, sweep *ParameterSweep) ([]SweepResult, error) {
	values, err := sweep.values()
	if err != nil {
		return nil, err
	}
	results := make([]SweepResult, 0, len(values))

	for i, v := range values {
		cfg := sweep.Base.Clone()
		if cfg.Overrides == nil {
			cfg.Overrides = make(map[string]float64, 1)
		}
		cfg.Overrides[sweep.Param] = v

		traj, summary, err := r.Run(ctx, cfg)
		if err != nil {
			return results, fmt.Errorf("sweep %s=%g: %w", sweep.Param, v, err)
		}
		results = append(results, SweepResult{Value: v, Final: traj.Final(), Metrics: summary})

		r.logger().Debug("sweep point", "point", i+1, "of", len(values), "param", sweep.Param, "value", v)
	}

	return results, nil
}

// MonteCarloConfig perturbs every initial-value row by a uniform relative
// factor in [1-Perturbation, 1+Perturbation]. Trials run on up to Workers
// goroutines, each with its own session.
type MonteCarloConfig struct {
	Base         *config.Config
	Perturbation float64
	Trials       int
	Seed         int64
	Workers      int
}

// MonteCarloResult holds one trial.
type MonteCarloResult struct {
	Trial   int
	Initial map[string]float64
	Final   map[string]float64
	// Stable reports a finished run whose final state stayed bounded.
	Stable bool
	Err    error
}

// RunMonteCarlo executes the trials. A failing trial is recorded as
// unstable rather than aborting the batch; cancellation aborts it. The
// perturbations depend only on the seed, not on scheduling.
func (r *Runner) RunMonteCarlo(ctx context.Context, cfg *MonteCarloConfig) ([]MonteCarloResult, error) {
	if cfg.Base == nil || cfg.Trials < 1 {
		return nil, fmt.Errorf("%w: monte carlo needs a base config and at least one trial", ErrInvalid)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	initial, err := r.initialValues(cfg.Base)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(initial))
	for id := range initial {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	results := make([]MonteCarloResult, cfg.Trials)
	for trial := range results {
		perturbed := make(map[string]float64, len(ids))
		for _, id := range ids {
			perturbed[id] = initial[id] * (1 + (rng.Float64()-0.5)*2*cfg.Perturbation)
		}
		results[trial] = MonteCarloResult{Trial: trial, Initial: perturbed}
	}

	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	var done atomic.Int64

	for trial := range results {
		wg.Add(1)
		sem <- struct{}{}
		go func(res *MonteCarloResult) {
			defer wg.Done()
			defer func() { <-sem }()

			run := cfg.Base.Clone()
			if run.Overrides == nil {
				run.Overrides = make(map[string]float64, len(res.Initial))
			}
			for id, v := range res.Initial {
				run.Overrides[id] = v
			}

			traj, _, err := r.Run(ctx, run)
			if err != nil {
				res.Err = err
			} else {
				res.Final = traj.Final()
				res.Stable = bounded(res.Final)
			}

			if n := done.Add(1); n%10 == 0 {
				r.logger().Info("monte carlo progress", "done", n, "of", cfg.Trials)
			}
		}(&results[trial])
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// initialValues reads the initial-value rows of the base configuration,
// after its own overrides.
func (r *Runner) initialValues(base *config.Config) (map[string]float64, error) {
	s, err := session.FromConfig(r.Registry, base, session.Options{Logger: r.logger()})
	if err != nil {
		return nil, err
	}
	def := s.Definition()
	out := make(map[string]float64)
	for _, state := range def.StateIDs() {
		id, ok := def.InitialOf(state)
		if !ok {
			continue
		}
		out[id], _ = def.Manipulated().Value(id)
	}
	return out, nil
}

func bounded(state map[string]float64) bool {
	for _, v := range state {
		if math.IsNaN(v) || math.Abs(v) > 1e6 {
			return false
		}
	}
	return true
}

// MonteCarloStats computes summary statistics from Monte Carlo results
func MonteCarloStats(results []MonteCarloResult) (stableCount int, unstableCount int) {
	for _, r := range results {
		if r.Stable {
			stableCount++
		} else {
			unstableCount++
		}
	}
	return
}
