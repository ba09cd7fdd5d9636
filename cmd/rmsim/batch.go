package main

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/rmsim/internal/automation"
	"github.com/san-kum/rmsim/internal/logging"
	"github.com/san-kum/rmsim/internal/models"
	"github.com/san-kum/rmsim/internal/optim"
)

var (
	sweepParam  string
	sweepMin    float64
	sweepMax    float64
	sweepPoints int

	mcTrials  int
	mcPerturb float64
	mcSeed    int64
	mcWorkers int

	tuneGrid   []string
	tuneMetric string
)

// addBaseFlags registers the flags every command that builds a run
// configuration understands.
func addBaseFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().StringVar(&integrator, "integrator", "rk4", "integrator (euler, rk4, rk45)")
	cmd.Flags().Float64Var(&start, "start", 0, "start time (overrides Ti)")
	cmd.Flags().Float64Var(&end, "end", 0, "end time (overrides Tf)")
	cmd.Flags().IntVar(&steps, "steps", 0, "number of steps (overrides n)")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "override a variable, id=value (repeatable)")
	cmd.MarkFlagsMutuallyExclusive("config", "preset")
}

func batchCommands() []*cobra.Command {
	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a scripted sequence of simulations",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep [model]",
		Short: "sweep one input over a range",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSweep,
	}
	addBaseFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepParam, "param", "", "input to sweep")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 0, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 1, "last value")
	sweepCmd.Flags().IntVar(&sweepPoints, "points", 10, "number of values")
	sweepCmd.MarkFlagRequired("param")

	mcCmd := &cobra.Command{
		Use:   "montecarlo [model]",
		Short: "run trials with perturbed initial values",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runMonteCarlo,
	}
	addBaseFlags(mcCmd)
	mcCmd.Flags().IntVar(&mcTrials, "trials", 100, "number of trials")
	mcCmd.Flags().Float64Var(&mcPerturb, "perturb", 0.1, "relative perturbation of initial values")
	mcCmd.Flags().Int64Var(&mcSeed, "seed", 0, "random seed (0 picks one)")
	mcCmd.Flags().IntVar(&mcWorkers, "workers", runtime.NumCPU(), "trials run in parallel")

	tuneCmd := &cobra.Command{
		Use:   "tune [model]",
		Short: "grid search inputs minimizing a run metric",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runTune,
	}
	addBaseFlags(tuneCmd)
	tuneCmd.Flags().StringArrayVar(&tuneGrid, "grid", nil, "candidate values, id=v1,v2,... (repeatable)")
	tuneCmd.Flags().StringVar(&tuneMetric, "metric", "iae_S", "metric to minimize")
	tuneCmd.MarkFlagRequired("grid")

	return []*cobra.Command{scenarioCmd, sweepCmd, mcCmd, tuneCmd}
}

func newRunner() *automation.Runner {
	return &automation.Runner{
		Registry: models.NewRegistry(),
		Logger:   logging.NewLogger(logLevel, os.Stderr),
	}
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	if resourcesDir != "" {
		for i := range sc.Steps {
			if sc.Steps[i].Resources == "" {
				sc.Steps[i].Resources = resourcesDir
			}
		}
	}

	results, err := newRunner().RunScenario(cmd.Context(), sc)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "scenario: %s (%d of %d steps)\n", sc.Name, len(results), len(sc.Steps))
	for _, r := range results {
		fmt.Fprintf(out, "\n%s:\n", r.Name)
		writeValues(out, r.Metrics)
	}
	return err
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	results, err := newRunner().RunSweep(cmd.Context(), &automation.ParameterSweep{
		Base:   cfg,
		Param:  sweepParam,
		Min:    sweepMin,
		Max:    sweepMax,
		Points: sweepPoints,
	})
	if len(results) > 0 {
		states := sortedKeys(results[0].Final)
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, strings.ToUpper(sweepParam)+"\t"+strings.Join(states, "\t"))
		for _, r := range results {
			row := []string{strconv.FormatFloat(r.Value, 'g', 6, 64)}
			for _, id := range states {
				row = append(row, fmt.Sprintf("%.6f", r.Final[id]))
			}
			fmt.Fprintln(w, strings.Join(row, "\t"))
		}
		w.Flush()
	}
	return err
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	results, err := newRunner().RunMonteCarlo(cmd.Context(), &automation.MonteCarloConfig{
		Base:         cfg,
		Perturbation: mcPerturb,
		Trials:       mcTrials,
		Seed:         mcSeed,
		Workers:      mcWorkers,
	})
	if err != nil {
		return err
	}

	stable, unstable := automation.MonteCarloStats(results)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "model: %s\n", cfg.Model)
	fmt.Fprintf(out, "trials: %d (stable %d, unstable %d)\n", len(results), stable, unstable)

	// mean and spread of each final state over the stable trials
	sums := make(map[string][]float64)
	for _, r := range results {
		if !r.Stable {
			continue
		}
		for id, v := range r.Final {
			sums[id] = append(sums[id], v)
		}
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\nSTATE\tMEAN\tSTD\tMIN\tMAX")
	for _, id := range sortedKeys(sums) {
		mean, std, lo, hi := describe(sums[id])
		fmt.Fprintf(w, "%s\t%.6f\t%.6f\t%.6f\t%.6f\n", id, mean, std, lo, hi)
	}
	return w.Flush()
}

func runTune(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	grid, err := parseGrid(tuneGrid)
	if err != nil {
		return err
	}
	search, err := optim.FromGrid(grid)
	if err != nil {
		return err
	}

	runner := newRunner()
	evaluate := func(ctx context.Context, params map[string]float64) (float64, error) {
		run := cfg.Clone()
		if run.Overrides == nil {
			run.Overrides = make(map[string]float64, len(params))
		}
		for id, v := range params {
			run.Overrides[id] = v
		}
		_, values, err := runner.Run(ctx, run)
		if err != nil {
			runner.Logger.Debug("tune candidate failed", "params", params, "error", err)
			return 0, err
		}
		v, ok := values[tuneMetric]
		if !ok {
			return 0, fmt.Errorf("metric %s not reported by %s", tuneMetric, cfg.Model)
		}
		return v, nil
	}

	fmt.Fprintf(cmd.OutOrStdout(), "searching %d candidates on %s for lowest %s\n", search.Size(), cfg.Model, tuneMetric)
	best, score, err := search.Search(cmd.Context(), evaluate)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\nbest %s: %.6f\n", tuneMetric, score)
	writeValues(cmd.OutOrStdout(), best)
	return nil
}

// parseGrid reads repeated id=v1,v2,... flags.
func parseGrid(args []string) (map[string][]float64, error) {
	out := make(map[string][]float64, len(args))
	for _, arg := range args {
		id, raw, ok := strings.Cut(arg, "=")
		id = strings.TrimSpace(id)
		if !ok || id == "" || raw == "" {
			return nil, fmt.Errorf("invalid --grid %q: want id=v1,v2,...", arg)
		}
		for _, field := range strings.Split(raw, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, fmt.Errorf("invalid --grid %q: %w", arg, err)
			}
			out[id] = append(out[id], v)
		}
	}
	return out, nil
}

func writeValues(w io.Writer, values map[string]float64) {
	for _, id := range sortedKeys(values) {
		fmt.Fprintf(w, "  %s: %.6f\n", id, values[id])
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func describe(xs []float64) (mean, std, lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, x := range xs {
		mean += x
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	mean /= float64(len(xs))
	for _, x := range xs {
		std += (x - mean) * (x - mean)
	}
	std = math.Sqrt(std / float64(len(xs)))
	return
}
