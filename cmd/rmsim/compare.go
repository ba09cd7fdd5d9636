package main

import (
	"fmt"
	"math"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/rmsim/internal/integrators"
	"github.com/san-kum/rmsim/internal/logging"
	"github.com/san-kum/rmsim/internal/models"
	"github.com/san-kum/rmsim/internal/session"
	"github.com/san-kum/rmsim/internal/sim"
)

func compareIntegrators(cmd *cobra.Command, args []string) error {
	model := args[0]
	names := args[1:]
	ctx := cmd.Context()

	type result struct {
		name    string
		final   []float64
		elapsed time.Duration
	}
	results := make([]result, 0, len(names))
	var columns []string

	for _, name := range names {
		integ, err := integrators.New(name)
		if err != nil {
			return err
		}
		s, err := session.Open(models.NewRegistry(), model, session.Options{
			Integrator: integ,
			Logger:     logging.NewNop(),
		})
		if err != nil {
			return err
		}

		began := time.Now()
		traj, err := s.Run(ctx)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		columns = traj.Columns
		results = append(results, result{name: name, final: traj.Rows[traj.Len()-1], elapsed: time.Since(began)})
	}

	fmt.Fprintf(cmd.OutOrStdout(), "comparing integrators on %s (reference: %s)\n\n", model, results[0].name)
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	header := "INTEGRATOR\tTIME\tMAX DIFF"
	for _, c := range columns {
		header += "\t" + c
	}
	fmt.Fprintln(w, header)

	ref := results[0].final
	for _, r := range results {
		diff := 0.0
		for j := range r.final {
			diff = math.Max(diff, math.Abs(r.final[j]-ref[j]))
		}
		fmt.Fprintf(w, "%s\t%v\t%.3e", r.name, r.elapsed, diff)
		for _, v := range r.final {
			fmt.Fprintf(w, "\t%.6f", v)
		}
		fmt.Fprintln(w)
	}
	return w.Flush()
}

func benchModel(cmd *cobra.Command, args []string) error {
	model := args[0]
	ctx := cmd.Context()
	stepCounts := []int{10, 100, 1000}

	fmt.Fprintf(cmd.OutOrStdout(), "benchmarking %s\n\n", model)
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "INTEGRATOR\tSTEPS\tTIME\tSTEPS/SEC")

	for _, name := range integrators.Names() {
		for _, n := range stepCounts {
			integ, err := integrators.New(name)
			if err != nil {
				return err
			}
			s, err := session.Open(models.NewRegistry(), model, session.Options{
				Integrator: integ,
				Logger:     logging.NewNop(),
			})
			if err != nil {
				return err
			}
			if err := s.SetInputs(map[string]float64{sim.SettingSteps: float64(n)}); err != nil {
				return err
			}

			began := time.Now()
			traj, err := s.Run(ctx)
			if err != nil {
				return fmt.Errorf("%s with %d steps: %w", name, n, err)
			}
			elapsed := time.Since(began)

			fmt.Fprintf(w, "%s\t%d\t%v\t%.0f\n", name, traj.Len(), elapsed, float64(traj.Len())/elapsed.Seconds())
		}
	}
	return w.Flush()
}
