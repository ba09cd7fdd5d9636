package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/san-kum/rmsim/internal/config"
	"github.com/san-kum/rmsim/internal/export"
	"github.com/san-kum/rmsim/internal/logging"
	"github.com/san-kum/rmsim/internal/metrics"
	"github.com/san-kum/rmsim/internal/models"
	"github.com/san-kum/rmsim/internal/observability"
	"github.com/san-kum/rmsim/internal/session"
	"github.com/san-kum/rmsim/internal/sim"
	"github.com/san-kum/rmsim/internal/storage"
)

// resolveConfig builds the run configuration. The base is the config file,
// a preset, or the defaults; the model argument and any flag the user set
// explicitly win over it.
func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	if len(args) > 0 {
		cfg.Model = args[0]
	}
	if preset != "" {
		p := config.GetPreset(cfg.Model, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(cfg.Model))
		}
		p.LogLevel = cfg.LogLevel
		cfg = p
	}

	flags := cmd.Flags()
	if flags.Changed("integrator") {
		cfg.Integrator = integrator
	}
	if flags.Changed("resources") {
		cfg.Resources = resourcesDir
	}
	if flags.Changed("start") {
		cfg.Settings.Start = &start
	}
	if flags.Changed("end") {
		cfg.Settings.End = &end
	}
	if flags.Changed("steps") {
		cfg.Settings.Steps = &steps
	}
	if flags.Changed("reset-after-run") {
		cfg.ResetAfterRun = resetAfterRun
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("metrics-addr") {
		cfg.MetricsAddr = metricsAddr
	}

	overrides, err := parseSets(sets)
	if err != nil {
		return nil, err
	}
	if len(overrides) > 0 && cfg.Overrides == nil {
		cfg.Overrides = make(map[string]float64, len(overrides))
	}
	for id, v := range overrides {
		cfg.Overrides[id] = v
	}

	return cfg, cfg.Validate()
}

// parseSets reads repeated id=value flags.
func parseSets(pairs []string) (map[string]float64, error) {
	out := make(map[string]float64, len(pairs))
	for _, pair := range pairs {
		id, raw, ok := strings.Cut(pair, "=")
		id = strings.TrimSpace(id)
		if !ok || id == "" {
			return nil, fmt.Errorf("invalid --set %q: want id=value", pair)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid --set %q: %w", pair, err)
		}
		out[id] = v
	}
	return out, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	logger := logging.NewLogger(cfg.LogLevel, os.Stderr)
	opts := session.Options{Logger: logger}
	ctx := cmd.Context()

	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		m, err := observability.NewMetrics(reg)
		if err != nil {
			return err
		}
		opts.Observers = append(opts.Observers, m)
		observability.Serve(ctx, cfg.MetricsAddr, reg, logger)
	}

	s, err := session.FromConfig(models.NewRegistry(), cfg, opts)
	if err != nil {
		return err
	}
	inputs := cfg.Inputs()
	settings, err := sim.DecodeSettings(s.Settings())
	if err != nil {
		return err
	}
	captions := stateCaptions(s)
	summary := metrics.Default(s.Definition(), settings.Start)
	s.Simulator().AddObserver(summary)

	began := time.Now()
	traj, err := s.Run(ctx)
	if err != nil {
		return err
	}
	elapsed := time.Since(began)

	var runID string
	if save {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err = st.Save(storage.RunMetadata{
			Model:      cfg.Model,
			Integrator: cfg.Integrator,
			Settings:   settings,
			Inputs:     inputs,
		}, traj)
		if err != nil {
			return err
		}
	}

	out, closeOut, err := openOutput(cmd, outFile)
	if err != nil {
		return err
	}
	defer closeOut()

	switch format {
	case "summary":
		printSummary(out, cfg, settings, traj, elapsed, runID)
		printMetrics(out, summary.Values())
	default:
		doc := export.NewDocument(cfg.Model, cfg.Integrator, settings, inputs, traj)
		if err := writeTrajectory(out, format, column, doc, traj); err != nil {
			return err
		}
	}

	if plot {
		plotColumns(cmd.OutOrStdout(), traj, captions)
	}

	if cfg.MetricsAddr != "" {
		logger.Info("run complete, serving metrics until interrupted", "addr", cfg.MetricsAddr)
		<-ctx.Done()
	}
	return nil
}

func openOutput(cmd *cobra.Command, path string) (io.Writer, func(), error) {
	if path == "" {
		return cmd.OutOrStdout(), func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}

func writeTrajectory(w io.Writer, format, column string, doc export.Document, traj *sim.Trajectory) error {
	switch format {
	case "csv":
		return export.WriteCSV(w, traj)
	case "json":
		return export.WriteJSON(w, doc)
	case "svg":
		if column == "" && len(traj.Columns) > 0 {
			column = traj.Columns[0]
		}
		return export.WriteSVG(w, traj, column, 800, 400, "#00ff00")
	case "png":
		var columns []string
		if column != "" {
			columns = []string{column}
		}
		return export.WritePNG(w, traj, doc.Model, columns, 640, 360)
	default:
		return fmt.Errorf("unknown format: %s (want summary, csv, json, svg or png)", format)
	}
}

func printSummary(w io.Writer, cfg *config.Config, settings sim.Settings, traj *sim.Trajectory, elapsed time.Duration, runID string) {
	fmt.Fprintf(w, "model: %s\n", cfg.Model)
	fmt.Fprintf(w, "integrator: %s\n", cfg.Integrator)
	fmt.Fprintf(w, "time: %g to %g, %d steps of %g\n", settings.Start, settings.End, settings.Steps, settings.StepSize())
	fmt.Fprintf(w, "completed in %v\n", elapsed)
	if runID != "" {
		fmt.Fprintf(w, "run id: %s\n", runID)
	}

	final := traj.Final()
	ids := make([]string, 0, len(final))
	for id := range final {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	fmt.Fprintln(w, "\nfinal state:")
	for _, id := range ids {
		fmt.Fprintf(w, "  %s: %.6f\n", id, final[id])
	}
}

func printMetrics(w io.Writer, values map[string]float64) {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(w, "\nmetrics:")
	for _, name := range names {
		fmt.Fprintf(w, "  %s: %.6f\n", name, values[name])
	}
}
