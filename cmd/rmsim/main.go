package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

var (
	dataDir  string
	logLevel string

	configFile    string
	preset        string
	resourcesDir  string
	integrator    string
	start         float64
	end           float64
	steps         int
	sets          []string
	format        string
	outFile       string
	column        string
	plot          bool
	save          bool
	resetAfterRun bool
	metricsAddr   string

	exportFormat string
	exportOut    string
	exportColumn string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "rmsim",
		Short:         "reactor model simulation engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".rmsim", "data directory for saved runs")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&resourcesDir, "resources", "", "directory of CSV resources replacing the built-in ones")

	runCmd := &cobra.Command{
		Use:   "run [model]",
		Short: "run simulation",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addBaseFlags(runCmd)
	runCmd.Flags().StringVar(&format, "format", "summary", "output format (summary, csv, json, svg, png)")
	runCmd.Flags().StringVarP(&outFile, "out", "o", "", "write output to file instead of stdout")
	runCmd.Flags().StringVar(&column, "column", "", "state column for svg (default: first) or png (default: all) output")
	runCmd.Flags().BoolVar(&plot, "plot", false, "plot every state in the terminal")
	runCmd.Flags().BoolVar(&save, "save", false, "save the run to the data directory")
	runCmd.Flags().BoolVar(&resetAfterRun, "reset-after-run", false, "restore defaults once the run finishes")
	runCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on addr until interrupted")

	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "list built-in models",
		Args:  cobra.NoArgs,
		RunE:  listModels,
	}

	varsCmd := &cobra.Command{
		Use:   "vars [model]",
		Short: "show a model's variable tables",
		Args:  cobra.ExactArgs(1),
		RunE:  showVars,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [model]",
		Short: "list available presets for a model",
		Args:  cobra.ExactArgs(1),
		RunE:  listPresets,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVar(&exportFormat, "format", "json", "output format (csv, json, svg, png)")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "write output to file instead of stdout")
	exportCmd.Flags().StringVar(&exportColumn, "column", "", "state column for svg (default: first) or png (default: all) output")

	compareCmd := &cobra.Command{
		Use:   "compare [model] [integrator1] [integrator2] ...",
		Short: "compare integrators on the same model",
		Args:  cobra.MinimumNArgs(2),
		RunE:  compareIntegrators,
	}

	benchCmd := &cobra.Command{
		Use:   "bench [model]",
		Short: "benchmark a model across integrators and step counts",
		Args:  cobra.ExactArgs(1),
		RunE:  benchModel,
	}

	interactiveCmd := &cobra.Command{
		Use:   "interactive",
		Short: "browse, edit and run models in the terminal",
		Args:  cobra.NoArgs,
		RunE:  runInteractive,
	}

	rootCmd.AddCommand(runCmd, modelsCmd, varsCmd, presetsCmd, listCmd, plotCmd, exportCmd, compareCmd, benchCmd, interactiveCmd)
	rootCmd.AddCommand(batchCommands()...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}
