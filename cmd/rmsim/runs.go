package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/rmsim/internal/export"
	"github.com/san-kum/rmsim/internal/storage"
)

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no runs found")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMODEL\tTIME\tSTART\tEND\tSTEPS\tINTEG")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%g\t%g\t%d\t%s\n",
			run.ID,
			run.Model,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Settings.Start,
			run.Settings.End,
			run.Settings.Steps,
			run.Integrator,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	traj, err := st.LoadTrajectory(runID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run: %s\n", meta.ID)
	fmt.Fprintf(out, "model: %s\n", meta.Model)
	fmt.Fprintf(out, "samples: %d\n\n", traj.Len())

	plotColumns(out, traj, nil)
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	traj, err := st.LoadTrajectory(runID)
	if err != nil {
		return err
	}

	out, closeOut, err := openOutput(cmd, exportOut)
	if err != nil {
		return err
	}
	defer closeOut()

	doc := export.NewDocument(meta.Model, meta.Integrator, meta.Settings, meta.Inputs, traj)
	if err := writeTrajectory(out, exportFormat, exportColumn, doc, traj); err != nil {
		return err
	}
	if exportOut != "" {
		fmt.Fprintf(os.Stderr, "exported %s to %s\n", runID, exportOut)
	}
	return nil
}
