package main

import (
	"fmt"
	"math"
	"os"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/san-kum/rmsim/internal/config"
	"github.com/san-kum/rmsim/internal/logging"
	"github.com/san-kum/rmsim/internal/models"
	"github.com/san-kum/rmsim/internal/session"
	"github.com/san-kum/rmsim/internal/tui"
	"github.com/san-kum/rmsim/internal/variables"
)

func listModels(cmd *cobra.Command, args []string) error {
	registry := models.NewRegistry()

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tCONTROL\tDESCRIPTION")
	for _, name := range registry.Names() {
		e, _ := registry.Lookup(name)
		control := "-"
		if e.Subroutine != nil {
			control = "hook"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", name, control, e.Description)
	}
	return w.Flush()
}

func showVars(cmd *cobra.Command, args []string) error {
	opts := session.Options{Logger: logging.NewLogger(logLevel, os.Stderr)}
	if resourcesDir != "" {
		opts.Resources = os.DirFS(resourcesDir)
	}
	s, err := session.Open(models.NewRegistry(), args[0], opts)
	if err != nil {
		return err
	}

	tables := s.Tables()
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TABLE\tID\tLABEL\tVALUE\tMIN\tMAX\tUNITS\tSTATE")
	for _, role := range []string{"parameters", "manipulated", "subroutine", "settings"} {
		t, ok := tables[role]
		if !ok {
			continue
		}
		for _, r := range t.Records(variables.Current) {
			fmt.Fprintf(w, "%s\t%s\t%s\t%g\t%s\t%s\t%s\t%v\n",
				role, r.ID, r.Label, r.Value, bound(r.Min), bound(r.Max), r.Units, r.State)
		}
	}
	return w.Flush()
}

func bound(v float64) string {
	if math.IsInf(v, 0) {
		return "-"
	}
	return fmt.Sprintf("%g", v)
}

func listPresets(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	presets := config.ListPresets(args[0])
	if len(presets) == 0 {
		fmt.Fprintf(out, "no presets for model: %s\n", args[0])
		return nil
	}
	fmt.Fprintf(out, "presets for %s:\n", args[0])
	for _, p := range presets {
		fmt.Fprintf(out, "  %s\n", p)
	}
	return nil
}

func runInteractive(cmd *cobra.Command, args []string) error {
	opts := session.Options{Logger: logging.NewNop()}
	if resourcesDir != "" {
		opts.Resources = os.DirFS(resourcesDir)
	}
	app := tui.NewApp(cmd.Context(), models.NewRegistry(), opts)
	_, err := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
	return err
}
