package main

import (
	"fmt"
	"io"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/rmsim/internal/session"
	"github.com/san-kum/rmsim/internal/sim"
	"github.com/san-kum/rmsim/internal/variables"
)

const maxPlots = 6

// stateCaptions labels each state with its label and units from the table.
func stateCaptions(s *session.Session) map[string]string {
	mv := s.Definition().Manipulated()
	out := make(map[string]string)
	for _, id := range s.Definition().StateIDs() {
		rec, ok := mv.Get(id, variables.Default)
		if !ok {
			continue
		}
		caption := fmt.Sprintf("%s (%s)", rec.Label, id)
		if rec.Units != "" {
			caption = fmt.Sprintf("%s [%s]", caption, rec.Units)
		}
		out[id] = caption
	}
	return out
}

func plotColumns(w io.Writer, traj *sim.Trajectory, captions map[string]string) {
	if traj.Len() == 0 {
		fmt.Fprintln(w, "no data to plot")
		return
	}

	for i, id := range traj.Columns {
		if i == maxPlots {
			fmt.Fprintf(w, "(%d more states not shown)\n", len(traj.Columns)-maxPlots)
			break
		}
		data, _ := traj.Column(id)

		caption := captions[id]
		if caption == "" {
			caption = id + " vs time"
		}

		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(caption),
		)
		fmt.Fprintln(w, graph)
		fmt.Fprintln(w)
	}
}
