package export

import (
	"fmt"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/san-kum/rmsim/internal/sim"
)

// WritePNG renders the given state columns against step end time as a PNG
// chart of width x height points. No columns means every state.
func WritePNG(w io.Writer, traj *sim.Trajectory, title string, columns []string, width, height float64) error {
	if traj.Len() < 2 {
		return fmt.Errorf("export: need at least 2 rows to plot, got %d", traj.Len())
	}
	if len(columns) == 0 {
		columns = traj.Columns
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "time"
	p.Add(plotter.NewGrid())

	for i, id := range columns {
		ys, ok := traj.Column(id)
		if !ok {
			return fmt.Errorf("export: unknown column %q", id)
		}
		pts := make(plotter.XYs, len(ys))
		for k, y := range ys {
			pts[k].X = traj.EndTime(k)
			pts[k].Y = y
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("export: %s: %w", id, err)
		}
		line.Color = plotutil.Color(i)
		p.Add(line)
		p.Legend.Add(id, line)
	}
	p.Legend.Top = true

	wt, err := p.WriterTo(vg.Length(width), vg.Length(height), "png")
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}
