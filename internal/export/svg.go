package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/san-kum/rmsim/internal/sim"
)

// WriteSVG plots one state column against step end time.
func WriteSVG(w io.Writer, traj *sim.Trajectory, column string, width, height int, strokeColor string) error {
	ys, ok := traj.Column(column)
	if !ok {
		return fmt.Errorf("export: unknown column %q", column)
	}
	if len(ys) < 2 {
		return fmt.Errorf("export: need at least 2 rows to plot, got %d", len(ys))
	}

	xs := make([]float64, len(ys))
	for k := range xs {
		xs[k] = traj.EndTime(k)
	}

	minX, maxX := xs[0], xs[len(xs)-1]
	minY, maxY := ys[0], ys[0]
	for _, y := range ys {
		if y < minY {
			minY = y
		}
		if y > maxY {
			maxY = y
		}
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	// 10% vertical padding
	minY -= rangeY * 0.1
	rangeY *= 1.2

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<text x="8" y="16" fill="#cccccc" font-family="monospace" font-size="12">%s</text>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, column, strokeColor)

	for k := range xs {
		x := (xs[k] - minX) / rangeX * float64(width)
		y := float64(height) - (ys[k]-minY)/rangeY*float64(height)
		if k == 0 {
			fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
		}
	}
	sb.WriteString(`"/>
</svg>
`)

	_, err := io.WriteString(w, sb.String())
	return err
}
