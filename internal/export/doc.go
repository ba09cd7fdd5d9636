// Package export writes simulation trajectories.
//
// Formats:
//   - CSV: time (step start), t_end (step end), then one column per state
//   - JSON: a [Document] with run metadata and the rows
//   - SVG: a line chart of one state column against end time
//   - PNG: a gonum/plot chart of several state columns
package export
