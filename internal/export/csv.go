package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/san-kum/rmsim/internal/sim"
)

const (
	ColumnTime    = "time"
	ColumnEndTime = "t_end"
)

var ErrFormat = errors.New("export: malformed trajectory file")

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WriteCSV writes the trajectory with a header row.
func WriteCSV(w io.Writer, traj *sim.Trajectory) error {
	cw := csv.NewWriter(w)

	header := append([]string{ColumnTime, ColumnEndTime}, traj.Columns...)
	if err := cw.Write(header); err != nil {
		return err
	}

	row := make([]string, len(header))
	for k, values := range traj.Rows {
		row[0] = formatFloat(traj.Times[k])
		row[1] = formatFloat(traj.EndTime(k))
		for j, v := range values {
			row[j+2] = formatFloat(v)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a file produced by WriteCSV.
func ReadCSV(r io.Reader) (*sim.Trajectory, error) {
	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: missing header", ErrFormat)
	}

	header := records[0]
	if len(header) < 2 || header[0] != ColumnTime || header[1] != ColumnEndTime {
		return nil, fmt.Errorf("%w: header must start with %s,%s", ErrFormat, ColumnTime, ColumnEndTime)
	}

	traj := &sim.Trajectory{
		Columns: append([]string(nil), header[2:]...),
		Times:   make([]float64, 0, len(records)-1),
		Rows:    make([][]float64, 0, len(records)-1),
	}
	for i, rec := range records[1:] {
		vals := make([]float64, len(rec))
		for j, field := range rec {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: row %d column %d: %v", ErrFormat, i+1, j+1, err)
			}
			vals[j] = v
		}
		if i == 0 {
			traj.Step = vals[1] - vals[0]
		}
		traj.Times = append(traj.Times, vals[0])
		traj.Rows = append(traj.Rows, vals[2:])
	}
	return traj, nil
}
