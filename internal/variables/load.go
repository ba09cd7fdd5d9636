package variables

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"strconv"
	"strings"
)

const (
	colID    = "var"
	colLabel = "label"
	colValue = "value"
	colMin   = "min"
	colMax   = "max"
	colUnits = "units"
	colState = "state"
)

var columnAliases = map[string]string{
	"var":        colID,
	"id":         colID,
	"identifier": colID,
	"label":      colLabel,
	"value":      colValue,
	"min":        colMin,
	"minimum":    colMin,
	"max":        colMax,
	"maximum":    colMax,
	"units":      colUnits,
	"unit":       colUnits,
	"state":      colState,
}

// LoadFile reads a CSV variable resource from disk.
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Source: path, Err: err}
	}
	defer f.Close()
	return Load(f, path)
}

// LoadFS reads a CSV variable resource from fsys.
func LoadFS(fsys fs.FS, name string) (*Table, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, &LoadError{Source: name, Err: err}
	}
	defer f.Close()
	return Load(f, name)
}

// Load parses CSV rows into a table. source names the resource in errors.
// Every failure, duplicate identifiers included, is returned as a *LoadError.
func Load(r io.Reader, source string) (*Table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = fmt.Errorf("%w: missing header", ErrMalformed)
		}
		return nil, &LoadError{Source: source, Err: err}
	}

	cols, err := mapColumns(header)
	if err != nil {
		return nil, &LoadError{Source: source, Line: 1, Err: err}
	}

	var records []Record
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &LoadError{Source: source, Err: err}
		}
		line, _ := cr.FieldPos(0)
		rec, err := parseRow(row, cols)
		if err != nil {
			return nil, &LoadError{Source: source, Line: line, Err: err}
		}
		records = append(records, rec)
	}

	t, err := New(records)
	if err != nil {
		return nil, &LoadError{Source: source, Err: err}
	}
	return t, nil
}

func mapColumns(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		key, ok := columnAliases[strings.ToLower(strings.TrimSpace(h))]
		if !ok {
			continue
		}
		if _, dup := cols[key]; dup {
			return nil, fmt.Errorf("%w: column %q repeated", ErrMalformed, h)
		}
		cols[key] = i
	}
	for _, required := range []string{colID, colValue} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("%w: missing %q column", ErrMalformed, required)
		}
	}
	return cols, nil
}

func parseRow(row []string, cols map[string]int) (Record, error) {
	cell := func(key string) string {
		i, ok := cols[key]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	rec := Record{
		ID:    cell(colID),
		Label: cell(colLabel),
		Units: cell(colUnits),
		Min:   math.Inf(-1),
		Max:   math.Inf(1),
	}
	if rec.ID == "" {
		return Record{}, fmt.Errorf("%w: empty identifier", ErrMalformed)
	}
	if rec.Label == "" {
		rec.Label = rec.ID
	}

	var err error
	if rec.Value, err = parseFloat(cell(colValue)); err != nil {
		return Record{}, fmt.Errorf("%s value: %w", rec.ID, err)
	}
	if s := cell(colMin); s != "" {
		if rec.Min, err = parseFloat(s); err != nil {
			return Record{}, fmt.Errorf("%s min: %w", rec.ID, err)
		}
	}
	if s := cell(colMax); s != "" {
		if rec.Max, err = parseFloat(s); err != nil {
			return Record{}, fmt.Errorf("%s max: %w", rec.ID, err)
		}
	}
	if rec.Min > rec.Max {
		return Record{}, fmt.Errorf("%w: %s min %g exceeds max %g", ErrMalformed, rec.ID, rec.Min, rec.Max)
	}
	if s := cell(colState); s != "" {
		if rec.State, err = strconv.ParseBool(s); err != nil {
			return Record{}, fmt.Errorf("%w: %s state %q", ErrMalformed, rec.ID, s)
		}
	}
	return rec, nil
}

func parseFloat(s string) (float64, error) {
	if s == "" {
		return 0, fmt.Errorf("%w: empty number", ErrMalformed)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrMalformed, s)
	}
	return v, nil
}
