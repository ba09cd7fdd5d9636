package variables

import (
	"fmt"
	"math"
)

// Record is a single variable row.
type Record struct {
	ID    string
	Label string
	Value float64
	// Min and Max are -Inf and +Inf when the resource leaves them empty.
	Min   float64
	Max   float64
	Units string
	// State marks a dynamic quantity advanced by integration.
	State bool
}

// NewRecord returns an unbounded, non-state record.
func NewRecord(id, label string, value float64) Record {
	return Record{
		ID:    id,
		Label: label,
		Value: value,
		Min:   math.Inf(-1),
		Max:   math.Inf(1),
	}
}

func (r Record) HasMin() bool { return !math.IsInf(r.Min, -1) }
func (r Record) HasMax() bool { return !math.IsInf(r.Max, 1) }

// InBounds reports whether v lies within the record's declared range.
func (r Record) InBounds(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// CheckBounds returns ErrOutOfBounds wrapped with context when v is outside the range.
func (r Record) CheckBounds(v float64) error {
	if math.IsNaN(v) || !r.InBounds(v) {
		return fmt.Errorf("%w: %s=%g not in [%g, %g]", ErrOutOfBounds, r.ID, v, r.Min, r.Max)
	}
	return nil
}
