package variables

import "fmt"

// Snapshot selects which copy of a table is read.
type Snapshot int

const (
	Current Snapshot = iota
	Default
)

func (s Snapshot) String() string {
	switch s {
	case Current:
		return "current"
	case Default:
		return "default"
	default:
		return fmt.Sprintf("snapshot(%d)", int(s))
	}
}

// Table is an ordered, identifier-keyed collection of records.
type Table struct {
	ids     []string
	index   map[string]int
	def     []Record
	current []Record
}

// New builds a table whose default and current snapshots both start as records.
func New(records []Record) (*Table, error) {
	t := &Table{
		ids:     make([]string, 0, len(records)),
		index:   make(map[string]int, len(records)),
		def:     make([]Record, 0, len(records)),
		current: make([]Record, 0, len(records)),
	}
	for _, r := range records {
		if r.ID == "" {
			return nil, fmt.Errorf("%w: empty identifier", ErrMalformed)
		}
		if _, dup := t.index[r.ID]; dup {
			return nil, &DuplicateKeyError{ID: r.ID}
		}
		t.index[r.ID] = len(t.ids)
		t.ids = append(t.ids, r.ID)
		t.def = append(t.def, r)
		t.current = append(t.current, r)
	}
	return t, nil
}

func (t *Table) Len() int { return len(t.ids) }

// IDs returns identifiers in table order.
func (t *Table) IDs() []string {
	out := make([]string, len(t.ids))
	copy(out, t.ids)
	return out
}

func (t *Table) Has(id string) bool {
	_, ok := t.index[id]
	return ok
}

func (t *Table) snapshot(s Snapshot) []Record {
	if s == Default {
		return t.def
	}
	return t.current
}

// Get returns the record for id from the given snapshot.
func (t *Table) Get(id string, s Snapshot) (Record, bool) {
	i, ok := t.index[id]
	if !ok {
		return Record{}, false
	}
	return t.snapshot(s)[i], true
}

// Value returns the current value of id.
func (t *Table) Value(id string) (float64, bool) {
	r, ok := t.Get(id, Current)
	return r.Value, ok
}

// Records returns a copy of the snapshot in table order.
func (t *Table) Records(s Snapshot) []Record {
	src := t.snapshot(s)
	out := make([]Record, len(src))
	copy(out, src)
	return out
}

// Values projects a snapshot to identifier -> value.
func (t *Table) Values(s Snapshot) map[string]float64 {
	src := t.snapshot(s)
	out := make(map[string]float64, len(src))
	for _, r := range src {
		out[r.ID] = r.Value
	}
	return out
}

// Update merges values into the current snapshot. Identifiers the table does
// not hold are ignored so callers can pass a superset mapping.
func (t *Table) Update(values map[string]float64) {
	for id, v := range values {
		if i, ok := t.index[id]; ok {
			t.current[i].Value = v
		}
	}
}

// Set writes a single current value after checking it against the record's bounds.
func (t *Table) Set(id string, v float64) error {
	i, ok := t.index[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownVariable, id)
	}
	if err := t.current[i].CheckBounds(v); err != nil {
		return err
	}
	t.current[i].Value = v
	return nil
}

// Reset restores the current snapshot from the default snapshot.
func (t *Table) Reset() {
	copy(t.current, t.def)
}

// Clone returns an independent table with the same snapshots.
func (t *Table) Clone() *Table {
	c := &Table{
		ids:     t.IDs(),
		index:   make(map[string]int, len(t.index)),
		def:     t.Records(Default),
		current: t.Records(Current),
	}
	for id, i := range t.index {
		c.index[id] = i
	}
	return c
}
