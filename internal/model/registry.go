package model

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"

	"github.com/san-kum/rmsim/internal/hook"
	"github.com/san-kum/rmsim/internal/variables"
)

// Resource file names looked up in a model's filesystem.
const (
	ParametersFile     = "parameters.csv"
	ManipulatedFile    = "manipulated_vars.csv"
	SubroutineVarsFile = "subroutine_vars.csv"
	SettingsFile       = "simulator_vars.csv"
)

// Entry describes a registered model.
type Entry struct {
	Description string
	// Computation builds the right-hand side. Required.
	Computation func() Computation
	// Subroutine builds the optional control hook.
	Subroutine hook.Factory
	// Resources holds the model's CSV files at its root.
	Resources fs.FS
}

// Registry maps model names to entries. Loads may run concurrently once
// registration is done.
type Registry struct {
	entries map[string]Entry
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Entry)}
}

// Register adds a model. Names must be unique.
func (r *Registry) Register(name string, e Entry) error {
	if name == "" {
		return errors.New("model: empty registry name")
	}
	if _, ok := r.entries[name]; ok {
		return fmt.Errorf("model: %q already registered", name)
	}
	r.entries[name] = e
	return nil
}

// MustRegister is Register that panics, for init-time wiring.
func (r *Registry) MustRegister(name string, e Entry) {
	if err := r.Register(name, e); err != nil {
		panic(err)
	}
}

func (r *Registry) Lookup(name string) (Entry, bool) {
	e, ok := r.entries[name]
	return e, ok
}

// Names returns registered model names sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Load builds a Definition from the entry's own resources.
func (r *Registry) Load(name string) (*Definition, error) {
	return r.LoadFrom(name, nil)
}

// LoadFrom builds a Definition reading CSV resources from fsys instead of
// the registered resources when fsys is non-nil.
func (r *Registry) LoadFrom(name string, fsys fs.FS) (*Definition, error) {
	e, ok := r.entries[name]
	if !ok {
		return nil, &ConfigurationError{Model: name, Err: ErrUnknownModel}
	}
	if e.Computation == nil {
		return nil, &ConfigurationError{Model: name, Err: ErrNoComputation}
	}
	if fsys == nil {
		fsys = e.Resources
	}
	if fsys == nil {
		return nil, configErr(name, "no resources")
	}

	params, err := variables.LoadFS(fsys, ParametersFile)
	if err != nil {
		return nil, err
	}
	mvars, err := variables.LoadFS(fsys, ManipulatedFile)
	if err != nil {
		return nil, err
	}

	opts := []Option{WithSubroutine(e.Subroutine)}
	subr, err := loadOptional(fsys, SubroutineVarsFile)
	if err != nil {
		return nil, err
	}
	if subr != nil {
		opts = append(opts, WithSubroutineVars(subr))
	}

	comp := e.Computation()
	if comp == nil {
		return nil, &ConfigurationError{Model: name, Err: ErrNoComputation}
	}
	return New(name, params, mvars, comp, opts...)
}

// Settings loads the model's simulator settings table, or returns nil
// when the model ships none.
func (r *Registry) Settings(name string, fsys fs.FS) (*variables.Table, error) {
	if fsys == nil {
		e, ok := r.entries[name]
		if !ok {
			return nil, &ConfigurationError{Model: name, Err: ErrUnknownModel}
		}
		fsys = e.Resources
	}
	if fsys == nil {
		return nil, nil
	}
	return loadOptional(fsys, SettingsFile)
}

func loadOptional(fsys fs.FS, name string) (*variables.Table, error) {
	t, err := variables.LoadFS(fsys, name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return t, err
}
