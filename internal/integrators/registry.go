package integrators

import (
	"fmt"
	"sort"

	"github.com/san-kum/rmsim/internal/sim"
)

var factories = map[string]func() sim.Integrator{
	"euler": func() sim.Integrator { return NewEuler() },
	"rk4":   func() sim.Integrator { return NewRK4() },
	"rk45":  func() sim.Integrator { return NewRK45() },
}

// New returns a fresh integrator by name.
func New(name string) (sim.Integrator, error) {
	fn, ok := factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s (available: %v)", ErrUnknown, name, Names())
	}
	return fn(), nil
}

func Names() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
