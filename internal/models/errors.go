package models

import (
	"errors"
	"fmt"
)

var (
	ErrMissingInput = errors.New("models: missing input")
	ErrNonPositive  = errors.New("models: value must be positive")
)

func input(in map[string]float64, id string) (float64, error) {
	v, ok := in[id]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrMissingInput, id)
	}
	return v, nil
}

func inputs(in map[string]float64, ids ...string) ([]float64, error) {
	out := make([]float64, len(ids))
	for i, id := range ids {
		v, err := input(in, id)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func errNonPositive(id string, v float64) error {
	return fmt.Errorf("%w: %s = %g", ErrNonPositive, id, v)
}
