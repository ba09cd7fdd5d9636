// Package optim searches controller and model inputs for the values that
// minimize a run metric.
package optim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
)

var ErrNoCandidate = errors.New("optim: no grid point evaluated successfully")

// Evaluate scores one candidate. Lower is better.
type Evaluate func(ctx context.Context, params map[string]float64) (float64, error)

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

// NewGridSearch searches the cartesian product of the given ranges.
func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) == 0 || len(params) != len(ranges) {
		return nil, fmt.Errorf("optim: %d parameters for %d ranges", len(params), len(ranges))
	}
	for i, r := range ranges {
		if len(r) == 0 {
			return nil, fmt.Errorf("optim: empty range for %s", params[i])
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges}, nil
}

// FromGrid builds a search from id -> values, ordering parameters by id.
func FromGrid(grid map[string][]float64) (*GridSearch, error) {
	names := make([]string, 0, len(grid))
	for id := range grid {
		names = append(names, id)
	}
	sort.Strings(names)
	ranges := make([][]float64, len(names))
	for i, id := range names {
		ranges[i] = grid[id]
	}
	return NewGridSearch(names, ranges)
}

// Size is the number of grid points.
func (g *GridSearch) Size() int {
	n := 1
	for _, r := range g.ranges {
		n *= len(r)
	}
	return n
}

// Search evaluates every grid point and returns the best one. Points whose
// evaluation fails or scores NaN are skipped; ties keep the first point.
func (g *GridSearch) Search(ctx context.Context, evaluate Evaluate) (map[string]float64, float64, error) {
	best := math.Inf(1)
	var bestParams map[string]float64

	if err := g.searchRecursive(ctx, 0, make(map[string]float64), evaluate, &best, &bestParams); err != nil {
		return nil, 0, err
	}
	if bestParams == nil {
		return nil, 0, ErrNoCandidate
	}
	return bestParams, best, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	evaluate Evaluate,
	best *float64,
	bestParams *map[string]float64,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if depth == len(g.paramNames) {
		val, err := evaluate(ctx, current)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return nil
		}

		if !math.IsNaN(val) && (val < *best || *bestParams == nil) {
			*best = val
			*bestParams = make(map[string]float64)
			for k, v := range current {
				(*bestParams)[k] = v
			}
		}
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, newParams, evaluate, best, bestParams); err != nil {
			return err
		}
	}
	return nil
}
