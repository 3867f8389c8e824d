package disturb

import (
	"context"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/stablegym/internal/dynamo"
)

// Linspace returns n evenly spaced values from lo to hi inclusive.
func Linspace(lo, hi float64, n int) []float64 {
	switch {
	case n <= 0:
		return nil
	case n == 1:
		return []float64{lo}
	}
	return floats.Span(make([]float64, n), lo, hi)
}

// GridSearch evaluates every combination of parameter values and keeps the
// lowest score.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// Search applies each combination to target, calls evaluate, and restores
// the original parameters before returning.
func (g *GridSearch) Search(
	ctx context.Context,
	target dynamo.Configurable,
	evaluate func(ctx context.Context, params map[string]float64) (float64, error),
) (map[string]float64, float64, error) {
	p := NewPerturber(target)
	defer p.Restore()

	best := math.Inf(1)
	var bestParams map[string]float64

	err := g.searchRecursive(ctx, 0, make(map[string]float64), p, evaluate, &best, &bestParams)
	return bestParams, best, err
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	p *Perturber,
	evaluate func(context.Context, map[string]float64) (float64, error),
	best *float64,
	bestParams *map[string]float64,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if depth == len(g.paramNames) {
		if err := p.Apply(current); err != nil {
			return err
		}
		val, err := evaluate(ctx, current)
		if err != nil {
			return err
		}
		if val < *best {
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

		if err := g.searchRecursive(ctx, depth+1, newParams, p, evaluate, best, bestParams); err != nil {
			return err
		}
	}
	return nil
}
