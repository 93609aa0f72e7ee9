package optim

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/rdasim/internal/metrics"
	"github.com/san-kum/rdasim/internal/sim"
)

var ErrNoCandidates = errors.New("no parameter combination completed")

// Point is one evaluated combination. Err is set when the run was
// rejected or diverged; Score is meaningless then.
type Point struct {
	Params map[string]float64
	Score  float64
	Err    error
}

// GridSearch runs every combination of reaction coefficients and scores
// each run with a fresh metric.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	maximize   bool
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// Maximize makes Search prefer the largest score instead of the smallest.
func (g *GridSearch) Maximize() *GridSearch {
	g.maximize = true
	return g
}

// Search returns the best completed point and every point in evaluation
// order. Only context cancellation aborts the sweep.
func (g *GridSearch) Search(
	ctx context.Context,
	base sim.Params,
	newMetric func() metrics.Metric,
) (Point, []Point, error) {
	if len(g.paramNames) != len(g.ranges) {
		return Point{}, nil, fmt.Errorf("%d parameters but %d ranges", len(g.paramNames), len(g.ranges))
	}

	var all []Point
	if err := g.searchRecursive(ctx, 0, make(map[string]float64), base, newMetric, &all); err != nil {
		return Point{}, all, err
	}

	best := -1
	for i, p := range all {
		if p.Err != nil {
			continue
		}
		if best < 0 || g.better(p.Score, all[best].Score) {
			best = i
		}
	}
	if best < 0 {
		return Point{}, all, ErrNoCandidates
	}
	return all[best], all, nil
}

func (g *GridSearch) better(a, b float64) bool {
	if g.maximize {
		return a > b
	}
	return a < b
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	base sim.Params,
	newMetric func() metrics.Metric,
	all *[]Point,
) error {
	if depth == len(g.paramNames) {
		pt := evaluate(ctx, current, base, newMetric)
		if errors.Is(pt.Err, context.Canceled) || errors.Is(pt.Err, context.DeadlineExceeded) {
			return pt.Err
		}
		*all = append(*all, pt)
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, newParams, base, newMetric, all); err != nil {
			return err
		}
	}
	return nil
}

func evaluate(ctx context.Context, params map[string]float64, base sim.Params, newMetric func() metrics.Metric) Point {
	pt := Point{Params: params}
	p := base
	for name, v := range params {
		if err := p.Model.SetParam(name, v); err != nil {
			pt.Err = err
			return pt
		}
	}

	d, err := sim.New(p)
	if err != nil {
		pt.Err = err
		return pt
	}
	m := newMetric()
	if _, err := d.Run(ctx, func(s sim.Snapshot) error {
		m.Observe(s)
		return nil
	}); err != nil {
		pt.Err = err
		return pt
	}
	pt.Score = m.Value()
	return pt
}

// ParseRange reads "lo:hi:n" as n evenly spaced values, or a single value.
func ParseRange(s string) ([]float64, error) {
	parts := strings.Split(s, ":")
	switch len(parts) {
	case 1:
		v, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return nil, err
		}
		return []float64{v}, nil
	case 3:
		lo, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return nil, err
		}
		hi, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, err
		}
		n, err := strconv.Atoi(parts[2])
		if err != nil {
			return nil, err
		}
		if n < 2 {
			return nil, fmt.Errorf("range %q needs at least 2 points", s)
		}
		return floats.Span(make([]float64, n), lo, hi), nil
	default:
		return nil, fmt.Errorf("range %q: expected lo:hi:n or a single value", s)
	}
}
