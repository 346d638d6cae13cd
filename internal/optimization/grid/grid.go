// Package grid implements the exhaustive grid-search back-end: the
// objective is evaluated on a regular lattice over the bounds, with no
// post-hoc local polishing, so results stay deterministic for
// diagnostic use.
package grid

import (
	"context"

	"gonum.org/v1/gonum/floats"

	"github.com/fisopt/fisopt/internal/optimization"
)

// DefaultPoints is the default (deliberately coarse) number of lattice
// points per dimension.
const DefaultPoints = 3

// Config configures the grid search.
type Config struct {
	// Objective is the minimization-form objective.
	Objective optimization.ObjectiveFunction

	// Bounds for each dimension [min, max].
	Bounds [][2]float64

	// Points per dimension; DefaultPoints when unset.
	Points int

	// Workers bounds the parallel evaluations.
	Workers int

	// KeepTable retains the full evaluation table for inspection.
	KeepTable bool
}

// Table is the full evaluation record of a grid run.
type Table struct {
	Points [][]float64
	Values []float64
}

// Optimizer evaluates the objective on every lattice point. The
// initial guess is ignored: the lattice alone determines the
// candidates.
type Optimizer struct {
	cfg   Config
	table *Table
}

// New creates a grid optimizer.
func New(cfg Config) (*Optimizer, error) {
	if cfg.Objective == nil {
		return nil, optimization.NewError("objective function is required").WithComponent("grid")
	}
	if len(cfg.Bounds) == 0 {
		return nil, optimization.NewError("bounds are required").WithComponent("grid")
	}
	if cfg.Points < 1 {
		cfg.Points = DefaultPoints
	}
	return &Optimizer{cfg: cfg}, nil
}

// Search enumerates the lattice and returns the best point. Ties keep
// the first lattice point in enumeration order, so repeated runs agree.
func (o *Optimizer) Search(ctx context.Context) (*optimization.SearchResult, error) {
	points := o.lattice()

	values, err := optimization.EvaluateAll(ctx, o.cfg.Objective, points, o.cfg.Workers)
	if err != nil {
		return nil, err
	}

	bestIdx := 0
	for i, v := range values {
		if v < values[bestIdx] {
			bestIdx = i
		}
	}

	if o.cfg.KeepTable {
		o.table = &Table{Points: points, Values: values}
	}

	return &optimization.SearchResult{
		Best: &optimization.Solution{
			Point: append([]float64(nil), points[bestIdx]...),
			Value: values[bestIdx],
		},
		Evaluations: len(points),
	}, nil
}

// Table returns the full evaluation table of the last run, or nil when
// KeepTable was not set.
func (o *Optimizer) Table() *Table {
	return o.table
}

// lattice builds the Points^dim candidate list by running an odometer
// over the per-dimension axes.
func (o *Optimizer) lattice() [][]float64 {
	dim := len(o.cfg.Bounds)

	axes := make([][]float64, dim)
	for j, b := range o.cfg.Bounds {
		axis := make([]float64, o.cfg.Points)
		if o.cfg.Points == 1 {
			axis[0] = (b[0] + b[1]) / 2
		} else {
			floats.Span(axis, b[0], b[1])
		}
		axes[j] = axis
	}

	total := 1
	for range axes {
		total *= o.cfg.Points
	}

	points := make([][]float64, 0, total)
	idx := make([]int, dim)
	for {
		p := make([]float64, dim)
		for j := range idx {
			p[j] = axes[j][idx[j]]
		}
		points = append(points, p)

		j := dim - 1
		for j >= 0 {
			idx[j]++
			if idx[j] < o.cfg.Points {
				break
			}
			idx[j] = 0
			j--
		}
		if j < 0 {
			break
		}
	}
	return points
}
