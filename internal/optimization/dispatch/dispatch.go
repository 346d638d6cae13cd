// Package dispatch exposes the public optimization entry points: one
// per global-search back-end, all sharing the same bounds/constraint
// construction, initial guess and objective adapter.
package dispatch

import (
	"context"

	"github.com/fisopt/fisopt/internal/design"
	"github.com/fisopt/fisopt/internal/design/penalty"
	"github.com/fisopt/fisopt/internal/optimization"
	"github.com/fisopt/fisopt/internal/optimization/evolution"
	"github.com/fisopt/fisopt/internal/optimization/grid"
	"github.com/fisopt/fisopt/internal/optimization/hopping"
	"github.com/fisopt/fisopt/internal/optimization/objective"
)

// Options carries the caller-supplied knobs for a run. Each back-end
// consumes the fields its search understands and ignores the rest;
// Evaluator and Penalty are shared by all of them.
type Options struct {
	// Evaluator is the external Fisher-criterion function. Required.
	Evaluator optimization.Evaluator

	// Penalty is the discretization penalty strategy name; "default"
	// when empty.
	Penalty string

	// Workers bounds parallel candidate evaluation where the back-end
	// supports it.
	Workers int

	// RandomSeed for reproducibility; 0 seeds from the clock.
	RandomSeed int64

	// MaxIterations: generations (evolution), hops (basin-hopping).
	MaxIterations int

	// PopulationSize for the population-based back-ends.
	PopulationSize int

	// UseMayfly switches the population back-end to the external
	// mayfly optimizer.
	UseMayfly bool

	// GridPoints per dimension for the grid back-end.
	GridPoints int

	// KeepTable retains the grid back-end's full evaluation table.
	KeepTable bool

	// StepSize and Temperature tune the basin-hopping proposals.
	StepSize    float64
	Temperature float64
}

// run is the shared shape of every entry point: build bounds,
// constraints and initial guess once, run the back-end, then evaluate
// the reported optimum once more for the full structured result.
func run(ctx context.Context, d *design.ParametrizedDesign, opts Options,
	search func(adapter *objective.Adapter, cs *design.ConstraintSystem, x0 []float64) (optimization.Searcher, error),
) (*optimization.Result, error) {
	if opts.Evaluator == nil {
		return nil, optimization.NewError("evaluator is required").WithComponent("dispatch")
	}
	strategy, err := penalty.ParseStrategy(opts.Penalty)
	if err != nil {
		return nil, err
	}

	cs, err := design.BuildConstraintSystem(d)
	if err != nil {
		return nil, err
	}

	adapter := objective.New(d, cs, opts.Evaluator, strategy)
	x0 := d.Pack()

	searcher, err := search(adapter, cs, x0)
	if err != nil {
		return nil, err
	}

	sr, err := searcher.Search(ctx)
	if err != nil {
		return nil, err
	}

	result, err := adapter.Full(sr.Best.Point)
	if err != nil {
		return nil, err
	}
	result.Evaluations = sr.Evaluations
	return result, nil
}

// DifferentialEvolution optimizes the design with the population-based
// stochastic back-end. The design's current values seed the
// population, so the search result is never worse than the seed.
func DifferentialEvolution(ctx context.Context, d *design.ParametrizedDesign, opts Options) (*optimization.Result, error) {
	return run(ctx, d, opts, func(adapter *objective.Adapter, cs *design.ConstraintSystem, x0 []float64) (optimization.Searcher, error) {
		cfg := evolution.Config{
			Objective:      adapter.Minimize(),
			Bounds:         cs.Bounds(),
			Generations:    opts.MaxIterations,
			PopulationSize: opts.PopulationSize,
			Workers:        opts.Workers,
			RandomSeed:     opts.RandomSeed,
			Initial:        x0,
		}
		if opts.UseMayfly {
			return evolution.NewMayfly(cfg)
		}
		return evolution.New(cfg)
	})
}

// Brute optimizes the design by exhaustive evaluation on a regular
// grid over the bounds. The initial guess is ignored and no local
// polishing runs afterwards, keeping the result deterministic.
func Brute(ctx context.Context, d *design.ParametrizedDesign, opts Options) (*optimization.Result, error) {
	return run(ctx, d, opts, func(adapter *objective.Adapter, cs *design.ConstraintSystem, x0 []float64) (optimization.Searcher, error) {
		return grid.New(grid.Config{
			Objective: adapter.Minimize(),
			Bounds:    cs.Bounds(),
			Points:    opts.GridPoints,
			Workers:   opts.Workers,
			KeepTable: opts.KeepTable,
		})
	})
}

// BasinHopping optimizes the design with repeated random perturbation
// around a derivative-free local minimizer, starting from the design's
// current values.
func BasinHopping(ctx context.Context, d *design.ParametrizedDesign, opts Options) (*optimization.Result, error) {
	return run(ctx, d, opts, func(adapter *objective.Adapter, cs *design.ConstraintSystem, x0 []float64) (optimization.Searcher, error) {
		return hopping.New(hopping.Config{
			Objective:   adapter.Minimize(),
			Bounds:      cs.Bounds(),
			Iterations:  opts.MaxIterations,
			StepSize:    opts.StepSize,
			Temperature: opts.Temperature,
			RandomSeed:  opts.RandomSeed,
			Initial:     x0,
		})
	})
}
