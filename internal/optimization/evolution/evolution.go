// Package evolution implements the population-based stochastic search
// back-end: a differential evolution loop with parallel candidate
// evaluation, plus an adapter around the external mayfly optimizer.
package evolution

import (
	"context"
	"math/rand"
	"time"

	exprand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/fisopt/fisopt/internal/optimization"
)

// Config configures the differential evolution search.
type Config struct {
	// Objective is the minimization-form objective.
	Objective optimization.ObjectiveFunction

	// Bounds for each dimension [min, max].
	Bounds [][2]float64

	// Generations is the number of evolution steps.
	Generations int

	// PopulationSize is the number of candidates per generation.
	PopulationSize int

	// Workers bounds the parallel candidate evaluations per generation.
	Workers int

	// RandomSeed for reproducibility; 0 seeds from the clock.
	RandomSeed int64

	// Initial, when non-nil, is injected as a population member so the
	// search never does worse than the seed design.
	Initial []float64

	// CrossoverProb is the binomial crossover probability.
	CrossoverProb float64

	// DitherMin and DitherMax bound the per-candidate differential
	// weight, sampled uniformly each proposal.
	DitherMin, DitherMax float64
}

// Optimizer runs rand/1/bin differential evolution over box bounds.
type Optimizer struct {
	cfg    Config
	rng    *rand.Rand
	dither distuv.Uniform

	best  *optimization.Solution
	evals int
}

// New creates a differential evolution optimizer, filling unset config
// fields with defaults.
func New(cfg Config) (*Optimizer, error) {
	if cfg.Objective == nil {
		return nil, optimization.NewError("objective function is required").WithComponent("evolution")
	}
	if len(cfg.Bounds) == 0 {
		return nil, optimization.NewError("bounds are required").WithComponent("evolution")
	}
	if cfg.Generations < 1 {
		cfg.Generations = 100
	}
	if cfg.PopulationSize < 4 {
		cfg.PopulationSize = 15 * len(cfg.Bounds)
		if cfg.PopulationSize < 8 {
			cfg.PopulationSize = 8
		}
	}
	if cfg.CrossoverProb <= 0 || cfg.CrossoverProb > 1 {
		cfg.CrossoverProb = 0.7
	}
	if cfg.DitherMax <= cfg.DitherMin {
		cfg.DitherMin, cfg.DitherMax = 0.5, 1.0
	}

	seed := cfg.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &Optimizer{
		cfg: cfg,
		rng: rand.New(rand.NewSource(seed)),
		dither: distuv.Uniform{
			Min: cfg.DitherMin,
			Max: cfg.DitherMax,
			Src: exprand.NewSource(uint64(seed)),
		},
	}, nil
}

// Search runs the evolution loop. Candidate evaluations within a
// generation run in parallel; selection is elitist, so the best value
// never regresses across generations.
func (o *Optimizer) Search(ctx context.Context) (*optimization.SearchResult, error) {
	dim := len(o.cfg.Bounds)
	np := o.cfg.PopulationSize

	pop := make([][]float64, np)
	for i := range pop {
		pop[i] = o.randomPoint(dim)
	}
	if o.cfg.Initial != nil && len(o.cfg.Initial) == dim {
		pop[0] = append([]float64(nil), o.cfg.Initial...)
	}

	values, err := optimization.EvaluateAll(ctx, o.cfg.Objective, pop, o.cfg.Workers)
	if err != nil {
		return nil, err
	}
	o.evals += np
	for i := range pop {
		o.updateBest(pop[i], values[i])
	}

	trials := make([][]float64, np)
	for g := 0; g < o.cfg.Generations; g++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		for i := range pop {
			trials[i] = o.propose(pop, i)
		}

		trialValues, err := optimization.EvaluateAll(ctx, o.cfg.Objective, trials, o.cfg.Workers)
		if err != nil {
			return nil, err
		}
		o.evals += np

		for i := range pop {
			if trialValues[i] <= values[i] {
				pop[i] = trials[i]
				values[i] = trialValues[i]
				o.updateBest(pop[i], values[i])
			}
		}
	}

	return &optimization.SearchResult{Best: o.best, Evaluations: o.evals}, nil
}

// propose builds a rand/1/bin trial vector for population member i,
// clamped to the bounds.
func (o *Optimizer) propose(pop [][]float64, i int) []float64 {
	np := len(pop)
	dim := len(o.cfg.Bounds)

	a, b, c := i, i, i
	for a == i {
		a = o.rng.Intn(np)
	}
	for b == i || b == a {
		b = o.rng.Intn(np)
	}
	for c == i || c == a || c == b {
		c = o.rng.Intn(np)
	}

	f := o.dither.Rand()
	jrand := o.rng.Intn(dim)

	trial := make([]float64, dim)
	for j := 0; j < dim; j++ {
		if j == jrand || o.rng.Float64() < o.cfg.CrossoverProb {
			trial[j] = pop[a][j] + f*(pop[b][j]-pop[c][j])
		} else {
			trial[j] = pop[i][j]
		}
		lo, hi := o.cfg.Bounds[j][0], o.cfg.Bounds[j][1]
		if trial[j] < lo {
			trial[j] = lo
		}
		if trial[j] > hi {
			trial[j] = hi
		}
	}
	return trial
}

func (o *Optimizer) randomPoint(dim int) []float64 {
	x := make([]float64, dim)
	for j := 0; j < dim; j++ {
		lo, hi := o.cfg.Bounds[j][0], o.cfg.Bounds[j][1]
		x[j] = lo + o.rng.Float64()*(hi-lo)
	}
	return x
}

func (o *Optimizer) updateBest(point []float64, value float64) {
	if o.best == nil || value < o.best.Value {
		o.best = &optimization.Solution{
			Point: append([]float64(nil), point...),
			Value: value,
		}
	}
}
