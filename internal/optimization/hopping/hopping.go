// Package hopping implements the multi-start local search back-end:
// repeated random perturbation of the current point, a derivative-free
// local minimization at each hop, and Metropolis acceptance of the
// local optimum (basin-hopping style).
package hopping

import (
	"context"
	"math"
	"math/rand"
	"time"

	exprand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat/distuv"

	opt "github.com/fisopt/fisopt/internal/optimization"
)

// Config configures the basin-hopping search.
type Config struct {
	// Objective is the minimization-form objective.
	Objective opt.ObjectiveFunction

	// Bounds for each dimension [min, max]; enforced by clamping inside
	// the local minimizer.
	Bounds [][2]float64

	// Iterations is the number of hops.
	Iterations int

	// StepSize is the standard deviation of the Gaussian displacement
	// proposed at each hop.
	StepSize float64

	// Temperature scales the Metropolis acceptance of uphill hops.
	Temperature float64

	// RandomSeed for reproducibility; 0 seeds from the clock.
	RandomSeed int64

	// Initial is the starting point; the bounds midpoint when nil.
	Initial []float64
}

// Optimizer runs the basin-hopping loop.
type Optimizer struct {
	cfg  Config
	rng  *rand.Rand
	step distuv.Normal

	evals   int
	evalErr error
}

// New creates a basin-hopping optimizer, filling unset config fields
// with defaults.
func New(cfg Config) (*Optimizer, error) {
	if cfg.Objective == nil {
		return nil, opt.NewError("objective function is required").WithComponent("hopping")
	}
	if len(cfg.Bounds) == 0 {
		return nil, opt.NewError("bounds are required").WithComponent("hopping")
	}
	if cfg.Iterations < 1 {
		cfg.Iterations = 100
	}
	if cfg.StepSize <= 0 {
		cfg.StepSize = 0.5
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = 1.0
	}

	seed := cfg.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &Optimizer{
		cfg: cfg,
		rng: rand.New(rand.NewSource(seed)),
		step: distuv.Normal{
			Mu:    0,
			Sigma: cfg.StepSize,
			Src:   exprand.NewSource(uint64(seed)),
		},
	}, nil
}

// Search runs the hop/minimize/accept loop and returns the best local
// optimum seen. The first evaluator failure aborts the search.
func (o *Optimizer) Search(ctx context.Context) (*opt.SearchResult, error) {
	dim := len(o.cfg.Bounds)

	current := make([]float64, dim)
	if o.cfg.Initial != nil && len(o.cfg.Initial) == dim {
		copy(current, o.cfg.Initial)
	} else {
		for j, b := range o.cfg.Bounds {
			current[j] = (b[0] + b[1]) / 2
		}
	}

	current, currentVal, err := o.localMinimize(current)
	if err != nil {
		return nil, err
	}

	best := &opt.Solution{
		Point: append([]float64(nil), current...),
		Value: currentVal,
	}

	for i := 0; i < o.cfg.Iterations; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		candidate := o.perturb(current)
		candidate, candidateVal, err := o.localMinimize(candidate)
		if err != nil {
			return nil, err
		}

		if o.accept(candidateVal, currentVal) {
			current = candidate
			currentVal = candidateVal
		}
		if candidateVal < best.Value {
			best = &opt.Solution{
				Point: append([]float64(nil), candidate...),
				Value: candidateVal,
			}
		}
	}

	return &opt.SearchResult{Best: best, Evaluations: o.evals}, nil
}

// localMinimize runs a derivative-free Nelder-Mead descent from start,
// clamping every probe to the bounds.
func (o *Optimizer) localMinimize(start []float64) ([]float64, float64, error) {
	o.evalErr = nil

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			for j := range x {
				x[j] = math.Max(o.cfg.Bounds[j][0], math.Min(x[j], o.cfg.Bounds[j][1]))
			}
			o.evals++
			v, err := o.cfg.Objective(x)
			if err != nil {
				if o.evalErr == nil {
					o.evalErr = err
				}
				return math.Inf(1)
			}
			return v
		},
	}

	settings := &optimize.Settings{
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-8,
			Relative:   1e-8,
			Iterations: 50,
		},
	}

	method := &optimize.NelderMead{}

	result, err := optimize.Minimize(problem, append([]float64(nil), start...), settings, method)
	if o.evalErr != nil {
		return nil, 0, o.evalErr
	}
	if err != nil {
		// A failed descent is not fatal; fall back to the start point.
		v, verr := o.cfg.Objective(start)
		if verr != nil {
			return nil, 0, verr
		}
		o.evals++
		return start, v, nil
	}

	x := o.clamp(result.X)
	return x, result.F, nil
}

// perturb proposes a Gaussian displacement of x, clamped to bounds.
func (o *Optimizer) perturb(x []float64) []float64 {
	out := make([]float64, len(x))
	for j := range x {
		out[j] = x[j] + o.step.Rand()
	}
	return o.clamp(out)
}

func (o *Optimizer) clamp(x []float64) []float64 {
	for j := range x {
		lo, hi := o.cfg.Bounds[j][0], o.cfg.Bounds[j][1]
		if x[j] < lo {
			x[j] = lo
		}
		if x[j] > hi {
			x[j] = hi
		}
	}
	return x
}

// accept implements the Metropolis criterion: downhill hops always,
// uphill hops with probability exp(-delta/T).
func (o *Optimizer) accept(candidate, current float64) bool {
	if candidate <= current {
		return true
	}
	if math.IsInf(candidate, 1) {
		return false
	}
	return o.rng.Float64() < math.Exp(-(candidate-current)/o.cfg.Temperature)
}
