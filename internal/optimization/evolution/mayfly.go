package evolution

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/cwbudde/mayfly"

	"github.com/fisopt/fisopt/internal/optimization"
)

// MayflyOptimizer wraps the external mayfly swarm optimizer as an
// alternate population-based back-end. The library takes scalar
// bounds, so the search runs over the unit cube and candidates are
// rescaled to the per-dimension bounds inside the objective.
type MayflyOptimizer struct {
	cfg Config
}

// NewMayfly creates a mayfly-backed population optimizer.
func NewMayfly(cfg Config) (*MayflyOptimizer, error) {
	if cfg.Objective == nil {
		return nil, optimization.NewError("objective function is required").WithComponent("mayfly")
	}
	if len(cfg.Bounds) == 0 {
		return nil, optimization.NewError("bounds are required").WithComponent("mayfly")
	}
	if cfg.Generations < 1 {
		cfg.Generations = 100
	}
	if cfg.PopulationSize < 4 {
		cfg.PopulationSize = 15 * len(cfg.Bounds)
	}
	if cfg.RandomSeed == 0 {
		cfg.RandomSeed = time.Now().UnixNano()
	}
	return &MayflyOptimizer{cfg: cfg}, nil
}

// Search runs the mayfly optimization. Evaluator failures cannot cross
// the library boundary, so they are recorded and the failing candidate
// scored +Inf; the first recorded error aborts the run after the
// library returns.
func (m *MayflyOptimizer) Search(ctx context.Context) (*optimization.SearchResult, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	var (
		evals   int
		evalErr error
	)

	config := mayfly.NewDefaultConfig()
	config.ProblemSize = len(m.cfg.Bounds)
	config.MaxIterations = m.cfg.Generations
	config.NPop = m.cfg.PopulationSize
	config.LowerBound = 0
	config.UpperBound = 1
	config.Rand = rand.New(rand.NewSource(m.cfg.RandomSeed))
	config.ObjectiveFunc = func(u []float64) float64 {
		evals++
		v, err := m.cfg.Objective(m.rescale(u))
		if err != nil {
			if evalErr == nil {
				evalErr = err
			}
			return math.Inf(1)
		}
		return v
	}

	result, err := mayfly.Optimize(config)
	if evalErr != nil {
		return nil, evalErr
	}
	if err != nil {
		return nil, optimization.WrapError(err, "mayfly optimization failed").WithComponent("mayfly")
	}

	point := m.rescale(result.GlobalBest.Position)
	return &optimization.SearchResult{
		Best: &optimization.Solution{
			Point: point,
			Value: result.GlobalBest.Cost,
		},
		Evaluations: evals,
	}, nil
}

// rescale maps a unit-cube point onto the configured bounds.
func (m *MayflyOptimizer) rescale(u []float64) []float64 {
	x := make([]float64, len(u))
	for j := range u {
		lo, hi := m.cfg.Bounds[j][0], m.cfg.Bounds[j][1]
		v := u[j]
		if v < 0 {
			v = 0
		}
		if v > 1 {
			v = 1
		}
		x[j] = lo + v*(hi-lo)
	}
	return x
}
