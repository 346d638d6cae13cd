// Package optimization defines the shared types for the design
// optimization engine: the external evaluator contract, the objective
// callable consumed by the search back-ends, and the solution/result
// types they produce.
package optimization

import (
	"context"

	"github.com/fisopt/fisopt/internal/design"
	"github.com/fisopt/fisopt/internal/design/penalty"
)

// Evaluator is the external Fisher-criterion contract: it receives a
// fully specified design and returns a scalar criterion (higher is
// more informative). It must be deterministic for fixed inputs and may
// fail, e.g. when the underlying ODE integration diverges; failures
// propagate unmodified to the search back-end.
type Evaluator func(d *design.ParametrizedDesign) (float64, error)

// ObjectiveFunction is the minimization-ready objective consumed by
// the search back-ends.
type ObjectiveFunction func(x []float64) (float64, error)

// Searcher is the interface shared by the global-search back-ends.
type Searcher interface {
	// Search runs the global search and returns the best point found.
	Search(ctx context.Context) (*SearchResult, error)
}

// Solution is a point in the flat optimization space together with its
// minimization-form objective value.
type Solution struct {
	Point []float64
	Value float64
}

// SearchResult is what a back-end reports: the best solution and the
// number of objective evaluations spent.
type SearchResult struct {
	Best        *Solution
	Evaluations int
}

// Result is the full structured outcome of one optimization run,
// produced by a single final objective evaluation at the reported
// optimum.
type Result struct {
	// Criterion is the raw (non-negated, non-penalized) criterion value
	// at the optimum.
	Criterion float64 `json:"criterion"`

	// Design is the snapshot of the design at the optimum.
	Design *design.ParametrizedDesign `json:"design"`

	// Penalty is the discretization penalty breakdown at the optimum.
	Penalty penalty.Result `json:"penalty"`

	// Solution is the optimum in flat-vector form, minimization value
	// included.
	Solution Solution `json:"-"`

	// Evaluations is the number of objective evaluations the search
	// spent, excluding the final full evaluation.
	Evaluations int `json:"evaluations"`
}
