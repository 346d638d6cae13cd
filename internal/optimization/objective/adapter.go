// Package objective adapts a parametrized design, its constraint
// system and the external Fisher-criterion evaluator into the
// minimization-form objective consumed by the search back-ends.
package objective

import (
	"math"

	"github.com/fisopt/fisopt/internal/design"
	"github.com/fisopt/fisopt/internal/design/penalty"
	"github.com/fisopt/fisopt/internal/optimization"
)

// Adapter turns flat candidate vectors into design evaluations. It is
// safe for concurrent use: every call clones the base design and owns
// the clone exclusively for the duration of the call, so no evaluation
// observes another's mutations.
type Adapter struct {
	base        *design.ParametrizedDesign
	constraints *design.ConstraintSystem
	evaluator   optimization.Evaluator
	strategy    penalty.Strategy
}

// New creates an adapter bound to a base design, its constraint system
// and an evaluator.
func New(base *design.ParametrizedDesign, cs *design.ConstraintSystem, eval optimization.Evaluator, s penalty.Strategy) *Adapter {
	return &Adapter{
		base:        base,
		constraints: cs,
		evaluator:   eval,
		strategy:    s,
	}
}

// Minimize returns the minimization-form objective for the search
// loop: -criterion * penalty at the unpacked candidate. Candidates
// violating the ordering/spacing constraint rows evaluate to +Inf
// instead of reaching the evaluator, which enforces minimum spacing on
// back-ends that only understand plain bounds. Evaluator failures
// propagate unmodified.
func (a *Adapter) Minimize() optimization.ObjectiveFunction {
	return func(x []float64) (float64, error) {
		d := a.base.Clone()
		if err := d.Unpack(x); err != nil {
			return 0, err
		}
		if a.constraints != nil && !a.constraints.Feasible(d.Pack()) {
			return math.Inf(1), nil
		}
		criterion, err := a.evaluator(d)
		if err != nil {
			return 0, err
		}
		pen := penalty.Apply(a.strategy, d)
		return -criterion * pen.Penalty, nil
	}
}

// Full evaluates the candidate once more and materializes the full
// structured result: raw criterion, design snapshot and penalty
// breakdown. The search loop never calls this; it runs exactly once on
// the reported optimum.
func (a *Adapter) Full(x []float64) (*optimization.Result, error) {
	d := a.base.Clone()
	if err := d.Unpack(x); err != nil {
		return nil, err
	}
	criterion, err := a.evaluator(d)
	if err != nil {
		return nil, err
	}
	pen := penalty.Apply(a.strategy, d)
	return &optimization.Result{
		Criterion: criterion,
		Design:    d,
		Penalty:   pen,
		Solution: optimization.Solution{
			Point: append([]float64(nil), x...),
			Value: -criterion * pen.Penalty,
		},
	}, nil
}
