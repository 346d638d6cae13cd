// Package fisher provides a reference Fisher-criterion evaluator for
// observation models with cheap observables: the sensitivity matrix is
// assembled by central finite differences over the model parameters at
// every (initial time, input combination, sampling time) observation
// point, and the criterion is a scalar summary of F = S*S^T.
//
// The optimization engine only depends on the optimization.Evaluator
// contract; this package is one implementation of it.
package fisher

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/fisopt/fisopt/internal/design"
	"github.com/fisopt/fisopt/internal/optimization"
)

// Criterion selects the scalar summary of the Fisher matrix.
type Criterion int

const (
	// Determinant is the D-criterion: det(F).
	Determinant Criterion = iota
	// Trace is the A-criterion surrogate: trace(F).
	Trace
)

// Model describes an observable with differentiable parameter
// dependence.
type Model struct {
	// Observe returns the model observable at time t for initial time
	// t0, initial state x0 (may be empty), parameters theta and one
	// input combination (one value per channel, may be empty).
	Observe func(t, t0 float64, x0, theta, inputs []float64) float64

	// Theta is the parameter vector the information is computed for.
	Theta []float64

	// RelStep is the relative finite-difference step; 1e-6 when unset.
	RelStep float64
}

// NewEvaluator builds an optimization.Evaluator computing the chosen
// criterion of the Fisher matrix for the model at any fully specified
// design. The evaluator is deterministic for fixed inputs.
func NewEvaluator(m Model, c Criterion) optimization.Evaluator {
	relStep := m.RelStep
	if relStep <= 0 {
		relStep = 1e-6
	}

	return func(d *design.ParametrizedDesign) (float64, error) {
		if m.Observe == nil || len(m.Theta) == 0 {
			return 0, optimization.NewError("model has no observable or parameters").WithComponent("fisher")
		}

		obs := observationPoints(d)
		if len(obs) == 0 {
			return 0, optimization.NewError("design has no observation points").WithComponent("fisher")
		}

		p := len(m.Theta)
		s := mat.NewDense(p, len(obs), nil)

		theta := append([]float64(nil), m.Theta...)
		for i := 0; i < p; i++ {
			h := relStep * math.Max(math.Abs(theta[i]), 1)
			orig := theta[i]

			theta[i] = orig + h
			for k, ob := range obs {
				s.Set(i, k, m.Observe(ob.t, ob.t0, d.InitialState, theta, ob.inputs))
			}
			theta[i] = orig - h
			for k, ob := range obs {
				s.Set(i, k, (s.At(i, k)-m.Observe(ob.t, ob.t0, d.InitialState, theta, ob.inputs))/(2*h))
			}
			theta[i] = orig
		}

		f := mat.NewDense(p, p, nil)
		f.Mul(s, s.T())

		switch c {
		case Trace:
			return mat.Trace(f), nil
		default:
			return mat.Det(f), nil
		}
	}
}

// FlatEvaluator returns an evaluator with a constant criterion,
// regardless of the design. Useful to isolate the discretization
// penalty: with a flat criterion the penalty alone decides the
// optimum.
func FlatEvaluator(value float64) optimization.Evaluator {
	return func(d *design.ParametrizedDesign) (float64, error) {
		return value, nil
	}
}

type observation struct {
	t      float64
	t0     float64
	inputs []float64
}

// observationPoints enumerates every (t0, input combination, time)
// triple the design measures. Sampling-time rows are matched to input
// combinations row-major; a single row is broadcast across all
// combinations.
func observationPoints(d *design.ParametrizedDesign) []observation {
	t0s := d.InitialTime
	if len(t0s) == 0 {
		t0s = []float64{0}
	}

	combos := inputCombinations(d.Inputs)

	var out []observation
	for _, t0 := range t0s {
		for ci, combo := range combos {
			row := timesRow(d, ci)
			for _, t := range row {
				out = append(out, observation{t: t, t0: t0, inputs: combo})
			}
		}
	}
	return out
}

func timesRow(d *design.ParametrizedDesign, combo int) []float64 {
	if len(d.SamplingTimes) == 0 {
		return nil
	}
	if d.IdenticalTimes || len(d.SamplingTimes) == 1 {
		return d.SamplingTimes[0]
	}
	if combo < len(d.SamplingTimes) {
		return d.SamplingTimes[combo]
	}
	return d.SamplingTimes[len(d.SamplingTimes)-1]
}

// inputCombinations is the cartesian product over channel levels. With
// no channels it returns the single empty combination.
func inputCombinations(inputs [][]float64) [][]float64 {
	combos := [][]float64{nil}
	for _, channel := range inputs {
		if len(channel) == 0 {
			continue
		}
		next := make([][]float64, 0, len(combos)*len(channel))
		for _, c := range combos {
			for _, v := range channel {
				combo := make([]float64, len(c)+1)
				copy(combo, c)
				combo[len(c)] = v
				next = append(next, combo)
			}
		}
		combos = next
	}
	return combos
}
