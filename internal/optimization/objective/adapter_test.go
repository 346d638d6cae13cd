package objective

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fisopt/fisopt/internal/design"
	"github.com/fisopt/fisopt/internal/design/penalty"
)

func floatPtr(v float64) *float64 { return &v }

func spacedDesign() *design.ParametrizedDesign {
	return &design.ParametrizedDesign{
		SamplingTimesDef: &design.VariableDefinition{
			Lower: 0, Upper: 10, Count: 3, MinDistance: floatPtr(1),
		},
		SamplingTimes: [][]float64{{0, 5, 10}},
	}
}

// sumEvaluator scores a design by the sum of its sampling times.
func sumEvaluator(d *design.ParametrizedDesign) (float64, error) {
	sum := 0.0
	for _, row := range d.SamplingTimes {
		for _, v := range row {
			sum += v
		}
	}
	return sum, nil
}

func TestMinimizeNegatesCriterion(t *testing.T) {
	d := spacedDesign()
	cs, err := design.BuildConstraintSystem(d)
	require.NoError(t, err)

	obj := New(d, cs, sumEvaluator, penalty.Default).Minimize()

	v, err := obj([]float64{0, 5, 10})
	require.NoError(t, err)
	assert.InDelta(t, -15.0, v, 1e-12)
}

func TestMinimizeRejectsInfeasible(t *testing.T) {
	d := spacedDesign()
	cs, err := design.BuildConstraintSystem(d)
	require.NoError(t, err)

	obj := New(d, cs, sumEvaluator, penalty.Default).Minimize()

	// Sorted gap 0.5 violates the minimum distance of 1; the evaluator
	// must not even run.
	v, err := obj([]float64{0, 0.5, 10})
	require.NoError(t, err)
	assert.True(t, math.IsInf(v, 1))
}

func TestMinimizeSortsBeforeFeasibility(t *testing.T) {
	d := spacedDesign()
	cs, err := design.BuildConstraintSystem(d)
	require.NoError(t, err)

	obj := New(d, cs, sumEvaluator, penalty.Default).Minimize()

	// Unsorted but feasible after sorting.
	v, err := obj([]float64{10, 0, 5})
	require.NoError(t, err)
	assert.InDelta(t, -15.0, v, 1e-12)
}

func TestMinimizeDoesNotMutateBase(t *testing.T) {
	d := spacedDesign()
	cs, err := design.BuildConstraintSystem(d)
	require.NoError(t, err)

	obj := New(d, cs, sumEvaluator, penalty.Default).Minimize()
	_, err = obj([]float64{1, 3, 7})
	require.NoError(t, err)

	assert.Equal(t, [][]float64{{0, 5, 10}}, d.SamplingTimes)
}

func TestMinimizePropagatesEvaluatorError(t *testing.T) {
	d := spacedDesign()
	cs, err := design.BuildConstraintSystem(d)
	require.NoError(t, err)

	sentinel := errors.New("integration diverged")
	failing := func(d *design.ParametrizedDesign) (float64, error) {
		return 0, sentinel
	}

	obj := New(d, cs, failing, penalty.Default).Minimize()
	_, err = obj([]float64{0, 5, 10})
	require.ErrorIs(t, err, sentinel)
}

func TestMinimizeAppliesPenalty(t *testing.T) {
	d := &design.ParametrizedDesign{
		InputDefs: []*design.VariableDefinition{
			{Lower: 0, Upper: 10, Count: 1, Discrete: []float64{2, 4}},
		},
		Inputs: [][]float64{{2}},
	}
	cs, err := design.BuildConstraintSystem(d)
	require.NoError(t, err)

	flat := func(d *design.ParametrizedDesign) (float64, error) { return 2, nil }
	obj := New(d, cs, flat, penalty.IndividualCos).Minimize()

	// On a grid point: no penalty.
	v, err := obj([]float64{2})
	require.NoError(t, err)
	assert.InDelta(t, -2.0, v, 1e-12)

	// Midway between 2 and 4: full penalty, objective collapses to 0.
	v, err = obj([]float64{3})
	require.NoError(t, err)
	assert.InDelta(t, 0.0, v, 1e-12)
}

func TestFullResult(t *testing.T) {
	d := spacedDesign()
	cs, err := design.BuildConstraintSystem(d)
	require.NoError(t, err)

	adapter := New(d, cs, sumEvaluator, penalty.Default)
	result, err := adapter.Full([]float64{1, 4, 8})
	require.NoError(t, err)

	assert.InDelta(t, 13.0, result.Criterion, 1e-12)
	assert.Equal(t, 1.0, result.Penalty.Penalty)
	require.NotNil(t, result.Design)
	assert.Equal(t, [][]float64{{1, 4, 8}}, result.Design.SamplingTimes)
	assert.Equal(t, []float64{1, 4, 8}, result.Solution.Point)
	assert.InDelta(t, -13.0, result.Solution.Value, 1e-12)
	assert.Equal(t, 0, result.Evaluations)
}
