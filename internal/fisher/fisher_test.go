package fisher

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fisopt/fisopt/internal/design"
)

func decayDesign(times ...float64) *design.ParametrizedDesign {
	return &design.ParametrizedDesign{
		SamplingTimesDef: &design.VariableDefinition{Lower: 0, Upper: 10, Count: len(times)},
		SamplingTimes:    [][]float64{times},
	}
}

func TestExponentialDecayEvaluator(t *testing.T) {
	eval := NewEvaluator(ExponentialDecay(1, 0.5), Determinant)

	v, err := eval(decayDesign(1, 2, 4))
	require.NoError(t, err)
	assert.Positive(t, v)
}

func TestExponentialDecaySensitivityMatchesAnalytic(t *testing.T) {
	// d/dk [x0*exp(-k*t)] = -x0*t*exp(-k*t); with one parameter the
	// Fisher matrix is the scalar sum of squared sensitivities.
	x0, k := 2.0, 0.5
	times := []float64{1, 3}

	eval := NewEvaluator(ExponentialDecay(x0, k), Determinant)
	v, err := eval(decayDesign(times...))
	require.NoError(t, err)

	want := 0.0
	for _, tm := range times {
		s := -x0 * tm * math.Exp(-k*tm)
		want += s * s
	}
	assert.InDelta(t, want, v, 1e-6*want)
}

func TestTraceAndDeterminantAgreeForOneParameter(t *testing.T) {
	d := decayDesign(1, 2, 4)

	det, err := NewEvaluator(ExponentialDecay(1, 0.5), Determinant)(d)
	require.NoError(t, err)
	tr, err := NewEvaluator(ExponentialDecay(1, 0.5), Trace)(d)
	require.NoError(t, err)

	// For a 1x1 matrix the two criteria coincide.
	assert.InDelta(t, det, tr, 1e-9*math.Abs(det))
}

func TestMoreSamplesAreMoreInformative(t *testing.T) {
	eval := NewEvaluator(ExponentialDecay(1, 0.5), Determinant)

	few, err := eval(decayDesign(1, 2))
	require.NoError(t, err)
	many, err := eval(decayDesign(1, 2, 3, 4))
	require.NoError(t, err)

	assert.Greater(t, many, few)
}

func TestInitialStateOverridesModelDefault(t *testing.T) {
	d := decayDesign(1, 2)
	d.InitialStateDef = &design.VariableDefinition{Lower: 0.1, Upper: 10, Count: 1}
	d.InitialState = []float64{3}

	eval := NewEvaluator(ExponentialDecay(1, 0.5), Determinant)
	withState, err := eval(d)
	require.NoError(t, err)

	base, err := eval(decayDesign(1, 2))
	require.NoError(t, err)

	// Sensitivities scale with x0, so information scales with x0^2.
	assert.InDelta(t, 9*base, withState, 1e-4*withState)
}

func TestGrowthPoolEvaluatorUsesInputs(t *testing.T) {
	d := &design.ParametrizedDesign{
		SamplingTimesDef: &design.VariableDefinition{Lower: 0, Upper: 50, Count: 3},
		SamplingTimes:    [][]float64{{5, 20, 40}},
		InputDefs: []*design.VariableDefinition{
			{Lower: 0.5, Upper: 5, Count: 2},
		},
		Inputs: [][]float64{{1, 4}},
	}

	eval := NewEvaluator(GrowthPool(1, 100), Determinant)
	v, err := eval(d)
	require.NoError(t, err)
	assert.Positive(t, v)
}

func TestEvaluatorRejectsEmptyDesign(t *testing.T) {
	eval := NewEvaluator(ExponentialDecay(1, 0.5), Determinant)
	_, err := eval(&design.ParametrizedDesign{})
	require.Error(t, err)
}

func TestFlatEvaluator(t *testing.T) {
	eval := FlatEvaluator(7)
	v, err := eval(decayDesign(1))
	require.NoError(t, err)
	assert.Equal(t, 7.0, v)
}

func TestObservationPointsBroadcastsSingleRow(t *testing.T) {
	d := &design.ParametrizedDesign{
		InitialTimeDef: &design.VariableDefinition{Lower: 0, Upper: 1, Count: 2},
		InitialTime:    []float64{0, 1},

		SamplingTimesDef: &design.VariableDefinition{Lower: 0, Upper: 10, Count: 3},
		SamplingTimes:    [][]float64{{2, 4, 6}},

		InputDefs: []*design.VariableDefinition{
			{Lower: 0, Upper: 10, Count: 2},
		},
		Inputs: [][]float64{{1, 5}},
	}

	// 2 initial times x 2 input combinations x 3 times.
	obs := observationPoints(d)
	assert.Len(t, obs, 12)
}

func TestInputCombinationsCartesianProduct(t *testing.T) {
	combos := inputCombinations([][]float64{{1, 2}, {10, 20, 30}})
	require.Len(t, combos, 6)
	assert.Equal(t, []float64{1, 10}, combos[0])
	assert.Equal(t, []float64{2, 30}, combos[5])

	// No channels: the single empty combination.
	assert.Len(t, inputCombinations(nil), 1)
}
