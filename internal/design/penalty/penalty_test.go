package penalty

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fisopt/fisopt/internal/design"
)

var referenceGrid = []float64{1, 2, 3, 6, 8, 9}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		name    string
		want    Strategy
		wantErr bool
	}{
		{name: "", want: Default},
		{name: "default", want: Default},
		{name: "product_difference", want: ProductDifference},
		{name: "individual_zigzag", want: IndividualZigzag},
		{name: "individual_cos", want: IndividualCos},
		{name: "individual_gauss", want: IndividualGauss},
		{name: "unknown", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStrategy(tt.name)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPenaltyAtGridPoints(t *testing.T) {
	strategies := []Strategy{Default, ProductDifference, IndividualZigzag, IndividualCos, IndividualGauss}

	for _, s := range strategies {
		t.Run(s.String(), func(t *testing.T) {
			pen, detail := Evaluate(s, referenceGrid, referenceGrid)
			assert.InDelta(t, 1.0, pen, 1e-4, "values on grid points must be unpenalized")
			for i, p := range detail {
				assert.InDelta(t, 1.0, p, 1e-4, "detail %d", i)
			}
		})
	}
}

func TestPenaltyAtIntervalMidpoint(t *testing.T) {
	// Midway between 1 and 2.
	values := []float64{1.5}

	tests := []struct {
		strategy Strategy
		want     float64
		delta    float64
	}{
		{IndividualZigzag, 0, 1e-12},
		{IndividualCos, 0, 1e-12},
		// Two Gaussians with sigma = span/10: 2*exp(-12.5).
		{IndividualGauss, 2 * math.Exp(-12.5), 1e-9},
	}

	for _, tt := range tests {
		t.Run(tt.strategy.String(), func(t *testing.T) {
			pen, detail := Evaluate(tt.strategy, values, referenceGrid)
			require.Len(t, detail, 1)
			assert.InDelta(t, tt.want, pen, tt.delta)
		})
	}
}

func TestProductDifferenceDropsOffGrid(t *testing.T) {
	onGrid, _ := Evaluate(Default, []float64{6}, referenceGrid)
	nearGrid, _ := Evaluate(Default, []float64{6.2}, referenceGrid)
	offGrid, _ := Evaluate(Default, []float64{7}, referenceGrid)

	assert.InDelta(t, 1.0, onGrid, 1e-9)
	assert.Less(t, nearGrid, onGrid)
	assert.Less(t, offGrid, nearGrid)
	assert.Greater(t, offGrid, 0.0)
}

func TestIndividualOutsideIntervalsContributesNothing(t *testing.T) {
	// 0.5 lies below the first grid point: no interval contains it, so
	// it contributes no factor and no detail entry.
	pen, detail := Evaluate(IndividualZigzag, []float64{0.5}, referenceGrid)
	assert.Equal(t, 1.0, pen)
	assert.Empty(t, detail)
}

func TestInteriorGridPointHitsTwoIntervals(t *testing.T) {
	// 2 bounds both [1,2] and [2,3]; both contributions are 1.
	pen, detail := Evaluate(IndividualZigzag, []float64{2}, referenceGrid)
	assert.InDelta(t, 1.0, pen, 1e-12)
	assert.Len(t, detail, 2)
}

func TestApplyAggregatesGroups(t *testing.T) {
	d := &design.ParametrizedDesign{
		InitialTimeDef: &design.VariableDefinition{
			Lower: 0, Upper: 10, Count: 1, Discrete: []float64{0, 5, 10},
		},
		InitialTime: []float64{5},

		SamplingTimesDef: &design.VariableDefinition{
			Lower: 0, Upper: 10, Count: 2, Discrete: []float64{1, 2, 3, 6, 8, 9},
		},
		SamplingTimes: [][]float64{{1, 2.5}, {6, 8}},

		InputDefs: []*design.VariableDefinition{
			{Lower: 0, Upper: 10, Count: 1, Discrete: []float64{2, 4, 6}},
			{Lower: 0, Upper: 10, Count: 1}, // no discretization
		},
		Inputs: [][]float64{{3}, {7}},
	}

	r := Apply(IndividualZigzag, d)

	// Initial time sits on a grid point.
	assert.InDelta(t, 1.0, r.InitialTime, 1e-12)

	// First input is midway between 2 and 4; second contributes a
	// neutral factor.
	assert.InDelta(t, 0.0, r.Inputs, 1e-12)
	require.Len(t, r.InputsDetail, 1)

	// One detail row per sampling-time row.
	require.Len(t, r.TimesDetail, 2)

	assert.InDelta(t, r.InitialTime*r.Inputs*r.Times, r.Penalty, 1e-12)

	summary := r.Summary()
	require.Contains(t, summary, "initial_time")
	require.Contains(t, summary, "inputs")
	require.Contains(t, summary, "times")
}

func TestApplyWithoutDiscretizationIsNeutral(t *testing.T) {
	d := &design.ParametrizedDesign{
		SamplingTimesDef: &design.VariableDefinition{Lower: 0, Upper: 10, Count: 3},
		SamplingTimes:    [][]float64{{1, 5, 9}},
	}
	for _, s := range []Strategy{Default, IndividualZigzag, IndividualCos, IndividualGauss} {
		r := Apply(s, d)
		assert.Equal(t, 1.0, r.Penalty, s.String())
	}
}
