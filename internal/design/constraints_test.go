package design

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildConstraintSystemTwoGroups(t *testing.T) {
	// Two optimizable groups of sizes 3 and 2.
	d := &ParametrizedDesign{
		SamplingTimesDef: &VariableDefinition{Lower: 0, Upper: 10, Count: 3, MinDistance: floatPtr(1)},
		SamplingTimes:    [][]float64{{1, 4, 7}},
		InputDefs:        []*VariableDefinition{{Lower: 2, Upper: 8, Count: 2}},
		Inputs:           [][]float64{{3, 6}},
	}

	cs, err := BuildConstraintSystem(d)
	require.NoError(t, err)

	// Bounds rows: 3 + 2.
	require.Len(t, cs.Lower, 5)
	require.Len(t, cs.Upper, 5)
	assert.Equal(t, []float64{0, 0, 0, 2, 2}, cs.Lower)
	assert.Equal(t, []float64{10, 10, 10, 8, 8}, cs.Upper)

	// Constraint rows: (3-1) + (2-1).
	require.Equal(t, 3, cs.NumConstraints())
	rows, cols := cs.B.Dims()
	require.Equal(t, 3, rows)
	require.Equal(t, 5, cols)

	// Block structure: rows 0-1 touch columns 0-2, row 2 touches
	// columns 3-4; everything off-block is zero.
	want := [][]float64{
		{1, -1, 0, 0, 0},
		{0, 1, -1, 0, 0},
		{0, 0, 0, 1, -1},
	}
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			assert.Equal(t, want[i][j], cs.B.At(i, j), "B[%d][%d]", i, j)
		}
	}

	// Spacing configured on the first group only.
	assert.Equal(t, -1.0, cs.ConstraintUpper[0])
	assert.Equal(t, -1.0, cs.ConstraintUpper[1])
	assert.True(t, math.IsInf(cs.ConstraintUpper[2], 1))
	for _, lc := range cs.ConstraintLower {
		assert.True(t, math.IsInf(lc, -1))
	}
}

func TestBuildConstraintSystemSingletons(t *testing.T) {
	d := &ParametrizedDesign{
		InitialTimeDef:  &VariableDefinition{Lower: 0, Upper: 1, Count: 1},
		InitialTime:     []float64{0},
		InitialStateDef: &VariableDefinition{Lower: 0.5, Upper: 2, Count: 1},
		InitialState:    []float64{1},
	}

	cs, err := BuildConstraintSystem(d)
	require.NoError(t, err)

	// Singleton groups get bounds but no ordering rows.
	assert.Len(t, cs.Lower, 2)
	assert.Equal(t, 0, cs.NumConstraints())
	assert.Nil(t, cs.B)
}

func TestBuildConstraintSystemInitialStateHasNoBlock(t *testing.T) {
	d := &ParametrizedDesign{
		InitialStateDef:  &VariableDefinition{Lower: 0, Upper: 1, Count: 1},
		InitialState:     []float64{0.5},
		SamplingTimesDef: &VariableDefinition{Lower: 0, Upper: 10, Count: 2},
		SamplingTimes:    [][]float64{{1, 2}},
	}

	cs, err := BuildConstraintSystem(d)
	require.NoError(t, err)
	require.Equal(t, 1, cs.NumConstraints())

	rows, cols := cs.B.Dims()
	require.Equal(t, 1, rows)
	require.Equal(t, 3, cols)
	// The ordering row compares the two sampling times (columns 1, 2).
	assert.Equal(t, 0.0, cs.B.At(0, 0))
	assert.Equal(t, 1.0, cs.B.At(0, 1))
	assert.Equal(t, -1.0, cs.B.At(0, 2))
}

func TestFeasible(t *testing.T) {
	d := &ParametrizedDesign{
		SamplingTimesDef: &VariableDefinition{Lower: 0, Upper: 10, Count: 3, MinDistance: floatPtr(1)},
		SamplingTimes:    [][]float64{{0, 5, 10}},
	}
	cs, err := BuildConstraintSystem(d)
	require.NoError(t, err)

	assert.True(t, cs.Feasible([]float64{0, 5, 10}))
	assert.True(t, cs.Feasible([]float64{0, 1, 2}))
	// Gap below the minimum distance.
	assert.False(t, cs.Feasible([]float64{0, 0.5, 10}))
	// Out of bounds.
	assert.False(t, cs.Feasible([]float64{-1, 5, 10}))
	// Wrong length.
	assert.False(t, cs.Feasible([]float64{0, 5}))
}
