// Package design holds the data model for a parametrized experimental
// design: the optimizable variable groups, their bounds and spacing
// constraints, and the flat-vector codec used by the optimization
// back-ends.
package design

import (
	"fmt"
	"sort"
)

// Group identifies one of the optimizable variable groups. The declared
// order of the constants is the flat-vector order: the codec, the
// constraint builder and the initial guess all iterate groups in this
// single order.
type Group int

const (
	// GroupInitialTime covers the initial times of the ODE.
	GroupInitialTime Group = iota
	// GroupInitialState covers the initial state of the ODE.
	GroupInitialState
	// GroupSamplingTimes covers the measurement time points.
	GroupSamplingTimes
	// GroupInput covers one controllable input channel.
	GroupInput
)

// String returns a human-readable group name.
func (g Group) String() string {
	switch g {
	case GroupInitialTime:
		return "initial_time"
	case GroupInitialState:
		return "initial_state"
	case GroupSamplingTimes:
		return "sampling_times"
	case GroupInput:
		return "input"
	default:
		return fmt.Sprintf("group(%d)", int(g))
	}
}

// VariableDefinition describes one optimizable variable group: scalar
// bounds, the number of independent values, an optional minimum gap
// between consecutive sorted values, and an optional grid of allowed
// discrete values.
type VariableDefinition struct {
	Lower float64 `json:"lower_bound"`
	Upper float64 `json:"upper_bound"`
	Count int     `json:"count"`

	// MinDistance, when set, is the minimum gap enforced between
	// consecutive sorted values of the group.
	MinDistance *float64 `json:"min_distance,omitempty"`

	// Discrete, when non-empty, restricts values to lie near these grid
	// points. Must be strictly increasing and within [Lower, Upper].
	Discrete []float64 `json:"discrete,omitempty"`
}

// Validate checks the definition invariants. A failed validation is a
// configuration error and must abort the optimization run.
func (v *VariableDefinition) Validate() error {
	if v.Lower > v.Upper {
		return fmt.Errorf("inverted bounds: lower %v > upper %v", v.Lower, v.Upper)
	}
	if v.Count < 0 {
		return fmt.Errorf("negative count %d", v.Count)
	}
	if v.MinDistance != nil && *v.MinDistance < 0 {
		return fmt.Errorf("negative min distance %v", *v.MinDistance)
	}
	for i, g := range v.Discrete {
		if g < v.Lower || g > v.Upper {
			return fmt.Errorf("discrete value %v outside bounds [%v, %v]", g, v.Lower, v.Upper)
		}
		if i > 0 && v.Discrete[i-1] >= g {
			return fmt.Errorf("discrete values not strictly increasing at index %d", i)
		}
	}
	return nil
}

// ParametrizedDesign is the full design under optimization. Each group
// is optional: a nil definition means the group is fixed and excluded
// from the flat vector entirely.
//
// SamplingTimes holds one row per input combination. When
// IdenticalTimes is set, a single row is shared across all
// combinations.
type ParametrizedDesign struct {
	InitialTimeDef *VariableDefinition `json:"initial_time_def,omitempty"`
	InitialTime    []float64           `json:"initial_time,omitempty"`

	InitialStateDef *VariableDefinition `json:"initial_state_def,omitempty"`
	InitialState    []float64           `json:"initial_state,omitempty"`

	SamplingTimesDef *VariableDefinition `json:"sampling_times_def,omitempty"`
	SamplingTimes    [][]float64         `json:"sampling_times,omitempty"`
	IdenticalTimes   bool                `json:"identical_times,omitempty"`

	InputDefs []*VariableDefinition `json:"input_defs,omitempty"`
	Inputs    [][]float64           `json:"inputs,omitempty"`
}

// Validate checks every non-nil definition and the shape consistency
// between definitions and their value arrays.
func (d *ParametrizedDesign) Validate() error {
	if d.InitialTimeDef != nil {
		if err := d.InitialTimeDef.Validate(); err != nil {
			return fmt.Errorf("initial time: %w", err)
		}
		if len(d.InitialTime) != d.InitialTimeDef.Count {
			return fmt.Errorf("initial time: %d values for count %d", len(d.InitialTime), d.InitialTimeDef.Count)
		}
	}
	if d.InitialStateDef != nil {
		if err := d.InitialStateDef.Validate(); err != nil {
			return fmt.Errorf("initial state: %w", err)
		}
		if len(d.InitialState) != d.InitialStateDef.Count {
			return fmt.Errorf("initial state: %d values for count %d", len(d.InitialState), d.InitialStateDef.Count)
		}
	}
	if d.SamplingTimesDef != nil {
		if err := d.SamplingTimesDef.Validate(); err != nil {
			return fmt.Errorf("sampling times: %w", err)
		}
		if len(d.SamplingTimes) == 0 {
			return fmt.Errorf("sampling times: no rows for count %d", d.SamplingTimesDef.Count)
		}
		if d.IdenticalTimes && len(d.SamplingTimes) != 1 {
			return fmt.Errorf("sampling times: %d rows in identical-times mode", len(d.SamplingTimes))
		}
		for i, row := range d.SamplingTimes {
			if len(row) != d.SamplingTimesDef.Count {
				return fmt.Errorf("sampling times row %d: %d values for count %d", i, len(row), d.SamplingTimesDef.Count)
			}
		}
	}
	if len(d.InputDefs) != len(d.Inputs) {
		return fmt.Errorf("inputs: %d definitions for %d value rows", len(d.InputDefs), len(d.Inputs))
	}
	for i, def := range d.InputDefs {
		if def == nil {
			continue
		}
		if err := def.Validate(); err != nil {
			return fmt.Errorf("input %d: %w", i, err)
		}
		if len(d.Inputs[i]) != def.Count {
			return fmt.Errorf("input %d: %d values for count %d", i, len(d.Inputs[i]), def.Count)
		}
	}
	return nil
}

// Clone returns a deep copy of the design values. Definitions are
// shared: they are read-only for the duration of an optimization run.
// Every concurrent objective evaluation must own its clone.
func (d *ParametrizedDesign) Clone() *ParametrizedDesign {
	c := &ParametrizedDesign{
		InitialTimeDef:   d.InitialTimeDef,
		InitialStateDef:  d.InitialStateDef,
		SamplingTimesDef: d.SamplingTimesDef,
		IdenticalTimes:   d.IdenticalTimes,
	}
	c.InitialTime = append([]float64(nil), d.InitialTime...)
	c.InitialState = append([]float64(nil), d.InitialState...)
	if d.SamplingTimes != nil {
		c.SamplingTimes = make([][]float64, len(d.SamplingTimes))
		for i, row := range d.SamplingTimes {
			c.SamplingTimes[i] = append([]float64(nil), row...)
		}
	}
	if d.InputDefs != nil {
		c.InputDefs = append([]*VariableDefinition(nil), d.InputDefs...)
	}
	if d.Inputs != nil {
		c.Inputs = make([][]float64, len(d.Inputs))
		for i, row := range d.Inputs {
			c.Inputs[i] = append([]float64(nil), row...)
		}
	}
	return c
}

// span describes one optimizable group in flat-vector order. It is the
// single ordering shared by the codec, the constraint builder and the
// initial guess.
type span struct {
	group   Group
	channel int // input channel index, -1 otherwise
	def     *VariableDefinition
	size    int
	// ordered groups contribute a neighbor-comparison block to the
	// constraint matrix; the initial state does not.
	ordered bool
}

// spans lists the optimizable groups in flat-vector order. Fixed groups
// (nil definition) are absent; this is the only place a nil definition
// is interpreted.
func (d *ParametrizedDesign) spans() []span {
	var out []span
	if d.InitialTimeDef != nil {
		out = append(out, span{GroupInitialTime, -1, d.InitialTimeDef, d.InitialTimeDef.Count, true})
	}
	if d.InitialStateDef != nil {
		out = append(out, span{GroupInitialState, -1, d.InitialStateDef, d.InitialStateDef.Count, false})
	}
	if d.SamplingTimesDef != nil {
		size := len(d.SamplingTimes) * d.SamplingTimesDef.Count
		out = append(out, span{GroupSamplingTimes, -1, d.SamplingTimesDef, size, true})
	}
	for i, def := range d.InputDefs {
		if def != nil {
			out = append(out, span{GroupInput, i, def, def.Count, true})
		}
	}
	return out
}

// sortSamplingTimes sorts every sampling-time row ascending. Sorting is
// part of the codec contract: the constraint system only bounds
// differences between sorted neighbors.
func (d *ParametrizedDesign) sortSamplingTimes() {
	for _, row := range d.SamplingTimes {
		sort.Float64s(row)
	}
}
