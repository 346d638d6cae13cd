package penalty

import (
	"github.com/fisopt/fisopt/internal/design"
)

// Result aggregates the discretization penalty over all design groups.
// It is created fresh on every objective evaluation and immutable once
// produced; the detail arrays are always retained for diagnostics.
type Result struct {
	// Penalty is the total multiplicative penalty in (0, 1].
	Penalty float64 `json:"penalty"`

	InitialTime       float64   `json:"penalty_initial_time"`
	InitialTimeDetail []float64 `json:"penalty_initial_time_detail,omitempty"`

	Inputs       float64     `json:"penalty_inputs"`
	InputsDetail [][]float64 `json:"penalty_inputs_detail,omitempty"`

	Times       float64     `json:"penalty_times"`
	TimesDetail [][]float64 `json:"penalty_times_detail,omitempty"`
}

// Summary returns the per-group detail arrays keyed by group name.
func (r *Result) Summary() map[string][][]float64 {
	return map[string][][]float64{
		"initial_time": {r.InitialTimeDetail},
		"inputs":       r.InputsDetail,
		"times":        r.TimesDetail,
	}
}

// Apply computes the discretization penalty for the design's current
// values. Groups without a discrete grid contribute a neutral factor
// of 1; groups with one contribute the product of their per-value
// penalties. The total is the plain product across groups.
func Apply(s Strategy, d *design.ParametrizedDesign) Result {
	r := Result{Penalty: 1, InitialTime: 1, Inputs: 1, Times: 1}

	if d.InitialTimeDef != nil && len(d.InitialTimeDef.Discrete) > 0 {
		r.InitialTime, r.InitialTimeDetail = Evaluate(s, d.InitialTime, d.InitialTimeDef.Discrete)
	}

	for i, def := range d.InputDefs {
		if def == nil || len(def.Discrete) == 0 {
			continue
		}
		p, detail := Evaluate(s, d.Inputs[i], def.Discrete)
		r.Inputs *= p
		r.InputsDetail = append(r.InputsDetail, detail)
	}

	if d.SamplingTimesDef != nil && len(d.SamplingTimesDef.Discrete) > 0 {
		// One penalty per input-combination row; a single shared row in
		// identical-times mode.
		for _, row := range d.SamplingTimes {
			p, detail := Evaluate(s, row, d.SamplingTimesDef.Discrete)
			r.Times *= p
			r.TimesDetail = append(r.TimesDetail, detail)
		}
	}

	r.Penalty = r.InitialTime * r.Inputs * r.Times
	return r
}
