package design

import "fmt"

// FlatLen returns the length of the flat optimization vector: the sum
// of all optimizable-group sizes.
func (d *ParametrizedDesign) FlatLen() int {
	n := 0
	for _, s := range d.spans() {
		n += s.size
	}
	return n
}

// Pack concatenates the current values of every optimizable group into
// a single flat vector, in group order. Fixed groups contribute no
// elements. Pack never mutates the design.
func (d *ParametrizedDesign) Pack() []float64 {
	x := make([]float64, 0, d.FlatLen())
	for _, s := range d.spans() {
		switch s.group {
		case GroupInitialTime:
			x = append(x, d.InitialTime...)
		case GroupInitialState:
			x = append(x, d.InitialState...)
		case GroupSamplingTimes:
			for _, row := range d.SamplingTimes {
				x = append(x, row...)
			}
		case GroupInput:
			x = append(x, d.Inputs[s.channel]...)
		}
	}
	return x
}

// Unpack writes the flat vector back into the design, consuming one
// group-sized prefix per optimizable group in the same order Pack
// emits them. Fixed groups are untouched. Sampling-time rows are
// sorted ascending afterwards.
//
// A length mismatch is a caller bug and returns an error without
// touching the design.
func (d *ParametrizedDesign) Unpack(x []float64) error {
	if len(x) != d.FlatLen() {
		return fmt.Errorf("flat vector length %d does not match design size %d", len(x), d.FlatLen())
	}
	off := 0
	for _, s := range d.spans() {
		seg := x[off : off+s.size]
		switch s.group {
		case GroupInitialTime:
			copy(d.InitialTime, seg)
		case GroupInitialState:
			copy(d.InitialState, seg)
		case GroupSamplingTimes:
			k := 0
			for _, row := range d.SamplingTimes {
				copy(row, seg[k:k+len(row)])
				k += len(row)
			}
		case GroupInput:
			copy(d.Inputs[s.channel], seg)
		}
		off += s.size
	}
	d.sortSamplingTimes()
	return nil
}
