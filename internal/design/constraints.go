package design

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// feasibilityTol absorbs float noise when checking a candidate against
// the linear constraint rows.
const feasibilityTol = 1e-9

// ConstraintSystem is the linear system synthesized once per
// optimization run: per-element bounds on the flat vector and a
// block-diagonal neighbor-comparison matrix B with matching constraint
// vectors, so that ConstraintLower <= B*x <= ConstraintUpper expresses
// "sorted neighbors keep a minimum gap". Read-only after construction
// and shared across all candidate evaluations.
type ConstraintSystem struct {
	Lower []float64
	Upper []float64

	B               *mat.Dense
	ConstraintLower []float64
	ConstraintUpper []float64
}

// comparisonMatrix returns the (n-1) x n matrix with A[i][i] = 1 and
// A[i][i+1] = -1, so that a row of A*x is x_i - x_{i+1}. Together with
// an upper constraint of -minDistance this encodes
// x_i + minDistance <= x_{i+1} for ascending values. n must be >= 2.
func comparisonMatrix(n int) *mat.Dense {
	a := mat.NewDense(n-1, n, nil)
	for i := 0; i < n-1; i++ {
		a.Set(i, i, 1)
		a.Set(i, i+1, -1)
	}
	return a
}

// BuildConstraintSystem synthesizes bounds and the ordering matrix for
// every optimizable group of the design, in flat-vector order. The
// single pass guarantees that bounds rows, constraint rows and matrix
// columns line up with the codec's packing order.
func BuildConstraintSystem(d *ParametrizedDesign) (*ConstraintSystem, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	cs := &ConstraintSystem{}
	n := d.FlatLen()

	type block struct {
		col  int
		rows int
		size int
	}
	var blocks []block

	col := 0
	rows := 0
	for _, s := range d.spans() {
		for i := 0; i < s.size; i++ {
			cs.Lower = append(cs.Lower, s.def.Lower)
			cs.Upper = append(cs.Upper, s.def.Upper)
		}

		if s.ordered && s.size > 1 {
			// One inequality per sorted-neighbor pair. Vacuous when no
			// spacing is configured.
			upper := math.Inf(1)
			if s.def.MinDistance != nil {
				upper = -*s.def.MinDistance
			}
			for i := 0; i < s.size-1; i++ {
				cs.ConstraintLower = append(cs.ConstraintLower, math.Inf(-1))
				cs.ConstraintUpper = append(cs.ConstraintUpper, upper)
			}
			blocks = append(blocks, block{col: col, rows: s.size - 1, size: s.size})
			rows += s.size - 1
		}
		col += s.size
	}

	if len(cs.Lower) != n {
		return nil, fmt.Errorf("bounds rows %d do not match flat length %d", len(cs.Lower), n)
	}

	if rows > 0 && n > 0 {
		b := mat.NewDense(rows, n, nil)
		r := 0
		for _, bl := range blocks {
			a := comparisonMatrix(bl.size)
			b.Slice(r, r+bl.rows, bl.col, bl.col+bl.size).(*mat.Dense).Copy(a)
			r += bl.rows
		}
		cs.B = b
	}

	return cs, nil
}

// Bounds returns the per-element bounds as [min, max] pairs, the shape
// the optimization back-ends consume.
func (cs *ConstraintSystem) Bounds() [][2]float64 {
	out := make([][2]float64, len(cs.Lower))
	for i := range cs.Lower {
		out[i] = [2]float64{cs.Lower[i], cs.Upper[i]}
	}
	return out
}

// NumConstraints returns the number of ordering-constraint rows.
func (cs *ConstraintSystem) NumConstraints() int {
	return len(cs.ConstraintUpper)
}

// Feasible reports whether x satisfies the element bounds and every
// ordering-constraint row.
func (cs *ConstraintSystem) Feasible(x []float64) bool {
	if len(x) != len(cs.Lower) {
		return false
	}
	for i, v := range x {
		if v < cs.Lower[i]-feasibilityTol || v > cs.Upper[i]+feasibilityTol {
			return false
		}
	}
	if cs.B == nil {
		return true
	}
	var bx mat.VecDense
	bx.MulVec(cs.B, mat.NewVecDense(len(x), x))
	for i := 0; i < bx.Len(); i++ {
		v := bx.AtVec(i)
		if v < cs.ConstraintLower[i]-feasibilityTol || v > cs.ConstraintUpper[i]+feasibilityTol {
			return false
		}
	}
	return true
}
