// Package penalty implements the discretization penalty: a
// multiplicative factor in (0, 1] that vanishes as sampled values
// drift away from an allowed discrete grid, and is 1 when no
// discretization is configured.
package penalty

import (
	"fmt"
	"math"
)

// Strategy selects the shape of the penalty potential. The set is
// closed so a switch over it is exhaustively checkable.
type Strategy int

const (
	// Default is the product-difference penalty: smooth and globally
	// sensitive to the distance from every grid point.
	Default Strategy = iota
	// ProductDifference is an alias for Default.
	ProductDifference
	// IndividualZigzag applies a piecewise-linear potential on the grid
	// interval containing each value.
	IndividualZigzag
	// IndividualCos applies a cosine potential on the containing
	// interval.
	IndividualCos
	// IndividualGauss applies a two-Gaussian potential with
	// sigma = span/10 on the containing interval.
	IndividualGauss
)

// ParseStrategy maps a strategy name to its Strategy value.
func ParseStrategy(name string) (Strategy, error) {
	switch name {
	case "", "default":
		return Default, nil
	case "product_difference":
		return ProductDifference, nil
	case "individual_zigzag":
		return IndividualZigzag, nil
	case "individual_cos":
		return IndividualCos, nil
	case "individual_gauss":
		return IndividualGauss, nil
	default:
		return Default, fmt.Errorf("unknown penalty strategy %q", name)
	}
}

// String returns the canonical strategy name.
func (s Strategy) String() string {
	switch s {
	case Default:
		return "default"
	case ProductDifference:
		return "product_difference"
	case IndividualZigzag:
		return "individual_zigzag"
	case IndividualCos:
		return "individual_cos"
	case IndividualGauss:
		return "individual_gauss"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

// shapeZigzag is the piecewise-linear potential between two grid
// points: 1 at both ends, 0 at the midpoint. u is the distance to the
// lower grid point, span the interval width.
func shapeZigzag(u, span float64) float64 {
	return math.Abs(1 - 2*u/span)
}

// shapeCos is the cosine potential: 1 at both ends, 0 at the midpoint.
func shapeCos(u, span float64) float64 {
	return 0.5 * (1 + math.Cos(2*math.Pi*u/span))
}

// shapeGauss is the sum of two Gaussians centered on the interval ends
// with sigma = span/10: ~1 at both ends, near 0 at the midpoint.
func shapeGauss(u, span float64) float64 {
	sigma := span / 10
	return math.Exp(-0.5*u*u/(sigma*sigma)) + math.Exp(-0.5*(u-span)*(u-span)/(sigma*sigma))
}

// Evaluate computes the penalty for a set of sampled values against a
// discrete grid. It returns the group penalty (the product over all
// per-value contributions) and the per-value detail array.
func Evaluate(s Strategy, values, grid []float64) (float64, []float64) {
	switch s {
	case Default, ProductDifference:
		return productDifference(values, grid)
	case IndividualZigzag:
		return individual(values, grid, shapeZigzag)
	case IndividualCos:
		return individual(values, grid, shapeCos)
	case IndividualGauss:
		return individual(values, grid, shapeGauss)
	default:
		return productDifference(values, grid)
	}
}

// productDifference penalizes each value by
// 1 - |prod_k (v - grid_k)|^(1/N) / (max(grid) - min(grid)),
// so every grid point pulls on every value.
func productDifference(values, grid []float64) (float64, []float64) {
	if len(grid) < 2 {
		return 1, nil
	}
	width := grid[len(grid)-1] - grid[0]
	detail := make([]float64, len(values))
	pen := 1.0
	for i, v := range values {
		prod := 1.0
		for _, g := range grid {
			prod *= g - v
		}
		p := 1 - math.Pow(math.Abs(prod), 1/float64(len(grid)))/width
		detail[i] = p
		pen *= p
	}
	return pen, detail
}

// individual applies a shape potential on the grid interval containing
// each value. A value outside every interval contributes nothing; the
// aggregate keeps that neutral-contribution behavior on purpose.
func individual(values, grid []float64, shape func(u, span float64) float64) (float64, []float64) {
	var detail []float64
	pen := 1.0
	for _, v := range values {
		for i := 0; i < len(grid)-1; i++ {
			if grid[i] <= v && v <= grid[i+1] {
				span := grid[i+1] - grid[i]
				p := shape(v-grid[i], span)
				detail = append(detail, p)
				pen *= p
			}
		}
	}
	return pen, detail
}
