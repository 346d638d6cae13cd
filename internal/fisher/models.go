package fisher

import "math"

// ExponentialDecay returns a one-parameter exponential decay model
// x(t) = x0 * exp(-k * (t - t0)), parametrized by the decay rate k.
// When the design optimizes the initial state, its value overrides x0.
func ExponentialDecay(x0, k float64) Model {
	return Model{
		Observe: func(t, t0 float64, state, theta, inputs []float64) float64 {
			base := x0
			if len(state) > 0 {
				base = state[0]
			}
			return base * math.Exp(-theta[0]*(t-t0))
		},
		Theta: []float64{k},
	}
}

// GrowthPool returns a logistic-style growth model with one
// temperature input channel, a two-parameter growth law
// dn/dt ~ (a*T) with saturation at nMax. The closed-form observable
// used here is the logistic solution
// n(t) = nMax / (1 + (nMax/n0 - 1) * exp(-a*T*(t - t0))),
// with theta = (a, b) and b folding into an Arrhenius-style damping
// exp(-b*T) of the effective rate.
func GrowthPool(n0, nMax float64) Model {
	return Model{
		Observe: func(t, t0 float64, state, theta, inputs []float64) float64 {
			base := n0
			if len(state) > 0 {
				base = state[0]
			}
			temp := 1.0
			if len(inputs) > 0 {
				temp = inputs[0]
			}
			rate := theta[0] * temp * math.Exp(-theta[1]*temp)
			return nMax / (1 + (nMax/base-1)*math.Exp(-rate*(t-t0)))
		},
		Theta: []float64{0.1, 0.01},
	}
}

