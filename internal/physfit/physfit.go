// Package physfit runs the downstream weighted maximum-likelihood fits that
// turn per-event weights into physical-parameter estimates: the angular
// coefficient B and the signal lifetime Tau. These estimates are what the
// weighting methods are ultimately judged on.
package physfit

import (
	"math"

	"gonum.org/v1/gonum/optimize"

	"decaylab/domain/event"
)

// Estimate is one fitted parameter with its uncertainty. Converged is false
// when the optimizer failed or the weights left nothing to fit.
type Estimate struct {
	Value     float64
	Error     float64
	Converged bool
}

// FitB maximizes the weighted likelihood of the angular model
// p(c;B) = (1 + B*c^2) / (2 + 2B/3) over cos(theta). Weights may be
// negative (sideband subtraction); NaN-flagged events are skipped.
func FitB(events event.Set, weights []float64) Estimate {
	cos := events.Column(event.CoordCosTheta)

	ll := func(b float64) float64 {
		norm := 2 + 2*b/3
		if norm <= 0 {
			return math.Inf(-1)
		}
		total := 0.0
		for i, c := range cos {
			w := weights[i]
			if math.IsNaN(w) || w == 0 {
				continue
			}
			p := (1 + b*c*c) / norm
			if p < 1e-300 {
				p = 1e-300
			}
			total += w * math.Log(p)
		}
		return total
	}

	// B > -1 keeps the density positive; optimize in x with B = e^x - 1.
	fromX := func(x float64) float64 { return math.Exp(x) - 1 }
	return maximize1D(ll, fromX, math.Log(2.0), weights)
}

// FitTau maximizes the weighted likelihood of the truncated exponential
// decay-time model on [0, tMax].
func FitTau(events event.Set, weights []float64, tMax float64) Estimate {
	ts := events.Column(event.CoordT)

	ll := func(tau float64) float64 {
		if tau <= 0 {
			return math.Inf(-1)
		}
		norm := tau * (1 - math.Exp(-tMax/tau))
		total := 0.0
		for i, t := range ts {
			w := weights[i]
			if math.IsNaN(w) || w == 0 {
				continue
			}
			p := math.Exp(-t/tau) / norm
			if p < 1e-300 {
				p = 1e-300
			}
			total += w * math.Log(p)
		}
		return total
	}

	fromX := func(x float64) float64 { return math.Exp(x) }
	return maximize1D(ll, fromX, 0.0, weights)
}

// maximize1D maximizes ll(fromX(x)) over the unbounded coordinate x and
// converts the curvature at the optimum into an uncertainty on the native
// parameter, inflated by the effective-sample-size correction for weighted
// likelihoods (sum w^2 / sum w).
func maximize1D(ll func(float64) float64, fromX func(float64) float64, x0 float64, weights []float64) Estimate {
	var sumW, sumW2 float64
	for _, w := range weights {
		if math.IsNaN(w) {
			continue
		}
		sumW += w
		sumW2 += w * w
	}
	if sumW <= 0 {
		return Estimate{Converged: false}
	}

	problem := optimize.Problem{
		Func: func(x []float64) float64 { return -ll(fromX(x[0])) },
	}
	settings := &optimize.Settings{
		MajorIterations: 500,
		Converger:       &optimize.FunctionConverge{Absolute: 1e-10, Iterations: 50},
	}
	res, err := optimize.Minimize(problem, []float64{x0}, settings, &optimize.NelderMead{})
	if err != nil || res == nil || math.IsNaN(res.F) {
		return Estimate{Converged: false}
	}

	value := fromX(res.X[0])

	// Curvature in the native parameter via central differences.
	h := 1e-4 * (1 + math.Abs(value))
	d2 := (ll(value+h) - 2*ll(value) + ll(value-h)) / (h * h)
	if d2 >= 0 || math.IsNaN(d2) {
		// Flat or pathological curvature: the value may still be useful
		// but no uncertainty can be quoted.
		return Estimate{Value: value, Error: math.NaN(), Converged: false}
	}

	variance := (-1 / d2) * (sumW2 / sumW)
	return Estimate{Value: value, Error: math.Sqrt(variance), Converged: true}
}
