package mixturefit

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// Window bounds the discriminating-variable range the mixture is defined on.
type Window struct {
	Min float64
	Max float64
}

// Width returns the window width.
func (w Window) Width() float64 { return w.Max - w.Min }

// Mid returns the window midpoint.
func (w Window) Mid() float64 { return 0.5 * (w.Min + w.Max) }

// SignalPDF evaluates the Gaussian signal shape truncated and renormalized
// to the window.
func SignalPDF(m, mean, sigma float64, w Window) float64 {
	if m < w.Min || m > w.Max || sigma <= 0 {
		return 0
	}
	n := distuv.Normal{Mu: mean, Sigma: sigma}
	norm := n.CDF(w.Max) - n.CDF(w.Min)
	if norm <= 0 {
		return 0
	}
	return n.Prob(m) / norm
}

// BackgroundPDF evaluates the linear background shape normalized over the
// window: b(m) = (1 + slope*(m-mid)) / width. The slope term integrates to
// zero about the midpoint, so the normalization is the window width alone.
// Callers must keep |slope| < 2/width so the density stays non-negative.
func BackgroundPDF(m, slope float64, w Window) float64 {
	if m < w.Min || m > w.Max {
		return 0
	}
	v := (1 + slope*(m-w.Mid())) / w.Width()
	if v < 0 {
		return 0
	}
	return v
}

// MaxSlope returns the largest background slope magnitude keeping the linear
// density non-negative across the window, shrunk slightly so the optimizer
// never walks onto the boundary.
func MaxSlope(w Window) float64 {
	return 0.999 * 2.0 / w.Width()
}

// MixturePDF evaluates f*s(m) + (1-f)*b(m).
func MixturePDF(m, frac, mean, sigma, slope float64, w Window) float64 {
	return frac*SignalPDF(m, mean, sigma, w) + (1-frac)*BackgroundPDF(m, slope, w)
}

// logistic maps the unbounded optimizer coordinate to a fraction in (0,1).
// Saturated neighborhoods drive the coordinate to large magnitudes and the
// fraction to within numerical tolerance of 0 or 1 without ever producing
// NaN.
func logistic(u float64) float64 {
	if u > 0 {
		return 1.0 / (1.0 + math.Exp(-u))
	}
	e := math.Exp(u)
	return e / (1.0 + e)
}

// logit is the inverse of logistic, clamped away from the poles.
func logit(p float64) float64 {
	const eps = 1e-6
	if p < eps {
		p = eps
	}
	if p > 1-eps {
		p = 1 - eps
	}
	return math.Log(p / (1 - p))
}
