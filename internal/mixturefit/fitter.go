// Package mixturefit implements the two-component local likelihood fitter:
// a Gaussian signal peak plus a linear background, fit to the
// discriminating-variable values of a neighbor set by maximum likelihood.
package mixturefit

import (
	"math"

	"gonum.org/v1/gonum/optimize"

	"decaylab/domain/result"
)

// MinSampleSize is the smallest neighbor set a two-component fit will
// attempt; below this the fraction is unconstrained and the fit is flagged
// invalid rather than fit anyway.
const MinSampleSize = 5

// Priors carry the full-sample shape estimates that seed and regularize each
// local fit. Local neighborhoods are too small to constrain the shape
// parameters alone, so the mean and width are tethered to the global fit.
type Priors struct {
	Fraction        float64
	SignalMean      float64
	SignalSigma     float64
	BackgroundSlope float64
	Window          Window

	// MeanTightness and LogSigmaTightness are the Gaussian prior widths on
	// the signal mean and log-width. Zero disables the corresponding
	// regularizer.
	MeanTightness     float64
	LogSigmaTightness float64
}

// DefaultPriorTightness returns regularizer widths that let the local mean
// move by about a quarter of the global width and the width itself by about
// 20 percent.
func DefaultPriorTightness(p Priors) Priors {
	p.MeanTightness = 0.25 * p.SignalSigma
	p.LogSigmaTightness = 0.2
	return p
}

// Fitter fits the two-component mixture to small samples.
type Fitter struct {
	priors  Priors
	maxIter int
}

// NewFitter creates a fitter around the given shape priors.
func NewFitter(priors Priors) *Fitter {
	return &Fitter{priors: priors, maxIter: 400}
}

// Fit maximizes the mixture log-likelihood of the given discriminating
// values. Optimizer non-convergence yields Converged=false, never an error:
// single-event failures must not abort a whole-sample computation.
func (f *Fitter) Fit(masses []float64) result.FitResult {
	if len(masses) < MinSampleSize {
		return result.FitResult{Converged: false}
	}

	w := f.priors.Window
	maxSlope := MaxSlope(w)

	// Optimizer coordinates: logit(fraction), signal mean, log signal
	// sigma, atanh-scaled background slope. All unbounded, so Nelder-Mead
	// never needs explicit constraints and saturation at fraction 0 or 1
	// is an interior solution.
	negLL := func(x []float64) float64 {
		frac := logistic(x[0])
		mean := x[1]
		sigma := math.Exp(x[2])
		slope := maxSlope * math.Tanh(x[3])

		ll := 0.0
		for _, m := range masses {
			p := MixturePDF(m, frac, mean, sigma, slope, w)
			if p < 1e-300 {
				p = 1e-300
			}
			ll += math.Log(p)
		}

		// Global-prior regularizers on the shape parameters.
		if f.priors.MeanTightness > 0 {
			d := (mean - f.priors.SignalMean) / f.priors.MeanTightness
			ll -= 0.5 * d * d
		}
		if f.priors.LogSigmaTightness > 0 {
			d := (x[2] - math.Log(f.priors.SignalSigma)) / f.priors.LogSigmaTightness
			ll -= 0.5 * d * d
		}
		return -ll
	}

	x0 := []float64{
		logit(f.priors.Fraction),
		f.priors.SignalMean,
		math.Log(f.priors.SignalSigma),
		math.Atanh(clamp(f.priors.BackgroundSlope/maxSlope, -0.999, 0.999)),
	}

	problem := optimize.Problem{Func: negLL}
	settings := &optimize.Settings{
		MajorIterations: f.maxIter,
		FuncEvaluations: 8 * f.maxIter,
		Converger:       &optimize.FunctionConverge{Absolute: 1e-8, Iterations: 50},
	}

	res, err := optimize.Minimize(problem, x0, settings, &optimize.NelderMead{})
	if err != nil || res == nil {
		return result.FitResult{Converged: false}
	}

	frac := logistic(res.X[0])
	fit := result.FitResult{
		Fraction:        frac,
		SignalMean:      res.X[1],
		SignalSigma:     math.Exp(res.X[2]),
		BackgroundSlope: maxSlope * math.Tanh(res.X[3]),
		LogLikelihood:   -res.F,
		Converged:       true,
	}
	if math.IsNaN(res.F) || math.IsNaN(frac) {
		fit.Converged = false
	}
	return fit
}

// FitGlobal fits the full sample with diffuse priors centered on the given
// starting point. The result seeds the per-event local fits and drives the
// global-fit weighting baselines.
func FitGlobal(masses []float64, start Priors) result.FitResult {
	start.MeanTightness = 0
	start.LogSigmaTightness = 0
	fitter := &Fitter{priors: start, maxIter: 1000}
	return fitter.Fit(masses)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
