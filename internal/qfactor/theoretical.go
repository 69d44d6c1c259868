package qfactor

import (
	"math"

	"decaylab/domain/event"
	"decaylab/internal/mixturefit"
)

// Truth holds the known generative parameters and computes the analytically
// correct per-event signal fraction. No fitting is involved; this is the
// benchmark every fitted Q-factor is compared against.
type Truth struct {
	// SignalFraction is the generative signal yield fraction.
	SignalFraction float64

	SignalMean      float64
	SignalSigma     float64
	BackgroundSlope float64
	Window          mixturefit.Window

	// Tau and TMax describe the truncated-exponential signal decay time;
	// background time is uniform on [0, TMax].
	Tau  float64
	TMax float64

	// G densities: Gaussian for both components with different locations.
	GSignalMean      float64
	GSignalSigma     float64
	GBackgroundMean  float64
	GBackgroundSigma float64
}

// Q computes the closed-form signal probability of one event under the
// given phase-space variant. Coordinates outside the variant do not enter:
// the generative model factorizes over coordinates, so each variant just
// multiplies in the densities of the coordinates it sees.
func (t Truth) Q(ev event.Event, v event.Variant) float64 {
	ws := t.SignalFraction
	wb := 1 - ws

	sig := mixturefit.SignalPDF(ev.Mass, t.SignalMean, t.SignalSigma, t.Window)
	bkg := mixturefit.BackgroundPDF(ev.Mass, t.BackgroundSlope, t.Window)

	for _, c := range v.Coordinates() {
		switch c {
		case event.CoordT:
			sig *= truncExpPDF(ev.T, t.Tau, t.TMax)
			bkg *= uniformPDF(ev.T, 0, t.TMax)
		case event.CoordG:
			sig *= gaussPDF(ev.G, t.GSignalMean, t.GSignalSigma)
			bkg *= gaussPDF(ev.G, t.GBackgroundMean, t.GBackgroundSigma)
		}
		// The angular coordinates also separate signal from background in
		// principle, but the reference benchmark conditions only on mass,
		// time and g; the angles carry the physics parameter being fit and
		// are left out of the purity computation.
	}

	den := ws*sig + wb*bkg
	if den <= 0 {
		return math.NaN()
	}
	return ws * sig / den
}

// QAll computes the theoretical weight for every event, aligned by index.
func (t Truth) QAll(events event.Set, v event.Variant) []float64 {
	out := make([]float64, len(events))
	for i, ev := range events {
		out[i] = t.Q(ev, v)
	}
	return out
}

func truncExpPDF(x, tau, max float64) float64 {
	if x < 0 || x > max || tau <= 0 {
		return 0
	}
	norm := 1 - math.Exp(-max/tau)
	return math.Exp(-x/tau) / (tau * norm)
}

func uniformPDF(x, min, max float64) float64 {
	if x < min || x > max {
		return 0
	}
	return 1 / (max - min)
}

func gaussPDF(x, mean, sigma float64) float64 {
	if sigma <= 0 {
		return 0
	}
	z := (x - mean) / sigma
	return math.Exp(-0.5*z*z) / (sigma * math.Sqrt(2*math.Pi))
}
