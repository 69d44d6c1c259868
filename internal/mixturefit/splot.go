package mixturefit

import (
	"math"
)

// SPlotWeights computes per-event sPlot signal weights from a converged
// two-component fit. The covariance matrix of the component yields is
// estimated from the sample the fit was performed on, then each evaluation
// mass receives the standard linear recombination
//
//	sw(m) = (Vss*s(m) + Vsb*b(m)) / (Ns*s(m) + Nb*b(m))
//
// which reconstructs signal-only distributions without bias when summed.
// For the sQ variant the sample is a neighborhood; for the global sPlot
// baseline it is the full event set.
func SPlotWeights(sample, at []float64, frac, mean, sigma, slope float64, w Window) []float64 {
	n := float64(len(sample))
	ns := frac * n
	nb := (1 - frac) * n

	// Inverse covariance of the yields: Iinv[j][k] = sum f_j*f_k / D^2
	// with D the total density at each sample point.
	var iss, isb, ibb float64
	for _, m := range sample {
		fs := SignalPDF(m, mean, sigma, w)
		fb := BackgroundPDF(m, slope, w)
		d := ns*fs + nb*fb
		if d < 1e-300 {
			continue
		}
		iss += fs * fs / (d * d)
		isb += fs * fb / (d * d)
		ibb += fb * fb / (d * d)
	}

	det := iss*ibb - isb*isb
	out := make([]float64, len(at))
	if det <= 0 || math.IsNaN(det) {
		// Degenerate covariance (pure sample): fall back to the fraction
		// itself, which is the correct saturated limit.
		for i := range out {
			out[i] = frac
		}
		return out
	}
	vss := ibb / det
	vsb := -isb / det

	for i, m := range at {
		fs := SignalPDF(m, mean, sigma, w)
		fb := BackgroundPDF(m, slope, w)
		d := ns*fs + nb*fb
		if d < 1e-300 {
			out[i] = math.NaN()
			continue
		}
		out[i] = (vss*fs + vsb*fb) / d
	}
	return out
}
