package methods

import (
	"context"

	"decaylab/domain/event"
	"decaylab/domain/result"
	"decaylab/internal/mixturefit"
)

// inPlot weights each event by its signal probability under the full-sample
// mixture fit: the same quantity a Q-factor computes locally, but with one
// global fit shared by all events. Fast, but blind to phase-space dependence
// of the purity.
type inPlot struct {
	cache *sampleCache
}

func (m *inPlot) Label() result.Method   { return result.MethodInPlot }
func (m *inPlot) Variant() event.Variant { return "" }
func (m *inPlot) ProducesPair() bool     { return false }

func (m *inPlot) ComputeWeights(ctx context.Context, events event.Set) (result.WeightOutput, error) {
	fit, priors, err := m.cache.globalFit(events)
	if err != nil {
		return result.WeightOutput{}, err
	}
	w := priors.Window

	weights := make([]float64, len(events))
	for i, ev := range events {
		fs := mixturefit.SignalPDF(ev.Mass, fit.SignalMean, fit.SignalSigma, w)
		fb := mixturefit.BackgroundPDF(ev.Mass, fit.BackgroundSlope, w)
		den := fit.Fraction*fs + (1-fit.Fraction)*fb
		if den <= 0 {
			weights[i] = fit.Fraction
			continue
		}
		weights[i] = fit.Fraction * fs / den
	}
	return result.SingleWeights(weights), nil
}
