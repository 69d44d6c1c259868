package methods

import (
	"context"

	"decaylab/domain/event"
	"decaylab/domain/result"
	"decaylab/internal/mixturefit"
)

// sPlot computes the classical sPlot weights from the full-sample fit: the
// covariance matrix of the fitted component yields projects each event's
// mass into a signal weight whose sum reconstructs signal-only
// distributions without bias.
type sPlot struct {
	cache *sampleCache
}

func (m *sPlot) Label() result.Method   { return result.MethodSPlot }
func (m *sPlot) Variant() event.Variant { return "" }
func (m *sPlot) ProducesPair() bool     { return false }

func (m *sPlot) ComputeWeights(ctx context.Context, events event.Set) (result.WeightOutput, error) {
	fit, priors, err := m.cache.globalFit(events)
	if err != nil {
		return result.WeightOutput{}, err
	}
	masses := events.Masses()
	weights := mixturefit.SPlotWeights(masses, masses,
		fit.Fraction, fit.SignalMean, fit.SignalSigma, fit.BackgroundSlope, priors.Window)
	return result.SingleWeights(weights), nil
}
