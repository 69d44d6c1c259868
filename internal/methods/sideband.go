package methods

import (
	"context"

	"decaylab/domain/event"
	"decaylab/domain/result"
)

// sideband implements classical sideband subtraction: events in the signal
// region (within 2 sigma of the fitted peak) get weight +1, events in the
// sidebands get a negative weight scaled so the expected background in the
// signal region cancels. The scale comes from integrating the fitted linear
// background shape over both regions.
type sideband struct {
	cache *sampleCache
}

func (m *sideband) Label() result.Method   { return result.MethodSideband }
func (m *sideband) Variant() event.Variant { return "" }
func (m *sideband) ProducesPair() bool     { return false }

func (m *sideband) ComputeWeights(ctx context.Context, events event.Set) (result.WeightOutput, error) {
	fit, priors, err := m.cache.globalFit(events)
	if err != nil {
		return result.WeightOutput{}, err
	}
	w := priors.Window

	lo := fit.SignalMean - 2*fit.SignalSigma
	hi := fit.SignalMean + 2*fit.SignalSigma
	if lo < w.Min {
		lo = w.Min
	}
	if hi > w.Max {
		hi = w.Max
	}

	sigBkg := linearIntegral(lo, hi, fit.BackgroundSlope, w.Mid())
	sideBkg := linearIntegral(w.Min, lo, fit.BackgroundSlope, w.Mid()) +
		linearIntegral(hi, w.Max, fit.BackgroundSlope, w.Mid())

	alpha := 0.0
	if sideBkg > 0 {
		alpha = sigBkg / sideBkg
	}

	weights := make([]float64, len(events))
	for i, ev := range events {
		if ev.Mass >= lo && ev.Mass <= hi {
			weights[i] = 1
		} else {
			weights[i] = -alpha
		}
	}
	return result.SingleWeights(weights), nil
}

// linearIntegral integrates the unnormalized linear background density
// 1 + slope*(m-mid) over [a, b].
func linearIntegral(a, b, slope, mid float64) float64 {
	if b <= a {
		return 0
	}
	da, db := a-mid, b-mid
	return (b - a) + 0.5*slope*(db*db-da*da)
}
