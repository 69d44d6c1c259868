package methods

import (
	"context"

	"decaylab/domain/event"
	"decaylab/domain/result"
)

// qFactorMethod wraps the Q-factor engine for one phase-space variant. The
// same engine pass serves both the Q and sQ labels: selectSQ picks which of
// the two parallel arrays becomes the primary weight. Both labels emit a
// weight pair, with the theoretical (truth-based) weights as the secondary
// array for calibration diagnostics.
type qFactorMethod struct {
	label    result.Method
	variant  event.Variant
	selectSQ bool
	cache    *sampleCache
}

func newQFactorMethod(label result.Method, variant event.Variant, selectSQ bool, cache *sampleCache) *qFactorMethod {
	return &qFactorMethod{label: label, variant: variant, selectSQ: selectSQ, cache: cache}
}

func (m *qFactorMethod) Label() result.Method   { return m.label }
func (m *qFactorMethod) Variant() event.Variant { return m.variant }
func (m *qFactorMethod) ProducesPair() bool     { return true }

func (m *qFactorMethod) ComputeWeights(ctx context.Context, events event.Set) (result.WeightOutput, error) {
	out, err := m.cache.qfactors(ctx, events, m.variant)
	if err != nil {
		return result.WeightOutput{}, err
	}

	primary := out.Q
	if m.selectSQ {
		primary = out.SQ
	}
	theoretical := m.cache.deps.Truth.QAll(events, m.variant)
	return result.PairedWeights(primary, theoretical), nil
}
