package methods

import (
	"context"

	"decaylab/domain/event"
	"decaylab/domain/result"
)

// noWeights is the unweighted baseline: every event counts fully, so the
// downstream fits absorb the background bias unmitigated.
type noWeights struct{}

func (m *noWeights) Label() result.Method   { return result.MethodNoWeights }
func (m *noWeights) Variant() event.Variant { return "" }
func (m *noWeights) ProducesPair() bool     { return false }

func (m *noWeights) ComputeWeights(ctx context.Context, events event.Set) (result.WeightOutput, error) {
	w := make([]float64, len(events))
	for i := range w {
		w[i] = 1
	}
	return result.SingleWeights(w), nil
}
