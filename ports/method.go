package ports

import (
	"context"

	"decaylab/domain/event"
	"decaylab/domain/result"
)

// WeightMethodPort is the contract every weighting strategy satisfies. Each
// strategy declares its canonical label, which phase-space variant it needs
// (empty for methods that only read the discriminating variable), and
// whether it produces a single weight array or a primary/secondary pair.
type WeightMethodPort interface {
	Label() result.Method

	// Variant returns the phase-space coordinate selection the method fits
	// in, or "" when the method does not use phase-space neighbors.
	Variant() event.Variant

	// ProducesPair reports whether ComputeWeights returns a WeightPair
	// output (e.g. a fitted array alongside its theoretical baseline).
	ProducesPair() bool

	// ComputeWeights assigns one weight per event. Per-event failures are
	// marked NaN in the output, not returned as errors; an error return
	// aborts the iteration.
	ComputeWeights(ctx context.Context, events event.Set) (result.WeightOutput, error)
}
