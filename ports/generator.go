package ports

import (
	"context"
	"math/rand"

	"decaylab/domain/event"
)

// GenerationRequest describes one synthetic dataset draw.
type GenerationRequest struct {
	SignalCount     int
	BackgroundCount int
}

// EventGeneratorPort produces simulated decay datasets. Implementations must
// be pure functions of (request, rng): the same generator state yields the
// same events.
type EventGeneratorPort interface {
	Generate(ctx context.Context, req GenerationRequest, rng *rand.Rand) (event.Set, error)
}
