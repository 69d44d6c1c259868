package ports

import (
	"context"
	"math/rand"
)

// RNGPort provides seeded random number generation for deterministic
// operations. Every stochastic call receives an explicit *rand.Rand created
// through this port; there is no process-wide mutable generator.
type RNGPort interface {
	// SeededStream creates a deterministic random number generator for a
	// named operation
	SeededStream(ctx context.Context, name string, seed int64) (*rand.Rand, error)

	// IterationStream creates the generator for one outer-loop iteration,
	// seeded as base seed + iteration index. Re-running an iteration with
	// the same configuration must reproduce identical outputs.
	IterationStream(ctx context.Context, iteration int) (*rand.Rand, error)
}
