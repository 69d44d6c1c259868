// Package generator produces the synthetic decay datasets the weighting
// methods are evaluated on: a Gaussian mass peak with an anisotropic angular
// distribution and exponential decay time for signal, on top of a linear
// mass background with flat angles and uniform time.
package generator

import (
	"context"
	"math"
	"math/rand"

	"golang.org/x/sync/errgroup"

	"decaylab/domain/event"
	"decaylab/internal"
	"decaylab/internal/errors"
	"decaylab/ports"
)

// Params is the generative truth. The same numbers feed the theoretical
// Q-factor computation and the Truth ledger row.
type Params struct {
	// B is the angular coefficient: signal cos(theta) follows
	// 1 + B*cos^2(theta).
	B float64
	// Tau is the signal lifetime; signal t is exponential truncated to
	// [0, TMax], background t uniform.
	Tau  float64
	TMax float64

	SignalMean  float64
	SignalSigma float64
	MassMin     float64
	MassMax     float64
	// BackgroundSlope shapes the linear background mass density.
	BackgroundSlope float64

	// Auxiliary kinematic variable g: Gaussian for both components with
	// different locations, so it separates signal from background.
	GSignalMean      float64
	GSignalSigma     float64
	GBackgroundMean  float64
	GBackgroundSigma float64

	// Parallel fans generation out over Workers goroutines. Shard order is
	// preserved within a worker; cross-shard order is not guaranteed to
	// match sequential generation.
	Parallel bool
	Workers  int
}

// DefaultGParams fills in the auxiliary-variable defaults used throughout
// the study when the caller has no opinion.
func DefaultGParams(p Params) Params {
	if p.GSignalSigma == 0 {
		p.GSignalMean, p.GSignalSigma = 1.0, 0.5
	}
	if p.GBackgroundSigma == 0 {
		p.GBackgroundMean, p.GBackgroundSigma = 0.0, 1.0
	}
	return p
}

// Generator implements ports.EventGeneratorPort.
type Generator struct {
	params Params
	log    *internal.Logger
}

// New creates a generator for one generative truth.
func New(params Params, logger *internal.Logger) *Generator {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Generator{params: DefaultGParams(params), log: logger}
}

// Params returns the generative truth the generator draws from.
func (g *Generator) Params() Params { return g.params }

// Generate draws the requested signal and background events. The output is
// a pure function of (request, rng state); parallel mode derives one child
// seed per worker from rng so it stays deterministic for a fixed worker
// count.
func (g *Generator) Generate(ctx context.Context, req ports.GenerationRequest, rng *rand.Rand) (event.Set, error) {
	if req.SignalCount < 0 || req.BackgroundCount < 0 {
		return nil, errors.InvalidInput("event counts must be >= 0")
	}
	if g.params.Parallel && g.params.Workers > 1 {
		return g.generateParallel(ctx, req, rng)
	}

	events := make(event.Set, 0, req.SignalCount+req.BackgroundCount)
	for i := 0; i < req.SignalCount; i++ {
		events = append(events, g.signalEvent(rng))
	}
	for i := 0; i < req.BackgroundCount; i++ {
		events = append(events, g.backgroundEvent(rng))
	}
	return events, nil
}

// generateParallel splits the request into per-worker shards. Each worker
// owns an independent derived generator; shards are concatenated in worker
// order after all workers finish.
func (g *Generator) generateParallel(ctx context.Context, req ports.GenerationRequest, rng *rand.Rand) (event.Set, error) {
	workers := g.params.Workers
	shards := make([]event.Set, workers)
	seeds := make([]int64, workers)
	for w := range seeds {
		seeds[w] = rng.Int63()
	}

	sigPer, sigRem := req.SignalCount/workers, req.SignalCount%workers
	bkgPer, bkgRem := req.BackgroundCount/workers, req.BackgroundCount%workers

	grp, _ := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		w := w
		nSig, nBkg := sigPer, bkgPer
		if w < sigRem {
			nSig++
		}
		if w < bkgRem {
			nBkg++
		}
		grp.Go(func() error {
			local := rand.New(rand.NewSource(seeds[w]))
			shard := make(event.Set, 0, nSig+nBkg)
			for i := 0; i < nSig; i++ {
				shard = append(shard, g.signalEvent(local))
			}
			for i := 0; i < nBkg; i++ {
				shard = append(shard, g.backgroundEvent(local))
			}
			shards[w] = shard
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, err
	}

	events := make(event.Set, 0, req.SignalCount+req.BackgroundCount)
	for _, shard := range shards {
		events = append(events, shard...)
	}
	g.log.Debug("parallel generation: %d events over %d workers", len(events), workers)
	return events, nil
}

func (g *Generator) signalEvent(rng *rand.Rand) event.Event {
	return event.Event{
		Mass:     g.truncGauss(rng, g.params.SignalMean, g.params.SignalSigma),
		CosTheta: g.signalCosTheta(rng),
		Phi:      (2*rng.Float64() - 1) * math.Pi,
		T:        g.truncExp(rng),
		G:        rng.NormFloat64()*g.params.GSignalSigma + g.params.GSignalMean,
		Truth:    event.LabelSignal,
	}
}

func (g *Generator) backgroundEvent(rng *rand.Rand) event.Event {
	return event.Event{
		Mass:     g.linearMass(rng),
		CosTheta: 2*rng.Float64() - 1,
		Phi:      (2*rng.Float64() - 1) * math.Pi,
		T:        rng.Float64() * g.params.TMax,
		G:        rng.NormFloat64()*g.params.GBackgroundSigma + g.params.GBackgroundMean,
		Truth:    event.LabelBackground,
	}
}

// truncGauss rejection-samples a Gaussian restricted to the mass window.
func (g *Generator) truncGauss(rng *rand.Rand, mean, sigma float64) float64 {
	for {
		m := rng.NormFloat64()*sigma + mean
		if m >= g.params.MassMin && m <= g.params.MassMax {
			return m
		}
	}
}

// signalCosTheta rejection-samples 1 + B*cos^2(theta) on [-1, 1].
func (g *Generator) signalCosTheta(rng *rand.Rand) float64 {
	ceil := 1 + math.Max(g.params.B, 0)
	for {
		c := 2*rng.Float64() - 1
		if rng.Float64()*ceil <= 1+g.params.B*c*c {
			return c
		}
	}
}

// linearMass rejection-samples the linear background density over the
// window.
func (g *Generator) linearMass(rng *rand.Rand) float64 {
	min, max := g.params.MassMin, g.params.MassMax
	mid := 0.5 * (min + max)
	halfWidth := 0.5 * (max - min)
	ceil := 1 + math.Abs(g.params.BackgroundSlope)*halfWidth
	for {
		m := min + rng.Float64()*(max-min)
		if rng.Float64()*ceil <= 1+g.params.BackgroundSlope*(m-mid) {
			return m
		}
	}
}

// truncExp inverse-transform samples the truncated exponential decay time.
func (g *Generator) truncExp(rng *rand.Rand) float64 {
	u := rng.Float64()
	norm := 1 - math.Exp(-g.params.TMax/g.params.Tau)
	return -g.params.Tau * math.Log(1-u*norm)
}
