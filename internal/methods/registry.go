// Package methods holds the weighting strategies under comparison. Each
// strategy satisfies ports.WeightMethodPort and declares its canonical
// label, required phase-space variant and output shape; the registry hands
// them out in canonical display order.
package methods

import (
	"context"
	"sync"

	"decaylab/domain/event"
	"decaylab/domain/result"
	"decaylab/internal"
	"decaylab/internal/errors"
	"decaylab/internal/mixturefit"
	"decaylab/internal/neighbors"
	"decaylab/internal/qfactor"
	"decaylab/ports"
)

// Deps carries everything the strategies share: the mass window, the diffuse
// starting point for the full-sample fit, the generative truth for
// theoretical baselines, and the neighbor configuration.
type Deps struct {
	Window      mixturefit.Window
	GlobalStart mixturefit.Priors
	Truth       qfactor.Truth
	NeighborCfg neighbors.Config
	Scales      event.Scales
	Logger      *internal.Logger
}

// Registry builds and serves the weighting strategies.
type Registry struct {
	deps  Deps
	cache *sampleCache
	all   []ports.WeightMethodPort
}

// NewRegistry wires the full strategy set in canonical order (Truth is not a
// weighting method; its ledger row is written by the study service).
func NewRegistry(deps Deps) *Registry {
	if deps.Logger == nil {
		deps.Logger = internal.DefaultLogger
	}
	cache := &sampleCache{deps: deps}
	r := &Registry{deps: deps, cache: cache}
	r.all = []ports.WeightMethodPort{
		&noWeights{},
		&sideband{cache: cache},
		&inPlot{cache: cache},
		newQFactorMethod(result.MethodQFactor, event.VariantAngles, false, cache),
		newQFactorMethod(result.MethodQFactorT, event.VariantAnglesT, false, cache),
		newQFactorMethod(result.MethodQFactorG, event.VariantAnglesG, false, cache),
		newQFactorMethod(result.MethodQFactorTG, event.VariantAnglesTG, false, cache),
		&sPlot{cache: cache},
		newQFactorMethod(result.MethodSQFactor, event.VariantAngles, true, cache),
		newQFactorMethod(result.MethodSQFactorT, event.VariantAnglesT, true, cache),
		newQFactorMethod(result.MethodSQFactorG, event.VariantAnglesG, true, cache),
		newQFactorMethod(result.MethodSQFactorTG, event.VariantAnglesTG, true, cache),
	}
	return r
}

// Methods returns the strategies in canonical display order.
func (r *Registry) Methods() []ports.WeightMethodPort {
	out := make([]ports.WeightMethodPort, len(r.all))
	copy(out, r.all)
	return out
}

// ByLabel finds a strategy by its canonical label.
func (r *Registry) ByLabel(label result.Method) (ports.WeightMethodPort, bool) {
	for _, m := range r.all {
		if m.Label() == label {
			return m, true
		}
	}
	return nil, false
}

// sampleCache memoizes the per-sample computations the strategies share:
// the full-sample mixture fit (which seeds every local fit and drives the
// global-fit baselines) and the per-variant Q-factor engine outputs. The
// cache resets whenever a different event set arrives.
type sampleCache struct {
	deps Deps

	mu      sync.Mutex
	events  event.Set
	global  result.FitResult
	priors  mixturefit.Priors
	fitDone bool
	engine  map[event.Variant]qfactor.Output
}

func (c *sampleCache) sameSample(events event.Set) bool {
	if len(events) != len(c.events) {
		return false
	}
	if len(events) == 0 {
		return true
	}
	return &events[0] == &c.events[0]
}

func (c *sampleCache) bind(events event.Set) {
	if !c.sameSample(events) {
		c.events = events
		c.fitDone = false
		c.engine = nil
	}
}

// globalFit returns the full-sample two-component fit and the local-fit
// priors derived from it.
func (c *sampleCache) globalFit(events event.Set) (result.FitResult, mixturefit.Priors, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bind(events)

	if !c.fitDone {
		fit := mixturefit.FitGlobal(events.Masses(), c.deps.GlobalStart)
		if !fit.Converged {
			return result.FitResult{}, mixturefit.Priors{},
				errors.FitDiverged("full-sample mixture fit did not converge")
		}
		c.global = fit
		c.priors = mixturefit.DefaultPriorTightness(mixturefit.Priors{
			Fraction:        fit.Fraction,
			SignalMean:      fit.SignalMean,
			SignalSigma:     fit.SignalSigma,
			BackgroundSlope: fit.BackgroundSlope,
			Window:          c.deps.Window,
		})
		c.fitDone = true
	}
	return c.global, c.priors, nil
}

// qfactors returns the engine output for one variant, computing it at most
// once per sample.
func (c *sampleCache) qfactors(ctx context.Context, events event.Set, variant event.Variant) (qfactor.Output, error) {
	_, priors, err := c.globalFit(events)
	if err != nil {
		return qfactor.Output{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.engine == nil {
		c.engine = make(map[event.Variant]qfactor.Output)
	}
	if out, ok := c.engine[variant]; ok {
		return out, nil
	}

	engine := qfactor.NewEngine(priors, c.deps.NeighborCfg, c.deps.Scales, c.deps.Logger)
	out, err := engine.Compute(ctx, events, variant)
	if err != nil {
		return qfactor.Output{}, err
	}
	c.engine[variant] = out
	return out, nil
}
