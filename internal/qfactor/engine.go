// Package qfactor implements the per-event nearest-neighbor local likelihood
// weighting: for every event, fit the signal/background mixture to the
// discriminating variable of its phase-space neighbors and convert the fit
// into that event's signal probability (Q) and sPlot-style weight (sQ).
package qfactor

import (
	"context"
	"math"

	"decaylab/domain/event"
	"decaylab/domain/result"
	"decaylab/internal"
	apperrors "decaylab/internal/errors"
	"decaylab/internal/mixturefit"
	"decaylab/internal/neighbors"
)

// Output carries the two parallel weight arrays plus per-event diagnostics,
// all aligned with the input event set. Failed events hold NaN in both
// weight arrays and a non-converged FitResult.
type Output struct {
	Q    []float64
	SQ   []float64
	Fits []result.FitResult
	// Failed counts events whose neighborhood was empty or whose local fit
	// did not converge.
	Failed int
}

// Comparison pairs fitted weights with their theoretical counterparts,
// aligned by event index. This is the engine's interface to the diagnostic
// plot renderer.
type Comparison struct {
	Masses      []float64
	Fitted      []float64
	Theoretical []float64
}

// Engine orchestrates the neighbor index and the local fitter over a full
// event set.
type Engine struct {
	priors mixturefit.Priors
	ncfg   neighbors.Config
	scales event.Scales
	log    *internal.Logger
}

// NewEngine creates an engine around global-fit priors and a neighbor
// configuration.
func NewEngine(priors mixturefit.Priors, ncfg neighbors.Config, scales event.Scales, logger *internal.Logger) *Engine {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Engine{priors: priors, ncfg: ncfg, scales: scales, log: logger}
}

// Compute runs the per-event neighbor fit loop for one phase-space variant.
// The loop has no cross-event shared mutable state; failures are contained
// per event and counted, never propagated as run-aborting errors.
func (e *Engine) Compute(ctx context.Context, events event.Set, variant event.Variant) (Output, error) {
	if len(events) < 2 {
		return Output{}, apperrors.InvalidInput("q-factor computation needs at least 2 events")
	}

	points := events.PhasePoints(variant, e.scales)
	index, err := neighbors.NewIndex(points, e.ncfg)
	if err != nil {
		return Output{}, apperrors.Wrap(err, "building neighbor index")
	}

	masses := events.Masses()
	fitter := mixturefit.NewFitter(e.priors)

	out := Output{
		Q:    make([]float64, len(events)),
		SQ:   make([]float64, len(events)),
		Fits: make([]result.FitResult, len(events)),
	}

	for i := range events {
		select {
		case <-ctx.Done():
			return Output{}, ctx.Err()
		default:
		}

		nbrs, err := index.Neighbors(i)
		if err != nil {
			// Empty radius neighborhoods are a per-event degeneracy: flag
			// and continue.
			if apperrors.GetCode(err) == apperrors.CodeEmptyNeighborhood {
				e.log.Debug("event %d: %v", i, err)
				out.Q[i], out.SQ[i] = math.NaN(), math.NaN()
				out.Failed++
				continue
			}
			return Output{}, err
		}

		local := make([]float64, len(nbrs))
		for j, idx := range nbrs {
			local[j] = masses[idx]
		}

		fit := fitter.Fit(local)
		out.Fits[i] = fit
		if !fit.Converged {
			e.log.Debug("event %d: local fit did not converge (%d neighbors)", i, len(nbrs))
			out.Q[i], out.SQ[i] = math.NaN(), math.NaN()
			out.Failed++
			continue
		}

		out.Q[i] = signalProbability(masses[i], fit, e.priors.Window)
		sq := mixturefit.SPlotWeights(local, masses[i:i+1],
			fit.Fraction, fit.SignalMean, fit.SignalSigma, fit.BackgroundSlope, e.priors.Window)
		out.SQ[i] = sq[0]
	}

	if out.Failed > 0 {
		e.log.Warn("q-factor %s: %d/%d events flagged invalid", variant, out.Failed, len(events))
	}
	return out, nil
}

// Compare aligns a fitted weight array with the theoretical computation for
// the same events and variant.
func (e *Engine) Compare(events event.Set, variant event.Variant, fitted []float64, truth Truth) Comparison {
	return Comparison{
		Masses:      events.Masses(),
		Fitted:      fitted,
		Theoretical: truth.QAll(events, variant),
	}
}

// signalProbability converts a converged local fit into the event's own
// signal probability: the fraction-weighted signal density at the event's
// mass over the total density there. Saturated fits yield exactly 0 or 1.
func signalProbability(m float64, fit result.FitResult, w mixturefit.Window) float64 {
	fs := mixturefit.SignalPDF(m, fit.SignalMean, fit.SignalSigma, w)
	fb := mixturefit.BackgroundPDF(m, fit.BackgroundSlope, w)
	den := fit.Fraction*fs + (1-fit.Fraction)*fb
	if den <= 0 {
		// Both densities vanish at this mass; the fraction itself is the
		// only information the fit carries.
		return fit.Fraction
	}
	return fit.Fraction * fs / den
}
