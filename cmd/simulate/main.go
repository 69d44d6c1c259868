// Command simulate runs the full weighting-method comparison study: it
// generates the configured number of synthetic datasets, applies every
// weighting method to each, fits the physics parameters under each method's
// weights, and renders the aggregated comparison into a run directory.
package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"decaylab/adapters/ledger"
	"decaylab/adapters/postgres"
	"decaylab/adapters/report"
	"decaylab/app"
	"decaylab/domain/event"
	"decaylab/domain/result"
	"decaylab/internal"
	"decaylab/internal/aggregate"
	"decaylab/internal/config"
	"decaylab/internal/generator"
	"decaylab/internal/methods"
	"decaylab/internal/mixturefit"
	"decaylab/internal/neighbors"
	"decaylab/internal/qfactor"
	"decaylab/internal/rng"
	"decaylab/ports"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()
	logger := internal.NewDefaultLogger()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	runID := uuid.New()
	runDir := filepath.Join(cfg.Output.Dir, runID.String())
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return fmt.Errorf("creating run directory %s: %w", runDir, err)
	}
	logger.Info("run %s writing to %s", runID, runDir)

	gen := generator.New(genParams(cfg), logger)
	factory := rng.NewFactory(cfg.Study.BaseSeed)

	var store ports.ResultLedgerPort
	if cfg.Database.URL != "" {
		repo, err := postgres.NewResultRepository(cfg.Database.URL, runID)
		if err != nil {
			return err
		}
		defer repo.Close()
		store = repo
	} else {
		store = ledger.NewTSVStore(filepath.Join(runDir, cfg.Output.TableFile))
	}

	registry := methods.NewRegistry(methodDeps(cfg, gen.Params(), logger))
	service := app.NewStudyService(cfg, gen, factory, store, registry, logger)

	summary, err := service.Run(ctx)
	if err != nil {
		return err
	}

	if err := report.NewTerminalRenderer(os.Stdout).Render(ctx, summary); err != nil {
		return err
	}
	if err := report.NewExcelRenderer(filepath.Join(runDir, "comparison.xlsx")).Render(ctx, summary); err != nil {
		return err
	}

	rows, err := store.Load(ctx)
	if err != nil {
		return err
	}
	plots := report.NewPlotRenderer(runDir)
	for _, m := range summary.Methods {
		if m == result.MethodTruth {
			continue
		}
		for _, p := range summary.Params {
			if err := plots.PullHistogram(m, p, aggregate.Pulls(rows, m, p)); err != nil {
				logger.Warn("pull plot for %s/%s: %v", m, p, err)
			}
		}
	}
	if cmp, err := service.WeightComparison(ctx, result.MethodQFactor); err != nil {
		logger.Warn("weight comparison: %v", err)
	} else if err := plots.WeightComparison(string(result.MethodQFactor), cmp); err != nil {
		logger.Warn("weight comparison plot: %v", err)
	}

	if err := report.NewHTMLRenderer(runDir).Render(ctx, summary); err != nil {
		return err
	}

	logger.Info("run %s complete", runID)
	return nil
}

func genParams(cfg *config.Config) generator.Params {
	return generator.Params{
		B:               cfg.Generator.TrueB,
		Tau:             cfg.Generator.TrueTau,
		TMax:            cfg.Generator.TMax,
		SignalMean:      cfg.Generator.SignalMean,
		SignalSigma:     cfg.Generator.SignalSigma,
		MassMin:         cfg.Generator.MassMin,
		MassMax:         cfg.Generator.MassMax,
		BackgroundSlope: cfg.Generator.BackgroundSlope,
		Parallel:        cfg.Generator.Parallel,
		Workers:         cfg.Generator.Workers,
	}
}

func methodDeps(cfg *config.Config, p generator.Params, logger *internal.Logger) methods.Deps {
	window := mixturefit.Window{Min: cfg.Generator.MassMin, Max: cfg.Generator.MassMax}
	total := cfg.Generator.SignalCount + cfg.Generator.BackgroundCount

	// Approximate full spread of g across both components; it only sets the
	// relative weight of g in the neighbor metric.
	gSpread := math.Abs(p.GSignalMean-p.GBackgroundMean) +
		2*math.Max(p.GSignalSigma, p.GBackgroundSigma)

	return methods.Deps{
		Window: window,
		GlobalStart: mixturefit.Priors{
			Fraction:    0.5,
			SignalMean:  cfg.Generator.SignalMean,
			SignalSigma: cfg.Generator.SignalSigma,
			Window:      window,
		},
		Truth: qfactor.Truth{
			SignalFraction:   float64(cfg.Generator.SignalCount) / float64(total),
			SignalMean:       cfg.Generator.SignalMean,
			SignalSigma:      cfg.Generator.SignalSigma,
			BackgroundSlope:  cfg.Generator.BackgroundSlope,
			Window:           window,
			Tau:              cfg.Generator.TrueTau,
			TMax:             cfg.Generator.TMax,
			GSignalMean:      p.GSignalMean,
			GSignalSigma:     p.GSignalSigma,
			GBackgroundMean:  p.GBackgroundMean,
			GBackgroundSigma: p.GBackgroundSigma,
		},
		NeighborCfg: neighbors.Config{
			Mode:   neighbors.Mode(cfg.Neighbors.Mode),
			K:      cfg.Neighbors.K,
			Radius: cfg.Neighbors.Radius,
			MinK:   cfg.Neighbors.MinK,
			MaxK:   cfg.Neighbors.MaxK,
		},
		Scales: event.DefaultScales(cfg.Generator.TMax, gSpread),
		Logger: logger,
	}
}
