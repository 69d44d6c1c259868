package app

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"decaylab/adapters/ledger"
	"decaylab/domain/event"
	"decaylab/domain/result"
	"decaylab/internal/config"
	"decaylab/internal/generator"
	"decaylab/internal/methods"
	"decaylab/internal/mixturefit"
	"decaylab/internal/neighbors"
	"decaylab/internal/qfactor"
	"decaylab/internal/rng"
)

func testConfig() *config.Config {
	return &config.Config{
		Study: config.StudyConfig{Iterations: 2, BaseSeed: 11},
		Generator: config.GeneratorConfig{
			SignalCount:     120,
			BackgroundCount: 120,
			TrueB:           2.0,
			TrueTau:         1.0,
			SignalMean:      1.0,
			SignalSigma:     0.075,
			MassMin:         0.6,
			MassMax:         1.4,
			BackgroundSlope: 0.3,
			TMax:            5.0,
			Workers:         1,
		},
		Neighbors: config.NeighborConfig{Mode: "fixed", K: 40, Radius: 0.1, MinK: 10, MaxK: 100},
	}
}

func testService(t *testing.T, cfg *config.Config) *StudyService {
	t.Helper()

	gen := generator.New(generator.Params{
		B:               cfg.Generator.TrueB,
		Tau:             cfg.Generator.TrueTau,
		TMax:            cfg.Generator.TMax,
		SignalMean:      cfg.Generator.SignalMean,
		SignalSigma:     cfg.Generator.SignalSigma,
		MassMin:         cfg.Generator.MassMin,
		MassMax:         cfg.Generator.MassMax,
		BackgroundSlope: cfg.Generator.BackgroundSlope,
	}, nil)

	window := mixturefit.Window{Min: cfg.Generator.MassMin, Max: cfg.Generator.MassMax}
	p := gen.Params()
	registry := methods.NewRegistry(methods.Deps{
		Window: window,
		GlobalStart: mixturefit.Priors{
			Fraction:    0.5,
			SignalMean:  cfg.Generator.SignalMean,
			SignalSigma: cfg.Generator.SignalSigma,
			Window:      window,
		},
		Truth: qfactor.Truth{
			SignalFraction:   0.5,
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
			Mode: neighbors.ModeFixedK,
			K:    cfg.Neighbors.K,
			MinK: cfg.Neighbors.MinK,
			MaxK: cfg.Neighbors.MaxK,
		},
		Scales: event.DefaultScales(cfg.Generator.TMax, 2.0),
	})

	store := ledger.NewTSVStore(filepath.Join(t.TempDir(), "results.tsv"))
	return NewStudyService(cfg, gen, rng.NewFactory(cfg.Study.BaseSeed), store, registry, nil)
}

func TestStudyService_Run(t *testing.T) {
	if testing.Short() {
		t.Skip("full study run")
	}

	cfg := testConfig()
	service := testService(t, cfg)

	summary, err := service.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, cfg.Study.Iterations, summary.Iterations)

	// Every canonical method, Truth included, shows up in the summary.
	require.Equal(t, result.CanonicalOrder(), summary.Methods)

	rows, err := service.ledger.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, cfg.Study.Iterations*len(result.CanonicalOrder()))

	// Truth rows carry the generative values exactly.
	for _, row := range rows {
		if row.Method != result.MethodTruth {
			continue
		}
		assert.True(t, row.Valid)
		assert.Equal(t, cfg.Generator.TrueB, row.Values[result.ParamB])
		assert.Equal(t, cfg.Generator.TrueTau, row.Values[result.ParamTau])
	}

	// The unweighted baseline must produce valid fits on a clean half-signal
	// sample.
	for _, row := range rows {
		if row.Method == result.MethodNoWeights {
			assert.True(t, row.Valid, "iteration %d", row.Iteration)
		}
	}
}

func TestStudyService_WeightingRecoversAngularParameter(t *testing.T) {
	if testing.Short() {
		t.Skip("full study run")
	}

	cfg := testConfig()
	cfg.Study.Iterations = 6
	cfg.Study.BaseSeed = 29
	cfg.Generator.SignalCount = 100
	cfg.Generator.BackgroundCount = 100
	cfg.Neighbors.K = 20
	service := testService(t, cfg)

	_, err := service.Run(context.Background())
	require.NoError(t, err)
	rows, err := service.ledger.Load(context.Background())
	require.NoError(t, err)

	type tally struct {
		n      int
		sumB   float64
		sumErr float64
		sumAbs float64
	}
	collect := func(m result.Method) tally {
		var tl tally
		for _, row := range rows {
			if row.Method != m || !row.Valid {
				continue
			}
			tl.n++
			tl.sumB += row.Values[result.ParamB]
			tl.sumErr += row.Errors[result.ParamB]
			tl.sumAbs += math.Abs(row.Values[result.ParamB] - cfg.Generator.TrueB)
		}
		return tl
	}

	base := collect(result.MethodNoWeights)
	qf := collect(result.MethodQFactor)
	require.Equal(t, cfg.Study.Iterations, base.n, "unweighted fits must all converge")
	require.GreaterOrEqual(t, qf.n, cfg.Study.Iterations-1, "q-factor fits must converge")

	meanQ := qf.sumB / float64(qf.n)
	meanQErr := qf.sumErr / float64(qf.n)
	assert.InDelta(t, cfg.Generator.TrueB, meanQ, 3*meanQErr,
		"q-factor estimate must land within three standard errors of truth")

	// The unweighted fit sees the background-diluted angular distribution,
	// whose likelihood peaks near b=0.75 on a half-background sample; that
	// puts its deviation from truth at roughly three of its own standard
	// errors, so bound it loosely here and pin the bias through the
	// deviation ordering below.
	meanBase := base.sumB / float64(base.n)
	meanBaseErr := base.sumErr / float64(base.n)
	assert.InDelta(t, cfg.Generator.TrueB, meanBase, 5*meanBaseErr)

	madQ := qf.sumAbs / float64(qf.n)
	madBase := base.sumAbs / float64(base.n)
	assert.LessOrEqual(t, madQ, madBase,
		"local weighting must not deviate more from truth than no weighting")
}

func TestStudyService_RunDeterministic(t *testing.T) {
	if testing.Short() {
		t.Skip("full study run")
	}

	cfg := testConfig()
	cfg.Study.Iterations = 1

	a, err := testService(t, cfg).Run(context.Background())
	require.NoError(t, err)
	b, err := testService(t, cfg).Run(context.Background())
	require.NoError(t, err)

	for _, m := range a.Methods {
		for _, p := range a.Params {
			assert.Equal(t, a.MeanAbsDev[m][p], b.MeanAbsDev[m][p],
				"%s/%s differs between identical runs", m, p)
		}
	}
}

func TestStudyService_WeightComparison(t *testing.T) {
	cfg := testConfig()
	service := testService(t, cfg)
	ctx := context.Background()

	cmp, err := service.WeightComparison(ctx, result.MethodQFactor)
	require.NoError(t, err)
	total := cfg.Generator.SignalCount + cfg.Generator.BackgroundCount
	assert.Len(t, cmp.Masses, total)
	assert.Len(t, cmp.Fitted, total)
	assert.Len(t, cmp.Theoretical, total)

	// Single-array methods have no theoretical companion to compare.
	_, err = service.WeightComparison(ctx, result.MethodNoWeights)
	require.Error(t, err)
}
