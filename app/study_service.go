// Package app wires the study together: the outer iteration loop that
// generates a dataset, runs every weighting method, fits the physical
// parameters under each method's weights, and appends the results to the
// ledger.
package app

import (
	"context"
	"math"

	"decaylab/domain/event"
	"decaylab/domain/result"
	"decaylab/internal"
	"decaylab/internal/aggregate"
	"decaylab/internal/config"
	"decaylab/internal/errors"
	"decaylab/internal/methods"
	"decaylab/internal/physfit"
	"decaylab/internal/qfactor"
	"decaylab/ports"
)

// StudyService runs the full comparison study.
type StudyService struct {
	cfg      *config.Config
	gen      ports.EventGeneratorPort
	rng      ports.RNGPort
	ledger   ports.ResultLedgerPort
	registry *methods.Registry
	log      *internal.Logger
}

// NewStudyService assembles a study from its collaborators.
func NewStudyService(cfg *config.Config, gen ports.EventGeneratorPort, rng ports.RNGPort,
	ledger ports.ResultLedgerPort, registry *methods.Registry, logger *internal.Logger) *StudyService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &StudyService{cfg: cfg, gen: gen, rng: rng, ledger: ledger, registry: registry, log: logger}
}

// Run executes every configured iteration, persists the rows and returns
// the aggregated comparison. Identical configuration and base seed
// reproduce an identical ledger.
func (s *StudyService) Run(ctx context.Context) (result.Summary, error) {
	for it := 0; it < s.cfg.Study.Iterations; it++ {
		rows, err := s.runIteration(ctx, it)
		if err != nil {
			return result.Summary{}, err
		}
		if err := s.ledger.Append(ctx, rows); err != nil {
			return result.Summary{}, err
		}
		s.log.Info("iteration %d/%d complete", it+1, s.cfg.Study.Iterations)
	}

	rows, err := s.ledger.Load(ctx)
	if err != nil {
		return result.Summary{}, err
	}
	return aggregate.Summarize(rows)
}

// runIteration produces one row per method plus the Truth row, in canonical
// order with Truth first. A method whose weight computation fails yields an
// invalid row, not an aborted iteration.
func (s *StudyService) runIteration(ctx context.Context, it int) ([]result.Row, error) {
	rng, err := s.rng.IterationStream(ctx, it)
	if err != nil {
		return nil, err
	}

	events, err := s.gen.Generate(ctx, ports.GenerationRequest{
		SignalCount:     s.cfg.Generator.SignalCount,
		BackgroundCount: s.cfg.Generator.BackgroundCount,
	}, rng)
	if err != nil {
		return nil, err
	}

	rows := []result.Row{s.truthRow(it)}
	for _, method := range s.registry.Methods() {
		rows = append(rows, s.methodRow(ctx, it, method, events))
	}
	return rows, nil
}

func (s *StudyService) truthRow(it int) result.Row {
	row := result.NewRow(it, result.MethodTruth, true)
	row.Values[result.ParamB] = s.cfg.Generator.TrueB
	row.Values[result.ParamTau] = s.cfg.Generator.TrueTau
	row.Errors[result.ParamB] = 0
	row.Errors[result.ParamTau] = 0
	return row
}

func (s *StudyService) methodRow(ctx context.Context, it int, method ports.WeightMethodPort, events event.Set) result.Row {
	out, err := method.ComputeWeights(ctx, events)
	if err != nil {
		s.log.Warn("%s: weight computation failed on iteration %d: %v", method.Label(), it, err)
		return invalidRow(it, method.Label())
	}
	if n := out.InvalidCount(); n > 0 {
		s.log.Debug("%s: %d/%d events carry invalid weights", method.Label(), n, len(events))
	}

	bEst := physfit.FitB(events, out.Primary)
	tauEst := physfit.FitTau(events, out.Primary, s.cfg.Generator.TMax)

	row := result.NewRow(it, method.Label(), bEst.Converged && tauEst.Converged)
	row.Values[result.ParamB] = bEst.Value
	row.Errors[result.ParamB] = bEst.Error
	row.Values[result.ParamTau] = tauEst.Value
	row.Errors[result.ParamTau] = tauEst.Error
	return row
}

func invalidRow(it int, label result.Method) result.Row {
	row := result.NewRow(it, label, false)
	for _, p := range result.Parameters() {
		row.Values[p] = math.NaN()
		row.Errors[p] = math.NaN()
	}
	return row
}

// WeightComparison generates one dataset at the base seed and returns the
// fitted-vs-theoretical weight arrays for the given Q-factor label, for the
// diagnostic plot renderer.
func (s *StudyService) WeightComparison(ctx context.Context, label result.Method) (qfactor.Comparison, error) {
	method, ok := s.registry.ByLabel(label)
	if !ok || !method.ProducesPair() {
		return qfactor.Comparison{}, errors.InvalidInput(
			"weight comparison needs a pair-producing method label")
	}

	rng, err := s.rng.IterationStream(ctx, 0)
	if err != nil {
		return qfactor.Comparison{}, err
	}
	events, err := s.gen.Generate(ctx, ports.GenerationRequest{
		SignalCount:     s.cfg.Generator.SignalCount,
		BackgroundCount: s.cfg.Generator.BackgroundCount,
	}, rng)
	if err != nil {
		return qfactor.Comparison{}, err
	}

	out, err := method.ComputeWeights(ctx, events)
	if err != nil {
		return qfactor.Comparison{}, err
	}
	return qfactor.Comparison{
		Masses:      events.Masses(),
		Fitted:      out.Primary,
		Theoretical: out.Secondary,
	}, nil
}
