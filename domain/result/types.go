package result

import "math"

// Method is a canonical weighting-method label as it appears in the
// persisted table and in reports.
type Method string

const (
	MethodTruth      Method = "Truth"
	MethodNoWeights  Method = "No Weights Analysis"
	MethodSideband   Method = "Sideband Subtraction Analysis"
	MethodInPlot     Method = "InPlot Analysis"
	MethodQFactor    Method = "Q-Factor Analysis"
	MethodQFactorT   Method = "Q-Factor Analysis (with t)"
	MethodQFactorG   Method = "Q-Factor Analysis (with g)"
	MethodQFactorTG  Method = "Q-Factor Analysis (with t & g)"
	MethodSPlot      Method = "sPlot Analysis"
	MethodSQFactor   Method = "sQ-Factor Analysis"
	MethodSQFactorT  Method = "sQ-Factor Analysis (with t)"
	MethodSQFactorG  Method = "sQ-Factor Analysis (with g)"
	MethodSQFactorTG Method = "sQ-Factor Analysis (with t & g)"
)

// CanonicalOrder is the fixed display ordering of methods. Storage order in
// the ledger is append order; consumers re-sort into this order.
func CanonicalOrder() []Method {
	return []Method{
		MethodTruth,
		MethodNoWeights,
		MethodSideband,
		MethodInPlot,
		MethodQFactor,
		MethodQFactorT,
		MethodQFactorG,
		MethodQFactorTG,
		MethodSPlot,
		MethodSQFactor,
		MethodSQFactorT,
		MethodSQFactorG,
		MethodSQFactorTG,
	}
}

// Parameter names a tracked physical parameter.
type Parameter string

const (
	// ParamB is the angular-distribution coefficient.
	ParamB Parameter = "B"
	// ParamTau is the signal lifetime.
	ParamTau Parameter = "Tau"
)

// Parameters returns the tracked parameters in column order.
func Parameters() []Parameter {
	return []Parameter{ParamB, ParamTau}
}

// FitResult is the output of one local two-component likelihood fit.
// Fraction is only meaningful when Converged is true; invalid fits are
// flagged, never silently clamped.
type FitResult struct {
	// Fraction is the fitted signal mixture fraction, in [0,1] when valid.
	// Saturation at exactly 0 or 1 is a valid outcome for pure
	// neighborhoods.
	Fraction float64
	// SignalMean and SignalSigma are the fitted Gaussian signal shape.
	SignalMean  float64
	SignalSigma float64
	// BackgroundSlope is the fitted linear background slope.
	BackgroundSlope float64
	// LogLikelihood at the optimum.
	LogLikelihood float64
	Converged     bool
}

// WeightKind tags whether a method emits one weight array or a
// primary/secondary pair.
type WeightKind int

const (
	WeightSingle WeightKind = iota
	WeightPair
)

// WeightOutput is a tagged variant over the two weight shapes a method can
// produce. Consumers switch on Kind; Secondary is nil unless Kind is
// WeightPair.
type WeightOutput struct {
	Kind WeightKind
	// Primary holds one weight per event, aligned with the event set.
	// Per-event failures are marked NaN, distinguishable from a valid 0.
	Primary []float64
	// Secondary holds the companion array for pair-producing methods
	// (e.g. theoretical weights alongside fitted Q-factors).
	Secondary []float64
}

// SingleWeights wraps one weight array.
func SingleWeights(w []float64) WeightOutput {
	return WeightOutput{Kind: WeightSingle, Primary: w}
}

// PairedWeights wraps a primary array with its companion.
func PairedWeights(primary, secondary []float64) WeightOutput {
	return WeightOutput{Kind: WeightPair, Primary: primary, Secondary: secondary}
}

// InvalidCount returns the number of NaN-flagged entries in the primary
// weight array.
func (w WeightOutput) InvalidCount() int {
	n := 0
	for _, v := range w.Primary {
		if math.IsNaN(v) {
			n++
		}
	}
	return n
}

// Row is one persisted record per (iteration, method): the fitted values and
// uncertainties for every tracked parameter. Rows are immutable once
// appended. The Truth row carries the generative parameter values and
// Valid=true.
type Row struct {
	Iteration int
	Method    Method
	Valid     bool
	Values    map[Parameter]float64
	Errors    map[Parameter]float64
}

// NewRow builds an empty row with allocated maps.
func NewRow(iteration int, method Method, valid bool) Row {
	return Row{
		Iteration: iteration,
		Method:    method,
		Valid:     valid,
		Values:    make(map[Parameter]float64),
		Errors:    make(map[Parameter]float64),
	}
}
