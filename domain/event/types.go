package event

// Label is the hidden generative truth of an event. It exists only so
// benchmarking code can score the estimation methods; no weighting method
// may read it.
type Label int

const (
	LabelBackground Label = iota
	LabelSignal
)

// Event is one immutable simulated particle decay.
type Event struct {
	// Mass is the discriminating variable (e.g. invariant mass in GeV).
	Mass float64
	// CosTheta and Phi are the decay angles spanning the base phase space.
	CosTheta float64
	Phi      float64
	// T is the decay time, used by the time-extended variants.
	T float64
	// G is an auxiliary kinematic variable, used by the g-extended variants.
	G float64
	// Truth is the generative label; evaluation only.
	Truth Label
}

// Set is an immutable collection of events. Methods return fresh slices,
// never views into mutable state.
type Set []Event

// Masses extracts the discriminating-variable column.
func (s Set) Masses() []float64 {
	out := make([]float64, len(s))
	for i, ev := range s {
		out[i] = ev.Mass
	}
	return out
}

// SignalCount returns the number of truth-signal events. Evaluation only.
func (s Set) SignalCount() int {
	n := 0
	for _, ev := range s {
		if ev.Truth == LabelSignal {
			n++
		}
	}
	return n
}

// Coordinate names one phase-space axis of an event.
type Coordinate string

const (
	CoordCosTheta Coordinate = "cos_theta"
	CoordPhi      Coordinate = "phi"
	CoordT        Coordinate = "t"
	CoordG        Coordinate = "g"
)

// Value returns the named coordinate of an event.
func (e Event) Value(c Coordinate) float64 {
	switch c {
	case CoordCosTheta:
		return e.CosTheta
	case CoordPhi:
		return e.Phi
	case CoordT:
		return e.T
	case CoordG:
		return e.G
	default:
		return 0
	}
}

// Column extracts one coordinate column from the set.
func (s Set) Column(c Coordinate) []float64 {
	out := make([]float64, len(s))
	for i, ev := range s {
		out[i] = ev.Value(c)
	}
	return out
}
