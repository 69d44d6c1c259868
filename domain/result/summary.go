package result

import "math"

// Summary is the aggregated accuracy matrix: per (method, parameter), the
// mean absolute deviation from truth, the standard deviation of the signed
// deviation, and their ratio (the z-score used to rank methods). Derived
// from the ledger rows; never stored independently.
type Summary struct {
	// Methods in canonical display order, restricted to those present.
	Methods []Method
	Params  []Parameter

	MeanAbsDev   map[Method]map[Parameter]float64
	StdSignedDev map[Method]map[Parameter]float64
	// ZScore is MeanAbsDev / StdSignedDev; NaN when the deviations have
	// zero variance (display-only degenerate case).
	ZScore map[Method]map[Parameter]float64
	// DevSkewness is the sample skewness of the signed deviations, exported
	// so the symmetry assumption behind using the signed-deviation sigma
	// can be inspected.
	DevSkewness map[Method]map[Parameter]float64
	// InvalidIterations counts rows excluded per method via the Valid flag.
	InvalidIterations map[Method]int
	Iterations        int
}

// BestPerParam returns, per parameter, the method with the smallest absolute
// z-score, ignoring NaN cells. ok is false when every cell is NaN.
func (s Summary) BestPerParam(p Parameter) (Method, bool) {
	best := Method("")
	bestZ := math.Inf(1)
	for _, m := range s.Methods {
		z := math.Abs(s.ZScore[m][p])
		if !math.IsNaN(z) && z < bestZ {
			bestZ = z
			best = m
		}
	}
	return best, best != ""
}

// ColumnRange returns the min and max absolute z-score for a parameter
// column, ignoring NaN cells. Used by renderers to scale the color ramp.
func (s Summary) ColumnRange(p Parameter) (min, max float64, ok bool) {
	min, max = math.Inf(1), math.Inf(-1)
	for _, m := range s.Methods {
		z := math.Abs(s.ZScore[m][p])
		if math.IsNaN(z) {
			continue
		}
		if z < min {
			min = z
		}
		if z > max {
			max = z
		}
	}
	return min, max, max >= min
}
