// Package aggregate turns the ledger of per-iteration fit results into the
// calibrated accuracy matrix used to rank the weighting methods.
package aggregate

import (
	"math"

	"github.com/montanaflynn/stats"
	gstat "gonum.org/v1/gonum/stat"

	"decaylab/domain/result"
	"decaylab/internal/errors"
)

// Summarize groups ledger rows by method and computes, per (method,
// parameter): the mean absolute deviation from the Truth row of the same
// iteration, the standard deviation of the signed deviation, and the
// z-score (their ratio).
//
// The z-score denominator is the sigma of the signed deviation. When the
// deviation distribution is symmetric about its mean this equals the sigma
// of the absolute deviation; the exported skewness lets callers check that
// symmetry instead of trusting it. Zero-variance cells (the Truth row, or a
// method that reproduces truth exactly) yield NaN, a display-only
// degenerate value.
func Summarize(rows []result.Row) (result.Summary, error) {
	truth := make(map[int]map[result.Parameter]float64)
	for _, row := range rows {
		if row.Method == result.MethodTruth {
			truth[row.Iteration] = row.Values
		}
	}
	if len(truth) == 0 {
		return result.Summary{}, errors.InvalidInput("ledger holds no Truth rows")
	}

	params := result.Parameters()

	// Signed deviations per (method, parameter), valid rows only.
	devs := make(map[result.Method]map[result.Parameter][]float64)
	invalid := make(map[result.Method]int)
	present := make(map[result.Method]bool)
	iterations := make(map[int]bool)

	for _, row := range rows {
		present[row.Method] = true
		iterations[row.Iteration] = true
		if !row.Valid {
			invalid[row.Method]++
			continue
		}
		truthVals, ok := truth[row.Iteration]
		if !ok {
			invalid[row.Method]++
			continue
		}
		if devs[row.Method] == nil {
			devs[row.Method] = make(map[result.Parameter][]float64)
		}
		for _, p := range params {
			devs[row.Method][p] = append(devs[row.Method][p], row.Values[p]-truthVals[p])
		}
	}

	summary := result.Summary{
		Params:            params,
		MeanAbsDev:        make(map[result.Method]map[result.Parameter]float64),
		StdSignedDev:      make(map[result.Method]map[result.Parameter]float64),
		ZScore:            make(map[result.Method]map[result.Parameter]float64),
		DevSkewness:       make(map[result.Method]map[result.Parameter]float64),
		InvalidIterations: invalid,
		Iterations:        len(iterations),
	}

	for _, m := range result.CanonicalOrder() {
		if !present[m] {
			continue
		}
		summary.Methods = append(summary.Methods, m)
		summary.MeanAbsDev[m] = make(map[result.Parameter]float64)
		summary.StdSignedDev[m] = make(map[result.Parameter]float64)
		summary.ZScore[m] = make(map[result.Parameter]float64)
		summary.DevSkewness[m] = make(map[result.Parameter]float64)

		for _, p := range params {
			ds := devs[m][p]
			if len(ds) == 0 {
				summary.MeanAbsDev[m][p] = math.NaN()
				summary.StdSignedDev[m][p] = math.NaN()
				summary.ZScore[m][p] = math.NaN()
				summary.DevSkewness[m][p] = math.NaN()
				continue
			}

			abs := make([]float64, len(ds))
			for i, d := range ds {
				abs[i] = math.Abs(d)
			}
			mad, _ := stats.Mean(abs)
			sd := 0.0
			if len(ds) > 1 {
				sd, _ = stats.StandardDeviationSample(ds)
			}

			summary.MeanAbsDev[m][p] = mad
			summary.StdSignedDev[m][p] = sd
			if sd == 0 {
				summary.ZScore[m][p] = math.NaN()
			} else {
				summary.ZScore[m][p] = mad / sd
			}
			if len(ds) > 2 {
				summary.DevSkewness[m][p] = gstat.Skew(ds, nil)
			} else {
				summary.DevSkewness[m][p] = math.NaN()
			}
		}
	}

	return summary, nil
}

// Pulls computes (fitted - truth) / error per iteration for one method and
// parameter, skipping invalid rows and non-positive errors. A calibrated
// method produces pulls distributed as a unit Gaussian.
func Pulls(rows []result.Row, method result.Method, param result.Parameter) []float64 {
	truth := make(map[int]float64)
	for _, row := range rows {
		if row.Method == result.MethodTruth {
			truth[row.Iteration] = row.Values[param]
		}
	}

	var pulls []float64
	for _, row := range rows {
		if row.Method != method || !row.Valid {
			continue
		}
		t, ok := truth[row.Iteration]
		if !ok {
			continue
		}
		err := row.Errors[param]
		if err <= 0 || math.IsNaN(err) {
			continue
		}
		pulls = append(pulls, (row.Values[param]-t)/err)
	}
	return pulls
}
