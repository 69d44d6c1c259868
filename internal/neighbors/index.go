// Package neighbors provides the phase-space neighbor index used by the
// local likelihood fits. The index is a pure function of the normalized
// points plus a configuration: it owns no mutable state and can be built
// once per (variant, config) and queried from any number of goroutines.
package neighbors

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"

	"decaylab/domain/event"
	"decaylab/internal/errors"
)

// Mode selects the neighbor-set construction rule.
type Mode string

const (
	// ModeFixedK returns the k nearest neighbors.
	ModeFixedK Mode = "fixed"
	// ModeRadius returns all neighbors within a fixed radius.
	ModeRadius Mode = "radius"
	// ModeAdaptive scales k per point by the local density estimate.
	ModeAdaptive Mode = "adaptive"
)

// Config describes how neighbor sets are formed.
type Config struct {
	Mode Mode
	// K is the neighbor count in fixed mode and the pilot count in
	// adaptive mode.
	K int
	// Radius applies in radius mode, in normalized phase-space units.
	Radius float64
	// MinK and MaxK clamp the density-adaptive k so sparse or dense
	// regions never produce degenerate fits.
	MinK int
	MaxK int
}

// Index answers nearest-neighbor queries over a fixed point cloud.
type Index struct {
	points []event.PhasePoint
	cfg    Config

	// pilotDist holds the distance to the K-th neighbor per point. Filled
	// at construction in adaptive mode so queries never write index state.
	pilotDist []float64
}

// NewIndex validates the point cloud and wraps it in an index. All points
// must share the same dimensionality.
func NewIndex(points []event.PhasePoint, cfg Config) (*Index, error) {
	if len(points) < 2 {
		return nil, errors.InvalidInput("neighbor index needs at least 2 points")
	}
	dim := len(points[0])
	for i, p := range points {
		if len(p) != dim {
			return nil, errors.InvalidInput(
				fmt.Sprintf("point %d has dimension %d, want %d", i, len(p), dim))
		}
	}
	switch cfg.Mode {
	case ModeFixedK, ModeRadius, ModeAdaptive:
	default:
		return nil, errors.InvalidInput(fmt.Sprintf("unknown neighbor mode %q", cfg.Mode))
	}
	if cfg.Mode != ModeRadius && cfg.K < 1 {
		return nil, errors.InvalidInput("neighbor K must be >= 1")
	}
	ix := &Index{points: points, cfg: cfg}
	if cfg.Mode == ModeAdaptive {
		ix.computePilotDistances()
	}
	return ix, nil
}

// Len returns the number of indexed points.
func (ix *Index) Len() int { return len(ix.points) }

// Neighbors returns the neighbor indices of point i, ordered by increasing
// distance. The point itself is always excluded: the event's own label must
// not leak into its own fit. In radius mode an empty neighborhood is a
// per-point degenerate condition reported as an EMPTY_NEIGHBORHOOD error.
func (ix *Index) Neighbors(i int) ([]int, error) {
	if i < 0 || i >= len(ix.points) {
		return nil, errors.InvalidInput(fmt.Sprintf("point index %d out of range", i))
	}

	switch ix.cfg.Mode {
	case ModeFixedK:
		return ix.nearest(i, ix.cfg.K), nil
	case ModeRadius:
		found := ix.withinRadius(i, ix.cfg.Radius)
		if len(found) == 0 {
			return nil, errors.EmptyNeighborhood(
				fmt.Sprintf("no neighbors within radius %g of point %d", ix.cfg.Radius, i))
		}
		return found, nil
	case ModeAdaptive:
		return ix.nearest(i, ix.adaptiveK(i)), nil
	default:
		return nil, errors.InternalError("unreachable neighbor mode")
	}
}

// nearest returns min(k, N-1) neighbor indices ordered by distance.
func (ix *Index) nearest(i, k int) []int {
	_, order := ix.rankByDistance(i)
	if k > len(order) {
		k = len(order)
	}
	out := make([]int, k)
	copy(out, order[:k])
	return out
}

func (ix *Index) withinRadius(i int, radius float64) []int {
	dists, order := ix.rankByDistance(i)
	out := []int{}
	for rank, j := range order {
		if dists[rank] > radius {
			break
		}
		out = append(out, j)
	}
	return out
}

// rankByDistance computes distances from point i to every other point and
// returns them sorted ascending alongside the matching indices.
func (ix *Index) rankByDistance(i int) (dists []float64, order []int) {
	p := ix.points[i]
	order = make([]int, 0, len(ix.points)-1)
	raw := make([]float64, len(ix.points))
	for j, q := range ix.points {
		if j == i {
			continue
		}
		raw[j] = floats.Distance(p, q, 2)
		order = append(order, j)
	}
	sort.Slice(order, func(a, b int) bool { return raw[order[a]] < raw[order[b]] })
	dists = make([]float64, len(order))
	for rank, j := range order {
		dists[rank] = raw[j]
	}
	return dists, order
}

// adaptiveK maps the local density estimate to a neighbor count: the density
// at point i is estimated as 1/d_K(i)^dim where d_K is the pilot distance to
// the K-th neighbor, and k_i = K * (rho_median / rho_i), clamped to
// [MinK, MaxK]. The mapping is monotonic: denser regions get smaller k.
func (ix *Index) adaptiveK(i int) int {
	dim := float64(len(ix.points[0]))
	med := medianOf(ix.pilotDist)
	if med == 0 || ix.pilotDist[i] == 0 {
		return ix.cfg.K
	}
	ratio := math.Pow(ix.pilotDist[i]/med, dim)
	k := int(math.Round(float64(ix.cfg.K) * ratio))
	if k < ix.cfg.MinK {
		k = ix.cfg.MinK
	}
	if k > ix.cfg.MaxK {
		k = ix.cfg.MaxK
	}
	return k
}

func (ix *Index) computePilotDistances() {
	ix.pilotDist = make([]float64, len(ix.points))
	for i := range ix.points {
		dists, _ := ix.rankByDistance(i)
		rank := ix.cfg.K - 1
		if rank >= len(dists) {
			rank = len(dists) - 1
		}
		ix.pilotDist[i] = dists[rank]
	}
}

func medianOf(xs []float64) float64 {
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return 0.5 * (sorted[n/2-1] + sorted[n/2])
}
