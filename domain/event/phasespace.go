package event

// Variant names a phase-space coordinate selection. Each kNN-based method
// runs against exactly one variant; the normalized points must be recomputed
// per variant since the coordinate set changes.
type Variant string

const (
	VariantAngles   Variant = "angles"
	VariantAnglesT  Variant = "angles_t"
	VariantAnglesG  Variant = "angles_g"
	VariantAnglesTG Variant = "angles_t_g"
)

// Coordinates returns the coordinate columns spanning the variant.
func (v Variant) Coordinates() []Coordinate {
	switch v {
	case VariantAngles:
		return []Coordinate{CoordCosTheta, CoordPhi}
	case VariantAnglesT:
		return []Coordinate{CoordCosTheta, CoordPhi, CoordT}
	case VariantAnglesG:
		return []Coordinate{CoordCosTheta, CoordPhi, CoordG}
	case VariantAnglesTG:
		return []Coordinate{CoordCosTheta, CoordPhi, CoordT, CoordG}
	default:
		return nil
	}
}

// Dim returns the dimensionality of the variant's phase space.
func (v Variant) Dim() int {
	return len(v.Coordinates())
}

// Scales holds the per-coordinate normalizing constants. Each coordinate is
// divided by its scale before entering the neighbor metric so that no single
// axis dominates the Euclidean distance.
type Scales map[Coordinate]float64

// DefaultScales normalizes each coordinate by the width of its support:
// cos(theta) spans [-1,1], phi spans [-pi,pi], t spans [0,tMax] and g is
// scaled by its generative spread.
func DefaultScales(tMax, gSpread float64) Scales {
	return Scales{
		CoordCosTheta: 2.0,
		CoordPhi:      2.0 * 3.141592653589793,
		CoordT:        tMax,
		CoordG:        gSpread,
	}
}

// PhasePoint is an event projected into a variant's normalized phase space.
type PhasePoint []float64

// PhasePoints projects every event in the set into the variant's normalized
// coordinate space. One point per event, aligned by index.
func (s Set) PhasePoints(v Variant, scales Scales) []PhasePoint {
	coords := v.Coordinates()
	points := make([]PhasePoint, len(s))
	for i, ev := range s {
		p := make(PhasePoint, len(coords))
		for j, c := range coords {
			scale := scales[c]
			if scale == 0 {
				scale = 1
			}
			p[j] = ev.Value(c) / scale
		}
		points[i] = p
	}
	return points
}
