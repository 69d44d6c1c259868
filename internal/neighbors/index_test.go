package neighbors

import (
	"fmt"
	"sync"
	"testing"

	"decaylab/domain/event"
	"decaylab/internal/errors"
)

func linePoints(n int) []event.PhasePoint {
	// Points at 0, 1, 2, ... on a line: neighbor order is unambiguous.
	points := make([]event.PhasePoint, n)
	for i := range points {
		points[i] = event.PhasePoint{float64(i), 0}
	}
	return points
}

func TestNewIndex_Validation(t *testing.T) {
	tests := []struct {
		name   string
		points []event.PhasePoint
		cfg    Config
		ok     bool
	}{
		{"valid fixed", linePoints(5), Config{Mode: ModeFixedK, K: 2}, true},
		{"too few points", linePoints(1), Config{Mode: ModeFixedK, K: 2}, false},
		{"mixed dimensions", []event.PhasePoint{{1, 2}, {1}}, Config{Mode: ModeFixedK, K: 1}, false},
		{"unknown mode", linePoints(5), Config{Mode: "voronoi", K: 2}, false},
		{"zero k", linePoints(5), Config{Mode: ModeFixedK, K: 0}, false},
		{"radius ignores k", linePoints(5), Config{Mode: ModeRadius, Radius: 1.5}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewIndex(tt.points, tt.cfg)
			if tt.ok && err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
			if !tt.ok && err == nil {
				t.Error("Expected error, got nil")
			}
		})
	}
}

func TestNeighbors_FixedK_ExcludesSelf(t *testing.T) {
	ix, err := NewIndex(linePoints(6), Config{Mode: ModeFixedK, K: 3})
	if err != nil {
		t.Fatalf("NewIndex failed: %v", err)
	}

	for i := 0; i < ix.Len(); i++ {
		nbrs, err := ix.Neighbors(i)
		if err != nil {
			t.Fatalf("Neighbors(%d) failed: %v", i, err)
		}
		if len(nbrs) != 3 {
			t.Errorf("Neighbors(%d): expected 3 neighbors, got %d", i, len(nbrs))
		}
		for _, j := range nbrs {
			if j == i {
				t.Errorf("Neighbors(%d) contains the point itself", i)
			}
		}
	}
}

func TestNeighbors_FixedK_OrderedByDistance(t *testing.T) {
	ix, err := NewIndex(linePoints(5), Config{Mode: ModeFixedK, K: 4})
	if err != nil {
		t.Fatalf("NewIndex failed: %v", err)
	}

	nbrs, err := ix.Neighbors(0)
	if err != nil {
		t.Fatalf("Neighbors(0) failed: %v", err)
	}
	expected := []int{1, 2, 3, 4}
	for rank, j := range nbrs {
		if j != expected[rank] {
			t.Errorf("Rank %d: expected point %d, got %d", rank, expected[rank], j)
		}
	}
}

func TestNeighbors_FixedK_CappedAtSampleSize(t *testing.T) {
	// K larger than the sample returns all other points, never the point
	// itself.
	ix, err := NewIndex(linePoints(4), Config{Mode: ModeFixedK, K: 100})
	if err != nil {
		t.Fatalf("NewIndex failed: %v", err)
	}

	nbrs, err := ix.Neighbors(2)
	if err != nil {
		t.Fatalf("Neighbors(2) failed: %v", err)
	}
	if len(nbrs) != 3 {
		t.Errorf("Expected 3 neighbors (N-1), got %d", len(nbrs))
	}
}

func TestNeighbors_Radius(t *testing.T) {
	ix, err := NewIndex(linePoints(6), Config{Mode: ModeRadius, Radius: 1.5})
	if err != nil {
		t.Fatalf("NewIndex failed: %v", err)
	}

	nbrs, err := ix.Neighbors(3)
	if err != nil {
		t.Fatalf("Neighbors(3) failed: %v", err)
	}
	if len(nbrs) != 2 {
		t.Errorf("Expected 2 neighbors within radius 1.5, got %d", len(nbrs))
	}
}

func TestNeighbors_Radius_EmptyNeighborhood(t *testing.T) {
	points := []event.PhasePoint{{0, 0}, {100, 0}, {200, 0}}
	ix, err := NewIndex(points, Config{Mode: ModeRadius, Radius: 0.5})
	if err != nil {
		t.Fatalf("NewIndex failed: %v", err)
	}

	_, err = ix.Neighbors(0)
	if err == nil {
		t.Fatal("Expected EMPTY_NEIGHBORHOOD error, got nil")
	}
	if errors.GetCode(err) != errors.CodeEmptyNeighborhood {
		t.Errorf("Expected code %s, got %s", errors.CodeEmptyNeighborhood, errors.GetCode(err))
	}
}

func TestNeighbors_Adaptive_BoundedByMinMax(t *testing.T) {
	// A dense cluster plus one far outlier: the outlier's low density must
	// push its k up, and every k must stay inside [MinK, MaxK].
	points := make([]event.PhasePoint, 0, 41)
	for i := 0; i < 40; i++ {
		points = append(points, event.PhasePoint{float64(i) * 0.01, 0})
	}
	points = append(points, event.PhasePoint{50, 0})

	cfg := Config{Mode: ModeAdaptive, K: 10, MinK: 4, MaxK: 20}
	ix, err := NewIndex(points, cfg)
	if err != nil {
		t.Fatalf("NewIndex failed: %v", err)
	}

	for i := 0; i < ix.Len(); i++ {
		nbrs, err := ix.Neighbors(i)
		if err != nil {
			t.Fatalf("Neighbors(%d) failed: %v", i, err)
		}
		if len(nbrs) < cfg.MinK || len(nbrs) > cfg.MaxK {
			t.Errorf("Neighbors(%d): count %d outside [%d, %d]", i, len(nbrs), cfg.MinK, cfg.MaxK)
		}
	}

	dense, _ := ix.Neighbors(20)
	sparse, _ := ix.Neighbors(40)
	if len(sparse) <= len(dense) {
		t.Errorf("Outlier should get more neighbors than cluster interior: got %d <= %d",
			len(sparse), len(dense))
	}
}

func TestNeighbors_Adaptive_ConcurrentQueries(t *testing.T) {
	// Adaptive queries read the pilot distances filled at construction;
	// concurrent readers must agree with a serial pass over the same index.
	points := make([]event.PhasePoint, 0, 61)
	for i := 0; i < 60; i++ {
		points = append(points, event.PhasePoint{float64(i) * 0.02, 0})
	}
	points = append(points, event.PhasePoint{25, 0})

	ix, err := NewIndex(points, Config{Mode: ModeAdaptive, K: 8, MinK: 3, MaxK: 24})
	if err != nil {
		t.Fatalf("NewIndex failed: %v", err)
	}

	serial := make([][]int, ix.Len())
	for i := range serial {
		nbrs, err := ix.Neighbors(i)
		if err != nil {
			t.Fatalf("Neighbors(%d) failed: %v", i, err)
		}
		serial[i] = nbrs
	}

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < ix.Len(); i++ {
				nbrs, err := ix.Neighbors(i)
				if err != nil {
					errs <- fmt.Errorf("Neighbors(%d): %v", i, err)
					return
				}
				if len(nbrs) != len(serial[i]) {
					errs <- fmt.Errorf("Neighbors(%d): %d neighbors, serial pass had %d",
						i, len(nbrs), len(serial[i]))
					return
				}
				for rank, j := range nbrs {
					if j != serial[i][rank] {
						errs <- fmt.Errorf("Neighbors(%d) rank %d: point %d, serial pass had %d",
							i, rank, j, serial[i][rank])
						return
					}
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestNeighbors_IndexOutOfRange(t *testing.T) {
	ix, err := NewIndex(linePoints(3), Config{Mode: ModeFixedK, K: 1})
	if err != nil {
		t.Fatalf("NewIndex failed: %v", err)
	}
	if _, err := ix.Neighbors(-1); err == nil {
		t.Error("Expected error for negative index")
	}
	if _, err := ix.Neighbors(3); err == nil {
		t.Error("Expected error for out-of-range index")
	}
}
