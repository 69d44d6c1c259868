package config

import (
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load with defaults failed: %v", err)
	}

	if cfg.Study.Iterations != 100 {
		t.Errorf("Expected 100 iterations, got %d", cfg.Study.Iterations)
	}
	if cfg.Generator.TrueB != 2.0 {
		t.Errorf("Expected true B 2.0, got %g", cfg.Generator.TrueB)
	}
	if cfg.Generator.TrueTau != 1.0 {
		t.Errorf("Expected true Tau 1.0, got %g", cfg.Generator.TrueTau)
	}
	if cfg.Generator.MassMin >= cfg.Generator.MassMax {
		t.Error("Default mass window is inverted")
	}
	if cfg.Neighbors.Mode != "fixed" {
		t.Errorf("Expected fixed neighbor mode, got %q", cfg.Neighbors.Mode)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("STUDY_ITERATIONS", "7")
	t.Setenv("NEIGHBOR_MODE", "adaptive")
	t.Setenv("GEN_SIGNAL_COUNT", "123")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Study.Iterations != 7 {
		t.Errorf("Expected 7 iterations, got %d", cfg.Study.Iterations)
	}
	if cfg.Neighbors.Mode != "adaptive" {
		t.Errorf("Expected adaptive mode, got %q", cfg.Neighbors.Mode)
	}
	if cfg.Generator.SignalCount != 123 {
		t.Errorf("Expected 123 signal events, got %d", cfg.Generator.SignalCount)
	}
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"zero iterations", "STUDY_ITERATIONS", "0"},
		{"inverted mass window", "GEN_MASS_MIN", "2.0"},
		{"non-positive sigma", "GEN_SIGNAL_SIGMA", "0"},
		{"non-positive t max", "GEN_T_MAX", "-1"},
		{"unknown neighbor mode", "NEIGHBOR_MODE", "voronoi"},
		{"tiny k", "NEIGHBOR_K", "1"},
		{"non-positive radius", "NEIGHBOR_RADIUS", "0"},
		{"zero workers", "GEN_WORKERS", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("Expected validation error for %s=%s", tt.key, tt.value)
			}
		})
	}
}

func TestLoad_AdaptiveBounds(t *testing.T) {
	t.Setenv("NEIGHBOR_MIN_K", "50")
	t.Setenv("NEIGHBOR_MAX_K", "10")
	if _, err := Load(); err == nil {
		t.Error("Expected validation error for min > max adaptive bounds")
	}
}
