package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"decaylab/internal/errors"
)

// Config represents the complete study configuration
type Config struct {
	Study     StudyConfig
	Generator GeneratorConfig
	Neighbors NeighborConfig
	Output    OutputConfig
	Database  DatabaseConfig
}

// StudyConfig holds the outer-loop settings
type StudyConfig struct {
	// Iterations is the number of independent stochastic repetitions.
	Iterations int
	// BaseSeed seeds iteration i with BaseSeed + i.
	BaseSeed int64
}

// GeneratorConfig holds the generative truth and dataset sizes
type GeneratorConfig struct {
	SignalCount     int
	BackgroundCount int
	// TrueB is the generative angular coefficient.
	TrueB float64
	// TrueTau is the generative signal lifetime.
	TrueTau float64
	// SignalMean and SignalSigma describe the Gaussian signal mass peak.
	SignalMean  float64
	SignalSigma float64
	// MassMin and MassMax bound the discriminating-variable window.
	MassMin float64
	MassMax float64
	// BackgroundSlope is the linear background slope over the window.
	BackgroundSlope float64
	// TMax truncates the decay-time window.
	TMax float64
	// Parallel enables the worker-pool generation mode.
	Parallel bool
	Workers  int
}

// NeighborConfig holds the neighbor-index settings
type NeighborConfig struct {
	// Mode is one of "fixed", "radius", "adaptive".
	Mode string
	K    int
	// Radius applies in radius mode, in normalized phase-space units.
	Radius float64
	// MinK and MaxK bound the density-adaptive k.
	MinK int
	MaxK int
}

// OutputConfig holds file-system output settings
type OutputConfig struct {
	// Dir is the root output directory; each run writes into a
	// uuid-named subdirectory.
	Dir string
	// TableFile is the persisted iteration-result table name.
	TableFile string
}

// DatabaseConfig holds the optional Postgres ledger settings
type DatabaseConfig struct {
	// URL enables the Postgres result ledger when non-empty.
	URL string
}

// Load reads configuration from environment variables and validates it.
// A .env file in the working directory is honored when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Study: StudyConfig{
			Iterations: getEnvIntOrDefault("STUDY_ITERATIONS", 100),
			BaseSeed:   int64(getEnvIntOrDefault("STUDY_BASE_SEED", 1)),
		},
		Generator: GeneratorConfig{
			SignalCount:     getEnvIntOrDefault("GEN_SIGNAL_COUNT", 10000),
			BackgroundCount: getEnvIntOrDefault("GEN_BACKGROUND_COUNT", 10000),
			TrueB:           getEnvFloatOrDefault("GEN_TRUE_B", 2.0),
			TrueTau:         getEnvFloatOrDefault("GEN_TRUE_TAU", 1.0),
			SignalMean:      getEnvFloatOrDefault("GEN_SIGNAL_MEAN", 1.0),
			SignalSigma:     getEnvFloatOrDefault("GEN_SIGNAL_SIGMA", 0.075),
			MassMin:         getEnvFloatOrDefault("GEN_MASS_MIN", 0.6),
			MassMax:         getEnvFloatOrDefault("GEN_MASS_MAX", 1.4),
			BackgroundSlope: getEnvFloatOrDefault("GEN_BACKGROUND_SLOPE", 0.3),
			TMax:            getEnvFloatOrDefault("GEN_T_MAX", 5.0),
			Parallel:        getEnvBoolOrDefault("GEN_PARALLEL", false),
			Workers:         getEnvIntOrDefault("GEN_WORKERS", 4),
		},
		Neighbors: NeighborConfig{
			Mode:   getEnvOrDefault("NEIGHBOR_MODE", "fixed"),
			K:      getEnvIntOrDefault("NEIGHBOR_K", 100),
			Radius: getEnvFloatOrDefault("NEIGHBOR_RADIUS", 0.1),
			MinK:   getEnvIntOrDefault("NEIGHBOR_MIN_K", 25),
			MaxK:   getEnvIntOrDefault("NEIGHBOR_MAX_K", 400),
		},
		Output: OutputConfig{
			Dir:       getEnvOrDefault("OUTPUT_DIR", "output"),
			TableFile: getEnvOrDefault("OUTPUT_TABLE_FILE", "results.tsv"),
		},
		Database: DatabaseConfig{
			URL: getEnvOrDefault("DATABASE_URL", ""),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Study.Iterations < 1 {
		return errors.ConfigInvalid("STUDY_ITERATIONS must be >= 1")
	}
	if cfg.Generator.SignalCount < 0 || cfg.Generator.BackgroundCount < 0 {
		return errors.ConfigInvalid("GEN_SIGNAL_COUNT and GEN_BACKGROUND_COUNT must be >= 0")
	}
	if cfg.Generator.SignalCount+cfg.Generator.BackgroundCount == 0 {
		return errors.ConfigInvalid("at least one of GEN_SIGNAL_COUNT, GEN_BACKGROUND_COUNT must be > 0")
	}
	if cfg.Generator.MassMin >= cfg.Generator.MassMax {
		return errors.ConfigInvalid("GEN_MASS_MIN must be < GEN_MASS_MAX")
	}
	if cfg.Generator.SignalSigma <= 0 {
		return errors.ConfigInvalid("GEN_SIGNAL_SIGMA must be > 0")
	}
	if cfg.Generator.TMax <= 0 {
		return errors.ConfigInvalid("GEN_T_MAX must be > 0")
	}
	if cfg.Generator.Workers < 1 {
		return errors.ConfigInvalid("GEN_WORKERS must be >= 1")
	}
	switch cfg.Neighbors.Mode {
	case "fixed", "radius", "adaptive":
	default:
		return errors.ConfigInvalid("NEIGHBOR_MODE must be one of fixed, radius, adaptive")
	}
	if cfg.Neighbors.K < 2 {
		return errors.ConfigInvalid("NEIGHBOR_K must be >= 2")
	}
	if cfg.Neighbors.Radius <= 0 {
		return errors.ConfigInvalid("NEIGHBOR_RADIUS must be > 0")
	}
	if cfg.Neighbors.MinK < 2 || cfg.Neighbors.MaxK < cfg.Neighbors.MinK {
		return errors.ConfigInvalid("NEIGHBOR_MIN_K/NEIGHBOR_MAX_K must satisfy 2 <= min <= max")
	}
	return nil
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvIntOrDefault(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloatOrDefault(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBoolOrDefault(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
