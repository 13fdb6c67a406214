package config

import (
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"statsmed/internal/errors"
)

// Config represents the complete engine configuration
type Config struct {
	Analysis AnalysisConfig `validate:"required"`
	Batch    BatchConfig    `validate:"required"`
	Cache    CacheConfig
	Log      LogConfig
	Metrics  MetricsConfig
}

// AnalysisConfig holds the statistical defaults applied when a request
// leaves a parameter unset.
type AnalysisConfig struct {
	Alpha          float64 `validate:"gt=0,lt=1"`
	NormalityAlpha float64 `validate:"gt=0,lt=1"`
	Precision      int     `validate:"min=1,max=15"`
	DefaultMode    string  `validate:"oneof=auto all parametric nonparametric"`
}

// CacheConfig bounds the rank distribution table cache. Capacity 0 keeps
// every table for the process lifetime; MaxCells 0 disables the per-table
// cell budget.
type CacheConfig struct {
	Capacity int `validate:"min=0"`
	MaxCells int `validate:"min=0"`
}

// BatchConfig holds concurrent batch settings
type BatchConfig struct {
	Workers int `validate:"min=1,max=1024"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string `validate:"omitempty,oneof=ERROR WARN INFO DEBUG TRACE"`
}

// MetricsConfig toggles prometheus collectors
type MetricsConfig struct {
	Enabled bool
}

// Default returns the configuration used when no environment is present.
func Default() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			Alpha:          0.05,
			NormalityAlpha: 0.05,
			Precision:      3,
			DefaultMode:    "auto",
		},
		Cache: CacheConfig{
			Capacity: 256,
			MaxCells: 250_000_000,
		},
		Batch: BatchConfig{Workers: 4},
		Log:   LogConfig{Level: "INFO"},
	}
}

// Load reads configuration from environment variables (and a .env file when
// present) and validates it
func Load() (*Config, error) {
	// A missing .env file is normal outside development.
	_ = godotenv.Load()

	def := Default()
	config := &Config{
		Analysis: AnalysisConfig{
			Alpha:          getEnvFloatOrDefault("STATSMED_ALPHA", def.Analysis.Alpha),
			NormalityAlpha: getEnvFloatOrDefault("STATSMED_NORMALITY_ALPHA", def.Analysis.NormalityAlpha),
			Precision:      getEnvIntOrDefault("STATSMED_PRECISION", def.Analysis.Precision),
			DefaultMode:    getEnvOrDefault("STATSMED_DEFAULT_MODE", def.Analysis.DefaultMode),
		},
		Cache: CacheConfig{
			Capacity: getEnvIntOrDefault("STATSMED_CACHE_CAPACITY", def.Cache.Capacity),
			MaxCells: getEnvIntOrDefault("STATSMED_CACHE_MAX_CELLS", def.Cache.MaxCells),
		},
		Batch: BatchConfig{
			Workers: getEnvIntOrDefault("STATSMED_BATCH_WORKERS", def.Batch.Workers),
		},
		Log: LogConfig{
			Level: getEnvOrDefault("LOG_LEVEL", def.Log.Level),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvBoolOrDefault("STATSMED_METRICS_ENABLED", false),
		},
	}

	if err := Validate(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks struct tag constraints on a configuration.
func Validate(config *Config) error {
	if config == nil {
		return errors.ConfigInvalid("configuration is nil")
	}
	if err := validate.Struct(config); err != nil {
		appErr := errors.ConfigInvalid("invalid configuration")
		appErr.Cause = err
		return appErr
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
