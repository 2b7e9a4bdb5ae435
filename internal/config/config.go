// Package config loads and validates application configuration from environment variables.
package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultThresholds is the column set every matrix shows before any tier
// exists, in kilograms.
var DefaultThresholds = []float64{300, 500, 1000, 3000, 5000, 10000, 15000, 20000, 25000, 30000}

// SeedThresholds are the tiers created at zero cost for every seeded
// operation.
var SeedThresholds = []float64{300, 500, 1000, 3000, 5000, 10000, 20000, 30000}

// Config holds all configuration values for the API server and costctl.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// DatabaseURL is the Postgres connection string. Required.
	DatabaseURL string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Defaults to ["http://localhost:5173"] (Vite dev server).
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string

	// MaxBodyBytes caps request bodies. Defaults to 1 MiB.
	MaxBodyBytes int64

	// DefaultThresholds seeds the matrix column axis.
	DefaultThresholds []float64

	// SeedThresholds are the zero-cost tiers `costctl seed` creates.
	SeedThresholds []float64
}

// thresholdsFile is the shape of the optional THRESHOLDS_FILE overlay.
type thresholdsFile struct {
	DefaultThresholds []float64 `yaml:"default_thresholds"`
	SeedThresholds    []float64 `yaml:"seed_thresholds"`
}

// Load reads configuration from environment variables and returns a Config.
// Threshold lists resolve in order: built-in defaults, then THRESHOLDS_FILE,
// then DEFAULT_THRESHOLDS / SEED_THRESHOLDS.
// Returns an error listing any required variables that are not set.
func Load() (Config, error) {
	cfg := Config{
		Port:              getEnv("PORT", "8080"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		CORSOrigins:       splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		MaxBodyBytes:      1 << 20,
		DefaultThresholds: append([]float64(nil), DefaultThresholds...),
		SeedThresholds:    append([]float64(nil), SeedThresholds...),
	}

	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}

	if v := os.Getenv("MAX_BODY_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("MAX_BODY_BYTES: must be a positive integer, got %q", v)
		}
		cfg.MaxBodyBytes = n
	}

	if path := os.Getenv("THRESHOLDS_FILE"); path != "" {
		if err := cfg.overlayFile(path); err != nil {
			return Config{}, err
		}
	}

	for _, env := range []struct {
		key  string
		dest *[]float64
	}{
		{"DEFAULT_THRESHOLDS", &cfg.DefaultThresholds},
		{"SEED_THRESHOLDS", &cfg.SeedThresholds},
	} {
		v := os.Getenv(env.key)
		if v == "" {
			continue
		}
		list, err := parseThresholds(splitCSV(v))
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", env.key, err)
		}
		*env.dest = list
	}

	return cfg, nil
}

// overlayFile replaces the threshold lists present in the YAML file at path.
func (c *Config) overlayFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("THRESHOLDS_FILE: %w", err)
	}
	var f thresholdsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("THRESHOLDS_FILE: %w", err)
	}
	if len(f.DefaultThresholds) > 0 {
		if err := checkThresholds(f.DefaultThresholds); err != nil {
			return fmt.Errorf("THRESHOLDS_FILE default_thresholds: %w", err)
		}
		c.DefaultThresholds = f.DefaultThresholds
	}
	if len(f.SeedThresholds) > 0 {
		if err := checkThresholds(f.SeedThresholds); err != nil {
			return fmt.Errorf("THRESHOLDS_FILE seed_thresholds: %w", err)
		}
		c.SeedThresholds = f.SeedThresholds
	}
	return nil
}

// parseThresholds parses each entry as a kilogram threshold.
func parseThresholds(parts []string) ([]float64, error) {
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid threshold %q", p)
		}
		out = append(out, v)
	}
	if err := checkThresholds(out); err != nil {
		return nil, err
	}
	return out, nil
}

func checkThresholds(list []float64) error {
	for _, v := range list {
		if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			return fmt.Errorf("threshold must be a positive number, got %v", v)
		}
	}
	return nil
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
