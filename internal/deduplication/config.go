package deduplication

import (
	"fmt"
	"os"
	"strconv"
)

// DefaultThreshold is the minimum cosine similarity treated as a duplicate
const DefaultThreshold = 0.90

// Config holds configuration for duplicate detection
type Config struct {
	// Threshold is the minimum cosine similarity (inclusive) for a stored
	// ticket to count as a duplicate of the query.
	// Default: 0.90
	Threshold float64 `yaml:"threshold"`

	// ReembedNeighbor re-embeds the nearest stored text before computing the
	// similarity instead of reusing the vector held by the index.
	// Default: true
	ReembedNeighbor bool `yaml:"reembed_neighbor"`
}

// DefaultConfig returns the default deduplication configuration
func DefaultConfig() Config {
	return Config{
		Threshold:       DefaultThreshold,
		ReembedNeighbor: true,
	}
}

// Validate checks if the configuration has valid values
func (c Config) Validate() error {
	if c.Threshold < -1.0 || c.Threshold > 1.0 {
		return fmt.Errorf("threshold must be between -1.0 and 1.0 (got %.2f)", c.Threshold)
	}
	return nil
}

// String returns a human-readable representation of the config
func (c Config) String() string {
	return fmt.Sprintf("Config{Threshold: %.2f, ReembedNeighbor: %t}", c.Threshold, c.ReembedNeighbor)
}

// ConfigFromEnv creates a Config from environment variables, falling back to base
//
// Environment variables:
//   - TRIAGE_DEDUP_THRESHOLD: Minimum cosine similarity to mark as duplicate (default: 0.90)
//   - TRIAGE_DEDUP_REEMBED_NEIGHBOR: Re-embed the nearest stored text (default: true)
//
// Returns an error if any environment variable has an invalid value.
func ConfigFromEnv(base Config) (Config, error) {
	cfg := base
	if err := cfg.ApplyEnv(); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration from environment: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from the environment without validating
func (c *Config) ApplyEnv() error {
	if err := parseEnvFloat("TRIAGE_DEDUP_THRESHOLD", &c.Threshold); err != nil {
		return err
	}
	return parseEnvBool("TRIAGE_DEDUP_REEMBED_NEIGHBOR", &c.ReembedNeighbor)
}

// parseEnvFloat parses a float64 from an environment variable
func parseEnvFloat(key string, dest *float64) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}

// parseEnvBool parses a bool from an environment variable
func parseEnvBool(key string, dest *bool) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}
