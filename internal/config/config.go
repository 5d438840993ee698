// Package config loads triage settings from an optional YAML file with
// environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/steveyegge/triage/internal/ai"
	"github.com/steveyegge/triage/internal/deduplication"
	"github.com/steveyegge/triage/internal/embedding"
	"github.com/steveyegge/triage/internal/storage/textfile"
	"github.com/steveyegge/triage/internal/types"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file read when no path is given
const DefaultPath = "triage.yaml"

// Embedding providers selectable in configuration
const (
	EmbeddingOpenAI = "openai"
	EmbeddingOllama = "ollama"
)

// DefaultServerAddr is the listen address of the web form
const DefaultServerAddr = ":8080"

// Config is the full triage configuration
type Config struct {
	// DataDir holds one text file per department
	// Default: data
	DataDir string `yaml:"data_dir"`

	// Departments is the routing table. Labels must match what the
	// classifier answers.
	// Default: soporte tecnico, recursos humanos, operaciones
	Departments []types.Department `yaml:"departments"`

	Classifier ClassifierConfig     `yaml:"classifier"`
	Embedding  EmbeddingConfig      `yaml:"embedding"`
	Dedup      deduplication.Config `yaml:"dedup"`
	Server     ServerConfig         `yaml:"server"`
}

// ClassifierConfig selects the LLM used for routing
type ClassifierConfig struct {
	// Provider is "anthropic" or "openai"
	// Default: anthropic
	Provider string `yaml:"provider"`

	// Model overrides the provider default
	Model string `yaml:"model,omitempty"`

	// BaseURL overrides the provider endpoint
	BaseURL string `yaml:"base_url,omitempty"`

	// Timeout bounds a single classification call
	// Default: 60s
	Timeout time.Duration `yaml:"timeout"`

	// MaxConcurrentCalls limits in-flight classification calls (0 = unlimited)
	// Default: 3
	MaxConcurrentCalls int `yaml:"max_concurrent_calls"`

	// APIKey is only read from the environment
	APIKey string `yaml:"-"`
}

// EmbeddingConfig selects the embedding provider
type EmbeddingConfig struct {
	// Provider is "openai" or "ollama"
	// Default: openai
	Provider string `yaml:"provider"`

	// Model overrides the provider default
	Model string `yaml:"model,omitempty"`

	// BaseURL overrides the provider endpoint
	BaseURL string `yaml:"base_url,omitempty"`

	// Timeout bounds a single embedding call
	// Default: 30s
	Timeout time.Duration `yaml:"timeout"`

	// RatePerSecond caps embedding calls (0 = unlimited)
	// Default: 0
	RatePerSecond float64 `yaml:"rate_per_second"`

	// Burst is the number of calls allowed above the rate
	// Default: 1
	Burst int `yaml:"burst"`

	// APIKey is only read from the environment
	APIKey string `yaml:"-"`
}

// ServerConfig configures the HTTP front end
type ServerConfig struct {
	// Addr is the listen address
	// Default: :8080
	Addr string `yaml:"addr"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		DataDir:     textfile.DefaultDataDir,
		Departments: types.DefaultDepartments(),
		Classifier: ClassifierConfig{
			Provider:           ai.ProviderAnthropic,
			Timeout:            ai.DefaultCallConfig().Timeout,
			MaxConcurrentCalls: ai.DefaultCallConfig().MaxConcurrentCalls,
		},
		Embedding: EmbeddingConfig{
			Provider: EmbeddingOpenAI,
			Timeout:  30 * time.Second,
			Burst:    1,
		},
		Dedup: deduplication.DefaultConfig(),
		Server: ServerConfig{
			Addr: DefaultServerAddr,
		},
	}
}

// Load reads the YAML file at path over the defaults, then applies
// environment overrides and validates the result. An empty path reads
// DefaultPath if it exists and falls back to defaults otherwise.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing YAML %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		// No config file; defaults and environment only
	default:
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// ApplyEnv overrides fields from environment variables
//
// Environment variables:
//   - TRIAGE_DATA_DIR: Department file directory
//   - TRIAGE_CLASSIFIER_PROVIDER: anthropic or openai
//   - TRIAGE_CLASSIFIER_MODEL: Classifier model
//   - TRIAGE_CLASSIFIER_TIMEOUT: Classifier call timeout (e.g. 30s)
//   - TRIAGE_EMBEDDING_PROVIDER: openai or ollama
//   - TRIAGE_EMBEDDING_MODEL: Embedding model
//   - TRIAGE_EMBEDDING_BASE_URL: Embedding endpoint
//   - TRIAGE_EMBEDDING_RATE: Embedding calls per second
//   - TRIAGE_SERVER_ADDR: HTTP listen address
//   - TRIAGE_DEDUP_THRESHOLD, TRIAGE_DEDUP_REEMBED_NEIGHBOR: see deduplication.Config.ApplyEnv
//   - ANTHROPIC_API_KEY / OPENAI_API_KEY: Provider credentials
func (c *Config) ApplyEnv() error {
	parsers := []func() error{
		func() error { return parseEnvString("TRIAGE_DATA_DIR", &c.DataDir) },
		func() error { return parseEnvString("TRIAGE_CLASSIFIER_PROVIDER", &c.Classifier.Provider) },
		func() error { return parseEnvString("TRIAGE_CLASSIFIER_MODEL", &c.Classifier.Model) },
		func() error { return parseEnvDuration("TRIAGE_CLASSIFIER_TIMEOUT", &c.Classifier.Timeout) },
		func() error { return parseEnvString("TRIAGE_EMBEDDING_PROVIDER", &c.Embedding.Provider) },
		func() error { return parseEnvString("TRIAGE_EMBEDDING_MODEL", &c.Embedding.Model) },
		func() error { return parseEnvString("TRIAGE_EMBEDDING_BASE_URL", &c.Embedding.BaseURL) },
		func() error { return parseEnvFloat("TRIAGE_EMBEDDING_RATE", &c.Embedding.RatePerSecond) },
		func() error { return parseEnvString("TRIAGE_SERVER_ADDR", &c.Server.Addr) },
	}
	for _, parse := range parsers {
		if err := parse(); err != nil {
			return err
		}
	}

	if err := c.Dedup.ApplyEnv(); err != nil {
		return err
	}

	switch normalizeProvider(c.Classifier.Provider) {
	case ai.ProviderOpenAI:
		_ = parseEnvString("OPENAI_API_KEY", &c.Classifier.APIKey)
	default:
		_ = parseEnvString("ANTHROPIC_API_KEY", &c.Classifier.APIKey)
	}
	if normalizeProvider(c.Embedding.Provider) == EmbeddingOpenAI {
		_ = parseEnvString("OPENAI_API_KEY", &c.Embedding.APIKey)
	}
	return nil
}

// Validate checks if the configuration has valid values
func (c Config) Validate() error {
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("data_dir cannot be empty")
	}
	table, err := types.NewDepartmentTable(c.Departments)
	if err != nil {
		return fmt.Errorf("departments: %w", err)
	}
	if err := checkRubricLabels(table); err != nil {
		return fmt.Errorf("departments: %w", err)
	}

	switch normalizeProvider(c.Classifier.Provider) {
	case ai.ProviderAnthropic, ai.ProviderOpenAI:
	default:
		return fmt.Errorf("classifier.provider must be %q or %q (got %q)",
			ai.ProviderAnthropic, ai.ProviderOpenAI, c.Classifier.Provider)
	}
	if c.Classifier.Timeout < 0 {
		return fmt.Errorf("classifier.timeout cannot be negative (got %v)", c.Classifier.Timeout)
	}
	if c.Classifier.MaxConcurrentCalls < 0 {
		return fmt.Errorf("classifier.max_concurrent_calls cannot be negative (got %d)", c.Classifier.MaxConcurrentCalls)
	}

	switch normalizeProvider(c.Embedding.Provider) {
	case EmbeddingOpenAI, EmbeddingOllama:
	default:
		return fmt.Errorf("embedding.provider must be %q or %q (got %q)",
			EmbeddingOpenAI, EmbeddingOllama, c.Embedding.Provider)
	}
	if c.Embedding.Timeout < 0 {
		return fmt.Errorf("embedding.timeout cannot be negative (got %v)", c.Embedding.Timeout)
	}
	if c.Embedding.RatePerSecond < 0 {
		return fmt.Errorf("embedding.rate_per_second cannot be negative (got %.2f)", c.Embedding.RatePerSecond)
	}
	if c.Embedding.RatePerSecond > 0 && c.Embedding.Burst < 1 {
		return fmt.Errorf("embedding.burst must be at least 1 when rate limiting (got %d)", c.Embedding.Burst)
	}

	if err := c.Dedup.Validate(); err != nil {
		return fmt.Errorf("dedup: %w", err)
	}
	if strings.TrimSpace(c.Server.Addr) == "" {
		return fmt.Errorf("server.addr cannot be empty")
	}
	return nil
}

// DepartmentTable builds the routing table
func (c Config) DepartmentTable() (*types.DepartmentTable, error) {
	return types.NewDepartmentTable(c.Departments)
}

// ClassifierSettings converts the classifier section into ai.Config
func (c Config) ClassifierSettings() ai.Config {
	call := ai.DefaultCallConfig()
	if c.Classifier.Timeout > 0 {
		call.Timeout = c.Classifier.Timeout
	}
	call.MaxConcurrentCalls = c.Classifier.MaxConcurrentCalls

	return ai.Config{
		Provider: normalizeProvider(c.Classifier.Provider),
		APIKey:   c.Classifier.APIKey,
		BaseURL:  c.Classifier.BaseURL,
		Model:    c.Classifier.Model,
		Call:     call,
	}
}

// NewEmbedder builds the configured embedding provider, rate limited when
// RatePerSecond is set
func (c Config) NewEmbedder() (embedding.Embedder, error) {
	var embedder embedding.Embedder
	switch normalizeProvider(c.Embedding.Provider) {
	case EmbeddingOpenAI:
		openaiEmbedder, err := embedding.NewOpenAIEmbedder(embedding.OpenAIConfig{
			APIKey:  c.Embedding.APIKey,
			BaseURL: c.Embedding.BaseURL,
			Model:   c.Embedding.Model,
			Timeout: c.Embedding.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("creating OpenAI embedder: %w", err)
		}
		embedder = openaiEmbedder
	case EmbeddingOllama:
		embedder = embedding.NewOllamaEmbedder(embedding.OllamaConfig{
			BaseURL: c.Embedding.BaseURL,
			Model:   c.Embedding.Model,
			Timeout: c.Embedding.Timeout,
		})
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", c.Embedding.Provider)
	}

	return embedding.NewRateLimited(embedder, c.Embedding.RatePerSecond, c.Embedding.Burst), nil
}

// YAML renders the configuration; credentials are never included
func (c Config) YAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	return data, nil
}

// SaveDefaultConfig writes the default configuration to a file
func SaveDefaultConfig(path string) error {
	data, err := DefaultConfig().YAML()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// checkRubricLabels requires the table to hold exactly the labels the
// classifier can answer. Only file names are configurable.
func checkRubricLabels(table *types.DepartmentTable) error {
	want := ai.RubricLabels()
	if table.Len() != len(want) {
		return fmt.Errorf("need exactly %d departments %s (got %d)",
			len(want), strings.Join(want, ", "), table.Len())
	}
	for _, label := range want {
		if _, err := table.Lookup(label); err != nil {
			return fmt.Errorf("department %q is missing; labels must match the classifier (%s)",
				label, strings.Join(want, ", "))
		}
	}
	return nil
}

func normalizeProvider(p string) string {
	return strings.ToLower(strings.TrimSpace(p))
}
