package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Config holds all configuration for promptforge
type Config struct {
	Database  DatabaseConfig  `json:"database"`
	Retrieval RetrievalConfig `json:"retrieval"`
	Embedding EmbeddingConfig `json:"embedding"`
	Optimizer OptimizerConfig `json:"optimizer"`
	Harness   HarnessConfig   `json:"harness"`
	Server    ServerConfig    `json:"server"`
}

// DatabaseConfig holds the postgres connection
type DatabaseConfig struct {
	PostgresURL string `json:"postgres_url"`
}

// RetrievalConfig points at the external search API the harness evaluates.
// Backend selects between the HTTP client ("http") and the pgvector-backed
// retriever ("pgvector").
type RetrievalConfig struct {
	Backend        string `json:"backend"`
	URL            string `json:"url"`
	APIKey         string `json:"api_key"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// EmbeddingConfig holds embedding API configuration
type EmbeddingConfig struct {
	URL        string `json:"url"`
	APIKey     string `json:"api_key"`
	Model      string `json:"model"`
	Dimensions int    `json:"dimensions"`
}

// OptimizerConfig holds the reflection LLM and optimizer budget
type OptimizerConfig struct {
	LLMURL         string  `json:"llm_url"`
	APIKey         string  `json:"api_key"`
	Model          string  `json:"model"`
	MaxTokens      int     `json:"max_tokens"`
	Temperature    float64 `json:"temperature"`
	MaxIterations  int     `json:"max_iterations"`
	MinibatchSize  int     `json:"minibatch_size"`
	TimeoutMinutes int     `json:"timeout_minutes"`
}

// HarnessConfig holds evaluation defaults
type HarnessConfig struct {
	Cutoffs             []int   `json:"cutoffs"`
	Concurrency         int     `json:"concurrency"`
	QueryTimeoutSeconds int     `json:"query_timeout_seconds"`
	MaxFailureFraction  float64 `json:"max_failure_fraction"`
}

// ServerConfig holds API server configuration
type ServerConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			PostgresURL: "",
		},
		Retrieval: RetrievalConfig{
			Backend:        "pgvector",
			URL:            "",
			APIKey:         "",
			TimeoutSeconds: 30,
		},
		Embedding: EmbeddingConfig{
			URL:        "http://localhost:11434/v1",
			APIKey:     "",
			Model:      "text-embedding-3-small",
			Dimensions: 1024,
		},
		Optimizer: OptimizerConfig{
			LLMURL:         "http://localhost:8000/v1",
			APIKey:         "",
			Model:          "Qwen/Qwen3-8B-AWQ",
			MaxTokens:      4096,
			Temperature:    0.7,
			MaxIterations:  100,
			MinibatchSize:  8,
			TimeoutMinutes: 30,
		},
		Harness: HarnessConfig{
			Cutoffs:             []int{1, 5, 10},
			Concurrency:         4,
			QueryTimeoutSeconds: 30,
			MaxFailureFraction:  0.5,
		},
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
	}
}

// envString loads a string environment variable into the target pointer if set
func envString(key string, target *string) {
	if v := os.Getenv(key); v != "" {
		*target = v
	}
}

// envInt loads an integer environment variable into the target pointer if set and valid
func envInt(key string, target *int) {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			*target = i
		}
	}
}

// envFloat loads a float64 environment variable into the target pointer if set and valid
func envFloat(key string, target *float64) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*target = f
		}
	}
}

// envIntSlice loads a comma-separated environment variable into an int slice
func envIntSlice(key string, target *[]int) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]int, 0, len(parts))
		for _, part := range parts {
			if i, err := strconv.Atoi(strings.TrimSpace(part)); err == nil {
				result = append(result, i)
			}
		}
		if len(result) > 0 {
			*target = result
		}
	}
}

func getConfigPath() string {
	if p := os.Getenv("PROMPTFORGE_CONFIG"); p != "" {
		return p
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "promptforge.json"
	}
	return filepath.Join(homeDir, ".promptforge", "config.json")
}

// Load loads configuration from the config file and environment variables
func Load() (*Config, error) {
	cfg := DefaultConfig()

	configPath := getConfigPath()
	if data, err := os.ReadFile(configPath); err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to parse config file %s: %v\n", configPath, err)
		}
	}

	envString("PROMPTFORGE_POSTGRES_URL", &cfg.Database.PostgresURL)

	envString("PROMPTFORGE_RETRIEVAL_BACKEND", &cfg.Retrieval.Backend)
	envString("PROMPTFORGE_RETRIEVAL_URL", &cfg.Retrieval.URL)
	envString("PROMPTFORGE_RETRIEVAL_API_KEY", &cfg.Retrieval.APIKey)
	envInt("PROMPTFORGE_RETRIEVAL_TIMEOUT_SECONDS", &cfg.Retrieval.TimeoutSeconds)

	envString("PROMPTFORGE_EMBEDDING_URL", &cfg.Embedding.URL)
	envString("PROMPTFORGE_EMBEDDING_API_KEY", &cfg.Embedding.APIKey)
	envString("PROMPTFORGE_EMBEDDING_MODEL", &cfg.Embedding.Model)
	envInt("PROMPTFORGE_EMBEDDING_DIMENSIONS", &cfg.Embedding.Dimensions)

	envString("PROMPTFORGE_LLM_URL", &cfg.Optimizer.LLMURL)
	envString("PROMPTFORGE_LLM_API_KEY", &cfg.Optimizer.APIKey)
	envString("PROMPTFORGE_LLM_MODEL", &cfg.Optimizer.Model)
	envInt("PROMPTFORGE_LLM_MAX_TOKENS", &cfg.Optimizer.MaxTokens)
	envFloat("PROMPTFORGE_LLM_TEMPERATURE", &cfg.Optimizer.Temperature)
	envInt("PROMPTFORGE_OPTIMIZER_MAX_ITERATIONS", &cfg.Optimizer.MaxIterations)
	envInt("PROMPTFORGE_OPTIMIZER_MINIBATCH_SIZE", &cfg.Optimizer.MinibatchSize)
	envInt("PROMPTFORGE_OPTIMIZER_TIMEOUT_MINUTES", &cfg.Optimizer.TimeoutMinutes)

	envIntSlice("PROMPTFORGE_HARNESS_CUTOFFS", &cfg.Harness.Cutoffs)
	envInt("PROMPTFORGE_HARNESS_CONCURRENCY", &cfg.Harness.Concurrency)
	envInt("PROMPTFORGE_HARNESS_QUERY_TIMEOUT_SECONDS", &cfg.Harness.QueryTimeoutSeconds)
	envFloat("PROMPTFORGE_HARNESS_MAX_FAILURE_FRACTION", &cfg.Harness.MaxFailureFraction)

	envString("PROMPTFORGE_SERVER_HOST", &cfg.Server.Host)
	envInt("PROMPTFORGE_SERVER_PORT", &cfg.Server.Port)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// isValidURL validates that a URL has proper format
func isValidURL(urlStr string) bool {
	u, err := url.Parse(urlStr)
	return err == nil && u.Scheme != "" && u.Host != ""
}

// Validate checks that the configuration has valid values
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, "server port must be between 1 and 65535")
	}

	if c.Database.PostgresURL != "" && !isValidURL(c.Database.PostgresURL) {
		errs = append(errs, "postgres URL must be a valid URL")
	}

	switch c.Retrieval.Backend {
	case "pgvector", "http":
	default:
		errs = append(errs, fmt.Sprintf("unknown retrieval backend %q (want pgvector or http)", c.Retrieval.Backend))
	}
	if c.Retrieval.Backend == "http" {
		if c.Retrieval.URL == "" {
			errs = append(errs, "retrieval URL is required for the http backend")
		} else if !isValidURL(c.Retrieval.URL) {
			errs = append(errs, "retrieval URL must be a valid URL")
		}
	}

	if c.Embedding.URL != "" && !isValidURL(c.Embedding.URL) {
		errs = append(errs, "embedding URL must be a valid URL")
	}
	if c.Embedding.Dimensions < 1 {
		errs = append(errs, "embedding dimensions must be positive")
	}

	if c.Optimizer.Temperature < 0 || c.Optimizer.Temperature > 2 {
		errs = append(errs, "optimizer temperature must be between 0 and 2")
	}
	if c.Optimizer.MaxTokens < 1 {
		errs = append(errs, "optimizer max_tokens must be positive")
	}
	if c.Optimizer.MaxIterations < 1 {
		errs = append(errs, "optimizer max_iterations must be positive")
	}
	if c.Optimizer.LLMURL != "" && !isValidURL(c.Optimizer.LLMURL) {
		errs = append(errs, "optimizer LLM URL must be a valid URL")
	}

	for _, k := range c.Harness.Cutoffs {
		if k < 1 {
			errs = append(errs, "harness cutoffs must be positive")
			break
		}
	}
	if c.Harness.Concurrency < 1 {
		errs = append(errs, "harness concurrency must be positive")
	}
	if c.Harness.MaxFailureFraction <= 0 || c.Harness.MaxFailureFraction > 1 {
		errs = append(errs, "harness max_failure_fraction must be in (0, 1]")
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}

	return nil
}
