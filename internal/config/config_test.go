package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, []int{1, 5, 10}, cfg.Harness.Cutoffs)
	assert.Equal(t, "pgvector", cfg.Retrieval.Backend)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PROMPTFORGE_SERVER_PORT", "9090")
	t.Setenv("PROMPTFORGE_HARNESS_CUTOFFS", "1, 3, 20")
	t.Setenv("PROMPTFORGE_HARNESS_MAX_FAILURE_FRACTION", "0.25")
	t.Setenv("PROMPTFORGE_RETRIEVAL_BACKEND", "http")
	t.Setenv("PROMPTFORGE_RETRIEVAL_URL", "https://search.example.com")
	t.Setenv("PROMPTFORGE_CONFIG", "/nonexistent/config.json")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []int{1, 3, 20}, cfg.Harness.Cutoffs)
	assert.Equal(t, 0.25, cfg.Harness.MaxFailureFraction)
	assert.Equal(t, "http", cfg.Retrieval.Backend)
}

func TestEnvInvalidValuesAreIgnored(t *testing.T) {
	t.Setenv("PROMPTFORGE_SERVER_PORT", "not-a-number")
	t.Setenv("PROMPTFORGE_CONFIG", "/nonexistent/config.json")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestValidateAccumulatesErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.Port = 0
	cfg.Retrieval.Backend = "carrier-pigeon"
	cfg.Harness.MaxFailureFraction = 2.0
	cfg.Optimizer.Temperature = 5

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server port")
	assert.Contains(t, err.Error(), "retrieval backend")
	assert.Contains(t, err.Error(), "max_failure_fraction")
	assert.Contains(t, err.Error(), "temperature")
}

func TestValidateHTTPBackendNeedsURL(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Retrieval.Backend = "http"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "retrieval URL is required")

	cfg.Retrieval.URL = "https://search.example.com"
	require.NoError(t, cfg.Validate())
}
