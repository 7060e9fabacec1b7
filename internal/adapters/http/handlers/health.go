package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/korhaliv/promptforge/internal/adapters/embedding"
)

// HealthCheckConfig holds configuration for health checks
type HealthCheckConfig struct {
	Timeout time.Duration // Timeout for each individual health check
}

// DefaultHealthCheckConfig returns default health check configuration
func DefaultHealthCheckConfig() HealthCheckConfig {
	return HealthCheckConfig{
		Timeout: 5 * time.Second,
	}
}

type HealthHandler struct {
	config          HealthCheckConfig
	db              *pgxpool.Pool
	embeddingClient *embedding.Client
}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{
		config: DefaultHealthCheckConfig(),
	}
}

func NewHealthHandlerWithDeps(db *pgxpool.Pool, embeddingClient *embedding.Client) *HealthHandler {
	return &HealthHandler{
		config:          DefaultHealthCheckConfig(),
		db:              db,
		embeddingClient: embeddingClient,
	}
}

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

type DetailedHealthResponse struct {
	Status   string                   `json:"status"`
	Version  string                   `json:"version"`
	Services map[string]ServiceHealth `json:"services"`
}

type ServiceHealth struct {
	Status    string  `json:"status"`
	LatencyMs *int64  `json:"latency_ms,omitempty"`
	Error     *string `json:"error,omitempty"`
}

// Handle provides a basic health check endpoint
func (h *HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, HealthResponse{Status: "ok", Version: "1.0.0"}, http.StatusOK)
}

// HandleDetailed checks the database and embedding service.
func (h *HealthHandler) HandleDetailed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	response := DetailedHealthResponse{
		Version:  "1.0.0",
		Services: make(map[string]ServiceHealth),
	}

	if h.db != nil {
		response.Services["database"] = h.checkDatabase(ctx)
	}
	if h.embeddingClient != nil {
		response.Services["embedding"] = h.checkEmbedding(ctx)
	}

	response.Status = h.calculateOverallStatus(response.Services)

	statusCode := http.StatusOK
	if response.Status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	respondJSON(w, response, statusCode)
}

func (h *HealthHandler) checkDatabase(ctx context.Context) ServiceHealth {
	start := time.Now()
	checkCtx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	err := h.db.Ping(checkCtx)
	latency := time.Since(start).Milliseconds()

	if err != nil {
		errMsg := err.Error()
		return ServiceHealth{
			Status:    "unhealthy",
			LatencyMs: &latency,
			Error:     &errMsg,
		}
	}

	return ServiceHealth{
		Status:    "healthy",
		LatencyMs: &latency,
	}
}

func (h *HealthHandler) checkEmbedding(ctx context.Context) ServiceHealth {
	start := time.Now()
	checkCtx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	_, err := h.embeddingClient.Embed(checkCtx, "health check")
	latency := time.Since(start).Milliseconds()

	if err != nil {
		errMsg := err.Error()
		return ServiceHealth{
			Status:    "unhealthy",
			LatencyMs: &latency,
			Error:     &errMsg,
		}
	}

	return ServiceHealth{
		Status:    "healthy",
		LatencyMs: &latency,
	}
}

// calculateOverallStatus determines the overall status. The database is
// critical; the embedding service only degrades the system.
func (h *HealthHandler) calculateOverallStatus(services map[string]ServiceHealth) string {
	if len(services) == 0 {
		return "healthy"
	}

	degraded := false
	for name, service := range services {
		if service.Status == "unhealthy" {
			if name == "database" {
				return "unhealthy"
			}
			degraded = true
		}
	}

	if degraded {
		return "degraded"
	}
	return "healthy"
}
