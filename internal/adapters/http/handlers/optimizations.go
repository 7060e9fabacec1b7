package handlers

import (
	"net/http"

	"github.com/korhaliv/promptforge/internal/application/services"
)

// OptimizationsHandler exposes read access to optimization run records.
// Optimizations themselves run through the CLI, not the API.
type OptimizationsHandler struct {
	svc *services.OptimizationService
}

func NewOptimizationsHandler(svc *services.OptimizationService) *OptimizationsHandler {
	return &OptimizationsHandler{svc: svc}
}

// List handles GET /optimizations?artifact=&limit=
func (h *OptimizationsHandler) List(w http.ResponseWriter, r *http.Request) {
	artifact := r.URL.Query().Get("artifact")
	if artifact == "" {
		respondError(w, "invalid_request", "artifact query parameter is required", http.StatusBadRequest)
		return
	}
	limit := parseIntQuery(r, "limit", 20)
	if limit < 1 || limit > 200 {
		limit = 20
	}

	runs, err := h.svc.ListRuns(r.Context(), artifact, limit)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, runs, http.StatusOK)
}

// Get handles GET /optimizations/{id}
func (h *OptimizationsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := validateURLParam(r, w, "id", "run id")
	if !ok {
		return
	}

	run, err := h.svc.GetRun(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, run, http.StatusOK)
}
