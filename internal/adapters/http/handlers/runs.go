package handlers

import (
	"net/http"

	"github.com/korhaliv/promptforge/internal/ports"
)

// RunsHandler exposes read access to persisted evaluation runs, their
// per-configuration reports and raw per-query results.
type RunsHandler struct {
	repo ports.EvaluationRepository
}

func NewRunsHandler(repo ports.EvaluationRepository) *RunsHandler {
	return &RunsHandler{repo: repo}
}

// List handles GET /runs?limit=&offset=
func (h *RunsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := parseIntQuery(r, "limit", 20)
	offset := parseIntQuery(r, "offset", 0)
	if limit < 1 || limit > 200 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	runs, err := h.repo.ListRuns(r.Context(), limit, offset)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, runs, http.StatusOK)
}

// Get handles GET /runs/{id}
func (h *RunsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := validateURLParam(r, w, "id", "run id")
	if !ok {
		return
	}

	run, err := h.repo.GetRun(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, run, http.StatusOK)
}

// GetReports handles GET /runs/{id}/reports. Reports come back in ranked
// order, best configuration first.
func (h *RunsHandler) GetReports(w http.ResponseWriter, r *http.Request) {
	id, ok := validateURLParam(r, w, "id", "run id")
	if !ok {
		return
	}

	reports, err := h.repo.GetReports(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, reports, http.StatusOK)
}

// GetResults handles GET /runs/{id}/results?config=
func (h *RunsHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	id, ok := validateURLParam(r, w, "id", "run id")
	if !ok {
		return
	}

	configKey := r.URL.Query().Get("config")
	if configKey == "" {
		respondError(w, "invalid_request", "config query parameter is required", http.StatusBadRequest)
		return
	}

	results, err := h.repo.GetResults(r.Context(), id, configKey)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, results, http.StatusOK)
}
