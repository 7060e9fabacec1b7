package models

import "time"

// Optimization run statuses
const (
	OptimizationStatusRunning   = "running"
	OptimizationStatusCompleted = "completed"
	OptimizationStatusFailed    = "failed"
)

// OptimizationRun records one attempt to improve an artifact's content.
type OptimizationRun struct {
	ID              string         `json:"id"`
	Artifact        string         `json:"artifact"`
	Status          string         `json:"status"`
	BaselineVersion int            `json:"baseline_version"`
	ResultVersion   *int           `json:"result_version,omitempty"`
	BestScore       float64        `json:"best_score"`
	Iterations      int            `json:"iterations"`
	MaxIterations   int            `json:"max_iterations"`
	Config          map[string]any `json:"config,omitempty"`
	StartedAt       time.Time      `json:"started_at"`
	CompletedAt     *time.Time     `json:"completed_at,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

func NewOptimizationRun(id, artifact string, baselineVersion, maxIterations int) *OptimizationRun {
	now := time.Now()
	return &OptimizationRun{
		ID:              id,
		Artifact:        artifact,
		Status:          OptimizationStatusRunning,
		BaselineVersion: baselineVersion,
		MaxIterations:   maxIterations,
		Config:          make(map[string]any),
		StartedAt:       now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func (r *OptimizationRun) MarkCompleted(resultVersion int, bestScore float64, iterations int) {
	now := time.Now()
	r.Status = OptimizationStatusCompleted
	r.ResultVersion = &resultVersion
	r.BestScore = bestScore
	r.Iterations = iterations
	r.CompletedAt = &now
	r.UpdatedAt = now
}

func (r *OptimizationRun) MarkFailed(reason string) {
	now := time.Now()
	r.Status = OptimizationStatusFailed
	r.CompletedAt = &now
	r.UpdatedAt = now
	if reason != "" {
		if r.Config == nil {
			r.Config = make(map[string]any)
		}
		r.Config["failure_reason"] = reason
	}
}
