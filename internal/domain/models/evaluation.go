package models

import "time"

// Evaluation run statuses
const (
	EvaluationStatusRunning   = "running"
	EvaluationStatusCompleted = "completed"
	EvaluationStatusFailed    = "failed"
)

// EvaluationRun is one sweep of a search space over a dataset.
type EvaluationRun struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Status      string         `json:"status"`
	DatasetSize int            `json:"dataset_size"`
	Cutoffs     []int          `json:"cutoffs"`
	Config      map[string]any `json:"config,omitempty"`
	StartedAt   time.Time      `json:"started_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

func NewEvaluationRun(id, name string, datasetSize int, cutoffs []int) *EvaluationRun {
	now := time.Now()
	return &EvaluationRun{
		ID:          id,
		Name:        name,
		Status:      EvaluationStatusRunning,
		DatasetSize: datasetSize,
		Cutoffs:     cutoffs,
		Config:      make(map[string]any),
		StartedAt:   now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (r *EvaluationRun) MarkCompleted() {
	now := time.Now()
	r.Status = EvaluationStatusCompleted
	r.CompletedAt = &now
	r.UpdatedAt = now
}

func (r *EvaluationRun) MarkFailed(reason string) {
	now := time.Now()
	r.Status = EvaluationStatusFailed
	r.CompletedAt = &now
	r.UpdatedAt = now
	if reason != "" {
		if r.Config == nil {
			r.Config = make(map[string]any)
		}
		r.Config["failure_reason"] = reason
	}
}

// QueryResult is the immutable outcome of one (configuration, query) call.
// Rank is 1-based and nil when the expected identifier was not returned.
type QueryResult struct {
	ID        string    `json:"id"`
	RunID     string    `json:"run_id"`
	ConfigKey string    `json:"config_key"`
	QueryID   string    `json:"query_id"`
	Hit       bool      `json:"hit"`
	Rank      *int      `json:"rank,omitempty"`
	LatencyMs int64     `json:"latency_ms"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ConfigurationReport aggregates one configuration over the whole dataset.
// AvgRank is nil when no query hit at any rank.
type ConfigurationReport struct {
	ID        string            `json:"id"`
	RunID     string            `json:"run_id"`
	ConfigKey string            `json:"config_key"`
	Position  int               `json:"position"`
	Values    map[string]string `json:"values"`
	HitRate   map[int]float64   `json:"hit_rate"`
	MRR       float64           `json:"mrr"`
	AvgRank   *float64          `json:"avg_rank,omitempty"`
	Queries   int               `json:"queries"`
	Failures  int               `json:"failures"`
	Degraded  bool              `json:"degraded"`
	CreatedAt time.Time         `json:"created_at"`
}
