package harness

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/korhaliv/promptforge/internal/domain"
	"github.com/korhaliv/promptforge/internal/domain/models"
	"github.com/korhaliv/promptforge/internal/ports"
)

type funcRetriever struct {
	fn func(ctx context.Context, config map[string]string, query string, limit int) ([]ports.Candidate, error)
}

func (r *funcRetriever) Retrieve(ctx context.Context, config map[string]string, query string, limit int) ([]ports.Candidate, error) {
	return r.fn(ctx, config, query, limit)
}

type seqIDGenerator struct {
	counter atomic.Int64
}

func (g *seqIDGenerator) next(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, g.counter.Add(1))
}

func (g *seqIDGenerator) GenerateVersionID() string         { return g.next("pfv") }
func (g *seqIDGenerator) GenerateEvaluationRunID() string   { return g.next("pfe") }
func (g *seqIDGenerator) GenerateQueryResultID() string     { return g.next("pfq") }
func (g *seqIDGenerator) GenerateReportID() string          { return g.next("pfr") }
func (g *seqIDGenerator) GenerateOptimizationRunID() string { return g.next("pfo") }

// recordingEvalRepo captures persisted rows for assertions.
type recordingEvalRepo struct {
	mu      sync.Mutex
	runs    map[string]*models.EvaluationRun
	results []*models.QueryResult
	reports []*models.ConfigurationReport
}

func newRecordingEvalRepo() *recordingEvalRepo {
	return &recordingEvalRepo{runs: make(map[string]*models.EvaluationRun)}
}

func (r *recordingEvalRepo) CreateRun(ctx context.Context, run *models.EvaluationRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[run.ID] = run
	return nil
}

func (r *recordingEvalRepo) UpdateRun(ctx context.Context, run *models.EvaluationRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.runs[run.ID]; !ok {
		return domain.ErrNotFound
	}
	r.runs[run.ID] = run
	return nil
}

func (r *recordingEvalRepo) GetRun(ctx context.Context, id string) (*models.EvaluationRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return run, nil
}

func (r *recordingEvalRepo) ListRuns(ctx context.Context, limit, offset int) ([]*models.EvaluationRun, error) {
	return nil, nil
}

func (r *recordingEvalRepo) SaveResult(ctx context.Context, result *models.QueryResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, result)
	return nil
}

func (r *recordingEvalRepo) SaveReport(ctx context.Context, report *models.ConfigurationReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, report)
	return nil
}

func (r *recordingEvalRepo) GetReports(ctx context.Context, runID string) ([]*models.ConfigurationReport, error) {
	return r.reports, nil
}

func (r *recordingEvalRepo) GetResults(ctx context.Context, runID, configKey string) ([]*models.QueryResult, error) {
	return r.results, nil
}

func record(id, query, expected string) models.Record {
	return models.Record{
		Inputs:       map[string]any{"id": id, "query": query},
		Expectations: models.Expectations{ExpectedResponse: expected},
	}
}

func rankedCandidates(ids ...string) []ports.Candidate {
	out := make([]ports.Candidate, len(ids))
	for i, id := range ids {
		out[i] = ports.Candidate{ID: id, Score: float32(1.0 - float64(i)*0.1)}
	}
	return out
}

func TestRunner_PerfectRetrieval(t *testing.T) {
	retriever := &funcRetriever{fn: func(ctx context.Context, config map[string]string, query string, limit int) ([]ports.Candidate, error) {
		// Expected document always comes back first.
		return rankedCandidates("doc-"+query, "other-1", "other-2"), nil
	}}

	runner := NewRunner(retriever, nil, &seqIDGenerator{}, Options{Cutoffs: []int{1, 5}})

	records := []models.Record{
		record("q1", "alpha", "doc-alpha"),
		record("q2", "beta", "doc-beta"),
	}
	axes := []Axis{{Name: "model", Values: []string{"small", "large"}}}

	summary, err := runner.Run(context.Background(), "perfect", axes, records)
	require.NoError(t, err)
	require.Len(t, summary.Reports, 2)

	for _, rep := range summary.Reports {
		assert.Equal(t, 1.0, rep.HitRate[1])
		assert.Equal(t, 1.0, rep.HitRate[5])
		assert.Equal(t, 1.0, rep.MRR)
		require.NotNil(t, rep.AvgRank)
		assert.Equal(t, 1.0, *rep.AvgRank)
		assert.False(t, rep.Degraded)
	}

	assert.Equal(t, models.EvaluationStatusCompleted, summary.Run.Status)
	require.NotNil(t, summary.Best)
}

func TestRunner_MixedRanksScenario(t *testing.T) {
	// q1 hits at rank 1, q2 at rank 2, q3 misses entirely.
	ranks := map[string][]string{
		"alpha": {"doc-alpha", "noise-1"},
		"beta":  {"noise-1", "doc-beta"},
		"gamma": {"noise-1", "noise-2"},
	}
	retriever := &funcRetriever{fn: func(ctx context.Context, config map[string]string, query string, limit int) ([]ports.Candidate, error) {
		return rankedCandidates(ranks[query]...), nil
	}}

	runner := NewRunner(retriever, nil, &seqIDGenerator{}, Options{Cutoffs: []int{1, 2}})

	records := []models.Record{
		record("q1", "alpha", "doc-alpha"),
		record("q2", "beta", "doc-beta"),
		record("q3", "gamma", "doc-gamma"),
	}

	summary, err := runner.Run(context.Background(), "mixed", nil, records)
	require.NoError(t, err)
	require.Len(t, summary.Reports, 1)

	rep := summary.Reports[0]
	assert.InDelta(t, 1.0/3.0, rep.HitRate[1], 1e-9)
	assert.InDelta(t, 2.0/3.0, rep.HitRate[2], 1e-9)
	assert.InDelta(t, 0.5, rep.MRR, 1e-9)
}

func TestRunner_RetriesOnceOnTransientFailure(t *testing.T) {
	var calls atomic.Int64
	retriever := &funcRetriever{fn: func(ctx context.Context, config map[string]string, query string, limit int) ([]ports.Candidate, error) {
		if calls.Add(1) == 1 {
			return nil, context.DeadlineExceeded
		}
		return rankedCandidates("doc-alpha"), nil
	}}

	runner := NewRunner(retriever, nil, &seqIDGenerator{}, Options{Cutoffs: []int{1}})

	records := []models.Record{record("q1", "alpha", "doc-alpha")}
	summary, err := runner.Run(context.Background(), "retry", nil, records)
	require.NoError(t, err)

	assert.Equal(t, int64(2), calls.Load(), "transient failure should be retried exactly once")
	assert.Equal(t, 1.0, summary.Reports[0].HitRate[1])
	assert.Equal(t, 0, summary.Reports[0].Failures)
}

func TestRunner_PermanentFailureIsNotRetried(t *testing.T) {
	var calls atomic.Int64
	retriever := &funcRetriever{fn: func(ctx context.Context, config map[string]string, query string, limit int) ([]ports.Candidate, error) {
		calls.Add(1)
		return nil, errors.New("schema mismatch")
	}}

	runner := NewRunner(retriever, nil, &seqIDGenerator{}, Options{Cutoffs: []int{1}, MaxFailureFraction: 1.0})

	records := []models.Record{
		record("q1", "alpha", "doc-alpha"),
		record("q2", "beta", "doc-beta"),
	}
	summary, err := runner.Run(context.Background(), "permanent", nil, records)
	require.NoError(t, err, "failures below the threshold keep the run alive")

	assert.Equal(t, int64(2), calls.Load(), "non-transient failures get no retry")
	assert.Equal(t, 2, summary.Reports[0].Failures)
	assert.Equal(t, 0.0, summary.Reports[0].HitRate[1])
}

func TestRunner_DegradedConfigurationKeepsPartialResults(t *testing.T) {
	retriever := &funcRetriever{fn: func(ctx context.Context, config map[string]string, query string, limit int) ([]ports.Candidate, error) {
		if config["model"] == "broken" {
			return nil, errors.New("model not deployed")
		}
		return rankedCandidates("doc-" + query), nil
	}}

	runner := NewRunner(retriever, nil, &seqIDGenerator{}, Options{
		Cutoffs:            []int{1},
		Concurrency:        1,
		MaxFailureFraction: 0.25,
	})

	records := []models.Record{
		record("q1", "alpha", "doc-alpha"),
		record("q2", "beta", "doc-beta"),
		record("q3", "gamma", "doc-gamma"),
		record("q4", "delta", "doc-delta"),
	}
	axes := []Axis{{Name: "model", Values: []string{"healthy", "broken"}}}

	summary, err := runner.Run(context.Background(), "degraded", axes, records)
	require.NoError(t, err, "one healthy configuration keeps the run successful")
	require.Len(t, summary.Reports, 2)

	byKey := map[string]*models.ConfigurationReport{}
	for _, rep := range summary.Reports {
		byKey[rep.ConfigKey] = rep
	}

	assert.False(t, byKey["model=healthy"].Degraded)
	assert.Equal(t, 1.0, byKey["model=healthy"].HitRate[1])
	assert.True(t, byKey["model=broken"].Degraded)
	assert.Equal(t, "model=healthy", summary.Best.ConfigKey)
}

func TestRunner_AllConfigurationsDegradedFailsRun(t *testing.T) {
	retriever := &funcRetriever{fn: func(ctx context.Context, config map[string]string, query string, limit int) ([]ports.Candidate, error) {
		return nil, errors.New("backend down")
	}}

	repo := newRecordingEvalRepo()
	runner := NewRunner(retriever, repo, &seqIDGenerator{}, Options{
		Cutoffs:            []int{1},
		MaxFailureFraction: 0.5,
	})

	records := []models.Record{
		record("q1", "alpha", "doc-alpha"),
		record("q2", "beta", "doc-beta"),
		record("q3", "gamma", "doc-gamma"),
	}
	axes := []Axis{{Name: "model", Values: []string{"a", "b"}}}

	summary, err := runner.Run(context.Background(), "doomed", axes, records)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrRunDegraded))

	// Partial results survive the failure.
	require.NotNil(t, summary)
	assert.Len(t, summary.Reports, 2)
	assert.Equal(t, models.EvaluationStatusFailed, summary.Run.Status)

	persisted, getErr := repo.GetRun(context.Background(), summary.Run.ID)
	require.NoError(t, getErr)
	assert.Equal(t, models.EvaluationStatusFailed, persisted.Status)
	assert.Len(t, repo.reports, 2)
}

func TestRunner_PersistsResultsAndReports(t *testing.T) {
	retriever := &funcRetriever{fn: func(ctx context.Context, config map[string]string, query string, limit int) ([]ports.Candidate, error) {
		return rankedCandidates("doc-" + query), nil
	}}

	repo := newRecordingEvalRepo()
	runner := NewRunner(retriever, repo, &seqIDGenerator{}, Options{Cutoffs: []int{1}})

	records := []models.Record{
		record("q1", "alpha", "doc-alpha"),
		record("q2", "beta", "doc-beta"),
	}
	axes := []Axis{{Name: "strategy", Values: []string{"dense", "hybrid"}}}

	_, err := runner.Run(context.Background(), "persisted", axes, records)
	require.NoError(t, err)

	// 2 configurations x 2 records, plus one report per configuration.
	assert.Len(t, repo.results, 4)
	assert.Len(t, repo.reports, 2)
	for _, res := range repo.results {
		assert.True(t, res.Hit)
		require.NotNil(t, res.Rank)
		assert.Equal(t, 1, *res.Rank)
	}
}

func TestRunner_EmptyDataset(t *testing.T) {
	retriever := &funcRetriever{fn: func(ctx context.Context, config map[string]string, query string, limit int) ([]ports.Candidate, error) {
		return nil, nil
	}}
	runner := NewRunner(retriever, nil, &seqIDGenerator{}, DefaultOptions())

	_, err := runner.Run(context.Background(), "empty", nil, nil)
	assert.True(t, errors.Is(err, domain.ErrEmptyDataset))
}

func TestRunner_RejectsInvalidRecords(t *testing.T) {
	retriever := &funcRetriever{fn: func(ctx context.Context, config map[string]string, query string, limit int) ([]ports.Candidate, error) {
		return nil, nil
	}}
	runner := NewRunner(retriever, nil, &seqIDGenerator{}, DefaultOptions())

	records := []models.Record{{Inputs: map[string]any{"query": "no expectations"}}}
	_, err := runner.Run(context.Background(), "invalid", nil, records)
	assert.True(t, errors.Is(err, domain.ErrInvalidRecord))
}
