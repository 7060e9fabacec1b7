package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/korhaliv/promptforge/internal/domain"
	"github.com/korhaliv/promptforge/internal/domain/models"
)

// EvaluationRepository implements ports.EvaluationRepository on postgres.
// Result and report rows are append-only; only the run row is updated.
type EvaluationRepository struct {
	BaseRepository
}

func NewEvaluationRepository(pool *pgxpool.Pool) *EvaluationRepository {
	return &EvaluationRepository{BaseRepository: NewBaseRepository(pool)}
}

func (r *EvaluationRepository) CreateRun(ctx context.Context, run *models.EvaluationRun) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	cutoffs, err := marshalJSONSlice(run.Cutoffs)
	if err != nil {
		return fmt.Errorf("failed to marshal cutoffs: %w", err)
	}
	config, err := marshalJSONMap(run.Config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	query := `
		INSERT INTO evaluation_runs (id, name, status, dataset_size, cutoffs, config, started_at, completed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err = r.conn(ctx).Exec(ctx, query,
		run.ID, run.Name, run.Status, run.DatasetSize, cutoffs, config,
		run.StartedAt, nullTime(run.CompletedAt), run.CreatedAt, run.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create evaluation run: %w", err)
	}

	return nil
}

func (r *EvaluationRepository) UpdateRun(ctx context.Context, run *models.EvaluationRun) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	config, err := marshalJSONMap(run.Config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	query := `
		UPDATE evaluation_runs
		SET status = $2, config = $3, completed_at = $4, updated_at = $5
		WHERE id = $1`

	tag, err := r.conn(ctx).Exec(ctx, query,
		run.ID, run.Status, config, nullTime(run.CompletedAt), run.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update evaluation run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	return nil
}

func (r *EvaluationRepository) GetRun(ctx context.Context, id string) (*models.EvaluationRun, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `
		SELECT id, name, status, dataset_size, cutoffs, config, started_at, completed_at, created_at, updated_at
		FROM evaluation_runs
		WHERE id = $1`

	var run models.EvaluationRun
	var cutoffs, config []byte
	var completedAt sql.NullTime

	err := r.conn(ctx).QueryRow(ctx, query, id).Scan(
		&run.ID, &run.Name, &run.Status, &run.DatasetSize, &cutoffs, &config,
		&run.StartedAt, &completedAt, &run.CreatedAt, &run.UpdatedAt)
	if err != nil {
		if checkNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get evaluation run: %w", err)
	}

	if err := unmarshalJSONField(cutoffs, &run.Cutoffs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cutoffs: %w", err)
	}
	if err := unmarshalJSONField(config, &run.Config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	run.CompletedAt = getTimePtr(completedAt)

	return &run, nil
}

func (r *EvaluationRepository) ListRuns(ctx context.Context, limit, offset int) ([]*models.EvaluationRun, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, name, status, dataset_size, cutoffs, config, started_at, completed_at, created_at, updated_at
		FROM evaluation_runs
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := r.conn(ctx).Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list evaluation runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.EvaluationRun
	for rows.Next() {
		var run models.EvaluationRun
		var cutoffs, config []byte
		var completedAt sql.NullTime
		if err := rows.Scan(
			&run.ID, &run.Name, &run.Status, &run.DatasetSize, &cutoffs, &config,
			&run.StartedAt, &completedAt, &run.CreatedAt, &run.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan evaluation run: %w", err)
		}
		if err := unmarshalJSONField(cutoffs, &run.Cutoffs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal cutoffs: %w", err)
		}
		if err := unmarshalJSONField(config, &run.Config); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
		run.CompletedAt = getTimePtr(completedAt)
		runs = append(runs, &run)
	}

	return runs, rows.Err()
}

func (r *EvaluationRepository) SaveResult(ctx context.Context, result *models.QueryResult) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO evaluation_results (id, run_id, config_key, query_id, hit, rank, latency_ms, error, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.conn(ctx).Exec(ctx, query,
		result.ID, result.RunID, result.ConfigKey, result.QueryID,
		result.Hit, nullIntPtr(result.Rank), result.LatencyMs,
		nullString(result.Error), result.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save query result: %w", err)
	}

	return nil
}

func (r *EvaluationRepository) SaveReport(ctx context.Context, report *models.ConfigurationReport) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	values, err := marshalJSONMap(report.Values)
	if err != nil {
		return fmt.Errorf("failed to marshal axis values: %w", err)
	}
	hitRate, err := marshalJSONMap(report.HitRate)
	if err != nil {
		return fmt.Errorf("failed to marshal hit rates: %w", err)
	}

	query := `
		INSERT INTO evaluation_reports (id, run_id, config_key, position, axis_values, hit_rate, mrr, avg_rank, queries, failures, degraded, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err = r.conn(ctx).Exec(ctx, query,
		report.ID, report.RunID, report.ConfigKey, report.Position,
		values, hitRate, report.MRR, nullFloatPtr(report.AvgRank),
		report.Queries, report.Failures, report.Degraded, report.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save configuration report: %w", err)
	}

	return nil
}

func (r *EvaluationRepository) GetReports(ctx context.Context, runID string) ([]*models.ConfigurationReport, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `
		SELECT id, run_id, config_key, position, axis_values, hit_rate, mrr, avg_rank, queries, failures, degraded, created_at
		FROM evaluation_reports
		WHERE run_id = $1
		ORDER BY position ASC`

	rows, err := r.conn(ctx).Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get reports: %w", err)
	}
	defer rows.Close()

	var reports []*models.ConfigurationReport
	for rows.Next() {
		var rep models.ConfigurationReport
		var values, hitRate []byte
		var avgRank sql.NullFloat64
		if err := rows.Scan(
			&rep.ID, &rep.RunID, &rep.ConfigKey, &rep.Position, &values, &hitRate,
			&rep.MRR, &avgRank, &rep.Queries, &rep.Failures, &rep.Degraded, &rep.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		if err := unmarshalJSONField(values, &rep.Values); err != nil {
			return nil, fmt.Errorf("failed to unmarshal axis values: %w", err)
		}
		if err := unmarshalJSONField(hitRate, &rep.HitRate); err != nil {
			return nil, fmt.Errorf("failed to unmarshal hit rates: %w", err)
		}
		rep.AvgRank = getFloatPtr(avgRank)
		reports = append(reports, &rep)
	}

	return reports, rows.Err()
}

func (r *EvaluationRepository) GetResults(ctx context.Context, runID, configKey string) ([]*models.QueryResult, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `
		SELECT id, run_id, config_key, query_id, hit, rank, latency_ms, error, created_at
		FROM evaluation_results
		WHERE run_id = $1 AND config_key = $2
		ORDER BY created_at ASC`

	rows, err := r.conn(ctx).Query(ctx, query, runID, configKey)
	if err != nil {
		return nil, fmt.Errorf("failed to get results: %w", err)
	}
	defer rows.Close()

	var results []*models.QueryResult
	for rows.Next() {
		var res models.QueryResult
		var rank sql.NullInt32
		var errMsg sql.NullString
		if err := rows.Scan(
			&res.ID, &res.RunID, &res.ConfigKey, &res.QueryID,
			&res.Hit, &rank, &res.LatencyMs, &errMsg, &res.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		res.Rank = getIntPtr(rank)
		res.Error = getString(errMsg)
		results = append(results, &res)
	}

	return results, rows.Err()
}
