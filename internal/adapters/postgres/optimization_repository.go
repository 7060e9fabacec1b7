package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/korhaliv/promptforge/internal/domain"
	"github.com/korhaliv/promptforge/internal/domain/models"
)

// OptimizationRepository implements ports.OptimizationRepository on postgres.
type OptimizationRepository struct {
	BaseRepository
}

func NewOptimizationRepository(pool *pgxpool.Pool) *OptimizationRepository {
	return &OptimizationRepository{BaseRepository: NewBaseRepository(pool)}
}

func (r *OptimizationRepository) CreateRun(ctx context.Context, run *models.OptimizationRun) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	config, err := marshalJSONMap(run.Config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	query := `
		INSERT INTO optimization_runs (id, artifact_name, status, baseline_version, result_version, best_score, iterations, max_iterations, config, started_at, completed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err = r.conn(ctx).Exec(ctx, query,
		run.ID, run.Artifact, run.Status, run.BaselineVersion,
		nullIntPtr(run.ResultVersion), run.BestScore, run.Iterations, run.MaxIterations,
		config, run.StartedAt, nullTime(run.CompletedAt), run.CreatedAt, run.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create optimization run: %w", err)
	}

	return nil
}

func (r *OptimizationRepository) UpdateRun(ctx context.Context, run *models.OptimizationRun) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	config, err := marshalJSONMap(run.Config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	query := `
		UPDATE optimization_runs
		SET status = $2, result_version = $3, best_score = $4, iterations = $5, config = $6, completed_at = $7, updated_at = $8
		WHERE id = $1`

	tag, err := r.conn(ctx).Exec(ctx, query,
		run.ID, run.Status, nullIntPtr(run.ResultVersion), run.BestScore,
		run.Iterations, config, nullTime(run.CompletedAt), run.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update optimization run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	return nil
}

func (r *OptimizationRepository) GetRun(ctx context.Context, id string) (*models.OptimizationRun, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `
		SELECT id, artifact_name, status, baseline_version, result_version, best_score, iterations, max_iterations, config, started_at, completed_at, created_at, updated_at
		FROM optimization_runs
		WHERE id = $1`

	run, err := r.scanRun(r.conn(ctx).QueryRow(ctx, query, id))
	if err != nil {
		if checkNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get optimization run: %w", err)
	}

	return run, nil
}

func (r *OptimizationRepository) ListRuns(ctx context.Context, artifact string, limit int) ([]*models.OptimizationRun, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, artifact_name, status, baseline_version, result_version, best_score, iterations, max_iterations, config, started_at, completed_at, created_at, updated_at
		FROM optimization_runs
		WHERE artifact_name = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.conn(ctx).Query(ctx, query, artifact, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list optimization runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.OptimizationRun
	for rows.Next() {
		run, err := r.scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan optimization run: %w", err)
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *OptimizationRepository) scanRun(row rowScanner) (*models.OptimizationRun, error) {
	var run models.OptimizationRun
	var resultVersion sql.NullInt32
	var config []byte
	var completedAt sql.NullTime

	err := row.Scan(
		&run.ID, &run.Artifact, &run.Status, &run.BaselineVersion, &resultVersion,
		&run.BestScore, &run.Iterations, &run.MaxIterations, &config,
		&run.StartedAt, &completedAt, &run.CreatedAt, &run.UpdatedAt)
	if err != nil {
		return nil, err
	}

	run.ResultVersion = getIntPtr(resultVersion)
	run.CompletedAt = getTimePtr(completedAt)
	if err := unmarshalJSONField(config, &run.Config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &run, nil
}
