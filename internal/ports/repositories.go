package ports

import (
	"context"

	"github.com/korhaliv/promptforge/internal/domain/models"
)

// ArtifactRepository persists artifact versions and aliases.
type ArtifactRepository interface {
	// CreateVersion appends a new version; the repository assigns
	// version.Number (strictly increasing per artifact, starting at 1).
	CreateVersion(ctx context.Context, version *models.Version) error
	GetVersion(ctx context.Context, artifact string, number int) (*models.Version, error)
	GetLatestVersion(ctx context.Context, artifact string) (*models.Version, error)
	// ListVersions returns all versions in creation order. An unknown
	// artifact is domain.ErrNotFound, not an empty list.
	ListVersions(ctx context.Context, artifact string) ([]*models.Version, error)
	// SetAlias binds (artifact, alias) to an existing version, overwriting
	// any prior binding. domain.ErrNotFound when the version is absent.
	SetAlias(ctx context.Context, artifact, alias string, version int) error
	ResolveAlias(ctx context.Context, artifact, alias string) (*models.Alias, error)
	// DeleteAlias removes a binding and reports whether it existed.
	// Deleting an absent alias is not an error.
	DeleteAlias(ctx context.Context, artifact, alias string) (bool, error)
}

// EvaluationRepository persists evaluation runs, per-query results and
// per-configuration reports. Results and reports are append-only.
type EvaluationRepository interface {
	CreateRun(ctx context.Context, run *models.EvaluationRun) error
	UpdateRun(ctx context.Context, run *models.EvaluationRun) error
	GetRun(ctx context.Context, id string) (*models.EvaluationRun, error)
	ListRuns(ctx context.Context, limit, offset int) ([]*models.EvaluationRun, error)
	SaveResult(ctx context.Context, result *models.QueryResult) error
	SaveReport(ctx context.Context, report *models.ConfigurationReport) error
	GetReports(ctx context.Context, runID string) ([]*models.ConfigurationReport, error)
	GetResults(ctx context.Context, runID, configKey string) ([]*models.QueryResult, error)
}

// OptimizationRepository persists optimization run records.
type OptimizationRepository interface {
	CreateRun(ctx context.Context, run *models.OptimizationRun) error
	UpdateRun(ctx context.Context, run *models.OptimizationRun) error
	GetRun(ctx context.Context, id string) (*models.OptimizationRun, error)
	ListRuns(ctx context.Context, artifact string, limit int) ([]*models.OptimizationRun, error)
}

// IDGenerator generates prefixed unique identifiers for domain entities.
type IDGenerator interface {
	GenerateVersionID() string
	GenerateEvaluationRunID() string
	GenerateQueryResultID() string
	GenerateReportID() string
	GenerateOptimizationRunID() string
}

// TransactionManager runs a function within a database transaction.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
