package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/korhaliv/promptforge/internal/domain"
	"github.com/korhaliv/promptforge/internal/domain/models"
)

// ArtifactRepository implements ports.ArtifactRepository on postgres.
type ArtifactRepository struct {
	BaseRepository
}

func NewArtifactRepository(pool *pgxpool.Pool) *ArtifactRepository {
	return &ArtifactRepository{BaseRepository: NewBaseRepository(pool)}
}

// CreateVersion appends a version with the next number for the artifact.
// Allocation runs under a per-artifact transactional advisory lock so
// concurrent registrations never collide or reuse numbers; callers must
// invoke it inside a transaction.
func (r *ArtifactRepository) CreateVersion(ctx context.Context, version *models.Version) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if _, err := r.conn(ctx).Exec(ctx,
		`SELECT pg_advisory_xact_lock(hashtext($1))`, version.Artifact); err != nil {
		return fmt.Errorf("failed to acquire artifact lock: %w", err)
	}

	metadata, err := marshalJSONMap(version.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	query := `
		INSERT INTO artifact_versions (id, artifact_name, version_number, content, metadata, created_at)
		VALUES ($1, $2,
			(SELECT COALESCE(MAX(version_number), 0) + 1 FROM artifact_versions WHERE artifact_name = $2),
			$3, $4, $5)
		RETURNING version_number`

	err = r.conn(ctx).QueryRow(ctx, query,
		version.ID, version.Artifact, version.Content, metadata, version.CreatedAt,
	).Scan(&version.Number)
	if err != nil {
		return fmt.Errorf("failed to create version: %w", err)
	}

	return nil
}

func (r *ArtifactRepository) GetVersion(ctx context.Context, artifact string, number int) (*models.Version, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `
		SELECT id, artifact_name, version_number, content, metadata, created_at
		FROM artifact_versions
		WHERE artifact_name = $1 AND version_number = $2`

	return r.scanVersion(ctx, query, artifact, number)
}

func (r *ArtifactRepository) GetLatestVersion(ctx context.Context, artifact string) (*models.Version, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `
		SELECT id, artifact_name, version_number, content, metadata, created_at
		FROM artifact_versions
		WHERE artifact_name = $1
		ORDER BY version_number DESC
		LIMIT 1`

	return r.scanVersion(ctx, query, artifact)
}

func (r *ArtifactRepository) scanVersion(ctx context.Context, query string, args ...any) (*models.Version, error) {
	var v models.Version
	var metadata []byte

	err := r.conn(ctx).QueryRow(ctx, query, args...).Scan(
		&v.ID, &v.Artifact, &v.Number, &v.Content, &metadata, &v.CreatedAt)
	if err != nil {
		if checkNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get version: %w", err)
	}

	if err := unmarshalJSONField(metadata, &v.Metadata); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}

	return &v, nil
}

func (r *ArtifactRepository) ListVersions(ctx context.Context, artifact string) ([]*models.Version, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `
		SELECT id, artifact_name, version_number, content, metadata, created_at
		FROM artifact_versions
		WHERE artifact_name = $1
		ORDER BY version_number ASC`

	rows, err := r.conn(ctx).Query(ctx, query, artifact)
	if err != nil {
		return nil, fmt.Errorf("failed to list versions: %w", err)
	}
	defer rows.Close()

	var versions []*models.Version
	for rows.Next() {
		var v models.Version
		var metadata []byte
		if err := rows.Scan(&v.ID, &v.Artifact, &v.Number, &v.Content, &metadata, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan version: %w", err)
		}
		if err := unmarshalJSONField(metadata, &v.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
		versions = append(versions, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate versions: %w", err)
	}

	// Unknown artifacts surface as not-found, never as an empty list.
	if len(versions) == 0 {
		return nil, domain.ErrNotFound
	}

	return versions, nil
}

func (r *ArtifactRepository) SetAlias(ctx context.Context, artifact, alias string, version int) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var exists bool
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM artifact_versions WHERE artifact_name = $1 AND version_number = $2)`,
		artifact, version,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check version existence: %w", err)
	}
	if !exists {
		return domain.ErrNotFound
	}

	query := `
		INSERT INTO artifact_aliases (artifact_name, alias, version_number, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (artifact_name, alias)
		DO UPDATE SET version_number = EXCLUDED.version_number, updated_at = NOW()`

	if _, err := r.conn(ctx).Exec(ctx, query, artifact, alias, version); err != nil {
		return fmt.Errorf("failed to set alias: %w", err)
	}

	return nil
}

func (r *ArtifactRepository) ResolveAlias(ctx context.Context, artifact, alias string) (*models.Alias, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `
		SELECT artifact_name, alias, version_number, updated_at
		FROM artifact_aliases
		WHERE artifact_name = $1 AND alias = $2`

	var a models.Alias
	err := r.conn(ctx).QueryRow(ctx, query, artifact, alias).Scan(
		&a.Artifact, &a.Name, &a.Version, &a.UpdatedAt)
	if err != nil {
		if checkNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to resolve alias: %w", err)
	}

	return &a, nil
}

func (r *ArtifactRepository) DeleteAlias(ctx context.Context, artifact, alias string) (bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tag, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM artifact_aliases WHERE artifact_name = $1 AND alias = $2`,
		artifact, alias)
	if err != nil {
		return false, fmt.Errorf("failed to delete alias: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}
