package postgres

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"

	"github.com/korhaliv/promptforge/internal/domain"
	"github.com/korhaliv/promptforge/internal/domain/models"
)

func TestArtifactRepository_CreateVersion(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()

	repo := &ArtifactRepository{BaseRepository: BaseRepository{pool: nil}}

	version := models.NewVersion("pfv_1", "qa.classifier", "You are a classifier.", map[string]string{"author": "dev"})

	mock.ExpectExec("SELECT pg_advisory_xact_lock").
		WithArgs(version.Artifact).
		WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectQuery("INSERT INTO artifact_versions").
		WithArgs(version.ID, version.Artifact, version.Content, pgxmock.AnyArg(), version.CreatedAt).
		WillReturnRows(pgxmock.NewRows([]string{"version_number"}).AddRow(1))

	ctx := setupMockContext(mock)
	if err := repo.CreateVersion(ctx, version); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	if version.Number != 1 {
		t.Errorf("expected version number 1, got %d", version.Number)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestArtifactRepository_GetVersion(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()

	repo := &ArtifactRepository{BaseRepository: BaseRepository{pool: nil}}

	now := time.Now()
	metadata, _ := json.Marshal(map[string]string{"author": "dev"})

	rows := pgxmock.NewRows([]string{
		"id", "artifact_name", "version_number", "content", "metadata", "created_at",
	}).AddRow("pfv_1", "qa.classifier", 2, "Classify the input.", metadata, now)

	mock.ExpectQuery("SELECT id, artifact_name, version_number").
		WithArgs("qa.classifier", 2).
		WillReturnRows(rows)

	ctx := setupMockContext(mock)
	v, err := repo.GetVersion(ctx, "qa.classifier", 2)
	if err != nil {
		t.Fatalf("GetVersion failed: %v", err)
	}

	if v.Number != 2 {
		t.Errorf("expected version number 2, got %d", v.Number)
	}
	if v.Content != "Classify the input." {
		t.Errorf("unexpected content: %s", v.Content)
	}
	if v.Metadata["author"] != "dev" {
		t.Errorf("unexpected metadata: %v", v.Metadata)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestArtifactRepository_GetVersion_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()

	repo := &ArtifactRepository{BaseRepository: BaseRepository{pool: nil}}

	mock.ExpectQuery("SELECT id, artifact_name, version_number").
		WithArgs("ghost", 1).
		WillReturnError(pgx.ErrNoRows)

	ctx := setupMockContext(mock)
	_, err = repo.GetVersion(ctx, "ghost", 1)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestArtifactRepository_ListVersions_UnknownArtifact(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()

	repo := &ArtifactRepository{BaseRepository: BaseRepository{pool: nil}}

	mock.ExpectQuery("SELECT id, artifact_name, version_number").
		WithArgs("ghost").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "artifact_name", "version_number", "content", "metadata", "created_at",
		}))

	ctx := setupMockContext(mock)
	_, err = repo.ListVersions(ctx, "ghost")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown artifact, got %v", err)
	}
}

func TestArtifactRepository_SetAlias_MissingVersion(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()

	repo := &ArtifactRepository{BaseRepository: BaseRepository{pool: nil}}

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("qa.classifier", 99).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

	ctx := setupMockContext(mock)
	err = repo.SetAlias(ctx, "qa.classifier", "prod", 99)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestArtifactRepository_SetAlias(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()

	repo := &ArtifactRepository{BaseRepository: BaseRepository{pool: nil}}

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("qa.classifier", 2).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectExec("INSERT INTO artifact_aliases").
		WithArgs("qa.classifier", "prod", 2).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	ctx := setupMockContext(mock)
	if err := repo.SetAlias(ctx, "qa.classifier", "prod", 2); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestArtifactRepository_DeleteAlias(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		existed  bool
	}{
		{"existing alias", 1, true},
		{"absent alias", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			if err != nil {
				t.Fatal(err)
			}
			defer mock.Close()

			repo := &ArtifactRepository{BaseRepository: BaseRepository{pool: nil}}

			mock.ExpectExec("DELETE FROM artifact_aliases").
				WithArgs("qa.classifier", "prod").
				WillReturnResult(pgxmock.NewResult("DELETE", tt.affected))

			ctx := setupMockContext(mock)
			existed, err := repo.DeleteAlias(ctx, "qa.classifier", "prod")
			if err != nil {
				t.Fatalf("DeleteAlias failed: %v", err)
			}
			if existed != tt.existed {
				t.Errorf("expected existed=%v, got %v", tt.existed, existed)
			}
		})
	}
}
