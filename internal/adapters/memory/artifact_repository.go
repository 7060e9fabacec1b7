package memory

import (
	"context"
	"sync"
	"time"

	"github.com/korhaliv/promptforge/internal/domain"
	"github.com/korhaliv/promptforge/internal/domain/models"
)

// ArtifactRepository is a mutex-serialized in-memory implementation of
// ports.ArtifactRepository, used by tests and the no-database CLI mode.
type ArtifactRepository struct {
	mu        sync.RWMutex
	artifacts map[string]*artifactState
}

type artifactState struct {
	versions []*models.Version
	aliases  map[string]*models.Alias
}

func NewArtifactRepository() *ArtifactRepository {
	return &ArtifactRepository{
		artifacts: make(map[string]*artifactState),
	}
}

func (r *ArtifactRepository) CreateVersion(ctx context.Context, version *models.Version) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.artifacts[version.Artifact]
	if !ok {
		state = &artifactState{aliases: make(map[string]*models.Alias)}
		r.artifacts[version.Artifact] = state
	}

	version.Number = len(state.versions) + 1
	stored := *version
	state.versions = append(state.versions, &stored)

	return nil
}

func (r *ArtifactRepository) GetVersion(ctx context.Context, artifact string, number int) (*models.Version, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	state, ok := r.artifacts[artifact]
	if !ok || number < 1 || number > len(state.versions) {
		return nil, domain.ErrNotFound
	}

	v := *state.versions[number-1]
	return &v, nil
}

func (r *ArtifactRepository) GetLatestVersion(ctx context.Context, artifact string) (*models.Version, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	state, ok := r.artifacts[artifact]
	if !ok || len(state.versions) == 0 {
		return nil, domain.ErrNotFound
	}

	v := *state.versions[len(state.versions)-1]
	return &v, nil
}

func (r *ArtifactRepository) ListVersions(ctx context.Context, artifact string) ([]*models.Version, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	state, ok := r.artifacts[artifact]
	if !ok || len(state.versions) == 0 {
		return nil, domain.ErrNotFound
	}

	versions := make([]*models.Version, len(state.versions))
	for i, v := range state.versions {
		copied := *v
		versions[i] = &copied
	}

	return versions, nil
}

func (r *ArtifactRepository) SetAlias(ctx context.Context, artifact, alias string, version int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.artifacts[artifact]
	if !ok || version < 1 || version > len(state.versions) {
		return domain.ErrNotFound
	}

	state.aliases[alias] = &models.Alias{
		Artifact:  artifact,
		Name:      alias,
		Version:   version,
		UpdatedAt: time.Now(),
	}

	return nil
}

func (r *ArtifactRepository) ResolveAlias(ctx context.Context, artifact, alias string) (*models.Alias, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	state, ok := r.artifacts[artifact]
	if !ok {
		return nil, domain.ErrNotFound
	}
	a, ok := state.aliases[alias]
	if !ok {
		return nil, domain.ErrNotFound
	}

	copied := *a
	return &copied, nil
}

func (r *ArtifactRepository) DeleteAlias(ctx context.Context, artifact, alias string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.artifacts[artifact]
	if !ok {
		return false, nil
	}
	if _, ok := state.aliases[alias]; !ok {
		return false, nil
	}

	delete(state.aliases, alias)
	return true, nil
}
