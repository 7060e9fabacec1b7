package services

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/korhaliv/promptforge/internal/adapters/metrics"
	"github.com/korhaliv/promptforge/internal/domain"
	"github.com/korhaliv/promptforge/internal/domain/models"
	"github.com/korhaliv/promptforge/internal/ports"
)

// Artifact names are dot-separated segments, e.g. "qa.classifier".
var nameSegment = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9_-]*$`)

// RegistryService implements the versioned artifact registry on top of an
// ArtifactRepository. A nil transaction manager runs operations directly,
// which the in-memory backend relies on.
type RegistryService struct {
	repo   ports.ArtifactRepository
	tm     ports.TransactionManager
	idGen  ports.IDGenerator
	logger *slog.Logger
}

func NewRegistryService(repo ports.ArtifactRepository, tm ports.TransactionManager, idGen ports.IDGenerator) *RegistryService {
	return &RegistryService{
		repo:   repo,
		tm:     tm,
		idGen:  idGen,
		logger: slog.Default().With("component", "registry"),
	}
}

// Register appends a new version of the named artifact. The first
// registration of a name creates version 1; content is stored verbatim.
func (s *RegistryService) Register(ctx context.Context, name, content string, metadata map[string]string) (*models.Version, error) {
	if err := validateName(name); err != nil {
		metrics.RegistryOperationsTotal.WithLabelValues("register", "invalid").Inc()
		return nil, err
	}
	if strings.TrimSpace(content) == "" {
		metrics.RegistryOperationsTotal.WithLabelValues("register", "invalid").Inc()
		return nil, domain.NewDomainError(domain.ErrInvalidArtifact, "content cannot be empty")
	}

	version := models.NewVersion(s.idGen.GenerateVersionID(), name, content, metadata)

	err := s.inTransaction(ctx, func(ctx context.Context) error {
		return s.repo.CreateVersion(ctx, version)
	})
	if err != nil {
		metrics.RegistryOperationsTotal.WithLabelValues("register", "error").Inc()
		return nil, fmt.Errorf("failed to register %s: %w", name, err)
	}

	metrics.RegistryOperationsTotal.WithLabelValues("register", "ok").Inc()
	s.logger.Info("version registered", "artifact", name, "version", version.Number)

	return version, nil
}

// Get resolves a selector against the named artifact. The selector is an
// explicit version number, "latest" (or empty), or an alias.
func (s *RegistryService) Get(ctx context.Context, name, selector string) (*models.Version, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}

	if selector == "" || selector == models.SelectorLatest {
		return s.repo.GetLatestVersion(ctx, name)
	}

	if number, err := strconv.Atoi(selector); err == nil {
		if number < 1 {
			return nil, domain.NewDomainError(domain.ErrNotFound,
				fmt.Sprintf("version numbers start at 1, got %d", number))
		}
		return s.repo.GetVersion(ctx, name, number)
	}

	alias, err := s.repo.ResolveAlias(ctx, name, selector)
	if err != nil {
		return nil, err
	}
	return s.repo.GetVersion(ctx, name, alias.Version)
}

// SetAlias binds an alias to an existing version, overwriting any prior
// binding. Aliases may not shadow the reserved selectors.
func (s *RegistryService) SetAlias(ctx context.Context, name, alias string, version int) error {
	if err := validateName(name); err != nil {
		return err
	}
	if err := validateAlias(alias); err != nil {
		return err
	}

	if err := s.repo.SetAlias(ctx, name, alias, version); err != nil {
		metrics.RegistryOperationsTotal.WithLabelValues("set_alias", "error").Inc()
		return err
	}

	metrics.RegistryOperationsTotal.WithLabelValues("set_alias", "ok").Inc()
	s.logger.Info("alias set", "artifact", name, "alias", alias, "version", version)
	return nil
}

// DeleteAlias removes an alias binding and reports whether it existed.
// Deleting an absent alias is not an error.
func (s *RegistryService) DeleteAlias(ctx context.Context, name, alias string) (bool, error) {
	if err := validateName(name); err != nil {
		return false, err
	}

	existed, err := s.repo.DeleteAlias(ctx, name, alias)
	if err != nil {
		metrics.RegistryOperationsTotal.WithLabelValues("delete_alias", "error").Inc()
		return false, err
	}

	metrics.RegistryOperationsTotal.WithLabelValues("delete_alias", "ok").Inc()
	return existed, nil
}

// ListVersions returns every version of the artifact in creation order.
func (s *RegistryService) ListVersions(ctx context.Context, name string) ([]*models.Version, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	return s.repo.ListVersions(ctx, name)
}

func (s *RegistryService) inTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.tm == nil {
		return fn(ctx)
	}
	return s.tm.WithTransaction(ctx, fn)
}

func validateName(name string) error {
	if name == "" {
		return domain.NewDomainError(domain.ErrInvalidArtifact, "artifact name cannot be empty")
	}
	segments := strings.Split(name, ".")
	if len(segments) > 3 {
		return domain.NewDomainError(domain.ErrInvalidArtifact,
			fmt.Sprintf("artifact name %q has too many segments", name))
	}
	for _, seg := range segments {
		if !nameSegment.MatchString(seg) {
			return domain.NewDomainError(domain.ErrInvalidArtifact,
				fmt.Sprintf("artifact name %q has an invalid segment %q", name, seg))
		}
	}
	return nil
}

func validateAlias(alias string) error {
	if alias == "" || alias == models.SelectorLatest {
		return domain.NewDomainError(domain.ErrInvalidAlias,
			fmt.Sprintf("alias %q is reserved", alias))
	}
	if _, err := strconv.Atoi(alias); err == nil {
		return domain.NewDomainError(domain.ErrInvalidAlias,
			"aliases cannot be numeric, they would shadow version selectors")
	}
	if !nameSegment.MatchString(alias) {
		return domain.NewDomainError(domain.ErrInvalidAlias,
			fmt.Sprintf("alias %q contains invalid characters", alias))
	}
	return nil
}
