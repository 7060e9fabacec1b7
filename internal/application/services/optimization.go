package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/korhaliv/promptforge/internal/adapters/metrics"
	"github.com/korhaliv/promptforge/internal/domain"
	"github.com/korhaliv/promptforge/internal/domain/models"
	"github.com/korhaliv/promptforge/internal/ports"
)

// OptimizationService drives the optimize-and-register workflow: fetch a
// baseline version, hand its content to the external optimizer, register
// the improved content as a new version, and optionally point an alias at
// it. Each attempt is tracked as an optimization run.
type OptimizationService struct {
	registry      *RegistryService
	optimizer     ports.Optimizer
	runs          ports.OptimizationRepository
	idGen         ports.IDGenerator
	maxIterations int
	logger        *slog.Logger
}

func NewOptimizationService(registry *RegistryService, optimizer ports.Optimizer, runs ports.OptimizationRepository, idGen ports.IDGenerator, maxIterations int) *OptimizationService {
	if maxIterations <= 0 {
		maxIterations = 100
	}
	return &OptimizationService{
		registry:      registry,
		optimizer:     optimizer,
		runs:          runs,
		idGen:         idGen,
		maxIterations: maxIterations,
		logger:        slog.Default().With("component", "optimization"),
	}
}

// OptimizeArtifact improves the selected version's content against the
// training set. The optimizer gets one retry on failure; after that the
// run is marked failed and ErrOptimizationFailed surfaces. The alias, when
// non-empty, is moved to the new version on success.
func (s *OptimizationService) OptimizeArtifact(ctx context.Context, name, selector string, trainset []models.Record, alias string) (*models.OptimizationRun, *models.Version, error) {
	if len(trainset) == 0 {
		return nil, nil, domain.NewDomainError(domain.ErrEmptyDataset, "optimization needs a training set")
	}

	baseline, err := s.registry.Get(ctx, name, selector)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve baseline %s@%s: %w", name, selector, err)
	}

	run := models.NewOptimizationRun(s.idGen.GenerateOptimizationRunID(), name, baseline.Number, s.maxIterations)
	run.Config["trainset_size"] = len(trainset)
	if err := s.runs.CreateRun(ctx, run); err != nil {
		return nil, nil, fmt.Errorf("failed to create optimization run: %w", err)
	}

	s.logger.Info("optimization run started",
		"run_id", run.ID, "artifact", name, "baseline", baseline.Number)

	start := time.Now()
	improved, err := s.optimizeWithRetry(ctx, baseline.Content, trainset)
	metrics.OptimizationDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		run.MarkFailed(err.Error())
		s.persistRun(ctx, run)
		metrics.OptimizationRunsTotal.WithLabelValues("failed").Inc()
		return run, nil, domain.NewDomainError(domain.ErrOptimizationFailed,
			fmt.Sprintf("run %s: %v", run.ID, err))
	}

	metadata := map[string]string{
		"optimization_run": run.ID,
		"score":            strconv.FormatFloat(improved.Score, 'f', 4, 64),
		"baseline_version": strconv.Itoa(baseline.Number),
	}

	version, err := s.registry.Register(ctx, name, improved.Content, metadata)
	if err != nil {
		run.MarkFailed(fmt.Sprintf("failed to register improved version: %v", err))
		s.persistRun(ctx, run)
		metrics.OptimizationRunsTotal.WithLabelValues("failed").Inc()
		return run, nil, err
	}

	if alias != "" {
		if err := s.registry.SetAlias(ctx, name, alias, version.Number); err != nil {
			// The version is already registered; surface the alias failure
			// without discarding the run's outcome.
			run.MarkCompleted(version.Number, improved.Score, improved.Iterations)
			s.persistRun(ctx, run)
			return run, version, fmt.Errorf("version %d registered but alias %q not set: %w",
				version.Number, alias, err)
		}
	}

	run.MarkCompleted(version.Number, improved.Score, improved.Iterations)
	s.persistRun(ctx, run)
	metrics.OptimizationRunsTotal.WithLabelValues("completed").Inc()

	s.logger.Info("optimization run completed",
		"run_id", run.ID, "version", version.Number, "score", improved.Score)

	return run, version, nil
}

// GetRun returns one optimization run by id.
func (s *OptimizationService) GetRun(ctx context.Context, id string) (*models.OptimizationRun, error) {
	return s.runs.GetRun(ctx, id)
}

// ListRuns returns recent runs for an artifact.
func (s *OptimizationService) ListRuns(ctx context.Context, artifact string, limit int) ([]*models.OptimizationRun, error) {
	return s.runs.ListRuns(ctx, artifact, limit)
}

// optimizeWithRetry invokes the optimizer, allowing one retry. The
// optimizer is opaque, so any first failure earns a second attempt; a
// second failure is final.
func (s *OptimizationService) optimizeWithRetry(ctx context.Context, content string, trainset []models.Record) (*ports.OptimizedContent, error) {
	improved, err := s.optimizer.Optimize(ctx, content, trainset)
	if err == nil {
		return improved, nil
	}
	if ctx.Err() != nil {
		return nil, err
	}

	s.logger.Warn("optimizer failed, retrying once", "error", err)
	return s.optimizer.Optimize(ctx, content, trainset)
}

func (s *OptimizationService) persistRun(ctx context.Context, run *models.OptimizationRun) {
	if err := s.runs.UpdateRun(ctx, run); err != nil {
		s.logger.Error("failed to persist optimization run", "run_id", run.ID, "error", err)
	}
}
