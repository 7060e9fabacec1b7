package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/korhaliv/promptforge/internal/adapters/metrics"
	"github.com/korhaliv/promptforge/internal/adapters/retry"
	"github.com/korhaliv/promptforge/internal/domain"
	"github.com/korhaliv/promptforge/internal/domain/models"
	"github.com/korhaliv/promptforge/internal/ports"
)

// Options tunes one evaluation run.
type Options struct {
	// Cutoffs are the K values for HitRate@K. The largest also sets the
	// retrieval depth and the default ranking metric.
	Cutoffs []int
	// Concurrency bounds the worker pool shared by a configuration's queries.
	Concurrency int
	// QueryTimeout applies per retrieval call.
	QueryTimeout time.Duration
	// MaxFailureFraction is the fraction of a configuration's queries that
	// may fail before the configuration is marked degraded and its
	// remaining queries are abandoned.
	MaxFailureFraction float64
}

func DefaultOptions() Options {
	return Options{
		Cutoffs:            []int{1, 5, 10},
		Concurrency:        4,
		QueryTimeout:       30 * time.Second,
		MaxFailureFraction: 0.5,
	}
}

// Runner sweeps a search space over a dataset, scoring each configuration
// with retrieval metrics. A nil repository disables persistence.
type Runner struct {
	retriever ports.Retriever
	repo      ports.EvaluationRepository
	idGen     ports.IDGenerator
	opts      Options
	logger    *slog.Logger
}

func NewRunner(retriever ports.Retriever, repo ports.EvaluationRepository, idGen ports.IDGenerator, opts Options) *Runner {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultOptions().Concurrency
	}
	if opts.QueryTimeout <= 0 {
		opts.QueryTimeout = DefaultOptions().QueryTimeout
	}
	if opts.MaxFailureFraction <= 0 || opts.MaxFailureFraction > 1 {
		opts.MaxFailureFraction = DefaultOptions().MaxFailureFraction
	}
	opts.Cutoffs = NormalizeCutoffs(opts.Cutoffs)

	return &Runner{
		retriever: retriever,
		repo:      repo,
		idGen:     idGen,
		opts:      opts,
		logger:    slog.Default().With("component", "harness"),
	}
}

// Summary is the outcome of a run: all configuration reports ranked
// best-first, and the winner.
type Summary struct {
	Run     *models.EvaluationRun
	Reports []*models.ConfigurationReport
	Best    *models.ConfigurationReport
}

// Run enumerates the space and evaluates every configuration against every
// record. Degraded configurations keep their partial aggregates; the run
// itself fails only when every configuration degrades.
func (r *Runner) Run(ctx context.Context, name string, axes []Axis, records []models.Record) (*Summary, error) {
	if len(records) == 0 {
		return nil, domain.NewDomainError(domain.ErrEmptyDataset, "evaluation needs at least one record")
	}
	for i, rec := range records {
		if err := rec.Validate(); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
	}

	configs := Enumerate(axes)
	if len(configs) == 0 {
		return nil, domain.NewDomainError(domain.ErrEmptySpace, "an axis has no values")
	}

	cutoffs := r.opts.Cutoffs
	maxK := cutoffs[len(cutoffs)-1]

	run := models.NewEvaluationRun(r.idGen.GenerateEvaluationRunID(), name, len(records), cutoffs)
	run.Config["configurations"] = len(configs)
	run.Config["concurrency"] = r.opts.Concurrency

	if r.repo != nil {
		if err := r.repo.CreateRun(ctx, run); err != nil {
			return nil, fmt.Errorf("failed to persist run: %w", err)
		}
	}

	tracer := otel.Tracer("promptforge/harness")
	ctx, span := tracer.Start(ctx, "evaluation.run")
	span.SetAttributes(
		attribute.String("run.id", run.ID),
		attribute.Int("run.configurations", len(configs)),
		attribute.Int("run.dataset_size", len(records)),
	)
	defer span.End()

	r.logger.Info("evaluation run started",
		"run_id", run.ID, "configurations", len(configs), "records", len(records))

	reports := make([]*models.ConfigurationReport, 0, len(configs))
	degradedCount := 0

	for _, cfg := range configs {
		if err := ctx.Err(); err != nil {
			run.MarkFailed(err.Error())
			r.persistRun(ctx, run)
			return nil, err
		}

		report, err := r.evaluateConfiguration(ctx, run, cfg, records, cutoffs, maxK)
		if err != nil {
			run.MarkFailed(err.Error())
			r.persistRun(context.WithoutCancel(ctx), run)
			return nil, err
		}
		if report.Degraded {
			degradedCount++
			metrics.ConfigurationsDegraded.Inc()
		}
		reports = append(reports, report)
	}

	summary := &Summary{Run: run, Reports: reports}

	if degradedCount == len(reports) {
		run.MarkFailed("every configuration exceeded the failure threshold")
		r.persistRun(ctx, run)
		metrics.EvaluationRunsTotal.WithLabelValues("failed").Inc()
		return summary, domain.NewDomainError(domain.ErrRunDegraded,
			fmt.Sprintf("run %s: all %d configurations degraded", run.ID, len(reports)))
	}

	RankReports(reports, maxK)
	summary.Best = reports[0]

	run.MarkCompleted()
	r.persistRun(ctx, run)
	metrics.EvaluationRunsTotal.WithLabelValues("completed").Inc()

	r.logger.Info("evaluation run completed",
		"run_id", run.ID,
		"best_config", summary.Best.ConfigKey,
		"best_hit_rate", summary.Best.HitRate[maxK],
		"degraded", degradedCount)

	return summary, nil
}

func (r *Runner) persistRun(ctx context.Context, run *models.EvaluationRun) {
	if r.repo == nil {
		return
	}
	if err := r.repo.UpdateRun(ctx, run); err != nil {
		r.logger.Error("failed to persist run state", "run_id", run.ID, "error", err)
	}
}

func (r *Runner) evaluateConfiguration(ctx context.Context, run *models.EvaluationRun, cfg Configuration, records []models.Record, cutoffs []int, maxK int) (*models.ConfigurationReport, error) {
	tracer := otel.Tracer("promptforge/harness")
	cfgCtx, span := tracer.Start(ctx, "evaluation.configuration")
	span.SetAttributes(attribute.String("configuration.key", cfg.Key()))
	defer span.End()

	cfgCtx, abandon := context.WithCancel(cfgCtx)
	defer abandon()

	values := cfg.Map()
	outcomes := make([]Outcome, len(records))

	// Degrade once strictly more than the allowed fraction has failed.
	allowed := int64(r.opts.MaxFailureFraction * float64(len(records)))
	var failures atomic.Int64

	g := new(errgroup.Group)
	g.SetLimit(r.opts.Concurrency)

	for i, rec := range records {
		g.Go(func() error {
			if cfgCtx.Err() != nil {
				outcomes[i] = Outcome{QueryID: rec.QueryID(), Failed: true, Err: "abandoned: configuration degraded"}
				return nil
			}
			outcomes[i] = r.evaluateQuery(cfgCtx, values, rec, maxK)
			if outcomes[i].Failed && failures.Add(1) > allowed {
				abandon()
			}
			return nil
		})
	}
	_ = g.Wait()

	degraded := failures.Load() > allowed
	if degraded {
		r.logger.Warn("configuration degraded",
			"run_id", run.ID, "config", cfg.Key(),
			"failures", failures.Load(), "allowed", allowed)
	}

	if r.repo != nil {
		for _, o := range outcomes {
			result := &models.QueryResult{
				ID:        r.idGen.GenerateQueryResultID(),
				RunID:     run.ID,
				ConfigKey: cfg.Key(),
				QueryID:   o.QueryID,
				Hit:       o.Rank > 0 && o.Rank <= maxK,
				LatencyMs: o.LatencyMs,
				Error:     o.Err,
				CreatedAt: time.Now(),
			}
			if o.Rank > 0 {
				rank := o.Rank
				result.Rank = &rank
			}
			if err := r.repo.SaveResult(ctx, result); err != nil {
				return nil, fmt.Errorf("failed to persist result for %q: %w", o.QueryID, err)
			}
		}
	}

	agg := Summarize(outcomes, cutoffs)
	report := &models.ConfigurationReport{
		ID:        r.idGen.GenerateReportID(),
		RunID:     run.ID,
		ConfigKey: cfg.Key(),
		Position:  cfg.Position,
		Values:    values,
		HitRate:   agg.HitRate,
		MRR:       agg.MRR,
		Queries:   agg.Queries,
		Failures:  agg.Failures,
		Degraded:  degraded,
		CreatedAt: time.Now(),
	}
	if !math.IsNaN(agg.AvgRank) {
		avg := agg.AvgRank
		report.AvgRank = &avg
	}

	if r.repo != nil {
		if err := r.repo.SaveReport(ctx, report); err != nil {
			return nil, fmt.Errorf("failed to persist report for %q: %w", cfg.Key(), err)
		}
	}

	return report, nil
}

func (r *Runner) evaluateQuery(ctx context.Context, values map[string]string, rec models.Record, limit int) Outcome {
	out := Outcome{QueryID: rec.QueryID()}
	expected := rec.Expectations.ExpectedResponse

	start := time.Now()
	candidates, err := r.retrieve(ctx, values, rec.Query(), limit)
	out.LatencyMs = time.Since(start).Milliseconds()

	if err != nil {
		out.Failed = true
		out.Err = err.Error()
		metrics.RetrievalCallsTotal.WithLabelValues("error").Inc()
		r.logger.Warn("retrieval call failed", "query", out.QueryID, "error", err)
		return out
	}

	metrics.RetrievalCallsTotal.WithLabelValues("ok").Inc()
	metrics.RetrievalCallDuration.Observe(time.Since(start).Seconds())

	out.Rank = RankOf(expected, candidates)
	return out
}

// retrieve issues one retrieval call with a per-call timeout and exactly
// one immediate retry when the failure looks transient.
func (r *Runner) retrieve(ctx context.Context, values map[string]string, query string, limit int) ([]ports.Candidate, error) {
	callCtx, cancel := context.WithTimeout(ctx, r.opts.QueryTimeout)
	candidates, err := r.retriever.Retrieve(callCtx, values, query, limit)
	cancel()
	if err == nil {
		return candidates, nil
	}

	// A timed-out call is transient from the run's perspective even though
	// the call context itself is past its deadline.
	transient := retry.ShouldRetry(err, 0) || errors.Is(err, context.DeadlineExceeded)
	if !transient || ctx.Err() != nil {
		return nil, err
	}

	retryCtx, cancel := context.WithTimeout(ctx, r.opts.QueryTimeout)
	defer cancel()
	return r.retriever.Retrieve(retryCtx, values, query, limit)
}
