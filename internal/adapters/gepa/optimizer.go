// Package gepa adapts dspy-go's GEPA optimizer to the Optimizer port: the
// evolutionary engine itself is consumed as-is, this package only maps
// artifact content and dataset records onto its inputs and outputs.
package gepa

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/XiaoConstantine/dspy-go/pkg/core"
	"github.com/XiaoConstantine/dspy-go/pkg/modules"
	"github.com/XiaoConstantine/dspy-go/pkg/optimizers"

	"github.com/korhaliv/promptforge/internal/domain"
	"github.com/korhaliv/promptforge/internal/domain/models"
	"github.com/korhaliv/promptforge/internal/llm"
	"github.com/korhaliv/promptforge/internal/ports"
)

// Config tunes one optimizer invocation.
type Config struct {
	// MaxIterations maps onto GEPA generations at roughly ten iterations
	// per generation.
	MaxIterations int
	// MinibatchSize is the evaluation batch per candidate.
	MinibatchSize int
	// Timeout bounds the whole invocation.
	Timeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		MaxIterations: 100,
		MinibatchSize: 8,
		Timeout:       30 * time.Minute,
	}
}

// Optimizer implements ports.Optimizer on dspy-go's GEPA.
type Optimizer struct {
	client *llm.Client
	cfg    Config
	logger *slog.Logger
}

func New(client *llm.Client, cfg Config) *Optimizer {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultConfig().MaxIterations
	}
	if cfg.MinibatchSize <= 0 {
		cfg.MinibatchSize = DefaultConfig().MinibatchSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}

	return &Optimizer{
		client: client,
		cfg:    cfg,
		logger: slog.Default().With("component", "gepa"),
	}
}

func (o *Optimizer) Optimize(ctx context.Context, content string, trainset []models.Record) (*ports.OptimizedContent, error) {
	if len(trainset) == 0 {
		return nil, domain.NewDomainError(domain.ErrEmptyDataset, "optimizer needs a training set")
	}

	core.SetDefaultLLM(NewClientAdapter(o.client))

	signature := core.NewSignature(
		[]core.InputField{{Field: core.NewField("query")}},
		[]core.OutputField{{Field: core.NewField("response")}},
	).WithInstruction(content)

	predict := modules.NewPredict(signature)
	program := core.NewProgram(
		map[string]core.Module{"respond": predict},
		func(ctx context.Context, inputs map[string]interface{}) (map[string]interface{}, error) {
			return predict.Process(ctx, inputs)
		},
	)

	gepaConfig := &optimizers.GEPAConfig{
		MaxGenerations:       max(1, o.cfg.MaxIterations/10),
		PopulationSize:       20,
		MutationRate:         0.3,
		CrossoverRate:        0.7,
		ElitismRate:          0.1,
		ReflectionFreq:       2,
		ReflectionDepth:      3,
		SelfCritiqueTemp:     0.7,
		TournamentSize:       3,
		SelectionStrategy:    "adaptive_pareto",
		ConvergenceThreshold: 0.01,
		StagnationLimit:      3,
		EvaluationBatchSize:  o.cfg.MinibatchSize,
		ConcurrencyLevel:     3,
		Temperature:          0.8,
		MaxTokens:            500,
	}

	gepaOptimizer, err := optimizers.NewGEPA(gepaConfig)
	if err != nil {
		return nil, domain.NewDomainError(domain.ErrOptimizationFailed,
			fmt.Sprintf("failed to create optimizer: %v", err))
	}

	optimizeCtx, cancel := context.WithTimeout(ctx, o.cfg.Timeout)
	defer cancel()

	o.logger.Info("optimization started",
		"generations", gepaConfig.MaxGenerations,
		"trainset", len(trainset))

	dataset := newRecordDataset(trainset)
	var metric core.Metric = ScoreExample

	if _, err := gepaOptimizer.Compile(optimizeCtx, program, dataset, metric); err != nil {
		return nil, domain.NewDomainError(domain.ErrOptimizationFailed,
			fmt.Sprintf("compile failed: %v", err))
	}

	state := gepaOptimizer.GetOptimizationState()
	if state == nil || state.BestCandidate == nil {
		return nil, domain.NewDomainError(domain.ErrOptimizationFailed, "optimizer produced no candidate")
	}

	improved := state.BestCandidate.Instruction
	if improved == "" {
		return nil, domain.NewDomainError(domain.ErrOptimizationFailed, "best candidate has empty instruction")
	}

	o.logger.Info("optimization finished",
		"score", state.BestCandidate.Fitness,
		"generation", state.BestCandidate.Generation)

	return &ports.OptimizedContent{
		Content:    improved,
		Score:      state.BestCandidate.Fitness,
		Iterations: state.BestCandidate.Generation,
	}, nil
}
