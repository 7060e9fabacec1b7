package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/korhaliv/promptforge/internal/adapters/gepa"
	"github.com/korhaliv/promptforge/internal/adapters/id"
	"github.com/korhaliv/promptforge/internal/adapters/postgres"
	"github.com/korhaliv/promptforge/internal/application/services"
	"github.com/korhaliv/promptforge/internal/dataset"
	"github.com/korhaliv/promptforge/internal/llm"
)

// optimizeCmd improves an artifact's content against a training set
func optimizeCmd() *cobra.Command {
	var (
		selector    string
		datasetPath string
		alias       string
		iterations  int
	)

	cmd := &cobra.Command{
		Use:   "optimize <artifact>",
		Short: "Optimize an artifact's content against a training set",
		Long: `Optimize the selected version's content with an evolutionary
optimizer driven by a reflection LLM, then register the improved content
as a new version:

  promptforge optimize qa.classifier --dataset trainset.jsonl --alias optimized

The baseline version is never modified.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			trainset, err := dataset.Load(datasetPath)
			if err != nil {
				return fmt.Errorf("failed to load training set: %w", err)
			}
			fmt.Printf("Loaded %d training records from %s\n", len(trainset), datasetPath)

			pool, err := initDB(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			llmClient := llm.NewClient(
				cfg.Optimizer.LLMURL,
				cfg.Optimizer.APIKey,
				cfg.Optimizer.Model,
				cfg.Optimizer.MaxTokens,
				cfg.Optimizer.Temperature,
			)

			maxIterations := iterations
			if maxIterations <= 0 {
				maxIterations = cfg.Optimizer.MaxIterations
			}

			optimizer := gepa.New(llmClient, gepa.Config{
				MaxIterations: maxIterations,
				MinibatchSize: cfg.Optimizer.MinibatchSize,
				Timeout:       time.Duration(cfg.Optimizer.TimeoutMinutes) * time.Minute,
			})

			svc := services.NewOptimizationService(
				newRegistryService(pool),
				optimizer,
				postgres.NewOptimizationRepository(pool),
				id.New(),
				maxIterations,
			)

			fmt.Printf("Optimizing %s@%s (up to %d iterations)...\n", args[0], selector, maxIterations)

			run, version, err := svc.OptimizeArtifact(ctx, args[0], selector, trainset, alias)
			if err != nil {
				if run != nil {
					fmt.Printf("Optimization run %s failed\n", run.ID)
				}
				return err
			}

			fmt.Printf("Registered %s version %d (run %s, score %.4f, %d iterations)\n",
				version.Artifact, version.Number, run.ID, run.BestScore, run.Iterations)
			if alias != "" {
				fmt.Printf("Alias %s -> version %d\n", alias, version.Number)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&selector, "selector", "s", "latest", "Baseline version selector")
	cmd.Flags().StringVarP(&datasetPath, "dataset", "d", "", "Training set file (JSON array or JSONL)")
	cmd.Flags().StringVarP(&alias, "alias", "a", "", "Alias to bind to the improved version")
	cmd.Flags().IntVarP(&iterations, "iterations", "i", 0, "Iteration budget (default from config)")
	cmd.MarkFlagRequired("dataset")

	return cmd
}
