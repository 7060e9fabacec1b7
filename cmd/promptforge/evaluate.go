package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/korhaliv/promptforge/internal/adapters/id"
	"github.com/korhaliv/promptforge/internal/adapters/postgres"
	"github.com/korhaliv/promptforge/internal/dataset"
	"github.com/korhaliv/promptforge/internal/domain"
	"github.com/korhaliv/promptforge/internal/harness"
)

// evaluateCmd sweeps a configuration search space over a dataset
func evaluateCmd() *cobra.Command {
	var (
		datasetPath string
		axisFlags   []string
		cutoffs     []int
		concurrency int
		runName     string
	)

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate a configuration search space over a dataset",
		Long: `Evaluate every combination of the given axes against a labeled
dataset, scoring each configuration with HitRate@K, MRR and average rank.

Each --axis flag declares one dimension:

  promptforge evaluate --dataset queries.jsonl \
    --axis model=small,large --axis rerank=on,off --k 1,5,10

Axis declaration order is preserved; the first axis varies slowest.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			axes, err := parseAxes(axisFlags)
			if err != nil {
				return err
			}

			records, err := dataset.Load(datasetPath)
			if err != nil {
				return fmt.Errorf("failed to load dataset: %w", err)
			}
			fmt.Printf("Loaded %d records from %s\n", len(records), datasetPath)

			pool, err := initDB(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			retriever, err := newRetriever(pool)
			if err != nil {
				return err
			}

			opts := harness.Options{
				Cutoffs:            cutoffs,
				Concurrency:        concurrency,
				QueryTimeout:       time.Duration(cfg.Harness.QueryTimeoutSeconds) * time.Second,
				MaxFailureFraction: cfg.Harness.MaxFailureFraction,
			}
			if len(opts.Cutoffs) == 0 {
				opts.Cutoffs = cfg.Harness.Cutoffs
			}
			if opts.Concurrency == 0 {
				opts.Concurrency = cfg.Harness.Concurrency
			}

			runner := harness.NewRunner(retriever, postgres.NewEvaluationRepository(pool), id.New(), opts)

			summary, err := runner.Run(ctx, runName, axes, records)
			if err != nil {
				if errors.Is(err, domain.ErrRunDegraded) && summary != nil {
					printSummary(summary, opts.Cutoffs)
					return fmt.Errorf("every configuration degraded; results are partial")
				}
				return err
			}

			printSummary(summary, opts.Cutoffs)
			return nil
		},
	}

	cmd.Flags().StringVarP(&datasetPath, "dataset", "d", "", "Dataset file (JSON array or JSONL)")
	cmd.Flags().StringArrayVarP(&axisFlags, "axis", "a", nil, "Axis declaration name=v1,v2 (repeatable)")
	cmd.Flags().IntSliceVarP(&cutoffs, "k", "k", nil, "HitRate cutoffs (default from config)")
	cmd.Flags().IntVarP(&concurrency, "concurrency", "c", 0, "Concurrent queries per configuration")
	cmd.Flags().StringVarP(&runName, "name", "n", "", "Run name")
	cmd.MarkFlagRequired("dataset")

	return cmd
}

// parseAxes turns repeated "name=v1,v2" flags into ordered axes.
func parseAxes(flags []string) ([]harness.Axis, error) {
	axes := make([]harness.Axis, 0, len(flags))
	seen := make(map[string]bool, len(flags))

	for _, flag := range flags {
		name, raw, found := strings.Cut(flag, "=")
		if !found || name == "" {
			return nil, fmt.Errorf("invalid axis %q, want name=v1,v2", flag)
		}
		if seen[name] {
			return nil, fmt.Errorf("axis %q declared twice", name)
		}
		seen[name] = true

		var values []string
		for _, v := range strings.Split(raw, ",") {
			if v = strings.TrimSpace(v); v != "" {
				values = append(values, v)
			}
		}
		if len(values) == 0 {
			return nil, fmt.Errorf("axis %q has no values", name)
		}

		axes = append(axes, harness.Axis{Name: name, Values: values})
	}

	return axes, nil
}

// printSummary renders the ranked configuration reports.
func printSummary(summary *harness.Summary, cutoffs []int) {
	fmt.Printf("\nRun %s: %d configurations over %d records\n\n",
		summary.Run.ID, len(summary.Reports), summary.Run.DatasetSize)

	header := fmt.Sprintf("%-4s %-40s", "#", "CONFIGURATION")
	for _, k := range cutoffs {
		header += fmt.Sprintf(" %-8s", fmt.Sprintf("HIT@%d", k))
	}
	header += fmt.Sprintf(" %-8s %-8s %s", "MRR", "AVGRANK", "STATUS")
	fmt.Println(header)

	for i, report := range summary.Reports {
		key := report.ConfigKey
		if key == "" {
			key = "(default)"
		}
		row := fmt.Sprintf("%-4d %-40s", i+1, key)
		for _, k := range cutoffs {
			row += fmt.Sprintf(" %-8.3f", report.HitRate[k])
		}
		avgRank := "-"
		if report.AvgRank != nil {
			avgRank = fmt.Sprintf("%.2f", *report.AvgRank)
		}
		status := "ok"
		if report.Degraded {
			status = "degraded"
		}
		row += fmt.Sprintf(" %-8.3f %-8s %s", report.MRR, avgRank, status)
		fmt.Println(row)
	}

	if summary.Best != nil && !summary.Best.Degraded {
		fmt.Printf("\nBest configuration: %s\n", summary.Best.ConfigKey)
	}
}
