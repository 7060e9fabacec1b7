package main

import (
	"fmt"
	"os"

	"github.com/korhaliv/promptforge/internal/config"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "promptforge",
		Short: "Promptforge - prompt registry and evaluation harness",
		Long: `Promptforge versions prompt artifacts, sweeps retrieval
configurations over labeled datasets, and improves prompts with an
evolutionary optimizer.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			return nil
		},
	}

	rootCmd.AddCommand(
		registerCmd(),
		getCmd(),
		versionsCmd(),
		aliasCmd(),
		unaliasCmd(),
		evaluateCmd(),
		optimizeCmd(),
		serveCmd(),
		configCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// configCmd shows current configuration
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("Current configuration:")
			fmt.Println()

			fmt.Println("Database:")
			fmt.Printf("  PostgreSQL: %s\n", maskSecret(cfg.Database.PostgresURL))
			fmt.Println()

			fmt.Println("Retrieval:")
			fmt.Printf("  Backend: %s\n", cfg.Retrieval.Backend)
			fmt.Printf("  URL:     %s\n", cfg.Retrieval.URL)
			fmt.Printf("  API Key: %s\n", maskSecret(cfg.Retrieval.APIKey))
			fmt.Println()

			fmt.Println("Embedding:")
			fmt.Printf("  URL:        %s\n", cfg.Embedding.URL)
			fmt.Printf("  Model:      %s\n", cfg.Embedding.Model)
			fmt.Printf("  Dimensions: %d\n", cfg.Embedding.Dimensions)
			fmt.Printf("  API Key:    %s\n", maskSecret(cfg.Embedding.APIKey))
			fmt.Println()

			fmt.Println("Optimizer:")
			fmt.Printf("  LLM URL:        %s\n", cfg.Optimizer.LLMURL)
			fmt.Printf("  Model:          %s\n", cfg.Optimizer.Model)
			fmt.Printf("  Max Tokens:     %d\n", cfg.Optimizer.MaxTokens)
			fmt.Printf("  Temperature:    %.2f\n", cfg.Optimizer.Temperature)
			fmt.Printf("  Max Iterations: %d\n", cfg.Optimizer.MaxIterations)
			fmt.Printf("  API Key:        %s\n", maskSecret(cfg.Optimizer.APIKey))
			fmt.Println()

			fmt.Println("Harness:")
			fmt.Printf("  Cutoffs:              %v\n", cfg.Harness.Cutoffs)
			fmt.Printf("  Concurrency:          %d\n", cfg.Harness.Concurrency)
			fmt.Printf("  Query Timeout:        %ds\n", cfg.Harness.QueryTimeoutSeconds)
			fmt.Printf("  Max Failure Fraction: %.2f\n", cfg.Harness.MaxFailureFraction)
			fmt.Println()

			fmt.Println("Environment variables:")
			fmt.Println("  PROMPTFORGE_POSTGRES_URL")
			fmt.Println("  PROMPTFORGE_RETRIEVAL_BACKEND, PROMPTFORGE_RETRIEVAL_URL, PROMPTFORGE_RETRIEVAL_API_KEY")
			fmt.Println("  PROMPTFORGE_EMBEDDING_URL, PROMPTFORGE_EMBEDDING_MODEL, PROMPTFORGE_EMBEDDING_DIMENSIONS")
			fmt.Println("  PROMPTFORGE_LLM_URL, PROMPTFORGE_LLM_MODEL, PROMPTFORGE_OPTIMIZER_MAX_ITERATIONS")
			fmt.Println("  PROMPTFORGE_HARNESS_CUTOFFS, PROMPTFORGE_HARNESS_CONCURRENCY")
			fmt.Println("  PROMPTFORGE_SERVER_HOST, PROMPTFORGE_SERVER_PORT")

			return nil
		},
	}
}

// versionCmd shows version information
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Promptforge %s\n", version)
			fmt.Printf("  Commit:     %s\n", commit)
			fmt.Printf("  Build Date: %s\n", buildDate)
		},
	}
}
