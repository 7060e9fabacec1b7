package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/korhaliv/promptforge/internal/adapters/embedding"
	"github.com/korhaliv/promptforge/internal/adapters/gepa"
	"github.com/korhaliv/promptforge/internal/adapters/http"
	"github.com/korhaliv/promptforge/internal/adapters/id"
	"github.com/korhaliv/promptforge/internal/adapters/postgres"
	"github.com/korhaliv/promptforge/internal/adapters/tracing"
	"github.com/korhaliv/promptforge/internal/application/services"
	"github.com/korhaliv/promptforge/internal/llm"
)

// serveCmd starts the HTTP API server
func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Start the Promptforge HTTP API server.

The server exposes the artifact registry and read access to evaluation
and optimization runs.

Required configuration:
  - PostgreSQL database (PROMPTFORGE_POSTGRES_URL)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}
}

// runServer initializes and starts the HTTP API server
func runServer(ctx context.Context) error {
	log.Println("Starting Promptforge API server...")
	log.Printf("  HTTP: http://%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Println()

	// Initialize OpenTelemetry tracing
	shutdown, err := tracing.InitTracer("promptforge-api")
	if err != nil {
		log.Printf("Warning: Failed to initialize tracing: %v", err)
	} else {
		defer func() {
			if err := shutdown(ctx); err != nil {
				log.Printf("Error shutting down tracer: %v", err)
			}
		}()
		log.Println("OpenTelemetry tracing initialized")
	}

	log.Println("Connecting to PostgreSQL...")
	pool, err := initDB(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()
	log.Println("Database connection established")

	registry := newRegistryService(pool)
	evaluationRepo := postgres.NewEvaluationRepository(pool)

	var embeddingClient *embedding.Client
	if cfg.Embedding.URL != "" {
		embeddingClient = embedding.NewClient(
			cfg.Embedding.URL,
			cfg.Embedding.APIKey,
			cfg.Embedding.Model,
			cfg.Embedding.Dimensions,
		)
		log.Println("Embedding client initialized")
	}

	llmClient := llm.NewClient(
		cfg.Optimizer.LLMURL,
		cfg.Optimizer.APIKey,
		cfg.Optimizer.Model,
		cfg.Optimizer.MaxTokens,
		cfg.Optimizer.Temperature,
	)
	optimizer := gepa.New(llmClient, gepa.Config{
		MaxIterations: cfg.Optimizer.MaxIterations,
		MinibatchSize: cfg.Optimizer.MinibatchSize,
		Timeout:       time.Duration(cfg.Optimizer.TimeoutMinutes) * time.Minute,
	})
	optimizationService := services.NewOptimizationService(
		registry,
		optimizer,
		postgres.NewOptimizationRepository(pool),
		id.New(),
		cfg.Optimizer.MaxIterations,
	)

	server := http.NewServer(cfg, registry, optimizationService, evaluationRepo, pool, embeddingClient)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		log.Printf("Received signal: %v", sig)
		log.Println("Shutting down gracefully...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Stop(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}

		log.Println("Server stopped")
		return nil
	}
}
