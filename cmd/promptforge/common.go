package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/korhaliv/promptforge/internal/adapters/embedding"
	"github.com/korhaliv/promptforge/internal/adapters/id"
	"github.com/korhaliv/promptforge/internal/adapters/postgres"
	"github.com/korhaliv/promptforge/internal/adapters/retrieval"
	"github.com/korhaliv/promptforge/internal/application/services"
	"github.com/korhaliv/promptforge/internal/config"
	"github.com/korhaliv/promptforge/internal/ports"
)

// Version information (set via ldflags)
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

var cfg *config.Config

// initDB initializes a database connection pool for CLI commands
func initDB(ctx context.Context) (*pgxpool.Pool, error) {
	if cfg.Database.PostgresURL == "" {
		return nil, fmt.Errorf("PostgreSQL connection required. Set PROMPTFORGE_POSTGRES_URL")
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.Database.PostgresURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	// Force UTC timezone to prevent timezone-related issues with TIMESTAMP columns
	poolConfig.ConnConfig.RuntimeParams["timezone"] = "UTC"

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create database pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return pool, nil
}

// newRegistryService wires the registry over postgres.
func newRegistryService(pool *pgxpool.Pool) *services.RegistryService {
	return services.NewRegistryService(
		postgres.NewArtifactRepository(pool),
		postgres.NewTransactionManager(pool),
		id.New(),
	)
}

// newRetriever builds the retriever selected by the configuration: the
// external HTTP search API or the pgvector-backed retriever.
func newRetriever(pool *pgxpool.Pool) (ports.Retriever, error) {
	switch cfg.Retrieval.Backend {
	case "http":
		return retrieval.NewClient(
			cfg.Retrieval.URL,
			cfg.Retrieval.APIKey,
			time.Duration(cfg.Retrieval.TimeoutSeconds)*time.Second,
		), nil
	case "pgvector":
		embedder := embedding.NewClient(
			cfg.Embedding.URL,
			cfg.Embedding.APIKey,
			cfg.Embedding.Model,
			cfg.Embedding.Dimensions,
		)
		return postgres.NewVectorRetriever(pool, embedder), nil
	default:
		return nil, fmt.Errorf("unknown retrieval backend %q", cfg.Retrieval.Backend)
	}
}

// maskSecret masks a secret string for display
func maskSecret(s string) string {
	if s == "" {
		return "(not set)"
	}
	if len(s) <= 8 {
		return "(set)"
	}
	return s[:4] + "..." + s[len(s)-4:]
}
