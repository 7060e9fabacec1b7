package http

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/korhaliv/promptforge/internal/adapters/embedding"
	"github.com/korhaliv/promptforge/internal/adapters/http/handlers"
	"github.com/korhaliv/promptforge/internal/adapters/http/middleware"
	"github.com/korhaliv/promptforge/internal/application/services"
	"github.com/korhaliv/promptforge/internal/config"
	"github.com/korhaliv/promptforge/internal/ports"
)

type Server struct {
	config          *config.Config
	router          *chi.Mux
	httpServer      *http.Server
	registry        *services.RegistryService
	optimization    *services.OptimizationService
	evaluationRepo  ports.EvaluationRepository
	db              *pgxpool.Pool
	embeddingClient *embedding.Client
}

func NewServer(
	cfg *config.Config,
	registry *services.RegistryService,
	optimization *services.OptimizationService,
	evaluationRepo ports.EvaluationRepository,
	db *pgxpool.Pool,
	embeddingClient *embedding.Client,
) *Server {
	s := &Server{
		config:          cfg,
		registry:        registry,
		optimization:    optimization,
		evaluationRepo:  evaluationRepo,
		db:              db,
		embeddingClient: embeddingClient,
	}

	s.setupRouter()
	return s
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recovery)
	r.Use(middleware.Metrics)

	healthHandler := handlers.NewHealthHandler()
	detailedHealthHandler := handlers.NewHealthHandlerWithDeps(s.db, s.embeddingClient)
	r.Get("/health", healthHandler.Handle)
	r.Get("/health/detailed", detailedHealthHandler.HandleDetailed)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		artifactsHandler := handlers.NewArtifactsHandler(s.registry)
		r.Post("/artifacts/{name}/versions", artifactsHandler.Register)
		r.Get("/artifacts/{name}/versions", artifactsHandler.List)
		r.Get("/artifacts/{name}/versions/{selector}", artifactsHandler.Get)
		r.Put("/artifacts/{name}/aliases/{alias}", artifactsHandler.SetAlias)
		r.Delete("/artifacts/{name}/aliases/{alias}", artifactsHandler.DeleteAlias)

		if s.evaluationRepo != nil {
			runsHandler := handlers.NewRunsHandler(s.evaluationRepo)
			r.Get("/runs", runsHandler.List)
			r.Get("/runs/{id}", runsHandler.Get)
			r.Get("/runs/{id}/reports", runsHandler.GetReports)
			r.Get("/runs/{id}/results", runsHandler.GetResults)
		}

		if s.optimization != nil {
			optimizationsHandler := handlers.NewOptimizationsHandler(s.optimization)
			r.Get("/optimizations", optimizationsHandler.List)
			r.Get("/optimizations/{id}", optimizationsHandler.Get)
		}
	})

	s.router = r
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("Starting HTTP server on %s", addr)
	return s.httpServer.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}

	log.Println("Shutting down HTTP server...")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) Router() *chi.Mux {
	return s.router
}
