package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "promptforge_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "promptforge_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	RegistryOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "promptforge_registry_operations_total",
		Help: "Total registry operations",
	}, []string{"operation", "status"})

	RetrievalCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "promptforge_retrieval_calls_total",
		Help: "Total retrieval calls issued by the evaluation harness",
	}, []string{"status"})

	RetrievalCallDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "promptforge_retrieval_call_duration_seconds",
		Help:    "Retrieval call duration",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	})

	ConfigurationsDegraded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "promptforge_configurations_degraded_total",
		Help: "Configurations abandoned after exceeding the failure threshold",
	})

	EvaluationRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "promptforge_evaluation_runs_total",
		Help: "Total evaluation runs",
	}, []string{"status"})

	OptimizationRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "promptforge_optimization_runs_total",
		Help: "Total optimization runs",
	}, []string{"status"})

	OptimizationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "promptforge_optimization_duration_seconds",
		Help:    "Optimizer invocation duration",
		Buckets: []float64{1, 5, 15, 60, 300, 900, 3600},
	})

	EmbeddingRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "promptforge_embedding_request_duration_seconds",
		Help:    "Embedding request duration",
		Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5},
	})
)
