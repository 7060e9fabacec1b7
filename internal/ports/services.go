package ports

import (
	"context"

	"github.com/korhaliv/promptforge/internal/domain/models"
)

// Candidate is one ranked retrieval result.
type Candidate struct {
	ID    string  `json:"id"`
	Score float32 `json:"score"`
}

// Retriever returns ranked candidate identifiers for a query. The config
// map carries the axis values of the configuration under evaluation
// (model, strategy, ...); implementations interpret the keys they know.
type Retriever interface {
	Retrieve(ctx context.Context, config map[string]string, query string, limit int) ([]Candidate, error)
}

// EmbeddingResult contains an embedding vector and its metadata.
type EmbeddingResult struct {
	Embedding  []float32
	Model      string
	Dimensions int
}

// EmbeddingService converts text into embedding vectors.
type EmbeddingService interface {
	Embed(ctx context.Context, text string) (*EmbeddingResult, error)
	EmbedBatch(ctx context.Context, texts []string) ([]*EmbeddingResult, error)
	GetDimensions() int
}

// OptimizedContent is the outcome of one optimizer invocation.
type OptimizedContent struct {
	Content    string
	Score      float64
	Iterations int
}

// Optimizer improves artifact content against a training set. The
// optimization engine itself is an external capability; implementations
// only adapt its inputs and outputs.
type Optimizer interface {
	Optimize(ctx context.Context, content string, trainset []models.Record) (*OptimizedContent, error)
}
