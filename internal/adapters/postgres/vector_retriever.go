package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/korhaliv/promptforge/internal/domain"
	"github.com/korhaliv/promptforge/internal/ports"
)

// VectorRetriever implements ports.Retriever against a pgvector document
// table: the query is embedded, then candidates are ranked by cosine
// distance. The "corpus" axis value, when present, restricts the search.
type VectorRetriever struct {
	BaseRepository
	embedder ports.EmbeddingService
}

func NewVectorRetriever(pool *pgxpool.Pool, embedder ports.EmbeddingService) *VectorRetriever {
	return &VectorRetriever{
		BaseRepository: NewBaseRepository(pool),
		embedder:       embedder,
	}
}

func (r *VectorRetriever) Retrieve(ctx context.Context, config map[string]string, query string, limit int) ([]ports.Candidate, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if limit <= 0 {
		limit = 10
	}

	emb, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, domain.NewDomainError(domain.ErrRetrievalFailed,
			fmt.Sprintf("embedding query failed: %v", err))
	}

	vector := pgvector.NewVector(emb.Embedding)

	sql := `
		SELECT doc_id, 1 - (embedding <=> $1) as similarity
		FROM retrieval_documents`
	args := []any{vector}

	if corpus := config["corpus"]; corpus != "" {
		sql += ` WHERE corpus = $2`
		args = append(args, corpus)
	}
	sql += fmt.Sprintf(` ORDER BY embedding <=> $1 LIMIT $%d`, len(args)+1)
	args = append(args, limit)

	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search documents: %w", err)
	}
	defer rows.Close()

	var candidates []ports.Candidate
	for rows.Next() {
		var c ports.Candidate
		if err := rows.Scan(&c.ID, &c.Score); err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		candidates = append(candidates, c)
	}

	return candidates, rows.Err()
}

// IndexDocument inserts or replaces one document embedding.
func (r *VectorRetriever) IndexDocument(ctx context.Context, docID, corpus, content string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	emb, err := r.embedder.Embed(ctx, content)
	if err != nil {
		return fmt.Errorf("embedding document failed: %w", err)
	}

	query := `
		INSERT INTO retrieval_documents (doc_id, corpus, content, embedding, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (doc_id)
		DO UPDATE SET corpus = EXCLUDED.corpus, content = EXCLUDED.content, embedding = EXCLUDED.embedding`

	if _, err := r.conn(ctx).Exec(ctx, query, docID, corpus, content, pgvector.NewVector(emb.Embedding)); err != nil {
		return fmt.Errorf("failed to index document: %w", err)
	}

	return nil
}
