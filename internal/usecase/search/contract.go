package search

import (
	"context"

	"github.com/kailas-cloud/serpdex/internal/domain"
	"github.com/kailas-cloud/serpdex/internal/domain/search/result"
)

// Embedder vectorizes the query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// VectorIndex returns the k nearest document-level hits for a vector.
type VectorIndex interface {
	Search(ctx context.Context, vector []float32, k int) ([]result.Result, error)
}

// HierarchicalReranker rescores URLs by their best matching chunk.
type HierarchicalReranker interface {
	Rerank(ctx context.Context, queryVector []float32, urls []string, limit int) ([]result.Result, error)
}

// AuthorityReranker blends scores with domain authority. A disabled reranker
// returns domain.ErrFeatureDisabled.
type AuthorityReranker interface {
	Rerank(ctx context.Context, results []result.Result, limit int) ([]result.Result, error)
}
