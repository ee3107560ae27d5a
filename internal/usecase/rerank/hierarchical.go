package rerank

import (
	"context"
	"errors"
	"slices"

	"go.uber.org/zap"

	"github.com/kailas-cloud/serpdex/internal/domain"
	"github.com/kailas-cloud/serpdex/internal/domain/chunk"
	"github.com/kailas-cloud/serpdex/internal/domain/search/result"
	"github.com/kailas-cloud/serpdex/internal/logger"
)

// Hierarchical scores every URL by its best matching chunk.
type Hierarchical struct {
	chunks ChunkSource
}

// NewHierarchical creates a hierarchical reranker.
func NewHierarchical(chunks ChunkSource) *Hierarchical {
	return &Hierarchical{chunks: chunks}
}

// Rerank returns at most limit results, one per URL found in the chunk store,
// ordered by descending similarity. Ties keep the order of urls.
func (h *Hierarchical) Rerank(
	ctx context.Context, queryVector []float32, urls []string, limit int,
) ([]result.Result, error) {
	if limit <= 0 || len(urls) == 0 {
		return []result.Result{}, nil
	}

	records, err := h.chunks.FetchRecords(ctx, urls)
	if err != nil {
		kind := domain.ErrStoreUnavailable
		if errors.Is(err, context.DeadlineExceeded) {
			kind = domain.ErrStageTimeout
		}
		return nil, domain.NewStageError(domain.StageHierarchical, kind, err)
	}

	byURL := make(map[string]chunk.Record, len(records))
	for _, rec := range records {
		byURL[rec.URL] = rec
	}

	log := logger.FromContext(ctx)
	out := make([]result.Result, 0, min(len(urls), len(records)))
	for _, u := range urls {
		rec, ok := byURL[u]
		if !ok {
			continue
		}
		delete(byURL, u)

		idx, score := bestChunk(queryVector, rec.Embeddings)
		if idx < 0 {
			log.Warn("No scorable chunk for url, dropping",
				zap.String("url", u), zap.Int("chunks", len(rec.Chunks)))
			continue
		}
		out = append(out, result.New(score, rec.URL, rec.Title, rec.Dataset, rec.Metadata, rec.Chunks[idx]))
	}

	sortByScore(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// bestChunk returns the index of the first embedding with the strictly greatest
// similarity to query, or -1 if none is scorable.
func bestChunk(query []float32, embeddings [][]float32) (int, float64) {
	best, bestScore := -1, 0.0
	for i, emb := range embeddings {
		s, ok := Cosine(query, emb)
		if !ok {
			continue
		}
		if best < 0 || s > bestScore {
			best, bestScore = i, s
		}
	}
	return best, bestScore
}

func sortByScore(rs []result.Result) {
	slices.SortStableFunc(rs, func(a, b result.Result) int {
		switch {
		case a.Score() > b.Score():
			return -1
		case a.Score() < b.Score():
			return 1
		}
		return 0
	})
}
