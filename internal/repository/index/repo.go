// Package index runs the broad vector search over the document-level index.
package index

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/kailas-cloud/serpdex/internal/db"
	"github.com/kailas-cloud/serpdex/internal/domain/search/result"
	"github.com/kailas-cloud/serpdex/internal/logger"
)

// store is the consumer interface for KNN search (ISP).
type store interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

// Repo implements usecase/search.VectorIndex.
type Repo struct {
	store     store
	indexName string
}

// New creates an index repository over the named index (FT index or chromem collection).
func New(s store, indexName string) *Repo {
	return &Repo{store: s, indexName: indexName}
}

// Search returns up to k results ordered by descending similarity.
// Broad results carry url, text and score only.
func (r *Repo) Search(ctx context.Context, vector []float32, k int) ([]result.Result, error) {
	sr, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    r.indexName,
		Vector:       vector,
		K:            k,
		ReturnFields: []string{db.FieldURL, db.FieldText},
	})
	if err != nil {
		return nil, fmt.Errorf("search knn %s: %w", r.indexName, err)
	}

	return parseEntries(ctx, sr), nil
}

func parseEntries(ctx context.Context, sr *db.SearchResult) []result.Result {
	if sr == nil || len(sr.Entries) == 0 {
		return nil
	}

	results := make([]result.Result, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		url := entry.Fields[db.FieldURL]
		if url == "" {
			logger.FromContext(ctx).Warn("Index entry without url, skipping", zap.String("key", entry.Key))
			continue
		}
		results = append(results, result.New(entry.Score, url, nil, nil, map[string]any{}, entry.Fields[db.FieldText]))
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score() > results[j].Score()
	})
	return results
}
