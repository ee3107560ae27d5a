package index

import (
	"context"

	"github.com/kailas-cloud/serpdex/internal/db"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	searchKNNFn func(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

func (m *mockStore) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if m.searchKNNFn != nil {
		return m.searchKNNFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func entry(key, url, text string, score float64) db.SearchEntry {
	return db.SearchEntry{
		Key:    key,
		Score:  score,
		Fields: map[string]string{db.FieldURL: url, db.FieldText: text},
	}
}
