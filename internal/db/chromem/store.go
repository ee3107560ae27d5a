// Package chromem serves the document-level vector index from an in-process
// chromem-go database, persisted to a local directory.
package chromem

import (
	"context"
	"errors"
	"fmt"

	"github.com/philippgille/chromem-go"

	"github.com/kailas-cloud/serpdex/internal/db"
)

var errTextQuery = errors.New("chromem: text queries are not supported, pass an embedding")

// Config holds the location of the persisted database. An empty Path keeps the index in memory.
type Config struct {
	Path     string
	Compress bool
}

// Store implements db.Pinger and db.Searcher over chromem-go collections.
type Store struct {
	db *chromem.DB
}

// NewStore opens (or creates) the chromem database.
func NewStore(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return &Store{db: chromem.NewDB()}, nil
	}
	cdb, err := chromem.NewPersistentDB(cfg.Path, cfg.Compress)
	if err != nil {
		return nil, fmt.Errorf("open chromem db at %s: %w", cfg.Path, err)
	}
	return &Store{db: cdb}, nil
}

// Ping always succeeds: the index lives in process.
func (s *Store) Ping(context.Context) error { return nil }

// Close is a no-op; chromem persists on every write.
func (s *Store) Close() {}

// SearchKNN returns the K nearest documents of the collection named by q.IndexName.
// Scores are cosine similarities.
func (s *Store) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if q.IndexName == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if len(q.Vector) == 0 {
		return nil, fmt.Errorf("vector is required")
	}
	if q.K <= 0 {
		return nil, fmt.Errorf("k must be positive")
	}

	coll := s.db.GetCollection(q.IndexName, rejectTextQuery)
	if coll == nil {
		return nil, &db.Error{Op: db.OpQuery, Err: fmt.Errorf("%s: %w", q.IndexName, db.ErrIndexNotFound)}
	}

	// chromem rejects nResults above the document count.
	n := min(q.K, coll.Count())
	if n == 0 {
		return &db.SearchResult{}, nil
	}

	hits, err := coll.QueryEmbedding(ctx, q.Vector, n, nil, nil)
	if err != nil {
		return nil, &db.Error{Op: db.OpQuery, Err: err}
	}

	entries := make([]db.SearchEntry, 0, len(hits))
	for _, h := range hits {
		fields := make(map[string]string, len(h.Metadata)+1)
		for k, v := range h.Metadata {
			fields[k] = v
		}
		fields[db.FieldText] = h.Content
		entries = append(entries, db.SearchEntry{
			Key:    h.ID,
			Score:  float64(h.Similarity),
			Fields: fields,
		})
	}

	return &db.SearchResult{Total: len(entries), Entries: entries}, nil
}

func rejectTextQuery(context.Context, string) ([]float32, error) {
	return nil, errTextQuery
}
