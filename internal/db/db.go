package db

import (
	"context"
	"time"
)

// Store is the vector index facade: connectivity, KV for the embedding cache, and KNN search.
type Store interface {
	Pinger
	KVStore
	Searcher
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KVStore provides simple key-value operations.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Searcher provides vector similarity search over a document-level index.
type Searcher interface {
	SearchKNN(ctx context.Context, q *KNNQuery) (*SearchResult, error)
}

// ChunkStore is the relational store holding per-URL sub-chunks and their embeddings.
type ChunkStore interface {
	Pinger
	FetchChunks(ctx context.Context, urls []string) ([]ChunkRow, error)
	Close()
}
