// Package postgres reads per-URL chunk rows from PostgreSQL. Embeddings are
// stored as packed little-endian float32 bytea.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kailas-cloud/serpdex/internal/db"
)

// Compile-time check: Store implements db.ChunkStore.
var _ db.ChunkStore = (*Store)(nil)

// Config holds pool and table parameters.
type Config struct {
	DSN      string
	Table    string
	MaxConns int
	MinConns int
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Ping(ctx context.Context) error
}

// Store implements db.ChunkStore over a pgx connection pool.
type Store struct {
	q     querier
	pool  *pgxpool.Pool
	query string
}

// NewStore creates the pool and verifies connectivity.
func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("dsn is required")
	}
	if cfg.Table == "" {
		return nil, fmt.Errorf("table is required")
	}

	pcfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	pcfg.MaxConns = 10
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = int32(cfg.MaxConns) //nolint:gosec // bounded by config validation
	}
	pcfg.MinConns = 2
	if cfg.MinConns > 0 {
		pcfg.MinConns = int32(cfg.MinConns) //nolint:gosec // bounded by config validation
	}
	pcfg.MaxConnLifetime = 1 * time.Hour
	pcfg.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	s := newStore(pool, cfg.Table)
	s.pool = pool
	return s, nil
}

func newStore(q querier, table string) *Store {
	return &Store{q: q, query: selectChunksSQL(table)}
}

func selectChunksSQL(table string) string {
	return fmt.Sprintf(
		"SELECT url, title, dataset, metadata, text_chunks, embeddings FROM %s WHERE url = ANY($1)",
		pgx.Identifier{table}.Sanitize(),
	)
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.q.Ping(ctx); err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	return nil
}

// Close releases the pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// FetchChunks returns the rows for the given URLs. URLs absent from the table are simply missing.
func (s *Store) FetchChunks(ctx context.Context, urls []string) ([]db.ChunkRow, error) {
	if len(urls) == 0 {
		return nil, nil
	}

	rows, err := s.q.Query(ctx, s.query, urls)
	if err != nil {
		return nil, &db.Error{Op: db.OpFetchChunks, Err: err}
	}
	defer rows.Close()

	out := make([]db.ChunkRow, 0, len(urls))
	for rows.Next() {
		r := db.ChunkRow{Format: db.EmbeddingPacked}
		if err := rows.Scan(&r.URL, &r.Title, &r.Dataset, &r.Metadata, &r.TextChunks, &r.Embeddings); err != nil {
			return nil, &db.Error{Op: db.OpFetchChunks, Err: fmt.Errorf("scan: %w", err)}
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, &db.Error{Op: db.OpFetchChunks, Err: err}
	}
	return out, nil
}
