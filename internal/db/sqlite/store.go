// Package sqlite reads per-URL chunk rows from a local SQLite file where
// chunk embeddings are JSON arrays.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // driver

	"github.com/kailas-cloud/serpdex/internal/db"
)

// Compile-time check: Store implements db.ChunkStore.
var _ db.ChunkStore = (*Store)(nil)

// Config holds the database file and table name. Path ":memory:" opens a private in-memory DB.
type Config struct {
	Path  string
	Table string
}

// Store implements db.ChunkStore via sqlx and go-sqlite3.
type Store struct {
	db    *sqlx.DB
	table string
}

type chunkRow struct {
	URL        string         `db:"url"`
	Title      sql.NullString `db:"title"`
	Dataset    sql.NullString `db:"dataset"`
	Metadata   sql.NullString `db:"metadata"`
	TextChunks sql.NullString `db:"text_chunks"`
	Embeddings sql.NullString `db:"embeddings"`
}

// NewStore opens the database file.
func NewStore(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	if cfg.Table == "" {
		return nil, fmt.Errorf("table is required")
	}

	conn, err := sqlx.Connect("sqlite3", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite %s: %w", cfg.Path, err)
	}
	if cfg.Path == ":memory:" {
		// every new connection would see its own empty database
		conn.SetMaxOpenConns(1)
	}

	return &Store{db: conn, table: quoteIdent(cfg.Table)}, nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	return nil
}

// Close closes the database handle.
func (s *Store) Close() {
	_ = s.db.Close()
}

// FetchChunks returns the rows for the given URLs. URLs absent from the table are simply missing.
func (s *Store) FetchChunks(ctx context.Context, urls []string) ([]db.ChunkRow, error) {
	if len(urls) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(
		"SELECT url, title, dataset, metadata, text_chunks, embeddings FROM "+s.table+" WHERE url IN (?)",
		urls,
	)
	if err != nil {
		return nil, &db.Error{Op: db.OpFetchChunks, Err: err}
	}

	var rows []chunkRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, &db.Error{Op: db.OpFetchChunks, Err: err}
	}

	out := make([]db.ChunkRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, db.ChunkRow{
			URL:        r.URL,
			Title:      nullable(r.Title),
			Dataset:    nullable(r.Dataset),
			Metadata:   []byte(r.Metadata.String),
			TextChunks: []byte(r.TextChunks.String),
			Embeddings: []byte(r.Embeddings.String),
			Format:     db.EmbeddingJSON,
		})
	}
	return out, nil
}

func nullable(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
