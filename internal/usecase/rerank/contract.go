// Package rerank refines broad search hits: by best matching chunk, then by domain authority.
package rerank

import (
	"context"

	"github.com/kailas-cloud/serpdex/internal/domain/chunk"
)

// ChunkSource loads chunk records for a set of URLs.
type ChunkSource interface {
	FetchRecords(ctx context.Context, urls []string) ([]chunk.Record, error)
}
