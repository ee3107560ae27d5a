// Package chunk fetches and decodes per-URL sub-chunk records from the chunk store.
package chunk

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/serpdex/internal/db"
	"github.com/kailas-cloud/serpdex/internal/domain/chunk"
	"github.com/kailas-cloud/serpdex/internal/logger"
)

// Defaults for Config.
const (
	DefaultDim         = 768
	DefaultBatchSize   = 256
	DefaultMaxParallel = 4
)

// store is the consumer interface for chunk lookups (ISP).
type store interface {
	FetchChunks(ctx context.Context, urls []string) ([]db.ChunkRow, error)
}

// Config controls decoding and batching.
type Config struct {
	Dim         int
	BatchSize   int
	MaxParallel int
}

// Repo implements usecase/rerank.ChunkSource.
type Repo struct {
	store     store
	cfg       Config
	malformed prometheus.Counter
}

// New creates a chunk repository. malformed counts dropped rows and may be nil.
func New(s store, cfg Config, malformed prometheus.Counter) *Repo {
	if cfg.Dim <= 0 {
		cfg.Dim = DefaultDim
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.MaxParallel <= 0 {
		cfg.MaxParallel = DefaultMaxParallel
	}
	return &Repo{store: s, cfg: cfg, malformed: malformed}
}

// FetchRecords loads the records of urls. Missing URLs are absent from the result,
// malformed rows are logged and dropped. Any batch failure fails the whole call.
func (r *Repo) FetchRecords(ctx context.Context, urls []string) ([]chunk.Record, error) {
	if len(urls) == 0 {
		return nil, nil
	}

	batches := split(urls, r.cfg.BatchSize)
	rows := make([][]db.ChunkRow, len(batches))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.MaxParallel)
	for i, batch := range batches {
		g.Go(func() error {
			got, err := r.store.FetchChunks(gctx, batch)
			if err != nil {
				return fmt.Errorf("fetch batch %d (%d urls): %w", i, len(batch), err)
			}
			rows[i] = got
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	log := logger.FromContext(ctx)
	seen := make(map[string]struct{}, len(urls))
	records := make([]chunk.Record, 0, len(urls))
	for _, batch := range rows {
		for _, row := range batch {
			if _, dup := seen[row.URL]; dup {
				continue
			}
			rec, err := decodeRow(row, r.cfg.Dim)
			if errors.Is(err, errBadMetadata) {
				log.Warn("Chunk metadata is not valid JSON, using empty object",
					zap.String("url", row.URL), zap.Error(err))
			} else if err != nil {
				log.Warn("Dropping malformed chunk record", zap.String("url", row.URL), zap.Error(err))
				if r.malformed != nil {
					r.malformed.Inc()
				}
				continue
			}
			seen[row.URL] = struct{}{}
			records = append(records, rec)
		}
	}
	return records, nil
}

func split(urls []string, size int) [][]string {
	out := make([][]string, 0, (len(urls)+size-1)/size)
	for start := 0; start < len(urls); start += size {
		out = append(out, urls[start:min(start+size, len(urls))])
	}
	return out
}
