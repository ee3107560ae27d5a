// Package search runs the ranking pipeline: embed, broad search, dedup, rerank, truncate.
package search

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/serpdex/internal/domain"
	"github.com/kailas-cloud/serpdex/internal/domain/search/request"
	"github.com/kailas-cloud/serpdex/internal/domain/search/result"
	"github.com/kailas-cloud/serpdex/internal/logger"
)

// Timeouts bound the blocking stages. Zero disables the bound.
type Timeouts struct {
	Embed       time.Duration
	BroadSearch time.Duration
	ChunkFetch  time.Duration
}

// Metrics are the pipeline collectors. Nil fields are skipped.
type Metrics struct {
	StageDuration    *prometheus.HistogramVec
	Failures         *prometheus.CounterVec
	AuthoritySkipped prometheus.Counter
}

// Service orchestrates a single search request end to end.
type Service struct {
	embed        Embedder
	index        VectorIndex
	hierarchical HierarchicalReranker
	authority    AuthorityReranker
	timeouts     Timeouts
	metrics      Metrics
}

// New creates a search service.
func New(
	embed Embedder, index VectorIndex,
	hierarchical HierarchicalReranker, authority AuthorityReranker,
	timeouts Timeouts, m Metrics,
) *Service {
	return &Service{
		embed:        embed,
		index:        index,
		hierarchical: hierarchical,
		authority:    authority,
		timeouts:     timeouts,
		metrics:      m,
	}
}

// Search runs the pipeline for req. On failure it returns nil results and a *domain.StageError.
func (s *Service) Search(ctx context.Context, req *request.Request) ([]result.Result, error) {
	results, err := s.run(ctx, req)
	if err != nil {
		s.countFailure(err)
		return nil, err
	}
	return results, nil
}

func (s *Service) run(ctx context.Context, req *request.Request) ([]result.Result, error) {
	log := logger.FromContext(ctx)
	limits := req.Limits()

	// Embed
	start := time.Now()
	vector, err := s.embedQuery(ctx, req.Query())
	s.observe(log, domain.StageEmbed, start, len(vector))
	if err != nil {
		return nil, err
	}

	// Broad search
	start = time.Now()
	broad, err := s.broadSearch(ctx, vector, limits.Broad)
	s.observe(log, domain.StageBroadSearch, start, len(broad))
	if err != nil {
		return nil, err
	}

	// Dedup
	start = time.Now()
	urls := SelectTopURLs(broad, limits.Deduped, req.URLContains())
	s.observe(log, domain.StageDedup, start, len(urls))

	// Hierarchical rerank
	start = time.Now()
	refined, err := s.rerankChunks(ctx, vector, urls, limits.Hierarchical)
	s.observe(log, domain.StageHierarchical, start, len(refined))
	if err != nil {
		return nil, err
	}

	// Authority rerank
	final := refined
	if s.authority != nil {
		start = time.Now()
		ranked, aerr := s.authority.Rerank(ctx, refined, limits.Final)
		s.observe(log, domain.StageAuthority, start, len(ranked))
		switch {
		case errors.Is(aerr, domain.ErrFeatureDisabled):
			log.Debug("Authority rerank disabled, passing hierarchical results through")
			if s.metrics.AuthoritySkipped != nil {
				s.metrics.AuthoritySkipped.Inc()
			}
		case aerr != nil:
			return nil, aerr
		default:
			final = ranked
		}
	}

	if len(final) > limits.Final {
		final = final[:limits.Final]
	}
	return final, nil
}

func (s *Service) embedQuery(ctx context.Context, query string) ([]float32, error) {
	ctx, cancel := withTimeout(ctx, s.timeouts.Embed)
	defer cancel()

	res, err := s.embed.Embed(ctx, query)
	if err != nil {
		return nil, domain.NewStageError(domain.StageEmbed, timeoutOr(err, domain.ErrEmbeddingFailure), err)
	}
	return res.Embedding, nil
}

func (s *Service) broadSearch(ctx context.Context, vector []float32, k int) ([]result.Result, error) {
	ctx, cancel := withTimeout(ctx, s.timeouts.BroadSearch)
	defer cancel()

	res, err := s.index.Search(ctx, vector, k)
	if err != nil {
		return nil, domain.NewStageError(domain.StageBroadSearch, timeoutOr(err, domain.ErrStoreUnavailable), err)
	}
	return res, nil
}

func (s *Service) rerankChunks(
	ctx context.Context, vector []float32, urls []string, limit int,
) ([]result.Result, error) {
	ctx, cancel := withTimeout(ctx, s.timeouts.ChunkFetch)
	defer cancel()

	res, err := s.hierarchical.Rerank(ctx, vector, urls, limit)
	if err != nil {
		var se *domain.StageError
		if errors.As(err, &se) {
			return nil, err
		}
		return nil, domain.NewStageError(domain.StageHierarchical, timeoutOr(err, domain.ErrStoreUnavailable), err)
	}
	return res, nil
}

func (s *Service) observe(log *zap.Logger, stage domain.Stage, start time.Time, n int) {
	elapsed := time.Since(start)
	log.Debug("Pipeline stage finished",
		zap.String("stage", string(stage)),
		zap.Duration("duration", elapsed),
		zap.Int("count", n),
	)
	if s.metrics.StageDuration != nil {
		s.metrics.StageDuration.WithLabelValues(string(stage)).Observe(elapsed.Seconds())
	}
}

func (s *Service) countFailure(err error) {
	if s.metrics.Failures == nil {
		return
	}
	stage := "unknown"
	var se *domain.StageError
	if errors.As(err, &se) {
		stage = string(se.Stage)
	}
	s.metrics.Failures.WithLabelValues(stage, KindLabel(domain.KindOf(err))).Inc()
}

// KindLabel returns the snake_case label of an error kind.
func KindLabel(kind error) string {
	switch {
	case errors.Is(kind, domain.ErrValidation):
		return "validation_error"
	case errors.Is(kind, domain.ErrStageTimeout):
		return "stage_timeout"
	case errors.Is(kind, domain.ErrEmbeddingFailure):
		return "embedding_failure"
	case errors.Is(kind, domain.ErrStoreUnavailable):
		return "store_unavailable"
	case errors.Is(kind, domain.ErrFeatureDisabled):
		return "feature_disabled"
	case errors.Is(kind, domain.ErrMalformedRecord):
		return "malformed_record"
	}
	return "internal"
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func timeoutOr(err, kind error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.ErrStageTimeout
	}
	return kind
}
