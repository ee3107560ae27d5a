package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/serpdex/internal/config"
	"github.com/kailas-cloud/serpdex/internal/db"
	dbChromem "github.com/kailas-cloud/serpdex/internal/db/chromem"
	dbPostgres "github.com/kailas-cloud/serpdex/internal/db/postgres"
	dbRedis "github.com/kailas-cloud/serpdex/internal/db/redis"
	dbSQLite "github.com/kailas-cloud/serpdex/internal/db/sqlite"
	"github.com/kailas-cloud/serpdex/internal/domain"
	"github.com/kailas-cloud/serpdex/internal/domain/authority"
	logpkg "github.com/kailas-cloud/serpdex/internal/logger"
	"github.com/kailas-cloud/serpdex/internal/metrics"
	chunkrepo "github.com/kailas-cloud/serpdex/internal/repository/chunk"
	"github.com/kailas-cloud/serpdex/internal/repository/domainrank"
	"github.com/kailas-cloud/serpdex/internal/repository/embcache"
	indexrepo "github.com/kailas-cloud/serpdex/internal/repository/index"
	chiTransport "github.com/kailas-cloud/serpdex/internal/transport/chi"
	openaiEmb "github.com/kailas-cloud/serpdex/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/serpdex/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/serpdex/internal/usecase/health"
	"github.com/kailas-cloud/serpdex/internal/usecase/rerank"
	searchuc "github.com/kailas-cloud/serpdex/internal/usecase/search"
	"github.com/kailas-cloud/serpdex/internal/version"
)

// vectorIndex is what the composition root needs from a vector index backend.
type vectorIndex interface {
	db.Pinger
	db.Searcher
	Close()
}

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting serpdex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("vector_index_driver", cfg.VectorIndex.Driver),
		zap.String("chunk_store_driver", cfg.ChunkStore.Driver),
		zap.Bool("authority_enabled", cfg.Authority.Enabled),
	)

	ctx := context.Background()

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterPipelineMetrics()

	index, kv, err := openVectorIndex(ctx, &cfg.VectorIndex)
	if err != nil {
		logger.Fatal("Failed to open vector index", zap.Error(err))
	}
	defer index.Close()
	logger.Info("Connected to vector index", zap.String("index", cfg.VectorIndex.IndexName))

	chunks, err := openChunkStore(ctx, &cfg.ChunkStore)
	if err != nil {
		logger.Fatal("Failed to open chunk store", zap.Error(err))
	}
	defer chunks.Close()
	logger.Info("Connected to chunk store", zap.String("table", cfg.ChunkStore.Table))

	module, err := loadAuthority(&cfg.Authority)
	if err != nil {
		logger.Fatal("Failed to load domain authority table", zap.Error(err))
	}
	if module.IsEnabled() {
		logger.Info("Domain authority rerank enabled",
			zap.Float64("importance", module.Importance()),
			zap.Int("domains", module.Table().Len()),
		)
	}

	// Build the query embedder chain, composition root
	var cache kvCache
	if cfg.Cache.Enabled {
		cache = kv
	}
	embedder := buildEmbedder(&cfg.Embedding, cfg.ChunkStore.Dim, cache,
		time.Duration(cfg.Cache.TTLSec)*time.Second, logger)
	logger.Info("Embedder created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Bool("cache", cache != nil),
	)

	// Repositories and use cases
	indexRepo := indexrepo.New(index, cfg.VectorIndex.IndexName)
	chunkRepo := chunkrepo.New(chunks, chunkrepo.Config{
		Dim:         cfg.ChunkStore.Dim,
		BatchSize:   cfg.ChunkStore.BatchSize,
		MaxParallel: cfg.ChunkStore.MaxParallel,
	}, metrics.MalformedChunkRecordsTotal)

	searchSvc := searchuc.New(
		embedder,
		indexRepo,
		rerank.NewHierarchical(chunkRepo),
		rerank.NewAuthority(module),
		searchuc.Timeouts{
			Embed:       config.Duration(cfg.Timeouts.EmbedMs),
			BroadSearch: config.Duration(cfg.Timeouts.BroadSearchMs),
			ChunkFetch:  config.Duration(cfg.Timeouts.ChunkFetchMs),
		},
		searchuc.Metrics{
			StageDuration:    metrics.StageDuration,
			Failures:         metrics.PipelineFailuresTotal,
			AuthoritySkipped: metrics.AuthorityDegradedTotal,
		},
	)

	var embHealth healthuc.EmbeddingChecker
	if hc, ok := embedder.(domain.HealthChecker); ok {
		embHealth = hc
	}
	healthSvc := healthuc.New(index, chunks, embHealth)

	server := chiTransport.NewServer(searchSvc, healthSvc, cfg.RequestLimits(), logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           server.Router(),
		ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		ReadHeaderTimeout: time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// kvCache is the embedding cache backend; only the rueidis store provides it.
type kvCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// openVectorIndex connects the configured index. kv is nil for chromem.
func openVectorIndex(ctx context.Context, cfg *config.VectorIndexConfig) (vectorIndex, kvCache, error) {
	switch cfg.Driver {
	case config.DriverRedis, config.DriverValkey:
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Addrs,
			Username: cfg.Username,
			Password: cfg.Password,
			DB:       cfg.DB,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("create %s store: %w", cfg.Driver, err)
		}
		if err := store.WaitForReady(ctx, time.Duration(cfg.ReadinessTimeout)*time.Second); err != nil {
			store.Close()
			return nil, nil, fmt.Errorf("%s not ready: %w", cfg.Driver, err)
		}
		return store, store, nil
	case config.DriverChromem:
		store, err := dbChromem.NewStore(dbChromem.Config{Path: cfg.Path, Compress: cfg.Compress})
		if err != nil {
			return nil, nil, fmt.Errorf("create chromem store: %w", err)
		}
		return store, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown vector index driver %q", cfg.Driver)
	}
}

func openChunkStore(ctx context.Context, cfg *config.ChunkStoreConfig) (db.ChunkStore, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		store, err := dbPostgres.NewStore(ctx, dbPostgres.Config{
			DSN:      cfg.DSN,
			Table:    cfg.Table,
			MaxConns: cfg.MaxConns,
			MinConns: cfg.MinConns,
		})
		if err != nil {
			return nil, fmt.Errorf("create postgres store: %w", err)
		}
		return store, nil
	case config.DriverSQLite:
		store, err := dbSQLite.NewStore(dbSQLite.Config{Path: cfg.Path, Table: cfg.Table})
		if err != nil {
			return nil, fmt.Errorf("create sqlite store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown chunk store driver %q", cfg.Driver)
	}
}

func loadAuthority(cfg *config.AuthorityConfig) (authority.Module, error) {
	if !cfg.Enabled {
		return authority.Disabled(), nil
	}
	table, err := domainrank.Load(cfg.File)
	if err != nil {
		return authority.Module{}, fmt.Errorf("load %s: %w", cfg.File, err)
	}
	m, err := authority.Enabled(cfg.Importance, table)
	if err != nil {
		return authority.Module{}, fmt.Errorf("authority module: %w", err)
	}
	return m, nil
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Instrumented -> Instruction
func buildEmbedder(
	cfg *config.EmbeddingConfig,
	dim int,
	cache kvCache,
	cacheTTL time.Duration,
	logger *zap.Logger,
) domain.Embedder {
	// Base provider (with transport metrics built-in)
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Model:      cfg.Model,
		Dimensions: cfg.Dimensions,
		Provider:   cfg.Provider,
		Timeout:    time.Duration(cfg.TimeoutSec) * time.Second,
		Logger:     logger,
	})

	var embedder domain.Embedder = base
	if cache != nil {
		embedder = embcache.New(base, cache, cfg.Model, cacheTTL, metrics.EmbeddingCacheTotal, logger)
	}

	// Instrumented (dimension check + logging)
	embedder = embeddinguc.NewInstrumentedEmbedder(embedder, cfg.Provider, cfg.Model, dim, logger)

	// Instruction prefix (outermost, so the cache key includes it)
	if cfg.Instruction != "" {
		return domain.NewInstructionEmbedder(embedder, cfg.Instruction)
	}

	return embedder
}
