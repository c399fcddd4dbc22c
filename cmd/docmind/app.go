package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docmind/internal/config"
	"github.com/kailas-cloud/docmind/internal/db"
	dbRedis "github.com/kailas-cloud/docmind/internal/db/redis"
	"github.com/kailas-cloud/docmind/internal/domain"
	"github.com/kailas-cloud/docmind/internal/lexical"
	"github.com/kailas-cloud/docmind/internal/metrics"
	documentrepo "github.com/kailas-cloud/docmind/internal/repository/document"
	"github.com/kailas-cloud/docmind/internal/repository/embcache"
	"github.com/kailas-cloud/docmind/internal/repository/vector"
	openaiEmb "github.com/kailas-cloud/docmind/internal/transport/openai"
	documentuc "github.com/kailas-cloud/docmind/internal/usecase/document"
	embeddinguc "github.com/kailas-cloud/docmind/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/docmind/internal/usecase/health"
	searchuc "github.com/kailas-cloud/docmind/internal/usecase/search"
)

// app is the composition root shared by the server and the CLI commands.
type app struct {
	cfg       config.Config
	logger    *zap.Logger
	store     db.Store
	documents *documentrepo.Repo
	lex       *lexical.Index

	docSvc    *documentuc.Service
	searchSvc *searchuc.Service
	healthSvc *healthuc.Service
}

func buildApp(ctx context.Context, cfg config.Config, logger *zap.Logger) (*app, error) {
	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("create vector store: %w", err)
	}

	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		return nil, fmt.Errorf("vector store not ready: %w", err)
	}
	logger.Info("Connected to vector store", zap.Strings("addrs", cfg.Database.Addrs))

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterSearchMetrics()

	vectors := vector.New(store, cfg.Embedding.Dimensions)
	if err := vectors.EnsureIndex(ctx, vector.HNSWConfig{
		M:              cfg.Index.HNSWM,
		EFConstruction: cfg.Index.HNSWEFConstruct,
	}); err != nil {
		store.Close()
		return nil, fmt.Errorf("ensure chunk index: %w", err)
	}

	docRepo, err := documentrepo.Open(cfg.Storage.SQLitePath)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("open document store: %w", err)
	}

	docEmbedder := buildEmbedder(cfg.Embedding, cfg.Embedding.DocumentInstruction, store, logger)
	queryEmbedder := buildEmbedder(cfg.Embedding, cfg.Embedding.QueryInstruction, store, logger)
	logger.Info("Embedders created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	lex := lexical.New()
	docSvc := documentuc.New(docRepo, vectors, lex, docEmbedder, cfg.Chunking.Params())

	n, err := docSvc.Reload(ctx)
	if err != nil {
		store.Close()
		_ = docRepo.Close()
		return nil, fmt.Errorf("load lexical index: %w", err)
	}
	logger.Info("Lexical index loaded", zap.Int("chunks", n))

	// Pass nil interface (not typed nil pointer!) when verification is off.
	var verifier searchuc.OwnerVerifier
	if cfg.Search.VerifyOwner() {
		verifier = docRepo
	}
	searchSvc := searchuc.New(vectors, lex, verifier, queryEmbedder, searchuc.Options{
		Alpha:         cfg.Search.AlphaValue(),
		MinSimilarity: cfg.Search.MinSimilarity,
		MinScore:      cfg.Search.MinScore,
		LexicalWait:   time.Duration(cfg.Search.LexicalWaitMS) * time.Millisecond,
	})

	healthSvc := healthuc.New(store, docRepo, newEmbeddingHealthChecker(docEmbedder), lex)

	return &app{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		documents: docRepo,
		lex:       lex,
		docSvc:    docSvc,
		searchSvc: searchSvc,
		healthSvc: healthSvc,
	}, nil
}

func (a *app) Close() {
	if err := a.documents.Close(); err != nil {
		a.logger.Warn("Failed to close document store", zap.Error(err))
	}
	a.store.Close()
}

// embeddingHealthChecker wraps domain.Embedder to implement health.EmbeddingChecker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func newEmbeddingHealthChecker(embedder domain.Embedder) *embeddingHealthChecker {
	return &embeddingHealthChecker{embedder: embedder}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Instrumented -> Instruction
func buildEmbedder(
	cfg config.EmbeddingConfig,
	instruction string,
	store db.KVStore,
	logger *zap.Logger,
) domain.Embedder {
	// Base provider (with transport metrics built-in)
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Model:      cfg.Model,
		Dimensions: cfg.Dimensions,
		Provider:   cfg.Provider,
		Logger:     logger,
	})

	var embedder domain.Embedder = base
	if store != nil {
		embedder = embcache.New(base, store, embcache.Options{
			Namespace: cfg.Model,
			TTL:       time.Duration(cfg.CacheTTLSec) * time.Second,
		}, metrics.EmbeddingCacheTotal, logger)
	}

	// Instrumented (usage + dimension check + sub-batching)
	embedder = embeddinguc.NewInstrumentedEmbedder(
		embedder, cfg.Provider, cfg.Model, cfg.Dimensions, cfg.BatchSize, logger,
	)

	// Instruction prefix (outermost: cache key includes instruction)
	if instruction != "" {
		return domain.NewInstructionEmbedder(embedder, instruction)
	}
	return embedder
}
