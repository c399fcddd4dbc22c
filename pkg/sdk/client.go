package docmind

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/docmind/internal/chunker"
	"github.com/kailas-cloud/docmind/internal/db"
	dbRedis "github.com/kailas-cloud/docmind/internal/db/redis"
	"github.com/kailas-cloud/docmind/internal/domain"
	"github.com/kailas-cloud/docmind/internal/domain/search/request"
	"github.com/kailas-cloud/docmind/internal/domain/search/result"
	"github.com/kailas-cloud/docmind/internal/lexical"
	documentrepo "github.com/kailas-cloud/docmind/internal/repository/document"
	"github.com/kailas-cloud/docmind/internal/repository/vector"
	documentuc "github.com/kailas-cloud/docmind/internal/usecase/document"
	healthuc "github.com/kailas-cloud/docmind/internal/usecase/health"
	searchuc "github.com/kailas-cloud/docmind/internal/usecase/search"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultSQLitePath       = "docmind.db"
	defaultHNSWM            = 16
	defaultHNSWEFConstruct  = 200
	defaultChunkSize        = 500
	defaultChunkOverlap     = 50
)

// Внутренние интерфейсы для подмены в тестах.
type documentUseCase interface {
	Ingest(ctx context.Context, ownerID string, up documentuc.Upload) (domain.Document, error)
	List(ctx context.Context, ownerID string) ([]domain.Document, error)
	Get(ctx context.Context, ownerID string, id int64) (domain.Document, error)
	Delete(ctx context.Context, ownerID string, id int64) (int, error)
	Reload(ctx context.Context) (int, error)
}

type searchUseCase interface {
	Search(ctx context.Context, req *request.Request) ([]result.Result, error)
}

type closer interface {
	Close() error
}

// Client is the docmind SDK entry point.
type Client struct {
	store     db.Store
	documents closer
	docSvc    documentUseCase
	searchSvc searchUseCase
	healthSvc healthUseCase
	obs       *observer
	limits    request.Limits
}

// New creates a docmind Client, connects to Redis, opens the document store
// and loads the lexical index from it.
// The provided context is used for the readiness check and the initial load.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		sqlitePath:      defaultSQLitePath,
		hnswM:           defaultHNSWM,
		hnswEFConstruct: defaultHNSWEFConstruct,
		chunkSize:       defaultChunkSize,
		chunkOverlap:    defaultChunkOverlap,
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.addrs,
		Password: cfg.password,
	})
	if err != nil {
		return nil, fmt.Errorf("docmind: create redis store: %w", err)
	}

	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("docmind: database not ready: %w", err)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		store.Close()
		return nil, err
	}

	c, err := wireClient(ctx, store, cfg, obs)
	if err != nil {
		store.Close()
		return nil, err
	}
	return c, nil
}

func (cfg *clientConfig) validate() error {
	if len(cfg.addrs) == 0 {
		return errors.New("docmind: database address required (use WithRedis)")
	}
	if cfg.vectorDimensions <= 0 {
		return errors.New("docmind: vector dimensions required (use WithVectorDimensions)")
	}
	if cfg.alpha != nil && (*cfg.alpha < 0 || *cfg.alpha > 1) {
		return fmt.Errorf("docmind: alpha must be in [0, 1], got %v", *cfg.alpha)
	}
	if err := cfg.chunking().Validate(); err != nil {
		return fmt.Errorf("docmind: %w", err)
	}
	lim := cfg.searchLimits()
	if cfg.defaultTopK < 0 || cfg.maxTopK < 0 || lim.DefaultTopK > lim.MaxTopK {
		return fmt.Errorf("docmind: top_k defaults must satisfy 1 <= default <= max, got %d/%d",
			lim.DefaultTopK, lim.MaxTopK)
	}
	return nil
}

func (cfg *clientConfig) searchLimits() request.Limits {
	lim := request.Limits{DefaultTopK: request.DefaultTopK, MaxTopK: request.MaxTopK}
	if cfg.defaultTopK > 0 {
		lim.DefaultTopK = cfg.defaultTopK
	}
	if cfg.maxTopK > 0 {
		lim.MaxTopK = cfg.maxTopK
	}
	return lim
}

func (cfg *clientConfig) chunking() chunker.Params {
	return chunker.Params{Size: cfg.chunkSize, Overlap: cfg.chunkOverlap}
}

func (cfg *clientConfig) searchOptions() searchuc.Options {
	alpha := searchuc.DefaultAlpha
	if cfg.alpha != nil {
		alpha = *cfg.alpha
	}
	return searchuc.Options{
		Alpha:         alpha,
		MinSimilarity: cfg.minSimilarity,
		MinScore:      cfg.minScore,
	}
}

func wireClient(ctx context.Context, store db.Store, cfg *clientConfig, obs *observer) (*Client, error) {
	vectors := vector.New(store, cfg.vectorDimensions)
	if err := vectors.EnsureIndex(ctx, vector.HNSWConfig{
		M:              cfg.hnswM,
		EFConstruction: cfg.hnswEFConstruct,
	}); err != nil {
		return nil, fmt.Errorf("docmind: ensure index: %w", err)
	}

	docRepo, err := documentrepo.Open(cfg.sqlitePath)
	if err != nil {
		return nil, fmt.Errorf("docmind: open document store: %w", err)
	}

	// Embedder: noop если не задан (ingest и search вернут ошибку)
	var domEmb domain.Embedder = &noopEmbedder{}
	if cfg.embedder != nil {
		domEmb = &embedderAdapter{inner: cfg.embedder}
	}

	lex := lexical.New()
	docSvc := documentuc.New(docRepo, vectors, lex, domEmb, cfg.chunking())
	if _, err := docSvc.Reload(ctx); err != nil {
		_ = docRepo.Close()
		return nil, fmt.Errorf("docmind: load lexical index: %w", err)
	}

	searchSvc := searchuc.New(vectors, lex, docRepo, domEmb, cfg.searchOptions())
	healthSvc := healthuc.New(store, docRepo, nil, lex)

	return &Client{
		store:     store,
		documents: docRepo,
		docSvc:    docSvc,
		searchSvc: searchSvc,
		healthSvc: healthSvc,
		obs:       obs,
		limits:    cfg.searchLimits(),
	}, nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.documents != nil {
		_ = c.documents.Close()
	}
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}
