package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/kaimono/internal/config"
	"github.com/hyperjump/kaimono/internal/embedding"
	"github.com/hyperjump/kaimono/internal/indexer"
	"github.com/hyperjump/kaimono/internal/metrics"
	"github.com/hyperjump/kaimono/internal/search"
	"github.com/hyperjump/kaimono/internal/storage"
	"github.com/hyperjump/kaimono/internal/vector"
)

// Components holds initialized services.
type Components struct {
	Catalog     storage.Catalog
	Embedder    embedding.Embedder
	VectorIndex vector.Index
	Metrics     *metrics.Metrics
	Engine      *search.Engine
	Indexer     *indexer.Indexer

	snapshotPath string
	logger       *zap.Logger
}

// Close saves the memory index snapshot (when the index is in-memory) and releases
// every component.
func (c *Components) Close() {
	if mem, ok := c.VectorIndex.(*vector.MemoryIndex); ok && c.snapshotPath != "" {
		if err := mem.Save(c.snapshotPath); err != nil {
			c.logger.Warn("vector index save failed", zap.String("path", c.snapshotPath), zap.Error(err))
		}
	}
	if c.Catalog != nil {
		_ = c.Catalog.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.VectorIndex != nil {
		_ = c.VectorIndex.Close()
	}
}

func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Components, error) {
	c := &Components{logger: logger, Metrics: metrics.New()}

	catalog, err := newCatalog(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	c.Catalog = catalog

	embedder, err := newEmbedder(cfg.Embedding, logger)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Embedder = embedder

	vecOpts := vector.Options{
		Type:       cfg.Vector.Type,
		Dimensions: cfg.Embedding.Dimensions,
		Qdrant: vector.QdrantOptions{
			Host:       cfg.Vector.Qdrant.Host,
			Port:       cfg.Vector.Qdrant.Port,
			APIKey:     cfg.Vector.Qdrant.APIKey,
			UseTLS:     cfg.Vector.Qdrant.UseTLS,
			Collection: cfg.Vector.Qdrant.Collection,
		},
	}
	if vector.IndexType(cfg.Vector.Type) == vector.IndexTypeMemory {
		vecOpts.SnapshotPath = cfg.Storage.MemoryIndexPath
		c.snapshotPath = cfg.Storage.MemoryIndexPath
	}
	vectorIndex, err := vector.NewIndex(ctx, vecOpts)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize vector index: %w", err)
	}
	c.VectorIndex = vectorIndex
	logger.Info("vector index initialized",
		zap.String("type", vectorIndex.Type()),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	c.Engine = search.NewEngine(catalog, embedder, vectorIndex, cfg,
		search.WithLogger(logger),
		search.WithRecorder(c.Metrics),
	)
	c.Indexer = indexer.NewIndexer(catalog, embedder, vectorIndex, cfg,
		indexer.WithLogger(logger),
		indexer.WithRecorder(c.Metrics),
	)
	return c, nil
}

// newCatalog opens the SQLite catalog and, when redis.addr is set, puts the Redis
// read-through cache in front of it.
func newCatalog(ctx context.Context, cfg *config.Config, logger *zap.Logger) (storage.Catalog, error) {
	sqlite, err := storage.NewSQLiteCatalog(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize catalog: %w", err)
	}
	if cfg.Redis.Addr == "" {
		return sqlite, nil
	}
	cache, err := storage.NewRedisCache(ctx, storage.RedisOptions{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
		Prefix:   cfg.Redis.Prefix,
	})
	if err != nil {
		logger.Warn("redis unavailable, catalog cache disabled", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		return sqlite, nil
	}
	logger.Info("catalog cache enabled", zap.String("addr", cfg.Redis.Addr), zap.Duration("ttl", cfg.Redis.TTL))
	return storage.NewCachedCatalog(sqlite, cache, cfg.Redis.TTL, logger), nil
}

// newEmbedder builds the configured embedder, wrapped in the LRU cache when
// embedding.cache_size > 0.
func newEmbedder(cfg config.EmbeddingConfig, logger *zap.Logger) (embedding.Embedder, error) {
	var e embedding.Embedder
	switch cfg.Provider {
	case "http":
		e = embedding.NewHTTPEmbedder(cfg.Endpoint, cfg.Model, cfg.Dimensions, cfg.Timeout)
	case "onnx":
		onnx, err := embedding.NewONNXEmbedder(cfg.ModelPath, cfg.Dimensions, cfg.MaxTokens)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize onnx embedder: %w", err)
		}
		e = onnx
	case "mock":
		logger.Warn("using mock embedder; search results are not meaningful")
		e = embedding.NewMockEmbedder(cfg.Dimensions)
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s (supported: http, onnx, mock)", cfg.Provider)
	}
	logger.Info("embedder initialized",
		zap.String("provider", cfg.Provider),
		zap.Int("dimensions", cfg.Dimensions),
		zap.Int("cache_size", cfg.CacheSize),
	)
	if cfg.CacheSize > 0 {
		return embedding.NewCachedEmbedder(e, cfg.CacheSize), nil
	}
	return e, nil
}
