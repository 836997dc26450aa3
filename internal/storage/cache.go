package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/hyperjump/kaimono/internal/models"
	"github.com/hyperjump/kaimono/pkg/utils"
	"go.uber.org/zap"
)

// ErrCacheMiss indicates a cache miss.
var ErrCacheMiss = errors.New("cache miss")

// DefaultCacheTTL is how long a product stays cached.
const DefaultCacheTTL = 10 * time.Minute

// Cache is a byte-valued key/value cache.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	MGet(ctx context.Context, keys []string) (map[string][]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

// CachedCatalog is a read-through cache in front of a Catalog. Writes go to the catalog
// and invalidate the cached entry. Cache failures are logged and fall through to the
// catalog.
type CachedCatalog struct {
	Catalog
	cache  Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedCatalog wraps catalog with cache.
func NewCachedCatalog(catalog Catalog, cache Cache, ttl time.Duration, logger *zap.Logger) *CachedCatalog {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedCatalog{Catalog: catalog, cache: cache, ttl: ttl, logger: utils.OrNop(logger)}
}

func productKey(id string) string { return "product:" + id }

// GetProduct returns the cached product or loads and caches it.
func (c *CachedCatalog) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	if data, err := c.cache.Get(ctx, productKey(id)); err == nil {
		var p models.Product
		if err := json.Unmarshal(data, &p); err == nil {
			return &p, nil
		}
	} else if !errors.Is(err, ErrCacheMiss) {
		c.logger.Warn("product cache read failed", zap.String("id", id), zap.Error(err))
	}

	p, err := c.Catalog.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	c.store(ctx, p)
	return p, nil
}

// GetProducts serves what it can from the cache and loads the rest in one catalog call.
func (c *CachedCatalog) GetProducts(ctx context.Context, ids []string) (map[string]*models.Product, error) {
	out := make(map[string]*models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = productKey(id)
	}
	cached, err := c.cache.MGet(ctx, keys)
	if err != nil {
		c.logger.Warn("product cache read failed", zap.Int("keys", len(keys)), zap.Error(err))
		cached = nil
	}

	var missing []string
	for _, id := range ids {
		if data, ok := cached[productKey(id)]; ok {
			var p models.Product
			if err := json.Unmarshal(data, &p); err == nil {
				out[id] = &p
				continue
			}
		}
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		return out, nil
	}

	loaded, err := c.Catalog.GetProducts(ctx, missing)
	if err != nil {
		return nil, err
	}
	for id, p := range loaded {
		out[id] = p
		c.store(ctx, p)
	}
	return out, nil
}

// PutProduct writes through to the catalog and drops the cached entry.
func (c *CachedCatalog) PutProduct(ctx context.Context, p *models.Product) error {
	if err := c.Catalog.PutProduct(ctx, p); err != nil {
		return err
	}
	c.invalidate(ctx, p.ID)
	return nil
}

// DeleteProduct deletes from the catalog and drops the cached entry.
func (c *CachedCatalog) DeleteProduct(ctx context.Context, id string) error {
	c.invalidate(ctx, id)
	return c.Catalog.DeleteProduct(ctx, id)
}

// Close closes the cache and the catalog.
func (c *CachedCatalog) Close() error {
	cerr := c.cache.Close()
	if err := c.Catalog.Close(); err != nil {
		return err
	}
	return cerr
}

func (c *CachedCatalog) store(ctx context.Context, p *models.Product) {
	data, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, productKey(p.ID), data, c.ttl); err != nil {
		c.logger.Warn("product cache write failed", zap.String("id", p.ID), zap.Error(err))
	}
}

func (c *CachedCatalog) invalidate(ctx context.Context, id string) {
	if err := c.cache.Delete(ctx, productKey(id)); err != nil {
		c.logger.Warn("product cache invalidation failed", zap.String("id", id), zap.Error(err))
	}
}
