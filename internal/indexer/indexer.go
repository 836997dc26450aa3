// Package indexer stores products in the catalog and indexes their embeddings in the
// vector index.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hyperjump/kaimono/internal/config"
	"github.com/hyperjump/kaimono/internal/embedding"
	"github.com/hyperjump/kaimono/internal/importer"
	"github.com/hyperjump/kaimono/internal/metrics"
	"github.com/hyperjump/kaimono/internal/models"
	"github.com/hyperjump/kaimono/internal/pointid"
	"github.com/hyperjump/kaimono/internal/storage"
	"github.com/hyperjump/kaimono/internal/vector"
	"github.com/hyperjump/kaimono/pkg/utils"
)

// Indexer keeps the catalog and the vector index in step.
type Indexer struct {
	catalog     storage.Catalog
	embedder    embedding.Embedder
	index       vector.Index
	config      config.IngestConfig
	textWeight  float64
	imageWeight float64
	httpClient  *http.Client
	recorder    metrics.Recorder
	logger      *zap.Logger

	mu   sync.Mutex
	seen map[string]fileStamp
}

type fileStamp struct {
	mtime int64
	size  int64
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLogger sets a logger for debug output (product indexed, product deleted, etc.).
func WithLogger(l *zap.Logger) IndexerOption {
	return func(idx *Indexer) { idx.logger = utils.OrNop(l) }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) IndexerOption {
	return func(idx *Indexer) {
		if r != nil {
			idx.recorder = r
		}
	}
}

// WithHTTPClient sets the client used to fetch product images.
func WithHTTPClient(c *http.Client) IndexerOption {
	return func(idx *Indexer) {
		if c != nil {
			idx.httpClient = c
		}
	}
}

// NewIndexer creates an indexer with the given dependencies. cfg supplies the ingest
// settings and the text/image fusion weights; defaults are applied to a copy.
func NewIndexer(
	catalog storage.Catalog,
	embedder embedding.Embedder,
	index vector.Index,
	cfg *config.Config,
	opts ...IndexerOption,
) *Indexer {
	c := config.Config{}
	if cfg != nil {
		c = *cfg
	}
	config.ApplyDefaults(&c)

	idx := &Indexer{
		catalog:     catalog,
		embedder:    embedder,
		index:       index,
		config:      c.Ingest,
		textWeight:  c.Embedding.TextWeight,
		imageWeight: c.Embedding.ImageWeight,
		httpClient:  &http.Client{},
		recorder:    metrics.Nop{},
		logger:      zap.NewNop(),
		seen:        make(map[string]fileStamp),
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// IndexProduct validates, stores and indexes one product. A missing id is assigned a
// new UUID. Image bytes, or failing those the image URL, add an image embedding fused
// with the text embedding; image failures are logged and the product is indexed on text.
func (idx *Indexer) IndexProduct(ctx context.Context, input *models.ProductInput) (*models.Product, error) {
	p, err := idx.indexProduct(ctx, input)
	if err != nil {
		idx.recorder.ProductIndexed("error")
		return nil, err
	}
	idx.recorder.ProductIndexed("ok")
	return p, nil
}

func (idx *Indexer) indexProduct(ctx context.Context, input *models.ProductInput) (*models.Product, error) {
	if input.ID == "" {
		input.ID = uuid.NewString()
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}
	p := input.Product()
	Preprocess(p)

	point, err := idx.point(ctx, p, input.Image)
	if err != nil {
		return nil, err
	}
	if err := idx.catalog.PutProduct(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to store product: %w", err)
	}
	if err := idx.index.Upsert(ctx, []vector.Point{point}); err != nil {
		return nil, fmt.Errorf("failed to index product: %w", err)
	}
	idx.logger.Debug("indexer product indexed",
		zap.String("id", p.ID),
		zap.String("point_id", point.ID),
		zap.Bool("has_image", point.Payload.HasImage),
	)
	return p, nil
}

// point embeds p and builds its vector point.
func (idx *Indexer) point(ctx context.Context, p *models.Product, image []byte) (vector.Point, error) {
	textVec, err := idx.embedder.EmbedText(ctx, p.EmbeddingText())
	if err != nil {
		return vector.Point{}, fmt.Errorf("failed to embed product text: %w", err)
	}

	vec, hasImage := textVec, false
	if len(image) == 0 && p.ImageURL != "" {
		if image, err = idx.fetchImage(ctx, p.ImageURL); err != nil {
			idx.logger.Warn("indexer image fetch failed",
				zap.String("id", p.ID), zap.String("image_url", p.ImageURL), zap.Error(err))
		}
	}
	if len(image) > 0 {
		imageVec, err := idx.embedder.EmbedImage(ctx, image)
		if err == nil {
			vec, err = embedding.Fuse(textVec, imageVec, idx.textWeight, idx.imageWeight)
		}
		if err != nil {
			idx.logger.Warn("indexer image embedding skipped", zap.String("id", p.ID), zap.Error(err))
			vec = textVec
		} else {
			hasImage = true
		}
	}

	return vector.Point{
		ID:      pointid.For(p.ID),
		Vector:  vec,
		Payload: models.PayloadFor(p, hasImage),
	}, nil
}

// ItemError reports a product that could not be indexed.
type ItemError struct {
	Index int    `json:"index"`
	ID    string `json:"id,omitempty"`
	Error string `json:"error"`
}

// BatchResult summarizes a batch.
type BatchResult struct {
	Indexed int         `json:"indexed"`
	Failed  []ItemError `json:"failed,omitempty"`
	// IDs of the indexed products, in input order.
	IDs []string `json:"ids,omitempty"`
}

// IndexProducts indexes inputs with bounded concurrency. Per-product failures are
// collected in the result; only context cancellation aborts the batch.
func (idx *Indexer) IndexProducts(ctx context.Context, inputs []*models.ProductInput) (*BatchResult, error) {
	ids := make([]string, len(inputs))
	errs := make([]error, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(idx.config.Concurrency)
	for i, in := range inputs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p, err := idx.IndexProduct(gctx, in)
			if err != nil {
				errs[i] = err
				return nil
			}
			ids[i] = p.ID
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &BatchResult{}
	for i, err := range errs {
		if err != nil {
			res.Failed = append(res.Failed, ItemError{Index: i, ID: inputs[i].ID, Error: err.Error()})
			continue
		}
		res.Indexed++
		res.IDs = append(res.IDs, ids[i])
	}
	idx.logger.Info("indexer batch complete",
		zap.Int("indexed", res.Indexed),
		zap.Int("failed", len(res.Failed)),
	)
	return res, nil
}

// DeleteProduct removes a product's point and its catalog record. It returns
// storage.ErrNotFound when the catalog has no such product.
func (idx *Indexer) DeleteProduct(ctx context.Context, id string) error {
	idx.logger.Debug("indexer deleting product", zap.String("id", id))
	if err := idx.index.Delete(ctx, []string{pointid.For(id)}); err != nil {
		return fmt.Errorf("failed to delete from vector index: %w", err)
	}
	if err := idx.catalog.DeleteProduct(ctx, id); err != nil {
		return err
	}
	idx.logger.Debug("indexer product deleted", zap.String("id", id))
	return nil
}

// Reindex re-embeds every catalog product and upserts its point, page by page. It
// returns the number of products reindexed and the first error.
func (idx *Indexer) Reindex(ctx context.Context) (int, error) {
	n := 0
	for offset := 0; ; offset += idx.config.ReindexBatchSize {
		page, err := idx.catalog.ListProducts(ctx, offset, idx.config.ReindexBatchSize)
		if err != nil {
			return n, fmt.Errorf("list products: %w", err)
		}
		if len(page) == 0 {
			break
		}

		points := make([]vector.Point, len(page))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(idx.config.Concurrency)
		for i, p := range page {
			g.Go(func() error {
				pt, err := idx.point(gctx, p, nil)
				if err != nil {
					return fmt.Errorf("product %s: %w", p.ID, err)
				}
				points[i] = pt
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return n, err
		}
		if err := idx.index.Upsert(ctx, points); err != nil {
			return n, fmt.Errorf("failed to index products: %w", err)
		}
		n += len(page)
		idx.logger.Info("indexer reindex progress", zap.Int("products", n))

		if len(page) < idx.config.ReindexBatchSize {
			break
		}
	}
	return n, nil
}

// ImportFile parses a product file and indexes its products. If allowedExts is non-nil
// and non-empty, the file's extension must be in the list (case-insensitive). A file
// already imported with the same mtime and size is skipped and reported as nil, nil.
func (idx *Indexer) ImportFile(ctx context.Context, path string, allowedExts []string) (*BatchResult, error) {
	idx.logger.Debug("indexer importing file", zap.String("path", path))
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(absPath))
	if len(allowedExts) > 0 && !extensionAllowed(ext, allowedExts) {
		return nil, fmt.Errorf("extension %q not in allowed list", ext)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("not a regular file: %s", absPath)
	}
	stamp := fileStamp{mtime: info.ModTime().UnixNano(), size: info.Size()}
	if idx.unchanged(absPath, stamp) {
		idx.logger.Debug("indexer skipping unchanged file", zap.String("path", absPath))
		return nil, nil
	}

	inputs, err := importer.ImportFile(absPath)
	if err != nil {
		return nil, err
	}
	res, err := idx.IndexProducts(ctx, inputs)
	if err != nil {
		return nil, err
	}
	idx.mu.Lock()
	idx.seen[absPath] = stamp
	idx.mu.Unlock()
	idx.logger.Info("indexer file imported",
		zap.String("path", absPath),
		zap.Int("indexed", res.Indexed),
		zap.Int("failed", len(res.Failed)),
	)
	return res, nil
}

// Forget drops the recorded stamp of path so the next ImportFile re-reads it.
func (idx *Indexer) Forget(path string) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return
	}
	idx.mu.Lock()
	delete(idx.seen, absPath)
	idx.mu.Unlock()
}

func (idx *Indexer) unchanged(path string, stamp fileStamp) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	prev, ok := idx.seen[path]
	return ok && prev == stamp
}

// ImportDirectory walks dir recursively and imports each regular file whose extension
// is in allowedExts (if non-nil and non-empty; otherwise every importable file).
// Returns the combined result and the first error encountered, if any.
func (idx *Indexer) ImportDirectory(ctx context.Context, dir string, allowedExts []string) (*BatchResult, error) {
	total := &BatchResult{}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return total, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(absDir)
	if err != nil {
		return total, fmt.Errorf("stat directory: %w", err)
	}
	if !info.IsDir() {
		return total, fmt.Errorf("not a directory: %s", absDir)
	}
	err = filepath.WalkDir(absDir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if len(allowedExts) > 0 && !extensionAllowed(ext, allowedExts) {
			return nil
		}
		if !importer.Supported(path) {
			return nil
		}
		// Resolve symlinks so we only import regular files
		finfo, statErr := os.Stat(path)
		if statErr != nil || !finfo.Mode().IsRegular() {
			return nil
		}
		res, importErr := idx.ImportFile(ctx, path, allowedExts)
		if importErr != nil {
			return importErr
		}
		if res != nil {
			total.Indexed += res.Indexed
			total.Failed = append(total.Failed, res.Failed...)
			total.IDs = append(total.IDs, res.IDs...)
		}
		return nil
	})
	return total, err
}

func extensionAllowed(ext string, allowed []string) bool {
	extNorm := strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, a := range allowed {
		if strings.ToLower(strings.TrimPrefix(a, ".")) == extNorm {
			return true
		}
	}
	return false
}

// IsNotFound reports whether err means the product does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, storage.ErrNotFound)
}

// Stats reports catalog and index sizes.
type Stats struct {
	Products  int64  `json:"products"`
	Points    int    `json:"points"`
	IndexType string `json:"index_type"`
	Elapsed   string `json:"elapsed,omitempty"`
}

// Stats counts catalog products and index points.
func (idx *Indexer) Stats(ctx context.Context) (*Stats, error) {
	start := time.Now()
	products, err := idx.catalog.CountProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}
	points, err := idx.index.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count index points: %w", err)
	}
	return &Stats{
		Products:  products,
		Points:    points,
		IndexType: idx.index.Type(),
		Elapsed:   time.Since(start).String(),
	}, nil
}
