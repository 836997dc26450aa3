// Package search runs product search: category inference, query embedding, filtered
// retrieval with fallbacks, relevance ranking and result assembly.
package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hyperjump/kaimono/internal/category"
	"github.com/hyperjump/kaimono/internal/config"
	"github.com/hyperjump/kaimono/internal/embedding"
	"github.com/hyperjump/kaimono/internal/metrics"
	"github.com/hyperjump/kaimono/internal/models"
	"github.com/hyperjump/kaimono/internal/ranking"
	"github.com/hyperjump/kaimono/internal/retrieval"
	"github.com/hyperjump/kaimono/internal/storage"
	"github.com/hyperjump/kaimono/internal/vector"
	"github.com/hyperjump/kaimono/pkg/utils"
	"go.uber.org/zap"
)

// Search outcome labels reported to the metrics recorder.
const (
	StatusOK             = "ok"
	StatusBadRequest     = "bad_request"
	StatusEmbeddingError = "embedding_error"
	StatusRetrievalError = "retrieval_error"
	StatusError          = "error"
)

// Engine runs the search pipeline. It holds only read-only state after construction and
// is safe for concurrent use.
type Engine struct {
	index     vector.Index
	resolver  *category.Resolver
	builder   *embedding.QueryBuilder
	retriever *retrieval.Engine
	ranker    *ranking.Ranker
	assembler *Assembler
	config    *config.SearchConfig
	recorder  metrics.Recorder
	logger    *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger passed down to every pipeline stage.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = utils.OrNop(l) }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(e *Engine) {
		if r != nil {
			e.recorder = r
		}
	}
}

// WithResolver replaces the default category rules.
func WithResolver(r *category.Resolver) Option {
	return func(e *Engine) {
		if r != nil {
			e.resolver = r
		}
	}
}

// NewEngine creates a search engine over the given catalog, embedder and index.
// cfg supplies the embedding, vector, search and ranking sections; defaults are applied
// to a copy.
func NewEngine(catalog storage.Catalog, embedder embedding.Embedder, index vector.Index, cfg *config.Config, opts ...Option) *Engine {
	c := config.Config{}
	if cfg != nil {
		c = *cfg
	}
	config.ApplyDefaults(&c)

	e := &Engine{
		index:    index,
		resolver: category.NewResolver(nil),
		config:   &c.Search,
		recorder: metrics.Nop{},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.builder = embedding.NewQueryBuilder(embedder,
		embedding.WithWeights(c.Embedding.TextWeight, c.Embedding.ImageWeight),
		embedding.WithDimensions(c.Embedding.Dimensions),
		embedding.WithTimeout(c.Embedding.Timeout),
	)
	e.retriever = retrieval.NewEngine(index,
		retrieval.WithOverfetch(c.Search.Overfetch),
		retrieval.WithRelaxFactor(c.Search.RelaxFactor),
		retrieval.WithTimeout(c.Vector.Timeout),
		retrieval.WithLogger(e.logger),
	)
	rankingCfg := c.Ranking
	e.ranker = ranking.NewRanker(&rankingCfg, ranking.WithLogger(e.logger))
	e.assembler = NewAssembler(catalog, e.recorder, e.logger)
	return e
}

// Search runs the pipeline for one query. Embedding and retrieval failures abort the
// request; no partial results are returned.
func (e *Engine) Search(ctx context.Context, query *models.Query) (resp *models.SearchResponse, err error) {
	start := time.Now()
	defer func() {
		e.recorder.SearchCompleted(Status(err), time.Since(start))
	}()

	if err := ProcessQuery(query, e.config); err != nil {
		return nil, err
	}

	cat, inferred := query.Category, false
	if cat == "" && query.HasText() {
		cat, inferred = e.resolver.Resolve(query.Text)
	}

	vec, err := e.builder.Build(ctx, query.Text, query.Image)
	if err != nil {
		return nil, err
	}

	res, err := e.retriever.Retrieve(ctx, retrieval.Request{
		Vector:    vec,
		OwnerID:   query.OwnerID,
		Category:  cat,
		Limit:     query.Limit,
		Threshold: query.MinScore,
	})
	if err != nil {
		return nil, err
	}
	e.recorder.RetrievalStep(string(res.Step))

	analyzed := e.ranker.AnalyzeQuery(query.Text, query.HasImage())
	scored := e.ranker.Rank(analyzed, res.Hits)

	effective := cat
	if res.Category != "" {
		effective = res.Category
	}
	results := e.assembler.Assemble(ctx, scored, AssembleOptions{
		Limit:          query.Limit,
		ColorRequested: analyzed.HasColor(),
		ColorMatch: func(p *models.Product) bool {
			return e.ranker.Scorer().ColorMatch(analyzed, ranking.ProductText{Name: p.Name, Description: p.Description, Category: p.Category})
		},
		Category: effective,
	})

	e.logger.Debug("search completed",
		zap.String("query", query.Text),
		zap.String("analysis", analyzed.String()),
		zap.String("category", cat),
		zap.Bool("category_inferred", inferred),
		zap.String("step", string(res.Step)),
		zap.Int("attempts", res.Attempts),
		zap.Int("candidates", len(res.Hits)),
		zap.Int("admitted", len(scored)),
		zap.Int("results", len(results)),
	)

	return &models.SearchResponse{
		Results:          results,
		Total:            len(results),
		Query:            query.Text,
		Category:         cat,
		CategoryInferred: inferred,
		HasImage:         query.HasImage(),
		RetrievalStep:    string(res.Step),
		Attempts:         res.Attempts,
		Candidates:       len(res.Hits),
		QueryTime:        time.Since(start).Milliseconds(),
	}, nil
}

// Status classifies a Search error for metrics and logs.
func Status(err error) string {
	var ee *embedding.EmbeddingError
	var re *retrieval.RetrievalError
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, models.ErrEmptyQuery), embedding.IsNoInput(err):
		return StatusBadRequest
	case errors.As(err, &ee):
		return StatusEmbeddingError
	case errors.As(err, &re):
		return StatusRetrievalError
	default:
		return StatusError
	}
}

// IndexCount returns the number of points in the vector index.
func (e *Engine) IndexCount(ctx context.Context) (int, error) {
	n, err := e.index.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count index points: %w", err)
	}
	return n, nil
}

// IndexType returns the vector index type ("qdrant" or "memory").
func (e *Engine) IndexType() string {
	return e.index.Type()
}

// Ranker returns the ranker, for explaining scores.
func (e *Engine) Ranker() *ranking.Ranker {
	return e.ranker
}
