// Package retrieval runs filtered nearest-neighbour queries against the vector index,
// falling back to category case variants and then to an unfiltered, relaxed query when
// the filtered query finds nothing.
package retrieval

import (
	"context"
	"fmt"
	"time"

	"github.com/hyperjump/kaimono/internal/category"
	"github.com/hyperjump/kaimono/internal/models"
	"github.com/hyperjump/kaimono/internal/vector"
	"github.com/hyperjump/kaimono/pkg/utils"
	"go.uber.org/zap"
)

// Step names the attempt that produced a result.
type Step string

const (
	StepPrimary     Step = "primary"
	StepCaseVariant Step = "case_variant"
	StepUnfiltered  Step = "unfiltered"
	// StepNone means every attempt succeeded but returned nothing.
	StepNone Step = "none"
)

// MaxAttempts bounds the index calls per request: primary, three case variants and the
// unfiltered query.
const MaxAttempts = 5

const (
	DefaultOverfetch   = 2
	DefaultRelaxFactor = 0.8
	DefaultTimeout     = 5 * time.Second
)

// RetrievalError reports an index failure. Step is the attempt that failed.
type RetrievalError struct {
	Step Step
	Err  error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieval %s: %v", e.Step, e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }

// Request is the input to Retrieve.
type Request struct {
	Vector    []float32
	OwnerID   string
	Category  string
	Limit     int
	Threshold float64
}

// Result holds the hits of the first successful attempt, ordered by descending score.
type Result struct {
	Hits     []models.RetrievalHit
	Step     Step
	Attempts int
	// Category is the category value that matched, which may be a case variant.
	Category string
}

// Engine issues the retrieval attempts.
type Engine struct {
	index       vector.Index
	overfetch   int
	relaxFactor float64
	timeout     time.Duration
	logger      *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithOverfetch sets the multiplier applied to the limit for every index call.
func WithOverfetch(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.overfetch = n
		}
	}
}

// WithRelaxFactor sets the threshold multiplier for the unfiltered attempt.
func WithRelaxFactor(f float64) Option {
	return func(e *Engine) {
		if f > 0 {
			e.relaxFactor = f
		}
	}
}

// WithTimeout bounds each index call; zero or negative disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) { e.timeout = d }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = utils.OrNop(l) }
}

// NewEngine returns an engine over index.
func NewEngine(index vector.Index, opts ...Option) *Engine {
	e := &Engine{
		index:       index,
		overfetch:   DefaultOverfetch,
		relaxFactor: DefaultRelaxFactor,
		timeout:     DefaultTimeout,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Retrieve runs the primary query and, only when it returns nothing under a category
// filter, the case-variant and unfiltered fallbacks. An index error ends the sequence
// immediately with a *RetrievalError.
func (e *Engine) Retrieve(ctx context.Context, req Request) (*Result, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = models.DefaultLimit
	}
	fetch := limit * e.overfetch
	filter := vector.Filter{OwnerID: req.OwnerID, Category: req.Category}
	res := &Result{Step: StepNone}

	hits, err := e.search(ctx, res, req.Vector, StepPrimary, filter, fetch, req.Threshold)
	if err != nil {
		return nil, err
	}
	if len(hits) > 0 || req.Category == "" {
		if len(hits) > 0 {
			res.Step, res.Hits, res.Category = StepPrimary, hits, req.Category
		}
		return res, nil
	}

	for _, variant := range category.CaseVariants(req.Category) {
		f := filter
		f.Category = variant
		hits, err := e.search(ctx, res, req.Vector, StepCaseVariant, f, fetch, req.Threshold)
		if err != nil {
			return nil, err
		}
		if len(hits) > 0 {
			e.logger.Info("category matched by case variant",
				zap.String("category", req.Category),
				zap.String("variant", variant),
				zap.Int("hits", len(hits)),
			)
			res.Step, res.Hits, res.Category = StepCaseVariant, hits, variant
			return res, nil
		}
	}

	relaxed := req.Threshold * e.relaxFactor
	f := vector.Filter{OwnerID: req.OwnerID}
	hits, err = e.search(ctx, res, req.Vector, StepUnfiltered, f, fetch, relaxed)
	if err != nil {
		return nil, err
	}
	e.logger.Info("category filter dropped",
		zap.String("category", req.Category),
		zap.Float64("threshold", relaxed),
		zap.Int("hits", len(hits)),
	)
	if len(hits) > 0 {
		res.Step, res.Hits = StepUnfiltered, hits
	}
	return res, nil
}

func (e *Engine) search(ctx context.Context, res *Result, vec []float32, step Step, filter vector.Filter, limit int, threshold float64) ([]models.RetrievalHit, error) {
	res.Attempts++
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	hits, err := e.index.Search(ctx, vec, filter, limit, threshold)
	if err != nil {
		return nil, &RetrievalError{Step: step, Err: err}
	}
	e.logger.Debug("index query",
		zap.String("step", string(step)),
		zap.String("owner_id", filter.OwnerID),
		zap.String("category", filter.Category),
		zap.Int("limit", limit),
		zap.Float64("threshold", threshold),
		zap.Int("hits", len(hits)),
	)
	return hits, nil
}
