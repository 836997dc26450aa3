package embedding

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	// DefaultTextWeight and DefaultImageWeight are the fusion weights for text+image queries.
	DefaultTextWeight  = 0.7
	DefaultImageWeight = 0.3
	// DefaultTimeout bounds each embedding call.
	DefaultTimeout = 10 * time.Second
)

// QueryBuilder produces a single query vector from optional text and image input.
type QueryBuilder struct {
	embedder    Embedder
	textWeight  float64
	imageWeight float64
	dimensions  int
	timeout     time.Duration
}

// BuilderOption configures a QueryBuilder.
type BuilderOption func(*QueryBuilder)

// WithWeights sets the text and image fusion weights.
func WithWeights(text, image float64) BuilderOption {
	return func(b *QueryBuilder) {
		b.textWeight = text
		b.imageWeight = image
	}
}

// WithDimensions makes Build reject vectors whose length differs from n (the index dimension).
func WithDimensions(n int) BuilderOption {
	return func(b *QueryBuilder) { b.dimensions = n }
}

// WithTimeout bounds each embedding call; zero or negative disables the bound.
func WithTimeout(d time.Duration) BuilderOption {
	return func(b *QueryBuilder) { b.timeout = d }
}

// NewQueryBuilder returns a builder over e with the default weights and timeout.
func NewQueryBuilder(e Embedder, opts ...BuilderOption) *QueryBuilder {
	b := &QueryBuilder{
		embedder:    e,
		textWeight:  DefaultTextWeight,
		imageWeight: DefaultImageWeight,
		timeout:     DefaultTimeout,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build embeds text, image or both. With both present the result is
// textWeight*text + imageWeight*image, elementwise and not renormalized.
// Every failure is an *EmbeddingError.
func (b *QueryBuilder) Build(ctx context.Context, text string, image []byte) ([]float32, error) {
	text = strings.TrimSpace(text)
	hasText, hasImage := text != "", len(image) > 0
	if !hasText && !hasImage {
		return nil, &EmbeddingError{Op: "input", Err: ErrNoInput}
	}

	var textVec, imageVec []float32
	g, gctx := errgroup.WithContext(ctx)
	if hasText {
		g.Go(func() error {
			v, err := b.call(gctx, func(c context.Context) ([]float32, error) { return b.embedder.EmbedText(c, text) })
			if err != nil {
				return &EmbeddingError{Op: "text", Err: err}
			}
			textVec = v
			return nil
		})
	}
	if hasImage {
		g.Go(func() error {
			v, err := b.call(gctx, func(c context.Context) ([]float32, error) { return b.embedder.EmbedImage(c, image) })
			if err != nil {
				return &EmbeddingError{Op: "image", Err: err}
			}
			imageVec = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var vec []float32
	switch {
	case hasText && hasImage:
		fused, err := Fuse(textVec, imageVec, b.textWeight, b.imageWeight)
		if err != nil {
			return nil, &EmbeddingError{Op: "fuse", Err: err}
		}
		vec = fused
	case hasText:
		vec = textVec
	default:
		vec = imageVec
	}
	if len(vec) == 0 {
		return nil, &EmbeddingError{Op: "input", Err: fmt.Errorf("%w: empty vector", ErrDimensionMismatch)}
	}
	if b.dimensions > 0 && len(vec) != b.dimensions {
		return nil, &EmbeddingError{Op: "input", Err: fmt.Errorf("%w: got %d, index expects %d", ErrDimensionMismatch, len(vec), b.dimensions)}
	}
	return vec, nil
}

func (b *QueryBuilder) call(ctx context.Context, fn func(context.Context) ([]float32, error)) ([]float32, error) {
	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}
	return fn(ctx)
}

// Fuse returns wa*a + wb*b elementwise. The vectors must have the same length.
func Fuse(a, b []float32, wa, wb float64) ([]float32, error) {
	if len(a) != len(b) {
		return nil, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}
	out := make([]float32, len(a))
	for i := range a {
		out[i] = float32(wa)*a[i] + float32(wb)*b[i]
	}
	return out, nil
}
