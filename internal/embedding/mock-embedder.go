package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sync"

	"github.com/hyperjump/kaimono/pkg/utils"
)

// MockEmbedder is a deterministic embedder for tests and offline use. It returns a
// fixed-dimension unit vector derived from the input hash so that the same input always
// gets the same embedding. Vectors registered with SetText or SetImage take precedence.
type MockEmbedder struct {
	dimensions int
	mu         sync.RWMutex
	texts      map[string][]float32
	images     map[string][]float32
}

// NewMockEmbedder returns an embedder that produces deterministic embeddings of the given dimensions.
func NewMockEmbedder(dimensions int) *MockEmbedder {
	if dimensions <= 0 {
		dimensions = 512
	}
	return &MockEmbedder{
		dimensions: dimensions,
		texts:      make(map[string][]float32),
		images:     make(map[string][]float32),
	}
}

// SetText registers the vector returned for text.
func (e *MockEmbedder) SetText(text string, vec []float32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.texts[text] = vec
}

// SetImage registers the vector returned for image.
func (e *MockEmbedder) SetImage(image []byte, vec []float32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.images[imageKey(image)] = vec
}

// EmbedText returns the registered vector for text or a hash-derived one.
func (e *MockEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.mu.RLock()
	v, ok := e.texts[text]
	e.mu.RUnlock()
	if ok {
		return v, nil
	}
	return e.hashVector(HashString(text)), nil
}

// EmbedImage returns the registered vector for image or a hash-derived one.
func (e *MockEmbedder) EmbedImage(ctx context.Context, image []byte) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(image) == 0 {
		return nil, fmt.Errorf("empty image: %w", ErrNoInput)
	}
	e.mu.RLock()
	v, ok := e.images[imageKey(image)]
	e.mu.RUnlock()
	if ok {
		return v, nil
	}
	return e.hashVector(HashString(string(image)) + 7919), nil
}

func (e *MockEmbedder) hashVector(h int) []float32 {
	emb := make([]float32, e.dimensions)
	for i := 0; i < e.dimensions; i++ {
		emb[i] = float32(math.Sin(float64(h*(i+1)))*0.1 + 0.01)
	}
	utils.NormalizeL2(emb)
	return emb
}

// Dimensions returns the embedding dimension.
func (e *MockEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op for MockEmbedder.
func (e *MockEmbedder) Close() error {
	return nil
}

func imageKey(image []byte) string {
	sum := sha256.Sum256(image)
	return hex.EncodeToString(sum[:])
}
