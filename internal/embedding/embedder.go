// Package embedding turns query text and images into vectors: the Embedder
// implementations (HTTP, ONNX, mock), an LRU caching decorator and the QueryBuilder
// that fuses text and image embeddings into one query vector.
package embedding

import "context"

// Embedder produces vector embeddings for text and images. Text and image embeddings of
// one embedder share the same dimension.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
	EmbedImage(ctx context.Context, image []byte) ([]float32, error)
	Dimensions() int
	Close() error
}
