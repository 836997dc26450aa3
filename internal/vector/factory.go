package vector

import (
	"context"
	"fmt"
)

// IndexType represents the type of vector index to use.
type IndexType string

const (
	// IndexTypeMemory uses in-memory brute-force search. Good for tests and small catalogs.
	IndexTypeMemory IndexType = "memory"
	// IndexTypeQdrant uses a Qdrant server.
	IndexTypeQdrant IndexType = "qdrant"
)

// Options selects and configures an index.
type Options struct {
	Type       string
	Dimensions int
	Qdrant     QdrantOptions
	// SnapshotPath is loaded into a memory index on creation.
	SnapshotPath string
}

// NewIndex creates a vector index of the requested type.
// Supported types: "memory" (default) and "qdrant".
func NewIndex(ctx context.Context, opts Options) (Index, error) {
	switch IndexType(opts.Type) {
	case IndexTypeMemory, "":
		idx, err := NewMemoryIndex(opts.Dimensions)
		if err != nil {
			return nil, err
		}
		if err := idx.Load(opts.SnapshotPath); err != nil {
			return nil, fmt.Errorf("load memory index: %w", err)
		}
		return idx, nil
	case IndexTypeQdrant:
		q := opts.Qdrant
		q.Dimensions = opts.Dimensions
		return NewQdrantIndex(ctx, q)
	default:
		return nil, fmt.Errorf("unknown index type: %s (supported: memory, qdrant)", opts.Type)
	}
}
