package vector

import (
	"context"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/hyperjump/kaimono/internal/models"
)

// MemoryIndex is an in-memory vector index using brute-force cosine search with payload
// filters. Suitable for tests and small single-node catalogs.
type MemoryIndex struct {
	dimensions int
	points     map[string]Point
	mu         sync.RWMutex
}

// NewMemoryIndex creates an in-memory vector index with the given dimension.
func NewMemoryIndex(dimensions int) (*MemoryIndex, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	return &MemoryIndex{
		dimensions: dimensions,
		points:     make(map[string]Point),
	}, nil
}

// Type returns the index type identifier.
func (m *MemoryIndex) Type() string {
	return string(IndexTypeMemory)
}

// Upsert inserts or replaces points by id.
func (m *MemoryIndex) Upsert(ctx context.Context, points []Point) error {
	for _, p := range points {
		if p.ID == "" {
			return fmt.Errorf("point id cannot be empty")
		}
		if len(p.Vector) != m.dimensions {
			return fmt.Errorf("vector dimension mismatch: got %d, expected %d", len(p.Vector), m.dimensions)
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range points {
		vec := make([]float32, m.dimensions)
		copy(vec, p.Vector)
		m.points[p.ID] = Point{ID: p.ID, Vector: vec, Payload: p.Payload}
	}
	return nil
}

// Search returns the top hits by cosine similarity among points matching filter.
func (m *MemoryIndex) Search(ctx context.Context, query []float32, filter Filter, limit int, threshold float64) ([]models.RetrievalHit, error) {
	if len(query) != m.dimensions {
		return nil, fmt.Errorf("query dimension mismatch: got %d, expected %d", len(query), m.dimensions)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	hits := make([]models.RetrievalHit, 0, limit)
	for id, p := range m.points {
		if !filter.Matches(p.Payload) {
			continue
		}
		score := CosineSimilarity(query, p.Vector)
		if score < threshold {
			continue
		}
		hits = append(hits, models.RetrievalHit{
			PointID:   id,
			ProductID: p.Payload.ProductID,
			Score:     score,
			Payload:   p.Payload,
		})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].PointID < hits[j].PointID
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// Delete removes points by id. Unknown ids are ignored.
func (m *MemoryIndex) Delete(ctx context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.points, id)
	}
	return nil
}

// Count returns the number of points.
func (m *MemoryIndex) Count(ctx context.Context) (int, error) {
	return m.Size(), nil
}

// Size returns the number of points in the index.
func (m *MemoryIndex) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.points)
}

type memorySnapshot struct {
	Dimensions int
	Points     []Point
}

// Save writes a snapshot of the index to path. Directory is created if needed.
func (m *MemoryIndex) Save(path string) error {
	if path == "" {
		return nil
	}
	m.mu.RLock()
	snap := memorySnapshot{Dimensions: m.dimensions, Points: make([]Point, 0, len(m.points))}
	for _, p := range m.points {
		snap.Points = append(snap.Points, p)
	}
	m.mu.RUnlock()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create index file: %w", err)
	}
	if err := gob.NewEncoder(f).Encode(snap); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("encode index: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close index file: %w", err)
	}
	return os.Rename(tmp, path)
}

// Load replaces the index contents with the snapshot at path. Dimensions must match.
// If the file does not exist, no error is returned and the index is unchanged.
func (m *MemoryIndex) Load(path string) error {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open index file: %w", err)
	}
	defer f.Close()

	var snap memorySnapshot
	if err := gob.NewDecoder(f).Decode(&snap); err != nil {
		return fmt.Errorf("decode index: %w", err)
	}
	if snap.Dimensions != m.dimensions {
		return fmt.Errorf("dimension mismatch: file has %d, index expects %d", snap.Dimensions, m.dimensions)
	}
	points := make(map[string]Point, len(snap.Points))
	for _, p := range snap.Points {
		points[p.ID] = p
	}
	m.mu.Lock()
	m.points = points
	m.mu.Unlock()
	return nil
}

// Close is a no-op for MemoryIndex.
func (m *MemoryIndex) Close() error {
	return nil
}
