package vector

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"github.com/hyperjump/kaimono/internal/models"
)

func point(id, owner, category string, vec ...float32) Point {
	return Point{
		ID:      id,
		Vector:  vec,
		Payload: models.Payload{ProductID: "prod-" + id, Name: id, OwnerID: owner, Category: category},
	}
}

func TestMemoryIndex_UpsertSearch(t *testing.T) {
	idx, err := NewMemoryIndex(3)
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()
	ctx := context.Background()

	if err := idx.Upsert(ctx, []Point{
		point("a", "u1", "jewelry", 1, 0, 0),
		point("b", "u1", "jewelry", 0.9, 0.1, 0),
		point("c", "u1", "clothing", 0, 1, 0),
	}); err != nil {
		t.Fatal(err)
	}
	if idx.Size() != 3 {
		t.Errorf("Size=%d", idx.Size())
	}

	hits, err := idx.Search(ctx, []float32{1, 0, 0}, Filter{}, 2, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].PointID != "a" || hits[0].ProductID != "prod-a" {
		t.Errorf("top hit should be a, got %+v", hits[0])
	}
	if hits[0].Score < hits[1].Score {
		t.Error("hits should be ordered by descending score")
	}
}

func TestMemoryIndex_cosineIgnoresScale(t *testing.T) {
	idx, _ := NewMemoryIndex(2)
	ctx := context.Background()
	_ = idx.Upsert(ctx, []Point{point("a", "", "", 3, 4)})
	hits, _ := idx.Search(ctx, []float32{0.6, 0.8}, Filter{}, 1, 0)
	if len(hits) != 1 || math.Abs(hits[0].Score-1) > 1e-6 {
		t.Errorf("expected cosine 1, got %+v", hits)
	}
}

func TestMemoryIndex_filterAndThreshold(t *testing.T) {
	idx, _ := NewMemoryIndex(2)
	ctx := context.Background()
	_ = idx.Upsert(ctx, []Point{
		point("a", "u1", "Rings", 1, 0),
		point("b", "u2", "Rings", 1, 0),
		point("c", "u1", "rings", 1, 0),
		point("d", "u1", "Rings", 0, 1),
	})

	tests := []struct {
		name      string
		filter    Filter
		threshold float64
		want      []string
	}{
		{"owner and category", Filter{OwnerID: "u1", Category: "Rings"}, 0.5, []string{"a"}},
		{"category is exact", Filter{Category: "rings"}, 0, []string{"c"}},
		{"owner only", Filter{OwnerID: "u2"}, 0, []string{"b"}},
		{"threshold drops orthogonal", Filter{OwnerID: "u1"}, 0.1, []string{"a", "c"}},
		{"nothing matches", Filter{Category: "RINGS"}, 0, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hits, err := idx.Search(ctx, []float32{1, 0}, tt.filter, 10, tt.threshold)
			if err != nil {
				t.Fatal(err)
			}
			if len(hits) != len(tt.want) {
				t.Fatalf("got %d hits, want %v", len(hits), tt.want)
			}
			for i, h := range hits {
				if h.PointID != tt.want[i] {
					t.Errorf("hit %d = %s, want %s", i, h.PointID, tt.want[i])
				}
			}
		})
	}
}

func TestMemoryIndex_upsertReplaces(t *testing.T) {
	idx, _ := NewMemoryIndex(2)
	ctx := context.Background()
	_ = idx.Upsert(ctx, []Point{point("a", "", "old", 1, 0)})
	_ = idx.Upsert(ctx, []Point{point("a", "", "new", 0, 1)})
	if idx.Size() != 1 {
		t.Fatalf("repeated upsert should not duplicate, size %d", idx.Size())
	}
	hits, _ := idx.Search(ctx, []float32{0, 1}, Filter{Category: "new"}, 1, 0.9)
	if len(hits) != 1 {
		t.Error("point should carry the new vector and payload")
	}
}

func TestMemoryIndex_Delete(t *testing.T) {
	idx, _ := NewMemoryIndex(2)
	ctx := context.Background()
	_ = idx.Upsert(ctx, []Point{point("x", "", "", 1, 0), point("y", "", "", 0, 1)})
	if err := idx.Delete(ctx, []string{"x", "missing"}); err != nil {
		t.Fatal(err)
	}
	if n, _ := idx.Count(ctx); n != 1 {
		t.Errorf("expected count 1, got %d", n)
	}
}

func TestMemoryIndex_dimensionMismatch(t *testing.T) {
	idx, _ := NewMemoryIndex(3)
	ctx := context.Background()
	if err := idx.Upsert(ctx, []Point{point("a", "", "", 1, 0)}); err == nil {
		t.Error("expected upsert dimension error")
	}
	if _, err := idx.Search(ctx, []float32{1}, Filter{}, 1, 0); err == nil {
		t.Error("expected search dimension error")
	}
	if _, err := NewMemoryIndex(0); err == nil {
		t.Error("expected error for zero dimension")
	}
}

func TestMemoryIndex_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "index.gob")
	ctx := context.Background()
	idx, _ := NewMemoryIndex(2)
	p := point("a", "u1", "jewelry", 1, 0)
	p.Payload.Price = 19.5
	_ = idx.Upsert(ctx, []Point{p})
	if err := idx.Save(path); err != nil {
		t.Fatal(err)
	}

	loaded, _ := NewMemoryIndex(2)
	if err := loaded.Load(path); err != nil {
		t.Fatal(err)
	}
	hits, _ := loaded.Search(ctx, []float32{1, 0}, Filter{OwnerID: "u1"}, 1, 0)
	if len(hits) != 1 || hits[0].Payload.Price != 19.5 || hits[0].Payload.Category != "jewelry" {
		t.Errorf("payload not restored: %+v", hits)
	}

	wrongDim, _ := NewMemoryIndex(3)
	if err := wrongDim.Load(path); err == nil {
		t.Error("expected dimension mismatch on load")
	}
	if err := loaded.Load(filepath.Join(t.TempDir(), "missing.gob")); err != nil {
		t.Errorf("missing snapshot should be ignored: %v", err)
	}
}
