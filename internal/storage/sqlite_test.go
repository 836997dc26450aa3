package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/hyperjump/kaimono/internal/models"
)

func newTestCatalog(t *testing.T) *SQLiteCatalog {
	t.Helper()
	store, err := NewSQLiteCatalog(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteCatalog_CRUD(t *testing.T) {
	store := newTestCatalog(t)
	ctx := context.Background()

	p := &models.Product{
		ID:          "p1",
		Name:        "Gold Chain Necklace",
		Description: "18k gold",
		Category:    "jewelry",
		Price:       199.5,
		OwnerID:     "shop-1",
		InStock:     true,
	}
	if err := store.PutProduct(ctx, p); err != nil {
		t.Fatal(err)
	}
	if p.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}

	got, err := store.GetProduct(ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != p.Name || got.Category != "jewelry" || got.Price != 199.5 || !got.InStock {
		t.Errorf("got %+v", got)
	}

	p.Name = "Gold Rope Necklace"
	p.InStock = false
	if err := store.PutProduct(ctx, p); err != nil {
		t.Fatal(err)
	}
	got, _ = store.GetProduct(ctx, "p1")
	if got.Name != "Gold Rope Necklace" || got.InStock {
		t.Errorf("update not applied: %+v", got)
	}

	n, err := store.CountProducts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("expected 1 product, got %d", n)
	}

	if err := store.DeleteProduct(ctx, "p1"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.GetProduct(ctx, "p1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := store.DeleteProduct(ctx, "p1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestSQLiteCatalog_GetProducts(t *testing.T) {
	store := newTestCatalog(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		if err := store.PutProduct(ctx, &models.Product{ID: id, Name: "Item " + id}); err != nil {
			t.Fatal(err)
		}
	}

	got, err := store.GetProducts(ctx, []string{"a", "c", "missing"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 products, got %d", len(got))
	}
	if got["a"].Name != "Item a" || got["c"].Name != "Item c" {
		t.Errorf("unexpected products %+v", got)
	}
	if _, ok := got["missing"]; ok {
		t.Error("missing id should be absent")
	}

	empty, err := store.GetProducts(ctx, nil)
	if err != nil || len(empty) != 0 {
		t.Errorf("expected empty map, got %v, %v", empty, err)
	}
}

func TestSQLiteCatalog_ListProducts(t *testing.T) {
	store := newTestCatalog(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		if err := store.PutProduct(ctx, &models.Product{ID: id, Name: id}); err != nil {
			t.Fatal(err)
		}
	}
	page, err := store.ListProducts(ctx, 0, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 2 {
		t.Errorf("expected 2 products, got %d", len(page))
	}
	rest, err := store.ListProducts(ctx, 2, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(rest) != 1 {
		t.Errorf("expected 1 product, got %d", len(rest))
	}
}

func TestSQLiteCatalog_Memory(t *testing.T) {
	store, err := NewSQLiteCatalog(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	if err := store.PutProduct(context.Background(), &models.Product{ID: "x", Name: "X"}); err != nil {
		t.Fatal(err)
	}
	if _, err := store.GetProduct(context.Background(), "x"); err != nil {
		t.Fatal(err)
	}
	if err := store.PutProduct(context.Background(), &models.Product{Name: "no id"}); err == nil {
		t.Error("expected error for empty id")
	}
}
