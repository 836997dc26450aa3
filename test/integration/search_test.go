// Package integration exercises the search pipeline against a real on-disk catalog and a
// persisted vector snapshot.
package integration

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/hyperjump/kaimono/internal/config"
	"github.com/hyperjump/kaimono/internal/embedding"
	"github.com/hyperjump/kaimono/internal/indexer"
	"github.com/hyperjump/kaimono/internal/models"
	"github.com/hyperjump/kaimono/internal/search"
	"github.com/hyperjump/kaimono/internal/storage"
	"github.com/hyperjump/kaimono/internal/vector"
)

const dims = 4

var (
	necklaceVec = []float32{1, 0, 0, 0}
	queryVec    = []float32{0.96, 0.28, 0, 0}
)

func TestIntegration_SearchSurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{}
	cfg.Storage.DatabasePath = filepath.Join(dir, "catalog.db")
	cfg.Storage.MemoryIndexPath = filepath.Join(dir, "vectors.gob")
	cfg.Embedding.Dimensions = dims
	cfg.Vector.Type = vector.IndexTypeMemory
	config.ApplyDefaults(cfg)
	ctx := context.Background()

	embedder := embedding.NewMockEmbedder(dims)
	input := &models.ProductInput{
		ID: "necklace-1", Name: "Gold Chain Necklace", Description: "18k gold", Category: "jewelry", Price: 249,
	}
	embedder.SetText("Gold Chain Necklace 18k gold jewelry", necklaceVec)
	embedder.SetText("gold necklace", queryVec)

	catalog, err := storage.NewSQLiteCatalog(cfg.Storage.DatabasePath)
	if err != nil {
		t.Fatal(err)
	}
	index, err := vector.NewMemoryIndex(dims)
	if err != nil {
		t.Fatal(err)
	}

	idx := indexer.NewIndexer(catalog, embedder, index, cfg)
	if _, err := idx.IndexProduct(ctx, input); err != nil {
		t.Fatal(err)
	}
	if err := index.Save(cfg.Storage.MemoryIndexPath); err != nil {
		t.Fatal(err)
	}
	_ = index.Close()
	_ = catalog.Close()

	catalog, err = storage.NewSQLiteCatalog(cfg.Storage.DatabasePath)
	if err != nil {
		t.Fatal(err)
	}
	defer catalog.Close()
	index, err = vector.NewMemoryIndex(dims)
	if err != nil {
		t.Fatal(err)
	}
	defer index.Close()
	if err := index.Load(cfg.Storage.MemoryIndexPath); err != nil {
		t.Fatal(err)
	}

	engine := search.NewEngine(catalog, embedder, index, cfg)
	resp, err := engine.Search(ctx, &models.Query{Text: "gold necklace", Limit: 5})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Total != 1 {
		t.Fatalf("expected 1 result, got %d", resp.Total)
	}
	r := resp.Results[0]
	if r.Product.ID != "necklace-1" || !r.Enriched || r.Product.Price != 249 {
		t.Errorf("unexpected result %+v", r.Product)
	}
	if resp.Category != "jewelry" || !resp.CategoryInferred {
		t.Errorf("category = %q inferred=%v", resp.Category, resp.CategoryInferred)
	}
	if r.Admission != models.AdmissionFastPath {
		t.Errorf("admission = %s, want fast_path", r.Admission)
	}
}
