package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hyperjump/kaimono/internal/config"
	"github.com/hyperjump/kaimono/internal/embedding"
	"github.com/hyperjump/kaimono/internal/indexer"
	"github.com/hyperjump/kaimono/internal/metrics"
	"github.com/hyperjump/kaimono/internal/models"
	"github.com/hyperjump/kaimono/internal/retrieval"
	"github.com/hyperjump/kaimono/internal/search"
	"github.com/hyperjump/kaimono/internal/storage"
	"github.com/hyperjump/kaimono/internal/vector"
)

const dims = 4

type testServer struct {
	srv      *Server
	handler  http.Handler
	embedder *embedding.MockEmbedder
	catalog  *storage.SQLiteCatalog
}

func newTestServer(t *testing.T, tweak func(*config.Config)) *testServer {
	t.Helper()
	catalog, err := storage.NewSQLiteCatalog(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = catalog.Close() })
	vecIdx, err := vector.NewMemoryIndex(dims)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = vecIdx.Close() })
	embedder := embedding.NewMockEmbedder(dims)

	cfg := &config.Config{}
	cfg.Embedding.Dimensions = dims
	cfg.Storage.DatabasePath = ":memory:"
	if tweak != nil {
		tweak(cfg)
	}
	config.ApplyDefaults(cfg)

	m := metrics.New()
	engine := search.NewEngine(catalog, embedder, vecIdx, cfg, search.WithRecorder(m))
	idx := indexer.NewIndexer(catalog, embedder, vecIdx, cfg, indexer.WithRecorder(m))
	srv := NewServer(engine, idx, catalog, cfg, WithMetricsHandler(m.Handler()))
	return &testServer{srv: srv, handler: srv.Handler(), embedder: embedder, catalog: catalog}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		if err := json.NewEncoder(&buf).Encode(b); err != nil {
			t.Fatal(err)
		}
	}
	r := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, r)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return out
}

func TestHandleHealth(t *testing.T) {
	ts := newTestServer(t, nil)
	w := ts.do(t, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Errorf("status: got %d", w.Code)
	}
	if got := decode[map[string]string](t, w); got["status"] != "ok" {
		t.Errorf("body: %v", got)
	}
}

func TestProductLifecycle(t *testing.T) {
	ts := newTestServer(t, nil)

	w := ts.do(t, http.MethodPost, "/api/v1/products", map[string]any{
		"id": "n1", "name": "Gold Necklace", "category": "jewelry", "price": 120,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: got %d %s", w.Code, w.Body.String())
	}

	w = ts.do(t, http.MethodGet, "/api/v1/products/n1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get: got %d", w.Code)
	}
	if p := decode[models.Product](t, w); p.Name != "Gold Necklace" || p.Price != 120 {
		t.Errorf("get: %+v", p)
	}

	w = ts.do(t, http.MethodDelete, "/api/v1/products/n1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete: got %d", w.Code)
	}
	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		if w = ts.do(t, method, "/api/v1/products/n1", nil); w.Code != http.StatusNotFound {
			t.Errorf("%s after delete: got %d, want 404", method, w.Code)
		}
	}
}

func TestHandleIndexProducts_batch(t *testing.T) {
	ts := newTestServer(t, nil)
	w := ts.do(t, http.MethodPost, "/api/v1/products", map[string]any{
		"products": []map[string]any{
			{"id": "a", "name": "Necklace"},
			{"id": "b", "name": ""},
		},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d %s", w.Code, w.Body.String())
	}
	res := decode[indexer.BatchResult](t, w)
	if res.Indexed != 1 || len(res.Failed) != 1 || res.Failed[0].ID != "b" {
		t.Errorf("result: %+v", res)
	}
}

func TestHandleIndexProducts_badRequest(t *testing.T) {
	ts := newTestServer(t, nil)
	tests := []struct {
		name string
		body any
	}{
		{"malformed", "{not json"},
		{"empty name", map[string]any{"id": "a", "name": " "}},
		{"bad id", map[string]any{"id": "a b", "name": "Lamp"}},
		{"unknown field", map[string]any{"name": "Lamp", "colour": "red"}},
		{"empty batch", map[string]any{"products": []any{}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := ts.do(t, http.MethodPost, "/api/v1/products", tt.body); w.Code != http.StatusBadRequest {
				t.Errorf("got %d, want 400 (%s)", w.Code, w.Body.String())
			}
		})
	}
}

func TestHandleSearch(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.embedder.SetText("Gold Chain Necklace jewelry", []float32{1, 0, 0, 0})
	ts.embedder.SetText("gold necklace", []float32{1, 0, 0, 0})
	w := ts.do(t, http.MethodPost, "/api/v1/products", map[string]any{
		"id": "n1", "name": "Gold Chain Necklace", "category": "jewelry",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: got %d", w.Code)
	}

	w = ts.do(t, http.MethodPost, "/api/v1/search", map[string]any{"query": "gold necklace", "limit": 5})
	if w.Code != http.StatusOK {
		t.Fatalf("search: got %d %s", w.Code, w.Body.String())
	}
	resp := decode[models.SearchResponse](t, w)
	if resp.Total != 1 || resp.Results[0].Product.ID != "n1" {
		t.Fatalf("results: %+v", resp)
	}
	if resp.Category != "jewelry" || resp.Results[0].Rank != 1 {
		t.Errorf("response: %+v", resp)
	}
}

func TestHandleSearch_badRequest(t *testing.T) {
	ts := newTestServer(t, nil)
	for _, body := range []any{"{", map[string]any{"query": ""}} {
		if w := ts.do(t, http.MethodPost, "/api/v1/search", body); w.Code != http.StatusBadRequest {
			t.Errorf("body %v: got %d, want 400", body, w.Code)
		}
	}
}

func TestSearchErrorStatus(t *testing.T) {
	tests := []struct {
		err    error
		status int
		msg    string
	}{
		{models.ErrEmptyQuery, http.StatusBadRequest, models.ErrEmptyQuery.Error()},
		{&embedding.EmbeddingError{Op: "text", Err: errors.New("connection refused")}, http.StatusBadGateway, "could not process query"},
		{&retrieval.RetrievalError{Step: retrieval.StepPrimary, Err: context.DeadlineExceeded}, http.StatusServiceUnavailable, "search temporarily unavailable"},
		{fmt.Errorf("boom"), http.StatusInternalServerError, "internal error"},
	}
	for _, tt := range tests {
		status, msg := searchErrorStatus(tt.err)
		if status != tt.status || msg != tt.msg {
			t.Errorf("searchErrorStatus(%v) = %d %q, want %d %q", tt.err, status, msg, tt.status, tt.msg)
		}
	}
}

func TestHandleStatus(t *testing.T) {
	ts := newTestServer(t, nil)
	if w := ts.do(t, http.MethodPost, "/api/v1/products", map[string]any{"id": "a", "name": "Lamp"}); w.Code != http.StatusCreated {
		t.Fatalf("create: got %d", w.Code)
	}
	w := ts.do(t, http.MethodGet, "/api/v1/status", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	got := decode[map[string]any](t, w)
	if got["products"] != float64(1) || got["index_points"] != float64(1) {
		t.Errorf("counts: %v", got)
	}
	cfg, _ := got["config"].(map[string]any)
	if cfg["vector_index_type"] != "memory" {
		t.Errorf("config: %v", cfg)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.do(t, http.MethodPost, "/api/v1/search", map[string]any{"query": ""})
	w := ts.do(t, http.MethodGet, "/metrics", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "kaimono_search_requests_total") {
		t.Error("expected search request counter in metrics output")
	}
}

func TestRateLimit(t *testing.T) {
	ts := newTestServer(t, func(c *config.Config) {
		c.Server.RateLimit = 0.001
		c.Server.RateBurst = 1
	})
	if w := ts.do(t, http.MethodGet, "/health", nil); w.Code != http.StatusOK {
		t.Fatalf("first: got %d", w.Code)
	}
	if w := ts.do(t, http.MethodGet, "/health", nil); w.Code != http.StatusTooManyRequests {
		t.Errorf("second: got %d, want 429", w.Code)
	}
}

func TestBodyLimit(t *testing.T) {
	ts := newTestServer(t, func(c *config.Config) { c.Server.MaxBodyBytes = 16 })
	body := map[string]any{"query": strings.Repeat("lamp ", 20)}
	if w := ts.do(t, http.MethodPost, "/api/v1/search", body); w.Code != http.StatusBadRequest {
		t.Errorf("got %d, want 400", w.Code)
	}
}
