package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/kaimono/internal/models"
	"github.com/hyperjump/kaimono/internal/search"
	"github.com/hyperjump/kaimono/internal/storage"
)

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var query models.Query
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("search request",
		zap.String("query", query.Text),
		zap.Bool("has_image", query.HasImage()),
		zap.String("category", query.Category),
		zap.Int("limit", query.Limit),
	)
	response, err := s.engine.Search(r.Context(), &query)
	if err != nil {
		status, message := searchErrorStatus(err)
		if status >= http.StatusInternalServerError {
			s.logger.Error("search failed", zap.Error(err))
		}
		s.respondError(w, status, message)
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

// searchErrorStatus maps a Search error to an HTTP status and client message.
func searchErrorStatus(err error) (int, string) {
	switch search.Status(err) {
	case search.StatusBadRequest:
		return http.StatusBadRequest, err.Error()
	case search.StatusEmbeddingError:
		return http.StatusBadGateway, "could not process query"
	case search.StatusRetrievalError:
		return http.StatusServiceUnavailable, "search temporarily unavailable"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

type productBatch struct {
	Products []*models.ProductInput `json:"products"`
}

// handleIndexProducts accepts one product or {"products": [...]}.
func (s *Server) handleIndexProducts(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if _, ok := fields["products"]; ok {
		var batch productBatch
		if err := decodeStrict(body, &batch); err != nil || len(batch.Products) == 0 {
			s.respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		s.logger.Debug("index products request", zap.Int("count", len(batch.Products)))
		res, err := s.indexer.IndexProducts(r.Context(), batch.Products)
		if err != nil {
			s.logger.Error("batch indexing failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.respondJSON(w, http.StatusOK, res)
		return
	}

	var input models.ProductInput
	if err := decodeStrict(body, &input); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("index product request", zap.String("id", input.ID), zap.String("name", input.Name))
	p, err := s.indexer.IndexProduct(r.Context(), &input)
	if err != nil {
		if errors.Is(err, models.ErrInvalidProduct) {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("indexing failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, p)
}

func decodeStrict(body []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, err := s.catalog.GetProduct(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "product not found")
			return
		}
		s.logger.Error("get product failed", zap.String("id", id), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.logger.Debug("delete product request", zap.String("id", id))
	if err := s.indexer.DeleteProduct(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "product not found")
			return
		}
		s.logger.Error("deletion failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"id": id, "status": "deleted"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	stats, err := s.indexer.Stats(r.Context())
	if err != nil {
		s.logger.Error("status failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := map[string]interface{}{
		"products":     stats.Products,
		"index_points": stats.Points,
	}

	cfg := s.config
	resp["config"] = map[string]interface{}{
		"vector_index_type":    stats.IndexType,
		"embedding_provider":   cfg.Embedding.Provider,
		"embedding_dimensions": cfg.Embedding.Dimensions,
		"database_path":        cfg.Storage.DatabasePath,
		"category_policies":    len(cfg.Ranking.Policies),
		"catalog_cache":        cfg.Redis.Addr != "",
	}
	if diskBytes, err := storage.DiskUsageBytes(storage.SQLiteFiles(cfg.Storage.DatabasePath)...); err == nil {
		resp["disk_usage_bytes"] = diskBytes
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	respondJSON(w, status, data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
