package search

import (
	"github.com/hyperjump/kaimono/internal/config"
	"github.com/hyperjump/kaimono/internal/models"
)

// ProcessQuery validates the query and applies the configured limits.
func ProcessQuery(query *models.Query, cfg *config.SearchConfig) error {
	if cfg != nil && query.Limit <= 0 && cfg.DefaultLimit > 0 {
		query.Limit = cfg.DefaultLimit
	}
	if err := query.Validate(); err != nil {
		return err
	}
	if cfg != nil && cfg.MaxLimit > 0 && query.Limit > cfg.MaxLimit {
		query.Limit = cfg.MaxLimit
	}
	if query.MinScore == 0 && cfg != nil {
		query.MinScore = cfg.MinScore
	}
	return nil
}
