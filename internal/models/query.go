package models

import (
	"errors"
	"strings"
)

const (
	// DefaultLimit is the result limit used when a query does not set one.
	DefaultLimit = 10
	// MaxLimit caps the result limit.
	MaxLimit = 100
)

// ErrEmptyQuery is returned when a query has neither text nor image.
var ErrEmptyQuery = errors.New("query needs text or image")

// Query represents a product search request.
type Query struct {
	Text     string  `json:"query,omitempty"`
	Image    []byte  `json:"image,omitempty"`
	Category string  `json:"category,omitempty"`
	OwnerID  string  `json:"owner_id,omitempty"`
	Limit    int     `json:"limit,omitempty"`
	MinScore float64 `json:"min_score,omitempty"` // vector-score threshold applied at the index; 0 = configured default
}

// HasText reports whether the query carries text.
func (q *Query) HasText() bool { return q.Text != "" }

// HasImage reports whether the query carries image bytes.
func (q *Query) HasImage() bool { return len(q.Image) > 0 }

// Validate ensures the query has text or an image and normalizes the limit.
func (q *Query) Validate() error {
	q.Text = strings.TrimSpace(q.Text)
	q.Category = strings.TrimSpace(q.Category)
	if !q.HasText() && !q.HasImage() {
		return ErrEmptyQuery
	}
	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	if q.MinScore < 0 {
		q.MinScore = 0
	}
	return nil
}
