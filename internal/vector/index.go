// Package vector provides the product vector index: the Index interface, a Qdrant-backed
// implementation and an in-memory one for tests and single-node development.
package vector

import (
	"context"

	"github.com/hyperjump/kaimono/internal/models"
)

// Payload field names stored with every point.
const (
	FieldProductID   = "product_id"
	FieldName        = "name"
	FieldDescription = "description"
	FieldCategory    = "category"
	FieldPrice       = "price"
	FieldOwnerID     = "owner_id"
	FieldImageURL    = "image_url"
	FieldHasImage    = "has_image_embedding"
)

// Index stores product vectors with payload snapshots and answers filtered similarity queries.
type Index interface {
	// Upsert inserts or replaces points by id.
	Upsert(ctx context.Context, points []Point) error
	// Search returns up to limit hits with score >= threshold matching filter, ordered by
	// descending score.
	Search(ctx context.Context, vector []float32, filter Filter, limit int, threshold float64) ([]models.RetrievalHit, error)
	Delete(ctx context.Context, pointIDs []string) error
	Count(ctx context.Context) (int, error)
	Type() string
	Close() error
}

// Point is a vector with its id and payload snapshot.
type Point struct {
	ID      string
	Vector  []float32
	Payload models.Payload
}

// Filter is a conjunction of exact payload equalities; empty fields are not constrained.
type Filter struct {
	OwnerID  string
	Category string
}

// Empty reports whether the filter constrains nothing.
func (f Filter) Empty() bool {
	return f.OwnerID == "" && f.Category == ""
}

// Matches reports whether payload satisfies every constraint of f.
func (f Filter) Matches(p models.Payload) bool {
	if f.OwnerID != "" && p.OwnerID != f.OwnerID {
		return false
	}
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	return true
}

// PayloadMap flattens a payload into index field values.
func PayloadMap(p models.Payload) map[string]any {
	return map[string]any{
		FieldProductID:   p.ProductID,
		FieldName:        p.Name,
		FieldDescription: p.Description,
		FieldCategory:    p.Category,
		FieldPrice:       p.Price,
		FieldOwnerID:     p.OwnerID,
		FieldImageURL:    p.ImageURL,
		FieldHasImage:    p.HasImage,
	}
}

// PayloadFromMap rebuilds a payload from index field values. Missing or mistyped fields
// are left zero.
func PayloadFromMap(m map[string]any) models.Payload {
	str := func(k string) string {
		s, _ := m[k].(string)
		return s
	}
	var price float64
	switch v := m[FieldPrice].(type) {
	case float64:
		price = v
	case int64:
		price = float64(v)
	}
	hasImage, _ := m[FieldHasImage].(bool)
	return models.Payload{
		ProductID:   str(FieldProductID),
		Name:        str(FieldName),
		Description: str(FieldDescription),
		Category:    str(FieldCategory),
		Price:       price,
		OwnerID:     str(FieldOwnerID),
		ImageURL:    str(FieldImageURL),
		HasImage:    hasImage,
	}
}
