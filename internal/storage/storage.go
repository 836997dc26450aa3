// Package storage defines the product catalog and its SQLite and cached implementations.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/kaimono/internal/models"
)

// ErrNotFound is returned when a product does not exist in the catalog.
var ErrNotFound = errors.New("product not found")

// Catalog is the authoritative product store.
type Catalog interface {
	// PutProduct inserts or replaces a product. CreatedAt is kept across updates.
	PutProduct(ctx context.Context, p *models.Product) error
	// GetProduct returns ErrNotFound when id is unknown.
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	// GetProducts looks up many ids at once; unknown ids are absent from the map.
	GetProducts(ctx context.Context, ids []string) (map[string]*models.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	ListProducts(ctx context.Context, offset, limit int) ([]*models.Product, error)
	CountProducts(ctx context.Context) (int64, error)

	Close() error
}
