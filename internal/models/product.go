// Package models defines core data structures for products, queries, and search results.
package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Product is the authoritative catalog record for a product.
type Product struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Category    string    `json:"category" db:"category"`
	Price       float64   `json:"price" db:"price"`
	OwnerID     string    `json:"owner_id" db:"owner_id"`
	ImageURL    string    `json:"image_url,omitempty" db:"image_url"`
	InStock     bool      `json:"in_stock" db:"in_stock"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// EmbeddingText is the text embedded for a product: name, description and category.
func (p *Product) EmbeddingText() string {
	parts := make([]string, 0, 3)
	for _, s := range []string{p.Name, p.Description, p.Category} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// ProductInput is the input for creating or updating a product.
// Image carries raw image bytes (base64 in JSON); when empty, ImageURL may be fetched.
type ProductInput struct {
	ID          string  `json:"id,omitempty"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Category    string  `json:"category,omitempty"`
	Price       float64 `json:"price,omitempty"`
	OwnerID     string  `json:"owner_id,omitempty"`
	ImageURL    string  `json:"image_url,omitempty"`
	Image       []byte  `json:"image,omitempty"`
	InStock     *bool   `json:"in_stock,omitempty"`
}

// ErrInvalidProduct is wrapped by ProductInput.Validate errors.
var ErrInvalidProduct = errors.New("invalid product")

// MaxIDLength bounds catalog product ids.
const MaxIDLength = 128

// ValidID reports whether id can be a catalog key: 1 to MaxIDLength characters drawn from
// ASCII letters, digits and "-_.:".
func ValidID(id string) bool {
	if id == "" || len(id) > MaxIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-', c == '_', c == '.', c == ':':
		default:
			return false
		}
	}
	return true
}

// Validate checks required fields.
func (in *ProductInput) Validate() error {
	if in.ID != "" && !ValidID(in.ID) {
		return fmt.Errorf("%w: id %q", ErrInvalidProduct, in.ID)
	}
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidProduct)
	}
	if in.Price < 0 {
		return fmt.Errorf("%w: price cannot be negative: %v", ErrInvalidProduct, in.Price)
	}
	return nil
}

// Product converts the input into a catalog record. Timestamps are left to the store.
func (in *ProductInput) Product() *Product {
	inStock := true
	if in.InStock != nil {
		inStock = *in.InStock
	}
	return &Product{
		ID:          in.ID,
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Category:    strings.TrimSpace(in.Category),
		Price:       in.Price,
		OwnerID:     in.OwnerID,
		ImageURL:    in.ImageURL,
		InStock:     inStock,
	}
}

// Payload is the product snapshot stored with a vector point at indexing time.
// It may be stale relative to the catalog.
type Payload struct {
	ProductID   string  `json:"product_id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Category    string  `json:"category"`
	Price       float64 `json:"price"`
	OwnerID     string  `json:"owner_id,omitempty"`
	ImageURL    string  `json:"image_url,omitempty"`
	HasImage    bool    `json:"has_image_embedding"`
}

// PayloadFor builds the index payload for a product.
func PayloadFor(p *Product, hasImage bool) Payload {
	return Payload{
		ProductID:   p.ID,
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		Price:       p.Price,
		OwnerID:     p.OwnerID,
		ImageURL:    p.ImageURL,
		HasImage:    hasImage,
	}
}

// Product returns a product record built from the snapshot, used when the catalog has
// no record for the hit.
func (p Payload) Product() *Product {
	return &Product{
		ID:          p.ProductID,
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		Price:       p.Price,
		OwnerID:     p.OwnerID,
		ImageURL:    p.ImageURL,
		InStock:     true,
	}
}
