// Package e2e provides end-to-end tests over a small multi-category catalog and a set of
// shopper queries.
package e2e

import (
	"math"
	"strings"

	"github.com/hyperjump/kaimono/internal/models"
)

// Dimensions of the corpus vectors. Each theme owns one axis; the last axis carries the
// remainder that sets a product's similarity to its theme.
const Dimensions = 8

const spareAxis = Dimensions - 1

// Themes map to vector axes. Queries of one theme score zero against products of another.
const (
	ThemeJewelry = iota
	ThemeClothing
	ThemeAudio
	ThemePhones
	ThemeHome
	ThemeShoes
)

// E2EProduct is a catalog entry together with its similarity to its theme's queries.
type E2EProduct struct {
	ID          string
	Name        string
	Description string
	Category    string
	Price       float64
	OwnerID     string
	Theme       int
	Similarity  float64
}

// Input returns the product as an ingest input.
func (p E2EProduct) Input() *models.ProductInput {
	return &models.ProductInput{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		Price:       p.Price,
		OwnerID:     p.OwnerID,
	}
}

// EmbeddingText is the text the indexer embeds for the product.
func (p E2EProduct) EmbeddingText() string {
	return (&models.Product{Name: p.Name, Description: p.Description, Category: p.Category}).EmbeddingText()
}

// Vector is a unit vector whose cosine similarity with ThemeVector(p.Theme) is p.Similarity.
func (p E2EProduct) Vector() []float32 {
	v := make([]float32, Dimensions)
	v[p.Theme] = float32(p.Similarity)
	v[spareAxis] = float32(math.Sqrt(1 - p.Similarity*p.Similarity))
	return v
}

// ThemeVector is the query vector for a theme.
func ThemeVector(theme int) []float32 {
	v := make([]float32, Dimensions)
	v[theme] = 1
	return v
}

// QueryTestCase is a shopper query and what its results must look like.
type QueryTestCase struct {
	Query   string
	Theme   int
	OwnerID string
	// First, when set, must be the top result.
	First string
	// Expected ids must all appear; with Exact, nothing else may.
	Expected []string
	Exact    bool
	// Excluded ids must not appear.
	Excluded []string
	// Step, when set, is the expected retrieval step.
	Step        string
	Description string
}

// Corpus holds the catalog and query test cases.
type Corpus struct {
	Products  []E2EProduct
	TestCases []QueryTestCase
}

// BuildCorpus returns the catalog and its query test cases.
func BuildCorpus() *Corpus {
	return &Corpus{Products: buildProducts(), TestCases: buildQueryTestCases()}
}

func buildProducts() []E2EProduct {
	return []E2EProduct{
		{ID: "jw-001", Name: "Gold Chain Necklace", Description: "18k gold chain necklace with lobster clasp", Category: "jewelry", Price: 249, OwnerID: "shop-1", Theme: ThemeJewelry, Similarity: 0.82},
		{ID: "jw-002", Name: "Gold Bracelet", Description: "Polished gold bangle bracelet", Category: "jewelry", Price: 129, OwnerID: "shop-1", Theme: ThemeJewelry, Similarity: 0.86},
		{ID: "jw-003", Name: "Silver Hoop Earrings", Description: "Sterling silver hoops", Category: "jewelry", Price: 59, OwnerID: "shop-1", Theme: ThemeJewelry, Similarity: 0.6},
		{ID: "jw-004", Name: "Pearl Pendant Necklace", Description: "Freshwater pearl on a silver chain", Category: "jewelry", Price: 89, OwnerID: "shop-2", Theme: ThemeJewelry, Similarity: 0.7},

		{ID: "cl-001", Name: "Red Evening Dress", Description: "Floor length red satin gown", Category: "clothing", Price: 180, OwnerID: "shop-1", Theme: ThemeClothing, Similarity: 0.75},
		{ID: "cl-002", Name: "Blue Summer Dress", Description: "Light cotton dress in sky blue", Category: "clothing", Price: 65, OwnerID: "shop-1", Theme: ThemeClothing, Similarity: 0.9},
		{ID: "cl-003", Name: "White Linen Shirt", Description: "Breathable linen button-down shirt", Category: "clothing", Price: 45, OwnerID: "shop-2", Theme: ThemeClothing, Similarity: 0.7},

		{ID: "el-001", Name: "Wireless Noise Cancelling Headphones", Description: "Over-ear bluetooth headphones with 30 hour battery", Category: "electronics", Price: 299, OwnerID: "shop-1", Theme: ThemeAudio, Similarity: 0.85},
		{ID: "el-002", Name: "Smart Speaker", Description: "Voice controlled speaker", Category: "electronics", Price: 99, OwnerID: "shop-1", Theme: ThemeAudio, Similarity: 0.8},
		{ID: "el-003", Name: "Bluetooth Earbuds", Description: "True wireless earbuds with charging case", Category: "electronics", Price: 149, OwnerID: "shop-2", Theme: ThemeAudio, Similarity: 0.8},

		{ID: "ph-001", Name: "Android Smartphone 128GB", Description: "6.5 inch display with dual camera", Category: "electronics", Price: 399, OwnerID: "shop-1", Theme: ThemePhones, Similarity: 0.8},

		{ID: "hm-001", Name: "Ceramic Table Lamp", Description: "Glazed ceramic base with linen shade", Category: "home", Price: 75, OwnerID: "shop-2", Theme: ThemeHome, Similarity: 0.85},
		{ID: "hm-002", Name: "Velvet Sofa", Description: "Three seat sofa in forest velvet", Category: "home", Price: 899, OwnerID: "shop-2", Theme: ThemeHome, Similarity: 0.7},

		{ID: "sh-001", Name: "Leather Running Sneakers", Description: "Lightweight sneakers with cushioned sole", Category: "Shoes", Price: 110, OwnerID: "shop-1", Theme: ThemeShoes, Similarity: 0.8},
	}
}

func buildQueryTestCases() []QueryTestCase {
	return []QueryTestCase{
		{
			Query:       "gold necklace",
			Theme:       ThemeJewelry,
			First:       "jw-001",
			Expected:    []string{"jw-001", "jw-002", "jw-004"},
			Step:        "primary",
			Description: "necklace outranks a closer bracelet",
		},
		{
			Query:       "gold necklace",
			Theme:       ThemeJewelry,
			OwnerID:     "shop-2",
			Expected:    []string{"jw-004"},
			Exact:       true,
			Description: "owner filter limits results to one shop",
		},
		{
			Query:       "red dress",
			Theme:       ThemeClothing,
			Expected:    []string{"cl-001"},
			Exact:       true,
			Excluded:    []string{"cl-002", "cl-003"},
			Description: "color filter drops dresses of other colors",
		},
		{
			Query:       "headphones",
			Theme:       ThemeAudio,
			First:       "el-001",
			Expected:    []string{"el-001"},
			Excluded:    []string{"el-002"},
			Description: "speaker is not a headphone",
		},
		{
			Query:       "smartphone",
			Theme:       ThemePhones,
			Expected:    []string{"ph-001"},
			Exact:       true,
			Description: "phone fast path",
		},
		{
			Query:       "table lamp",
			Theme:       ThemeHome,
			Expected:    []string{"hm-001"},
			Exact:       true,
			Excluded:    []string{"hm-002"},
			Description: "home query without policy uses default threshold",
		},
		{
			Query:       "running sneakers",
			Theme:       ThemeShoes,
			Expected:    []string{"sh-001"},
			Exact:       true,
			Step:        "case_variant",
			Description: "capitalized category found by case variant",
		},
	}
}

// ProductByID returns the corpus product with id.
func (c *Corpus) ProductByID(id string) (E2EProduct, bool) {
	for _, p := range c.Products {
		if p.ID == id {
			return p, true
		}
	}
	return E2EProduct{}, false
}

// Inputs returns every product as an ingest input, in corpus order.
func (c *Corpus) Inputs() []*models.ProductInput {
	out := make([]*models.ProductInput, len(c.Products))
	for i, p := range c.Products {
		out[i] = p.Input()
	}
	return out
}

// Categories returns the distinct categories of the catalog, lowercased.
func (c *Corpus) Categories() []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range c.Products {
		cat := strings.ToLower(p.Category)
		if !seen[cat] {
			seen[cat] = true
			out = append(out, cat)
		}
	}
	return out
}
