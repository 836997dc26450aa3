package indexer

import (
	"strings"
	"unicode"

	"github.com/hyperjump/kaimono/internal/models"
)

// Preprocess normalizes the text fields of a product before it is stored and embedded.
func Preprocess(p *models.Product) {
	p.Name = cleanText(p.Name)
	p.Description = cleanText(p.Description)
	p.Category = cleanText(p.Category)
	p.OwnerID = strings.TrimSpace(p.OwnerID)
	p.ImageURL = strings.TrimSpace(p.ImageURL)
}

// cleanText trims, drops control characters and collapses whitespace.
func cleanText(text string) string {
	text = strings.TrimSpace(text)
	var b strings.Builder
	wasSpace := false
	for _, r := range text {
		switch {
		case unicode.IsSpace(r):
			if !wasSpace {
				b.WriteRune(' ')
				wasSpace = true
			}
		case unicode.IsControl(r):
		default:
			b.WriteRune(r)
			wasSpace = false
		}
	}
	return b.String()
}
