// Package category infers a canonical product category from free-text queries using
// static keyword tables.
package category

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/hyperjump/kaimono/pkg/utils"
)

// Rule maps query keywords to a canonical category.
type Rule struct {
	Category string
	Keywords []string
}

// DefaultRules is the keyword table consulted by Resolve. Order matters: the first rule
// with a keyword present in the query wins.
var DefaultRules = []Rule{
	{Category: "jewelry", Keywords: []string{
		"necklace", "necklaces", "pendant", "pendants", "chain", "chains",
		"earring", "earrings", "bracelet", "bracelets", "bangle", "bangles",
		"ring", "rings", "jewelry", "jewellery", "jewellry",
	}},
	{Category: "clothing", Keywords: []string{
		"dress", "dresses", "gown", "frock", "shirt", "shirts", "blouse", "top", "tops",
		"pant", "pants", "jeans", "trousers", "joggers", "leggings", "shorts",
		"skirt", "skirts", "jacket", "jackets", "clothing", "apparel",
	}},
	{Category: "electronics", Keywords: []string{
		"headphone", "headphones", "earbuds", "earphone", "earphones",
		"phone", "phones", "smartphone", "smartphones", "mobile", "cellphone",
		"laptop", "laptops", "computer", "tablet", "tablets", "camera", "webcam",
		"electronics", "electronic", "gadget", "gadgets",
	}},
	{Category: "shoes", Keywords: []string{"shoes", "shoe", "sneakers", "boots", "sandals", "heels"}},
	{Category: "home", Keywords: []string{"furniture", "decor", "kitchen", "appliance", "appliances", "sofa", "lamp"}},
	{Category: "beauty", Keywords: []string{"makeup", "skincare", "lipstick", "perfume", "beauty"}},
}

// Resolver maps query text to a canonical category.
type Resolver struct {
	rules []Rule
}

// NewResolver returns a resolver over rules; nil rules selects DefaultRules.
func NewResolver(rules []Rule) *Resolver {
	if rules == nil {
		rules = DefaultRules
	}
	return &Resolver{rules: rules}
}

// Resolve returns the category of the first rule, in table order, whose keyword occurs in
// text as a whole word or phrase.
func (r *Resolver) Resolve(text string) (string, bool) {
	if strings.TrimSpace(text) == "" {
		return "", false
	}
	terms := utils.NewTerms(text)
	for _, rule := range r.rules {
		if terms.HasAny(rule.Keywords...) {
			return rule.Category, true
		}
	}
	return "", false
}

// CaseVariants returns the Capitalized, lowercase and UPPERCASE spellings of category in
// that order, leaving out spellings equal to category or to an earlier variant.
func CaseVariants(category string) []string {
	if category == "" {
		return nil
	}
	candidates := []string{capitalize(category), strings.ToLower(category), strings.ToUpper(category)}
	seen := map[string]bool{category: true}
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

// capitalize upper-cases the first rune and lower-cases the rest.
func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}
