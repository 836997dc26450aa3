package category

import "github.com/hyperjump/kaimono/pkg/utils"

// productTypes lists product types by family; jewelry is checked first, then clothing,
// then electronics.
var productTypes = [][]string{
	{"necklace", "necklaces", "pendant", "chain", "ring", "earring", "earrings", "bracelet", "watch"},
	{"dress", "dresses", "shirt", "pants", "jeans", "skirt", "jacket"},
	{"smartphone", "phone", "laptop", "computer", "tablet", "headphones"},
}

// ProductType returns the product type named in text, if any.
func ProductType(text string) (string, bool) {
	terms := utils.NewTerms(text)
	for _, family := range productTypes {
		if t, ok := terms.First(family...); ok {
			return t, true
		}
	}
	return "", false
}
