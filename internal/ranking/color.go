package ranking

import (
	"sort"

	"github.com/hyperjump/kaimono/pkg/utils"
)

// DefaultColors maps each base color a query can name to the words that count as that
// color in a product name or description.
func DefaultColors() map[string][]string {
	return map[string][]string{
		"red":    {"red", "crimson", "scarlet", "maroon", "burgundy", "ruby"},
		"blue":   {"blue", "navy", "azure", "teal", "turquoise", "cyan"},
		"green":  {"green", "emerald", "lime", "olive", "mint"},
		"black":  {"black", "onyx", "ebony", "charcoal"},
		"white":  {"white", "ivory", "cream", "pearl", "off-white"},
		"yellow": {"yellow", "gold", "amber", "mustard"},
		"purple": {"purple", "violet", "lavender", "plum", "mauve"},
		"pink":   {"pink", "rose", "fuchsia", "magenta", "salmon"},
		"orange": {"orange", "coral", "peach", "amber"},
		"brown":  {"brown", "tan", "beige", "khaki", "caramel"},
	}
}

// colorMaterials are synonyms that name a material, gem or food at least as often as a
// color. In a query they never request a color; "gold necklace" asks for the metal.
var colorMaterials = map[string]bool{
	"gold": true, "pearl": true, "amber": true, "ruby": true, "emerald": true,
	"onyx": true, "ebony": true, "ivory": true, "rose": true, "cream": true,
	"lime": true, "mint": true, "olive": true, "peach": true, "salmon": true,
	"coral": true, "plum": true, "caramel": true, "charcoal": true,
}

// colorTable resolves requested colors and matches product text against their synonyms.
type colorTable struct {
	synonyms map[string][]string
	names    []string
	// aliases maps an unambiguous synonym to its base color.
	aliases map[string]string
}

func newColorTable(colors map[string][]string) *colorTable {
	names := make([]string, 0, len(colors))
	for name := range colors {
		names = append(names, name)
	}
	sort.Strings(names)

	owners := make(map[string]int)
	for _, name := range names {
		for _, syn := range colors[name] {
			owners[syn]++
		}
	}
	aliases := make(map[string]string)
	for _, name := range names {
		for _, syn := range colors[name] {
			if syn == name || owners[syn] > 1 || colorMaterials[syn] || colors[syn] != nil {
				continue
			}
			aliases[syn] = name
		}
	}
	return &colorTable{synonyms: colors, names: names, aliases: aliases}
}

// requested returns the base colors named in the query, in sorted order. A synonym such
// as "navy" requests its base color unless it is shared by two colors or names a material.
func (c *colorTable) requested(q utils.Terms) []string {
	var out []string
	for _, name := range c.names {
		if q.Has(name) {
			out = append(out, name)
			continue
		}
		for _, syn := range c.synonyms[name] {
			if c.aliases[syn] == name && q.Has(syn) {
				out = append(out, name)
				break
			}
		}
	}
	return out
}

// matches reports whether any synonym of any requested color occurs in text.
func (c *colorTable) matches(colors []string, text utils.Terms) bool {
	for _, name := range colors {
		if text.Has(name) || text.HasAny(c.synonyms[name]...) {
			return true
		}
	}
	return false
}
