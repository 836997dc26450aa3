package ranking

import "github.com/hyperjump/kaimono/pkg/utils"

// Policy describes how a kind of query intent, recognized by its keywords, affects the
// semantic score and admission of candidates.
type Policy struct {
	Name string `yaml:"name"`
	// Keywords activate the policy when one occurs in the query as a whole word or phrase.
	Keywords []string `yaml:"keywords"`
	// Affinity maps product categories to a weight; the bonus is weight * affinity_scale.
	Affinity map[string]float64 `yaml:"affinity"`
	// RequireNameTerms, when set, withholds the affinity bonus from products whose name
	// has none of these terms.
	RequireNameTerms []string `yaml:"require_name_terms"`
	// RelatedCategories earn RelatedBonus when no affinity category matched.
	RelatedCategories []string `yaml:"related_categories"`
	RelatedBonus      float64  `yaml:"related_bonus"`
	// Incompatible categories are penalized.
	Incompatible []string `yaml:"incompatible"`
	// MinSemantic is the semantic threshold for the query; 0 leaves it to later policies
	// or the default.
	MinSemantic float64 `yaml:"min_semantic"`
	// VectorFloor is a fraction of min_relevance_score every semantic admission must
	// reach on vector score.
	VectorFloor float64 `yaml:"vector_floor"`
	// FastPath categories admit a candidate on vector score alone.
	FastPath []string `yaml:"fast_path"`
}

var clothingIncompatible = []string{"electronics", "home", "kitchen", "appliance", "appliances"}
var clothingRelated = []string{"clothing", "apparel", "fashion", "clothes"}

// DefaultPolicies returns the built-in policy table.
func DefaultPolicies() []Policy {
	return []Policy{
		{
			Name:             "headphones",
			Keywords:         []string{"headphone", "headphones", "earbuds", "earbud", "earphone", "earphones", "headset"},
			Affinity:         map[string]float64{"electronics": 1.0, "audio": 1.0},
			RequireNameTerms: []string{"headphone", "headphones", "earbuds", "earbud", "earphone", "earphones", "headset"},
			MinSemantic:      0.8,
			VectorFloor:      0.5,
		},
		{
			Name:         "phone",
			Keywords:     []string{"phone", "phones", "smartphone", "smartphones", "mobile", "cellphone", "iphone", "android"},
			Affinity:     map[string]float64{"electronics": 0.6, "phones": 1.0, "mobile": 1.0},
			Incompatible: []string{"clothing", "jewelry", "jewellery", "home", "kitchen"},
			MinSemantic:  0.05,
			FastPath:     []string{"electronics", "phones", "mobile"},
		},
		{
			Name:        "electronics",
			Keywords:    []string{"electronics", "electronic", "tech", "gadget", "gadgets", "laptop", "laptops", "computer", "tablet", "camera"},
			Affinity:    map[string]float64{"electronics": 0.6, "computers": 0.6},
			MinSemantic: 0.02,
		},
		{
			Name: "jewelry",
			Keywords: []string{
				"jewelry", "jewellery", "necklace", "necklaces", "pendant", "pendants", "chain",
				"ring", "rings", "earring", "earrings", "bracelet", "bracelets", "bangle",
			},
			Affinity:     map[string]float64{"jewelry": 0.6, "jewellery": 0.6, "accessories": 0.3},
			Incompatible: []string{"electronics", "appliance", "appliances"},
			MinSemantic:  0.1,
			FastPath:     []string{"jewelry", "jewellery"},
		},
		{
			Name:              "pant",
			Keywords:          []string{"pant", "pants", "jeans", "trousers", "joggers", "leggings", "chinos"},
			Affinity:          map[string]float64{"pants": 1.0, "jeans": 1.0, "bottoms": 1.0},
			RelatedCategories: clothingRelated,
			RelatedBonus:      0.3,
			Incompatible:      clothingIncompatible,
		},
		{
			Name:              "dress",
			Keywords:          []string{"dress", "dresses", "gown", "gowns", "frock"},
			Affinity:          map[string]float64{"dress": 1.0, "dresses": 1.0},
			RelatedCategories: clothingRelated,
			RelatedBonus:      0.3,
			Incompatible:      clothingIncompatible,
		},
		{
			Name:              "shirt",
			Keywords:          []string{"shirt", "shirts", "t-shirt", "tshirt", "blouse", "blouses", "tee"},
			Affinity:          map[string]float64{"shirts": 1.0, "tops": 1.0},
			RelatedCategories: clothingRelated,
			RelatedBonus:      0.3,
			Incompatible:      clothingIncompatible,
		},
	}
}

// PolicyTable is the ordered list of policies consulted by the analyzer and scorer.
type PolicyTable struct {
	policies []Policy
}

// NewPolicyTable returns a table over policies in the given order.
func NewPolicyTable(policies []Policy) *PolicyTable {
	return &PolicyTable{policies: policies}
}

// Active returns the policies whose keywords occur in the query, in table order.
func (t *PolicyTable) Active(q utils.Terms) []*Policy {
	var out []*Policy
	for i := range t.policies {
		if q.HasAny(t.policies[i].Keywords...) {
			out = append(out, &t.policies[i])
		}
	}
	return out
}

// affinity returns the largest affinity weight of the policy for the product category.
func (p *Policy) affinity(category utils.Terms) (float64, bool) {
	best, found := 0.0, false
	for cat, w := range p.Affinity {
		if category.Has(cat) && (!found || w > best) {
			best, found = w, true
		}
	}
	return best, found
}

func (p *Policy) fastPath(category utils.Terms) bool {
	return len(p.FastPath) > 0 && category.HasAny(p.FastPath...)
}

func (p *Policy) incompatible(category utils.Terms) bool {
	return len(p.Incompatible) > 0 && category.HasAny(p.Incompatible...)
}
