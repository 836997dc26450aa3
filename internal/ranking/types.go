// Package ranking scores retrieval candidates against the query text with a
// policy-driven heuristic, combines that with the vector score and decides which
// candidates are admitted to the result set.
package ranking

import (
	"strings"

	"github.com/hyperjump/kaimono/pkg/utils"
)

// AnalyzedQuery holds the parsed and analyzed form of a search query.
type AnalyzedQuery struct {
	// Original is the original query string.
	Original string
	// Normalized is the lower-cased query with whitespace collapsed.
	Normalized string
	// Terms are the whole-word tokens of the query.
	Terms utils.Terms
	// Policies are the active policies in table order.
	Policies []*Policy
	// Threshold is the minimum semantic score for admission.
	Threshold float64
	// VectorFloor is the minimum vector score for semantic admission.
	VectorFloor float64
	// Broad marks loosely specified queries ("electronics", "tech", "gadget").
	Broad bool
	// Colors are the base colors the query names.
	Colors []string
	// ProductType is the most specific product type the query names, if any.
	ProductType string
	// ImageOnly marks queries without text.
	ImageOnly bool
}

// PolicyNames returns the names of the active policies.
func (q *AnalyzedQuery) PolicyNames() []string {
	names := make([]string, len(q.Policies))
	for i, p := range q.Policies {
		names[i] = p.Name
	}
	return names
}

// HasColor reports whether the query names a color.
func (q *AnalyzedQuery) HasColor() bool { return len(q.Colors) > 0 }

// String summarizes the analysis for debug logs.
func (q *AnalyzedQuery) String() string {
	var b strings.Builder
	b.WriteString(q.Normalized)
	if len(q.Policies) > 0 {
		b.WriteString(" policies=")
		b.WriteString(strings.Join(q.PolicyNames(), ","))
	}
	if len(q.Colors) > 0 {
		b.WriteString(" colors=")
		b.WriteString(strings.Join(q.Colors, ","))
	}
	return b.String()
}
