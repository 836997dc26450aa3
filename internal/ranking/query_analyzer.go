package ranking

import (
	"github.com/hyperjump/kaimono/internal/category"
	"github.com/hyperjump/kaimono/pkg/utils"
)

// QueryAnalyzer derives the query-level inputs of scoring: active policies, thresholds,
// requested colors and the named product type.
type QueryAnalyzer struct {
	config *RankingConfig
	table  *PolicyTable
	colors *colorTable
}

// NewQueryAnalyzer creates a QueryAnalyzer over config's policy table and colors.
func NewQueryAnalyzer(config *RankingConfig) *QueryAnalyzer {
	return &QueryAnalyzer{
		config: config,
		table:  NewPolicyTable(config.Policies),
		colors: newColorTable(config.Colors),
	}
}

// Analyze parses query text. imageOnly marks a query with an image and no text, which
// skips semantic scoring.
func (qa *QueryAnalyzer) Analyze(text string, hasImage bool) *AnalyzedQuery {
	normalized := utils.NormalizeSpace(text)
	terms := utils.NewTerms(normalized)
	q := &AnalyzedQuery{
		Original:   text,
		Normalized: normalized,
		Terms:      terms,
		ImageOnly:  normalized == "" && hasImage,
		Threshold:  qa.config.DefaultSemanticThreshold,
	}
	if q.ImageOnly || normalized == "" {
		return q
	}

	q.Policies = qa.table.Active(terms)
	thresholdSet := false
	for _, p := range q.Policies {
		if !thresholdSet && p.MinSemantic > 0 {
			q.Threshold = p.MinSemantic
			thresholdSet = true
		}
		if floor := p.VectorFloor * qa.config.MinRelevanceScore; floor > q.VectorFloor {
			q.VectorFloor = floor
		}
	}
	q.Broad = terms.HasAny(qa.config.BroadTerms...)
	q.Colors = qa.colors.requested(terms)
	q.ProductType, _ = category.ProductType(normalized)
	return q
}
