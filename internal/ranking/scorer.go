package ranking

import (
	"strings"

	"github.com/hyperjump/kaimono/pkg/utils"
)

// ProductText is the text of a candidate the scorer looks at.
type ProductText struct {
	Name        string
	Description string
	Category    string
}

// ScoreBreakdown provides detailed scoring information for debugging.
type ScoreBreakdown struct {
	// Exact is the contribution of whole-query matches.
	Exact float64
	// Overlap is the contribution of token overlap ratios.
	Overlap float64
	// Affinity is the sum of policy category bonuses.
	Affinity float64
	// Penalty is the incompatible-category penalty (positive, subtracted).
	Penalty float64
	// Color is the color bonus or, when negative, the penalty.
	Color float64
	// ColorMatch reports a synonym of a requested color in the name or description.
	ColorMatch bool
	// Semantic is the clamped total.
	Semantic float64
}

// SemanticScorer computes the heuristic relevance of a product to an analyzed query.
type SemanticScorer struct {
	config *RankingConfig
	colors *colorTable
}

// NewSemanticScorer creates a scorer with the given configuration.
func NewSemanticScorer(config *RankingConfig) *SemanticScorer {
	return &SemanticScorer{config: config, colors: newColorTable(config.Colors)}
}

// Score returns the semantic score of p for q in [0, 1].
func (s *SemanticScorer) Score(q *AnalyzedQuery, p ProductText) float64 {
	return s.Breakdown(q, p).Semantic
}

// Breakdown scores p for q and reports each contribution.
func (s *SemanticScorer) Breakdown(q *AnalyzedQuery, p ProductText) *ScoreBreakdown {
	b := &ScoreBreakdown{}
	if q.Terms.Len() == 0 {
		return b
	}
	name := utils.NewTerms(p.Name)
	desc := utils.NewTerms(p.Description)
	cat := utils.NewTerms(p.Category)

	phrase := strings.Join(q.Terms.Words(), " ")
	if name.Contains(phrase) {
		b.Exact += s.config.NameExactScore
	}
	if desc.Contains(phrase) {
		b.Exact += s.config.DescriptionExactScore
	}
	if cat.Contains(phrase) {
		b.Exact += s.config.CategoryExactScore
	}

	b.Overlap = q.Terms.Overlap(name)*s.config.NameOverlapWeight +
		q.Terms.Overlap(desc)*s.config.DescriptionOverlapWeight +
		q.Terms.Overlap(cat)*s.config.CategoryOverlapWeight

	mismatch := false
	for _, pol := range q.Policies {
		if w, ok := pol.affinity(cat); ok {
			if len(pol.RequireNameTerms) == 0 || name.ContainsAny(pol.RequireNameTerms...) {
				b.Affinity += w * s.config.AffinityScale
			}
		} else if pol.RelatedBonus > 0 && cat.HasAny(pol.RelatedCategories...) {
			b.Affinity += pol.RelatedBonus
		}
		if pol.incompatible(cat) {
			mismatch = true
		}
	}
	if mismatch {
		b.Penalty = s.config.MismatchPenalty
		if q.Broad {
			b.Penalty = s.config.BroadMismatchPenalty
		}
	}

	if q.HasColor() {
		b.ColorMatch = s.colors.matches(q.Colors, name) || s.colors.matches(q.Colors, desc)
		if b.ColorMatch {
			b.Color = s.config.ColorBonus
		} else {
			b.Color = -s.config.ColorPenalty
		}
	}

	b.Semantic = utils.Clamp01(b.Exact + b.Overlap + b.Affinity - b.Penalty + b.Color)
	return b
}

// ColorMatch reports whether p mentions a synonym of a color named by q. Queries without
// a color match every product.
func (s *SemanticScorer) ColorMatch(q *AnalyzedQuery, p ProductText) bool {
	if !q.HasColor() {
		return true
	}
	return s.colors.matches(q.Colors, utils.NewTerms(p.Name)) || s.colors.matches(q.Colors, utils.NewTerms(p.Description))
}
