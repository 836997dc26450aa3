package ranking

import (
	"github.com/hyperjump/kaimono/internal/models"
	"github.com/hyperjump/kaimono/pkg/utils"
	"go.uber.org/zap"
)

// Ranker scores retrieval hits and applies the admission rules.
type Ranker struct {
	config   *RankingConfig
	analyzer *QueryAnalyzer
	scorer   *SemanticScorer
	logger   *zap.Logger
}

// Option configures a Ranker.
type Option func(*Ranker)

// WithLogger sets the logger used for per-candidate debug output.
func WithLogger(l *zap.Logger) Option {
	return func(r *Ranker) { r.logger = utils.OrNop(l) }
}

// NewRanker creates a new Ranker with the given configuration.
func NewRanker(config *RankingConfig, opts ...Option) *Ranker {
	if config == nil {
		config = DefaultRankingConfig()
	}
	config.ApplyDefaults()

	r := &Ranker{
		config:   config,
		analyzer: NewQueryAnalyzer(config),
		scorer:   NewSemanticScorer(config),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// AnalyzeQuery parses and analyzes a query.
func (r *Ranker) AnalyzeQuery(text string, hasImage bool) *AnalyzedQuery {
	return r.analyzer.Analyze(text, hasImage)
}

// Scorer returns the semantic scorer.
func (r *Ranker) Scorer() *SemanticScorer {
	return r.scorer
}

// GetConfig returns the ranking configuration.
func (r *Ranker) GetConfig() *RankingConfig {
	return r.config
}

type candidate struct {
	result *models.ScoredResult
	floor  bool
}

// Rank scores hits and returns the admitted ones in hit order. Image-only queries are
// ranked by vector score alone. Text queries admit a candidate through a category fast
// path, the query's semantic threshold, or, when fewer than relaxed_min_admitted pass,
// a threshold lowered by relaxed_margin.
func (r *Ranker) Rank(q *AnalyzedQuery, hits []models.RetrievalHit) []*models.ScoredResult {
	if q.ImageOnly {
		return r.rankImageOnly(hits)
	}

	fastFloor := r.config.MinRelevanceScore * r.config.FastPathFactor
	admitted := make([]*models.ScoredResult, 0, len(hits))
	var relaxed []*models.ScoredResult
	for i := range hits {
		hit := &hits[i]
		v := utils.Clamp01(hit.Score)
		text := ProductText{Name: hit.Payload.Name, Description: hit.Payload.Description, Category: hit.Payload.Category}
		bd := r.scorer.Breakdown(q, text)

		combined := r.config.VectorWeight*v + r.config.SemanticWeight*bd.Semantic
		if q.ProductType != "" && utils.NewTerms(text.Name).Has(q.ProductType) {
			combined += r.config.TypeMatchBoost
		}
		res := &models.ScoredResult{
			ProductID:     hit.ProductID,
			VectorScore:   v,
			SemanticScore: bd.Semantic,
			CombinedScore: utils.Clamp01(combined),
			ColorMatch:    bd.ColorMatch || !q.HasColor(),
			Hit:           hit,
		}

		switch {
		case r.fastPath(q, text.Category) && v >= fastFloor:
			res.Admission = models.AdmissionFastPath
			admitted = append(admitted, res)
		case bd.Semantic >= q.Threshold && v >= q.VectorFloor:
			res.Admission = models.AdmissionSemantic
			admitted = append(admitted, res)
		case bd.Semantic >= q.Threshold-r.config.RelaxedMargin && v >= q.VectorFloor:
			res.Admission = models.AdmissionRelaxed
			relaxed = append(relaxed, res)
		}

		r.logger.Debug("candidate scored",
			zap.String("product_id", hit.ProductID),
			zap.String("name", text.Name),
			zap.Float64("vector", v),
			zap.Float64("semantic", bd.Semantic),
			zap.Float64("combined", res.CombinedScore),
			zap.String("admission", string(res.Admission)),
		)
	}

	if len(admitted) < r.config.RelaxedMinAdmitted && q.Threshold > r.config.RelaxedAbove && len(relaxed) > 0 {
		r.logger.Debug("admitting relaxed candidates",
			zap.Float64("threshold", q.Threshold),
			zap.Int("admitted", len(admitted)),
			zap.Int("relaxed", len(relaxed)),
		)
		admitted = append(admitted, relaxed...)
	}
	return admitted
}

func (r *Ranker) rankImageOnly(hits []models.RetrievalHit) []*models.ScoredResult {
	out := make([]*models.ScoredResult, 0, len(hits))
	for i := range hits {
		hit := &hits[i]
		v := utils.Clamp01(hit.Score)
		if v < r.config.ImageOnlyMinScore {
			continue
		}
		out = append(out, &models.ScoredResult{
			ProductID:     hit.ProductID,
			VectorScore:   v,
			CombinedScore: v,
			Admission:     models.AdmissionImage,
			ColorMatch:    true,
			Hit:           hit,
		})
	}
	return out
}

func (r *Ranker) fastPath(q *AnalyzedQuery, category string) bool {
	if len(q.Policies) == 0 {
		return false
	}
	cat := utils.NewTerms(category)
	for _, p := range q.Policies {
		if p.fastPath(cat) {
			return true
		}
	}
	return false
}
