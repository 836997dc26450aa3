package ranking

// RankingConfig holds all configuration for relevance scoring and admission.
type RankingConfig struct {
	// Combined score weights
	VectorWeight   float64 `yaml:"vector_weight"`    // default: 0.7
	SemanticWeight float64 `yaml:"semantic_weight"`  // default: 0.3
	TypeMatchBoost float64 `yaml:"type_match_boost"` // default: 0.2

	// Exact substring match of the whole query
	NameExactScore        float64 `yaml:"name_exact_score"`        // default: 0.8
	DescriptionExactScore float64 `yaml:"description_exact_score"` // default: 0.4
	CategoryExactScore    float64 `yaml:"category_exact_score"`    // default: 0.3

	// Token overlap ratio weights
	NameOverlapWeight        float64 `yaml:"name_overlap_weight"`        // default: 0.6
	DescriptionOverlapWeight float64 `yaml:"description_overlap_weight"` // default: 0.3
	CategoryOverlapWeight    float64 `yaml:"category_overlap_weight"`    // default: 0.2

	// Policy effects
	AffinityScale        float64  `yaml:"affinity_scale"`         // default: 0.5
	MismatchPenalty      float64  `yaml:"mismatch_penalty"`       // default: 0.5
	BroadMismatchPenalty float64  `yaml:"broad_mismatch_penalty"` // default: 0.2
	BroadTerms           []string `yaml:"broad_terms"`            // default: electronics, tech, gadget

	// Color affinity
	ColorBonus   float64             `yaml:"color_bonus"`   // default: 0.4
	ColorPenalty float64             `yaml:"color_penalty"` // default: 0.3
	Colors       map[string][]string `yaml:"colors"`        // default: DefaultColors()

	// Admission
	MinRelevanceScore        float64 `yaml:"min_relevance_score"`        // default: 0.7
	FastPathFactor           float64 `yaml:"fast_path_factor"`           // default: 0.5
	DefaultSemanticThreshold float64 `yaml:"default_semantic_threshold"` // default: 0.3
	RelaxedMinAdmitted       int     `yaml:"relaxed_min_admitted"`       // default: 2
	RelaxedAbove             float64 `yaml:"relaxed_above"`              // default: 0.4
	RelaxedMargin            float64 `yaml:"relaxed_margin"`             // default: 0.1
	ImageOnlyMinScore        float64 `yaml:"image_only_min_score"`       // default: 0.5

	// Policies are consulted in order; see DefaultPolicies.
	Policies []Policy `yaml:"policies"`
}

// DefaultRankingConfig returns the default ranking configuration.
func DefaultRankingConfig() *RankingConfig {
	return &RankingConfig{
		VectorWeight:   0.7,
		SemanticWeight: 0.3,
		TypeMatchBoost: 0.2,

		NameExactScore:        0.8,
		DescriptionExactScore: 0.4,
		CategoryExactScore:    0.3,

		NameOverlapWeight:        0.6,
		DescriptionOverlapWeight: 0.3,
		CategoryOverlapWeight:    0.2,

		AffinityScale:        0.5,
		MismatchPenalty:      0.5,
		BroadMismatchPenalty: 0.2,
		BroadTerms:           []string{"electronics", "tech", "gadget", "gadgets"},

		ColorBonus:   0.4,
		ColorPenalty: 0.3,
		Colors:       DefaultColors(),

		MinRelevanceScore:        0.7,
		FastPathFactor:           0.5,
		DefaultSemanticThreshold: 0.3,
		RelaxedMinAdmitted:       2,
		RelaxedAbove:             0.4,
		RelaxedMargin:            0.1,
		ImageOnlyMinScore:        0.5,

		Policies: DefaultPolicies(),
	}
}

// ApplyDefaults fills in zero values with defaults.
func (c *RankingConfig) ApplyDefaults() {
	d := DefaultRankingConfig()

	setFloat := func(v *float64, def float64) {
		if *v == 0 {
			*v = def
		}
	}
	setFloat(&c.VectorWeight, d.VectorWeight)
	setFloat(&c.SemanticWeight, d.SemanticWeight)
	setFloat(&c.TypeMatchBoost, d.TypeMatchBoost)

	setFloat(&c.NameExactScore, d.NameExactScore)
	setFloat(&c.DescriptionExactScore, d.DescriptionExactScore)
	setFloat(&c.CategoryExactScore, d.CategoryExactScore)

	setFloat(&c.NameOverlapWeight, d.NameOverlapWeight)
	setFloat(&c.DescriptionOverlapWeight, d.DescriptionOverlapWeight)
	setFloat(&c.CategoryOverlapWeight, d.CategoryOverlapWeight)

	setFloat(&c.AffinityScale, d.AffinityScale)
	setFloat(&c.MismatchPenalty, d.MismatchPenalty)
	setFloat(&c.BroadMismatchPenalty, d.BroadMismatchPenalty)
	if len(c.BroadTerms) == 0 {
		c.BroadTerms = d.BroadTerms
	}

	setFloat(&c.ColorBonus, d.ColorBonus)
	setFloat(&c.ColorPenalty, d.ColorPenalty)
	if len(c.Colors) == 0 {
		c.Colors = d.Colors
	}

	setFloat(&c.MinRelevanceScore, d.MinRelevanceScore)
	setFloat(&c.FastPathFactor, d.FastPathFactor)
	setFloat(&c.DefaultSemanticThreshold, d.DefaultSemanticThreshold)
	if c.RelaxedMinAdmitted == 0 {
		c.RelaxedMinAdmitted = d.RelaxedMinAdmitted
	}
	setFloat(&c.RelaxedAbove, d.RelaxedAbove)
	setFloat(&c.RelaxedMargin, d.RelaxedMargin)
	setFloat(&c.ImageOnlyMinScore, d.ImageOnlyMinScore)

	if len(c.Policies) == 0 {
		c.Policies = d.Policies
	}
}
