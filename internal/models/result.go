package models

// RetrievalHit is a single vector index hit.
type RetrievalHit struct {
	PointID   string  `json:"point_id"`
	ProductID string  `json:"product_id"`
	Score     float64 `json:"score"` // raw vector similarity (0-1)
	Payload   Payload `json:"payload"`
}

// Admission records which rule let a candidate into the ranked set.
type Admission string

const (
	// AdmissionFastPath is a category-affinity fast path (vector floor only).
	AdmissionFastPath Admission = "fast_path"
	// AdmissionSemantic passed the query's semantic threshold.
	AdmissionSemantic Admission = "semantic"
	// AdmissionRelaxed passed the relaxed threshold used when too few candidates qualify.
	AdmissionRelaxed Admission = "relaxed"
	// AdmissionImage is an image-only query admitted on vector score.
	AdmissionImage Admission = "image"
)

// ScoredResult is a candidate with its vector, semantic and combined scores.
type ScoredResult struct {
	ProductID     string        `json:"product_id"`
	VectorScore   float64       `json:"vector_score"`
	SemanticScore float64       `json:"semantic_score"`
	CombinedScore float64       `json:"combined_score"`
	Admission     Admission     `json:"admission"`
	ColorMatch    bool          `json:"color_match"`
	Hit           *RetrievalHit `json:"-"`
	Product       *Product      `json:"product,omitempty"`
	Enriched      bool          `json:"enriched"`
}

// SearchResult is a single ranked product in a search response.
type SearchResult struct {
	Product         *Product  `json:"product"`
	Score           float64   `json:"score"`
	VectorScore     float64   `json:"vector_score"`
	SemanticScore   float64   `json:"semantic_score"`
	MatchPercentage int       `json:"match_percentage"`
	Admission       Admission `json:"admission"`
	CategoryMatched bool      `json:"category_matched"`
	Enriched        bool      `json:"enriched"`
	Rank            int       `json:"rank"`
}

// SearchResponse is the response for a search request.
type SearchResponse struct {
	Results []*SearchResult `json:"results"`
	Total   int             `json:"total"`
	Query   string          `json:"query,omitempty"`
	// Category is the category filter that was requested or inferred from the query text.
	Category         string `json:"category,omitempty"`
	CategoryInferred bool   `json:"category_inferred,omitempty"`
	HasImage         bool   `json:"has_image,omitempty"`
	// RetrievalStep names the retrieval attempt that produced the candidates
	// (primary, case_variant, unfiltered, none).
	RetrievalStep string `json:"retrieval_step"`
	Attempts      int    `json:"attempts"`
	Candidates    int    `json:"candidates"`
	QueryTime     int64  `json:"query_time_ms"`
}
