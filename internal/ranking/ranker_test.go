package ranking

import (
	"testing"

	"github.com/hyperjump/kaimono/internal/models"
)

func hit(id, name, description, category string, score float64) models.RetrievalHit {
	return models.RetrievalHit{
		PointID:   "pt-" + id,
		ProductID: id,
		Score:     score,
		Payload: models.Payload{
			ProductID:   id,
			Name:        name,
			Description: description,
			Category:    category,
		},
	}
}

func byID(results []*models.ScoredResult) map[string]*models.ScoredResult {
	m := make(map[string]*models.ScoredResult, len(results))
	for _, r := range results {
		m[r.ProductID] = r
	}
	return m
}

func TestNewRanker(t *testing.T) {
	ranker := NewRanker(nil)
	if ranker == nil {
		t.Fatal("Expected non-nil ranker")
	}
	if ranker.GetConfig().VectorWeight != 0.7 {
		t.Errorf("Expected default VectorWeight 0.7, got %v", ranker.GetConfig().VectorWeight)
	}

	ranker = NewRanker(&RankingConfig{VectorWeight: 0.9})
	if ranker.GetConfig().VectorWeight != 0.9 {
		t.Errorf("Expected VectorWeight 0.9, got %v", ranker.GetConfig().VectorWeight)
	}
	if ranker.GetConfig().SemanticWeight != 0.3 {
		t.Errorf("Expected SemanticWeight default 0.3, got %v", ranker.GetConfig().SemanticWeight)
	}
	if len(ranker.GetConfig().Policies) == 0 {
		t.Error("Expected default policies")
	}
}

func TestRanker_NecklaceOutranksBracelet(t *testing.T) {
	ranker := NewRanker(nil)
	q := ranker.AnalyzeQuery("gold necklace", false)

	results := ranker.Rank(q, []models.RetrievalHit{
		hit("bracelet", "Gold Bracelet", "", "jewelry", 0.70),
		hit("necklace", "Gold Chain Necklace", "", "jewelry", 0.65),
	})
	got := byID(results)
	if len(got) != 2 {
		t.Fatalf("Expected both candidates admitted, got %d", len(got))
	}
	if got["necklace"].CombinedScore <= got["bracelet"].CombinedScore {
		t.Errorf("Expected necklace (%v) above bracelet (%v)",
			got["necklace"].CombinedScore, got["bracelet"].CombinedScore)
	}
	if got["necklace"].Admission != models.AdmissionFastPath {
		t.Errorf("Expected fast_path admission, got %q", got["necklace"].Admission)
	}
}

func TestRanker_ColorMatch(t *testing.T) {
	ranker := NewRanker(nil)
	q := ranker.AnalyzeQuery("red dress", false)
	if len(q.Colors) != 1 || q.Colors[0] != "red" {
		t.Fatalf("Expected colors [red], got %v", q.Colors)
	}

	results := ranker.Rank(q, []models.RetrievalHit{
		hit("a", "Red Evening Dress", "", "clothing", 0.6),
		hit("b", "Blue Evening Dress", "", "clothing", 0.9),
	})
	got := byID(results)
	a, ok := got["a"]
	if !ok {
		t.Fatal("Expected red dress admitted")
	}
	if !a.ColorMatch {
		t.Error("Expected red dress to match color")
	}
	if b, ok := got["b"]; ok && b.ColorMatch {
		t.Error("Expected blue dress not to match color")
	}
	if b, ok := got["b"]; ok && b.SemanticScore >= a.SemanticScore {
		t.Errorf("Expected blue dress semantic %v below red dress %v", b.SemanticScore, a.SemanticScore)
	}
}

func TestRanker_HeadphonesExcludeSpeaker(t *testing.T) {
	ranker := NewRanker(nil)
	q := ranker.AnalyzeQuery("headphones", false)
	if q.Threshold != 0.8 {
		t.Errorf("Expected threshold 0.8, got %v", q.Threshold)
	}

	results := ranker.Rank(q, []models.RetrievalHit{
		hit("speaker", "Smart Speaker", "", "electronics", 0.75),
		hit("headphones", "Wireless Headphones", "", "electronics", 0.6),
	})
	got := byID(results)
	if _, ok := got["speaker"]; ok {
		t.Error("Expected speaker to be excluded")
	}
	if _, ok := got["headphones"]; !ok {
		t.Error("Expected headphones to be admitted")
	}
}

func TestRanker_HeadphonesSingularAndPlural(t *testing.T) {
	ranker := NewRanker(nil)

	tests := []struct {
		query string
		name  string
	}{
		{"headphone", "Sony WH-1000XM5 Wireless Headphones"},
		{"headphones", "Bose Over-Ear Headphone"},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			q := ranker.AnalyzeQuery(tt.query, false)
			results := ranker.Rank(q, []models.RetrievalHit{hit("h", tt.name, "", "electronics", 0.9)})
			if len(results) != 1 {
				t.Fatalf("Expected %q admitted for %q, got %d results", tt.name, tt.query, len(results))
			}
			if results[0].SemanticScore < q.Threshold {
				t.Errorf("Semantic %v below threshold %v", results[0].SemanticScore, q.Threshold)
			}
			if results[0].Admission != models.AdmissionSemantic {
				t.Errorf("Expected semantic admission, got %q", results[0].Admission)
			}
		})
	}
}

func TestRanker_FastPath(t *testing.T) {
	ranker := NewRanker(nil)
	q := ranker.AnalyzeQuery("phone", false)

	tests := []struct {
		name  string
		score float64
		want  models.Admission
	}{
		{"above fast path floor", 0.4, models.AdmissionFastPath},
		{"below fast path floor", 0.3, models.AdmissionSemantic},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := ranker.Rank(q, []models.RetrievalHit{hit("p", "Galaxy S24", "", "Electronics", tt.score)})
			if len(results) != 1 {
				t.Fatalf("Expected 1 result, got %d", len(results))
			}
			if results[0].Admission != tt.want {
				t.Errorf("Expected admission %q, got %q", tt.want, results[0].Admission)
			}
		})
	}
}

func TestRanker_Relaxed(t *testing.T) {
	cfg := DefaultRankingConfig()
	cfg.Policies = []Policy{{Name: "lamp", Keywords: []string{"lamp"}, MinSemantic: 0.5}}
	ranker := NewRanker(cfg)
	q := ranker.AnalyzeQuery("brass lamp", false)

	near := hit("near", "Brass Light", "a lamp", "lighting", 0.6)
	miss := hit("miss", "Garden Hose", "", "garden", 0.9)

	results := ranker.Rank(q, []models.RetrievalHit{near, miss})
	if len(results) != 1 || results[0].ProductID != "near" {
		t.Fatalf("Expected only the near candidate, got %v", results)
	}
	if results[0].Admission != models.AdmissionRelaxed {
		t.Errorf("Expected relaxed admission, got %q", results[0].Admission)
	}

	full := []models.RetrievalHit{
		hit("l1", "Brass Lamp", "", "lighting", 0.6),
		hit("l2", "Brass Lamp Deluxe", "", "lighting", 0.6),
		near,
	}
	results = ranker.Rank(q, full)
	if _, ok := byID(results)["near"]; ok {
		t.Error("Expected relaxed candidate dropped when enough candidates pass")
	}
	if len(results) != 2 {
		t.Errorf("Expected 2 results, got %d", len(results))
	}
}

func TestRanker_ImageOnly(t *testing.T) {
	ranker := NewRanker(nil)
	q := ranker.AnalyzeQuery("", true)
	if !q.ImageOnly {
		t.Fatal("Expected image-only query")
	}

	results := ranker.Rank(q, []models.RetrievalHit{
		hit("a", "Anything", "", "misc", 0.9),
		hit("b", "Other", "", "misc", 0.4),
	})
	if len(results) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(results))
	}
	if results[0].CombinedScore != 0.9 || results[0].Admission != models.AdmissionImage {
		t.Errorf("Unexpected result %+v", results[0])
	}
}

func TestRanker_ScoresBounded(t *testing.T) {
	ranker := NewRanker(nil)
	queries := []string{"red gold necklace", "phone", "tech phone", "blue shirt", "headphones", "xyz"}
	hits := []models.RetrievalHit{
		hit("1", "Red Gold Necklace", "red gold necklace", "jewelry", 1.3),
		hit("2", "Cotton Shirt", "blue", "clothing", -0.2),
		hit("3", "Phone Phone Phone", "phone", "electronics phones mobile", 0.99),
		hit("4", "", "", "", 0.5),
	}
	for _, text := range queries {
		q := ranker.AnalyzeQuery(text, false)
		for _, h := range hits {
			text := ProductText{Name: h.Payload.Name, Description: h.Payload.Description, Category: h.Payload.Category}
			s := ranker.Scorer().Score(q, text)
			if s < 0 || s > 1 {
				t.Errorf("%q / %q: semantic %v out of range", q.Original, h.Payload.Name, s)
			}
		}
		for _, r := range ranker.Rank(q, append([]models.RetrievalHit(nil), hits...)) {
			if r.CombinedScore < 0 || r.CombinedScore > 1 || r.VectorScore < 0 || r.VectorScore > 1 {
				t.Errorf("%q / %s: scores out of range %+v", q.Original, r.ProductID, r)
			}
		}
	}
}
