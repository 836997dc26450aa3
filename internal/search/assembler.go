package search

import (
	"context"
	"errors"
	"math"
	"sort"
	"strings"

	"github.com/hyperjump/kaimono/internal/metrics"
	"github.com/hyperjump/kaimono/internal/models"
	"github.com/hyperjump/kaimono/internal/storage"
	"github.com/hyperjump/kaimono/pkg/utils"
	"go.uber.org/zap"
)

var (
	// ErrInvalidIDFormat marks a candidate whose product id cannot be a catalog key.
	ErrInvalidIDFormat = errors.New("invalid product id format")
	// ErrEnrichmentGap marks a candidate with no catalog record; its payload snapshot is served.
	ErrEnrichmentGap = errors.New("product missing from catalog")
)

// AssembleOptions controls result assembly for one request.
type AssembleOptions struct {
	Limit int
	// ColorRequested enables the strict color filter.
	ColorRequested bool
	// ColorMatch, when set with ColorRequested, re-checks the color of each enriched
	// catalog record; the filter itself runs on the index payload snapshot.
	ColorMatch func(*models.Product) bool
	// Category is the effective category filter, used to flag category matches.
	Category string
}

// Assembler turns admitted candidates into the final ordered, enriched result list.
type Assembler struct {
	catalog  storage.Catalog
	recorder metrics.Recorder
	logger   *zap.Logger
}

// NewAssembler creates an assembler that enriches from catalog. A nil catalog serves
// payload snapshots only.
func NewAssembler(catalog storage.Catalog, recorder metrics.Recorder, logger *zap.Logger) *Assembler {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &Assembler{catalog: catalog, recorder: recorder, logger: utils.OrNop(logger)}
}

// Assemble drops candidates with invalid ids, deduplicates, sorts, applies the color
// filter, truncates to the limit and enriches the survivors from the catalog. With a
// color requested, enrichment runs before truncation so that records whose catalog
// version lost the color are dropped without shortening the page.
func (a *Assembler) Assemble(ctx context.Context, scored []*models.ScoredResult, opts AssembleOptions) []*models.SearchResult {
	valid := make([]*models.ScoredResult, 0, len(scored))
	for _, r := range scored {
		if !models.ValidID(r.ProductID) {
			a.logger.Warn("skipping candidate",
				zap.String("product_id", r.ProductID),
				zap.Error(ErrInvalidIDFormat),
			)
			a.recorder.InvalidID()
			continue
		}
		valid = append(valid, r)
	}

	ranked := Dedupe(valid)
	SortScored(ranked)
	ranked = FilterByColor(ranked, opts.ColorRequested)
	if opts.ColorRequested && opts.ColorMatch != nil {
		a.enrich(ctx, ranked)
		ranked = a.recheckColor(ranked, opts.ColorMatch)
		ranked = truncate(ranked, opts.Limit)
	} else {
		ranked = truncate(ranked, opts.Limit)
		a.enrich(ctx, ranked)
	}

	out := make([]*models.SearchResult, 0, len(ranked))
	for i, r := range ranked {
		out = append(out, &models.SearchResult{
			Product:         r.Product,
			Score:           r.CombinedScore,
			VectorScore:     r.VectorScore,
			SemanticScore:   r.SemanticScore,
			MatchPercentage: int(math.Round(r.CombinedScore * 100)),
			Admission:       r.Admission,
			CategoryMatched: opts.Category != "" && strings.EqualFold(r.Product.Category, opts.Category),
			Enriched:        r.Enriched,
			Rank:            i + 1,
		})
	}
	return out
}

// Dedupe keeps the highest-scoring candidate per product id, in first-seen order.
func Dedupe(scored []*models.ScoredResult) []*models.ScoredResult {
	best := make(map[string]int, len(scored))
	out := make([]*models.ScoredResult, 0, len(scored))
	for _, r := range scored {
		if i, ok := best[r.ProductID]; ok {
			if r.CombinedScore > out[i].CombinedScore {
				out[i] = r
			}
			continue
		}
		best[r.ProductID] = len(out)
		out = append(out, r)
	}
	return out
}

// SortScored orders candidates by combined score, then vector score, then product id.
func SortScored(scored []*models.ScoredResult) {
	sort.SliceStable(scored, func(i, j int) bool {
		a, b := scored[i], scored[j]
		if a.CombinedScore != b.CombinedScore {
			return a.CombinedScore > b.CombinedScore
		}
		if a.VectorScore != b.VectorScore {
			return a.VectorScore > b.VectorScore
		}
		return a.ProductID < b.ProductID
	})
}

// FilterByColor keeps only color-matching candidates when a color was requested, even
// if none match. Without a requested color scored is returned unchanged.
func FilterByColor(scored []*models.ScoredResult, requested bool) []*models.ScoredResult {
	if !requested {
		return scored
	}
	matching := make([]*models.ScoredResult, 0, len(scored))
	for _, r := range scored {
		if r.ColorMatch {
			matching = append(matching, r)
		}
	}
	return matching
}

func truncate(scored []*models.ScoredResult, limit int) []*models.ScoredResult {
	if limit > 0 && len(scored) > limit {
		return scored[:limit]
	}
	return scored
}

// recheckColor drops enriched results whose catalog record no longer matches the
// requested color. Snapshots were already checked by FilterByColor.
func (a *Assembler) recheckColor(ranked []*models.ScoredResult, match func(*models.Product) bool) []*models.ScoredResult {
	out := ranked[:0]
	for _, r := range ranked {
		if r.Enriched && !match(r.Product) {
			a.logger.Debug("dropping result, catalog record lost requested color",
				zap.String("product_id", r.ProductID),
				zap.String("name", r.Product.Name),
			)
			continue
		}
		out = append(out, r)
	}
	return out
}

func (a *Assembler) enrich(ctx context.Context, ranked []*models.ScoredResult) {
	for _, r := range ranked {
		r.Product = snapshot(r)
		r.Enriched = false
	}
	if a.catalog == nil || len(ranked) == 0 {
		return
	}

	ids := make([]string, len(ranked))
	for i, r := range ranked {
		ids[i] = r.ProductID
	}
	products, err := a.catalog.GetProducts(ctx, ids)
	if err != nil {
		a.logger.Error("catalog lookup failed, serving index snapshots",
			zap.Int("results", len(ranked)),
			zap.Error(err),
		)
		return
	}
	for _, r := range ranked {
		p, ok := products[r.ProductID]
		if !ok {
			a.logger.Warn("serving index snapshot",
				zap.String("product_id", r.ProductID),
				zap.Error(ErrEnrichmentGap),
			)
			a.recorder.EnrichmentGap()
			continue
		}
		r.Product = p
		r.Enriched = true
	}
}

func snapshot(r *models.ScoredResult) *models.Product {
	if r.Hit == nil {
		return &models.Product{ID: r.ProductID, InStock: true}
	}
	p := r.Hit.Payload.Product()
	if p.ID == "" {
		p.ID = r.ProductID
	}
	return p
}
