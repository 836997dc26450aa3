// Package cli provides CLI output formatting and a client for a running Kaimono server.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/kaimono/internal/models"
	"github.com/hyperjump/kaimono/pkg/utils"
)

// SearchOutputFormat is the format for search result output.
type SearchOutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText SearchOutputFormat = "text"
	// OutputCompact is one line per result.
	OutputCompact SearchOutputFormat = "compact"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON SearchOutputFormat = "json"
)

// ParseOutputFormat validates a --output flag value. Empty selects OutputText.
func ParseOutputFormat(s string) (SearchOutputFormat, error) {
	switch f := SearchOutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return OutputText, nil
	case OutputText, OutputCompact, OutputJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, compact or json)", s)
	}
}

// WriteSearchResults writes search results to w in the given format.
// Use OutputJSON for parseable output consumable by other apps.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, format SearchOutputFormat) error {
	switch format {
	case OutputJSON:
		return WriteJSON(w, response)
	case OutputCompact:
		for _, r := range response.Results {
			writeCompact(w, r)
		}
		return nil
	default:
		writeSearchResultsText(w, response)
		return nil
	}
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeSearchResultsText(w io.Writer, response *models.SearchResponse) {
	fmt.Fprintf(w, "\nFound %d results in %dms", response.Total, response.QueryTime)
	if response.Category != "" {
		how := "requested"
		if response.CategoryInferred {
			how = "inferred"
		}
		fmt.Fprintf(w, " (category %s, %s)", response.Category, how)
	}
	fmt.Fprintf(w, " [retrieval: %s, %d candidates]\n\n", response.RetrievalStep, response.Candidates)
	for _, result := range response.Results {
		writeOneResult(w, result)
	}
}

func writeOneResult(w io.Writer, result *models.SearchResult) {
	p := result.Product
	fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
	fmt.Fprintf(w, "#%d %s  %d%% match (Vector: %.4f, Semantic: %.4f, %s)\n",
		result.Rank, p.Name, result.MatchPercentage, result.VectorScore, result.SemanticScore, result.Admission)
	fmt.Fprintf(w, "ID: %s", p.ID)
	if p.Category != "" {
		fmt.Fprintf(w, " | Category: %s", p.Category)
	}
	if p.Price > 0 {
		fmt.Fprintf(w, " | Price: %.2f", p.Price)
	}
	if !p.InStock {
		fmt.Fprint(w, " | out of stock")
	}
	fmt.Fprintln(w)
	if p.Description != "" {
		fmt.Fprintf(w, "\n%s\n", utils.Truncate(p.Description, 200))
	}
	if !result.Enriched {
		fmt.Fprintln(w, "(catalog record unavailable; showing indexed snapshot)")
	}
	fmt.Fprintln(w)
}

func writeCompact(w io.Writer, result *models.SearchResult) {
	fmt.Fprintf(w, "%d\t%d%%\t%s\t%s\t%s\n",
		result.Rank, result.MatchPercentage, result.Product.ID, result.Product.Category, TruncateWords(result.Product.Name, 8))
}

// TruncateWords returns up to maxWords from the space-separated string.
func TruncateWords(s string, maxWords int) string {
	words := strings.Fields(s)
	if len(words) <= maxWords {
		return s
	}
	return strings.Join(words[:maxWords], " ") + "..."
}
