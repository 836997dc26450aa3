package utils

import (
	"strings"
	"unicode"
)

// Terms is a tokenized, lower-cased view of a piece of text used for whole-word matching.
// Hyphenated words contribute both the full word and its parts ("off-white", "off", "white").
type Terms struct {
	words  []string
	set    map[string]struct{}
	phrase string
}

// NewTerms tokenizes s on anything that is not a letter, digit, hyphen or apostrophe.
func NewTerms(s string) Terms {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' && r != '\''
	})
	t := Terms{set: make(map[string]struct{}, len(fields))}
	for _, f := range fields {
		f = strings.Trim(f, "-'")
		if f == "" {
			continue
		}
		t.words = append(t.words, f)
		t.set[f] = struct{}{}
		if strings.Contains(f, "-") {
			for _, part := range strings.Split(f, "-") {
				if part != "" {
					t.set[part] = struct{}{}
				}
			}
		}
	}
	t.phrase = " " + strings.Join(t.words, " ") + " "
	return t
}

// Words returns the tokens in order of appearance, hyphenated words kept whole.
func (t Terms) Words() []string { return t.words }

// Len is the number of tokens.
func (t Terms) Len() int { return len(t.words) }

// Unique returns the distinct tokens in order of first appearance.
func (t Terms) Unique() []string {
	seen := make(map[string]struct{}, len(t.words))
	out := make([]string, 0, len(t.words))
	for _, w := range t.words {
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}

// Has reports whether the text contains term as a whole word, or as a whole phrase when
// term has several words.
func (t Terms) Has(term string) bool {
	term = NormalizeSpace(term)
	if term == "" {
		return false
	}
	if !strings.Contains(term, " ") {
		_, ok := t.set[term]
		return ok
	}
	return strings.Contains(t.phrase, " "+term+" ")
}

// First returns the first of terms present in the text.
func (t Terms) First(terms ...string) (string, bool) {
	for _, term := range terms {
		if t.Has(term) {
			return term, true
		}
	}
	return "", false
}

// HasAny reports whether any of terms is present.
func (t Terms) HasAny(terms ...string) bool {
	_, ok := t.First(terms...)
	return ok
}

// Overlap returns the fraction of distinct tokens of t that also occur in other.
func (t Terms) Overlap(other Terms) float64 {
	unique := t.Unique()
	if len(unique) == 0 {
		return 0
	}
	n := 0
	for _, w := range unique {
		if _, ok := other.set[w]; ok {
			n++
		}
	}
	return float64(n) / float64(len(unique))
}

// Contains reports whether term occurs anywhere in the text, inside words as well, so
// "phone" is found in "smartphone" and "pant" in "pants". A plural term also matches its
// singular form.
func (t Terms) Contains(term string) bool {
	norm := strings.Join(NewTerms(term).words, " ")
	if norm == "" {
		return false
	}
	if strings.Contains(t.phrase, norm) {
		return true
	}
	if s := Singular(norm); s != norm {
		return strings.Contains(t.phrase, s)
	}
	return false
}

// ContainsAny reports whether any of terms is contained in the text.
func (t Terms) ContainsAny(terms ...string) bool {
	for _, term := range terms {
		if t.Contains(term) {
			return true
		}
	}
	return false
}

// Singular strips a regular English plural ending from the last word of s.
func Singular(s string) string {
	switch {
	case len(s) > 4 && strings.HasSuffix(s, "ies"):
		return s[:len(s)-3] + "y"
	case len(s) > 3 && strings.HasSuffix(s, "s") && !strings.HasSuffix(s, "ss"):
		return s[:len(s)-1]
	}
	return s
}
