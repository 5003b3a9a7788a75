// Package duplicate suggests products that are probably the same item listed
// under a different name. It never merges anything itself.
package duplicate

import (
	"strings"
	"unicode"
)

// Trigrams returns the trigram set of s the way pg_trgm builds it: the text
// is lowercased and split on non-alphanumeric runes, and every word is padded
// with two spaces in front and one behind.
func Trigrams(s string) map[string]struct{} {
	set := make(map[string]struct{})
	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		padded := []rune("  " + w + " ")
		for i := 0; i+3 <= len(padded); i++ {
			set[string(padded[i:i+3])] = struct{}{}
		}
	}
	return set
}

// Similarity is the pg_trgm similarity of a and b: shared trigrams over the
// union of both sets. Two strings without trigrams have similarity 0.
func Similarity(a, b string) float64 {
	return SimilarityOf(Trigrams(a), Trigrams(b))
}

// SimilarityOf compares precomputed trigram sets.
func SimilarityOf(ta, tb map[string]struct{}) float64 {
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	common := 0
	for g := range ta {
		if _, ok := tb[g]; ok {
			common++
		}
	}
	union := len(ta) + len(tb) - common
	return float64(common) / float64(union)
}

// HasExactPrefix reports whether either name starts with the other, ignoring
// case and surrounding space.
func HasExactPrefix(a, b string) bool {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return false
	}
	return strings.HasPrefix(a, b) || strings.HasPrefix(b, a)
}
