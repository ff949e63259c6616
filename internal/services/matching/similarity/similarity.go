// Package similarity scores how close two entity names are
package similarity

import (
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// EditDistance is the Levenshtein distance between a and b, counted in runes.
// Case sensitive
func EditDistance(a, b string) int {
	return levenshtein.ComputeDistance(a, b)
}

// Similarity is 1 - distance/maxLen where distance is taken over the lowercased
// names and maxLen is the longer input in runes. Two empty names are identical
func Similarity(a, b string) float64 {
	s, _ := Score(a, b)
	return s
}

// Score returns the similarity of a and b and the distance it was derived from
// so callers can break ties on it. Lowercasing only maps case; ß and ss stay distinct
func Score(a, b string) (float64, int) {
	maxLen := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if maxLen == 0 {
		return 1, 0
	}
	d := EditDistance(lower(a), lower(b))
	return clamp(float64(maxLen-d) / float64(maxLen)), d
}

// lower uses a fresh Caser per call; Casers are not safe for concurrent use
func lower(s string) string {
	return cases.Lower(language.Und).String(s)
}

func clamp(x float64) float64 {
	switch {
	case x < 0:
		return 0
	case x > 1:
		return 1
	}
	return x
}
