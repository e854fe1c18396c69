package extraction

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// SimilarityThreshold is the ratio a label token must exceed to count as a
// fuzzy keyword match
const SimilarityThreshold = 0.7

// Similarity returns the Ratcliff/Obershelp ratio 2*M/(len(a)+len(b)) of a
// and b, compared case-insensitively rune by rune. The greedy block matcher
// is order dependent, so the pair is sorted first to keep the result
// symmetric.
func Similarity(a, b string) float64 {
	a, b = strings.ToLower(a), strings.ToLower(b)
	if a > b {
		a, b = b, a
	}
	return difflib.NewMatcher(runes(a), runes(b)).Ratio()
}

// Matches reports whether any token is similar enough to keyword
func Matches(tokens []string, keyword string) bool {
	for _, t := range tokens {
		if Similarity(t, keyword) > SimilarityThreshold {
			return true
		}
	}
	return false
}

func runes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
