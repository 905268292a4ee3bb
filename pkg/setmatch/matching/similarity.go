package matching

import (
	"strings"

	"github.com/agext/levenshtein"
)

// TitleSimilarity scores two normalized titles on a 0..1 scale. Exact
// equality wins outright, containment is strong, then word overlap; two
// single-word titles with nothing in common fall back to edit distance.
func TitleSimilarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return 0.8
	}

	wordsA := strings.Fields(a)
	wordsB := strings.Fields(b)
	common := commonWordCount(wordsA, wordsB)
	if common > 0 {
		longer := len(wordsA)
		if len(wordsB) > longer {
			longer = len(wordsB)
		}
		return float64(common) / float64(longer)
	}

	if len(wordsA) <= 1 && len(wordsB) <= 1 {
		return levenshteinSimilarity(a, b)
	}
	return 0.0
}

func commonWordCount(a, b []string) int {
	set := make(map[string]bool, len(a))
	for _, w := range a {
		set[w] = true
	}
	count := 0
	seen := make(map[string]bool, len(b))
	for _, w := range b {
		if set[w] && !seen[w] {
			count++
			seen[w] = true
		}
	}
	return count
}

// levenshteinSimilarity converts unit-cost edit distance into a 0..1
// similarity. Strings whose lengths differ by more than half the longer
// length cannot be similar, so the O(n*m) table is skipped for them.
func levenshteinSimilarity(a, b string) float64 {
	la := len([]rune(a))
	lb := len([]rune(b))
	longer := la
	shorter := lb
	if lb > la {
		longer, shorter = lb, la
	}
	if longer == 0 {
		return 1.0
	}
	if float64(longer-shorter) > 0.5*float64(longer) {
		return 0.0
	}

	dist := levenshtein.Distance(a, b, nil)
	sim := 1.0 - float64(dist)/float64(longer)
	if sim < 0 {
		sim = 0
	}
	return sim
}
