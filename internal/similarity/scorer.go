// Package similarity scores test-case titles for likeness and partitions
// case collections into groups of probable duplicates.
package similarity

import "strings"

// Score returns a similarity score in [0, 100] between two strings; 100 is
// maximally similar. The rules are tried in order and the first match wins,
// so the cheap high-confidence checks short-circuit before the O(n*m) edit
// distance:
//
//  1. case-insensitive trimmed exact match -> 100
//  2. exact match after collapsing whitespace runs -> 95
//  3. substring containment either direction -> shorter/longer * 90
//  4. Levenshtein similarity ((maxLen-distance)/maxLen) * 100
func Score(a, b string) float64 {
	s1 := strings.ToLower(strings.TrimSpace(a))
	s2 := strings.ToLower(strings.TrimSpace(b))

	if s1 == s2 {
		return 100
	}

	if collapseWhitespace(s1) == collapseWhitespace(s2) {
		return 95
	}

	r1 := []rune(s1)
	r2 := []rune(s2)
	if strings.Contains(s1, s2) || strings.Contains(s2, s1) {
		shorter, longer := len(r1), len(r2)
		if shorter > longer {
			shorter, longer = longer, shorter
		}
		return float64(shorter) / float64(longer) * 90
	}

	maxLen := max(len(r1), len(r2))
	// two empty strings already matched rule 1; maxLen is never 0 here
	distance := levenshtein(r1, r2)
	return float64(maxLen-distance) / float64(maxLen) * 100
}

// collapseWhitespace reduces internal whitespace runs to single spaces.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// levenshtein computes the classic edit distance with a two-row matrix.
func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}
