// Package fuzzy provides string similarity scoring used to match
// spreadsheet column headers against configured field keys.
package fuzzy

import (
	"strings"
	"unicode"
)

// LevenshteinDistance returns the minimum number of single-character edits
// (insertions, deletions, substitutions) required to change s1 into s2.
// Both inputs are normalized (lowercased, separators stripped) before
// comparison so "Emp Name" and "emp_name" compare as equal.
func LevenshteinDistance(s1, s2 string) int {
	s1 = Normalize(s1)
	s2 = Normalize(s2)

	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	r1 := []rune(s1)
	r2 := []rune(s2)
	m := len(r1)
	n := len(r2)

	// Two-row rolling matrix keeps allocations bounded.
	prev := make([]int, n+1)
	curr := make([]int, n+1)

	for j := 0; j <= n; j++ {
		prev[j] = j
	}

	for i := 1; i <= m; i++ {
		curr[0] = i
		for j := 1; j <= n; j++ {
			cost := 1
			if r1[i-1] == r2[j-1] {
				cost = 0
			}
			curr[j] = min3(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[n]
}

// Similarity returns a normalized score in [0,1]:
// (maxLen - levenshtein) / maxLen over the normalized forms.
// Two empty strings score 1.
func Similarity(s1, s2 string) float64 {
	n1 := Normalize(s1)
	n2 := Normalize(s2)

	maxLen := len([]rune(n1))
	if l2 := len([]rune(n2)); l2 > maxLen {
		maxLen = l2
	}
	if maxLen == 0 {
		return 1
	}

	distance := LevenshteinDistance(n1, n2)
	return float64(maxLen-distance) / float64(maxLen)
}

// Normalize lowercases the input and strips spaces, underscores, hyphens
// and other punctuation so header variants collapse to one form.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
