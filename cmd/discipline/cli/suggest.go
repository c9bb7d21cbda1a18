// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

package cli

// maxSuggestionDistance is the largest edit distance still offered as
// a "did you mean".
const maxSuggestionDistance = 3

// closest returns the candidate nearest to name by edit distance, if
// any is within maxSuggestionDistance. Ties go to the earlier
// candidate.
func closest(name string, candidates []string) (string, bool) {
	best, bestDistance := "", maxSuggestionDistance+1
	for _, candidate := range candidates {
		if distance := editDistance(name, candidate); distance < bestDistance {
			best, bestDistance = candidate, distance
		}
	}
	return best, best != ""
}

// editDistance is the Levenshtein distance between a and b, counted in
// bytes.
func editDistance(a, b string) int {
	previous := make([]int, len(b)+1)
	current := make([]int, len(b)+1)
	for j := range previous {
		previous[j] = j
	}
	for i := 1; i <= len(a); i++ {
		current[0] = i
		for j := 1; j <= len(b); j++ {
			substitution := previous[j-1]
			if a[i-1] != b[j-1] {
				substitution++
			}
			current[j] = min(previous[j]+1, current[j-1]+1, substitution)
		}
		previous, current = current, previous
	}
	return previous[len(b)]
}
