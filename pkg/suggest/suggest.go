// Package suggest finds names close to a mistyped one.
package suggest

import (
	"cmp"
	"slices"
	"strings"
)

// threshold is the minimum similarity score required for a candidate to be suggested.
const threshold = 0.5

type scored struct {
	name  string
	score float64
}

// FindSimilar returns up to maxResults candidates similar to target, best match first. Ties are
// broken alphabetically.
func FindSimilar(target string, candidates []string, maxResults int) []string {
	if target == "" || maxResults <= 0 {
		return []string{}
	}
	var matches []scored
	for _, name := range candidates {
		if s := similarity(target, name); s > threshold {
			matches = append(matches, scored{name, s})
		}
	}
	slices.SortFunc(matches, func(a, b scored) int {
		if c := cmp.Compare(b.score, a.score); c != 0 {
			return c
		}
		return cmp.Compare(a.name, b.name)
	})
	result := make([]string, 0, min(maxResults, len(matches)))
	for _, m := range matches[:min(maxResults, len(matches))] {
		result = append(result, m.name)
	}
	return result
}

// similarity scores a against b between 0 and 1. Case is ignored, a prefix scores 0.9 and a single
// swap of adjacent characters scores as one edit.
func similarity(a, b string) float64 {
	a, b = strings.ToLower(a), strings.ToLower(b)
	switch {
	case a == b:
		return 1
	case strings.HasPrefix(b, a):
		return 0.9
	}
	d := distance(a, b)
	if isTransposition(a, b) {
		d = 1
	}
	return 1 - float64(d)/float64(max(len(a), len(b)))
}

// distance is the Levenshtein edit distance, computed with two rows.
func distance(a, b string) int {
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

func isTransposition(a, b string) bool {
	if len(a) != len(b) || len(a) < 2 {
		return false
	}
	var diff []int
	for i := 0; i < len(a); i++ {
		if a[i] != b[i] {
			diff = append(diff, i)
			if len(diff) > 2 {
				return false
			}
		}
	}
	return len(diff) == 2 && diff[1] == diff[0]+1 &&
		a[diff[0]] == b[diff[1]] && a[diff[1]] == b[diff[0]]
}
