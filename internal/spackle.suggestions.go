package internal

import (
	"sort"
	"strings"
)

// FindSimilarStrings returns up to max candidates close to target, closest
// first. Similarity is case-insensitive Levenshtein distance bounded by half
// the target length (at least 2).
func FindSimilarStrings(target string, candidates []string, max int) []string {
	if len(candidates) == 0 || max <= 0 {
		return nil
	}

	limit := len(target) / 2
	if limit < 2 {
		limit = 2
	}

	type scored struct {
		candidate string
		distance  int
	}

	lowered := strings.ToLower(target)
	var similar []scored
	for _, c := range candidates {
		if c == target {
			continue
		}
		if d := levenshteinDistance(lowered, strings.ToLower(c)); d <= limit {
			similar = append(similar, scored{candidate: c, distance: d})
		}
	}

	sort.SliceStable(similar, func(i, j int) bool {
		if similar[i].distance != similar[j].distance {
			return similar[i].distance < similar[j].distance
		}
		return similar[i].candidate < similar[j].candidate
	})

	if len(similar) > max {
		similar = similar[:max]
	}
	out := make([]string, len(similar))
	for i, s := range similar {
		out[i] = s.candidate
	}
	return out
}

// levenshteinDistance counts the single-byte edits turning a into b.
func levenshteinDistance(a, b string) int {
	if a == "" {
		return len(b)
	}
	if b == "" {
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
			curr[j] = minInt(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func minInt(values ...int) int {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

// LineOf returns the 1-based line of byte offset in content.
func LineOf(content string, offset int) int {
	if offset < 0 {
		return 0
	}
	if offset > len(content) {
		offset = len(content)
	}
	return strings.Count(content[:offset], "\n") + 1
}
