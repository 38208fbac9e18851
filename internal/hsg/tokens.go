package hsg

import (
	"regexp"
	"strings"
)

var tokenRE = regexp.MustCompile(`[a-zA-Z0-9]+`)

// canonicalTokens returns the lowercase token set of text, deduplicated.
func canonicalTokens(text string) map[string]bool {
	out := map[string]bool{}
	for _, t := range tokenRE.FindAllString(strings.ToLower(text), -1) {
		out[t] = true
	}
	return out
}

// tokenOverlap computes |q ∩ m| / |q|, 0 if q is empty.
func tokenOverlap(q, m map[string]bool) float64 {
	if len(q) == 0 {
		return 0
	}
	hits := 0
	for t := range q {
		if m[t] {
			hits++
		}
	}
	return float64(hits) / float64(len(q))
}

// tagMatchScore scores query tags against a memory's tags: exact match = 2,
// substring match = 1, normalized into [0,1] by the maximum possible score.
func tagMatchScore(queryTags, memoryTags []string) float64 {
	if len(queryTags) == 0 || len(memoryTags) == 0 {
		return 0
	}
	var score float64
	for _, qt := range queryTags {
		qtl := strings.ToLower(qt)
		best := 0.0
		for _, mt := range memoryTags {
			mtl := strings.ToLower(mt)
			if mtl == qtl {
				best = 2
				break
			}
			if strings.Contains(mtl, qtl) || strings.Contains(qtl, mtl) {
				if best < 1 {
					best = 1
				}
			}
		}
		score += best
	}
	max := float64(len(queryTags)) * 2
	if max == 0 {
		return 0
	}
	v := score / max
	if v > 1 {
		return 1
	}
	return v
}
