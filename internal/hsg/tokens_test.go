package hsg

import (
	"math"
	"testing"
)

func TestCanonicalTokens_LowercasesAndDedupes(t *testing.T) {
	got := canonicalTokens("Go Go GOLANG, go!")
	want := map[string]bool{"go": true, "golang": true}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for k := range want {
		if !got[k] {
			t.Fatalf("expected token %q in %v", k, got)
		}
	}
}

func TestTokenOverlap_FullMatch(t *testing.T) {
	q := canonicalTokens("rust systems programming")
	m := canonicalTokens("rust systems programming language")
	if got := tokenOverlap(q, m); math.Abs(got-1.0) > 1e-9 {
		t.Fatalf("expected full overlap, got %f", got)
	}
}

func TestTokenOverlap_PartialMatch(t *testing.T) {
	q := canonicalTokens("alpha beta")
	m := canonicalTokens("alpha gamma")
	if got := tokenOverlap(q, m); math.Abs(got-0.5) > 1e-9 {
		t.Fatalf("expected 0.5 overlap, got %f", got)
	}
}

func TestTokenOverlap_EmptyQueryIsZero(t *testing.T) {
	if got := tokenOverlap(map[string]bool{}, canonicalTokens("anything")); got != 0 {
		t.Fatalf("expected 0 for empty query, got %f", got)
	}
}

func TestTagMatchScore_ExactBeatsSubstring(t *testing.T) {
	exact := tagMatchScore([]string{"work"}, []string{"work"})
	substr := tagMatchScore([]string{"work"}, []string{"workshop"})
	if exact <= substr {
		t.Fatalf("expected exact match to score higher: exact=%f substr=%f", exact, substr)
	}
}

func TestTagMatchScore_NoOverlapIsZero(t *testing.T) {
	if got := tagMatchScore([]string{"work"}, []string{"personal"}); got != 0 {
		t.Fatalf("expected 0, got %f", got)
	}
}

func TestTagMatchScore_EmptyInputsAreZero(t *testing.T) {
	if got := tagMatchScore(nil, []string{"work"}); got != 0 {
		t.Fatalf("expected 0 for empty query tags, got %f", got)
	}
	if got := tagMatchScore([]string{"work"}, nil); got != 0 {
		t.Fatalf("expected 0 for empty memory tags, got %f", got)
	}
}

func TestTagMatchScore_BoundedByOne(t *testing.T) {
	got := tagMatchScore([]string{"work", "project"}, []string{"work", "project", "extra"})
	if got > 1 {
		t.Fatalf("expected score bounded by 1, got %f", got)
	}
}
