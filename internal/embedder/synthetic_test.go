package embedder

import (
	"context"
	"math"
	"testing"

	"github.com/openmemory/openmemory/internal/model"
)

func TestSynthetic_EmbedForSector_ReturnsConfiguredDim(t *testing.T) {
	s := NewSynthetic(64)
	v, err := s.EmbedForSector(context.Background(), "hello world", model.SectorSemantic)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(v) != 64 {
		t.Fatalf("expected vector of length 64, got %d", len(v))
	}
}

func TestSynthetic_EmbedForSector_DeterministicForSameInput(t *testing.T) {
	s := NewSynthetic(32)
	a, _ := s.EmbedForSector(context.Background(), "same text", model.SectorEpisodic)
	b, _ := s.EmbedForSector(context.Background(), "same text", model.SectorEpisodic)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("expected deterministic embedding at index %d: %f vs %f", i, a[i], b[i])
		}
	}
}

func TestSynthetic_EmbedForSector_IsL2Normalized(t *testing.T) {
	s := NewSynthetic(32)
	v, _ := s.EmbedForSector(context.Background(), "a reasonably long sentence with several tokens", model.SectorSemantic)
	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	norm := math.Sqrt(sumSq)
	if math.Abs(norm-1.0) > 1e-4 {
		t.Fatalf("expected unit-norm vector, got norm %f", norm)
	}
}

func TestSynthetic_EmbedForSector_EmptyTextIsZeroVector(t *testing.T) {
	s := NewSynthetic(16)
	v, _ := s.EmbedForSector(context.Background(), "", model.SectorSemantic)
	for i, x := range v {
		if x != 0 {
			t.Fatalf("expected zero vector for empty text, got nonzero at %d: %f", i, x)
		}
	}
}

func TestSynthetic_EmbedBatch_SameSectorsConsistentWithEmbedForSector(t *testing.T) {
	s := NewSynthetic(32)
	sectors := []model.Sector{model.SectorSemantic, model.SectorEpisodic}
	batch, err := s.EmbedBatch(context.Background(), "consistent text", sectors)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, sec := range sectors {
		single, _ := s.EmbedForSector(context.Background(), "consistent text", sec)
		for i := range single {
			if batch[sec][i] != single[i] {
				t.Fatalf("sector %s: batch and single embeddings diverge at %d", sec, i)
			}
		}
	}
}

func TestSynthetic_EmbedForSector_DifferentTextsDiffer(t *testing.T) {
	s := NewSynthetic(32)
	a, _ := s.EmbedForSector(context.Background(), "cats and dogs", model.SectorSemantic)
	b, _ := s.EmbedForSector(context.Background(), "quantum mechanics", model.SectorSemantic)
	same := true
	for i := range a {
		if a[i] != b[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatalf("expected different embeddings for unrelated texts")
	}
}
