package embedder

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/openmemory/openmemory/internal/classifier"
	"github.com/openmemory/openmemory/internal/model"
)

// Synthetic is the deterministic, CPU-only, always-available fallback
// provider: hashing-trick features over tokens, character n-grams,
// bigrams/trigrams, skip-grams, and positional sinusoids, weighted by
// sector and L2-normalized.
type Synthetic struct {
	dim int
}

func NewSynthetic(dim int) *Synthetic {
	return &Synthetic{dim: dim}
}

func (s *Synthetic) Name() string { return "synthetic" }

func (s *Synthetic) EmbedForSector(_ context.Context, text string, sector model.Sector) ([]float32, error) {
	return s.embed(text, sector), nil
}

func (s *Synthetic) EmbedBatch(_ context.Context, text string, sectors []model.Sector) (map[model.Sector][]float32, error) {
	out := make(map[model.Sector][]float32, len(sectors))
	for _, sec := range sectors {
		out[sec] = s.embed(text, sec)
	}
	return out, nil
}

func (s *Synthetic) embed(text string, sector model.Sector) []float32 {
	dim := s.dim
	if dim <= 0 {
		dim = 384
	}
	v := make([]float64, dim)

	tokens := tokenize(text)
	for i, tok := range tokens {
		hashInto(v, tok, 1.0)
		// positional sinusoid: nudges the same token differently by position,
		// so word order contributes without a sequence model.
		pos := float64(i)
		bucket := int(pos) % dim
		v[bucket] += math.Sin(pos/10.0) * 0.15
	}

	for _, bg := range ngrams(tokens, 2) {
		hashInto(v, bg, 0.6)
	}
	for _, tg := range ngrams(tokens, 3) {
		hashInto(v, tg, 0.4)
	}
	for _, sg := range skipgrams(tokens, 2) {
		hashInto(v, sg, 0.3)
	}

	runes := []rune(strings.ToLower(text))
	for _, cg := range charNgrams(runes, 3) {
		hashInto(v, cg, 0.2)
	}

	weight := classifier.SectorWeight(sector)
	for i := range v {
		v[i] *= weight
	}

	return l2Normalize(v)
}

func tokenize(text string) []string {
	var out []string
	var cur strings.Builder
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			cur.WriteRune(unicode.ToLower(r))
		} else if cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
		}
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out
}

func ngrams(tokens []string, n int) []string {
	if len(tokens) < n {
		return nil
	}
	out := make([]string, 0, len(tokens)-n+1)
	for i := 0; i+n <= len(tokens); i++ {
		out = append(out, strings.Join(tokens[i:i+n], "_"))
	}
	return out
}

func skipgrams(tokens []string, skip int) []string {
	if len(tokens) < skip+2 {
		return nil
	}
	out := make([]string, 0, len(tokens)-skip-1)
	for i := 0; i+skip+1 < len(tokens); i++ {
		out = append(out, tokens[i]+"_"+tokens[i+skip+1])
	}
	return out
}

func charNgrams(runes []rune, n int) []string {
	if len(runes) < n {
		return nil
	}
	out := make([]string, 0, len(runes)-n+1)
	for i := 0; i+n <= len(runes); i++ {
		out = append(out, string(runes[i:i+n]))
	}
	return out
}

// hashInto applies the hashing trick: feature -> bucket via FNV-1a, sign via
// a second hash bit, scaled by weight.
func hashInto(v []float64, feature string, weight float64) {
	h := fnv.New64a()
	h.Write([]byte(feature))
	sum := h.Sum64()
	bucket := int(sum % uint64(len(v)))
	sign := 1.0
	if sum&1 == 1 {
		sign = -1.0
	}
	v[bucket] += sign * weight
}

func l2Normalize(v []float64) []float32 {
	var sumSq float64
	for _, x := range v {
		sumSq += x * x
	}
	norm := math.Sqrt(sumSq)
	out := make([]float32, len(v))
	if norm == 0 {
		return out
	}
	for i, x := range v {
		out[i] = float32(x / norm)
	}
	return out
}
