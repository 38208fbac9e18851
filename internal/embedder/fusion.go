package embedder

// defaultFusionWeights are the sector-specific synthetic/semantic weight
// pairs named by the specification; any sector not listed falls back to
// 0.5/0.5.
var defaultFusionWeights = map[string][2]float64{
	"semantic":   {0.4, 0.6},
	"procedural": {0.45, 0.55},
}

// FusionWeights returns the (synthetic, semantic) weight pair for a sector.
func FusionWeights(sector string) (float64, float64) {
	if w, ok := defaultFusionWeights[sector]; ok {
		return w[0], w[1]
	}
	return 0.5, 0.5
}

// Fuse computes a weighted element-wise sum of v1 and v2 (weights
// normalized to sum to 1 first), L2-normalized.
func Fuse(v1, v2 []float32, w1, w2 float64) []float32 {
	total := w1 + w2
	if total == 0 {
		total = 1
	}
	w1, w2 = w1/total, w2/total

	n := len(v1)
	if len(v2) > n {
		n = len(v2)
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		var a, b float64
		if i < len(v1) {
			a = float64(v1[i])
		}
		if i < len(v2) {
			b = float64(v2[i])
		}
		out[i] = w1*a + w2*b
	}
	return l2Normalize(out)
}
