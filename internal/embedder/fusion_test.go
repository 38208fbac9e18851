package embedder

import (
	"math"
	"testing"
)

func TestFusionWeights_KnownSectorsSumToOne(t *testing.T) {
	for _, sector := range []string{"semantic", "procedural", "unknown_sector"} {
		w1, w2 := FusionWeights(sector)
		if math.Abs((w1+w2)-1.0) > 1e-9 {
			t.Fatalf("sector %s: weights should sum to 1, got %f+%f", sector, w1, w2)
		}
	}
}

func TestFusionWeights_UnknownSectorIsEvenSplit(t *testing.T) {
	w1, w2 := FusionWeights("does_not_exist")
	if w1 != 0.5 || w2 != 0.5 {
		t.Fatalf("expected 0.5/0.5 default, got %f/%f", w1, w2)
	}
}

func TestFuse_IsUnitNorm(t *testing.T) {
	v1 := []float32{1, 0, 0}
	v2 := []float32{0, 1, 0}
	out := Fuse(v1, v2, 0.5, 0.5)
	var sumSq float64
	for _, x := range out {
		sumSq += float64(x) * float64(x)
	}
	if math.Abs(math.Sqrt(sumSq)-1.0) > 1e-6 {
		t.Fatalf("expected unit norm, got %f", math.Sqrt(sumSq))
	}
}

func TestFuse_WeightOneCollapsesToSingleVector(t *testing.T) {
	v1 := []float32{1, 2, 3}
	v2 := []float32{9, 9, 9}
	out := Fuse(v1, v2, 1, 0)
	want := Fuse(v1, v1, 1, 1) // any nonzero split of an identical pair normalizes the same way
	for i := range out {
		if math.Abs(float64(out[i]-want[i])) > 1e-6 {
			t.Fatalf("expected fusion with w2=0 to reduce to v1's direction, index %d: %f vs %f", i, out[i], want[i])
		}
	}
}

func TestFuse_MismatchedLengthsPadsShorter(t *testing.T) {
	v1 := []float32{1, 2}
	v2 := []float32{1, 2, 3}
	out := Fuse(v1, v2, 0.5, 0.5)
	if len(out) != 3 {
		t.Fatalf("expected output length to match the longer input, got %d", len(out))
	}
}
