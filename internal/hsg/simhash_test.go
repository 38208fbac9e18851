package hsg

import "testing"

func TestSimhash64_DeterministicForSameText(t *testing.T) {
	a := simhash64("the quick brown fox jumps over the lazy dog")
	b := simhash64("the quick brown fox jumps over the lazy dog")
	if a != b {
		t.Fatalf("expected deterministic fingerprint, got %s vs %s", a, b)
	}
}

func TestSimhash64_DifferentTextDiffers(t *testing.T) {
	a := simhash64("the quick brown fox")
	b := simhash64("quantum entanglement experiments in superconducting circuits")
	if a == b {
		t.Fatalf("expected different fingerprints for unrelated texts")
	}
}

func TestSimhash64_CaseInsensitive(t *testing.T) {
	a := simhash64("Hello World")
	b := simhash64("hello world")
	if a != b {
		t.Fatalf("expected case-insensitive fingerprint, got %s vs %s", a, b)
	}
}

func TestSimhash64_EmptyTextIsStable(t *testing.T) {
	a := simhash64("")
	b := simhash64("")
	if a != b {
		t.Fatalf("expected stable fingerprint for empty text")
	}
}
