package dynamics

import (
	"context"
	"testing"
)

func chainNeighbors(edges map[string][]Neighbor) NeighborLookup {
	return func(ctx context.Context, id string) ([]Neighbor, error) {
		return edges[id], nil
	}
}

func TestSpread_SeedsStartAtFullActivation(t *testing.T) {
	lookup := chainNeighbors(map[string][]Neighbor{})
	out, err := Spread(context.Background(), []string{"a", "b"}, lookup, DefaultSpreadOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out["a"] != 1.0 || out["b"] != 1.0 {
		t.Fatalf("expected seeds at activation 1.0, got %v", out)
	}
}

func TestSpread_PropagatesDecayingActivationAlongChain(t *testing.T) {
	edges := map[string][]Neighbor{
		"a": {{ID: "b", Weight: 0.9}},
		"b": {{ID: "c", Weight: 0.9}},
	}
	out, err := Spread(context.Background(), []string{"a"}, chainNeighbors(edges), DefaultSpreadOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := out["b"]; !ok {
		t.Fatalf("expected b to receive activation, got %v", out)
	}
	if out["b"] <= out["c"] {
		t.Fatalf("expected activation to decay with hop distance: b=%f c=%f", out["b"], out["c"])
	}
}

func TestSpread_StopsBelowMinActivation(t *testing.T) {
	edges := map[string][]Neighbor{
		"a": {{ID: "b", Weight: 0.001}},
	}
	opt := DefaultSpreadOptions()
	opt.MinActivation = 0.5
	out, err := Spread(context.Background(), []string{"a"}, chainNeighbors(edges), opt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := out["b"]; ok {
		t.Fatalf("expected b to be pruned below MinActivation, got %v", out)
	}
}

func TestSpread_RespectsMaxTotalTraversals(t *testing.T) {
	edges := map[string][]Neighbor{}
	var prev string
	for i := 0; i < 50; i++ {
		id := string(rune('a' + i))
		if prev != "" {
			edges[prev] = []Neighbor{{ID: id, Weight: 0.99}}
		}
		prev = id
	}
	opt := DefaultSpreadOptions()
	opt.MaxTotalTraversals = 3
	opt.MaxIterations = 50
	out, err := Spread(context.Background(), []string{"a"}, chainNeighbors(edges), opt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) > 5 {
		t.Fatalf("expected traversal budget to bound the activation set, got %d entries", len(out))
	}
}

func TestSpread_NoNeighborsReturnsOnlySeeds(t *testing.T) {
	out, err := Spread(context.Background(), []string{"x"}, chainNeighbors(nil), DefaultSpreadOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected exactly the seed, got %v", out)
	}
}
