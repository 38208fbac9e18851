package vectorstore

import (
	"context"
	"testing"
)

func TestInMemory_UpsertThenGetVector(t *testing.T) {
	ctx := context.Background()
	m := NewInMemory()
	if err := m.Upsert(ctx, "a:semantic", []float32{1, 0, 0}, map[string]string{"sector": "semantic"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	v, ok, err := m.GetVector(ctx, "a:semantic")
	if err != nil {
		t.Fatalf("get vector: %v", err)
	}
	if !ok {
		t.Fatalf("expected vector to be found")
	}
	if len(v) != 3 || v[0] != 1 {
		t.Fatalf("unexpected vector: %v", v)
	}
}

func TestInMemory_GetVector_MissingReturnsNotOK(t *testing.T) {
	m := NewInMemory()
	_, ok, err := m.GetVector(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("expected ok=false for missing id")
	}
}

func TestInMemory_Delete_RemovesVector(t *testing.T) {
	ctx := context.Background()
	m := NewInMemory()
	if err := m.Upsert(ctx, "a", []float32{1}, nil); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := m.Delete(ctx, "a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := m.GetVector(ctx, "a"); ok {
		t.Fatalf("expected vector to be gone after delete")
	}
}

func TestInMemory_SimilaritySearch_RanksByCosine(t *testing.T) {
	ctx := context.Background()
	m := NewInMemory()
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}
	must(m.Upsert(ctx, "same", []float32{1, 0}, nil))
	must(m.Upsert(ctx, "orthogonal", []float32{0, 1}, nil))
	must(m.Upsert(ctx, "opposite", []float32{-1, 0}, nil))

	results, err := m.SimilaritySearch(ctx, []float32{1, 0}, 3, nil)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].ID != "same" {
		t.Fatalf("expected 'same' to rank first, got %q", results[0].ID)
	}
	if results[len(results)-1].ID != "opposite" {
		t.Fatalf("expected 'opposite' to rank last, got %q", results[len(results)-1].ID)
	}
}

func TestInMemory_SimilaritySearch_RespectsK(t *testing.T) {
	ctx := context.Background()
	m := NewInMemory()
	for i := 0; i < 5; i++ {
		if err := m.Upsert(ctx, string(rune('a'+i)), []float32{1, float32(i)}, nil); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}
	results, err := m.SimilaritySearch(ctx, []float32{1, 0}, 2, nil)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected exactly 2 results, got %d", len(results))
	}
}

func TestInMemory_SimilaritySearch_AppliesMetadataFilter(t *testing.T) {
	ctx := context.Background()
	m := NewInMemory()
	if err := m.Upsert(ctx, "a", []float32{1, 0}, map[string]string{"tenant": "alice"}); err != nil {
		t.Fatalf("upsert a: %v", err)
	}
	if err := m.Upsert(ctx, "b", []float32{1, 0}, map[string]string{"tenant": "bob"}); err != nil {
		t.Fatalf("upsert b: %v", err)
	}

	results, err := m.SimilaritySearch(ctx, []float32{1, 0}, 10, map[string]string{"tenant": "alice"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 || results[0].ID != "a" {
		t.Fatalf("expected only alice's vector, got %+v", results)
	}
}

func TestInMemory_IterateAllIDs_CoversAllInBatches(t *testing.T) {
	ctx := context.Background()
	m := NewInMemory()
	ids := []string{"a", "b", "c", "d", "e"}
	for _, id := range ids {
		if err := m.Upsert(ctx, id, []float32{1}, nil); err != nil {
			t.Fatalf("upsert %s: %v", id, err)
		}
	}

	seen := make(map[string]bool)
	err := m.IterateAllIDs(ctx, 2, func(batch []string) (bool, error) {
		for _, id := range batch {
			seen[id] = true
		}
		return true, nil
	})
	if err != nil {
		t.Fatalf("iterate: %v", err)
	}
	for _, id := range ids {
		if !seen[id] {
			t.Fatalf("expected to visit %s", id)
		}
	}
}

func TestInMemory_IterateAllIDs_StopsWhenFnReturnsFalse(t *testing.T) {
	ctx := context.Background()
	m := NewInMemory()
	for _, id := range []string{"a", "b", "c", "d"} {
		if err := m.Upsert(ctx, id, []float32{1}, nil); err != nil {
			t.Fatalf("upsert %s: %v", id, err)
		}
	}

	calls := 0
	err := m.IterateAllIDs(ctx, 1, func(batch []string) (bool, error) {
		calls++
		return false, nil
	})
	if err != nil {
		t.Fatalf("iterate: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected iteration to stop after first batch, got %d calls", calls)
	}
}

func TestComposeID_NamespacesByMemoryAndSector(t *testing.T) {
	if got := ComposeID("mem1", "semantic"); got != "mem1:semantic" {
		t.Fatalf("unexpected composed id: %q", got)
	}
}

func TestMatchesFilter_EmptyFilterMatchesEverything(t *testing.T) {
	if !matchesFilter(map[string]string{"a": "b"}, nil) {
		t.Fatalf("expected empty filter to match")
	}
}

func TestMatchesFilter_RequiresExactValueMatch(t *testing.T) {
	md := map[string]string{"tenant": "alice"}
	if !matchesFilter(md, map[string]string{"tenant": "alice"}) {
		t.Fatalf("expected matching filter to pass")
	}
	if matchesFilter(md, map[string]string{"tenant": "bob"}) {
		t.Fatalf("expected mismatched filter to fail")
	}
	if matchesFilter(md, map[string]string{"missing": "x"}) {
		t.Fatalf("expected filter on absent key to fail")
	}
}
