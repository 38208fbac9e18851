package temporal

import (
	"context"
	"testing"

	"github.com/openmemory/openmemory/internal/store"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := store.OpenSQLite(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return NewSQLiteStore(st.DB())
}

func TestSQLiteStore_InsertFact_ThenListFacts(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	f := Fact{ID: "f1", Subject: "alice", Predicate: "likes", Object: "coffee", UserID: "alice", ValidFrom: 100}
	if err := s.InsertFact(ctx, f); err != nil {
		t.Fatalf("insert fact: %v", err)
	}

	facts, err := s.ListFacts(ctx, "alice", "likes", "alice")
	if err != nil {
		t.Fatalf("list facts: %v", err)
	}
	if len(facts) != 1 || facts[0].Object != "coffee" {
		t.Fatalf("unexpected facts: %+v", facts)
	}
}

func TestSQLiteStore_InsertFact_ClosesPriorOpenIntervalOnSameTimeline(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("insert fact: %v", err)
		}
	}
	must(s.InsertFact(ctx, Fact{ID: "f1", Subject: "alice", Predicate: "likes", Object: "tea", UserID: "alice", ValidFrom: 100}))
	must(s.InsertFact(ctx, Fact{ID: "f2", Subject: "alice", Predicate: "likes", Object: "coffee", UserID: "alice", ValidFrom: 200}))

	facts, err := s.ListFacts(ctx, "alice", "likes", "alice")
	if err != nil {
		t.Fatalf("list facts: %v", err)
	}
	if len(facts) != 2 {
		t.Fatalf("expected 2 facts on the timeline, got %d", len(facts))
	}
	var tea, coffee *Fact
	for i := range facts {
		switch facts[i].Object {
		case "tea":
			tea = &facts[i]
		case "coffee":
			coffee = &facts[i]
		}
	}
	if tea == nil || coffee == nil {
		t.Fatalf("expected both tea and coffee facts, got %+v", facts)
	}
	if tea.ValidTo != 200 {
		t.Fatalf("expected the superseded fact to close at the new fact's ValidFrom (200), got %d", tea.ValidTo)
	}
	if coffee.ValidTo != 0 {
		t.Fatalf("expected the newest fact to remain open, got ValidTo=%d", coffee.ValidTo)
	}
}

func TestSQLiteStore_InsertFact_DifferentTenantsDoNotCloseEachOther(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("insert fact: %v", err)
		}
	}
	must(s.InsertFact(ctx, Fact{ID: "f1", Subject: "alice", Predicate: "likes", Object: "tea", UserID: "alice", ValidFrom: 100}))
	must(s.InsertFact(ctx, Fact{ID: "f2", Subject: "alice", Predicate: "likes", Object: "coffee", UserID: "bob", ValidFrom: 200}))

	aliceFacts, err := s.ListFacts(ctx, "alice", "likes", "alice")
	if err != nil {
		t.Fatalf("list facts: %v", err)
	}
	if len(aliceFacts) != 1 || aliceFacts[0].ValidTo != 0 {
		t.Fatalf("expected alice's fact to remain untouched by bob's insert, got %+v", aliceFacts)
	}
}

func TestSQLiteStore_InsertEdge_ThenListEdges(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	e := Edge{ID: "e1", SrcID: "m1", DstID: "m2", Relation: "caused_by", UserID: "alice", ValidFrom: 100}
	if err := s.InsertEdge(ctx, e); err != nil {
		t.Fatalf("insert edge: %v", err)
	}

	edges, err := s.ListEdges(ctx, "m1", "alice")
	if err != nil {
		t.Fatalf("list edges: %v", err)
	}
	if len(edges) != 1 || edges[0].DstID != "m2" {
		t.Fatalf("unexpected edges: %+v", edges)
	}
}

func TestSQLiteStore_InsertEdge_ClosesPriorOpenIntervalOnSameTimeline(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("insert edge: %v", err)
		}
	}
	must(s.InsertEdge(ctx, Edge{ID: "e1", SrcID: "m1", DstID: "m2", Relation: "follows", UserID: "alice", ValidFrom: 100}))
	must(s.InsertEdge(ctx, Edge{ID: "e2", SrcID: "m1", DstID: "m3", Relation: "follows", UserID: "alice", ValidFrom: 200}))

	edges, err := s.ListEdges(ctx, "m1", "alice")
	if err != nil {
		t.Fatalf("list edges: %v", err)
	}
	if len(edges) != 2 {
		t.Fatalf("expected 2 edges on the timeline, got %d", len(edges))
	}
	for _, e := range edges {
		if e.DstID == "m2" && e.ValidTo != 200 {
			t.Fatalf("expected superseded edge to close at 200, got %d", e.ValidTo)
		}
		if e.DstID == "m3" && e.ValidTo != 0 {
			t.Fatalf("expected newest edge to remain open, got %d", e.ValidTo)
		}
	}
}
