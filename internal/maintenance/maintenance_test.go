package maintenance

import (
	"context"
	"testing"
	"time"

	"github.com/openmemory/openmemory/internal/model"
	"github.com/openmemory/openmemory/internal/store"
	"github.com/openmemory/openmemory/internal/vectorstore"
)

func newTestMaintenance(t *testing.T, opt Options) (*Maintenance, store.Store, vectorstore.VectorStore) {
	t.Helper()
	st, err := store.OpenSQLite(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	vs := vectorstore.NewInMemory()
	return New(st, vs, opt), st, vs
}

func insertMemory(t *testing.T, st store.Store, id, userID string, lastSeenAt int64, salience, decayLambda float64) {
	t.Helper()
	m := model.Memory{
		ID: id, UserID: userID, Content: "c", PrimarySector: model.SectorSemantic,
		CreatedAt: lastSeenAt, UpdatedAt: lastSeenAt, LastSeenAt: lastSeenAt,
		Salience: salience, DecayLambda: decayLambda, Version: 1,
	}
	if err := st.InsertMemory(context.Background(), m); err != nil {
		t.Fatalf("insert memory %s: %v", id, err)
	}
}

func TestRunDecayOnce_LowersSalienceForStaleMemories(t *testing.T) {
	ctx := context.Background()
	m, st, _ := newTestMaintenance(t, Options{DecayChunkSize: 100})
	old := int64(0) // far in the past relative to time.Now()
	insertMemory(t, st, "m1", "alice", old, 1.0, 0.05)

	updated, err := m.RunDecayOnce(ctx)
	if err != nil {
		t.Fatalf("run decay: %v", err)
	}
	if updated != 1 {
		t.Fatalf("expected 1 memory updated, got %d", updated)
	}

	got, err := st.GetMemory(ctx, "m1", "alice")
	if err != nil {
		t.Fatalf("get memory: %v", err)
	}
	if got.Salience >= 1.0 {
		t.Fatalf("expected salience to decay below 1.0, got %f", got.Salience)
	}
}

func TestRunDecayOnce_SkipsRecentMemoriesBelowEpsilon(t *testing.T) {
	ctx := context.Background()
	m, st, _ := newTestMaintenance(t, Options{DecayChunkSize: 100})
	recent := time.Now().UnixMilli()
	insertMemory(t, st, "m1", "alice", recent, 1.0, 0.05)

	updated, err := m.RunDecayOnce(ctx)
	if err != nil {
		t.Fatalf("run decay: %v", err)
	}
	if updated != 0 {
		t.Fatalf("expected 0 updates for a just-seen memory, got %d", updated)
	}
}

func TestRunOrphanPruneOnce_DeletesVectorsWithNoBackingMemory(t *testing.T) {
	ctx := context.Background()
	m, st, vs := newTestMaintenance(t, Options{})
	insertMemory(t, st, "m1", "alice", 1000, 1.0, 0.05)
	if err := vs.Upsert(ctx, vectorstore.ComposeID("m1", "semantic"), []float32{1}, nil); err != nil {
		t.Fatalf("upsert live vector: %v", err)
	}
	if err := vs.Upsert(ctx, vectorstore.ComposeID("ghost", "semantic"), []float32{1}, nil); err != nil {
		t.Fatalf("upsert orphan vector: %v", err)
	}

	deleted, err := m.RunOrphanPruneOnce(ctx)
	if err != nil {
		t.Fatalf("run orphan prune: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected 1 orphan deleted, got %d", deleted)
	}
	if _, ok, _ := vs.GetVector(ctx, vectorstore.ComposeID("m1", "semantic")); !ok {
		t.Fatalf("expected live memory's vector to survive")
	}
	if _, ok, _ := vs.GetVector(ctx, vectorstore.ComposeID("ghost", "semantic")); ok {
		t.Fatalf("expected orphan vector to be deleted")
	}
}

func TestRunWaypointPruneOnce_DeletesBelowThreshold(t *testing.T) {
	ctx := context.Background()
	m, st, _ := newTestMaintenance(t, Options{WaypointPruneThreshold: 0.1})
	insertMemory(t, st, "m1", "alice", 1000, 1.0, 0.05)
	insertMemory(t, st, "m2", "alice", 1000, 1.0, 0.05)
	if err := st.InsertWaypoint(ctx, model.Waypoint{SrcID: "m1", DstID: "m2", UserID: "alice", Weight: 0.02}); err != nil {
		t.Fatalf("insert waypoint: %v", err)
	}

	pruned, err := m.RunWaypointPruneOnce(ctx)
	if err != nil {
		t.Fatalf("run waypoint prune: %v", err)
	}
	if pruned != 1 {
		t.Fatalf("expected 1 waypoint pruned, got %d", pruned)
	}
}

func TestOptions_WithDefaults_FillsZeroValues(t *testing.T) {
	o := Options{}.withDefaults()
	if o.DecayIntervalMinutes != 1440 {
		t.Fatalf("expected default decay interval 1440, got %d", o.DecayIntervalMinutes)
	}
	if o.DecayChunkSize != 1000 {
		t.Fatalf("expected default decay chunk size 1000, got %d", o.DecayChunkSize)
	}
	if o.WaypointPruneThreshold != 0.05 {
		t.Fatalf("expected default waypoint prune threshold 0.05, got %f", o.WaypointPruneThreshold)
	}
}

func TestMemoryIDFromVectorID_StripsSectorSuffix(t *testing.T) {
	if got := memoryIDFromVectorID("mem1:semantic"); got != "mem1" {
		t.Fatalf("expected 'mem1', got %q", got)
	}
}

func TestMemoryIDFromVectorID_NoSeparatorReturnsWholeString(t *testing.T) {
	if got := memoryIDFromVectorID("noseparator"); got != "noseparator" {
		t.Fatalf("expected unchanged string, got %q", got)
	}
}
