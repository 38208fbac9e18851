package ops

import (
	"context"
	"errors"
	"testing"

	"github.com/openmemory/openmemory/internal/classifier"
	"github.com/openmemory/openmemory/internal/embedder"
	"github.com/openmemory/openmemory/internal/hsg"
	"github.com/openmemory/openmemory/internal/model"
	"github.com/openmemory/openmemory/internal/store"
	"github.com/openmemory/openmemory/internal/vectorstore"
)

func newTestOps(t *testing.T, maxActive int) *Ops {
	t.Helper()
	st, err := store.OpenSQLite(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	vs := vectorstore.NewInMemory()
	cls := classifier.New()
	router := embedder.NewRouter(embedder.NewSynthetic(32), "synthetic", map[string]embedder.Provider{}, nil, nil, embedder.DefaultRouterOptions())
	engine := hsg.New(st, vs, cls, router)
	return New(engine, st, maxActive)
}

func isValidationError(err error) bool {
	var ve *model.ValidationError
	return errors.As(err, &ve)
}

func isBudgetExceeded(err error) bool {
	var be *model.BudgetExceeded
	return errors.As(err, &be)
}

func TestOps_Add_RejectsEmptyContent(t *testing.T) {
	o := newTestOps(t, 64)
	_, err := o.Add(context.Background(), "   ", "alice", nil, nil)
	if !isValidationError(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestOps_Add_RejectsOversizedContent(t *testing.T) {
	o := newTestOps(t, 64)
	huge := make([]byte, maxContentBytes+1)
	for i := range huge {
		huge[i] = 'a'
	}
	_, err := o.Add(context.Background(), string(huge), "alice", nil, nil)
	if !isValidationError(err) {
		t.Fatalf("expected validation error for oversized content, got %v", err)
	}
}

func TestOps_Add_DefaultsMissingUserIDToAnonymous(t *testing.T) {
	o := newTestOps(t, 64)
	res, err := o.Add(context.Background(), "hello there", "  ", nil, nil)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if res.UserID != "anonymous" {
		t.Fatalf("expected anonymous tenant, got %q", res.UserID)
	}
}

func TestOps_Add_ThenQuery_FindsItBack(t *testing.T) {
	ctx := context.Background()
	o := newTestOps(t, 64)
	if _, err := o.Add(ctx, "the quick brown fox jumps", "alice", []string{"animals"}, nil); err != nil {
		t.Fatalf("add: %v", err)
	}

	results, err := o.Query(ctx, "quick brown fox", 5, model.QueryFilters{UserID: "alice"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(results) == 0 {
		t.Fatalf("expected at least one result")
	}
}

func TestOps_Query_RejectsEmptyText(t *testing.T) {
	o := newTestOps(t, 64)
	_, err := o.Query(context.Background(), "   ", 5, model.QueryFilters{})
	if !isValidationError(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestOps_Update_RejectsEmptyID(t *testing.T) {
	o := newTestOps(t, 64)
	err := o.Update(context.Background(), "", "alice", hsg.UpdateFields{})
	if !isValidationError(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestOps_Delete_RejectsEmptyID(t *testing.T) {
	o := newTestOps(t, 64)
	err := o.Delete(context.Background(), "", "alice")
	if !isValidationError(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestOps_Reinforce_RejectsNegativeBoost(t *testing.T) {
	o := newTestOps(t, 64)
	err := o.Reinforce(context.Background(), "m1", "alice", -0.1)
	if !isValidationError(err) {
		t.Fatalf("expected validation error for negative boost, got %v", err)
	}
}

func TestOps_Reinforce_RejectsEmptyID(t *testing.T) {
	o := newTestOps(t, 64)
	err := o.Reinforce(context.Background(), "", "alice", 0.1)
	if !isValidationError(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestOps_AddBatch_StopsAtFirstFailure(t *testing.T) {
	ctx := context.Background()
	o := newTestOps(t, 64)
	items := []BatchItem{
		{Content: "valid one", UserID: "alice"},
		{Content: "   ", UserID: "alice"}, // invalid, stops the batch
		{Content: "never reached", UserID: "alice"},
	}
	results, err := o.AddBatch(ctx, items)
	if !isValidationError(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 successful result before the failure, got %d", len(results))
	}
}

func TestOps_GetUserSummary_DefaultsAnonymous(t *testing.T) {
	o := newTestOps(t, 64)
	u, err := o.GetUserSummary(context.Background(), "")
	if err != nil {
		t.Fatalf("get user summary: %v", err)
	}
	if u != nil {
		t.Fatalf("expected nil for a user never touched, got %+v", u)
	}
}

func TestOps_Acquire_BudgetExceededWhenContextCancelled(t *testing.T) {
	o := newTestOps(t, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := o.Add(ctx, "hello", "alice", nil, nil)
	if !isBudgetExceeded(err) {
		t.Fatalf("expected budget-exceeded error on cancelled context, got %v", err)
	}
}
