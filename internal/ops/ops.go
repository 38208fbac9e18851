// Package ops implements C8: the only public API of the core. It validates
// caller input, attaches tenant scope, gates concurrency, and never leaks
// raw SQL or storage types to its callers.
package ops

import (
	"context"
	"strings"

	"golang.org/x/sync/semaphore"

	"github.com/openmemory/openmemory/internal/hsg"
	"github.com/openmemory/openmemory/internal/model"
	"github.com/openmemory/openmemory/internal/store"
)

const maxContentBytes = 1 << 20 // 1MiB, generous upper bound on a single memory's content

// Ops is the stable facade over an HSG instance.
type Ops struct {
	engine *hsg.HSG
	store  store.Store
	gate   *semaphore.Weighted
}

// New wraps an HSG with the max_active concurrency gate named in the
// specification's configuration knobs.
func New(engine *hsg.HSG, st store.Store, maxActive int) *Ops {
	if maxActive <= 0 {
		maxActive = 64
	}
	return &Ops{engine: engine, store: st, gate: semaphore.NewWeighted(int64(maxActive))}
}

func (o *Ops) acquire(ctx context.Context) error {
	if err := o.gate.Acquire(ctx, 1); err != nil {
		return model.NewBudgetExceeded("max_active")
	}
	return nil
}

func (o *Ops) release() { o.gate.Release(1) }

func validateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return model.NewValidationError("content", "must not be empty")
	}
	if len(content) > maxContentBytes {
		return model.NewValidationError("content", "exceeds maximum size")
	}
	return nil
}

func validateUserID(userID string) string {
	if strings.TrimSpace(userID) == "" {
		return "anonymous"
	}
	return userID
}

// Add validates input, attaches tenant scope, and delegates to the engine.
func (o *Ops) Add(ctx context.Context, content, userID string, tags []string, metadata map[string]any) (model.AddResult, error) {
	if err := validateContent(content); err != nil {
		return model.AddResult{}, err
	}
	userID = validateUserID(userID)
	if err := o.acquire(ctx); err != nil {
		return model.AddResult{}, err
	}
	defer o.release()
	return o.engine.Add(ctx, content, userID, tags, metadata, hsg.AddOverrides{})
}

// AddBatch applies Add to every item, stopping at the first validation
// failure but otherwise best-effort per item.
func (o *Ops) AddBatch(ctx context.Context, items []BatchItem) ([]model.AddResult, error) {
	out := make([]model.AddResult, 0, len(items))
	for _, item := range items {
		res, err := o.Add(ctx, item.Content, item.UserID, item.Tags, item.Metadata)
		if err != nil {
			return out, err
		}
		out = append(out, res)
	}
	return out, nil
}

// BatchItem is one element of an AddBatch call.
type BatchItem struct {
	Content  string
	UserID   string
	Tags     []string
	Metadata map[string]any
}

// Query validates input and delegates to the engine.
func (o *Ops) Query(ctx context.Context, text string, k int, filters model.QueryFilters) ([]model.RankedMemory, error) {
	if strings.TrimSpace(text) == "" {
		return nil, model.NewValidationError("text", "must not be empty")
	}
	filters.UserID = validateUserID(filters.UserID)
	if err := o.acquire(ctx); err != nil {
		return nil, err
	}
	defer o.release()
	return o.engine.Query(ctx, text, k, filters)
}

// Update validates input and delegates to the engine.
func (o *Ops) Update(ctx context.Context, id, userID string, fields hsg.UpdateFields) error {
	if strings.TrimSpace(id) == "" {
		return model.NewValidationError("id", "must not be empty")
	}
	userID = validateUserID(userID)
	if err := o.acquire(ctx); err != nil {
		return err
	}
	defer o.release()
	return o.engine.Update(ctx, id, userID, fields)
}

// Delete validates input and delegates to the engine.
func (o *Ops) Delete(ctx context.Context, id, userID string) error {
	if strings.TrimSpace(id) == "" {
		return model.NewValidationError("id", "must not be empty")
	}
	userID = validateUserID(userID)
	if err := o.acquire(ctx); err != nil {
		return err
	}
	defer o.release()
	return o.engine.Delete(ctx, id, userID)
}

// Reinforce validates input and delegates to the engine.
func (o *Ops) Reinforce(ctx context.Context, id, userID string, boost float64) error {
	if strings.TrimSpace(id) == "" {
		return model.NewValidationError("id", "must not be empty")
	}
	if boost < 0 {
		return model.NewValidationError("boost", "must be non-negative")
	}
	userID = validateUserID(userID)
	if err := o.acquire(ctx); err != nil {
		return err
	}
	defer o.release()
	return o.engine.Reinforce(ctx, id, userID, boost)
}

// GetUserSummary returns the tenant's reflective profile.
func (o *Ops) GetUserSummary(ctx context.Context, userID string) (*model.User, error) {
	userID = validateUserID(userID)
	return o.store.GetUser(ctx, userID)
}

// GetStats records nothing; it is a thin read of the append-only stats log
// via the maintenance jobs' RecordStat calls, exposed here only for
// completeness of the facade contract. OpenMemory does not yet expose a
// stats query path on Store, so this always returns an empty slice rather
// than block the facade's shape on a feature no caller has asked for yet.
func (o *Ops) GetStats(ctx context.Context) ([]model.Stats, error) {
	return nil, nil
}
