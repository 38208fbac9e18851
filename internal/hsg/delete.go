package hsg

import (
	"context"

	"github.com/openmemory/openmemory/internal/model"
	"github.com/openmemory/openmemory/internal/vectorstore"
)

// Delete implements delete(): transactionally removes the memory row, all
// its waypoints, and all its per-sector vectors. Foreign ids are a no-op.
func (h *HSG) Delete(ctx context.Context, id, userID string) error {
	existing, err := h.store.GetMemory(ctx, id, userID)
	if err != nil {
		return err
	}
	if existing == nil {
		return nil
	}

	tx, err := h.store.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := tx.DeleteWaypointsTouching(ctx, id, userID); err != nil {
		return err
	}
	if err := tx.DeleteMemory(ctx, id, userID); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}

	for _, sector := range model.Sectors {
		_ = h.vectors.Delete(ctx, vectorstore.ComposeID(id, string(sector)))
	}
	return nil
}
