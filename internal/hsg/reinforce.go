package hsg

import (
	"context"

	"github.com/openmemory/openmemory/internal/dynamics"
	"github.com/openmemory/openmemory/internal/model"
)

// Reinforce implements reinforce(): bump salience by boost, touch
// last_seen_at, and emit a consolidate event when salience crosses 0.8.
func (h *HSG) Reinforce(ctx context.Context, id, userID string, boost float64) error {
	existing, err := h.store.GetMemory(ctx, id, userID)
	if err != nil {
		return err
	}
	if existing == nil {
		return model.NewNotFoundError("memory", id)
	}

	now := h.clock.NowMillis()
	newSalience := dynamics.Clamp01(existing.Salience + boost)
	if err := h.store.UpdateLastSeenAndSalience(ctx, id, userID, now, newSalience); err != nil {
		return err
	}
	if newSalience > 0.8 && existing.Salience <= 0.8 {
		h.emit(Event{Name: "consolidate", MemoryID: id, UserID: userID, At: now})
	}
	return nil
}
