package hsg

import (
	"context"

	"github.com/openmemory/openmemory/internal/model"
	"github.com/openmemory/openmemory/internal/vectorstore"
)

// UpdateFields carries the optional fields update() may change.
type UpdateFields struct {
	Content  *string
	Tags     []string
	Metadata map[string]any
}

// Update implements update(): when content changes, old vectors are
// dropped, the memory is re-classified and re-embedded across its new
// sector set, and the row is upserted with an incremented version, all in
// one transaction.
func (h *HSG) Update(ctx context.Context, id, userID string, fields UpdateFields) error {
	existing, err := h.store.GetMemory(ctx, id, userID)
	if err != nil {
		return err
	}
	if existing == nil {
		return model.NewNotFoundError("memory", id)
	}

	now := h.clock.NowMillis()
	newContent := existing.Content
	contentChanged := fields.Content != nil && *fields.Content != existing.Content
	if fields.Content != nil {
		newContent = *fields.Content
	}

	tags := existing.Tags
	if fields.Tags != nil {
		tags = fields.Tags
	}
	meta := existing.Meta
	if fields.Metadata != nil {
		meta = fields.Metadata
	}

	if !contentChanged {
		return h.store.UpdateMemoryFields(ctx, id, userID, fields.Content, tags, meta)
	}

	for _, sector := range model.Sectors {
		_ = h.vectors.Delete(ctx, vectorstore.ComposeID(id, string(sector)))
	}

	explicitSector := model.Sector("")
	if meta != nil {
		if s, ok := meta["sector"].(string); ok && s != "" {
			explicitSector = model.Sector(s)
		}
	}
	// primary_sector is fixed across a content update unless the caller
	// explicitly requests a sector change via metadata.
	cls := h.class.Classify(newContent, explicitSector, nil)
	primary := existing.PrimarySector
	if explicitSector != "" {
		primary = explicitSector
	}
	additional := make([]model.Sector, 0, len(cls.Additional))
	for _, s := range cls.Additional {
		if s != primary {
			additional = append(additional, s)
		}
	}
	sectors := append([]model.Sector{primary}, additional...)

	embedded := h.router.EmbedMultiSector(ctx, newContent, sectors)
	for _, sector := range sectors {
		vec, ok := embedded.Vectors[sector]
		if !ok {
			continue
		}
		vecMeta := map[string]string{"user_id": userID, "sector": string(sector), "memory_id": id}
		if err := h.vectors.Upsert(ctx, vectorstore.ComposeID(id, string(sector)), vec, vecMeta); err != nil {
			return err
		}
	}

	tx, err := h.store.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := tx.UpdateMemoryFields(ctx, id, userID, &newContent, tags, meta); err != nil {
		return err
	}
	if primaryVec, ok := embedded.Vectors[primary]; ok {
		if err := tx.UpdateMeanVec(ctx, id, userID, primaryVec, len(primaryVec)); err != nil {
			return err
		}
	}
	if err := tx.DeleteWaypointsTouching(ctx, id, userID); err != nil {
		return err
	}
	for _, sector := range additional {
		dst := vectorstore.ComposeID(id, string(sector))
		if err := tx.InsertWaypoint(ctx, model.Waypoint{SrcID: id, DstID: dst, UserID: userID, Weight: 0.5, CreatedAt: now, UpdatedAt: now}); err != nil {
			return err
		}
		if err := tx.InsertWaypoint(ctx, model.Waypoint{SrcID: dst, DstID: id, UserID: userID, Weight: 0.5, CreatedAt: now, UpdatedAt: now}); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}
