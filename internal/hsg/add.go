package hsg

import (
	"context"

	"github.com/openmemory/openmemory/internal/dynamics"
	"github.com/openmemory/openmemory/internal/model"
	"github.com/openmemory/openmemory/internal/vectorstore"
)

// AddOverrides lets a caller pin the new memory's id (for deterministic
// tests and cross-system migration) or its decay rate.
type AddOverrides struct {
	ID          string
	DecayLambda float64
}

// Add implements add(): classify, dedupe by simhash, embed every
// classified sector, and persist the memory, its vectors, and its
// cross-sector waypoints.
func (h *HSG) Add(ctx context.Context, content, userID string, tags []string, metadata map[string]any, overrides AddOverrides) (model.AddResult, error) {
	explicitSector := model.Sector("")
	if metadata != nil {
		if s, ok := metadata["sector"].(string); ok && s != "" {
			explicitSector = model.Sector(s)
		}
	}
	cls := h.class.Classify(content, explicitSector, nil)
	now := h.clock.NowMillis()
	hash := simhash64(content)

	if overrides.ID == "" {
		if existing, err := h.store.GetMemoryBySimhash(ctx, hash, userID); err == nil && existing != nil && existing.Content == content {
			newSalience := dynamics.Clamp01(existing.Salience + 0.1)
			if err := h.store.UpdateLastSeenAndSalience(ctx, existing.ID, userID, now, newSalience); err != nil {
				return model.AddResult{}, err
			}
			return model.AddResult{
				ID:            existing.ID,
				PrimarySector: existing.PrimarySector,
				Sectors:       []model.Sector{existing.PrimarySector},
				Chunks:        1,
				Content:       existing.Content,
				CreatedAt:     existing.CreatedAt,
				UserID:        userID,
			}, nil
		}
	}

	id := overrides.ID
	if id == "" {
		id = h.newID()
	}

	sectors := append([]model.Sector{cls.Primary}, cls.Additional...)

	h.store.InsertEmbedLog(ctx, model.EmbedLog{ID: id, Model: "", Status: model.EmbedLogStatusPending, TS: now})
	embedded := h.router.EmbedMultiSector(ctx, content, sectors)
	h.store.UpdateEmbedLogStatus(ctx, id, embedded.Status, embedded.ErrMsg)

	for _, sector := range sectors {
		vec, ok := embedded.Vectors[sector]
		if !ok {
			continue
		}
		vecMeta := map[string]string{"user_id": userID, "sector": string(sector), "memory_id": id}
		if err := h.vectors.Upsert(ctx, vectorstore.ComposeID(id, string(sector)), vec, vecMeta); err != nil {
			return model.AddResult{}, err
		}
	}

	decayLambda := overrides.DecayLambda
	if decayLambda <= 0 {
		decayLambda = dynamics.LambdaSlow
	}
	primaryVec := embedded.Vectors[cls.Primary]

	tx, err := h.store.Begin(ctx)
	if err != nil {
		return model.AddResult{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	mem := model.Memory{
		ID:            id,
		UserID:        userID,
		Segment:       0,
		Content:       content,
		Simhash:       hash,
		PrimarySector: cls.Primary,
		Tags:          tags,
		Meta:          metadata,
		CreatedAt:     now,
		UpdatedAt:     now,
		LastSeenAt:    now,
		Salience:      1.0,
		DecayLambda:   decayLambda,
		Version:       1,
		MeanDim:       len(primaryVec),
		MeanVec:       primaryVec,
		FeedbackScore: 0,
	}
	if err := tx.InsertMemory(ctx, mem); err != nil {
		return model.AddResult{}, err
	}

	for _, sector := range cls.Additional {
		dst := vectorstore.ComposeID(id, string(sector))
		if err := tx.InsertWaypoint(ctx, model.Waypoint{SrcID: id, DstID: dst, UserID: userID, Weight: 0.5, CreatedAt: now, UpdatedAt: now}); err != nil {
			return model.AddResult{}, err
		}
		if err := tx.InsertWaypoint(ctx, model.Waypoint{SrcID: dst, DstID: id, UserID: userID, Weight: 0.5, CreatedAt: now, UpdatedAt: now}); err != nil {
			return model.AddResult{}, err
		}
	}

	if err := tx.UpsertUserFirstTouch(ctx, userID, now); err != nil {
		return model.AddResult{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return model.AddResult{}, err
	}

	h.emit(Event{Name: "memory_added", MemoryID: id, UserID: userID, At: now})

	return model.AddResult{
		ID:            id,
		PrimarySector: cls.Primary,
		Sectors:       sectors,
		Chunks:        1,
		Content:       content,
		CreatedAt:     now,
		UserID:        userID,
	}, nil
}
