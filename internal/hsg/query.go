package hsg

import (
	"context"
	"math"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/openmemory/openmemory/internal/classifier"
	"github.com/openmemory/openmemory/internal/dynamics"
	"github.com/openmemory/openmemory/internal/model"
	"github.com/openmemory/openmemory/internal/store"
	"github.com/openmemory/openmemory/internal/vectorstore"
)

const (
	queryMaxDays      = 60.0
	neighborPropDecay = 0.02
)

// searchHit is the best vector-search result seen for one candidate memory
// id, across every sector searched.
type searchHit struct {
	sector model.Sector
	score  float64
}

// Query implements query(): cache check, classification, per-sector
// candidate search, multi-vector fusion scoring, optional spreading
// activation reorder, top-k selection, and the reinforcement side effects
// described for retrieved memories.
func (h *HSG) Query(ctx context.Context, text string, k int, filters model.QueryFilters) ([]model.RankedMemory, error) {
	if k <= 0 {
		k = 10
	}

	cacheKey := queryCacheKey(text, k, filters)
	if cached, ok := h.queryCache.Get(cacheKey); ok {
		return cached, nil
	}

	cls := h.class.Classify(text, "", nil)
	qTokens := canonicalTokens(text)

	sectors := filters.Sectors
	if len(sectors) == 0 {
		sectors = model.Sectors
	}

	queryVecs := h.router.EmbedQueryAllSectors(ctx, text, sectors, "default")
	if len(queryVecs) == 0 {
		return h.lexicalFallback(ctx, qTokens, k, filters)
	}

	hits, err := h.searchCandidates(ctx, queryVecs, sectors, k, filters)
	if err != nil || len(hits) == 0 {
		return h.lexicalFallback(ctx, qTokens, k, filters)
	}

	now := h.clock.NowMillis()
	var queryTags []string
	if filters.Metadata != nil {
		if tv, ok := filters.Metadata["tags"].([]string); ok {
			queryTags = tv
		}
	}

	ranked := make([]model.RankedMemory, 0, len(hits))
	for id, hit := range hits {
		mem, err := h.store.GetMemory(ctx, id, filters.UserID)
		if err != nil || mem == nil {
			continue
		}

		fusionScore, weightSum := 0.0, 0.0
		for _, sector := range model.Sectors {
			qvec, ok := queryVecs[sector]
			if !ok {
				continue
			}
			cvec, ok, err := h.vectors.GetVector(ctx, vectorstore.ComposeID(id, string(sector)))
			if err != nil || !ok {
				continue
			}
			w := classifier.SectorWeight(sector)
			fusionScore += dynamics.CosineSimilarity(qvec, cvec) * w
			weightSum += w
		}
		if weightSum > 0 {
			fusionScore /= weightSum
		} else {
			fusionScore = hit.score
		}

		resonance := dynamics.CrossSectorResonance(mem.PrimarySector, cls.Primary, 1.0)

		deltaDays := float64(now-mem.LastSeenAt) / 86_400_000.0
		decayed := dynamics.DualPhaseDecayWithLambdas(mem.Salience, deltaDays, dynamics.LambdaFast, mem.DecayLambda)
		if filters.MinSalience != nil && decayed < *filters.MinSalience {
			continue
		}
		if filters.StartTime != nil && mem.CreatedAt < *filters.StartTime {
			continue
		}
		if filters.EndTime != nil && mem.CreatedAt > *filters.EndTime {
			continue
		}

		overlap := tokenOverlap(qTokens, canonicalTokens(mem.Content))
		recency := dynamics.Recency(mem.LastSeenAt, now, dynamics.Tau, queryMaxDays)
		tagScore := tagMatchScore(queryTags, mem.Tags)
		ww := h.bestCrossCandidateWaypoint(ctx, id, hits, filters.UserID)

		raw := h.weights.Sim*dynamics.Boost(fusionScore, dynamics.Tau) +
			h.weights.Overlap*overlap +
			h.weights.Waypoint*ww +
			h.weights.Recency*recency +
			h.weights.Tag*tagScore +
			h.keywordBoost
		combined := dynamics.Sigmoid(raw) * resonance

		ranked = append(ranked, model.RankedMemory{Memory: *mem, Score: combined, Sector: hit.sector})
	}

	ranked = h.reorderBySpreadingActivation(ctx, ranked, filters.UserID)

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
	if len(ranked) > k {
		ranked = ranked[:k]
	}

	h.pushCoactivations(ranked, filters.UserID)
	h.reinforceReturned(ctx, ranked, filters.UserID, now)

	h.queryCache.Put(cacheKey, ranked)
	return ranked, nil
}

// searchCandidates runs a bounded-parallel per-sector ANN search and unions
// the results, keeping the best score and its producing sector per memory
// id.
func (h *HSG) searchCandidates(ctx context.Context, queryVecs map[model.Sector][]float32, sectors []model.Sector, k int, filters model.QueryFilters) (map[string]searchHit, error) {
	var mu sync.Mutex
	hits := make(map[string]searchHit)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for _, sector := range sectors {
		vec, ok := queryVecs[sector]
		if !ok {
			continue
		}
		sector, vec := sector, vec
		g.Go(func() error {
			filter := map[string]string{"sector": string(sector)}
			if filters.UserID != "" {
				filter["user_id"] = filters.UserID
			}
			results, err := h.vectors.SimilaritySearch(gctx, vec, k*3, filter)
			if err != nil {
				return nil
			}
			mu.Lock()
			defer mu.Unlock()
			for _, r := range results {
				memID := memoryIDFromVectorID(r.ID)
				if existing, ok := hits[memID]; !ok || r.Score > existing.score {
					hits[memID] = searchHit{sector: sector, score: r.Score}
				}
			}
			return nil
		})
	}
	_ = g.Wait()
	return hits, nil
}

func memoryIDFromVectorID(vectorID string) string {
	for i := len(vectorID) - 1; i >= 0; i-- {
		if vectorID[i] == ':' {
			return vectorID[:i]
		}
	}
	return vectorID
}

// bestCrossCandidateWaypoint returns the strongest outgoing waypoint weight
// from id to any other id currently in the candidate set, as a proxy for
// how well-connected this candidate is to the rest of the result.
func (h *HSG) bestCrossCandidateWaypoint(ctx context.Context, id string, hits map[string]searchHit, userID string) float64 {
	waypoints, err := h.store.GetWaypointsBySrc(ctx, id, userID)
	if err != nil {
		return 0
	}
	best := 0.0
	for _, w := range waypoints {
		if w.DstID == id {
			continue
		}
		if _, ok := hits[w.DstID]; ok && w.Weight > best {
			best = w.Weight
		}
	}
	return best
}

func (h *HSG) reorderBySpreadingActivation(ctx context.Context, ranked []model.RankedMemory, userID string) []model.RankedMemory {
	if len(ranked) == 0 {
		return ranked
	}
	seeds := make([]string, len(ranked))
	for i, r := range ranked {
		seeds[i] = r.Memory.ID
	}
	lookup := func(ctx context.Context, id string) ([]dynamics.Neighbor, error) {
		waypoints, err := h.store.GetWaypointsBySrc(ctx, id, userID)
		if err != nil {
			return nil, err
		}
		out := make([]dynamics.Neighbor, len(waypoints))
		for i, w := range waypoints {
			out[i] = dynamics.Neighbor{ID: w.DstID, Weight: w.Weight}
		}
		return out, nil
	}
	activation, err := dynamics.Spread(ctx, seeds, lookup, dynamics.DefaultSpreadOptions())
	if err != nil {
		return ranked
	}
	for i := range ranked {
		ranked[i].Activation = activation[ranked[i].Memory.ID]
		ranked[i].Score += 0.3 * ranked[i].Activation
	}
	return ranked
}

func (h *HSG) pushCoactivations(ranked []model.RankedMemory, userID string) {
	for i := 0; i < len(ranked); i++ {
		for j := i + 1; j < len(ranked); j++ {
			h.coact.Push(coactivationPair{A: ranked[i].Memory.ID, B: ranked[j].Memory.ID, UserID: userID})
		}
	}
}

func (h *HSG) reinforceReturned(ctx context.Context, ranked []model.RankedMemory, userID string, now int64) {
	for _, r := range ranked {
		mem := r.Memory
		oldSal := mem.Salience
		newSal := dynamics.RetrievalReinforcement(oldSal)
		_ = h.store.UpdateLastSeenAndSalience(ctx, mem.ID, userID, now, newSal)

		waypoints, err := h.store.GetWaypointsBySrc(ctx, mem.ID, userID)
		if err != nil {
			continue
		}
		for _, w := range waypoints {
			neighbor, err := h.store.GetMemory(ctx, w.DstID, userID)
			if err != nil || neighbor == nil {
				continue
			}
			deltaDays := float64(now-neighbor.LastSeenAt) / 86_400_000.0
			inc := dynamics.Eta * w.Weight * (newSal - oldSal) * math.Exp(-neighborPropDecay*deltaDays)
			neighborSal := dynamics.Clamp01(neighbor.Salience + inc)
			_ = h.store.UpdateLastSeenAndSalience(ctx, neighbor.ID, userID, neighbor.LastSeenAt, neighborSal)
		}
	}
}

// lexicalFallback implements search_mems_by_keyword: token-overlap ranking
// with a neutral 0.5 score, used when every embedding provider (including
// synthetic) is unavailable. Never errors; returns an empty slice on total
// failure.
func (h *HSG) lexicalFallback(ctx context.Context, qTokens map[string]bool, k int, filters model.QueryFilters) ([]model.RankedMemory, error) {
	mems, err := h.store.ListMemories(ctx, store.ListOptions{UserID: filters.UserID, Limit: 1000})
	if err != nil {
		return nil, nil
	}
	type scored struct {
		mem  model.Memory
		hits int
	}
	var cand []scored
	for _, m := range mems {
		if filters.MinSalience != nil && m.Salience < *filters.MinSalience {
			continue
		}
		ov := tokenOverlap(qTokens, canonicalTokens(m.Content))
		if ov > 0 {
			cand = append(cand, scored{mem: m, hits: int(ov * 1000)})
		}
	}
	sort.Slice(cand, func(i, j int) bool { return cand[i].hits > cand[j].hits })
	if len(cand) > k {
		cand = cand[:k]
	}
	out := make([]model.RankedMemory, len(cand))
	for i, c := range cand {
		out[i] = model.RankedMemory{Memory: c.mem, Score: 0.5, Sector: c.mem.PrimarySector}
	}
	return out, nil
}
