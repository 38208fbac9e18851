package embedder

import (
	"context"
	"time"

	"github.com/openmemory/openmemory/internal/model"
)

// MultiSectorResult is the outcome of embedding one memory across every
// sector it was classified into.
type MultiSectorResult struct {
	Vectors  map[model.Sector][]float32
	Status   model.EmbedLogStatus
	ErrMsg   string
	Provider string
}

// EmbedMultiSector performs embed_multi_sector: provider attempts with
// exponential backoff (1s, 2s, 4s) across sectors, ending in a completed or
// completed-synthetic/failed outcome. It never blocks past the provided
// context's deadline.
func (r *Router) EmbedMultiSector(ctx context.Context, text string, sectors []model.Sector) MultiSectorResult {
	providerName := "synthetic"
	if len(r.order) > 0 {
		providerName = r.order[0]
	}

	var lastErr error
	for attempt := 0; attempt < len(retryBackoff)+1; attempt++ {
		result := map[model.Sector][]float32{}
		ok := true
		for _, name := range r.order {
			p, exists := r.providers[name]
			if !exists || !r.isHealthy(name) {
				continue
			}
			v, err := p.EmbedBatch(ctx, text, sectors)
			if err == nil {
				result = v
				providerName = name
				ok = true
				break
			}
			lastErr = err
			r.markUnhealthy(name, 5*time.Minute)
			ok = false
		}
		if ok && len(result) == len(sectors) {
			return MultiSectorResult{Vectors: result, Status: model.EmbedLogStatusCompleted, Provider: providerName}
		}
		if attempt < len(retryBackoff) {
			select {
			case <-ctx.Done():
				return r.synthFallback(ctx, text, sectors, ctx.Err().Error())
			case <-time.After(retryBackoff[attempt]):
			}
		}
	}
	msg := ""
	if lastErr != nil {
		msg = lastErr.Error()
	}
	return r.synthFallback(ctx, text, sectors, msg)
}

func (r *Router) synthFallback(ctx context.Context, text string, sectors []model.Sector, errMsg string) MultiSectorResult {
	v, _ := r.synthetic.EmbedBatch(ctx, text, sectors)
	return MultiSectorResult{Vectors: v, Status: model.EmbedLogStatusCompletedSynthetic, ErrMsg: errMsg, Provider: "synthetic"}
}
