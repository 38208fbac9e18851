package embedder

import (
	"context"
	"sync"
	"time"

	"github.com/openmemory/openmemory/internal/model"
)

// Router maps sectors to providers, tracks provider health, and drives the
// fallback chain: [configured, ...fallbacks], skipping unhealthy providers,
// falling back to synthetic (never erroring the caller) on total failure.
type Router struct {
	synthetic *Synthetic
	providers map[string]Provider // keyed by Provider.Name()
	order     []string            // configured provider first, then fallbacks
	sectorMap map[model.Sector]string

	cache *resultCache

	healthMu sync.Mutex
	unhealth map[string]time.Time // provider -> unhealthy-until
}

type RouterOptions struct {
	CacheCapacity int
	CacheTTL      time.Duration
	UnhealthyFor  time.Duration
}

func DefaultRouterOptions() RouterOptions {
	return RouterOptions{CacheCapacity: 500, CacheTTL: 5 * time.Minute, UnhealthyFor: 5 * time.Minute}
}

func NewRouter(synthetic *Synthetic, configured string, providers map[string]Provider, fallbacks []string, sectorMap map[model.Sector]string, opt RouterOptions) *Router {
	order := []string{}
	seen := map[string]bool{}
	if configured != "" {
		order = append(order, configured)
		seen[configured] = true
	}
	for _, f := range fallbacks {
		if !seen[f] {
			order = append(order, f)
			seen[f] = true
		}
	}
	return &Router{
		synthetic: synthetic,
		providers: providers,
		order:     order,
		sectorMap: sectorMap,
		cache:     newResultCache(opt.CacheCapacity, opt.CacheTTL),
		unhealth:  make(map[string]time.Time),
	}
}

func (r *Router) markUnhealthy(name string, dur time.Duration) {
	r.healthMu.Lock()
	defer r.healthMu.Unlock()
	r.unhealth[name] = time.Now().Add(dur)
}

func (r *Router) isHealthy(name string) bool {
	r.healthMu.Lock()
	defer r.healthMu.Unlock()
	until, ok := r.unhealth[name]
	if !ok {
		return true
	}
	if time.Now().After(until) {
		delete(r.unhealth, name)
		return true
	}
	return false
}

// EmbedForSector returns a vector guaranteed to have length vec_dim, never
// erroring: a total provider failure degrades to the synthetic embedding.
func (r *Router) EmbedForSector(ctx context.Context, text string, sector model.Sector) []float32 {
	for _, name := range r.orderForSector(sector) {
		p, ok := r.providers[name]
		if !ok || !r.isHealthy(name) {
			continue
		}
		v, err := p.EmbedForSector(ctx, text, sector)
		if err == nil {
			return v
		}
		r.markUnhealthy(name, 5*time.Minute)
	}
	v, _ := r.synthetic.EmbedForSector(ctx, text, sector)
	return v
}

// orderForSector honors router_sector_models: if the sector has a
// configured provider override and that provider is registered, it is
// tried first, ahead of the default [configured, ...fallbacks] chain.
func (r *Router) orderForSector(sector model.Sector) []string {
	preferred, ok := r.sectorMap[sector]
	if !ok || preferred == "" {
		return r.order
	}
	if _, exists := r.providers[preferred]; !exists {
		return r.order
	}
	out := make([]string, 0, len(r.order)+1)
	out = append(out, preferred)
	for _, name := range r.order {
		if name != preferred {
			out = append(out, name)
		}
	}
	return out
}

// EmbedQueryAllSectors batches embedding across sectors where the provider
// supports it, caching the whole result set.
func (r *Router) EmbedQueryAllSectors(ctx context.Context, text string, sectors []model.Sector, tier string) map[model.Sector][]float32 {
	providerName := "synthetic"
	if len(r.order) > 0 {
		providerName = r.order[0]
	}
	key := cacheKey(providerName, tier, sectors, text)
	if cached, ok := r.cache.Get(key); ok {
		return cached
	}

	out := r.embedAllSectorsUncached(ctx, text, sectors)
	r.cache.Put(key, out)
	return out
}

func (r *Router) embedAllSectorsUncached(ctx context.Context, text string, sectors []model.Sector) map[model.Sector][]float32 {
	for _, name := range r.order {
		p, ok := r.providers[name]
		if !ok || !r.isHealthy(name) {
			continue
		}
		result, err := p.EmbedBatch(ctx, text, sectors)
		if err == nil {
			return result
		}
		r.markUnhealthy(name, 5*time.Minute)
	}
	result, _ := r.synthetic.EmbedBatch(ctx, text, sectors)
	return result
}

// Fused computes the smart-tier fusion of the synthetic and semantic
// vectors for a sector, using the sector's configured weight pair.
func (r *Router) Fused(ctx context.Context, text string, sector model.Sector) []float32 {
	synthetic, _ := r.synthetic.EmbedForSector(ctx, text, sector)
	semantic := r.EmbedForSector(ctx, text, sector)
	w1, w2 := FusionWeights(string(sector))
	return Fuse(synthetic, semantic, w1, w2)
}
