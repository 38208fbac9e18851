package embedder

import (
	"context"
	"errors"
	"testing"

	"github.com/openmemory/openmemory/internal/model"
)

type fakeProvider struct {
	name string
	err  error
	vec  []float32
	fail int // EmbedForSector fails this many times before succeeding
	call int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) EmbedForSector(ctx context.Context, text string, sector model.Sector) ([]float32, error) {
	f.call++
	if f.call <= f.fail {
		return nil, f.err
	}
	return f.vec, nil
}

func (f *fakeProvider) EmbedBatch(ctx context.Context, text string, sectors []model.Sector) (map[model.Sector][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[model.Sector][]float32, len(sectors))
	for _, s := range sectors {
		out[s] = f.vec
	}
	return out, nil
}

func TestRouter_EmbedForSector_UsesConfiguredProviderFirst(t *testing.T) {
	primary := &fakeProvider{name: "openai", vec: []float32{1, 1}}
	fallback := &fakeProvider{name: "local", vec: []float32{2, 2}}
	r := NewRouter(NewSynthetic(4), "openai", map[string]Provider{"openai": primary, "local": fallback}, []string{"local"}, nil, DefaultRouterOptions())

	v := r.EmbedForSector(context.Background(), "text", model.SectorSemantic)
	if v[0] != 1 {
		t.Fatalf("expected configured provider's vector, got %v", v)
	}
}

func TestRouter_EmbedForSector_FallsBackOnProviderError(t *testing.T) {
	primary := &fakeProvider{name: "openai", err: errors.New("down"), fail: 999}
	fallback := &fakeProvider{name: "local", vec: []float32{2, 2}}
	r := NewRouter(NewSynthetic(4), "openai", map[string]Provider{"openai": primary, "local": fallback}, []string{"local"}, nil, DefaultRouterOptions())

	v := r.EmbedForSector(context.Background(), "text", model.SectorSemantic)
	if v[0] != 2 {
		t.Fatalf("expected fallback provider's vector after primary failure, got %v", v)
	}
}

func TestRouter_EmbedForSector_DegradesToSyntheticOnTotalFailure(t *testing.T) {
	primary := &fakeProvider{name: "openai", err: errors.New("down"), fail: 999}
	r := NewRouter(NewSynthetic(8), "openai", map[string]Provider{"openai": primary}, nil, nil, DefaultRouterOptions())

	v := r.EmbedForSector(context.Background(), "some text", model.SectorSemantic)
	if len(v) != 8 {
		t.Fatalf("expected synthetic fallback vector of configured dim, got len %d", len(v))
	}
}

func TestRouter_EmbedForSector_NeverErrors(t *testing.T) {
	// No providers registered at all; must still return a usable vector.
	r := NewRouter(NewSynthetic(4), "openai", map[string]Provider{}, nil, nil, DefaultRouterOptions())
	v := r.EmbedForSector(context.Background(), "text", model.SectorSemantic)
	if v == nil {
		t.Fatalf("expected non-nil vector even with no providers")
	}
}

func TestRouter_OrderForSector_HonorsSectorOverride(t *testing.T) {
	openai := &fakeProvider{name: "openai", vec: []float32{1}}
	local := &fakeProvider{name: "local", vec: []float32{2}}
	sectorMap := map[model.Sector]string{model.SectorProcedural: "local"}
	r := NewRouter(NewSynthetic(1), "openai", map[string]Provider{"openai": openai, "local": local}, nil, sectorMap, DefaultRouterOptions())

	v := r.EmbedForSector(context.Background(), "text", model.SectorProcedural)
	if v[0] != 2 {
		t.Fatalf("expected sector override to route to local provider, got %v", v)
	}

	// A sector with no override still uses the configured provider.
	v2 := r.EmbedForSector(context.Background(), "text", model.SectorSemantic)
	if v2[0] != 1 {
		t.Fatalf("expected default provider for unoverridden sector, got %v", v2)
	}
}

func TestRouter_OrderForSector_IgnoresOverrideForUnregisteredProvider(t *testing.T) {
	openai := &fakeProvider{name: "openai", vec: []float32{1}}
	sectorMap := map[model.Sector]string{model.SectorProcedural: "nonexistent"}
	r := NewRouter(NewSynthetic(1), "openai", map[string]Provider{"openai": openai}, nil, sectorMap, DefaultRouterOptions())

	v := r.EmbedForSector(context.Background(), "text", model.SectorProcedural)
	if v[0] != 1 {
		t.Fatalf("expected fallback to default order when override provider is unregistered, got %v", v)
	}
}

func TestRouter_EmbedQueryAllSectors_CachesResult(t *testing.T) {
	p := &fakeProvider{name: "openai", vec: []float32{5}}
	r := NewRouter(NewSynthetic(1), "openai", map[string]Provider{"openai": p}, nil, nil, DefaultRouterOptions())

	sectors := []model.Sector{model.SectorSemantic}
	first := r.EmbedQueryAllSectors(context.Background(), "cache me", sectors, "simple")
	p.vec = []float32{999} // mutate provider; cached call should not see this
	second := r.EmbedQueryAllSectors(context.Background(), "cache me", sectors, "simple")

	if first[model.SectorSemantic][0] != second[model.SectorSemantic][0] {
		t.Fatalf("expected cached result to be reused: %v vs %v", first, second)
	}
}
