package embedder

import (
	"testing"
	"time"

	"github.com/openmemory/openmemory/internal/model"
)

func TestResultCache_PutThenGet(t *testing.T) {
	c := newResultCache(10, time.Minute)
	key := cacheKey("openai", "simple", []model.Sector{model.SectorSemantic}, "hello")
	val := map[model.Sector][]float32{model.SectorSemantic: {1, 2, 3}}
	c.Put(key, val)

	got, ok := c.Get(key)
	if !ok {
		t.Fatalf("expected cache hit")
	}
	if len(got[model.SectorSemantic]) != 3 {
		t.Fatalf("unexpected cached value: %v", got)
	}
}

func TestResultCache_MissOnUnknownKey(t *testing.T) {
	c := newResultCache(10, time.Minute)
	if _, ok := c.Get("nope"); ok {
		t.Fatalf("expected cache miss")
	}
}

func TestResultCache_ExpiresAfterTTL(t *testing.T) {
	c := newResultCache(10, time.Millisecond)
	key := "k"
	c.Put(key, map[model.Sector][]float32{model.SectorSemantic: {1}})
	time.Sleep(5 * time.Millisecond)
	if _, ok := c.Get(key); ok {
		t.Fatalf("expected entry to expire")
	}
}

func TestResultCache_EvictsOldestBeyondCapacity(t *testing.T) {
	c := newResultCache(2, time.Minute)
	c.Put("a", map[model.Sector][]float32{model.SectorSemantic: {1}})
	c.Put("b", map[model.Sector][]float32{model.SectorSemantic: {2}})
	c.Put("c", map[model.Sector][]float32{model.SectorSemantic: {3}})

	if _, ok := c.Get("a"); ok {
		t.Fatalf("expected oldest entry 'a' to be evicted")
	}
	if _, ok := c.Get("b"); !ok {
		t.Fatalf("expected 'b' to survive eviction")
	}
	if _, ok := c.Get("c"); !ok {
		t.Fatalf("expected 'c' to survive eviction")
	}
}

func TestResultCache_GetMovesEntryToFront(t *testing.T) {
	c := newResultCache(2, time.Minute)
	c.Put("a", map[model.Sector][]float32{model.SectorSemantic: {1}})
	c.Put("b", map[model.Sector][]float32{model.SectorSemantic: {2}})
	c.Get("a") // touch a, making b the least-recently-used
	c.Put("c", map[model.Sector][]float32{model.SectorSemantic: {3}})

	if _, ok := c.Get("b"); ok {
		t.Fatalf("expected 'b' to be evicted as least-recently-used")
	}
	if _, ok := c.Get("a"); !ok {
		t.Fatalf("expected 'a' to survive due to recent access")
	}
}

func TestCacheKey_SectorOrderDoesNotAffectKey(t *testing.T) {
	k1 := cacheKey("p", "tier", []model.Sector{model.SectorSemantic, model.SectorEpisodic}, "text")
	k2 := cacheKey("p", "tier", []model.Sector{model.SectorEpisodic, model.SectorSemantic}, "text")
	if k1 != k2 {
		t.Fatalf("expected sector order to be normalized, got %q vs %q", k1, k2)
	}
}
