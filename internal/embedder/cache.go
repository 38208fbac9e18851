package embedder

import (
	"container/list"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/openmemory/openmemory/internal/model"
)

// resultCache is the router's LRU+TTL cache, keyed on
// (provider, tier, sorted sectors, text-prefix[0:100]) and storing the
// entire per-sector result set for that key.
type resultCache struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	ll       *list.List
	items    map[string]*list.Element
}

type cacheEntry struct {
	key       string
	value     map[model.Sector][]float32
	expiresAt time.Time
}

func newResultCache(capacity int, ttl time.Duration) *resultCache {
	return &resultCache{
		capacity: capacity,
		ttl:      ttl,
		ll:       list.New(),
		items:    make(map[string]*list.Element),
	}
}

func cacheKey(provider, tier string, sectors []model.Sector, text string) string {
	sorted := make([]string, len(sectors))
	for i, s := range sectors {
		sorted[i] = string(s)
	}
	sort.Strings(sorted)
	prefix := text
	if len(prefix) > 100 {
		prefix = prefix[:100]
	}
	return provider + "|" + tier + "|" + strings.Join(sorted, ",") + "|" + prefix
}

func (c *resultCache) Get(key string) (map[model.Sector][]float32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.items[key]
	if !ok {
		return nil, false
	}
	entry := el.Value.(*cacheEntry)
	if time.Now().After(entry.expiresAt) {
		c.ll.Remove(el)
		delete(c.items, key)
		return nil, false
	}
	c.ll.MoveToFront(el)
	return entry.value, true
}

func (c *resultCache) Put(key string, value map[model.Sector][]float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		el.Value.(*cacheEntry).value = value
		el.Value.(*cacheEntry).expiresAt = time.Now().Add(c.ttl)
		c.ll.MoveToFront(el)
		return
	}
	el := c.ll.PushFront(&cacheEntry{key: key, value: value, expiresAt: time.Now().Add(c.ttl)})
	c.items[key] = el
	if c.ll.Len() > c.capacity {
		oldest := c.ll.Back()
		if oldest != nil {
			c.ll.Remove(oldest)
			delete(c.items, oldest.Value.(*cacheEntry).key)
		}
	}
}
