package hsg

import (
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/openmemory/openmemory/internal/model"
)

// queryCache caches query() results keyed on (text, k, sorted filters),
// with a short TTL since salience/decay make stale results actively wrong
// for long.
type queryCache struct {
	mu    sync.Mutex
	ttl   time.Duration
	cap   int
	order []string
	items map[string]cachedQuery
}

type cachedQuery struct {
	results   []model.RankedMemory
	expiresAt time.Time
}

func newQueryCache(capacity int, ttl time.Duration) *queryCache {
	return &queryCache{ttl: ttl, cap: capacity, items: make(map[string]cachedQuery)}
}

func queryCacheKey(text string, k int, filters model.QueryFilters) string {
	var b strings.Builder
	b.WriteString(text)
	b.WriteByte('|')
	b.WriteString(strconv.Itoa(k))
	b.WriteByte('|')
	b.WriteString(filters.UserID)
	b.WriteByte('|')
	secs := make([]string, len(filters.Sectors))
	for i, s := range filters.Sectors {
		secs[i] = string(s)
	}
	sort.Strings(secs)
	b.WriteString(strings.Join(secs, ","))
	return b.String()
}

func (c *queryCache) Get(key string) ([]model.RankedMemory, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.items[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		delete(c.items, key)
		return nil, false
	}
	return e.results, true
}

func (c *queryCache) Put(key string, results []model.RankedMemory) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.items[key]; !exists {
		if len(c.order) >= c.cap {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.items, oldest)
		}
		c.order = append(c.order, key)
	}
	c.items[key] = cachedQuery{results: results, expiresAt: time.Now().Add(c.ttl)}
}
