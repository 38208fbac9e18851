package vectorstore

import (
	"context"
	"math"
	"sort"
	"sync"
)

// InMemory is a process-local VectorStore, grounded on the teacher's
// map-backed cosine-scan backend. It is the default for single-node
// deployments and tests; it keeps no index beyond a flat map, so
// SimilaritySearch is O(n) per call.
type InMemory struct {
	mu      sync.RWMutex
	vectors map[string]entry
}

type entry struct {
	v        []float32
	metadata map[string]string
}

func NewInMemory() *InMemory {
	return &InMemory{vectors: make(map[string]entry)}
}

func (m *InMemory) Upsert(_ context.Context, id string, vector []float32, metadata map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]float32, len(vector))
	copy(cp, vector)
	m.vectors[id] = entry{v: cp, metadata: copyMap(metadata)}
	return nil
}

func (m *InMemory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.vectors, id)
	return nil
}

func (m *InMemory) GetVector(_ context.Context, id string) ([]float32, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.vectors[id]
	if !ok {
		return nil, false, nil
	}
	cp := make([]float32, len(e.v))
	copy(cp, e.v)
	return cp, true, nil
}

func (m *InMemory) SimilaritySearch(_ context.Context, vector []float32, k int, filter map[string]string) ([]Result, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if k <= 0 {
		k = 10
	}
	qnorm := norm(vector)
	out := make([]Result, 0, len(m.vectors))
	for id, e := range m.vectors {
		if !matchesFilter(e.metadata, filter) {
			continue
		}
		out = append(out, Result{ID: id, Score: cosine(vector, e.v, qnorm), Metadata: copyMap(e.metadata)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}

func (m *InMemory) IterateAllIDs(_ context.Context, batchSize int, fn func(ids []string) (bool, error)) error {
	if batchSize <= 0 {
		batchSize = 1000
	}
	m.mu.RLock()
	ids := make([]string, 0, len(m.vectors))
	for id := range m.vectors {
		ids = append(ids, id)
	}
	m.mu.RUnlock()
	sort.Strings(ids)
	for i := 0; i < len(ids); i += batchSize {
		end := i + batchSize
		if end > len(ids) {
			end = len(ids)
		}
		more, err := fn(ids[i:end])
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
	return nil
}

func (m *InMemory) Close() error { return nil }

func matchesFilter(md, f map[string]string) bool {
	if len(f) == 0 {
		return true
	}
	for k, v := range f {
		if md[k] != v {
			return false
		}
	}
	return true
}

func copyMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func norm(a []float32) float64 {
	var s float64
	for _, x := range a {
		s += float64(x) * float64(x)
	}
	return math.Sqrt(s)
}

func dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var s float64
	for i := 0; i < n; i++ {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}

func cosine(a, b []float32, anorm float64) float64 {
	if anorm == 0 {
		anorm = norm(a)
	}
	bnorm := norm(b)
	if anorm == 0 || bnorm == 0 {
		return 0
	}
	return dot(a, b) / (anorm * bnorm)
}
