package hsg

import "sync"

// coactivationPair is one co-retrieved memory pair, tenant-tagged so the
// waypoint maintenance loop can skip cross-tenant leakage defensively even
// though producers should never mix tenants.
type coactivationPair struct {
	A, B   string
	UserID string
}

// coactivationBuffer is a bounded FIFO fed by query() and drained by the
// waypoint maintenance loop; once full, the oldest pairs are dropped rather
// than blocking the query path.
type coactivationBuffer struct {
	mu       sync.Mutex
	items    []coactivationPair
	capacity int
}

func newCoactivationBuffer(capacity int) *coactivationBuffer {
	return &coactivationBuffer{capacity: capacity}
}

func (b *coactivationBuffer) Push(p coactivationPair) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.items) >= b.capacity {
		overflow := len(b.items) - b.capacity + 1
		b.items = b.items[overflow:]
	}
	b.items = append(b.items, p)
}

// DrainUpTo removes and returns at most n pairs in FIFO order.
func (b *coactivationBuffer) DrainUpTo(n int) []coactivationPair {
	b.mu.Lock()
	defer b.mu.Unlock()
	if n > len(b.items) {
		n = len(b.items)
	}
	out := append([]coactivationPair(nil), b.items[:n]...)
	b.items = b.items[n:]
	return out
}
