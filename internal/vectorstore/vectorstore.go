// Package vectorstore implements C2: pluggable nearest-neighbor storage for
// per-sector memory vectors. Every vector id is namespaced as
// "<memory_id>:<sector>" so a single memory can carry one vector per sector
// it was classified into without backends needing to know about sectors.
package vectorstore

import "context"

// Result is a single nearest-neighbor hit.
type Result struct {
	ID       string // "<memory_id>:<sector>"
	Score    float64
	Metadata map[string]string
}

// VectorStore is the minimum interface for a pluggable similarity backend.
// Implementations must be safe for concurrent use.
type VectorStore interface {
	Upsert(ctx context.Context, id string, vector []float32, metadata map[string]string) error
	Delete(ctx context.Context, id string) error
	SimilaritySearch(ctx context.Context, vector []float32, k int, filter map[string]string) ([]Result, error)

	// GetVector returns a single stored vector, or ok=false if absent.
	GetVector(ctx context.Context, id string) (vec []float32, ok bool, err error)

	// IterateAllIDs streams every stored vector id in batches of at most
	// batchSize, for maintenance's orphan-pruning scan. It stops early if fn
	// returns false.
	IterateAllIDs(ctx context.Context, batchSize int, fn func(ids []string) (more bool, err error)) error

	Close() error
}

// ComposeID namespaces a vector id by memory id and sector.
func ComposeID(memoryID, sector string) string {
	return memoryID + ":" + sector
}
