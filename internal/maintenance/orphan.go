package maintenance

import (
	"context"
	"runtime"
	"strings"
	"time"

	"github.com/openmemory/openmemory/internal/model"
)

const (
	existenceBatchSize = 500
	yieldEvery         = 5000
)

// RunOrphanPruneOnce streams every stored vector id, batch-checks the
// owning memory's existence, and deletes vectors whose memory was deleted
// without a matching vector cleanup (e.g. a crash between the HSG's
// vector-upsert and its metadata transaction).
func (m *Maintenance) RunOrphanPruneOnce(ctx context.Context) (int, error) {
	deleted := 0
	scanned := 0

	err := m.vectors.IterateAllIDs(ctx, existenceBatchSize, func(ids []string) (bool, error) {
		memIDs := make([]string, len(ids))
		for i, id := range ids {
			memIDs[i] = memoryIDFromVectorID(id)
		}
		exists, err := m.store.MemoriesExist(ctx, memIDs)
		if err != nil {
			return false, err
		}
		for i, id := range ids {
			scanned++
			if !exists[memIDs[i]] {
				if err := m.vectors.Delete(ctx, id); err != nil {
					return false, err
				}
				deleted++
			}
			if scanned%yieldEvery == 0 {
				select {
				case <-ctx.Done():
					return false, ctx.Err()
				default:
					runtime.Gosched()
				}
			}
		}
		return true, nil
	})
	if err != nil {
		return deleted, err
	}

	_ = m.store.RecordStat(ctx, model.Stats{Type: "orphan_prune", Count: deleted, TS: time.Now().UnixMilli()})
	return deleted, nil
}

func memoryIDFromVectorID(vectorID string) string {
	idx := strings.LastIndexByte(vectorID, ':')
	if idx < 0 {
		return vectorID
	}
	return vectorID[:idx]
}
