package maintenance

import (
	"context"
	"time"

	"github.com/openmemory/openmemory/internal/dynamics"
	"github.com/openmemory/openmemory/internal/model"
	"github.com/openmemory/openmemory/internal/store"
)

const decayEpsilon = 0.001

// RunDecayOnce applies dual-phase decay to every memory, cursor-paginated
// in chunks, skipping rows whose salience barely moves to avoid a
// thundering herd of near-identical writes.
func (m *Maintenance) RunDecayOnce(ctx context.Context) (int, error) {
	now := time.Now().UnixMilli()
	var after *store.Cursor
	updated := 0

	for {
		page, err := m.store.ListMemoriesPage(ctx, after, m.opt.DecayChunkSize)
		if err != nil {
			return updated, err
		}
		if len(page) == 0 {
			break
		}
		for _, mem := range page {
			deltaDays := float64(now-mem.LastSeenAt) / 86_400_000.0
			newSalience := dynamics.DualPhaseDecayWithLambdas(mem.Salience, deltaDays, dynamics.LambdaFast, mem.DecayLambda)
			if absDiff(newSalience, mem.Salience) > decayEpsilon {
				if err := m.store.UpdateLastSeenAndSalience(ctx, mem.ID, mem.UserID, mem.LastSeenAt, newSalience); err != nil {
					return updated, err
				}
				updated++
			}
		}
		last := page[len(page)-1]
		after = &store.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}
		if len(page) < m.opt.DecayChunkSize {
			break
		}
		if m.opt.DecaySleep > 0 {
			select {
			case <-ctx.Done():
				return updated, ctx.Err()
			case <-time.After(m.opt.DecaySleep):
			}
		}
	}

	_ = m.store.RecordStat(ctx, model.Stats{Type: "decay", Count: updated, TS: now})
	return updated, nil
}

func absDiff(a, b float64) float64 {
	if a > b {
		return a - b
	}
	return b - a
}
