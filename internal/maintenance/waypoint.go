package maintenance

import (
	"context"
	"time"

	"github.com/openmemory/openmemory/internal/model"
)

// RunWaypointPruneOnce deletes waypoints whose reinforced weight has
// decayed below the configured threshold, keeping the graph from
// accumulating edges too weak to ever influence spreading activation.
func (m *Maintenance) RunWaypointPruneOnce(ctx context.Context) (int, error) {
	n, err := m.store.PruneWaypoints(ctx, m.opt.WaypointPruneThreshold)
	if err != nil {
		return n, err
	}
	_ = m.store.RecordStat(ctx, model.Stats{Type: "waypoint_prune", Count: n, TS: time.Now().UnixMilli()})
	return n, nil
}
