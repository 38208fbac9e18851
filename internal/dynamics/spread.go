package dynamics

import (
	"context"
	"math"
	"sort"
)

// Neighbor is a single outgoing waypoint edge as seen by spreading
// activation.
type Neighbor struct {
	ID     string
	Weight float64
}

// NeighborLookup fetches the outgoing waypoints for a single memory id,
// scoped to a tenant. Implementations talk to the Store; this package never
// performs I/O itself.
type NeighborLookup func(ctx context.Context, id string) ([]Neighbor, error)

// SpreadOptions bounds a spreading-activation pass per the specification's
// safety budgets.
type SpreadOptions struct {
	MaxIterations       int
	MinActivation       float64 // neighbors below this are not propagated further
	MaxSourcesPerHop    int
	MaxTotalTraversals  int
	MaxActiveNodes      int
}

// DefaultSpreadOptions mirrors the specification's defaults.
func DefaultSpreadOptions() SpreadOptions {
	return SpreadOptions{
		MaxIterations:      8,
		MinActivation:      0.05,
		MaxSourcesPerHop:   500,
		MaxTotalTraversals: 10_000,
		MaxActiveNodes:     2_000,
	}
}

// Spread runs budgeted spreading activation starting from seeds (each with
// activation 1.0), returning a map id -> activation. It never owns pointers
// to memories; it only ever sees ids and edge weights.
func Spread(ctx context.Context, seeds []string, neighbors NeighborLookup, opt SpreadOptions) (map[string]float64, error) {
	activation := make(map[string]float64, len(seeds))
	for _, s := range seeds {
		activation[s] = 1.0
	}

	frontier := append([]string(nil), seeds...)
	traversals := 0

	for hop := 0; hop < opt.MaxIterations && len(frontier) > 0; hop++ {
		sources := frontier
		if len(sources) > opt.MaxSourcesPerHop {
			sources = topKByActivation(sources, activation, opt.MaxSourcesPerHop)
		}

		decay := math.Exp(-Gamma * float64(hop))
		var nextFrontier []string
		changed := false

		for _, src := range sources {
			cur := activation[src]
			if cur < opt.MinActivation {
				continue
			}
			neigh, err := neighbors(ctx, src)
			if err != nil {
				return nil, err
			}
			for _, n := range neigh {
				if traversals >= opt.MaxTotalTraversals {
					break
				}
				traversals++
				propagated := n.Weight * cur * decay
				if propagated < opt.MinActivation {
					continue
				}
				if propagated > activation[n.ID] {
					activation[n.ID] = propagated
					nextFrontier = append(nextFrontier, n.ID)
					changed = true
				}
			}
			if traversals >= opt.MaxTotalTraversals {
				break
			}
		}

		if !changed {
			break
		}
		if len(activation) > opt.MaxActiveNodes {
			activation = trimToTopK(activation, opt.MaxActiveNodes)
		}
		frontier = nextFrontier
		if traversals >= opt.MaxTotalTraversals {
			break
		}
	}

	return activation, nil
}

func topKByActivation(ids []string, activation map[string]float64, k int) []string {
	sorted := append([]string(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return activation[sorted[i]] > activation[sorted[j]] })
	if len(sorted) > k {
		sorted = sorted[:k]
	}
	return sorted
}

func trimToTopK(activation map[string]float64, k int) map[string]float64 {
	ids := make([]string, 0, len(activation))
	for id := range activation {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return activation[ids[i]] > activation[ids[j]] })
	if len(ids) > k {
		ids = ids[:k]
	}
	out := make(map[string]float64, len(ids))
	for _, id := range ids {
		out[id] = activation[id]
	}
	return out
}
