// Package maintenance implements C7: the scheduled housekeeping jobs that
// keep salience honest and reclaim storage the HSG's online path leaves
// behind — dual-phase decay, orphan-vector pruning, and low-weight
// waypoint pruning — plus the robfig/cron scheduler that paces them.
package maintenance

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/openmemory/openmemory/internal/obslog"
	"github.com/openmemory/openmemory/internal/store"
	"github.com/openmemory/openmemory/internal/vectorstore"
)

// Options configures job pacing. Zero values fall back to the
// specification's stated defaults.
type Options struct {
	DecayIntervalMinutes   int
	DecayChunkSize         int
	DecaySleep             time.Duration
	WaypointPruneThreshold float64
	OrphanPruneEvery       time.Duration
	WaypointPruneEvery     time.Duration
}

func (o Options) withDefaults() Options {
	if o.DecayIntervalMinutes <= 0 {
		o.DecayIntervalMinutes = 1440
	}
	if o.DecayChunkSize <= 0 {
		o.DecayChunkSize = 1000
	}
	if o.WaypointPruneThreshold <= 0 {
		o.WaypointPruneThreshold = 0.05
	}
	if o.OrphanPruneEvery <= 0 {
		o.OrphanPruneEvery = 6 * time.Hour
	}
	if o.WaypointPruneEvery <= 0 {
		o.WaypointPruneEvery = 6 * time.Hour
	}
	return o
}

// Maintenance owns the three scheduled jobs and the cron runner that paces
// them. The always-on 1Hz waypoint-reinforcement loop lives in
// internal/hsg instead, since it is fed by the query path's coactivation
// buffer rather than run on a cron schedule.
type Maintenance struct {
	store   store.Store
	vectors vectorstore.VectorStore
	opt     Options
	cron    *cron.Cron
}

func New(st store.Store, vs vectorstore.VectorStore, opt Options) *Maintenance {
	return &Maintenance{store: st, vectors: vs, opt: opt.withDefaults()}
}

// Start schedules the decay, orphan-prune, and waypoint-prune jobs and
// begins running them in the background. Call Stop to drain in-flight runs.
func (m *Maintenance) Start(ctx context.Context) error {
	m.cron = cron.New()
	logger := obslog.FromContext(ctx)

	decaySpec := "@every " + time.Duration(m.opt.DecayIntervalMinutes*int(time.Minute)).String()
	if _, err := m.cron.AddFunc(decaySpec, func() {
		if n, err := m.RunDecayOnce(ctx); err != nil {
			logger.Warn().Err(err).Msg("decay pass failed")
		} else {
			logger.Info().Int("updated", n).Msg("decay pass complete")
		}
	}); err != nil {
		return err
	}

	orphanSpec := "@every " + m.opt.OrphanPruneEvery.String()
	if _, err := m.cron.AddFunc(orphanSpec, func() {
		if n, err := m.RunOrphanPruneOnce(ctx); err != nil {
			logger.Warn().Err(err).Msg("orphan vector prune failed")
		} else {
			logger.Info().Int("deleted", n).Msg("orphan vector prune complete")
		}
	}); err != nil {
		return err
	}

	waypointSpec := "@every " + m.opt.WaypointPruneEvery.String()
	if _, err := m.cron.AddFunc(waypointSpec, func() {
		if n, err := m.RunWaypointPruneOnce(ctx); err != nil {
			logger.Warn().Err(err).Msg("waypoint prune failed")
		} else {
			logger.Info().Int("pruned", n).Msg("waypoint prune complete")
		}
	}); err != nil {
		return err
	}

	m.cron.Start()
	return nil
}

// Stop halts the scheduler and waits for any in-flight job to finish.
func (m *Maintenance) Stop() {
	if m.cron == nil {
		return
	}
	<-m.cron.Stop().Done()
}
