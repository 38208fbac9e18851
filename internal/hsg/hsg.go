// Package hsg implements C6: the Hierarchical Storage Graph engine that
// orchestrates Store, VectorStore, Classifier, Embedder, and Dynamics into
// add/query/update/delete/reinforce operations, plus the always-on
// waypoint-reinforcement maintenance loop fed by a coactivation buffer.
package hsg

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/openmemory/openmemory/internal/classifier"
	"github.com/openmemory/openmemory/internal/dynamics"
	"github.com/openmemory/openmemory/internal/embedder"
	"github.com/openmemory/openmemory/internal/model"
	"github.com/openmemory/openmemory/internal/obslog"
	"github.com/openmemory/openmemory/internal/store"
	"github.com/openmemory/openmemory/internal/vectorstore"
)

// Clock is injectable for deterministic tests.
type Clock interface {
	NowMillis() int64
}

type systemClock struct{}

func (systemClock) NowMillis() int64 { return time.Now().UnixMilli() }

// IDGen is injectable for deterministic tests.
type IDGen func() string

func defaultIDGen() string { return uuid.NewString() }

// Event is emitted for observability hooks around memory_added and
// consolidate events.
type Event struct {
	Name     string
	MemoryID string
	UserID   string
	At       int64
}

// HSG is the core memory engine. Construct with New and functional options.
type HSG struct {
	store   store.Store
	vectors vectorstore.VectorStore
	class   *classifier.Classifier
	router  *embedder.Router

	clock Clock
	newID IDGen

	subscribers []func(Event)
	subMu       sync.Mutex

	coact *coactivationBuffer

	queryCache *queryCache

	weights      ScoreWeights
	keywordBoost float64
}

// ScoreWeights are the query-time combination weights named by the
// specification, with its stated defaults.
type ScoreWeights struct {
	Sim      float64
	Overlap  float64
	Waypoint float64
	Recency  float64
	Tag      float64
}

func DefaultScoreWeights() ScoreWeights {
	return ScoreWeights{Sim: 0.35, Overlap: 0.20, Waypoint: 0.15, Recency: 0.10, Tag: 0.20}
}

// Option configures an HSG during construction.
type Option func(*HSG)

func WithClock(c Clock) Option { return func(h *HSG) { h.clock = c } }
func WithIDGen(f IDGen) Option { return func(h *HSG) { h.newID = f } }
func WithScoreWeights(w ScoreWeights) Option { return func(h *HSG) { h.weights = w } }
func WithSubscriber(f func(Event)) Option {
	return func(h *HSG) { h.subscribers = append(h.subscribers, f) }
}
func WithKeywordBoost(v float64) Option { return func(h *HSG) { h.keywordBoost = v } }

// New wires a Store, VectorStore, Classifier, and embedding Router into an
// HSG, grounded on the teacher's functional-options service constructor.
func New(st store.Store, vs vectorstore.VectorStore, cls *classifier.Classifier, router *embedder.Router, opts ...Option) *HSG {
	h := &HSG{
		store:      st,
		vectors:    vs,
		class:      cls,
		router:     router,
		clock:      systemClock{},
		newID:      defaultIDGen,
		coact:      newCoactivationBuffer(500),
		queryCache: newQueryCache(200, 30*time.Second),
		weights:    DefaultScoreWeights(),
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

func (h *HSG) emit(ev Event) {
	h.subMu.Lock()
	subs := append([]func(Event){}, h.subscribers...)
	h.subMu.Unlock()
	for _, f := range subs {
		f(ev)
	}
}

// RunWaypointMaintenance starts the always-on 1Hz waypoint-reinforcement
// loop; it blocks until ctx is cancelled.
func (h *HSG) RunWaypointMaintenance(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	logger := obslog.FromContext(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := h.drainCoactivation(ctx); err != nil {
				logger.Warn().Err(err).Msg("waypoint maintenance drain failed")
			}
		}
	}
}

// drainCoactivation implements the waypoint maintenance step: drain up to
// 50 pairs, reinforce each pair's waypoint weight by temporal proximity.
func (h *HSG) drainCoactivation(ctx context.Context) error {
	pairs := h.coact.DrainUpTo(50)
	for _, p := range pairs {
		if err := h.reinforceWaypoint(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

func (h *HSG) reinforceWaypoint(ctx context.Context, p coactivationPair) error {
	a, err := h.store.GetMemory(ctx, p.A, p.UserID)
	if err != nil || a == nil {
		return nil
	}
	b, err := h.store.GetMemory(ctx, p.B, p.UserID)
	if err != nil || b == nil {
		return nil
	}
	if a.UserID != b.UserID {
		return nil
	}

	deltaDays := float64(abs64(a.LastSeenAt-b.LastSeenAt)) / 86_400_000.0
	temporalFactor := dynamics.TemporalProximity(deltaDays, dynamics.Tau)

	existing, err := h.store.GetWaypointsBySrc(ctx, p.A, p.UserID)
	if err != nil {
		return err
	}
	weight := 0.0
	for _, w := range existing {
		if w.DstID == p.B {
			weight = w.Weight
			break
		}
	}
	newWeight := dynamics.Clamp01(weight + dynamics.WaypointEta*(1-weight)*temporalFactor)

	now := h.clock.NowMillis()
	return h.store.InsertWaypoint(ctx, model.Waypoint{
		SrcID: p.A, DstID: p.B, UserID: p.UserID, Weight: newWeight, CreatedAt: now, UpdatedAt: now,
	})
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
