// Package store implements C1: the durable, tenant-scoped metadata store for
// memories, vectors-by-reference, waypoints, users, embed logs, and stats.
// Two backends are provided: SQLite (default, via modernc.org/sqlite) and
// Postgres (via jackc/pgx). Both share the Store interface and the nested
// transaction contract described in the specification's Design Notes.
package store

import (
	"context"

	"github.com/openmemory/openmemory/internal/model"
)

// Cursor paginates list_memories in a stable (created_at, id) order.
type Cursor struct {
	CreatedAt int64
	ID        string
}

// ListOptions narrows ListMemories.
type ListOptions struct {
	UserID string // empty means "maintenance: all tenants"
	Sector model.Sector
	Limit  int
	After  *Cursor
}

// Tx is a nested transaction handle. Begin returns the outermost Tx; calling
// Begin again on a Tx opens a SAVEPOINT. Commit/Rollback at depth>0 release
// or roll back to that savepoint; at depth 0 they commit/roll back the
// underlying connection transaction.
type Tx interface {
	Begin(ctx context.Context) (Tx, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	Store
}

// Store is the tenant-scoped persistence contract for C1. Every mutating
// method requires user_id except where explicitly marked unsafe for
// maintenance use.
type Store interface {
	// Transactions
	Begin(ctx context.Context) (Tx, error)

	// Memories
	InsertMemory(ctx context.Context, m model.Memory) error
	UpdateMemoryFields(ctx context.Context, id, userID string, content *string, tags []string, meta map[string]any) error
	UpdateMeanVec(ctx context.Context, id, userID string, vec []float32, dim int) error
	UpdateLastSeenAndSalience(ctx context.Context, id, userID string, lastSeenAt int64, salience float64) error
	UpdateFeedback(ctx context.Context, id, userID string, feedback float64) error
	DeleteMemory(ctx context.Context, id, userID string) error
	GetMemory(ctx context.Context, id, userID string) (*model.Memory, error)
	GetMemoryBySimhash(ctx context.Context, simhash, userID string) (*model.Memory, error)
	ListMemories(ctx context.Context, opt ListOptions) ([]model.Memory, error)

	// Waypoints
	InsertWaypoint(ctx context.Context, w model.Waypoint) error
	UpdateWaypointWeight(ctx context.Context, srcID, dstID, userID string, weight float64) error
	GetWaypointsBySrc(ctx context.Context, srcID, userID string) ([]model.Waypoint, error)
	GetNeighbors(ctx context.Context, srcID, userID string) ([]string, error)
	DeleteWaypointsTouching(ctx context.Context, id, userID string) error
	PruneWaypoints(ctx context.Context, threshold float64) (int, error)

	// Users
	UpsertUserFirstTouch(ctx context.Context, userID string, ts int64) error
	GetUser(ctx context.Context, userID string) (*model.User, error)

	// Embed logs
	InsertEmbedLog(ctx context.Context, log model.EmbedLog) error
	UpdateEmbedLogStatus(ctx context.Context, id string, status model.EmbedLogStatus, errMsg string) error

	// Stats
	RecordStat(ctx context.Context, s model.Stats) error

	// Maintenance (unsafe: cross-tenant)
	ListMemoriesPage(ctx context.Context, after *Cursor, limit int) ([]model.Memory, error)
	MemoriesExist(ctx context.Context, ids []string) (map[string]bool, error)

	Close() error
}
