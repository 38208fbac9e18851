package store

import (
	"context"
	"database/sql"
	"sort"
	"strings"

	"github.com/openmemory/openmemory/internal/model"
)

// Migration is one ordered, versioned, idempotent schema step.
type Migration struct {
	Version     string
	Description string
	SQLite      string
	Postgres    string
}

// migrations is intentionally ordered; version strings are semver-comparable
// by simple string compare because they share a fixed "NNN" width.
var migrations = []Migration{
	{
		Version:     "001",
		Description: "initial schema",
		SQLite: `
CREATE TABLE IF NOT EXISTS schema_version (version TEXT PRIMARY KEY, applied_at INTEGER NOT NULL);
CREATE TABLE IF NOT EXISTS memories (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	segment INTEGER NOT NULL DEFAULT 0,
	content TEXT NOT NULL,
	simhash TEXT NOT NULL DEFAULT '',
	primary_sector TEXT NOT NULL,
	tags TEXT NOT NULL DEFAULT '[]',
	meta TEXT NOT NULL DEFAULT '{}',
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL,
	last_seen_at INTEGER NOT NULL,
	salience REAL NOT NULL DEFAULT 1.0,
	decay_lambda REAL NOT NULL DEFAULT 0.015,
	version INTEGER NOT NULL DEFAULT 1,
	mean_dim INTEGER NOT NULL DEFAULT 0,
	mean_vec BLOB,
	compressed_vec BLOB,
	feedback_score REAL NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS memories_sector_idx ON memories(primary_sector);
CREATE INDEX IF NOT EXISTS memories_simhash_idx ON memories(simhash);
CREATE INDEX IF NOT EXISTS memories_user_idx ON memories(user_id);
CREATE INDEX IF NOT EXISTS memories_last_seen_idx ON memories(last_seen_at);
CREATE INDEX IF NOT EXISTS memories_created_idx ON memories(created_at);

CREATE TABLE IF NOT EXISTS waypoints (
	src_id TEXT NOT NULL,
	dst_id TEXT NOT NULL,
	user_id TEXT NOT NULL,
	weight REAL NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (src_id, dst_id, user_id)
);
CREATE INDEX IF NOT EXISTS waypoints_src_idx ON waypoints(src_id);
CREATE INDEX IF NOT EXISTS waypoints_dst_idx ON waypoints(dst_id);
CREATE INDEX IF NOT EXISTS waypoints_user_idx ON waypoints(user_id);

CREATE TABLE IF NOT EXISTS users (
	user_id TEXT PRIMARY KEY,
	summary TEXT NOT NULL DEFAULT '',
	reflection_count INTEGER NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS embed_logs (
	id TEXT PRIMARY KEY,
	model TEXT NOT NULL,
	status TEXT NOT NULL,
	ts INTEGER NOT NULL,
	err TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS stats (
	type TEXT NOT NULL,
	count INTEGER NOT NULL,
	ts INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS temporal_facts (
	id TEXT PRIMARY KEY,
	subject TEXT NOT NULL,
	predicate TEXT NOT NULL,
	object TEXT NOT NULL,
	user_id TEXT NOT NULL,
	valid_from INTEGER NOT NULL,
	valid_to INTEGER
);
CREATE INDEX IF NOT EXISTS temporal_facts_timeline_idx ON temporal_facts(subject, predicate, valid_from);

CREATE TABLE IF NOT EXISTS temporal_edges (
	id TEXT PRIMARY KEY,
	src_id TEXT NOT NULL,
	dst_id TEXT NOT NULL,
	relation TEXT NOT NULL,
	user_id TEXT NOT NULL,
	valid_from INTEGER NOT NULL,
	valid_to INTEGER
);
`,
		Postgres: `
CREATE TABLE IF NOT EXISTS schema_version (version TEXT PRIMARY KEY, applied_at BIGINT NOT NULL);
CREATE TABLE IF NOT EXISTS memories (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	segment INTEGER NOT NULL DEFAULT 0,
	content TEXT NOT NULL,
	simhash TEXT NOT NULL DEFAULT '',
	primary_sector TEXT NOT NULL,
	tags JSONB NOT NULL DEFAULT '[]'::jsonb,
	meta JSONB NOT NULL DEFAULT '{}'::jsonb,
	created_at BIGINT NOT NULL,
	updated_at BIGINT NOT NULL,
	last_seen_at BIGINT NOT NULL,
	salience DOUBLE PRECISION NOT NULL DEFAULT 1.0,
	decay_lambda DOUBLE PRECISION NOT NULL DEFAULT 0.015,
	version INTEGER NOT NULL DEFAULT 1,
	mean_dim INTEGER NOT NULL DEFAULT 0,
	mean_vec BYTEA,
	compressed_vec BYTEA,
	feedback_score DOUBLE PRECISION NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS memories_sector_idx ON memories(primary_sector);
CREATE INDEX IF NOT EXISTS memories_simhash_idx ON memories(simhash);
CREATE INDEX IF NOT EXISTS memories_user_idx ON memories(user_id);
CREATE INDEX IF NOT EXISTS memories_last_seen_idx ON memories(last_seen_at);
CREATE INDEX IF NOT EXISTS memories_created_idx ON memories(created_at);

CREATE TABLE IF NOT EXISTS waypoints (
	src_id TEXT NOT NULL,
	dst_id TEXT NOT NULL,
	user_id TEXT NOT NULL,
	weight DOUBLE PRECISION NOT NULL DEFAULT 0,
	created_at BIGINT NOT NULL,
	updated_at BIGINT NOT NULL,
	PRIMARY KEY (src_id, dst_id, user_id)
);
CREATE INDEX IF NOT EXISTS waypoints_src_idx ON waypoints(src_id);
CREATE INDEX IF NOT EXISTS waypoints_dst_idx ON waypoints(dst_id);
CREATE INDEX IF NOT EXISTS waypoints_user_idx ON waypoints(user_id);

CREATE TABLE IF NOT EXISTS users (
	user_id TEXT PRIMARY KEY,
	summary TEXT NOT NULL DEFAULT '',
	reflection_count INTEGER NOT NULL DEFAULT 0,
	created_at BIGINT NOT NULL,
	updated_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS embed_logs (
	id TEXT PRIMARY KEY,
	model TEXT NOT NULL,
	status TEXT NOT NULL,
	ts BIGINT NOT NULL,
	err TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS stats (
	type TEXT NOT NULL,
	count INTEGER NOT NULL,
	ts BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS temporal_facts (
	id TEXT PRIMARY KEY,
	subject TEXT NOT NULL,
	predicate TEXT NOT NULL,
	object TEXT NOT NULL,
	user_id TEXT NOT NULL,
	valid_from BIGINT NOT NULL,
	valid_to BIGINT
);
CREATE INDEX IF NOT EXISTS temporal_facts_timeline_idx ON temporal_facts(subject, predicate, valid_from);

CREATE TABLE IF NOT EXISTS temporal_edges (
	id TEXT PRIMARY KEY,
	src_id TEXT NOT NULL,
	dst_id TEXT NOT NULL,
	relation TEXT NOT NULL,
	user_id TEXT NOT NULL,
	valid_from BIGINT NOT NULL,
	valid_to BIGINT
);
`,
	},
	{
		Version:     "002",
		Description: "feedback_score backfill column guard",
		SQLite:      `ALTER TABLE memories ADD COLUMN feedback_score REAL NOT NULL DEFAULT 0;`,
		Postgres:    `ALTER TABLE memories ADD COLUMN IF NOT EXISTS feedback_score DOUBLE PRECISION NOT NULL DEFAULT 0;`,
	},
}

// ListMigrations exposes migration metadata, e.g. for an admin CLI.
func ListMigrations() []Migration {
	out := append([]Migration(nil), migrations...)
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out
}

// runSQLiteMigrations applies every migration whose version is strictly
// greater than the stored schema_version, in order. Duplicate-column errors
// on idempotent ALTER steps are swallowed; other failures abort.
func runSQLiteMigrations(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_version (version TEXT PRIMARY KEY, applied_at INTEGER NOT NULL)`); err != nil {
		return model.NewSchemaError("bootstrap", err.Error())
	}
	current := currentVersion(ctx, db)
	for _, m := range ListMigrations() {
		if m.Version <= current {
			continue
		}
		if _, err := db.ExecContext(ctx, m.SQLite); err != nil && !isDuplicateColumnErr(err) {
			return model.NewSchemaError(m.Version, err.Error())
		}
		if _, err := db.ExecContext(ctx, `INSERT OR REPLACE INTO schema_version(version, applied_at) VALUES (?, ?)`, m.Version, nowMs()); err != nil {
			return model.NewSchemaError(m.Version, err.Error())
		}
	}
	return nil
}

func currentVersion(ctx context.Context, db *sql.DB) string {
	row := db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), '000') FROM schema_version`)
	var v string
	if err := row.Scan(&v); err != nil {
		return "000"
	}
	return v
}

func isDuplicateColumnErr(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate column") || strings.Contains(msg, "already exists")
}
