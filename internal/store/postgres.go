package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openmemory/openmemory/internal/dynamics"
	"github.com/openmemory/openmemory/internal/model"
)

// PostgresStore is the Postgres-backed Store, for deployments that need a
// shared connection pool or pgvector-assisted vector search alongside the
// metadata tables.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres opens (and migrates) a pgx pool against dsn, with the
// teacher-style conservative pool tuning and a ping-based connectivity
// check.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	cfg.MaxConns = 8
	cfg.MinConns = 0
	cfg.MaxConnLifetime = time.Hour
	cfg.MaxConnIdleTime = 5 * time.Minute
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := pool.Ping(pctx); err != nil {
		pool.Close()
		return nil, err
	}
	if err := runPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// Pool exposes the underlying connection pool so adjacent subsystems
// sharing this schema (internal/temporal) can reuse it.
func (s *PostgresStore) Pool() *pgxpool.Pool { return s.pool }

func runPostgresMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_version (version TEXT PRIMARY KEY, applied_at BIGINT NOT NULL)`); err != nil {
		return model.NewSchemaError("bootstrap", err.Error())
	}
	var current string
	if err := pool.QueryRow(ctx, `SELECT COALESCE(MAX(version), '000') FROM schema_version`).Scan(&current); err != nil {
		current = "000"
	}
	for _, m := range ListMigrations() {
		if m.Version <= current {
			continue
		}
		if _, err := pool.Exec(ctx, m.Postgres); err != nil {
			return model.NewSchemaError(m.Version, err.Error())
		}
		if _, err := pool.Exec(ctx, `INSERT INTO schema_version(version, applied_at) VALUES ($1,$2) ON CONFLICT(version) DO NOTHING`, m.Version, nowMs()); err != nil {
			return model.NewSchemaError(m.Version, err.Error())
		}
	}
	return nil
}

// pgExecer is satisfied by *pgxpool.Pool and pgx.Tx.
type pgExecer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (s *PostgresStore) Begin(ctx context.Context) (Tx, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, model.NewTransactionError("begin", err.Error())
	}
	return &postgresTx{root: tx, depth: 0}, nil
}

type postgresTx struct {
	root  pgx.Tx
	depth int
}

func (t *postgresTx) Begin(ctx context.Context) (Tx, error) {
	sp := fmt.Sprintf("sp_%d", t.depth+1)
	if _, err := t.root.Exec(ctx, "SAVEPOINT "+sp); err != nil {
		return nil, model.NewTransactionError("begin", err.Error())
	}
	return &postgresTx{root: t.root, depth: t.depth + 1}, nil
}

func (t *postgresTx) Commit(ctx context.Context) error {
	if t.depth == 0 {
		if err := t.root.Commit(ctx); err != nil {
			return model.NewTransactionError("commit", err.Error())
		}
		return nil
	}
	sp := fmt.Sprintf("sp_%d", t.depth)
	if _, err := t.root.Exec(ctx, "RELEASE "+sp); err != nil {
		return model.NewTransactionError("commit", err.Error())
	}
	return nil
}

func (t *postgresTx) Rollback(ctx context.Context) error {
	if t.depth == 0 {
		if err := t.root.Rollback(ctx); err != nil {
			return model.NewTransactionError("rollback", err.Error())
		}
		return nil
	}
	sp := fmt.Sprintf("sp_%d", t.depth)
	if _, err := t.root.Exec(ctx, "ROLLBACK TO "+sp); err != nil {
		return model.NewTransactionError("rollback", err.Error())
	}
	if _, err := t.root.Exec(ctx, "RELEASE "+sp); err != nil {
		return model.NewTransactionError("rollback", err.Error())
	}
	return nil
}

func (t *postgresTx) Close() error { return nil }

func (t *postgresTx) InsertMemory(ctx context.Context, m model.Memory) error { return pgInsertMemory(ctx, t.root, m) }
func (t *postgresTx) UpdateMemoryFields(ctx context.Context, id, userID string, content *string, tags []string, meta map[string]any) error {
	return pgUpdateMemoryFields(ctx, t.root, id, userID, content, tags, meta)
}
func (t *postgresTx) UpdateMeanVec(ctx context.Context, id, userID string, vec []float32, dim int) error {
	return pgUpdateMeanVec(ctx, t.root, id, userID, vec, dim)
}
func (t *postgresTx) UpdateLastSeenAndSalience(ctx context.Context, id, userID string, lastSeenAt int64, salience float64) error {
	return pgUpdateLastSeenAndSalience(ctx, t.root, id, userID, lastSeenAt, salience)
}
func (t *postgresTx) UpdateFeedback(ctx context.Context, id, userID string, feedback float64) error {
	return pgUpdateFeedback(ctx, t.root, id, userID, feedback)
}
func (t *postgresTx) DeleteMemory(ctx context.Context, id, userID string) error {
	return pgDeleteMemory(ctx, t.root, id, userID)
}
func (t *postgresTx) GetMemory(ctx context.Context, id, userID string) (*model.Memory, error) {
	return pgGetMemory(ctx, t.root, id, userID)
}
func (t *postgresTx) GetMemoryBySimhash(ctx context.Context, simhash, userID string) (*model.Memory, error) {
	return pgGetMemoryBySimhash(ctx, t.root, simhash, userID)
}
func (t *postgresTx) ListMemories(ctx context.Context, opt ListOptions) ([]model.Memory, error) {
	return pgListMemories(ctx, t.root, opt)
}
func (t *postgresTx) InsertWaypoint(ctx context.Context, w model.Waypoint) error {
	return pgInsertWaypoint(ctx, t.root, w)
}
func (t *postgresTx) UpdateWaypointWeight(ctx context.Context, srcID, dstID, userID string, weight float64) error {
	return pgUpdateWaypointWeight(ctx, t.root, srcID, dstID, userID, weight)
}
func (t *postgresTx) GetWaypointsBySrc(ctx context.Context, srcID, userID string) ([]model.Waypoint, error) {
	return pgGetWaypointsBySrc(ctx, t.root, srcID, userID)
}
func (t *postgresTx) GetNeighbors(ctx context.Context, srcID, userID string) ([]string, error) {
	return pgGetNeighbors(ctx, t.root, srcID, userID)
}
func (t *postgresTx) DeleteWaypointsTouching(ctx context.Context, id, userID string) error {
	return pgDeleteWaypointsTouching(ctx, t.root, id, userID)
}
func (t *postgresTx) PruneWaypoints(ctx context.Context, threshold float64) (int, error) {
	return pgPruneWaypoints(ctx, t.root, threshold)
}
func (t *postgresTx) UpsertUserFirstTouch(ctx context.Context, userID string, ts int64) error {
	return pgUpsertUserFirstTouch(ctx, t.root, userID, ts)
}
func (t *postgresTx) GetUser(ctx context.Context, userID string) (*model.User, error) {
	return pgGetUser(ctx, t.root, userID)
}
func (t *postgresTx) InsertEmbedLog(ctx context.Context, log model.EmbedLog) error {
	return pgInsertEmbedLog(ctx, t.root, log)
}
func (t *postgresTx) UpdateEmbedLogStatus(ctx context.Context, id string, status model.EmbedLogStatus, errMsg string) error {
	return pgUpdateEmbedLogStatus(ctx, t.root, id, status, errMsg)
}
func (t *postgresTx) RecordStat(ctx context.Context, st model.Stats) error { return pgRecordStat(ctx, t.root, st) }
func (t *postgresTx) ListMemoriesPage(ctx context.Context, after *Cursor, limit int) ([]model.Memory, error) {
	return pgListMemories(ctx, t.root, ListOptions{After: after, Limit: limit})
}
func (t *postgresTx) MemoriesExist(ctx context.Context, ids []string) (map[string]bool, error) {
	return pgMemoriesExist(ctx, t.root, ids)
}

func (s *PostgresStore) InsertMemory(ctx context.Context, m model.Memory) error { return pgInsertMemory(ctx, s.pool, m) }
func (s *PostgresStore) UpdateMemoryFields(ctx context.Context, id, userID string, content *string, tags []string, meta map[string]any) error {
	return pgUpdateMemoryFields(ctx, s.pool, id, userID, content, tags, meta)
}
func (s *PostgresStore) UpdateMeanVec(ctx context.Context, id, userID string, vec []float32, dim int) error {
	return pgUpdateMeanVec(ctx, s.pool, id, userID, vec, dim)
}
func (s *PostgresStore) UpdateLastSeenAndSalience(ctx context.Context, id, userID string, lastSeenAt int64, salience float64) error {
	return pgUpdateLastSeenAndSalience(ctx, s.pool, id, userID, lastSeenAt, salience)
}
func (s *PostgresStore) UpdateFeedback(ctx context.Context, id, userID string, feedback float64) error {
	return pgUpdateFeedback(ctx, s.pool, id, userID, feedback)
}
func (s *PostgresStore) DeleteMemory(ctx context.Context, id, userID string) error {
	return pgDeleteMemory(ctx, s.pool, id, userID)
}
func (s *PostgresStore) GetMemory(ctx context.Context, id, userID string) (*model.Memory, error) {
	return pgGetMemory(ctx, s.pool, id, userID)
}
func (s *PostgresStore) GetMemoryBySimhash(ctx context.Context, simhash, userID string) (*model.Memory, error) {
	return pgGetMemoryBySimhash(ctx, s.pool, simhash, userID)
}
func (s *PostgresStore) ListMemories(ctx context.Context, opt ListOptions) ([]model.Memory, error) {
	return pgListMemories(ctx, s.pool, opt)
}
func (s *PostgresStore) InsertWaypoint(ctx context.Context, w model.Waypoint) error {
	return pgInsertWaypoint(ctx, s.pool, w)
}
func (s *PostgresStore) UpdateWaypointWeight(ctx context.Context, srcID, dstID, userID string, weight float64) error {
	return pgUpdateWaypointWeight(ctx, s.pool, srcID, dstID, userID, weight)
}
func (s *PostgresStore) GetWaypointsBySrc(ctx context.Context, srcID, userID string) ([]model.Waypoint, error) {
	return pgGetWaypointsBySrc(ctx, s.pool, srcID, userID)
}
func (s *PostgresStore) GetNeighbors(ctx context.Context, srcID, userID string) ([]string, error) {
	return pgGetNeighbors(ctx, s.pool, srcID, userID)
}
func (s *PostgresStore) DeleteWaypointsTouching(ctx context.Context, id, userID string) error {
	return pgDeleteWaypointsTouching(ctx, s.pool, id, userID)
}
func (s *PostgresStore) PruneWaypoints(ctx context.Context, threshold float64) (int, error) {
	return pgPruneWaypoints(ctx, s.pool, threshold)
}
func (s *PostgresStore) UpsertUserFirstTouch(ctx context.Context, userID string, ts int64) error {
	return pgUpsertUserFirstTouch(ctx, s.pool, userID, ts)
}
func (s *PostgresStore) GetUser(ctx context.Context, userID string) (*model.User, error) {
	return pgGetUser(ctx, s.pool, userID)
}
func (s *PostgresStore) InsertEmbedLog(ctx context.Context, log model.EmbedLog) error {
	return pgInsertEmbedLog(ctx, s.pool, log)
}
func (s *PostgresStore) UpdateEmbedLogStatus(ctx context.Context, id string, status model.EmbedLogStatus, errMsg string) error {
	return pgUpdateEmbedLogStatus(ctx, s.pool, id, status, errMsg)
}
func (s *PostgresStore) RecordStat(ctx context.Context, st model.Stats) error { return pgRecordStat(ctx, s.pool, st) }
func (s *PostgresStore) ListMemoriesPage(ctx context.Context, after *Cursor, limit int) ([]model.Memory, error) {
	return pgListMemories(ctx, s.pool, ListOptions{After: after, Limit: limit})
}
func (s *PostgresStore) MemoriesExist(ctx context.Context, ids []string) (map[string]bool, error) {
	return pgMemoriesExist(ctx, s.pool, ids)
}

func pgInsertMemory(ctx context.Context, q pgExecer, m model.Memory) error {
	tagsJSON, _ := json.Marshal(m.Tags)
	metaJSON, _ := json.Marshal(m.Meta)
	_, err := q.Exec(ctx, `
INSERT INTO memories (id, user_id, segment, content, simhash, primary_sector, tags, meta, created_at, updated_at, last_seen_at, salience, decay_lambda, version, mean_dim, mean_vec, compressed_vec, feedback_score)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
ON CONFLICT (id) DO UPDATE SET
	content=excluded.content, tags=excluded.tags, meta=excluded.meta, updated_at=excluded.updated_at,
	last_seen_at=excluded.last_seen_at, salience=excluded.salience, version=memories.version+1,
	mean_dim=excluded.mean_dim, mean_vec=excluded.mean_vec, compressed_vec=excluded.compressed_vec,
	feedback_score=excluded.feedback_score
WHERE memories.user_id = excluded.user_id`,
		m.ID, m.UserID, m.Segment, m.Content, m.Simhash, string(m.PrimarySector), tagsJSON, metaJSON,
		m.CreatedAt, m.UpdatedAt, m.LastSeenAt, m.Salience, m.DecayLambda, m.Version, m.MeanDim,
		VectorToBytes(m.MeanVec), m.CompressedVec, m.FeedbackScore)
	if err != nil {
		return model.NewTransactionError("insert_memory", err.Error())
	}
	return nil
}

func pgUpdateMemoryFields(ctx context.Context, q pgExecer, id, userID string, content *string, tags []string, meta map[string]any) error {
	sets := []string{"updated_at = $1", "version = version + 1"}
	args := []any{nowMs()}
	n := 2
	if content != nil {
		sets = append(sets, fmt.Sprintf("content = $%d", n))
		args = append(args, *content)
		n++
	}
	if tags != nil {
		b, _ := json.Marshal(tags)
		sets = append(sets, fmt.Sprintf("tags = $%d", n))
		args = append(args, b)
		n++
	}
	if meta != nil {
		b, _ := json.Marshal(meta)
		sets = append(sets, fmt.Sprintf("meta = $%d", n))
		args = append(args, b)
		n++
	}
	args = append(args, id, userID)
	tag, err := q.Exec(ctx, fmt.Sprintf("UPDATE memories SET %s WHERE id = $%d AND user_id = $%d", joinComma(sets), n, n+1), args...)
	return pgAffectedOrNotFound(tag, err, "memory", id)
}

func pgUpdateMeanVec(ctx context.Context, q pgExecer, id, userID string, vec []float32, dim int) error {
	tag, err := q.Exec(ctx, `UPDATE memories SET mean_vec = $1, mean_dim = $2, updated_at = $3 WHERE id = $4 AND user_id = $5`,
		VectorToBytes(vec), dim, nowMs(), id, userID)
	return pgAffectedOrNotFound(tag, err, "memory", id)
}

func pgUpdateLastSeenAndSalience(ctx context.Context, q pgExecer, id, userID string, lastSeenAt int64, salience float64) error {
	tag, err := q.Exec(ctx, `UPDATE memories SET last_seen_at = $1, salience = $2, updated_at = $3 WHERE id = $4 AND user_id = $5`,
		lastSeenAt, salience, nowMs(), id, userID)
	return pgAffectedOrNotFound(tag, err, "memory", id)
}

func pgUpdateFeedback(ctx context.Context, q pgExecer, id, userID string, feedback float64) error {
	tag, err := q.Exec(ctx, `UPDATE memories SET feedback_score = $1, updated_at = $2 WHERE id = $3 AND user_id = $4`,
		feedback, nowMs(), id, userID)
	return pgAffectedOrNotFound(tag, err, "memory", id)
}

func pgDeleteMemory(ctx context.Context, q pgExecer, id, userID string) error {
	tag, err := q.Exec(ctx, `DELETE FROM memories WHERE id = $1 AND user_id = $2`, id, userID)
	return pgAffectedOrNotFound(tag, err, "memory", id)
}

const pgMemorySelectCols = `SELECT id, user_id, segment, content, simhash, primary_sector, tags, meta, created_at, updated_at, last_seen_at, salience, decay_lambda, version, mean_dim, mean_vec, compressed_vec, feedback_score`

func pgGetMemory(ctx context.Context, q pgExecer, id, userID string) (*model.Memory, error) {
	row := q.QueryRow(ctx, pgMemorySelectCols+` FROM memories WHERE id = $1 AND user_id = $2`, id, userID)
	return pgScanMemory(row)
}

func pgGetMemoryBySimhash(ctx context.Context, q pgExecer, simhash, userID string) (*model.Memory, error) {
	row := q.QueryRow(ctx, pgMemorySelectCols+` FROM memories WHERE simhash = $1 AND user_id = $2 ORDER BY salience DESC LIMIT 1`, simhash, userID)
	m, err := pgScanMemory(row)
	if err != nil {
		return nil, nil
	}
	return m, nil
}

func pgScanMemory(row pgx.Row) (*model.Memory, error) {
	var m model.Memory
	var tagsJSON, metaJSON []byte
	var meanVecBytes []byte
	var primarySector string
	if err := row.Scan(&m.ID, &m.UserID, &m.Segment, &m.Content, &m.Simhash, &primarySector, &tagsJSON, &metaJSON,
		&m.CreatedAt, &m.UpdatedAt, &m.LastSeenAt, &m.Salience, &m.DecayLambda, &m.Version, &m.MeanDim,
		&meanVecBytes, &m.CompressedVec, &m.FeedbackScore); err != nil {
		return nil, err
	}
	m.PrimarySector = model.Sector(primarySector)
	_ = json.Unmarshal(tagsJSON, &m.Tags)
	_ = json.Unmarshal(metaJSON, &m.Meta)
	m.MeanVec = BytesToVector(meanVecBytes)
	return &m, nil
}

func pgListMemories(ctx context.Context, q pgExecer, opt ListOptions) ([]model.Memory, error) {
	query := pgMemorySelectCols + ` FROM memories WHERE 1=1`
	var args []any
	n := 1
	if opt.UserID != "" {
		query += fmt.Sprintf(` AND user_id = $%d`, n)
		args = append(args, opt.UserID)
		n++
	}
	if opt.Sector != "" {
		query += fmt.Sprintf(` AND primary_sector = $%d`, n)
		args = append(args, string(opt.Sector))
		n++
	}
	if opt.After != nil {
		query += fmt.Sprintf(` AND (created_at, id) < ($%d, $%d)`, n, n+1)
		args = append(args, opt.After.CreatedAt, opt.After.ID)
		n += 2
	}
	query += ` ORDER BY created_at DESC, id DESC`
	limit := opt.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, n)
	args = append(args, limit)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Memory
	for rows.Next() {
		m, err := pgScanMemory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func pgMemoriesExist(ctx context.Context, q pgExecer, ids []string) (map[string]bool, error) {
	out := make(map[string]bool, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	for _, id := range ids {
		out[id] = false
	}
	rows, err := q.Query(ctx, `SELECT id FROM memories WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = true
	}
	return out, rows.Err()
}

func pgInsertWaypoint(ctx context.Context, q pgExecer, w model.Waypoint) error {
	_, err := q.Exec(ctx, `
INSERT INTO waypoints (src_id, dst_id, user_id, weight, created_at, updated_at) VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (src_id, dst_id, user_id) DO UPDATE SET weight = excluded.weight, updated_at = excluded.updated_at`,
		w.SrcID, w.DstID, w.UserID, dynamics.Clamp01(w.Weight), w.CreatedAt, w.UpdatedAt)
	if err != nil {
		return model.NewTransactionError("insert_waypoint", err.Error())
	}
	return nil
}

func pgUpdateWaypointWeight(ctx context.Context, q pgExecer, srcID, dstID, userID string, weight float64) error {
	tag, err := q.Exec(ctx, `UPDATE waypoints SET weight = $1, updated_at = $2 WHERE src_id = $3 AND dst_id = $4 AND user_id = $5`,
		dynamics.Clamp01(weight), nowMs(), srcID, dstID, userID)
	return pgAffectedOrNotFound(tag, err, "waypoint", srcID+"->"+dstID)
}

func pgGetWaypointsBySrc(ctx context.Context, q pgExecer, srcID, userID string) ([]model.Waypoint, error) {
	rows, err := q.Query(ctx, `SELECT src_id, dst_id, user_id, weight, created_at, updated_at FROM waypoints WHERE src_id = $1 AND user_id = $2`, srcID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Waypoint
	for rows.Next() {
		var w model.Waypoint
		if err := rows.Scan(&w.SrcID, &w.DstID, &w.UserID, &w.Weight, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, err
		}
		w.Weight = dynamics.Clamp01(w.Weight)
		out = append(out, w)
	}
	return out, rows.Err()
}

func pgGetNeighbors(ctx context.Context, q pgExecer, srcID, userID string) ([]string, error) {
	ws, err := pgGetWaypointsBySrc(ctx, q, srcID, userID)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.DstID)
	}
	return out, nil
}

func pgDeleteWaypointsTouching(ctx context.Context, q pgExecer, id, userID string) error {
	_, err := q.Exec(ctx, `DELETE FROM waypoints WHERE (src_id = $1 OR dst_id = $1) AND user_id = $2`, id, userID)
	return err
}

func pgPruneWaypoints(ctx context.Context, q pgExecer, threshold float64) (int, error) {
	tag, err := q.Exec(ctx, `DELETE FROM waypoints WHERE weight < $1`, threshold)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func pgUpsertUserFirstTouch(ctx context.Context, q pgExecer, userID string, ts int64) error {
	_, err := q.Exec(ctx, `INSERT INTO users (user_id, summary, reflection_count, created_at, updated_at) VALUES ($1, '', 0, $2, $2)
ON CONFLICT (user_id) DO NOTHING`, userID, ts)
	return err
}

func pgGetUser(ctx context.Context, q pgExecer, userID string) (*model.User, error) {
	row := q.QueryRow(ctx, `SELECT user_id, summary, reflection_count, created_at, updated_at FROM users WHERE user_id = $1`, userID)
	var u model.User
	if err := row.Scan(&u.UserID, &u.Summary, &u.ReflectionCount, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, nil
	}
	return &u, nil
}

func pgInsertEmbedLog(ctx context.Context, q pgExecer, l model.EmbedLog) error {
	_, err := q.Exec(ctx, `INSERT INTO embed_logs (id, model, status, ts, err) VALUES ($1,$2,$3,$4,$5)`,
		l.ID, l.Model, string(l.Status), l.TS, l.Err)
	return err
}

func pgUpdateEmbedLogStatus(ctx context.Context, q pgExecer, id string, status model.EmbedLogStatus, errMsg string) error {
	_, err := q.Exec(ctx, `UPDATE embed_logs SET status = $1, err = $2, ts = $3 WHERE id = $4`, string(status), errMsg, nowMs(), id)
	return err
}

func pgRecordStat(ctx context.Context, q pgExecer, s model.Stats) error {
	_, err := q.Exec(ctx, `INSERT INTO stats (type, count, ts) VALUES ($1,$2,$3)`, s.Type, s.Count, s.TS)
	return err
}

func pgAffectedOrNotFound(tag pgconn.CommandTag, err error, kind, id string) error {
	if err != nil {
		return model.NewTransactionError("update_"+kind, err.Error())
	}
	if tag.RowsAffected() == 0 {
		return model.NewNotFoundError(kind, id)
	}
	return nil
}
