package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/openmemory/openmemory/internal/dynamics"
	"github.com/openmemory/openmemory/internal/model"
)

// sqlExecer is satisfied by both *sql.DB and *sql.Tx, letting the CRUD
// helpers below run unmodified whether or not a transaction is open.
type sqlExecer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLiteStore is the default Store backend: WAL journal, NORMAL
// synchronous, a short busy timeout, and a modest page cache, per the
// specification's db_path knob.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (and migrates) a SQLite-backed Store at path.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)&_pragma=cache_size(-8000)&_pragma=mmap_size(134217728)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1) // SQLite serializes writers; one connection avoids SQLITE_BUSY storms.
	if err := runSQLiteMigrations(ctx, db); err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

// DB exposes the underlying connection so adjacent subsystems sharing this
// schema (internal/temporal) can reuse it instead of opening a second
// connection to the same database file.
func (s *SQLiteStore) DB() *sql.DB { return s.db }

func (s *SQLiteStore) Begin(ctx context.Context) (Tx, error) {
	root, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, model.NewTransactionError("begin", err.Error())
	}
	return &sqliteTx{root: root, depth: 0}, nil
}

type sqliteTx struct {
	root  *sql.Tx
	depth int
}

func (t *sqliteTx) Begin(ctx context.Context) (Tx, error) {
	sp := fmt.Sprintf("sp_%d", t.depth+1)
	if _, err := t.root.ExecContext(ctx, "SAVEPOINT "+sp); err != nil {
		return nil, model.NewTransactionError("begin", err.Error())
	}
	return &sqliteTx{root: t.root, depth: t.depth + 1}, nil
}

func (t *sqliteTx) Commit(ctx context.Context) error {
	if t.depth == 0 {
		if err := t.root.Commit(); err != nil {
			return model.NewTransactionError("commit", err.Error())
		}
		return nil
	}
	sp := fmt.Sprintf("sp_%d", t.depth)
	if _, err := t.root.ExecContext(ctx, "RELEASE "+sp); err != nil {
		return model.NewTransactionError("commit", err.Error())
	}
	return nil
}

func (t *sqliteTx) Rollback(ctx context.Context) error {
	if t.depth == 0 {
		if err := t.root.Rollback(); err != nil {
			return model.NewTransactionError("rollback", err.Error())
		}
		return nil
	}
	sp := fmt.Sprintf("sp_%d", t.depth)
	if _, err := t.root.ExecContext(ctx, "ROLLBACK TO "+sp); err != nil {
		return model.NewTransactionError("rollback", err.Error())
	}
	if _, err := t.root.ExecContext(ctx, "RELEASE "+sp); err != nil {
		return model.NewTransactionError("rollback", err.Error())
	}
	return nil
}

// The remaining Store methods on *sqliteTx simply delegate to the shared,
// exec-agnostic implementations using t.root as the queryer.

func (t *sqliteTx) InsertMemory(ctx context.Context, m model.Memory) error { return sqliteInsertMemory(ctx, t.root, m) }
func (t *sqliteTx) UpdateMemoryFields(ctx context.Context, id, userID string, content *string, tags []string, meta map[string]any) error {
	return sqliteUpdateMemoryFields(ctx, t.root, id, userID, content, tags, meta)
}
func (t *sqliteTx) UpdateMeanVec(ctx context.Context, id, userID string, vec []float32, dim int) error {
	return sqliteUpdateMeanVec(ctx, t.root, id, userID, vec, dim)
}
func (t *sqliteTx) UpdateLastSeenAndSalience(ctx context.Context, id, userID string, lastSeenAt int64, salience float64) error {
	return sqliteUpdateLastSeenAndSalience(ctx, t.root, id, userID, lastSeenAt, salience)
}
func (t *sqliteTx) UpdateFeedback(ctx context.Context, id, userID string, feedback float64) error {
	return sqliteUpdateFeedback(ctx, t.root, id, userID, feedback)
}
func (t *sqliteTx) DeleteMemory(ctx context.Context, id, userID string) error {
	return sqliteDeleteMemory(ctx, t.root, id, userID)
}
func (t *sqliteTx) GetMemory(ctx context.Context, id, userID string) (*model.Memory, error) {
	return sqliteGetMemory(ctx, t.root, id, userID)
}
func (t *sqliteTx) GetMemoryBySimhash(ctx context.Context, simhash, userID string) (*model.Memory, error) {
	return sqliteGetMemoryBySimhash(ctx, t.root, simhash, userID)
}
func (t *sqliteTx) ListMemories(ctx context.Context, opt ListOptions) ([]model.Memory, error) {
	return sqliteListMemories(ctx, t.root, opt)
}
func (t *sqliteTx) InsertWaypoint(ctx context.Context, w model.Waypoint) error {
	return sqliteInsertWaypoint(ctx, t.root, w)
}
func (t *sqliteTx) UpdateWaypointWeight(ctx context.Context, srcID, dstID, userID string, weight float64) error {
	return sqliteUpdateWaypointWeight(ctx, t.root, srcID, dstID, userID, weight)
}
func (t *sqliteTx) GetWaypointsBySrc(ctx context.Context, srcID, userID string) ([]model.Waypoint, error) {
	return sqliteGetWaypointsBySrc(ctx, t.root, srcID, userID)
}
func (t *sqliteTx) GetNeighbors(ctx context.Context, srcID, userID string) ([]string, error) {
	return sqliteGetNeighbors(ctx, t.root, srcID, userID)
}
func (t *sqliteTx) DeleteWaypointsTouching(ctx context.Context, id, userID string) error {
	return sqliteDeleteWaypointsTouching(ctx, t.root, id, userID)
}
func (t *sqliteTx) PruneWaypoints(ctx context.Context, threshold float64) (int, error) {
	return sqlitePruneWaypoints(ctx, t.root, threshold)
}
func (t *sqliteTx) UpsertUserFirstTouch(ctx context.Context, userID string, ts int64) error {
	return sqliteUpsertUserFirstTouch(ctx, t.root, userID, ts)
}
func (t *sqliteTx) GetUser(ctx context.Context, userID string) (*model.User, error) {
	return sqliteGetUser(ctx, t.root, userID)
}
func (t *sqliteTx) InsertEmbedLog(ctx context.Context, log model.EmbedLog) error {
	return sqliteInsertEmbedLog(ctx, t.root, log)
}
func (t *sqliteTx) UpdateEmbedLogStatus(ctx context.Context, id string, status model.EmbedLogStatus, errMsg string) error {
	return sqliteUpdateEmbedLogStatus(ctx, t.root, id, status, errMsg)
}
func (t *sqliteTx) RecordStat(ctx context.Context, s model.Stats) error {
	return sqliteRecordStat(ctx, t.root, s)
}
func (t *sqliteTx) ListMemoriesPage(ctx context.Context, after *Cursor, limit int) ([]model.Memory, error) {
	return sqliteListMemoriesPage(ctx, t.root, after, limit)
}
func (t *sqliteTx) MemoriesExist(ctx context.Context, ids []string) (map[string]bool, error) {
	return sqliteMemoriesExist(ctx, t.root, ids)
}
func (t *sqliteTx) Close() error { return nil }

// SQLiteStore's own Store methods delegate the same way, using s.db.

func (s *SQLiteStore) InsertMemory(ctx context.Context, m model.Memory) error { return sqliteInsertMemory(ctx, s.db, m) }
func (s *SQLiteStore) UpdateMemoryFields(ctx context.Context, id, userID string, content *string, tags []string, meta map[string]any) error {
	return sqliteUpdateMemoryFields(ctx, s.db, id, userID, content, tags, meta)
}
func (s *SQLiteStore) UpdateMeanVec(ctx context.Context, id, userID string, vec []float32, dim int) error {
	return sqliteUpdateMeanVec(ctx, s.db, id, userID, vec, dim)
}
func (s *SQLiteStore) UpdateLastSeenAndSalience(ctx context.Context, id, userID string, lastSeenAt int64, salience float64) error {
	return sqliteUpdateLastSeenAndSalience(ctx, s.db, id, userID, lastSeenAt, salience)
}
func (s *SQLiteStore) UpdateFeedback(ctx context.Context, id, userID string, feedback float64) error {
	return sqliteUpdateFeedback(ctx, s.db, id, userID, feedback)
}
func (s *SQLiteStore) DeleteMemory(ctx context.Context, id, userID string) error {
	return sqliteDeleteMemory(ctx, s.db, id, userID)
}
func (s *SQLiteStore) GetMemory(ctx context.Context, id, userID string) (*model.Memory, error) {
	return sqliteGetMemory(ctx, s.db, id, userID)
}
func (s *SQLiteStore) GetMemoryBySimhash(ctx context.Context, simhash, userID string) (*model.Memory, error) {
	return sqliteGetMemoryBySimhash(ctx, s.db, simhash, userID)
}
func (s *SQLiteStore) ListMemories(ctx context.Context, opt ListOptions) ([]model.Memory, error) {
	return sqliteListMemories(ctx, s.db, opt)
}
func (s *SQLiteStore) InsertWaypoint(ctx context.Context, w model.Waypoint) error {
	return sqliteInsertWaypoint(ctx, s.db, w)
}
func (s *SQLiteStore) UpdateWaypointWeight(ctx context.Context, srcID, dstID, userID string, weight float64) error {
	return sqliteUpdateWaypointWeight(ctx, s.db, srcID, dstID, userID, weight)
}
func (s *SQLiteStore) GetWaypointsBySrc(ctx context.Context, srcID, userID string) ([]model.Waypoint, error) {
	return sqliteGetWaypointsBySrc(ctx, s.db, srcID, userID)
}
func (s *SQLiteStore) GetNeighbors(ctx context.Context, srcID, userID string) ([]string, error) {
	return sqliteGetNeighbors(ctx, s.db, srcID, userID)
}
func (s *SQLiteStore) DeleteWaypointsTouching(ctx context.Context, id, userID string) error {
	return sqliteDeleteWaypointsTouching(ctx, s.db, id, userID)
}
func (s *SQLiteStore) PruneWaypoints(ctx context.Context, threshold float64) (int, error) {
	return sqlitePruneWaypoints(ctx, s.db, threshold)
}
func (s *SQLiteStore) UpsertUserFirstTouch(ctx context.Context, userID string, ts int64) error {
	return sqliteUpsertUserFirstTouch(ctx, s.db, userID, ts)
}
func (s *SQLiteStore) GetUser(ctx context.Context, userID string) (*model.User, error) {
	return sqliteGetUser(ctx, s.db, userID)
}
func (s *SQLiteStore) InsertEmbedLog(ctx context.Context, log model.EmbedLog) error {
	return sqliteInsertEmbedLog(ctx, s.db, log)
}
func (s *SQLiteStore) UpdateEmbedLogStatus(ctx context.Context, id string, status model.EmbedLogStatus, errMsg string) error {
	return sqliteUpdateEmbedLogStatus(ctx, s.db, id, status, errMsg)
}
func (s *SQLiteStore) RecordStat(ctx context.Context, st model.Stats) error {
	return sqliteRecordStat(ctx, s.db, st)
}
func (s *SQLiteStore) ListMemoriesPage(ctx context.Context, after *Cursor, limit int) ([]model.Memory, error) {
	return sqliteListMemoriesPage(ctx, s.db, after, limit)
}
func (s *SQLiteStore) MemoriesExist(ctx context.Context, ids []string) (map[string]bool, error) {
	return sqliteMemoriesExist(ctx, s.db, ids)
}

// --- shared, exec-agnostic CRUD implementations ---

func sqliteInsertMemory(ctx context.Context, q sqlExecer, m model.Memory) error {
	tagsJSON, _ := json.Marshal(m.Tags)
	metaJSON, _ := json.Marshal(m.Meta)
	_, err := q.ExecContext(ctx, `
INSERT INTO memories (id, user_id, segment, content, simhash, primary_sector, tags, meta, created_at, updated_at, last_seen_at, salience, decay_lambda, version, mean_dim, mean_vec, compressed_vec, feedback_score)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
ON CONFLICT(id) DO UPDATE SET
	content=excluded.content, tags=excluded.tags, meta=excluded.meta, updated_at=excluded.updated_at,
	last_seen_at=excluded.last_seen_at, salience=excluded.salience, version=memories.version+1,
	mean_dim=excluded.mean_dim, mean_vec=excluded.mean_vec, compressed_vec=excluded.compressed_vec,
	feedback_score=excluded.feedback_score
WHERE memories.user_id = excluded.user_id`,
		m.ID, m.UserID, m.Segment, m.Content, m.Simhash, string(m.PrimarySector), string(tagsJSON), string(metaJSON),
		m.CreatedAt, m.UpdatedAt, m.LastSeenAt, m.Salience, m.DecayLambda, m.Version, m.MeanDim,
		VectorToBytes(m.MeanVec), m.CompressedVec, m.FeedbackScore)
	if err != nil {
		return model.NewTransactionError("insert_memory", err.Error())
	}
	return nil
}

func sqliteUpdateMemoryFields(ctx context.Context, q sqlExecer, id, userID string, content *string, tags []string, meta map[string]any) error {
	sets := []string{"updated_at = ?", "version = version + 1"}
	args := []any{nowMs()}
	if content != nil {
		sets = append(sets, "content = ?")
		args = append(args, *content)
	}
	if tags != nil {
		b, _ := json.Marshal(tags)
		sets = append(sets, "tags = ?")
		args = append(args, string(b))
	}
	if meta != nil {
		b, _ := json.Marshal(meta)
		sets = append(sets, "meta = ?")
		args = append(args, string(b))
	}
	args = append(args, id, userID)
	res, err := q.ExecContext(ctx, fmt.Sprintf("UPDATE memories SET %s WHERE id = ? AND user_id = ?", joinComma(sets)), args...)
	return affectedOrNotFound(res, err, "memory", id)
}

func sqliteUpdateMeanVec(ctx context.Context, q sqlExecer, id, userID string, vec []float32, dim int) error {
	res, err := q.ExecContext(ctx, `UPDATE memories SET mean_vec = ?, mean_dim = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		VectorToBytes(vec), dim, nowMs(), id, userID)
	return affectedOrNotFound(res, err, "memory", id)
}

func sqliteUpdateLastSeenAndSalience(ctx context.Context, q sqlExecer, id, userID string, lastSeenAt int64, salience float64) error {
	res, err := q.ExecContext(ctx, `UPDATE memories SET last_seen_at = ?, salience = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		lastSeenAt, salience, nowMs(), id, userID)
	return affectedOrNotFound(res, err, "memory", id)
}

func sqliteUpdateFeedback(ctx context.Context, q sqlExecer, id, userID string, feedback float64) error {
	res, err := q.ExecContext(ctx, `UPDATE memories SET feedback_score = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		feedback, nowMs(), id, userID)
	return affectedOrNotFound(res, err, "memory", id)
}

func sqliteDeleteMemory(ctx context.Context, q sqlExecer, id, userID string) error {
	res, err := q.ExecContext(ctx, `DELETE FROM memories WHERE id = ? AND user_id = ?`, id, userID)
	return affectedOrNotFound(res, err, "memory", id)
}

func sqliteGetMemory(ctx context.Context, q sqlExecer, id, userID string) (*model.Memory, error) {
	row := q.QueryRowContext(ctx, memorySelectCols+` FROM memories WHERE id = ? AND user_id = ?`, id, userID)
	return scanMemory(row)
}

func sqliteGetMemoryBySimhash(ctx context.Context, q sqlExecer, simhash, userID string) (*model.Memory, error) {
	row := q.QueryRowContext(ctx, memorySelectCols+` FROM memories WHERE simhash = ? AND user_id = ? ORDER BY salience DESC LIMIT 1`, simhash, userID)
	m, err := scanMemory(row)
	if err != nil {
		return nil, nil // spec: "get_memory_by_simhash → best candidate"; absence is not an error
	}
	return m, nil
}

func sqliteListMemories(ctx context.Context, q sqlExecer, opt ListOptions) ([]model.Memory, error) {
	query := memorySelectCols + ` FROM memories WHERE 1=1`
	var args []any
	if opt.UserID != "" {
		query += ` AND user_id = ?`
		args = append(args, opt.UserID)
	}
	if opt.Sector != "" {
		query += ` AND primary_sector = ?`
		args = append(args, string(opt.Sector))
	}
	if opt.After != nil {
		query += ` AND (created_at, id) < (?, ?)`
		args = append(args, opt.After.CreatedAt, opt.After.ID)
	}
	query += ` ORDER BY created_at DESC, id DESC`
	limit := opt.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMemories(rows)
}

func sqliteListMemoriesPage(ctx context.Context, q sqlExecer, after *Cursor, limit int) ([]model.Memory, error) {
	return sqliteListMemories(ctx, q, ListOptions{After: after, Limit: limit})
}

func sqliteMemoriesExist(ctx context.Context, q sqlExecer, ids []string) (map[string]bool, error) {
	out := make(map[string]bool, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
		out[id] = false
	}
	rows, err := q.QueryContext(ctx, fmt.Sprintf(`SELECT id FROM memories WHERE id IN (%s)`, joinComma(placeholders)), args...)
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

const memorySelectCols = `SELECT id, user_id, segment, content, simhash, primary_sector, tags, meta, created_at, updated_at, last_seen_at, salience, decay_lambda, version, mean_dim, mean_vec, compressed_vec, feedback_score`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMemory(row rowScanner) (*model.Memory, error) {
	var m model.Memory
	var tagsJSON, metaJSON string
	var meanVecBytes []byte
	var primarySector string
	if err := row.Scan(&m.ID, &m.UserID, &m.Segment, &m.Content, &m.Simhash, &primarySector, &tagsJSON, &metaJSON,
		&m.CreatedAt, &m.UpdatedAt, &m.LastSeenAt, &m.Salience, &m.DecayLambda, &m.Version, &m.MeanDim,
		&meanVecBytes, &m.CompressedVec, &m.FeedbackScore); err != nil {
		return nil, err
	}
	m.PrimarySector = model.Sector(primarySector)
	_ = json.Unmarshal([]byte(tagsJSON), &m.Tags)
	_ = json.Unmarshal([]byte(metaJSON), &m.Meta)
	m.MeanVec = BytesToVector(meanVecBytes)
	return &m, nil
}

func scanMemories(rows *sql.Rows) ([]model.Memory, error) {
	var out []model.Memory
	for rows.Next() {
		m, err := scanMemory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func sqliteInsertWaypoint(ctx context.Context, q sqlExecer, w model.Waypoint) error {
	_, err := q.ExecContext(ctx, `
INSERT INTO waypoints (src_id, dst_id, user_id, weight, created_at, updated_at) VALUES (?,?,?,?,?,?)
ON CONFLICT(src_id, dst_id, user_id) DO UPDATE SET weight = excluded.weight, updated_at = excluded.updated_at`,
		w.SrcID, w.DstID, w.UserID, dynamics.Clamp01(w.Weight), w.CreatedAt, w.UpdatedAt)
	if err != nil {
		return model.NewTransactionError("insert_waypoint", err.Error())
	}
	return nil
}

func sqliteUpdateWaypointWeight(ctx context.Context, q sqlExecer, srcID, dstID, userID string, weight float64) error {
	res, err := q.ExecContext(ctx, `UPDATE waypoints SET weight = ?, updated_at = ? WHERE src_id = ? AND dst_id = ? AND user_id = ?`,
		dynamics.Clamp01(weight), nowMs(), srcID, dstID, userID)
	return affectedOrNotFound(res, err, "waypoint", srcID+"->"+dstID)
}

func sqliteGetWaypointsBySrc(ctx context.Context, q sqlExecer, srcID, userID string) ([]model.Waypoint, error) {
	rows, err := q.QueryContext(ctx, `SELECT src_id, dst_id, user_id, weight, created_at, updated_at FROM waypoints WHERE src_id = ? AND user_id = ?`, srcID, userID)
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

func sqliteGetNeighbors(ctx context.Context, q sqlExecer, srcID, userID string) ([]string, error) {
	ws, err := sqliteGetWaypointsBySrc(ctx, q, srcID, userID)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.DstID)
	}
	return out, nil
}

func sqliteDeleteWaypointsTouching(ctx context.Context, q sqlExecer, id, userID string) error {
	_, err := q.ExecContext(ctx, `DELETE FROM waypoints WHERE (src_id = ? OR dst_id = ?) AND user_id = ?`, id, id, userID)
	return err
}

func sqlitePruneWaypoints(ctx context.Context, q sqlExecer, threshold float64) (int, error) {
	res, err := q.ExecContext(ctx, `DELETE FROM waypoints WHERE weight < ?`, threshold)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func sqliteUpsertUserFirstTouch(ctx context.Context, q sqlExecer, userID string, ts int64) error {
	_, err := q.ExecContext(ctx, `INSERT INTO users (user_id, summary, reflection_count, created_at, updated_at) VALUES (?, '', 0, ?, ?)
ON CONFLICT(user_id) DO NOTHING`, userID, ts, ts)
	return err
}

func sqliteGetUser(ctx context.Context, q sqlExecer, userID string) (*model.User, error) {
	row := q.QueryRowContext(ctx, `SELECT user_id, summary, reflection_count, created_at, updated_at FROM users WHERE user_id = ?`, userID)
	var u model.User
	if err := row.Scan(&u.UserID, &u.Summary, &u.ReflectionCount, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, nil
	}
	return &u, nil
}

func sqliteInsertEmbedLog(ctx context.Context, q sqlExecer, l model.EmbedLog) error {
	_, err := q.ExecContext(ctx, `INSERT INTO embed_logs (id, model, status, ts, err) VALUES (?,?,?,?,?)`,
		l.ID, l.Model, string(l.Status), l.TS, l.Err)
	return err
}

func sqliteUpdateEmbedLogStatus(ctx context.Context, q sqlExecer, id string, status model.EmbedLogStatus, errMsg string) error {
	_, err := q.ExecContext(ctx, `UPDATE embed_logs SET status = ?, err = ?, ts = ? WHERE id = ?`, string(status), errMsg, nowMs(), id)
	return err
}

func sqliteRecordStat(ctx context.Context, q sqlExecer, s model.Stats) error {
	_, err := q.ExecContext(ctx, `INSERT INTO stats (type, count, ts) VALUES (?,?,?)`, s.Type, s.Count, s.TS)
	return err
}

func affectedOrNotFound(res sql.Result, err error, kind, id string) error {
	if err != nil {
		return model.NewTransactionError("update_"+kind, err.Error())
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return model.NewNotFoundError(kind, id)
	}
	return nil
}

func joinComma(items []string) string {
	out := ""
	for i, s := range items {
		if i > 0 {
			out += ", "
		}
		out += s
	}
	return out
}

