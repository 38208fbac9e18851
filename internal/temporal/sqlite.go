package temporal

import (
	"context"
	"database/sql"
)

// SQLiteStore implements Store against the temporal_facts/temporal_edges
// tables created by internal/store's migrations.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore wraps an already-migrated *sql.DB; internal/store owns
// schema creation so both subsystems share one connection and one
// migration history.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Close() error { return nil }

func (s *SQLiteStore) InsertFact(ctx context.Context, f Fact) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
UPDATE temporal_facts SET valid_to = ?
WHERE subject = ? AND predicate = ? AND user_id = ? AND valid_to IS NULL AND valid_from < ?`,
		f.ValidFrom, f.Subject, f.Predicate, f.UserID, f.ValidFrom); err != nil {
		return err
	}

	var validTo any
	if f.ValidTo > 0 {
		validTo = f.ValidTo
	}
	if _, err := tx.ExecContext(ctx, `
INSERT INTO temporal_facts (id, subject, predicate, object, user_id, valid_from, valid_to) VALUES (?,?,?,?,?,?,?)`,
		f.ID, f.Subject, f.Predicate, f.Object, f.UserID, f.ValidFrom, validTo); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) ListFacts(ctx context.Context, subject, predicate, userID string) ([]Fact, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, subject, predicate, object, user_id, valid_from, COALESCE(valid_to, 0)
FROM temporal_facts WHERE subject = ? AND predicate = ? AND user_id = ? ORDER BY valid_from`,
		subject, predicate, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Fact
	for rows.Next() {
		var f Fact
		if err := rows.Scan(&f.ID, &f.Subject, &f.Predicate, &f.Object, &f.UserID, &f.ValidFrom, &f.ValidTo); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) InsertEdge(ctx context.Context, e Edge) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
UPDATE temporal_edges SET valid_to = ?
WHERE src_id = ? AND dst_id = ? AND relation = ? AND user_id = ? AND valid_to IS NULL AND valid_from < ?`,
		e.ValidFrom, e.SrcID, e.DstID, e.Relation, e.UserID, e.ValidFrom); err != nil {
		return err
	}

	var validTo any
	if e.ValidTo > 0 {
		validTo = e.ValidTo
	}
	if _, err := tx.ExecContext(ctx, `
INSERT INTO temporal_edges (id, src_id, dst_id, relation, user_id, valid_from, valid_to) VALUES (?,?,?,?,?,?,?)`,
		e.ID, e.SrcID, e.DstID, e.Relation, e.UserID, e.ValidFrom, validTo); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) ListEdges(ctx context.Context, srcID, userID string) ([]Edge, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, src_id, dst_id, relation, user_id, valid_from, COALESCE(valid_to, 0)
FROM temporal_edges WHERE src_id = ? AND user_id = ? ORDER BY valid_from`, srcID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Edge
	for rows.Next() {
		var e Edge
		if err := rows.Scan(&e.ID, &e.SrcID, &e.DstID, &e.Relation, &e.UserID, &e.ValidFrom, &e.ValidTo); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
