package temporal

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store against the temporal_facts/temporal_edges
// tables created by internal/store's migrations.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Close() error { return nil }

func (s *PostgresStore) InsertFact(ctx context.Context, f Fact) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
UPDATE temporal_facts SET valid_to = $1
WHERE subject = $2 AND predicate = $3 AND user_id = $4 AND valid_to IS NULL AND valid_from < $1`,
		f.ValidFrom, f.Subject, f.Predicate, f.UserID); err != nil {
		return err
	}

	var validTo any
	if f.ValidTo > 0 {
		validTo = f.ValidTo
	}
	if _, err := tx.Exec(ctx, `
INSERT INTO temporal_facts (id, subject, predicate, object, user_id, valid_from, valid_to) VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		f.ID, f.Subject, f.Predicate, f.Object, f.UserID, f.ValidFrom, validTo); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) ListFacts(ctx context.Context, subject, predicate, userID string) ([]Fact, error) {
	rows, err := s.pool.Query(ctx, `
SELECT id, subject, predicate, object, user_id, valid_from, COALESCE(valid_to, 0)
FROM temporal_facts WHERE subject = $1 AND predicate = $2 AND user_id = $3 ORDER BY valid_from`,
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

func (s *PostgresStore) InsertEdge(ctx context.Context, e Edge) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
UPDATE temporal_edges SET valid_to = $1
WHERE src_id = $2 AND dst_id = $3 AND relation = $4 AND user_id = $5 AND valid_to IS NULL AND valid_from < $1`,
		e.ValidFrom, e.SrcID, e.DstID, e.Relation, e.UserID); err != nil {
		return err
	}

	var validTo any
	if e.ValidTo > 0 {
		validTo = e.ValidTo
	}
	if _, err := tx.Exec(ctx, `
INSERT INTO temporal_edges (id, src_id, dst_id, relation, user_id, valid_from, valid_to) VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		e.ID, e.SrcID, e.DstID, e.Relation, e.UserID, e.ValidFrom, validTo); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) ListEdges(ctx context.Context, srcID, userID string) ([]Edge, error) {
	rows, err := s.pool.Query(ctx, `
SELECT id, src_id, dst_id, relation, user_id, valid_from, COALESCE(valid_to, 0)
FROM temporal_edges WHERE src_id = $1 AND user_id = $2 ORDER BY valid_from`, srcID, userID)
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
