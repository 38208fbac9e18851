package vectorstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres is a pgvector-backed VectorStore, for deployments that already
// run Postgres for the metadata store and want vector search colocated
// rather than adding a dedicated service.
type Postgres struct {
	pool      *pgxpool.Pool
	dimension int
	metric    string // cosine|l2|ip
}

func NewPostgres(ctx context.Context, pool *pgxpool.Pool, dimension int, metric string) (*Postgres, error) {
	if _, err := pool.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		return nil, fmt.Errorf("enable pgvector extension: %w", err)
	}
	vecType := "vector"
	if dimension > 0 {
		vecType = fmt.Sprintf("vector(%d)", dimension)
	}
	if _, err := pool.Exec(ctx, fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS memory_vectors (
	id TEXT PRIMARY KEY,
	vec %s,
	metadata JSONB NOT NULL DEFAULT '{}'::jsonb
)`, vecType)); err != nil {
		return nil, fmt.Errorf("create memory_vectors table: %w", err)
	}
	return &Postgres{pool: pool, dimension: dimension, metric: strings.ToLower(strings.TrimSpace(metric))}, nil
}

func (p *Postgres) Upsert(ctx context.Context, id string, vector []float32, metadata map[string]string) error {
	_, err := p.pool.Exec(ctx, `
INSERT INTO memory_vectors(id, vec, metadata) VALUES ($1, $2::vector, $3)
ON CONFLICT (id) DO UPDATE SET vec = excluded.vec, metadata = excluded.metadata`,
		id, toVectorLiteral(vector), metadataToJSON(metadata))
	return err
}

func (p *Postgres) Delete(ctx context.Context, id string) error {
	_, err := p.pool.Exec(ctx, `DELETE FROM memory_vectors WHERE id = $1`, id)
	return err
}

func (p *Postgres) GetVector(ctx context.Context, id string) ([]float32, bool, error) {
	row := p.pool.QueryRow(ctx, `SELECT vec::text FROM memory_vectors WHERE id = $1`, id)
	var lit string
	if err := row.Scan(&lit); err != nil {
		return nil, false, nil
	}
	return parseVectorLiteral(lit), true, nil
}

func (p *Postgres) SimilaritySearch(ctx context.Context, vector []float32, k int, filter map[string]string) ([]Result, error) {
	if k <= 0 {
		k = 10
	}
	vecLit := toVectorLiteral(vector)
	op := "<=>"
	scoreExpr := "1 - (vec <=> $1::vector)"
	switch p.metric {
	case "l2", "euclidean":
		op = "<->"
		scoreExpr = "-(vec <-> $1::vector)"
	case "ip", "dot":
		op = "<#>"
		scoreExpr = "-(vec <#> $1::vector)"
	}
	args := []any{vecLit, k}
	where := ""
	if len(filter) > 0 {
		where = "WHERE metadata @> $3"
		args = append(args, metadataToJSON(filter))
	}
	query := fmt.Sprintf(`SELECT id, %s AS score, metadata FROM memory_vectors %s ORDER BY vec %s $1::vector LIMIT $2`, scoreExpr, where, op)
	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Result, 0, k)
	for rows.Next() {
		var r Result
		var md map[string]string
		if err := rows.Scan(&r.ID, &r.Score, &md); err != nil {
			return nil, err
		}
		r.Metadata = md
		out = append(out, r)
	}
	return out, rows.Err()
}

func (p *Postgres) IterateAllIDs(ctx context.Context, batchSize int, fn func(ids []string) (bool, error)) error {
	if batchSize <= 0 {
		batchSize = 1000
	}
	var after string
	for {
		rows, err := p.pool.Query(ctx, `SELECT id FROM memory_vectors WHERE id > $1 ORDER BY id LIMIT $2`, after, batchSize)
		if err != nil {
			return err
		}
		var ids []string
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return err
			}
			ids = append(ids, id)
		}
		rows.Close()
		if len(ids) == 0 {
			return nil
		}
		more, err := fn(ids)
		if err != nil || !more {
			return err
		}
		after = ids[len(ids)-1]
	}
}

func (p *Postgres) Close() error { return nil }

func toVectorLiteral(v []float32) string {
	if len(v) == 0 {
		return "[]"
	}
	var b strings.Builder
	b.WriteByte('[')
	for i, x := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%g", x)
	}
	b.WriteByte(']')
	return b.String()
}

func parseVectorLiteral(lit string) []float32 {
	lit = strings.Trim(lit, "[]")
	if lit == "" {
		return nil
	}
	parts := strings.Split(lit, ",")
	out := make([]float32, 0, len(parts))
	for _, p := range parts {
		var f float32
		fmt.Sscanf(strings.TrimSpace(p), "%g", &f)
		out = append(out, f)
	}
	return out
}

func metadataToJSON(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
