// Package temporal implements OpenMemory's optional bitemporal subsystem:
// TemporalFact and TemporalEdge, adjacent entities carrying
// subject-predicate-object validity intervals alongside the core memory
// graph. Within a (subject, predicate) timeline, validity intervals must
// not overlap; this is enforced by closing any open interval at insert
// time rather than by a database constraint, since both backends need the
// same close-on-insert semantics.
package temporal

import "context"

// Fact is a subject-predicate-object assertion valid over [ValidFrom, ValidTo).
// ValidTo of zero means "still open".
type Fact struct {
	ID        string
	Subject   string
	Predicate string
	Object    string
	UserID    string
	ValidFrom int64
	ValidTo   int64
}

// Edge is a typed, time-scoped relation between two memory ids.
type Edge struct {
	ID        string
	SrcID     string
	DstID     string
	Relation  string
	UserID    string
	ValidFrom int64
	ValidTo   int64
}

// Store is the bitemporal persistence contract. InsertFact and InsertEdge
// enforce close-on-insert: any existing open-ended record sharing the same
// timeline key is closed at the new record's ValidFrom before the new
// record is written.
type Store interface {
	InsertFact(ctx context.Context, f Fact) error
	ListFacts(ctx context.Context, subject, predicate, userID string) ([]Fact, error)

	InsertEdge(ctx context.Context, e Edge) error
	ListEdges(ctx context.Context, srcID, userID string) ([]Edge, error)

	Close() error
}
