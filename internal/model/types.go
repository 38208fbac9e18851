// Package model defines OpenMemory's shared entities.
package model

// Sector is a cognitive aspect used to route embeddings, classification, and
// scoring.
type Sector string

const (
	SectorEpisodic   Sector = "episodic"
	SectorSemantic   Sector = "semantic"
	SectorProcedural Sector = "procedural"
	SectorEmotional  Sector = "emotional"
	SectorReflective Sector = "reflective"
)

// Sectors lists every sector in the fixed declaration order used for tie
// breaking in the classifier and for resonance-matrix indexing.
var Sectors = []Sector{SectorEpisodic, SectorSemantic, SectorProcedural, SectorEmotional, SectorReflective}

// Memory is a single stored recollection.
type Memory struct {
	ID            string
	UserID        string
	Segment       int
	Content       string
	Simhash       string
	PrimarySector Sector
	Tags          []string
	Meta          map[string]any
	CreatedAt     int64
	UpdatedAt     int64
	LastSeenAt    int64
	Salience      float64
	DecayLambda   float64
	Version       int
	MeanDim       int
	MeanVec       []float32
	CompressedVec []byte
	FeedbackScore float64
}

// Vector is a per-(memory, sector) embedding.
type Vector struct {
	ID     string
	Sector Sector
	UserID string
	V      []float32
	Dim    int
}

// Waypoint is a directed, weighted edge between two memories within a
// tenant.
type Waypoint struct {
	SrcID     string
	DstID     string
	UserID    string
	Weight    float64
	CreatedAt int64
	UpdatedAt int64
}

// User tracks per-tenant reflection bookkeeping.
type User struct {
	UserID          string
	Summary         string
	ReflectionCount int
	CreatedAt       int64
	UpdatedAt       int64
}

// EmbedLogStatus is the lifecycle state of an embedding job.
type EmbedLogStatus string

const (
	EmbedLogStatusPending            EmbedLogStatus = "pending"
	EmbedLogStatusCompleted          EmbedLogStatus = "completed"
	EmbedLogStatusFailed             EmbedLogStatus = "failed"
	EmbedLogStatusCompletedSynthetic EmbedLogStatus = "completed-synthetic"
)

// EmbedLog records a single embedding job's progress, for retry visibility.
type EmbedLog struct {
	ID     string
	Model  string
	Status EmbedLogStatus
	TS     int64
	Err    string
}

// Stats is an append-only maintenance accounting event.
type Stats struct {
	Type  string
	Count int
	TS    int64
}

// QueryFilters narrows a query's candidate set.
type QueryFilters struct {
	Sectors     []Sector
	MinSalience *float64
	UserID      string
	StartTime   *int64
	EndTime     *int64
	Metadata    map[string]any
}

// RankedMemory is one scored result of a query.
type RankedMemory struct {
	Memory     Memory
	Score      float64
	Sector     Sector
	Activation float64
}

// AddResult is returned by HSG.Add.
type AddResult struct {
	ID            string
	PrimarySector Sector
	Sectors       []Sector
	Chunks        int
	Content       string
	CreatedAt     int64
	UserID        string
}
