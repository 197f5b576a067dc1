package vector

import (
	"context"

	"github.com/calyptra/vecstage/core"
)

// Metadata is the citation payload carried alongside every vector.
type Metadata struct {
	Dataset     string
	URL         string
	Title       string
	Text        string
	DocumentId  core.ID
	Ordinal     int
	ContentHash string
}

// Record is one vector plus its metadata, keyed by a deterministic ID so
// that re-ingestion overwrites rather than duplicates.
type Record struct {
	Id       core.ID
	Values   []float32
	Metadata Metadata
}

// Match is one retrieval result.
type Match struct {
	Id       core.ID
	Score    float32
	Metadata Metadata
}

// Store is the vector store collaborator. The backing service offers no
// transactional or namespace-copy primitive; promotion is built from the
// idempotent operations below.
//
// Implementations must be thread-safe.
type Store interface {
	// Upsert inserts or overwrites records in a namespace.
	Upsert(ctx context.Context, namespace string, records []Record) error

	// Query returns the topK nearest records in a namespace.
	Query(ctx context.Context, namespace string, vector []float32, topK int) ([]Match, error)

	// Delete removes records by ID. Missing IDs are not an error.
	Delete(ctx context.Context, namespace string, ids []core.ID) error

	// ListAll pages through every record in a namespace, calling fn for each
	// batch. Iteration stops on the first error from fn.
	ListAll(ctx context.Context, namespace string, fn func(batch []Record) error) error
}
