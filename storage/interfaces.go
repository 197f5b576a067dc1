package storage

import (
	"context"
	"time"

	"github.com/calyptra/vecstage/core"
)

// HashRepository is the key-value collaborator used by the change-aware
// embedding gate. It maps vector IDs to the content hash last embedded and
// upserted for that ID.
// Implementations must be thread-safe and support concurrent access.
type HashRepository interface {
	// GetHash retrieves the stored content hash for a vector ID.
	// Returns ErrNotFound if no hash has been recorded.
	GetHash(ctx context.Context, vectorID core.ID) (string, error)

	// PutHash records the content hash for a vector ID, overwriting any
	// previous value.
	PutHash(ctx context.Context, vectorID core.ID, contentHash string) error

	// DeleteHashes removes recorded hashes. Missing IDs are not an error.
	DeleteHashes(ctx context.Context, ids ...core.ID) error

	// Close closes the repository and releases resources.
	Close() error
}

// LockRepository provides the per-dataset promotion lock. The lock is a
// conditional write with a TTL so that a crashed promoter cannot wedge a
// dataset forever.
type LockRepository interface {
	// TryAcquireLock attempts to establish the promotion-in-progress marker
	// for a dataset. Returns false if another promotion holds the lock.
	TryAcquireLock(ctx context.Context, dataset string, ttl time.Duration) (bool, error)

	// ReleaseLock removes the marker. Releasing an expired or absent lock
	// is not an error.
	ReleaseLock(ctx context.Context, dataset string) error
}

// DocumentRepository tracks per-URL document state: the content hash of the
// cleaned text and how far the document has moved through the pipeline.
type DocumentRepository interface {
	// PutDocument inserts or updates a document's state.
	// Derives the document ID from (dataset, URL) if unset, and sets
	// UpdatedAt.
	PutDocument(ctx context.Context, document *core.Document) (*core.Document, error)

	// GetDocument retrieves a document by its dataset and canonical URL.
	// Returns ErrNotFound if the document has never been recorded.
	GetDocument(ctx context.Context, dataset, url string) (*core.Document, error)

	// GetDocumentsByDataset retrieves all recorded documents for a dataset,
	// ordered by ID.
	GetDocumentsByDataset(ctx context.Context, dataset string) ([]*core.Document, error)

	// Close closes the repository and releases resources.
	Close() error
}

// EvaluationRepository persists promotion-gate evaluation results.
// A result is never mutated after creation, only superseded by the next
// attempt.
type EvaluationRepository interface {
	// SaveEvaluation stores a result as the latest attempt for its dataset.
	SaveEvaluation(ctx context.Context, result *core.EvaluationResult) error

	// LatestEvaluation retrieves the most recent result for a dataset.
	// Returns ErrNotFound if the dataset has never been evaluated.
	LatestEvaluation(ctx context.Context, dataset string) (*core.EvaluationResult, error)

	// Close closes the repository and releases resources.
	Close() error
}
