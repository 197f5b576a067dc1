package badger

import (
	"context"

	"github.com/calyptra/vecstage/core"
	"github.com/calyptra/vecstage/storage"
	"github.com/dgraph-io/badger/v4"
)

// EvaluationRepository implements storage.EvaluationRepository for BadgerDB.
type EvaluationRepository struct {
	backend *Backend
}

var _ storage.EvaluationRepository = (*EvaluationRepository)(nil)

// NewEvaluationRepository creates a new EvaluationRepository.
func NewEvaluationRepository(backend *Backend) *EvaluationRepository {
	return &EvaluationRepository{
		backend: backend,
	}
}

// Close releases resources. EvaluationRepository has no resources to release.
func (r *EvaluationRepository) Close() error {
	return nil
}

// SaveEvaluation stores a result as the latest attempt for its dataset.
// The previous attempt is superseded, never mutated in place.
func (r *EvaluationRepository) SaveEvaluation(ctx context.Context, result *core.EvaluationResult) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeEvaluationKey(result.Dataset)
		if err := tx.Set(key, storage.MarshalEvaluationResult(result)); err != nil {
			return err
		}
		return commit(tx)
	}, true)
}

// LatestEvaluation retrieves the most recent result for a dataset.
func (r *EvaluationRepository) LatestEvaluation(ctx context.Context, dataset string) (*core.EvaluationResult, error) {
	var result *core.EvaluationResult
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeEvaluationKey(dataset))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var unmarshalErr error
			result, unmarshalErr = storage.UnmarshalEvaluationResult(val)
			return unmarshalErr
		})
	}, false)
	return result, err
}
