package badger

import (
	"context"

	"github.com/calyptra/vecstage/core"
	"github.com/calyptra/vecstage/storage"
	"github.com/dgraph-io/badger/v4"
)

// HashRepository implements storage.HashRepository for BadgerDB.
type HashRepository struct {
	backend *Backend
}

var _ storage.HashRepository = (*HashRepository)(nil)

// NewHashRepository creates a new HashRepository.
func NewHashRepository(backend *Backend) *HashRepository {
	return &HashRepository{
		backend: backend,
	}
}

// Close releases resources. HashRepository has no resources to release.
func (r *HashRepository) Close() error {
	return nil
}

// GetHash retrieves the stored content hash for a vector ID.
func (r *HashRepository) GetHash(ctx context.Context, vectorID core.ID) (string, error) {
	var hash string
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeVectorHashKey(vectorID))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			hash = string(val)
			return nil
		})
	}, false)
	return hash, err
}

// PutHash records the content hash for a vector ID.
func (r *HashRepository) PutHash(ctx context.Context, vectorID core.ID, contentHash string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeVectorHashKey(vectorID), []byte(contentHash)); err != nil {
			return err
		}
		return commit(tx)
	}, true)
}

// DeleteHashes removes recorded hashes. Missing IDs are ignored.
func (r *HashRepository) DeleteHashes(ctx context.Context, ids ...core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			if err := tx.Delete(makeVectorHashKey(id)); err != nil {
				return err
			}
		}
		return commit(tx)
	}, true)
}
