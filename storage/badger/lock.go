package badger

import (
	"context"
	"time"

	"github.com/calyptra/vecstage/storage"
	"github.com/dgraph-io/badger/v4"
)

// LockRepository implements storage.LockRepository for BadgerDB.
//
// The promotion lock is a conditional write: inside a single read-write
// transaction we check for the marker and set it only when absent. The
// marker carries a BadgerDB entry TTL so that a promoter that crashes
// without releasing cannot block the dataset past the TTL.
type LockRepository struct {
	backend *Backend
}

var _ storage.LockRepository = (*LockRepository)(nil)

// NewLockRepository creates a new LockRepository.
func NewLockRepository(backend *Backend) *LockRepository {
	return &LockRepository{
		backend: backend,
	}
}

// TryAcquireLock attempts to establish the promotion-in-progress marker.
func (r *LockRepository) TryAcquireLock(ctx context.Context, dataset string, ttl time.Duration) (bool, error) {
	acquired := false
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makePromotionLockKey(dataset)

		_, err := tx.Get(key)
		if err == nil {
			// Marker present and not yet expired: someone else holds it.
			return nil
		}
		if err != badger.ErrKeyNotFound {
			return err
		}

		entry := badger.NewEntry(key, []byte(time.Now().UTC().Format(time.RFC3339))).
			WithTTL(ttl)
		if err := tx.SetEntry(entry); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			// A conflicting transaction won the race.
			if err == badger.ErrConflict {
				return nil
			}
			return err
		}
		acquired = true
		return nil
	}, true)
	return acquired, err
}

// ReleaseLock removes the marker. Absent markers are ignored.
func (r *LockRepository) ReleaseLock(ctx context.Context, dataset string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Delete(makePromotionLockKey(dataset)); err != nil {
			return err
		}
		return commit(tx)
	}, true)
}
