package badger

import (
	"context"
	"time"

	"github.com/calyptra/vecstage/core"
	"github.com/calyptra/vecstage/storage"
	"github.com/dgraph-io/badger/v4"
)

// DocumentRepository implements storage.DocumentRepository for BadgerDB.
type DocumentRepository struct {
	backend *Backend
}

var _ storage.DocumentRepository = (*DocumentRepository)(nil)

// NewDocumentRepository creates a new DocumentRepository.
func NewDocumentRepository(backend *Backend) *DocumentRepository {
	return &DocumentRepository{
		backend: backend,
	}
}

// Close releases resources. DocumentRepository has no resources to release.
func (r *DocumentRepository) Close() error {
	return nil
}

// PutDocument inserts or updates a document's state.
func (r *DocumentRepository) PutDocument(ctx context.Context, document *core.Document) (*core.Document, error) {
	if err := core.ValidateDocument(document); err != nil {
		return nil, err
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		if document.Id == 0 {
			document.Id = core.DocumentID(document.Dataset, document.URL)
		}
		document.UpdatedAt = time.Now().UTC()

		key := makeDocumentKey(document.Id)
		if err := tx.Set(key, storage.MarshalDocument(document)); err != nil {
			return err
		}

		indexKey := makeDocumentDatasetKey(document.Dataset, document.Id)
		if err := tx.Set(indexKey, storage.MarshalID(document.Id)); err != nil {
			return err
		}
		return commit(tx)
	}, true)

	return document, err
}

// GetDocument retrieves a document by its dataset and canonical URL.
// The document ID derives deterministically from (dataset, URL), so this is
// a direct key lookup.
func (r *DocumentRepository) GetDocument(ctx context.Context, dataset, url string) (*core.Document, error) {
	var document *core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeDocumentKey(core.DocumentID(dataset, url)))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var unmarshalErr error
			document, unmarshalErr = storage.UnmarshalDocument(val)
			return unmarshalErr
		})
	}, false)
	return document, err
}

// GetDocumentsByDataset retrieves all recorded documents for a dataset.
func (r *DocumentRepository) GetDocumentsByDataset(ctx context.Context, dataset string) ([]*core.Document, error) {
	var documents []*core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeDocumentDatasetPrefix(dataset)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var id core.ID
			err := iter.Item().Value(func(val []byte) error {
				var unmarshalErr error
				id, unmarshalErr = storage.UnmarshalID(val)
				return unmarshalErr
			})
			if err != nil {
				return err
			}

			item, err := tx.Get(makeDocumentKey(id))
			if err != nil {
				if err == badger.ErrKeyNotFound {
					continue // dangling index entry
				}
				return err
			}
			err = item.Value(func(val []byte) error {
				document, unmarshalErr := storage.UnmarshalDocument(val)
				if unmarshalErr != nil {
					return unmarshalErr
				}
				documents = append(documents, document)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	return documents, err
}
