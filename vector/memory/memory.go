package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/calyptra/vecstage/core"
	"github.com/calyptra/vecstage/vector"
)

const listBatchSize = 100

// Store is an in-memory vector store using brute-force cosine similarity.
// It implements vector.Store for tests and local runs.
type Store struct {
	mu         sync.RWMutex
	namespaces map[string]map[core.ID]vector.Record
}

var _ vector.Store = (*Store)(nil)

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		namespaces: make(map[string]map[core.ID]vector.Record),
	}
}

// Upsert inserts or overwrites records in a namespace.
func (s *Store) Upsert(ctx context.Context, namespace string, records []vector.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ns, ok := s.namespaces[namespace]
	if !ok {
		ns = make(map[core.ID]vector.Record)
		s.namespaces[namespace] = ns
	}
	for _, record := range records {
		record.Values = append([]float32(nil), record.Values...)
		ns[record.Id] = record
	}
	return nil
}

// Query returns the topK nearest records by dot product. Vectors are
// assumed L2-normalized, so dot product equals cosine similarity.
func (s *Store) Query(ctx context.Context, namespace string, values []float32, topK int) ([]vector.Match, error) {
	if topK <= 0 {
		topK = 5
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []vector.Match
	for _, record := range s.namespaces[namespace] {
		matches = append(matches, vector.Match{
			Id:       record.Id,
			Score:    dotProduct(values, record.Values),
			Metadata: record.Metadata,
		})
	}

	slices.SortFunc(matches, func(a, b vector.Match) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})

	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// Delete removes records by ID. Missing IDs are ignored.
func (s *Store) Delete(ctx context.Context, namespace string, ids []core.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ns := s.namespaces[namespace]
	for _, id := range ids {
		delete(ns, id)
	}
	return nil
}

// ListAll pages through all records in ID order, calling fn per batch.
// ID order keeps iteration deterministic across runs.
func (s *Store) ListAll(ctx context.Context, namespace string, fn func(batch []vector.Record) error) error {
	s.mu.RLock()
	ns := s.namespaces[namespace]
	records := make([]vector.Record, 0, len(ns))
	for _, record := range ns {
		records = append(records, record)
	}
	s.mu.RUnlock()

	slices.SortFunc(records, func(a, b vector.Record) int {
		if a.Id < b.Id {
			return -1
		}
		if a.Id > b.Id {
			return 1
		}
		return 0
	})

	for i := 0; i < len(records); i += listBatchSize {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		end := i + listBatchSize
		if end > len(records) {
			end = len(records)
		}
		if err := fn(records[i:end]); err != nil {
			return err
		}
	}
	return nil
}

// Count returns the number of records in a namespace.
func (s *Store) Count(namespace string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.namespaces[namespace])
}

// dotProduct calculates the dot product of two vectors.
func dotProduct(a, b []float32) float32 {
	var sum float32
	minLen := len(a)
	if len(b) < minLen {
		minLen = len(b)
	}
	for i := 0; i < minLen; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
