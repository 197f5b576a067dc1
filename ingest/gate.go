package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/calyptra/vecstage/core"
	"github.com/calyptra/vecstage/storage"
)

// Candidate pairs a chunk with its derived vector ID and the gate's verdict.
type Candidate struct {
	Chunk    core.Chunk
	VectorId core.ID
	// Unchanged means the stored content hash matches the chunk's hash, so
	// embedding and upserting can be skipped entirely.
	Unchanged bool
}

// Gate is the change-aware embedding gate. Before any embedding call it
// compares the chunk's content hash against the hash last recorded for the
// chunk's vector ID; an exact match means no downstream work is needed.
//
// Under concurrent ingestion of the same dataset the gate is best-effort:
// two racing tasks may both see a stale hash and both embed, which wastes a
// call but stays correct because the upserts are idempotent.
type Gate struct {
	hashes storage.HashRepository
	logger *slog.Logger
}

// NewGate creates a gate over the given hash repository.
func NewGate(hashes storage.HashRepository, logger *slog.Logger) (*Gate, error) {
	if hashes == nil {
		return nil, ErrHashRepositoryRequired
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{
		hashes: hashes,
		logger: logger.With("component", "gate"),
	}, nil
}

// Plan derives each chunk's vector ID and decides whether it needs an
// embedding call.
func (g *Gate) Plan(ctx context.Context, dataset string, chunks []core.Chunk) ([]Candidate, error) {
	candidates := make([]Candidate, len(chunks))
	unchanged := 0

	for i, c := range chunks {
		vectorID := core.VectorID(dataset, c.Id)

		stored, err := g.hashes.GetHash(ctx, vectorID)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("gate lookup for vector %d: %w", vectorID, err)
		}

		candidates[i] = Candidate{
			Chunk:     c,
			VectorId:  vectorID,
			Unchanged: err == nil && stored == c.ContentHash,
		}
		if candidates[i].Unchanged {
			unchanged++
		}
	}

	g.logger.Debug("gated chunks", "dataset", dataset, "total", len(chunks), "unchanged", unchanged)
	return candidates, nil
}

// Record stores the content hash for an upserted candidate.
func (g *Gate) Record(ctx context.Context, candidate Candidate) error {
	return g.hashes.PutHash(ctx, candidate.VectorId, candidate.Chunk.ContentHash)
}
