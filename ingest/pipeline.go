package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/calyptra/vecstage/ai"
	"github.com/calyptra/vecstage/chunk"
	"github.com/calyptra/vecstage/core"
	"github.com/calyptra/vecstage/retry"
	"github.com/calyptra/vecstage/segment"
	"github.com/calyptra/vecstage/storage"
	"github.com/calyptra/vecstage/vector"
	"github.com/panjf2000/ants/v2"
)

// DefaultUpsertBatchSize bounds upsert request sizes the way hosted vector
// stores require (Pinecone caps requests at 100 vectors).
const DefaultUpsertBatchSize = 100

// Page is one cleaned document handed to the pipeline by the upstream
// fetcher. Text is plain text with recoverable structural markers.
type Page struct {
	URL         string
	Title       string
	RawLocation string
	Text        string
}

// Summary reports the outcome of one ingestion run.
type Summary struct {
	Processed int
	Skipped   int
	Failed    int
	Chunks    int
	Embedded  int // chunks that actually required an embedding call
}

// Pipeline converts cleaned pages into staged vector records: segment,
// assemble, assign identities, gate on content hashes, embed what changed
// and upsert into the dataset's staging namespace.
//
// Documents are independent: identities derive from (document, position,
// content), never from shared counters, so pages process concurrently on a
// worker pool in any order.
type Pipeline struct {
	store      vector.Store
	documents  storage.DocumentRepository
	embedder   ai.Embedder
	segmenter  *segment.Segmenter
	assembler  *chunk.Assembler
	gate       *Gate
	pool       *ants.Pool
	batchSize  int
	maxRetries int
	retryDelay time.Duration
	logger     *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent page processing.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		if p.pool != nil {
			p.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithRetry sets the retry policy for embedding and vector store calls.
func WithRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(p *Pipeline) error {
		if maxAttempts < 1 {
			return retry.ErrInvalidMaxAttempts
		}
		p.maxRetries = maxAttempts
		p.retryDelay = baseDelay
		return nil
	}
}

// WithUpsertBatchSize sets the number of records per upsert request.
func WithUpsertBatchSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = DefaultUpsertBatchSize
		}
		p.batchSize = size
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	store vector.Store,
	hashes storage.HashRepository,
	documents storage.DocumentRepository,
	embedder ai.Embedder,
	assembler *chunk.Assembler,
	opts ...Option,
) (*Pipeline, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if hashes == nil {
		return nil, ErrHashRepositoryRequired
	}
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if assembler == nil {
		return nil, ErrAssemblerRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		store:      store,
		documents:  documents,
		embedder:   embedder,
		assembler:  assembler,
		pool:       pool,
		batchSize:  DefaultUpsertBatchSize,
		maxRetries: 3,
		retryDelay: time.Second,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	p.segmenter = segment.NewSegmenter(segment.WithLogger(p.logger))
	p.gate, err = NewGate(hashes, p.logger)
	if err != nil {
		p.Release()
		return nil, err
	}

	return p, nil
}

// Ingest processes pages for a dataset and stages the resulting vector
// records. A failing page is isolated: it is counted in the summary and
// logged, and the remaining pages continue.
func (p *Pipeline) Ingest(ctx context.Context, dataset core.Dataset, pages []Page) (*Summary, error) {
	if err := core.ValidateDataset(&dataset); err != nil {
		return nil, err
	}

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		summary Summary
	)

	for _, page := range pages {
		page := page
		wg.Add(1)
		task := func() {
			defer wg.Done()
			chunks, embedded, err := p.processPage(ctx, dataset, page)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				summary.Failed++
				p.logger.Error("page ingestion failed", "dataset", dataset.Name, "url", page.URL, "err", err)
			case chunks < 0:
				summary.Skipped++
			default:
				summary.Processed++
				summary.Chunks += chunks
				summary.Embedded += embedded
			}
		}
		if err := p.pool.Submit(task); err != nil {
			// Pool rejected the task (released or overloaded); run inline.
			task()
		}
	}

	wg.Wait()
	p.logger.Info("ingestion finished", "dataset", dataset.Name,
		"processed", summary.Processed, "skipped", summary.Skipped,
		"failed", summary.Failed, "chunks", summary.Chunks, "embedded", summary.Embedded)
	return &summary, nil
}

// processPage runs one page through the pipeline.
// Returns (-1, 0, nil) when the page was skipped as unchanged.
func (p *Pipeline) processPage(ctx context.Context, dataset core.Dataset, page Page) (int, int, error) {
	docHash := core.HashText(page.Text)

	existing, err := p.documents.GetDocument(ctx, dataset.Name, page.URL)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return 0, 0, fmt.Errorf("document lookup: %w", err)
	}
	if existing != nil && existing.Status == core.DocumentProcessed && existing.ContentHash == docHash {
		p.logger.Debug("page unchanged, skipping", "url", page.URL)
		return -1, 0, nil
	}

	documentID := core.DocumentID(dataset.Name, page.URL)
	blocks := p.segmenter.Segment(page.Text)
	chunks := p.assembler.Assemble(documentID, blocks)

	candidates, err := p.gate.Plan(ctx, dataset.Name, chunks)
	if err != nil {
		return 0, 0, err
	}

	embedded, err := p.stageChanged(ctx, dataset, page, candidates)
	if err != nil {
		return 0, 0, err
	}

	vectors := make([]core.ID, len(candidates))
	for i, candidate := range candidates {
		vectors[i] = candidate.VectorId
	}

	if existing != nil {
		if err := p.dropSuperseded(ctx, dataset, existing.Vectors, vectors); err != nil {
			return 0, 0, err
		}
	}

	_, err = p.documents.PutDocument(ctx, &core.Document{
		Id:          documentID,
		Dataset:     dataset.Name,
		URL:         page.URL,
		RawLocation: page.RawLocation,
		ContentHash: docHash,
		Status:      core.DocumentProcessed,
		Vectors:     vectors,
	})
	if err != nil {
		return 0, 0, fmt.Errorf("document state update: %w", err)
	}

	return len(chunks), embedded, nil
}

// stageChanged embeds and upserts the candidates the gate let through.
// Returns the number of chunks that required an embedding call.
func (p *Pipeline) stageChanged(ctx context.Context, dataset core.Dataset, page Page, candidates []Candidate) (int, error) {
	var pending []Candidate
	for _, candidate := range candidates {
		if !candidate.Unchanged {
			pending = append(pending, candidate)
		}
	}
	if len(pending) == 0 {
		return 0, nil
	}

	texts := make([]string, len(pending))
	for i, candidate := range pending {
		texts[i] = candidate.Chunk.Text
	}

	var embeddings [][]float32
	err := retry.WithBackoff(ctx, func() error {
		var embedErr error
		embeddings, embedErr = p.embedder.EmbedTexts(ctx, texts)
		return embedErr
	}, p.maxRetries, p.retryDelay)
	if err != nil {
		return 0, fmt.Errorf("embedding %d chunks after %d attempts: %w", len(pending), p.maxRetries, err)
	}
	if len(embeddings) != len(pending) {
		return 0, fmt.Errorf("embedding count mismatch: expected %d, got %d", len(pending), len(embeddings))
	}

	records := make([]vector.Record, len(pending))
	for i, candidate := range pending {
		records[i] = vector.Record{
			Id:     candidate.VectorId,
			Values: vector.Normalize(embeddings[i]),
			Metadata: vector.Metadata{
				Dataset:     dataset.Name,
				URL:         page.URL,
				Title:       page.Title,
				Text:        candidate.Chunk.Text,
				DocumentId:  candidate.Chunk.DocumentId,
				Ordinal:     candidate.Chunk.Ordinal,
				ContentHash: candidate.Chunk.ContentHash,
			},
		}
	}

	for start := 0; start < len(records); start += p.batchSize {
		end := start + p.batchSize
		if end > len(records) {
			end = len(records)
		}
		batch := records[start:end]
		err := retry.WithBackoff(ctx, func() error {
			return p.store.Upsert(ctx, dataset.Staging, batch)
		}, p.maxRetries, p.retryDelay)
		if err != nil {
			return 0, fmt.Errorf("staging upsert: %w", err)
		}
		// Record hashes only after the covering upsert succeeded, so a
		// failed run re-embeds rather than leaving a staged lie.
		for _, candidate := range pending[start:end] {
			if err := p.gate.Record(ctx, candidate); err != nil {
				return 0, fmt.Errorf("recording content hash: %w", err)
			}
		}
	}

	return len(pending), nil
}

// dropSuperseded removes staging vectors that belonged to the document's
// previous content but are absent from the new chunk set.
func (p *Pipeline) dropSuperseded(ctx context.Context, dataset core.Dataset, old, current []core.ID) error {
	keep := make(map[core.ID]struct{}, len(current))
	for _, id := range current {
		keep[id] = struct{}{}
	}

	var stale []core.ID
	for _, id := range old {
		if _, ok := keep[id]; !ok {
			stale = append(stale, id)
		}
	}
	if len(stale) == 0 {
		return nil
	}

	p.logger.Debug("dropping superseded staging vectors", "dataset", dataset.Name, "count", len(stale))
	err := retry.WithBackoff(ctx, func() error {
		return p.store.Delete(ctx, dataset.Staging, stale)
	}, p.maxRetries, p.retryDelay)
	if err != nil {
		return fmt.Errorf("deleting superseded vectors: %w", err)
	}
	return p.gate.hashes.DeleteHashes(ctx, stale...)
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
