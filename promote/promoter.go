package promote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/calyptra/vecstage/core"
	"github.com/calyptra/vecstage/retry"
	"github.com/calyptra/vecstage/storage"
	"github.com/calyptra/vecstage/vector"
)

const (
	// DefaultBatchSize bounds upsert and delete request sizes.
	DefaultBatchSize = 100

	// DefaultLockTTL is how long a promotion lock survives a crashed
	// promoter before another run may proceed.
	DefaultLockTTL = 15 * time.Minute
)

// Summary reports the outcome of one promotion run.
type Summary struct {
	Mirrored int
	Pruned   int
	Elapsed  time.Duration
}

// Promoter mirrors a dataset's staging namespace into its production
// namespace. Record identities are deterministic, so mirroring is a plain
// idempotent upsert: re-running a crashed promotion converges on the same
// production state.
type Promoter struct {
	store       vector.Store
	locks       storage.LockRepository
	evaluations storage.EvaluationRepository
	batchSize   int
	lockTTL     time.Duration
	pruneStale  bool
	maxRetries  int
	retryDelay  time.Duration
	progressOut io.Writer
	logger      *slog.Logger
}

// Option configures a Promoter.
type Option func(*Promoter) error

// WithBatchSize sets the number of records per production upsert.
func WithBatchSize(size int) Option {
	return func(p *Promoter) error {
		if size < 1 {
			size = DefaultBatchSize
		}
		p.batchSize = size
		return nil
	}
}

// WithLockTTL sets how long the promotion lock outlives a crashed run.
func WithLockTTL(ttl time.Duration) Option {
	return func(p *Promoter) error {
		if ttl <= 0 {
			ttl = DefaultLockTTL
		}
		p.lockTTL = ttl
		return nil
	}
}

// WithPruneStale controls whether production vectors absent from staging
// are deleted after the mirror completes. Enabled by default; disable it
// for datasets where stale-but-searchable beats briefly missing.
func WithPruneStale(prune bool) Option {
	return func(p *Promoter) error {
		p.pruneStale = prune
		return nil
	}
}

// WithRetry sets the retry policy for vector store calls.
func WithRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(p *Promoter) error {
		if maxAttempts < 1 {
			return retry.ErrInvalidMaxAttempts
		}
		p.maxRetries = maxAttempts
		p.retryDelay = baseDelay
		return nil
	}
}

// WithProgressWriter sets where progress output goes.
// Pass io.Discard to silence it.
func WithProgressWriter(w io.Writer) Option {
	return func(p *Promoter) error {
		if w == nil {
			w = io.Discard
		}
		p.progressOut = w
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Promoter) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPromoter creates a new promoter.
func NewPromoter(
	store vector.Store,
	locks storage.LockRepository,
	evaluations storage.EvaluationRepository,
	opts ...Option,
) (*Promoter, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if locks == nil {
		return nil, ErrLockRepositoryRequired
	}
	if evaluations == nil {
		return nil, ErrEvaluationRepositoryRequired
	}

	p := &Promoter{
		store:       store,
		locks:       locks,
		evaluations: evaluations,
		batchSize:   DefaultBatchSize,
		lockTTL:     DefaultLockTTL,
		pruneStale:  true,
		maxRetries:  3,
		retryDelay:  time.Second,
		progressOut: io.Discard,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Promote mirrors the dataset's staging namespace into production.
// It refuses to run unless the latest evaluation for the dataset passed,
// and refuses to overlap with another promotion of the same dataset.
func (p *Promoter) Promote(ctx context.Context, dataset core.Dataset) (*Summary, error) {
	if err := core.ValidateDataset(&dataset); err != nil {
		return nil, err
	}

	if err := p.checkGate(ctx, dataset.Name); err != nil {
		return nil, err
	}

	acquired, err := p.locks.TryAcquireLock(ctx, dataset.Name, p.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquiring promotion lock: %w", err)
	}
	if !acquired {
		return nil, fmt.Errorf("%w: dataset %s", ErrPromotionInProgress, dataset.Name)
	}
	defer func() {
		if releaseErr := p.locks.ReleaseLock(context.WithoutCancel(ctx), dataset.Name); releaseErr != nil {
			p.logger.Warn("failed to release promotion lock", "dataset", dataset.Name, "err", releaseErr)
		}
	}()

	tracker := NewProgressTracker(p.progressOut, p.batchSize)
	tracker.Start()

	staged, mirrored, err := p.mirror(ctx, dataset, tracker)
	if err != nil {
		return nil, err
	}
	tracker.Finish()

	summary := &Summary{Mirrored: mirrored}
	if p.pruneStale {
		pruned, pruneErr := p.prune(ctx, dataset, staged)
		if pruneErr != nil {
			return nil, pruneErr
		}
		summary.Pruned = pruned
	}
	summary.Elapsed = tracker.Elapsed()

	p.logger.Info("promotion finished", "dataset", dataset.Name,
		"mirrored", summary.Mirrored, "pruned", summary.Pruned, "elapsed", summary.Elapsed)
	return summary, nil
}

// checkGate verifies the latest evaluation for the dataset passed.
func (p *Promoter) checkGate(ctx context.Context, dataset string) error {
	latest, err := p.evaluations.LatestEvaluation(ctx, dataset)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%w: dataset %s", ErrNotEvaluated, dataset)
		}
		return fmt.Errorf("loading latest evaluation: %w", err)
	}
	if !latest.Passed {
		return fmt.Errorf("%w: %s", ErrEvaluationFailed, strings.Join(latest.Reasons(), "; "))
	}
	return nil
}

// mirror streams staging into production and returns the set of staged IDs
// alongside the mirrored count.
func (p *Promoter) mirror(ctx context.Context, dataset core.Dataset, tracker *ProgressTracker) (map[core.ID]struct{}, int, error) {
	staged := make(map[core.ID]struct{})
	mirrored := 0

	err := p.store.ListAll(ctx, dataset.Staging, func(records []vector.Record) error {
		for start := 0; start < len(records); start += p.batchSize {
			end := start + p.batchSize
			if end > len(records) {
				end = len(records)
			}
			batch := records[start:end]
			upsertErr := retry.WithBackoff(ctx, func() error {
				return p.store.Upsert(ctx, dataset.Production, batch)
			}, p.maxRetries, p.retryDelay)
			if upsertErr != nil {
				return fmt.Errorf("production upsert: %w", upsertErr)
			}
			for _, record := range batch {
				staged[record.Id] = struct{}{}
			}
			mirrored += len(batch)
			tracker.Increment(len(batch))
		}
		return nil
	})
	if err != nil {
		return nil, 0, fmt.Errorf("mirroring dataset %s: %w", dataset.Name, err)
	}
	return staged, mirrored, nil
}

// prune deletes production vectors whose IDs are absent from staging.
// Runs only after the mirror completed, so every staged vector is already
// live in production before anything disappears.
func (p *Promoter) prune(ctx context.Context, dataset core.Dataset, staged map[core.ID]struct{}) (int, error) {
	var stale []core.ID
	err := p.store.ListAll(ctx, dataset.Production, func(records []vector.Record) error {
		for _, record := range records {
			if _, ok := staged[record.Id]; !ok {
				stale = append(stale, record.Id)
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scanning production namespace: %w", err)
	}

	for start := 0; start < len(stale); start += p.batchSize {
		end := start + p.batchSize
		if end > len(stale) {
			end = len(stale)
		}
		batch := stale[start:end]
		deleteErr := retry.WithBackoff(ctx, func() error {
			return p.store.Delete(ctx, dataset.Production, batch)
		}, p.maxRetries, p.retryDelay)
		if deleteErr != nil {
			return 0, fmt.Errorf("pruning stale vectors: %w", deleteErr)
		}
	}

	if len(stale) > 0 {
		p.logger.Info("pruned stale production vectors", "dataset", dataset.Name, "count", len(stale))
	}
	return len(stale), nil
}
