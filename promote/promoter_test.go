package promote

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/calyptra/vecstage/core"
	"github.com/calyptra/vecstage/storage/badger"
	"github.com/calyptra/vecstage/vector"
	"github.com/calyptra/vecstage/vector/memory"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDataset = core.Dataset{
	Name:       "docs",
	Staging:    "docs-staging",
	Production: "docs-production",
}

func stagedRecord(id core.ID) vector.Record {
	return vector.Record{
		Id:     id,
		Values: []float32{1, 0, 0},
		Metadata: vector.Metadata{
			Dataset: testDataset.Name,
			URL:     "https://example.com/page",
			Text:    "Staged content for promotion.",
		},
	}
}

func savePassedEvaluation(t *testing.T, repos *badger.MemoryRepositories) {
	t.Helper()
	err := repos.Evaluations.SaveEvaluation(context.Background(), &core.EvaluationResult{
		Id:        uuid.NewString(),
		Dataset:   testDataset.Name,
		Passed:    true,
		CreatedAt: time.Now(),
	})
	require.NoError(t, err)
}

func newTestPromoter(t *testing.T, store *memory.Store, opts ...Option) (*Promoter, *badger.MemoryRepositories) {
	t.Helper()
	repos, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { repos.Close() })

	opts = append([]Option{
		WithRetry(2, time.Millisecond),
		WithProgressWriter(io.Discard),
	}, opts...)
	promoter, err := NewPromoter(store, repos.Locks, repos.Evaluations, opts...)
	require.NoError(t, err)
	return promoter, repos
}

func TestPromote_MirrorsStagingIntoProduction(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.Upsert(ctx, testDataset.Staging, []vector.Record{
		stagedRecord(1), stagedRecord(2), stagedRecord(3),
	}))

	promoter, repos := newTestPromoter(t, store)
	savePassedEvaluation(t, repos)

	summary, err := promoter.Promote(ctx, testDataset)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Mirrored)
	assert.Zero(t, summary.Pruned)
	assert.Equal(t, 3, store.Count(testDataset.Production))
	assert.Equal(t, 3, store.Count(testDataset.Staging), "staging is left untouched")
}

func TestPromote_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.Upsert(ctx, testDataset.Staging, []vector.Record{
		stagedRecord(1), stagedRecord(2),
	}))

	promoter, repos := newTestPromoter(t, store)
	savePassedEvaluation(t, repos)

	_, err := promoter.Promote(ctx, testDataset)
	require.NoError(t, err)
	summary, err := promoter.Promote(ctx, testDataset)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Mirrored)
	assert.Equal(t, 2, store.Count(testDataset.Production), "re-promotion converges, never duplicates")
}

func TestPromote_PrunesStaleProductionVectors(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.Upsert(ctx, testDataset.Staging, []vector.Record{
		stagedRecord(1), stagedRecord(2),
	}))
	// Production still carries a vector from a previous content version.
	require.NoError(t, store.Upsert(ctx, testDataset.Production, []vector.Record{
		stagedRecord(99),
	}))

	promoter, repos := newTestPromoter(t, store)
	savePassedEvaluation(t, repos)

	summary, err := promoter.Promote(ctx, testDataset)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Mirrored)
	assert.Equal(t, 1, summary.Pruned)
	assert.Equal(t, 2, store.Count(testDataset.Production))
}

func TestPromote_PruneDisabledKeepsStaleVectors(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.Upsert(ctx, testDataset.Staging, []vector.Record{stagedRecord(1)}))
	require.NoError(t, store.Upsert(ctx, testDataset.Production, []vector.Record{stagedRecord(99)}))

	promoter, repos := newTestPromoter(t, store, WithPruneStale(false))
	savePassedEvaluation(t, repos)

	summary, err := promoter.Promote(ctx, testDataset)
	require.NoError(t, err)
	assert.Zero(t, summary.Pruned)
	assert.Equal(t, 2, store.Count(testDataset.Production))
}

func TestPromote_RefusesWithoutEvaluation(t *testing.T) {
	store := memory.NewStore()
	promoter, _ := newTestPromoter(t, store)

	_, err := promoter.Promote(context.Background(), testDataset)
	assert.ErrorIs(t, err, ErrNotEvaluated)
}

func TestPromote_RefusesFailedEvaluation(t *testing.T) {
	store := memory.NewStore()
	promoter, repos := newTestPromoter(t, store)

	err := repos.Evaluations.SaveEvaluation(context.Background(), &core.EvaluationResult{
		Id:      uuid.NewString(),
		Dataset: testDataset.Name,
		Passed:  false,
		Checks: []core.QueryCheck{
			{Query: "how to install", Passed: false, Reason: "no results returned from staging"},
		},
		CreatedAt: time.Now(),
	})
	require.NoError(t, err)

	_, err = promoter.Promote(context.Background(), testDataset)
	require.ErrorIs(t, err, ErrEvaluationFailed)
	assert.Contains(t, err.Error(), "how to install", "the refusal must carry the failure reasons")
}

func TestPromote_LockExcludesConcurrentRun(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	promoter, repos := newTestPromoter(t, store)
	savePassedEvaluation(t, repos)

	// Simulate another promoter holding the dataset lock.
	acquired, err := repos.Locks.TryAcquireLock(ctx, testDataset.Name, time.Minute)
	require.NoError(t, err)
	require.True(t, acquired)

	_, err = promoter.Promote(ctx, testDataset)
	assert.ErrorIs(t, err, ErrPromotionInProgress)

	// Once released, promotion proceeds.
	require.NoError(t, repos.Locks.ReleaseLock(ctx, testDataset.Name))
	_, err = promoter.Promote(ctx, testDataset)
	assert.NoError(t, err)
}

func TestPromote_ReleasesLockAfterRun(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	promoter, repos := newTestPromoter(t, store)
	savePassedEvaluation(t, repos)

	_, err := promoter.Promote(ctx, testDataset)
	require.NoError(t, err)

	acquired, err := repos.Locks.TryAcquireLock(ctx, testDataset.Name, time.Minute)
	require.NoError(t, err)
	assert.True(t, acquired, "the lock must be released when promotion finishes")
}

func TestProgressTracker(t *testing.T) {
	tracker := NewProgressTracker(io.Discard, 10)
	tracker.Start()
	tracker.Increment(25)
	tracker.Increment(5)
	tracker.Finish()
	assert.Greater(t, tracker.Elapsed(), time.Duration(0))
}
