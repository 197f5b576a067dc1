package evaluate

import (
	"context"
	"testing"
	"time"

	"github.com/calyptra/vecstage/ai/mock"
	"github.com/calyptra/vecstage/core"
	"github.com/calyptra/vecstage/storage/badger"
	"github.com/calyptra/vecstage/vector"
	"github.com/calyptra/vecstage/vector/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDataset = core.Dataset{
	Name:       "docs",
	Staging:    "docs-staging",
	Production: "docs-production",
}

// axis returns a unit vector along one of three axes, so staged records and
// query embeddings can be pointed at each other exactly.
func axis(i int) []float32 {
	v := make([]float32, 3)
	v[i] = 1
	return v
}

func seedStaging(t *testing.T, store *memory.Store) {
	t.Helper()
	records := []vector.Record{
		{Id: 1, Values: axis(0), Metadata: vector.Metadata{
			URL:  "https://example.com/install",
			Text: "Install instructions live here.",
		}},
		{Id: 2, Values: axis(1), Metadata: vector.Metadata{
			URL:  "https://example.com/pricing",
			Text: "Pricing tiers are explained here.",
		}},
		{Id: 3, Values: axis(2), Metadata: vector.Metadata{
			URL:  "https://example.com/contact",
			Text: "Contact the support team by mail.",
		}},
	}
	require.NoError(t, store.Upsert(context.Background(), testDataset.Staging, records))
}

func newTestEvaluator(t *testing.T, store *memory.Store, embedder *mock.MockEmbedder) (*Evaluator, *badger.MemoryRepositories) {
	t.Helper()
	repos, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { repos.Close() })

	evaluator, err := NewEvaluator(store, embedder, repos.Evaluations,
		WithRetry(2, time.Millisecond))
	require.NoError(t, err)
	return evaluator, repos
}

func TestEvaluate_PassingGoldenQuery(t *testing.T) {
	store := memory.NewStore()
	seedStaging(t, store)

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return axis(0), nil
	}

	evaluator, repos := newTestEvaluator(t, store, embedder)
	result, err := evaluator.Evaluate(context.Background(), testDataset, []core.GoldenQuery{
		{Query: "how do I install", ExpectedCitation: "/install"},
	})
	require.NoError(t, err)

	assert.True(t, result.Passed)
	require.Len(t, result.Checks, 1)
	assert.True(t, result.Checks[0].Passed)
	assert.False(t, result.Checks[0].Warned, "a top-rank strong hit should not warn")
	assert.Empty(t, result.IntegrityIssues)

	saved, err := repos.Evaluations.LatestEvaluation(context.Background(), testDataset.Name)
	require.NoError(t, err)
	assert.Equal(t, result.Id, saved.Id, "the result must be persisted as the latest attempt")
}

func TestEvaluate_CitationMatchesChunkText(t *testing.T) {
	store := memory.NewStore()
	seedStaging(t, store)

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return axis(0), nil
	}

	evaluator, _ := newTestEvaluator(t, store, embedder)
	result, err := evaluator.Evaluate(context.Background(), testDataset, []core.GoldenQuery{
		{Query: "where are the install instructions", ExpectedCitation: "Install instructions"},
	})
	require.NoError(t, err)

	assert.True(t, result.Passed, "a citation substring may match the chunk text, not just the URL")
	require.Len(t, result.Checks, 1)
	assert.True(t, result.Checks[0].Passed)
}

func TestEvaluate_MissingCitationFailsHard(t *testing.T) {
	store := memory.NewStore()
	seedStaging(t, store)

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return axis(0), nil
	}

	evaluator, _ := newTestEvaluator(t, store, embedder)
	result, err := evaluator.Evaluate(context.Background(), testDataset, []core.GoldenQuery{
		{Query: "refund policy", ExpectedCitation: "/refunds"},
	})
	require.NoError(t, err, "a failing evaluation is a result, not an error")

	assert.False(t, result.Passed)
	require.Len(t, result.Checks, 1)
	assert.False(t, result.Checks[0].Passed)

	reasons := result.Reasons()
	require.Len(t, reasons, 1)
	assert.Contains(t, reasons[0], "refund policy", "the failure reason must name the query")
}

func TestEvaluate_WeakHitWarnsButPasses(t *testing.T) {
	store := memory.NewStore()
	seedStaging(t, store)

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		// Points at the pricing record, leaving the install page down-rank.
		return axis(1), nil
	}

	evaluator, _ := newTestEvaluator(t, store, embedder)
	result, err := evaluator.Evaluate(context.Background(), testDataset, []core.GoldenQuery{
		{Query: "how do I install", ExpectedCitation: "/install"},
	})
	require.NoError(t, err)

	assert.True(t, result.Passed, "a weak hit is non-blocking")
	require.Len(t, result.Checks, 1)
	assert.True(t, result.Checks[0].Passed)
	assert.True(t, result.Checks[0].Warned)
	assert.NotEmpty(t, result.Checks[0].Reason)
}

func TestEvaluate_EmptyStagingFails(t *testing.T) {
	store := memory.NewStore()
	embedder := mock.NewMockEmbedder()

	evaluator, _ := newTestEvaluator(t, store, embedder)
	result, err := evaluator.Evaluate(context.Background(), testDataset, []core.GoldenQuery{
		{Query: "anything at all", ExpectedCitation: "/anything"},
	})
	require.NoError(t, err)

	assert.False(t, result.Passed)
	assert.Contains(t, result.Checks[0].Reason, "no results")
}

func TestEvaluate_NoGoldenQueriesFails(t *testing.T) {
	store := memory.NewStore()
	seedStaging(t, store)
	embedder := mock.NewMockEmbedder()

	evaluator, repos := newTestEvaluator(t, store, embedder)
	result, err := evaluator.Evaluate(context.Background(), testDataset, nil)
	require.NoError(t, err)

	assert.False(t, result.Passed, "a dataset with no golden queries must not pass")
	assert.Empty(t, result.Checks)
	assert.Zero(t, embedder.CallCount(), "nothing should be embedded without queries")

	reasons := result.Reasons()
	require.Len(t, reasons, 1)
	assert.Contains(t, reasons[0], "no golden queries")

	saved, err := repos.Evaluations.LatestEvaluation(context.Background(), testDataset.Name)
	require.NoError(t, err)
	assert.False(t, saved.Passed, "the failed attempt must be persisted")
}

func TestEvaluate_IntegrityIssuesBlock(t *testing.T) {
	store := memory.NewStore()
	broken := []vector.Record{
		{Id: 10, Values: axis(0), Metadata: vector.Metadata{
			URL:  "https://example.com/broken",
			Text: "this starts lowercase and trails off without",
		}},
		{Id: 11, Values: axis(1), Metadata: vector.Metadata{
			URL:  "https://example.com/fence",
			Text: "A fenced example follows.\n```\ncode without a closing fence",
		}},
	}
	require.NoError(t, store.Upsert(context.Background(), testDataset.Staging, broken))

	evaluator, _ := newTestEvaluator(t, store, mock.NewMockEmbedder())
	result, err := evaluator.Evaluate(context.Background(), testDataset, nil)
	require.NoError(t, err)

	assert.False(t, result.Passed)
	assert.NotEmpty(t, result.IntegrityIssues)
}

func TestInspectChunkText(t *testing.T) {
	assert.Empty(t, inspectChunkText("A clean paragraph that ends properly."))
	assert.Empty(t, inspectChunkText("# Heading\n\nThen a clean paragraph follows it."))
	assert.Empty(t, inspectChunkText("| a | b |\n| 1 | 2 |"))
	assert.Empty(t, inspectChunkText("```\nany code at all\n```"))

	assert.Contains(t, inspectChunkText("ends abruptly without punctuation"), "text starts mid-sentence")
	assert.NotEmpty(t, inspectChunkText("Unbalanced fence next.\n```\ncode"))
	assert.NotEmpty(t, inspectChunkText("A paragraph.\n| lone table row |"))
	assert.Equal(t, []string{"empty chunk text"}, inspectChunkText("   "))
}
