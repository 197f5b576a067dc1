package evaluate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/calyptra/vecstage/ai"
	"github.com/calyptra/vecstage/core"
	"github.com/calyptra/vecstage/retry"
	"github.com/calyptra/vecstage/segment"
	"github.com/calyptra/vecstage/storage"
	"github.com/calyptra/vecstage/vector"
	"github.com/google/uuid"
)

const (
	// DefaultTopK is how many staged matches each golden query inspects.
	DefaultTopK = 5

	// DefaultWeakScore marks a golden-query hit as weak. A weak hit passes
	// but is surfaced as a warning so operators notice drift before it
	// becomes a failure.
	DefaultWeakScore = float32(0.35)

	// maxIntegrityIssues caps how many issues one evaluation reports.
	// Past this point the dataset is broken and more detail adds nothing.
	maxIntegrityIssues = 25
)

// Evaluator runs the promotion gate for a dataset: every golden query must
// surface its expected citation from the staging namespace, and staged chunk
// text must look structurally sound. Results are persisted so the promoter
// can consult the latest attempt.
type Evaluator struct {
	store       vector.Store
	embedder    ai.Embedder
	evaluations storage.EvaluationRepository
	topK        int
	weakScore   float32
	maxRetries  int
	retryDelay  time.Duration
	logger      *slog.Logger
}

// Option configures an Evaluator.
type Option func(*Evaluator) error

// WithTopK sets how many matches each golden query retrieves.
func WithTopK(topK int) Option {
	return func(e *Evaluator) error {
		if topK < 1 {
			topK = DefaultTopK
		}
		e.topK = topK
		return nil
	}
}

// WithWeakScore sets the similarity score below which a golden-query hit is
// reported as a warning.
func WithWeakScore(score float32) Option {
	return func(e *Evaluator) error {
		e.weakScore = score
		return nil
	}
}

// WithRetry sets the retry policy for embedding and vector store calls.
func WithRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(e *Evaluator) error {
		if maxAttempts < 1 {
			return retry.ErrInvalidMaxAttempts
		}
		e.maxRetries = maxAttempts
		e.retryDelay = baseDelay
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Evaluator) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// NewEvaluator creates a new promotion-gate evaluator.
func NewEvaluator(
	store vector.Store,
	embedder ai.Embedder,
	evaluations storage.EvaluationRepository,
	opts ...Option,
) (*Evaluator, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if evaluations == nil {
		return nil, ErrEvaluationRepositoryRequired
	}

	e := &Evaluator{
		store:       store,
		embedder:    embedder,
		evaluations: evaluations,
		topK:        DefaultTopK,
		weakScore:   DefaultWeakScore,
		maxRetries:  3,
		retryDelay:  time.Second,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Evaluate runs all checks against the dataset's staging namespace and
// persists the result. A failed evaluation is a normal outcome, not an
// error; the error return covers infrastructure failures only.
func (e *Evaluator) Evaluate(ctx context.Context, dataset core.Dataset, queries []core.GoldenQuery) (*core.EvaluationResult, error) {
	if err := core.ValidateDataset(&dataset); err != nil {
		return nil, err
	}

	result := &core.EvaluationResult{
		Id:        uuid.NewString(),
		Dataset:   dataset.Name,
		Passed:    true,
		CreatedAt: time.Now(),
	}

	// An unqueried dataset has no promotion gate, so it never passes.
	if len(queries) == 0 {
		result.Passed = false
		result.IntegrityIssues = append(result.IntegrityIssues, "no golden queries configured for dataset")
		if err := e.evaluations.SaveEvaluation(ctx, result); err != nil {
			return nil, fmt.Errorf("persisting evaluation: %w", err)
		}
		e.logger.Warn("evaluation failed", "dataset", dataset.Name, "reason", "no golden queries configured")
		return result, nil
	}

	for _, query := range queries {
		if err := core.ValidateGoldenQuery(&query); err != nil {
			return nil, err
		}
		check, err := e.runGoldenQuery(ctx, dataset, query)
		if err != nil {
			return nil, err
		}
		result.Checks = append(result.Checks, check)
		if !check.Passed {
			result.Passed = false
		}
		if check.Warned {
			e.logger.Warn("golden query matched weakly", "dataset", dataset.Name, "query", query.Query, "reason", check.Reason)
		}
	}

	issues, err := e.checkIntegrity(ctx, dataset)
	if err != nil {
		return nil, err
	}
	result.IntegrityIssues = issues
	if len(issues) > 0 {
		result.Passed = false
	}

	if err := e.evaluations.SaveEvaluation(ctx, result); err != nil {
		return nil, fmt.Errorf("persisting evaluation: %w", err)
	}

	e.logger.Info("evaluation finished", "dataset", dataset.Name,
		"passed", result.Passed, "checks", len(result.Checks), "integrity_issues", len(issues))
	return result, nil
}

// runGoldenQuery embeds one query, searches staging and checks that the
// expected citation appears among the matches, either in a result's source
// URL or in its chunk text.
func (e *Evaluator) runGoldenQuery(ctx context.Context, dataset core.Dataset, query core.GoldenQuery) (core.QueryCheck, error) {
	check := core.QueryCheck{Query: query.Query}

	var embedding []float32
	err := retry.WithBackoff(ctx, func() error {
		var embedErr error
		embedding, embedErr = e.embedder.EmbedText(ctx, query.Query)
		return embedErr
	}, e.maxRetries, e.retryDelay)
	if err != nil {
		return check, fmt.Errorf("embedding golden query %q: %w", query.Query, err)
	}

	var matches []vector.Match
	err = retry.WithBackoff(ctx, func() error {
		var queryErr error
		matches, queryErr = e.store.Query(ctx, dataset.Staging, vector.Normalize(embedding), e.topK)
		return queryErr
	}, e.maxRetries, e.retryDelay)
	if err != nil {
		return check, fmt.Errorf("querying staging for %q: %w", query.Query, err)
	}

	for rank, match := range matches {
		if !strings.Contains(match.Metadata.URL, query.ExpectedCitation) &&
			!strings.Contains(match.Metadata.Text, query.ExpectedCitation) {
			continue
		}
		check.Passed = true
		if rank > 0 || match.Score < e.weakScore {
			check.Warned = true
			check.Reason = fmt.Sprintf("expected citation found at rank %d with score %.3f", rank+1, match.Score)
		}
		return check, nil
	}

	if len(matches) == 0 {
		check.Reason = "no results returned from staging"
	} else {
		check.Reason = fmt.Sprintf("expected citation %q absent from top %d results", query.ExpectedCitation, len(matches))
	}
	return check, nil
}

// checkIntegrity scans every staged record for signs of broken chunk text:
// content that starts or ends mid-sentence, or atomic structures that were
// visibly truncated.
func (e *Evaluator) checkIntegrity(ctx context.Context, dataset core.Dataset) ([]string, error) {
	var issues []string
	err := e.store.ListAll(ctx, dataset.Staging, func(records []vector.Record) error {
		for _, record := range records {
			if len(issues) >= maxIntegrityIssues {
				return nil
			}
			for _, issue := range inspectChunkText(record.Metadata.Text) {
				issues = append(issues, fmt.Sprintf("vector %d (%s): %s", record.Id, record.Metadata.URL, issue))
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning staging namespace: %w", err)
	}
	if len(issues) > maxIntegrityIssues {
		issues = issues[:maxIntegrityIssues]
	}
	return issues, nil
}

// inspectChunkText applies cheap structural heuristics to one chunk's text.
// Headings, list markers, table rows and code fences are exempt from the
// sentence checks since they legitimately lack terminal punctuation.
func inspectChunkText(text string) []string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return []string{"empty chunk text"}
	}

	var issues []string
	lines := strings.Split(trimmed, "\n")
	first := strings.TrimSpace(lines[0])
	last := strings.TrimSpace(lines[len(lines)-1])

	if isProse(first) && !segment.StartsSentence(first) {
		issues = append(issues, "text starts mid-sentence")
	}
	if isProse(last) && !segment.EndsSentence(last) {
		issues = append(issues, "text ends mid-sentence")
	}

	if strings.Count(text, "```")%2 != 0 {
		issues = append(issues, "unbalanced code fence")
	}
	if tableRows := countTableRows(lines); tableRows == 1 {
		issues = append(issues, "dangling table row")
	}
	return issues
}

// isProse reports whether a line should obey sentence-boundary rules.
func isProse(line string) bool {
	if line == "" {
		return false
	}
	switch {
	case strings.HasPrefix(line, "#"),
		strings.HasPrefix(line, "|"),
		strings.HasPrefix(line, "```"),
		strings.HasPrefix(line, "- "),
		strings.HasPrefix(line, "* "),
		strings.HasPrefix(line, "+ "):
		return false
	}
	return true
}

func countTableRows(lines []string) int {
	count := 0
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "|") {
			count++
		}
	}
	return count
}
