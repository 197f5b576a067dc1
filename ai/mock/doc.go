// Package mock provides test double implementations of the ai interfaces.
//
// MockEmbedder returns deterministic vectors derived from a hash of the
// input text, so tests run without external services and identical inputs
// always embed identically.
//
//	mockEmbedder := mock.NewMockEmbedder()
//	mockEmbedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
//	    return []float32{0.1, 0.2, 0.3}, nil
//	}
//	count := mockEmbedder.CallCount()
package mock
