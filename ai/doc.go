// Package ai provides the embedding service abstraction used by the pipeline.
//
// The package defines the Embedder interface so that chunk gating,
// evaluation and promotion depend on an abstraction rather than a concrete
// client. The embedding service is treated as a black box with possible
// transient failures and rate limits; callers wrap calls in bounded retries.
//
// # Implementation Packages
//
//   - ai/openai: Production implementation using OpenAI-compatible APIs
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// Public constructors (openai.NewEmbedder) return the interface type to
// enforce abstraction. Test utility constructors (mock.NewMockEmbedder)
// return concrete types to enable assertions and behavior injection via the
// mock's public fields and methods (CallCount, EmbedTextFunc, Reset).
package ai
