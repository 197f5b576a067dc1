package ingest

import "errors"

var (
	// ErrStoreRequired is returned when a vector store is not provided.
	ErrStoreRequired = errors.New("vector store required")

	// ErrHashRepositoryRequired is returned when a hash repository is not provided.
	ErrHashRepositoryRequired = errors.New("hash repository required")

	// ErrDocumentRepositoryRequired is returned when a document repository is not provided.
	ErrDocumentRepositoryRequired = errors.New("document repository required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrAssemblerRequired is returned when a chunk assembler is not provided.
	ErrAssemblerRequired = errors.New("chunk assembler required")
)
